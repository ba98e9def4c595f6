package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/klarwerk/zielbord/internal/api/dto"
	"github.com/klarwerk/zielbord/internal/suggest"
)

type SuggestHandler struct {
	service *suggest.Service
}

func NewSuggestHandler(service *suggest.Service) *SuggestHandler {
	return &SuggestHandler{service: service}
}

type SuggestRequest struct {
	Title    string   `json:"title"`
	Category string   `json:"category,omitempty"`
	Existing []string `json:"existing,omitempty"`
}

// Suggest handles POST /api/v1/okrs/suggestions
func (h *SuggestHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	if h.service == nil || !h.service.Enabled() {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: dto.MsgNotFound})
		return
	}

	var req SuggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody})
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody,
			Details: map[string]string{"title": "Titel ist erforderlich"}})
		return
	}

	suggestions, err := h.service.Suggest(r.Context(), req.Title, req.Category, req.Existing)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, dto.ErrorResponse{Error: dto.MsgSuggestionFailure})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"suggestions": suggestions})
}
