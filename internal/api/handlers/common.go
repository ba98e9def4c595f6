package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/klarwerk/zielbord/internal/api/dto"
	"github.com/klarwerk/zielbord/internal/database/models"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// parseIDParam parses a UUID URL parameter, answering 400 on bad shape.
func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidID})
		return uuid.Nil, false
	}
	return id, true
}

// intQuery parses an integer query parameter; absent or malformed
// values come back as 0 and are normalized by the caller.
func intQuery(r *http.Request, name string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(name))
	return v
}

func userToDTO(u *models.User) dto.UserDTO {
	out := dto.UserDTO{
		ID:             u.ID.String(),
		Email:          u.Email,
		Name:           u.Name,
		Role:           u.Role,
		Status:         u.Status,
		Department:     u.Department,
		OrganizationID: u.OrganizationID.String(),
	}
	if u.Organization != nil {
		out.OrgName = u.Organization.Name
	}
	return out
}
