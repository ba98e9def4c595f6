package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/klarwerk/zielbord/internal/api/dto"
	"github.com/klarwerk/zielbord/internal/api/middleware"
	"github.com/klarwerk/zielbord/internal/database/models"
	"github.com/klarwerk/zielbord/internal/okr"
	"gorm.io/gorm"
)

type OKRHandler struct {
	db *gorm.DB
}

func NewOKRHandler(db *gorm.DB) *OKRHandler {
	return &OKRHandler{db: db}
}

// CreateOKRRequest represents the request to create an OKR.
type CreateOKRRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Quarter     string `json:"quarter"`
	Category    string `json:"category"`
	IsFocus     bool   `json:"is_focus"`
}

func (r CreateOKRRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if r.Title == "" {
		errs["title"] = "Titel ist erforderlich"
	}
	if r.Quarter == "" {
		errs["quarter"] = "Quartal ist erforderlich"
	} else if _, _, err := okr.QuarterDateRange(r.Quarter); err != nil {
		errs["quarter"] = "Ungültiges Quartal"
	}
	return errs
}

// UpdateOKRRequest carries the patchable fields; pointers distinguish
// absent from zero.
type UpdateOKRRequest struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Progress    *float64 `json:"progress,omitempty"`
	Status      *string  `json:"status,omitempty"`
	IsFocus     *bool    `json:"is_focus,omitempty"`
}

type CheckinRequest struct {
	Progress float64 `json:"progress"`
	Comment  string  `json:"comment,omitempty"`
}

type CreateKeyResultRequest struct {
	Title       string  `json:"title"`
	StartValue  float64 `json:"start_value"`
	TargetValue float64 `json:"target_value"`
	Unit        string  `json:"unit,omitempty"`
}

type UpdateKeyResultRequest struct {
	CurrentValue *float64 `json:"current_value,omitempty"`
	TargetValue  *float64 `json:"target_value,omitempty"`
	Title        *string  `json:"title,omitempty"`
}

// OKRResponse is an OKR plus its derived score.
type OKRResponse struct {
	models.OKR
	Score float64 `json:"score"`
}

func okrToResponse(o *models.OKR) OKRResponse {
	return OKRResponse{OKR: *o, Score: okr.ProgressToScore(o.Progress)}
}

// List handles GET /api/v1/okrs
func (h *OKRHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	quarter := r.URL.Query().Get("quarter")
	category := r.URL.Query().Get("category")

	query := h.db.WithContext(r.Context()).
		Preload("KeyResults").
		Where("user_id = ? AND is_active = ?", userID, true)
	if quarter != "" {
		query = query.Where("quarter = ?", quarter)
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var okrs []models.OKR
	if err := query.Order("created_at DESC").Find(&okrs).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	resp := make([]OKRResponse, len(okrs))
	for i := range okrs {
		resp[i] = okrToResponse(&okrs[i])
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"okrs": resp})
}

// Create handles POST /api/v1/okrs
func (h *OKRHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	orgID := middleware.GetOrganizationID(r.Context())

	var req CreateOKRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody, Details: errs})
		return
	}

	// Archived OKRs never count toward the quarter limit.
	var activeCount int64
	if err := h.db.WithContext(r.Context()).Model(&models.OKR{}).
		Where("user_id = ? AND quarter = ? AND is_active = ?", userID, req.Quarter, true).
		Count(&activeCount).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}
	if activeCount >= okr.MaxActiveOKRsPerQuarter {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgQuarterLimit})
		return
	}

	if req.IsFocus {
		if ok := h.focusSlotAvailable(w, r, userID, req.Quarter, uuid.Nil); !ok {
			return
		}
	}

	o := models.OKR{
		UserID:         userID,
		OrganizationID: orgID,
		Title:          req.Title,
		Description:    req.Description,
		Quarter:        req.Quarter,
		Category:       req.Category,
		Status:         models.OKRStatusOnTrack,
		IsActive:       true,
		IsFocus:        req.IsFocus,
	}
	if err := h.db.WithContext(r.Context()).Create(&o).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	writeJSON(w, http.StatusCreated, okrToResponse(&o))
}

// Get handles GET /api/v1/okrs/{id}
func (h *OKRHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, ok := h.loadOwned(w, r, true)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, okrToResponse(o))
}

// Update handles PATCH /api/v1/okrs/{id}
func (h *OKRHandler) Update(w http.ResponseWriter, r *http.Request) {
	o, ok := h.loadOwned(w, r, false)
	if !ok {
		return
	}

	var req UpdateOKRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody})
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		if *req.Title == "" {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody})
			return
		}
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Progress != nil {
		updates["progress"] = okr.ClampProgress(*req.Progress)
	}
	if req.Status != nil {
		switch *req.Status {
		case models.OKRStatusOnTrack, models.OKRStatusAtRisk, models.OKRStatusDone:
			updates["status"] = *req.Status
		default:
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody})
			return
		}
	}
	if req.IsFocus != nil {
		if *req.IsFocus && !o.IsFocus {
			if ok := h.focusSlotAvailable(w, r, o.UserID, o.Quarter, o.ID); !ok {
				return
			}
		}
		updates["is_focus"] = *req.IsFocus
	}

	if len(updates) > 0 {
		if err := h.db.WithContext(r.Context()).Model(o).Updates(updates).Error; err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
			return
		}
	}

	writeJSON(w, http.StatusOK, okrToResponse(o))
}

// Archive handles DELETE /api/v1/okrs/{id} — a soft move to the trash.
func (h *OKRHandler) Archive(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	okrID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	result := h.db.WithContext(r.Context()).Model(&models.OKR{}).
		Where("id = ? AND user_id = ? AND is_active = ?", okrID, userID, true).
		Updates(map[string]interface{}{"is_active": false, "is_focus": false})
	if result.Error != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}
	if result.RowsAffected == 0 {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: dto.MsgNotFound})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}

// Trash handles GET /api/v1/okrs/trash. Admins see the whole
// organization's archive, everyone else their own.
func (h *OKRHandler) Trash(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	orgID := middleware.GetOrganizationID(r.Context())
	role := middleware.GetUserRole(r.Context())

	query := h.db.WithContext(r.Context()).
		Preload("KeyResults").
		Where("is_active = ?", false)
	if role == models.RoleAdmin || role == models.RoleSuperAdmin {
		query = query.Where("organization_id = ?", orgID)
	} else {
		query = query.Where("user_id = ?", userID)
	}

	var okrs []models.OKR
	if err := query.Order("updated_at DESC").Find(&okrs).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	resp := make([]OKRResponse, len(okrs))
	for i := range okrs {
		resp[i] = okrToResponse(&okrs[i])
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"okrs": resp})
}

// Restore handles POST /api/v1/okrs/{id}/restore
func (h *OKRHandler) Restore(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	okrID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	result := h.db.WithContext(r.Context()).Model(&models.OKR{}).
		Where("id = ? AND user_id = ? AND is_active = ?", okrID, userID, false).
		Update("is_active", true)
	if result.Error != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}
	if result.RowsAffected == 0 {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: dto.MsgNotFound})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}

// Checkin handles POST /api/v1/okrs/{id}/checkin
func (h *OKRHandler) Checkin(w http.ResponseWriter, r *http.Request) {
	o, ok := h.loadOwned(w, r, false)
	if !ok {
		return
	}

	var req CheckinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody})
		return
	}

	progress := okr.ClampProgress(req.Progress)
	checkin := models.CheckIn{
		OKRID:     o.ID,
		UserID:    o.UserID,
		Progress:  progress,
		Comment:   req.Comment,
		CheckedAt: time.Now(),
	}
	if err := h.db.WithContext(r.Context()).Create(&checkin).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	if err := h.db.WithContext(r.Context()).Model(o).Update("progress", progress).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"checkin":  checkin,
		"progress": progress,
		"score":    okr.ProgressToScore(progress),
	})
}

// CreateKeyResult handles POST /api/v1/okrs/{id}/key-results
func (h *OKRHandler) CreateKeyResult(w http.ResponseWriter, r *http.Request) {
	o, ok := h.loadOwned(w, r, false)
	if !ok {
		return
	}

	var req CreateKeyResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody})
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody,
			Details: map[string]string{"title": "Titel ist erforderlich"}})
		return
	}

	kr := models.KeyResult{
		OKRID:        o.ID,
		Title:        req.Title,
		StartValue:   req.StartValue,
		TargetValue:  req.TargetValue,
		CurrentValue: req.StartValue,
		Unit:         req.Unit,
	}
	if err := h.db.WithContext(r.Context()).Create(&kr).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	if !h.recomputeProgress(w, r, o) {
		return
	}

	writeJSON(w, http.StatusCreated, kr)
}

// UpdateKeyResult handles PATCH /api/v1/key-results/{id}
func (h *OKRHandler) UpdateKeyResult(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	krID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var kr models.KeyResult
	if err := h.db.WithContext(r.Context()).First(&kr, krID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: dto.MsgNotFound})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	var o models.OKR
	if err := h.db.WithContext(r.Context()).
		Where("id = ? AND user_id = ?", kr.OKRID, userID).
		First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: dto.MsgNotFound})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	var req UpdateKeyResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody})
		return
	}

	updates := map[string]interface{}{}
	if req.CurrentValue != nil {
		updates["current_value"] = *req.CurrentValue
	}
	if req.TargetValue != nil {
		updates["target_value"] = *req.TargetValue
	}
	if req.Title != nil {
		if *req.Title == "" {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody})
			return
		}
		updates["title"] = *req.Title
	}

	if len(updates) > 0 {
		if err := h.db.WithContext(r.Context()).Model(&kr).Updates(updates).Error; err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
			return
		}
	}

	if !h.recomputeProgress(w, r, &o) {
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"key_result":   kr,
		"okr_progress": o.Progress,
		"okr_score":    okr.ProgressToScore(o.Progress),
	})
}

// loadOwned fetches the caller's OKR by URL id, answering 400/404/500
// on the way out.
func (h *OKRHandler) loadOwned(w http.ResponseWriter, r *http.Request, withKeyResults bool) (*models.OKR, bool) {
	userID := middleware.GetUserID(r.Context())
	okrID, ok := parseIDParam(w, r, "id")
	if !ok {
		return nil, false
	}

	query := h.db.WithContext(r.Context())
	if withKeyResults {
		query = query.Preload("KeyResults")
	}

	var o models.OKR
	if err := query.Where("id = ? AND user_id = ?", okrID, userID).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: dto.MsgNotFound})
			return nil, false
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return nil, false
	}
	return &o, true
}

// focusSlotAvailable enforces the focus limit, excluding excludeID from
// the count when an existing OKR is being promoted.
func (h *OKRHandler) focusSlotAvailable(w http.ResponseWriter, r *http.Request, userID uuid.UUID, quarter string, excludeID uuid.UUID) bool {
	query := h.db.WithContext(r.Context()).Model(&models.OKR{}).
		Where("user_id = ? AND quarter = ? AND is_active = ? AND is_focus = ?", userID, quarter, true, true)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}

	var focusCount int64
	if err := query.Count(&focusCount).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return false
	}
	if focusCount >= okr.MaxFocusOKRs {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgFocusLimit})
		return false
	}
	return true
}

// recomputeProgress rederives the OKR's progress from its key results.
func (h *OKRHandler) recomputeProgress(w http.ResponseWriter, r *http.Request, o *models.OKR) bool {
	var krs []models.KeyResult
	if err := h.db.WithContext(r.Context()).Where("okr_id = ?", o.ID).Find(&krs).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return false
	}

	progress, derived := okr.AggregateProgress(krs)
	if !derived {
		return true
	}

	if err := h.db.WithContext(r.Context()).Model(o).Update("progress", progress).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return false
	}
	o.Progress = progress
	return true
}
