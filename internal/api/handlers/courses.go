package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/klarwerk/zielbord/internal/api/dto"
	"github.com/klarwerk/zielbord/internal/api/middleware"
	"github.com/klarwerk/zielbord/internal/database/models"
	"github.com/klarwerk/zielbord/internal/learning"
	"gorm.io/gorm"
)

type CourseHandler struct {
	db       *gorm.DB
	learning *learning.Service
}

func NewCourseHandler(db *gorm.DB, learningService *learning.Service) *CourseHandler {
	return &CourseHandler{db: db, learning: learningService}
}

type CreateCourseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

type CreateModuleRequest struct {
	Title      string `json:"title"`
	OrderIndex int    `json:"order_index"`
}

type EnrollRequest struct {
	Notes string `json:"notes,omitempty"`
}

// List handles GET /api/v1/courses
func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	query := h.db.WithContext(r.Context()).
		Where("organization_id = ? AND is_active = ?", orgID, true)
	if category := r.URL.Query().Get("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var courses []models.Course
	if err := query.Order("created_at DESC").Find(&courses).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"courses": courses})
}

// Get handles GET /api/v1/courses/{id}, modules included in order.
func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())
	courseID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var course models.Course
	err := h.db.WithContext(r.Context()).
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Where("id = ? AND organization_id = ?", courseID, orgID).
		First(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: dto.MsgNotFound})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	writeJSON(w, http.StatusOK, course)
}

// Create handles POST /api/v1/courses (admin only, gated in the router).
func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	var req CreateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody,
			Details: map[string]string{"title": "Titel ist erforderlich"}})
		return
	}

	course := models.Course{
		OrganizationID: orgID,
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		IsActive:       true,
	}
	if err := h.db.WithContext(r.Context()).Create(&course).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	writeJSON(w, http.StatusCreated, course)
}

// CreateModule handles POST /api/v1/courses/{id}/modules (admin only).
func (h *CourseHandler) CreateModule(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())
	courseID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var course models.Course
	if err := h.db.WithContext(r.Context()).
		Where("id = ? AND organization_id = ?", courseID, orgID).
		First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: dto.MsgNotFound})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	var req CreateModuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody,
			Details: map[string]string{"title": "Titel ist erforderlich"}})
		return
	}

	module := models.CourseModule{
		CourseID:   course.ID,
		Title:      req.Title,
		OrderIndex: req.OrderIndex,
	}
	if err := h.db.WithContext(r.Context()).Create(&module).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	writeJSON(w, http.StatusCreated, module)
}

// Enroll handles POST /api/v1/courses/{id}/enroll
func (h *CourseHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	orgID := middleware.GetOrganizationID(r.Context())
	courseID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var course models.Course
	if err := h.db.WithContext(r.Context()).
		Where("id = ? AND organization_id = ? AND is_active = ?", courseID, orgID, true).
		First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: dto.MsgNotFound})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	// Body is optional; an empty or absent body enrolls without notes.
	var req EnrollRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody})
			return
		}
	}

	var existing models.Enrollment
	err := h.db.WithContext(r.Context()).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&existing).Error
	if err == nil {
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: dto.MsgAlreadyEnrolled})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	enrollment := models.Enrollment{
		UserID:         userID,
		CourseID:       courseID,
		OrganizationID: orgID,
		Status:         models.EnrollmentStatusInProgress,
		Notes:          req.Notes,
		StartedAt:      time.Now(),
	}
	if err := h.db.WithContext(r.Context()).Create(&enrollment).Error; err != nil {
		// The unique index catches the race between check and insert.
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: dto.MsgAlreadyEnrolled})
		return
	}

	writeJSON(w, http.StatusCreated, enrollment)
}

// ToggleModule handles POST /api/v1/courses/{id}/modules/{moduleID}/complete.
// Completion flips: a second call un-completes the module.
func (h *CourseHandler) ToggleModule(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	courseID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	moduleID, ok := parseIDParam(w, r, "moduleID")
	if !ok {
		return
	}

	var enrollment models.Enrollment
	if err := h.db.WithContext(r.Context()).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: dto.MsgNotFound})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	result, err := h.learning.ToggleModuleCompletion(r.Context(), &enrollment, moduleID)
	if err != nil {
		if errors.Is(err, learning.ErrModuleNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: dto.MsgNotFound})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	writeJSON(w, http.StatusOK, result)
}
