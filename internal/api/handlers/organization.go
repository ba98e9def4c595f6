package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/klarwerk/zielbord/internal/api/dto"
	"github.com/klarwerk/zielbord/internal/api/middleware"
	"github.com/klarwerk/zielbord/internal/auth"
	"github.com/klarwerk/zielbord/internal/database/models"
	"gorm.io/gorm"
)

type OrgHandler struct {
	db *gorm.DB
}

func NewOrgHandler(db *gorm.DB) *OrgHandler {
	return &OrgHandler{db: db}
}

// UpdateOrgRequest limits org patches to display fields. Slug is fixed
// for the lifetime of the organization.
type UpdateOrgRequest struct {
	Name    *string `json:"name,omitempty"`
	Domain  *string `json:"domain,omitempty"`
	LogoURL *string `json:"logo_url,omitempty"`
}

type UpdateMemberRoleRequest struct {
	Role string `json:"role"`
}

type UpdateMemberStatusRequest struct {
	Status string `json:"status"`
}

// Get handles GET /api/v1/organization
func (h *OrgHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	var org models.Organization
	if err := h.db.WithContext(r.Context()).First(&org, orgID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: dto.MsgNotFound})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	writeJSON(w, http.StatusOK, org)
}

// Update handles PATCH /api/v1/organization (admin only).
func (h *OrgHandler) Update(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	var req UpdateOrgRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody})
			return
		}
		updates["name"] = *req.Name
	}
	if req.Domain != nil {
		updates["domain"] = *req.Domain
	}
	if req.LogoURL != nil {
		updates["logo_url"] = *req.LogoURL
	}

	var org models.Organization
	if err := h.db.WithContext(r.Context()).First(&org, orgID).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	if len(updates) > 0 {
		if err := h.db.WithContext(r.Context()).Model(&org).Updates(updates).Error; err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
			return
		}
	}

	writeJSON(w, http.StatusOK, org)
}

// Members handles GET /api/v1/organization/members (hr and admin).
func (h *OrgHandler) Members(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	params := dto.PaginationParams{
		Page:    intQuery(r, "page"),
		PerPage: intQuery(r, "per_page"),
	}
	params.Normalize()

	var total int64
	if err := h.db.WithContext(r.Context()).Model(&models.User{}).
		Where("organization_id = ?", orgID).
		Count(&total).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	var users []models.User
	if err := h.db.WithContext(r.Context()).
		Where("organization_id = ?", orgID).
		Order("name ASC").
		Offset(params.Offset()).
		Limit(params.PerPage).
		Find(&users).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	members := make([]dto.UserDTO, len(users))
	for i := range users {
		members[i] = userToDTO(&users[i])
	}

	totalPages := int((total + int64(params.PerPage) - 1) / int64(params.PerPage))
	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       members,
		Total:      total,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: totalPages,
	})
}

// UpdateMemberRole handles PATCH /api/v1/organization/members/{id}/role.
// Changing your own role is rejected; super_admin accounts are locked.
func (h *OrgHandler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	target, ok := h.loadMember(w, r)
	if !ok {
		return
	}

	var req UpdateMemberRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody})
		return
	}
	if !auth.IsAssignableRole(req.Role) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody,
			Details: map[string]string{"role": "Ungültige Rolle"}})
		return
	}

	if err := h.db.WithContext(r.Context()).Model(target).Update("role", req.Role).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}

// UpdateMemberStatus handles PATCH /api/v1/organization/members/{id}/status
// with the same self and super_admin guards as role changes.
func (h *OrgHandler) UpdateMemberStatus(w http.ResponseWriter, r *http.Request) {
	target, ok := h.loadMember(w, r)
	if !ok {
		return
	}

	var req UpdateMemberStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody})
		return
	}
	if req.Status != models.UserStatusActive && req.Status != models.UserStatusSuspended {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody,
			Details: map[string]string{"status": "Ungültiger Status"}})
		return
	}

	if err := h.db.WithContext(r.Context()).Model(target).Update("status", req.Status).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}

// loadMember fetches the target member and applies the guards shared by
// role and status changes.
func (h *OrgHandler) loadMember(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	callerID := middleware.GetUserID(r.Context())
	orgID := middleware.GetOrganizationID(r.Context())
	memberID, ok := parseIDParam(w, r, "id")
	if !ok {
		return nil, false
	}

	if memberID == callerID {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgOwnRoleChange})
		return nil, false
	}

	var target models.User
	if err := h.db.WithContext(r.Context()).
		Where("id = ? AND organization_id = ?", memberID, orgID).
		First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: dto.MsgNotFound})
			return nil, false
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return nil, false
	}

	if target.Role == models.RoleSuperAdmin {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: dto.MsgSuperAdminLocked})
		return nil, false
	}

	return &target, true
}
