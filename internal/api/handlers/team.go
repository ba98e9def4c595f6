package handlers

import (
	"net/http"
	"time"

	"github.com/klarwerk/zielbord/internal/api/dto"
	"github.com/klarwerk/zielbord/internal/api/middleware"
	"github.com/klarwerk/zielbord/internal/database/models"
	"github.com/klarwerk/zielbord/internal/okr"
	"gorm.io/gorm"
)

type TeamHandler struct {
	db *gorm.DB
}

func NewTeamHandler(db *gorm.DB) *TeamHandler {
	return &TeamHandler{db: db}
}

// TeamMemberStats summarizes a member's OKRs for the current quarter.
type TeamMemberStats struct {
	User        dto.UserDTO `json:"user"`
	OKRCount    int         `json:"okr_count"`
	FocusCount  int         `json:"focus_count"`
	AvgProgress float64     `json:"avg_progress"`
	AvgScore    float64     `json:"avg_score"`
	CheckIns    int         `json:"check_ins"`
}

// TeamLearningStats summarizes a member's enrollments.
type TeamLearningStats struct {
	User             dto.UserDTO `json:"user"`
	Enrollments      int         `json:"enrollments"`
	CompletedCourses int         `json:"completed_courses"`
	Certificates     int         `json:"certificates"`
}

// Overview handles GET /api/v1/team
func (h *TeamHandler) Overview(w http.ResponseWriter, r *http.Request) {
	quarter := r.URL.Query().Get("quarter")
	if quarter == "" {
		quarter = okr.CurrentQuarter(time.Now())
	}

	members, ok := h.activeMembers(w, r)
	if !ok {
		return
	}

	stats := make([]TeamMemberStats, 0, len(members))
	for i := range members {
		var okrs []models.OKR
		if err := h.db.WithContext(r.Context()).
			Where("user_id = ? AND quarter = ? AND is_active = ?", members[i].ID, quarter, true).
			Find(&okrs).Error; err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
			return
		}

		entry := TeamMemberStats{User: userToDTO(&members[i]), OKRCount: len(okrs)}
		var sum float64
		for _, o := range okrs {
			sum += o.Progress
			if o.IsFocus {
				entry.FocusCount++
			}
		}
		if len(okrs) > 0 {
			entry.AvgProgress = sum / float64(len(okrs))
			entry.AvgScore = okr.ProgressToScore(entry.AvgProgress)
		}

		var checkins int64
		if err := h.db.WithContext(r.Context()).
			Model(&models.CheckIn{}).
			Joins("JOIN okrs ON okrs.id = check_ins.okr_id").
			Where("check_ins.user_id = ? AND okrs.quarter = ?", members[i].ID, quarter).
			Count(&checkins).Error; err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
			return
		}
		entry.CheckIns = int(checkins)

		stats = append(stats, entry)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"quarter": quarter,
		"members": stats,
	})
}

// Learnings handles GET /api/v1/team/learnings
func (h *TeamHandler) Learnings(w http.ResponseWriter, r *http.Request) {
	members, ok := h.activeMembers(w, r)
	if !ok {
		return
	}

	stats := make([]TeamLearningStats, 0, len(members))
	for i := range members {
		entry := TeamLearningStats{User: userToDTO(&members[i])}

		var total, completed, certs int64
		if err := h.db.WithContext(r.Context()).
			Model(&models.Enrollment{}).
			Where("user_id = ?", members[i].ID).
			Count(&total).Error; err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
			return
		}
		if err := h.db.WithContext(r.Context()).
			Model(&models.Enrollment{}).
			Where("user_id = ? AND status = ?", members[i].ID, models.EnrollmentStatusCompleted).
			Count(&completed).Error; err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
			return
		}
		if err := h.db.WithContext(r.Context()).
			Model(&models.Certificate{}).
			Where("user_id = ?", members[i].ID).
			Count(&certs).Error; err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
			return
		}

		entry.Enrollments = int(total)
		entry.CompletedCourses = int(completed)
		entry.Certificates = int(certs)
		stats = append(stats, entry)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"members": stats})
}

func (h *TeamHandler) activeMembers(w http.ResponseWriter, r *http.Request) ([]models.User, bool) {
	orgID := middleware.GetOrganizationID(r.Context())

	var members []models.User
	if err := h.db.WithContext(r.Context()).
		Where("organization_id = ? AND status = ?", orgID, models.UserStatusActive).
		Order("name ASC").
		Find(&members).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return nil, false
	}
	return members, true
}
