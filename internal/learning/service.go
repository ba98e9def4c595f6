// Package learning derives enrollment progress and status from module
// completions.
package learning

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/klarwerk/zielbord/internal/database/models"
	"gorm.io/gorm"
)

var ErrModuleNotFound = errors.New("module not found")

type Service struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// ToggleResult describes the enrollment after a completion flip.
type ToggleResult struct {
	Completed        bool   `json:"completed"`
	Progress         int    `json:"progress"`
	EnrollmentStatus string `json:"enrollment_status"`
}

// ToggleModuleCompletion flips the completion record for
// (enrollment, module): the row is deleted when present and inserted
// when absent. The status recompute is a second, separate write; a
// crash in between is recovered by re-toggling.
func (s *Service) ToggleModuleCompletion(ctx context.Context, enrollment *models.Enrollment, moduleID uuid.UUID) (*ToggleResult, error) {
	var module models.CourseModule
	if err := s.db.WithContext(ctx).
		Where("id = ? AND course_id = ?", moduleID, enrollment.CourseID).
		First(&module).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrModuleNotFound
		}
		return nil, err
	}

	var completed bool
	var existing models.ModuleCompletion
	err := s.db.WithContext(ctx).
		Where("enrollment_id = ? AND module_id = ?", enrollment.ID, moduleID).
		First(&existing).Error
	switch {
	case err == nil:
		if err := s.db.WithContext(ctx).Unscoped().Delete(&existing).Error; err != nil {
			return nil, err
		}
		completed = false
	case errors.Is(err, gorm.ErrRecordNotFound):
		completion := models.ModuleCompletion{
			EnrollmentID: enrollment.ID,
			ModuleID:     moduleID,
			CompletedAt:  time.Now(),
		}
		if err := s.db.WithContext(ctx).Create(&completion).Error; err != nil {
			return nil, err
		}
		completed = true
	default:
		return nil, err
	}

	progress, status, err := s.recomputeStatus(ctx, enrollment)
	if err != nil {
		return nil, err
	}

	return &ToggleResult{
		Completed:        completed,
		Progress:         progress,
		EnrollmentStatus: status,
	}, nil
}

// recomputeStatus rederives progress and status from the counts and
// persists the status transition when it changed.
func (s *Service) recomputeStatus(ctx context.Context, enrollment *models.Enrollment) (int, string, error) {
	completions, total, err := s.counts(ctx, enrollment)
	if err != nil {
		return 0, "", err
	}
	if total < 1 {
		total = 1
	}

	progress := completionPercent(completions, total)
	status := models.EnrollmentStatusInProgress
	if completions >= total {
		status = models.EnrollmentStatusCompleted
	}

	if status != enrollment.Status {
		updates := map[string]interface{}{"status": status}
		if status == models.EnrollmentStatusCompleted {
			updates["completed_at"] = time.Now()
		} else {
			updates["completed_at"] = nil
		}
		if err := s.db.WithContext(ctx).
			Model(&models.Enrollment{}).
			Where("id = ?", enrollment.ID).
			Updates(updates).Error; err != nil {
			return 0, "", err
		}
		enrollment.Status = status
		s.logger.Info("enrollment status changed",
			"enrollment_id", enrollment.ID,
			"status", status,
			"progress", progress,
		)
	}

	return progress, status, nil
}

// Progress returns the completion percentage for an enrollment.
func (s *Service) Progress(ctx context.Context, enrollment *models.Enrollment) (int, error) {
	completions, total, err := s.counts(ctx, enrollment)
	if err != nil {
		return 0, err
	}
	return completionPercent(completions, total), nil
}

func (s *Service) counts(ctx context.Context, enrollment *models.Enrollment) (completions, total int64, err error) {
	if err := s.db.WithContext(ctx).
		Model(&models.ModuleCompletion{}).
		Where("enrollment_id = ?", enrollment.ID).
		Count(&completions).Error; err != nil {
		return 0, 0, err
	}
	if err := s.db.WithContext(ctx).
		Model(&models.CourseModule{}).
		Where("course_id = ?", enrollment.CourseID).
		Count(&total).Error; err != nil {
		return 0, 0, err
	}
	return completions, total, nil
}

// completionPercent floors the divisor at 1 so module-less courses do
// not divide by zero.
func completionPercent(completions, total int64) int {
	if total < 1 {
		total = 1
	}
	return int(math.Round(float64(completions) / float64(total) * 100))
}
