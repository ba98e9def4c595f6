package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/klarwerk/zielbord/internal/database/models"
	"github.com/klarwerk/zielbord/internal/okr"
	"gorm.io/gorm"
)

type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
	client *asynq.Client
}

func NewHandler(db *gorm.DB, logger *slog.Logger, client *asynq.Client) *Handler {
	return &Handler{
		db:     db,
		logger: logger,
		client: client,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeReminderSweep, h.HandleReminderSweep)
	mux.HandleFunc(TypeCheckinReminder, h.HandleCheckinReminder)
}

// HandleReminderSweep finds active OKRs of the current quarter whose
// last check-in is older than the check-in interval and enqueues one
// reminder task per stale OKR.
func (h *Handler) HandleReminderSweep(ctx context.Context, t *asynq.Task) error {
	quarter := okr.CurrentQuarter(time.Now())
	cutoff := time.Now().AddDate(0, 0, -okr.CheckinIntervalDays)

	var okrs []models.OKR
	if err := h.db.WithContext(ctx).
		Where("quarter = ? AND is_active = ? AND status <> ?", quarter, true, models.OKRStatusDone).
		Find(&okrs).Error; err != nil {
		return fmt.Errorf("loading active okrs: %w", err)
	}

	var enqueued int
	for i := range okrs {
		stale, err := h.isStale(ctx, &okrs[i], cutoff)
		if err != nil {
			h.logger.Error("staleness check failed", "okr_id", okrs[i].ID, "error", err)
			continue
		}
		if !stale {
			continue
		}

		task, err := NewCheckinReminderTask(CheckinReminderPayload{
			UserID:  okrs[i].UserID,
			OKRID:   okrs[i].ID,
			Title:   okrs[i].Title,
			Quarter: okrs[i].Quarter,
		})
		if err != nil {
			return fmt.Errorf("building reminder task: %w", err)
		}
		if _, err := h.client.EnqueueContext(ctx, task); err != nil {
			h.logger.Error("enqueue reminder failed", "okr_id", okrs[i].ID, "error", err)
			continue
		}
		enqueued++
	}

	h.logger.Info("reminder sweep finished",
		"quarter", quarter,
		"checked", len(okrs),
		"reminders", enqueued,
	)
	return nil
}

// HandleCheckinReminder delivers a single reminder. Delivery is a log
// line today; a mail or chat integration slots in here.
func (h *Handler) HandleCheckinReminder(ctx context.Context, t *asynq.Task) error {
	var payload CheckinReminderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	var user models.User
	if err := h.db.WithContext(ctx).First(&user, payload.UserID).Error; err != nil {
		return fmt.Errorf("loading user %s: %w", payload.UserID, err)
	}
	if user.Status != models.UserStatusActive {
		return nil
	}

	h.logger.Info("check-in reminder",
		"user", user.Email,
		"okr_id", payload.OKRID,
		"title", payload.Title,
		"quarter", payload.Quarter,
	)
	return nil
}

// isStale reports whether the OKR has had no check-in since the cutoff.
// OKRs created after the cutoff are never stale.
func (h *Handler) isStale(ctx context.Context, o *models.OKR, cutoff time.Time) (bool, error) {
	if o.CreatedAt.After(cutoff) {
		return false, nil
	}

	var count int64
	if err := h.db.WithContext(ctx).
		Model(&models.CheckIn{}).
		Where("okr_id = ? AND checked_at > ?", o.ID, cutoff).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}
