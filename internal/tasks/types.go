package tasks

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeCheckinReminder = "okr:checkin_reminder"
	TypeReminderSweep   = "okr:reminder_sweep"
)

// CheckinReminderPayload identifies one stale OKR to remind about.
type CheckinReminderPayload struct {
	UserID  uuid.UUID `json:"user_id"`
	OKRID   uuid.UUID `json:"okr_id"`
	Title   string    `json:"title"`
	Quarter string    `json:"quarter"`
}

func NewCheckinReminderTask(payload CheckinReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCheckinReminder, data, asynq.Queue("reminders")), nil
}

// ReminderSweepPayload is empty - the sweep inspects every active OKR.
type ReminderSweepPayload struct{}

func NewReminderSweepTask() *asynq.Task {
	return asynq.NewTask(TypeReminderSweep, nil, asynq.Queue("reminders"))
}
