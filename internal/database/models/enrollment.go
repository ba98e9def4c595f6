package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	EnrollmentStatusInProgress = "in_progress"
	EnrollmentStatusCompleted  = "completed"
)

// Enrollment status is derived from module completions and is never
// set directly by a request.
type Enrollment struct {
	Base
	UserID         uuid.UUID  `gorm:"type:uuid;index:idx_enrollment_user_course,unique;not null" json:"user_id"`
	CourseID       uuid.UUID  `gorm:"type:uuid;index:idx_enrollment_user_course,unique;not null" json:"course_id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;index;not null" json:"organization_id"`
	Status         string     `gorm:"default:'in_progress'" json:"status"`
	Notes          string     `json:"notes"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`

	// Relationships
	Course      *Course            `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Completions []ModuleCompletion `gorm:"foreignKey:EnrollmentID" json:"-"`
	Certificate *Certificate       `gorm:"foreignKey:EnrollmentID" json:"certificate,omitempty"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

// ModuleCompletion: row present = module completed. Toggling off deletes
// the row; there is no settable boolean.
type ModuleCompletion struct {
	Base
	EnrollmentID uuid.UUID `gorm:"type:uuid;index:idx_completion_enrollment_module,unique;not null" json:"enrollment_id"`
	ModuleID     uuid.UUID `gorm:"type:uuid;index:idx_completion_enrollment_module,unique;not null" json:"module_id"`
	CompletedAt  time.Time `json:"completed_at"`
}

func (ModuleCompletion) TableName() string {
	return "module_completions"
}

type Certificate struct {
	Base
	EnrollmentID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"enrollment_id"`
	UserID       uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	FileName     string    `json:"file_name"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	StorageKey   string    `json:"-"`
}

func (Certificate) TableName() string {
	return "certificates"
}
