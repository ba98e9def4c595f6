package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	OKRStatusOnTrack = "on_track"
	OKRStatusAtRisk  = "at_risk"
	OKRStatusDone    = "done"
)

// OKR is a quarterly objective. is_active=false means the OKR has been
// moved to the trash; it still counts for archived listings but never
// for quarter limits or progress views.
type OKR struct {
	Base
	UserID         uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null" json:"organization_id"`
	Title          string    `gorm:"not null" json:"title"`
	Description    string    `json:"description"`
	Quarter        string    `gorm:"index;not null" json:"quarter"` // "Q1 2026"
	Category       string    `json:"category"`
	Progress       float64   `gorm:"default:0" json:"progress"` // 0-100
	Status         string    `gorm:"default:'on_track'" json:"status"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`
	IsFocus        bool      `gorm:"default:false" json:"is_focus"`

	// Relationships
	KeyResults []KeyResult `gorm:"foreignKey:OKRID" json:"key_results,omitempty"`
	CheckIns   []CheckIn   `gorm:"foreignKey:OKRID" json:"-"`
}

func (OKR) TableName() string {
	return "okrs"
}

type KeyResult struct {
	Base
	OKRID        uuid.UUID `gorm:"type:uuid;index;not null" json:"okr_id"`
	Title        string    `gorm:"not null" json:"title"`
	StartValue   float64   `json:"start_value"`
	TargetValue  float64   `json:"target_value"`
	CurrentValue float64   `json:"current_value"`
	Unit         string    `json:"unit"`
}

func (KeyResult) TableName() string {
	return "key_results"
}

// CheckIn records a progress update on an OKR.
type CheckIn struct {
	Base
	OKRID     uuid.UUID `gorm:"type:uuid;index;not null" json:"okr_id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	Progress  float64   `json:"progress"`
	Comment   string    `json:"comment"`
	CheckedAt time.Time `json:"checked_at"`
}

func (CheckIn) TableName() string {
	return "check_ins"
}
