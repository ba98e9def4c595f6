package models

import "github.com/google/uuid"

type Course struct {
	Base
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null" json:"organization_id"`
	Title          string    `gorm:"not null" json:"title"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`

	// Relationships
	Modules []CourseModule `gorm:"foreignKey:CourseID" json:"modules,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

type CourseModule struct {
	Base
	CourseID   uuid.UUID `gorm:"type:uuid;index;not null" json:"course_id"`
	Title      string    `gorm:"not null" json:"title"`
	OrderIndex int       `gorm:"default:0" json:"order_index"`
}

func (CourseModule) TableName() string {
	return "course_modules"
}
