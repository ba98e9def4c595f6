package models

import "github.com/google/uuid"

// Roles, least to most privileged. super_admin accounts are managed
// out of band and can never be modified through the members API.
const (
	RoleEmployee   = "employee"
	RoleManager    = "manager"
	RoleHR         = "hr"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

const (
	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
)

type User struct {
	Base
	Email          string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash   string    `json:"-"`
	Name           string    `json:"name"`
	OrganizationID uuid.UUID `gorm:"type:uuid;index" json:"organization_id"`
	Role           string    `gorm:"default:'employee'" json:"role"`
	Status         string    `gorm:"default:'active'" json:"status"`
	Department     string    `json:"department"`

	// Relationships
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}

func (User) TableName() string {
	return "users"
}
