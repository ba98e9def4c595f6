package models

// DefaultOrgSlug identifies the organization that lazily created
// profiles are attached to.
const DefaultOrgSlug = "klarwerk"

type Organization struct {
	Base
	Name    string `gorm:"not null" json:"name"`
	Domain  string `json:"domain"`
	Slug    string `gorm:"uniqueIndex;not null" json:"slug"`
	LogoURL string `json:"logo_url"`

	// Relationships
	Users []User `gorm:"foreignKey:OrganizationID" json:"-"`
	OKRs  []OKR  `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (Organization) TableName() string {
	return "organizations"
}
