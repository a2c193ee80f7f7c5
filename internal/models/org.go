package models

import "time"

// Org is an organization users can belong to.
type Org struct {
	OrgID     string    `gorm:"primaryKey" json:"orgId"`
	Name      string    `gorm:"not null" json:"name"`
	Role      string    `gorm:"->;-:migration" json:"role,omitempty"` // read from org_members
	CreatedAt time.Time `json:"-"`
}

// OrgMember links a user to an organization.
type OrgMember struct {
	OrgID     string `gorm:"primaryKey"`
	UserID    string `gorm:"primaryKey;index"`
	Role      string `gorm:"not null;default:'member'"` // "owner" or "member"
	CreatedAt time.Time
}

// TableName overrides the table name used by OrgMember to `org_members`
func (OrgMember) TableName() string {
	return "org_members"
}
