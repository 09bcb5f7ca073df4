package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssignedRole is the role stored on a RoleAssignment row.
type AssignedRole string

const (
	AssignedRoleWebsites AssignedRole = "websites"
	AssignedRoleRequests AssignedRole = "requests"
	AssignedRoleSuper    AssignedRole = "super"
)

// Valid reports whether r is one of the three assignable roles.
func (r AssignedRole) Valid() bool {
	switch r {
	case AssignedRoleWebsites, AssignedRoleRequests, AssignedRoleSuper:
		return true
	}
	return false
}

// Singleton roles may only have one assignee at a time.
func (r AssignedRole) Singleton() bool {
	return r == AssignedRoleWebsites || r == AssignedRoleRequests
}

// RoleAssignment grants an email address an administrative role.
type RoleAssignment struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string       `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Role      AssignedRole `gorm:"size:20;not null;index" json:"role"`
	Active    bool         `gorm:"not null" json:"active"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (ra *RoleAssignment) BeforeCreate(tx *gorm.DB) error {
	if ra.ID == uuid.Nil {
		ra.ID = uuid.New()
	}
	return nil
}

func (RoleAssignment) TableName() string {
	return "role_assignments"
}
