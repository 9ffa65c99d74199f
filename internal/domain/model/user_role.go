package model

import (
	"time"

	"github.com/google/uuid"
)

// Role constants. RoleResearcher is the base (free) tier every user reverts
// to when the provider reports their subscription deleted.
const (
	RoleResearcher    = "RESEARCHER"
	RoleProResearcher = "PRO_RESEARCHER"
	RoleTeamLead      = "TEAM_LEAD"
)

// UserRole is the local mirror of the role a user's billing state grants.
// Reconciliation upserts it by user ID.
type UserRole struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;unique;not null" json:"user_id"`
	Role      string    `gorm:"not null;size:50;default:'RESEARCHER'" json:"role"`
	CreatedAt time.Time `gorm:"default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (UserRole) TableName() string {
	return "user_roles"
}
