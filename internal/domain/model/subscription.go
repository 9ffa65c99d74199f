package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus represents the status of a subscription
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"
)

// Scan implements sql.Scanner interface
func (s *SubscriptionStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = SubscriptionStatus(v)
	case []byte:
		*s = SubscriptionStatus(v)
	default:
		*s = SubscriptionStatusExpired
	}
	return nil
}

// Value implements driver.Valuer interface
func (s SubscriptionStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Subscription represents a user's subscription, optionally scoped to a
// workspace. Rows are never deleted; provider events drive status transitions.
// All reconciliation writes are upserts keyed by ProviderSubscriptionID.
type Subscription struct {
	ID                     int64              `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID                 uuid.UUID          `gorm:"type:uuid;not null;index" json:"user_id"`
	WorkspaceID            *uuid.UUID         `gorm:"type:uuid;index" json:"workspace_id,omitempty"`
	PlanID                 *int64             `gorm:"index" json:"plan_id,omitempty"`
	Status                 SubscriptionStatus `gorm:"type:subscription_status;not null;default:'active'" json:"status"`
	ProviderSubscriptionID *string            `gorm:"column:provider_subscription_id;unique;size:100" json:"provider_subscription_id,omitempty"`
	CancelAtPeriodEnd      bool               `gorm:"default:false" json:"cancel_at_period_end"`
	CurrentPeriodStart     time.Time          `gorm:"not null" json:"current_period_start"`
	CurrentPeriodEnd       time.Time          `gorm:"not null" json:"current_period_end"`
	TrialStart             *time.Time         `json:"trial_start,omitempty"`
	TrialEnd               *time.Time         `json:"trial_end,omitempty"`
	CanceledAt             *time.Time         `json:"canceled_at,omitempty"`
	ProviderData           JSONB              `gorm:"column:provider_data;type:jsonb" json:"provider_data,omitempty"`
	CreatedAt              time.Time          `gorm:"default:now()" json:"created_at"`
	UpdatedAt              time.Time          `gorm:"default:now()" json:"updated_at"`

	// Relations
	Plan *Plan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}

// IsActive reports whether the subscription currently grants entitlements
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}

// TableName specifies the table name for GORM
func (Subscription) TableName() string {
	return "subscriptions"
}
