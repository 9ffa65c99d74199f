package model

import (
	"time"

	"github.com/google/uuid"
)

// CustomerLink maps an internal user to the provider's customer identifier.
// Created at most once per user, lazily on the first billing interaction;
// never deleted, only populated. CurrentSubscriptionID mirrors the user's
// provider subscription and is cleared when the provider reports deletion.
type CustomerLink struct {
	ID                    int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID                uuid.UUID `gorm:"type:uuid;unique;not null" json:"user_id"`
	ProviderCustomerID    *string   `gorm:"column:provider_customer_id;unique;size:100" json:"provider_customer_id,omitempty"`
	CurrentSubscriptionID *string   `gorm:"column:current_subscription_id;size:100" json:"current_subscription_id,omitempty"`
	Email                 string    `gorm:"size:255" json:"email"`
	CreatedAt             time.Time `gorm:"default:now()" json:"created_at"`
	UpdatedAt             time.Time `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (CustomerLink) TableName() string {
	return "customer_links"
}
