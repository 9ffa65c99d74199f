package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the status of a payment attempt
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Scan implements sql.Scanner interface
func (p *PaymentStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*p = PaymentStatus(v)
	case []byte:
		*p = PaymentStatus(v)
	default:
		*p = PaymentStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (p PaymentStatus) Value() (driver.Value, error) {
	return string(p), nil
}

// Payment is an append-only ledger row for a single charge attempt.
// TransactionID is the idempotency key: a redelivered invoice event updates
// the existing row in place, it never creates a second one.
type Payment struct {
	ID             int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	SubscriptionID *int64        `gorm:"index" json:"subscription_id,omitempty"`
	TransactionID  string        `gorm:"column:transaction_id;unique;not null;size:100" json:"transaction_id"`
	AmountCents    int64         `gorm:"not null" json:"amount_cents"`
	Currency       string        `gorm:"size:3;default:'USD'" json:"currency"`
	Status         PaymentStatus `gorm:"type:payment_status;not null;default:'pending'" json:"status"`
	Raw            JSONB         `gorm:"type:jsonb" json:"raw,omitempty"`
	PaidAt         *time.Time    `json:"paid_at,omitempty"`
	CreatedAt      time.Time     `gorm:"default:now()" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"default:now()" json:"updated_at"`

	// Relations
	Subscription *Subscription `gorm:"foreignKey:SubscriptionID" json:"subscription,omitempty"`
}

// Amount returns the charge amount in major currency units
func (p *Payment) Amount() decimal.Decimal {
	return decimal.NewFromInt(p.AmountCents).Div(decimal.NewFromInt(100))
}

// TableName specifies the table name for GORM
func (Payment) TableName() string {
	return "payments"
}
