package model

import (
	"database/sql/driver"
	"time"
)

// WebhookStatus represents the processing status of a webhook event
type WebhookStatus string

const (
	WebhookStatusPending   WebhookStatus = "pending"
	WebhookStatusProcessed WebhookStatus = "processed"
	WebhookStatusFailed    WebhookStatus = "failed"
)

// Scan implements sql.Scanner interface
func (w *WebhookStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*w = WebhookStatus(v)
	case []byte:
		*w = WebhookStatus(v)
	default:
		*w = WebhookStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (w WebhookStatus) Value() (driver.Value, error) {
	return string(w), nil
}

// WebhookEvent is the durable idempotency ledger for inbound provider events.
// EventID is the provider-assigned identifier; its unique constraint is what
// makes the dedup check-and-insert atomic under concurrent deliveries.
type WebhookEvent struct {
	ID                int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID           string        `gorm:"column:event_id;unique;not null;size:255;index" json:"event_id"`
	EventType         string        `gorm:"not null;size:100;index" json:"event_type"`
	Status            WebhookStatus `gorm:"type:webhook_status;default:'pending';index" json:"status"`
	Payload           JSONB         `gorm:"type:jsonb;not null" json:"payload"`
	Attempts          int           `gorm:"default:0" json:"attempts"`
	LastError         *string       `json:"last_error,omitempty"`
	NextRetryAt       *time.Time    `json:"next_retry_at,omitempty"`
	ReceivedAt        time.Time     `gorm:"default:now()" json:"received_at"`
	ProcessedAt       *time.Time    `json:"processed_at,omitempty"`
	ProviderCreatedAt *time.Time    `json:"provider_created_at,omitempty"`
}

// TableName specifies the table name for GORM
func (WebhookEvent) TableName() string {
	return "webhook_events"
}
