package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Billing interval constants
const (
	IntervalMonthly = "monthly"
	IntervalYearly  = "yearly"
)

// Plan tier constants
const (
	TierPro  = "pro"
	TierTeam = "team"
)

// PlanCode builds the composite catalog key for a tier/interval pair
func PlanCode(tier, interval string) string {
	return fmt.Sprintf("%s_%s", tier, interval)
}

// Plan represents an immutable catalog row mapping a pricing tier and billing
// interval to the provider's price identifier and the role it grants.
// Rows are seeded/admin-managed; this service only reads them.
type Plan struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Code            string    `gorm:"unique;not null;size:50" json:"code"`
	Tier            string    `gorm:"not null;size:20;index:idx_plans_tier_interval" json:"tier"`
	Interval        string    `gorm:"not null;size:20;index:idx_plans_tier_interval" json:"interval"`
	ProviderPriceID string    `gorm:"column:provider_price_id;unique;not null;size:100" json:"provider_price_id"`
	Name            string    `gorm:"not null;size:200" json:"name"`
	Role            string    `gorm:"not null;size:50" json:"role"`
	Features        Features  `gorm:"type:jsonb;default:'{}'" json:"features"`
	SortOrder       int       `gorm:"default:0" json:"sort_order"`
	IsActive        bool      `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time `gorm:"default:now()" json:"created_at"`
	UpdatedAt       time.Time `gorm:"default:now()" json:"updated_at"`
}

// Features represents plan features as JSONB
type Features map[string]interface{}

// Value implements driver.Valuer interface
func (f Features) Value() (driver.Value, error) {
	return json.Marshal(f)
}

// Scan implements sql.Scanner interface
func (f *Features) Scan(src interface{}) error {
	if src == nil {
		*f = make(Features)
		return nil
	}

	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	default:
		*f = make(Features)
		return nil
	}
}

// TableName specifies the table name for GORM
func (Plan) TableName() string {
	return "plans"
}
