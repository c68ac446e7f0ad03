package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PlanType identifies a well-known package. Every type except custom has at
// most one persisted plan.
type PlanType string

const (
	PlanTypeStarter      PlanType = "starter"
	PlanTypeProfessional PlanType = "professional"
	PlanTypeEnterprise   PlanType = "enterprise"
	PlanTypeCustom       PlanType = "custom"
)

// ParsePlanType matches name case-insensitively against the well-known types.
func ParsePlanType(name string) (PlanType, bool) {
	switch t := PlanType(strings.ToLower(strings.TrimSpace(name))); t {
	case PlanTypeStarter, PlanTypeProfessional, PlanTypeEnterprise:
		return t, true
	}
	return "", false
}

type BillingCycle string

const (
	BillingCycleWeekly  BillingCycle = "weekly"
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"
)

// Plan represents a purchasable advertising package
type Plan struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Type         PlanType        `gorm:"size:20;not null;index" json:"type"`
	Name         string          `gorm:"size:100;not null" json:"name"`
	Description  string          `gorm:"type:text" json:"description"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Currency     string          `gorm:"size:3;not null" json:"currency"`
	BillingCycle BillingCycle    `gorm:"size:10;not null" json:"billing_cycle"`
	Features     Features        `gorm:"type:jsonb" json:"features"`

	// Nil limits mean unlimited.
	MaxAccounts    *int             `json:"max_accounts"`
	DailyBudgetCap *decimal.Decimal `gorm:"type:decimal(12,2)" json:"daily_budget_cap"`

	UnlimitedBudget     bool `gorm:"not null" json:"unlimited_budget"`
	TeamCollaboration   bool `gorm:"not null" json:"team_collaboration"`
	DedicatedConsultant bool `gorm:"not null" json:"dedicated_consultant"`

	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Plan) TableName() string {
	return "plans"
}

// BeforeCreate assigns an ID when the caller did not
func (p *Plan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Features is the ordered feature list of a plan, stored as a JSON array
type Features []string

// Value implements driver.Valuer interface
func (f Features) Value() (driver.Value, error) {
	if f == nil {
		return "[]", nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner interface
func (f *Features) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*f = Features{}
		return nil
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	default:
		return fmt.Errorf("unsupported features value %T", src)
	}
}
