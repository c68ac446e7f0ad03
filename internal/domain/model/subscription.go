package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SubscriptionStatus represents the status of a subscription
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
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

// Subscription is a user's paid access to a plan. A user has at most one
// active subscription; plan changes overwrite it in place.
type Subscription struct {
	ID            uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        string             `gorm:"size:100;not null;index" json:"user_id"`
	PlanID        uuid.UUID          `gorm:"type:uuid;not null;index" json:"plan_id"`
	Status        SubscriptionStatus `gorm:"size:20;not null" json:"status"`
	StartDate     time.Time          `gorm:"not null" json:"start_date"`
	EndDate       time.Time          `gorm:"not null" json:"end_date"`
	Amount        decimal.Decimal    `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentMethod PaymentMethod      `gorm:"size:20;not null" json:"payment_method"`
	Notes         string             `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`

	// Relations
	Plan *Plan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}

// TableName specifies the table name for GORM
func (Subscription) TableName() string {
	return "subscriptions"
}

// BeforeCreate assigns an ID when the caller did not
func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
