package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentMethod selects the gateway a purchase is charged through
type PaymentMethod string

const (
	PaymentMethodCard        PaymentMethod = "card"
	PaymentMethodWallet      PaymentMethod = "wallet"
	PaymentMethodMobileMoney PaymentMethod = "mobile_money"
	PaymentMethodCrypto      PaymentMethod = "crypto"
)

// PaymentMethods lists every supported method.
var PaymentMethods = []PaymentMethod{
	PaymentMethodCard,
	PaymentMethodWallet,
	PaymentMethodMobileMoney,
	PaymentMethodCrypto,
}

type PaymentType string

const (
	PaymentTypeDeposit PaymentType = "deposit"
	PaymentTypeCharge  PaymentType = "charge"
)

type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusPending   PaymentStatus = "pending"
)

// Payment metadata keys
const (
	MetadataSubscriptionID = "subscriptionId"
	MetadataTransactionID  = "transactionId"
	MetadataPaymentData    = "paymentData"
	MetadataPlanType       = "planType"
	MetadataRedirectURL    = "redirectUrl"
)

// Payment is an append-only record of one purchase's monetary outcome
type Payment struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         string          `gorm:"size:100;not null;index" json:"user_id"`
	SubscriptionID *uuid.UUID      `gorm:"type:uuid;index" json:"subscription_id,omitempty"`
	Type           PaymentType     `gorm:"size:20;not null" json:"type"`
	Status         PaymentStatus   `gorm:"size:20;not null" json:"status"`
	Method         PaymentMethod   `gorm:"size:20;not null" json:"method"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency       string          `gorm:"size:3;not null" json:"currency"`
	Description    string          `gorm:"size:255" json:"description"`
	TransactionID  string          `gorm:"size:255;index" json:"transaction_id"`
	Metadata       JSONB           `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

// BeforeCreate assigns an ID when the caller did not
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
