package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeTopup             TransactionType = "topup"
	TransactionTypeLoyaltyCommission TransactionType = "loyalty_commission"
	TransactionTypeAdjustment        TransactionType = "adjustment"
)

// CreditTransaction is the append-only audit trail of every balance
// mutation. PaymentReference carries the Stripe session id (or an internal
// reference) and is unique when set, so re-applying the same payment event
// fails at insert time instead of relying on a status pre-check.
type CreditTransaction struct {
	ID               uint            `json:"id" gorm:"primaryKey"`
	CreatedAt        time.Time       `json:"created_at"`
	EntityType       EntityType      `json:"entity_type" gorm:"not null;index:idx_credit_tx_entity"`
	EntityID         uint            `json:"entity_id" gorm:"not null;index:idx_credit_tx_entity"`
	Type             TransactionType `json:"transaction_type" gorm:"column:transaction_type;not null"`
	Amount           decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	BalanceAfter     decimal.Decimal `json:"balance_after" gorm:"type:decimal(12,2);not null"`
	Description      string          `json:"description"`
	PaymentReference string          `json:"payment_reference" gorm:"index"`
}

func (CreditTransaction) TableName() string {
	return "credit_transactions"
}

type TopupStatus string

const (
	TopupStatusPending  TopupStatus = "pending"
	TopupStatusApproved TopupStatus = "approved"
)

type TopupRequest struct {
	ID               uint            `json:"id" gorm:"primaryKey"`
	EntityType       EntityType      `json:"entity_type" gorm:"not null"`
	EntityID         uint            `json:"entity_id" gorm:"not null;index"`
	Amount           decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	PaymentMethod    string          `json:"payment_method"` // "stripe", "bank_transfer"
	Status           TopupStatus     `json:"status" gorm:"default:'pending';index"`
	PaymentReference string          `json:"payment_reference" gorm:"index"`
	Notes            string          `json:"notes"`
	ProcessedAt      *time.Time      `json:"processed_at"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
