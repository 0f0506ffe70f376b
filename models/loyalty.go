package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LoyaltyCardStatus string

const (
	LoyaltyCardPendingPayment LoyaltyCardStatus = "pending_payment"
	LoyaltyCardActive         LoyaltyCardStatus = "active"
	LoyaltyCardCancelled      LoyaltyCardStatus = "cancelled"
)

// LoyaltyCard is a paid annual subscription entitling a customer to
// discounts at one centro. At most one active card may exist per
// (customer, centro) pair; a partial unique index enforces it.
type LoyaltyCard struct {
	ID                    uint              `json:"id" gorm:"primaryKey"`
	CustomerID            uint              `json:"customer_id" gorm:"not null;index:idx_loyalty_customer_centro"`
	Customer              Customer          `json:"customer,omitempty"`
	CentroID              uint              `json:"centro_id" gorm:"not null;index:idx_loyalty_customer_centro"`
	Centro                Centro            `json:"-"`
	Status                LoyaltyCardStatus `json:"status" gorm:"default:'pending_payment';index"`
	PaymentMethod         string            `json:"payment_method"`
	CardNumber            string            `json:"card_number"`
	AmountPaid            decimal.Decimal   `json:"amount_paid" gorm:"type:decimal(12,2);default:0"`
	PlatformCommission    decimal.Decimal   `json:"platform_commission" gorm:"type:decimal(12,2);default:0"`
	CentroRevenue         decimal.Decimal   `json:"centro_revenue" gorm:"type:decimal(12,2);default:0"`
	CornerCommission      decimal.Decimal   `json:"corner_commission" gorm:"type:decimal(12,2);default:0"`
	ReferredByCornerID    *uint             `json:"referred_by_corner_id"`
	MaxDevices            int               `json:"max_devices" gorm:"default:3"`
	DevicesUsed           int               `json:"devices_used" gorm:"default:0"`
	StripeSessionID       string            `json:"stripe_session_id" gorm:"index"`
	StripePaymentIntentID string            `json:"stripe_payment_intent_id"`
	ActivatedAt           *time.Time        `json:"activated_at"`
	ExpiresAt             *time.Time        `json:"expires_at"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
	DeletedAt             gorm.DeletedAt    `json:"-" gorm:"index"`
}

type InvitationStatus string

const (
	InvitationPending InvitationStatus = "pending"
	InvitationPaid    InvitationStatus = "paid"
)

// CornerLoyaltyInvitation lets a corner refer one of its walk-in customers
// to a centro's loyalty program through a tokenized checkout link.
type CornerLoyaltyInvitation struct {
	ID              uint             `json:"id" gorm:"primaryKey"`
	CornerID        uint             `json:"corner_id" gorm:"not null;index"`
	Corner          Corner           `json:"corner,omitempty"`
	CentroID        uint             `json:"centro_id" gorm:"not null;index"`
	CustomerName    string           `json:"customer_name"`
	CustomerEmail   string           `json:"customer_email" gorm:"not null"`
	CustomerPhone   string           `json:"customer_phone"`
	InvitationToken string           `json:"invitation_token" gorm:"uniqueIndex;not null"`
	Status          InvitationStatus `json:"status" gorm:"default:'pending'"`
	ExpiresAt       time.Time        `json:"expires_at"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func (CornerLoyaltyInvitation) TableName() string {
	return "corner_loyalty_invitations"
}
