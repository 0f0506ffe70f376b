package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type EntityType string

const (
	EntityCentro EntityType = "centro"
	EntityCorner EntityType = "corner"
)

type PaymentStatus string

const (
	PaymentStatusGoodStanding PaymentStatus = "good_standing"
	PaymentStatusWarning      PaymentStatus = "warning"
	PaymentStatusSuspended    PaymentStatus = "suspended"
)

// Centro is a repair shop tenant. It owns customers, repairs and inventory
// and holds a prepaid credit balance debited by platform commissions.
type Centro struct {
	ID                     uint            `json:"id" gorm:"primaryKey"`
	BusinessName           string          `json:"business_name" gorm:"not null"`
	Email                  string          `json:"email"`
	Phone                  string          `json:"phone"`
	LogoURL                string          `json:"logo_url"`
	CreditBalance          decimal.Decimal `json:"credit_balance" gorm:"type:decimal(12,2);default:0"`
	CreditWarningThreshold decimal.Decimal `json:"credit_warning_threshold" gorm:"type:decimal(12,2);default:50"`
	PaymentStatus          PaymentStatus   `json:"payment_status" gorm:"default:'good_standing'"`
	LastCreditUpdate       *time.Time      `json:"last_credit_update"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
	DeletedAt              gorm.DeletedAt  `json:"-" gorm:"index"`
}

func (Centro) TableName() string {
	return "centri_assistenza"
}

// Corner is a partner drop-off point that forwards repair requests to a centro.
type Corner struct {
	ID                     uint            `json:"id" gorm:"primaryKey"`
	CentroID               uint            `json:"centro_id" gorm:"index"`
	Centro                 Centro          `json:"-"`
	BusinessName           string          `json:"business_name" gorm:"not null"`
	Email                  string          `json:"email"`
	Phone                  string          `json:"phone"`
	CreditBalance          decimal.Decimal `json:"credit_balance" gorm:"type:decimal(12,2);default:0"`
	CreditWarningThreshold decimal.Decimal `json:"credit_warning_threshold" gorm:"type:decimal(12,2);default:50"`
	PaymentStatus          PaymentStatus   `json:"payment_status" gorm:"default:'good_standing'"`
	LastCreditUpdate       *time.Time      `json:"last_credit_update"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
	DeletedAt              gorm.DeletedAt  `json:"-" gorm:"index"`
}
