package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RepairStatus string

const (
	RepairStatusInProgress RepairStatus = "in_progress"
	RepairStatusCompleted  RepairStatus = "completed"
	RepairStatusDelivered  RepairStatus = "delivered"
	RepairStatusForfeited  RepairStatus = "forfeited"
)

// Repair tracks a device through the shop. Once completed and never
// retrieved it moves through a forfeiture warning (23 days) to forfeited
// (30 days); forfeited and delivered are terminal.
type Repair struct {
	ID                      uint           `json:"id" gorm:"primaryKey"`
	DeviceID                uint           `json:"device_id" gorm:"not null;index"`
	Device                  Device         `json:"device,omitempty"`
	Status                  RepairStatus   `json:"status" gorm:"default:'in_progress';index"`
	Description             string         `json:"description"`
	CompletedAt             *time.Time     `json:"completed_at"`
	DeliveredAt             *time.Time     `json:"delivered_at"`
	ForfeitureWarningSentAt *time.Time     `json:"forfeiture_warning_sent_at"`
	ForfeitedAt             *time.Time     `json:"forfeited_at"`
	CreatedAt               time.Time      `json:"created_at"`
	UpdatedAt               time.Time      `json:"updated_at"`
	DeletedAt               gorm.DeletedAt `json:"-" gorm:"index"`
}

// SparePart doubles as the inventory table: forfeited devices are inserted
// here at zero cost so the centro can resell them.
type SparePart struct {
	ID                 uint             `json:"id" gorm:"primaryKey"`
	CentroID           *uint            `json:"centro_id" gorm:"index"`
	Name               string           `json:"name" gorm:"not null"`
	Category           string           `json:"category"`
	Brand              string           `json:"brand"`
	ModelCompatibility string           `json:"model_compatibility"`
	StockQuantity      int              `json:"stock_quantity" gorm:"default:0"`
	Cost               decimal.Decimal  `json:"cost" gorm:"type:decimal(12,2);default:0"`
	SellingPrice       *decimal.Decimal `json:"selling_price" gorm:"type:decimal(12,2)"`
	Notes              string           `json:"notes"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
	DeletedAt          gorm.DeletedAt   `json:"-" gorm:"index"`
}

func (SparePart) TableName() string {
	return "spare_parts"
}
