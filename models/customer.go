package models

import (
	"time"

	"gorm.io/gorm"
)

type Customer struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CentroID  uint           `json:"centro_id" gorm:"not null;index"`
	Centro    Centro         `json:"-"`
	Name      string         `json:"name" gorm:"not null"`
	Email     string         `json:"email" gorm:"index"`
	Phone     string         `json:"phone"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

type Device struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	CustomerID       uint           `json:"customer_id" gorm:"not null;index"`
	Customer         Customer       `json:"customer,omitempty"`
	Brand            string         `json:"brand"`
	Model            string         `json:"model"`
	DeviceType       string         `json:"device_type"`
	IMEI             string         `json:"imei"`
	SerialNumber     string         `json:"serial_number"`
	InitialCondition string         `json:"initial_condition"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"-" gorm:"index"`
}
