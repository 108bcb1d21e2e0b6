package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Customer represents a buyer. An empty GSTIN marks an unregistered (B2C) buyer.
type Customer struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Name          string          `gorm:"size:255;not null" json:"name"`
	Phone         string          `gorm:"size:20;index" json:"phone,omitempty"`
	Email         string          `gorm:"size:255" json:"email,omitempty"`
	GSTIN         string          `gorm:"column:gstin;size:15;index" json:"gstin,omitempty"`
	Address       string          `gorm:"type:text" json:"address,omitempty"`
	StateCode     string          `gorm:"size:2;not null" json:"state_code"`
	CreditBalance decimal.Decimal `gorm:"type:numeric(14,2);default:0" json:"credit_balance"`
	CreditLimit   decimal.Decimal `gorm:"type:numeric(14,2);default:0" json:"credit_limit"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new customer
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}

// IsRegistered reports whether the customer is a GST-registered business
func (c *Customer) IsRegistered() bool {
	return c.GSTIN != ""
}
