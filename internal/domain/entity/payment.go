package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment represents money received against an invoice
type Payment struct {
	ID              uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Mode            enum.PaymentMode `gorm:"column:payment_mode;size:30;not null" json:"payment_mode"`
	Amount          decimal.Decimal  `gorm:"type:numeric(14,2);not null" json:"amount"`
	PaymentDate     time.Time        `gorm:"type:date;not null;index" json:"payment_date"`
	ReferenceNumber string           `gorm:"size:100" json:"reference_number,omitempty"`
	Notes           string           `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new payment
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Payment model
func (Payment) TableName() string {
	return "invoice_payments"
}
