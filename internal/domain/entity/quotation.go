package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Quotation represents a price estimate for a customer. It has no stock or
// payment effects until it is converted into an invoice.
type Quotation struct {
	ID                 uuid.UUID            `gorm:"type:uuid;primary_key" json:"id"`
	QuotationNumber    string               `gorm:"size:50;uniqueIndex;not null" json:"quotation_number"`
	QuotationDate      time.Time            `gorm:"type:date;not null;index" json:"quotation_date"`
	ValidityDate       time.Time            `gorm:"type:date;not null;index" json:"validity_date"`
	CustomerID         *uuid.UUID           `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	CustomerName       string               `gorm:"size:255" json:"customer_name,omitempty"`
	BuyerState         string               `gorm:"size:2;not null" json:"buyer_state"`
	SellerState        string               `gorm:"size:2;not null" json:"seller_state"`
	Discount           decimal.Decimal      `gorm:"type:numeric(14,2);default:0" json:"discount"`
	Status             enum.QuotationStatus `gorm:"default:0;index" json:"status"`
	ConvertedInvoiceID *uuid.UUID           `gorm:"type:uuid" json:"converted_invoice_id,omitempty"`
	Notes              string               `gorm:"type:text" json:"notes,omitempty"`
	TermsAndConditions string               `gorm:"type:text" json:"terms_and_conditions,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
	DocumentTotals     `gorm:"embedded"`

	// Relationships
	Items []QuotationItem `gorm:"foreignKey:QuotationID" json:"items,omitempty"`
}

// BeforeCreate generates a UUID before creating a new quotation
func (q *Quotation) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Quotation model
func (Quotation) TableName() string {
	return "quotations"
}

// IsExpiredOn reports whether the validity date has passed on the given day
func (q *Quotation) IsExpiredOn(day time.Time) bool {
	return q.ValidityDate.Before(day)
}

// QuotationItem represents a line item in a quotation
type QuotationItem struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	QuotationID  uuid.UUID `gorm:"type:uuid;not null;index" json:"quotation_id"`
	Position     int       `gorm:"not null" json:"position"`
	DocumentLine `gorm:"embedded"`
}

// BeforeCreate generates a UUID before creating a new quotation item
func (qi *QuotationItem) BeforeCreate(tx *gorm.DB) error {
	if qi.ID == uuid.Nil {
		qi.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the QuotationItem model
func (QuotationItem) TableName() string {
	return "quotation_items"
}
