package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice represents a committed sale. It is never deleted; cancellation is a
// one-way flag that keeps the lines for audit.
type Invoice struct {
	ID            uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceNumber string             `gorm:"size:50;uniqueIndex;not null" json:"invoice_number"`
	InvoiceDate   time.Time          `gorm:"type:date;not null;index" json:"invoice_date"`
	CustomerID    *uuid.UUID         `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	CustomerName  string             `gorm:"size:255" json:"customer_name,omitempty"`
	CustomerGSTIN string             `gorm:"column:customer_gstin;size:15" json:"customer_gstin,omitempty"`
	BuyerState    string             `gorm:"size:2;not null" json:"buyer_state"`
	SellerState   string             `gorm:"size:2;not null" json:"seller_state"`
	Discount      decimal.Decimal    `gorm:"type:numeric(14,2);default:0" json:"discount"`
	PaymentMode   enum.PaymentMode   `gorm:"size:30" json:"payment_mode"`
	AmountPaid    decimal.Decimal    `gorm:"type:numeric(14,2);default:0" json:"amount_paid"`
	BalanceDue    decimal.Decimal    `gorm:"type:numeric(14,2);default:0" json:"balance_due"`
	PaymentStatus enum.PaymentStatus `gorm:"default:0;index" json:"payment_status"`
	IsCancelled   bool               `gorm:"default:false;index" json:"is_cancelled"`
	CancelledAt   *time.Time         `json:"cancelled_at,omitempty"`
	Notes         string             `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	DocumentTotals `gorm:"embedded"`

	// Relationships
	Items    []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
	Payments []Payment     `gorm:"foreignKey:InvoiceID" json:"payments,omitempty"`
}

// BeforeCreate generates a UUID before creating a new invoice
func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Invoice model
func (Invoice) TableName() string {
	return "invoices"
}

// IsInterState reports whether the invoice carries IGST instead of CGST/SGST
func (i *Invoice) IsInterState() bool {
	return i.BuyerState != i.SellerState
}

// InvoiceItem represents a line of an invoice
type InvoiceItem struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceID    uuid.UUID `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Position     int       `gorm:"not null" json:"position"`
	DocumentLine `gorm:"embedded"`
}

// BeforeCreate generates a UUID before creating a new invoice item
func (ii *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if ii.ID == uuid.Nil {
		ii.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the InvoiceItem model
func (InvoiceItem) TableName() string {
	return "invoice_items"
}
