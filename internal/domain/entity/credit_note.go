package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/domain/enum"
	"gorm.io/gorm"
)

// CreditNote represents a return or value adjustment against a prior invoice.
// Lines are valued at the original invoice's rates.
type CreditNote struct {
	ID               uuid.UUID             `gorm:"type:uuid;primary_key" json:"id"`
	CreditNoteNumber string                `gorm:"size:50;uniqueIndex;not null" json:"credit_note_number"`
	CreditNoteDate   time.Time             `gorm:"type:date;not null;index" json:"credit_note_date"`
	InvoiceID        uuid.UUID             `gorm:"type:uuid;not null;index" json:"invoice_id"`
	InvoiceNumber    string                `gorm:"size:50" json:"invoice_number"`
	CustomerID       *uuid.UUID            `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	CustomerName     string                `gorm:"size:255" json:"customer_name,omitempty"`
	BuyerState       string                `gorm:"size:2;not null" json:"buyer_state"`
	SellerState      string                `gorm:"size:2;not null" json:"seller_state"`
	Reason           enum.CreditNoteReason `gorm:"size:30;not null" json:"reason"`
	ReasonDetails    string                `gorm:"type:text" json:"reason_details,omitempty"`
	StockRestored    bool                  `gorm:"default:true" json:"stock_restored"`
	Status           enum.CreditNoteStatus `gorm:"default:0;index" json:"status"`
	AppliedInvoiceID *uuid.UUID            `gorm:"type:uuid" json:"applied_invoice_id,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
	DocumentTotals   `gorm:"embedded"`

	// Relationships
	Items []CreditNoteItem `gorm:"foreignKey:CreditNoteID" json:"items,omitempty"`
}

// BeforeCreate generates a UUID before creating a new credit note
func (cn *CreditNote) BeforeCreate(tx *gorm.DB) error {
	if cn.ID == uuid.Nil {
		cn.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the CreditNote model
func (CreditNote) TableName() string {
	return "credit_notes"
}

// CreditNoteItem represents a returned line
type CreditNoteItem struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	CreditNoteID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"credit_note_id"`
	InvoiceItemID *uuid.UUID `gorm:"type:uuid" json:"invoice_item_id,omitempty"`
	Position      int        `gorm:"not null" json:"position"`
	DocumentLine  `gorm:"embedded"`
}

// BeforeCreate generates a UUID before creating a new credit note item
func (ci *CreditNoteItem) BeforeCreate(tx *gorm.DB) error {
	if ci.ID == uuid.Nil {
		ci.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the CreditNoteItem model
func (CreditNoteItem) TableName() string {
	return "credit_note_items"
}
