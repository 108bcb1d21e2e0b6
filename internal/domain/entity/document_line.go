package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentLine is the line shape shared by invoices, credit notes and quotations.
// Amounts are always derived from quantity, rate and GST rate.
type DocumentLine struct {
	ProductID    *uuid.UUID      `gorm:"type:uuid;index" json:"product_id,omitempty"`
	ProductName  string          `gorm:"size:255;not null" json:"product_name"`
	HSNCode      string          `gorm:"size:20" json:"hsn_code,omitempty"`
	Unit         string          `gorm:"size:20" json:"unit"`
	Quantity     decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"quantity"`
	Rate         decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"rate"`
	GSTRate      decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"gst_rate"`
	TaxableValue decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"taxable_value"`
	CGST         decimal.Decimal `gorm:"column:cgst;type:numeric(14,2);not null" json:"cgst"`
	SGST         decimal.Decimal `gorm:"column:sgst;type:numeric(14,2);not null" json:"sgst"`
	IGST         decimal.Decimal `gorm:"column:igst;type:numeric(14,2);not null" json:"igst"`
	Total        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total"`
}

// DocumentTotals holds the aggregate amounts of a document
type DocumentTotals struct {
	Subtotal   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"subtotal"`
	CGSTTotal  decimal.Decimal `gorm:"column:cgst_total;type:numeric(14,2);not null" json:"cgst_total"`
	SGSTTotal  decimal.Decimal `gorm:"column:sgst_total;type:numeric(14,2);not null" json:"sgst_total"`
	IGSTTotal  decimal.Decimal `gorm:"column:igst_total;type:numeric(14,2);not null" json:"igst_total"`
	GrandTotal decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"grand_total"`
}

// TaxTotal returns the sum of all tax components
func (t DocumentTotals) TaxTotal() decimal.Decimal {
	return t.CGSTTotal.Add(t.SGSTTotal).Add(t.IGSTTotal)
}
