package request

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/application/service"
	"github.com/sangkips/gst-billing/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// RecordPaymentRequest is a single payment against an invoice
type RecordPaymentRequest struct {
	Mode      enum.PaymentMode `json:"mode" binding:"required"`
	Amount    decimal.Decimal  `json:"amount" binding:"required"`
	Date      *time.Time       `json:"date"`
	Reference string           `json:"reference" binding:"max=100"`
	Notes     string           `json:"notes"`
}

// Input converts the request for the payment ledger
func (r RecordPaymentRequest) Input(invoiceID uuid.UUID) *service.RecordPaymentInput {
	return &service.RecordPaymentInput{
		InvoiceID: invoiceID,
		Mode:      r.Mode,
		Amount:    r.Amount,
		Date:      r.Date,
		Reference: r.Reference,
		Notes:     r.Notes,
	}
}

// SplitPaymentRequest records several tenders at once
type SplitPaymentRequest struct {
	Payments []service.SplitPaymentInput `json:"payments" binding:"required,min=1"`
	Date     *time.Time                  `json:"date"`
}

// AdjustStockRequest is a manual stock correction
type AdjustStockRequest struct {
	Delta decimal.Decimal `json:"delta" binding:"required"`
	Note  string          `json:"note" binding:"max=255"`
}

// RestockRequest records goods received
type RestockRequest struct {
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	Reference string          `json:"reference" binding:"max=255"`
}

// QuotationStatusRequest moves a quotation through its lifecycle
type QuotationStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=DRAFT SENT ACCEPTED REJECTED EXPIRED"`
}

// CancelCreditNoteRequest controls whether restored stock is taken back out
type CancelCreditNoteRequest struct {
	ReverseStock *bool `json:"reverse_stock"`
}

// ShouldReverse defaults to reversing the stock
func (r CancelCreditNoteRequest) ShouldReverse() bool {
	return r.ReverseStock == nil || *r.ReverseStock
}

// ApplyCreditNoteRequest names the invoice a credit note pays toward
type ApplyCreditNoteRequest struct {
	InvoiceID uuid.UUID `json:"invoice_id" binding:"required"`
}

// GSTINRequest is a GSTIN path parameter
type GSTINRequest struct {
	GSTIN string `uri:"gstin" binding:"required,gstin"`
}

// DaysRequest is a look-ahead or look-back window in days
type DaysRequest struct {
	Days int `form:"days" binding:"omitempty,min=1,max=366"`
}

// DayRequest selects a single calendar day
type DayRequest struct {
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

// Day parses the query; a missing date yields the zero time
func (r DayRequest) Day() (time.Time, error) {
	if r.Date == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, r.Date)
}
