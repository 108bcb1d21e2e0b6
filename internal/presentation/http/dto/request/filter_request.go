package request

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/domain/enum"
	"github.com/sangkips/gst-billing/internal/domain/repository"
	"github.com/sangkips/gst-billing/pkg/pagination"
)

// DateLayout is the calendar date format used in query strings
const DateLayout = "2006-01-02"

// DateRangeRequest is an inclusive from/to query pair
type DateRangeRequest struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// Range parses the query into a repository date range. Missing bounds stay open.
func (r DateRangeRequest) Range() (repository.DateRange, error) {
	var dates repository.DateRange
	var err error
	if r.From != "" {
		if dates.From, err = time.Parse(DateLayout, r.From); err != nil {
			return dates, err
		}
	}
	if r.To != "" {
		if dates.To, err = time.Parse(DateLayout, r.To); err != nil {
			return dates, err
		}
	}
	return dates, nil
}

// PageRequest is the page-based pagination query
type PageRequest struct {
	Page    int `form:"page" binding:"omitempty,min=1"`
	PerPage int `form:"per_page" binding:"omitempty,min=1,max=100"`
}

// Params converts the query into pagination params
func (p PageRequest) Params() *pagination.PaginationParams {
	params := &pagination.PaginationParams{Page: p.Page, PerPage: p.PerPage}
	params.Validate()
	return params
}

// ProductFilterRequest represents product filter parameters
type ProductFilterRequest struct {
	PageRequest
	Search     string `form:"search"`
	ActiveOnly bool   `form:"active_only"`
	LowStock   bool   `form:"low_stock"`
	SortBy     string `form:"sort_by" binding:"omitempty,oneof=name price stock_qty created_at"`
	SortOrder  string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

// Filter converts the query into repository filter params
func (r ProductFilterRequest) Filter() *repository.ProductFilterParams {
	return &repository.ProductFilterParams{
		Pagination: r.Params(),
		Search:     r.Search,
		ActiveOnly: r.ActiveOnly,
		LowStock:   r.LowStock,
		SortBy:     r.SortBy,
		SortOrder:  r.SortOrder,
	}
}

// InvoiceFilterRequest represents invoice filter parameters
type InvoiceFilterRequest struct {
	PageRequest
	DateRangeRequest
	Search        string `form:"search"`
	CustomerID    string `form:"customer_id" binding:"omitempty,uuid"`
	PaymentStatus string `form:"payment_status" binding:"omitempty,oneof=UNPAID PARTIAL PAID"`
	Cancelled     *bool  `form:"cancelled"`
	SortOrder     string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

// Filter converts the query into repository filter params
func (r InvoiceFilterRequest) Filter() (*repository.InvoiceFilterParams, error) {
	dates, err := r.Range()
	if err != nil {
		return nil, err
	}
	params := &repository.InvoiceFilterParams{
		Pagination: r.Params(),
		Search:     r.Search,
		Cancelled:  r.Cancelled,
		Dates:      dates,
		SortOrder:  r.SortOrder,
	}
	if params.CustomerID, err = optionalUUID(r.CustomerID); err != nil {
		return nil, err
	}
	if r.PaymentStatus != "" {
		status, err := enum.ParsePaymentStatus(r.PaymentStatus)
		if err != nil {
			return nil, err
		}
		params.PaymentStatus = &status
	}
	return params, nil
}

// CreditNoteFilterRequest represents credit note filter parameters
type CreditNoteFilterRequest struct {
	PageRequest
	DateRangeRequest
	Status    string `form:"status" binding:"omitempty,oneof=ACTIVE APPLIED CANCELLED"`
	InvoiceID string `form:"invoice_id" binding:"omitempty,uuid"`
}

// Filter converts the query into repository filter params
func (r CreditNoteFilterRequest) Filter() (*repository.CreditNoteFilterParams, error) {
	dates, err := r.Range()
	if err != nil {
		return nil, err
	}
	params := &repository.CreditNoteFilterParams{Pagination: r.Params(), Dates: dates}
	if params.InvoiceID, err = optionalUUID(r.InvoiceID); err != nil {
		return nil, err
	}
	if r.Status != "" {
		status, err := enum.ParseCreditNoteStatus(r.Status)
		if err != nil {
			return nil, err
		}
		params.Status = &status
	}
	return params, nil
}

// QuotationFilterRequest represents quotation filter parameters
type QuotationFilterRequest struct {
	PageRequest
	DateRangeRequest
	Search     string `form:"search"`
	Status     string `form:"status" binding:"omitempty,oneof=DRAFT SENT ACCEPTED REJECTED EXPIRED CONVERTED"`
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
}

// Filter converts the query into repository filter params
func (r QuotationFilterRequest) Filter() (*repository.QuotationFilterParams, error) {
	dates, err := r.Range()
	if err != nil {
		return nil, err
	}
	params := &repository.QuotationFilterParams{Pagination: r.Params(), Search: r.Search, Dates: dates}
	if params.CustomerID, err = optionalUUID(r.CustomerID); err != nil {
		return nil, err
	}
	if r.Status != "" {
		status, err := enum.ParseQuotationStatus(r.Status)
		if err != nil {
			return nil, err
		}
		params.Status = &status
	}
	return params, nil
}

// SearchRequest is a paged free-text search
type SearchRequest struct {
	PageRequest
	Search string `form:"search"`
}

func optionalUUID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
