package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/domain/entity"
	"github.com/sangkips/gst-billing/internal/domain/enum"
	"github.com/sangkips/gst-billing/pkg/pagination"
	"github.com/shopspring/decimal"
)

// InvoiceRepository defines the interface for invoice data operations
type InvoiceRepository interface {
	// Create inserts the invoice with its items. It returns ErrDuplicateNumber
	// when the invoice number is already taken.
	Create(ctx context.Context, invoice *entity.Invoice) error
	// GetByID returns the invoice with items, or nil when it does not exist
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	// GetForUpdate is GetByID that also locks the row until the transaction ends
	GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	GetByNumber(ctx context.Context, number string) (*entity.Invoice, error)
	// LastNumber returns the highest number starting with partition, or ""
	LastNumber(ctx context.Context, partition string) (string, error)
	UpdatePaymentTotals(ctx context.Context, id uuid.UUID, paid, balance decimal.Decimal, status enum.PaymentStatus) error
	MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time) error
	List(ctx context.Context, params *InvoiceFilterParams) ([]entity.Invoice, int64, error)
	// ListByDateRange returns invoices with items, cancelled ones included
	ListByDateRange(ctx context.Context, dates DateRange) ([]entity.Invoice, error)
	// ListOutstanding returns non-cancelled invoices with a positive balance, newest first
	ListOutstanding(ctx context.Context, customerID *uuid.UUID) ([]entity.Invoice, error)
}

// InvoiceFilterParams contains filtering parameters for invoice queries
type InvoiceFilterParams struct {
	Pagination    *pagination.PaginationParams
	Search        string
	CustomerID    *uuid.UUID
	PaymentStatus *enum.PaymentStatus
	Cancelled     *bool
	Dates         DateRange
	SortOrder     string
}
