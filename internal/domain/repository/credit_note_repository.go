package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/domain/entity"
	"github.com/sangkips/gst-billing/internal/domain/enum"
	"github.com/sangkips/gst-billing/pkg/pagination"
)

// CreditNoteRepository defines the interface for credit note data operations
type CreditNoteRepository interface {
	// Create inserts the credit note with its items. It returns
	// ErrDuplicateNumber when the number is already taken.
	Create(ctx context.Context, note *entity.CreditNote) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.CreditNote, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.CreditNote, error)
	LastNumber(ctx context.Context, partition string) (string, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enum.CreditNoteStatus, appliedInvoiceID *uuid.UUID) error
	// ListByInvoice returns every credit note raised against the invoice, with items
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]entity.CreditNote, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]entity.CreditNote, error)
	ListByDateRange(ctx context.Context, dates DateRange) ([]entity.CreditNote, error)
	List(ctx context.Context, params *CreditNoteFilterParams) ([]entity.CreditNote, int64, error)
}

// CreditNoteFilterParams contains filtering parameters for credit note queries
type CreditNoteFilterParams struct {
	Pagination *pagination.PaginationParams
	Status     *enum.CreditNoteStatus
	InvoiceID  *uuid.UUID
	Dates      DateRange
}
