package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/domain/entity"
	"github.com/sangkips/gst-billing/internal/domain/enum"
	"github.com/sangkips/gst-billing/pkg/pagination"
)

// QuotationRepository defines the interface for quotation data operations
type QuotationRepository interface {
	Create(ctx context.Context, quotation *entity.Quotation) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Quotation, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.Quotation, error)
	LastNumber(ctx context.Context, partition string) (string, error)
	// Update saves header fields and totals, leaving items untouched
	Update(ctx context.Context, quotation *entity.Quotation) error
	// ReplaceItems swaps the whole line set of a quotation
	ReplaceItems(ctx context.Context, quotationID uuid.UUID, items []entity.QuotationItem) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enum.QuotationStatus) error
	MarkConverted(ctx context.Context, id uuid.UUID, invoiceID uuid.UUID) error
	List(ctx context.Context, params *QuotationFilterParams) ([]entity.Quotation, int64, error)
	ListByDateRange(ctx context.Context, dates DateRange) ([]entity.Quotation, error)
	// ListOpen returns DRAFT and SENT quotations ordered by validity date
	ListOpen(ctx context.Context) ([]entity.Quotation, error)
	// ListLapsed returns DRAFT and SENT quotations whose validity date is before day
	ListLapsed(ctx context.Context, day time.Time) ([]entity.Quotation, error)
}

// QuotationFilterParams contains filtering parameters for quotation queries
type QuotationFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
	Status     *enum.QuotationStatus
	CustomerID *uuid.UUID
	Dates      DateRange
}
