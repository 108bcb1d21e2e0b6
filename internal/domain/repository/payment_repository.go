package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/domain/entity"
)

// PaymentRepository defines the interface for invoice payment records
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByInvoice returns payments in the order they were recorded
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]entity.Payment, error)
	ListByDateRange(ctx context.Context, dates DateRange) ([]entity.Payment, error)
}
