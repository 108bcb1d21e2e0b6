package repository

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDuplicateNumber is returned when a document number collides with one
	// already committed in the same partition.
	ErrDuplicateNumber = errors.New("document number already exists")
	// ErrDuplicate is returned for any other unique key collision
	ErrDuplicate = errors.New("duplicate key")
	// ErrNotFound is returned by mutations that target a missing row
	ErrNotFound = errors.New("record not found")
)

// Store gives access to every repository and runs units of work atomically.
type Store interface {
	Products() ProductRepository
	Customers() CustomerRepository
	Invoices() InvoiceRepository
	Payments() PaymentRepository
	StockMovements() StockMovementRepository
	CreditNotes() CreditNoteRepository
	Quotations() QuotationRepository
	Idempotency() IdempotencyRepository

	// WithinTx runs fn against a Store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	// Calling WithinTx on a transactional Store joins the outer transaction.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// DateRange is an inclusive range of calendar days. Zero bounds are open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether day falls inside the range
func (r DateRange) Contains(day time.Time) bool {
	if !r.From.IsZero() && day.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && day.After(r.To) {
		return false
	}
	return true
}
