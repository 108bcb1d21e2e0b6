// Package memory is an in-process implementation of the repository contracts.
// It backs the unit tests and the STORE_DRIVER=memory mode used for demos.
//
// A transaction works on a copy of the data taken under the store mutex and
// replaces the live data on commit. Stored entities are values whose slices
// are never mutated in place, so the copy only needs fresh maps and slices.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/domain/entity"
	"github.com/sangkips/gst-billing/internal/domain/repository"
)

type data struct {
	products    map[uuid.UUID]entity.Product
	customers   map[uuid.UUID]entity.Customer
	invoices    map[uuid.UUID]entity.Invoice
	payments    []entity.Payment
	movements   []entity.StockMovement
	creditNotes map[uuid.UUID]entity.CreditNote
	quotations  map[uuid.UUID]entity.Quotation
	idempotency map[string]entity.IdempotencyKey
}

func newData() *data {
	return &data{
		products:    make(map[uuid.UUID]entity.Product),
		customers:   make(map[uuid.UUID]entity.Customer),
		invoices:    make(map[uuid.UUID]entity.Invoice),
		creditNotes: make(map[uuid.UUID]entity.CreditNote),
		quotations:  make(map[uuid.UUID]entity.Quotation),
		idempotency: make(map[string]entity.IdempotencyKey),
	}
}

func (d *data) clone() *data {
	c := &data{
		products:    make(map[uuid.UUID]entity.Product, len(d.products)),
		customers:   make(map[uuid.UUID]entity.Customer, len(d.customers)),
		invoices:    make(map[uuid.UUID]entity.Invoice, len(d.invoices)),
		payments:    append([]entity.Payment(nil), d.payments...),
		movements:   append([]entity.StockMovement(nil), d.movements...),
		creditNotes: make(map[uuid.UUID]entity.CreditNote, len(d.creditNotes)),
		quotations:  make(map[uuid.UUID]entity.Quotation, len(d.quotations)),
		idempotency: make(map[string]entity.IdempotencyKey, len(d.idempotency)),
	}
	for k, v := range d.products {
		c.products[k] = v
	}
	for k, v := range d.customers {
		c.customers[k] = v
	}
	for k, v := range d.invoices {
		c.invoices[k] = v
	}
	for k, v := range d.creditNotes {
		c.creditNotes[k] = v
	}
	for k, v := range d.quotations {
		c.quotations[k] = v
	}
	for k, v := range d.idempotency {
		c.idempotency[k] = v
	}
	return c
}

type database struct {
	mu   sync.Mutex
	data *data
}

// Store implements repository.Store in memory
type Store struct {
	db *database
	tx *data
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{db: &database{data: newData()}}
}

var _ repository.Store = (*Store)(nil)

// view runs fn against the transaction copy, or against the live data under
// the store mutex when no transaction is open.
func (s *Store) view(fn func(d *data) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return fn(s.db.data)
}

// WithinTx serializes transactions on the store mutex. The held mutex also
// plays the role of row locks for GetForUpdate.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	working := s.db.data.clone()
	if err := fn(&Store{db: s.db, tx: working}); err != nil {
		return err
	}
	s.db.data = working
	return nil
}

func (s *Store) Products() repository.ProductRepository {
	return &productRepository{s}
}

func (s *Store) Customers() repository.CustomerRepository {
	return &customerRepository{s}
}

func (s *Store) Invoices() repository.InvoiceRepository {
	return &invoiceRepository{s}
}

func (s *Store) Payments() repository.PaymentRepository {
	return &paymentRepository{s}
}

func (s *Store) StockMovements() repository.StockMovementRepository {
	return &stockMovementRepository{s}
}

func (s *Store) CreditNotes() repository.CreditNoteRepository {
	return &creditNoteRepository{s}
}

func (s *Store) Quotations() repository.QuotationRepository {
	return &quotationRepository{s}
}

func (s *Store) Idempotency() repository.IdempotencyRepository {
	return &idempotencyRepository{s}
}

func newID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func stamp(created, updated *time.Time) {
	now := time.Now()
	if created != nil && created.IsZero() {
		*created = now
	}
	if updated != nil {
		*updated = now
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
