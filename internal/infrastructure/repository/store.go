package repository

import (
	"context"

	domainRepo "github.com/sangkips/gst-billing/internal/domain/repository"
	"gorm.io/gorm"
)

// Store is the PostgreSQL implementation of the domain store
type Store struct {
	db   *gorm.DB
	inTx bool
}

// NewStore creates a store on top of a GORM connection
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Products() domainRepo.ProductRepository {
	return &productRepository{db: s.db}
}

func (s *Store) Customers() domainRepo.CustomerRepository {
	return &customerRepository{db: s.db}
}

func (s *Store) Invoices() domainRepo.InvoiceRepository {
	return &invoiceRepository{db: s.db}
}

func (s *Store) Payments() domainRepo.PaymentRepository {
	return &paymentRepository{db: s.db}
}

func (s *Store) StockMovements() domainRepo.StockMovementRepository {
	return &stockMovementRepository{db: s.db}
}

func (s *Store) CreditNotes() domainRepo.CreditNoteRepository {
	return &creditNoteRepository{db: s.db}
}

func (s *Store) Quotations() domainRepo.QuotationRepository {
	return &quotationRepository{db: s.db}
}

func (s *Store) Idempotency() domainRepo.IdempotencyRepository {
	return &idempotencyRepository{db: s.db}
}

// WithinTx runs fn in a database transaction. A store that is already
// transactional runs fn directly so nested units of work share one commit.
func (s *Store) WithinTx(ctx context.Context, fn func(tx domainRepo.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, inTx: true})
	})
}

// Ping checks the underlying connection
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

var _ domainRepo.Store = (*Store)(nil)
