package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/domain/entity"
	"github.com/sangkips/gst-billing/internal/domain/enum"
	domainRepo "github.com/sangkips/gst-billing/internal/domain/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB) domainRepo.InvoiceRepository {
	return &invoiceRepository{db: db}
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func byRecorded(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}

// withLines preloads items in line order and payments in the order recorded
func withLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", byPosition).Preload("Payments", byRecorded)
}

// Create inserts the invoice header and items. Payments are appended through
// the payment repository.
func (r *invoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	return numberConflict(r.db.WithContext(ctx).Omit("Payments").Create(invoice).Error)
}

func (r *invoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", id)
}

func (r *invoiceRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

func (r *invoiceRepository) GetByNumber(ctx context.Context, number string) (*entity.Invoice, error) {
	return r.first(r.db.WithContext(ctx), "invoice_number = ?", number)
}

func (r *invoiceRepository) first(db *gorm.DB, query string, args ...interface{}) (*entity.Invoice, error) {
	var invoice entity.Invoice
	err := db.Scopes(withLines).Where(query, args...).First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &invoice, err
}

func (r *invoiceRepository) LastNumber(ctx context.Context, partition string) (string, error) {
	return lastNumber(r.db.WithContext(ctx), &entity.Invoice{}, "invoice_number", partition)
}

func (r *invoiceRepository) UpdatePaymentTotals(ctx context.Context, id uuid.UUID, paid, balance decimal.Decimal, status enum.PaymentStatus) error {
	result := r.db.WithContext(ctx).Model(&entity.Invoice{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"amount_paid":    paid,
			"balance_due":    balance,
			"payment_status": status,
		})
	return affected(result)
}

func (r *invoiceRepository) MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&entity.Invoice{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_cancelled": true,
			"cancelled_at": at,
		})
	return affected(result)
}

func (r *invoiceRepository) List(ctx context.Context, params *domainRepo.InvoiceFilterParams) ([]entity.Invoice, int64, error) {
	var invoices []entity.Invoice
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Invoice{}).
		Scopes(
			Search(params.Search, "invoice_number", "customer_name"),
			WithinDates("invoice_date", params.Dates),
		)

	if params.CustomerID != nil {
		query = query.Where("customer_id = ?", *params.CustomerID)
	}

	if params.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *params.PaymentStatus)
	}

	if params.Cancelled != nil {
		query = query.Where("is_cancelled = ?", *params.Cancelled)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	desc := !strings.EqualFold(params.SortOrder, "asc")
	dir := "DESC"
	if !desc {
		dir = "ASC"
	}
	err := query.Scopes(Paginate(params.Pagination), withLines).
		Order("invoice_date " + dir).
		Order(NumberOrder("invoice_number", desc)).
		Find(&invoices).Error

	return invoices, total, err
}

func (r *invoiceRepository) ListByDateRange(ctx context.Context, dates domainRepo.DateRange) ([]entity.Invoice, error) {
	invoices, _, err := r.List(ctx, &domainRepo.InvoiceFilterParams{Dates: dates, SortOrder: "asc"})
	return invoices, err
}

func (r *invoiceRepository) ListOutstanding(ctx context.Context, customerID *uuid.UUID) ([]entity.Invoice, error) {
	var invoices []entity.Invoice
	query := r.db.WithContext(ctx).
		Where("is_cancelled = ? AND balance_due > 0", false)
	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}
	err := query.Scopes(withLines).
		Order("invoice_date DESC").
		Order(NumberOrder("invoice_number", true)).
		Find(&invoices).Error
	return invoices, err
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) domainRepo.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	return translateError(r.db.WithContext(ctx).Create(payment).Error)
}

func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	var payment entity.Payment
	err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &payment, err
}

func (r *paymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return affected(r.db.WithContext(ctx).Delete(&entity.Payment{}, "id = ?", id))
}

func (r *paymentRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]entity.Payment, error) {
	var payments []entity.Payment
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Scopes(byRecorded).
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) ListByDateRange(ctx context.Context, dates domainRepo.DateRange) ([]entity.Payment, error) {
	var payments []entity.Payment
	err := r.db.WithContext(ctx).
		Scopes(WithinDates("payment_date", dates)).
		Order("payment_date ASC").
		Scopes(byRecorded).
		Find(&payments).Error
	return payments, err
}

type stockMovementRepository struct {
	db *gorm.DB
}

// NewStockMovementRepository creates the stock ledger repository
func NewStockMovementRepository(db *gorm.DB) domainRepo.StockMovementRepository {
	return &stockMovementRepository{db: db}
}

func (r *stockMovementRepository) Create(ctx context.Context, movement *entity.StockMovement) error {
	return translateError(r.db.WithContext(ctx).Create(movement).Error)
}

func (r *stockMovementRepository) ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]entity.StockMovement, error) {
	var movements []entity.StockMovement
	query := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&movements).Error
	return movements, err
}

func (r *stockMovementRepository) SumByProduct(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).Model(&entity.StockMovement{}).
		Select("COALESCE(SUM(delta), 0)").
		Where("product_id = ?", productID).
		Scan(&sum).Error
	return sum, err
}
