package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/domain/entity"
	"github.com/sangkips/gst-billing/internal/domain/enum"
	domainRepo "github.com/sangkips/gst-billing/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type quotationRepository struct {
	db *gorm.DB
}

// NewQuotationRepository creates a new quotation repository
func NewQuotationRepository(db *gorm.DB) domainRepo.QuotationRepository {
	return &quotationRepository{db: db}
}

var openQuotationStatuses = []enum.QuotationStatus{enum.QuotationStatusDraft, enum.QuotationStatusSent}

func (r *quotationRepository) Create(ctx context.Context, quotation *entity.Quotation) error {
	return numberConflict(r.db.WithContext(ctx).Create(quotation).Error)
}

func (r *quotationRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Quotation, error) {
	return r.first(r.db.WithContext(ctx), id)
}

func (r *quotationRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.Quotation, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *quotationRepository) first(db *gorm.DB, id uuid.UUID) (*entity.Quotation, error) {
	var quotation entity.Quotation
	err := db.Preload("Items", byPosition).First(&quotation, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &quotation, err
}

func (r *quotationRepository) LastNumber(ctx context.Context, partition string) (string, error) {
	return lastNumber(r.db.WithContext(ctx), &entity.Quotation{}, "quotation_number", partition)
}

// Update saves the header and totals; the line set moves through ReplaceItems
func (r *quotationRepository) Update(ctx context.Context, quotation *entity.Quotation) error {
	result := r.db.WithContext(ctx).Model(&entity.Quotation{ID: quotation.ID}).
		Select(
			"quotation_date", "validity_date", "customer_id", "customer_name", "buyer_state", "seller_state",
			"discount", "notes", "terms_and_conditions", "subtotal", "cgst_total", "sgst_total", "igst_total",
			"grand_total", "updated_at",
		).
		Updates(quotation)
	return affected(result)
}

func (r *quotationRepository) ReplaceItems(ctx context.Context, quotationID uuid.UUID, items []entity.QuotationItem) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("quotation_id = ?", quotationID).Delete(&entity.QuotationItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	fresh := make([]entity.QuotationItem, len(items))
	for i, item := range items {
		item.ID = uuid.Nil
		item.QuotationID = quotationID
		fresh[i] = item
	}
	return translateError(db.Create(&fresh).Error)
}

func (r *quotationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status enum.QuotationStatus) error {
	result := r.db.WithContext(ctx).Model(&entity.Quotation{}).
		Where("id = ?", id).
		Update("status", status)
	return affected(result)
}

func (r *quotationRepository) MarkConverted(ctx context.Context, id uuid.UUID, invoiceID uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&entity.Quotation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":               enum.QuotationStatusConverted,
			"converted_invoice_id": invoiceID,
		})
	return affected(result)
}

func (r *quotationRepository) List(ctx context.Context, params *domainRepo.QuotationFilterParams) ([]entity.Quotation, int64, error) {
	var quotations []entity.Quotation
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Quotation{}).
		Scopes(
			Search(params.Search, "quotation_number", "customer_name"),
			WithinDates("quotation_date", params.Dates),
		)

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	if params.CustomerID != nil {
		query = query.Where("customer_id = ?", *params.CustomerID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Scopes(Paginate(params.Pagination)).
		Preload("Items", byPosition).
		Order("quotation_date DESC").
		Order(NumberOrder("quotation_number", true)).
		Find(&quotations).Error

	return quotations, total, err
}

func (r *quotationRepository) ListByDateRange(ctx context.Context, dates domainRepo.DateRange) ([]entity.Quotation, error) {
	quotations, _, err := r.List(ctx, &domainRepo.QuotationFilterParams{Dates: dates})
	return quotations, err
}

func (r *quotationRepository) ListOpen(ctx context.Context) ([]entity.Quotation, error) {
	var quotations []entity.Quotation
	err := r.db.WithContext(ctx).
		Where("status IN ?", openQuotationStatuses).
		Preload("Items", byPosition).
		Order("validity_date ASC").
		Find(&quotations).Error
	return quotations, err
}

func (r *quotationRepository) ListLapsed(ctx context.Context, day time.Time) ([]entity.Quotation, error) {
	var quotations []entity.Quotation
	err := r.db.WithContext(ctx).
		Where("status IN ? AND validity_date < ?", openQuotationStatuses, day).
		Order("validity_date ASC").
		Find(&quotations).Error
	return quotations, err
}
