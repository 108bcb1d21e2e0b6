package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/domain/entity"
	"github.com/sangkips/gst-billing/internal/domain/enum"
	domainRepo "github.com/sangkips/gst-billing/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type creditNoteRepository struct {
	db *gorm.DB
}

// NewCreditNoteRepository creates a new credit note repository
func NewCreditNoteRepository(db *gorm.DB) domainRepo.CreditNoteRepository {
	return &creditNoteRepository{db: db}
}

func (r *creditNoteRepository) Create(ctx context.Context, note *entity.CreditNote) error {
	return numberConflict(r.db.WithContext(ctx).Create(note).Error)
}

func (r *creditNoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.CreditNote, error) {
	return r.first(r.db.WithContext(ctx), id)
}

func (r *creditNoteRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.CreditNote, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *creditNoteRepository) first(db *gorm.DB, id uuid.UUID) (*entity.CreditNote, error) {
	var note entity.CreditNote
	err := db.Preload("Items", byPosition).First(&note, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &note, err
}

func (r *creditNoteRepository) LastNumber(ctx context.Context, partition string) (string, error) {
	return lastNumber(r.db.WithContext(ctx), &entity.CreditNote{}, "credit_note_number", partition)
}

func (r *creditNoteRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status enum.CreditNoteStatus, appliedInvoiceID *uuid.UUID) error {
	updates := map[string]interface{}{"status": status}
	if appliedInvoiceID != nil {
		updates["applied_invoice_id"] = *appliedInvoiceID
	}
	result := r.db.WithContext(ctx).Model(&entity.CreditNote{}).
		Where("id = ?", id).
		Updates(updates)
	return affected(result)
}

func (r *creditNoteRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]entity.CreditNote, error) {
	notes, _, err := r.List(ctx, &domainRepo.CreditNoteFilterParams{InvoiceID: &invoiceID})
	return notes, err
}

func (r *creditNoteRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]entity.CreditNote, error) {
	var notes []entity.CreditNote
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Preload("Items", byPosition).
		Order("credit_note_date DESC").
		Order(NumberOrder("credit_note_number", true)).
		Find(&notes).Error
	return notes, err
}

func (r *creditNoteRepository) ListByDateRange(ctx context.Context, dates domainRepo.DateRange) ([]entity.CreditNote, error) {
	notes, _, err := r.List(ctx, &domainRepo.CreditNoteFilterParams{Dates: dates})
	return notes, err
}

func (r *creditNoteRepository) List(ctx context.Context, params *domainRepo.CreditNoteFilterParams) ([]entity.CreditNote, int64, error) {
	var notes []entity.CreditNote
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.CreditNote{}).
		Scopes(WithinDates("credit_note_date", params.Dates))

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	if params.InvoiceID != nil {
		query = query.Where("invoice_id = ?", *params.InvoiceID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Scopes(Paginate(params.Pagination)).
		Preload("Items", byPosition).
		Order("credit_note_date ASC").
		Order(NumberOrder("credit_note_number", false)).
		Find(&notes).Error

	return notes, total, err
}
