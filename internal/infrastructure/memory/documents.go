package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/domain/entity"
	"github.com/sangkips/gst-billing/internal/domain/enum"
	"github.com/sangkips/gst-billing/internal/domain/numbering"
	"github.com/sangkips/gst-billing/internal/domain/repository"
)

type creditNoteRepository struct {
	s *Store
}

func (r *creditNoteRepository) Create(ctx context.Context, note *entity.CreditNote) error {
	return r.s.view(func(d *data) error {
		for _, existing := range d.creditNotes {
			if existing.CreditNoteNumber == note.CreditNoteNumber {
				return repository.ErrDuplicateNumber
			}
		}
		newID(&note.ID)
		stamp(&note.CreatedAt, &note.UpdatedAt)
		for i := range note.Items {
			newID(&note.Items[i].ID)
			note.Items[i].CreditNoteID = note.ID
		}
		stored := *note
		stored.Items = append([]entity.CreditNoteItem(nil), note.Items...)
		d.creditNotes[note.ID] = stored
		return nil
	})
}

func (r *creditNoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.CreditNote, error) {
	var out *entity.CreditNote
	err := r.s.view(func(d *data) error {
		if cn, ok := d.creditNotes[id]; ok {
			out = detachCreditNote(cn)
		}
		return nil
	})
	return out, err
}

func (r *creditNoteRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.CreditNote, error) {
	return r.GetByID(ctx, id)
}

func (r *creditNoteRepository) LastNumber(ctx context.Context, partition string) (string, error) {
	last := ""
	err := r.s.view(func(d *data) error {
		for _, cn := range d.creditNotes {
			if strings.HasPrefix(cn.CreditNoteNumber, partition) && (last == "" || numbering.Less(last, cn.CreditNoteNumber)) {
				last = cn.CreditNoteNumber
			}
		}
		return nil
	})
	return last, err
}

func (r *creditNoteRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status enum.CreditNoteStatus, appliedInvoiceID *uuid.UUID) error {
	return r.s.view(func(d *data) error {
		cn, ok := d.creditNotes[id]
		if !ok {
			return repository.ErrNotFound
		}
		cn.Status = status
		if appliedInvoiceID != nil {
			cn.AppliedInvoiceID = appliedInvoiceID
		}
		stamp(nil, &cn.UpdatedAt)
		d.creditNotes[id] = cn
		return nil
	})
}

func (r *creditNoteRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]entity.CreditNote, error) {
	notes, _, err := r.List(ctx, &repository.CreditNoteFilterParams{InvoiceID: &invoiceID})
	return notes, err
}

func (r *creditNoteRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]entity.CreditNote, error) {
	notes, _, err := r.List(ctx, &repository.CreditNoteFilterParams{})
	if err != nil {
		return nil, err
	}
	filtered := []entity.CreditNote{}
	for _, cn := range notes {
		if cn.CustomerID != nil && *cn.CustomerID == customerID {
			filtered = append(filtered, cn)
		}
	}
	return filtered, nil
}

func (r *creditNoteRepository) ListByDateRange(ctx context.Context, dates repository.DateRange) ([]entity.CreditNote, error) {
	notes, _, err := r.List(ctx, &repository.CreditNoteFilterParams{Dates: dates})
	return notes, err
}

func (r *creditNoteRepository) List(ctx context.Context, params *repository.CreditNoteFilterParams) ([]entity.CreditNote, int64, error) {
	var notes []entity.CreditNote
	err := r.s.view(func(d *data) error {
		for _, cn := range d.creditNotes {
			if params.Status != nil && cn.Status != *params.Status {
				continue
			}
			if params.InvoiceID != nil && cn.InvoiceID != *params.InvoiceID {
				continue
			}
			if !params.Dates.Contains(cn.CreditNoteDate) {
				continue
			}
			notes = append(notes, *detachCreditNote(cn))
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(notes, func(i, j int) bool {
		if !notes[i].CreditNoteDate.Equal(notes[j].CreditNoteDate) {
			return notes[i].CreditNoteDate.Before(notes[j].CreditNoteDate)
		}
		return numbering.Less(notes[i].CreditNoteNumber, notes[j].CreditNoteNumber)
	})
	return page(notes, params.Pagination)
}

func detachCreditNote(cn entity.CreditNote) *entity.CreditNote {
	cn.Items = append([]entity.CreditNoteItem(nil), cn.Items...)
	return &cn
}

type quotationRepository struct {
	s *Store
}

func (r *quotationRepository) Create(ctx context.Context, quotation *entity.Quotation) error {
	return r.s.view(func(d *data) error {
		for _, existing := range d.quotations {
			if existing.QuotationNumber == quotation.QuotationNumber {
				return repository.ErrDuplicateNumber
			}
		}
		newID(&quotation.ID)
		stamp(&quotation.CreatedAt, &quotation.UpdatedAt)
		prepareQuotationItems(quotation.ID, quotation.Items)
		stored := *quotation
		stored.Items = append([]entity.QuotationItem(nil), quotation.Items...)
		d.quotations[quotation.ID] = stored
		return nil
	})
}

func (r *quotationRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Quotation, error) {
	var out *entity.Quotation
	err := r.s.view(func(d *data) error {
		if q, ok := d.quotations[id]; ok {
			out = detachQuotation(q)
		}
		return nil
	})
	return out, err
}

func (r *quotationRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.Quotation, error) {
	return r.GetByID(ctx, id)
}

func (r *quotationRepository) LastNumber(ctx context.Context, partition string) (string, error) {
	last := ""
	err := r.s.view(func(d *data) error {
		for _, q := range d.quotations {
			if strings.HasPrefix(q.QuotationNumber, partition) && (last == "" || numbering.Less(last, q.QuotationNumber)) {
				last = q.QuotationNumber
			}
		}
		return nil
	})
	return last, err
}

func (r *quotationRepository) Update(ctx context.Context, quotation *entity.Quotation) error {
	return r.s.view(func(d *data) error {
		current, ok := d.quotations[quotation.ID]
		if !ok {
			return repository.ErrNotFound
		}
		stamp(nil, &quotation.UpdatedAt)
		stored := *quotation
		stored.CreatedAt = current.CreatedAt
		stored.Items = current.Items
		d.quotations[quotation.ID] = stored
		return nil
	})
}

func (r *quotationRepository) ReplaceItems(ctx context.Context, quotationID uuid.UUID, items []entity.QuotationItem) error {
	return r.s.view(func(d *data) error {
		q, ok := d.quotations[quotationID]
		if !ok {
			return repository.ErrNotFound
		}
		prepareQuotationItems(quotationID, items)
		q.Items = append([]entity.QuotationItem(nil), items...)
		d.quotations[quotationID] = q
		return nil
	})
}

func (r *quotationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status enum.QuotationStatus) error {
	return r.s.view(func(d *data) error {
		q, ok := d.quotations[id]
		if !ok {
			return repository.ErrNotFound
		}
		q.Status = status
		stamp(nil, &q.UpdatedAt)
		d.quotations[id] = q
		return nil
	})
}

func (r *quotationRepository) MarkConverted(ctx context.Context, id uuid.UUID, invoiceID uuid.UUID) error {
	return r.s.view(func(d *data) error {
		q, ok := d.quotations[id]
		if !ok {
			return repository.ErrNotFound
		}
		q.Status = enum.QuotationStatusConverted
		q.ConvertedInvoiceID = &invoiceID
		stamp(nil, &q.UpdatedAt)
		d.quotations[id] = q
		return nil
	})
}

func (r *quotationRepository) List(ctx context.Context, params *repository.QuotationFilterParams) ([]entity.Quotation, int64, error) {
	var quotations []entity.Quotation
	err := r.s.view(func(d *data) error {
		for _, q := range d.quotations {
			if params.Status != nil && q.Status != *params.Status {
				continue
			}
			if params.CustomerID != nil && (q.CustomerID == nil || *q.CustomerID != *params.CustomerID) {
				continue
			}
			if !params.Dates.Contains(q.QuotationDate) {
				continue
			}
			if params.Search != "" && !containsFold(q.QuotationNumber, params.Search) && !containsFold(q.CustomerName, params.Search) {
				continue
			}
			quotations = append(quotations, *detachQuotation(q))
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(quotations, func(i, j int) bool {
		return numbering.Less(quotations[j].QuotationNumber, quotations[i].QuotationNumber)
	})
	return page(quotations, params.Pagination)
}

func (r *quotationRepository) ListByDateRange(ctx context.Context, dates repository.DateRange) ([]entity.Quotation, error) {
	quotations, _, err := r.List(ctx, &repository.QuotationFilterParams{Dates: dates})
	return quotations, err
}

func (r *quotationRepository) ListOpen(ctx context.Context) ([]entity.Quotation, error) {
	quotations, _, err := r.List(ctx, &repository.QuotationFilterParams{})
	if err != nil {
		return nil, err
	}
	open := []entity.Quotation{}
	for _, q := range quotations {
		if q.Status.IsEditable() {
			open = append(open, q)
		}
	}
	sort.SliceStable(open, func(i, j int) bool {
		return open[i].ValidityDate.Before(open[j].ValidityDate)
	})
	return open, nil
}

func (r *quotationRepository) ListLapsed(ctx context.Context, day time.Time) ([]entity.Quotation, error) {
	open, err := r.ListOpen(ctx)
	if err != nil {
		return nil, err
	}
	lapsed := []entity.Quotation{}
	for _, q := range open {
		if q.ValidityDate.Before(day) {
			lapsed = append(lapsed, q)
		}
	}
	return lapsed, nil
}

func prepareQuotationItems(quotationID uuid.UUID, items []entity.QuotationItem) {
	for i := range items {
		newID(&items[i].ID)
		items[i].QuotationID = quotationID
	}
}

func detachQuotation(q entity.Quotation) *entity.Quotation {
	q.Items = append([]entity.QuotationItem(nil), q.Items...)
	return &q
}

type idempotencyRepository struct {
	s *Store
}

func idempotencyKey(key, subject string) string {
	return subject + "\x00" + key
}

func (r *idempotencyRepository) GetByKey(ctx context.Context, key, subject string) (*entity.IdempotencyKey, error) {
	var out *entity.IdempotencyKey
	err := r.s.view(func(d *data) error {
		if k, ok := d.idempotency[idempotencyKey(key, subject)]; ok {
			out = &k
		}
		return nil
	})
	return out, err
}

func (r *idempotencyRepository) Create(ctx context.Context, ikey *entity.IdempotencyKey) error {
	return r.s.view(func(d *data) error {
		k := idempotencyKey(ikey.Key, ikey.Subject)
		if _, exists := d.idempotency[k]; exists {
			return repository.ErrDuplicate
		}
		newID(&ikey.ID)
		stamp(&ikey.CreatedAt, nil)
		d.idempotency[k] = *ikey
		return nil
	})
}

func (r *idempotencyRepository) DeleteExpired(ctx context.Context) error {
	return r.s.view(func(d *data) error {
		now := time.Now()
		for k, v := range d.idempotency {
			if now.After(v.ExpiresAt) {
				delete(d.idempotency, k)
			}
		}
		return nil
	})
}
