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
	"github.com/shopspring/decimal"
)

type invoiceRepository struct {
	s *Store
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	return r.s.view(func(d *data) error {
		for _, existing := range d.invoices {
			if existing.InvoiceNumber == invoice.InvoiceNumber {
				return repository.ErrDuplicateNumber
			}
		}
		newID(&invoice.ID)
		stamp(&invoice.CreatedAt, &invoice.UpdatedAt)
		for i := range invoice.Items {
			newID(&invoice.Items[i].ID)
			invoice.Items[i].InvoiceID = invoice.ID
		}
		stored := *invoice
		stored.Items = append([]entity.InvoiceItem(nil), invoice.Items...)
		stored.Payments = nil
		d.invoices[invoice.ID] = stored
		return nil
	})
}

func (r *invoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	var out *entity.Invoice
	err := r.s.view(func(d *data) error {
		if inv, ok := d.invoices[id]; ok {
			out = d.loadInvoice(inv)
		}
		return nil
	})
	return out, err
}

func (r *invoiceRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	return r.GetByID(ctx, id)
}

func (r *invoiceRepository) GetByNumber(ctx context.Context, number string) (*entity.Invoice, error) {
	var out *entity.Invoice
	err := r.s.view(func(d *data) error {
		for _, inv := range d.invoices {
			if inv.InvoiceNumber == number {
				out = d.loadInvoice(inv)
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *invoiceRepository) LastNumber(ctx context.Context, partition string) (string, error) {
	last := ""
	err := r.s.view(func(d *data) error {
		for _, inv := range d.invoices {
			if strings.HasPrefix(inv.InvoiceNumber, partition) && (last == "" || numbering.Less(last, inv.InvoiceNumber)) {
				last = inv.InvoiceNumber
			}
		}
		return nil
	})
	return last, err
}

func (r *invoiceRepository) UpdatePaymentTotals(ctx context.Context, id uuid.UUID, paid, balance decimal.Decimal, status enum.PaymentStatus) error {
	return r.s.view(func(d *data) error {
		inv, ok := d.invoices[id]
		if !ok {
			return repository.ErrNotFound
		}
		inv.AmountPaid = paid
		inv.BalanceDue = balance
		inv.PaymentStatus = status
		stamp(nil, &inv.UpdatedAt)
		d.invoices[id] = inv
		return nil
	})
}

func (r *invoiceRepository) MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.s.view(func(d *data) error {
		inv, ok := d.invoices[id]
		if !ok {
			return repository.ErrNotFound
		}
		inv.IsCancelled = true
		inv.CancelledAt = &at
		stamp(nil, &inv.UpdatedAt)
		d.invoices[id] = inv
		return nil
	})
}

func (r *invoiceRepository) List(ctx context.Context, params *repository.InvoiceFilterParams) ([]entity.Invoice, int64, error) {
	var invoices []entity.Invoice
	err := r.s.view(func(d *data) error {
		for _, inv := range d.invoices {
			if params.CustomerID != nil && (inv.CustomerID == nil || *inv.CustomerID != *params.CustomerID) {
				continue
			}
			if params.PaymentStatus != nil && inv.PaymentStatus != *params.PaymentStatus {
				continue
			}
			if params.Cancelled != nil && inv.IsCancelled != *params.Cancelled {
				continue
			}
			if !params.Dates.Contains(inv.InvoiceDate) {
				continue
			}
			if params.Search != "" && !containsFold(inv.InvoiceNumber, params.Search) && !containsFold(inv.CustomerName, params.Search) {
				continue
			}
			invoices = append(invoices, *d.loadInvoice(inv))
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	ascending := strings.EqualFold(params.SortOrder, "asc")
	sort.Slice(invoices, func(i, j int) bool {
		less := invoiceBefore(invoices[i], invoices[j])
		if ascending {
			return less
		}
		return invoiceBefore(invoices[j], invoices[i])
	})
	return page(invoices, params.Pagination)
}

func (r *invoiceRepository) ListByDateRange(ctx context.Context, dates repository.DateRange) ([]entity.Invoice, error) {
	invoices, _, err := r.List(ctx, &repository.InvoiceFilterParams{Dates: dates, SortOrder: "asc"})
	return invoices, err
}

func (r *invoiceRepository) ListOutstanding(ctx context.Context, customerID *uuid.UUID) ([]entity.Invoice, error) {
	notCancelled := false
	invoices, _, err := r.List(ctx, &repository.InvoiceFilterParams{CustomerID: customerID, Cancelled: &notCancelled})
	if err != nil {
		return nil, err
	}
	outstanding := []entity.Invoice{}
	for _, inv := range invoices {
		if inv.BalanceDue.IsPositive() {
			outstanding = append(outstanding, inv)
		}
	}
	return outstanding, nil
}

// loadInvoice returns a detached copy of inv with its payments attached
func (d *data) loadInvoice(inv entity.Invoice) *entity.Invoice {
	inv.Items = append([]entity.InvoiceItem(nil), inv.Items...)
	inv.Payments = d.paymentsFor(inv.ID)
	return &inv
}

func invoiceBefore(a, b entity.Invoice) bool {
	if !a.InvoiceDate.Equal(b.InvoiceDate) {
		return a.InvoiceDate.Before(b.InvoiceDate)
	}
	return numbering.Less(a.InvoiceNumber, b.InvoiceNumber)
}

type paymentRepository struct {
	s *Store
}

func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	return r.s.view(func(d *data) error {
		if _, ok := d.invoices[payment.InvoiceID]; !ok {
			return repository.ErrNotFound
		}
		newID(&payment.ID)
		stamp(&payment.CreatedAt, nil)
		d.payments = append(d.payments, *payment)
		return nil
	})
}

func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	var out *entity.Payment
	err := r.s.view(func(d *data) error {
		for _, p := range d.payments {
			if p.ID == id {
				out = &p
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *paymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.view(func(d *data) error {
		kept := make([]entity.Payment, 0, len(d.payments))
		for _, p := range d.payments {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		d.payments = kept
		return nil
	})
}

func (r *paymentRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]entity.Payment, error) {
	var payments []entity.Payment
	err := r.s.view(func(d *data) error {
		payments = d.paymentsFor(invoiceID)
		return nil
	})
	return payments, err
}

func (r *paymentRepository) ListByDateRange(ctx context.Context, dates repository.DateRange) ([]entity.Payment, error) {
	payments := []entity.Payment{}
	err := r.s.view(func(d *data) error {
		for _, p := range d.payments {
			if dates.Contains(p.PaymentDate) {
				payments = append(payments, p)
			}
		}
		return nil
	})
	return payments, err
}

func (d *data) paymentsFor(invoiceID uuid.UUID) []entity.Payment {
	payments := []entity.Payment{}
	for _, p := range d.payments {
		if p.InvoiceID == invoiceID {
			payments = append(payments, p)
		}
	}
	return payments
}

type stockMovementRepository struct {
	s *Store
}

func (r *stockMovementRepository) Create(ctx context.Context, movement *entity.StockMovement) error {
	return r.s.view(func(d *data) error {
		newID(&movement.ID)
		stamp(&movement.CreatedAt, nil)
		d.movements = append(d.movements, *movement)
		return nil
	})
}

func (r *stockMovementRepository) ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]entity.StockMovement, error) {
	movements := []entity.StockMovement{}
	err := r.s.view(func(d *data) error {
		for i := len(d.movements) - 1; i >= 0; i-- {
			if d.movements[i].ProductID != productID {
				continue
			}
			movements = append(movements, d.movements[i])
			if limit > 0 && len(movements) == limit {
				break
			}
		}
		return nil
	})
	return movements, err
}

func (r *stockMovementRepository) SumByProduct(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	err := r.s.view(func(d *data) error {
		for _, m := range d.movements {
			if m.ProductID == productID {
				sum = sum.Add(m.Delta)
			}
		}
		return nil
	})
	return sum, err
}
