package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sangkips/gst-billing/internal/domain/entity"
	"github.com/sangkips/gst-billing/internal/domain/enum"
	"github.com/sangkips/gst-billing/internal/domain/repository"
	"github.com/sangkips/gst-billing/pkg/apperror"
	"github.com/sangkips/gst-billing/pkg/logger"
	"github.com/sangkips/gst-billing/pkg/pagination"
	"github.com/sangkips/gst-billing/pkg/validation"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// CreditNoteService handles returns against invoices
type CreditNoteService struct {
	store    repository.Store
	opts     Options
	numberer *DocumentNumberer
	stock    *StockLedger
	payments *PaymentLedger
	log      zerolog.Logger
}

// NewCreditNoteService creates a new credit note service
func NewCreditNoteService(
	store repository.Store,
	opts Options,
	numberer *DocumentNumberer,
	stock *StockLedger,
	payments *PaymentLedger,
) *CreditNoteService {
	return &CreditNoteService{
		store:    store,
		opts:     opts,
		numberer: numberer,
		stock:    stock,
		payments: payments,
		log:      logger.WithComponent("credit_note"),
	}
}

// ReturnableLine is how much of one product on an invoice can still be returned
type ReturnableLine struct {
	ProductID     uuid.UUID       `json:"product_id"`
	InvoiceItemID uuid.UUID       `json:"invoice_item_id"`
	ProductName   string          `json:"product_name"`
	HSNCode       string          `json:"hsn_code,omitempty"`
	Unit          string          `json:"unit"`
	OriginalQty   decimal.Decimal `json:"original_qty"`
	ReturnedQty   decimal.Decimal `json:"returned_qty"`
	ReturnableQty decimal.Decimal `json:"returnable_qty"`
	Rate          decimal.Decimal `json:"rate"`
	GSTRate       decimal.Decimal `json:"gst_rate"`
}

// ReturnItemInput is one product being returned
type ReturnItemInput struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity" validate:"gt=0,places=3"`
}

// CreateCreditNoteInput represents the create credit note input
type CreateCreditNoteInput struct {
	InvoiceID     uuid.UUID         `json:"invoice_id" validate:"required"`
	Items         []ReturnItemInput `json:"items" validate:"required,min=1,dive"`
	Reason        string            `json:"reason" validate:"required"`
	ReasonDetails string            `json:"reason_details"`
	// RestoreStock defaults to true when nil
	RestoreStock *bool      `json:"restore_stock"`
	Date         *time.Time `json:"date"`
}

// ReturnableLines lists what can still be returned on an invoice
func (s *CreditNoteService) ReturnableLines(ctx context.Context, invoiceID uuid.UUID) ([]ReturnableLine, error) {
	invoice, err := s.store.Invoices().GetByID(ctx, invoiceID)
	if err != nil {
		return nil, translate(err)
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}

	lines, err := s.returnable(ctx, s.store, invoice)
	if err != nil {
		return nil, translate(err)
	}
	open := make([]ReturnableLine, 0, len(lines))
	for _, l := range lines {
		if l.ReturnableQty.IsPositive() {
			open = append(open, l)
		}
	}
	return open, nil
}

// returnable groups the invoice's product lines and subtracts the quantities
// already returned on non-cancelled credit notes.
func (s *CreditNoteService) returnable(ctx context.Context, tx repository.Store, invoice *entity.Invoice) ([]ReturnableLine, error) {
	notes, err := tx.CreditNotes().ListByInvoice(ctx, invoice.ID)
	if err != nil {
		return nil, err
	}
	returned := map[uuid.UUID]decimal.Decimal{}
	for _, cn := range notes {
		if cn.Status == enum.CreditNoteStatusCancelled {
			continue
		}
		for _, item := range cn.Items {
			if item.ProductID == nil {
				continue
			}
			returned[*item.ProductID] = returned[*item.ProductID].Add(item.Quantity)
		}
	}

	byProduct := map[uuid.UUID]*ReturnableLine{}
	var order []uuid.UUID
	for _, item := range invoice.Items {
		if item.ProductID == nil {
			continue
		}
		pid := *item.ProductID
		line, ok := byProduct[pid]
		if !ok {
			line = &ReturnableLine{
				ProductID:     pid,
				InvoiceItemID: item.ID,
				ProductName:   item.ProductName,
				HSNCode:       item.HSNCode,
				Unit:          item.Unit,
				OriginalQty:   decimal.Zero,
				Rate:          item.Rate,
				GSTRate:       item.GSTRate,
			}
			byProduct[pid] = line
			order = append(order, pid)
		}
		line.OriginalQty = line.OriginalQty.Add(item.Quantity)
	}

	lines := make([]ReturnableLine, 0, len(order))
	for _, pid := range order {
		line := byProduct[pid]
		line.ReturnedQty = returned[pid]
		line.ReturnableQty = decimal.Max(line.OriginalQty.Sub(line.ReturnedQty), decimal.Zero)
		lines = append(lines, *line)
	}
	return lines, nil
}

// CreateCreditNote returns goods against an invoice at the invoice's rates.
// Requested quantities are clamped to what is still returnable and lines
// with nothing left to return are dropped.
func (s *CreditNoteService) CreateCreditNote(ctx context.Context, input *CreateCreditNoteInput) (*entity.CreditNote, error) {
	ctx, span := tracer.Start(ctx, "CreditNoteService.CreateCreditNote")
	var err error
	defer func() { finish(span, err) }()

	if err = validation.Struct(input); err != nil {
		return nil, err
	}
	reason, perr := enum.ParseCreditNoteReason(input.Reason)
	if perr != nil {
		err = apperror.NewFieldValidationError("reason", "reason must be one of "+strings.Join(reasonNames(), ", "))
		return nil, err
	}
	restore := input.RestoreStock == nil || *input.RestoreStock
	day := s.opts.dateOrToday(input.Date)

	var note *entity.CreditNote
	err = s.numberer.Issue(ctx, enum.DocumentTypeCreditNote, func(ctx context.Context, tx repository.Store, number string) error {
		invoice, err := tx.Invoices().GetForUpdate(ctx, input.InvoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return apperror.NewNotFoundError("Invoice")
		}
		if invoice.IsCancelled {
			return apperror.NewStateConflictError("Cannot return goods against a cancelled invoice")
		}

		returnable, err := s.returnable(ctx, tx, invoice)
		if err != nil {
			return err
		}
		remaining := make(map[uuid.UUID]*ReturnableLine, len(returnable))
		for i := range returnable {
			remaining[returnable[i].ProductID] = &returnable[i]
		}

		var lines []entity.DocumentLine
		var itemRefs []uuid.UUID
		for _, req := range input.Items {
			avail, ok := remaining[req.ProductID]
			if !ok {
				continue
			}
			qty := decimal.Min(req.Quantity, avail.ReturnableQty)
			if !qty.IsPositive() {
				continue
			}
			avail.ReturnableQty = avail.ReturnableQty.Sub(qty)

			pid := avail.ProductID
			lines = append(lines, entity.DocumentLine{
				ProductID:   &pid,
				ProductName: avail.ProductName,
				HSNCode:     avail.HSNCode,
				Unit:        avail.Unit,
				Quantity:    qty,
				Rate:        avail.Rate,
				GSTRate:     avail.GSTRate,
			})
			itemRefs = append(itemRefs, avail.InvoiceItemID)
		}
		if len(lines) == 0 {
			return apperror.NewFieldValidationError("items", "nothing left to return on invoice "+invoice.InvoiceNumber)
		}

		b, priced := price(lines, invoice.SellerState, invoice.BuyerState, decimal.Zero)
		note = &entity.CreditNote{
			CreditNoteNumber: number,
			CreditNoteDate:   day,
			InvoiceID:        invoice.ID,
			InvoiceNumber:    invoice.InvoiceNumber,
			CustomerID:       invoice.CustomerID,
			CustomerName:     invoice.CustomerName,
			BuyerState:       invoice.BuyerState,
			SellerState:      invoice.SellerState,
			Reason:           reason,
			ReasonDetails:    input.ReasonDetails,
			StockRestored:    restore,
			Status:           enum.CreditNoteStatusActive,
			DocumentTotals:   totals(b),
		}
		for i, line := range priced {
			ref := itemRefs[i]
			note.Items = append(note.Items, entity.CreditNoteItem{
				InvoiceItemID: &ref,
				Position:      i + 1,
				DocumentLine:  line,
			})
		}
		if err := tx.CreditNotes().Create(ctx, note); err != nil {
			return err
		}

		if restore {
			for _, line := range priced {
				if _, err := s.stock.Apply(ctx, tx, Movement{
					ProductID:   *line.ProductID,
					Delta:       line.Quantity,
					Reason:      enum.StockReasonReturn,
					ReferenceID: &note.ID,
					Note:        number,
				}); err != nil {
					return err
				}
			}
		}

		note, err = tx.CreditNotes().GetByID(ctx, note.ID)
		return err
	})
	if err != nil {
		err = translate(err)
		return nil, err
	}

	span.SetAttributes(attribute.String("credit_note.number", note.CreditNoteNumber))
	s.log.Info().
		Str("credit_note", note.CreditNoteNumber).
		Str("invoice", note.InvoiceNumber).
		Str("grand_total", note.GrandTotal.String()).
		Bool("stock_restored", note.StockRestored).
		Msg("credit note created")
	return note, nil
}

// CancelCreditNote cancels a credit note, optionally taking restored goods
// back out of stock. It returns false when the note does not exist or is
// already cancelled.
func (s *CreditNoteService) CancelCreditNote(ctx context.Context, id uuid.UUID, reverseStock bool) (bool, error) {
	ctx, span := tracer.Start(ctx, "CreditNoteService.CancelCreditNote")
	var err error
	defer func() { finish(span, err) }()

	cancelled := false
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		note, err := tx.CreditNotes().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if note == nil || !note.Status.CanTransitionTo(enum.CreditNoteStatusCancelled) {
			return nil
		}

		if reverseStock && note.StockRestored {
			for _, item := range note.Items {
				if item.ProductID == nil {
					continue
				}
				if _, err := s.stock.Apply(ctx, tx, Movement{
					ProductID:   *item.ProductID,
					Delta:       item.Quantity.Neg(),
					Reason:      enum.StockReasonCNCancelled,
					ReferenceID: &note.ID,
					Note:        note.CreditNoteNumber,
				}); err != nil {
					return err
				}
			}
		}
		if err := tx.CreditNotes().UpdateStatus(ctx, id, enum.CreditNoteStatusCancelled, nil); err != nil {
			return err
		}
		cancelled = true
		return nil
	})
	if err != nil {
		err = translate(err)
		return false, err
	}

	if cancelled {
		s.log.Info().Str("id", id.String()).Bool("reverse_stock", reverseStock).Msg("credit note cancelled")
	}
	return cancelled, nil
}

// ApplyToInvoice spends an active credit note as a CREDIT_NOTE payment on
// another invoice, for at most that invoice's balance.
func (s *CreditNoteService) ApplyToInvoice(ctx context.Context, creditNoteID, invoiceID uuid.UUID) (*entity.Invoice, error) {
	ctx, span := tracer.Start(ctx, "CreditNoteService.ApplyToInvoice")
	var err error
	defer func() { finish(span, err) }()

	var invoice *entity.Invoice
	var applied decimal.Decimal
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		note, err := tx.CreditNotes().GetForUpdate(ctx, creditNoteID)
		if err != nil {
			return err
		}
		if note == nil {
			return apperror.NewNotFoundError("Credit note")
		}
		if note.Status != enum.CreditNoteStatusActive {
			return apperror.NewStateConflictError(fmt.Sprintf("Credit note %s is %s", note.CreditNoteNumber, note.Status))
		}

		target, err := tx.Invoices().GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if target == nil {
			return apperror.NewNotFoundError("Invoice")
		}
		if target.IsCancelled {
			return apperror.NewStateConflictError("Cannot apply a credit note to a cancelled invoice")
		}
		if !target.BalanceDue.IsPositive() {
			return apperror.NewStateConflictError(fmt.Sprintf("Invoice %s has no balance due", target.InvoiceNumber))
		}

		applied = decimal.Min(note.GrandTotal, target.BalanceDue)
		if err := s.payments.append(ctx, tx, target, &entity.Payment{
			Mode:            enum.PaymentModeCreditNote,
			Amount:          applied,
			PaymentDate:     s.opts.Today(),
			ReferenceNumber: note.CreditNoteNumber,
			Notes:           "Applied from Credit Note " + note.CreditNoteNumber,
		}); err != nil {
			return err
		}
		if err := s.payments.recompute(ctx, tx, target); err != nil {
			return err
		}
		if err := tx.CreditNotes().UpdateStatus(ctx, creditNoteID, enum.CreditNoteStatusApplied, &target.ID); err != nil {
			return err
		}

		invoice, err = tx.Invoices().GetByID(ctx, target.ID)
		return err
	})
	if err != nil {
		err = translate(err)
		return nil, err
	}

	s.log.Info().
		Str("credit_note_id", creditNoteID.String()).
		Str("invoice", invoice.InvoiceNumber).
		Str("amount", applied.String()).
		Msg("credit note applied")
	return invoice, nil
}

// GetCreditNote gets a credit note with its lines
func (s *CreditNoteService) GetCreditNote(ctx context.Context, id uuid.UUID) (*entity.CreditNote, error) {
	note, err := s.store.CreditNotes().GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if note == nil {
		return nil, apperror.NewNotFoundError("Credit note")
	}
	return note, nil
}

// ListCreditNotes lists credit notes with filtering
func (s *CreditNoteService) ListCreditNotes(ctx context.Context, params *repository.CreditNoteFilterParams) (*pagination.PaginatedResult[entity.CreditNote], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()

	notes, total, err := s.store.CreditNotes().List(ctx, params)
	if err != nil {
		return nil, translate(err)
	}
	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(notes, pag), nil
}

// ListByInvoice lists the credit notes raised against an invoice
func (s *CreditNoteService) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]entity.CreditNote, error) {
	notes, err := s.store.CreditNotes().ListByInvoice(ctx, invoiceID)
	return notes, translate(err)
}

// ListByCustomer lists a customer's credit notes
func (s *CreditNoteService) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]entity.CreditNote, error) {
	notes, err := s.store.CreditNotes().ListByCustomer(ctx, customerID)
	return notes, translate(err)
}

// Bucket is a count and value pair used by the summaries
type Bucket struct {
	Count int             `json:"count"`
	Value decimal.Decimal `json:"value"`
}

// CreditNoteSummary aggregates credit notes over a date range
type CreditNoteSummary struct {
	TotalCount int               `json:"total_count"`
	TotalValue decimal.Decimal   `json:"total_value"`
	Subtotal   decimal.Decimal   `json:"subtotal"`
	CGSTTotal  decimal.Decimal   `json:"cgst_total"`
	SGSTTotal  decimal.Decimal   `json:"sgst_total"`
	IGSTTotal  decimal.Decimal   `json:"igst_total"`
	ByReason   map[string]Bucket `json:"by_reason"`
	ByStatus   map[string]Bucket `json:"by_status"`
}

// Summary totals credit notes in the range. Cancelled notes are counted by
// status but excluded from the value totals.
func (s *CreditNoteService) Summary(ctx context.Context, dates repository.DateRange) (*CreditNoteSummary, error) {
	notes, err := s.store.CreditNotes().ListByDateRange(ctx, dates)
	if err != nil {
		return nil, translate(err)
	}
	return summarizeCreditNotes(notes), nil
}

func summarizeCreditNotes(notes []entity.CreditNote) *CreditNoteSummary {
	summary := &CreditNoteSummary{
		TotalValue: decimal.Zero,
		Subtotal:   decimal.Zero,
		CGSTTotal:  decimal.Zero,
		SGSTTotal:  decimal.Zero,
		IGSTTotal:  decimal.Zero,
		ByReason:   map[string]Bucket{},
		ByStatus:   map[string]Bucket{},
	}
	for _, cn := range notes {
		summary.TotalCount++
		status := summary.ByStatus[cn.Status.String()]
		status.Count++
		status.Value = status.Value.Add(cn.GrandTotal)
		summary.ByStatus[cn.Status.String()] = status

		if cn.Status == enum.CreditNoteStatusCancelled {
			continue
		}
		summary.TotalValue = summary.TotalValue.Add(cn.GrandTotal)
		summary.Subtotal = summary.Subtotal.Add(cn.Subtotal)
		summary.CGSTTotal = summary.CGSTTotal.Add(cn.CGSTTotal)
		summary.SGSTTotal = summary.SGSTTotal.Add(cn.SGSTTotal)
		summary.IGSTTotal = summary.IGSTTotal.Add(cn.IGSTTotal)

		reason := summary.ByReason[cn.Reason.String()]
		reason.Count++
		reason.Value = reason.Value.Add(cn.GrandTotal)
		summary.ByReason[cn.Reason.String()] = reason
	}
	return summary
}

// reasonNames lists the accepted reason codes, sorted
func reasonNames() []string {
	names := make([]string, len(enum.CreditNoteReasons))
	for i, r := range enum.CreditNoteReasons {
		names[i] = r.String()
	}
	sort.Strings(names)
	return names
}
