package service

import (
	"context"
	"fmt"
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

// QuotationService handles quotation-related operations
type QuotationService struct {
	store    repository.Store
	opts     Options
	numberer *DocumentNumberer
	invoices *InvoiceService
	log      zerolog.Logger
}

// NewQuotationService creates a new quotation service
func NewQuotationService(
	store repository.Store,
	opts Options,
	numberer *DocumentNumberer,
	invoices *InvoiceService,
) *QuotationService {
	return &QuotationService{
		store:    store,
		opts:     opts,
		numberer: numberer,
		invoices: invoices,
		log:      logger.WithComponent("quotation"),
	}
}

// QuotationItemInput represents a line item input. Rate and GSTRate override
// the catalog values; lines without a product need both.
type QuotationItemInput struct {
	ProductID   *uuid.UUID       `json:"product_id"`
	ProductName string           `json:"product_name" validate:"max=255"`
	HSNCode     string           `json:"hsn_code" validate:"omitempty,hsn"`
	Unit        string           `json:"unit" validate:"max=20"`
	Quantity    decimal.Decimal  `json:"quantity" validate:"gt=0,places=3"`
	Rate        *decimal.Decimal `json:"rate" validate:"omitempty,gte=0,places=2"`
	GSTRate     *decimal.Decimal `json:"gst_rate" validate:"omitempty,gstrate"`
}

// CreateQuotationInput represents the input for creating a quotation
type CreateQuotationInput struct {
	CustomerID         *uuid.UUID           `json:"customer_id"`
	Date               *time.Time           `json:"date"`
	ValidityDays       *int                 `json:"validity_days" validate:"omitempty,gte=1,lte=365"`
	Discount           decimal.Decimal      `json:"discount" validate:"gte=0,places=2"`
	Notes              string               `json:"notes"`
	TermsAndConditions string               `json:"terms_and_conditions"`
	Items              []QuotationItemInput `json:"items" validate:"required,min=1,dive"`
}

// UpdateQuotationInput replaces the header and line set of an open quotation
type UpdateQuotationInput struct {
	ID uuid.UUID `json:"-"`
	CreateQuotationInput
}

// ConvertQuotationInput carries the payment taken when a quotation becomes an invoice
type ConvertQuotationInput struct {
	PaymentMode enum.PaymentMode    `json:"payment_mode"`
	Payments    []SplitPaymentInput `json:"payments" validate:"dive"`
	PayLater    bool                `json:"pay_later"`
	Date        *time.Time          `json:"date"`
	Notes       string              `json:"notes"`
}

// CreateQuotation creates a new DRAFT quotation
func (s *QuotationService) CreateQuotation(ctx context.Context, input *CreateQuotationInput) (*entity.Quotation, error) {
	ctx, span := tracer.Start(ctx, "QuotationService.CreateQuotation")
	var err error
	defer func() { finish(span, err) }()

	if err = validation.Struct(input); err != nil {
		return nil, err
	}

	day := s.opts.dateOrToday(input.Date)
	var quotation *entity.Quotation
	err = s.numberer.Issue(ctx, enum.DocumentTypeQuotation, func(ctx context.Context, tx repository.Store, number string) error {
		customer, err := loadCustomer(ctx, tx, input.CustomerID)
		if err != nil {
			return err
		}
		lines, err := resolveQuotationLines(ctx, tx, input.Items)
		if err != nil {
			return err
		}

		quotation = &entity.Quotation{
			QuotationNumber:    number,
			QuotationDate:      day,
			ValidityDate:       day.AddDate(0, 0, s.validityDays(input.ValidityDays)),
			Status:             enum.QuotationStatusDraft,
			Notes:              input.Notes,
			TermsAndConditions: input.TermsAndConditions,
		}
		s.applyLines(quotation, customer, lines, input.Discount)

		if err := tx.Quotations().Create(ctx, quotation); err != nil {
			return err
		}
		quotation, err = tx.Quotations().GetByID(ctx, quotation.ID)
		return err
	})
	if err != nil {
		err = translate(err)
		return nil, err
	}

	span.SetAttributes(attribute.String("quotation.number", quotation.QuotationNumber))
	s.log.Info().
		Str("quotation", quotation.QuotationNumber).
		Str("grand_total", quotation.GrandTotal.String()).
		Msg("quotation created")
	return quotation, nil
}

// UpdateQuotation replaces the customer, discount and lines of a DRAFT or
// SENT quotation and recomputes its totals.
func (s *QuotationService) UpdateQuotation(ctx context.Context, input *UpdateQuotationInput) (*entity.Quotation, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	var quotation *entity.Quotation
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		current, err := tx.Quotations().GetForUpdate(ctx, input.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return apperror.NewNotFoundError("Quotation")
		}
		if !current.Status.IsEditable() {
			return apperror.NewStateConflictError(fmt.Sprintf("Quotation %s is %s and can no longer be edited", current.QuotationNumber, current.Status))
		}

		customer, err := loadCustomer(ctx, tx, input.CustomerID)
		if err != nil {
			return err
		}
		lines, err := resolveQuotationLines(ctx, tx, input.Items)
		if err != nil {
			return err
		}

		if input.Date != nil {
			current.QuotationDate = DateOnly(*input.Date)
		}
		if input.ValidityDays != nil {
			current.ValidityDate = current.QuotationDate.AddDate(0, 0, *input.ValidityDays)
		}
		current.Notes = input.Notes
		current.TermsAndConditions = input.TermsAndConditions
		s.applyLines(current, customer, lines, input.Discount)

		if err := tx.Quotations().Update(ctx, current); err != nil {
			return err
		}
		if err := tx.Quotations().ReplaceItems(ctx, current.ID, current.Items); err != nil {
			return err
		}
		quotation, err = tx.Quotations().GetByID(ctx, current.ID)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}

	s.log.Info().Str("quotation", quotation.QuotationNumber).Str("grand_total", quotation.GrandTotal.String()).Msg("quotation updated")
	return quotation, nil
}

// applyLines prices lines for the customer's state and replaces the quotation's line set
func (s *QuotationService) applyLines(q *entity.Quotation, customer *entity.Customer, lines []entity.DocumentLine, discount decimal.Decimal) {
	seller := s.opts.SellerState
	buyer := buyerState(seller, customer)
	b, priced := price(lines, seller, buyer, discount)

	q.SellerState = seller
	q.BuyerState = buyer
	q.Discount = b.Discount
	q.DocumentTotals = totals(b)
	q.CustomerID = nil
	q.CustomerName = ""
	if customer != nil {
		q.CustomerID = &customer.ID
		q.CustomerName = customer.Name
	}
	q.Items = make([]entity.QuotationItem, len(priced))
	for i, line := range priced {
		q.Items[i] = entity.QuotationItem{Position: i + 1, DocumentLine: line}
	}
}

func (s *QuotationService) validityDays(days *int) int {
	if days != nil && *days > 0 {
		return *days
	}
	return s.opts.QuotationValidityDays
}

func resolveQuotationLines(ctx context.Context, tx repository.Store, items []QuotationItemInput) ([]entity.DocumentLine, error) {
	lines := make([]entity.DocumentLine, 0, len(items))
	for i, item := range items {
		line := entity.DocumentLine{
			ProductName: item.ProductName,
			HSNCode:     item.HSNCode,
			Unit:        item.Unit,
			Quantity:    item.Quantity,
		}

		if item.ProductID != nil {
			product, err := tx.Products().GetByID(ctx, *item.ProductID)
			if err != nil {
				return nil, err
			}
			if product == nil {
				return nil, apperror.NewNotFoundError(fmt.Sprintf("Product %s", *item.ProductID))
			}
			pid := product.ID
			line.ProductID = &pid
			line.Rate = product.Price
			line.GSTRate = product.GSTRate
			if line.ProductName == "" {
				line.ProductName = product.Name
			}
			if line.HSNCode == "" {
				line.HSNCode = product.HSNCode
			}
			if line.Unit == "" {
				line.Unit = product.Unit
			}
		} else if item.ProductName == "" || item.Rate == nil || item.GSTRate == nil {
			return nil, apperror.NewFieldValidationError(fmt.Sprintf("items[%d]", i), "lines without a product need a name, rate and GST rate")
		}

		if item.Rate != nil {
			line.Rate = *item.Rate
		}
		if item.GSTRate != nil {
			line.GSTRate = *item.GSTRate
		}
		if line.Unit == "" {
			line.Unit = "NOS"
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// GetQuotation gets a quotation by ID
func (s *QuotationService) GetQuotation(ctx context.Context, id uuid.UUID) (*entity.Quotation, error) {
	quotation, err := s.store.Quotations().GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if quotation == nil {
		return nil, apperror.NewNotFoundError("Quotation")
	}
	return quotation, nil
}

// ListQuotations lists quotations with filtering
func (s *QuotationService) ListQuotations(ctx context.Context, params *repository.QuotationFilterParams) (*pagination.PaginatedResult[entity.Quotation], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()

	quotations, total, err := s.store.Quotations().List(ctx, params)
	if err != nil {
		return nil, translate(err)
	}
	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(quotations, pag), nil
}

// UpdateQuotationStatus moves a quotation along its transition table.
// CONVERTED is only reachable through ConvertToInvoice.
func (s *QuotationService) UpdateQuotationStatus(ctx context.Context, id uuid.UUID, status enum.QuotationStatus) (*entity.Quotation, error) {
	if status == enum.QuotationStatusConverted {
		return nil, apperror.NewStateConflictError("Use the convert operation to turn a quotation into an invoice")
	}

	var quotation *entity.Quotation
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		current, err := tx.Quotations().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return apperror.NewNotFoundError("Quotation")
		}
		if !current.Status.CanTransitionTo(status) {
			return apperror.NewStateConflictError(fmt.Sprintf("Cannot move quotation %s from %s to %s", current.QuotationNumber, current.Status, status))
		}
		if err := tx.Quotations().UpdateStatus(ctx, id, status); err != nil {
			return err
		}
		quotation, err = tx.Quotations().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}
	return quotation, nil
}

// CheckExpired moves every DRAFT or SENT quotation whose validity date has
// passed to EXPIRED and returns the quotations it changed.
func (s *QuotationService) CheckExpired(ctx context.Context) ([]entity.Quotation, error) {
	today := s.opts.Today()

	var expired []entity.Quotation
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		lapsed, err := tx.Quotations().ListLapsed(ctx, today)
		if err != nil {
			return err
		}
		expired = make([]entity.Quotation, 0, len(lapsed))
		for _, q := range lapsed {
			if !q.Status.CanTransitionTo(enum.QuotationStatusExpired) {
				continue
			}
			if err := tx.Quotations().UpdateStatus(ctx, q.ID, enum.QuotationStatusExpired); err != nil {
				return err
			}
			q.Status = enum.QuotationStatusExpired
			expired = append(expired, q)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	if len(expired) > 0 {
		s.log.Info().Int("count", len(expired)).Time("as_of", today).Msg("quotations expired")
	}
	return expired, nil
}

// ConvertToInvoice creates an invoice from the quotation's lines at the
// quotation's rates and marks the quotation CONVERTED, all in one
// transaction.
func (s *QuotationService) ConvertToInvoice(ctx context.Context, id uuid.UUID, input *ConvertQuotationInput) (*entity.Invoice, error) {
	ctx, span := tracer.Start(ctx, "QuotationService.ConvertToInvoice")
	var err error
	defer func() { finish(span, err) }()

	if err = validation.Struct(input); err != nil {
		return nil, err
	}
	source, err := s.GetQuotation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = validatePayment(input.PaymentMode, input.Payments, input.PayLater, source.CustomerID != nil); err != nil {
		return nil, err
	}

	var invoice *entity.Invoice
	err = s.numberer.Issue(ctx, enum.DocumentTypeInvoice, func(ctx context.Context, tx repository.Store, number string) error {
		q, err := tx.Quotations().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if q == nil {
			return apperror.NewNotFoundError("Quotation")
		}
		if !q.Status.IsConvertible() {
			return apperror.NewStateConflictError(fmt.Sprintf("Quotation %s is %s and cannot be converted", q.QuotationNumber, q.Status))
		}

		customer, err := loadCustomer(ctx, tx, q.CustomerID)
		if err != nil {
			return err
		}
		lines := make([]entity.DocumentLine, len(q.Items))
		for i, item := range q.Items {
			lines[i] = item.DocumentLine
		}
		notes := input.Notes
		if notes == "" {
			notes = "Converted from quotation " + q.QuotationNumber
		}

		invoice, err = s.invoices.commit(ctx, tx, number, &invoiceDraft{
			date:     s.opts.dateOrToday(input.Date),
			customer: customer,
			lines:    lines,
			discount: q.Discount,
			mode:     input.PaymentMode,
			splits:   input.Payments,
			payLater: input.PayLater,
			notes:    notes,
		})
		if err != nil {
			return err
		}
		return tx.Quotations().MarkConverted(ctx, q.ID, invoice.ID)
	})
	if err != nil {
		err = translate(err)
		return nil, err
	}

	s.log.Info().
		Str("quotation", source.QuotationNumber).
		Str("invoice", invoice.InvoiceNumber).
		Msg("quotation converted")
	return invoice, nil
}

// DuplicateQuotation copies a quotation into a new DRAFT dated today, with a
// fresh number and default validity.
func (s *QuotationService) DuplicateQuotation(ctx context.Context, id uuid.UUID) (*entity.Quotation, error) {
	source, err := s.GetQuotation(ctx, id)
	if err != nil {
		return nil, err
	}

	day := s.opts.Today()
	var quotation *entity.Quotation
	err = s.numberer.Issue(ctx, enum.DocumentTypeQuotation, func(ctx context.Context, tx repository.Store, number string) error {
		lines := make([]entity.DocumentLine, len(source.Items))
		for i, item := range source.Items {
			lines[i] = item.DocumentLine
		}
		b, priced := price(lines, s.opts.SellerState, source.BuyerState, source.Discount)

		quotation = &entity.Quotation{
			QuotationNumber:    number,
			QuotationDate:      day,
			ValidityDate:       day.AddDate(0, 0, s.opts.QuotationValidityDays),
			CustomerID:         source.CustomerID,
			CustomerName:       source.CustomerName,
			BuyerState:         source.BuyerState,
			SellerState:        s.opts.SellerState,
			Discount:           b.Discount,
			Status:             enum.QuotationStatusDraft,
			Notes:              source.Notes,
			TermsAndConditions: source.TermsAndConditions,
			DocumentTotals:     totals(b),
		}
		for i, line := range priced {
			quotation.Items = append(quotation.Items, entity.QuotationItem{Position: i + 1, DocumentLine: line})
		}
		if err := tx.Quotations().Create(ctx, quotation); err != nil {
			return err
		}
		created, err := tx.Quotations().GetByID(ctx, quotation.ID)
		quotation = created
		return err
	})
	if err != nil {
		return nil, translate(err)
	}

	s.log.Info().Str("source", source.QuotationNumber).Str("quotation", quotation.QuotationNumber).Msg("quotation duplicated")
	return quotation, nil
}

// Pending lists DRAFT and SENT quotations that are still valid
func (s *QuotationService) Pending(ctx context.Context) ([]entity.Quotation, error) {
	return s.openUntil(ctx, time.Time{})
}

// ExpiringSoon lists open quotations whose validity ends within days
func (s *QuotationService) ExpiringSoon(ctx context.Context, days int) ([]entity.Quotation, error) {
	if days < 0 {
		return nil, apperror.NewFieldValidationError("days", "days must not be negative")
	}
	return s.openUntil(ctx, s.opts.Today().AddDate(0, 0, days))
}

func (s *QuotationService) openUntil(ctx context.Context, until time.Time) ([]entity.Quotation, error) {
	open, err := s.store.Quotations().ListOpen(ctx)
	if err != nil {
		return nil, translate(err)
	}
	today := s.opts.Today()
	out := []entity.Quotation{}
	for _, q := range open {
		if q.IsExpiredOn(today) {
			continue
		}
		if !until.IsZero() && q.ValidityDate.After(until) {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

// QuotationSummary aggregates quotations over a date range
type QuotationSummary struct {
	TotalCount     int               `json:"total_count"`
	TotalValue     decimal.Decimal   `json:"total_value"`
	ByStatus       map[string]Bucket `json:"by_status"`
	ConvertedCount int               `json:"converted_count"`
	ConversionRate decimal.Decimal   `json:"conversion_rate"`
}

// Summary counts quotations by status and computes the conversion rate as a percentage
func (s *QuotationService) Summary(ctx context.Context, dates repository.DateRange) (*QuotationSummary, error) {
	quotations, err := s.store.Quotations().ListByDateRange(ctx, dates)
	if err != nil {
		return nil, translate(err)
	}

	summary := &QuotationSummary{
		TotalValue:     decimal.Zero,
		ByStatus:       map[string]Bucket{},
		ConversionRate: decimal.Zero,
	}
	for _, q := range quotations {
		summary.TotalCount++
		summary.TotalValue = summary.TotalValue.Add(q.GrandTotal)
		bucket := summary.ByStatus[q.Status.String()]
		bucket.Count++
		bucket.Value = bucket.Value.Add(q.GrandTotal)
		summary.ByStatus[q.Status.String()] = bucket
		if q.Status == enum.QuotationStatusConverted {
			summary.ConvertedCount++
		}
	}
	if summary.TotalCount > 0 {
		summary.ConversionRate = decimal.NewFromInt(int64(summary.ConvertedCount)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(summary.TotalCount))).
			Round(2)
	}
	return summary, nil
}

// NextQuotationNumber previews the number the next quotation would receive
func (s *QuotationService) NextQuotationNumber(ctx context.Context) (string, error) {
	return s.numberer.Peek(ctx, enum.DocumentTypeQuotation)
}
