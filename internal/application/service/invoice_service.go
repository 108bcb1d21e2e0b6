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
	"github.com/sangkips/gst-billing/internal/domain/tax"
	"github.com/sangkips/gst-billing/pkg/apperror"
	"github.com/sangkips/gst-billing/pkg/logger"
	"github.com/sangkips/gst-billing/pkg/pagination"
	"github.com/sangkips/gst-billing/pkg/validation"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// InvoiceService handles the invoice lifecycle: create and cancel
type InvoiceService struct {
	store    repository.Store
	opts     Options
	numberer *DocumentNumberer
	stock    *StockLedger
	payments *PaymentLedger
	log      zerolog.Logger
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	store repository.Store,
	opts Options,
	numberer *DocumentNumberer,
	stock *StockLedger,
	payments *PaymentLedger,
) *InvoiceService {
	return &InvoiceService{
		store:    store,
		opts:     opts,
		numberer: numberer,
		stock:    stock,
		payments: payments,
		log:      logger.WithComponent("invoice"),
	}
}

// CartLineInput is one product line of a sale
type CartLineInput struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity" validate:"gt=0,places=3"`
}

// CreateInvoiceInput represents the create invoice input
type CreateInvoiceInput struct {
	CustomerID  *uuid.UUID          `json:"customer_id"`
	Items       []CartLineInput     `json:"items" validate:"required,min=1,dive"`
	Discount    decimal.Decimal     `json:"discount" validate:"gte=0,places=2"`
	PaymentMode enum.PaymentMode    `json:"payment_mode"`
	Payments    []SplitPaymentInput `json:"payments" validate:"dive"`
	PayLater    bool                `json:"pay_later"`
	Date        *time.Time          `json:"date"`
	Notes       string              `json:"notes"`
}

// invoiceDraft is a fully resolved sale ready to be numbered and committed
type invoiceDraft struct {
	date     time.Time
	customer *entity.Customer
	lines    []entity.DocumentLine
	discount decimal.Decimal
	mode     enum.PaymentMode
	splits   []SplitPaymentInput
	payLater bool
	notes    string
}

// CreateInvoice prices the cart, numbers the invoice, deducts stock and
// records payment in one transaction.
func (s *InvoiceService) CreateInvoice(ctx context.Context, input *CreateInvoiceInput) (*entity.Invoice, error) {
	ctx, span := tracer.Start(ctx, "InvoiceService.CreateInvoice")
	var err error
	defer func() { finish(span, err) }()

	if err = validation.Struct(input); err != nil {
		return nil, err
	}
	if err = validatePayment(input.PaymentMode, input.Payments, input.PayLater, input.CustomerID != nil); err != nil {
		return nil, err
	}

	var invoice *entity.Invoice
	err = s.numberer.Issue(ctx, enum.DocumentTypeInvoice, func(ctx context.Context, tx repository.Store, number string) error {
		customer, err := loadCustomer(ctx, tx, input.CustomerID)
		if err != nil {
			return err
		}
		lines, err := s.resolveCart(ctx, tx, input.Items)
		if err != nil {
			return err
		}
		invoice, err = s.commit(ctx, tx, number, &invoiceDraft{
			date:     s.opts.dateOrToday(input.Date),
			customer: customer,
			lines:    lines,
			discount: input.Discount,
			mode:     input.PaymentMode,
			splits:   input.Payments,
			payLater: input.PayLater,
			notes:    input.Notes,
		})
		return err
	})
	if err != nil {
		err = translate(err)
		return nil, err
	}

	span.SetAttributes(attribute.String("invoice.number", invoice.InvoiceNumber))
	s.log.Info().
		Str("invoice", invoice.InvoiceNumber).
		Str("id", invoice.ID.String()).
		Str("grand_total", invoice.GrandTotal.String()).
		Str("payment_status", invoice.PaymentStatus.String()).
		Msg("invoice created")
	return invoice, nil
}

// resolveCart looks up each product and snapshots its name, price and GST rate
func (s *InvoiceService) resolveCart(ctx context.Context, tx repository.Store, items []CartLineInput) ([]entity.DocumentLine, error) {
	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	products, err := tx.Products().GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	productMap := make(map[uuid.UUID]*entity.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}

	lines := make([]entity.DocumentLine, 0, len(items))
	for _, item := range items {
		product, ok := productMap[item.ProductID]
		if !ok {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("Product %s", item.ProductID))
		}
		productID := product.ID
		lines = append(lines, entity.DocumentLine{
			ProductID:   &productID,
			ProductName: product.Name,
			HSNCode:     product.HSNCode,
			Unit:        product.Unit,
			Quantity:    item.Quantity,
			Rate:        product.Price,
			GSTRate:     product.GSTRate,
		})
	}
	return lines, nil
}

// commit persists a draft under number. It runs inside the numbering
// transaction and is shared with quotation conversion.
func (s *InvoiceService) commit(ctx context.Context, tx repository.Store, number string, d *invoiceDraft) (*entity.Invoice, error) {
	seller := s.opts.SellerState
	buyer := buyerState(seller, d.customer)
	b, lines := price(d.lines, seller, buyer, d.discount)

	invoice := &entity.Invoice{
		InvoiceNumber:  number,
		InvoiceDate:    d.date,
		BuyerState:     buyer,
		SellerState:    seller,
		Discount:       b.Discount,
		PaymentMode:    primaryMode(d.mode, d.splits),
		AmountPaid:     decimal.Zero,
		BalanceDue:     b.GrandTotal,
		PaymentStatus:  enum.PaymentStatusUnpaid,
		Notes:          d.notes,
		DocumentTotals: totals(b),
	}
	if d.customer != nil {
		invoice.CustomerID = &d.customer.ID
		invoice.CustomerName = d.customer.Name
		invoice.CustomerGSTIN = d.customer.GSTIN
	}
	for i, line := range lines {
		invoice.Items = append(invoice.Items, entity.InvoiceItem{Position: i + 1, DocumentLine: line})
	}

	if err := tx.Invoices().Create(ctx, invoice); err != nil {
		return nil, err
	}

	for _, line := range lines {
		if line.ProductID == nil {
			continue
		}
		if _, err := s.stock.Apply(ctx, tx, Movement{
			ProductID:   *line.ProductID,
			Delta:       line.Quantity.Neg(),
			Reason:      enum.StockReasonSale,
			ReferenceID: &invoice.ID,
			Note:        number,
		}); err != nil {
			return nil, err
		}
	}

	if !d.payLater {
		tenders := d.splits
		if len(tenders) == 0 && b.GrandTotal.IsPositive() {
			tenders = []SplitPaymentInput{{Mode: invoice.PaymentMode, Amount: b.GrandTotal}}
		}
		for _, t := range tenders {
			if t.Amount.IsZero() {
				continue
			}
			if err := s.payments.append(ctx, tx, invoice, &entity.Payment{
				Mode:            t.Mode,
				Amount:          t.Amount,
				PaymentDate:     d.date,
				ReferenceNumber: t.Reference,
				Notes:           t.Notes,
			}); err != nil {
				return nil, err
			}
		}
	}
	if err := s.payments.recompute(ctx, tx, invoice); err != nil {
		return nil, err
	}

	return tx.Invoices().GetByID(ctx, invoice.ID)
}

// CancelInvoice cancels an active invoice and returns its goods to stock. It
// returns false when the invoice does not exist or is already cancelled.
func (s *InvoiceService) CancelInvoice(ctx context.Context, id uuid.UUID) (bool, error) {
	ctx, span := tracer.Start(ctx, "InvoiceService.CancelInvoice")
	var err error
	defer func() { finish(span, err) }()

	cancelled := false
	var number string
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		invoice, err := tx.Invoices().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if invoice == nil || invoice.IsCancelled {
			return nil
		}

		if err := tx.Invoices().MarkCancelled(ctx, id, s.opts.now()); err != nil {
			return err
		}
		for _, item := range invoice.Items {
			if item.ProductID == nil {
				continue
			}
			if _, err := s.stock.Apply(ctx, tx, Movement{
				ProductID:   *item.ProductID,
				Delta:       item.Quantity,
				Reason:      enum.StockReasonCancelled,
				ReferenceID: &invoice.ID,
				Note:        invoice.InvoiceNumber,
			}); err != nil {
				return err
			}
		}
		cancelled = true
		number = invoice.InvoiceNumber
		return nil
	})
	if err != nil {
		err = translate(err)
		return false, err
	}

	if cancelled {
		s.log.Info().Str("invoice", number).Str("id", id.String()).Msg("invoice cancelled")
	}
	return cancelled, nil
}

// GetInvoice gets an invoice with its lines and payments
func (s *InvoiceService) GetInvoice(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	invoice, err := s.store.Invoices().GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	return invoice, nil
}

// GetInvoiceByNumber looks an invoice up by its document number
func (s *InvoiceService) GetInvoiceByNumber(ctx context.Context, number string) (*entity.Invoice, error) {
	invoice, err := s.store.Invoices().GetByNumber(ctx, number)
	if err != nil {
		return nil, translate(err)
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	return invoice, nil
}

// ListInvoices lists invoices with filtering
func (s *InvoiceService) ListInvoices(ctx context.Context, params *repository.InvoiceFilterParams) (*pagination.PaginatedResult[entity.Invoice], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()

	invoices, total, err := s.store.Invoices().List(ctx, params)
	if err != nil {
		return nil, translate(err)
	}

	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(invoices, pag), nil
}

// TaxSummary groups an invoice's tax by GST rate
func (s *InvoiceService) TaxSummary(ctx context.Context, id uuid.UUID) ([]tax.RateSummary, error) {
	invoice, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	lines := make([]entity.DocumentLine, len(invoice.Items))
	for i, item := range invoice.Items {
		lines[i] = item.DocumentLine
	}
	return tax.SummarizeByRate(lineTaxes(lines)), nil
}

// NextInvoiceNumber previews the number the next invoice would receive
func (s *InvoiceService) NextInvoiceNumber(ctx context.Context) (string, error) {
	return s.numberer.Peek(ctx, enum.DocumentTypeInvoice)
}

func loadCustomer(ctx context.Context, tx repository.Store, id *uuid.UUID) (*entity.Customer, error) {
	if id == nil {
		return nil, nil
	}
	customer, err := tx.Customers().GetByID(ctx, *id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}
	return customer, nil
}

// primaryMode is the first paid split's mode, or the declared mode
func primaryMode(mode enum.PaymentMode, splits []SplitPaymentInput) enum.PaymentMode {
	for _, split := range splits {
		if split.Amount.IsPositive() {
			return split.Mode
		}
	}
	if mode == "" {
		return enum.PaymentModeCash
	}
	return mode
}

func validatePayment(mode enum.PaymentMode, splits []SplitPaymentInput, payLater, hasCustomer bool) error {
	if mode != "" && !mode.IsValid() {
		return apperror.NewFieldValidationError("payment_mode", "unknown payment mode "+mode.String())
	}
	if payLater {
		return nil
	}
	if err := validateSplits(splits); err != nil {
		return err
	}
	if hasCustomer {
		return nil
	}
	if primaryMode(mode, splits) == enum.PaymentModeCredit {
		return apperror.NewFieldValidationError("payment_mode", "credit sales require a customer")
	}
	for _, split := range splits {
		if split.Mode == enum.PaymentModeCredit && split.Amount.IsPositive() {
			return apperror.NewFieldValidationError("payments", "credit sales require a customer")
		}
	}
	return nil
}
