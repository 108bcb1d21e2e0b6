package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/domain/entity"
	"github.com/sangkips/gst-billing/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ctx   context.Context
	now   time.Time
	store *memory.Store
	opts  Options

	numberer    *DocumentNumberer
	stock       *StockLedger
	payments    *PaymentLedger
	invoices    *InvoiceService
	creditNotes *CreditNoteService
	quotations  *QuotationService
	products    *ProductService
	customers   *CustomerService
	reports     *ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		ctx:   context.Background(),
		now:   time.Date(2025, time.June, 15, 10, 30, 0, 0, time.UTC),
		store: memory.NewStore(),
	}
	f.opts = DefaultOptions()
	f.opts.Clock = func() time.Time { return f.now }

	f.numberer = NewDocumentNumberer(f.store, f.opts, nil)
	f.stock = NewStockLedger(f.store, f.opts)
	f.payments = NewPaymentLedger(f.store, f.opts)
	f.invoices = NewInvoiceService(f.store, f.opts, f.numberer, f.stock, f.payments)
	f.creditNotes = NewCreditNoteService(f.store, f.opts, f.numberer, f.stock, f.payments)
	f.quotations = NewQuotationService(f.store, f.opts, f.numberer, f.invoices)
	f.products = NewProductService(f.store, f.stock)
	f.customers = NewCustomerService(f.store, f.opts)
	f.reports = NewReportService(f.store, f.opts)
	return f
}

// advance moves the pinned clock forward
func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) product(t *testing.T, name, price string, gst int64, opening string) *entity.Product {
	t.Helper()
	p, err := f.products.CreateProduct(f.ctx, &CreateProductInput{
		Name:          name,
		HSNCode:       "8471",
		Unit:          "nos",
		Price:         dec(price),
		GSTRate:       decimal.NewFromInt(gst),
		OpeningStock:  dec(opening),
		LowStockAlert: decimal.NewFromInt(2),
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) customer(t *testing.T, name, state string) *entity.Customer {
	t.Helper()
	c, err := f.customers.CreateCustomer(f.ctx, &CreateCustomerInput{Name: name, StateCode: state})
	require.NoError(t, err)
	return c
}

func (f *fixture) sell(t *testing.T, input *CreateInvoiceInput) *entity.Invoice {
	t.Helper()
	inv, err := f.invoices.CreateInvoice(f.ctx, input)
	require.NoError(t, err)
	return inv
}

func (f *fixture) stockOf(t *testing.T, productID uuid.UUID) decimal.Decimal {
	t.Helper()
	p, err := f.products.GetProduct(f.ctx, productID)
	require.NoError(t, err)

	// the materialized quantity always equals the sum of the movement log
	drift, err := f.stock.Verify(f.ctx, productID)
	require.NoError(t, err)
	assert.True(t, drift.InSync(), "stock %s drifts from ledger %s", drift.StockQty, drift.LedgerQty)
	return p.StockQty
}

func line(productID uuid.UUID, qty string) CartLineInput {
	return CartLineInput{ProductID: productID, Quantity: dec(qty)}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}
