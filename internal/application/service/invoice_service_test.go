package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/domain/enum"
	"github.com/sangkips/gst-billing/internal/domain/repository"
	"github.com/sangkips/gst-billing/pkg/apperror"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateInvoice_CashSaleIsPaidInFull(t *testing.T) {
	f := newFixture(t)
	laptop := f.product(t, "Laptop", "1000", 18, "10")

	inv := f.sell(t, &CreateInvoiceInput{Items: []CartLineInput{line(laptop.ID, "2")}})

	assert.Equal(t, "INV/2025-26/0001", inv.InvoiceNumber)
	assert.Equal(t, DateOnly(f.now), inv.InvoiceDate)
	assert.Equal(t, enum.PaymentModeCash, inv.PaymentMode)
	assert.Equal(t, enum.PaymentStatusPaid, inv.PaymentStatus)
	assertAmount(t, "2000", inv.Subtotal)
	assertAmount(t, "180", inv.CGSTTotal)
	assertAmount(t, "180", inv.SGSTTotal)
	assertAmount(t, "0", inv.IGSTTotal)
	assertAmount(t, "2360", inv.GrandTotal)
	assertAmount(t, "2360", inv.AmountPaid)
	assertAmount(t, "0", inv.BalanceDue)
	require.Len(t, inv.Items, 1)
	require.Len(t, inv.Payments, 1)
	assertAmount(t, "8", f.stockOf(t, laptop.ID))
}

func TestCreateInvoice_InterStateCustomerPaysIGST(t *testing.T) {
	f := newFixture(t)
	laptop := f.product(t, "Laptop", "1000", 18, "10")
	buyer := f.customer(t, "Chennai Traders", "33")

	inv := f.sell(t, &CreateInvoiceInput{
		CustomerID: &buyer.ID,
		Items:      []CartLineInput{line(laptop.ID, "2")},
		PayLater:   true,
	})

	assert.Equal(t, "33", inv.BuyerState)
	assert.Equal(t, "Chennai Traders", inv.CustomerName)
	assertAmount(t, "360", inv.IGSTTotal)
	assertAmount(t, "0", inv.CGSTTotal)
	assertAmount(t, "2360", inv.GrandTotal)
	assert.Equal(t, enum.PaymentStatusUnpaid, inv.PaymentStatus)
	assertAmount(t, "2360", inv.BalanceDue)
	assert.Empty(t, inv.Payments)
}

func TestCreateInvoice_DiscountAndSequentialNumbers(t *testing.T) {
	f := newFixture(t)
	pen := f.product(t, "Pen", "10", 12, "100")

	first := f.sell(t, &CreateInvoiceInput{Items: []CartLineInput{line(pen.ID, "5")}, Discount: dec("1.20")})
	second := f.sell(t, &CreateInvoiceInput{Items: []CartLineInput{line(pen.ID, "1")}})

	assert.Equal(t, "INV/2025-26/0001", first.InvoiceNumber)
	assert.Equal(t, "INV/2025-26/0002", second.InvoiceNumber)
	assertAmount(t, "1.20", first.Discount)
	assertAmount(t, "54.80", first.GrandTotal)

	next, err := f.invoices.NextInvoiceNumber(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "INV/2025-26/0003", next)
}

func TestCreateInvoice_SplitPaymentsSkipZeroAmounts(t *testing.T) {
	f := newFixture(t)
	laptop := f.product(t, "Laptop", "1000", 18, "10")

	inv := f.sell(t, &CreateInvoiceInput{
		Items: []CartLineInput{line(laptop.ID, "1")},
		Payments: []SplitPaymentInput{
			{Mode: enum.PaymentModeCash, Amount: decimal.Zero},
			{Mode: enum.PaymentModeUPI, Amount: dec("1000"), Reference: "UTR123"},
			{Mode: enum.PaymentModeCard, Amount: dec("100")},
		},
	})

	assert.Equal(t, enum.PaymentModeUPI, inv.PaymentMode)
	assert.Equal(t, enum.PaymentStatusPartial, inv.PaymentStatus)
	require.Len(t, inv.Payments, 2)
	assertAmount(t, "1100", inv.AmountPaid)
	assertAmount(t, "80", inv.BalanceDue)
}

func TestCreateInvoice_Rejections(t *testing.T) {
	f := newFixture(t)
	laptop := f.product(t, "Laptop", "1000", 18, "10")
	missing := uuid.New()

	tests := []struct {
		name  string
		input *CreateInvoiceInput
		kind  apperror.Kind
	}{
		{"empty cart", &CreateInvoiceInput{}, apperror.KindValidation},
		{"zero quantity", &CreateInvoiceInput{Items: []CartLineInput{line(laptop.ID, "0")}}, apperror.KindValidation},
		{"negative discount", &CreateInvoiceInput{Items: []CartLineInput{line(laptop.ID, "1")}, Discount: dec("-1")}, apperror.KindValidation},
		{"unknown mode", &CreateInvoiceInput{Items: []CartLineInput{line(laptop.ID, "1")}, PaymentMode: "BARTER"}, apperror.KindValidation},
		{"credit without customer", &CreateInvoiceInput{Items: []CartLineInput{line(laptop.ID, "1")}, PaymentMode: enum.PaymentModeCredit}, apperror.KindValidation},
		{"negative split", &CreateInvoiceInput{
			Items:    []CartLineInput{line(laptop.ID, "1")},
			Payments: []SplitPaymentInput{{Mode: enum.PaymentModeCash, Amount: dec("-5")}},
		}, apperror.KindValidation},
		{"quantity past three decimals", &CreateInvoiceInput{Items: []CartLineInput{line(laptop.ID, "0.0015")}}, apperror.KindValidation},
		{"discount past two decimals", &CreateInvoiceInput{Items: []CartLineInput{line(laptop.ID, "1")}, Discount: dec("1.005")}, apperror.KindValidation},
		{"split past two decimals", &CreateInvoiceInput{
			Items:    []CartLineInput{line(laptop.ID, "1")},
			Payments: []SplitPaymentInput{{Mode: enum.PaymentModeCash, Amount: dec("1180.005")}},
		}, apperror.KindValidation},
		{"unknown product", &CreateInvoiceInput{Items: []CartLineInput{line(missing, "1")}}, apperror.KindNotFound},
		{"unknown customer", &CreateInvoiceInput{CustomerID: &missing, Items: []CartLineInput{line(laptop.ID, "1")}}, apperror.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.invoices.CreateInvoice(f.ctx, tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperror.KindOf(err))
		})
	}

	// nothing was committed by the failed attempts
	assertAmount(t, "10", f.stockOf(t, laptop.ID))
	page, err := f.invoices.ListInvoices(f.ctx, &repository.InvoiceFilterParams{})
	require.NoError(t, err)
	assert.Zero(t, page.Pagination.Total)
}

func TestCreateInvoice_NegativeStockPolicy(t *testing.T) {
	f := newFixture(t)
	laptop := f.product(t, "Laptop", "1000", 18, "1")

	inv := f.sell(t, &CreateInvoiceInput{Items: []CartLineInput{line(laptop.ID, "3")}})
	assert.NotEmpty(t, inv.InvoiceNumber)
	assertAmount(t, "-2", f.stockOf(t, laptop.ID))

	strict := newFixture(t)
	strict.opts.AllowNegativeStock = false
	strict.stock = NewStockLedger(strict.store, strict.opts)
	strict.products = NewProductService(strict.store, strict.stock)
	strict.invoices = NewInvoiceService(strict.store, strict.opts, strict.numberer, strict.stock, strict.payments)
	mouse := strict.product(t, "Mouse", "500", 18, "1")

	_, err := strict.invoices.CreateInvoice(strict.ctx, &CreateInvoiceInput{Items: []CartLineInput{line(mouse.ID, "3")}})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	assertAmount(t, "1", strict.stockOf(t, mouse.ID))
}

func TestCreateInvoice_CreditSaleChargesCustomer(t *testing.T) {
	f := newFixture(t)
	laptop := f.product(t, "Laptop", "1000", 18, "10")
	buyer := f.customer(t, "Kochi Stores", "32")

	inv := f.sell(t, &CreateInvoiceInput{
		CustomerID:  &buyer.ID,
		Items:       []CartLineInput{line(laptop.ID, "2")},
		PaymentMode: enum.PaymentModeCredit,
	})
	assert.Equal(t, enum.PaymentStatusPaid, inv.PaymentStatus)

	c, err := f.customers.GetCustomer(f.ctx, buyer.ID)
	require.NoError(t, err)
	assertAmount(t, "-2360", c.CreditBalance)
}

// Cancelling twice restores stock only on the first call.
func TestCancelInvoice_RestoresStockOnce(t *testing.T) {
	f := newFixture(t)
	laptop := f.product(t, "Laptop", "1000", 18, "10")
	inv := f.sell(t, &CreateInvoiceInput{Items: []CartLineInput{line(laptop.ID, "2")}})
	assertAmount(t, "8", f.stockOf(t, laptop.ID))

	ok, err := f.invoices.CancelInvoice(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assertAmount(t, "10", f.stockOf(t, laptop.ID))

	got, err := f.invoices.GetInvoice(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCancelled)
	assert.NotNil(t, got.CancelledAt)
	require.Len(t, got.Items, 1, "cancelled invoices keep their lines")

	ok, err = f.invoices.CancelInvoice(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assertAmount(t, "10", f.stockOf(t, laptop.ID))

	ok, err = f.invoices.CancelInvoice(f.ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)

	history, err := f.stock.History(f.ctx, laptop.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, enum.StockReasonCancelled, history[0].Reason)
	assert.Equal(t, enum.StockReasonSale, history[1].Reason)
	assert.Equal(t, enum.StockReasonOpening, history[2].Reason)
}

func TestInvoiceLookups(t *testing.T) {
	f := newFixture(t)
	laptop := f.product(t, "Laptop", "1000", 18, "10")
	pen := f.product(t, "Pen", "10", 5, "100")
	inv := f.sell(t, &CreateInvoiceInput{Items: []CartLineInput{line(laptop.ID, "1"), line(pen.ID, "10")}})

	byNumber, err := f.invoices.GetInvoiceByNumber(f.ctx, inv.InvoiceNumber)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, byNumber.ID)

	_, err = f.invoices.GetInvoice(f.ctx, uuid.New())
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	summary, err := f.invoices.TaxSummary(f.ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assertAmount(t, "5", summary[0].GSTRate)
	assertAmount(t, "100", summary[0].TaxableValue)
	assertAmount(t, "18", summary[1].GSTRate)
	assertAmount(t, "180", summary[1].TotalTax())
}
