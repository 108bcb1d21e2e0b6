package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/domain/enum"
	"github.com/sangkips/gst-billing/internal/domain/repository"
	"github.com/sangkips/gst-billing/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quoteInput(items ...QuotationItemInput) *CreateQuotationInput {
	days := 30
	return &CreateQuotationInput{ValidityDays: &days, Items: items}
}

func quoteLine(productID uuid.UUID, qty string) QuotationItemInput {
	pid := productID
	return QuotationItemInput{ProductID: &pid, Quantity: dec(qty)}
}

func TestCreateQuotation_PricesLinesWithoutTouchingStock(t *testing.T) {
	f := newFixture(t)
	laptop := f.product(t, "Laptop", "1000", 18, "10")

	rate, gst := dec("250"), dec("12")
	q, err := f.quotations.CreateQuotation(f.ctx, quoteInput(
		quoteLine(laptop.ID, "2"),
		QuotationItemInput{ProductName: "Installation", Quantity: dec("1"), Rate: &rate, GSTRate: &gst},
	))
	require.NoError(t, err)

	assert.Equal(t, "QTN/2025-26/0001", q.QuotationNumber)
	assert.Equal(t, enum.QuotationStatusDraft, q.Status)
	assert.Equal(t, DateOnly(f.now).AddDate(0, 0, 30), q.ValidityDate)
	require.Len(t, q.Items, 2)
	assert.Equal(t, "NOS", q.Items[1].Unit)
	assertAmount(t, "2250", q.Subtotal)
	assertAmount(t, "2640", q.GrandTotal)
	assertAmount(t, "10", f.stockOf(t, laptop.ID))

	_, err = f.quotations.CreateQuotation(f.ctx, quoteInput(QuotationItemInput{ProductName: "Loose", Quantity: dec("1")}))
	assert.True(t, apperror.IsKind(err, apperror.KindValidation), "free lines need a rate and GST rate")

	fine := dec("99.999")
	_, err = f.quotations.CreateQuotation(f.ctx, quoteInput(QuotationItemInput{ProductName: "Loose", Quantity: dec("1"), Rate: &fine, GSTRate: &gst}))
	assert.True(t, apperror.IsKind(err, apperror.KindValidation), "rates keep two decimals")

	_, err = f.quotations.CreateQuotation(f.ctx, quoteInput(quoteLine(laptop.ID, "1.0001")))
	assert.True(t, apperror.IsKind(err, apperror.KindValidation), "quantities keep three decimals")
}

// Expiry only touches open quotations past their validity and can be rerun.
func TestCheckExpired_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	laptop := f.product(t, "Laptop", "1000", 18, "10")
	q, err := f.quotations.CreateQuotation(f.ctx, quoteInput(quoteLine(laptop.ID, "1")))
	require.NoError(t, err)

	expired, err := f.quotations.CheckExpired(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, expired, "still valid on its creation day")

	f.advance(31 * 24 * time.Hour)
	expired, err = f.quotations.CheckExpired(f.ctx)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, q.ID, expired[0].ID)

	got, err := f.quotations.GetQuotation(f.ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.QuotationStatusExpired, got.Status)

	expired, err = f.quotations.CheckExpired(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, expired)

	_, err = f.quotations.ConvertToInvoice(f.ctx, q.ID, &ConvertQuotationInput{})
	assert.True(t, apperror.IsKind(err, apperror.KindStateConflict))
}

func TestConvertToInvoice_MarksConvertedAndDeductsStock(t *testing.T) {
	f := newFixture(t)
	laptop := f.product(t, "Laptop", "1000", 18, "10")
	buyer := f.customer(t, "Chennai Traders", "33")
	input := quoteInput(quoteLine(laptop.ID, "3"))
	input.CustomerID = &buyer.ID
	q, err := f.quotations.CreateQuotation(f.ctx, input)
	require.NoError(t, err)

	// catalog changes after quoting do not reach the invoice
	price := dec("1200")
	_, err = f.products.UpdateProduct(f.ctx, &UpdateProductInput{ID: laptop.ID, Price: &price})
	require.NoError(t, err)

	inv, err := f.quotations.ConvertToInvoice(f.ctx, q.ID, &ConvertQuotationInput{PayLater: true})
	require.NoError(t, err)
	assert.Equal(t, "INV/2025-26/0001", inv.InvoiceNumber)
	assert.Equal(t, "Converted from quotation "+q.QuotationNumber, inv.Notes)
	assertAmount(t, q.GrandTotal.String(), inv.GrandTotal)
	assertAmount(t, "540", inv.IGSTTotal)
	assert.Equal(t, enum.PaymentStatusUnpaid, inv.PaymentStatus)
	assertAmount(t, "7", f.stockOf(t, laptop.ID))

	got, err := f.quotations.GetQuotation(f.ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.QuotationStatusConverted, got.Status)
	require.NotNil(t, got.ConvertedInvoiceID)
	assert.Equal(t, inv.ID, *got.ConvertedInvoiceID)

	_, err = f.quotations.ConvertToInvoice(f.ctx, q.ID, &ConvertQuotationInput{})
	assert.True(t, apperror.IsKind(err, apperror.KindStateConflict))

	_, err = f.quotations.UpdateQuotation(f.ctx, &UpdateQuotationInput{ID: q.ID, CreateQuotationInput: *quoteInput(quoteLine(laptop.ID, "1"))})
	assert.True(t, apperror.IsKind(err, apperror.KindStateConflict))
	assertAmount(t, "7", f.stockOf(t, laptop.ID))
}

func TestUpdateQuotation_ReplacesLines(t *testing.T) {
	f := newFixture(t)
	laptop := f.product(t, "Laptop", "1000", 18, "10")
	pen := f.product(t, "Pen", "10", 12, "100")
	q, err := f.quotations.CreateQuotation(f.ctx, quoteInput(quoteLine(laptop.ID, "1")))
	require.NoError(t, err)

	update := quoteInput(quoteLine(pen.ID, "10"), quoteLine(laptop.ID, "2"))
	update.Notes = "revised"
	updated, err := f.quotations.UpdateQuotation(f.ctx, &UpdateQuotationInput{ID: q.ID, CreateQuotationInput: *update})
	require.NoError(t, err)

	assert.Equal(t, q.QuotationNumber, updated.QuotationNumber)
	assert.Equal(t, "revised", updated.Notes)
	require.Len(t, updated.Items, 2)
	assertAmount(t, "2100", updated.Subtotal)
	assertAmount(t, "2472", updated.GrandTotal)
}

func TestUpdateQuotationStatus_FollowsTransitions(t *testing.T) {
	f := newFixture(t)
	laptop := f.product(t, "Laptop", "1000", 18, "10")
	q, err := f.quotations.CreateQuotation(f.ctx, quoteInput(quoteLine(laptop.ID, "1")))
	require.NoError(t, err)

	_, err = f.quotations.UpdateQuotationStatus(f.ctx, q.ID, enum.QuotationStatusConverted)
	assert.True(t, apperror.IsKind(err, apperror.KindStateConflict), "conversion has its own operation")

	sent, err := f.quotations.UpdateQuotationStatus(f.ctx, q.ID, enum.QuotationStatusSent)
	require.NoError(t, err)
	assert.Equal(t, enum.QuotationStatusSent, sent.Status)

	accepted, err := f.quotations.UpdateQuotationStatus(f.ctx, q.ID, enum.QuotationStatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, enum.QuotationStatusAccepted, accepted.Status)

	_, err = f.quotations.UpdateQuotationStatus(f.ctx, q.ID, enum.QuotationStatusDraft)
	assert.True(t, apperror.IsKind(err, apperror.KindStateConflict))

	_, err = f.quotations.UpdateQuotationStatus(f.ctx, uuid.New(), enum.QuotationStatusSent)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	inv, err := f.quotations.ConvertToInvoice(f.ctx, q.ID, &ConvertQuotationInput{})
	require.NoError(t, err)
	assert.Equal(t, enum.PaymentStatusPaid, inv.PaymentStatus)
}

func TestDuplicateQuotation_StartsFreshDraft(t *testing.T) {
	f := newFixture(t)
	laptop := f.product(t, "Laptop", "1000", 18, "10")
	q, err := f.quotations.CreateQuotation(f.ctx, quoteInput(quoteLine(laptop.ID, "2")))
	require.NoError(t, err)
	_, err = f.quotations.UpdateQuotationStatus(f.ctx, q.ID, enum.QuotationStatusRejected)
	require.NoError(t, err)

	f.advance(48 * time.Hour)
	copied, err := f.quotations.DuplicateQuotation(f.ctx, q.ID)
	require.NoError(t, err)

	assert.NotEqual(t, q.ID, copied.ID)
	assert.Equal(t, "QTN/2025-26/0002", copied.QuotationNumber)
	assert.Equal(t, enum.QuotationStatusDraft, copied.Status)
	assert.Equal(t, DateOnly(f.now), copied.QuotationDate)
	assert.Equal(t, DateOnly(f.now).AddDate(0, 0, f.opts.QuotationValidityDays), copied.ValidityDate)
	require.Len(t, copied.Items, 1)
	assertAmount(t, q.GrandTotal.String(), copied.GrandTotal)
}

func TestPendingExpiringAndSummary(t *testing.T) {
	f := newFixture(t)
	laptop := f.product(t, "Laptop", "1000", 18, "10")

	week := 7
	short := quoteInput(quoteLine(laptop.ID, "1"))
	short.ValidityDays = &week
	soon, err := f.quotations.CreateQuotation(f.ctx, short)
	require.NoError(t, err)
	later, err := f.quotations.CreateQuotation(f.ctx, quoteInput(quoteLine(laptop.ID, "1")))
	require.NoError(t, err)
	converted, err := f.quotations.CreateQuotation(f.ctx, quoteInput(quoteLine(laptop.ID, "1")))
	require.NoError(t, err)
	_, err = f.quotations.ConvertToInvoice(f.ctx, converted.ID, &ConvertQuotationInput{})
	require.NoError(t, err)

	pending, err := f.quotations.Pending(f.ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, soon.ID, pending[0].ID)
	assert.Equal(t, later.ID, pending[1].ID)

	expiring, err := f.quotations.ExpiringSoon(f.ctx, 7)
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, soon.ID, expiring[0].ID)

	_, err = f.quotations.ExpiringSoon(f.ctx, -1)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	today := DateOnly(f.now)
	summary, err := f.quotations.Summary(f.ctx, repository.DateRange{From: today, To: today})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalCount)
	assert.Equal(t, 1, summary.ConvertedCount)
	assertAmount(t, "33.33", summary.ConversionRate)
	assert.Equal(t, 2, summary.ByStatus["DRAFT"].Count)

	next, err := f.quotations.NextQuotationNumber(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "QTN/2025-26/0004", next)
}
