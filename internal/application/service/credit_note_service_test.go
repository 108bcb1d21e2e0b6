package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/domain/enum"
	"github.com/sangkips/gst-billing/internal/domain/repository"
	"github.com/sangkips/gst-billing/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func returnInput(invoiceID, productID uuid.UUID, qty string) *CreateCreditNoteInput {
	return &CreateCreditNoteInput{
		InvoiceID: invoiceID,
		Items:     []ReturnItemInput{{ProductID: productID, Quantity: dec(qty)}},
		Reason:    "RETURN",
	}
}

// Return quantities above what is still returnable are clamped per line.
func TestCreateCreditNote_ClampsToReturnableQuantity(t *testing.T) {
	f := newFixture(t)
	laptop := f.product(t, "Laptop", "1000", 18, "10")
	inv := f.sell(t, &CreateInvoiceInput{Items: []CartLineInput{line(laptop.ID, "5")}})
	assertAmount(t, "5", f.stockOf(t, laptop.ID))

	first, err := f.creditNotes.CreateCreditNote(f.ctx, returnInput(inv.ID, laptop.ID, "3"))
	require.NoError(t, err)
	assert.Equal(t, "CN/2025-26/0001", first.CreditNoteNumber)
	assert.Equal(t, enum.CreditNoteStatusActive, first.Status)
	assert.True(t, first.StockRestored)
	require.Len(t, first.Items, 1)
	assertAmount(t, "3", first.Items[0].Quantity)
	assertAmount(t, "3000", first.Subtotal)
	assertAmount(t, "270", first.CGSTTotal)
	assertAmount(t, "3540", first.GrandTotal)
	assertAmount(t, "8", f.stockOf(t, laptop.ID))

	second, err := f.creditNotes.CreateCreditNote(f.ctx, returnInput(inv.ID, laptop.ID, "3"))
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assertAmount(t, "2", second.Items[0].Quantity)
	assertAmount(t, "10", f.stockOf(t, laptop.ID))

	_, err = f.creditNotes.CreateCreditNote(f.ctx, returnInput(inv.ID, laptop.ID, "1"))
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	open, err := f.creditNotes.ReturnableLines(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestCreateCreditNote_UsesInvoiceRatesAndState(t *testing.T) {
	f := newFixture(t)
	laptop := f.product(t, "Laptop", "1000", 18, "10")
	buyer := f.customer(t, "Chennai Traders", "33")
	inv := f.sell(t, &CreateInvoiceInput{CustomerID: &buyer.ID, Items: []CartLineInput{line(laptop.ID, "2")}})

	price := dec("1500")
	_, err := f.products.UpdateProduct(f.ctx, &UpdateProductInput{ID: laptop.ID, Price: &price})
	require.NoError(t, err)

	note, err := f.creditNotes.CreateCreditNote(f.ctx, returnInput(inv.ID, laptop.ID, "1"))
	require.NoError(t, err)
	assertAmount(t, "1000", note.Items[0].Rate)
	assertAmount(t, "180", note.IGSTTotal)
	assertAmount(t, "0", note.CGSTTotal)
	assert.Equal(t, "33", note.BuyerState)
	assert.Equal(t, &buyer.ID, note.CustomerID)
	require.NotNil(t, note.Items[0].InvoiceItemID)
	assert.Equal(t, inv.Items[0].ID, *note.Items[0].InvoiceItemID)
}

func TestCreateCreditNote_Rejections(t *testing.T) {
	f := newFixture(t)
	laptop := f.product(t, "Laptop", "1000", 18, "10")
	pen := f.product(t, "Pen", "10", 12, "10")
	inv := f.sell(t, &CreateInvoiceInput{Items: []CartLineInput{line(laptop.ID, "1")}})

	bad := returnInput(inv.ID, laptop.ID, "1")
	bad.Reason = "CHANGED_MIND"
	_, err := f.creditNotes.CreateCreditNote(f.ctx, bad)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = f.creditNotes.CreateCreditNote(f.ctx, returnInput(inv.ID, pen.ID, "1"))
	assert.True(t, apperror.IsKind(err, apperror.KindValidation), "products not on the invoice are not returnable")

	_, err = f.creditNotes.CreateCreditNote(f.ctx, returnInput(inv.ID, laptop.ID, "0.0005"))
	assert.True(t, apperror.IsKind(err, apperror.KindValidation), "return quantities keep three decimals")

	_, err = f.creditNotes.CreateCreditNote(f.ctx, returnInput(uuid.New(), laptop.ID, "1"))
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	_, err = f.invoices.CancelInvoice(f.ctx, inv.ID)
	require.NoError(t, err)
	_, err = f.creditNotes.CreateCreditNote(f.ctx, returnInput(inv.ID, laptop.ID, "1"))
	assert.True(t, apperror.IsKind(err, apperror.KindStateConflict))
}

func TestCreateCreditNote_WithoutRestock(t *testing.T) {
	f := newFixture(t)
	laptop := f.product(t, "Laptop", "1000", 18, "10")
	inv := f.sell(t, &CreateInvoiceInput{Items: []CartLineInput{line(laptop.ID, "2")}})

	input := returnInput(inv.ID, laptop.ID, "1")
	input.Reason = "DAMAGE"
	restore := false
	input.RestoreStock = &restore
	note, err := f.creditNotes.CreateCreditNote(f.ctx, input)
	require.NoError(t, err)
	assert.False(t, note.StockRestored)
	assertAmount(t, "8", f.stockOf(t, laptop.ID))

	// nothing was restored, so nothing is reversed
	ok, err := f.creditNotes.CancelCreditNote(f.ctx, note.ID, true)
	require.NoError(t, err)
	assert.True(t, ok)
	assertAmount(t, "8", f.stockOf(t, laptop.ID))
}

func TestCancelCreditNote_ReversesStockAndFreesQuantity(t *testing.T) {
	f := newFixture(t)
	laptop := f.product(t, "Laptop", "1000", 18, "10")
	inv := f.sell(t, &CreateInvoiceInput{Items: []CartLineInput{line(laptop.ID, "4")}})
	note, err := f.creditNotes.CreateCreditNote(f.ctx, returnInput(inv.ID, laptop.ID, "4"))
	require.NoError(t, err)
	assertAmount(t, "10", f.stockOf(t, laptop.ID))

	ok, err := f.creditNotes.CancelCreditNote(f.ctx, note.ID, true)
	require.NoError(t, err)
	assert.True(t, ok)
	assertAmount(t, "6", f.stockOf(t, laptop.ID))

	ok, err = f.creditNotes.CancelCreditNote(f.ctx, note.ID, true)
	require.NoError(t, err)
	assert.False(t, ok)
	assertAmount(t, "6", f.stockOf(t, laptop.ID))

	open, err := f.creditNotes.ReturnableLines(f.ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assertAmount(t, "4", open[0].ReturnableQty)
}

func TestApplyToInvoice_PaysUpToBalance(t *testing.T) {
	f := newFixture(t)
	laptop := f.product(t, "Laptop", "1000", 18, "10")
	buyer := f.customer(t, "Kochi Stores", "32")
	original := f.sell(t, &CreateInvoiceInput{CustomerID: &buyer.ID, Items: []CartLineInput{line(laptop.ID, "3")}})
	note, err := f.creditNotes.CreateCreditNote(f.ctx, returnInput(original.ID, laptop.ID, "3"))
	require.NoError(t, err)
	assertAmount(t, "3540", note.GrandTotal)

	target := f.sell(t, &CreateInvoiceInput{CustomerID: &buyer.ID, Items: []CartLineInput{line(laptop.ID, "2")}, PayLater: true})
	assertAmount(t, "2360", target.BalanceDue)

	paid, err := f.creditNotes.ApplyToInvoice(f.ctx, note.ID, target.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.PaymentStatusPaid, paid.PaymentStatus)
	assertAmount(t, "2360", paid.AmountPaid)
	require.Len(t, paid.Payments, 1)
	assert.Equal(t, enum.PaymentModeCreditNote, paid.Payments[0].Mode)
	assert.Equal(t, note.CreditNoteNumber, paid.Payments[0].ReferenceNumber)
	assert.Equal(t, "Applied from Credit Note "+note.CreditNoteNumber, paid.Payments[0].Notes)

	applied, err := f.creditNotes.GetCreditNote(f.ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.CreditNoteStatusApplied, applied.Status)
	assert.Equal(t, &target.ID, applied.AppliedInvoiceID)

	_, err = f.creditNotes.ApplyToInvoice(f.ctx, note.ID, target.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindStateConflict))
}

func TestApplyToInvoice_TargetMustOweMoney(t *testing.T) {
	f := newFixture(t)
	laptop := f.product(t, "Laptop", "1000", 18, "10")
	inv := f.sell(t, &CreateInvoiceInput{Items: []CartLineInput{line(laptop.ID, "2")}})
	note, err := f.creditNotes.CreateCreditNote(f.ctx, returnInput(inv.ID, laptop.ID, "1"))
	require.NoError(t, err)

	_, err = f.creditNotes.ApplyToInvoice(f.ctx, note.ID, inv.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindStateConflict))

	_, err = f.creditNotes.ApplyToInvoice(f.ctx, uuid.New(), inv.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	got, err := f.creditNotes.GetCreditNote(f.ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.CreditNoteStatusActive, got.Status)
}

func TestCreditNoteSummary_ExcludesCancelledValue(t *testing.T) {
	f := newFixture(t)
	laptop := f.product(t, "Laptop", "1000", 18, "10")
	buyer := f.customer(t, "Kochi Stores", "32")
	inv := f.sell(t, &CreateInvoiceInput{CustomerID: &buyer.ID, Items: []CartLineInput{line(laptop.ID, "3")}})

	kept, err := f.creditNotes.CreateCreditNote(f.ctx, returnInput(inv.ID, laptop.ID, "1"))
	require.NoError(t, err)
	dropped, err := f.creditNotes.CreateCreditNote(f.ctx, returnInput(inv.ID, laptop.ID, "1"))
	require.NoError(t, err)
	_, err = f.creditNotes.CancelCreditNote(f.ctx, dropped.ID, true)
	require.NoError(t, err)

	today := DateOnly(f.now)
	summary, err := f.creditNotes.Summary(f.ctx, repository.DateRange{From: today, To: today})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalCount)
	assertAmount(t, kept.GrandTotal.String(), summary.TotalValue)
	assert.Equal(t, 1, summary.ByStatus["ACTIVE"].Count)
	assert.Equal(t, 1, summary.ByStatus["CANCELLED"].Count)
	assert.Equal(t, 1, summary.ByReason["RETURN"].Count)

	byCustomer, err := f.creditNotes.ListByCustomer(f.ctx, buyer.ID)
	require.NoError(t, err)
	assert.Len(t, byCustomer, 2)

	byInvoice, err := f.creditNotes.ListByInvoice(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, byInvoice, 2)

	active := enum.CreditNoteStatusActive
	page, err := f.creditNotes.ListCreditNotes(f.ctx, &repository.CreditNoteFilterParams{Status: &active})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, kept.ID, page.Items[0].ID)
}
