package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/domain/enum"
	"github.com/sangkips/gst-billing/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjust_WritesMovementAndQuantity(t *testing.T) {
	f := newFixture(t)
	pen := f.product(t, "Pen", "10", 12, "50")

	qty, err := f.stock.Adjust(f.ctx, &AdjustStockInput{ProductID: pen.ID, Delta: dec("-3"), Note: "broken in transit"})
	require.NoError(t, err)
	assertAmount(t, "47", qty)
	assertAmount(t, "47", f.stockOf(t, pen.ID))

	history, err := f.stock.History(f.ctx, pen.ID, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, enum.StockReasonAdjustment, history[0].Reason)
	assert.Equal(t, "broken in transit", history[0].Note)
	assertAmount(t, "-3", history[0].Delta)
}

func TestAdjust_Rejections(t *testing.T) {
	f := newFixture(t)
	pen := f.product(t, "Pen", "10", 12, "50")

	_, err := f.stock.Adjust(f.ctx, &AdjustStockInput{ProductID: pen.ID, Delta: dec("0")})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = f.stock.Adjust(f.ctx, &AdjustStockInput{ProductID: pen.ID, Delta: dec("-0.0015")})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation), "deltas are stored with three decimals")

	_, err = f.stock.Restock(f.ctx, &RestockInput{ProductID: pen.ID, Quantity: dec("0.0001")})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = f.stock.Adjust(f.ctx, &AdjustStockInput{ProductID: uuid.New(), Delta: dec("1")})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	_, err = f.stock.History(f.ctx, uuid.New(), 0)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	history, err := f.stock.History(f.ctx, pen.ID, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1, "rejected changes leave no movement behind")
}

func TestRestock_AddsPurchasedQuantity(t *testing.T) {
	f := newFixture(t)
	pen := f.product(t, "Pen", "10", 12, "0")

	qty, err := f.stock.Restock(f.ctx, &RestockInput{ProductID: pen.ID, Quantity: dec("24"), Reference: "PO-118"})
	require.NoError(t, err)
	assertAmount(t, "24", qty)
	assertAmount(t, "24", f.stockOf(t, pen.ID))

	_, err = f.stock.Restock(f.ctx, &RestockInput{ProductID: pen.ID, Quantity: dec("-1")})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	history, err := f.stock.History(f.ctx, pen.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, enum.StockReasonPurchase, history[0].Reason)
}

func TestVerifyAll_ReportsDrift(t *testing.T) {
	f := newFixture(t)
	pen := f.product(t, "Pen", "10", 12, "50")
	laptop := f.product(t, "Laptop", "1000", 18, "5")

	drifted, err := f.stock.VerifyAll(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, drifted)

	// a write that bypasses the ledger
	_, err = f.store.Products().AddStock(f.ctx, laptop.ID, dec("2"))
	require.NoError(t, err)

	drifted, err = f.stock.VerifyAll(f.ctx)
	require.NoError(t, err)
	require.Len(t, drifted, 1)
	assert.Equal(t, laptop.ID, drifted[0].ProductID)
	assertAmount(t, "7", drifted[0].StockQty)
	assertAmount(t, "5", drifted[0].LedgerQty)

	d, err := f.stock.Verify(f.ctx, pen.ID)
	require.NoError(t, err)
	assert.True(t, d.InSync())
}
