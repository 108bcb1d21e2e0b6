package service

import (
	"testing"

	"github.com/sangkips/gst-billing/internal/domain/enum"
	"github.com/sangkips/gst-billing/internal/domain/repository"
	"github.com/sangkips/gst-billing/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProduct_BooksOpeningStock(t *testing.T) {
	f := newFixture(t)

	p, err := f.products.CreateProduct(f.ctx, &CreateProductInput{
		Name:         "  USB Cable ",
		Barcode:      "8901234567890",
		HSNCode:      "854442",
		Price:        dec("149"),
		GSTRate:      dec("18"),
		OpeningStock: dec("25"),
	})
	require.NoError(t, err)
	assert.Equal(t, "USB Cable", p.Name)
	assert.Equal(t, "NOS", p.Unit)
	assertAmount(t, "25", f.stockOf(t, p.ID))

	history, err := f.stock.History(f.ctx, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, enum.StockReasonOpening, history[0].Reason)

	byCode, err := f.products.GetProductByBarcode(f.ctx, "8901234567890")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byCode.ID)
}

func TestCreateProduct_Rejections(t *testing.T) {
	f := newFixture(t)
	_, err := f.products.CreateProduct(f.ctx, &CreateProductInput{Name: "Pen", Barcode: "111", Price: dec("10"), GSTRate: dec("12")})
	require.NoError(t, err)

	tests := []struct {
		name  string
		input *CreateProductInput
		kind  apperror.Kind
	}{
		{"missing name", &CreateProductInput{Price: dec("10"), GSTRate: dec("12")}, apperror.KindValidation},
		{"off-slab GST rate", &CreateProductInput{Name: "Ink", Price: dec("10"), GSTRate: dec("15")}, apperror.KindValidation},
		{"negative price", &CreateProductInput{Name: "Ink", Price: dec("-1"), GSTRate: dec("12")}, apperror.KindValidation},
		{"bad HSN", &CreateProductInput{Name: "Ink", HSNCode: "12", Price: dec("10"), GSTRate: dec("12")}, apperror.KindValidation},
		{"duplicate barcode", &CreateProductInput{Name: "Ink", Barcode: "111", Price: dec("10"), GSTRate: dec("12")}, apperror.KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.products.CreateProduct(f.ctx, tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperror.KindOf(err))
		})
	}
}

func TestUpdateProduct_LeavesStockAlone(t *testing.T) {
	f := newFixture(t)
	pen := f.product(t, "Pen", "10", 12, "3")

	name, inactive := "Gel Pen", false
	updated, err := f.products.UpdateProduct(f.ctx, &UpdateProductInput{ID: pen.ID, Name: &name, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Gel Pen", updated.Name)
	assert.False(t, updated.IsActive)
	assertAmount(t, "3", f.stockOf(t, pen.ID))

	page, err := f.products.ListProducts(f.ctx, &repository.ProductFilterParams{ActiveOnly: true})
	require.NoError(t, err)
	assert.Zero(t, page.Pagination.Total)
}

func TestGetLowStockProducts(t *testing.T) {
	f := newFixture(t)
	low := f.product(t, "Stapler", "120", 18, "2")
	f.product(t, "Paper", "250", 12, "40")

	products, err := f.products.GetLowStockProducts(f.ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, low.ID, products[0].ID)
}
