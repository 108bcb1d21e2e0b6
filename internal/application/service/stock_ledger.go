package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sangkips/gst-billing/internal/domain/entity"
	"github.com/sangkips/gst-billing/internal/domain/enum"
	"github.com/sangkips/gst-billing/internal/domain/repository"
	"github.com/sangkips/gst-billing/pkg/apperror"
	"github.com/sangkips/gst-billing/pkg/logger"
	"github.com/sangkips/gst-billing/pkg/validation"
	"github.com/shopspring/decimal"
)

// StockLedger is the only writer of product stock. Every change appends a
// movement and moves the product's stock_qty by the same delta in one
// transaction.
type StockLedger struct {
	store repository.Store
	opts  Options
	log   zerolog.Logger
}

// NewStockLedger creates a new stock ledger
func NewStockLedger(store repository.Store, opts Options) *StockLedger {
	return &StockLedger{
		store: store,
		opts:  opts,
		log:   logger.WithComponent("stock"),
	}
}

// Movement describes one stock change
type Movement struct {
	ProductID   uuid.UUID
	Delta       decimal.Decimal
	Reason      enum.StockReason
	ReferenceID *uuid.UUID
	Note        string
}

// Apply writes the movement and returns the product's new quantity. It must
// run inside the caller's transaction.
func (l *StockLedger) Apply(ctx context.Context, tx repository.Store, m Movement) (decimal.Decimal, error) {
	if m.Delta.IsZero() {
		return decimal.Zero, apperror.NewFieldValidationError("quantity", "stock change must not be zero")
	}
	if err := validation.Places("quantity", m.Delta, validation.QuantityPlaces); err != nil {
		return decimal.Zero, err
	}

	product, err := tx.Products().GetByID(ctx, m.ProductID)
	if err != nil {
		return decimal.Zero, err
	}
	if product == nil {
		return decimal.Zero, apperror.NewNotFoundError(fmt.Sprintf("Product %s", m.ProductID))
	}

	if err := tx.StockMovements().Create(ctx, &entity.StockMovement{
		ProductID:   m.ProductID,
		Delta:       m.Delta,
		Reason:      m.Reason,
		ReferenceID: m.ReferenceID,
		Note:        m.Note,
	}); err != nil {
		return decimal.Zero, err
	}

	qty, err := tx.Products().AddStock(ctx, m.ProductID, m.Delta)
	if err != nil {
		return decimal.Zero, err
	}

	if qty.IsNegative() && m.Delta.IsNegative() && !l.opts.AllowNegativeStock {
		return decimal.Zero, apperror.NewFieldValidationError("quantity",
			fmt.Sprintf("insufficient stock for %s: %s available", product.Name, product.StockQty.String()))
	}
	return qty, nil
}

// AdjustStockInput is a manual stock correction
type AdjustStockInput struct {
	ProductID uuid.UUID
	Delta     decimal.Decimal
	Note      string
}

// Adjust applies a manual correction with reason ADJUSTMENT
func (l *StockLedger) Adjust(ctx context.Context, input *AdjustStockInput) (decimal.Decimal, error) {
	var qty decimal.Decimal
	err := l.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		qty, err = l.Apply(ctx, tx, Movement{
			ProductID: input.ProductID,
			Delta:     input.Delta,
			Reason:    enum.StockReasonAdjustment,
			Note:      input.Note,
		})
		return err
	})
	if err != nil {
		return decimal.Zero, translate(err)
	}

	l.log.Info().Str("product_id", input.ProductID.String()).Str("delta", input.Delta.String()).Str("stock_qty", qty.String()).Msg("stock adjusted")
	return qty, nil
}

// RestockInput records goods received from a supplier
type RestockInput struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	Reference string
}

// Restock adds purchased quantity with reason PURCHASE
func (l *StockLedger) Restock(ctx context.Context, input *RestockInput) (decimal.Decimal, error) {
	if !input.Quantity.IsPositive() {
		return decimal.Zero, apperror.NewFieldValidationError("quantity", "restock quantity must be positive")
	}

	var qty decimal.Decimal
	err := l.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		qty, err = l.Apply(ctx, tx, Movement{
			ProductID: input.ProductID,
			Delta:     input.Quantity,
			Reason:    enum.StockReasonPurchase,
			Note:      input.Reference,
		})
		return err
	})
	if err != nil {
		return decimal.Zero, translate(err)
	}
	return qty, nil
}

// History lists a product's movements, newest first. A limit of zero returns all.
func (l *StockLedger) History(ctx context.Context, productID uuid.UUID, limit int) ([]entity.StockMovement, error) {
	product, err := l.store.Products().GetByID(ctx, productID)
	if err != nil {
		return nil, translate(err)
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}

	movements, err := l.store.StockMovements().ListByProduct(ctx, productID, limit)
	return movements, translate(err)
}

// Drift compares a product's materialized stock with its movement log
type Drift struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	StockQty    decimal.Decimal `json:"stock_qty"`
	LedgerQty   decimal.Decimal `json:"ledger_qty"`
}

// InSync reports whether the product quantity equals the movement sum
func (d Drift) InSync() bool {
	return d.StockQty.Equal(d.LedgerQty)
}

// Verify checks one product's stock_qty against the sum of its movements
func (l *StockLedger) Verify(ctx context.Context, productID uuid.UUID) (*Drift, error) {
	product, err := l.store.Products().GetByID(ctx, productID)
	if err != nil {
		return nil, translate(err)
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}
	return l.drift(ctx, product)
}

// VerifyAll returns every active product whose stock has drifted from its ledger
func (l *StockLedger) VerifyAll(ctx context.Context) ([]Drift, error) {
	products, err := l.store.Products().ListActive(ctx)
	if err != nil {
		return nil, translate(err)
	}

	drifted := []Drift{}
	for i := range products {
		d, err := l.drift(ctx, &products[i])
		if err != nil {
			return nil, err
		}
		if !d.InSync() {
			l.log.Warn().Str("product_id", d.ProductID.String()).Str("stock_qty", d.StockQty.String()).Str("ledger_qty", d.LedgerQty.String()).Msg("stock drift detected")
			drifted = append(drifted, *d)
		}
	}
	return drifted, nil
}

func (l *StockLedger) drift(ctx context.Context, product *entity.Product) (*Drift, error) {
	sum, err := l.store.StockMovements().SumByProduct(ctx, product.ID)
	if err != nil {
		return nil, translate(err)
	}
	return &Drift{
		ProductID:   product.ID,
		ProductName: product.Name,
		StockQty:    product.StockQty,
		LedgerQty:   sum,
	}, nil
}
