package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// StockMovementRepository is the append-only stock ledger
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	// ListByProduct returns movements newest first; limit <= 0 means all
	ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]entity.StockMovement, error)
	SumByProduct(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)
}
