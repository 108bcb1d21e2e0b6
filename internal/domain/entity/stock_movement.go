package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockMovement is an append-only entry of the stock ledger
type StockMovement struct {
	ID          uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	ProductID   uuid.UUID        `gorm:"type:uuid;not null;index" json:"product_id"`
	Delta       decimal.Decimal  `gorm:"type:numeric(14,3);not null" json:"delta"`
	Reason      enum.StockReason `gorm:"size:30;not null" json:"reason"`
	ReferenceID *uuid.UUID       `gorm:"type:uuid;index" json:"reference_id,omitempty"`
	Note        string           `gorm:"size:255" json:"note,omitempty"`
	CreatedAt   time.Time        `gorm:"index" json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new stock movement
func (m *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the StockMovement model
func (StockMovement) TableName() string {
	return "stock_movements"
}
