package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a catalog item. StockQty is a projection of the stock
// movement log and is only written through the stock ledger.
type Product struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Name          string          `gorm:"size:255;not null" json:"name"`
	Barcode       *string         `gorm:"size:100;uniqueIndex" json:"barcode,omitempty"`
	HSNCode       string          `gorm:"size:20" json:"hsn_code,omitempty"`
	Unit          string          `gorm:"size:20;default:NOS" json:"unit"`
	Price         decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"price"`
	PurchasePrice decimal.Decimal `gorm:"type:numeric(14,2);default:0" json:"purchase_price"`
	GSTRate       decimal.Decimal `gorm:"type:numeric(5,2);default:18" json:"gst_rate"`
	StockQty      decimal.Decimal `gorm:"type:numeric(14,3);default:0" json:"stock_qty"`
	LowStockAlert decimal.Decimal `gorm:"type:numeric(14,3);default:10" json:"low_stock_alert"`
	IsActive      bool            `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new product
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// IsLowStock reports whether stock has fallen to the alert threshold
func (p *Product) IsLowStock() bool {
	return p.StockQty.LessThanOrEqual(p.LowStockAlert)
}

// StockValue is the stock quantity valued at the selling price
func (p *Product) StockValue() decimal.Decimal {
	return p.StockQty.Mul(p.Price).Round(2)
}
