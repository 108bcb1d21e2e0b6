package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/domain/entity"
	"github.com/sangkips/gst-billing/internal/domain/enum"
	"github.com/sangkips/gst-billing/internal/domain/repository"
	"github.com/sangkips/gst-billing/pkg/apperror"
	"github.com/sangkips/gst-billing/pkg/pagination"
	"github.com/sangkips/gst-billing/pkg/validation"
	"github.com/shopspring/decimal"
)

// ProductService handles product-related operations
type ProductService struct {
	store repository.Store
	stock *StockLedger
}

// NewProductService creates a new product service
func NewProductService(store repository.Store, stock *StockLedger) *ProductService {
	return &ProductService{store: store, stock: stock}
}

// CreateProductInput represents the create product input
type CreateProductInput struct {
	Name          string          `json:"name" validate:"required,max=255"`
	Barcode       string          `json:"barcode" validate:"max=100"`
	HSNCode       string          `json:"hsn_code" validate:"omitempty,hsn"`
	Unit          string          `json:"unit" validate:"max=20"`
	Price         decimal.Decimal `json:"price" validate:"gte=0,places=2"`
	PurchasePrice decimal.Decimal `json:"purchase_price" validate:"gte=0,places=2"`
	GSTRate       decimal.Decimal `json:"gst_rate" validate:"gstrate"`
	OpeningStock  decimal.Decimal `json:"opening_stock" validate:"gte=0,places=3"`
	LowStockAlert decimal.Decimal `json:"low_stock_alert" validate:"gte=0"`
}

// CreateProduct creates a product. Opening stock is booked through the stock
// ledger so the movement log accounts for it.
func (s *ProductService) CreateProduct(ctx context.Context, input *CreateProductInput) (*entity.Product, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	product := &entity.Product{
		Name:          strings.TrimSpace(input.Name),
		Barcode:       barcode(input.Barcode),
		HSNCode:       input.HSNCode,
		Unit:          strings.ToUpper(input.Unit),
		Price:         input.Price,
		PurchasePrice: input.PurchasePrice,
		GSTRate:       input.GSTRate,
		StockQty:      decimal.Zero,
		LowStockAlert: input.LowStockAlert,
		IsActive:      true,
	}
	if product.Unit == "" {
		product.Unit = "NOS"
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Products().Create(ctx, product); err != nil {
			return err
		}
		if !input.OpeningStock.IsPositive() {
			return nil
		}
		qty, err := s.stock.Apply(ctx, tx, Movement{
			ProductID: product.ID,
			Delta:     input.OpeningStock,
			Reason:    enum.StockReasonOpening,
		})
		product.StockQty = qty
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.NewConflictError("A product with this barcode already exists")
		}
		return nil, translate(err)
	}
	return product, nil
}

// GetProduct retrieves a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	product, err := s.store.Products().GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}
	return product, nil
}

// GetProductByBarcode retrieves a product by its barcode
func (s *ProductService) GetProductByBarcode(ctx context.Context, code string) (*entity.Product, error) {
	product, err := s.store.Products().GetByBarcode(ctx, code)
	if err != nil {
		return nil, translate(err)
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}
	return product, nil
}

// ListProducts lists products with filtering
func (s *ProductService) ListProducts(ctx context.Context, params *repository.ProductFilterParams) (*pagination.PaginatedResult[entity.Product], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()

	products, total, err := s.store.Products().List(ctx, params)
	if err != nil {
		return nil, translate(err)
	}

	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(products, pag), nil
}

// UpdateProductInput represents the update product input. Stock is changed
// only through the stock ledger.
type UpdateProductInput struct {
	ID            uuid.UUID        `json:"-"`
	Name          *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Barcode       *string          `json:"barcode" validate:"omitempty,max=100"`
	HSNCode       *string          `json:"hsn_code" validate:"omitempty,hsn"`
	Unit          *string          `json:"unit" validate:"omitempty,max=20"`
	Price         *decimal.Decimal `json:"price" validate:"omitempty,gte=0,places=2"`
	PurchasePrice *decimal.Decimal `json:"purchase_price" validate:"omitempty,gte=0,places=2"`
	GSTRate       *decimal.Decimal `json:"gst_rate" validate:"omitempty,gstrate"`
	LowStockAlert *decimal.Decimal `json:"low_stock_alert" validate:"omitempty,gte=0"`
	IsActive      *bool            `json:"is_active"`
}

// UpdateProduct updates product metadata
func (s *ProductService) UpdateProduct(ctx context.Context, input *UpdateProductInput) (*entity.Product, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	product, err := s.GetProduct(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Barcode != nil {
		product.Barcode = barcode(*input.Barcode)
	}
	if input.HSNCode != nil {
		product.HSNCode = *input.HSNCode
	}
	if input.Unit != nil {
		product.Unit = strings.ToUpper(*input.Unit)
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.PurchasePrice != nil {
		product.PurchasePrice = *input.PurchasePrice
	}
	if input.GSTRate != nil {
		product.GSTRate = *input.GSTRate
	}
	if input.LowStockAlert != nil {
		product.LowStockAlert = *input.LowStockAlert
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.store.Products().Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.NewConflictError("A product with this barcode already exists")
		}
		return nil, translate(err)
	}
	return s.GetProduct(ctx, product.ID)
}

// GetLowStockProducts returns active products at or below their alert level
func (s *ProductService) GetLowStockProducts(ctx context.Context) ([]entity.Product, error) {
	products, err := s.store.Products().GetLowStock(ctx)
	return products, translate(err)
}

func barcode(code string) *string {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	return &code
}
