package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/domain/entity"
	domainRepo "github.com/sangkips/gst-billing/internal/domain/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) domainRepo.ProductRepository {
	return &productRepository{db: db}
}

var productSortColumns = map[string]string{
	"name":       "name",
	"price":      "price",
	"stock_qty":  "stock_qty",
	"created_at": "created_at",
}

func (r *productRepository) Create(ctx context.Context, product *entity.Product) error {
	return translateError(r.db.WithContext(ctx).Create(product).Error)
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	var product entity.Product
	err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &product, err
}

// GetByIDs retrieves multiple products by their IDs in a single query
func (r *productRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Product, error) {
	if len(ids) == 0 {
		return []entity.Product{}, nil
	}
	var products []entity.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("name ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepository) GetByBarcode(ctx context.Context, barcode string) (*entity.Product, error) {
	var product entity.Product
	err := r.db.WithContext(ctx).First(&product, "barcode = ?", barcode).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &product, err
}

// Update writes catalog fields only; stock_qty belongs to AddStock
func (r *productRepository) Update(ctx context.Context, product *entity.Product) error {
	result := r.db.WithContext(ctx).Model(&entity.Product{ID: product.ID}).
		Select("name", "barcode", "hsn_code", "unit", "price", "purchase_price", "gst_rate", "low_stock_alert", "is_active", "updated_at").
		Updates(product)
	return affected(result)
}

func (r *productRepository) List(ctx context.Context, params *domainRepo.ProductFilterParams) ([]entity.Product, int64, error) {
	var products []entity.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Product{}).
		Scopes(Search(params.Search, "name", "barcode", "hsn_code"))

	if params.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	if params.LowStock {
		query = query.Where("stock_qty <= low_stock_alert")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Sorting
	sortBy := "name"
	if column, ok := productSortColumns[params.SortBy]; ok {
		sortBy = column
	}
	sortOrder := "ASC"
	if strings.EqualFold(params.SortOrder, "desc") {
		sortOrder = "DESC"
	}

	err := query.Scopes(Paginate(params.Pagination)).
		Order(sortBy + " " + sortOrder).
		Find(&products).Error

	return products, total, err
}

func (r *productRepository) GetLowStock(ctx context.Context) ([]entity.Product, error) {
	var products []entity.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND stock_qty <= low_stock_alert", true).
		Order("name ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepository) ListActive(ctx context.Context) ([]entity.Product, error) {
	var products []entity.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&products).Error
	return products, err
}

// AddStock atomically moves the materialized quantity.
// Uses: UPDATE products SET stock_qty = stock_qty + delta WHERE id = ? RETURNING stock_qty
func (r *productRepository) AddStock(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	var product entity.Product
	result := r.db.WithContext(ctx).Model(&product).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "stock_qty"}}}).
		Where("id = ?", id).
		Update("stock_qty", gorm.Expr("stock_qty + ?", delta))
	if err := affected(result); err != nil {
		return decimal.Zero, err
	}
	return product.StockQty, nil
}
