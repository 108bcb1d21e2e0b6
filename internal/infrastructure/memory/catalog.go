package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/domain/entity"
	"github.com/sangkips/gst-billing/internal/domain/repository"
	"github.com/sangkips/gst-billing/pkg/pagination"
	"github.com/shopspring/decimal"
)

type productRepository struct {
	s *Store
}

func (r *productRepository) Create(ctx context.Context, product *entity.Product) error {
	return r.s.view(func(d *data) error {
		newID(&product.ID)
		stamp(&product.CreatedAt, &product.UpdatedAt)
		if product.Barcode != nil && *product.Barcode != "" {
			for _, p := range d.products {
				if p.Barcode != nil && *p.Barcode == *product.Barcode {
					return repository.ErrDuplicate
				}
			}
		}
		d.products[product.ID] = *product
		return nil
	})
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	var out *entity.Product
	err := r.s.view(func(d *data) error {
		if p, ok := d.products[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *productRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Product, error) {
	products := []entity.Product{}
	err := r.s.view(func(d *data) error {
		for _, id := range ids {
			if p, ok := d.products[id]; ok {
				products = append(products, p)
			}
		}
		return nil
	})
	return products, err
}

func (r *productRepository) GetByBarcode(ctx context.Context, barcode string) (*entity.Product, error) {
	var out *entity.Product
	err := r.s.view(func(d *data) error {
		for _, p := range d.products {
			if p.Barcode != nil && *p.Barcode == barcode {
				out = &p
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *productRepository) Update(ctx context.Context, product *entity.Product) error {
	return r.s.view(func(d *data) error {
		current, ok := d.products[product.ID]
		if !ok {
			return repository.ErrNotFound
		}
		stamp(nil, &product.UpdatedAt)
		product.StockQty = current.StockQty
		product.CreatedAt = current.CreatedAt
		d.products[product.ID] = *product
		return nil
	})
}

func (r *productRepository) List(ctx context.Context, params *repository.ProductFilterParams) ([]entity.Product, int64, error) {
	var products []entity.Product
	err := r.s.view(func(d *data) error {
		for _, p := range d.products {
			if params.ActiveOnly && !p.IsActive {
				continue
			}
			if params.LowStock && !p.IsLowStock() {
				continue
			}
			if params.Search != "" {
				barcode := ""
				if p.Barcode != nil {
					barcode = *p.Barcode
				}
				if !containsFold(p.Name, params.Search) && !containsFold(barcode, params.Search) && !containsFold(p.HSNCode, params.Search) {
					continue
				}
			}
			products = append(products, p)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(products, func(i, j int) bool {
		return products[i].Name < products[j].Name
	})
	return page(products, params.Pagination)
}

func (r *productRepository) GetLowStock(ctx context.Context) ([]entity.Product, error) {
	products, _, err := r.List(ctx, &repository.ProductFilterParams{ActiveOnly: true, LowStock: true})
	return products, err
}

func (r *productRepository) ListActive(ctx context.Context) ([]entity.Product, error) {
	products, _, err := r.List(ctx, &repository.ProductFilterParams{ActiveOnly: true})
	return products, err
}

func (r *productRepository) AddStock(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	var qty decimal.Decimal
	err := r.s.view(func(d *data) error {
		p, ok := d.products[id]
		if !ok {
			return repository.ErrNotFound
		}
		p.StockQty = p.StockQty.Add(delta)
		stamp(nil, &p.UpdatedAt)
		d.products[id] = p
		qty = p.StockQty
		return nil
	})
	return qty, err
}

type customerRepository struct {
	s *Store
}

func (r *customerRepository) Create(ctx context.Context, customer *entity.Customer) error {
	return r.s.view(func(d *data) error {
		newID(&customer.ID)
		stamp(&customer.CreatedAt, &customer.UpdatedAt)
		d.customers[customer.ID] = *customer
		return nil
	})
}

func (r *customerRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	var out *entity.Customer
	err := r.s.view(func(d *data) error {
		if c, ok := d.customers[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *customerRepository) Update(ctx context.Context, customer *entity.Customer) error {
	return r.s.view(func(d *data) error {
		current, ok := d.customers[customer.ID]
		if !ok {
			return repository.ErrNotFound
		}
		stamp(nil, &customer.UpdatedAt)
		customer.CreditBalance = current.CreditBalance
		customer.CreatedAt = current.CreatedAt
		d.customers[customer.ID] = *customer
		return nil
	})
}

func (r *customerRepository) List(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.Customer, int64, error) {
	var customers []entity.Customer
	err := r.s.view(func(d *data) error {
		for _, c := range d.customers {
			if search != "" && !containsFold(c.Name, search) && !containsFold(c.Phone, search) && !containsFold(c.GSTIN, search) {
				continue
			}
			customers = append(customers, c)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(customers, func(i, j int) bool {
		return customers[i].Name < customers[j].Name
	})
	return page(customers, params)
}

func (r *customerRepository) AdjustCredit(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	return r.s.view(func(d *data) error {
		c, ok := d.customers[id]
		if !ok {
			return repository.ErrNotFound
		}
		c.CreditBalance = c.CreditBalance.Add(delta)
		stamp(nil, &c.UpdatedAt)
		d.customers[id] = c
		return nil
	})
}

// page applies page-based pagination to an already filtered and sorted slice.
// A nil params returns everything.
func page[T any](items []T, params *pagination.PaginationParams) ([]T, int64, error) {
	total := int64(len(items))
	if params == nil {
		if items == nil {
			items = []T{}
		}
		return items, total, nil
	}
	params.Validate()
	start, end := params.Window(len(items))
	return append([]T{}, items[start:end]...), total, nil
}
