package app

import (
	"context"

	"github.com/sangkips/gst-billing/internal/application/service"
	"github.com/sangkips/gst-billing/pkg/apperror"
	"github.com/sangkips/gst-billing/pkg/logger"
	"github.com/sangkips/gst-billing/pkg/pagination"
	"github.com/shopspring/decimal"
)

// SeedResult counts the records created by Seed
type SeedResult struct {
	Products  int `json:"products"`
	Customers int `json:"customers"`
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var seedProducts = []service.CreateProductInput{
	{Name: "Basmati Rice 5kg", Barcode: "8901000000011", HSNCode: "1006", Unit: "BAG", Price: dec("650"), PurchasePrice: dec("540"), GSTRate: dec("5"), OpeningStock: dec("40"), LowStockAlert: dec("10")},
	{Name: "Toned Milk 1L", Barcode: "8901000000028", HSNCode: "0401", Unit: "LTR", Price: dec("56"), PurchasePrice: dec("50"), GSTRate: dec("0"), OpeningStock: dec("60"), LowStockAlert: dec("20")},
	{Name: "Bath Soap 100g", Barcode: "8901000000035", HSNCode: "3401", Unit: "PCS", Price: dec("45"), PurchasePrice: dec("36"), GSTRate: dec("18"), OpeningStock: dec("120"), LowStockAlert: dec("24")},
	{Name: "Ballpoint Pen", Barcode: "8901000000042", HSNCode: "9608", Unit: "PCS", Price: dec("10"), PurchasePrice: dec("7"), GSTRate: dec("12"), OpeningStock: dec("200"), LowStockAlert: dec("50")},
	{Name: "Aerated Drink 750ml", Barcode: "8901000000059", HSNCode: "2202", Unit: "BTL", Price: dec("40"), PurchasePrice: dec("30"), GSTRate: dec("28"), OpeningStock: dec("48"), LowStockAlert: dec("12")},
}

var seedCustomers = []service.CreateCustomerInput{
	{Name: "Walk-in Regular", Phone: "9876543210"},
	{Name: "Kerala Traders", GSTIN: "32AABCT1332L1ZU", Address: "MG Road, Kochi", CreditLimit: dec("50000")},
	{Name: "Karnataka Wholesale", GSTIN: "29AAGCB7383J1Z4", Address: "Residency Road, Bengaluru", CreditLimit: dec("100000")},
}

// Seed loads a sample catalog and customer list. Products whose barcode
// already exists are skipped; customers are only seeded into an empty store.
func Seed(ctx context.Context, s *Services) (*SeedResult, error) {
	log := logger.WithComponent("seed")
	result := &SeedResult{}

	for i := range seedProducts {
		input := seedProducts[i]
		if _, err := s.Products.CreateProduct(ctx, &input); err != nil {
			if apperror.IsKind(err, apperror.KindConflict) {
				log.Debug().Str("barcode", input.Barcode).Msg("product exists, skipping")
				continue
			}
			return result, err
		}
		result.Products++
	}

	existing, err := s.Customers.ListCustomers(ctx, &pagination.PaginationParams{Page: 1, PerPage: 1}, "")
	if err != nil {
		return result, err
	}
	if existing.Pagination.Total > 0 {
		log.Info().Int64("customers", existing.Pagination.Total).Msg("customers present, skipping")
		return result, nil
	}
	for i := range seedCustomers {
		input := seedCustomers[i]
		if _, err := s.Customers.CreateCustomer(ctx, &input); err != nil {
			return result, err
		}
		result.Customers++
	}

	log.Info().Int("products", result.Products).Int("customers", result.Customers).Msg("seed complete")
	return result, nil
}
