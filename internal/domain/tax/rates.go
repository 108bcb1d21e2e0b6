package tax

import "github.com/shopspring/decimal"

// Rates lists the GST slabs a product may carry
var Rates = []int64{0, 5, 12, 18, 28}

// IsValidRate reports whether r is one of the GST slabs
func IsValidRate(r decimal.Decimal) bool {
	for _, rate := range Rates {
		if r.Equal(decimal.NewFromInt(rate)) {
			return true
		}
	}
	return false
}
