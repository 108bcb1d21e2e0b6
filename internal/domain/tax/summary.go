package tax

import (
	"sort"

	"github.com/shopspring/decimal"
)

// RateSummary is one GST rate bucket of the tax summary projection
type RateSummary struct {
	GSTRate      decimal.Decimal `json:"gst_rate"`
	TaxableValue decimal.Decimal `json:"taxable_value"`
	CGST         decimal.Decimal `json:"cgst"`
	SGST         decimal.Decimal `json:"sgst"`
	IGST         decimal.Decimal `json:"igst"`
}

// TotalTax returns the bucket's combined tax
func (r RateSummary) TotalTax() decimal.Decimal {
	return r.CGST.Add(r.SGST).Add(r.IGST)
}

// SummarizeByRate groups line taxes by GST rate, rounds each bucket and
// returns them in ascending rate order.
func SummarizeByRate(lines []LineTax) []RateSummary {
	buckets := make(map[string]*RateSummary)
	for _, l := range lines {
		key := l.GSTRate.String()
		b, ok := buckets[key]
		if !ok {
			b = &RateSummary{
				GSTRate:      l.GSTRate,
				TaxableValue: decimal.Zero,
				CGST:         decimal.Zero,
				SGST:         decimal.Zero,
				IGST:         decimal.Zero,
			}
			buckets[key] = b
		}
		b.TaxableValue = b.TaxableValue.Add(l.Taxable)
		b.CGST = b.CGST.Add(l.CGST)
		b.SGST = b.SGST.Add(l.SGST)
		b.IGST = b.IGST.Add(l.IGST)
	}

	result := make([]RateSummary, 0, len(buckets))
	for _, b := range buckets {
		result = append(result, RateSummary{
			GSTRate:      b.GSTRate,
			TaxableValue: Round2(b.TaxableValue),
			CGST:         Round2(b.CGST),
			SGST:         Round2(b.SGST),
			IGST:         Round2(b.IGST),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].GSTRate.LessThan(result[j].GSTRate)
	})
	return result
}
