package tax

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func TestCompute_IntraState(t *testing.T) {
	b := Compute([]Line{{Quantity: d("2"), Rate: d("1000"), GSTRate: d("18")}}, "32", "32", decimal.Zero)

	require.Len(t, b.Lines, 1)
	assert.False(t, b.InterState)
	assertAmount(t, "2000", b.Lines[0].Taxable, "taxable")
	assertAmount(t, "180", b.CGSTTotal, "cgst")
	assertAmount(t, "180", b.SGSTTotal, "sgst")
	assertAmount(t, "0", b.IGSTTotal, "igst")
	assertAmount(t, "2360", b.GrandTotal, "grand total")
}

func TestCompute_InterState(t *testing.T) {
	b := Compute([]Line{{Quantity: d("2"), Rate: d("1000"), GSTRate: d("18")}}, "32", "33", decimal.Zero)

	assert.True(t, b.InterState)
	assertAmount(t, "2000", b.Subtotal, "taxable")
	assertAmount(t, "360", b.IGSTTotal, "igst")
	assertAmount(t, "0", b.CGSTTotal, "cgst")
	assertAmount(t, "0", b.SGSTTotal, "sgst")
	assertAmount(t, "2360", b.GrandTotal, "grand total")
}

func TestCompute_CashSaleIsIntraState(t *testing.T) {
	b := Compute([]Line{{Quantity: d("1"), Rate: d("100"), GSTRate: d("12")}}, "32", "", decimal.Zero)
	assert.False(t, b.InterState)
	assertAmount(t, "6", b.CGSTTotal, "cgst")
	assertAmount(t, "6", b.SGSTTotal, "sgst")
}

func TestCompute_DiscountAppliedAfterTax(t *testing.T) {
	b := Compute([]Line{{Quantity: d("1"), Rate: d("1000"), GSTRate: d("18")}}, "32", "32", d("50"))
	assertAmount(t, "90", b.CGSTTotal, "cgst")
	assertAmount(t, "1130", b.GrandTotal, "grand total")
	assertAmount(t, "50", b.Discount, "discount")
}

func TestComputeLine_RoundsHalfUpPerLine(t *testing.T) {
	tests := []struct {
		name       string
		line       Line
		interState bool
		taxable    string
		cgst       string
		igst       string
	}{
		{"taxable rounds up", Line{d("1"), d("0.125"), d("0")}, false, "0.13", "0", "0"},
		{"half cgst rounds up", Line{d("1"), d("0.30"), d("5")}, false, "0.3", "0.01", "0"},
		{"igst rounds up", Line{d("1"), d("0.10"), d("5")}, true, "0.1", "0", "0.01"},
		{"fractional quantity", Line{d("1.5"), d("33.33"), d("12")}, false, "50", "3", "0"},
		{"zero rate", Line{d("3"), d("10"), d("0")}, true, "30", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lt := ComputeLine(tt.line, tt.interState)
			assertAmount(t, tt.taxable, lt.Taxable, "taxable")
			assertAmount(t, tt.cgst, lt.CGST, "cgst")
			assertAmount(t, tt.cgst, lt.SGST, "sgst")
			assertAmount(t, tt.igst, lt.IGST, "igst")
		})
	}
}

func TestCompute_SplitAndConservationProperties(t *testing.T) {
	quantities := []string{"1", "2", "3.5", "7", "0.333"}
	rates := []string{"9.99", "100", "1234.56", "0.05", "49.5"}
	states := []string{"32", "33", ""}

	for _, gst := range Rates {
		for _, q := range quantities {
			for _, r := range rates {
				for _, buyer := range states {
					line := Line{Quantity: d(q), Rate: d(r), GSTRate: decimal.NewFromInt(gst)}
					b := Compute([]Line{line, line}, "32", buyer, d("1.10"))
					for _, lt := range b.Lines {
						rate := decimal.NewFromInt(gst)
						if b.InterState {
							assert.True(t, lt.IGST.Equal(lt.Taxable.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)))
							assert.True(t, lt.CGST.IsZero() && lt.SGST.IsZero())
						} else {
							half := lt.Taxable.Mul(rate).Div(decimal.NewFromInt(200)).Round(2)
							assert.True(t, lt.CGST.Equal(half) && lt.SGST.Equal(half))
							assert.True(t, lt.IGST.IsZero())
						}
					}
					want := b.Subtotal.Add(b.CGSTTotal).Add(b.SGSTTotal).Add(b.IGSTTotal).Sub(b.Discount)
					assert.True(t, want.Equal(b.GrandTotal))
				}
			}
		}
	}
}

func TestSummarizeByRate(t *testing.T) {
	b := Compute([]Line{
		{Quantity: d("1"), Rate: d("100"), GSTRate: d("18")},
		{Quantity: d("2"), Rate: d("50"), GSTRate: d("5")},
		{Quantity: d("1"), Rate: d("200"), GSTRate: d("18")},
	}, "32", "32", decimal.Zero)

	summary := SummarizeByRate(b.Lines)
	require.Len(t, summary, 2)
	assertAmount(t, "5", summary[0].GSTRate, "first bucket rate")
	assertAmount(t, "100", summary[0].TaxableValue, "5% taxable")
	assertAmount(t, "2.5", summary[0].CGST, "5% cgst")
	assertAmount(t, "18", summary[1].GSTRate, "second bucket rate")
	assertAmount(t, "300", summary[1].TaxableValue, "18% taxable")
	assertAmount(t, "27", summary[1].SGST, "18% sgst")
	assertAmount(t, "54", summary[1].TotalTax(), "18% tax")
}

func TestIsValidRate(t *testing.T) {
	assert.True(t, IsValidRate(d("28")))
	assert.True(t, IsValidRate(d("0")))
	assert.False(t, IsValidRate(d("7")))
}
