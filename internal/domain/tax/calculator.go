// Package tax implements the GST split for Indian intra-state and inter-state
// sales. All functions are pure and safe for concurrent use.
package tax

import (
	"github.com/shopspring/decimal"
)

var (
	hundred    = decimal.NewFromInt(100)
	twoHundred = decimal.NewFromInt(200)
)

// Line is one priced cart line
type Line struct {
	Quantity decimal.Decimal
	Rate     decimal.Decimal
	GSTRate  decimal.Decimal
}

// LineTax is the computed tax split of a single line
type LineTax struct {
	GSTRate decimal.Decimal `json:"gst_rate"`
	Taxable decimal.Decimal `json:"taxable_value"`
	CGST    decimal.Decimal `json:"cgst"`
	SGST    decimal.Decimal `json:"sgst"`
	IGST    decimal.Decimal `json:"igst"`
	Total   decimal.Decimal `json:"total"`
}

// Tax returns the sum of the line's tax components
func (l LineTax) Tax() decimal.Decimal {
	return l.CGST.Add(l.SGST).Add(l.IGST)
}

// Breakdown is the per-line and aggregate result of Compute
type Breakdown struct {
	InterState bool            `json:"inter_state"`
	Lines      []LineTax       `json:"lines"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	CGSTTotal  decimal.Decimal `json:"cgst_total"`
	SGSTTotal  decimal.Decimal `json:"sgst_total"`
	IGSTTotal  decimal.Decimal `json:"igst_total"`
	Discount   decimal.Decimal `json:"discount"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// TaxTotal returns the aggregate of all tax components
func (b Breakdown) TaxTotal() decimal.Decimal {
	return b.CGSTTotal.Add(b.SGSTTotal).Add(b.IGSTTotal)
}

// IsInterState reports whether a sale crosses state lines. An empty buyer
// state is a cash sale and always intra-state.
func IsInterState(sellerState, buyerState string) bool {
	return buyerState != "" && buyerState != sellerState
}

// Round2 rounds half away from zero to two decimals, which is half-up for
// the non-negative amounts billing deals in.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ComputeLine splits the tax of one line. Taxable value is rounded before the
// tax is derived from it.
func ComputeLine(line Line, interState bool) LineTax {
	taxable := Round2(line.Quantity.Mul(line.Rate))
	lt := LineTax{
		GSTRate: line.GSTRate,
		Taxable: taxable,
		CGST:    decimal.Zero,
		SGST:    decimal.Zero,
		IGST:    decimal.Zero,
	}
	if interState {
		lt.IGST = Round2(taxable.Mul(line.GSTRate).Div(hundred))
	} else {
		half := Round2(taxable.Mul(line.GSTRate).Div(twoHundred))
		lt.CGST = half
		lt.SGST = half
	}
	lt.Total = lt.Taxable.Add(lt.Tax())
	return lt
}

// Compute runs the tax split over all lines and subtracts a flat discount
// from the post-tax sum. Totals are sums of already rounded line values.
func Compute(lines []Line, sellerState, buyerState string, discount decimal.Decimal) Breakdown {
	interState := IsInterState(sellerState, buyerState)
	b := Breakdown{
		InterState: interState,
		Lines:      make([]LineTax, 0, len(lines)),
		Subtotal:   decimal.Zero,
		CGSTTotal:  decimal.Zero,
		SGSTTotal:  decimal.Zero,
		IGSTTotal:  decimal.Zero,
		Discount:   Round2(discount),
	}
	for _, line := range lines {
		lt := ComputeLine(line, interState)
		b.Lines = append(b.Lines, lt)
		b.Subtotal = b.Subtotal.Add(lt.Taxable)
		b.CGSTTotal = b.CGSTTotal.Add(lt.CGST)
		b.SGSTTotal = b.SGSTTotal.Add(lt.SGST)
		b.IGSTTotal = b.IGSTTotal.Add(lt.IGST)
	}
	b.GrandTotal = b.Subtotal.Add(b.TaxTotal()).Sub(b.Discount)
	return b
}
