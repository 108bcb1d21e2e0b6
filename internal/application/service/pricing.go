package service

import (
	"github.com/sangkips/gst-billing/internal/domain/entity"
	"github.com/sangkips/gst-billing/internal/domain/tax"
	"github.com/shopspring/decimal"
)

// buyerState resolves the place of supply; a cash sale is taxed as intra-state
func buyerState(seller string, customer *entity.Customer) string {
	if customer == nil || customer.StateCode == "" {
		return seller
	}
	return customer.StateCode
}

// price runs the tax calculator over lines and writes the derived amounts back
func price(lines []entity.DocumentLine, seller, buyer string, discount decimal.Decimal) (tax.Breakdown, []entity.DocumentLine) {
	inputs := make([]tax.Line, len(lines))
	for i, l := range lines {
		inputs[i] = tax.Line{Quantity: l.Quantity, Rate: l.Rate, GSTRate: l.GSTRate}
	}
	b := tax.Compute(inputs, seller, buyer, discount)

	priced := make([]entity.DocumentLine, len(lines))
	for i, l := range lines {
		lt := b.Lines[i]
		l.TaxableValue = lt.Taxable
		l.CGST = lt.CGST
		l.SGST = lt.SGST
		l.IGST = lt.IGST
		l.Total = lt.Total
		priced[i] = l
	}
	return b, priced
}

func totals(b tax.Breakdown) entity.DocumentTotals {
	return entity.DocumentTotals{
		Subtotal:   b.Subtotal,
		CGSTTotal:  b.CGSTTotal,
		SGSTTotal:  b.SGSTTotal,
		IGSTTotal:  b.IGSTTotal,
		GrandTotal: b.GrandTotal,
	}
}

// lineTaxes projects stored lines back into calculator output for summaries
func lineTaxes(lines []entity.DocumentLine) []tax.LineTax {
	out := make([]tax.LineTax, len(lines))
	for i, l := range lines {
		out[i] = tax.LineTax{
			GSTRate: l.GSTRate,
			Taxable: l.TaxableValue,
			CGST:    l.CGST,
			SGST:    l.SGST,
			IGST:    l.IGST,
			Total:   l.Total,
		}
	}
	return out
}
