package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/domain/entity"
	"github.com/sangkips/gst-billing/internal/domain/repository"
	"github.com/sangkips/gst-billing/internal/domain/tax"
	"github.com/sangkips/gst-billing/pkg/apperror"
	"github.com/shopspring/decimal"
)

// ReportService provides read-only sales, tax and stock projections
type ReportService struct {
	store repository.Store
	opts  Options
}

// NewReportService creates a new report service
func NewReportService(store repository.Store, opts Options) *ReportService {
	return &ReportService{
		store: store,
		opts:  opts,
	}
}

// SalesReport aggregates the non-cancelled invoices of a date range
type SalesReport struct {
	From             time.Time                  `json:"from"`
	To               time.Time                  `json:"to"`
	InvoiceCount     int                        `json:"invoice_count"`
	CancelledCount   int                        `json:"cancelled_count"`
	Subtotal         decimal.Decimal            `json:"subtotal"`
	TotalTax         decimal.Decimal            `json:"total_tax"`
	Discount         decimal.Decimal            `json:"discount"`
	TotalSales       decimal.Decimal            `json:"total_sales"`
	AmountCollected  decimal.Decimal            `json:"amount_collected"`
	Outstanding      decimal.Decimal            `json:"outstanding"`
	PaymentBreakdown map[string]decimal.Decimal `json:"payment_breakdown"`

	Invoices []entity.Invoice `json:"-"`
}

// DailySales reports the sales of a single day. A zero day means today.
func (s *ReportService) DailySales(ctx context.Context, day time.Time) (*SalesReport, error) {
	if day.IsZero() {
		day = s.opts.Today()
	}
	day = DateOnly(day)
	return s.Sales(ctx, repository.DateRange{From: day, To: day})
}

// Sales reports the sales between two days, inclusive. Payment breakdown is
// keyed by each invoice's primary payment mode.
func (s *ReportService) Sales(ctx context.Context, dates repository.DateRange) (*SalesReport, error) {
	if err := checkRange(dates); err != nil {
		return nil, err
	}

	invoices, err := s.store.Invoices().ListByDateRange(ctx, dates)
	if err != nil {
		return nil, translate(err)
	}

	report := &SalesReport{
		From:             dates.From,
		To:               dates.To,
		Subtotal:         decimal.Zero,
		TotalTax:         decimal.Zero,
		Discount:         decimal.Zero,
		TotalSales:       decimal.Zero,
		AmountCollected:  decimal.Zero,
		Outstanding:      decimal.Zero,
		PaymentBreakdown: map[string]decimal.Decimal{},
		Invoices:         []entity.Invoice{},
	}
	for _, inv := range invoices {
		if inv.IsCancelled {
			report.CancelledCount++
			continue
		}
		report.InvoiceCount++
		report.Subtotal = report.Subtotal.Add(inv.Subtotal)
		report.TotalTax = report.TotalTax.Add(inv.TaxTotal())
		report.Discount = report.Discount.Add(inv.Discount)
		report.TotalSales = report.TotalSales.Add(inv.GrandTotal)
		report.AmountCollected = report.AmountCollected.Add(inv.AmountPaid)
		if inv.BalanceDue.IsPositive() {
			report.Outstanding = report.Outstanding.Add(inv.BalanceDue)
		}

		mode := inv.PaymentMode.String()
		if current, ok := report.PaymentBreakdown[mode]; ok {
			report.PaymentBreakdown[mode] = current.Add(inv.GrandTotal)
		} else {
			report.PaymentBreakdown[mode] = inv.GrandTotal
		}
		report.Invoices = append(report.Invoices, inv)
	}
	return report, nil
}

// GSTReport is the tax liability of a date range split by GST rate
type GSTReport struct {
	From         time.Time          `json:"from"`
	To           time.Time          `json:"to"`
	InvoiceCount int                `json:"invoice_count"`
	TotalTaxable decimal.Decimal    `json:"total_taxable"`
	TotalCGST    decimal.Decimal    `json:"total_cgst"`
	TotalSGST    decimal.Decimal    `json:"total_sgst"`
	TotalIGST    decimal.Decimal    `json:"total_igst"`
	TotalTax     decimal.Decimal    `json:"total_tax"`
	RateWise     []tax.RateSummary  `json:"rate_wise"`
	CreditNotes  *CreditNoteSummary `json:"credit_notes,omitempty"`
}

// GSTSummary groups the lines of every non-cancelled invoice in the range by
// GST rate. Credit notes raised in the same range are reported alongside so
// exporters can net them off.
func (s *ReportService) GSTSummary(ctx context.Context, dates repository.DateRange) (*GSTReport, error) {
	if err := checkRange(dates); err != nil {
		return nil, err
	}

	invoices, err := s.store.Invoices().ListByDateRange(ctx, dates)
	if err != nil {
		return nil, translate(err)
	}

	var lines []tax.LineTax
	count := 0
	for _, inv := range invoices {
		if inv.IsCancelled {
			continue
		}
		count++
		docLines := make([]entity.DocumentLine, len(inv.Items))
		for i, item := range inv.Items {
			docLines[i] = item.DocumentLine
		}
		lines = append(lines, lineTaxes(docLines)...)
	}

	report := &GSTReport{
		From:         dates.From,
		To:           dates.To,
		InvoiceCount: count,
		TotalTaxable: decimal.Zero,
		TotalCGST:    decimal.Zero,
		TotalSGST:    decimal.Zero,
		TotalIGST:    decimal.Zero,
		RateWise:     tax.SummarizeByRate(lines),
	}
	for _, bucket := range report.RateWise {
		report.TotalTaxable = report.TotalTaxable.Add(bucket.TaxableValue)
		report.TotalCGST = report.TotalCGST.Add(bucket.CGST)
		report.TotalSGST = report.TotalSGST.Add(bucket.SGST)
		report.TotalIGST = report.TotalIGST.Add(bucket.IGST)
	}
	report.TotalTax = report.TotalCGST.Add(report.TotalSGST).Add(report.TotalIGST)

	notes, err := s.store.CreditNotes().ListByDateRange(ctx, dates)
	if err != nil {
		return nil, translate(err)
	}
	report.CreditNotes = summarizeCreditNotes(notes)
	return report, nil
}

// TrendPoint is one day of the sales trend
type TrendPoint struct {
	Date  time.Time       `json:"date"`
	Count int             `json:"count"`
	Sales decimal.Decimal `json:"sales"`
	Tax   decimal.Decimal `json:"tax"`
}

// SalesTrend returns one point per day for the last days days, ending today.
// Days without sales are present with zero values.
func (s *ReportService) SalesTrend(ctx context.Context, days int) ([]TrendPoint, error) {
	if days < 1 || days > 366 {
		return nil, apperror.NewFieldValidationError("days", "days must be between 1 and 366")
	}

	today := s.opts.Today()
	from := today.AddDate(0, 0, -(days - 1))
	invoices, err := s.store.Invoices().ListByDateRange(ctx, repository.DateRange{From: from, To: today})
	if err != nil {
		return nil, translate(err)
	}

	points := make([]TrendPoint, days)
	index := make(map[time.Time]int, days)
	for i := range points {
		day := from.AddDate(0, 0, i)
		points[i] = TrendPoint{Date: day, Sales: decimal.Zero, Tax: decimal.Zero}
		index[day] = i
	}
	for _, inv := range invoices {
		if inv.IsCancelled {
			continue
		}
		i, ok := index[DateOnly(inv.InvoiceDate)]
		if !ok {
			continue
		}
		points[i].Count++
		points[i].Sales = points[i].Sales.Add(inv.GrandTotal)
		points[i].Tax = points[i].Tax.Add(inv.TaxTotal())
	}
	return points, nil
}

// StockLine is one product of the stock report
type StockLine struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	HSNCode   string          `json:"hsn_code,omitempty"`
	Unit      string          `json:"unit"`
	StockQty  decimal.Decimal `json:"stock_qty"`
	Price     decimal.Decimal `json:"price"`
	Value     decimal.Decimal `json:"value"`
	LowStock  bool            `json:"low_stock"`
}

// StockReport values the active catalog at selling price
type StockReport struct {
	Items         []StockLine     `json:"items"`
	ProductCount  int             `json:"product_count"`
	LowStockCount int             `json:"low_stock_count"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

// Stock builds the stock report over all active products, sorted by name
func (s *ReportService) Stock(ctx context.Context) (*StockReport, error) {
	products, err := s.store.Products().ListActive(ctx)
	if err != nil {
		return nil, translate(err)
	}

	report := &StockReport{Items: make([]StockLine, 0, len(products)), TotalValue: decimal.Zero}
	for i := range products {
		p := &products[i]
		line := StockLine{
			ProductID: p.ID,
			Name:      p.Name,
			HSNCode:   p.HSNCode,
			Unit:      p.Unit,
			StockQty:  p.StockQty,
			Price:     p.Price,
			Value:     p.StockValue(),
			LowStock:  p.IsLowStock(),
		}
		if line.LowStock {
			report.LowStockCount++
		}
		report.TotalValue = report.TotalValue.Add(line.Value)
		report.Items = append(report.Items, line)
	}
	report.ProductCount = len(report.Items)
	sort.SliceStable(report.Items, func(i, j int) bool {
		return report.Items[i].Name < report.Items[j].Name
	})
	return report, nil
}

func checkRange(dates repository.DateRange) error {
	if !dates.From.IsZero() && !dates.To.IsZero() && dates.To.Before(dates.From) {
		return apperror.NewFieldValidationError("to", "end date must not be before start date")
	}
	return nil
}
