package service

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/sangkips/gst-billing/internal/domain/repository"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	detailSheet  = "Invoice Details"
	gstSheet     = "GST Report"
	dateLayout   = "2006-01-02"
	moneyFormat  = 4 // #,##0.00
)

// workbook wraps an excelize file with the styles the exports share
type workbook struct {
	f      *excelize.File
	header int
	title  int
	money  int
}

func newWorkbook(first string) (*workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", first); err != nil {
		f.Close()
		return nil, err
	}

	wb := &workbook{f: f}
	var err error
	if wb.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	}); err != nil {
		f.Close()
		return nil, err
	}
	if wb.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}); err != nil {
		f.Close()
		return nil, err
	}
	if wb.money, err = f.NewStyle(&excelize.Style{NumFmt: moneyFormat}); err != nil {
		f.Close()
		return nil, err
	}
	return wb, nil
}

// row writes values starting at column A of the given row
func (wb *workbook) row(sheet string, row int, values ...interface{}) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if d, ok := v.(decimal.Decimal); ok {
			if err := wb.f.SetCellValue(sheet, cell, d.InexactFloat64()); err != nil {
				return err
			}
			if err := wb.f.SetCellStyle(sheet, cell, cell, wb.money); err != nil {
				return err
			}
			continue
		}
		if err := wb.f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func (wb *workbook) headerRow(sheet string, row int, headers ...string) error {
	values := make([]interface{}, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := wb.row(sheet, row, values...); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), row)
	if err != nil {
		return err
	}
	return wb.f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), last, wb.header)
}

func (wb *workbook) titled(sheet, title, subtitle string) error {
	if err := wb.f.SetCellValue(sheet, "A1", title); err != nil {
		return err
	}
	if err := wb.f.SetCellStyle(sheet, "A1", "A1", wb.title); err != nil {
		return err
	}
	return wb.f.SetCellValue(sheet, "A2", subtitle)
}

func period(dates repository.DateRange) string {
	from, to := "start", "today"
	if !dates.From.IsZero() {
		from = dates.From.Format(dateLayout)
	}
	if !dates.To.IsZero() {
		to = dates.To.Format(dateLayout)
	}
	return "Period: " + from + " to " + to
}

// ExportSales writes the sales report of the range as an xlsx workbook with a
// Summary sheet and, when there are sales, an Invoice Details sheet.
func (s *ReportService) ExportSales(ctx context.Context, dates repository.DateRange, w io.Writer) error {
	report, err := s.Sales(ctx, dates)
	if err != nil {
		return err
	}

	wb, err := newWorkbook(summarySheet)
	if err != nil {
		return err
	}
	defer wb.f.Close()

	if err := wb.titled(summarySheet, s.opts.CompanyName+" - Sales Report", period(dates)); err != nil {
		return err
	}
	if err := wb.headerRow(summarySheet, 4, "Metric", "Value"); err != nil {
		return err
	}
	rows := [][]interface{}{
		{"Total Sales", report.TotalSales},
		{"Total Tax Collected", report.TotalTax},
		{"Total Discount", report.Discount},
		{"Amount Collected", report.AmountCollected},
		{"Outstanding", report.Outstanding},
		{"Invoice Count", report.InvoiceCount},
		{"Cancelled Invoices", report.CancelledCount},
	}
	r := 5
	for _, values := range rows {
		if err := wb.row(summarySheet, r, values...); err != nil {
			return err
		}
		r++
	}

	r++
	if err := wb.headerRow(summarySheet, r, "Payment Mode", "Amount"); err != nil {
		return err
	}
	modes := make([]string, 0, len(report.PaymentBreakdown))
	for mode := range report.PaymentBreakdown {
		modes = append(modes, mode)
	}
	sort.Strings(modes)
	for _, mode := range modes {
		r++
		if err := wb.row(summarySheet, r, mode, report.PaymentBreakdown[mode]); err != nil {
			return err
		}
	}
	if err := wb.f.SetColWidth(summarySheet, "A", "B", 24); err != nil {
		return err
	}

	if len(report.Invoices) > 0 {
		if _, err := wb.f.NewSheet(detailSheet); err != nil {
			return err
		}
		if err := wb.headerRow(detailSheet, 1,
			"Invoice No", "Date", "Customer", "Subtotal", "CGST", "SGST", "IGST", "Discount", "Grand Total", "Payment Mode", "Status",
		); err != nil {
			return err
		}
		for i, inv := range report.Invoices {
			customer := inv.CustomerName
			if customer == "" {
				customer = "Cash"
			}
			if err := wb.row(detailSheet, i+2,
				inv.InvoiceNumber,
				inv.InvoiceDate.Format(dateLayout),
				customer,
				inv.Subtotal,
				inv.CGSTTotal,
				inv.SGSTTotal,
				inv.IGSTTotal,
				inv.Discount,
				inv.GrandTotal,
				inv.PaymentMode.String(),
				inv.PaymentStatus.String(),
			); err != nil {
				return err
			}
		}
		if err := wb.f.SetColWidth(detailSheet, "A", "K", 16); err != nil {
			return err
		}
	}

	return wb.f.Write(w)
}

// ExportGST writes the GST summary of the range as an xlsx workbook
func (s *ReportService) ExportGST(ctx context.Context, dates repository.DateRange, w io.Writer) error {
	report, err := s.GSTSummary(ctx, dates)
	if err != nil {
		return err
	}

	wb, err := newWorkbook(gstSheet)
	if err != nil {
		return err
	}
	defer wb.f.Close()

	if err := wb.titled(gstSheet, s.opts.CompanyName+" - GST Report", period(dates)); err != nil {
		return err
	}
	if err := wb.headerRow(gstSheet, 4, "Description", "Amount"); err != nil {
		return err
	}
	rows := [][]interface{}{
		{"Total Taxable Value", report.TotalTaxable},
		{"Total CGST", report.TotalCGST},
		{"Total SGST", report.TotalSGST},
		{"Total IGST", report.TotalIGST},
		{"Total Tax Collected", report.TotalTax},
	}
	r := 5
	for _, values := range rows {
		if err := wb.row(gstSheet, r, values...); err != nil {
			return err
		}
		r++
	}

	r++
	if err := wb.headerRow(gstSheet, r, "GST Rate (%)", "Taxable Value", "CGST", "SGST", "IGST", "Total Tax"); err != nil {
		return err
	}
	for _, bucket := range report.RateWise {
		r++
		if err := wb.row(gstSheet, r,
			bucket.GSTRate.String()+"%",
			bucket.TaxableValue,
			bucket.CGST,
			bucket.SGST,
			bucket.IGST,
			bucket.TotalTax(),
		); err != nil {
			return err
		}
	}

	if cn := report.CreditNotes; cn != nil && cn.TotalCount > 0 {
		r += 2
		if err := wb.headerRow(gstSheet, r, "Credit Notes", "Amount"); err != nil {
			return err
		}
		for _, values := range [][]interface{}{
			{"Taxable Value", cn.Subtotal},
			{"CGST", cn.CGSTTotal},
			{"SGST", cn.SGSTTotal},
			{"IGST", cn.IGSTTotal},
			{"Total", cn.TotalValue},
		} {
			r++
			if err := wb.row(gstSheet, r, values...); err != nil {
				return err
			}
		}
	}

	if err := wb.f.SetColWidth(gstSheet, "A", "F", 20); err != nil {
		return err
	}
	return wb.f.Write(w)
}
