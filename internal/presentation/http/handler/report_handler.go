package handler

import (
	"bytes"
	"context"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/gst-billing/internal/application/service"
	"github.com/sangkips/gst-billing/internal/domain/repository"
	"github.com/sangkips/gst-billing/internal/presentation/http/dto/request"
	"github.com/sangkips/gst-billing/internal/presentation/http/dto/response"
)

// ReportHandler serves sales, GST and stock reports
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Daily reports one day's sales, today by default
func (h *ReportHandler) Daily(c *gin.Context) {
	var req request.DayRequest
	if !bindQuery(c, &req) {
		return
	}
	day, err := req.Day()
	if err != nil {
		response.BadRequest(c, "Invalid date")
		return
	}

	report, err := h.reports.DailySales(c.Request.Context(), day)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Daily sales retrieved successfully", report)
}

func (h *ReportHandler) Sales(c *gin.Context) {
	dates, ok := dateRange(c)
	if !ok {
		return
	}

	report, err := h.reports.Sales(c.Request.Context(), dates)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sales report retrieved successfully", report)
}

// GST reports tax collected per rate with the period's credit notes alongside
func (h *ReportHandler) GST(c *gin.Context) {
	dates, ok := dateRange(c)
	if !ok {
		return
	}

	report, err := h.reports.GSTSummary(c.Request.Context(), dates)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "GST report retrieved successfully", report)
}

// Trend reports daily totals for the last days (default 7)
func (h *ReportHandler) Trend(c *gin.Context) {
	var req request.DaysRequest
	if !bindQuery(c, &req) {
		return
	}
	if req.Days == 0 {
		req.Days = 7
	}

	points, err := h.reports.SalesTrend(c.Request.Context(), req.Days)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sales trend retrieved successfully", points)
}

func (h *ReportHandler) Stock(c *gin.Context) {
	report, err := h.reports.Stock(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Stock report retrieved successfully", report)
}

// ExportSales downloads the sales report as a workbook
func (h *ReportHandler) ExportSales(c *gin.Context) {
	h.export(c, "sales", h.reports.ExportSales)
}

// ExportGST downloads the GST report as a workbook
func (h *ReportHandler) ExportGST(c *gin.Context) {
	h.export(c, "gst", h.reports.ExportGST)
}

type exporter func(ctx context.Context, dates repository.DateRange, w io.Writer) error

// export renders into memory first so a failure can still answer with JSON
func (h *ReportHandler) export(c *gin.Context, name string, render exporter) {
	dates, ok := dateRange(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := render(c.Request.Context(), dates, &buf); err != nil {
		response.Error(c, err)
		return
	}

	response.Attachment(c, exportName(name, dates), response.XLSXContentType, buf.Bytes())
}

func exportName(name string, dates repository.DateRange) string {
	if !dates.From.IsZero() {
		name += "-" + dates.From.Format(request.DateLayout)
	}
	if !dates.To.IsZero() {
		name += "-to-" + dates.To.Format(request.DateLayout)
	}
	return name + ".xlsx"
}

func dateRange(c *gin.Context) (repository.DateRange, bool) {
	var req request.DateRangeRequest
	if !bindQuery(c, &req) {
		return repository.DateRange{}, false
	}
	dates, err := req.Range()
	if err != nil {
		response.BadRequest(c, "Invalid date range")
		return repository.DateRange{}, false
	}
	return dates, true
}
