package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/gst-billing/internal/application/service"
	"github.com/sangkips/gst-billing/internal/domain/enum"
	"github.com/sangkips/gst-billing/internal/presentation/http/dto/request"
	"github.com/sangkips/gst-billing/internal/presentation/http/dto/response"
)

// QuotationHandler handles quotation-related HTTP requests
type QuotationHandler struct {
	quotationService *service.QuotationService
}

// NewQuotationHandler creates a new quotation handler
func NewQuotationHandler(quotationService *service.QuotationService) *QuotationHandler {
	return &QuotationHandler{quotationService: quotationService}
}

// List handles listing quotations
// @Summary List Quotations
// @Description Get all quotations with pagination and filtering
// @Tags quotations
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number"
// @Param per_page query int false "Items per page"
// @Param search query string false "Search term"
// @Param status query string false "Status filter"
// @Success 200 {object} response.APIResponse
// @Router /quotations [get]
func (h *QuotationHandler) List(c *gin.Context) {
	var req request.QuotationFilterRequest
	if !bindQuery(c, &req) {
		return
	}
	params, err := req.Filter()
	if err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.quotationService.ListQuotations(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, "Quotations retrieved successfully", result)
}

// Get handles getting a single quotation
// @Summary Get Quotation
// @Description Get a quotation by ID
// @Tags quotations
// @Security BearerAuth
// @Produce json
// @Param id path string true "Quotation ID"
// @Success 200 {object} response.APIResponse
// @Router /quotations/{id} [get]
func (h *QuotationHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", "quotation")
	if !ok {
		return
	}

	quotation, err := h.quotationService.GetQuotation(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Quotation retrieved successfully", quotation)
}

// Create handles creating a new quotation
// @Summary Create Quotation
// @Tags quotations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Success 201 {object} response.APIResponse
// @Router /quotations [post]
func (h *QuotationHandler) Create(c *gin.Context) {
	var input service.CreateQuotationInput
	if !bindJSON(c, &input) {
		return
	}

	quotation, err := h.quotationService.CreateQuotation(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Quotation created successfully", quotation)
}

// Update handles replacing an open quotation's header and lines
// @Summary Update Quotation
// @Tags quotations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Quotation ID"
// @Success 200 {object} response.APIResponse
// @Router /quotations/{id} [put]
func (h *QuotationHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id", "quotation")
	if !ok {
		return
	}

	var input service.UpdateQuotationInput
	if !bindJSON(c, &input) {
		return
	}
	input.ID = id

	quotation, err := h.quotationService.UpdateQuotation(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Quotation updated successfully", quotation)
}

// UpdateStatus moves a quotation along its status table
func (h *QuotationHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id", "quotation")
	if !ok {
		return
	}

	var req request.QuotationStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	status, err := enum.ParseQuotationStatus(req.Status)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	quotation, err := h.quotationService.UpdateQuotationStatus(c.Request.Context(), id, status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Quotation status updated successfully", quotation)
}

// Convert turns a quotation into an invoice at its quoted prices
// @Summary Convert Quotation
// @Tags quotations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Quotation ID"
// @Success 201 {object} response.APIResponse
// @Router /quotations/{id}/convert [post]
func (h *QuotationHandler) Convert(c *gin.Context) {
	id, ok := pathID(c, "id", "quotation")
	if !ok {
		return
	}

	var input service.ConvertQuotationInput
	if c.Request.ContentLength > 0 && !bindJSON(c, &input) {
		return
	}

	invoice, err := h.quotationService.ConvertToInvoice(c.Request.Context(), id, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Quotation converted successfully", invoice)
}

func (h *QuotationHandler) Duplicate(c *gin.Context) {
	id, ok := pathID(c, "id", "quotation")
	if !ok {
		return
	}

	quotation, err := h.quotationService.DuplicateQuotation(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Quotation duplicated successfully", quotation)
}

// Expire marks every lapsed open quotation EXPIRED
func (h *QuotationHandler) Expire(c *gin.Context) {
	expired, err := h.quotationService.CheckExpired(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Expired quotations updated", expired)
}

func (h *QuotationHandler) Pending(c *gin.Context) {
	pending, err := h.quotationService.Pending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Pending quotations retrieved successfully", pending)
}

// ExpiringSoon lists open quotations lapsing within the next days (default 7)
func (h *QuotationHandler) ExpiringSoon(c *gin.Context) {
	var req request.DaysRequest
	if !bindQuery(c, &req) {
		return
	}
	if req.Days == 0 {
		req.Days = 7
	}

	quotations, err := h.quotationService.ExpiringSoon(c.Request.Context(), req.Days)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Expiring quotations retrieved successfully", quotations)
}

func (h *QuotationHandler) Summary(c *gin.Context) {
	var req request.DateRangeRequest
	if !bindQuery(c, &req) {
		return
	}
	dates, err := req.Range()
	if err != nil {
		response.BadRequest(c, "Invalid date range")
		return
	}

	summary, err := h.quotationService.Summary(c.Request.Context(), dates)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Quotation summary retrieved successfully", summary)
}

// NextNumber previews the next quotation number
func (h *QuotationHandler) NextNumber(c *gin.Context) {
	number, err := h.quotationService.NextQuotationNumber(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Next quotation number", gin.H{"number": number})
}
