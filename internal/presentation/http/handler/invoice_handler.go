package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/gst-billing/internal/application/service"
	"github.com/sangkips/gst-billing/internal/presentation/http/dto/request"
	"github.com/sangkips/gst-billing/internal/presentation/http/dto/response"
	"github.com/sangkips/gst-billing/pkg/apperror"
)

// InvoiceHandler handles invoice-related HTTP requests
type InvoiceHandler struct {
	invoiceService *service.InvoiceService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoiceService *service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// Create handles checkout of a cart into an invoice
// @Summary Create Invoice
// @Description Price the cart, deduct stock and record the payment
// @Tags invoices
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param Idempotency-Key header string true "Idempotency key"
// @Success 201 {object} response.APIResponse
// @Router /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	var input service.CreateInvoiceInput
	if !bindJSON(c, &input) {
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Invoice created successfully", invoice)
}

// List handles listing invoices
// @Summary List Invoices
// @Tags invoices
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number"
// @Param per_page query int false "Items per page"
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day (YYYY-MM-DD)"
// @Param payment_status query string false "UNPAID, PARTIAL or PAID"
// @Success 200 {object} response.APIResponse
// @Router /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	var req request.InvoiceFilterRequest
	if !bindQuery(c, &req) {
		return
	}
	params, err := req.Filter()
	if err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.invoiceService.ListInvoices(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, "Invoices retrieved successfully", result)
}

// Get handles getting a single invoice with its lines and payments
// @Summary Get Invoice
// @Tags invoices
// @Security BearerAuth
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} response.APIResponse
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", "invoice")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice retrieved successfully", invoice)
}

// GetByNumber looks an invoice up by its document number. The number is
// passed as a query parameter because it contains slashes.
func (h *InvoiceHandler) GetByNumber(c *gin.Context) {
	number := c.Query("number")
	if number == "" {
		response.BadRequest(c, "number is required")
		return
	}

	invoice, err := h.invoiceService.GetInvoiceByNumber(c.Request.Context(), number)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice retrieved successfully", invoice)
}

// Cancel handles cancelling an invoice
// @Summary Cancel Invoice
// @Description Marks the invoice cancelled and restores its stock. Cancelling twice is a 409.
// @Tags invoices
// @Security BearerAuth
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /invoices/{id}/cancel [post]
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "id", "invoice")
	if !ok {
		return
	}

	if _, err := h.invoiceService.GetInvoice(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	cancelled, err := h.invoiceService.CancelInvoice(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !cancelled {
		response.Error(c, apperror.NewStateConflictError("Invoice is already cancelled"))
		return
	}

	response.OK(c, "Invoice cancelled successfully", gin.H{"cancelled": true})
}

// TaxSummary returns the per-rate tax breakdown of an invoice
func (h *InvoiceHandler) TaxSummary(c *gin.Context) {
	id, ok := pathID(c, "id", "invoice")
	if !ok {
		return
	}

	summary, err := h.invoiceService.TaxSummary(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Tax summary retrieved successfully", summary)
}

// NextNumber previews the next invoice number without reserving it
func (h *InvoiceHandler) NextNumber(c *gin.Context) {
	number, err := h.invoiceService.NextInvoiceNumber(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Next invoice number", gin.H{"number": number})
}
