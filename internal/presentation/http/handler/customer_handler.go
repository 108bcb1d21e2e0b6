package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/gst-billing/internal/application/service"
	"github.com/sangkips/gst-billing/internal/presentation/http/dto/request"
	"github.com/sangkips/gst-billing/internal/presentation/http/dto/response"
)

// CustomerHandler handles customer-related HTTP requests
type CustomerHandler struct {
	customerService *service.CustomerService
	creditNotes     *service.CreditNoteService
	payments        *service.PaymentLedger
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(
	customerService *service.CustomerService,
	creditNotes *service.CreditNoteService,
	payments *service.PaymentLedger,
) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		creditNotes:     creditNotes,
		payments:        payments,
	}
}

// List handles listing customers
func (h *CustomerHandler) List(c *gin.Context) {
	var req request.SearchRequest
	if !bindQuery(c, &req) {
		return
	}

	result, err := h.customerService.ListCustomers(c.Request.Context(), req.Params(), req.Search)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, "Customers retrieved successfully", result)
}

// Create handles creating a customer
func (h *CustomerHandler) Create(c *gin.Context) {
	var input service.CreateCustomerInput
	if !bindJSON(c, &input) {
		return
	}

	customer, err := h.customerService.CreateCustomer(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Customer created successfully", customer)
}

// Get handles getting a single customer
func (h *CustomerHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", "customer")
	if !ok {
		return
	}

	customer, err := h.customerService.GetCustomer(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Customer retrieved successfully", customer)
}

// Update handles updating a customer
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id", "customer")
	if !ok {
		return
	}

	var input service.UpdateCustomerInput
	if !bindJSON(c, &input) {
		return
	}
	input.ID = id

	customer, err := h.customerService.UpdateCustomer(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Customer updated successfully", customer)
}

// CreditNotes lists the credit notes issued to a customer
func (h *CustomerHandler) CreditNotes(c *gin.Context) {
	id, ok := pathID(c, "id", "customer")
	if !ok {
		return
	}

	notes, err := h.creditNotes.ListByCustomer(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Credit notes retrieved successfully", notes)
}

// Outstanding lists a customer's invoices that still owe money
func (h *CustomerHandler) Outstanding(c *gin.Context) {
	id, ok := pathID(c, "id", "customer")
	if !ok {
		return
	}

	invoices, err := h.payments.Outstanding(c.Request.Context(), &id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Outstanding invoices retrieved successfully", invoices)
}
