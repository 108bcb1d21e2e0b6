package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/application/service"
	"github.com/sangkips/gst-billing/internal/presentation/http/dto/request"
	"github.com/sangkips/gst-billing/internal/presentation/http/dto/response"
)

// PaymentHandler exposes the payment ledger
type PaymentHandler struct {
	payments *service.PaymentLedger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(payments *service.PaymentLedger) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Record appends one payment to an invoice
func (h *PaymentHandler) Record(c *gin.Context) {
	id, ok := pathID(c, "id", "invoice")
	if !ok {
		return
	}

	var req request.RecordPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	invoice, err := h.payments.RecordPayment(c.Request.Context(), req.Input(id))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Payment recorded successfully", invoice)
}

// RecordSplit appends several tenders at once. Zero amounts are skipped.
func (h *PaymentHandler) RecordSplit(c *gin.Context) {
	id, ok := pathID(c, "id", "invoice")
	if !ok {
		return
	}

	var req request.SplitPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	invoice, err := h.payments.RecordSplitPayments(c.Request.Context(), id, req.Payments, req.Date)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Payments recorded successfully", invoice)
}

// History lists an invoice's payments
func (h *PaymentHandler) History(c *gin.Context) {
	id, ok := pathID(c, "id", "invoice")
	if !ok {
		return
	}

	payments, err := h.payments.History(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payments retrieved successfully", payments)
}

// Delete removes a payment and recomputes its invoice
func (h *PaymentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id", "payment")
	if !ok {
		return
	}

	invoice, err := h.payments.DeletePayment(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment deleted successfully", invoice)
}

// Outstanding lists invoices with a balance due, optionally for one customer
func (h *PaymentHandler) Outstanding(c *gin.Context) {
	var customerID *uuid.UUID
	if raw := c.Query("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "Invalid customer ID")
			return
		}
		customerID = &id
	}

	invoices, err := h.payments.Outstanding(c.Request.Context(), customerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Outstanding invoices retrieved successfully", invoices)
}

// Summary totals payments by mode over a date range
func (h *PaymentHandler) Summary(c *gin.Context) {
	var req request.DateRangeRequest
	if !bindQuery(c, &req) {
		return
	}
	dates, err := req.Range()
	if err != nil {
		response.BadRequest(c, "Invalid date range")
		return
	}

	summary, err := h.payments.Summary(c.Request.Context(), dates)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment summary retrieved successfully", summary)
}
