package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/gst-billing/internal/application/service"
	"github.com/sangkips/gst-billing/internal/presentation/http/dto/request"
	"github.com/sangkips/gst-billing/internal/presentation/http/dto/response"
	"github.com/sangkips/gst-billing/pkg/apperror"
)

// CreditNoteHandler handles returns against invoices
type CreditNoteHandler struct {
	creditNotes *service.CreditNoteService
}

// NewCreditNoteHandler creates a new credit note handler
func NewCreditNoteHandler(creditNotes *service.CreditNoteService) *CreditNoteHandler {
	return &CreditNoteHandler{creditNotes: creditNotes}
}

// Create issues a credit note. Quantities above what is still returnable
// are clamped.
func (h *CreditNoteHandler) Create(c *gin.Context) {
	var input service.CreateCreditNoteInput
	if !bindJSON(c, &input) {
		return
	}

	note, err := h.creditNotes.CreateCreditNote(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Credit note created successfully", note)
}

func (h *CreditNoteHandler) List(c *gin.Context) {
	var req request.CreditNoteFilterRequest
	if !bindQuery(c, &req) {
		return
	}
	params, err := req.Filter()
	if err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.creditNotes.ListCreditNotes(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, "Credit notes retrieved successfully", result)
}

func (h *CreditNoteHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", "credit note")
	if !ok {
		return
	}

	note, err := h.creditNotes.GetCreditNote(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Credit note retrieved successfully", note)
}

// Cancel cancels a credit note, reversing restored stock unless the body
// sets reverse_stock to false.
func (h *CreditNoteHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "id", "credit note")
	if !ok {
		return
	}

	var req request.CancelCreditNoteRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	note, err := h.creditNotes.GetCreditNote(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	cancelled, err := h.creditNotes.CancelCreditNote(c.Request.Context(), id, req.ShouldReverse())
	if err != nil {
		response.Error(c, err)
		return
	}
	if !cancelled {
		response.Error(c, apperror.NewStateConflictError("Credit note "+note.CreditNoteNumber+" cannot be cancelled from status "+note.Status.String()))
		return
	}

	response.OK(c, "Credit note cancelled successfully", gin.H{"cancelled": true})
}

// Apply pays an invoice's balance from an active credit note
func (h *CreditNoteHandler) Apply(c *gin.Context) {
	id, ok := pathID(c, "id", "credit note")
	if !ok {
		return
	}

	var req request.ApplyCreditNoteRequest
	if !bindJSON(c, &req) {
		return
	}

	invoice, err := h.creditNotes.ApplyToInvoice(c.Request.Context(), id, req.InvoiceID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Credit note applied successfully", invoice)
}

// Returnable lists what can still be returned on an invoice
func (h *CreditNoteHandler) Returnable(c *gin.Context) {
	id, ok := pathID(c, "id", "invoice")
	if !ok {
		return
	}

	lines, err := h.creditNotes.ReturnableLines(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Returnable lines retrieved successfully", lines)
}

// ByInvoice lists the credit notes raised against an invoice
func (h *CreditNoteHandler) ByInvoice(c *gin.Context) {
	id, ok := pathID(c, "id", "invoice")
	if !ok {
		return
	}

	notes, err := h.creditNotes.ListByInvoice(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Credit notes retrieved successfully", notes)
}

func (h *CreditNoteHandler) Summary(c *gin.Context) {
	var req request.DateRangeRequest
	if !bindQuery(c, &req) {
		return
	}
	dates, err := req.Range()
	if err != nil {
		response.BadRequest(c, "Invalid date range")
		return
	}

	summary, err := h.creditNotes.Summary(c.Request.Context(), dates)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Credit note summary retrieved successfully", summary)
}
