package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/gst-billing/internal/application/service"
	"github.com/sangkips/gst-billing/internal/presentation/http/dto/request"
	"github.com/sangkips/gst-billing/internal/presentation/http/dto/response"
)

// StockHandler exposes the stock ledger
type StockHandler struct {
	stock *service.StockLedger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(stock *service.StockLedger) *StockHandler {
	return &StockHandler{stock: stock}
}

type stockLevel struct {
	StockQty string `json:"stock_qty"`
}

// Adjust applies a manual correction. The note is prefixed with the operator.
func (h *StockHandler) Adjust(c *gin.Context) {
	id, ok := pathID(c, "id", "product")
	if !ok {
		return
	}

	var req request.AdjustStockRequest
	if !bindJSON(c, &req) {
		return
	}

	note := req.Note
	if operator := GetOperator(c); operator != "" {
		note = operator + ": " + note
	}

	qty, err := h.stock.Adjust(c.Request.Context(), &service.AdjustStockInput{
		ProductID: id,
		Delta:     req.Delta,
		Note:      note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Stock adjusted successfully", stockLevel{StockQty: qty.String()})
}

// Restock records goods received from a supplier
func (h *StockHandler) Restock(c *gin.Context) {
	id, ok := pathID(c, "id", "product")
	if !ok {
		return
	}

	var req request.RestockRequest
	if !bindJSON(c, &req) {
		return
	}

	qty, err := h.stock.Restock(c.Request.Context(), &service.RestockInput{
		ProductID: id,
		Quantity:  req.Quantity,
		Reference: req.Reference,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Stock received successfully", stockLevel{StockQty: qty.String()})
}

// History lists a product's movements, newest first
func (h *StockHandler) History(c *gin.Context) {
	id, ok := pathID(c, "id", "product")
	if !ok {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 0 {
		response.BadRequest(c, "Invalid limit")
		return
	}

	movements, err := h.stock.History(c.Request.Context(), id, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Stock history retrieved successfully", movements)
}

// Verify compares one product's stock with its movement log
func (h *StockHandler) Verify(c *gin.Context) {
	id, ok := pathID(c, "id", "product")
	if !ok {
		return
	}

	drift, err := h.stock.Verify(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Stock verified", gin.H{"drift": drift, "in_sync": drift.InSync()})
}

// VerifyAll lists every product whose stock has drifted from its ledger
func (h *StockHandler) VerifyAll(c *gin.Context) {
	drifted, err := h.stock.VerifyAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Stock verified", drifted)
}
