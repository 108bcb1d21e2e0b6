package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/gst-billing/internal/domain/enum"
	"github.com/sangkips/gst-billing/internal/domain/tax"
	"github.com/sangkips/gst-billing/internal/presentation/http/dto/request"
	"github.com/sangkips/gst-billing/internal/presentation/http/dto/response"
	"github.com/sangkips/gst-billing/pkg/validation"
)

// ReferenceHandler serves the static lists a billing client needs
type ReferenceHandler struct {
	sellerState string
}

// NewReferenceHandler creates a new reference handler
func NewReferenceHandler(sellerState string) *ReferenceHandler {
	return &ReferenceHandler{sellerState: sellerState}
}

func (h *ReferenceHandler) States(c *gin.Context) {
	response.OK(c, "States retrieved successfully", gin.H{
		"seller_state": h.sellerState,
		"states":       validation.StateList(),
	})
}

func (h *ReferenceHandler) GSTRates(c *gin.Context) {
	response.OK(c, "GST rates retrieved successfully", tax.Rates)
}

func (h *ReferenceHandler) Units(c *gin.Context) {
	response.OK(c, "Units retrieved successfully", validation.Units)
}

func (h *ReferenceHandler) PaymentModes(c *gin.Context) {
	response.OK(c, "Payment modes retrieved successfully", enum.PaymentModes)
}

// CheckGSTIN validates a GSTIN and reports whether a sale to it is inter-state
func (h *ReferenceHandler) CheckGSTIN(c *gin.Context) {
	var req request.GSTINRequest
	if !bindResult(c, c.ShouldBindUri(&req), "Invalid GSTIN") {
		return
	}

	state := req.GSTIN[:2]
	response.OK(c, "GSTIN is valid", gin.H{
		"gstin":       req.GSTIN,
		"state_code":  state,
		"state_name":  validation.States[state],
		"inter_state": state != h.sellerState,
	})
}

// Me returns the authenticated operator's claims
func (h *ReferenceHandler) Me(c *gin.Context) {
	claims := GetClaims(c)
	if claims == nil {
		response.Unauthorized(c, "Operator not authenticated")
		return
	}
	response.OK(c, "Operator retrieved successfully", gin.H{
		"operator":   claims.Operator(),
		"roles":      claims.Roles,
		"expires_at": claims.ExpiresAt,
	})
}
