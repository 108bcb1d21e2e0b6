package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/presentation/http/dto/response"
	"github.com/sangkips/gst-billing/pkg/utils"
	"github.com/sangkips/gst-billing/pkg/validation"
)

// Context keys set by the auth middleware
const (
	OperatorKey = "operator"
	ClaimsKey   = "claims"
)

// GetOperator extracts the authenticated operator from the Gin context
func GetOperator(c *gin.Context) string {
	return c.GetString(OperatorKey)
}

// GetClaims extracts the operator's token claims from the Gin context
func GetClaims(c *gin.Context) *utils.OperatorClaims {
	claims, exists := c.Get(ClaimsKey)
	if !exists {
		return nil
	}
	oc, _ := claims.(*utils.OperatorClaims)
	return oc
}

// pathID parses a UUID path parameter, answering 400 when it is malformed
func pathID(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "Invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the body, answering 422 with field errors or 400 for malformed JSON
func bindJSON(c *gin.Context, obj interface{}) bool {
	return bindResult(c, c.ShouldBindJSON(obj), "Invalid request body")
}

// bindQuery decodes the query string the same way
func bindQuery(c *gin.Context, obj interface{}) bool {
	return bindResult(c, c.ShouldBindQuery(obj), "Invalid query parameters")
}

func bindResult(c *gin.Context, err error, message string) bool {
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		response.ValidationError(c, validation.FieldErrors(verrs))
		return false
	}
	response.BadRequest(c, message)
	return false
}
