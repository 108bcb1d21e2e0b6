package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/gst-billing/internal/presentation/http/dto/response"
	"github.com/sangkips/gst-billing/internal/presentation/http/handler"
	"github.com/sangkips/gst-billing/pkg/utils"
)

// AuthMiddleware creates a JWT authentication middleware for operator tokens
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := jwtManager.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(handler.OperatorKey, claims.Operator())
		c.Set(handler.ClaimsKey, claims)

		c.Next()
	}
}

// RequireRole creates a middleware that requires any of the given roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := handler.GetClaims(c)
		if claims == nil {
			response.Forbidden(c, "Access denied")
			c.Abort()
			return
		}

		if !claims.HasRole(roles...) {
			response.Forbidden(c, "Insufficient role privileges")
			c.Abort()
			return
		}

		c.Next()
	}
}
