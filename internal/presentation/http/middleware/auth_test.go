package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/gst-billing/internal/presentation/http/handler"
	"github.com/sangkips/gst-billing/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(jwt *utils.JWTManager) *gin.Engine {
	r := gin.New()
	authed := r.Group("", AuthMiddleware(jwt))
	authed.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"operator": handler.GetOperator(c)})
	})
	authed.GET("/reports", RequireRole(utils.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func authGet(r *gin.Engine, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	jwt := utils.NewJWTManager("test-secret", "gst-billing", time.Hour)
	r := newAuthRouter(jwt)

	token, _, err := jwt.Issue("counter-1", []string{utils.RoleCashier})
	require.NoError(t, err)

	t.Run("valid token sets operator", func(t *testing.T) {
		w := authGet(r, "/me", "Bearer "+token)
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "counter-1", body["operator"])
	})

	t.Run("missing header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, authGet(r, "/me", "").Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, authGet(r, "/me", "Basic "+token).Code)
	})

	t.Run("token signed with another key", func(t *testing.T) {
		other := utils.NewJWTManager("other-secret", "gst-billing", time.Hour)
		forged, _, err := other.Issue("counter-1", []string{utils.RoleAdmin})
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, authGet(r, "/me", "Bearer "+forged).Code)
	})
}

func TestRequireRole(t *testing.T) {
	jwt := utils.NewJWTManager("test-secret", "gst-billing", time.Hour)
	r := newAuthRouter(jwt)

	cashier, _, err := jwt.Issue("counter-1", []string{utils.RoleCashier})
	require.NoError(t, err)
	admin, _, err := jwt.Issue("owner", []string{utils.RoleAdmin})
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, authGet(r, "/reports", "Bearer "+cashier).Code)
	assert.Equal(t, http.StatusOK, authGet(r, "/reports", "Bearer "+admin).Code)
}

func TestRequireRole_WithoutClaims(t *testing.T) {
	r := gin.New()
	r.GET("/reports", RequireRole(utils.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusForbidden, authGet(r, "/reports", "").Code)
}
