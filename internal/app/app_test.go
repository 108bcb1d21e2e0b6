package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/config"
	"github.com/sangkips/gst-billing/internal/presentation/http/dto/response"
	"github.com/sangkips/gst-billing/internal/presentation/http/middleware"
	"github.com/sangkips/gst-billing/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		App:       config.AppConfig{Name: "gst-billing-test", Env: "test"},
		Store:     config.StoreConfig{Driver: DriverMemory},
		JWT:       config.JWTConfig{Secret: "test-secret", Issuer: "gst-billing", ExpiryHours: time.Hour},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
		Billing: config.BillingConfig{
			SellerStateCode:    "32",
			CompanyName:        "Test Mart",
			AllowNegativeStock: true,
			Timezone:           "UTC",
		},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Kind    string          `json:"kind"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

type apiClient struct {
	t      *testing.T
	router *gin.Engine
	admin  string
	staff  string
}

func newAPIClient(t *testing.T) (*apiClient, *App) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	a, err := New(context.Background(), testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	admin, _, err := a.JWT.Issue("owner", []string{utils.RoleAdmin})
	require.NoError(t, err)
	staff, _, err := a.JWT.Issue("counter-1", []string{utils.RoleCashier})
	require.NoError(t, err)

	return &apiClient{t: t, router: a.Router(), admin: admin, staff: staff}, a
}

func (c *apiClient) do(method, path, token string, body any, headers map[string]string) *httptest.ResponseRecorder {
	c.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

type productView struct {
	ID       string          `json:"id"`
	StockQty decimal.Decimal `json:"stock_qty"`
}

type invoiceView struct {
	ID            string          `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	CGSTTotal     decimal.Decimal `json:"cgst_total"`
	SGSTTotal     decimal.Decimal `json:"sgst_total"`
	PaymentStatus string          `json:"payment_status"`
}

func (c *apiClient) createSoap() productView {
	c.t.Helper()
	w := c.do(http.MethodPost, "/api/v1/products", c.admin, map[string]any{
		"name":          "Bath Soap",
		"barcode":       "8901000000035",
		"hsn_code":      "3401",
		"unit":          "pcs",
		"price":         "100",
		"gst_rate":      "18",
		"opening_stock": "10",
	}, nil)
	require.Equal(c.t, http.StatusCreated, w.Code, w.Body.String())

	var p productView
	decode(c.t, w, &p)
	return p
}

func TestHealth(t *testing.T) {
	c, _ := newAPIClient(t)

	w := c.do(http.MethodGet, "/health", "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestCheckout(t *testing.T) {
	c, _ := newAPIClient(t)
	soap := c.createSoap()

	cart := map[string]any{
		"items":        []map[string]any{{"product_id": soap.ID, "quantity": "2"}},
		"payment_mode": "CASH",
	}
	key := map[string]string{middleware.IdempotencyKeyHeader: "sale-0001"}

	w := c.do(http.MethodPost, "/api/v1/invoices", c.staff, cart, key)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var invoice invoiceView
	decode(t, w, &invoice)
	assert.True(t, strings.HasPrefix(invoice.InvoiceNumber, "INV/"), invoice.InvoiceNumber)
	assert.True(t, invoice.GrandTotal.Equal(decimal.NewFromInt(236)), invoice.GrandTotal.String())
	assert.True(t, invoice.CGSTTotal.Equal(decimal.NewFromInt(18)), invoice.CGSTTotal.String())
	assert.True(t, invoice.SGSTTotal.Equal(decimal.NewFromInt(18)), invoice.SGSTTotal.String())
	assert.Equal(t, "PAID", invoice.PaymentStatus)

	t.Run("retry replays the same invoice", func(t *testing.T) {
		w := c.do(http.MethodPost, "/api/v1/invoices", c.staff, cart, key)
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "true", w.Header().Get(middleware.ReplayedHeader))

		var replay invoiceView
		decode(t, w, &replay)
		assert.Equal(t, invoice.InvoiceNumber, replay.InvoiceNumber)
	})

	t.Run("stock deducted once", func(t *testing.T) {
		w := c.do(http.MethodGet, "/api/v1/products/"+soap.ID, c.staff, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var p productView
		decode(t, w, &p)
		assert.True(t, p.StockQty.Equal(decimal.NewFromInt(8)), p.StockQty.String())
	})

	t.Run("lookup by number", func(t *testing.T) {
		w := c.do(http.MethodGet, "/api/v1/invoices/by-number?number="+invoice.InvoiceNumber, c.staff, nil, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var found invoiceView
		decode(t, w, &found)
		assert.Equal(t, invoice.ID, found.ID)
	})

	t.Run("missing idempotency key", func(t *testing.T) {
		w := c.do(http.MethodPost, "/api/v1/invoices", c.staff, cart, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCheckout_ValidationErrors(t *testing.T) {
	c, _ := newAPIClient(t)

	w := c.do(http.MethodPost, "/api/v1/invoices", c.staff, map[string]any{
		"items":        []map[string]any{},
		"payment_mode": "CASH",
	}, map[string]string{middleware.IdempotencyKeyHeader: "sale-empty"})

	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	env := decode(t, w, nil)
	assert.False(t, env.Success)
	assert.Equal(t, "validation", env.Kind)
}

func TestAdminOnlyRoutes(t *testing.T) {
	c, _ := newAPIClient(t)

	w := c.do(http.MethodPost, "/api/v1/products", c.staff, map[string]any{"name": "Pen", "price": "10", "gst_rate": "12"}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = c.do(http.MethodGet, "/api/v1/reports/sales", c.staff, nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = c.do(http.MethodGet, "/api/v1/products", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReferenceGSTIN(t *testing.T) {
	c, _ := newAPIClient(t)

	w := c.do(http.MethodGet, "/api/v1/reference/gstin/29AAGCB7383J1Z4", "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		StateCode  string `json:"state_code"`
		StateName  string `json:"state_name"`
		InterState bool   `json:"inter_state"`
	}
	decode(t, w, &data)
	assert.Equal(t, "29", data.StateCode)
	assert.Equal(t, "Karnataka", data.StateName)
	assert.True(t, data.InterState)

	w = c.do(http.MethodGet, "/api/v1/reference/gstin/NOT-A-GSTIN", "", nil, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSalesExport(t *testing.T) {
	c, _ := newAPIClient(t)
	soap := c.createSoap()

	w := c.do(http.MethodPost, "/api/v1/invoices", c.staff, map[string]any{
		"items":        []map[string]any{{"product_id": soap.ID, "quantity": "1"}},
		"payment_mode": "UPI",
	}, map[string]string{middleware.IdempotencyKeyHeader: "sale-export"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = c.do(http.MethodGet, "/api/v1/reports/sales/export", c.admin, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.XLSXContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="sales.xlsx"`)
	// xlsx workbooks are zip archives
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))

	w = c.do(http.MethodGet, "/api/v1/reports/sales/export?from=2025-06-30&to=2025-06-01", c.admin, nil, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSeed(t *testing.T) {
	_, a := newAPIClient(t)
	ctx := context.Background()

	first, err := Seed(ctx, a.Services)
	require.NoError(t, err)
	assert.Equal(t, len(seedProducts), first.Products)
	assert.Equal(t, len(seedCustomers), first.Customers)

	again, err := Seed(ctx, a.Services)
	require.NoError(t, err)
	assert.Zero(t, again.Products)
	assert.Zero(t, again.Customers)
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := testConfig()
	cfg.Store.Driver = "sqlite"

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestCancelContract(t *testing.T) {
	c, _ := newAPIClient(t)
	soap := c.createSoap()

	w := c.do(http.MethodPost, "/api/v1/invoices", c.staff, map[string]any{
		"items":        []map[string]any{{"product_id": soap.ID, "quantity": "3"}},
		"payment_mode": "CASH",
	}, map[string]string{middleware.IdempotencyKeyHeader: "sale-cancel"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var invoice invoiceView
	decode(t, w, &invoice)

	w = c.do(http.MethodPost, "/api/v1/credit-notes", c.staff, map[string]any{
		"invoice_id": invoice.ID,
		"items":      []map[string]any{{"product_id": soap.ID, "quantity": "1"}},
		"reason":     "RETURN",
	}, map[string]string{middleware.IdempotencyKeyHeader: "return-cancel"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var note struct {
		ID string `json:"id"`
	}
	decode(t, w, &note)

	tests := []struct {
		name string
		path string
	}{
		{"credit note", "/api/v1/credit-notes/" + note.ID + "/cancel"},
		{"invoice", "/api/v1/invoices/" + invoice.ID + "/cancel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := c.do(http.MethodPost, tt.path, c.admin, nil, nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.True(t, decode(t, w, nil).Success)

			w = c.do(http.MethodPost, tt.path, c.admin, nil, nil)
			require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
			env := decode(t, w, nil)
			assert.False(t, env.Success)
			assert.Equal(t, "state_conflict", env.Kind)
		})
	}

	for _, path := range []string{"/api/v1/invoices/", "/api/v1/credit-notes/"} {
		w := c.do(http.MethodPost, path+uuid.NewString()+"/cancel", c.admin, nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Equal(t, "not_found", decode(t, w, nil).Kind)
	}
}
