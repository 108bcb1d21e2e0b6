package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/gst-billing/internal/infrastructure/memory"
	"github.com/sangkips/gst-billing/internal/presentation/http/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// checkout counts handler executions and answers with the count
type checkout struct {
	calls  int
	status int
}

func (h *checkout) handle(c *gin.Context) {
	h.calls++
	c.JSON(h.status, gin.H{"call": h.calls})
}

func newIdempotentRouter(t *testing.T, cfg IdempotencyConfig, h *checkout) *gin.Engine {
	t.Helper()
	if cfg.Repo == nil {
		cfg.Repo = memory.NewStore().Idempotency()
	}
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if op := c.GetHeader("X-Test-Operator"); op != "" {
			c.Set(handler.OperatorKey, op)
		}
		c.Next()
	})
	r.POST("/invoices", Idempotency(cfg), h.handle)
	r.POST("/credit-notes", Idempotency(cfg), h.handle)
	return r
}

func post(r *gin.Engine, path, key, operator, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	if operator != "" {
		req.Header.Set("X-Test-Operator", operator)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func callNumber(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var body struct {
		Call int `json:"call"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Call
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	h := &checkout{status: http.StatusCreated}
	r := newIdempotentRouter(t, IdempotencyConfig{Required: true}, h)

	first := post(r, "/invoices", "sale-1", "counter-1", `{"items":[1]}`)
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get(ReplayedHeader))

	second := post(r, "/invoices", "sale-1", "counter-1", `{"items":[1]}`)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(ReplayedHeader))
	assert.Equal(t, 1, callNumber(t, second))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, h.calls)
}

func TestIdempotency_RejectsReuseForDifferentRequest(t *testing.T) {
	h := &checkout{status: http.StatusCreated}
	r := newIdempotentRouter(t, IdempotencyConfig{}, h)

	require.Equal(t, http.StatusCreated, post(r, "/invoices", "sale-1", "counter-1", `{"items":[1]}`).Code)

	w := post(r, "/invoices", "sale-1", "counter-1", `{"items":[2]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = post(r, "/credit-notes", "sale-1", "counter-1", `{"items":[1]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, 1, h.calls)
}

func TestIdempotency_KeysAreScopedToOperator(t *testing.T) {
	h := &checkout{status: http.StatusCreated}
	r := newIdempotentRouter(t, IdempotencyConfig{}, h)

	post(r, "/invoices", "sale-1", "counter-1", `{}`)
	w := post(r, "/invoices", "sale-1", "counter-2", `{}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get(ReplayedHeader))
	assert.Equal(t, 2, h.calls)
}

func TestIdempotency_RequiredKey(t *testing.T) {
	h := &checkout{status: http.StatusCreated}

	required := newIdempotentRouter(t, IdempotencyConfig{Required: true}, h)
	assert.Equal(t, http.StatusBadRequest, post(required, "/invoices", "", "counter-1", `{}`).Code)
	assert.Equal(t, 0, h.calls)

	optional := newIdempotentRouter(t, IdempotencyConfig{}, h)
	assert.Equal(t, http.StatusCreated, post(optional, "/invoices", "", "counter-1", `{}`).Code)
	assert.Equal(t, http.StatusCreated, post(optional, "/invoices", "", "counter-1", `{}`).Code)
	assert.Equal(t, 2, h.calls)
}

func TestIdempotency_RejectsOverlongKey(t *testing.T) {
	h := &checkout{status: http.StatusCreated}
	r := newIdempotentRouter(t, IdempotencyConfig{}, h)

	w := post(r, "/invoices", strings.Repeat("k", 256), "counter-1", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, h.calls)
}

func TestIdempotency_FailedResponseIsNotStored(t *testing.T) {
	h := &checkout{status: http.StatusUnprocessableEntity}
	r := newIdempotentRouter(t, IdempotencyConfig{}, h)

	assert.Equal(t, http.StatusUnprocessableEntity, post(r, "/invoices", "sale-1", "counter-1", `{}`).Code)

	h.status = http.StatusCreated
	w := post(r, "/invoices", "sale-1", "counter-1", `{}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get(ReplayedHeader))
	assert.Equal(t, 2, h.calls)
}

func TestIdempotency_ExpiredKeyIsReusable(t *testing.T) {
	now := time.Now()
	clock := &fakeClock{now: now.Add(-2 * time.Hour)}
	h := &checkout{status: http.StatusCreated}
	r := newIdempotentRouter(t, IdempotencyConfig{TTL: time.Hour, Now: clock.Now}, h)

	require.Equal(t, http.StatusCreated, post(r, "/invoices", "sale-1", "counter-1", `{}`).Code)

	clock.Set(now)
	w := post(r, "/invoices", "sale-1", "counter-1", `{"changed":true}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 2, callNumber(t, w))

	replay := post(r, "/invoices", "sale-1", "counter-1", `{"changed":true}`)
	assert.Equal(t, "true", replay.Header().Get(ReplayedHeader))
	assert.Equal(t, 2, callNumber(t, replay))
}

func TestIdempotency_IgnoresNonPost(t *testing.T) {
	r := gin.New()
	calls := 0
	r.GET("/invoices", Idempotency(IdempotencyConfig{Repo: memory.NewStore().Idempotency(), Required: true}), func(c *gin.Context) {
		calls++
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/invoices", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, calls)
}
