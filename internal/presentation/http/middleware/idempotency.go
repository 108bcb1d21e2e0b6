package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/sangkips/gst-billing/internal/domain/entity"
	"github.com/sangkips/gst-billing/internal/domain/repository"
	"github.com/sangkips/gst-billing/internal/presentation/http/dto/response"
	"github.com/sangkips/gst-billing/internal/presentation/http/handler"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// ReplayedHeader marks a response served from the idempotency store
	ReplayedHeader = "X-Idempotency-Replayed"
	// IdempotencyKeyTTL is how long keys are valid
	IdempotencyKeyTTL = 24 * time.Hour
)

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Repo repository.IdempotencyRepository
	// Required rejects requests without a key
	Required bool
	TTL      time.Duration
	Now      func() time.Time
}

// responseWriter wraps gin.ResponseWriter to capture the response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response when a document-creating request
// is retried with the same key. Only 2xx responses are stored, so a failed
// checkout can be retried with the same key. Keys are scoped to the operator.
func Idempotency(config IdempotencyConfig) gin.HandlerFunc {
	if config.TTL == 0 {
		config.TTL = IdempotencyKeyTTL
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			if config.Required {
				response.BadRequest(c, IdempotencyKeyHeader+" header is required for this request")
				c.Abort()
				return
			}
			c.Next()
			return
		}
		if len(key) > 255 {
			response.BadRequest(c, IdempotencyKeyHeader+" must be at most 255 characters")
			c.Abort()
			return
		}

		subject := handler.GetOperator(c)
		if subject == "" {
			subject = "anonymous"
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.BadRequest(c, "Invalid request body")
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		sum := sha256.Sum256(body)
		hash := hex.EncodeToString(sum[:])

		ctx := c.Request.Context()
		existing, err := config.Repo.GetByKey(ctx, key, subject)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		if existing != nil && !config.Now().Before(existing.ExpiresAt) {
			if err := config.Repo.DeleteExpired(ctx); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Msg("expired idempotency keys not purged")
			}
			existing = nil
		}
		if existing != nil {
			if existing.RequestHash != hash || existing.Endpoint != endpoint(c) {
				response.ErrorWithCode(c, http.StatusUnprocessableEntity, IdempotencyKeyHeader+" was already used for a different request")
				c.Abort()
				return
			}
			c.Header(ReplayedHeader, "true")
			c.Data(existing.ResponseCode, "application/json; charset=utf-8", []byte(existing.ResponseBody))
			c.Abort()
			return
		}

		blw := &responseWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}

		ikey := &entity.IdempotencyKey{
			Key:          key,
			Subject:      subject,
			Endpoint:     endpoint(c),
			RequestHash:  hash,
			ResponseCode: status,
			ResponseBody: blw.body.String(),
			ExpiresAt:    config.Now().Add(config.TTL),
		}
		// A concurrent request with the same key may have stored first
		if err := config.Repo.Create(ctx, ikey); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("idempotency_key", key).Msg("idempotency key not stored")
		}
	}
}

func endpoint(c *gin.Context) string {
	return c.Request.Method + " " + c.Request.URL.Path
}
