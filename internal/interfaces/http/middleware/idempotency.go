package middleware

import (
	"net/http"
	"time"

	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/fishfarm/backend/internal/infrastructure/logger"
	"github.com/fishfarm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HeaderIdempotencyKey is the header a client sets to make a mutation safe to retry
const HeaderIdempotencyKey = "Idempotency-Key"

const maxIdempotencyKeyLength = 200

// IdempotencyConfig configures the Idempotency middleware
type IdempotencyConfig struct {
	Store  shared.IdempotencyStore
	TTL    time.Duration
	Logger *zap.Logger
}

// Idempotency claims the Idempotency-Key of POST requests in the store.
// A key already claimed within TTL is answered with 409 ERR_DUPLICATE_REQUEST
// and the handler does not run. Requests without the header pass through.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.Store == nil {
		return func(c *gin.Context) { c.Next() }
	}
	if cfg.TTL <= 0 {
		cfg.TTL = shared.DefaultIdempotencyConfig().TTL
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if c.Request.Method != http.MethodPost || key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeInvalidInput, "Idempotency-Key is too long", getRequestID(c)))
			return
		}

		ctx := logger.WithIdempotencyKey(c.Request.Context(), key)
		c.Request = c.Request.WithContext(ctx)

		// Keys are scoped to the route so one key cannot collide across resources
		scoped := c.Request.Method + " " + c.Request.URL.Path + " " + key
		claimed, err := cfg.Store.MarkProcessed(ctx, scoped, cfg.TTL)
		if err != nil {
			cfg.Logger.Warn("idempotency store unavailable",
				zap.String("request_id", getRequestID(c)),
				zap.Error(err))
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnavailable, "Idempotency store unavailable", getRequestID(c)))
			return
		}
		if !claimed {
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeDuplicateRequest, "Request with this Idempotency-Key was already accepted", getRequestID(c)))
			return
		}
		c.Next()
	}
}
