package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fishfarm/backend/internal/infrastructure/logger"
	"github.com/fishfarm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID(nil))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, logger.GetRequestID(c.Request.Context()))
	})

	t.Run("keeps caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(HeaderRequestID, "abc-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
		assert.Equal(t, "abc-123", w.Body.String())
	})

	t.Run("generates id when missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		id := w.Header().Get(HeaderRequestID)
		assert.Len(t, id, 36)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("replaces oversized id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(HeaderRequestID, strings.Repeat("x", maxRequestIDLength+1))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Len(t, w.Header().Get(HeaderRequestID), 36)
	})
}

func TestOperator(t *testing.T) {
	router := gin.New()
	router.Use(Operator())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, logger.GetOperator(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(HeaderOperator, "  maria  ")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "maria", w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Empty(t, w.Body.String())
}

func TestCORSWithConfig(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"http://tablet.local"}

	router := gin.New()
	router.Use(CORSWithConfig(cfg))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Origin", "http://tablet.local")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "http://tablet.local", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), HeaderIdempotencyKey)
	})

	t.Run("unknown origin gets no headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Origin", "http://elsewhere")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight answers 204", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/test", nil)
		req.Header.Set("Origin", "http://elsewhere")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestSecure(t *testing.T) {
	router := gin.New()
	router.Use(Secure())
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestBodyLimit(t *testing.T) {
	router := gin.New()
	router.Use(BodyLimit(16))
	router.POST("/test", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"a":1}`)))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"a":"0123456789abcdef"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, dto.ErrCodePayloadTooLarge, decodeError(t, w).Code)
}

type fakeStore struct {
	mu   sync.Mutex
	keys map[string]bool
	err  error
}

func (s *fakeStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	if s.keys == nil {
		s.keys = map[string]bool{}
	}
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *fakeStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[key], nil
}

func (s *fakeStore) Close() error { return nil }

func TestIdempotency(t *testing.T) {
	store := &fakeStore{}
	calls := 0
	router := gin.New()
	router.Use(RequestID(nil), Idempotency(IdempotencyConfig{Store: store, TTL: time.Hour}))
	handler := func(c *gin.Context) {
		calls++
		c.String(http.StatusCreated, logger.GetIdempotencyKey(c.Request.Context()))
	}
	router.POST("/transfers", handler)
	router.POST("/outlet-orders", handler)
	router.GET("/transfers", handler)

	post := func(path, key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		if key != "" {
			req.Header.Set(HeaderIdempotencyKey, key)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := post("/transfers", "k-1")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "k-1", w.Body.String())

	w = post("/transfers", "k-1")
	assert.Equal(t, http.StatusConflict, w.Code)
	errInfo := decodeError(t, w)
	assert.Equal(t, dto.ErrCodeDuplicateRequest, errInfo.Code)
	assert.NotEmpty(t, errInfo.RequestID)

	// same key on another route is a different request
	assert.Equal(t, http.StatusCreated, post("/outlet-orders", "k-1").Code)
	// no key, no claim
	assert.Equal(t, http.StatusCreated, post("/transfers", "").Code)
	assert.Equal(t, http.StatusCreated, post("/transfers", "").Code)

	req := httptest.NewRequest(http.MethodGet, "/transfers", nil)
	req.Header.Set(HeaderIdempotencyKey, "k-1")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, 5, calls)
}

func TestIdempotency_StoreFailure(t *testing.T) {
	router := gin.New()
	router.Use(Idempotency(IdempotencyConfig{Store: &fakeStore{err: errors.New("redis down")}}))
	router.POST("/transfers", func(c *gin.Context) { c.Status(http.StatusCreated) })

	req := httptest.NewRequest(http.MethodPost, "/transfers", nil)
	req.Header.Set(HeaderIdempotencyKey, "k-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, dto.ErrCodeUnavailable, decodeError(t, w).Code)
}

type capacityRequest struct {
	Name     string `json:"name" binding:"required,max=5"`
	Quantity int64  `json:"quantity" binding:"gt=0"`
}

func TestHandleValidationError(t *testing.T) {
	SetupValidator()
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req capacityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"name":"toolong","quantity":0}`)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	errInfo := decodeError(t, w)
	assert.Equal(t, dto.ErrCodeValidation, errInfo.Code)
	require.Len(t, errInfo.Details, 2)
	assert.Equal(t, "name", errInfo.Details[0].Field)
	assert.Equal(t, "Must be at most 5 characters", errInfo.Details[0].Message)
	assert.Equal(t, "quantity", errInfo.Details[1].Field)
	assert.Equal(t, "Must be greater than 0", errInfo.Details[1].Message)
}

func TestHTTPMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	router := gin.New()
	router.Use(HTTPMetrics(provider.Meter("test")))
	router.GET("/api/v1/transfers/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/transfers/abc", nil))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total *metricdata.Sum[int64]
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "http_server_request_total" {
				sum := m.Data.(metricdata.Sum[int64])
				total = &sum
			}
		}
	}
	require.NotNil(t, total)
	require.Len(t, total.DataPoints, 1)
	dp := total.DataPoints[0]
	assert.Equal(t, int64(1), dp.Value)
	route, ok := dp.Attributes.Value("http.route")
	require.True(t, ok)
	assert.Equal(t, "/api/v1/transfers/:id", route.AsString())
	status, _ := dp.Attributes.Value("http.status_code")
	assert.Equal(t, int64(http.StatusNotFound), status.AsInt64())
}

func TestHTTPMetrics_NilMeterPassesThrough(t *testing.T) {
	router := gin.New()
	router.Use(HTTPMetrics(nil))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSpanAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	router := gin.New()
	router.Use(RequestID(nil), Operator(), otelgin.Middleware("test", otelgin.WithTracerProvider(tp)), SpanAttributes())
	router.POST("/api/v1/transfers/:id/complete", func(c *gin.Context) { c.Status(http.StatusUnprocessableEntity) })

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers/t-1/complete", nil)
	req.Header.Set(HeaderRequestID, "req-9")
	req.Header.Set(HeaderOperator, "jonas")
	req.Header.Set(HeaderIdempotencyKey, "k-7")
	router.ServeHTTP(httptest.NewRecorder(), req)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, codes.Error, span.Status().Code)

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "req-9", attrs["request_id"].AsString())
	assert.Equal(t, "jonas", attrs["operator"].AsString())
	assert.Equal(t, "k-7", attrs["idempotency_key"].AsString())
}

func TestResourceFromRoute(t *testing.T) {
	tests := map[string]string{
		"/api/v1/transfers/:id/approve": "transfers",
		"/api/v1/storage-locations":     "storage-locations",
		"/health":                       "health",
		"":                              "",
	}
	for route, want := range tests {
		assert.Equal(t, want, resourceFromRoute(route), route)
	}
}

func TestProfiling_RunsHandler(t *testing.T) {
	router := gin.New()
	router.Use(Profiling(true))
	router.GET("/api/v1/transfers", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/transfers", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
