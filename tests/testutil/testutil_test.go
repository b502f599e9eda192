package testutil

import (
	"net/http"
	"testing"
	"time"

	"github.com/fishfarm/backend/internal/infrastructure/persistence/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMockDB(t *testing.T) {
	mockDB := NewMockDB(t)
	defer mockDB.Close()

	assert.NotNil(t, mockDB.DB)
	assert.NotNil(t, mockDB.Mock)
	mockDB.ExpectationsWereMet(t)
}

func TestNewSQLiteDB(t *testing.T) {
	db := NewSQLiteDB(t)

	for _, table := range []string{
		"storage_locations", "sorting_batches", "sorting_results",
		"transfers", "outlet_orders", "dispatch_records", "outlet_receiving",
	} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.Len(t, models.AllModels(), 7)
}

func TestTestContext(t *testing.T) {
	tc := NewTestContext(t)
	assert.Equal(t, http.MethodGet, tc.Context.Request.Method)

	tc.SetRequestID("req-123")
	val, exists := tc.Context.Get("X-Request-ID")
	assert.True(t, exists)
	assert.Equal(t, "req-123", val)

	tc.SetHeader("Idempotency-Key", "k1")
	assert.Equal(t, "k1", tc.Context.Request.Header.Get("Idempotency-Key"))

	tc.Recorder.WriteHeader(http.StatusCreated)
	assert.Equal(t, http.StatusCreated, tc.ResponseCode())
}

func TestNewTestUUID(t *testing.T) {
	assert.Equal(t, NewTestUUID("cold-a"), NewTestUUID("cold-a"))
	assert.NotEqual(t, NewTestUUID("cold-a"), NewTestUUID("cold-b"))
}

func TestContextWithTimeout(t *testing.T) {
	ctx, cancel := ContextWithTimeout(t, 100*time.Millisecond)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.True(t, deadline.After(time.Now()))
}

func TestRequireEventually(t *testing.T) {
	start := time.Now()
	RequireEventually(t, func() bool {
		return time.Since(start) > 20*time.Millisecond
	}, time.Second, 5*time.Millisecond)
}

func TestRunHTTPTestCases(t *testing.T) {
	r := gin.New()
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"status": "healthy"}})
	})
	r.POST("/echo", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": gin.H{"code": "ERR_INVALID_JSON"}})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "data": body, "meta": gin.H{"total": 1}})
	})

	RunHTTPTestCases(t, r, []HTTPTestCase{
		{
			Name:           "success envelope",
			Request:        Request{Path: "/health"},
			ExpectedStatus: http.StatusOK,
			Validate: func(t *testing.T, env Envelope) {
				data := DataAs[map[string]string](t, env)
				assert.Equal(t, "healthy", data["status"])
			},
		},
		{
			Name:           "json body and meta",
			Request:        Request{Method: http.MethodPost, Path: "/echo", Body: map[string]any{"pond": "4"}},
			ExpectedStatus: http.StatusCreated,
			Validate: func(t *testing.T, env Envelope) {
				require.NotNil(t, env.Meta)
				assert.Equal(t, int64(1), env.Meta.Total)
				assert.Equal(t, "4", DataAs[map[string]string](t, env)["pond"])
			},
		},
		{
			Name:           "raw string body",
			Request:        Request{Method: http.MethodPost, Path: "/echo", Body: `{"pond":`},
			ExpectedStatus: http.StatusBadRequest,
			ExpectedCode:   "ERR_INVALID_JSON",
		},
	})
}
