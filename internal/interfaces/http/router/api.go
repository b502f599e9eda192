package router

import (
	"net/http"

	"github.com/fishfarm/backend/internal/infrastructure/logger"
	"github.com/fishfarm/backend/internal/interfaces/http/handler"
	"github.com/fishfarm/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Handlers bundles the API handlers. A nil handler leaves its routes out.
type Handlers struct {
	SizeClasses *handler.SizeClassHandler
	Locations   *handler.StorageLocationHandler
	Inventory   *handler.InventoryHandler
	Sorting     *handler.SortingHandler
	Transfers   *handler.TransferHandler
	Dispatch    *handler.DispatchHandler
	System      *handler.SystemHandler
}

// EngineConfig controls the middleware chain of the HTTP engine
type EngineConfig struct {
	Logger         *zap.Logger
	TrustedProxies []string
	CORS           middleware.CORSConfig
	MaxBodySize    int64
	Idempotency    middleware.IdempotencyConfig
	Tracing        middleware.TracingConfig
	// Meter receives the OTLP HTTP server metrics; nil disables them
	Meter     metric.Meter
	Profiling bool

	// MetricsHandler is served at MetricsPath when set
	MetricsPath    string
	MetricsHandler http.Handler
}

// DomainGroups returns the /api/v1 route groups of the service
func DomainGroups(h Handlers) []*DomainGroup {
	var groups []*DomainGroup

	if h.SizeClasses != nil {
		g := NewDomainGroup("sizing", "/size-classes")
		g.GET("", h.SizeClasses.List).
			POST("/classify", h.SizeClasses.Classify)
		groups = append(groups, g)
	}

	if h.Locations != nil {
		g := NewDomainGroup("storage", "/storage-locations")
		g.GET("", h.Locations.List).
			POST("", h.Locations.Create).
			GET("/available", h.Locations.ListAvailable).
			GET("/:id", h.Locations.Get).
			PUT("/:id/status", h.Locations.SetStatus).
			PUT("/:id/capacity", h.Locations.UpdateCapacity).
			GET("/:id/capacity", h.Locations.Capacity).
			GET("/:id/utilization", h.Locations.Utilization)
		groups = append(groups, g)
	}

	if h.Inventory != nil {
		g := NewDomainGroup("inventory", "/inventory")
		g.GET("/summary", h.Inventory.Summary)
		groups = append(groups, g)
	}

	if h.Sorting != nil {
		batches := NewDomainGroup("sorting", "/sorting-batches")
		batches.POST("", h.Sorting.CreateBatch).
			GET("", h.Sorting.ListBatches).
			GET("/:id", h.Sorting.GetBatch).
			POST("/:id/weighings", h.Sorting.RecordWeighings).
			POST("/:id/results", h.Sorting.AddResult).
			POST("/:id/complete", h.Sorting.CompleteBatch)
		results := NewDomainGroup("sorting-results", "/sorting-results")
		results.PUT("/:id/location", h.Sorting.PlaceResult)
		groups = append(groups, batches, results)
	}

	if h.Transfers != nil {
		g := NewDomainGroup("transfer", "/transfers")
		g.POST("", h.Transfers.Request).
			GET("", h.Transfers.List).
			GET("/:id", h.Transfers.Get).
			POST("/:id/approve", h.Transfers.Approve).
			POST("/:id/complete", h.Transfers.Complete).
			POST("/:id/reject", h.Transfers.Reject)
		groups = append(groups, g)
	}

	if h.Dispatch != nil {
		orders := NewDomainGroup("dispatch", "/outlet-orders")
		orders.POST("", h.Dispatch.CreateOrder).
			GET("", h.Dispatch.ListOrders).
			GET("/:id", h.Dispatch.GetOrder).
			POST("/:id/cancel", h.Dispatch.CancelOrder).
			POST("/:id/dispatch", h.Dispatch.Dispatch).
			GET("/:id/dispatches", h.Dispatch.ListOrderDispatches)
		dispatches := NewDomainGroup("dispatches", "/dispatches")
		dispatches.GET("/:id", h.Dispatch.GetDispatch).
			POST("/:id/reconcile", h.Dispatch.Reconcile).
			GET("/:id/receiving", h.Dispatch.GetReceiving)
		groups = append(groups, orders, dispatches)
	}

	if h.System != nil {
		g := NewDomainGroup("system", "/system")
		g.GET("/info", h.System.GetSystemInfo)
		groups = append(groups, g)
	}

	return groups
}

// NewEngine builds the gin engine with the full middleware chain and every
// route registered.
func NewEngine(cfg EngineConfig, h Handlers) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	middleware.SetupValidator()

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(log),
		middleware.Operator(),
		middleware.TracingWithConfig(cfg.Tracing),
		middleware.SpanAttributes(),
		logger.GinMiddleware(log),
		middleware.HTTPMetrics(cfg.Meter),
		middleware.Profiling(cfg.Profiling),
		middleware.Secure(),
		middleware.CORSWithConfig(cfg.CORS),
		middleware.BodyLimit(cfg.MaxBodySize),
	)

	if h.System != nil {
		engine.GET("/health", h.System.Health)
	}
	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		engine.GET(path, gin.WrapH(cfg.MetricsHandler))
	}

	r := NewRouter(engine, WithAPIMiddleware(middleware.Idempotency(cfg.Idempotency)))
	for _, g := range DomainGroups(h) {
		r.Register(g)
	}
	r.Setup()
	return engine, nil
}
