package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	dispatchapp "github.com/fishfarm/backend/internal/application/dispatch"
	inventoryapp "github.com/fishfarm/backend/internal/application/inventory"
	sortingapp "github.com/fishfarm/backend/internal/application/sorting"
	storageapp "github.com/fishfarm/backend/internal/application/storage"
	transferapp "github.com/fishfarm/backend/internal/application/transfer"
	"github.com/fishfarm/backend/internal/domain/dispatch"
	"github.com/fishfarm/backend/internal/domain/sizing"
	"github.com/fishfarm/backend/internal/infrastructure/cache"
	"github.com/fishfarm/backend/internal/infrastructure/config"
	"github.com/fishfarm/backend/internal/infrastructure/event"
	"github.com/fishfarm/backend/internal/infrastructure/logger"
	"github.com/fishfarm/backend/internal/infrastructure/persistence"
	"github.com/fishfarm/backend/internal/infrastructure/storage"
	"github.com/fishfarm/backend/internal/infrastructure/telemetry"
	"github.com/fishfarm/backend/internal/interfaces/http/handler"
	"github.com/fishfarm/backend/internal/interfaces/http/middleware"
	"github.com/fishfarm/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize logger:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Server exited with error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	_ = log.Sync()
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	telemetry.ServiceVersion = version
	log.Info("Starting fish farm backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Telemetry providers. Each one degrades to a no-op when disabled.
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.FromAppConfig(cfg.Telemetry), log)
	if err != nil {
		return fmt.Errorf("init tracer provider: %w", err)
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("init meter provider: %w", err)
	}
	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("init logger provider: %w", err)
	}
	if lp.IsEnabled() {
		log = telemetry.Bridge(log, cfg.Telemetry.ServiceName, lp, logger.ParseLevel(cfg.Telemetry.LogsExportLevel))
	}
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeServer,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		return fmt.Errorf("init profiler: %w", err)
	}
	if profiler.IsEnabled() {
		tp.EnableSpanProfiles()
	}
	defer shutdownTelemetry(log, tp, mp, lp, profiler)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, log)
	if err := dbTracing.Register(db.DB); err != nil {
		return fmt.Errorf("register database tracing: %w", err)
	}
	log.Info("Database connected successfully")

	classifier, err := newClassifier(cfg.Sizing)
	if err != nil {
		return err
	}

	// Repositories
	locationRepo := persistence.NewGormStorageLocationRepository(db.DB)
	batchRepo := persistence.NewGormSortingBatchRepository(db.DB)
	resultRepo := persistence.NewGormSortingResultRepository(db.DB)
	transferRepo := persistence.NewGormTransferRepository(db.DB)
	orderRepo := persistence.NewGormOutletOrderRepository(db.DB)
	recordRepo := persistence.NewGormDispatchRecordRepository(db.DB)
	receivingRepo := persistence.NewGormOutletReceivingRepository(db.DB)
	stockQuery := persistence.NewGormStockQuery(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB, cfg.Database.TxTimeout)

	// Services
	locationService := storageapp.NewLocationService(locationRepo, stockQuery, txScope, log)
	sortingService := sortingapp.NewSortingService(batchRepo, resultRepo, txScope, classifier)
	transferService := transferapp.NewTransferService(transferRepo, locationRepo, stockQuery, txScope, log)
	dispatchService := dispatchapp.NewDispatchService(orderRepo, recordRepo, receivingRepo, locationRepo, txScope,
		dispatch.Tolerance{Pieces: cfg.Dispatch.TolerancePieces, WeightKg: cfg.Dispatch.ToleranceWeightKg}, log)
	inventoryService := inventoryapp.NewInventoryService(stockQuery, classifier)

	archive, err := storage.NewReportArchive(ctx, cfg.Archive, log)
	if err != nil {
		return fmt.Errorf("init report archive: %w", err)
	}

	// Event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)
	inventoryMetrics := telemetry.NewInventoryMetrics()
	usageRefresher := inventoryapp.NewUsageCacheRefresher(stockQuery, locationRepo, log)
	archiver := dispatchapp.NewReconciliationArchiver(archive, log)
	eventBus.Subscribe(usageRefresher)
	eventBus.Subscribe(inventoryMetrics)
	eventBus.Subscribe(archiver)
	log.Info("Event handlers registered",
		zap.Strings("usage_refresher_events", usageRefresher.EventTypes()),
		zap.Strings("metrics_events", inventoryMetrics.EventTypes()),
		zap.Strings("archiver_events", archiver.EventTypes()),
	)
	if err := eventBus.Start(ctx); err != nil {
		return fmt.Errorf("start event bus: %w", err)
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	locationService.SetEventPublisher(eventBus)
	sortingService.SetEventPublisher(eventBus)
	transferService.SetEventPublisher(eventBus)
	dispatchService.SetEventPublisher(eventBus)

	// Idempotency-Key store
	idemCfg := middleware.IdempotencyConfig{TTL: cfg.Idempotency.TTL, Logger: log}
	components := map[string]handler.Pinger{"database": databasePinger{db: db}}
	if cfg.Idempotency.Enabled {
		factory := cache.NewIdempotencyStoreFactory(cfg.Redis, cfg.Idempotency,
			cache.WithLogger(log),
			cache.WithInMemoryFallback(cfg.App.Env != "production"))
		store, err := factory.CreateStore()
		if err != nil {
			return fmt.Errorf("init idempotency store: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Error("Error closing idempotency store", zap.Error(err))
			}
		}()
		idemCfg.Store = store
		if p, ok := store.(handler.Pinger); ok {
			components["idempotency"] = p
		}
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engineCfg := router.EngineConfig{
		Logger:         log,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		CORS:           middleware.DefaultCORSConfig(),
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		Idempotency:    idemCfg,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		Profiling:      profiler.IsEnabled(),
		MetricsPath:    cfg.HTTP.MetricsPath,
		MetricsHandler: inventoryMetrics.Handler(),
	}
	if cfg.Telemetry.MetricsEnabled {
		engineCfg.Meter = mp.Meter("http.server")
	}

	engine, err := router.NewEngine(engineCfg, router.Handlers{
		SizeClasses: handler.NewSizeClassHandler(classifier),
		Locations:   handler.NewStorageLocationHandler(locationService),
		Inventory:   handler.NewInventoryHandler(inventoryService),
		Sorting:     handler.NewSortingHandler(sortingService),
		Transfers:   handler.NewTransferHandler(transferService),
		Dispatch:    handler.NewDispatchHandler(dispatchService),
		System:      handler.NewSystemHandler(cfg.App.Name, version, components),
	})
	if err != nil {
		return fmt.Errorf("build http engine: %w", err)
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Server exited gracefully")
	return nil
}

func newClassifier(cfg config.SizingConfig) (*sizing.Classifier, error) {
	if len(cfg.BandUpperBounds) == 0 {
		return sizing.NewDefaultClassifier(), nil
	}
	bounds, err := sizing.ParseUpperBounds(cfg.BandUpperBounds)
	if err != nil {
		return nil, err
	}
	classifier, err := sizing.NewClassifier(bounds)
	if err != nil {
		return nil, fmt.Errorf("invalid size bands: %w", err)
	}
	return classifier, nil
}

type databasePinger struct {
	db *persistence.Database
}

func (p databasePinger) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

func shutdownTelemetry(log *zap.Logger, tp, mp, lp shutdowner, profiler *telemetry.Profiler) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	for name, p := range map[string]shutdowner{"tracer": tp, "meter": mp, "logger": lp} {
		if err := p.Shutdown(ctx); err != nil {
			log.Error("Error shutting down telemetry provider", zap.String("provider", name), zap.Error(err))
		}
	}
}
