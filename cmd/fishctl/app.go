package main

import (
	"context"
	"fmt"
	"time"

	dispatchapp "github.com/fishfarm/backend/internal/application/dispatch"
	inventoryapp "github.com/fishfarm/backend/internal/application/inventory"
	storageapp "github.com/fishfarm/backend/internal/application/storage"
	transferapp "github.com/fishfarm/backend/internal/application/transfer"
	"github.com/fishfarm/backend/internal/domain/dispatch"
	"github.com/fishfarm/backend/internal/domain/sizing"
	"github.com/fishfarm/backend/internal/infrastructure/config"
	"github.com/fishfarm/backend/internal/infrastructure/event"
	"github.com/fishfarm/backend/internal/infrastructure/logger"
	"github.com/fishfarm/backend/internal/infrastructure/persistence"
	"github.com/fishfarm/backend/internal/infrastructure/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds the services a command needs
type app struct {
	classifier *sizing.Classifier
	locations  *storageapp.LocationService
	inventory  *inventoryapp.InventoryService
	transfers  *transferapp.TransferService
	dispatch   *dispatchapp.DispatchService
}

// appOpener builds the app for one command run; the returned func releases it
type appOpener func(ctx context.Context, logLevel string) (*app, func(), error)

func openApp(ctx context.Context, logLevel string) (*app, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	log, err := logger.New(logger.Config{Level: logLevel, Format: "console", Output: "stderr"})
	if err != nil {
		return nil, nil, err
	}

	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(logger.NewGormLogger(log, logger.MapGormLogLevel(logLevel))))
	if err != nil {
		return nil, nil, err
	}
	classifier, err := classifierFor(cfg.Sizing)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	archive, err := storage.NewReportArchive(ctx, cfg.Archive, log)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	a := newApp(db.DB, classifier, dispatch.Tolerance{
		Pieces:   cfg.Dispatch.TolerancePieces,
		WeightKg: cfg.Dispatch.ToleranceWeightKg,
	}, cfg.Database.TxTimeout, archive, log)
	return a, func() {
		if err := db.Close(); err != nil {
			log.Warn("Error closing database", zap.Error(err))
		}
		_ = log.Sync()
	}, nil
}

// newApp wires repositories, services and the in-process event handlers on db
func newApp(db *gorm.DB, classifier *sizing.Classifier, tolerance dispatch.Tolerance, txTimeout time.Duration, archive dispatch.ReportArchive, log *zap.Logger) *app {
	locationRepo := persistence.NewGormStorageLocationRepository(db)
	stock := persistence.NewGormStockQuery(db)
	txScope := persistence.NewGormTransactionScope(db, txTimeout)

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(inventoryapp.NewUsageCacheRefresher(stock, locationRepo, log))
	if archive != nil {
		bus.Subscribe(dispatchapp.NewReconciliationArchiver(archive, log))
	}

	locations := storageapp.NewLocationService(locationRepo, stock, txScope, log)
	locations.SetEventPublisher(bus)
	transfers := transferapp.NewTransferService(persistence.NewGormTransferRepository(db), locationRepo, stock, txScope, log)
	transfers.SetEventPublisher(bus)
	dispatches := dispatchapp.NewDispatchService(
		persistence.NewGormOutletOrderRepository(db),
		persistence.NewGormDispatchRecordRepository(db),
		persistence.NewGormOutletReceivingRepository(db),
		locationRepo, txScope, tolerance, log)
	dispatches.SetEventPublisher(bus)

	return &app{
		classifier: classifier,
		locations:  locations,
		inventory:  inventoryapp.NewInventoryService(stock, classifier),
		transfers:  transfers,
		dispatch:   dispatches,
	}
}

func classifierFor(cfg config.SizingConfig) (*sizing.Classifier, error) {
	if len(cfg.BandUpperBounds) == 0 {
		return sizing.NewDefaultClassifier(), nil
	}
	bounds, err := sizing.ParseUpperBounds(cfg.BandUpperBounds)
	if err != nil {
		return nil, err
	}
	return sizing.NewClassifier(bounds)
}
