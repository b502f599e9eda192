package integration

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	dispatchapp "github.com/fishfarm/backend/internal/application/dispatch"
	inventoryapp "github.com/fishfarm/backend/internal/application/inventory"
	sortingapp "github.com/fishfarm/backend/internal/application/sorting"
	storageapp "github.com/fishfarm/backend/internal/application/storage"
	transferapp "github.com/fishfarm/backend/internal/application/transfer"
	"github.com/fishfarm/backend/internal/domain/dispatch"
	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/fishfarm/backend/internal/domain/sizing"
	"github.com/fishfarm/backend/internal/infrastructure/migration"
	"github.com/fishfarm/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type services struct {
	locations *storageapp.LocationService
	sorting   *sortingapp.SortingService
	transfers *transferapp.TransferService
	dispatch  *dispatchapp.DispatchService
	inventory *inventoryapp.InventoryService
}

func newServices(db *gorm.DB) *services {
	classifier := sizing.NewDefaultClassifier()
	locationRepo := persistence.NewGormStorageLocationRepository(db)
	stock := persistence.NewGormStockQuery(db)
	txScope := persistence.NewGormTransactionScope(db, 10*time.Second)
	return &services{
		locations: storageapp.NewLocationService(locationRepo, stock, txScope, nil),
		sorting: sortingapp.NewSortingService(
			persistence.NewGormSortingBatchRepository(db),
			persistence.NewGormSortingResultRepository(db),
			txScope, classifier),
		transfers: transferapp.NewTransferService(persistence.NewGormTransferRepository(db), locationRepo, stock, txScope, nil),
		dispatch: dispatchapp.NewDispatchService(
			persistence.NewGormOutletOrderRepository(db),
			persistence.NewGormDispatchRecordRepository(db),
			persistence.NewGormOutletReceivingRepository(db),
			locationRepo, txScope, dispatch.Tolerance{}, nil),
		inventory: inventoryapp.NewInventoryService(stock, classifier),
	}
}

func (s *services) location(t *testing.T, name, capacityKg string) uuid.UUID {
	t.Helper()
	loc, err := s.locations.Create(context.Background(), storageapp.CreateLocationRequest{
		Name:         name,
		LocationType: "cold_storage",
		CapacityKg:   decimal.RequireFromString(capacityKg),
	})
	require.NoError(t, err)
	return loc.ID
}

func (s *services) stock(t *testing.T, loc uuid.UUID, sizeClass int, pieces int64, kg string) {
	t.Helper()
	ctx := context.Background()
	batch, err := s.sorting.CreateBatch(ctx, sortingapp.CreateBatchRequest{Notes: "integration"})
	require.NoError(t, err)
	_, err = s.sorting.AddResult(ctx, batch.ID, sortingapp.AddResultRequest{
		SizeClass:         sizeClass,
		TotalPieces:       pieces,
		TotalWeightKg:     decimal.RequireFromString(kg),
		StorageLocationID: &loc,
	})
	require.NoError(t, err)
	_, err = s.sorting.CompleteBatch(ctx, batch.ID)
	require.NoError(t, err)
}

func (s *services) pieces(t *testing.T, loc uuid.UUID, sizeClass int) int64 {
	t.Helper()
	rows, err := s.inventory.Summarize(context.Background(), inventoryapp.SummaryFilter{LocationID: &loc, SizeClass: &sizeClass})
	require.NoError(t, err)
	var total int64
	for _, r := range rows {
		total += r.TotalPieces
	}
	return total
}

func TestMigrations_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	testDB := NewTestDB(t)

	m, err := migration.NewFromURL(testDB.DSN, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	status, err := m.Status()
	require.NoError(t, err)
	assert.True(t, status.Applied)
	assert.False(t, status.Dirty)
	assert.Equal(t, uint(4), status.Version)

	for _, table := range []string{"storage_locations", "sorting_batches", "sorting_results", "transfers", "outlet_orders", "dispatch_records", "outlet_receiving"} {
		assert.True(t, testDB.DB.Migrator().HasTable(table), table)
	}
}

func TestStockFlow_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	testDB := NewSharedTestDB(t)
	testDB.CleanTables()
	svc := newServices(testDB.DB)
	ctx := context.Background()

	a := svc.location(t, "Cold Storage A", "2000")
	b := svc.location(t, "Freezer B", "1000")
	svc.stock(t, a, 3, 60, "30")
	svc.stock(t, a, 3, 40, "20")

	tr, err := svc.transfers.Request(ctx, transferapp.RequestTransferRequest{
		FromStorageID: a, ToStorageID: b, SizeClass: 3, Quantity: 70, WeightKg: decimal.NewFromInt(35),
	})
	require.NoError(t, err)
	_, err = svc.transfers.Approve(ctx, tr.ID, transferapp.ApproveTransferRequest{ApprovedBy: "supervisor"})
	require.NoError(t, err)
	_, err = svc.transfers.Complete(ctx, tr.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(30), svc.pieces(t, a, 3))
	assert.Equal(t, int64(70), svc.pieces(t, b, 3))

	util, err := svc.locations.Utilization(ctx, b)
	require.NoError(t, err)
	assert.True(t, util.UsageKg.Equal(decimal.NewFromInt(35)), util.UsageKg.String())

	order, err := svc.dispatch.CreateOrder(ctx, dispatchapp.CreateOrderRequest{
		OutletName: "Harbour Market",
		Lines:      []dispatchapp.OrderLineRequest{{SizeClass: 3, Pieces: 20}},
	})
	require.NoError(t, err)
	record, err := svc.dispatch.Dispatch(ctx, order.ID, dispatchapp.DispatchOrderRequest{StorageLocationID: b})
	require.NoError(t, err)
	assert.Equal(t, int64(50), svc.pieces(t, b, 3))

	receiving, err := svc.dispatch.Reconcile(ctx, record.ID, dispatchapp.ReconcileRequest{
		Lines: []dispatchapp.ReceivedLineRequest{{SizeClass: 3, Pieces: 20, WeightKg: record.Manifest[0].WeightKg}},
	})
	require.NoError(t, err)
	assert.Equal(t, string(dispatch.ReceivingStatusMatch), receiving.Status)
}

// Two dispatches race for the same stock; the row locks let only one win.
func TestConcurrentDispatch_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	testDB := NewSharedTestDB(t)
	testDB.CleanTables()
	svc := newServices(testDB.DB)
	ctx := context.Background()

	loc := svc.location(t, "Cold Storage A", "2000")
	svc.stock(t, loc, 2, 10, "2")

	orders := make([]uuid.UUID, 2)
	for i := range orders {
		o, err := svc.dispatch.CreateOrder(ctx, dispatchapp.CreateOrderRequest{
			OutletName: "Outlet",
			Lines:      []dispatchapp.OrderLineRequest{{SizeClass: 2, Pieces: 7}},
		})
		require.NoError(t, err)
		orders[i] = o.ID
	}

	var succeeded, shortfalls atomic.Int32
	var g errgroup.Group
	for _, id := range orders {
		g.Go(func() error {
			_, err := svc.dispatch.Dispatch(ctx, id, dispatchapp.DispatchOrderRequest{StorageLocationID: loc})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, shared.ErrInsufficientStock), errors.Is(err, shared.ErrConsistencyViolation):
				shortfalls.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(1), shortfalls.Load())
	assert.Equal(t, int64(3), svc.pieces(t, loc, 2))
}

// Completing the same transfer twice at once moves the stock once.
func TestConcurrentTransferComplete_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	testDB := NewSharedTestDB(t)
	testDB.CleanTables()
	svc := newServices(testDB.DB)
	ctx := context.Background()

	a := svc.location(t, "Cold Storage A", "2000")
	b := svc.location(t, "Freezer B", "1000")
	svc.stock(t, a, 4, 50, "30")

	tr, err := svc.transfers.Request(ctx, transferapp.RequestTransferRequest{
		FromStorageID: a, ToStorageID: b, SizeClass: 4, Quantity: 20, WeightKg: decimal.NewFromInt(12),
	})
	require.NoError(t, err)
	_, err = svc.transfers.Approve(ctx, tr.ID, transferapp.ApproveTransferRequest{})
	require.NoError(t, err)

	var completed atomic.Int32
	var g errgroup.Group
	for range 2 {
		g.Go(func() error {
			_, err := svc.transfers.Complete(ctx, tr.ID)
			if err == nil {
				completed.Add(1)
				return nil
			}
			if errors.Is(err, shared.ErrInvalidState) || errors.Is(err, shared.ErrConcurrencyConflict) {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), completed.Load())
	assert.Equal(t, int64(30), svc.pieces(t, a, 4))
	assert.Equal(t, int64(20), svc.pieces(t, b, 4))
}

func TestApproveCapacity_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	testDB := NewSharedTestDB(t)
	testDB.CleanTables()
	svc := newServices(testDB.DB)
	ctx := context.Background()

	a := svc.location(t, "Cold Storage A", "2000")
	small := svc.location(t, "Chiller", "10")
	svc.stock(t, a, 5, 40, "40")

	tr, err := svc.transfers.Request(ctx, transferapp.RequestTransferRequest{
		FromStorageID: a, ToStorageID: small, SizeClass: 5, Quantity: 20, WeightKg: decimal.NewFromInt(20),
	})
	require.NoError(t, err)

	_, err = svc.transfers.Approve(ctx, tr.ID, transferapp.ApproveTransferRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrCapacityExceeded), err)

	got, err := svc.transfers.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, "pending", got.Status)
}
