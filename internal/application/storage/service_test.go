package storage

import (
	"context"
	"errors"
	"testing"

	appinv "github.com/fishfarm/backend/internal/application/inventory"
	"github.com/fishfarm/backend/internal/domain/dispatch"
	"github.com/fishfarm/backend/internal/domain/inventory"
	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/fishfarm/backend/internal/domain/sorting"
	"github.com/fishfarm/backend/internal/domain/storage"
	"github.com/fishfarm/backend/internal/domain/transfer"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// =============================================================================
// Mocks
// =============================================================================

type MockLocationRepository struct {
	mock.Mock
}

func (m *MockLocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*storage.StorageLocation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.StorageLocation), args.Error(1)
}

func (m *MockLocationRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*storage.StorageLocation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.StorageLocation), args.Error(1)
}

func (m *MockLocationRepository) FindByNameKey(ctx context.Context, nameKey string) (*storage.StorageLocation, error) {
	args := m.Called(ctx, nameKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.StorageLocation), args.Error(1)
}

func (m *MockLocationRepository) FindAll(ctx context.Context, filter storage.LocationFilter) ([]storage.StorageLocation, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]storage.StorageLocation), args.Error(1)
}

func (m *MockLocationRepository) Count(ctx context.Context, filter storage.LocationFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLocationRepository) Save(ctx context.Context, location *storage.StorageLocation) error {
	return m.Called(ctx, location).Error(0)
}

func (m *MockLocationRepository) SaveWithLock(ctx context.Context, location *storage.StorageLocation) error {
	return m.Called(ctx, location).Error(0)
}

func (m *MockLocationRepository) UpdateUsageCache(ctx context.Context, id uuid.UUID, usageGrams int64) error {
	return m.Called(ctx, id, usageGrams).Error(0)
}

type MockStockQuery struct {
	mock.Mock
}

func (m *MockStockQuery) Summarize(ctx context.Context, filter inventory.SummaryFilter) ([]inventory.Summary, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]inventory.Summary), args.Error(1)
}

func (m *MockStockQuery) UsageGrams(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[uuid.UUID]int64), args.Error(1)
}

func (m *MockStockQuery) StockRows(ctx context.Context, locationID uuid.UUID, sizeClass int, forUpdate bool) ([]inventory.StockRow, error) {
	args := m.Called(ctx, locationID, sizeClass, forUpdate)
	return args.Get(0).([]inventory.StockRow), args.Error(1)
}

// inlineScope runs the function immediately against the same mocks
type inlineScope struct {
	locations *MockLocationRepository
	stock     *MockStockQuery
}

func (s *inlineScope) Execute(_ context.Context, fn func(appinv.TransactionalRepositories) error) error {
	return fn(s)
}

func (s *inlineScope) LocationRepo() storage.LocationRepository    { return s.locations }
func (s *inlineScope) BatchRepo() sorting.BatchRepository          { return nil }
func (s *inlineScope) ResultRepo() sorting.ResultRepository        { return nil }
func (s *inlineScope) StockQuery() inventory.StockQuery            { return s.stock }
func (s *inlineScope) TransferRepo() transfer.Repository           { return nil }
func (s *inlineScope) OrderRepo() dispatch.OrderRepository         { return nil }
func (s *inlineScope) DispatchRepo() dispatch.RecordRepository     { return nil }
func (s *inlineScope) ReceivingRepo() dispatch.ReceivingRepository { return nil }

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return m.Called(ctx, events).Error(0)
}

func newTestService() (*LocationService, *MockLocationRepository, *MockStockQuery) {
	repo := new(MockLocationRepository)
	stock := new(MockStockQuery)
	svc := NewLocationService(repo, stock, &inlineScope{locations: repo, stock: stock}, nil)
	return svc, repo, stock
}

func coldStorageA(t *testing.T) *storage.StorageLocation {
	t.Helper()
	loc, err := storage.NewStorageLocation("Cold Storage A", storage.LocationTypeColdStorage, decimal.NewFromInt(2000))
	require.NoError(t, err)
	loc.ClearDomainEvents()
	return loc
}

// =============================================================================
// Tests
// =============================================================================

func TestLocationService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and publishes", func(t *testing.T) {
		svc, repo, _ := newTestService()
		pub := new(MockPublisher)
		svc.SetEventPublisher(pub)

		repo.On("FindByNameKey", ctx, "freezer 1").Return(nil, shared.ErrNotFound)
		repo.On("Save", ctx, mock.AnythingOfType("*storage.StorageLocation")).Return(nil)
		pub.On("Publish", ctx, mock.Anything).Return(nil)

		resp, err := svc.Create(ctx, CreateLocationRequest{Name: "Freezer 1", LocationType: "freezer", CapacityKg: decimal.NewFromInt(500)})
		require.NoError(t, err)
		assert.Equal(t, "active", resp.Status)
		assert.True(t, resp.CurrentUsageKg.IsZero())
		pub.AssertNumberOfCalls(t, "Publish", 1)
	})

	t.Run("logs publish failures without failing the create", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		repo := new(MockLocationRepository)
		stock := new(MockStockQuery)
		svc := NewLocationService(repo, stock, &inlineScope{locations: repo, stock: stock}, zap.New(core))
		pub := new(MockPublisher)
		svc.SetEventPublisher(pub)

		repo.On("FindByNameKey", ctx, "freezer 2").Return(nil, shared.ErrNotFound)
		repo.On("Save", ctx, mock.AnythingOfType("*storage.StorageLocation")).Return(nil)
		pub.On("Publish", ctx, mock.Anything).Return(errors.New("bus stopped"))

		resp, err := svc.Create(ctx, CreateLocationRequest{Name: "Freezer 2", LocationType: "freezer", CapacityKg: decimal.NewFromInt(500)})
		require.NoError(t, err)

		entries := logs.FilterMessage("failed to publish storage location events").All()
		require.Len(t, entries, 1)
		assert.Equal(t, resp.ID.String(), entries[0].ContextMap()["location_id"])
		assert.Equal(t, "bus stopped", entries[0].ContextMap()["error"])
	})

	t.Run("rejects duplicate name regardless of case", func(t *testing.T) {
		svc, repo, _ := newTestService()
		existing := coldStorageA(t)
		repo.On("FindByNameKey", ctx, "cold storage a").Return(existing, nil)

		_, err := svc.Create(ctx, CreateLocationRequest{Name: "COLD STORAGE A", LocationType: "cold_storage", CapacityKg: decimal.NewFromInt(10)})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("validates before touching the store", func(t *testing.T) {
		svc, repo, _ := newTestService()
		_, err := svc.Create(ctx, CreateLocationRequest{Name: "X", LocationType: "freezer", CapacityKg: decimal.Zero})
		assert.ErrorIs(t, err, shared.ErrValidation)
		repo.AssertNotCalled(t, "FindByNameKey", mock.Anything, mock.Anything)
	})
}

func TestLocationService_Get_ReportsLiveUsage(t *testing.T) {
	ctx := context.Background()
	svc, repo, stock := newTestService()
	loc := coldStorageA(t)
	loc.CurrentUsageKg = decimal.NewFromInt(7) // stale

	repo.On("FindByID", ctx, loc.ID).Return(loc, nil)
	stock.On("UsageGrams", ctx, []uuid.UUID{loc.ID}).Return(map[uuid.UUID]int64{loc.ID: 1083750}, nil)
	repo.On("UpdateUsageCache", ctx, loc.ID, int64(1083750)).Return(nil)

	resp, err := svc.Get(ctx, loc.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1083.75").Equal(resp.CurrentUsageKg))
	assert.Equal(t, "54.19", resp.UtilizationPercent.StringFixed(2))
	repo.AssertCalled(t, "UpdateUsageCache", ctx, loc.ID, int64(1083750))
}

func TestLocationService_UpdateCapacity(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects capacity below live usage", func(t *testing.T) {
		svc, repo, stock := newTestService()
		loc := coldStorageA(t)
		repo.On("FindByIDForUpdate", ctx, loc.ID).Return(loc, nil)
		stock.On("UsageGrams", ctx, []uuid.UUID{loc.ID}).Return(map[uuid.UUID]int64{loc.ID: 1083750}, nil)

		_, err := svc.UpdateCapacity(ctx, loc.ID, UpdateCapacityRequest{CapacityKg: decimal.NewFromInt(1000)})
		assert.ErrorIs(t, err, shared.ErrCapacityExceeded)
		repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("saves when usage fits", func(t *testing.T) {
		svc, repo, stock := newTestService()
		loc := coldStorageA(t)
		repo.On("FindByIDForUpdate", ctx, loc.ID).Return(loc, nil)
		repo.On("FindByID", ctx, loc.ID).Return(loc, nil)
		stock.On("UsageGrams", ctx, []uuid.UUID{loc.ID}).Return(map[uuid.UUID]int64{loc.ID: 0}, nil)
		repo.On("SaveWithLock", ctx, loc).Return(nil)

		resp, err := svc.UpdateCapacity(ctx, loc.ID, UpdateCapacityRequest{CapacityKg: decimal.NewFromInt(2500)})
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(2500).Equal(resp.CapacityKg))
	})
}

func TestLocationService_SetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("maintenance location no longer accepts stock", func(t *testing.T) {
		svc, repo, stock := newTestService()
		loc := coldStorageA(t)
		repo.On("FindByID", ctx, loc.ID).Return(loc, nil)
		repo.On("SaveWithLock", ctx, loc).Return(nil)
		stock.On("UsageGrams", ctx, []uuid.UUID{loc.ID}).Return(map[uuid.UUID]int64{loc.ID: 0}, nil)

		resp, err := svc.SetStatus(ctx, loc.ID, UpdateStatusRequest{Status: "maintenance"})
		require.NoError(t, err)
		assert.Equal(t, "maintenance", resp.Status)
		assert.False(t, resp.AcceptsNewStock)
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		svc, repo, stock := newTestService()
		loc := coldStorageA(t)
		repo.On("FindByID", ctx, loc.ID).Return(loc, nil)
		stock.On("UsageGrams", ctx, []uuid.UUID{loc.ID}).Return(map[uuid.UUID]int64{loc.ID: 0}, nil)

		_, err := svc.SetStatus(ctx, loc.ID, UpdateStatusRequest{Status: "active"})
		require.NoError(t, err)
		repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("unknown status is a validation error", func(t *testing.T) {
		svc, repo, _ := newTestService()
		loc := coldStorageA(t)
		repo.On("FindByID", ctx, loc.ID).Return(loc, nil)

		_, err := svc.SetStatus(ctx, loc.ID, UpdateStatusRequest{Status: "flooded"})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestLocationService_Utilization(t *testing.T) {
	ctx := context.Background()
	svc, repo, stock := newTestService()
	loc := coldStorageA(t)
	repo.On("FindByID", ctx, loc.ID).Return(loc, nil)
	repo.On("UpdateUsageCache", ctx, loc.ID, int64(1083750)).Return(nil)
	stock.On("Summarize", ctx, inventory.SummaryFilter{LocationID: &loc.ID}).Return([]inventory.Summary{
		{StorageLocationID: loc.ID, SizeClass: 2, TotalPieces: 1000, TotalWeightGrams: 250000, BatchCount: 1},
		{StorageLocationID: loc.ID, SizeClass: 5, TotalPieces: 1200, TotalWeightGrams: 833750, BatchCount: 2},
	}, nil)

	resp, err := svc.Utilization(ctx, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, "54.19", resp.UtilizationPercent.StringFixed(2))
	require.Len(t, resp.BySizeClass, 2)
	assert.Equal(t, int64(1200), resp.BySizeClass[1].TotalPieces)
}

func TestLocationService_CapacityOf(t *testing.T) {
	ctx := context.Background()
	svc, repo, stock := newTestService()
	loc := coldStorageA(t)
	loc.CurrentUsageKg = decimal.RequireFromString("1500")
	repo.On("FindByID", ctx, loc.ID).Return(loc, nil)
	stock.On("UsageGrams", ctx, []uuid.UUID{loc.ID}).Return(map[uuid.UUID]int64{loc.ID: 1500000}, nil)

	resp, err := svc.CapacityOf(ctx, loc.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(resp.HeadroomKg))
	repo.AssertNotCalled(t, "UpdateUsageCache", mock.Anything, mock.Anything, mock.Anything)
}
