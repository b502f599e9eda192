package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/fishfarm/backend/internal/domain/inventory"
	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/fishfarm/backend/internal/domain/sizing"
	"github.com/fishfarm/backend/internal/domain/sorting"
	"github.com/fishfarm/backend/internal/domain/storage"
	"github.com/fishfarm/backend/internal/domain/transfer"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStockQuery struct {
	mock.Mock
}

func (m *MockStockQuery) Summarize(ctx context.Context, filter inventory.SummaryFilter) ([]inventory.Summary, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.Summary), args.Error(1)
}

func (m *MockStockQuery) UsageGrams(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]int64), args.Error(1)
}

func (m *MockStockQuery) StockRows(ctx context.Context, locationID uuid.UUID, sizeClass int, forUpdate bool) ([]inventory.StockRow, error) {
	args := m.Called(ctx, locationID, sizeClass, forUpdate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.StockRow), args.Error(1)
}

type MockLocationRepository struct {
	mock.Mock
	storage.LocationRepository
}

func (m *MockLocationRepository) UpdateUsageCache(ctx context.Context, id uuid.UUID, usageGrams int64) error {
	args := m.Called(ctx, id, usageGrams)
	return args.Error(0)
}

func TestInventoryService_Summarize(t *testing.T) {
	ctx := context.Background()
	loc := uuid.New()

	t.Run("adds kg and size labels", func(t *testing.T) {
		stock := new(MockStockQuery)
		stock.On("Summarize", ctx, inventory.SummaryFilter{LocationID: &loc}).Return([]inventory.Summary{
			{StorageLocationID: loc, SizeClass: 3, TotalPieces: 100, TotalWeightGrams: 30550, BatchCount: 2},
		}, nil)

		svc := NewInventoryService(stock, sizing.NewDefaultClassifier())
		out, err := svc.Summarize(ctx, SummaryFilter{LocationID: &loc})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, int64(100), out[0].TotalPieces)
		assert.True(t, decimal.RequireFromString("30.55").Equal(out[0].TotalWeightKg))
		assert.NotEmpty(t, out[0].SizeLabel)
		assert.Equal(t, 2, out[0].BatchCount)
		stock.AssertExpectations(t)
	})

	t.Run("rejects negative size class before querying", func(t *testing.T) {
		stock := new(MockStockQuery)
		svc := NewInventoryService(stock, nil)
		neg := -1

		_, err := svc.Summarize(ctx, SummaryFilter{SizeClass: &neg})
		assert.ErrorIs(t, err, shared.ErrValidation)
		stock.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything)
	})

	t.Run("propagates store errors", func(t *testing.T) {
		stock := new(MockStockQuery)
		stock.On("Summarize", ctx, inventory.SummaryFilter{}).
			Return(nil, shared.NewTransientStoreError("summarize inventory", errors.New("conn reset")))

		_, err := NewInventoryService(stock, nil).Summarize(ctx, SummaryFilter{})
		assert.True(t, shared.IsRetryable(err))
	})
}

func TestInventoryService_UsageKg(t *testing.T) {
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()
	stock := new(MockStockQuery)
	stock.On("UsageGrams", ctx, []uuid.UUID{a, b}).Return(map[uuid.UUID]int64{a: 1083750, b: 0}, nil)

	usage, err := NewInventoryService(stock, nil).UsageKg(ctx, []uuid.UUID{a, b})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1083.75").Equal(usage[a]))
	assert.True(t, usage[b].IsZero())
}

func TestUsageCacheRefresher_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("refreshes both ends of a completed transfer", func(t *testing.T) {
		from, to := uuid.New(), uuid.New()
		tr := &transfer.Transfer{FromStorageID: from, ToStorageID: to, SizeClass: 2, Quantity: 10, WeightGrams: 4000}
		tr.ID = uuid.New()

		stock := new(MockStockQuery)
		stock.On("UsageGrams", ctx, []uuid.UUID{from, to}).Return(map[uuid.UUID]int64{from: 6000, to: 4000}, nil)
		locations := new(MockLocationRepository)
		locations.On("UpdateUsageCache", ctx, from, int64(6000)).Return(nil)
		locations.On("UpdateUsageCache", ctx, to, int64(4000)).Return(nil)

		h := NewUsageCacheRefresher(stock, locations, nil)
		require.NoError(t, h.Handle(ctx, transfer.NewCompletedEvent(tr)))
		locations.AssertExpectations(t)
	})

	t.Run("ignores events without locations", func(t *testing.T) {
		stock := new(MockStockQuery)
		locations := new(MockLocationRepository)
		tr := &transfer.Transfer{}

		h := NewUsageCacheRefresher(stock, locations, nil)
		require.NoError(t, h.Handle(ctx, transfer.NewApprovedEvent(tr)))
		stock.AssertNotCalled(t, "UsageGrams", mock.Anything, mock.Anything)
	})

	t.Run("subscribes to stock mutations", func(t *testing.T) {
		h := NewUsageCacheRefresher(nil, nil, nil)
		assert.Contains(t, h.EventTypes(), sorting.EventTypeBatchCompleted)
		assert.Contains(t, h.EventTypes(), transfer.EventTypeTransferCompleted)
	})

	t.Run("wraps store failures", func(t *testing.T) {
		loc := uuid.New()
		stock := new(MockStockQuery)
		stock.On("UsageGrams", ctx, []uuid.UUID{loc}).Return(nil, errors.New("boom"))

		batch := sorting.NewSortingBatch("")
		_, err := batch.AddResult(1, 3, 450, &loc)
		require.NoError(t, err)

		h := NewUsageCacheRefresher(stock, new(MockLocationRepository), nil)
		err = h.Handle(ctx, sorting.NewBatchCompletedEvent(batch))
		require.Error(t, err)
		assert.Contains(t, err.Error(), sorting.EventTypeBatchCompleted)
	})
}
