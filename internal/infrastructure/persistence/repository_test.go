package persistence

import (
	"context"
	"testing"
	"time"

	appinv "github.com/fishfarm/backend/internal/application/inventory"
	"github.com/fishfarm/backend/internal/domain/dispatch"
	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/fishfarm/backend/internal/domain/sorting"
	"github.com/fishfarm/backend/internal/domain/storage"
	"github.com/fishfarm/backend/internal/domain/transfer"
	"github.com/fishfarm/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedLocation(t *testing.T, db *gorm.DB, name string, capacityKg int64) *storage.StorageLocation {
	t.Helper()
	loc, err := storage.NewStorageLocation(name, storage.LocationTypeColdStorage, decimal.NewFromInt(capacityKg))
	require.NoError(t, err)
	require.NoError(t, NewGormStorageLocationRepository(db).Save(context.Background(), loc))
	return loc
}

type resultSeed struct {
	sizeClass int
	pieces    int64
	grams     int64
	location  *uuid.UUID
}

// seedBatch stores a batch created age ago with the given results
func seedBatch(t *testing.T, db *gorm.DB, age time.Duration, complete bool, seeds ...resultSeed) *sorting.SortingBatch {
	t.Helper()
	ctx := context.Background()
	batch := sorting.NewSortingBatch("seed")
	batch.CreatedAt = time.Now().Add(-age)
	for _, s := range seeds {
		_, err := batch.AddResult(s.sizeClass, s.pieces, s.grams, s.location)
		require.NoError(t, err)
	}
	if complete {
		require.NoError(t, batch.Complete())
	}
	require.NoError(t, NewGormSortingBatchRepository(db).Save(ctx, batch))
	require.NoError(t, NewGormSortingResultRepository(db).CreateBatch(ctx, batch.Results))
	return batch
}

func TestStorageLocationRepository_RoundTrip(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormStorageLocationRepository(db)
	ctx := context.Background()

	loc := seedLocation(t, db, "Cold Room A", 500)

	got, err := repo.FindByID(ctx, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cold Room A", got.Name)
	assert.True(t, decimal.NewFromInt(500).Equal(got.CapacityKg))
	assert.Equal(t, storage.LocationStatusActive, got.Status)

	byName, err := repo.FindByNameKey(ctx, storage.NormalizeName("  cold room a "))
	require.NoError(t, err)
	assert.Equal(t, loc.ID, byName.ID)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestStorageLocationRepository_DuplicateName(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	seedLocation(t, db, "Tank 1", 100)

	dup, err := storage.NewStorageLocation("TANK 1", storage.LocationTypeAmbient, decimal.NewFromInt(50))
	require.NoError(t, err)
	err = NewGormStorageLocationRepository(db).Save(context.Background(), dup)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestStorageLocationRepository_SaveWithLock(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormStorageLocationRepository(db)
	ctx := context.Background()
	loc := seedLocation(t, db, "Freezer", 200)

	first, err := repo.FindByID(ctx, loc.ID)
	require.NoError(t, err)
	stale, err := repo.FindByID(ctx, loc.ID)
	require.NoError(t, err)

	require.NoError(t, first.SetStatus(storage.LocationStatusMaintenance))
	require.NoError(t, repo.SaveWithLock(ctx, first))

	require.NoError(t, stale.SetStatus(storage.LocationStatusInactive))
	err = repo.SaveWithLock(ctx, stale)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	got, err := repo.FindByID(ctx, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.LocationStatusMaintenance, got.Status)
}

func TestStorageLocationRepository_FilterAndCount(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormStorageLocationRepository(db)
	ctx := context.Background()
	seedLocation(t, db, "North Pond", 100)
	seedLocation(t, db, "South Pond", 100)
	seedLocation(t, db, "Blast Freezer", 100)

	filter := storage.LocationFilter{Filter: shared.Filter{Page: 1, PageSize: 10, OrderDir: "asc", Search: "pond"}}
	list, err := repo.FindAll(ctx, filter)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "North Pond", list[0].Name)

	n, err := repo.Count(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestStorageLocationRepository_UpdateUsageCache(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormStorageLocationRepository(db)
	ctx := context.Background()
	loc := seedLocation(t, db, "Cold Room B", 100)

	require.NoError(t, repo.UpdateUsageCache(ctx, loc.ID, 12_345))
	got, err := repo.FindByID(ctx, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, "12.345", got.CurrentUsageKg.StringFixed(3))
	assert.Equal(t, loc.Version, got.Version, "usage cache never bumps the version")

	assert.ErrorIs(t, repo.UpdateUsageCache(ctx, uuid.New(), 1), shared.ErrNotFound)
}

func TestSortingRepository_ResultsAndDecrement(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	loc := seedLocation(t, db, "Tank 2", 100)
	batch := seedBatch(t, db, time.Hour, true,
		resultSeed{sizeClass: 3, pieces: 10, grams: 4000, location: &loc.ID},
		resultSeed{sizeClass: 1, pieces: 5, grams: 500},
	)

	loaded, err := NewGormSortingBatchRepository(db).FindByID(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, sorting.BatchStatusCompleted, loaded.Status)
	require.Len(t, loaded.Results, 2)
	assert.Equal(t, 1, loaded.Results[0].SizeClass, "results are ordered by size class")
	assert.Nil(t, loaded.Results[0].StorageLocationID)

	results := NewGormSortingResultRepository(db)
	row := loaded.Results[1]

	ok, err := results.DecrementIfAvailable(ctx, row.ID, 4, 1600)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = results.DecrementIfAvailable(ctx, row.ID, 7, 100)
	require.NoError(t, err)
	assert.False(t, ok, "cannot draw more pieces than remain")

	after, err := results.FindByID(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), after.TotalPieces)
	assert.Equal(t, int64(2400), after.TotalWeightGrams)
}

func TestSortingRepository_UpdatePlacementOnce(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	loc := seedLocation(t, db, "Tank 3", 100)
	batch := seedBatch(t, db, time.Hour, false, resultSeed{sizeClass: 2, pieces: 3, grams: 900})
	results := NewGormSortingResultRepository(db)

	id := batch.Results[0].ID
	require.NoError(t, results.UpdatePlacement(ctx, id, loc.ID))
	assert.ErrorIs(t, results.UpdatePlacement(ctx, id, loc.ID), shared.ErrConcurrencyConflict)
}

func TestTransferRepository_SaveWithLockChecksStatus(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormTransferRepository(db)
	ctx := context.Background()
	from := seedLocation(t, db, "From", 100)
	to := seedLocation(t, db, "To", 100)

	tr, err := transfer.NewTransfer(from.ID, to.ID, 3, 10, decimal.NewFromInt(4), "ops")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, tr))

	a, err := repo.FindByID(ctx, tr.ID)
	require.NoError(t, err)
	b, err := repo.FindByID(ctx, tr.ID)
	require.NoError(t, err)

	require.NoError(t, a.Approve("lead"))
	require.NoError(t, repo.SaveWithLock(ctx, a, transfer.StatusPending))

	require.NoError(t, b.Reject("late"))
	err = repo.SaveWithLock(ctx, b, transfer.StatusPending)
	assert.ErrorIs(t, err, shared.ErrConsistencyViolation)

	status := transfer.StatusApproved
	list, err := repo.FindAll(ctx, transfer.Filter{Filter: shared.Filter{Page: 1, PageSize: 5}, Status: &status})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "lead", list[0].ApprovedBy)
	assert.Equal(t, int64(4000), list[0].WeightGrams)
}

func TestDispatchRepositories_ReceivingIsUnique(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	loc := seedLocation(t, db, "Dock", 100)

	order, err := dispatch.NewOutletOrder("Harbour Market", []dispatch.OrderLine{{SizeClass: 2, Pieces: 5}}, "ops")
	require.NoError(t, err)
	require.NoError(t, NewGormOutletOrderRepository(db).Save(ctx, order))

	record := dispatch.NewDispatchRecord(order.ID, loc.ID,
		[]dispatch.ManifestLine{{SizeClass: 2, Pieces: 5, WeightGrams: 1500}}, "driver")
	records := NewGormDispatchRecordRepository(db)
	require.NoError(t, records.Save(ctx, record))

	loaded, err := records.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.Manifest, loaded.Manifest)

	byOrder, err := records.FindByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, byOrder, 1)

	receivings := NewGormOutletReceivingRepository(db)
	actual := []dispatch.ManifestLine{{SizeClass: 2, Pieces: 4, WeightGrams: 1200}}
	rec := dispatch.NewOutletReceiving(loaded, actual, "outlet", dispatch.Tolerance{})
	require.NoError(t, receivings.Create(ctx, rec))

	again := dispatch.NewOutletReceiving(loaded, actual, "outlet", dispatch.Tolerance{})
	assert.ErrorIs(t, receivings.Create(ctx, again), shared.ErrAlreadyExists)

	stored, err := receivings.FindByDispatch(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, dispatch.ReceivingStatusDiscrepancy, stored.Status)
	delta, ok := stored.Discrepancies.Get(2)
	require.True(t, ok)
	assert.Equal(t, int64(-1), delta.Pieces)
}

func TestTransactionScope_RollsBack(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	loc := seedLocation(t, db, "Rollback Room", 100)
	scope := NewGormTransactionScope(db, time.Second)

	err := scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		l, err := repos.LocationRepo().FindByIDForUpdate(ctx, loc.ID)
		require.NoError(t, err)
		require.NoError(t, l.SetStatus(storage.LocationStatusInactive))
		require.NoError(t, repos.LocationRepo().SaveWithLock(ctx, l))
		return shared.NewValidationError("test", "abort")
	})
	assert.ErrorIs(t, err, shared.ErrValidation)

	got, err := NewGormStorageLocationRepository(db).FindByID(ctx, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.LocationStatusActive, got.Status)
}
