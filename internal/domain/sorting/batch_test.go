package sorting

import (
	"testing"

	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/fishfarm/backend/internal/domain/sizing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortingBatch_Lifecycle(t *testing.T) {
	loc := uuid.New()
	b := NewSortingBatch("morning harvest")
	assert.Equal(t, BatchStatusPending, b.Status)
	assert.False(t, b.IsCompleted())

	t.Run("cannot complete without results", func(t *testing.T) {
		err := b.Complete()
		assert.ErrorIs(t, err, shared.ErrValidation)
		assert.Equal(t, BatchStatusPending, b.Status)
	})

	_, err := b.AddResult(3, 100, 40000, &loc)
	require.NoError(t, err)
	_, err = b.AddResult(4, 10, 6000, nil)
	require.NoError(t, err)

	require.NoError(t, b.Complete())
	assert.True(t, b.IsCompleted())
	assert.NotNil(t, b.CompletedAt)
	assert.Equal(t, int64(110), b.TotalPieces())
	assert.Equal(t, int64(46000), b.TotalWeightGrams())

	events := b.GetDomainEvents()
	require.Len(t, events, 1)
	completed, ok := events[0].(*BatchCompletedEvent)
	require.True(t, ok)
	assert.Equal(t, []uuid.UUID{loc}, completed.AffectedLocations())

	t.Run("completed batch is immutable", func(t *testing.T) {
		_, err := b.AddResult(2, 1, 1, &loc)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.ErrorIs(t, b.Complete(), shared.ErrInvalidState)
		assert.ErrorIs(t, b.EnsureMutable("PlaceResult"), shared.ErrInvalidState)
	})
}

func TestNewSortingResult_Validation(t *testing.T) {
	batchID := uuid.New()

	_, err := NewSortingResult(batchID, -1, 1, 1, nil)
	assert.ErrorIs(t, err, shared.ErrValidation)
	_, err = NewSortingResult(batchID, 1, -1, 1, nil)
	assert.ErrorIs(t, err, shared.ErrValidation)
	_, err = NewSortingResult(batchID, 1, 1, -1, nil)
	assert.ErrorIs(t, err, shared.ErrValidation)

	r, err := NewSortingResult(batchID, 1, 0, 0, nil)
	require.NoError(t, err)
	assert.False(t, r.IsPlaced())
	loc := uuid.New()
	r.Place(loc)
	assert.True(t, r.IsPlaced())
	assert.Equal(t, loc, *r.StorageLocationID)
}

func TestTallyWeighings(t *testing.T) {
	c := sizing.NewDefaultClassifier()
	weights := []decimal.Decimal{
		decimal.RequireFromString("99.99"),
		decimal.RequireFromString("100"),
		decimal.RequireFromString("150.4"),
		decimal.RequireFromString("20.3"),
		decimal.RequireFromString("2500"),
	}

	drafts, err := TallyWeighings(c, weights)
	require.NoError(t, err)
	require.Len(t, drafts, 3)

	assert.Equal(t, ResultDraft{SizeClass: 0, Pieces: 2, WeightGrams: 120}, drafts[0])
	assert.Equal(t, ResultDraft{SizeClass: 1, Pieces: 2, WeightGrams: 250}, drafts[1])
	assert.Equal(t, ResultDraft{SizeClass: 8, Pieces: 1, WeightGrams: 2500}, drafts[2])

	_, err = TallyWeighings(c, []decimal.Decimal{decimal.NewFromInt(-3)})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = TallyWeighings(c, []decimal.Decimal{decimal.RequireFromString("1e20")})
	assert.ErrorIs(t, err, shared.ErrValidation)
}
