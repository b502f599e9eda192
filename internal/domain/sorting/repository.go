package sorting

import (
	"context"

	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BatchRepository defines persistence for sorting batches
type BatchRepository interface {
	// FindByID loads a batch together with its results
	FindByID(ctx context.Context, id uuid.UUID) (*SortingBatch, error)

	// FindAll lists batches without their results
	FindAll(ctx context.Context, filter shared.Filter) ([]SortingBatch, error)

	// Save creates or updates the batch row only
	Save(ctx context.Context, batch *SortingBatch) error

	// SaveWithLock updates the batch, failing if its version moved
	SaveWithLock(ctx context.Context, batch *SortingBatch) error
}

// ResultRepository defines persistence for sorting results
type ResultRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SortingResult, error)

	FindByBatch(ctx context.Context, batchID uuid.UUID) ([]SortingResult, error)

	// FindByTransfer returns the destination rows created by a transfer
	FindByTransfer(ctx context.Context, transferID uuid.UUID) ([]SortingResult, error)

	Create(ctx context.Context, result *SortingResult) error

	CreateBatch(ctx context.Context, results []SortingResult) error

	// UpdatePlacement sets the storage location of an unplaced result
	UpdatePlacement(ctx context.Context, id, locationID uuid.UUID) error

	// DecrementIfAvailable subtracts pieces and grams from a row only if it
	// still holds at least that much. Returns false when nothing was updated.
	DecrementIfAvailable(ctx context.Context, id uuid.UUID, pieces, grams int64) (bool, error)
}
