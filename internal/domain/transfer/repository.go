package transfer

import (
	"context"

	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter narrows transfer listings
type Filter struct {
	shared.Filter
	Status        *Status
	FromStorageID *uuid.UUID
	ToStorageID   *uuid.UUID
	SizeClass     *int
}

// Repository defines persistence for transfers
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Transfer, error)

	// FindByIDForUpdate loads the transfer and locks its row for the current transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Transfer, error)

	FindAll(ctx context.Context, filter Filter) ([]Transfer, error)

	Count(ctx context.Context, filter Filter) (int64, error)

	// ApprovedInboundGrams sums the weight of approved, not yet completed
	// transfers into a location
	ApprovedInboundGrams(ctx context.Context, locationID uuid.UUID) (int64, error)

	Save(ctx context.Context, t *Transfer) error

	// SaveWithLock persists a status change only if the stored row still has
	// the expected prior status and version.
	SaveWithLock(ctx context.Context, t *Transfer, expected Status) error
}
