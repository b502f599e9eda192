package storage

import (
	"context"

	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// LocationFilter narrows location listings
type LocationFilter struct {
	shared.Filter
	Status *LocationStatus
	Type   *LocationType
}

// LocationRepository defines persistence for storage locations
type LocationRepository interface {
	// FindByID finds a location by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StorageLocation, error)

	// FindByIDForUpdate finds a location and locks its row for the current transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*StorageLocation, error)

	// FindByNameKey finds a location by its normalised name
	FindByNameKey(ctx context.Context, nameKey string) (*StorageLocation, error)

	// FindAll lists locations matching the filter
	FindAll(ctx context.Context, filter LocationFilter) ([]StorageLocation, error)

	// Count counts locations matching the filter
	Count(ctx context.Context, filter LocationFilter) (int64, error)

	// Save creates or updates a location
	Save(ctx context.Context, location *StorageLocation) error

	// SaveWithLock updates a location, failing if its version moved
	SaveWithLock(ctx context.Context, location *StorageLocation) error

	// UpdateUsageCache writes the cached usage figure without touching the version
	UpdateUsageCache(ctx context.Context, id uuid.UUID, usageGrams int64) error
}
