package persistence

import (
	"context"

	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/fishfarm/backend/internal/domain/shared/valueobject"
	"github.com/fishfarm/backend/internal/domain/storage"
	"github.com/fishfarm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStorageLocationRepository implements storage.LocationRepository using GORM
type GormStorageLocationRepository struct {
	db *gorm.DB
}

// NewGormStorageLocationRepository creates a new GormStorageLocationRepository
func NewGormStorageLocationRepository(db *gorm.DB) *GormStorageLocationRepository {
	return &GormStorageLocationRepository{db: db}
}

// FindByID finds a location by its ID
func (r *GormStorageLocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*storage.StorageLocation, error) {
	var model models.StorageLocationModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError("find storage location", err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a location and locks its row until the transaction ends
func (r *GormStorageLocationRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*storage.StorageLocation, error) {
	var model models.StorageLocationModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError("lock storage location", err)
	}
	return model.ToDomain(), nil
}

// FindByNameKey finds a location by its normalised name
func (r *GormStorageLocationRepository) FindByNameKey(ctx context.Context, nameKey string) (*storage.StorageLocation, error) {
	var model models.StorageLocationModel
	if err := r.db.WithContext(ctx).Where("name_key = ?", nameKey).First(&model).Error; err != nil {
		return nil, translateError("find storage location by name", err)
	}
	return model.ToDomain(), nil
}

// FindAll lists locations matching the filter
func (r *GormStorageLocationRepository) FindAll(ctx context.Context, filter storage.LocationFilter) ([]storage.StorageLocation, error) {
	var locationModels []models.StorageLocationModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.StorageLocationModel{}), filter)
	query = paginate(query, filter.Filter, StorageLocationSortFields, "name")

	if err := query.Find(&locationModels).Error; err != nil {
		return nil, translateError("list storage locations", err)
	}

	locations := make([]storage.StorageLocation, len(locationModels))
	for i := range locationModels {
		locations[i] = *locationModels[i].ToDomain()
	}
	return locations, nil
}

// Count counts locations matching the filter
func (r *GormStorageLocationRepository) Count(ctx context.Context, filter storage.LocationFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.StorageLocationModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, translateError("count storage locations", err)
	}
	return count, nil
}

// Save creates or updates a location
func (r *GormStorageLocationRepository) Save(ctx context.Context, location *storage.StorageLocation) error {
	model := models.StorageLocationModelFromDomain(location)
	return translateError("save storage location", r.db.WithContext(ctx).Save(model).Error)
}

// SaveWithLock saves a location with optimistic locking (version check)
func (r *GormStorageLocationRepository) SaveWithLock(ctx context.Context, location *storage.StorageLocation) error {
	result := r.db.WithContext(ctx).
		Model(&models.StorageLocationModel{}).
		Where("id = ? AND version = ?", location.ID, location.Version-1).
		Updates(map[string]any{
			"name":          location.Name,
			"name_key":      location.NameKey,
			"location_type": string(location.Type),
			"capacity_kg":   location.CapacityKg,
			"status":        string(location.Status),
			"version":       location.Version,
			"updated_at":    location.UpdatedAt,
		})
	if result.Error != nil {
		return translateError("update storage location", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict.
			WithOp("update storage location").
			WithEntity(location.ID)
	}
	return nil
}

// UpdateUsageCache writes current_usage_kg without bumping the version
func (r *GormStorageLocationRepository) UpdateUsageCache(ctx context.Context, id uuid.UUID, usageGrams int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.StorageLocationModel{}).
		Where("id = ?", id).
		UpdateColumn("current_usage_kg", valueobject.GramsToKg(usageGrams))
	if result.Error != nil {
		return translateError("update usage cache", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("storage location", id)
	}
	return nil
}

func (r *GormStorageLocationRepository) applyFilter(query *gorm.DB, filter storage.LocationFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.Type != nil {
		query = query.Where("location_type = ?", string(*filter.Type))
	}
	if filter.Search != "" {
		query = query.Where("name_key LIKE ?", "%"+storage.NormalizeName(filter.Search)+"%")
	}
	return query
}

// Ensure GormStorageLocationRepository implements LocationRepository
var _ storage.LocationRepository = (*GormStorageLocationRepository)(nil)
