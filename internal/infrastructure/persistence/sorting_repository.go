package persistence

import (
	"context"
	"time"

	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/fishfarm/backend/internal/domain/sorting"
	"github.com/fishfarm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSortingBatchRepository implements sorting.BatchRepository using GORM
type GormSortingBatchRepository struct {
	db *gorm.DB
}

// NewGormSortingBatchRepository creates a new GormSortingBatchRepository
func NewGormSortingBatchRepository(db *gorm.DB) *GormSortingBatchRepository {
	return &GormSortingBatchRepository{db: db}
}

// FindByID loads a batch together with its results
func (r *GormSortingBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*sorting.SortingBatch, error) {
	var model models.SortingBatchModel
	if err := r.db.WithContext(ctx).
		Preload("Results", func(db *gorm.DB) *gorm.DB {
			return db.Order("size_class ASC, created_at ASC, id ASC")
		}).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError("find sorting batch", err)
	}
	return model.ToDomain(), nil
}

// FindAll lists batches without their results
func (r *GormSortingBatchRepository) FindAll(ctx context.Context, filter shared.Filter) ([]sorting.SortingBatch, error) {
	var batchModels []models.SortingBatchModel
	query := r.db.WithContext(ctx).Model(&models.SortingBatchModel{})
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	query = paginate(query, filter, SortingBatchSortFields, "created_at")

	if err := query.Find(&batchModels).Error; err != nil {
		return nil, translateError("list sorting batches", err)
	}

	batches := make([]sorting.SortingBatch, len(batchModels))
	for i := range batchModels {
		batches[i] = *batchModels[i].ToDomain()
	}
	return batches, nil
}

// Save creates or updates the batch row only
func (r *GormSortingBatchRepository) Save(ctx context.Context, batch *sorting.SortingBatch) error {
	model := models.SortingBatchModelFromDomain(batch)
	return translateError("save sorting batch",
		r.db.WithContext(ctx).Omit(clause.Associations).Save(model).Error)
}

// SaveWithLock updates the batch row, failing if its version moved
func (r *GormSortingBatchRepository) SaveWithLock(ctx context.Context, batch *sorting.SortingBatch) error {
	result := r.db.WithContext(ctx).
		Model(&models.SortingBatchModel{}).
		Where("id = ? AND version = ?", batch.ID, batch.Version-1).
		Updates(map[string]any{
			"status":       string(batch.Status),
			"notes":        batch.Notes,
			"completed_at": batch.CompletedAt,
			"version":      batch.Version,
			"updated_at":   batch.UpdatedAt,
		})
	if result.Error != nil {
		return translateError("update sorting batch", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict.WithOp("update sorting batch").WithEntity(batch.ID)
	}
	return nil
}

// GormSortingResultRepository implements sorting.ResultRepository using GORM
type GormSortingResultRepository struct {
	db *gorm.DB
}

// NewGormSortingResultRepository creates a new GormSortingResultRepository
func NewGormSortingResultRepository(db *gorm.DB) *GormSortingResultRepository {
	return &GormSortingResultRepository{db: db}
}

// FindByID finds a result by its ID
func (r *GormSortingResultRepository) FindByID(ctx context.Context, id uuid.UUID) (*sorting.SortingResult, error) {
	var model models.SortingResultModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError("find sorting result", err)
	}
	return model.ToDomain(), nil
}

// FindByBatch returns all results of a batch
func (r *GormSortingResultRepository) FindByBatch(ctx context.Context, batchID uuid.UUID) ([]sorting.SortingResult, error) {
	return r.findWhere(ctx, "find batch results", "batch_id = ?", batchID)
}

// FindByTransfer returns the destination rows created by a transfer
func (r *GormSortingResultRepository) FindByTransfer(ctx context.Context, transferID uuid.UUID) ([]sorting.SortingResult, error) {
	return r.findWhere(ctx, "find transfer results", "transfer_id = ?", transferID)
}

func (r *GormSortingResultRepository) findWhere(ctx context.Context, op, cond string, arg any) ([]sorting.SortingResult, error) {
	var resultModels []models.SortingResultModel
	if err := r.db.WithContext(ctx).
		Where(cond, arg).
		Order("size_class ASC, created_at ASC, id ASC").
		Find(&resultModels).Error; err != nil {
		return nil, translateError(op, err)
	}
	results := make([]sorting.SortingResult, len(resultModels))
	for i := range resultModels {
		results[i] = *resultModels[i].ToDomain()
	}
	return results, nil
}

// Create inserts a single result
func (r *GormSortingResultRepository) Create(ctx context.Context, result *sorting.SortingResult) error {
	model := models.SortingResultModelFromDomain(result)
	return translateError("create sorting result", r.db.WithContext(ctx).Create(model).Error)
}

// CreateBatch inserts several results in one statement
func (r *GormSortingResultRepository) CreateBatch(ctx context.Context, results []sorting.SortingResult) error {
	if len(results) == 0 {
		return nil
	}
	resultModels := make([]*models.SortingResultModel, len(results))
	for i := range results {
		resultModels[i] = models.SortingResultModelFromDomain(&results[i])
	}
	return translateError("create sorting results", r.db.WithContext(ctx).Create(resultModels).Error)
}

// UpdatePlacement sets the storage location of a result that has none yet
func (r *GormSortingResultRepository) UpdatePlacement(ctx context.Context, id, locationID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.SortingResultModel{}).
		Where("id = ? AND storage_location_id IS NULL", id).
		Updates(map[string]any{
			"storage_location_id": locationID,
			"updated_at":          time.Now(),
		})
	if result.Error != nil {
		return translateError("place sorting result", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict.WithOp("place sorting result").WithEntity(id)
	}
	return nil
}

// DecrementIfAvailable subtracts pieces and grams only while the row still
// holds at least that much.
func (r *GormSortingResultRepository) DecrementIfAvailable(ctx context.Context, id uuid.UUID, pieces, grams int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SortingResultModel{}).
		Where("id = ? AND total_pieces >= ? AND total_weight_grams >= ?", id, pieces, grams).
		Updates(map[string]any{
			"total_pieces":       gorm.Expr("total_pieces - ?", pieces),
			"total_weight_grams": gorm.Expr("total_weight_grams - ?", grams),
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		return false, translateError("decrement sorting result", result.Error)
	}
	return result.RowsAffected == 1, nil
}

var (
	_ sorting.BatchRepository  = (*GormSortingBatchRepository)(nil)
	_ sorting.ResultRepository = (*GormSortingResultRepository)(nil)
)
