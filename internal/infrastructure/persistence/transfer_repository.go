package persistence

import (
	"context"

	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/fishfarm/backend/internal/domain/transfer"
	"github.com/fishfarm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTransferRepository implements transfer.Repository using GORM
type GormTransferRepository struct {
	db *gorm.DB
}

// NewGormTransferRepository creates a new GormTransferRepository
func NewGormTransferRepository(db *gorm.DB) *GormTransferRepository {
	return &GormTransferRepository{db: db}
}

// FindByID finds a transfer by its ID
func (r *GormTransferRepository) FindByID(ctx context.Context, id uuid.UUID) (*transfer.Transfer, error) {
	var model models.TransferModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError("find transfer", err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a transfer and locks its row until the transaction ends
func (r *GormTransferRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*transfer.Transfer, error) {
	var model models.TransferModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError("lock transfer", err)
	}
	return model.ToDomain(), nil
}

// FindAll lists transfers matching the filter
func (r *GormTransferRepository) FindAll(ctx context.Context, filter transfer.Filter) ([]transfer.Transfer, error) {
	var transferModels []models.TransferModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.TransferModel{}), filter)
	query = paginate(query, filter.Filter, TransferSortFields, "created_at")

	if err := query.Find(&transferModels).Error; err != nil {
		return nil, translateError("list transfers", err)
	}

	transfers := make([]transfer.Transfer, len(transferModels))
	for i := range transferModels {
		transfers[i] = *transferModels[i].ToDomain()
	}
	return transfers, nil
}

// Count counts transfers matching the filter
func (r *GormTransferRepository) Count(ctx context.Context, filter transfer.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.TransferModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, translateError("count transfers", err)
	}
	return count, nil
}

// ApprovedInboundGrams sums the weight of approved transfers into a location
func (r *GormTransferRepository) ApprovedInboundGrams(ctx context.Context, locationID uuid.UUID) (int64, error) {
	var grams int64
	err := r.db.WithContext(ctx).
		Model(&models.TransferModel{}).
		Where("to_storage_id = ? AND status = ?", locationID, string(transfer.StatusApproved)).
		Select("COALESCE(SUM(weight_grams), 0)").
		Scan(&grams).Error
	if err != nil {
		return 0, translateError("sum approved inbound transfers", err)
	}
	return grams, nil
}

// Save creates or updates a transfer
func (r *GormTransferRepository) Save(ctx context.Context, t *transfer.Transfer) error {
	model := models.TransferModelFromDomain(t)
	return translateError("save transfer", r.db.WithContext(ctx).Save(model).Error)
}

// SaveWithLock persists a status change only while the stored row still
// carries the expected prior status and version.
func (r *GormTransferRepository) SaveWithLock(ctx context.Context, t *transfer.Transfer, expected transfer.Status) error {
	result := r.db.WithContext(ctx).
		Model(&models.TransferModel{}).
		Where("id = ? AND version = ? AND status = ?", t.ID, t.Version-1, string(expected)).
		Updates(map[string]any{
			"status":           string(t.Status),
			"approved_by":      t.ApprovedBy,
			"rejection_reason": t.RejectionReason,
			"approved_at":      t.ApprovedAt,
			"completed_at":     t.CompletedAt,
			"rejected_at":      t.RejectedAt,
			"version":          t.Version,
			"updated_at":       t.UpdatedAt,
		})
	if result.Error != nil {
		return translateError("update transfer", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewConsistencyViolationError(t.ID,
			"transfer changed state concurrently, expected "+string(expected)).
			WithOp("update transfer")
	}
	return nil
}

func (r *GormTransferRepository) applyFilter(query *gorm.DB, filter transfer.Filter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.FromStorageID != nil {
		query = query.Where("from_storage_id = ?", *filter.FromStorageID)
	}
	if filter.ToStorageID != nil {
		query = query.Where("to_storage_id = ?", *filter.ToStorageID)
	}
	if filter.SizeClass != nil {
		query = query.Where("size_class = ?", *filter.SizeClass)
	}
	return query
}

// Ensure GormTransferRepository implements transfer.Repository
var _ transfer.Repository = (*GormTransferRepository)(nil)
