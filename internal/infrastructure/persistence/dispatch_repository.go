package persistence

import (
	"context"
	"strings"

	"github.com/fishfarm/backend/internal/domain/dispatch"
	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/fishfarm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOutletOrderRepository implements dispatch.OrderRepository using GORM
type GormOutletOrderRepository struct {
	db *gorm.DB
}

// NewGormOutletOrderRepository creates a new GormOutletOrderRepository
func NewGormOutletOrderRepository(db *gorm.DB) *GormOutletOrderRepository {
	return &GormOutletOrderRepository{db: db}
}

// FindByID finds an order by its ID
func (r *GormOutletOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*dispatch.OutletOrder, error) {
	var model models.OutletOrderModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError("find outlet order", err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds an order and locks its row until the transaction ends
func (r *GormOutletOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*dispatch.OutletOrder, error) {
	var model models.OutletOrderModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError("lock outlet order", err)
	}
	return model.ToDomain(), nil
}

// FindAll lists orders matching the filter
func (r *GormOutletOrderRepository) FindAll(ctx context.Context, filter dispatch.OrderFilter) ([]dispatch.OutletOrder, error) {
	var orderModels []models.OutletOrderModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.OutletOrderModel{}), filter)
	query = paginate(query, filter.Filter, OutletOrderSortFields, "created_at")

	if err := query.Find(&orderModels).Error; err != nil {
		return nil, translateError("list outlet orders", err)
	}

	orders := make([]dispatch.OutletOrder, len(orderModels))
	for i := range orderModels {
		orders[i] = *orderModels[i].ToDomain()
	}
	return orders, nil
}

// Count counts orders matching the filter
func (r *GormOutletOrderRepository) Count(ctx context.Context, filter dispatch.OrderFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.OutletOrderModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, translateError("count outlet orders", err)
	}
	return count, nil
}

// Save creates or updates an order
func (r *GormOutletOrderRepository) Save(ctx context.Context, order *dispatch.OutletOrder) error {
	model := models.OutletOrderModelFromDomain(order)
	return translateError("save outlet order", r.db.WithContext(ctx).Save(model).Error)
}

// SaveWithLock updates an order, failing if its version moved
func (r *GormOutletOrderRepository) SaveWithLock(ctx context.Context, order *dispatch.OutletOrder) error {
	result := r.db.WithContext(ctx).
		Model(&models.OutletOrderModel{}).
		Where("id = ? AND version = ?", order.ID, order.Version-1).
		Updates(map[string]any{
			"status":        string(order.Status),
			"dispatched_at": order.DispatchedAt,
			"cancelled_at":  order.CancelledAt,
			"version":       order.Version,
			"updated_at":    order.UpdatedAt,
		})
	if result.Error != nil {
		return translateError("update outlet order", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict.WithOp("update outlet order").WithEntity(order.ID)
	}
	return nil
}

func (r *GormOutletOrderRepository) applyFilter(query *gorm.DB, filter dispatch.OrderFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.Search != "" {
		query = query.Where("LOWER(outlet_name) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	return query
}

// GormDispatchRecordRepository implements dispatch.RecordRepository using GORM
type GormDispatchRecordRepository struct {
	db *gorm.DB
}

// NewGormDispatchRecordRepository creates a new GormDispatchRecordRepository
func NewGormDispatchRecordRepository(db *gorm.DB) *GormDispatchRecordRepository {
	return &GormDispatchRecordRepository{db: db}
}

// FindByID finds a dispatch record by its ID
func (r *GormDispatchRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*dispatch.DispatchRecord, error) {
	var model models.DispatchRecordModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError("find dispatch record", err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a dispatch record and locks its row
func (r *GormDispatchRecordRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*dispatch.DispatchRecord, error) {
	var model models.DispatchRecordModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError("lock dispatch record", err)
	}
	return model.ToDomain(), nil
}

// FindByOrder lists the dispatch records of an order
func (r *GormDispatchRecordRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]dispatch.DispatchRecord, error) {
	var recordModels []models.DispatchRecordModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("dispatched_at ASC, id ASC").
		Find(&recordModels).Error; err != nil {
		return nil, translateError("find order dispatches", err)
	}
	records := make([]dispatch.DispatchRecord, len(recordModels))
	for i := range recordModels {
		records[i] = *recordModels[i].ToDomain()
	}
	return records, nil
}

// Save creates or updates a dispatch record
func (r *GormDispatchRecordRepository) Save(ctx context.Context, record *dispatch.DispatchRecord) error {
	model := models.DispatchRecordModelFromDomain(record)
	return translateError("save dispatch record", r.db.WithContext(ctx).Save(model).Error)
}

// SaveWithLock updates a dispatch record, failing if its version moved
func (r *GormDispatchRecordRepository) SaveWithLock(ctx context.Context, record *dispatch.DispatchRecord) error {
	result := r.db.WithContext(ctx).
		Model(&models.DispatchRecordModel{}).
		Where("id = ? AND version = ?", record.ID, record.Version-1).
		Updates(map[string]any{
			"status":      string(record.Status),
			"received_at": record.ReceivedAt,
			"version":     record.Version,
			"updated_at":  record.UpdatedAt,
		})
	if result.Error != nil {
		return translateError("update dispatch record", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict.WithOp("update dispatch record").WithEntity(record.ID)
	}
	return nil
}

// GormOutletReceivingRepository implements dispatch.ReceivingRepository using GORM
type GormOutletReceivingRepository struct {
	db *gorm.DB
}

// NewGormOutletReceivingRepository creates a new GormOutletReceivingRepository
func NewGormOutletReceivingRepository(db *gorm.DB) *GormOutletReceivingRepository {
	return &GormOutletReceivingRepository{db: db}
}

// FindByDispatch finds the receiving recorded for a dispatch
func (r *GormOutletReceivingRepository) FindByDispatch(ctx context.Context, dispatchID uuid.UUID) (*dispatch.OutletReceiving, error) {
	var model models.OutletReceivingModel
	if err := r.db.WithContext(ctx).Where("dispatch_id = ?", dispatchID).First(&model).Error; err != nil {
		return nil, translateError("find outlet receiving", err)
	}
	return model.ToDomain(), nil
}

// Create inserts a receiving; a second receiving for the same dispatch
// fails with ErrAlreadyExists.
func (r *GormOutletReceivingRepository) Create(ctx context.Context, receiving *dispatch.OutletReceiving) error {
	model := models.OutletReceivingModelFromDomain(receiving)
	return translateError("create outlet receiving", r.db.WithContext(ctx).Create(model).Error)
}

var (
	_ dispatch.OrderRepository     = (*GormOutletOrderRepository)(nil)
	_ dispatch.RecordRepository    = (*GormDispatchRecordRepository)(nil)
	_ dispatch.ReceivingRepository = (*GormOutletReceivingRepository)(nil)
)
