package persistence

import (
	"context"
	"time"

	appinv "github.com/fishfarm/backend/internal/application/inventory"
	"github.com/fishfarm/backend/internal/domain/dispatch"
	"github.com/fishfarm/backend/internal/domain/inventory"
	"github.com/fishfarm/backend/internal/domain/sorting"
	"github.com/fishfarm/backend/internal/domain/storage"
	"github.com/fishfarm/backend/internal/domain/transfer"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewGormTransactionScope creates a new GormTransactionScope. A positive
// timeout bounds the whole transaction when the caller's context has no
// earlier deadline.
func NewGormTransactionScope(db *gorm.DB, timeout time.Duration) *GormTransactionScope {
	return &GormTransactionScope{db: db, timeout: timeout}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
	return translateError("transaction", err)
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) LocationRepo() storage.LocationRepository {
	return NewGormStorageLocationRepository(r.tx)
}

func (r *gormTransactionalRepositories) BatchRepo() sorting.BatchRepository {
	return NewGormSortingBatchRepository(r.tx)
}

func (r *gormTransactionalRepositories) ResultRepo() sorting.ResultRepository {
	return NewGormSortingResultRepository(r.tx)
}

func (r *gormTransactionalRepositories) StockQuery() inventory.StockQuery {
	return NewGormStockQuery(r.tx)
}

func (r *gormTransactionalRepositories) TransferRepo() transfer.Repository {
	return NewGormTransferRepository(r.tx)
}

func (r *gormTransactionalRepositories) OrderRepo() dispatch.OrderRepository {
	return NewGormOutletOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) DispatchRepo() dispatch.RecordRepository {
	return NewGormDispatchRecordRepository(r.tx)
}

func (r *gormTransactionalRepositories) ReceivingRepo() dispatch.ReceivingRepository {
	return NewGormOutletReceivingRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appinv.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appinv.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
