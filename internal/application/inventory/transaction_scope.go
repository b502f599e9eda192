package inventory

import (
	"context"

	"github.com/fishfarm/backend/internal/domain/dispatch"
	"github.com/fishfarm/backend/internal/domain/inventory"
	"github.com/fishfarm/backend/internal/domain/sorting"
	"github.com/fishfarm/backend/internal/domain/storage"
	"github.com/fishfarm/backend/internal/domain/transfer"
)

// TransactionScope runs multi-step stock mutations atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides repositories bound to one transaction.
// Every read made while validating a mutation must go through these, so the
// locks taken by StockQuery().StockRows(..., true) cover what is decremented.
type TransactionalRepositories interface {
	LocationRepo() storage.LocationRepository
	BatchRepo() sorting.BatchRepository
	ResultRepo() sorting.ResultRepository
	StockQuery() inventory.StockQuery
	TransferRepo() transfer.Repository
	OrderRepo() dispatch.OrderRepository
	DispatchRepo() dispatch.RecordRepository
	ReceivingRepo() dispatch.ReceivingRepository
}
