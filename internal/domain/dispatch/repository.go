package dispatch

import (
	"context"

	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderFilter narrows order listings
type OrderFilter struct {
	shared.Filter
	Status *OrderStatus
}

// OrderRepository defines persistence for outlet orders
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*OutletOrder, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*OutletOrder, error)
	FindAll(ctx context.Context, filter OrderFilter) ([]OutletOrder, error)
	Count(ctx context.Context, filter OrderFilter) (int64, error)
	Save(ctx context.Context, order *OutletOrder) error
	SaveWithLock(ctx context.Context, order *OutletOrder) error
}

// RecordRepository defines persistence for dispatch records
type RecordRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*DispatchRecord, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*DispatchRecord, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]DispatchRecord, error)
	Save(ctx context.Context, record *DispatchRecord) error
	SaveWithLock(ctx context.Context, record *DispatchRecord) error
}

// ReceivingRepository defines persistence for outlet receivings
type ReceivingRepository interface {
	FindByDispatch(ctx context.Context, dispatchID uuid.UUID) (*OutletReceiving, error)
	Create(ctx context.Context, receiving *OutletReceiving) error
}

// ReportArchive stores reconciliation reports outside the database
type ReportArchive interface {
	Archive(ctx context.Context, report ReconciliationReport) (string, error)
}
