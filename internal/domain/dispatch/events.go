package dispatch

import (
	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

const AggregateTypeDispatch = "Dispatch"

const (
	EventTypeOrderDispatched    = "OrderDispatched"
	EventTypeDispatchReconciled = "DispatchReconciled"
)

// OrderDispatchedEvent is raised when stock leaves a location for an outlet
type OrderDispatchedEvent struct {
	shared.BaseDomainEvent
	DispatchID        uuid.UUID      `json:"dispatch_id"`
	OrderID           uuid.UUID      `json:"order_id"`
	StorageLocationID uuid.UUID      `json:"storage_location_id"`
	Manifest          []ManifestLine `json:"manifest"`
}

// NewOrderDispatchedEvent creates an OrderDispatchedEvent
func NewOrderDispatchedEvent(r *DispatchRecord) *OrderDispatchedEvent {
	return &OrderDispatchedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeOrderDispatched, AggregateTypeDispatch, r.ID),
		DispatchID:        r.ID,
		OrderID:           r.OrderID,
		StorageLocationID: r.StorageLocationID,
		Manifest:          r.Manifest,
	}
}

// AffectedLocations implements shared.LocationScopedEvent
func (e *OrderDispatchedEvent) AffectedLocations() []uuid.UUID {
	return []uuid.UUID{e.StorageLocationID}
}

// DispatchReconciledEvent is raised when an outlet's receipt is recorded
type DispatchReconciledEvent struct {
	shared.BaseDomainEvent
	Report ReconciliationReport `json:"report"`
}

// NewDispatchReconciledEvent creates a DispatchReconciledEvent
func NewDispatchReconciledEvent(report ReconciliationReport) *DispatchReconciledEvent {
	return &DispatchReconciledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDispatchReconciled, AggregateTypeDispatch, report.DispatchID),
		Report:          report,
	}
}
