package transfer

import (
	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeTransfer is the aggregate type name used in events
const AggregateTypeTransfer = "Transfer"

const (
	EventTypeTransferRequested = "TransferRequested"
	EventTypeTransferApproved  = "TransferApproved"
	EventTypeTransferCompleted = "TransferCompleted"
	EventTypeTransferRejected  = "TransferRejected"
)

// Event carries the transfer's shape with every state change
type Event struct {
	shared.BaseDomainEvent
	TransferID    uuid.UUID `json:"transfer_id"`
	FromStorageID uuid.UUID `json:"from_storage_id"`
	ToStorageID   uuid.UUID `json:"to_storage_id"`
	SizeClass     int       `json:"size_class"`
	Quantity      int64     `json:"quantity"`
	WeightGrams   int64     `json:"weight_grams"`
	Status        Status    `json:"status"`
}

func newEvent(eventType string, t *Transfer) *Event {
	return &Event{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeTransfer, t.ID),
		TransferID:      t.ID,
		FromStorageID:   t.FromStorageID,
		ToStorageID:     t.ToStorageID,
		SizeClass:       t.SizeClass,
		Quantity:        t.Quantity,
		WeightGrams:     t.WeightGrams,
		Status:          t.Status,
	}
}

func NewRequestedEvent(t *Transfer) *Event { return newEvent(EventTypeTransferRequested, t) }

func NewApprovedEvent(t *Transfer) *Event { return newEvent(EventTypeTransferApproved, t) }

func NewRejectedEvent(t *Transfer) *Event { return newEvent(EventTypeTransferRejected, t) }

// CompletedEvent additionally reports the stock it moved
type CompletedEvent struct {
	*Event
}

func NewCompletedEvent(t *Transfer) *CompletedEvent {
	return &CompletedEvent{Event: newEvent(EventTypeTransferCompleted, t)}
}

// AffectedLocations implements shared.LocationScopedEvent
func (e *CompletedEvent) AffectedLocations() []uuid.UUID {
	return []uuid.UUID{e.FromStorageID, e.ToStorageID}
}
