package storage

import (
	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeStorageLocation is the aggregate type name used in events
const AggregateTypeStorageLocation = "StorageLocation"

const (
	EventTypeLocationCreated       = "StorageLocationCreated"
	EventTypeLocationStatusChanged = "StorageLocationStatusChanged"
)

// LocationCreatedEvent is raised when a storage location is registered
type LocationCreatedEvent struct {
	shared.BaseDomainEvent
	LocationID   uuid.UUID       `json:"location_id"`
	Name         string          `json:"name"`
	LocationType LocationType    `json:"location_type"`
	CapacityKg   decimal.Decimal `json:"capacity_kg"`
}

// NewLocationCreatedEvent creates a LocationCreatedEvent
func NewLocationCreatedEvent(l *StorageLocation) *LocationCreatedEvent {
	return &LocationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLocationCreated, AggregateTypeStorageLocation, l.ID),
		LocationID:      l.ID,
		Name:            l.Name,
		LocationType:    l.Type,
		CapacityKg:      l.CapacityKg,
	}
}

// LocationStatusChangedEvent is raised when a location's status changes
type LocationStatusChangedEvent struct {
	shared.BaseDomainEvent
	LocationID uuid.UUID      `json:"location_id"`
	OldStatus  LocationStatus `json:"old_status"`
	NewStatus  LocationStatus `json:"new_status"`
}

// NewLocationStatusChangedEvent creates a LocationStatusChangedEvent
func NewLocationStatusChangedEvent(l *StorageLocation, old LocationStatus) *LocationStatusChangedEvent {
	return &LocationStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLocationStatusChanged, AggregateTypeStorageLocation, l.ID),
		LocationID:      l.ID,
		OldStatus:       old,
		NewStatus:       l.Status,
	}
}
