package sorting

import (
	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

const AggregateTypeSortingBatch = "SortingBatch"

const EventTypeBatchCompleted = "SortingBatchCompleted"

// BatchCompletedEvent is raised when a batch's results become inventory
type BatchCompletedEvent struct {
	shared.BaseDomainEvent
	BatchID          uuid.UUID   `json:"batch_id"`
	TotalPieces      int64       `json:"total_pieces"`
	TotalWeightGrams int64       `json:"total_weight_grams"`
	Locations        []uuid.UUID `json:"locations"`
}

// NewBatchCompletedEvent creates a BatchCompletedEvent
func NewBatchCompletedEvent(b *SortingBatch) *BatchCompletedEvent {
	return &BatchCompletedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeBatchCompleted, AggregateTypeSortingBatch, b.ID),
		BatchID:          b.ID,
		TotalPieces:      b.TotalPieces(),
		TotalWeightGrams: b.TotalWeightGrams(),
		Locations:        b.PlacedLocations(),
	}
}

// AffectedLocations implements shared.LocationScopedEvent
func (e *BatchCompletedEvent) AffectedLocations() []uuid.UUID {
	return e.Locations
}
