// Package sorting models sorting sessions: a batch of fish weighed and
// bucketed into per-size-class results that are placed into storage.
package sorting

import (
	"time"

	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BatchStatus is the lifecycle status of a sorting batch
type BatchStatus string

const (
	BatchStatusPending   BatchStatus = "pending"
	BatchStatusCompleted BatchStatus = "completed"
)

// IsValid checks if the status is a valid BatchStatus
func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusPending, BatchStatusCompleted:
		return true
	}
	return false
}

func (s BatchStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s BatchStatus) CanTransitionTo(target BatchStatus) bool {
	switch s {
	case BatchStatusPending:
		return target == BatchStatusCompleted
	case BatchStatusCompleted:
		return false
	}
	return false
}

// SortingBatch is one sorting session. Its results only count as stock once
// the batch is completed, and a completed batch is immutable.
type SortingBatch struct {
	shared.BaseAggregateRoot
	Status      BatchStatus
	Notes       string
	CompletedAt *time.Time
	Results     []SortingResult
}

// NewSortingBatch creates a pending batch
func NewSortingBatch(notes string) *SortingBatch {
	return &SortingBatch{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Status:            BatchStatusPending,
		Notes:             notes,
		Results:           make([]SortingResult, 0),
	}
}

// IsCompleted reports whether the batch counts toward inventory
func (b *SortingBatch) IsCompleted() bool {
	return b.Status == BatchStatusCompleted
}

// AddResult attaches a per-size-class result to a pending batch
func (b *SortingBatch) AddResult(sizeClass int, pieces, weightGrams int64, locationID *uuid.UUID) (*SortingResult, error) {
	if b.Status != BatchStatusPending {
		return nil, shared.NewInvalidStateError("sorting batch", b.ID, string(b.Status), "add result").
			WithOp("AddResult")
	}
	result, err := NewSortingResult(b.ID, sizeClass, pieces, weightGrams, locationID)
	if err != nil {
		return nil, err
	}
	b.Results = append(b.Results, *result)
	b.Touch()
	return result, nil
}

// EnsureMutable fails unless the batch is still pending
func (b *SortingBatch) EnsureMutable(op string) error {
	if b.Status != BatchStatusPending {
		return shared.NewInvalidStateError("sorting batch", b.ID, string(b.Status), "modify").WithOp(op)
	}
	return nil
}

// Complete freezes the batch. At least one result is required.
func (b *SortingBatch) Complete() error {
	if !b.Status.CanTransitionTo(BatchStatusCompleted) {
		return shared.NewInvalidStateError("sorting batch", b.ID, string(b.Status), string(BatchStatusCompleted)).
			WithOp("CompleteBatch")
	}
	if len(b.Results) == 0 {
		return shared.NewValidationError("results", "Cannot complete a batch without results").WithEntity(b.ID)
	}
	now := time.Now()
	b.Status = BatchStatusCompleted
	b.CompletedAt = &now
	b.Touch()
	b.IncrementVersion()
	b.AddDomainEvent(NewBatchCompletedEvent(b))
	return nil
}

// TotalPieces sums pieces over all results
func (b *SortingBatch) TotalPieces() int64 {
	var total int64
	for i := range b.Results {
		total += b.Results[i].TotalPieces
	}
	return total
}

// TotalWeightGrams sums grams over all results
func (b *SortingBatch) TotalWeightGrams() int64 {
	var total int64
	for i := range b.Results {
		total += b.Results[i].TotalWeightGrams
	}
	return total
}

// PlacedLocations returns the distinct locations holding this batch's results
func (b *SortingBatch) PlacedLocations() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0)
	for i := range b.Results {
		loc := b.Results[i].StorageLocationID
		if loc == nil {
			continue
		}
		if _, ok := seen[*loc]; ok {
			continue
		}
		seen[*loc] = struct{}{}
		ids = append(ids, *loc)
	}
	return ids
}
