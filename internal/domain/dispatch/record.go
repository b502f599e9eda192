package dispatch

import (
	"sort"
	"strings"
	"time"

	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/fishfarm/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecordStatus represents the status of a dispatch record
type RecordStatus string

const (
	RecordStatusDispatched RecordStatus = "dispatched"
	RecordStatusReceived   RecordStatus = "received"
)

// IsValid checks if the status is a valid RecordStatus
func (s RecordStatus) IsValid() bool {
	switch s {
	case RecordStatusDispatched, RecordStatusReceived:
		return true
	}
	return false
}

func (s RecordStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s RecordStatus) CanTransitionTo(target RecordStatus) bool {
	switch s {
	case RecordStatusDispatched:
		return target == RecordStatusReceived
	case RecordStatusReceived:
		return false
	}
	return false
}

// ManifestLine is the stock of one size class that left or arrived
type ManifestLine struct {
	SizeClass   int   `json:"size_class"`
	Pieces      int64 `json:"pieces"`
	WeightGrams int64 `json:"weight_grams"`
}

// WeightKg is the presentation form of WeightGrams
func (l ManifestLine) WeightKg() decimal.Decimal {
	return valueobject.GramsToKg(l.WeightGrams)
}

// DispatchRecord is the expected manifest of stock sent to an outlet
type DispatchRecord struct {
	shared.BaseAggregateRoot
	OrderID           uuid.UUID
	StorageLocationID uuid.UUID
	Status            RecordStatus
	Manifest          []ManifestLine
	DispatchedBy      string
	DispatchedAt      time.Time
	ReceivedAt        *time.Time
}

// NewDispatchRecord creates a dispatched record with a manifest sorted by size class
func NewDispatchRecord(orderID, locationID uuid.UUID, manifest []ManifestLine, dispatchedBy string) *DispatchRecord {
	lines := make([]ManifestLine, len(manifest))
	copy(lines, manifest)
	sort.Slice(lines, func(i, j int) bool { return lines[i].SizeClass < lines[j].SizeClass })

	r := &DispatchRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderID:           orderID,
		StorageLocationID: locationID,
		Status:            RecordStatusDispatched,
		Manifest:          lines,
		DispatchedBy:      strings.TrimSpace(dispatchedBy),
	}
	r.DispatchedAt = r.CreatedAt
	r.AddDomainEvent(NewOrderDispatchedEvent(r))
	return r
}

// MarkReceived closes the record; a dispatch is reconciled exactly once
func (r *DispatchRecord) MarkReceived() error {
	if !r.Status.CanTransitionTo(RecordStatusReceived) {
		return shared.NewInvalidStateError("dispatch", r.ID, string(r.Status), string(RecordStatusReceived)).
			WithOp("Reconcile")
	}
	now := time.Now()
	r.Status = RecordStatusReceived
	r.ReceivedAt = &now
	r.Touch()
	r.IncrementVersion()
	return nil
}

// TotalPieces sums the manifest
func (r *DispatchRecord) TotalPieces() int64 {
	var total int64
	for _, l := range r.Manifest {
		total += l.Pieces
	}
	return total
}
