package sorting

import (
	"time"

	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SortingResult is the stock of one size class produced by a batch, held at
// one storage location (or unplaced when StorageLocationID is nil).
//
// Rows created by a transfer keep the originating batch so FIFO order by
// batch age survives the move, and record the transfer and source location.
type SortingResult struct {
	ID                      uuid.UUID
	BatchID                 uuid.UUID
	SizeClass               int
	TotalPieces             int64
	TotalWeightGrams        int64
	StorageLocationID       *uuid.UUID
	TransferID              *uuid.UUID
	TransferSourceStorageID *uuid.UUID
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// NewSortingResult creates a result row
func NewSortingResult(batchID uuid.UUID, sizeClass int, pieces, weightGrams int64, locationID *uuid.UUID) (*SortingResult, error) {
	if sizeClass < 0 {
		return nil, shared.NewOutOfRangeError("size_class", sizeClass, "size class cannot be negative")
	}
	if pieces < 0 {
		return nil, shared.NewOutOfRangeError("total_pieces", pieces, "pieces cannot be negative")
	}
	if weightGrams < 0 {
		return nil, shared.NewOutOfRangeError("total_weight_grams", weightGrams, "weight cannot be negative")
	}
	now := time.Now()
	return &SortingResult{
		ID:                uuid.New(),
		BatchID:           batchID,
		SizeClass:         sizeClass,
		TotalPieces:       pieces,
		TotalWeightGrams:  weightGrams,
		StorageLocationID: locationID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// NewTransferredResult creates the destination row of a transfer
func NewTransferredResult(batchID uuid.UUID, sizeClass int, pieces, weightGrams int64, toLocation, fromLocation, transferID uuid.UUID) *SortingResult {
	now := time.Now()
	return &SortingResult{
		ID:                      uuid.New(),
		BatchID:                 batchID,
		SizeClass:               sizeClass,
		TotalPieces:             pieces,
		TotalWeightGrams:        weightGrams,
		StorageLocationID:       &toLocation,
		TransferID:              &transferID,
		TransferSourceStorageID: &fromLocation,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
}

// IsPlaced reports whether the result sits at a storage location
func (r *SortingResult) IsPlaced() bool {
	return r.StorageLocationID != nil
}

// Place assigns the result to a location
func (r *SortingResult) Place(locationID uuid.UUID) {
	r.StorageLocationID = &locationID
	r.UpdatedAt = time.Now()
}
