package sorting

import (
	"time"

	"github.com/fishfarm/backend/internal/domain/shared/valueobject"
	"github.com/fishfarm/backend/internal/domain/sorting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateBatchRequest represents a request to open a sorting batch
type CreateBatchRequest struct {
	Notes string `json:"notes" binding:"max=2000"`
}

// RecordWeighingsRequest carries individual fish weights in grams
type RecordWeighingsRequest struct {
	StorageLocationID *uuid.UUID        `json:"storage_location_id"`
	WeightsGrams      []decimal.Decimal `json:"weights_grams" binding:"required,min=1"`
}

// AddResultRequest represents a pre-tallied size class result
type AddResultRequest struct {
	SizeClass         int             `json:"size_class" binding:"min=0"`
	TotalPieces       int64           `json:"total_pieces" binding:"min=0"`
	TotalWeightKg     decimal.Decimal `json:"total_weight_kg" binding:"required"`
	StorageLocationID *uuid.UUID      `json:"storage_location_id"`
}

// PlaceResultRequest assigns an unplaced result to a location
type PlaceResultRequest struct {
	StorageLocationID uuid.UUID `json:"storage_location_id" binding:"required"`
}

// BatchListFilter represents filter options for batch list
type BatchListFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=pending completed"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ResultResponse represents a sorting result in API responses
type ResultResponse struct {
	ID                      uuid.UUID       `json:"id"`
	BatchID                 uuid.UUID       `json:"batch_id"`
	SizeClass               int             `json:"size_class"`
	TotalPieces             int64           `json:"total_pieces"`
	TotalWeightGrams        int64           `json:"total_weight_grams"`
	TotalWeightKg           decimal.Decimal `json:"total_weight_kg"`
	StorageLocationID       *uuid.UUID      `json:"storage_location_id,omitempty"`
	TransferID              *uuid.UUID      `json:"transfer_id,omitempty"`
	TransferSourceStorageID *uuid.UUID      `json:"transfer_source_storage_id,omitempty"`
	CreatedAt               time.Time       `json:"created_at"`
}

// BatchResponse represents a sorting batch in API responses
type BatchResponse struct {
	ID            uuid.UUID        `json:"id"`
	Status        string           `json:"status"`
	Notes         string           `json:"notes,omitempty"`
	TotalPieces   int64            `json:"total_pieces"`
	TotalWeightKg decimal.Decimal  `json:"total_weight_kg"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
	Results       []ResultResponse `json:"results"`
	Version       int              `json:"version"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// ToResultResponse converts a domain result to a response
func ToResultResponse(r *sorting.SortingResult) ResultResponse {
	return ResultResponse{
		ID:                      r.ID,
		BatchID:                 r.BatchID,
		SizeClass:               r.SizeClass,
		TotalPieces:             r.TotalPieces,
		TotalWeightGrams:        r.TotalWeightGrams,
		TotalWeightKg:           valueobject.GramsToKg(r.TotalWeightGrams),
		StorageLocationID:       r.StorageLocationID,
		TransferID:              r.TransferID,
		TransferSourceStorageID: r.TransferSourceStorageID,
		CreatedAt:               r.CreatedAt,
	}
}

// ToBatchResponse converts a domain batch to a response
func ToBatchResponse(b *sorting.SortingBatch) BatchResponse {
	results := make([]ResultResponse, len(b.Results))
	for i := range b.Results {
		results[i] = ToResultResponse(&b.Results[i])
	}
	return BatchResponse{
		ID:            b.ID,
		Status:        string(b.Status),
		Notes:         b.Notes,
		TotalPieces:   b.TotalPieces(),
		TotalWeightKg: valueobject.GramsToKg(b.TotalWeightGrams()),
		CompletedAt:   b.CompletedAt,
		Results:       results,
		Version:       b.Version,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}
