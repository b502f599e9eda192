package inventory

import (
	"github.com/fishfarm/backend/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SummaryFilter represents query options for the inventory summary
type SummaryFilter struct {
	LocationID *uuid.UUID
	SizeClass  *int
}

// SummaryResponse is one (location, size class) group in API responses
type SummaryResponse struct {
	StorageLocationID uuid.UUID       `json:"storage_location_id"`
	SizeClass         int             `json:"size_class"`
	SizeLabel         string          `json:"size_label,omitempty"`
	TotalPieces       int64           `json:"total_pieces"`
	TotalWeightGrams  int64           `json:"total_weight_grams"`
	TotalWeightKg     decimal.Decimal `json:"total_weight_kg"`
	BatchCount        int             `json:"batch_count"`
}

// ToSummaryResponse converts a domain Summary to a response
func ToSummaryResponse(s inventory.Summary, label string) SummaryResponse {
	return SummaryResponse{
		StorageLocationID: s.StorageLocationID,
		SizeClass:         s.SizeClass,
		SizeLabel:         label,
		TotalPieces:       s.TotalPieces,
		TotalWeightGrams:  s.TotalWeightGrams,
		TotalWeightKg:     s.TotalWeightKg(),
		BatchCount:        s.BatchCount,
	}
}
