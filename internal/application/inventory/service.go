package inventory

import (
	"context"

	"github.com/fishfarm/backend/internal/domain/inventory"
	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/fishfarm/backend/internal/domain/shared/valueobject"
	"github.com/fishfarm/backend/internal/domain/sizing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryService answers stock questions from the live sorting results
type InventoryService struct {
	stock      inventory.StockQuery
	classifier *sizing.Classifier
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(stock inventory.StockQuery, classifier *sizing.Classifier) *InventoryService {
	return &InventoryService{stock: stock, classifier: classifier}
}

// Summarize groups counted stock by location and size class
func (s *InventoryService) Summarize(ctx context.Context, filter SummaryFilter) ([]SummaryResponse, error) {
	if filter.SizeClass != nil && *filter.SizeClass < 0 {
		return nil, shared.NewOutOfRangeError("size_class", *filter.SizeClass, "size class cannot be negative")
	}

	summaries, err := s.stock.Summarize(ctx, inventory.SummaryFilter{
		LocationID: filter.LocationID,
		SizeClass:  filter.SizeClass,
	})
	if err != nil {
		return nil, err
	}

	labels := s.labels()
	out := make([]SummaryResponse, len(summaries))
	for i, summary := range summaries {
		out[i] = ToSummaryResponse(summary, labels[summary.SizeClass])
	}
	return out, nil
}

// UsageKg returns the live usage of each requested location in kilograms
func (s *InventoryService) UsageKg(ctx context.Context, locationIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	grams, err := s.stock.UsageGrams(ctx, locationIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]decimal.Decimal, len(grams))
	for id, g := range grams {
		out[id] = valueobject.GramsToKg(g)
	}
	return out, nil
}

func (s *InventoryService) labels() map[int]string {
	if s.classifier == nil {
		return nil
	}
	bands := s.classifier.Bands()
	labels := make(map[int]string, len(bands))
	for _, b := range bands {
		labels[b.Class] = b.Label
	}
	return labels
}
