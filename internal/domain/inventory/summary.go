// Package inventory derives stock levels from sorting results and plans
// FIFO drawdowns against them.
package inventory

import (
	"sort"
	"time"

	"github.com/fishfarm/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockRow is one sorting result joined with the state of its batch
type StockRow struct {
	ResultID          uuid.UUID
	BatchID           uuid.UUID
	BatchCompleted    bool
	BatchCreatedAt    time.Time
	StorageLocationID *uuid.UUID
	SizeClass         int
	Pieces            int64
	WeightGrams       int64
}

// Counts reports whether the row contributes to inventory
func (r StockRow) Counts() bool {
	return r.BatchCompleted && r.StorageLocationID != nil && r.WeightGrams > 0
}

// SummaryKey identifies one inventory group
type SummaryKey struct {
	StorageLocationID uuid.UUID
	SizeClass         int
}

// Summary is the stock of one size class at one location
type Summary struct {
	StorageLocationID uuid.UUID `json:"storage_location_id"`
	SizeClass         int       `json:"size_class"`
	TotalPieces       int64     `json:"total_pieces"`
	TotalWeightGrams  int64     `json:"total_weight_grams"`
	BatchCount        int       `json:"batch_count"`
}

// Key returns the grouping key
func (s Summary) Key() SummaryKey {
	return SummaryKey{StorageLocationID: s.StorageLocationID, SizeClass: s.SizeClass}
}

// TotalWeightKg is the presentation form of TotalWeightGrams
func (s Summary) TotalWeightKg() decimal.Decimal {
	return valueobject.GramsToKg(s.TotalWeightGrams)
}

// SummaryFilter narrows a summary to a location and/or size class
type SummaryFilter struct {
	LocationID *uuid.UUID
	SizeClass  *int
}

// Matches reports whether a group passes the filter
func (f SummaryFilter) Matches(locationID uuid.UUID, sizeClass int) bool {
	if f.LocationID != nil && *f.LocationID != locationID {
		return false
	}
	if f.SizeClass != nil && *f.SizeClass != sizeClass {
		return false
	}
	return true
}

// Summarize groups rows of completed batches with a location and positive
// weight by (location, size class). Groups are returned sorted by location
// then size class; empty groups never appear.
func Summarize(rows []StockRow, filter SummaryFilter) []Summary {
	groups := make(map[SummaryKey]*Summary)
	batches := make(map[SummaryKey]map[uuid.UUID]struct{})

	for _, r := range rows {
		if !r.Counts() || !filter.Matches(*r.StorageLocationID, r.SizeClass) {
			continue
		}
		key := SummaryKey{StorageLocationID: *r.StorageLocationID, SizeClass: r.SizeClass}
		g, ok := groups[key]
		if !ok {
			g = &Summary{StorageLocationID: key.StorageLocationID, SizeClass: key.SizeClass}
			groups[key] = g
			batches[key] = make(map[uuid.UUID]struct{})
		}
		g.TotalPieces += r.Pieces
		g.TotalWeightGrams += r.WeightGrams
		batches[key][r.BatchID] = struct{}{}
	}

	out := make([]Summary, 0, len(groups))
	for key, g := range groups {
		g.BatchCount = len(batches[key])
		out = append(out, *g)
	}
	SortSummaries(out)
	return out
}

// SortSummaries orders summaries by location id then size class
func SortSummaries(s []Summary) {
	sort.Slice(s, func(i, j int) bool {
		a, b := s[i].StorageLocationID.String(), s[j].StorageLocationID.String()
		if a != b {
			return a < b
		}
		return s[i].SizeClass < s[j].SizeClass
	})
}

// UsageGrams totals the weight at each location across all size classes
func UsageGrams(summaries []Summary) map[uuid.UUID]int64 {
	usage := make(map[uuid.UUID]int64)
	for _, s := range summaries {
		usage[s.StorageLocationID] += s.TotalWeightGrams
	}
	return usage
}

// Totals sums pieces and grams over summaries
func Totals(summaries []Summary) (pieces, grams int64) {
	for _, s := range summaries {
		pieces += s.TotalPieces
		grams += s.TotalWeightGrams
	}
	return pieces, grams
}
