package inventory

import (
	"context"

	"github.com/google/uuid"
)

// StockQuery is the read side of inventory: sorting results joined with
// their batches.
type StockQuery interface {
	// Summarize groups counted stock by (location, size class)
	Summarize(ctx context.Context, filter SummaryFilter) ([]Summary, error)

	// UsageGrams returns the total counted grams per location
	UsageGrams(ctx context.Context, locationIDs []uuid.UUID) (map[uuid.UUID]int64, error)

	// StockRows returns the counted stock rows of one location and size class
	// in FIFO order. With forUpdate the rows are locked until the surrounding
	// transaction ends.
	StockRows(ctx context.Context, locationID uuid.UUID, sizeClass int, forUpdate bool) ([]StockRow, error)
}
