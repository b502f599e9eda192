package inventory

import (
	"context"
	"fmt"

	"github.com/fishfarm/backend/internal/domain/dispatch"
	"github.com/fishfarm/backend/internal/domain/inventory"
	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/fishfarm/backend/internal/domain/sorting"
	"github.com/fishfarm/backend/internal/domain/storage"
	"github.com/fishfarm/backend/internal/domain/transfer"
	"go.uber.org/zap"
)

// UsageCacheRefresher rewrites storage_locations.current_usage_kg for the
// locations touched by a stock mutation.
type UsageCacheRefresher struct {
	stock     inventory.StockQuery
	locations storage.LocationRepository
	logger    *zap.Logger
}

// NewUsageCacheRefresher creates a new UsageCacheRefresher
func NewUsageCacheRefresher(stock inventory.StockQuery, locations storage.LocationRepository, logger *zap.Logger) *UsageCacheRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UsageCacheRefresher{stock: stock, locations: locations, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *UsageCacheRefresher) EventTypes() []string {
	return []string{
		sorting.EventTypeBatchCompleted,
		transfer.EventTypeTransferCompleted,
		dispatch.EventTypeOrderDispatched,
	}
}

// Handle recomputes usage for every location the event names
func (h *UsageCacheRefresher) Handle(ctx context.Context, event shared.DomainEvent) error {
	scoped, ok := event.(shared.LocationScopedEvent)
	if !ok {
		return nil
	}
	ids := scoped.AffectedLocations()
	if len(ids) == 0 {
		return nil
	}

	usage, err := h.stock.UsageGrams(ctx, ids)
	if err != nil {
		return fmt.Errorf("compute usage for %s: %w", event.EventType(), err)
	}

	for _, id := range ids {
		if err := h.locations.UpdateUsageCache(ctx, id, usage[id]); err != nil {
			return fmt.Errorf("refresh usage cache of %s: %w", id, err)
		}
	}

	h.logger.Debug("Refreshed location usage cache",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.Int("locations", len(ids)),
	)
	return nil
}

var _ shared.EventHandler = (*UsageCacheRefresher)(nil)
