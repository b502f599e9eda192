package telemetry

import (
	"context"
	"net/http"

	"github.com/fishfarm/backend/internal/domain/dispatch"
	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/fishfarm/backend/internal/domain/sorting"
	"github.com/fishfarm/backend/internal/domain/transfer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "fishfarm"

// InventoryMetrics counts inventory movements from domain events and
// serves them in the Prometheus exposition format.
type InventoryMetrics struct {
	registry *prometheus.Registry

	transfers        *prometheus.CounterVec
	transferredGrams prometheus.Counter
	dispatches       prometheus.Counter
	dispatchedPieces prometheus.Counter
	dispatchedGrams  prometheus.Counter
	reconciliations  *prometheus.CounterVec
	sortedBatches    prometheus.Counter
	sortedPieces     prometheus.Counter
}

// NewInventoryMetrics registers the inventory counters plus the Go runtime
// and process collectors on a private registry.
func NewInventoryMetrics() *InventoryMetrics {
	m := &InventoryMetrics{
		registry: prometheus.NewRegistry(),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "transfers_total",
			Help:      "Transfer state changes by resulting status.",
		}, []string{"status"}),
		transferredGrams: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "transferred_grams_total",
			Help:      "Weight moved between storage locations by completed transfers.",
		}),
		dispatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "dispatches_total",
			Help:      "Outlet orders dispatched.",
		}),
		dispatchedPieces: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "dispatched_pieces_total",
			Help:      "Pieces shipped to outlets.",
		}),
		dispatchedGrams: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "dispatched_grams_total",
			Help:      "Weight shipped to outlets.",
		}),
		reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reconciliations_total",
			Help:      "Dispatch reconciliations by outcome.",
		}, []string{"status"}),
		sortedBatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sorting_batches_completed_total",
			Help:      "Sorting batches turned into inventory.",
		}),
		sortedPieces: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sorted_pieces_total",
			Help:      "Pieces added to inventory by completed sorting batches.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.transfers,
		m.transferredGrams,
		m.dispatches,
		m.dispatchedPieces,
		m.dispatchedGrams,
		m.reconciliations,
		m.sortedBatches,
		m.sortedPieces,
	)
	return m
}

// Registry exposes the underlying registry
func (m *InventoryMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry for scraping
func (m *InventoryMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// EventTypes returns the event types this handler is interested in
func (m *InventoryMetrics) EventTypes() []string {
	return []string{
		transfer.EventTypeTransferRequested,
		transfer.EventTypeTransferApproved,
		transfer.EventTypeTransferCompleted,
		transfer.EventTypeTransferRejected,
		dispatch.EventTypeOrderDispatched,
		dispatch.EventTypeDispatchReconciled,
		sorting.EventTypeBatchCompleted,
	}
}

// Handle updates the counters for one event
func (m *InventoryMetrics) Handle(_ context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *transfer.Event:
		m.transfers.WithLabelValues(string(e.Status)).Inc()
	case *transfer.CompletedEvent:
		m.transfers.WithLabelValues(string(e.Status)).Inc()
		m.transferredGrams.Add(float64(e.WeightGrams))
	case *dispatch.OrderDispatchedEvent:
		m.dispatches.Inc()
		for _, line := range e.Manifest {
			m.dispatchedPieces.Add(float64(line.Pieces))
			m.dispatchedGrams.Add(float64(line.WeightGrams))
		}
	case *dispatch.DispatchReconciledEvent:
		m.reconciliations.WithLabelValues(string(e.Report.Status)).Inc()
	case *sorting.BatchCompletedEvent:
		m.sortedBatches.Inc()
		m.sortedPieces.Add(float64(e.TotalPieces))
	}
	return nil
}

var _ shared.EventHandler = (*InventoryMetrics)(nil)
