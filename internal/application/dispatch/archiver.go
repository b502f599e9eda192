package dispatch

import (
	"context"
	"fmt"

	"github.com/fishfarm/backend/internal/domain/dispatch"
	"github.com/fishfarm/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ReconciliationArchiver copies each reconciliation report to the report archive
type ReconciliationArchiver struct {
	archive dispatch.ReportArchive
	logger  *zap.Logger
}

// NewReconciliationArchiver creates a new ReconciliationArchiver
func NewReconciliationArchiver(archive dispatch.ReportArchive, logger *zap.Logger) *ReconciliationArchiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationArchiver{archive: archive, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *ReconciliationArchiver) EventTypes() []string {
	return []string{dispatch.EventTypeDispatchReconciled}
}

// Handle archives the report carried by a DispatchReconciledEvent
func (h *ReconciliationArchiver) Handle(ctx context.Context, event shared.DomainEvent) error {
	reconciled, ok := event.(*dispatch.DispatchReconciledEvent)
	if !ok {
		return nil
	}
	key, err := h.archive.Archive(ctx, reconciled.Report)
	if err != nil {
		return fmt.Errorf("archive reconciliation of dispatch %s: %w", reconciled.Report.DispatchID, err)
	}
	if key != "" {
		h.logger.Info("Archived reconciliation report",
			zap.String("dispatch_id", reconciled.Report.DispatchID.String()),
			zap.String("status", string(reconciled.Report.Status)),
			zap.String("key", key),
		)
	}
	return nil
}

var _ shared.EventHandler = (*ReconciliationArchiver)(nil)
