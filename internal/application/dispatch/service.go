package dispatch

import (
	"context"
	"errors"
	"fmt"

	appinv "github.com/fishfarm/backend/internal/application/inventory"
	"github.com/fishfarm/backend/internal/domain/dispatch"
	"github.com/fishfarm/backend/internal/domain/inventory"
	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/fishfarm/backend/internal/domain/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DispatchService handles outlet orders, their dispatch from storage and
// the reconciliation of what the outlet received.
type DispatchService struct {
	orderRepo      dispatch.OrderRepository
	recordRepo     dispatch.RecordRepository
	receivingRepo  dispatch.ReceivingRepository
	locationRepo   storage.LocationRepository
	txScope        appinv.TransactionScope
	tolerance      dispatch.Tolerance
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewDispatchService creates a new DispatchService
func NewDispatchService(
	orderRepo dispatch.OrderRepository,
	recordRepo dispatch.RecordRepository,
	receivingRepo dispatch.ReceivingRepository,
	locationRepo storage.LocationRepository,
	txScope appinv.TransactionScope,
	tolerance dispatch.Tolerance,
	logger *zap.Logger,
) *DispatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DispatchService{
		orderRepo:     orderRepo,
		recordRepo:    recordRepo,
		receivingRepo: receivingRepo,
		locationRepo:  locationRepo,
		txScope:       txScope,
		tolerance:     tolerance,
		logger:        logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *DispatchService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateOrder creates a pending outlet order
func (s *DispatchService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	lines := make([]dispatch.OrderLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = dispatch.OrderLine{SizeClass: l.SizeClass, Pieces: l.Pieces}
	}
	order, err := dispatch.NewOutletOrder(req.OutletName, lines, req.RequestedBy)
	if err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// GetOrder returns an order by ID
func (s *DispatchService) GetOrder(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// ListOrders returns a page of orders and the total count
func (s *DispatchService) ListOrders(ctx context.Context, filter OrderListFilter) ([]OrderResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := dispatch.OrderFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		},
	}
	if filter.Status != "" {
		status := dispatch.OrderStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewValidationError("status", "Invalid order status: "+filter.Status)
		}
		domainFilter.Status = &status
	}

	orders, err := s.orderRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = ToOrderResponse(&orders[i])
	}
	return out, total, nil
}

// CancelOrder cancels a pending order
func (s *DispatchService) CancelOrder(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	var order *dispatch.OutletOrder
	err := s.txScope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		var err error
		order, err = repos.OrderRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := order.Cancel(); err != nil {
			return err
		}
		return repos.OrderRepo().SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// Dispatch ships a pending order from one location in a single transaction.
// Each line locks that size class's rows at the location and draws pieces
// oldest batch first; the manifest records the grams actually drawn.
func (s *DispatchService) Dispatch(ctx context.Context, orderID uuid.UUID, req DispatchOrderRequest) (*DispatchResponse, error) {
	var record *dispatch.DispatchRecord
	err := s.txScope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		order, err := repos.OrderRepo().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(dispatch.OrderStatusDispatched) {
			return shared.NewInvalidStateError("outlet order", order.ID, string(order.Status), string(dispatch.OrderStatusDispatched)).
				WithOp("Dispatch")
		}
		if _, err := repos.LocationRepo().FindByID(ctx, req.StorageLocationID); err != nil {
			return err
		}

		manifest := make([]dispatch.ManifestLine, 0, len(order.Lines))
		for _, line := range order.Lines {
			drawn, err := drawLine(ctx, repos, order.ID, req.StorageLocationID, line)
			if err != nil {
				return err
			}
			manifest = append(manifest, drawn)
		}

		if err := order.MarkDispatched(); err != nil {
			return err
		}
		if err := repos.OrderRepo().SaveWithLock(ctx, order); err != nil {
			return err
		}
		record = dispatch.NewDispatchRecord(order.ID, req.StorageLocationID, manifest, req.DispatchedBy)
		return repos.DispatchRepo().Save(ctx, record)
	})
	if err != nil {
		s.logger.Warn("order dispatch failed",
			zap.String("order_id", orderID.String()),
			zap.String("storage_location_id", req.StorageLocationID.String()),
			zap.Error(err))
		return nil, err
	}
	s.publish(ctx, record.ID, record.GetDomainEvents()...)
	record.ClearDomainEvents()

	response := ToDispatchResponse(record)
	return &response, nil
}

func drawLine(ctx context.Context, repos appinv.TransactionalRepositories, orderID, locationID uuid.UUID, line dispatch.OrderLine) (dispatch.ManifestLine, error) {
	rows, err := repos.StockQuery().StockRows(ctx, locationID, line.SizeClass, true)
	if err != nil {
		return dispatch.ManifestLine{}, err
	}
	plan, err := inventory.PlanDrawdown(rows, line.Pieces, nil)
	if err != nil {
		var shortfall *inventory.ShortfallError
		if errors.As(err, &shortfall) {
			return dispatch.ManifestLine{}, shared.NewInsufficientStockError(locationID, line.SizeClass, line.Pieces, shortfall.HavePieces).
				WithOp("Dispatch").
				WithDetail("order_id", orderID.String())
		}
		return dispatch.ManifestLine{}, err
	}

	for _, d := range plan.Draws {
		ok, err := repos.ResultRepo().DecrementIfAvailable(ctx, d.ResultID, d.Pieces, d.Grams)
		if err != nil {
			return dispatch.ManifestLine{}, err
		}
		if !ok {
			return dispatch.ManifestLine{}, shared.NewConsistencyViolationError(orderID,
				fmt.Sprintf("stock row %s changed during dispatch", d.ResultID)).
				WithOp("Dispatch")
		}
	}
	return dispatch.ManifestLine{SizeClass: line.SizeClass, Pieces: plan.Pieces, WeightGrams: plan.Grams}, nil
}

// Reconcile records what the outlet received against a dispatch and
// classifies the result. Inventory is not touched.
func (s *DispatchService) Reconcile(ctx context.Context, dispatchID uuid.UUID, req ReconcileRequest) (*ReceivingResponse, error) {
	received := make([]dispatch.ReceivedLine, len(req.Lines))
	for i, l := range req.Lines {
		received[i] = dispatch.ReceivedLine{SizeClass: l.SizeClass, Pieces: l.Pieces, WeightKg: l.WeightKg}
	}
	actual, err := dispatch.NormalizeReceived(received)
	if err != nil {
		return nil, err
	}

	var (
		record    *dispatch.DispatchRecord
		receiving *dispatch.OutletReceiving
	)
	err = s.txScope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		var err error
		record, err = repos.DispatchRepo().FindByIDForUpdate(ctx, dispatchID)
		if err != nil {
			return err
		}
		receiving = dispatch.NewOutletReceiving(record, actual, req.ReceivedBy, s.tolerance)
		if err := record.MarkReceived(); err != nil {
			return err
		}
		if err := repos.DispatchRepo().SaveWithLock(ctx, record); err != nil {
			return err
		}
		return repos.ReceivingRepo().Create(ctx, receiving)
	})
	if err != nil {
		return nil, err
	}

	report := dispatch.ReconciliationReport{
		DispatchID:        record.ID,
		OrderID:           record.OrderID,
		StorageLocationID: record.StorageLocationID,
		Expected:          record.Manifest,
		Actual:            receiving.Actual,
		Discrepancies:     receiving.Discrepancies,
		Status:            receiving.Status,
		ReceivedBy:        receiving.ReceivedBy,
		ReconciledAt:      receiving.CreatedAt,
	}
	s.publish(ctx, record.ID, dispatch.NewDispatchReconciledEvent(report))

	if receiving.Status == dispatch.ReceivingStatusDiscrepancy {
		s.logger.Info("dispatch reconciled with discrepancy",
			zap.String("dispatch_id", record.ID.String()),
			zap.Int("size_classes", len(receiving.Discrepancies)))
	}

	response := ToReceivingResponse(receiving)
	return &response, nil
}

// GetDispatch returns a dispatch record by ID
func (s *DispatchService) GetDispatch(ctx context.Context, id uuid.UUID) (*DispatchResponse, error) {
	record, err := s.recordRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToDispatchResponse(record)
	return &response, nil
}

// ListOrderDispatches returns the dispatch records of an order
func (s *DispatchService) ListOrderDispatches(ctx context.Context, orderID uuid.UUID) ([]DispatchResponse, error) {
	records, err := s.recordRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out := make([]DispatchResponse, len(records))
	for i := range records {
		out[i] = ToDispatchResponse(&records[i])
	}
	return out, nil
}

// GetReceiving returns the reconciliation recorded for a dispatch
func (s *DispatchService) GetReceiving(ctx context.Context, dispatchID uuid.UUID) (*ReceivingResponse, error) {
	receiving, err := s.receivingRepo.FindByDispatch(ctx, dispatchID)
	if err != nil {
		return nil, err
	}
	response := ToReceivingResponse(receiving)
	return &response, nil
}

func (s *DispatchService) publish(ctx context.Context, id uuid.UUID, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish dispatch events",
			zap.String("dispatch_id", id.String()),
			zap.Error(err))
	}
}
