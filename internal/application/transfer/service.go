package transfer

import (
	"context"
	"errors"
	"fmt"

	appinv "github.com/fishfarm/backend/internal/application/inventory"
	"github.com/fishfarm/backend/internal/domain/inventory"
	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/fishfarm/backend/internal/domain/shared/valueobject"
	"github.com/fishfarm/backend/internal/domain/sorting"
	"github.com/fishfarm/backend/internal/domain/storage"
	"github.com/fishfarm/backend/internal/domain/transfer"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TransferService runs the request, approve, complete and reject workflow
// for moving stock of one size class between storage locations.
type TransferService struct {
	transferRepo   transfer.Repository
	locationRepo   storage.LocationRepository
	stock          inventory.StockQuery
	txScope        appinv.TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewTransferService creates a new TransferService
func NewTransferService(
	transferRepo transfer.Repository,
	locationRepo storage.LocationRepository,
	stock inventory.StockQuery,
	txScope appinv.TransactionScope,
	logger *zap.Logger,
) *TransferService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransferService{
		transferRepo: transferRepo,
		locationRepo: locationRepo,
		stock:        stock,
		txScope:      txScope,
		logger:       logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *TransferService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Request creates a pending transfer after checking the source holds enough stock
func (s *TransferService) Request(ctx context.Context, req RequestTransferRequest) (*TransferResponse, error) {
	t, err := transfer.NewTransfer(req.FromStorageID, req.ToStorageID, req.SizeClass, req.Quantity, req.WeightKg, req.RequestedBy)
	if err != nil {
		return nil, err
	}

	if _, err := s.locationRepo.FindByID(ctx, t.FromStorageID); err != nil {
		return nil, err
	}
	if _, err := s.locationRepo.FindByID(ctx, t.ToStorageID); err != nil {
		return nil, err
	}
	if err := checkStock(ctx, s.stock, t); err != nil {
		return nil, err
	}

	if err := s.transferRepo.Save(ctx, t); err != nil {
		return nil, err
	}
	s.publish(ctx, t)

	response := ToTransferResponse(t)
	return &response, nil
}

// Approve re-checks source stock, requires an active destination with
// enough headroom, and moves the transfer to approved. Headroom counts the
// live usage plus the weight of transfers already approved into the
// destination.
func (s *TransferService) Approve(ctx context.Context, id uuid.UUID, req ApproveTransferRequest) (*TransferResponse, error) {
	var t *transfer.Transfer
	err := s.txScope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		var err error
		t, err = repos.TransferRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !t.Status.CanTransitionTo(transfer.StatusApproved) {
			return shared.NewInvalidStateError("transfer", t.ID, string(t.Status), string(transfer.StatusApproved)).
				WithOp("Approve")
		}

		if err := checkStock(ctx, repos.StockQuery(), t); err != nil {
			return err
		}

		// the destination lock serializes approvals into one location
		dest, err := repos.LocationRepo().FindByIDForUpdate(ctx, t.ToStorageID)
		if err != nil {
			return err
		}
		if !dest.AcceptsNewStock() {
			return shared.NewInvalidStateError("storage location", dest.ID, string(dest.Status), "receive stock").
				WithOp("Approve")
		}
		usage, err := repos.StockQuery().UsageGrams(ctx, []uuid.UUID{dest.ID})
		if err != nil {
			return err
		}
		reserved, err := repos.TransferRepo().ApprovedInboundGrams(ctx, dest.ID)
		if err != nil {
			return err
		}
		headroom := dest.HeadroomKg(valueobject.GramsToKg(usage[dest.ID] + reserved))
		if headroom.LessThan(t.WeightKg()) {
			return shared.NewCapacityExceededError(dest.ID, t.WeightKg().String(), headroom.String()).
				WithOp("Approve").
				WithDetail("transfer_id", t.ID.String()).
				WithDetail("reserved_kg", valueobject.GramsToKg(reserved).String())
		}

		if err := t.Approve(req.ApprovedBy); err != nil {
			return err
		}
		return repos.TransferRepo().SaveWithLock(ctx, t, transfer.StatusPending)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, t)

	response := ToTransferResponse(t)
	return &response, nil
}

// Complete moves the stock of an approved transfer in one transaction.
//
// The source rows are locked and drawn down oldest batch first; the
// destination gets one row per contributing batch so it inherits the
// batches' age. Any failure rolls everything back and the transfer stays
// approved.
func (s *TransferService) Complete(ctx context.Context, id uuid.UUID) (*TransferResponse, error) {
	var t *transfer.Transfer
	err := s.txScope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		var err error
		t, err = repos.TransferRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !t.Status.CanTransitionTo(transfer.StatusCompleted) {
			return shared.NewInvalidStateError("transfer", t.ID, string(t.Status), string(transfer.StatusCompleted)).
				WithOp("Complete")
		}

		rows, err := repos.StockQuery().StockRows(ctx, t.FromStorageID, t.SizeClass, true)
		if err != nil {
			return err
		}
		grams := t.WeightGrams
		plan, err := inventory.PlanDrawdown(rows, t.Quantity, &grams)
		if err != nil {
			var shortfall *inventory.ShortfallError
			if errors.As(err, &shortfall) {
				return shared.NewConsistencyViolationError(t.ID, "source stock no longer covers the transfer").
					WithOp("Complete").
					WithDetail("requested_pieces", shortfall.WantPieces).
					WithDetail("available_pieces", shortfall.HavePieces).
					WithDetail("requested_grams", shortfall.WantGrams).
					WithDetail("available_grams", shortfall.HaveGrams).
					WithCause(err)
			}
			var mismatch *inventory.WeightMismatchError
			if errors.As(err, &mismatch) {
				return shared.NewConsistencyViolationError(t.ID, "source stock no longer fits the declared weight").
					WithOp("Complete").
					WithDetail("requested_grams", mismatch.WantGrams).
					WithCause(err)
			}
			return err
		}

		for _, d := range plan.Draws {
			ok, err := repos.ResultRepo().DecrementIfAvailable(ctx, d.ResultID, d.Pieces, d.Grams)
			if err != nil {
				return err
			}
			if !ok {
				return shared.NewConsistencyViolationError(t.ID,
					fmt.Sprintf("stock row %s changed during transfer", d.ResultID)).
					WithOp("Complete")
			}
		}

		moved := make([]sorting.SortingResult, 0, len(plan.Draws))
		for _, b := range plan.ByBatch() {
			moved = append(moved, *sorting.NewTransferredResult(
				b.BatchID, t.SizeClass, b.Pieces, b.Grams, t.ToStorageID, t.FromStorageID, t.ID))
		}
		if err := repos.ResultRepo().CreateBatch(ctx, moved); err != nil {
			return err
		}

		if err := t.Complete(); err != nil {
			return err
		}
		return repos.TransferRepo().SaveWithLock(ctx, t, transfer.StatusApproved)
	})
	if err != nil {
		s.logger.Warn("transfer completion failed",
			zap.String("transfer_id", id.String()),
			zap.Error(err))
		return nil, err
	}
	s.publish(ctx, t)

	response := ToTransferResponse(t)
	return &response, nil
}

// Reject closes a pending transfer without touching inventory
func (s *TransferService) Reject(ctx context.Context, id uuid.UUID, req RejectTransferRequest) (*TransferResponse, error) {
	var t *transfer.Transfer
	err := s.txScope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		var err error
		t, err = repos.TransferRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := t.Reject(req.Reason); err != nil {
			return err
		}
		return repos.TransferRepo().SaveWithLock(ctx, t, transfer.StatusPending)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, t)

	response := ToTransferResponse(t)
	return &response, nil
}

// Get returns a transfer by ID
func (s *TransferService) Get(ctx context.Context, id uuid.UUID) (*TransferResponse, error) {
	t, err := s.transferRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToTransferResponse(t)
	return &response, nil
}

// List returns a page of transfers and the total count
func (s *TransferService) List(ctx context.Context, filter TransferListFilter) ([]TransferResponse, int64, error) {
	domainFilter, err := toDomainFilter(filter)
	if err != nil {
		return nil, 0, err
	}

	transfers, err := s.transferRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.transferRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToTransferResponses(transfers), total, nil
}

func toDomainFilter(filter TransferListFilter) (transfer.Filter, error) {
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

	out := transfer.Filter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
		},
		SizeClass: filter.SizeClass,
	}
	if filter.Status != "" {
		status := transfer.Status(filter.Status)
		if !status.IsValid() {
			return out, shared.NewValidationError("status", "Invalid transfer status: "+filter.Status)
		}
		out.Status = &status
	}
	var err error
	if out.FromStorageID, err = parseOptionalID("from_storage_id", filter.FromStorageID); err != nil {
		return out, err
	}
	if out.ToStorageID, err = parseOptionalID("to_storage_id", filter.ToStorageID); err != nil {
		return out, err
	}
	return out, nil
}

func parseOptionalID(field, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, shared.NewValidationError(field, "Invalid id format")
	}
	return &id, nil
}

// checkStock plans the transfer's drawdown against the source's current
// stock. It fails with InsufficientStockError when the pieces or grams are
// not there, and with a ValidationError on weight_kg when the declared
// weight cannot be split from the rows the pieces would come from.
func checkStock(ctx context.Context, stock inventory.StockQuery, t *transfer.Transfer) error {
	rows, err := stock.StockRows(ctx, t.FromStorageID, t.SizeClass, false)
	if err != nil {
		return err
	}
	grams := t.WeightGrams
	_, err = inventory.PlanDrawdown(rows, t.Quantity, &grams)
	if err == nil {
		return nil
	}

	var shortfall *inventory.ShortfallError
	if errors.As(err, &shortfall) {
		return shared.NewInsufficientStockError(t.FromStorageID, t.SizeClass, t.Quantity, shortfall.HavePieces).
			WithDetail("requested_grams", t.WeightGrams).
			WithDetail("available_grams", shortfall.HaveGrams)
	}
	var mismatch *inventory.WeightMismatchError
	if errors.As(err, &mismatch) {
		verr := shared.NewValidationError("weight_kg",
			fmt.Sprintf("Declared weight does not fit the %d pieces drawn from stock", t.Quantity)).
			WithEntity(t.FromStorageID).
			WithCause(err)
		if mismatch.MinGrams <= mismatch.MaxGrams {
			verr = verr.
				WithDetail("min_weight_kg", valueobject.GramsToKg(mismatch.MinGrams).String()).
				WithDetail("max_weight_kg", valueobject.GramsToKg(mismatch.MaxGrams).String())
		}
		return verr
	}
	return err
}

func (s *TransferService) publish(ctx context.Context, t *transfer.Transfer) {
	events := t.GetDomainEvents()
	t.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish transfer events",
			zap.String("transfer_id", t.ID.String()),
			zap.Error(err))
	}
}
