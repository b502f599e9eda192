package sorting

import (
	"context"

	appinv "github.com/fishfarm/backend/internal/application/inventory"
	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/fishfarm/backend/internal/domain/shared/valueobject"
	"github.com/fishfarm/backend/internal/domain/sizing"
	"github.com/fishfarm/backend/internal/domain/sorting"
	"github.com/fishfarm/backend/internal/domain/storage"
	"github.com/google/uuid"
)

// SortingService records sorting batches and turns them into inventory
type SortingService struct {
	batchRepo      sorting.BatchRepository
	resultRepo     sorting.ResultRepository
	txScope        appinv.TransactionScope
	classifier     *sizing.Classifier
	eventPublisher shared.EventPublisher
}

// NewSortingService creates a new SortingService
func NewSortingService(
	batchRepo sorting.BatchRepository,
	resultRepo sorting.ResultRepository,
	txScope appinv.TransactionScope,
	classifier *sizing.Classifier,
) *SortingService {
	return &SortingService{
		batchRepo:  batchRepo,
		resultRepo: resultRepo,
		txScope:    txScope,
		classifier: classifier,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *SortingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateBatch opens a pending batch
func (s *SortingService) CreateBatch(ctx context.Context, req CreateBatchRequest) (*BatchResponse, error) {
	batch := sorting.NewSortingBatch(req.Notes)
	if err := s.batchRepo.Save(ctx, batch); err != nil {
		return nil, err
	}
	response := ToBatchResponse(batch)
	return &response, nil
}

// GetBatch returns a batch with its results
func (s *SortingService) GetBatch(ctx context.Context, id uuid.UUID) (*BatchResponse, error) {
	batch, err := s.batchRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToBatchResponse(batch)
	return &response, nil
}

// ListBatches lists batches without their results
func (s *SortingService) ListBatches(ctx context.Context, filter BatchListFilter) ([]BatchResponse, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Filters:  map[string]any{},
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	batches, err := s.batchRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	out := make([]BatchResponse, len(batches))
	for i := range batches {
		out[i] = ToBatchResponse(&batches[i])
	}
	return out, nil
}

// RecordWeighings classifies individual fish and adds one result per size class
func (s *SortingService) RecordWeighings(ctx context.Context, batchID uuid.UUID, req RecordWeighingsRequest) (*BatchResponse, error) {
	if len(req.WeightsGrams) == 0 {
		return nil, shared.NewValidationError("weights_grams", "At least one weight is required")
	}
	drafts, err := sorting.TallyWeighings(s.classifier, req.WeightsGrams)
	if err != nil {
		return nil, err
	}

	var batch *sorting.SortingBatch
	err = s.txScope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		batch, err = repos.BatchRepo().FindByID(ctx, batchID)
		if err != nil {
			return err
		}
		if err := batch.EnsureMutable("RecordWeighings"); err != nil {
			return err
		}
		if err := ensureAcceptsStock(ctx, repos.LocationRepo(), req.StorageLocationID); err != nil {
			return err
		}

		added := make([]sorting.SortingResult, 0, len(drafts))
		for _, d := range drafts {
			result, err := batch.AddResult(d.SizeClass, d.Pieces, d.WeightGrams, req.StorageLocationID)
			if err != nil {
				return err
			}
			added = append(added, *result)
		}
		return repos.ResultRepo().CreateBatch(ctx, added)
	})
	if err != nil {
		return nil, err
	}
	response := ToBatchResponse(batch)
	return &response, nil
}

// AddResult adds a pre-tallied result to a pending batch
func (s *SortingService) AddResult(ctx context.Context, batchID uuid.UUID, req AddResultRequest) (*ResultResponse, error) {
	if s.classifier != nil && !s.classifier.IsValidClass(req.SizeClass) {
		return nil, shared.NewOutOfRangeError("size_class", req.SizeClass, "unknown size class")
	}
	if req.TotalWeightKg.IsNegative() {
		return nil, shared.NewOutOfRangeError("total_weight_kg", req.TotalWeightKg.String(), "weight cannot be negative")
	}
	if !valueobject.KgInRange(req.TotalWeightKg) {
		return nil, shared.NewOutOfRangeError("total_weight_kg", req.TotalWeightKg.String(),
			"weight cannot exceed "+valueobject.MaxKg.String()+" kg")
	}
	grams := valueobject.KgToGrams(req.TotalWeightKg)

	var added *sorting.SortingResult
	err := s.txScope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		batch, err := repos.BatchRepo().FindByID(ctx, batchID)
		if err != nil {
			return err
		}
		if err := ensureAcceptsStock(ctx, repos.LocationRepo(), req.StorageLocationID); err != nil {
			return err
		}
		added, err = batch.AddResult(req.SizeClass, req.TotalPieces, grams, req.StorageLocationID)
		if err != nil {
			return err
		}
		return repos.ResultRepo().Create(ctx, added)
	})
	if err != nil {
		return nil, err
	}
	response := ToResultResponse(added)
	return &response, nil
}

// PlaceResult assigns an unplaced result of a pending batch to an active location
func (s *SortingService) PlaceResult(ctx context.Context, resultID uuid.UUID, req PlaceResultRequest) (*ResultResponse, error) {
	var result *sorting.SortingResult
	err := s.txScope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		var err error
		result, err = repos.ResultRepo().FindByID(ctx, resultID)
		if err != nil {
			return err
		}
		batch, err := repos.BatchRepo().FindByID(ctx, result.BatchID)
		if err != nil {
			return err
		}
		if err := batch.EnsureMutable("PlaceResult"); err != nil {
			return err
		}
		if result.IsPlaced() {
			return shared.NewInvalidStateError("sorting result", result.ID, "placed", "placed").WithOp("PlaceResult")
		}
		if err := ensureAcceptsStock(ctx, repos.LocationRepo(), &req.StorageLocationID); err != nil {
			return err
		}
		if err := repos.ResultRepo().UpdatePlacement(ctx, result.ID, req.StorageLocationID); err != nil {
			return err
		}
		result.Place(req.StorageLocationID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	response := ToResultResponse(result)
	return &response, nil
}

// CompleteBatch freezes a batch; its placed results become inventory
func (s *SortingService) CompleteBatch(ctx context.Context, batchID uuid.UUID) (*BatchResponse, error) {
	var batch *sorting.SortingBatch
	err := s.txScope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		var err error
		batch, err = repos.BatchRepo().FindByID(ctx, batchID)
		if err != nil {
			return err
		}
		if err := batch.Complete(); err != nil {
			return err
		}
		return repos.BatchRepo().SaveWithLock(ctx, batch)
	})
	if err != nil {
		return nil, err
	}

	events := batch.GetDomainEvents()
	batch.ClearDomainEvents()
	if s.eventPublisher != nil && len(events) > 0 {
		// Publish errors are logged by the event bus, not propagated
		_ = s.eventPublisher.Publish(ctx, events...)
	}

	response := ToBatchResponse(batch)
	return &response, nil
}

func ensureAcceptsStock(ctx context.Context, locations storage.LocationRepository, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	location, err := locations.FindByID(ctx, *id)
	if err != nil {
		return err
	}
	if !location.AcceptsNewStock() {
		return shared.NewInvalidStateError("storage location", location.ID, string(location.Status), "receive stock").
			WithOp("PlaceStock")
	}
	return nil
}
