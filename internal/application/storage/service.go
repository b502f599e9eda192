package storage

import (
	"context"
	"errors"

	appinv "github.com/fishfarm/backend/internal/application/inventory"
	"github.com/fishfarm/backend/internal/domain/inventory"
	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/fishfarm/backend/internal/domain/shared/valueobject"
	"github.com/fishfarm/backend/internal/domain/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LocationService is the storage location registry
type LocationService struct {
	locationRepo   storage.LocationRepository
	stock          inventory.StockQuery
	txScope        appinv.TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewLocationService creates a new LocationService
func NewLocationService(
	locationRepo storage.LocationRepository,
	stock inventory.StockQuery,
	txScope appinv.TransactionScope,
	logger *zap.Logger,
) *LocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocationService{
		locationRepo: locationRepo,
		stock:        stock,
		txScope:      txScope,
		logger:       logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *LocationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create registers a new active location
func (s *LocationService) Create(ctx context.Context, req CreateLocationRequest) (*LocationResponse, error) {
	location, err := storage.NewStorageLocation(req.Name, storage.LocationType(req.LocationType), req.CapacityKg)
	if err != nil {
		return nil, err
	}

	existing, err := s.locationRepo.FindByNameKey(ctx, location.NameKey)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.ErrAlreadyExists.
			WithOp("CreateLocation").
			WithEntity(existing.ID).
			WithDetail("name", req.Name)
	}

	if err := s.locationRepo.Save(ctx, location); err != nil {
		return nil, err
	}
	s.publish(ctx, location)

	response := ToLocationResponse(location, decimal.Zero)
	return &response, nil
}

// Get returns a location with its live usage
func (s *LocationService) Get(ctx context.Context, id uuid.UUID) (*LocationResponse, error) {
	location, err := s.locationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	usage, err := s.liveUsage(ctx, []storage.StorageLocation{*location})
	if err != nil {
		return nil, err
	}
	response := ToLocationResponse(location, usage[location.ID])
	return &response, nil
}

// List returns locations matching the filter with their live usage
func (s *LocationService) List(ctx context.Context, filter LocationListFilter) ([]LocationResponse, int64, error) {
	domainFilter := toDomainFilter(filter)

	locations, err := s.locationRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.locationRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	usage, err := s.liveUsage(ctx, locations)
	if err != nil {
		return nil, 0, err
	}

	out := make([]LocationResponse, len(locations))
	for i := range locations {
		out[i] = ToLocationResponse(&locations[i], usage[locations[i].ID])
	}
	return out, total, nil
}

// ListAvailable returns the locations that accept new stock
func (s *LocationService) ListAvailable(ctx context.Context) ([]LocationResponse, error) {
	active := storage.LocationStatusActive
	locations, err := s.locationRepo.FindAll(ctx, storage.LocationFilter{
		Filter: shared.Filter{OrderBy: "name", OrderDir: "asc"},
		Status: &active,
	})
	if err != nil {
		return nil, err
	}
	usage, err := s.liveUsage(ctx, locations)
	if err != nil {
		return nil, err
	}
	out := make([]LocationResponse, len(locations))
	for i := range locations {
		out[i] = ToLocationResponse(&locations[i], usage[locations[i].ID])
	}
	return out, nil
}

// SetStatus changes a location's operational status
func (s *LocationService) SetStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest) (*LocationResponse, error) {
	location, err := s.locationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := location.Version
	if err := location.SetStatus(storage.LocationStatus(req.Status)); err != nil {
		return nil, err
	}
	if location.Version != before {
		if err := s.locationRepo.SaveWithLock(ctx, location); err != nil {
			return nil, err
		}
		s.publish(ctx, location)
	}
	return s.Get(ctx, id)
}

// UpdateCapacity changes capacity; it is rejected below the live usage
func (s *LocationService) UpdateCapacity(ctx context.Context, id uuid.UUID, req UpdateCapacityRequest) (*LocationResponse, error) {
	err := s.txScope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		location, err := repos.LocationRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		usage, err := repos.StockQuery().UsageGrams(ctx, []uuid.UUID{id})
		if err != nil {
			return err
		}
		if err := location.UpdateCapacity(req.CapacityKg, valueobject.GramsToKg(usage[id])); err != nil {
			return err
		}
		return repos.LocationRepo().SaveWithLock(ctx, location)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// CapacityOf reports capacity, live usage and headroom
func (s *LocationService) CapacityOf(ctx context.Context, id uuid.UUID) (*CapacityResponse, error) {
	location, err := s.locationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	usage, err := s.liveUsage(ctx, []storage.StorageLocation{*location})
	if err != nil {
		return nil, err
	}
	used := usage[id]
	return &CapacityResponse{
		LocationID: id,
		CapacityKg: location.CapacityKg,
		UsageKg:    used,
		HeadroomKg: location.HeadroomKg(used),
	}, nil
}

// Utilization reports usage as a percentage of capacity with a per size class breakdown
func (s *LocationService) Utilization(ctx context.Context, id uuid.UUID) (*UtilizationResponse, error) {
	location, err := s.locationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	summaries, err := s.stock.Summarize(ctx, inventory.SummaryFilter{LocationID: &id})
	if err != nil {
		return nil, err
	}

	_, grams := inventory.Totals(summaries)
	usedKg := valueobject.GramsToKg(grams)
	breakdown := make([]SizeClassUsage, len(summaries))
	for i, sm := range summaries {
		breakdown[i] = SizeClassUsage{
			SizeClass:   sm.SizeClass,
			TotalPieces: sm.TotalPieces,
			WeightKg:    sm.TotalWeightKg(),
		}
	}
	s.refreshCache(ctx, location, grams)

	return &UtilizationResponse{
		LocationID:         id,
		Name:               location.Name,
		CapacityKg:         location.CapacityKg,
		UsageKg:            usedKg,
		UtilizationPercent: storage.UtilizationPercent(usedKg, location.CapacityKg),
		BySizeClass:        breakdown,
	}, nil
}

// liveUsage computes usage from the aggregate and overwrites stale cache columns
func (s *LocationService) liveUsage(ctx context.Context, locations []storage.StorageLocation) (map[uuid.UUID]decimal.Decimal, error) {
	out := make(map[uuid.UUID]decimal.Decimal, len(locations))
	if len(locations) == 0 {
		return out, nil
	}
	grams, err := s.stock.UsageGrams(ctx, storage.LocationIDs(locations))
	if err != nil {
		return nil, err
	}
	for i := range locations {
		id := locations[i].ID
		out[id] = valueobject.GramsToKg(grams[id])
		s.refreshCache(ctx, &locations[i], grams[id])
	}
	return out, nil
}

// refreshCache is best effort; the response never depends on the cached value
func (s *LocationService) refreshCache(ctx context.Context, location *storage.StorageLocation, grams int64) {
	if location.CurrentUsageKg.Equal(valueobject.GramsToKg(grams)) {
		return
	}
	if err := s.locationRepo.UpdateUsageCache(ctx, location.ID, grams); err != nil {
		s.logger.Warn("Failed to refresh location usage cache",
			zap.String("location_id", location.ID.String()),
			zap.Error(err),
		)
		return
	}
	location.ApplyUsage(grams)
}

func (s *LocationService) publish(ctx context.Context, location *storage.StorageLocation) {
	events := location.GetDomainEvents()
	location.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish storage location events",
			zap.String("location_id", location.ID.String()),
			zap.Error(err))
	}
}

func toDomainFilter(f LocationListFilter) storage.LocationFilter {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 20
	}
	out := storage.LocationFilter{
		Filter: shared.Filter{
			Page:     f.Page,
			PageSize: f.PageSize,
			OrderBy:  f.OrderBy,
			OrderDir: f.OrderDir,
			Search:   f.Search,
		},
	}
	if f.Status != "" {
		st := storage.LocationStatus(f.Status)
		out.Status = &st
	}
	if f.Type != "" {
		lt := storage.LocationType(f.Type)
		out.Type = &lt
	}
	return out
}
