package storage

import (
	"strings"

	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/fishfarm/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// LocationType classifies the physical kind of a storage location
type LocationType string

const (
	LocationTypeColdStorage    LocationType = "cold_storage"
	LocationTypeFreezer        LocationType = "freezer"
	LocationTypeAmbient        LocationType = "ambient"
	LocationTypeProcessingArea LocationType = "processing_area"
)

// IsValid checks if the type is a known LocationType
func (t LocationType) IsValid() bool {
	switch t {
	case LocationTypeColdStorage, LocationTypeFreezer, LocationTypeAmbient, LocationTypeProcessingArea:
		return true
	}
	return false
}

func (t LocationType) String() string {
	return string(t)
}

// LocationStatus is the operational status of a storage location
type LocationStatus string

const (
	LocationStatusActive      LocationStatus = "active"
	LocationStatusMaintenance LocationStatus = "maintenance"
	LocationStatusInactive    LocationStatus = "inactive"
)

// IsValid checks if the status is a known LocationStatus
func (s LocationStatus) IsValid() bool {
	switch s {
	case LocationStatusActive, LocationStatusMaintenance, LocationStatusInactive:
		return true
	}
	return false
}

func (s LocationStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can move to target.
// Location status is operator-controlled, so any valid status may follow any other.
func (s LocationStatus) CanTransitionTo(target LocationStatus) bool {
	switch s {
	case LocationStatusActive, LocationStatusMaintenance, LocationStatusInactive:
		return target.IsValid()
	}
	return false
}

// StorageLocation is a physical place where sorted stock is held.
// Locations are never hard-deleted; they are retired by status.
type StorageLocation struct {
	shared.BaseAggregateRoot
	Name       string
	NameKey    string
	Type       LocationType
	CapacityKg decimal.Decimal
	Status     LocationStatus
	// CurrentUsageKg is a cache of the aggregated stock. It is refreshed from
	// the inventory aggregate on every read and must not be used for decisions.
	CurrentUsageKg decimal.Decimal
}

// NormalizeName returns the key used to enforce name uniqueness:
// NFC-normalised, case-folded and trimmed.
func NormalizeName(name string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(name)))
}

// NewStorageLocation creates an active location
func NewStorageLocation(name string, locationType LocationType, capacityKg decimal.Decimal) (*StorageLocation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("name", "Location name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewValidationError("name", "Location name cannot exceed 100 characters")
	}
	if !locationType.IsValid() {
		return nil, shared.NewValidationError("location_type", "Invalid location type: "+string(locationType))
	}
	if !capacityKg.IsPositive() {
		return nil, shared.NewValidationError("capacity_kg", "Capacity must be greater than zero")
	}

	loc := &StorageLocation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              norm.NFC.String(name),
		NameKey:           NormalizeName(name),
		Type:              locationType,
		CapacityKg:        capacityKg,
		Status:            LocationStatusActive,
		CurrentUsageKg:    decimal.Zero,
	}
	loc.AddDomainEvent(NewLocationCreatedEvent(loc))
	return loc, nil
}

// SetStatus changes the operational status
func (l *StorageLocation) SetStatus(status LocationStatus) error {
	if !status.IsValid() {
		return shared.NewValidationError("status", "Invalid location status: "+string(status))
	}
	if !l.Status.CanTransitionTo(status) {
		return shared.NewInvalidStateError("storage location", l.ID, string(l.Status), string(status))
	}
	if l.Status == status {
		return nil
	}
	old := l.Status
	l.Status = status
	l.Touch()
	l.IncrementVersion()
	l.AddDomainEvent(NewLocationStatusChangedEvent(l, old))
	return nil
}

// UpdateCapacity changes the capacity; it may never drop below current usage
func (l *StorageLocation) UpdateCapacity(capacityKg, liveUsageKg decimal.Decimal) error {
	if !capacityKg.IsPositive() {
		return shared.NewValidationError("capacity_kg", "Capacity must be greater than zero")
	}
	if capacityKg.LessThan(liveUsageKg) {
		return shared.NewCapacityExceededError(l.ID, liveUsageKg.String(), capacityKg.String()).
			WithOp("UpdateCapacity")
	}
	l.CapacityKg = capacityKg
	l.Touch()
	l.IncrementVersion()
	return nil
}

// AcceptsNewStock reports whether stock may be placed or transferred here
func (l *StorageLocation) AcceptsNewStock() bool {
	return l.Status == LocationStatusActive
}

// ApplyUsage records the live usage figure on the cache column
func (l *StorageLocation) ApplyUsage(usageGrams int64) {
	l.CurrentUsageKg = valueobject.GramsToKg(usageGrams)
}

// HeadroomKg returns capacity minus the given live usage
func (l *StorageLocation) HeadroomKg(liveUsageKg decimal.Decimal) decimal.Decimal {
	return l.CapacityKg.Sub(liveUsageKg)
}

// UtilizationPercent is usage / capacity * 100, rounded half-up to 2 places
func UtilizationPercent(usageKg, capacityKg decimal.Decimal) decimal.Decimal {
	if !capacityKg.IsPositive() {
		return decimal.Zero
	}
	return usageKg.Div(capacityKg).Mul(decimal.NewFromInt(100)).Round(2)
}

// LocationIDs extracts ids, preserving order
func LocationIDs(locations []StorageLocation) []uuid.UUID {
	ids := make([]uuid.UUID, len(locations))
	for i := range locations {
		ids[i] = locations[i].ID
	}
	return ids
}
