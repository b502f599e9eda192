package storage

import (
	"time"

	"github.com/fishfarm/backend/internal/domain/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateLocationRequest represents a request to register a storage location
type CreateLocationRequest struct {
	Name         string          `json:"name" binding:"required,min=1,max=100"`
	LocationType string          `json:"location_type" binding:"required,oneof=cold_storage freezer ambient processing_area"`
	CapacityKg   decimal.Decimal `json:"capacity_kg" binding:"required"`
}

// UpdateStatusRequest represents a request to change a location's status
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active maintenance inactive"`
}

// UpdateCapacityRequest represents a request to change a location's capacity
type UpdateCapacityRequest struct {
	CapacityKg decimal.Decimal `json:"capacity_kg" binding:"required"`
}

// LocationListFilter represents filter options for location list
type LocationListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=active maintenance inactive"`
	Type     string `form:"location_type" binding:"omitempty,oneof=cold_storage freezer ambient processing_area"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// LocationResponse represents a storage location in API responses.
// CurrentUsageKg is always the live aggregate.
type LocationResponse struct {
	ID                 uuid.UUID       `json:"id"`
	Name               string          `json:"name"`
	LocationType       string          `json:"location_type"`
	CapacityKg         decimal.Decimal `json:"capacity_kg"`
	Status             string          `json:"status"`
	CurrentUsageKg     decimal.Decimal `json:"current_usage_kg"`
	UtilizationPercent decimal.Decimal `json:"utilization_percent"`
	AcceptsNewStock    bool            `json:"accepts_new_stock"`
	Version            int             `json:"version"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// CapacityResponse reports capacity against live usage
type CapacityResponse struct {
	LocationID uuid.UUID       `json:"location_id"`
	CapacityKg decimal.Decimal `json:"capacity_kg"`
	UsageKg    decimal.Decimal `json:"usage_kg"`
	HeadroomKg decimal.Decimal `json:"headroom_kg"`
}

// SizeClassUsage is the stock of one size class within a location
type SizeClassUsage struct {
	SizeClass   int             `json:"size_class"`
	TotalPieces int64           `json:"total_pieces"`
	WeightKg    decimal.Decimal `json:"weight_kg"`
}

// UtilizationResponse reports how full a location is
type UtilizationResponse struct {
	LocationID         uuid.UUID        `json:"location_id"`
	Name               string           `json:"name"`
	CapacityKg         decimal.Decimal  `json:"capacity_kg"`
	UsageKg            decimal.Decimal  `json:"usage_kg"`
	UtilizationPercent decimal.Decimal  `json:"utilization_percent"`
	BySizeClass        []SizeClassUsage `json:"by_size_class"`
}

// ToLocationResponse converts a domain location to a response using the live usage
func ToLocationResponse(l *storage.StorageLocation, liveUsageKg decimal.Decimal) LocationResponse {
	return LocationResponse{
		ID:                 l.ID,
		Name:               l.Name,
		LocationType:       string(l.Type),
		CapacityKg:         l.CapacityKg,
		Status:             string(l.Status),
		CurrentUsageKg:     liveUsageKg,
		UtilizationPercent: storage.UtilizationPercent(liveUsageKg, l.CapacityKg),
		AcceptsNewStock:    l.AcceptsNewStock(),
		Version:            l.Version,
		CreatedAt:          l.CreatedAt,
		UpdatedAt:          l.UpdatedAt,
	}
}
