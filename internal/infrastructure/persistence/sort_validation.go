package persistence

import (
	"strings"

	"github.com/fishfarm/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// StorageLocationSortFields contains allowed sort fields for storage locations
var StorageLocationSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"updated_at":       true,
	"name":             true,
	"location_type":    true,
	"status":           true,
	"capacity_kg":      true,
	"current_usage_kg": true,
}

// SortingBatchSortFields contains allowed sort fields for sorting batches
var SortingBatchSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"status":       true,
	"completed_at": true,
}

// TransferSortFields contains allowed sort fields for transfers
var TransferSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"status":       true,
	"size_class":   true,
	"quantity":     true,
	"weight_grams": true,
	"approved_at":  true,
	"completed_at": true,
}

// OutletOrderSortFields contains allowed sort fields for outlet orders
var OutletOrderSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"outlet_name":   true,
	"status":        true,
	"dispatched_at": true,
}

// paginate applies whitelisted ordering and page bounds to a query.
// An always-present id tiebreaker keeps page boundaries stable.
func paginate(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
	if field != "id" {
		query = query.Order("id ASC")
	}
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	return query
}
