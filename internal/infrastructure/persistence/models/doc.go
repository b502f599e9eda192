// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: BaseModel and AggregateModel
//   - storage.go: storage_locations
//   - sorting.go: sorting_batches, sorting_results
//   - transfer.go: transfers
//   - dispatch.go: outlet_orders, dispatch_records, outlet_receiving
//
// AllModels lists every model for AutoMigrate in tests; production schemas are
// created by the SQL migrations.
package models

// AllModels returns one instance of every persistence model
func AllModels() []any {
	return []any{
		&StorageLocationModel{},
		&SortingBatchModel{},
		&SortingResultModel{},
		&TransferModel{},
		&OutletOrderModel{},
		&DispatchRecordModel{},
		&OutletReceivingModel{},
	}
}
