package persistence

import (
	"context"
	"time"

	"github.com/fishfarm/backend/internal/domain/inventory"
	"github.com/fishfarm/backend/internal/domain/sorting"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockQuery implements inventory.StockQuery over sorting_results joined
// with sorting_batches. Only rows of completed batches that are placed and carry
// weight count as stock.
type GormStockQuery struct {
	db *gorm.DB
}

// NewGormStockQuery creates a new GormStockQuery
func NewGormStockQuery(db *gorm.DB) *GormStockQuery {
	return &GormStockQuery{db: db}
}

type summaryRow struct {
	StorageLocationID uuid.UUID
	SizeClass         int
	TotalPieces       int64
	TotalWeightGrams  int64
	BatchCount        int
}

type usageRow struct {
	StorageLocationID uuid.UUID
	UsageGrams        int64
}

type stockRow struct {
	ResultID          uuid.UUID
	BatchID           uuid.UUID
	BatchCreatedAt    time.Time
	StorageLocationID uuid.UUID
	SizeClass         int
	Pieces            int64
	WeightGrams       int64
}

func (q *GormStockQuery) counted(ctx context.Context) *gorm.DB {
	return q.db.WithContext(ctx).
		Table("sorting_results AS r").
		Joins("JOIN sorting_batches AS b ON b.id = r.batch_id").
		Where("b.status = ?", string(sorting.BatchStatusCompleted)).
		Where("r.storage_location_id IS NOT NULL").
		Where("r.total_weight_grams > 0")
}

// Summarize groups counted stock by (location, size class)
func (q *GormStockQuery) Summarize(ctx context.Context, filter inventory.SummaryFilter) ([]inventory.Summary, error) {
	query := q.counted(ctx)
	if filter.LocationID != nil {
		query = query.Where("r.storage_location_id = ?", *filter.LocationID)
	}
	if filter.SizeClass != nil {
		query = query.Where("r.size_class = ?", *filter.SizeClass)
	}

	var rows []summaryRow
	if err := query.
		Select("r.storage_location_id AS storage_location_id, " +
			"r.size_class AS size_class, " +
			"SUM(r.total_pieces) AS total_pieces, " +
			"SUM(r.total_weight_grams) AS total_weight_grams, " +
			"COUNT(DISTINCT r.batch_id) AS batch_count").
		Group("r.storage_location_id, r.size_class").
		Find(&rows).Error; err != nil {
		return nil, translateError("summarize inventory", err)
	}

	summaries := make([]inventory.Summary, len(rows))
	for i, row := range rows {
		summaries[i] = inventory.Summary{
			StorageLocationID: row.StorageLocationID,
			SizeClass:         row.SizeClass,
			TotalPieces:       row.TotalPieces,
			TotalWeightGrams:  row.TotalWeightGrams,
			BatchCount:        row.BatchCount,
		}
	}
	inventory.SortSummaries(summaries)
	return summaries, nil
}

// UsageGrams returns counted grams per location. Every requested id is
// present in the result; an empty request returns all locations holding stock.
func (q *GormStockQuery) UsageGrams(ctx context.Context, locationIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	query := q.counted(ctx)
	if len(locationIDs) > 0 {
		query = query.Where("r.storage_location_id IN ?", locationIDs)
	}

	var rows []usageRow
	if err := query.
		Select("r.storage_location_id AS storage_location_id, SUM(r.total_weight_grams) AS usage_grams").
		Group("r.storage_location_id").
		Find(&rows).Error; err != nil {
		return nil, translateError("compute location usage", err)
	}

	usage := make(map[uuid.UUID]int64, len(locationIDs))
	for _, id := range locationIDs {
		usage[id] = 0
	}
	for _, row := range rows {
		usage[row.StorageLocationID] = row.UsageGrams
	}
	return usage, nil
}

// StockRows returns counted rows of one location and size class, oldest batch
// first. With forUpdate the result rows stay locked until the transaction ends.
func (q *GormStockQuery) StockRows(ctx context.Context, locationID uuid.UUID, sizeClass int, forUpdate bool) ([]inventory.StockRow, error) {
	query := q.counted(ctx).
		Where("r.storage_location_id = ? AND r.size_class = ?", locationID, sizeClass).
		Select("r.id AS result_id, " +
			"r.batch_id AS batch_id, " +
			"b.created_at AS batch_created_at, " +
			"r.storage_location_id AS storage_location_id, " +
			"r.size_class AS size_class, " +
			"r.total_pieces AS pieces, " +
			"r.total_weight_grams AS weight_grams").
		Order("b.created_at ASC, r.id ASC")
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "r"}})
	}

	var rows []stockRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, translateError("load stock rows", err)
	}

	out := make([]inventory.StockRow, len(rows))
	for i, row := range rows {
		loc := row.StorageLocationID
		out[i] = inventory.StockRow{
			ResultID:          row.ResultID,
			BatchID:           row.BatchID,
			BatchCompleted:    true,
			BatchCreatedAt:    row.BatchCreatedAt,
			StorageLocationID: &loc,
			SizeClass:         row.SizeClass,
			Pieces:            row.Pieces,
			WeightGrams:       row.WeightGrams,
		}
	}
	inventory.SortFIFO(out)
	return out, nil
}

var _ inventory.StockQuery = (*GormStockQuery)(nil)
