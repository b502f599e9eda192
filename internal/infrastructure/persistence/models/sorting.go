package models

import (
	"time"

	"github.com/fishfarm/backend/internal/domain/sorting"
	"github.com/google/uuid"
)

// SortingBatchModel is the persistence model for the SortingBatch aggregate root.
type SortingBatchModel struct {
	AggregateModel
	Status      string     `gorm:"type:varchar(20);not null;default:'pending';index"`
	Notes       string     `gorm:"type:text"`
	CompletedAt *time.Time
	// Associations
	Results []SortingResultModel `gorm:"foreignKey:BatchID;references:ID"`
}

// TableName returns the table name for GORM
func (SortingBatchModel) TableName() string {
	return "sorting_batches"
}

// ToDomain converts the persistence model to a domain SortingBatch
func (m *SortingBatchModel) ToDomain() *sorting.SortingBatch {
	b := &sorting.SortingBatch{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Status:            sorting.BatchStatus(m.Status),
		Notes:             m.Notes,
		CompletedAt:       m.CompletedAt,
		Results:           make([]sorting.SortingResult, len(m.Results)),
	}
	for i := range m.Results {
		b.Results[i] = *m.Results[i].ToDomain()
	}
	return b
}

// FromDomain populates the batch row; results are persisted separately
func (m *SortingBatchModel) FromDomain(b *sorting.SortingBatch) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.Status = string(b.Status)
	m.Notes = b.Notes
	m.CompletedAt = b.CompletedAt
}

// SortingBatchModelFromDomain creates a new persistence model from a domain SortingBatch
func SortingBatchModelFromDomain(b *sorting.SortingBatch) *SortingBatchModel {
	m := &SortingBatchModel{}
	m.FromDomain(b)
	return m
}

// SortingResultModel is the persistence model for the SortingResult entity.
type SortingResultModel struct {
	BaseModel
	BatchID                 uuid.UUID  `gorm:"type:uuid;not null;index"`
	SizeClass               int        `gorm:"not null;index:idx_sorting_results_location_size,priority:2"`
	TotalPieces             int64      `gorm:"not null;default:0"`
	TotalWeightGrams        int64      `gorm:"not null;default:0"`
	StorageLocationID       *uuid.UUID `gorm:"type:uuid;index:idx_sorting_results_location_size,priority:1"`
	TransferID              *uuid.UUID `gorm:"type:uuid;index"`
	TransferSourceStorageID *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (SortingResultModel) TableName() string {
	return "sorting_results"
}

// ToDomain converts the persistence model to a domain SortingResult
func (m *SortingResultModel) ToDomain() *sorting.SortingResult {
	return &sorting.SortingResult{
		ID:                      m.ID,
		BatchID:                 m.BatchID,
		SizeClass:               m.SizeClass,
		TotalPieces:             m.TotalPieces,
		TotalWeightGrams:        m.TotalWeightGrams,
		StorageLocationID:       m.StorageLocationID,
		TransferID:              m.TransferID,
		TransferSourceStorageID: m.TransferSourceStorageID,
		CreatedAt:               m.CreatedAt,
		UpdatedAt:               m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain SortingResult
func (m *SortingResultModel) FromDomain(r *sorting.SortingResult) {
	m.ID = r.ID
	m.CreatedAt = r.CreatedAt
	m.UpdatedAt = r.UpdatedAt
	m.BatchID = r.BatchID
	m.SizeClass = r.SizeClass
	m.TotalPieces = r.TotalPieces
	m.TotalWeightGrams = r.TotalWeightGrams
	m.StorageLocationID = r.StorageLocationID
	m.TransferID = r.TransferID
	m.TransferSourceStorageID = r.TransferSourceStorageID
}

// SortingResultModelFromDomain creates a new persistence model from a domain SortingResult
func SortingResultModelFromDomain(r *sorting.SortingResult) *SortingResultModel {
	m := &SortingResultModel{}
	m.FromDomain(r)
	return m
}
