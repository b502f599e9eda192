package models

import (
	"github.com/fishfarm/backend/internal/domain/storage"
	"github.com/shopspring/decimal"
)

// StorageLocationModel is the persistence model for the StorageLocation aggregate root.
type StorageLocationModel struct {
	AggregateModel
	Name           string          `gorm:"type:varchar(100);not null"`
	NameKey        string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_storage_locations_name_key"`
	LocationType   string          `gorm:"type:varchar(30);not null"`
	CapacityKg     decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	Status         string          `gorm:"type:varchar(20);not null;default:'active';index"`
	CurrentUsageKg decimal.Decimal `gorm:"type:decimal(14,3);not null;default:0"`
}

// TableName returns the table name for GORM
func (StorageLocationModel) TableName() string {
	return "storage_locations"
}

// ToDomain converts the persistence model to a domain StorageLocation
func (m *StorageLocationModel) ToDomain() *storage.StorageLocation {
	return &storage.StorageLocation{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		NameKey:           m.NameKey,
		Type:              storage.LocationType(m.LocationType),
		CapacityKg:        m.CapacityKg,
		Status:            storage.LocationStatus(m.Status),
		CurrentUsageKg:    m.CurrentUsageKg,
	}
}

// FromDomain populates the persistence model from a domain StorageLocation
func (m *StorageLocationModel) FromDomain(l *storage.StorageLocation) {
	m.FromDomainAggregateRoot(l.BaseAggregateRoot)
	m.Name = l.Name
	m.NameKey = l.NameKey
	m.LocationType = string(l.Type)
	m.CapacityKg = l.CapacityKg
	m.Status = string(l.Status)
	m.CurrentUsageKg = l.CurrentUsageKg
}

// StorageLocationModelFromDomain creates a new persistence model from a domain StorageLocation
func StorageLocationModelFromDomain(l *storage.StorageLocation) *StorageLocationModel {
	m := &StorageLocationModel{}
	m.FromDomain(l)
	return m
}
