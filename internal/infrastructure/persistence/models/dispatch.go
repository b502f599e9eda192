package models

import (
	"time"

	"github.com/fishfarm/backend/internal/domain/dispatch"
	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// OutletOrderModel is the persistence model for the OutletOrder aggregate root.
type OutletOrderModel struct {
	AggregateModel
	OutletName   string               `gorm:"type:varchar(200);not null"`
	Status       string               `gorm:"type:varchar(20);not null;default:'pending';index"`
	Lines        []dispatch.OrderLine `gorm:"type:jsonb;serializer:json;not null"`
	RequestedBy  string               `gorm:"type:varchar(100)"`
	DispatchedAt *time.Time
	CancelledAt  *time.Time
}

// TableName returns the table name for GORM
func (OutletOrderModel) TableName() string {
	return "outlet_orders"
}

// ToDomain converts the persistence model to a domain OutletOrder
func (m *OutletOrderModel) ToDomain() *dispatch.OutletOrder {
	return &dispatch.OutletOrder{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		OutletName:        m.OutletName,
		Status:            dispatch.OrderStatus(m.Status),
		Lines:             m.Lines,
		RequestedBy:       m.RequestedBy,
		DispatchedAt:      m.DispatchedAt,
		CancelledAt:       m.CancelledAt,
	}
}

// FromDomain populates the persistence model from a domain OutletOrder
func (m *OutletOrderModel) FromDomain(o *dispatch.OutletOrder) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OutletName = o.OutletName
	m.Status = string(o.Status)
	m.Lines = o.Lines
	m.RequestedBy = o.RequestedBy
	m.DispatchedAt = o.DispatchedAt
	m.CancelledAt = o.CancelledAt
}

// OutletOrderModelFromDomain creates a new persistence model from a domain OutletOrder
func OutletOrderModelFromDomain(o *dispatch.OutletOrder) *OutletOrderModel {
	m := &OutletOrderModel{}
	m.FromDomain(o)
	return m
}

// DispatchRecordModel is the persistence model for the DispatchRecord aggregate root.
type DispatchRecordModel struct {
	AggregateModel
	OrderID           uuid.UUID               `gorm:"type:uuid;not null;index"`
	StorageLocationID uuid.UUID               `gorm:"type:uuid;not null;index"`
	Status            string                  `gorm:"type:varchar(20);not null;default:'dispatched'"`
	Manifest          []dispatch.ManifestLine `gorm:"type:jsonb;serializer:json;not null"`
	DispatchedBy      string                  `gorm:"type:varchar(100)"`
	DispatchedAt      time.Time               `gorm:"not null"`
	ReceivedAt        *time.Time
}

// TableName returns the table name for GORM
func (DispatchRecordModel) TableName() string {
	return "dispatch_records"
}

// ToDomain converts the persistence model to a domain DispatchRecord
func (m *DispatchRecordModel) ToDomain() *dispatch.DispatchRecord {
	return &dispatch.DispatchRecord{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		OrderID:           m.OrderID,
		StorageLocationID: m.StorageLocationID,
		Status:            dispatch.RecordStatus(m.Status),
		Manifest:          m.Manifest,
		DispatchedBy:      m.DispatchedBy,
		DispatchedAt:      m.DispatchedAt,
		ReceivedAt:        m.ReceivedAt,
	}
}

// FromDomain populates the persistence model from a domain DispatchRecord
func (m *DispatchRecordModel) FromDomain(r *dispatch.DispatchRecord) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.OrderID = r.OrderID
	m.StorageLocationID = r.StorageLocationID
	m.Status = string(r.Status)
	m.Manifest = r.Manifest
	m.DispatchedBy = r.DispatchedBy
	m.DispatchedAt = r.DispatchedAt
	m.ReceivedAt = r.ReceivedAt
}

// DispatchRecordModelFromDomain creates a new persistence model from a domain DispatchRecord
func DispatchRecordModelFromDomain(r *dispatch.DispatchRecord) *DispatchRecordModel {
	m := &DispatchRecordModel{}
	m.FromDomain(r)
	return m
}

// OutletReceivingModel is the persistence model for the OutletReceiving entity.
type OutletReceivingModel struct {
	BaseModel
	DispatchID    uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex"`
	ReceivedBy    string                  `gorm:"type:varchar(100)"`
	Actual        []dispatch.ManifestLine `gorm:"type:jsonb;serializer:json;not null"`
	Discrepancies dispatch.Discrepancies  `gorm:"type:jsonb;serializer:json;not null"`
	Status        string                  `gorm:"type:varchar(20);not null"`
}

// TableName returns the table name for GORM
func (OutletReceivingModel) TableName() string {
	return "outlet_receiving"
}

// ToDomain converts the persistence model to a domain OutletReceiving
func (m *OutletReceivingModel) ToDomain() *dispatch.OutletReceiving {
	return &dispatch.OutletReceiving{
		BaseEntity:    shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		DispatchID:    m.DispatchID,
		ReceivedBy:    m.ReceivedBy,
		Actual:        m.Actual,
		Discrepancies: m.Discrepancies,
		Status:        dispatch.ReceivingStatus(m.Status),
	}
}

// FromDomain populates the persistence model from a domain OutletReceiving
func (m *OutletReceivingModel) FromDomain(r *dispatch.OutletReceiving) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.DispatchID = r.DispatchID
	m.ReceivedBy = r.ReceivedBy
	m.Actual = r.Actual
	m.Discrepancies = r.Discrepancies
	m.Status = string(r.Status)
}

// OutletReceivingModelFromDomain creates a new persistence model from a domain OutletReceiving
func OutletReceivingModelFromDomain(r *dispatch.OutletReceiving) *OutletReceivingModel {
	m := &OutletReceivingModel{}
	m.FromDomain(r)
	return m
}
