package models

import (
	"time"

	"github.com/fishfarm/backend/internal/domain/transfer"
	"github.com/google/uuid"
)

// TransferModel is the persistence model for the Transfer aggregate root.
type TransferModel struct {
	AggregateModel
	FromStorageID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ToStorageID     uuid.UUID `gorm:"type:uuid;not null;index"`
	SizeClass       int       `gorm:"not null"`
	Quantity        int64     `gorm:"not null"`
	WeightGrams     int64     `gorm:"not null"`
	Status          string    `gorm:"type:varchar(20);not null;default:'pending';index"`
	RequestedBy     string    `gorm:"type:varchar(100)"`
	ApprovedBy      string    `gorm:"type:varchar(100)"`
	RejectionReason string    `gorm:"type:text"`
	ApprovedAt      *time.Time
	CompletedAt     *time.Time
	RejectedAt      *time.Time
}

// TableName returns the table name for GORM
func (TransferModel) TableName() string {
	return "transfers"
}

// ToDomain converts the persistence model to a domain Transfer
func (m *TransferModel) ToDomain() *transfer.Transfer {
	return &transfer.Transfer{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		FromStorageID:     m.FromStorageID,
		ToStorageID:       m.ToStorageID,
		SizeClass:         m.SizeClass,
		Quantity:          m.Quantity,
		WeightGrams:       m.WeightGrams,
		Status:            transfer.Status(m.Status),
		RequestedBy:       m.RequestedBy,
		ApprovedBy:        m.ApprovedBy,
		RejectionReason:   m.RejectionReason,
		ApprovedAt:        m.ApprovedAt,
		CompletedAt:       m.CompletedAt,
		RejectedAt:        m.RejectedAt,
	}
}

// FromDomain populates the persistence model from a domain Transfer
func (m *TransferModel) FromDomain(t *transfer.Transfer) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.FromStorageID = t.FromStorageID
	m.ToStorageID = t.ToStorageID
	m.SizeClass = t.SizeClass
	m.Quantity = t.Quantity
	m.WeightGrams = t.WeightGrams
	m.Status = string(t.Status)
	m.RequestedBy = t.RequestedBy
	m.ApprovedBy = t.ApprovedBy
	m.RejectionReason = t.RejectionReason
	m.ApprovedAt = t.ApprovedAt
	m.CompletedAt = t.CompletedAt
	m.RejectedAt = t.RejectedAt
}

// TransferModelFromDomain creates a new persistence model from a domain Transfer
func TransferModelFromDomain(t *transfer.Transfer) *TransferModel {
	m := &TransferModel{}
	m.FromDomain(t)
	return m
}
