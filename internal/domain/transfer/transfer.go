// Package transfer models the approval workflow for moving stock of one
// size class between storage locations.
package transfer

import (
	"strings"
	"time"

	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/fishfarm/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the status of a transfer
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusApproved || target == StatusRejected
	case StatusApproved:
		return target == StatusCompleted
	case StatusCompleted, StatusRejected:
		return false // Terminal states
	}
	return false
}

// Transfer moves Quantity pieces and WeightGrams of one size class from one
// location to another. Inventory only changes when it completes.
type Transfer struct {
	shared.BaseAggregateRoot
	FromStorageID   uuid.UUID
	ToStorageID     uuid.UUID
	SizeClass       int
	Quantity        int64
	WeightGrams     int64
	Status          Status
	RequestedBy     string
	ApprovedBy      string
	RejectionReason string
	ApprovedAt      *time.Time
	CompletedAt     *time.Time
	RejectedAt      *time.Time
}

// NewTransfer validates the request shape and creates a pending transfer
func NewTransfer(from, to uuid.UUID, sizeClass int, quantity int64, weightKg decimal.Decimal, requestedBy string) (*Transfer, error) {
	if from == uuid.Nil {
		return nil, shared.NewValidationError("from_storage_id", "Source location is required")
	}
	if to == uuid.Nil {
		return nil, shared.NewValidationError("to_storage_id", "Destination location is required")
	}
	if from == to {
		return nil, shared.NewValidationError("to_storage_id", "Source and destination must differ").WithEntity(from)
	}
	if sizeClass < 0 {
		return nil, shared.NewOutOfRangeError("size_class", sizeClass, "size class cannot be negative")
	}
	if quantity <= 0 {
		return nil, shared.NewValidationError("quantity", "Quantity must be greater than zero")
	}
	if !weightKg.IsPositive() {
		return nil, shared.NewValidationError("weight_kg", "Weight must be greater than zero")
	}
	if !valueobject.KgInRange(weightKg) {
		return nil, shared.NewOutOfRangeError("weight_kg", weightKg.String(),
			"weight cannot exceed "+valueobject.MaxKg.String()+" kg")
	}
	grams := valueobject.KgToGrams(weightKg)
	if grams <= 0 {
		return nil, shared.NewValidationError("weight_kg", "Weight must be at least one gram")
	}

	t := &Transfer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		FromStorageID:     from,
		ToStorageID:       to,
		SizeClass:         sizeClass,
		Quantity:          quantity,
		WeightGrams:       grams,
		Status:            StatusPending,
		RequestedBy:       strings.TrimSpace(requestedBy),
	}
	t.AddDomainEvent(NewRequestedEvent(t))
	return t, nil
}

// WeightKg is the presentation form of WeightGrams
func (t *Transfer) WeightKg() decimal.Decimal {
	return valueobject.GramsToKg(t.WeightGrams)
}

func (t *Transfer) transition(target Status, op string) error {
	if !t.Status.CanTransitionTo(target) {
		return shared.NewInvalidStateError("transfer", t.ID, string(t.Status), string(target)).WithOp(op)
	}
	t.Status = target
	t.Touch()
	t.IncrementVersion()
	return nil
}

// Approve moves a pending transfer to approved
func (t *Transfer) Approve(approvedBy string) error {
	if err := t.transition(StatusApproved, "Approve"); err != nil {
		return err
	}
	now := time.Now()
	t.ApprovedBy = strings.TrimSpace(approvedBy)
	t.ApprovedAt = &now
	t.AddDomainEvent(NewApprovedEvent(t))
	return nil
}

// Complete moves an approved transfer to completed
func (t *Transfer) Complete() error {
	if err := t.transition(StatusCompleted, "Complete"); err != nil {
		return err
	}
	now := time.Now()
	t.CompletedAt = &now
	t.AddDomainEvent(NewCompletedEvent(t))
	return nil
}

// Reject moves a pending transfer to rejected
func (t *Transfer) Reject(reason string) error {
	if err := t.transition(StatusRejected, "Reject"); err != nil {
		return err
	}
	now := time.Now()
	t.RejectionReason = strings.TrimSpace(reason)
	t.RejectedAt = &now
	t.AddDomainEvent(NewRejectedEvent(t))
	return nil
}
