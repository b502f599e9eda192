// Package dispatch covers outlet orders, the dispatches that fulfil them and
// the reconciliation of what an outlet actually received.
package dispatch

import (
	"sort"
	"strings"
	"time"

	"github.com/fishfarm/backend/internal/domain/shared"
)

// OrderStatus represents the status of an outlet order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusDispatched OrderStatus = "dispatched"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusDispatched, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return target == OrderStatusDispatched || target == OrderStatusCancelled
	case OrderStatusDispatched, OrderStatusCancelled:
		return false
	}
	return false
}

// OrderLine requests a number of pieces of one size class
type OrderLine struct {
	SizeClass int   `json:"size_class"`
	Pieces    int64 `json:"pieces"`
}

// OutletOrder is a request from a sales outlet for sorted stock
type OutletOrder struct {
	shared.BaseAggregateRoot
	OutletName   string
	Status       OrderStatus
	Lines        []OrderLine
	RequestedBy  string
	DispatchedAt *time.Time
	CancelledAt  *time.Time
}

// NewOutletOrder validates lines and creates a pending order.
// Lines with the same size class are merged.
func NewOutletOrder(outletName string, lines []OrderLine, requestedBy string) (*OutletOrder, error) {
	outletName = strings.TrimSpace(outletName)
	if outletName == "" {
		return nil, shared.NewValidationError("outlet_name", "Outlet name cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.NewValidationError("lines", "Order must have at least one line")
	}
	merged := make(map[int]int64)
	for _, l := range lines {
		if l.SizeClass < 0 {
			return nil, shared.NewOutOfRangeError("size_class", l.SizeClass, "size class cannot be negative")
		}
		if l.Pieces <= 0 {
			return nil, shared.NewValidationError("pieces", "Line pieces must be greater than zero")
		}
		merged[l.SizeClass] += l.Pieces
	}
	normalized := make([]OrderLine, 0, len(merged))
	for size, pieces := range merged {
		normalized = append(normalized, OrderLine{SizeClass: size, Pieces: pieces})
	}
	sort.Slice(normalized, func(i, j int) bool { return normalized[i].SizeClass < normalized[j].SizeClass })

	return &OutletOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OutletName:        outletName,
		Status:            OrderStatusPending,
		Lines:             normalized,
		RequestedBy:       strings.TrimSpace(requestedBy),
	}, nil
}

func (o *OutletOrder) transition(target OrderStatus, op string) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.NewInvalidStateError("outlet order", o.ID, string(o.Status), string(target)).WithOp(op)
	}
	o.Status = target
	o.Touch()
	o.IncrementVersion()
	return nil
}

// MarkDispatched records that stock left for the outlet
func (o *OutletOrder) MarkDispatched() error {
	if err := o.transition(OrderStatusDispatched, "Dispatch"); err != nil {
		return err
	}
	now := time.Now()
	o.DispatchedAt = &now
	return nil
}

// Cancel cancels a pending order
func (o *OutletOrder) Cancel() error {
	if err := o.transition(OrderStatusCancelled, "CancelOrder"); err != nil {
		return err
	}
	now := time.Now()
	o.CancelledAt = &now
	return nil
}
