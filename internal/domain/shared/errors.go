package shared

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Error codes shared across bounded contexts
const (
	CodeNotFound             = "NOT_FOUND"
	CodeAlreadyExists        = "ALREADY_EXISTS"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeValidation           = "VALIDATION_ERROR"
	CodeOutOfRange           = "OUT_OF_RANGE"
	CodeConcurrencyConflict  = "CONCURRENCY_CONFLICT"
	CodeInvalidState         = "INVALID_STATE"
	CodeInsufficientStock    = "INSUFFICIENT_STOCK"
	CodeCapacityExceeded     = "CAPACITY_EXCEEDED"
	CodeConsistencyViolation = "CONSISTENCY_VIOLATION"
	CodeTransientStore       = "TRANSIENT_STORE"
)

// DomainError represents a domain-level error.
//
// Op and EntityID identify the failing operation and the entity it acted on,
// Details carries the numbers behind the decision (requested vs available and
// so on) and Err keeps the underlying cause, if any.
type DomainError struct {
	Code     string         `json:"code"`
	Message  string         `json:"message"`
	Op       string         `json:"op,omitempty"`
	EntityID string         `json:"entity_id,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Err      error          `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on the error code, so errors.Is(err, ErrNotFound) holds for any
// not-found error regardless of message or context.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if t.Code == CodeValidation && e.Code == CodeOutOfRange {
		return true
	}
	return e.Code == t.Code
}

// Retryable reports whether the caller may retry the operation unchanged
func (e *DomainError) Retryable() bool {
	return e.Code == CodeTransientStore || e.Code == CodeConcurrencyConflict
}

func (e *DomainError) clone() *DomainError {
	c := *e
	if e.Details != nil {
		c.Details = make(map[string]any, len(e.Details))
		for k, v := range e.Details {
			c.Details[k] = v
		}
	}
	return &c
}

// WithOp returns a copy of the error tagged with the failing operation
func (e *DomainError) WithOp(op string) *DomainError {
	c := e.clone()
	c.Op = op
	return c
}

// WithEntity returns a copy of the error tagged with the entity id
func (e *DomainError) WithEntity(id uuid.UUID) *DomainError {
	c := e.clone()
	c.EntityID = id.String()
	return c
}

// WithDetail returns a copy of the error with an extra detail entry
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	c := e.clone()
	if c.Details == nil {
		c.Details = make(map[string]any)
	}
	c.Details[key] = value
	return c
}

// WithCause returns a copy of the error wrapping err
func (e *DomainError) WithCause(err error) *DomainError {
	c := e.clone()
	c.Err = err
	return c
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound             = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists        = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput         = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrValidation           = NewDomainError(CodeValidation, "Validation failed")
	ErrConcurrencyConflict  = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrInvalidState         = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrInsufficientStock    = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrCapacityExceeded     = NewDomainError(CodeCapacityExceeded, "Storage capacity exceeded")
	ErrConsistencyViolation = NewDomainError(CodeConsistencyViolation, "Stock changed while the operation was in progress")
	ErrTransientStore       = NewDomainError(CodeTransientStore, "Store temporarily unavailable")
)

// NewValidationError reports a malformed or out-of-domain input
func NewValidationError(field, message string) *DomainError {
	return ErrValidation.WithDetail("field", field).withMessage(message)
}

// NewOutOfRangeError reports a numeric input outside the accepted range
func NewOutOfRangeError(field string, value any, message string) *DomainError {
	return NewDomainError(CodeOutOfRange, message).
		WithDetail("field", field).
		WithDetail("value", value)
}

// NewNotFoundError reports a missing entity of the given kind
func NewNotFoundError(kind string, id uuid.UUID) *DomainError {
	return ErrNotFound.WithEntity(id).
		WithDetail("kind", kind).
		withMessage(fmt.Sprintf("%s not found", kind))
}

// NewInvalidStateError reports a forbidden state transition
func NewInvalidStateError(kind string, id uuid.UUID, from, to string) *DomainError {
	return ErrInvalidState.WithEntity(id).
		WithDetail("kind", kind).
		WithDetail("from", from).
		WithDetail("to", to).
		withMessage(fmt.Sprintf("cannot move %s from %s to %s", kind, from, to))
}

// NewInsufficientStockError reports that a location holds less than requested
func NewInsufficientStockError(locationID uuid.UUID, sizeClass int, requested, available int64) *DomainError {
	return ErrInsufficientStock.WithEntity(locationID).
		WithDetail("size_class", sizeClass).
		WithDetail("requested", requested).
		WithDetail("available", available).
		withMessage(fmt.Sprintf("location holds %d of size class %d, %d requested", available, sizeClass, requested))
}

// NewCapacityExceededError reports that a location cannot take the requested weight
func NewCapacityExceededError(locationID uuid.UUID, requestedKg, headroomKg string) *DomainError {
	return ErrCapacityExceeded.WithEntity(locationID).
		WithDetail("requested_kg", requestedKg).
		WithDetail("headroom_kg", headroomKg).
		withMessage(fmt.Sprintf("location has %s kg headroom, %s kg requested", headroomKg, requestedKg))
}

// NewConsistencyViolationError reports that stock moved between validation and commit
func NewConsistencyViolationError(entityID uuid.UUID, message string) *DomainError {
	return ErrConsistencyViolation.WithEntity(entityID).withMessage(message)
}

// NewTransientStoreError wraps a connectivity or timeout failure
func NewTransientStoreError(op string, cause error) *DomainError {
	return ErrTransientStore.WithOp(op).WithCause(cause)
}

func (e *DomainError) withMessage(msg string) *DomainError {
	e.Message = msg
	return e
}

// AsDomainError extracts a DomainError from the chain
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsRetryable reports whether err is a retryable domain error
func IsRetryable(err error) bool {
	de, ok := AsDomainError(err)
	return ok && de.Retryable()
}
