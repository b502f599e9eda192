package dispatch

import (
	"time"

	"github.com/fishfarm/backend/internal/domain/dispatch"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLineRequest is one requested size class
type OrderLineRequest struct {
	SizeClass int   `json:"size_class" binding:"min=0"`
	Pieces    int64 `json:"pieces" binding:"required,gt=0"`
}

// CreateOrderRequest represents a request to create an outlet order
type CreateOrderRequest struct {
	OutletName  string             `json:"outlet_name" binding:"required,min=1,max=200"`
	Lines       []OrderLineRequest `json:"lines" binding:"required,min=1,dive"`
	RequestedBy string             `json:"requested_by" binding:"max=100"`
}

// DispatchOrderRequest represents a request to ship an order
type DispatchOrderRequest struct {
	StorageLocationID uuid.UUID `json:"storage_location_id" binding:"required"`
	DispatchedBy      string    `json:"dispatched_by" binding:"max=100"`
}

// ReceivedLineRequest is what an outlet counted for one size class
type ReceivedLineRequest struct {
	SizeClass int             `json:"size_class"`
	Pieces    int64           `json:"pieces"`
	WeightKg  decimal.Decimal `json:"weight_kg"`
}

// ReconcileRequest represents an outlet's receipt of a dispatch
type ReconcileRequest struct {
	Lines      []ReceivedLineRequest `json:"lines"`
	ReceivedBy string                `json:"received_by" binding:"max=100"`
}

// OrderListFilter represents filter options for order list
type OrderListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=pending dispatched cancelled"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// OrderResponse represents an outlet order in API responses
type OrderResponse struct {
	ID           uuid.UUID            `json:"id"`
	OutletName   string               `json:"outlet_name"`
	Status       string               `json:"status"`
	Lines        []dispatch.OrderLine `json:"lines"`
	RequestedBy  string               `json:"requested_by,omitempty"`
	DispatchedAt *time.Time           `json:"dispatched_at,omitempty"`
	CancelledAt  *time.Time           `json:"cancelled_at,omitempty"`
	Version      int                  `json:"version"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// ManifestLineResponse is a manifest line with its weight in kg
type ManifestLineResponse struct {
	SizeClass   int             `json:"size_class"`
	Pieces      int64           `json:"pieces"`
	WeightGrams int64           `json:"weight_grams"`
	WeightKg    decimal.Decimal `json:"weight_kg"`
}

// DispatchResponse represents a dispatch record in API responses
type DispatchResponse struct {
	ID                uuid.UUID              `json:"id"`
	OrderID           uuid.UUID              `json:"order_id"`
	StorageLocationID uuid.UUID              `json:"storage_location_id"`
	Status            string                 `json:"status"`
	Manifest          []ManifestLineResponse `json:"manifest"`
	DispatchedBy      string                 `json:"dispatched_by,omitempty"`
	DispatchedAt      time.Time              `json:"dispatched_at"`
	ReceivedAt        *time.Time             `json:"received_at,omitempty"`
	Version           int                    `json:"version"`
}

// ReceivingResponse represents a reconciliation result
type ReceivingResponse struct {
	ID            uuid.UUID              `json:"id"`
	DispatchID    uuid.UUID              `json:"dispatch_id"`
	ReceivedBy    string                 `json:"received_by,omitempty"`
	Actual        []ManifestLineResponse `json:"actual"`
	Discrepancies dispatch.Discrepancies `json:"discrepancies"`
	Status        string                 `json:"status"`
	CreatedAt     time.Time              `json:"created_at"`
}

// ToOrderResponse converts a domain order to a response
func ToOrderResponse(o *dispatch.OutletOrder) OrderResponse {
	return OrderResponse{
		ID:           o.ID,
		OutletName:   o.OutletName,
		Status:       string(o.Status),
		Lines:        o.Lines,
		RequestedBy:  o.RequestedBy,
		DispatchedAt: o.DispatchedAt,
		CancelledAt:  o.CancelledAt,
		Version:      o.Version,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

func toManifestResponse(lines []dispatch.ManifestLine) []ManifestLineResponse {
	out := make([]ManifestLineResponse, len(lines))
	for i, l := range lines {
		out[i] = ManifestLineResponse{
			SizeClass:   l.SizeClass,
			Pieces:      l.Pieces,
			WeightGrams: l.WeightGrams,
			WeightKg:    l.WeightKg(),
		}
	}
	return out
}

// ToDispatchResponse converts a domain dispatch record to a response
func ToDispatchResponse(r *dispatch.DispatchRecord) DispatchResponse {
	return DispatchResponse{
		ID:                r.ID,
		OrderID:           r.OrderID,
		StorageLocationID: r.StorageLocationID,
		Status:            string(r.Status),
		Manifest:          toManifestResponse(r.Manifest),
		DispatchedBy:      r.DispatchedBy,
		DispatchedAt:      r.DispatchedAt,
		ReceivedAt:        r.ReceivedAt,
		Version:           r.Version,
	}
}

// ToReceivingResponse converts a domain receiving to a response
func ToReceivingResponse(r *dispatch.OutletReceiving) ReceivingResponse {
	discrepancies := r.Discrepancies
	if discrepancies == nil {
		discrepancies = dispatch.Discrepancies{}
	}
	return ReceivingResponse{
		ID:            r.ID,
		DispatchID:    r.DispatchID,
		ReceivedBy:    r.ReceivedBy,
		Actual:        toManifestResponse(r.Actual),
		Discrepancies: discrepancies,
		Status:        string(r.Status),
		CreatedAt:     r.CreatedAt,
	}
}
