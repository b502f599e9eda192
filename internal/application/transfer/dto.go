package transfer

import (
	"time"

	"github.com/fishfarm/backend/internal/domain/transfer"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequestTransferRequest represents a request to move stock between locations
type RequestTransferRequest struct {
	FromStorageID uuid.UUID       `json:"from_storage_id" binding:"required"`
	ToStorageID   uuid.UUID       `json:"to_storage_id" binding:"required"`
	SizeClass     int             `json:"size_class" binding:"min=0"`
	Quantity      int64           `json:"quantity" binding:"required,gt=0"`
	WeightKg      decimal.Decimal `json:"weight_kg" binding:"required"`
	RequestedBy   string          `json:"requested_by" binding:"max=100"`
}

// ApproveTransferRequest represents an approval
type ApproveTransferRequest struct {
	ApprovedBy string `json:"approved_by" binding:"max=100"`
}

// RejectTransferRequest represents a rejection
type RejectTransferRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// TransferListFilter represents filter options for transfer list.
// Location ids are taken as strings so malformed ids surface as validation errors.
type TransferListFilter struct {
	Status        string `form:"status" binding:"omitempty,oneof=pending approved completed rejected"`
	FromStorageID string `form:"from_storage_id"`
	ToStorageID   string `form:"to_storage_id"`
	SizeClass     *int   `form:"size_class" binding:"omitempty,min=0"`
	Page          int    `form:"page" binding:"omitempty,min=1"`
	PageSize      int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy       string `form:"order_by"`
	OrderDir      string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// TransferResponse represents a transfer in API responses
type TransferResponse struct {
	ID              uuid.UUID       `json:"id"`
	FromStorageID   uuid.UUID       `json:"from_storage_id"`
	ToStorageID     uuid.UUID       `json:"to_storage_id"`
	SizeClass       int             `json:"size_class"`
	Quantity        int64           `json:"quantity"`
	WeightGrams     int64           `json:"weight_grams"`
	WeightKg        decimal.Decimal `json:"weight_kg"`
	Status          string          `json:"status"`
	RequestedBy     string          `json:"requested_by,omitempty"`
	ApprovedBy      string          `json:"approved_by,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	RejectedAt      *time.Time      `json:"rejected_at,omitempty"`
	Version         int             `json:"version"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ToTransferResponse converts a domain transfer to a response
func ToTransferResponse(t *transfer.Transfer) TransferResponse {
	return TransferResponse{
		ID:              t.ID,
		FromStorageID:   t.FromStorageID,
		ToStorageID:     t.ToStorageID,
		SizeClass:       t.SizeClass,
		Quantity:        t.Quantity,
		WeightGrams:     t.WeightGrams,
		WeightKg:        t.WeightKg(),
		Status:          string(t.Status),
		RequestedBy:     t.RequestedBy,
		ApprovedBy:      t.ApprovedBy,
		RejectionReason: t.RejectionReason,
		ApprovedAt:      t.ApprovedAt,
		CompletedAt:     t.CompletedAt,
		RejectedAt:      t.RejectedAt,
		Version:         t.Version,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

// ToTransferResponses converts a slice of domain transfers
func ToTransferResponses(transfers []transfer.Transfer) []TransferResponse {
	out := make([]TransferResponse, len(transfers))
	for i := range transfers {
		out[i] = ToTransferResponse(&transfers[i])
	}
	return out
}
