package handler

import (
	transferapp "github.com/fishfarm/backend/internal/application/transfer"
	"github.com/gin-gonic/gin"
)

// TransferHandler handles the transfer workflow
type TransferHandler struct {
	BaseHandler
	service *transferapp.TransferService
}

// NewTransferHandler creates a new TransferHandler
func NewTransferHandler(service *transferapp.TransferService) *TransferHandler {
	return &TransferHandler{service: service}
}

// Request opens a pending transfer
// POST /api/v1/transfers
func (h *TransferHandler) Request(c *gin.Context) {
	var req transferapp.RequestTransferRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.RequestedBy = operatorOr(c, req.RequestedBy)

	t, err := h.service.Request(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, t)
}

// List returns a page of transfers
// GET /api/v1/transfers
func (h *TransferHandler) List(c *gin.Context) {
	var filter transferapp.TransferListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	transfers, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, transfers, total, max(filter.Page, 1), filter.PageSize)
}

// Get returns one transfer
// GET /api/v1/transfers/:id
func (h *TransferHandler) Get(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	t, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, t)
}

// Approve approves a pending transfer
// POST /api/v1/transfers/:id/approve
func (h *TransferHandler) Approve(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req transferapp.ApproveTransferRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}
	req.ApprovedBy = operatorOr(c, req.ApprovedBy)

	t, err := h.service.Approve(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, t)
}

// Complete moves the stock of an approved transfer
// POST /api/v1/transfers/:id/complete
func (h *TransferHandler) Complete(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	t, err := h.service.Complete(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, t)
}

// Reject rejects a pending or approved transfer
// POST /api/v1/transfers/:id/reject
func (h *TransferHandler) Reject(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req transferapp.RejectTransferRequest
	if !h.BindJSON(c, &req) {
		return
	}
	t, err := h.service.Reject(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, t)
}
