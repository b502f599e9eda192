package handler

import (
	dispatchapp "github.com/fishfarm/backend/internal/application/dispatch"
	"github.com/gin-gonic/gin"
)

// DispatchHandler handles outlet orders, dispatches and reconciliation
type DispatchHandler struct {
	BaseHandler
	service *dispatchapp.DispatchService
}

// NewDispatchHandler creates a new DispatchHandler
func NewDispatchHandler(service *dispatchapp.DispatchService) *DispatchHandler {
	return &DispatchHandler{service: service}
}

// CreateOrder records what an outlet asked for
// POST /api/v1/outlet-orders
func (h *DispatchHandler) CreateOrder(c *gin.Context) {
	var req dispatchapp.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.RequestedBy = operatorOr(c, req.RequestedBy)

	order, err := h.service.CreateOrder(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, order)
}

// ListOrders returns a page of orders
// GET /api/v1/outlet-orders
func (h *DispatchHandler) ListOrders(c *gin.Context) {
	var filter dispatchapp.OrderListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	orders, total, err := h.service.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, orders, total, max(filter.Page, 1), filter.PageSize)
}

// GetOrder returns one order
// GET /api/v1/outlet-orders/:id
func (h *DispatchHandler) GetOrder(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	order, err := h.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, order)
}

// CancelOrder cancels a pending order
// POST /api/v1/outlet-orders/:id/cancel
func (h *DispatchHandler) CancelOrder(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	order, err := h.service.CancelOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, order)
}

// Dispatch ships an order from one storage location
// POST /api/v1/outlet-orders/:id/dispatch
func (h *DispatchHandler) Dispatch(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dispatchapp.DispatchOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.DispatchedBy = operatorOr(c, req.DispatchedBy)

	record, err := h.service.Dispatch(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, record)
}

// ListOrderDispatches returns the dispatches made for an order
// GET /api/v1/outlet-orders/:id/dispatches
func (h *DispatchHandler) ListOrderDispatches(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	records, err := h.service.ListOrderDispatches(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, records)
}

// GetDispatch returns a dispatch record with its manifest
// GET /api/v1/dispatches/:id
func (h *DispatchHandler) GetDispatch(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	record, err := h.service.GetDispatch(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, record)
}

// Reconcile compares what the outlet received with the manifest
// POST /api/v1/dispatches/:id/reconcile
func (h *DispatchHandler) Reconcile(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dispatchapp.ReconcileRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.ReceivedBy = operatorOr(c, req.ReceivedBy)

	receiving, err := h.service.Reconcile(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, receiving)
}

// GetReceiving returns the reconciliation recorded for a dispatch
// GET /api/v1/dispatches/:id/receiving
func (h *DispatchHandler) GetReceiving(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	receiving, err := h.service.GetReceiving(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, receiving)
}
