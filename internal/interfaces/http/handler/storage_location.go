package handler

import (
	storageapp "github.com/fishfarm/backend/internal/application/storage"
	"github.com/gin-gonic/gin"
)

// StorageLocationHandler handles the storage location registry
type StorageLocationHandler struct {
	BaseHandler
	service *storageapp.LocationService
}

// NewStorageLocationHandler creates a new StorageLocationHandler
func NewStorageLocationHandler(service *storageapp.LocationService) *StorageLocationHandler {
	return &StorageLocationHandler{service: service}
}

// Create registers a location
// POST /api/v1/storage-locations
func (h *StorageLocationHandler) Create(c *gin.Context) {
	var req storageapp.CreateLocationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	location, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, location)
}

// List returns a page of locations with live usage
// GET /api/v1/storage-locations
func (h *StorageLocationHandler) List(c *gin.Context) {
	var filter storageapp.LocationListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	locations, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, locations, total, max(filter.Page, 1), filter.PageSize)
}

// ListAvailable returns active locations that accept new stock
// GET /api/v1/storage-locations/available
func (h *StorageLocationHandler) ListAvailable(c *gin.Context) {
	locations, err := h.service.ListAvailable(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, locations)
}

// Get returns one location
// GET /api/v1/storage-locations/:id
func (h *StorageLocationHandler) Get(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	location, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, location)
}

// SetStatus moves a location between active, maintenance and inactive
// PUT /api/v1/storage-locations/:id/status
func (h *StorageLocationHandler) SetStatus(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req storageapp.UpdateStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	location, err := h.service.SetStatus(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, location)
}

// UpdateCapacity changes a location's capacity
// PUT /api/v1/storage-locations/:id/capacity
func (h *StorageLocationHandler) UpdateCapacity(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req storageapp.UpdateCapacityRequest
	if !h.BindJSON(c, &req) {
		return
	}
	location, err := h.service.UpdateCapacity(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, location)
}

// Utilization returns usage against capacity broken down by size class
// GET /api/v1/storage-locations/:id/utilization
func (h *StorageLocationHandler) Utilization(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	util, err := h.service.Utilization(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, util)
}

// Capacity returns capacity, usage and headroom
// GET /api/v1/storage-locations/:id/capacity
func (h *StorageLocationHandler) Capacity(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	capacity, err := h.service.CapacityOf(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, capacity)
}
