package handler

import (
	sortingapp "github.com/fishfarm/backend/internal/application/sorting"
	"github.com/gin-gonic/gin"
)

// SortingHandler handles sorting batches and their results
type SortingHandler struct {
	BaseHandler
	service *sortingapp.SortingService
}

// NewSortingHandler creates a new SortingHandler
func NewSortingHandler(service *sortingapp.SortingService) *SortingHandler {
	return &SortingHandler{service: service}
}

// CreateBatch opens a pending batch
// POST /api/v1/sorting-batches
func (h *SortingHandler) CreateBatch(c *gin.Context) {
	var req sortingapp.CreateBatchRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}
	batch, err := h.service.CreateBatch(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, batch)
}

// ListBatches lists batches without their results
// GET /api/v1/sorting-batches
func (h *SortingHandler) ListBatches(c *gin.Context) {
	var filter sortingapp.BatchListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	batches, err := h.service.ListBatches(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, batches)
}

// GetBatch returns a batch with its results
// GET /api/v1/sorting-batches/:id
func (h *SortingHandler) GetBatch(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	batch, err := h.service.GetBatch(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, batch)
}

// RecordWeighings classifies individual fish into results
// POST /api/v1/sorting-batches/:id/weighings
func (h *SortingHandler) RecordWeighings(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req sortingapp.RecordWeighingsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	batch, err := h.service.RecordWeighings(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, batch)
}

// AddResult records a pre-counted size class result
// POST /api/v1/sorting-batches/:id/results
func (h *SortingHandler) AddResult(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req sortingapp.AddResultRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.service.AddResult(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, result)
}

// PlaceResult assigns an unplaced result to a location
// PUT /api/v1/sorting-results/:id/location
func (h *SortingHandler) PlaceResult(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req sortingapp.PlaceResultRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.service.PlaceResult(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// CompleteBatch closes a batch, which makes its placed results part of stock
// POST /api/v1/sorting-batches/:id/complete
func (h *SortingHandler) CompleteBatch(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	batch, err := h.service.CompleteBatch(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, batch)
}
