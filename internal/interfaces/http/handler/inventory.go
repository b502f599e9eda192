package handler

import (
	"net/http"
	"strconv"

	inventoryapp "github.com/fishfarm/backend/internal/application/inventory"
	"github.com/fishfarm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InventoryHandler answers stock questions
type InventoryHandler struct {
	BaseHandler
	service *inventoryapp.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(service *inventoryapp.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

// Summary groups stock by location and size class
// GET /api/v1/inventory/summary?location_id=&size_class=
func (h *InventoryHandler) Summary(c *gin.Context) {
	var filter inventoryapp.SummaryFilter

	if raw := c.Query("location_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Invalid location_id: must be a UUID")
			return
		}
		filter.LocationID = &id
	}
	if raw := c.Query("size_class"); raw != "" {
		class, err := strconv.Atoi(raw)
		if err != nil {
			h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Invalid size_class: must be an integer")
			return
		}
		filter.SizeClass = &class
	}

	summary, err := h.service.Summarize(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, summary)
}
