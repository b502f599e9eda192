package handler

import (
	"github.com/fishfarm/backend/internal/domain/sizing"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// SizeClassHandler exposes the size band table and ad-hoc classification
type SizeClassHandler struct {
	BaseHandler
	classifier *sizing.Classifier
}

// NewSizeClassHandler creates a new SizeClassHandler
func NewSizeClassHandler(classifier *sizing.Classifier) *SizeClassHandler {
	return &SizeClassHandler{classifier: classifier}
}

// ClassifyRequest carries individual fish weights in grams
type ClassifyRequest struct {
	WeightsGrams []decimal.Decimal `json:"weights_grams" binding:"required,min=1,max=10000"`
}

// Classification is the size class of one weighing
type Classification struct {
	WeightGrams decimal.Decimal `json:"weight_grams"`
	SizeClass   int             `json:"size_class"`
	Label       string          `json:"label"`
}

// List returns the configured size bands
// GET /api/v1/size-classes
func (h *SizeClassHandler) List(c *gin.Context) {
	h.Success(c, h.classifier.Bands())
}

// Classify assigns each weight to its size class
// POST /api/v1/size-classes/classify
func (h *SizeClassHandler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if !h.BindJSON(c, &req) {
		return
	}

	bands := h.classifier.Bands()
	out := make([]Classification, 0, len(req.WeightsGrams))
	for _, w := range req.WeightsGrams {
		class, err := h.classifier.Classify(w)
		if err != nil {
			h.HandleDomainError(c, err)
			return
		}
		out = append(out, Classification{WeightGrams: w, SizeClass: class, Label: bands[class].Label})
	}
	h.Success(c, out)
}
