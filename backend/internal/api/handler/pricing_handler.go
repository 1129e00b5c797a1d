package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/dto"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/service"
	"github.com/shinystaratnight/endless-backend-sub001/backend/pkg/response"
)

// PricingHandler ad-hoc rate coefficient calculation
type PricingHandler struct {
	pricingSvc service.PricingService
}

// NewPricingHandler creates a PricingHandler
func NewPricingHandler(pricingSvc service.PricingService) *PricingHandler {
	return &PricingHandler{pricingSvc: pricingSvc}
}

// Calc splits an interval into coefficient hours
// POST /api/v1/pricing/calc
func (h *PricingHandler) Calc(c *gin.Context) {
	var req dto.PricingCalcRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request: "+err.Error())
		return
	}

	resp, err := h.pricingSvc.Calc(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidModifierScope):
			response.BadRequest(c, 32001, "scope must be company or candidate")
		case errors.Is(err, service.ErrInvalidTimeRange):
			response.BadRequest(c, 31003, "shift end must be after start and the break inside the shift")
		default:
			response.InternalError(c)
		}
		return
	}
	response.OK(c, resp)
}
