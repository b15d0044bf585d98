package handlers

import (
	"fmt"
	"net/http"

	"option-pricing/internal/api/models"
	"option-pricing/internal/model"
	"option-pricing/internal/pricing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PricingHandler handles single-method pricing requests
type PricingHandler struct {
	analytic *pricing.AnalyticPricer
}

// NewPricingHandler creates a new pricing handler
func NewPricingHandler() *PricingHandler {
	return &PricingHandler{analytic: pricing.NewAnalyticPricer()}
}

// Price handles POST /api/v1/price
func (h *PricingHandler) Price(c *gin.Context) {
	var req models.PriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}

	method, ok := model.ParseMethod(req.Method)
	if !ok {
		badRequest(c, "INVALID_METHOD", fmt.Errorf("unknown method %q (want analytic, lattice or simulation)", req.Method))
		return
	}
	spec, err := toSpec(req.Option)
	if err != nil {
		badRequest(c, "INVALID_OPTION", err)
		return
	}
	lattice, sim, err := buildPricers(req.Engine)
	if err != nil {
		writePricingError(c, err)
		return
	}

	var (
		p       pricing.Pricer
		workErr error
	)
	switch method {
	case model.MethodAnalytic:
		p = h.analytic
	case model.MethodLattice:
		p = lattice
		workErr = checkWork(spec, sim, []int{lattice.Steps}, nil)
	default:
		p = sim
		workErr = checkWork(spec, sim, nil, []int{sim.Paths})
	}
	if workErr != nil {
		writePricingError(c, workErr)
		return
	}

	est, err := p.Price(toMarket(req.Market), spec)
	if err != nil {
		writePricingError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PriceResponse{
		ID:       uuid.NewString(),
		Option:   spec.String(),
		Estimate: est,
	})
}

// Greeks handles POST /api/v1/greeks
func (h *PricingHandler) Greeks(c *gin.Context) {
	var req models.GreeksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}
	kind, err := model.ParseKind(req.Kind)
	if err != nil {
		badRequest(c, "INVALID_OPTION", err)
		return
	}

	params := toMarket(req.Market)
	price, err := h.analytic.Value(params, kind)
	if err != nil {
		writePricingError(c, err)
		return
	}
	g, err := h.analytic.Greeks(params, kind)
	if err != nil {
		writePricingError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.GreeksResponse{
		ID:     uuid.NewString(),
		Kind:   string(kind),
		Price:  price,
		Greeks: g,
	})
}

// ImpliedVolatility handles POST /api/v1/implied-volatility
func (h *PricingHandler) ImpliedVolatility(c *gin.Context) {
	var req models.ImpliedVolatilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}
	kind, err := model.ParseKind(req.Kind)
	if err != nil {
		badRequest(c, "INVALID_OPTION", err)
		return
	}

	iv, err := h.analytic.ImpliedVolatility(toMarket(req.Market), kind, req.MarketPrice)
	if err != nil {
		writePricingError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ImpliedVolatilityResponse{
		Kind:              string(kind),
		MarketPrice:       req.MarketPrice,
		ImpliedVolatility: iv,
	})
}
