package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"option-pricing/internal/api/models"
	"option-pricing/internal/model"
	"option-pricing/internal/pricing"

	"github.com/gin-gonic/gin"
)

// Request size guards. Pricing cost is linear in paths and quadratic in steps.
const (
	maxSteps     = 5000
	maxPaths     = 2_000_000
	maxTimeSteps = 2520
	maxPoints    = 20

	// Combined work per request: lattice nodes summed over every tree priced, and normal
	// draws summed over every simulation (one per path, or one per path per time step for
	// path-dependent payoffs).
	maxLatticeNodes    = 50_000_000
	maxSimulationDraws = 500_000_000
)

func toMarket(m models.MarketRequest) model.MarketParameters {
	return model.MarketParameters{
		Spot:       m.Spot,
		Strike:     m.Strike,
		Maturity:   m.Maturity,
		Rate:       m.Rate,
		Volatility: m.Volatility,
	}
}

func toSpec(o models.OptionRequest) (model.OptionSpec, error) {
	kind, err := model.ParseKind(o.Kind)
	if err != nil {
		return model.OptionSpec{}, err
	}
	style, err := model.ParseStyle(o.Style)
	if err != nil {
		return model.OptionSpec{}, err
	}
	payoff, err := model.ParsePayoff(o.Payoff)
	if err != nil {
		return model.OptionSpec{}, err
	}
	spec := model.OptionSpec{Kind: kind, Style: style, Payoff: payoff, Barrier: o.Barrier}
	return spec, spec.Validate()
}

// buildPricers turns engine options into configured pricers. Zero values keep defaults;
// negative values are passed through so the engines reject them.
func buildPricers(e models.EngineOptions) (*pricing.LatticePricer, *pricing.SimulationPricer, error) {
	if e.Steps > maxSteps {
		return nil, nil, model.InvalidParameter("steps", float64(e.Steps), "exceeds server limit")
	}
	if e.Paths > maxPaths {
		return nil, nil, model.InvalidParameter("n_paths", float64(e.Paths), "exceeds server limit")
	}
	if e.TimeSteps > maxTimeSteps {
		return nil, nil, model.InvalidParameter("time_steps", float64(e.TimeSteps), "exceeds server limit")
	}

	lattice := &pricing.LatticePricer{Steps: pricing.DefaultLatticeSteps}
	if e.Steps != 0 {
		lattice.Steps = e.Steps
	}

	antithetic := e.Antithetic == nil || *e.Antithetic
	sim := pricing.NewSimulationPricer(pricing.DefaultSimulationPaths, antithetic, e.Seed)
	if e.Paths != 0 {
		sim.Paths = e.Paths
	}
	if e.TimeSteps != 0 {
		sim.TimeSteps = e.TimeSteps
	}
	if e.Confidence != 0 {
		sim.Confidence = e.Confidence
	}
	return lattice, sim, nil
}

// checkWork bounds the total cost of pricing spec at the given lattice step counts and
// simulation path counts. Resolutions for a method that cannot price spec are ignored.
func checkWork(spec model.OptionSpec, sim *pricing.SimulationPricer, latticeRes, simRes []int) error {
	if !spec.PathDependent() {
		var nodes float64
		for _, n := range latticeRes {
			nodes += float64(n) * float64(n)
		}
		if nodes > maxLatticeNodes {
			return model.InvalidParameter("lattice_nodes", nodes, fmt.Sprintf("exceeds server limit of %d per request", maxLatticeNodes))
		}
	}
	if spec.Style != model.American {
		perPath := 1.0
		if spec.PathDependent() && sim.TimeSteps > 0 {
			perPath = float64(sim.TimeSteps)
		}
		var draws float64
		for _, n := range simRes {
			draws += float64(n) * perPath
		}
		if draws > maxSimulationDraws {
			return model.InvalidParameter("simulation_draws", draws, fmt.Sprintf("exceeds server limit of %d per request", maxSimulationDraws))
		}
	}
	return nil
}

func badRequest(c *gin.Context, code string, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: err.Error(),
		},
	})
}

// writePricingError maps engine errors onto HTTP responses.
func writePricingError(c *gin.Context, err error) {
	var (
		invalid     *model.InvalidParameterError
		arbitrage   *model.ArbitrageError
		unsupported *model.UnsupportedError
	)
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_PARAMETER",
				Message: err.Error(),
				Details: map[string]interface{}{
					"field": invalid.Field,
					"value": invalid.Value,
				},
			},
		})
	case errors.As(err, &arbitrage):
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "ARBITRAGE",
				Message: err.Error(),
				Details: map[string]interface{}{
					"probability": arbitrage.Probability,
					"up":          arbitrage.Up,
					"down":        arbitrage.Down,
					"dt":          arbitrage.Dt,
				},
			},
		})
	case errors.As(err, &unsupported):
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "UNSUPPORTED",
				Message: err.Error(),
				Details: map[string]interface{}{
					"method": unsupported.Method,
				},
			},
		})
	case errors.Is(err, model.ErrInvalidParameter):
		badRequest(c, "INVALID_PARAMETER", err)
	case errors.Is(err, model.ErrUnsupported):
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "UNSUPPORTED",
				Message: err.Error(),
			},
		})
	default:
		log.Printf("[API] Pricing failed: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "PRICING_ERROR",
				Message: err.Error(),
			},
		})
	}
}
