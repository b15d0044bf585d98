package handlers

import (
	"net/http"

	"option-pricing/internal/api/models"
	"option-pricing/internal/pricing"

	"github.com/gin-gonic/gin"
)

// MethodHandler handles method-related requests
type MethodHandler struct{}

// NewMethodHandler creates a new method handler
func NewMethodHandler() *MethodHandler {
	return &MethodHandler{}
}

// ListMethods handles GET /api/v1/methods
func (h *MethodHandler) ListMethods(c *gin.Context) {
	methods := []models.MethodInfo{
		{
			Name:        "analytic",
			Description: "Black-Scholes closed form with greeks. Exact under the model.",
			Supports:    []string{"european vanilla"},
			Parameters:  []models.ParameterInfo{},
		},
		{
			Name:        "lattice",
			Description: "Cox-Ross-Rubinstein binomial tree with backward induction and early exercise.",
			Supports:    []string{"european vanilla", "american vanilla"},
			Parameters: []models.ParameterInfo{
				{
					Name:        "steps",
					Type:        "int",
					Description: "Tree depth",
					Default:     pricing.DefaultLatticeSteps,
				},
			},
		},
		{
			Name:        "simulation",
			Description: "Monte Carlo under geometric Brownian motion with antithetic variates and a normal confidence interval.",
			Supports:    []string{"european vanilla", "european asian", "european barrier"},
			Parameters: []models.ParameterInfo{
				{
					Name:        "paths",
					Type:        "int",
					Description: "Number of independent normal draws",
					Default:     pricing.DefaultSimulationPaths,
				},
				{
					Name:        "time_steps",
					Type:        "int",
					Description: "Monitoring dates for Asian and barrier payoffs",
					Default:     pricing.DefaultTimeSteps,
				},
				{
					Name:        "antithetic",
					Type:        "bool",
					Description: "Pair every draw with its negation",
					Default:     true,
				},
				{
					Name:        "confidence",
					Type:        "float",
					Description: "Two-sided confidence level in (0,1)",
					Default:     pricing.DefaultConfidence,
				},
				{
					Name:        "seed",
					Type:        "int",
					Description: "Generator seed; omitted means a clock seed, echoed in the response",
				},
			},
		},
	}

	c.JSON(http.StatusOK, gin.H{"methods": methods})
}
