// Package api wires the HTTP handlers into a gin router.
package api

import (
	"net/http"

	"option-pricing/internal/api/handlers"
	"option-pricing/internal/api/middleware"
	"option-pricing/internal/data"

	"github.com/gin-gonic/gin"
)

type Options struct {
	// ScenarioDir holds *.yaml scenario presets. Empty uses SCENARIO_DIR or examples/scenarios.
	ScenarioDir string
	// Workers bounds concurrent pricing calls per request.
	Workers int
	// Volatility serves /volatility. Nil answers 503.
	Volatility data.VolatilityProvider
}

func NewRouter(opts Options) *gin.Engine {
	router := gin.New()
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	pricingHandler := handlers.NewPricingHandler()
	convergenceHandler := handlers.NewConvergenceHandler(opts.Workers)
	methodHandler := handlers.NewMethodHandler()
	scenarioHandler := handlers.NewScenarioHandler(opts.ScenarioDir, opts.Workers)
	volatilityHandler := handlers.NewVolatilityHandler(opts.Volatility)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/price", pricingHandler.Price)
		v1.POST("/greeks", pricingHandler.Greeks)
		v1.POST("/implied-volatility", pricingHandler.ImpliedVolatility)

		v1.POST("/compare", convergenceHandler.Compare)
		v1.POST("/convergence", convergenceHandler.Convergence)

		v1.GET("/methods", methodHandler.ListMethods)
		v1.GET("/scenarios", scenarioHandler.ListScenarios)
		v1.GET("/scenarios/rank", scenarioHandler.RankScenarios)

		v1.GET("/volatility", volatilityHandler.HistoricalVolatility)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	})
	return router
}
