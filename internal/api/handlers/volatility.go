package handlers

import (
	"net/http"
	"strings"

	"option-pricing/internal/api/models"
	"option-pricing/internal/data"

	"github.com/gin-gonic/gin"
)

const defaultLookbackDays = 252

// VolatilityHandler serves historical volatility estimates
type VolatilityHandler struct {
	provider data.VolatilityProvider
}

// NewVolatilityHandler creates a handler. A nil provider answers 503.
func NewVolatilityHandler(provider data.VolatilityProvider) *VolatilityHandler {
	return &VolatilityHandler{provider: provider}
}

// HistoricalVolatility handles GET /api/v1/volatility
func (h *VolatilityHandler) HistoricalVolatility(c *gin.Context) {
	var req models.VolatilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}
	if h.provider == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "NO_PROVIDER",
				Message: "No volatility provider is configured",
			},
		})
		return
	}
	if req.LookbackDays <= 0 {
		req.LookbackDays = defaultLookbackDays
	}
	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))

	vol, ok := h.provider.HistoricalVolatility(c.Request.Context(), ticker, req.LookbackDays)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "VOLATILITY_UNAVAILABLE",
				Message: "No historical volatility available; supply volatility directly",
				Details: map[string]interface{}{
					"ticker":        ticker,
					"lookback_days": req.LookbackDays,
				},
			},
		})
		return
	}
	c.JSON(http.StatusOK, models.VolatilityResponse{
		Ticker:       ticker,
		LookbackDays: req.LookbackDays,
		Volatility:   vol,
	})
}
