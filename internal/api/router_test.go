package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"option-pricing/internal/api/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVolatility struct {
	vol float64
	ok  bool
}

func (s stubVolatility) HistoricalVolatility(context.Context, string, int) (float64, bool) {
	return s.vol, s.ok
}

func newTestRouter(t *testing.T, opts Options) *gin.Engine {
	t.Helper()
	if opts.ScenarioDir == "" {
		opts.ScenarioDir = filepath.Join("..", "..", "examples", "scenarios")
	}
	if opts.Workers == 0 {
		opts.Workers = 2
	}
	return NewRouter(opts)
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

var atmMarket = models.MarketRequest{Spot: 100, Strike: 100, Maturity: 1, Rate: 0.05, Volatility: 0.2}

func seed(v int64) *int64 { return &v }

func TestHealth(t *testing.T) {
	w := do(t, newTestRouter(t, Options{}), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestPrice_Analytic(t *testing.T) {
	w := do(t, newTestRouter(t, Options{}), http.MethodPost, "/api/v1/price", models.PriceRequest{
		Method: "analytic",
		Market: atmMarket,
		Option: models.OptionRequest{Kind: "call"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.PriceResponse](t, w)
	assert.NotEmpty(t, resp.ID)
	assert.InDelta(t, 10.4506, resp.Estimate.Value, 1e-4)
	assert.Nil(t, resp.Estimate.StdErr)
}

func TestPrice_LatticeAndSimulation(t *testing.T) {
	r := newTestRouter(t, Options{})

	w := do(t, r, http.MethodPost, "/api/v1/price", models.PriceRequest{
		Method: "lattice",
		Market: atmMarket,
		Option: models.OptionRequest{Kind: "put", Style: "american"},
		Engine: models.EngineOptions{Steps: 200},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	am := decode[models.PriceResponse](t, w)
	assert.InDelta(t, 6.09, am.Estimate.Value, 0.05)
	assert.Equal(t, 200, am.Estimate.Resolution)

	w = do(t, r, http.MethodPost, "/api/v1/price", models.PriceRequest{
		Method: "mc",
		Market: atmMarket,
		Option: models.OptionRequest{Kind: "call"},
		Engine: models.EngineOptions{Paths: 20000, Seed: seed(42)},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	mc := decode[models.PriceResponse](t, w)
	require.NotNil(t, mc.Estimate.StdErr)
	require.NotNil(t, mc.Estimate.CI)
	require.NotNil(t, mc.Estimate.Seed)
	assert.EqualValues(t, 42, *mc.Estimate.Seed)
	assert.InDelta(t, 10.45, mc.Estimate.Value, 5*(*mc.Estimate.StdErr))
}

func TestPrice_Errors(t *testing.T) {
	r := newTestRouter(t, Options{})
	cases := []struct {
		name   string
		req    models.PriceRequest
		status int
		code   string
	}{
		{
			name:   "zero volatility",
			req:    models.PriceRequest{Method: "analytic", Market: models.MarketRequest{Spot: 100, Strike: 100, Maturity: 1}, Option: models.OptionRequest{Kind: "call"}},
			status: http.StatusBadRequest,
			code:   "INVALID_PARAMETER",
		},
		{
			name:   "analytic american",
			req:    models.PriceRequest{Method: "analytic", Market: atmMarket, Option: models.OptionRequest{Kind: "put", Style: "american"}},
			status: http.StatusUnprocessableEntity,
			code:   "UNSUPPORTED",
		},
		{
			name: "arbitrage",
			req: models.PriceRequest{
				Method: "lattice",
				Market: models.MarketRequest{Spot: 100, Strike: 100, Maturity: 1, Rate: 0.5, Volatility: 0.01},
				Option: models.OptionRequest{Kind: "call"},
				Engine: models.EngineOptions{Steps: 1},
			},
			status: http.StatusUnprocessableEntity,
			code:   "ARBITRAGE",
		},
		{
			name:   "unknown method",
			req:    models.PriceRequest{Method: "fourier", Market: atmMarket, Option: models.OptionRequest{Kind: "call"}},
			status: http.StatusBadRequest,
			code:   "INVALID_METHOD",
		},
		{
			name:   "bad kind",
			req:    models.PriceRequest{Method: "analytic", Market: atmMarket, Option: models.OptionRequest{Kind: "straddle"}},
			status: http.StatusBadRequest,
			code:   "INVALID_OPTION",
		},
		{
			name:   "too many paths",
			req:    models.PriceRequest{Method: "simulation", Market: atmMarket, Option: models.OptionRequest{Kind: "call"}, Engine: models.EngineOptions{Paths: 1e8}},
			status: http.StatusBadRequest,
			code:   "INVALID_PARAMETER",
		},
		{
			name: "barrier draws over budget",
			req: models.PriceRequest{
				Method: "simulation",
				Market: atmMarket,
				Option: models.OptionRequest{Kind: "call", Payoff: "barrier", Barrier: 130},
				Engine: models.EngineOptions{Paths: 2_000_000, TimeSteps: 2520},
			},
			status: http.StatusBadRequest,
			code:   "INVALID_PARAMETER",
		},
		{
			name:   "bad confidence",
			req:    models.PriceRequest{Method: "simulation", Market: atmMarket, Option: models.OptionRequest{Kind: "call"}, Engine: models.EngineOptions{Paths: 100, Confidence: 1.5}},
			status: http.StatusBadRequest,
			code:   "INVALID_PARAMETER",
		},
	}
	for _, tc := range cases {
		w := do(t, r, http.MethodPost, "/api/v1/price", tc.req)
		require.Equal(t, tc.status, w.Code, "%s: %s", tc.name, w.Body.String())
		resp := decode[models.ErrorResponse](t, w)
		assert.Equal(t, tc.code, resp.Error.Code, tc.name)
	}

	w := do(t, r, http.MethodPost, "/api/v1/price", map[string]any{"market": atmMarket})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGreeksAndImpliedVolatility(t *testing.T) {
	r := newTestRouter(t, Options{})

	w := do(t, r, http.MethodPost, "/api/v1/greeks", models.GreeksRequest{Market: atmMarket, Kind: "call"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	g := decode[models.GreeksResponse](t, w)
	assert.InDelta(t, 0.6368, g.Greeks.Delta, 1e-4)
	assert.InDelta(t, 10.4506, g.Price, 1e-4)

	w = do(t, r, http.MethodPost, "/api/v1/implied-volatility", models.ImpliedVolatilityRequest{
		Market:      atmMarket,
		Kind:        "call",
		MarketPrice: 10.450583572185565,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	iv := decode[models.ImpliedVolatilityResponse](t, w)
	assert.InDelta(t, 0.2, iv.ImpliedVolatility, 1e-6)
}

func TestCompare(t *testing.T) {
	w := do(t, newTestRouter(t, Options{}), http.MethodPost, "/api/v1/compare", models.CompareRequest{
		Market: atmMarket,
		Option: models.OptionRequest{Kind: "call"},
		Engine: models.EngineOptions{Steps: 500, Paths: 20000, Seed: seed(1)},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.CompareResponse](t, w)
	require.NotNil(t, resp.Reference)
	assert.Len(t, resp.Estimates, 3)
	assert.Less(t, resp.Spread, 0.5)
}

func TestConvergence(t *testing.T) {
	w := do(t, newTestRouter(t, Options{}), http.MethodPost, "/api/v1/convergence", models.ConvergenceRequest{
		Market:                atmMarket,
		Option:                models.OptionRequest{Kind: "call"},
		Engine:                models.EngineOptions{Seed: seed(3)},
		LatticeResolutions:    []int{10, 50, 200},
		SimulationResolutions: []int{1000, 5000},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.ConvergenceResponse](t, w)
	require.NotNil(t, resp.Report)
	assert.Len(t, resp.Report.Lattice, 3)
	assert.Len(t, resp.Report.Simulation, 2)
	require.Len(t, resp.Stats, 2)
	assert.Equal(t, "lattice", resp.Stats[0].Method)
	assert.Nil(t, resp.Stats[0].Coverage)
	assert.NotNil(t, resp.Stats[1].Coverage)

	w = do(t, newTestRouter(t, Options{}), http.MethodPost, "/api/v1/convergence", models.ConvergenceRequest{
		Market:             atmMarket,
		Option:             models.OptionRequest{Kind: "call"},
		LatticeResolutions: []int{10, 100000},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConvergence_WorkBudget(t *testing.T) {
	r := newTestRouter(t, Options{})
	cases := []struct {
		name  string
		req   models.ConvergenceRequest
		field string
	}{
		{
			name: "lattice nodes",
			req: models.ConvergenceRequest{
				Market:             atmMarket,
				Option:             models.OptionRequest{Kind: "put", Style: "american"},
				LatticeResolutions: []int{5000, 5000, 5000},
			},
			field: "lattice_nodes",
		},
		{
			name: "path-dependent draws",
			req: models.ConvergenceRequest{
				Market:                atmMarket,
				Option:                models.OptionRequest{Kind: "call", Payoff: "barrier", Barrier: 130},
				Engine:                models.EngineOptions{TimeSteps: 252},
				SimulationResolutions: []int{1_000_000, 2_000_000},
			},
			field: "simulation_draws",
		},
	}
	for _, tc := range cases {
		w := do(t, r, http.MethodPost, "/api/v1/convergence", tc.req)
		require.Equal(t, http.StatusBadRequest, w.Code, "%s: %s", tc.name, w.Body.String())
		resp := decode[models.ErrorResponse](t, w)
		assert.Equal(t, "INVALID_PARAMETER", resp.Error.Code, tc.name)
		assert.Equal(t, tc.field, resp.Error.Details["field"], tc.name)
	}

	// Compare prices at one resolution but still pays for every time step.
	w := do(t, r, http.MethodPost, "/api/v1/compare", models.CompareRequest{
		Market: atmMarket,
		Option: models.OptionRequest{Kind: "call", Payoff: "barrier", Barrier: 130},
		Engine: models.EngineOptions{Paths: 2_000_000, TimeSteps: 2520},
	})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, "simulation_draws", decode[models.ErrorResponse](t, w).Error.Details["field"])
}

func TestMethodsAndScenarios(t *testing.T) {
	r := newTestRouter(t, Options{})

	w := do(t, r, http.MethodGet, "/api/v1/methods", nil)
	require.Equal(t, http.StatusOK, w.Code)
	methods := decode[map[string][]models.MethodInfo](t, w)
	assert.Len(t, methods["methods"], 3)

	w = do(t, r, http.MethodGet, "/api/v1/scenarios", nil)
	require.Equal(t, http.StatusOK, w.Code)
	scenarios := decode[map[string][]models.ScenarioInfo](t, w)
	require.Len(t, scenarios["scenarios"], 5)
	assert.Equal(t, "atm", scenarios["scenarios"][0].ID)
	assert.Equal(t, "atm.yaml", scenarios["scenarios"][0].File)

	// Missing directory falls back to the built-in presets.
	w = do(t, newTestRouter(t, Options{ScenarioDir: t.TempDir()}), http.MethodGet, "/api/v1/scenarios", nil)
	require.Equal(t, http.StatusOK, w.Code)
	builtIn := decode[map[string][]models.ScenarioInfo](t, w)
	assert.Len(t, builtIn["scenarios"], 5)
}

func TestRankScenarios(t *testing.T) {
	w := do(t, newTestRouter(t, Options{}), http.MethodGet, "/api/v1/scenarios/rank?kind=put&paths=5000&steps=100&seed=9", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.RankResponse](t, w)
	require.Len(t, resp.Rankings, 5)
	for i, rk := range resp.Rankings {
		assert.Equal(t, i+1, rk.Rank)
		if i > 0 {
			assert.LessOrEqual(t, rk.Spread, resp.Rankings[i-1].Spread)
		}
	}
}

func TestVolatility(t *testing.T) {
	w := do(t, newTestRouter(t, Options{}), http.MethodGet, "/api/v1/volatility?ticker=aapl", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(t, newTestRouter(t, Options{Volatility: stubVolatility{vol: 0.27, ok: true}}), http.MethodGet, "/api/v1/volatility?ticker=aapl&lookback_days=90", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.VolatilityResponse](t, w)
	assert.Equal(t, "AAPL", resp.Ticker)
	assert.Equal(t, 90, resp.LookbackDays)
	assert.Equal(t, 0.27, resp.Volatility)

	w = do(t, newTestRouter(t, Options{Volatility: stubVolatility{}}), http.MethodGet, "/api/v1/volatility?ticker=aapl", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, newTestRouter(t, Options{Volatility: stubVolatility{}}), http.MethodGet, "/api/v1/volatility", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/price", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	newTestRouter(t, Options{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
