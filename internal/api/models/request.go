package models

// MarketRequest carries the market parameters shared by every pricing request.
type MarketRequest struct {
	Spot       float64 `json:"spot"`
	Strike     float64 `json:"strike"`
	Maturity   float64 `json:"maturity"` // years
	Rate       float64 `json:"rate"`
	Volatility float64 `json:"volatility"`
}

// OptionRequest selects the contract. Style defaults to european, payoff to vanilla.
type OptionRequest struct {
	Kind    string  `json:"kind" binding:"required"` // "call" or "put"
	Style   string  `json:"style,omitempty"`
	Payoff  string  `json:"payoff,omitempty"` // "vanilla", "asian", "barrier"
	Barrier float64 `json:"barrier,omitempty"`
}

// EngineOptions tunes the numerical engines. Zero values use the engine defaults.
type EngineOptions struct {
	Steps      int     `json:"steps,omitempty"`
	Paths      int     `json:"paths,omitempty"`
	TimeSteps  int     `json:"time_steps,omitempty"`
	Antithetic *bool   `json:"antithetic,omitempty"` // default: true
	Confidence float64 `json:"confidence,omitempty"` // default: 0.95
	Seed       *int64  `json:"seed,omitempty"`
}

// PriceRequest represents the request body for POST /api/v1/price
type PriceRequest struct {
	Method string        `json:"method" binding:"required"` // "analytic", "lattice", "simulation"
	Market MarketRequest `json:"market"`
	Option OptionRequest `json:"option"`
	Engine EngineOptions `json:"engine,omitempty"`
}

// GreeksRequest represents the request body for POST /api/v1/greeks
type GreeksRequest struct {
	Market MarketRequest `json:"market"`
	Kind   string        `json:"kind" binding:"required"`
}

// ImpliedVolatilityRequest represents the request body for POST /api/v1/implied-volatility.
// Market.Volatility is ignored.
type ImpliedVolatilityRequest struct {
	Market      MarketRequest `json:"market"`
	Kind        string        `json:"kind" binding:"required"`
	MarketPrice float64       `json:"market_price" binding:"required"`
}

// CompareRequest represents the request body for POST /api/v1/compare
type CompareRequest struct {
	Market MarketRequest `json:"market"`
	Option OptionRequest `json:"option"`
	Engine EngineOptions `json:"engine,omitempty"`
}

// ConvergenceRequest represents the request body for POST /api/v1/convergence
type ConvergenceRequest struct {
	Market                MarketRequest `json:"market"`
	Option                OptionRequest `json:"option"`
	Engine                EngineOptions `json:"engine,omitempty"`
	LatticeResolutions    []int         `json:"lattice_resolutions,omitempty"`
	SimulationResolutions []int         `json:"simulation_resolutions,omitempty"`
}

// VolatilityRequest represents the query for GET /api/v1/volatility
type VolatilityRequest struct {
	Ticker       string `form:"ticker" binding:"required"`
	LookbackDays int    `form:"lookback_days,omitempty"` // default: 252
}

// RankScenariosRequest represents the query for GET /api/v1/scenarios/rank
type RankScenariosRequest struct {
	Kind  string `form:"kind,omitempty"`  // default: call
	Style string `form:"style,omitempty"` // default: european
	Paths int    `form:"paths,omitempty"`
	Steps int    `form:"steps,omitempty"`
	Seed  *int64 `form:"seed,omitempty"`
}
