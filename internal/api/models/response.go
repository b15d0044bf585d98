package models

import (
	"option-pricing/internal/convergence"
	"option-pricing/internal/model"
)

// PriceResponse represents the response from a single pricing call
type PriceResponse struct {
	ID       string              `json:"id"`
	Option   string              `json:"option"`
	Estimate model.PriceEstimate `json:"estimate"`
}

// GreeksResponse contains the closed-form price and sensitivities
type GreeksResponse struct {
	ID     string       `json:"id"`
	Kind   string       `json:"kind"`
	Price  float64      `json:"price"`
	Greeks model.Greeks `json:"greeks"`
}

type ImpliedVolatilityResponse struct {
	Kind              string  `json:"kind"`
	MarketPrice       float64 `json:"market_price"`
	ImpliedVolatility float64 `json:"implied_volatility"`
}

// CompareResponse lists one estimate per method that supports the option
type CompareResponse struct {
	ID        string                `json:"id"`
	Option    string                `json:"option"`
	Reference *float64              `json:"reference,omitempty"`
	Estimates []model.PriceEstimate `json:"estimates"`
	// Spread is max minus min over the method values.
	Spread float64 `json:"spread"`
}

// ConvergenceResponse contains both series and their error statistics
type ConvergenceResponse struct {
	ID     string              `json:"id"`
	Option string              `json:"option"`
	Report *convergence.Report `json:"report"`
	Stats  []SeriesStats       `json:"stats,omitempty"`
}

// SeriesStats summarizes one series against the reference
type SeriesStats struct {
	Method          string   `json:"method"`
	Count           int      `json:"count"`
	FinalResolution int      `json:"final_resolution"`
	FinalAbsError   float64  `json:"final_abs_error"`
	FinalRelError   float64  `json:"final_rel_error"`
	MeanAbsError    float64  `json:"mean_abs_error"`
	P95AbsError     float64  `json:"p95_abs_error"`
	Coverage        *float64 `json:"ci_coverage,omitempty"`
}

// MethodInfo represents information about a pricing method
type MethodInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Supports    []string        `json:"supports"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes an engine parameter
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "float", "int", "bool"
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
}

// ScenarioInfo represents a market scenario preset
type ScenarioInfo struct {
	ID     string                 `json:"id"`
	Name   string                 `json:"name"`
	File   string                 `json:"file,omitempty"`
	Params model.MarketParameters `json:"params"`
}

// RankResponse represents scenarios ordered by method disagreement
type RankResponse struct {
	Rankings []Ranking `json:"rankings"`
}

type Ranking struct {
	Rank      int     `json:"rank"`
	Scenario  string  `json:"scenario"`
	Spread    float64 `json:"spread"`
	MaxAbsErr float64 `json:"max_abs_error"`
}

// VolatilityResponse represents a historical volatility estimate
type VolatilityResponse struct {
	Ticker       string  `json:"ticker"`
	LookbackDays int     `json:"lookback_days"`
	Volatility   float64 `json:"volatility"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
