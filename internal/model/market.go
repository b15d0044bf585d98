package model

import (
	"math"
)

// MarketParameters describes the single-asset market an option is priced in.
// Units:
// - Spot, Strike: currency
// - Maturity: years
// - Rate: continuously compounded, annual (may be negative)
// - Volatility: annualized, decimal (0.2 = 20%)
type MarketParameters struct {
	Spot       float64 `json:"spot" yaml:"spot"`
	Strike     float64 `json:"strike" yaml:"strike"`
	Maturity   float64 `json:"maturity" yaml:"maturity"`
	Rate       float64 `json:"rate" yaml:"rate"`
	Volatility float64 `json:"volatility" yaml:"volatility"`
}

func NewMarketParameters(spot, strike, maturity, rate, volatility float64) (MarketParameters, error) {
	p := MarketParameters{
		Spot:       spot,
		Strike:     strike,
		Maturity:   maturity,
		Rate:       rate,
		Volatility: volatility,
	}
	if err := p.Validate(); err != nil {
		return MarketParameters{}, err
	}
	return p, nil
}

// Validate checks the data-model constraints. A zero volatility is a valid market
// description but cannot be priced; see ValidateForPricing.
func (p MarketParameters) Validate() error {
	if !(p.Spot > 0) || math.IsInf(p.Spot, 0) {
		return invalid("spot", p.Spot, "must be a positive finite number")
	}
	if !(p.Strike > 0) || math.IsInf(p.Strike, 0) {
		return invalid("strike", p.Strike, "must be a positive finite number")
	}
	if !(p.Maturity > 0) || math.IsInf(p.Maturity, 0) {
		return invalid("maturity", p.Maturity, "must be > 0")
	}
	if math.IsNaN(p.Rate) || math.IsInf(p.Rate, 0) {
		return invalid("rate", p.Rate, "must be finite")
	}
	if !(p.Volatility >= 0) || math.IsInf(p.Volatility, 0) {
		return invalid("volatility", p.Volatility, "must be >= 0")
	}
	return nil
}

// ValidateForPricing is the precondition shared by every pricer.
func (p MarketParameters) ValidateForPricing() error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Volatility <= 0 {
		return invalid("volatility", p.Volatility, "must be > 0")
	}
	return nil
}

// DiscountFactor returns e^{-rT}.
func (p MarketParameters) DiscountFactor() float64 {
	return math.Exp(-p.Rate * p.Maturity)
}

// WithVolatility returns a copy with a different volatility.
func (p MarketParameters) WithVolatility(sigma float64) MarketParameters {
	p.Volatility = sigma
	return p
}
