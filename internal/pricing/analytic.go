package pricing

import (
	"fmt"
	"math"

	"option-pricing/internal/model"
)

// AnalyticPricer is the Black-Scholes closed form for European vanilla options.
// It is the reference value the lattice and simulation engines converge to.
type AnalyticPricer struct{}

func NewAnalyticPricer() *AnalyticPricer { return &AnalyticPricer{} }

func (a *AnalyticPricer) Method() model.Method { return model.MethodAnalytic }

// Price dispatches on spec; only European vanilla contracts have a closed form here.
func (a *AnalyticPricer) Price(params model.MarketParameters, spec model.OptionSpec) (model.PriceEstimate, error) {
	spec, err := prepare(params, spec)
	if err != nil {
		return model.PriceEstimate{}, err
	}
	if !spec.IsEuropeanVanilla() {
		return model.PriceEstimate{}, &model.UnsupportedError{Method: model.MethodAnalytic, Spec: spec}
	}
	v, err := a.Value(params, spec.Kind)
	if err != nil {
		return model.PriceEstimate{}, err
	}
	return model.Exact(model.MethodAnalytic, v, 0), nil
}

// Value returns the Black-Scholes price of a European call or put.
func (a *AnalyticPricer) Value(params model.MarketParameters, kind model.Kind) (float64, error) {
	if err := params.ValidateForPricing(); err != nil {
		return 0, err
	}
	d1, d2 := d1d2(params)
	df := params.DiscountFactor()
	switch kind {
	case model.Call:
		return params.Spot*normCDF(d1) - params.Strike*df*normCDF(d2), nil
	case model.Put:
		return params.Strike*df*normCDF(-d2) - params.Spot*normCDF(-d1), nil
	default:
		return 0, fmt.Errorf("%w: kind %q", model.ErrInvalidParameter, kind)
	}
}

// Greeks returns closed-form sensitivities. Theta is per calendar day (annual/365),
// vega and rho per one percentage point (annual/100).
func (a *AnalyticPricer) Greeks(params model.MarketParameters, kind model.Kind) (model.Greeks, error) {
	if err := params.ValidateForPricing(); err != nil {
		return model.Greeks{}, err
	}
	if kind != model.Call && kind != model.Put {
		return model.Greeks{}, fmt.Errorf("%w: kind %q", model.ErrInvalidParameter, kind)
	}
	S, K, T, r, sigma := params.Spot, params.Strike, params.Maturity, params.Rate, params.Volatility
	d1, d2 := d1d2(params)
	sqrtT := math.Sqrt(T)
	df := params.DiscountFactor()
	pdf := normPDF(d1)

	g := model.Greeks{
		Gamma: pdf / (S * sigma * sqrtT),
		Vega:  S * sqrtT * pdf / 100,
	}
	theta := -S * pdf * sigma / (2 * sqrtT)
	if kind == model.Call {
		g.Delta = normCDF(d1)
		theta -= r * K * df * normCDF(d2)
		g.Rho = K * T * df * normCDF(d2) / 100
	} else {
		g.Delta = -normCDF(-d1)
		theta += r * K * df * normCDF(-d2)
		g.Rho = -K * T * df * normCDF(-d2) / 100
	}
	g.Theta = theta / 365
	return g, nil
}

const (
	ivTolerance     = 1e-8
	ivMaxIterations = 100
	ivLow           = 1e-6
	ivHigh          = 5.0
)

// ImpliedVolatility inverts Value for a quoted premium. Newton steps are used while they
// stay inside the current bracket, bisection otherwise. params.Volatility is ignored.
func (a *AnalyticPricer) ImpliedVolatility(params model.MarketParameters, kind model.Kind, marketPrice float64) (float64, error) {
	if err := params.WithVolatility(0.2).ValidateForPricing(); err != nil {
		return 0, err
	}
	df := params.DiscountFactor()
	var lower, upper float64
	switch kind {
	case model.Call:
		lower, upper = math.Max(params.Spot-params.Strike*df, 0), params.Spot
	case model.Put:
		lower, upper = math.Max(params.Strike*df-params.Spot, 0), params.Strike*df
	default:
		return 0, fmt.Errorf("%w: kind %q", model.ErrInvalidParameter, kind)
	}
	if !(marketPrice > lower && marketPrice < upper) {
		return 0, model.InvalidParameter("market_price", marketPrice,
			fmt.Sprintf("must lie strictly inside the no-arbitrage bounds (%g, %g)", lower, upper))
	}

	lo, hi := ivLow, ivHigh
	sigma := 0.2
	for i := 0; i < ivMaxIterations; i++ {
		p := params.WithVolatility(sigma)
		price, err := a.Value(p, kind)
		if err != nil {
			return 0, err
		}
		diff := price - marketPrice
		if math.Abs(diff) < ivTolerance {
			return sigma, nil
		}
		// Price is increasing in sigma.
		if diff > 0 {
			hi = sigma
		} else {
			lo = sigma
		}
		vega := p.Spot * math.Sqrt(p.Maturity) * normPDF(d1(p))
		next := sigma - diff/vega
		if vega < 1e-12 || math.IsNaN(next) || next <= lo || next >= hi {
			next = 0.5 * (lo + hi)
		}
		sigma = next
		if hi-lo < ivTolerance {
			return sigma, nil
		}
	}
	return 0, fmt.Errorf("implied volatility did not converge for price %g", marketPrice)
}

func d1(p model.MarketParameters) float64 {
	v, _ := d1d2(p)
	return v
}

func d1d2(p model.MarketParameters) (float64, float64) {
	volSqrtT := p.Volatility * math.Sqrt(p.Maturity)
	d1 := (math.Log(p.Spot/p.Strike) + (p.Rate+0.5*p.Volatility*p.Volatility)*p.Maturity) / volSqrtT
	return d1, d1 - volSqrtT
}
