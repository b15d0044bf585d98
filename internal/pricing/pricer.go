// Package pricing holds the three option pricing engines: closed-form (AnalyticPricer),
// recombining binomial lattice (LatticePricer) and Monte Carlo (SimulationPricer).
//
// Every pricer is a pure function of its inputs. Buffers are allocated per call and the
// simulation pricer owns a locally seeded generator, so any number of calls may run
// concurrently without synchronization.
package pricing

import (
	"math"

	"option-pricing/internal/model"

	"gonum.org/v1/gonum/stat/distuv"
)

// Pricer is the uniform (params, spec) -> estimate contract shared by all engines.
type Pricer interface {
	Method() model.Method
	Price(params model.MarketParameters, spec model.OptionSpec) (model.PriceEstimate, error)
}

var (
	_ Pricer = (*AnalyticPricer)(nil)
	_ Pricer = (*LatticePricer)(nil)
	_ Pricer = (*SimulationPricer)(nil)
)

// DefaultConfidence is the two-sided level used when a simulation does not set one.
const DefaultConfidence = 0.95

func normCDF(x float64) float64 { return distuv.UnitNormal.CDF(x) }

func normPDF(x float64) float64 { return distuv.UnitNormal.Prob(x) }

// zScore returns the two-sided normal quantile for confidence level c in (0,1).
func zScore(c float64) float64 {
	return distuv.UnitNormal.Quantile((1 + c) / 2)
}

// prepare validates the shared preconditions and normalizes the spec.
func prepare(params model.MarketParameters, spec model.OptionSpec) (model.OptionSpec, error) {
	if err := params.ValidateForPricing(); err != nil {
		return spec, err
	}
	spec = spec.Normalize()
	if err := spec.Validate(); err != nil {
		return spec, err
	}
	return spec, nil
}

func validConfidence(c float64) bool {
	return c > 0 && c < 1 && !math.IsNaN(c)
}
