package convergence

import "option-pricing/internal/model"

// Comparison is one row per method that could price the option.
type Comparison struct {
	Params model.MarketParameters `json:"params"`
	Spec   model.OptionSpec       `json:"spec"`

	// Reference is the closed-form value, set for European vanilla options only.
	Reference *float64              `json:"reference,omitempty"`
	Estimates []model.PriceEstimate `json:"estimates"`
}

// Estimate returns the row for method, if present.
func (c *Comparison) Estimate(method model.Method) (model.PriceEstimate, bool) {
	for _, e := range c.Estimates {
		if e.Method == method {
			return e, true
		}
	}
	return model.PriceEstimate{}, false
}

// Point is one resolution of a convergence series.
type Point struct {
	Resolution int             `json:"resolution"`
	Value      float64         `json:"value"`
	StdErr     *float64        `json:"stderr,omitempty"`
	CI         *model.Interval `json:"confidence_interval,omitempty"`
	Seed       *int64          `json:"seed,omitempty"`
}

func pointFrom(est model.PriceEstimate, resolution int) Point {
	return Point{
		Resolution: resolution,
		Value:      est.Value,
		StdErr:     est.StdErr,
		CI:         est.CI,
		Seed:       est.Seed,
	}
}

// Report holds both convergence series for one option.
type Report struct {
	Params    model.MarketParameters `json:"params"`
	Spec      model.OptionSpec       `json:"spec"`
	Reference *float64               `json:"reference,omitempty"`

	Lattice    []Point `json:"lattice"`
	Simulation []Point `json:"simulation"`
}

// Values returns the series values in resolution order.
func Values(points []Point) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}
