package model

// Method names a pricing engine.
type Method string

const (
	MethodAnalytic   Method = "analytic"
	MethodLattice    Method = "lattice"
	MethodSimulation Method = "simulation"
)

func ParseMethod(s string) (Method, bool) {
	switch Method(s) {
	case MethodAnalytic, MethodLattice, MethodSimulation:
		return Method(s), true
	case "bs", "black-scholes":
		return MethodAnalytic, true
	case "bt", "binomial", "tree":
		return MethodLattice, true
	case "mc", "monte-carlo":
		return MethodSimulation, true
	}
	return "", false
}

// Interval is a closed [Low, High] range.
type Interval struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

func (i Interval) Contains(x float64) bool { return x >= i.Low && x <= i.High }

func (i Interval) Width() float64 { return i.High - i.Low }

// PriceEstimate is the result of one pricing call. StdErr and CI are only set for
// simulation estimates; analytic and lattice values are exact under their model.
type PriceEstimate struct {
	Method Method    `json:"method"`
	Value  float64   `json:"value"`
	StdErr *float64  `json:"stderr,omitempty"`
	CI     *Interval `json:"confidence_interval,omitempty"`

	// Resolution is the lattice step count or simulation path count (0 for analytic).
	Resolution int `json:"resolution,omitempty"`
	// Seed is the generator seed actually used by a simulation call.
	Seed *int64 `json:"seed,omitempty"`
}

// Exact builds an estimate without sampling error.
func Exact(method Method, value float64, resolution int) PriceEstimate {
	return PriceEstimate{Method: method, Value: value, Resolution: resolution}
}

// Greeks are first/second-order sensitivities of the analytic price.
// Theta is per calendar day, Vega and Rho per one percentage point.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// Map returns the greeks keyed by name, for table-style output.
func (g Greeks) Map() map[string]float64 {
	return map[string]float64{
		"delta": g.Delta,
		"gamma": g.Gamma,
		"theta": g.Theta,
		"vega":  g.Vega,
		"rho":   g.Rho,
	}
}
