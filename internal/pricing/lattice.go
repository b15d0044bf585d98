package pricing

import (
	"math"

	"option-pricing/internal/model"
)

// DefaultLatticeSteps matches the step count used for reference comparisons.
const DefaultLatticeSteps = 500

// LatticePricer values European and American vanilla options on a recombining
// Cox-Ross-Rubinstein binomial tree.
//
// Path-dependent payoffs are not supported: recombination forgets the path, so Asian and
// barrier contracts belong to SimulationPricer.
type LatticePricer struct {
	// Steps is the default tree depth used by Price.
	Steps int
}

func NewLatticePricer(steps int) *LatticePricer {
	if steps <= 0 {
		steps = DefaultLatticeSteps
	}
	return &LatticePricer{Steps: steps}
}

func (l *LatticePricer) Method() model.Method { return model.MethodLattice }

func (l *LatticePricer) Price(params model.MarketParameters, spec model.OptionSpec) (model.PriceEstimate, error) {
	return l.PriceWithSteps(params, spec, l.Steps)
}

// PriceWithSteps prices on a tree of the given depth, overriding l.Steps.
func (l *LatticePricer) PriceWithSteps(params model.MarketParameters, spec model.OptionSpec, steps int) (model.PriceEstimate, error) {
	spec, err := prepare(params, spec)
	if err != nil {
		return model.PriceEstimate{}, err
	}
	if steps <= 0 {
		return model.PriceEstimate{}, model.InvalidParameter("steps", float64(steps), "must be a positive integer")
	}
	if spec.PathDependent() {
		return model.PriceEstimate{}, &model.UnsupportedError{Method: model.MethodLattice, Spec: spec}
	}

	t, err := newTree(params, steps)
	if err != nil {
		return model.PriceEstimate{}, err
	}
	t.build()
	t.terminal(spec)
	t.backward(spec)
	return model.Exact(model.MethodLattice, t.root(), steps), nil
}

// EarlyExercisePremium is the American minus European value on the same tree.
func (l *LatticePricer) EarlyExercisePremium(params model.MarketParameters, kind model.Kind, steps int) (float64, error) {
	am, err := l.PriceWithSteps(params, model.OptionSpec{Kind: kind, Style: model.American, Payoff: model.Vanilla}, steps)
	if err != nil {
		return 0, err
	}
	eu, err := l.PriceWithSteps(params, model.EuropeanVanilla(kind), steps)
	if err != nil {
		return 0, err
	}
	return am.Value - eu.Value, nil
}

// tree is the per-call lattice state: a stock grid and a value grid, both
// (steps+1)x(steps+1), indexed [j][i] with i the time layer and j the number of down
// moves taken (0 <= j <= i). Node (j,i) therefore holds S0*u^(i-j)*d^j, and from (j,i)
// the up move lands on (j,i+1) and the down move on (j+1,i+1).
type tree struct {
	n        int
	s0, k    float64
	u, d, p  float64
	discount float64

	stock [][]float64
	value [][]float64
}

func newTree(params model.MarketParameters, steps int) (*tree, error) {
	dt := params.Maturity / float64(steps)
	u := math.Exp(params.Volatility * math.Sqrt(dt))
	d := 1 / u
	p := (math.Exp(params.Rate*dt) - d) / (u - d)
	if !(p > 0 && p < 1) {
		return nil, &model.ArbitrageError{Probability: p, Up: u, Down: d, Dt: dt}
	}
	return &tree{
		n:        steps,
		s0:       params.Spot,
		k:        params.Strike,
		u:        u,
		d:        d,
		p:        p,
		discount: math.Exp(-params.Rate * dt),
	}, nil
}

func (t *tree) build() {
	t.stock = make([][]float64, t.n+1)
	t.value = make([][]float64, t.n+1)
	for j := range t.stock {
		t.stock[j] = make([]float64, t.n+1)
		t.value[j] = make([]float64, t.n+1)
	}
	for i := 0; i <= t.n; i++ {
		for j := 0; j <= i; j++ {
			t.stock[j][i] = t.s0 * math.Pow(t.u, float64(i-j)) * math.Pow(t.d, float64(j))
		}
	}
}

func (t *tree) terminal(spec model.OptionSpec) {
	for j := 0; j <= t.n; j++ {
		t.value[j][t.n] = spec.Intrinsic(t.stock[j][t.n], t.k)
	}
}

func (t *tree) backward(spec model.OptionSpec) {
	american := spec.Style == model.American
	for i := t.n - 1; i >= 0; i-- {
		for j := 0; j <= i; j++ {
			hold := t.discount * (t.p*t.value[j][i+1] + (1-t.p)*t.value[j+1][i+1])
			if american {
				// Ties keep the continuation value.
				if ex := spec.Intrinsic(t.stock[j][i], t.k); ex > hold {
					hold = ex
				}
			}
			t.value[j][i] = hold
		}
	}
}

func (t *tree) root() float64 { return t.value[0][0] }
