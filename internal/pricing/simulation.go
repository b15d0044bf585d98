package pricing

import (
	"math"
	"math/rand/v2"
	"time"

	"option-pricing/internal/model"

	"gonum.org/v1/gonum/stat"
)

const (
	DefaultSimulationPaths = 100000
	// DefaultTimeSteps is the number of monitoring dates for Asian and barrier payoffs.
	DefaultTimeSteps = 252

	// pcgStream is the fixed second PCG word; the caller's seed selects the sequence.
	pcgStream = 0x9e3779b97f4a7c15
)

// SimulationPricer estimates option values by Monte Carlo under geometric Brownian motion.
//
// Vanilla payoffs sample S_T exactly from the log-normal transition. Asian and barrier
// payoffs walk TimeSteps discretized layers. With Antithetic set every normal draw is
// also used negated, and the estimator averages each (Z, -Z) pair before computing the
// sample variance.
type SimulationPricer struct {
	// Paths is the number of independent normal draws (per layer). With Antithetic the
	// number of evaluated payoffs is twice this.
	Paths      int
	TimeSteps  int
	Antithetic bool
	// Confidence is the two-sided level of the reported interval, default 0.95.
	Confidence float64
	// Seed makes the call reproducible. Nil draws a seed from the clock; the seed used
	// is reported on the estimate either way.
	Seed *int64
}

func NewSimulationPricer(paths int, antithetic bool, seed *int64) *SimulationPricer {
	return &SimulationPricer{
		Paths:      paths,
		TimeSteps:  DefaultTimeSteps,
		Antithetic: antithetic,
		Confidence: DefaultConfidence,
		Seed:       seed,
	}
}

// Seed is a convenience for building the optional seed field.
func Seed(v int64) *int64 { return &v }

func (s *SimulationPricer) Method() model.Method { return model.MethodSimulation }

func (s *SimulationPricer) Price(params model.MarketParameters, spec model.OptionSpec) (model.PriceEstimate, error) {
	return s.PriceWithPaths(params, spec, s.Paths)
}

// PriceWithPaths prices with nPaths draws, overriding s.Paths.
func (s *SimulationPricer) PriceWithPaths(params model.MarketParameters, spec model.OptionSpec, nPaths int) (model.PriceEstimate, error) {
	spec, err := prepare(params, spec)
	if err != nil {
		return model.PriceEstimate{}, err
	}
	if nPaths <= 0 {
		return model.PriceEstimate{}, model.InvalidParameter("n_paths", float64(nPaths), "must be a positive integer")
	}
	conf := s.confidence()
	if !validConfidence(conf) {
		return model.PriceEstimate{}, model.InvalidParameter("confidence", conf, "must be in (0,1)")
	}
	if spec.Style == model.American {
		return model.PriceEstimate{}, &model.UnsupportedError{Method: model.MethodSimulation, Spec: spec}
	}
	steps := s.timeSteps()
	if spec.PathDependent() && steps <= 0 {
		return model.PriceEstimate{}, model.InvalidParameter("time_steps", float64(steps), "must be a positive integer")
	}

	seed := s.seed()
	rng := newRand(seed)
	var samples []float64
	if spec.PathDependent() {
		samples = s.pathPayoffs(rng, params, spec, nPaths, steps)
	} else {
		samples = s.terminalPayoffs(rng, params, spec, nPaths)
	}

	est := estimate(samples, params.DiscountFactor(), conf)
	est.Resolution = nPaths
	est.Seed = &seed
	return est, nil
}

// TerminalPrices samples S_T for nPaths draws. With antithetic the result holds the
// nPaths values for Z followed by the nPaths values for -Z.
func (s *SimulationPricer) TerminalPrices(params model.MarketParameters, nPaths int, antithetic bool) ([]float64, error) {
	if err := params.ValidateForPricing(); err != nil {
		return nil, err
	}
	if nPaths <= 0 {
		return nil, model.InvalidParameter("n_paths", float64(nPaths), "must be a positive integer")
	}
	rng := newRand(s.seed())
	drift, vol := terminalStep(params)

	total := nPaths
	if antithetic {
		total *= 2
	}
	out := make([]float64, total)
	for i := 0; i < nPaths; i++ {
		z := rng.NormFloat64()
		out[i] = params.Spot * math.Exp(drift+vol*z)
		if antithetic {
			out[nPaths+i] = params.Spot * math.Exp(drift-vol*z)
		}
	}
	return out, nil
}

// SamplePaths returns full discretized paths, one row per path, each with TimeSteps+1
// points starting at S0. Antithetic rows follow the primary rows in the same order.
func (s *SimulationPricer) SamplePaths(params model.MarketParameters, nPaths int, antithetic bool) ([][]float64, error) {
	if err := params.ValidateForPricing(); err != nil {
		return nil, err
	}
	if nPaths <= 0 {
		return nil, model.InvalidParameter("n_paths", float64(nPaths), "must be a positive integer")
	}
	steps := s.timeSteps()
	if steps <= 0 {
		return nil, model.InvalidParameter("time_steps", float64(steps), "must be a positive integer")
	}
	rng := newRand(s.seed())
	drift, vol := layerStep(params, steps)

	total := nPaths
	if antithetic {
		total *= 2
	}
	out := make([][]float64, total)
	for i := 0; i < nPaths; i++ {
		up := make([]float64, steps+1)
		up[0] = params.Spot
		var dn []float64
		if antithetic {
			dn = make([]float64, steps+1)
			dn[0] = params.Spot
		}
		for t := 1; t <= steps; t++ {
			z := rng.NormFloat64()
			up[t] = up[t-1] * math.Exp(drift+vol*z)
			if antithetic {
				dn[t] = dn[t-1] * math.Exp(drift-vol*z)
			}
		}
		out[i] = up
		if antithetic {
			out[nPaths+i] = dn
		}
	}
	return out, nil
}

func (s *SimulationPricer) terminalPayoffs(rng *rand.Rand, params model.MarketParameters, spec model.OptionSpec, n int) []float64 {
	drift, vol := terminalStep(params)
	out := make([]float64, n)
	for i := range out {
		z := rng.NormFloat64()
		v := spec.Intrinsic(params.Spot*math.Exp(drift+vol*z), params.Strike)
		if s.Antithetic {
			v = 0.5 * (v + spec.Intrinsic(params.Spot*math.Exp(drift-vol*z), params.Strike))
		}
		out[i] = v
	}
	return out
}

func (s *SimulationPricer) pathPayoffs(rng *rand.Rand, params model.MarketParameters, spec model.OptionSpec, n, steps int) []float64 {
	drift, vol := layerStep(params, steps)
	out := make([]float64, n)
	for i := range out {
		up := newPathState(params.Spot)
		dn := newPathState(params.Spot)
		for t := 0; t < steps; t++ {
			z := rng.NormFloat64()
			up.advance(drift + vol*z)
			if s.Antithetic {
				dn.advance(drift - vol*z)
			}
		}
		v := up.payoff(spec, params.Strike, steps)
		if s.Antithetic {
			v = 0.5 * (v + dn.payoff(spec, params.Strike, steps))
		}
		out[i] = v
	}
	return out
}

// pathState accumulates what the path-dependent payoffs need without keeping the path.
type pathState struct {
	last, sum, max float64
}

func newPathState(s0 float64) pathState {
	return pathState{last: s0, sum: s0, max: s0}
}

func (p *pathState) advance(logReturn float64) {
	p.last *= math.Exp(logReturn)
	p.sum += p.last
	if p.last > p.max {
		p.max = p.last
	}
}

func (p *pathState) payoff(spec model.OptionSpec, strike float64, steps int) float64 {
	switch spec.Payoff {
	case model.Asian:
		return spec.Intrinsic(p.sum/float64(steps+1), strike)
	case model.Barrier:
		if p.max >= spec.Barrier {
			return 0
		}
		return spec.Intrinsic(p.last, strike)
	default:
		return spec.Intrinsic(p.last, strike)
	}
}

// estimate turns undiscounted payoff samples into a discounted mean with standard error
// and a normal-quantile confidence interval.
func estimate(samples []float64, discount, confidence float64) model.PriceEstimate {
	mean, std := stat.MeanStdDev(samples, nil)
	est := model.PriceEstimate{
		Method: model.MethodSimulation,
		Value:  discount * mean,
	}
	// A single sample has no variance estimate.
	if len(samples) < 2 {
		return est
	}
	se := discount * std / math.Sqrt(float64(len(samples)))
	half := zScore(confidence) * se
	est.StdErr = &se
	est.CI = &model.Interval{Low: est.Value - half, High: est.Value + half}
	return est
}

func terminalStep(params model.MarketParameters) (drift, vol float64) {
	T, sigma := params.Maturity, params.Volatility
	return (params.Rate - 0.5*sigma*sigma) * T, sigma * math.Sqrt(T)
}

func layerStep(params model.MarketParameters, steps int) (drift, vol float64) {
	dt := params.Maturity / float64(steps)
	sigma := params.Volatility
	return (params.Rate - 0.5*sigma*sigma) * dt, sigma * math.Sqrt(dt)
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), pcgStream))
}

func (s *SimulationPricer) seed() int64 {
	if s.Seed != nil {
		return *s.Seed
	}
	return time.Now().UnixNano()
}

func (s *SimulationPricer) confidence() float64 {
	if s.Confidence == 0 {
		return DefaultConfidence
	}
	return s.Confidence
}

func (s *SimulationPricer) timeSteps() int {
	if s.TimeSteps == 0 {
		return DefaultTimeSteps
	}
	return s.TimeSteps
}
