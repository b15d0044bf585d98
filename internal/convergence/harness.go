package convergence

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"option-pricing/internal/model"
	"option-pricing/internal/pricing"

	"golang.org/x/sync/errgroup"
)

// Harness drives the lattice and simulation pricers across resolutions and lines them up
// against the closed form. It only returns data; tolerance checks belong to the caller.
// Nil pricers fall back to the engine defaults, so the zero value is usable.
type Harness struct {
	Analytic   *pricing.AnalyticPricer
	Lattice    *pricing.LatticePricer
	Simulation *pricing.SimulationPricer

	// Workers bounds concurrent pricing calls. <= 0 means GOMAXPROCS.
	Workers int
}

func New(lattice *pricing.LatticePricer, simulation *pricing.SimulationPricer) *Harness {
	if lattice == nil {
		lattice = pricing.NewLatticePricer(pricing.DefaultLatticeSteps)
	}
	if simulation == nil {
		simulation = pricing.NewSimulationPricer(pricing.DefaultSimulationPaths, true, nil)
	}
	return &Harness{
		Analytic:   pricing.NewAnalyticPricer(),
		Lattice:    lattice,
		Simulation: simulation,
	}
}

// Compare prices the option once with every method that supports it. Methods that do not
// support the spec are left out of the table; any other error aborts the comparison.
func (h *Harness) Compare(ctx context.Context, params model.MarketParameters, spec model.OptionSpec) (*Comparison, error) {
	spec = spec.Normalize()
	if err := params.ValidateForPricing(); err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	pricers := []pricing.Pricer{h.analytic(), h.lattice(), h.simulation()}
	results := make([]*model.PriceEstimate, len(pricers))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(h.workers())
	for i, p := range pricers {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			est, err := p.Price(params, spec)
			if errors.Is(err, model.ErrUnsupported) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("%s: %w", p.Method(), err)
			}
			results[i] = &est
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cmp := &Comparison{Params: params, Spec: spec}
	for _, est := range results {
		if est == nil {
			continue
		}
		cmp.Estimates = append(cmp.Estimates, *est)
		if est.Method == model.MethodAnalytic {
			v := est.Value
			cmp.Reference = &v
		}
	}
	if len(cmp.Estimates) == 0 {
		return nil, fmt.Errorf("%w: no method prices %s", model.ErrUnsupported, spec)
	}
	return cmp, nil
}

// Series prices the option at each resolution with one method: tree steps for the
// lattice, path counts for the simulation. Points come back in input order.
//
// When the simulation pricer carries a seed, resolution i is priced with seed+i so that
// every point is reproducible and no two points share a random stream.
func (h *Harness) Series(ctx context.Context, params model.MarketParameters, spec model.OptionSpec, method model.Method, resolutions []int) ([]Point, error) {
	if method != model.MethodLattice && method != model.MethodSimulation {
		return nil, fmt.Errorf("%w: series method must be lattice or simulation, got %q", model.ErrInvalidParameter, method)
	}
	for _, n := range resolutions {
		if n <= 0 {
			field := "steps"
			if method == model.MethodSimulation {
				field = "n_paths"
			}
			return nil, model.InvalidParameter(field, float64(n), "must be a positive integer")
		}
	}

	points := make([]Point, len(resolutions))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(h.workers())
	for i, n := range resolutions {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			est, err := h.priceAt(params, spec, method, n, i)
			if err != nil {
				return fmt.Errorf("%s resolution %d: %w", method, n, err)
			}
			points[i] = pointFrom(est, n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

// Run builds both series plus the analytic reference. A method that cannot price the spec
// contributes an empty series.
func (h *Harness) Run(ctx context.Context, params model.MarketParameters, spec model.OptionSpec, latticeRes, simulationRes []int) (*Report, error) {
	spec = spec.Normalize()
	if err := params.ValidateForPricing(); err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	r := &Report{Params: params, Spec: spec}
	if spec.IsEuropeanVanilla() {
		v, err := h.analytic().Value(params, spec.Kind)
		if err != nil {
			return nil, err
		}
		r.Reference = &v
	}

	var err error
	if !spec.PathDependent() && len(latticeRes) > 0 {
		if r.Lattice, err = h.Series(ctx, params, spec, model.MethodLattice, latticeRes); err != nil {
			return nil, err
		}
	}
	if spec.Style != model.American && len(simulationRes) > 0 {
		if r.Simulation, err = h.Series(ctx, params, spec, model.MethodSimulation, simulationRes); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (h *Harness) priceAt(params model.MarketParameters, spec model.OptionSpec, method model.Method, n, index int) (model.PriceEstimate, error) {
	if method == model.MethodLattice {
		return h.lattice().PriceWithSteps(params, spec, n)
	}
	sim := *h.simulation()
	if sim.Seed != nil {
		sim.Seed = pricing.Seed(*sim.Seed + int64(index))
	}
	return sim.PriceWithPaths(params, spec, n)
}

func (h *Harness) analytic() *pricing.AnalyticPricer {
	if h.Analytic == nil {
		return pricing.NewAnalyticPricer()
	}
	return h.Analytic
}

// lattice and simulation let a zero Harness run with the engine defaults.
func (h *Harness) lattice() *pricing.LatticePricer {
	if h.Lattice == nil {
		return pricing.NewLatticePricer(pricing.DefaultLatticeSteps)
	}
	return h.Lattice
}

func (h *Harness) simulation() *pricing.SimulationPricer {
	if h.Simulation == nil {
		return pricing.NewSimulationPricer(pricing.DefaultSimulationPaths, true, nil)
	}
	return h.Simulation
}

func (h *Harness) workers() int {
	if h.Workers > 0 {
		return h.Workers
	}
	return runtime.GOMAXPROCS(0)
}
