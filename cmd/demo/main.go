package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"option-pricing/internal/config"
	"option-pricing/internal/convergence"
	"option-pricing/internal/model"
	"option-pricing/internal/pricing"
)

// Demo:
// - Price every standard scenario with all three engines side by side
// - Show the early exercise premium of an American put on the lattice
// - Price the path-dependent contracts only simulation supports
func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (optional)")
	seed := flag.Int64("seed", 42, "Simulation seed")
	paths := flag.Int("paths", 100_000, "Simulation paths")
	steps := flag.Int("steps", 500, "Lattice steps")
	outCSV := flag.String("out", "", "Optional path to write the American put convergence CSV (e.g. results/american.csv)")
	flag.Parse()

	ctx := context.Background()

	lattice := pricing.NewLatticePricer(*steps)
	sim := pricing.NewSimulationPricer(*paths, true, pricing.Seed(*seed))
	americanPut := model.OptionSpec{Kind: model.Put, Style: model.American, Payoff: model.Vanilla}
	american := convergence.Scenarios()[0].Params

	if *cfgPath != "" {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			panic(err)
		}
		lattice = cfg.LatticePricer()
		sim = cfg.SimulationPricer()
		american, err = cfg.ResolveMarket(ctx, cfg.VolatilityProvider())
		if err != nil {
			panic(err)
		}
	}
	h := convergence.New(lattice, sim)

	fmt.Printf("European call, lattice steps=%d, simulation paths=%d (antithetic, seed=%d)\n\n", lattice.Steps, sim.Paths, *seed)
	fmt.Printf("%-12s %-10s %-10s %-10s %-24s %-10s\n", "scenario", "analytic", "lattice", "mc", "mc 95% ci", "lat err")
	for _, s := range convergence.Scenarios() {
		cmp, err := h.Compare(ctx, s.Params, model.EuropeanVanilla(model.Call))
		if err != nil {
			panic(err)
		}
		lat, _ := cmp.Estimate(model.MethodLattice)
		mc, _ := cmp.Estimate(model.MethodSimulation)
		ci := "-"
		if mc.CI != nil {
			ci = fmt.Sprintf("[%.4f, %.4f]", mc.CI.Low, mc.CI.High)
		}
		fmt.Printf("%-12s %-10.4f %-10.4f %-10.4f %-24s %-10.2e\n",
			s.Name, *cmp.Reference, lat.Value, mc.Value, ci, math.Abs(lat.Value-*cmp.Reference))
	}

	euroPut, err := pricing.NewAnalyticPricer().Value(american, model.Put)
	if err != nil {
		panic(err)
	}
	amPut, err := lattice.Price(american, americanPut)
	if err != nil {
		panic(err)
	}
	premium, err := lattice.EarlyExercisePremium(american, model.Put, lattice.Steps)
	if err != nil {
		panic(err)
	}
	fmt.Printf("\nAmerican put S=%.0f K=%.0f: lattice=%.4f  european (BS)=%.4f  early exercise premium=%.4f\n",
		american.Spot, american.Strike, amPut.Value, euroPut, premium)

	fmt.Println("\nPath-dependent calls (simulation only):")
	for _, spec := range []model.OptionSpec{
		{Kind: model.Call, Style: model.European, Payoff: model.Asian},
		{Kind: model.Call, Style: model.European, Payoff: model.Barrier, Barrier: 130},
	} {
		est, err := sim.Price(american, spec)
		if err != nil {
			panic(err)
		}
		fmt.Printf("  %-36s value=%.4f stderr=%.4f\n", spec, est.Value, *est.StdErr)
	}

	if *outCSV != "" {
		report, err := h.Run(ctx, american, americanPut, convergence.DefaultLatticeResolutions, nil)
		if err != nil {
			panic(err)
		}
		if err := os.MkdirAll(filepath.Dir(*outCSV), 0o755); err != nil {
			panic(err)
		}
		if err := convergence.WriteReportCSV(*outCSV, report); err != nil {
			panic(err)
		}
		fmt.Printf("\nWrote CSV: %s\n", *outCSV)
	}

	fmt.Println("\nDone.")
}
