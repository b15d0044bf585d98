package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"option-pricing/internal/analysis"
	"option-pricing/internal/config"
	"option-pricing/internal/convergence"
	"option-pricing/internal/model"
	"option-pricing/internal/pricing"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch os.Args[1] {
	case "price":
		cmdPrice(ctx, os.Args[2:])
	case "greeks":
		cmdGreeks(ctx, os.Args[2:])
	case "iv":
		cmdImpliedVol(ctx, os.Args[2:])
	case "compare":
		cmdCompare(ctx, os.Args[2:])
	case "converge":
		cmdConverge(ctx, os.Args[2:])
	case "scenarios":
		cmdScenarios(ctx, os.Args[2:])
	case "vol":
		cmdVol(ctx, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli price --config examples/config.yaml --method lattice")
	fmt.Println("  cli price --scenario otm --kind put --method simulation --paths 200000 --seed 42")
	fmt.Println("  cli greeks --spot 100 --strike 105 --maturity 0.5 --rate 0.03 --vol 0.25")
	fmt.Println("  cli iv --scenario atm --market-price 10.45")
	fmt.Println("  cli compare --config examples/config.yaml")
	fmt.Println("  cli converge --config examples/config.yaml --out results/convergence.csv")
	fmt.Println("  cli scenarios --kind call --paths 50000 --seed 1")
	fmt.Println("  cli vol --ticker AAPL --provider file --dir data/closes")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - market flags override --config and --scenario; --scenario takes a preset name or a YAML path")
	fmt.Println("  - with market volatility 0 the configured volatility provider supplies sigma")
	fmt.Println("  - converge writes CSV with one row per (method, resolution) and the absolute error vs Black-Scholes")
}

// optionFlags are the market, contract and engine flags shared by the pricing commands.
type optionFlags struct {
	cfgPath  *string
	scenario *string

	spot     *float64
	strike   *float64
	maturity *float64
	rate     *float64
	vol      *float64

	kind    *string
	style   *string
	payoff  *string
	barrier *float64

	steps        *int
	paths        *int
	timeSteps    *int
	noAntithetic *bool
	confidence   *float64
	seed         *int64
	workers      *int
}

func registerOptionFlags(fs *flag.FlagSet) *optionFlags {
	return &optionFlags{
		cfgPath:  fs.String("config", "", "Path to YAML config"),
		scenario: fs.String("scenario", "", "Scenario preset name (atm, otm, itm, high-vol, short-term) or YAML path"),

		spot:     fs.Float64("spot", 0, "Spot price"),
		strike:   fs.Float64("strike", 0, "Strike price"),
		maturity: fs.Float64("maturity", 0, "Time to expiry in years"),
		rate:     fs.Float64("rate", 0, "Continuously compounded risk-free rate"),
		vol:      fs.Float64("vol", 0, "Annualized volatility"),

		kind:    fs.String("kind", "", "call or put"),
		style:   fs.String("style", "", "european or american"),
		payoff:  fs.String("payoff", "", "vanilla, asian or barrier"),
		barrier: fs.Float64("barrier", 0, "Up-and-out barrier level"),

		steps:        fs.Int("steps", 0, "Lattice steps"),
		paths:        fs.Int("paths", 0, "Simulation paths"),
		timeSteps:    fs.Int("time-steps", 0, "Simulation monitoring dates for path-dependent payoffs"),
		noAntithetic: fs.Bool("no-antithetic", false, "Disable antithetic variates"),
		confidence:   fs.Float64("confidence", 0, "Confidence level of the simulation interval"),
		seed:         fs.Int64("seed", 0, "Simulation seed (unset draws one from the clock)"),
		workers:      fs.Int("workers", 0, "Concurrent pricing calls (0=GOMAXPROCS)"),
	}
}

// load builds the config: --config (or the atm preset), then --scenario, then any
// explicitly set flag.
func (f *optionFlags) load(fs *flag.FlagSet) (*config.Config, error) {
	cfg := &config.Config{}
	if *f.cfgPath != "" {
		loaded, err := config.LoadUnchecked(*f.cfgPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if *f.scenario == "" {
		*f.scenario = "atm"
	}

	if *f.scenario != "" {
		market, err := scenarioMarket(*f.scenario)
		if err != nil {
			return nil, err
		}
		cfg.Market = market
	}

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "spot":
			cfg.Market.Spot = *f.spot
		case "strike":
			cfg.Market.Strike = *f.strike
		case "maturity":
			cfg.Market.Maturity = *f.maturity
		case "rate":
			cfg.Market.Rate = *f.rate
		case "vol":
			cfg.Market.Volatility = *f.vol
		case "kind":
			cfg.Option.Kind = *f.kind
		case "style":
			cfg.Option.Style = *f.style
		case "payoff":
			cfg.Option.Payoff = *f.payoff
		case "barrier":
			cfg.Option.Barrier = *f.barrier
		case "steps":
			cfg.Lattice.Steps = *f.steps
		case "paths":
			cfg.Simulation.Paths = *f.paths
		case "time-steps":
			cfg.Simulation.TimeSteps = *f.timeSteps
		case "no-antithetic":
			on := !*f.noAntithetic
			cfg.Simulation.Antithetic = &on
		case "confidence":
			cfg.Simulation.Confidence = *f.confidence
		case "seed":
			cfg.Simulation.Seed = f.seed
		case "workers":
			cfg.Convergence.Workers = *f.workers
		}
	})

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func scenarioMarket(s string) (config.MarketConfig, error) {
	if strings.HasSuffix(s, ".yaml") || strings.HasSuffix(s, ".yml") {
		return config.LoadScenarioFile(s)
	}
	sc, err := convergence.FindScenario(s)
	if err != nil {
		return config.MarketConfig{}, err
	}
	p := sc.Params
	return config.MarketConfig{
		Name:       sc.Name,
		Spot:       p.Spot,
		Strike:     p.Strike,
		Maturity:   p.Maturity,
		Rate:       p.Rate,
		Volatility: p.Volatility,
	}, nil
}

// setup parses args and resolves everything a pricing command needs.
func setup(ctx context.Context, fs *flag.FlagSet, f *optionFlags, args []string) (*config.Config, model.MarketParameters, model.OptionSpec) {
	_ = fs.Parse(args)
	cfg, err := f.load(fs)
	if err != nil {
		fail(err)
	}
	params, err := cfg.ResolveMarket(ctx, cfg.VolatilityProvider())
	if err != nil {
		fail(err)
	}
	spec, err := cfg.OptionSpec()
	if err != nil {
		fail(err)
	}
	return cfg, params, spec
}

func cmdPrice(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("price", flag.ExitOnError)
	f := registerOptionFlags(fs)
	methodName := fs.String("method", "analytic", "analytic, lattice or simulation")
	cfg, params, spec := setup(ctx, fs, f, args)

	method, ok := model.ParseMethod(*methodName)
	if !ok {
		fail(fmt.Errorf("unknown method %q", *methodName))
	}
	var p pricing.Pricer
	switch method {
	case model.MethodAnalytic:
		p = pricing.NewAnalyticPricer()
	case model.MethodLattice:
		p = cfg.LatticePricer()
	default:
		p = cfg.SimulationPricer()
	}

	est, err := p.Price(params, spec)
	if err != nil {
		fail(err)
	}
	printParams(params, spec)
	printEstimate(est)

	if method == model.MethodLattice && spec.Style == model.American {
		premium, err := cfg.LatticePricer().EarlyExercisePremium(params, spec.Kind, cfg.Lattice.Steps)
		if err != nil {
			fail(err)
		}
		fmt.Printf("early exercise premium=%.6f\n", premium)
	}
}

func cmdGreeks(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("greeks", flag.ExitOnError)
	f := registerOptionFlags(fs)
	_, params, spec := setup(ctx, fs, f, args)

	a := pricing.NewAnalyticPricer()
	price, err := a.Value(params, spec.Kind)
	if err != nil {
		fail(err)
	}
	g, err := a.Greeks(params, spec.Kind)
	if err != nil {
		fail(err)
	}
	printParams(params, model.EuropeanVanilla(spec.Kind))
	fmt.Printf("%-6s %12.6f\n", "price", price)
	values := g.Map()
	for _, name := range []string{"delta", "gamma", "theta", "vega", "rho"} {
		fmt.Printf("%-6s %12.6f\n", name, values[name])
	}
}

func cmdImpliedVol(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("iv", flag.ExitOnError)
	f := registerOptionFlags(fs)
	marketPrice := fs.Float64("market-price", 0, "Observed option price")
	_ = fs.Parse(args)
	if *marketPrice <= 0 {
		fmt.Println("--market-price is required")
		os.Exit(2)
	}
	cfg, err := f.load(fs)
	if err != nil {
		fail(err)
	}
	spec, err := cfg.OptionSpec()
	if err != nil {
		fail(err)
	}

	iv, err := pricing.NewAnalyticPricer().ImpliedVolatility(cfg.MarketParameters(), spec.Kind, *marketPrice)
	if err != nil {
		fail(err)
	}
	fmt.Printf("%s market price=%.6f implied vol=%.6f\n", spec.Kind, *marketPrice, iv)
}

func cmdCompare(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	f := registerOptionFlags(fs)
	csvPath := fs.String("out", "", "Optional CSV output path")
	cfg, params, spec := setup(ctx, fs, f, args)

	cmp, err := cfg.Harness().Compare(ctx, params, spec)
	if err != nil {
		fail(err)
	}
	printParams(params, spec)
	for _, est := range cmp.Estimates {
		printEstimate(est)
	}

	if *csvPath != "" {
		if err := os.MkdirAll(filepath.Dir(*csvPath), 0o755); err != nil {
			fail(err)
		}
		out, err := os.Create(*csvPath)
		if err != nil {
			fail(err)
		}
		defer out.Close()
		if err := convergence.ComparisonCSV(out, cmp); err != nil {
			fail(err)
		}
		fmt.Printf("Wrote %d rows to %s\n", len(cmp.Estimates), *csvPath)
	}
}

func cmdConverge(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("converge", flag.ExitOnError)
	f := registerOptionFlags(fs)
	outPath := fs.String("out", "results/convergence.csv", "Output CSV path")
	cfg, params, spec := setup(ctx, fs, f, args)

	report, err := cfg.Harness().Run(ctx, params, spec, cfg.Convergence.LatticeResolutions, cfg.Convergence.SimulationResolutions)
	if err != nil {
		fail(err)
	}

	printParams(params, spec)
	if report.Reference != nil {
		fmt.Printf("reference (analytic)=%.6f\n", *report.Reference)
	}
	fmt.Printf("%-10s %-10s %-12s %-10s %-25s\n", "method", "n", "value", "stderr", "ci")
	for _, s := range []struct {
		method model.Method
		points []convergence.Point
	}{
		{model.MethodLattice, report.Lattice},
		{model.MethodSimulation, report.Simulation},
	} {
		for _, p := range s.points {
			stderr, ci := "-", "-"
			if p.StdErr != nil {
				stderr = fmt.Sprintf("%.6f", *p.StdErr)
			}
			if p.CI != nil {
				ci = fmt.Sprintf("[%.6f, %.6f]", p.CI.Low, p.CI.High)
			}
			fmt.Printf("%-10s %-10d %-12.6f %-10s %-25s\n", s.method, p.Resolution, p.Value, stderr, ci)
		}
	}

	if report.Reference != nil {
		stats, err := analysis.ReportStats(report)
		if err != nil {
			fmt.Printf("stats skipped: %v\n", err)
		}
		for _, st := range stats {
			line := fmt.Sprintf("%s: final n=%d abs err=%.6f rel err=%.4f%% improved=%v",
				st.Method, st.FinalResolution, st.FinalAbsErr, 100*st.FinalRelErr, st.Improved)
			if st.Coverage != nil {
				line += fmt.Sprintf(" ci coverage=%.0f%%", 100*(*st.Coverage))
			}
			fmt.Println(line)
		}
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		fail(err)
	}
	if err := convergence.WriteReportCSV(*outPath, report); err != nil {
		fail(err)
	}
	fmt.Printf("Wrote %d rows to %s\n", len(report.Lattice)+len(report.Simulation), *outPath)
}

func cmdScenarios(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("scenarios", flag.ExitOnError)
	f := registerOptionFlags(fs)
	_ = fs.Parse(args)
	cfg, err := f.load(fs)
	if err != nil {
		fail(err)
	}
	spec, err := cfg.OptionSpec()
	if err != nil {
		fail(err)
	}
	h := cfg.Harness()

	byScenario := map[string]*convergence.Comparison{}
	for _, s := range convergence.Scenarios() {
		cmp, err := h.Compare(ctx, s.Params, spec)
		if err != nil {
			fail(fmt.Errorf("scenario %s: %w", s.Name, err))
		}
		byScenario[s.Name] = cmp
	}

	fmt.Printf("%-4s %-12s %-10s %-10s %-10s %-10s %-10s\n", "rank", "scenario", "analytic", "lattice", "mc", "spread", "max|err|")
	for i, d := range analysis.RankByDiscrepancy(byScenario) {
		cmp := byScenario[d.Scenario]
		fmt.Printf("%-4d %-12s %-10s %-10s %-10s %-10.6f %-10.6f\n",
			i+1,
			d.Scenario,
			column(cmp, model.MethodAnalytic),
			column(cmp, model.MethodLattice),
			column(cmp, model.MethodSimulation),
			d.Spread,
			d.MaxAbsErr,
		)
	}
}

func cmdVol(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("vol", flag.ExitOnError)
	ticker := fs.String("ticker", "", "Ticker symbol")
	lookback := fs.Int("lookback", 252, "Lookback window in calendar days")
	provider := fs.String("provider", "bars", "bars (market data API) or file")
	dir := fs.String("dir", "data/closes", "Closes directory for the file provider")
	baseURL := fs.String("base-url", "", "Market data base URL override")
	_ = fs.Parse(args)

	if *ticker == "" {
		fmt.Println("--ticker is required")
		os.Exit(2)
	}
	cfg := &config.Config{Volatility: config.VolatilityConfig{
		Provider:     *provider,
		Ticker:       *ticker,
		LookbackDays: *lookback,
		ClosesDir:    *dir,
		BaseURL:      *baseURL,
	}}
	p := cfg.VolatilityProvider()
	if p == nil {
		fail(fmt.Errorf("unknown provider %q", *provider))
	}
	vol, ok := p.HistoricalVolatility(ctx, strings.ToUpper(*ticker), *lookback)
	if !ok {
		fail(fmt.Errorf("no historical volatility for %s; supply --vol directly", *ticker))
	}
	fmt.Printf("%s %d-day historical volatility=%.4f\n", strings.ToUpper(*ticker), *lookback, vol)
}

func column(cmp *convergence.Comparison, method model.Method) string {
	est, ok := cmp.Estimate(method)
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.6f", est.Value)
}

func printParams(p model.MarketParameters, spec model.OptionSpec) {
	fmt.Printf("%s S=%.2f K=%.2f T=%.4f r=%.4f sigma=%.4f\n", spec, p.Spot, p.Strike, p.Maturity, p.Rate, p.Volatility)
}

func printEstimate(est model.PriceEstimate) {
	line := fmt.Sprintf("%-10s value=%.6f", est.Method, est.Value)
	if est.Resolution > 0 {
		line += fmt.Sprintf(" n=%d", est.Resolution)
	}
	if est.StdErr != nil {
		line += fmt.Sprintf(" stderr=%.6f", *est.StdErr)
	}
	if est.CI != nil {
		line += fmt.Sprintf(" ci=[%.6f, %.6f]", est.CI.Low, est.CI.High)
	}
	if est.Seed != nil {
		line += fmt.Sprintf(" seed=%d", *est.Seed)
	}
	fmt.Println(line)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
