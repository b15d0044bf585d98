package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"option-pricing/internal/convergence"
	"option-pricing/internal/data"
	"option-pricing/internal/model"
	"option-pricing/internal/pricing"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Optional: load market parameters from a separate YAML (e.g. examples/scenarios/*.yaml).
	// If both ScenarioFile and Market are provided, Market overrides ScenarioFile.
	ScenarioFile string            `yaml:"scenario_file"`
	Market       MarketConfig      `yaml:"market"`
	Option       OptionConfig      `yaml:"option"`
	Lattice      LatticeConfig     `yaml:"lattice"`
	Simulation   SimulationConfig  `yaml:"simulation"`
	Convergence  ConvergenceConfig `yaml:"convergence"`
	Volatility   VolatilityConfig  `yaml:"volatility"`
}

type MarketConfig struct {
	Name       string  `yaml:"name"`
	Spot       float64 `yaml:"spot"`
	Strike     float64 `yaml:"strike"`
	Maturity   float64 `yaml:"maturity"`
	Rate       float64 `yaml:"rate"`
	Volatility float64 `yaml:"volatility"`
}

type OptionConfig struct {
	Kind    string  `yaml:"kind"`
	Style   string  `yaml:"style"`
	Payoff  string  `yaml:"payoff"`
	Barrier float64 `yaml:"barrier"`
}

type LatticeConfig struct {
	Steps int `yaml:"steps"`
}

type SimulationConfig struct {
	Paths      int     `yaml:"paths"`
	TimeSteps  int     `yaml:"time_steps"`
	Antithetic *bool   `yaml:"antithetic"`
	Confidence float64 `yaml:"confidence"`
	Seed       *int64  `yaml:"seed"`
}

type ConvergenceConfig struct {
	LatticeResolutions    []int `yaml:"lattice_resolutions"`
	SimulationResolutions []int `yaml:"simulation_resolutions"`
	Workers               int   `yaml:"workers"`
}

// VolatilityConfig selects where sigma comes from when market.volatility is left at 0.
type VolatilityConfig struct {
	// Provider is "bars" (HTTP) or "file" (closes_dir). Empty disables lookups.
	Provider     string `yaml:"provider"`
	Ticker       string `yaml:"ticker"`
	LookbackDays int    `yaml:"lookback_days"`
	ClosesDir    string `yaml:"closes_dir"`
	BaseURL      string `yaml:"base_url"`
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not apply defaults or validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	if c.ScenarioFile != "" {
		scenarioPath := c.ScenarioFile
		if !filepath.IsAbs(scenarioPath) {
			// Relative to the config file first, then to the working directory.
			cand := filepath.Join(filepath.Dir(path), scenarioPath)
			if _, err := os.Stat(cand); err == nil {
				scenarioPath = cand
			}
		}
		loaded, err := LoadScenarioFile(scenarioPath)
		if err != nil {
			return nil, err
		}
		c.Market = MergeMarket(loaded, c.Market)
	}
	return &c, nil
}

// ApplyDefaults fills every unset engine setting.
func (c *Config) ApplyDefaults() {
	if c.Option.Kind == "" {
		c.Option.Kind = string(model.Call)
	}
	if c.Lattice.Steps == 0 {
		c.Lattice.Steps = pricing.DefaultLatticeSteps
	}
	if c.Simulation.Paths == 0 {
		c.Simulation.Paths = pricing.DefaultSimulationPaths
	}
	if c.Simulation.TimeSteps == 0 {
		c.Simulation.TimeSteps = pricing.DefaultTimeSteps
	}
	if c.Simulation.Antithetic == nil {
		on := true
		c.Simulation.Antithetic = &on
	}
	if c.Simulation.Confidence == 0 {
		c.Simulation.Confidence = pricing.DefaultConfidence
	}
	if len(c.Convergence.LatticeResolutions) == 0 {
		c.Convergence.LatticeResolutions = append([]int(nil), convergence.DefaultLatticeResolutions...)
	}
	if len(c.Convergence.SimulationResolutions) == 0 {
		c.Convergence.SimulationResolutions = append([]int(nil), convergence.DefaultSimulationResolutions...)
	}
	if c.Volatility.LookbackDays == 0 {
		c.Volatility.LookbackDays = defaultLookbackDays
	}
}

const defaultLookbackDays = 252

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := c.MarketParameters().Validate(); err != nil {
		return fmt.Errorf("market config invalid: %w", err)
	}
	if c.Market.Volatility == 0 && c.Volatility.Provider == "" {
		return errors.New("market.volatility is 0 and no volatility.provider is configured")
	}
	if _, err := c.OptionSpec(); err != nil {
		return fmt.Errorf("option config invalid: %w", err)
	}
	if c.Lattice.Steps <= 0 {
		return errors.New("lattice.steps must be positive")
	}
	if c.Simulation.Paths <= 0 {
		return errors.New("simulation.paths must be positive")
	}
	if c.Simulation.TimeSteps <= 0 {
		return errors.New("simulation.time_steps must be positive")
	}
	if !(c.Simulation.Confidence > 0 && c.Simulation.Confidence < 1) {
		return fmt.Errorf("simulation.confidence %g must be in (0,1)", c.Simulation.Confidence)
	}
	for _, n := range c.Convergence.LatticeResolutions {
		if n <= 0 {
			return fmt.Errorf("convergence.lattice_resolutions: %d is not positive", n)
		}
	}
	for _, n := range c.Convergence.SimulationResolutions {
		if n <= 0 {
			return fmt.Errorf("convergence.simulation_resolutions: %d is not positive", n)
		}
	}
	switch c.Volatility.Provider {
	case "":
	case "bars", "file":
		if c.Volatility.Ticker == "" {
			return errors.New("volatility.ticker is required when a provider is set")
		}
		if c.Volatility.Provider == "file" && c.Volatility.ClosesDir == "" {
			return errors.New("volatility.closes_dir is required for the file provider")
		}
	default:
		return fmt.Errorf("unknown volatility.provider %q (want bars or file)", c.Volatility.Provider)
	}
	return nil
}

func (c *Config) MarketParameters() model.MarketParameters {
	return c.Market.ToModel()
}

func (m MarketConfig) ToModel() model.MarketParameters {
	return model.MarketParameters{
		Spot:       m.Spot,
		Strike:     m.Strike,
		Maturity:   m.Maturity,
		Rate:       m.Rate,
		Volatility: m.Volatility,
	}
}

func (c *Config) OptionSpec() (model.OptionSpec, error) {
	kind, err := model.ParseKind(c.Option.Kind)
	if err != nil {
		return model.OptionSpec{}, err
	}
	style, err := model.ParseStyle(c.Option.Style)
	if err != nil {
		return model.OptionSpec{}, err
	}
	payoff, err := model.ParsePayoff(c.Option.Payoff)
	if err != nil {
		return model.OptionSpec{}, err
	}
	spec := model.OptionSpec{Kind: kind, Style: style, Payoff: payoff, Barrier: c.Option.Barrier}
	return spec, spec.Validate()
}

func (c *Config) LatticePricer() *pricing.LatticePricer {
	return pricing.NewLatticePricer(c.Lattice.Steps)
}

func (c *Config) SimulationPricer() *pricing.SimulationPricer {
	antithetic := c.Simulation.Antithetic == nil || *c.Simulation.Antithetic
	s := pricing.NewSimulationPricer(c.Simulation.Paths, antithetic, c.Simulation.Seed)
	if c.Simulation.TimeSteps > 0 {
		s.TimeSteps = c.Simulation.TimeSteps
	}
	if c.Simulation.Confidence > 0 {
		s.Confidence = c.Simulation.Confidence
	}
	return s
}

func (c *Config) Harness() *convergence.Harness {
	h := convergence.New(c.LatticePricer(), c.SimulationPricer())
	h.Workers = c.Convergence.Workers
	return h
}

// VolatilityProvider builds the configured provider, nil when none is set. The bars
// provider reads its credentials from APCA_API_KEY_ID and APCA_API_SECRET_KEY.
func (c *Config) VolatilityProvider() data.VolatilityProvider {
	switch c.Volatility.Provider {
	case "bars":
		opts := []data.BarsClientOption{data.WithCache(data.GetCache())}
		if c.Volatility.BaseURL != "" {
			opts = append(opts, data.WithBaseURL(c.Volatility.BaseURL))
		}
		return data.NewBarsClient(os.Getenv("APCA_API_KEY_ID"), os.Getenv("APCA_API_SECRET_KEY"), opts...)
	case "file":
		return &data.FileVolatilityProvider{Dir: c.Volatility.ClosesDir}
	default:
		return nil
	}
}

// ResolveMarket returns the market parameters, filling a zero volatility from the
// provider. An explicit market.volatility always wins.
func (c *Config) ResolveMarket(ctx context.Context, provider data.VolatilityProvider) (model.MarketParameters, error) {
	params := c.MarketParameters()
	if params.Volatility != 0 {
		return params, nil
	}
	if provider == nil {
		return params, errors.New("market.volatility is 0 and no volatility provider is available")
	}
	vol, ok := provider.HistoricalVolatility(ctx, c.Volatility.Ticker, c.Volatility.LookbackDays)
	if !ok {
		return params, fmt.Errorf("no historical volatility for %s; set market.volatility", c.Volatility.Ticker)
	}
	return params.WithVolatility(vol), nil
}

type scenarioFileWrapper struct {
	Market MarketConfig `yaml:"market"`
}

// LoadScenarioFile reads the market block of a scenario preset.
func LoadScenarioFile(path string) (MarketConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return MarketConfig{}, err
	}
	var w scenarioFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return MarketConfig{}, err
	}
	return w.Market, nil
}

// MergeMarket overlays non-zero fields from override onto base.
// Rate 0 cannot override a non-zero scenario rate; set it in the scenario file instead.
func MergeMarket(base, override MarketConfig) MarketConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.Spot != 0 {
		out.Spot = override.Spot
	}
	if override.Strike != 0 {
		out.Strike = override.Strike
	}
	if override.Maturity != 0 {
		out.Maturity = override.Maturity
	}
	if override.Rate != 0 {
		out.Rate = override.Rate
	}
	if override.Volatility != 0 {
		out.Volatility = override.Volatility
	}
	return out
}
