package convergence

import (
	"fmt"

	"option-pricing/internal/model"
)

// Scenario is a named parameter set used for side-by-side method comparisons.
type Scenario struct {
	Name   string                 `json:"name" yaml:"name"`
	Params model.MarketParameters `json:"params" yaml:"params"`
}

// Scenarios returns the standard comparison set: at, out of and in the money, high
// volatility and short maturity, all around K=100, r=5%, sigma=20%, T=1.
func Scenarios() []Scenario {
	base := model.MarketParameters{Spot: 100, Strike: 100, Maturity: 1, Rate: 0.05, Volatility: 0.2}

	otm, itm, highVol, short := base, base, base, base
	otm.Spot = 90
	itm.Spot = 110
	highVol.Volatility = 0.4
	short.Maturity = 0.25

	return []Scenario{
		{Name: "atm", Params: base},
		{Name: "otm", Params: otm},
		{Name: "itm", Params: itm},
		{Name: "high-vol", Params: highVol},
		{Name: "short-term", Params: short},
	}
}

func FindScenario(name string) (Scenario, error) {
	for _, s := range Scenarios() {
		if s.Name == name {
			return s, nil
		}
	}
	return Scenario{}, fmt.Errorf("unknown scenario %q", name)
}

// DefaultLatticeResolutions and DefaultSimulationResolutions are the step and path counts
// used when a run does not specify its own.
var (
	DefaultLatticeResolutions    = []int{10, 25, 50, 100, 200, 500}
	DefaultSimulationResolutions = []int{1000, 5000, 10000, 50000, 100000}
)
