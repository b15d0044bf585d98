package analysis

import (
	"math"
	"sort"

	"option-pricing/internal/convergence"
)

// Discrepancy is how far the methods of one comparison disagree.
type Discrepancy struct {
	Scenario string
	// Spread is max minus min over the method values.
	Spread float64
	// MaxAbsErr is the largest distance to the analytic reference, 0 without one.
	MaxAbsErr float64
}

// RankByDiscrepancy computes the spread per scenario and sorts descending by Spread,
// ties by name so the order is stable across runs.
func RankByDiscrepancy(byScenario map[string]*convergence.Comparison) []Discrepancy {
	out := make([]Discrepancy, 0, len(byScenario))
	for name, c := range byScenario {
		if c == nil || len(c.Estimates) == 0 {
			continue
		}
		d := Discrepancy{Scenario: name}
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, e := range c.Estimates {
			lo = math.Min(lo, e.Value)
			hi = math.Max(hi, e.Value)
			if c.Reference != nil {
				d.MaxAbsErr = math.Max(d.MaxAbsErr, math.Abs(e.Value-*c.Reference))
			}
		}
		d.Spread = hi - lo
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Spread != out[j].Spread {
			return out[i].Spread > out[j].Spread
		}
		return out[i].Scenario < out[j].Scenario
	})
	return out
}
