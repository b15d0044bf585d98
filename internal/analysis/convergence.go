package analysis

import (
	"fmt"
	"math"
	"sort"

	"option-pricing/internal/convergence"
	"option-pricing/internal/model"

	"gonum.org/v1/gonum/stat"
)

// SeriesStats summarizes how a convergence series approaches the reference value.
// Callers apply their own tolerances to these numbers.
type SeriesStats struct {
	Method    model.Method
	Count     int
	Reference float64

	MinAbsErr  float64
	MaxAbsErr  float64
	MeanAbsErr float64
	P50AbsErr  float64
	P95AbsErr  float64

	// Final* describe the highest-resolution point.
	FinalResolution int
	FinalAbsErr     float64
	FinalRelErr     float64

	// Coverage is the share of points whose confidence interval contains the reference.
	// Nil when the series carries no intervals (lattice).
	Coverage *float64
	// Improved reports whether the final point is closer to the reference than the first.
	Improved bool
}

func ComputeSeriesStats(method model.Method, points []convergence.Point, reference float64) (SeriesStats, error) {
	s := SeriesStats{Method: method, Count: len(points), Reference: reference}
	if len(points) == 0 {
		return s, fmt.Errorf("empty %s series", method)
	}
	if reference == 0 || math.IsNaN(reference) || math.IsInf(reference, 0) {
		return s, fmt.Errorf("reference value %g cannot anchor relative errors", reference)
	}

	errs := make([]float64, len(points))
	withCI, covered := 0, 0
	for i, p := range points {
		errs[i] = math.Abs(p.Value - reference)
		if p.CI != nil {
			withCI++
			if p.CI.Contains(reference) {
				covered++
			}
		}
	}

	// Highest resolution, not last position: callers may pass unsorted resolutions.
	final := 0
	for i, p := range points {
		if p.Resolution >= points[final].Resolution {
			final = i
		}
	}
	s.FinalResolution = points[final].Resolution
	s.FinalAbsErr = errs[final]
	s.FinalRelErr = errs[final] / math.Abs(reference)
	s.Improved = errs[final] < errs[0] || len(points) == 1

	s.MeanAbsErr = stat.Mean(errs, nil)
	sorted := append([]float64(nil), errs...)
	sort.Float64s(sorted)
	s.MinAbsErr = sorted[0]
	s.MaxAbsErr = sorted[len(sorted)-1]
	s.P50AbsErr = stat.Quantile(0.5, stat.LinInterp, sorted, nil)
	s.P95AbsErr = stat.Quantile(0.95, stat.LinInterp, sorted, nil)

	if withCI > 0 {
		c := float64(covered) / float64(withCI)
		s.Coverage = &c
	}
	return s, nil
}

// ReportStats computes stats for every non-empty series of a report with a reference.
func ReportStats(r *convergence.Report) ([]SeriesStats, error) {
	if r.Reference == nil {
		return nil, fmt.Errorf("report for %s has no analytic reference", r.Spec)
	}
	var out []SeriesStats
	for _, s := range []struct {
		method model.Method
		points []convergence.Point
	}{
		{model.MethodLattice, r.Lattice},
		{model.MethodSimulation, r.Simulation},
	} {
		if len(s.points) == 0 {
			continue
		}
		st, err := ComputeSeriesStats(s.method, s.points, *r.Reference)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}
