package pricing

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"option-pricing/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulation_ConvergesToAnalytic(t *testing.T) {
	a := NewAnalyticPricer()
	for _, kind := range []model.Kind{model.Call, model.Put} {
		ref, err := a.Value(atm(), kind)
		require.NoError(t, err)

		s := NewSimulationPricer(200000, true, Seed(42))
		est, err := s.Price(atm(), model.EuropeanVanilla(kind))
		require.NoError(t, err)
		require.NotNil(t, est.StdErr)
		require.NotNil(t, est.CI)

		assert.InDelta(t, ref, est.Value, 0.1, "kind=%s", kind)
		assert.Less(t, math.Abs(est.Value-ref), 4*(*est.StdErr))
		assert.InDelta(t, est.Value, 0.5*(est.CI.Low+est.CI.High), 1e-9)
		assert.Equal(t, 200000, est.Resolution)
		require.NotNil(t, est.Seed)
		assert.EqualValues(t, 42, *est.Seed)
	}
}

func TestSimulation_StdErrShrinksWithPaths(t *testing.T) {
	small, err := NewSimulationPricer(1000, false, Seed(7)).Price(atm(), model.EuropeanVanilla(model.Call))
	require.NoError(t, err)
	large, err := NewSimulationPricer(100000, false, Seed(7)).Price(atm(), model.EuropeanVanilla(model.Call))
	require.NoError(t, err)

	// stderr ~ 1/sqrt(n): 100x the paths is roughly a tenth of the error.
	ratio := *small.StdErr / *large.StdErr
	assert.InDelta(t, 10, ratio, 1.5)
}

func TestSimulation_SeedIsReproducible(t *testing.T) {
	spec := model.OptionSpec{Kind: model.Call, Payoff: model.Asian}
	s := NewSimulationPricer(2000, true, Seed(99))
	s.TimeSteps = 50

	first, err := s.Price(atm(), spec)
	require.NoError(t, err)
	second, err := s.Price(atm(), spec)
	require.NoError(t, err)
	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, *first.StdErr, *second.StdErr)

	s.Seed = Seed(100)
	third, err := s.Price(atm(), spec)
	require.NoError(t, err)
	assert.NotEqual(t, first.Value, third.Value)
}

func TestSimulation_ConcurrentCallsAreIndependent(t *testing.T) {
	s := NewSimulationPricer(5000, false, Seed(3))
	want, err := s.Price(atm(), model.EuropeanVanilla(model.Put))
	require.NoError(t, err)

	var wg sync.WaitGroup
	got := make([]float64, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			est, err := s.Price(atm(), model.EuropeanVanilla(model.Put))
			if err == nil {
				got[i] = est.Value
			}
		}(i)
	}
	wg.Wait()
	for _, v := range got {
		assert.Equal(t, want.Value, v)
	}
}

func TestSimulation_AntitheticReducesStdErr(t *testing.T) {
	ref, err := NewAnalyticPricer().Value(atm(), model.Call)
	require.NoError(t, err)

	// Equal payoff evaluations: 20000 plain draws vs 10000 antithetic pairs.
	plain, err := NewSimulationPricer(20000, false, Seed(11)).Price(atm(), model.EuropeanVanilla(model.Call))
	require.NoError(t, err)
	anti, err := NewSimulationPricer(10000, true, Seed(11)).Price(atm(), model.EuropeanVanilla(model.Call))
	require.NoError(t, err)

	assert.Less(t, *anti.StdErr, *plain.StdErr)
	// Same target either way.
	assert.Less(t, math.Abs(anti.Value-ref), 4*(*anti.StdErr))
	assert.Less(t, math.Abs(plain.Value-ref), 4*(*plain.StdErr))
}

// TestSimulation_ConfidenceIntervalCalibration checks that a nominal 95% interval covers
// the analytic value in at least 94% of independent runs.
func TestSimulation_ConfidenceIntervalCalibration(t *testing.T) {
	if testing.Short() {
		t.Skip("statistical calibration run")
	}
	ref, err := NewAnalyticPricer().Value(atm(), model.Call)
	require.NoError(t, err)

	const runs = 4000
	covered := 0
	for i := 0; i < runs; i++ {
		s := NewSimulationPricer(2000, true, Seed(int64(1000+i)))
		est, err := s.Price(atm(), model.EuropeanVanilla(model.Call))
		require.NoError(t, err)
		if est.CI.Contains(ref) {
			covered++
		}
	}
	coverage := float64(covered) / runs
	assert.GreaterOrEqual(t, coverage, 0.94)
	assert.LessOrEqual(t, coverage, 0.97)
}

func TestSimulation_ConfidenceLevelWidensInterval(t *testing.T) {
	s := NewSimulationPricer(10000, false, Seed(5))
	s.Confidence = 0.90
	narrow, err := s.Price(atm(), model.EuropeanVanilla(model.Call))
	require.NoError(t, err)
	s.Confidence = 0.99
	wide, err := s.Price(atm(), model.EuropeanVanilla(model.Call))
	require.NoError(t, err)

	assert.Greater(t, wide.CI.Width(), narrow.CI.Width())
	assert.InDelta(t, 2*1.644854*(*narrow.StdErr), narrow.CI.Width(), 1e-5)
	assert.InDelta(t, 2*2.575829*(*wide.StdErr), wide.CI.Width(), 1e-5)
}

func TestSimulation_AsianBelowVanilla(t *testing.T) {
	vanilla, err := NewAnalyticPricer().Value(atm(), model.Call)
	require.NoError(t, err)

	s := NewSimulationPricer(20000, true, Seed(21))
	est, err := s.Price(atm(), model.OptionSpec{Kind: model.Call, Payoff: model.Asian})
	require.NoError(t, err)

	// Averaging lowers the effective volatility; this is a smoke check, not a law of equality.
	assert.Greater(t, est.Value, 4.5)
	assert.Less(t, est.Value, vanilla)
}

func TestSimulation_BarrierKnockOut(t *testing.T) {
	s := NewSimulationPricer(20000, true, Seed(8))
	s.TimeSteps = 100

	vanilla, err := s.Price(atm(), model.EuropeanVanilla(model.Call))
	require.NoError(t, err)

	knocked, err := s.Price(atm(), model.OptionSpec{Kind: model.Call, Payoff: model.Barrier, Barrier: 110})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, knocked.Value, 0.0)
	assert.Less(t, knocked.Value, vanilla.Value)

	// Spot already at the barrier: every path is knocked out.
	dead, err := s.Price(atm(), model.OptionSpec{Kind: model.Call, Payoff: model.Barrier, Barrier: 100})
	require.NoError(t, err)
	assert.Equal(t, 0.0, dead.Value)

	// An unreachable barrier leaves the vanilla payoff.
	far, err := s.Price(atm(), model.OptionSpec{Kind: model.Call, Payoff: model.Barrier, Barrier: 1e9})
	require.NoError(t, err)
	ref, err := NewAnalyticPricer().Value(atm(), model.Call)
	require.NoError(t, err)
	assert.Less(t, math.Abs(far.Value-ref), 4*(*far.StdErr))
}

// The surviving payoff follows the option kind, so an up-and-out put pays the put payoff.
func TestSimulation_BarrierPut(t *testing.T) {
	s := NewSimulationPricer(20000, true, Seed(8))
	s.TimeSteps = 100

	ref, err := NewAnalyticPricer().Value(atm(), model.Put)
	require.NoError(t, err)
	far, err := s.Price(atm(), model.OptionSpec{Kind: model.Put, Payoff: model.Barrier, Barrier: 1e9})
	require.NoError(t, err)
	require.NotNil(t, far.StdErr)
	assert.Less(t, math.Abs(far.Value-ref), 4*(*far.StdErr))

	call, err := s.Price(atm(), model.OptionSpec{Kind: model.Call, Payoff: model.Barrier, Barrier: 1e9})
	require.NoError(t, err)
	assert.Greater(t, call.Value-far.Value, 3.0)

	for _, barrier := range []float64{100, 80} {
		dead, err := s.Price(atm(), model.OptionSpec{Kind: model.Put, Payoff: model.Barrier, Barrier: barrier})
		require.NoError(t, err)
		assert.Equal(t, 0.0, dead.Value, "barrier=%g", barrier)
	}
}

func TestSimulation_TerminalPricesAndPaths(t *testing.T) {
	s := NewSimulationPricer(0, false, Seed(1))
	s.TimeSteps = 12

	st, err := s.TerminalPrices(atm(), 500, true)
	require.NoError(t, err)
	require.Len(t, st, 1000)
	for i := 0; i < 500; i++ {
		// S_T(Z) * S_T(-Z) = S0^2 * e^{2(r - sigma^2/2)T}
		prod := st[i] * st[500+i]
		assert.InEpsilon(t, 100*100*math.Exp(2*(0.05-0.02)), prod, 1e-9)
	}

	paths, err := s.SamplePaths(atm(), 30, false)
	require.NoError(t, err)
	require.Len(t, paths, 30)
	for _, p := range paths {
		require.Len(t, p, 13)
		assert.Equal(t, 100.0, p[0])
		for _, v := range p {
			assert.Greater(t, v, 0.0)
		}
	}

	anti, err := s.SamplePaths(atm(), 30, true)
	require.NoError(t, err)
	require.Len(t, anti, 60)
}

func TestSimulation_RejectsInvalidInputs(t *testing.T) {
	spec := model.EuropeanVanilla(model.Call)

	_, err := NewSimulationPricer(0, false, Seed(1)).Price(atm(), spec)
	require.ErrorIs(t, err, model.ErrInvalidParameter)
	_, err = NewSimulationPricer(-10, false, Seed(1)).Price(atm(), spec)
	require.ErrorIs(t, err, model.ErrInvalidParameter)

	for _, c := range []float64{-0.5, 1, 1.5} {
		s := NewSimulationPricer(100, false, Seed(1))
		s.Confidence = c
		_, err = s.Price(atm(), spec)
		require.ErrorIs(t, err, model.ErrInvalidParameter, "confidence=%g", c)
	}

	_, err = NewSimulationPricer(100, false, Seed(1)).Price(atm().WithVolatility(0), spec)
	require.ErrorIs(t, err, model.ErrInvalidParameter)
	p := atm()
	p.Maturity = -0.5
	_, err = NewSimulationPricer(100, false, Seed(1)).Price(p, spec)
	require.ErrorIs(t, err, model.ErrInvalidParameter)

	_, err = NewSimulationPricer(100, false, Seed(1)).TerminalPrices(atm(), 0, false)
	require.ErrorIs(t, err, model.ErrInvalidParameter)

	_, err = NewSimulationPricer(100, false, Seed(1)).Price(atm(), model.OptionSpec{Kind: model.Put, Style: model.American})
	require.ErrorIs(t, err, model.ErrUnsupported)

	_, err = NewSimulationPricer(100, false, Seed(1)).Price(atm(), model.OptionSpec{Kind: model.Call, Payoff: model.Barrier})
	require.ErrorIs(t, err, model.ErrInvalidParameter)
}

func TestSimulation_UnseededReportsSeed(t *testing.T) {
	est, err := NewSimulationPricer(100, false, nil).Price(atm(), model.EuropeanVanilla(model.Call))
	require.NoError(t, err)
	require.NotNil(t, est.Seed)

	again, err := NewSimulationPricer(100, false, est.Seed).Price(atm(), model.EuropeanVanilla(model.Call))
	require.NoError(t, err)
	assert.Equal(t, est.Value, again.Value)
}

func BenchmarkSimulationPricer(b *testing.B) {
	s := NewSimulationPricer(DefaultSimulationPaths, true, Seed(1))
	for _, paths := range []int{10_000, 100_000, 1_000_000} {
		b.Run(fmt.Sprintf("paths=%d", paths), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := s.PriceWithPaths(atm(), model.EuropeanVanilla(model.Call), paths); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
