// Package data supplies market inputs that the pricers never fetch themselves: daily
// closes from a bars API or local JSON files, and the historical volatility estimated
// from them.
package data

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear annualizes daily log-return volatility.
const TradingDaysPerYear = 252

// VolatilityProvider returns an annualized volatility for ticker over the last
// lookbackDays calendar days. The bool is false when no estimate could be produced;
// callers are expected to fall back to a user-supplied volatility.
type VolatilityProvider interface {
	HistoricalVolatility(ctx context.Context, ticker string, lookbackDays int) (float64, bool)
}

// EstimateVolatility is the sample standard deviation of daily log returns scaled by
// sqrt(252). It needs at least three positive closes (two returns).
func EstimateVolatility(closes []float64) (float64, error) {
	if len(closes) < 3 {
		return 0, fmt.Errorf("need at least 3 closes, got %d", len(closes))
	}
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev, cur := closes[i-1], closes[i]
		if !(prev > 0) || !(cur > 0) {
			return 0, fmt.Errorf("close %d is not positive (%g -> %g)", i, prev, cur)
		}
		returns = append(returns, math.Log(cur/prev))
	}
	vol := stat.StdDev(returns, nil) * math.Sqrt(TradingDaysPerYear)
	if math.IsNaN(vol) || math.IsInf(vol, 0) {
		return 0, fmt.Errorf("volatility estimate is not finite")
	}
	return vol, nil
}
