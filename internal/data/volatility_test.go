package data_test

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"option-pricing/internal/data"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateVolatility(t *testing.T) {
	t.Parallel()

	vol, err := data.EstimateVolatility([]float64{100, 110, 100, 110, 100})
	require.NoError(t, err)
	assert.InDelta(t, alternatingVol(), vol, 1e-12)

	// Constant growth has zero dispersion.
	vol, err = data.EstimateVolatility([]float64{100, 101, 102.01, 103.0301})
	require.NoError(t, err)
	assert.InDelta(t, 0, vol, 1e-9)

	_, err = data.EstimateVolatility([]float64{100, 101})
	require.Error(t, err)
	_, err = data.EstimateVolatility([]float64{100, 0, 101})
	require.Error(t, err)
	_, err = data.EstimateVolatility([]float64{100, math.NaN(), 101})
	require.Error(t, err)
}

func TestClosesJSONRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := &data.ClosesFile{Symbol: "SPY", UpdatedAt: start.Format(time.RFC3339)}
	for i, c := range []float64{100, 110, 100, 110, 100} {
		f.Bars = append(f.Bars, data.Bar{Time: start.AddDate(0, 0, i), Close: c})
	}

	path := data.ClosesPath(dir, "spy")
	assert.Equal(t, filepath.Join(dir, "SPY.json"), path)
	require.NoError(t, data.SaveClosesJSON(f, path))

	loaded, err := data.LoadClosesJSON(path)
	require.NoError(t, err)
	assert.Equal(t, "SPY", loaded.Symbol)
	assert.Equal(t, data.Closes(f.Bars), data.Closes(loaded.Bars))

	_, err = data.LoadClosesJSON(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestClosesFileWindow(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := &data.ClosesFile{}
	for i := 0; i < 10; i++ {
		f.Bars = append(f.Bars, data.Bar{Time: start.AddDate(0, 0, i), Close: float64(100 + i)})
	}
	assert.Len(t, f.Window(3), 4)
	assert.Len(t, f.Window(0), 10)
	assert.Len(t, f.Window(100), 10)
}

func TestFileVolatilityProvider(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := &data.ClosesFile{Symbol: "QQQ"}
	for i, c := range []float64{100, 110, 100, 110, 100} {
		f.Bars = append(f.Bars, data.Bar{Time: start.AddDate(0, 0, i), Close: c})
	}
	require.NoError(t, data.SaveClosesJSON(f, data.ClosesPath(dir, "QQQ")))

	var p data.VolatilityProvider = &data.FileVolatilityProvider{Dir: dir}
	vol, ok := p.HistoricalVolatility(context.Background(), "qqq", 30)
	require.True(t, ok)
	assert.InDelta(t, alternatingVol(), vol, 1e-12)

	_, ok = p.HistoricalVolatility(context.Background(), "IWM", 30)
	assert.False(t, ok)
}
