package data

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ClosesFile is the on-disk form of downloaded daily bars.
type ClosesFile struct {
	Symbol    string `json:"symbol"`
	UpdatedAt string `json:"updated_at"` // RFC3339
	Bars      []Bar  `json:"bars"`
}

func LoadClosesJSON(path string) (*ClosesFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read closes file: %w", err)
	}
	var f ClosesFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse closes file: %w", err)
	}
	return &f, nil
}

func SaveClosesJSON(f *ClosesFile, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	raw, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal closes: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write closes file: %w", err)
	}
	return nil
}

// ClosesPath is where the closes for symbol live under dir.
func ClosesPath(dir, symbol string) string {
	return filepath.Join(dir, strings.ToUpper(symbol)+".json")
}

// FileVolatilityProvider serves volatility from closes saved under Dir, one
// <SYMBOL>.json per ticker. The lookback window is counted back from the last bar.
type FileVolatilityProvider struct {
	Dir string
}

var _ VolatilityProvider = (*FileVolatilityProvider)(nil)

func (p *FileVolatilityProvider) HistoricalVolatility(_ context.Context, ticker string, lookbackDays int) (float64, bool) {
	f, err := LoadClosesJSON(ClosesPath(p.Dir, ticker))
	if err != nil {
		log.Printf("[Closes] Volatility unavailable for %s: %v", ticker, err)
		return 0, false
	}
	bars := f.Window(lookbackDays)
	vol, err := EstimateVolatility(Closes(bars))
	if err != nil {
		log.Printf("[Closes] Volatility unavailable for %s: %v", ticker, err)
		return 0, false
	}
	return vol, true
}

// Window returns the bars within lookbackDays calendar days of the last bar.
// lookbackDays <= 0 returns every bar.
func (f *ClosesFile) Window(lookbackDays int) []Bar {
	if len(f.Bars) == 0 || lookbackDays <= 0 {
		return f.Bars
	}
	cutoff := f.Bars[len(f.Bars)-1].Time.Add(-time.Duration(lookbackDays) * 24 * time.Hour)
	for i, b := range f.Bars {
		if !b.Time.Before(cutoff) {
			return f.Bars[i:]
		}
	}
	return nil
}
