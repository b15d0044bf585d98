package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"option-pricing/internal/data"
)

// fetch-closes downloads daily bars for each ticker and saves them as <dir>/<TICKER>.json,
// the format read by the file volatility provider.
func main() {
	var (
		tickers = flag.String("tickers", "", "Comma-separated ticker symbols (required)")
		outDir  = flag.String("dir", "data/closes", "Output directory")
		days    = flag.Int("days", 400, "Number of calendar days to download")
		baseURL = flag.String("base-url", "", "Market data base URL override")
	)
	flag.Parse()

	keyID, secret := os.Getenv("APCA_API_KEY_ID"), os.Getenv("APCA_API_SECRET_KEY")
	if keyID == "" || secret == "" {
		log.Fatal("APCA_API_KEY_ID and APCA_API_SECRET_KEY environment variables are required")
	}
	symbols := splitTickers(*tickers)
	if len(symbols) == 0 {
		log.Fatal("--tickers is required")
	}

	var opts []data.BarsClientOption
	if *baseURL != "" {
		opts = append(opts, data.WithBaseURL(*baseURL))
	}
	client := data.NewBarsClient(keyID, secret, opts...)

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -*days)
	fmt.Printf("Fetching daily bars from %s to %s for %d tickers...\n",
		start.Format("2006-01-02"), end.Format("2006-01-02"), len(symbols))

	ctx := context.Background()
	saved := 0
	for _, sym := range symbols {
		bars, err := client.FetchBars(ctx, sym, start, end)
		if err != nil {
			fmt.Printf("  Warning: failed to fetch %s: %v\n", sym, err)
			continue
		}
		if len(bars) == 0 {
			fmt.Printf("  Warning: no bars for %s in date range\n", sym)
			continue
		}

		path := data.ClosesPath(*outDir, sym)
		f := &data.ClosesFile{
			Symbol:    sym,
			UpdatedAt: time.Now().Format(time.RFC3339),
			Bars:      bars,
		}
		if err := data.SaveClosesJSON(f, path); err != nil {
			log.Fatalf("Failed to save closes for %s: %v", sym, err)
		}

		line := fmt.Sprintf("  Saved %d bars for %s to %s", len(bars), sym, path)
		if vol, err := data.EstimateVolatility(data.Closes(bars)); err == nil {
			line += fmt.Sprintf(" (vol=%.4f)", vol)
		}
		fmt.Println(line)
		saved++
	}

	fmt.Printf("Saved closes for %d/%d tickers\n", saved, len(symbols))
}

func splitTickers(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
