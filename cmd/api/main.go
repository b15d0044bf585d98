package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"option-pricing/internal/api"
	"option-pricing/internal/data"

	"github.com/gin-gonic/gin"
)

func main() {
	// Get configuration from environment
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}

	wd, err := os.Getwd()
	if err == nil {
		log.Printf("Working directory: %s", wd)
		scenarioDir := filepath.Join(wd, "examples", "scenarios")
		if info, err := os.Stat(scenarioDir); err == nil && info.IsDir() {
			log.Printf("Scenario directory found: %s", scenarioDir)
		} else {
			log.Printf("Scenario directory not found at: %s (error: %v); using built-in presets", scenarioDir, err)
		}
	}

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	workers := 0
	if v := os.Getenv("API_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			workers = n
		}
	}

	router := api.NewRouter(api.Options{
		ScenarioDir: os.Getenv("SCENARIO_DIR"),
		Workers:     workers,
		Volatility:  volatilityProvider(),
	})

	addr := fmt.Sprintf(":%s", port)
	log.Printf("Starting API server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// volatilityProvider picks the /volatility backend from VOLATILITY_PROVIDER:
// "bars" uses the market data API, "file" reads CLOSES_DIR (default data/closes).
func volatilityProvider() data.VolatilityProvider {
	switch os.Getenv("VOLATILITY_PROVIDER") {
	case "bars":
		keyID, secret := os.Getenv("APCA_API_KEY_ID"), os.Getenv("APCA_API_SECRET_KEY")
		if keyID == "" || secret == "" {
			log.Printf("VOLATILITY_PROVIDER=bars but APCA_API_KEY_ID/APCA_API_SECRET_KEY are not set; /volatility disabled")
			return nil
		}
		opts := []data.BarsClientOption{data.WithCache(data.GetCache())}
		if base := os.Getenv("BARS_BASE_URL"); base != "" {
			opts = append(opts, data.WithBaseURL(base))
		}
		log.Printf("Volatility provider: market data API")
		return data.NewBarsClient(keyID, secret, opts...)
	case "file":
		dir := os.Getenv("CLOSES_DIR")
		if dir == "" {
			dir = filepath.Join("data", "closes")
		}
		log.Printf("Volatility provider: closes files in %s", dir)
		return &data.FileVolatilityProvider{Dir: dir}
	default:
		log.Printf("No volatility provider configured; /volatility disabled")
		return nil
	}
}
