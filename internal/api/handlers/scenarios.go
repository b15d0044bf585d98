package handlers

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"option-pricing/internal/analysis"
	"option-pricing/internal/api/models"
	"option-pricing/internal/config"
	"option-pricing/internal/convergence"
	"option-pricing/internal/model"

	"github.com/gin-gonic/gin"
)

// ScenarioHandler serves market scenario presets
type ScenarioHandler struct {
	scenarioDir string
	workers     int
}

// NewScenarioHandler creates a handler reading presets from dir. An empty dir uses
// SCENARIO_DIR or ./examples/scenarios.
func NewScenarioHandler(dir string, workers int) *ScenarioHandler {
	if dir == "" {
		dir = os.Getenv("SCENARIO_DIR")
	}
	if dir == "" {
		dir = filepath.Join("examples", "scenarios")
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	log.Printf("ScenarioHandler: Using scenario directory: %s", dir)
	return &ScenarioHandler{scenarioDir: dir, workers: workers}
}

// ListScenarios handles GET /api/v1/scenarios
func (h *ScenarioHandler) ListScenarios(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"scenarios": h.load()})
}

// RankScenarios handles GET /api/v1/scenarios/rank. Every preset is compared across
// methods and ranked by how far the methods disagree.
func (h *ScenarioHandler) RankScenarios(c *gin.Context) {
	var req models.RankScenariosRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}
	if req.Kind == "" {
		req.Kind = string(model.Call)
	}
	spec, err := toSpec(models.OptionRequest{Kind: req.Kind, Style: req.Style})
	if err != nil {
		badRequest(c, "INVALID_OPTION", err)
		return
	}
	lattice, sim, err := buildPricers(models.EngineOptions{Steps: req.Steps, Paths: req.Paths, Seed: req.Seed})
	if err != nil {
		writePricingError(c, err)
		return
	}
	if err := checkWork(spec, sim, []int{lattice.Steps}, []int{sim.Paths}); err != nil {
		writePricingError(c, err)
		return
	}
	hr := convergence.New(lattice, sim)
	hr.Workers = h.workers

	byScenario := map[string]*convergence.Comparison{}
	for _, s := range h.load() {
		cmp, err := hr.Compare(c.Request.Context(), s.Params, spec)
		if err != nil {
			writePricingError(c, fmt.Errorf("scenario %s: %w", s.ID, err))
			return
		}
		byScenario[s.ID] = cmp
	}

	ranked := analysis.RankByDiscrepancy(byScenario)
	resp := models.RankResponse{Rankings: make([]models.Ranking, 0, len(ranked))}
	for i, d := range ranked {
		resp.Rankings = append(resp.Rankings, models.Ranking{
			Rank:      i + 1,
			Scenario:  d.Scenario,
			Spread:    d.Spread,
			MaxAbsErr: d.MaxAbsErr,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// load reads *.yaml presets from the scenario directory, falling back to the built-in
// set when the directory is missing or holds no valid preset.
func (h *ScenarioHandler) load() []models.ScenarioInfo {
	var out []models.ScenarioInfo
	entries, err := os.ReadDir(h.scenarioDir)
	if err != nil {
		log.Printf("ScenarioHandler: Failed to read scenario directory %s: %v", h.scenarioDir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(h.scenarioDir, e.Name())
		market, err := config.LoadScenarioFile(path)
		if err != nil {
			log.Printf("ScenarioHandler: Skipping %s: %v", e.Name(), err)
			continue
		}
		params := market.ToModel()
		if err := params.ValidateForPricing(); err != nil {
			log.Printf("ScenarioHandler: Skipping %s: %v", e.Name(), err)
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".yaml")
		name := market.Name
		if name == "" {
			name = id
		}
		out = append(out, models.ScenarioInfo{ID: id, Name: name, File: e.Name(), Params: params})
	}

	if len(out) == 0 {
		for _, s := range convergence.Scenarios() {
			out = append(out, models.ScenarioInfo{ID: s.Name, Name: s.Name, Params: s.Params})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
