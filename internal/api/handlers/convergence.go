package handlers

import (
	"fmt"
	"log"
	"math"
	"net/http"

	"option-pricing/internal/analysis"
	"option-pricing/internal/api/models"
	"option-pricing/internal/convergence"
	"option-pricing/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ConvergenceHandler handles multi-method comparisons and convergence runs
type ConvergenceHandler struct {
	workers int
}

// NewConvergenceHandler creates a new convergence handler. workers <= 0 uses GOMAXPROCS.
func NewConvergenceHandler(workers int) *ConvergenceHandler {
	return &ConvergenceHandler{workers: workers}
}

// harness builds the pricers and checks the request's total work. Nil resolutions mean a
// single comparison at the configured steps and paths.
func (h *ConvergenceHandler) harness(e models.EngineOptions, spec model.OptionSpec, latticeRes, simRes []int) (*convergence.Harness, error) {
	lattice, sim, err := buildPricers(e)
	if err != nil {
		return nil, err
	}
	if latticeRes == nil && simRes == nil {
		latticeRes, simRes = []int{lattice.Steps}, []int{sim.Paths}
	}
	if err := checkWork(spec, sim, latticeRes, simRes); err != nil {
		return nil, err
	}
	hr := convergence.New(lattice, sim)
	hr.Workers = h.workers
	return hr, nil
}

// Compare handles POST /api/v1/compare
func (h *ConvergenceHandler) Compare(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}
	spec, err := toSpec(req.Option)
	if err != nil {
		badRequest(c, "INVALID_OPTION", err)
		return
	}
	hr, err := h.harness(req.Engine, spec, nil, nil)
	if err != nil {
		writePricingError(c, err)
		return
	}

	cmp, err := hr.Compare(c.Request.Context(), toMarket(req.Market), spec)
	if err != nil {
		writePricingError(c, err)
		return
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, e := range cmp.Estimates {
		lo = math.Min(lo, e.Value)
		hi = math.Max(hi, e.Value)
	}
	c.JSON(http.StatusOK, models.CompareResponse{
		ID:        uuid.NewString(),
		Option:    cmp.Spec.String(),
		Reference: cmp.Reference,
		Estimates: cmp.Estimates,
		Spread:    hi - lo,
	})
}

// Convergence handles POST /api/v1/convergence
func (h *ConvergenceHandler) Convergence(c *gin.Context) {
	var req models.ConvergenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}
	spec, err := toSpec(req.Option)
	if err != nil {
		badRequest(c, "INVALID_OPTION", err)
		return
	}

	latticeRes := req.LatticeResolutions
	if len(latticeRes) == 0 {
		latticeRes = convergence.DefaultLatticeResolutions
	}
	simRes := req.SimulationResolutions
	if len(simRes) == 0 {
		simRes = convergence.DefaultSimulationResolutions
	}
	if err := checkResolutions(latticeRes, maxSteps, "steps"); err != nil {
		writePricingError(c, err)
		return
	}
	if err := checkResolutions(simRes, maxPaths, "n_paths"); err != nil {
		writePricingError(c, err)
		return
	}

	hr, err := h.harness(req.Engine, spec, latticeRes, simRes)
	if err != nil {
		writePricingError(c, err)
		return
	}
	report, err := hr.Run(c.Request.Context(), toMarket(req.Market), spec, latticeRes, simRes)
	if err != nil {
		writePricingError(c, err)
		return
	}

	resp := models.ConvergenceResponse{
		ID:     uuid.NewString(),
		Option: spec.String(),
		Report: report,
	}
	if report.Reference != nil {
		stats, err := analysis.ReportStats(report)
		if err != nil {
			// A zero reference (deep OTM) has no relative error; the series are still useful.
			log.Printf("[API] Convergence stats skipped: %v", err)
		}
		for _, s := range stats {
			resp.Stats = append(resp.Stats, models.SeriesStats{
				Method:          string(s.Method),
				Count:           s.Count,
				FinalResolution: s.FinalResolution,
				FinalAbsError:   s.FinalAbsErr,
				FinalRelError:   s.FinalRelErr,
				MeanAbsError:    s.MeanAbsErr,
				P95AbsError:     s.P95AbsErr,
				Coverage:        s.Coverage,
			})
		}
	}
	c.JSON(http.StatusOK, resp)
}

func checkResolutions(res []int, limit int, field string) error {
	if len(res) > maxPoints {
		return fmt.Errorf("%w: at most %d resolutions per series", model.ErrInvalidParameter, maxPoints)
	}
	for _, n := range res {
		if n > limit {
			return model.InvalidParameter(field, float64(n), "exceeds server limit")
		}
	}
	return nil
}
