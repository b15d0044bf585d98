package convergence

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"option-pricing/internal/model"

	"github.com/shopspring/decimal"
)

// pricePlaces is the number of decimals written for prices and errors.
const pricePlaces = 6

var csvHeader = []string{
	"method",
	"resolution",
	"value",
	"stderr",
	"ci_low",
	"ci_high",
	"reference",
	"abs_error",
}

func WriteReportCSV(path string, r *Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReportCSV(f, r)
}

// ReportCSV writes both series of a report as one long table.
func ReportCSV(out io.Writer, r *Report) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	series := []struct {
		method model.Method
		points []Point
	}{
		{model.MethodLattice, r.Lattice},
		{model.MethodSimulation, r.Simulation},
	}
	for _, s := range series {
		for _, p := range s.points {
			if err := w.Write(pointRow(s.method, p, r.Reference)); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

// SeriesCSV writes a single series.
func SeriesCSV(out io.Writer, method model.Method, points []Point, reference *float64) error {
	return ReportCSV(out, seriesReport(method, points, reference))
}

func seriesReport(method model.Method, points []Point, reference *float64) *Report {
	r := &Report{Reference: reference}
	if method == model.MethodLattice {
		r.Lattice = points
	} else {
		r.Simulation = points
	}
	return r
}

// ComparisonCSV writes one row per method.
func ComparisonCSV(out io.Writer, c *Comparison) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range c.Estimates {
		p := pointFrom(e, e.Resolution)
		if err := w.Write(pointRow(e.Method, p, c.Reference)); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func pointRow(method model.Method, p Point, reference *float64) []string {
	row := []string{
		string(method),
		strconv.Itoa(p.Resolution),
		fmtPrice(p.Value),
		fmtOptional(p.StdErr),
		"",
		"",
		fmtOptional(reference),
		"",
	}
	if p.CI != nil {
		row[4] = fmtPrice(p.CI.Low)
		row[5] = fmtPrice(p.CI.High)
	}
	if reference != nil {
		row[7] = decimal.NewFromFloat(p.Value).Sub(decimal.NewFromFloat(*reference)).Abs().StringFixed(pricePlaces)
	}
	return row
}

func fmtOptional(x *float64) string {
	if x == nil {
		return ""
	}
	return fmtPrice(*x)
}

func fmtPrice(x float64) string {
	return decimal.NewFromFloat(x).StringFixed(pricePlaces)
}
