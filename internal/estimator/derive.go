package estimator

import (
	"fmt"
	"math"
	"strings"

	"intnwtrace/internal/model"
	"intnwtrace/internal/stats"
)

// BoundMethod selects how the error interval around an estimate is sized.
type BoundMethod string

const (
	BoundCI     BoundMethod = "ci"
	BoundStdDev BoundMethod = "stddev"
)

// ParseBoundMethod accepts "ci" or "stddev".
func ParseBoundMethod(s string) (BoundMethod, error) {
	switch m := BoundMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return BoundCI, nil
	case BoundCI, BoundStdDev:
		return m, nil
	default:
		return BoundCI, fmt.Errorf("unknown bound method %q", s)
	}
}

// DeriveOptions configures Derive.
type DeriveOptions struct {
	Mode   stats.ErrorMode
	Alpha  float64
	Method BoundMethod
	// History is a prior error distribution prepended to the observed
	// errors. It widens the bounds but produces no points.
	History []float64
	// Scale multiplies observations and estimates (2 reports latency as RTT).
	// Zero means 1.
	Scale float64
	// Origin is subtracted from timestamps.
	Origin float64
	Table  *stats.TTable
}

// Point is one derived estimator sample.
type Point struct {
	Time         float64
	Observation  float64
	PrevEstimate float64
	Estimate     float64
	Error        float64
	ErrorMean    float64
	Adjusted     float64
	Lower        float64
	Upper        float64
}

// Derive computes error values, stepwise error means and bounds for
// samples. Samples without an estimate are skipped.
func Derive(samples []model.Sample, opts DeriveOptions) []Point {
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}
	table := opts.Table
	if table == nil {
		table = stats.DefaultTTable
	}

	var times, obs, est []float64
	for _, s := range samples {
		if s.Estimate == nil {
			continue
		}
		times = append(times, s.Timestamp-opts.Origin)
		obs = append(obs, s.Observation*scale)
		est = append(est, *s.Estimate*scale)
	}
	if len(est) == 0 {
		return nil
	}

	errs := opts.Mode.ErrorValues(obs, est)
	all := make([]float64, 0, len(opts.History)+len(errs))
	all = append(all, opts.History...)
	all = append(all, errs...)

	means := stats.StepwiseMean(all)
	widths := boundWidths(all, opts.Method, opts.Alpha, table)

	offset := len(all) - len(est)
	prev := stats.ShiftRightByOne(est)
	points := make([]Point, len(est))
	for i := range est {
		mean := means[offset+i]
		width := widths[offset+i]
		lo := opts.Mode.Adjust(est[i], mean-width)
		hi := opts.Mode.Adjust(est[i], mean+width)
		points[i] = Point{
			Time:         times[i],
			Observation:  obs[i],
			PrevEstimate: prev[i],
			Estimate:     est[i],
			Error:        errs[i],
			ErrorMean:    mean,
			Adjusted:     opts.Mode.Adjust(est[i], mean),
			Lower:        math.Min(lo, hi),
			Upper:        math.Max(lo, hi),
		}
	}
	return points
}

// Errors returns the error value of every sample, in order.
func Errors(points []Point) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Error
	}
	return out
}

// Bound applies the accumulated errs to a single estimate and returns the
// error-adjusted estimate with its lower and upper bounds. With no errors
// all three equal estimate.
func Bound(estimate float64, errs []float64, opts DeriveOptions) (adjusted, lower, upper float64) {
	if len(errs) == 0 {
		return estimate, estimate, estimate
	}
	table := opts.Table
	if table == nil {
		table = stats.DefaultTTable
	}
	last := len(errs) - 1
	mean := stats.StepwiseMean(errs)[last]
	width := boundWidths(errs, opts.Method, opts.Alpha, table)[last]
	lo := opts.Mode.Adjust(estimate, mean-width)
	hi := opts.Mode.Adjust(estimate, mean+width)
	return opts.Mode.Adjust(estimate, mean), math.Min(lo, hi), math.Max(lo, hi)
}

func boundWidths(errs []float64, method BoundMethod, alpha float64, table *stats.TTable) []float64 {
	stddevs := stats.StdDevs(stats.StepwiseVariance(errs))
	if method == BoundStdDev {
		return stddevs
	}
	widths := make([]float64, len(stddevs))
	for i := 1; i < len(stddevs); i++ {
		widths[i] = table.ConfidenceInterval(alpha, stddevs[i], max(i+1, 2))
	}
	return widths
}
