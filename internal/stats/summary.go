package stats

import (
	"math"

	"github.com/influxdata/tdigest"
)

// Summary is a basic statistics snapshot of a value sequence.
type Summary struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	P50    float64
	P95    float64
}

// Summarize computes summary statistics over values.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	td := tdigest.NewWithCompression(100)
	minV := math.MaxFloat64
	maxV := -math.MaxFloat64
	for _, v := range values {
		td.Add(v, 1)
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}

	means := StepwiseMean(values)
	variances := StepwiseVariance(values)
	last := len(values) - 1

	return Summary{
		Count:  len(values),
		Mean:   means[last],
		StdDev: math.Sqrt(variances[last]),
		Min:    minV,
		Max:    maxV,
		P50:    clamp(td.Quantile(0.5), minV, maxV),
		P95:    clamp(td.Quantile(0.95), minV, maxV),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
