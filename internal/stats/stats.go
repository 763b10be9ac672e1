// Package stats holds the numeric helpers behind estimator error analysis:
// stepwise (online) mean and variance, error transforms, and Student's t
// confidence intervals.
package stats

import "math"

// StepwiseMean returns the running mean after each prefix of data.
func StepwiseMean(data []float64) []float64 {
	means := make([]float64, 0, len(data))
	mean := 0.0
	for i, x := range data {
		mean += (x - mean) / float64(i+1)
		means = append(means, mean)
	}
	return means
}

// StepwiseVariance returns the sample variance after each prefix of data,
// using Welford's online algorithm. The variance of a single value is 0.
func StepwiseVariance(data []float64) []float64 {
	variances := make([]float64, 0, len(data))
	var (
		n    int
		mean float64
		m2   float64
	)
	for _, x := range data {
		n++
		delta := x - mean
		mean += delta / float64(n)
		m2 += delta * (x - mean)
		if n > 1 {
			variances = append(variances, m2/float64(n-1))
		} else {
			variances = append(variances, 0)
		}
	}
	return variances
}

// StdDevs returns the element-wise square roots of variances.
func StdDevs(variances []float64) []float64 {
	out := make([]float64, len(variances))
	for i, v := range variances {
		out[i] = math.Sqrt(v)
	}
	return out
}

// ShiftRightByOne returns values delayed by one position, duplicating the
// first element into the vacated slot.
func ShiftRightByOne(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	out := make([]float64, len(values))
	out[0] = values[0]
	copy(out[1:], values[:len(values)-1])
	return out
}
