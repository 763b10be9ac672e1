package stats

import (
	"fmt"
	"strings"
)

// ErrorMode selects how estimator error is measured.
type ErrorMode int

const (
	// Relative error is observation / previous estimate.
	Relative ErrorMode = iota
	// Absolute error is previous estimate - observation.
	Absolute
)

func (m ErrorMode) String() string {
	switch m {
	case Relative:
		return "relative"
	case Absolute:
		return "absolute"
	default:
		return "unknown"
	}
}

// ParseErrorMode accepts "relative" or "absolute".
func ParseErrorMode(s string) (ErrorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "relative":
		return Relative, nil
	case "absolute":
		return Absolute, nil
	default:
		return Relative, fmt.Errorf("unknown error mode %q", s)
	}
}

// ErrorValue measures how far observation landed from prevEstimate.
func (m ErrorMode) ErrorValue(prevEstimate, observation float64) float64 {
	if m == Absolute {
		return prevEstimate - observation
	}
	return observation / prevEstimate
}

// Adjust applies an error value to an estimate; it inverts ErrorValue.
func (m ErrorMode) Adjust(estimate, errValue float64) float64 {
	if m == Absolute {
		return estimate - errValue
	}
	return estimate * errValue
}

// AdjustAll applies errValues element-wise to estimates.
func (m ErrorMode) AdjustAll(estimates, errValues []float64) []float64 {
	n := len(estimates)
	if len(errValues) < n {
		n = len(errValues)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = m.Adjust(estimates[i], errValues[i])
	}
	return out
}

// ErrorValues pairs each observation with the estimate in effect before it.
// The first observation is compared against its own estimate.
func (m ErrorMode) ErrorValues(observations, estimates []float64) []float64 {
	shifted := ShiftRightByOne(estimates)
	n := len(observations)
	if len(shifted) < n {
		n = len(shifted)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = m.ErrorValue(shifted[i], observations[i])
	}
	return out
}
