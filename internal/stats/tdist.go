package stats

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat/distuv"
)

type tKey struct {
	alpha float64
	df    int
}

// TTable memoizes two-sided Student's t critical values. Long estimator
// series ask for the same (alpha, df) pairs over and over.
type TTable struct {
	mu     sync.Mutex
	values map[tKey]float64
}

// NewTTable returns an empty table.
func NewTTable() *TTable {
	return &TTable{values: make(map[tKey]float64)}
}

// DefaultTTable is shared by ConfidenceInterval.
var DefaultTTable = NewTTable()

// Value returns t(1 - alpha/2, df).
func (t *TTable) Value(alpha float64, df int) float64 {
	key := tKey{alpha: alpha, df: df}

	t.mu.Lock()
	defer t.mu.Unlock()
	if v, ok := t.values[key]; ok {
		return v
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
	v := dist.Quantile(1 - alpha/2)
	t.values[key] = v
	return v
}

// Len reports how many (alpha, df) pairs have been computed.
func (t *TTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.values)
}

// ConfidenceInterval returns the half-width of the two-sided 1-alpha
// interval for a mean of n samples with the given standard deviation.
func ConfidenceInterval(alpha, stddev float64, n int) float64 {
	return DefaultTTable.ConfidenceInterval(alpha, stddev, n)
}

// ConfidenceInterval is the table-backed form of the package function.
func (t *TTable) ConfidenceInterval(alpha, stddev float64, n int) float64 {
	if n < 2 {
		return 0
	}
	return t.Value(alpha, n-1) * stddev / math.Sqrt(float64(n))
}

// AlphaToPercent converts 0.10 to 90.
func AlphaToPercent(alpha float64) float64 {
	return 100 * (1 - alpha)
}

// PercentToAlpha converts 90 to 0.10.
func PercentToAlpha(percent float64) float64 {
	return 1 - percent/100
}
