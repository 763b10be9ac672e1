package stats

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestStepwiseMean_ConstantSequence(t *testing.T) {
	t.Parallel()

	for n := 1; n <= 20; n++ {
		data := make([]float64, n)
		for i := range data {
			data[i] = 3.5
		}
		for i, m := range StepwiseMean(data) {
			if !almostEqual(m, 3.5) {
				t.Fatalf("n=%d i=%d mean=%v", n, i, m)
			}
		}
	}
}

func TestStepwiseVariance_ConstantSequenceIsZero(t *testing.T) {
	t.Parallel()

	for n := 1; n <= 20; n++ {
		data := make([]float64, n)
		for i := range data {
			data[i] = -2
		}
		vars := StepwiseVariance(data)
		if len(vars) != n {
			t.Fatalf("len=%d want %d", len(vars), n)
		}
		for i, v := range vars {
			if v != 0 {
				t.Fatalf("n=%d i=%d var=%v", n, i, v)
			}
		}
	}
}

func TestStepwiseVariance_KnownValues(t *testing.T) {
	t.Parallel()

	vars := StepwiseVariance([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if vars[0] != 0 {
		t.Fatalf("var[0]=%v", vars[0])
	}
	if !almostEqual(vars[1], 2) {
		t.Fatalf("var[1]=%v", vars[1])
	}
	// sample variance of the full sequence is 32/7
	if !almostEqual(vars[7], 32.0/7.0) {
		t.Fatalf("var[7]=%v", vars[7])
	}
}

func TestStepwiseMean_KnownValues(t *testing.T) {
	t.Parallel()

	means := StepwiseMean([]float64{1, 2, 3, 4})
	want := []float64{1, 1.5, 2, 2.5}
	for i := range want {
		if !almostEqual(means[i], want[i]) {
			t.Fatalf("means=%v", means)
		}
	}
}

func TestShiftRightByOne(t *testing.T) {
	t.Parallel()

	got := ShiftRightByOne([]float64{1, 2, 3})
	want := []float64{1, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got=%v", got)
		}
	}
	if ShiftRightByOne(nil) != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestErrorMode_Inverse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		mode        ErrorMode
		estimate    float64
		observation float64
		wantErr     float64
	}{
		{Relative, 10, 8, 0.8},
		{Relative, 4, 2, 0.5},
		{Absolute, 10, 8, 2},
		{Absolute, 3, 7, -4},
	}
	for _, tc := range cases {
		e := tc.mode.ErrorValue(tc.estimate, tc.observation)
		if !almostEqual(e, tc.wantErr) {
			t.Fatalf("%s error=%v want %v", tc.mode, e, tc.wantErr)
		}
		if got := tc.mode.Adjust(tc.estimate, e); got != tc.observation {
			t.Fatalf("%s adjusted=%v want %v", tc.mode, got, tc.observation)
		}
	}
}

func TestErrorValues_UsesPreviousEstimate(t *testing.T) {
	t.Parallel()

	obs := []float64{10, 20, 30}
	est := []float64{10, 15, 25}
	got := Relative.ErrorValues(obs, est)
	want := []float64{1, 2, 2}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Fatalf("got=%v", got)
		}
	}
}

func TestParseErrorMode(t *testing.T) {
	t.Parallel()

	if m, err := ParseErrorMode("Absolute"); err != nil || m != Absolute {
		t.Fatalf("mode=%v err=%v", m, err)
	}
	if m, err := ParseErrorMode(""); err != nil || m != Relative {
		t.Fatalf("mode=%v err=%v", m, err)
	}
	if _, err := ParseErrorMode("bogus"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestTTable_Memoizes(t *testing.T) {
	t.Parallel()

	table := NewTTable()
	a := table.Value(0.10, 9)
	b := table.Value(0.10, 9)
	if a != b {
		t.Fatalf("a=%v b=%v", a, b)
	}
	if table.Len() != 1 {
		t.Fatalf("len=%d", table.Len())
	}
	// t(0.95, 9) is 1.833
	if math.Abs(a-1.833) > 1e-3 {
		t.Fatalf("t=%v", a)
	}
	table.Value(0.05, 9)
	if table.Len() != 2 {
		t.Fatalf("len=%d", table.Len())
	}
}

func TestConfidenceInterval(t *testing.T) {
	t.Parallel()

	table := NewTTable()
	// t(0.975, 3) is 3.182; stddev 2, n 4 -> 3.182 * 2 / 2
	got := table.ConfidenceInterval(0.05, 2, 4)
	if math.Abs(got-3.182) > 1e-3 {
		t.Fatalf("ci=%v", got)
	}
	if table.ConfidenceInterval(0.05, 2, 1) != 0 {
		t.Fatalf("expected zero width for n=1")
	}
}

func TestAlphaPercent(t *testing.T) {
	t.Parallel()

	if !almostEqual(AlphaToPercent(0.10), 90) {
		t.Fatalf("percent=%v", AlphaToPercent(0.10))
	}
	if !almostEqual(PercentToAlpha(95), 0.05) {
		t.Fatalf("alpha=%v", PercentToAlpha(95))
	}
}

func TestSummarize_Basic(t *testing.T) {
	t.Parallel()

	s := Summarize([]float64{1, 2, 3, 4})
	if s.Count != 4 {
		t.Fatalf("count=%d", s.Count)
	}
	if !almostEqual(s.Mean, 2.5) {
		t.Fatalf("mean=%v", s.Mean)
	}
	if s.Min != 1 || s.Max != 4 {
		t.Fatalf("min/max=%v/%v", s.Min, s.Max)
	}
	if s.P95 < s.P50 || s.P95 > 4 || s.P50 < 1 {
		t.Fatalf("p50=%v p95=%v", s.P50, s.P95)
	}
}

func TestSummarize_Empty(t *testing.T) {
	t.Parallel()

	if s := Summarize(nil); s.Count != 0 {
		t.Fatalf("count=%d", s.Count)
	}
}
