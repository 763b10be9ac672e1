package companion

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"

	"intnwtrace/internal/engine"
	"intnwtrace/internal/logline"
	"intnwtrace/internal/model"
)

var (
	reBenefit = regexp.MustCompile(`Redundant strategy benefit: ([0-9.-]+)`)
	reCost    = regexp.MustCompile(`Redundant strategy additional cost: ([0-9.-]+)`)
)

// ReadDecisions loads per-run redundancy decisions. A missing file yields
// no decisions.
func ReadDecisions(path string, side model.Side) ([][]model.RedundancyDecision, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	runs, err := ParseDecisions(f, side)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return runs, nil
}

// ParseDecisions splits an instruments log into runs with the same rule the
// engine uses for the IntNW log. Each benefit line starts a decision; the
// next cost line completes it.
func ParseDecisions(r io.Reader, side model.Side) ([][]model.RedundancyDecision, error) {
	seg := engine.NewSegmenter(side)
	var runs [][]model.RedundancyDecision
	lineNo := 0

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if seg.StartsRun(line, len(runs) > 0) {
			runs = append(runs, []model.RedundancyDecision{})
		}

		if m := reBenefit.FindStringSubmatch(line); m != nil {
			if len(runs) == 0 {
				return nil, fmt.Errorf("line %d: decision before any run: %w", lineNo, model.ErrMalformed)
			}
			ts, ok := logline.Timestamp(line)
			if !ok {
				return nil, fmt.Errorf("line %d: missing timestamp: %w", lineNo, model.ErrMalformed)
			}
			benefit, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid benefit: %w", lineNo, model.ErrMalformed)
			}
			cur := len(runs) - 1
			runs[cur] = append(runs[cur], model.RedundancyDecision{Timestamp: ts, Benefit: benefit})
		} else if m := reCost.FindStringSubmatch(line); m != nil {
			if len(runs) == 0 || len(runs[len(runs)-1]) == 0 {
				return nil, fmt.Errorf("line %d: cost without a benefit: %w", lineNo, model.ErrMalformed)
			}
			cost, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid cost: %w", lineNo, model.ErrMalformed)
			}
			decisions := runs[len(runs)-1]
			decisions[len(decisions)-1].Cost = model.Float(cost)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}
