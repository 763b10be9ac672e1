// Package companion reads the auxiliary logs recorded next to an IntNW log:
// application sessions from the trace replayer and redundancy decisions
// from the instruments log.
package companion

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"intnwtrace/internal/model"
)

//	  Session 3: start 1339084200.125 ... duration 2.500
var reSession = regexp.MustCompile(`start ([0-9]+\.[0-9]+).+duration ([0-9]+\.[0-9]+)`)

// ReadSessions loads per-run session lists from a trace replayer log.
func ReadSessions(path string) ([][]model.Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	runs, err := ParseSessions(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return runs, nil
}

// ParseSessions splits a trace replayer log into runs of sessions.
//
// "Waiting to execute ... at" or "Waiting until trace end" opens a run when
// the previous one is done, and otherwise ends the current session.
// "Executing: at" starts a session. "Done with trace replay" ends the run.
// A "Session times:" block replaces the run's sessions with its summary.
func ParseSessions(r io.Reader) ([][]model.Session, error) {
	var runs [][]model.Session
	newRun := true
	lineNo := 0
	timestamp := 0.0

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		fields := strings.Fields(line)

		switch {
		case strings.Contains(line, "Session times:"):
			if len(runs) == 0 {
				runs = append(runs, nil)
			}
			if n := len(runs); n > 1 && len(runs[n-1]) == 0 {
				runs = runs[:n-1]
			}
			runs[len(runs)-1] = []model.Session{}
			continue
		case strings.Contains(line, "  Session"):
			m := reSession.FindStringSubmatch(line)
			if m == nil {
				return nil, fmt.Errorf("line %d: expected session start and duration: %w", lineNo, model.ErrMalformed)
			}
			if len(runs) == 0 {
				return nil, fmt.Errorf("line %d: session summary before any run: %w", lineNo, model.ErrMalformed)
			}
			start, _ := strconv.ParseFloat(m[1], 64)
			duration, _ := strconv.ParseFloat(m[2], 64)
			runs[len(runs)-1] = append(runs[len(runs)-1], model.Session{Start: start, End: model.Float(start + duration)})
			continue
		}

		if len(fields) == 0 {
			continue
		}
		ts, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			continue
		}
		timestamp = ts

		switch {
		case strings.Contains(line, "Executing:") && len(fields) > 2 && fields[2] == "at":
			if len(runs) == 0 {
				return nil, fmt.Errorf("line %d: session before any run: %w", lineNo, model.ErrMalformed)
			}
			runs[len(runs)-1] = append(runs[len(runs)-1], model.Session{Start: timestamp})
		case (strings.Contains(line, "Waiting to execute") && len(fields) > 4 && fields[4] == "at") ||
			strings.Contains(line, "Waiting until trace end"):
			if newRun {
				runs = append(runs, []model.Session{})
				newRun = false
			} else if sessions := runs[len(runs)-1]; len(sessions) > 0 {
				sessions[len(sessions)-1].End = model.Float(timestamp)
			}
		case strings.Contains(line, "Done with trace replay"):
			newRun = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if n := len(runs); n > 0 && len(runs[n-1]) == 0 {
		runs = runs[:n-1]
	}
	return runs, nil
}
