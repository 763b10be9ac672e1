package engine

import (
	"strings"

	"intnwtrace/internal/logline"
	"intnwtrace/internal/model"
)

// Segmenter decides where one experiment run ends and the next begins.
// Servers start a run on every accepted connection; clients start one
// whenever the logging process changes.
type Segmenter struct {
	side    model.Side
	prevPID int
	hasPID  bool
}

// NewSegmenter returns a segmenter for side.
func NewSegmenter(side model.Side) *Segmenter {
	return &Segmenter{side: side}
}

// IsNewRun reports whether line opens a new run. In client mode it tracks
// the previous line's process id; lines without one leave it unchanged.
func (s *Segmenter) IsNewRun(line string) bool {
	if s.side == model.Server {
		return strings.Contains(line, logline.RunStartMarker)
	}
	pid, ok := logline.PID(line)
	if !ok {
		return false
	}
	changed := s.hasPID && pid != s.prevPID
	s.prevPID, s.hasPID = pid, true
	return changed
}

// StartsRun is IsNewRun plus the client rule that the first line of a log
// opens the first run.
func (s *Segmenter) StartsRun(line string, haveRun bool) bool {
	newRun := s.IsNewRun(line)
	if s.side == model.Client && !haveRun {
		return true
	}
	return newRun
}
