// Package engine reconstructs IntNW runs from a diagnostic log, one line at
// a time and strictly in file order.
package engine

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"intnwtrace/internal/history"
	"intnwtrace/internal/logging"
	"intnwtrace/internal/logline"
	"intnwtrace/internal/model"
)

// DefaultProgressInterval throttles progress logging in ReconstructFile.
const DefaultProgressInterval = 2 * time.Second

// ErrFinished is returned by ProcessLine after Finish.
var ErrFinished = errors.New("reconstruction already finished")

// Observer receives reconstruction events. Implementations must not retain
// or mutate the snapshot.
type Observer interface {
	LineClassified(kind logline.Kind)
	RunStarted(side model.Side)
	RunFinished(s *Snapshot)
	ParseFailed()
}

// Options configures an Engine.
type Options struct {
	Side model.Side
	// Sessions and Decisions are indexed by run, in discovery order.
	Sessions  [][]model.Session
	Decisions [][]model.RedundancyDecision
	History   *history.History

	Log              *logging.Logger
	Observer         Observer
	ProgressInterval time.Duration
}

// Engine consumes log lines and produces one Snapshot per run.
type Engine struct {
	opts     Options
	seg      *Segmenter
	current  *Run
	finished []*Snapshot
	runs     int
	line     int
	err      error
	done     bool
	progress rate.Sometimes
}

// New returns an engine ready for the first line.
func New(opts Options) *Engine {
	if opts.Side == "" {
		opts.Side = model.Client
	}
	interval := opts.ProgressInterval
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	return &Engine{
		opts:     opts,
		seg:      NewSegmenter(opts.Side),
		progress: rate.Sometimes{Interval: interval},
	}
}

// Line returns the number of lines consumed so far.
func (e *Engine) Line() int {
	return e.line
}

// Err returns the error that stopped reconstruction, if any.
func (e *Engine) Err() error {
	return e.err
}

// Current returns the run receiving lines, or nil.
func (e *Engine) Current() *Run {
	return e.current
}

// ProcessLine consumes the next line. After the first failure every
// further call returns the same error.
func (e *Engine) ProcessLine(line string) error {
	if e.err != nil {
		return e.err
	}
	if e.done {
		return ErrFinished
	}
	e.line++
	if err := e.processLine(line); err != nil {
		e.err = model.WithLine(err, e.line, line)
		if e.opts.Observer != nil {
			e.opts.Observer.ParseFailed()
		}
		e.opts.Log.Errorf("%v", e.err)
		return e.err
	}
	return nil
}

func (e *Engine) processLine(line string) error {
	if e.seg.StartsRun(line, e.current != nil) {
		e.startRun()
	}
	if e.current == nil {
		return nil
	}
	// a server sees no scout, so its notifications are not parsed
	if e.opts.Side == model.Server && logline.IsNetworkStatus(line) {
		if e.opts.Observer != nil {
			e.opts.Observer.LineClassified(logline.KindIgnored)
		}
		return nil
	}
	ev, err := logline.Classify(line)
	if err != nil {
		return err
	}
	if e.opts.Observer != nil {
		e.opts.Observer.LineClassified(ev.Kind)
	}
	return e.current.Apply(ev)
}

func (e *Engine) startRun() {
	e.finishCurrent()

	idx := e.runs
	e.runs++
	rc := RunContext{History: e.opts.History}
	if idx < len(e.opts.Sessions) {
		rc.Sessions = e.opts.Sessions[idx]
	}
	if idx < len(e.opts.Decisions) {
		rc.Decisions = e.opts.Decisions[idx]
	}
	e.current = NewRun(e.runs, e.opts.Side, rc, e.opts.Log)
	e.opts.Log.Infof("run %d (%s) starts at line %d", e.runs, e.opts.Side, e.line)
	if e.opts.Observer != nil {
		e.opts.Observer.RunStarted(e.opts.Side)
	}
}

func (e *Engine) finishCurrent() {
	if e.current == nil {
		return
	}
	snap := e.current.Snapshot()
	e.finished = append(e.finished, snap)
	e.current = nil
	if e.opts.Observer != nil {
		e.opts.Observer.RunFinished(snap)
	}
}

// Finish closes the current run and returns every run's snapshot. After a
// failure the failing run is left out.
func (e *Engine) Finish() []*Snapshot {
	if !e.done {
		if e.err == nil {
			e.finishCurrent()
		}
		e.done = true
	}
	return e.finished
}

// Reconstruct feeds every line of data through the engine and finishes it.
// On failure it returns the runs completed before the offending line.
func (e *Engine) Reconstruct(data []byte) ([]*Snapshot, error) {
	lines := strings.Split(string(data), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	total := len(lines)
	for i, line := range lines {
		if err := e.ProcessLine(strings.TrimSuffix(line, "\r")); err != nil {
			return e.Finish(), err
		}
		e.progress.Do(func() {
			e.opts.Log.Infof("parsed %d/%d lines (%.0f%%)", i+1, total, 100*float64(i+1)/float64(total))
		})
	}
	return e.Finish(), nil
}

// ReconstructFile reads path in full and reconstructs it.
func (e *Engine) ReconstructFile(path string) ([]*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	e.opts.Log.Infof("parsing %s", path)
	return e.Reconstruct(data)
}
