package report

import (
	"intnwtrace/internal/engine"
	"intnwtrace/internal/model"
)

// SessionAnalysis classifies a run's sessions against its wifi periods.
type SessionAnalysis struct {
	Total         int
	SingleNetwork []model.Session
	Failover      []model.Session
	Reevaluation  []model.Session
}

// Seconds sums the durations of sessions.
func Seconds(sessions []model.Session) float64 {
	var total float64
	for _, s := range sessions {
		total += s.Duration()
	}
	return total
}

type window struct {
	start  float64
	length float64
}

func (w window) contains(t float64) bool {
	return t >= w.start && t <= w.start+w.length
}

// AnalyzeSessions classifies sessions. It reports false when the run never
// saw a wifi network.
//
// A single-network session starts outside every closed wifi period. A
// failover session starts inside one and either outlives it or overlaps a
// dropped IROB. A session needs reevaluation when wifi arrives while it runs.
func AnalyzeSessions(snap *engine.Snapshot) (SessionAnalysis, bool) {
	periods, ok := snap.Periods[WiFi]
	if !ok {
		return SessionAnalysis{}, false
	}

	var windows []window
	for _, p := range periods {
		if p.End == nil {
			continue
		}
		windows = append(windows, window{start: snap.RelativeTime(p.Start), length: *p.End - p.Start})
	}

	a := SessionAnalysis{Total: len(snap.Sessions)}
	for _, s := range snap.Sessions {
		start := snap.RelativeTime(s.Start)
		end := start + s.Duration()

		if singleNetwork(windows, start) {
			a.SingleNetwork = append(a.SingleNetwork, s)
			if needsReevaluation(windows, start, end) {
				a.Reevaluation = append(a.Reevaluation, s)
			}
			continue
		}
		if failedOver(snap, windows, start, end) {
			a.Failover = append(a.Failover, s)
		}
	}
	return a, true
}

func singleNetwork(windows []window, start float64) bool {
	for _, w := range windows {
		if w.contains(start) {
			return false
		}
	}
	return true
}

func failedOver(snap *engine.Snapshot, windows []window, start, end float64) bool {
	for _, w := range windows {
		if w.contains(start) && end > w.start+w.length {
			return true
		}
	}
	for _, e := range IROBsInRange(snap, start, end) {
		if e.Dropped() {
			return true
		}
	}
	return false
}

func needsReevaluation(windows []window, start, end float64) bool {
	for _, w := range windows {
		if w.start > start && w.start < end {
			return true
		}
	}
	return false
}
