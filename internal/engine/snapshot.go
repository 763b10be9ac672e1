package engine

import (
	"sort"

	"intnwtrace/internal/history"
	"intnwtrace/internal/irob"
	"intnwtrace/internal/model"
)

// Snapshot is an immutable copy of a finished run, handed to reporting.
type Snapshot struct {
	ID       string
	Number   int
	Side     model.Side
	Start    float64
	End      float64
	Strategy string

	Periods   map[string][]model.NetworkPeriod
	IROBs     *irob.Registry
	Estimates map[model.SeriesKey][]model.Sample

	ChooseNetwork []model.ChooseNetworkCall
	Sessions      []model.Session
	Decisions     []model.RedundancyDecision
	History       *history.History

	DuplicateDowns int
}

// Snapshot deep-copies the run's reconstructed state.
func (r *Run) Snapshot() *Snapshot {
	return &Snapshot{
		ID:             r.ID,
		Number:         r.Number,
		Side:           r.Side,
		Start:          r.Start,
		End:            r.End,
		Strategy:       r.Strategy,
		Periods:        r.Networks.Snapshot(),
		IROBs:          r.IROBs.Clone(),
		Estimates:      r.Estimates.Snapshot(),
		ChooseNetwork:  append([]model.ChooseNetworkCall(nil), r.ChooseNetwork...),
		Sessions:       copySessions(r.Sessions),
		Decisions:      copyDecisions(r.Decisions),
		History:        r.History,
		DuplicateDowns: r.Networks.DuplicateDowns(),
	}
}

// Networks returns every network type with periods, IROBs or estimates.
func (s *Snapshot) Networks() []string {
	seen := make(map[string]bool)
	for n := range s.Periods {
		seen[n] = true
	}
	for _, n := range s.IROBs.Networks() {
		seen[n] = true
	}
	for k := range s.Estimates {
		seen[k.Network] = true
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// SeriesKeys returns the estimator series in network, metric order.
func (s *Snapshot) SeriesKeys() []model.SeriesKey {
	keys := make([]model.SeriesKey, 0, len(s.Estimates))
	for k := range s.Estimates {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Network != keys[j].Network {
			return keys[i].Network < keys[j].Network
		}
		return keys[i].Metric < keys[j].Metric
	})
	return keys
}

// IROBCounts summarizes IROB outcomes.
type IROBCounts struct {
	Total    int
	Complete int
	Dropped  int
	Abnormal int
}

// Counts tallies IROB outcomes across every network and direction.
func (s *Snapshot) Counts() IROBCounts {
	var c IROBCounts
	for _, e := range s.IROBs.All() {
		c.Total++
		switch {
		case e.Complete():
			c.Complete++
		case e.Dropped():
			c.Dropped++
		}
		if e.AbnormalEnd {
			c.Abnormal++
		}
	}
	return c
}

// RelativeTime converts an absolute log timestamp to seconds since Start.
func (s *Snapshot) RelativeTime(ts float64) float64 {
	return ts - s.Start
}

func copySessions(in []model.Session) []model.Session {
	if in == nil {
		return nil
	}
	out := make([]model.Session, len(in))
	for i, sess := range in {
		out[i] = model.Session{Start: sess.Start}
		if sess.End != nil {
			out[i].End = model.Float(*sess.End)
		}
	}
	return out
}

func copyDecisions(in []model.RedundancyDecision) []model.RedundancyDecision {
	if in == nil {
		return nil
	}
	out := make([]model.RedundancyDecision, len(in))
	for i, d := range in {
		out[i] = model.RedundancyDecision{Timestamp: d.Timestamp, Benefit: d.Benefit}
		if d.Cost != nil {
			out[i].Cost = model.Float(*d.Cost)
		}
	}
	return out
}
