// Package estimator records the network estimator's observation/estimate
// samples and derives error series and bounds from them.
package estimator

import (
	"sort"

	"intnwtrace/internal/model"
)

// Tracker holds the ordered samples of every (network type, metric) series
// in a run.
type Tracker struct {
	series  map[model.SeriesKey][]model.Sample
	pending *model.SeriesKey
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{series: make(map[model.SeriesKey][]model.Sample)}
}

// AddObservation appends a sample whose estimate is still unknown.
func (t *Tracker) AddObservation(network string, metric model.Metric, ts, value float64) {
	key := model.SeriesKey{Network: network, Metric: metric}
	t.series[key] = append(t.series[key], model.Sample{Timestamp: ts, Observation: value})
	t.pending = &key
}

// AddEstimate fills the estimate of the observation recorded immediately
// before it. Any other ordering is an error.
func (t *Tracker) AddEstimate(network string, metric model.Metric, value float64) error {
	key := model.SeriesKey{Network: network, Metric: metric}
	if t.pending == nil || *t.pending != key {
		return &model.EstimatorOrderingError{Network: network, Metric: metric}
	}
	samples := t.series[key]
	last := &samples[len(samples)-1]
	if last.Estimate != nil {
		return &model.EstimatorOrderingError{Network: network, Metric: metric}
	}
	last.Estimate = model.Float(value)
	t.pending = nil
	return nil
}

// Samples returns a copy of the series for (network, metric).
func (t *Tracker) Samples(network string, metric model.Metric) []model.Sample {
	src := t.series[model.SeriesKey{Network: network, Metric: metric}]
	out := make([]model.Sample, len(src))
	for i, s := range src {
		out[i] = model.Sample{Timestamp: s.Timestamp, Observation: s.Observation}
		if s.Estimate != nil {
			out[i].Estimate = model.Float(*s.Estimate)
		}
	}
	return out
}

// Keys returns every series with at least one sample, ordered by network
// then metric.
func (t *Tracker) Keys() []model.SeriesKey {
	keys := make([]model.SeriesKey, 0, len(t.series))
	for k := range t.series {
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

// Snapshot copies every series.
func (t *Tracker) Snapshot() map[model.SeriesKey][]model.Sample {
	out := make(map[model.SeriesKey][]model.Sample, len(t.series))
	for k := range t.series {
		out[k] = t.Samples(k.Network, k.Metric)
	}
	return out
}
