// Package telemetry counts reconstruction activity with Prometheus metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"intnwtrace/internal/engine"
	"intnwtrace/internal/logline"
	"intnwtrace/internal/model"
)

// Metrics implements engine.Observer.
type Metrics struct {
	registry *prometheus.Registry

	// LinesTotal counts classified lines by event kind
	LinesTotal *prometheus.CounterVec
	// RunsStarted counts runs by side
	RunsStarted *prometheus.CounterVec
	// RunsFinished counts snapshots handed to reporting
	RunsFinished prometheus.Counter
	// IROBsTotal counts IROBs of finished runs by outcome
	IROBsTotal *prometheus.CounterVec
	// ParseFailures counts reconstructions stopped by a parse error
	ParseFailures prometheus.Counter
	// DuplicateDowns counts repeated network-down notifications
	DuplicateDowns prometheus.Counter
	// RunDuration observes run lengths in log seconds
	RunDuration prometheus.Histogram
}

var _ engine.Observer = (*Metrics)(nil)

// New registers the metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		LinesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intnwtrace_lines_total",
				Help: "Log lines classified, by event kind",
			},
			[]string{"kind"},
		),
		RunsStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intnwtrace_runs_started_total",
				Help: "Runs opened by the segmenter",
			},
			[]string{"side"},
		),
		RunsFinished: factory.NewCounter(prometheus.CounterOpts{
			Name: "intnwtrace_runs_finished_total",
			Help: "Runs closed and snapshotted",
		}),
		IROBsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intnwtrace_irobs_total",
				Help: "IROBs in finished runs, by outcome",
			},
			[]string{"outcome"},
		),
		ParseFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "intnwtrace_parse_failures_total",
			Help: "Reconstructions aborted by a log parse error",
		}),
		DuplicateDowns: factory.NewCounter(prometheus.CounterOpts{
			Name: "intnwtrace_duplicate_downs_total",
			Help: "Network-down notifications for networks already down",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "intnwtrace_run_duration_seconds",
			Help:    "Length of finished runs in log time",
			Buckets: []float64{1, 10, 60, 300, 1800, 3600},
		}),
	}
}

// Registry returns the registry holding the metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// LineClassified counts one classified line by kind.
func (m *Metrics) LineClassified(kind logline.Kind) {
	m.LinesTotal.WithLabelValues(kind.String()).Inc()
}

// RunStarted counts a run opened on side.
func (m *Metrics) RunStarted(side model.Side) {
	m.RunsStarted.WithLabelValues(string(side)).Inc()
}

// RunFinished records the IROB outcomes and duration of a finished run.
func (m *Metrics) RunFinished(s *engine.Snapshot) {
	m.RunsFinished.Inc()
	m.RunDuration.Observe(s.End - s.Start)
	m.DuplicateDowns.Add(float64(s.DuplicateDowns))

	c := s.Counts()
	m.IROBsTotal.WithLabelValues("created").Add(float64(c.Total))
	m.IROBsTotal.WithLabelValues("complete").Add(float64(c.Complete))
	m.IROBsTotal.WithLabelValues("dropped").Add(float64(c.Dropped))
	m.IROBsTotal.WithLabelValues("abnormal").Add(float64(c.Abnormal))
}

// ParseFailed counts a reconstruction aborted by a parse error.
func (m *Metrics) ParseFailed() {
	m.ParseFailures.Inc()
}

// WriteTextfile writes the metrics in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
