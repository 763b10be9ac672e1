package model

import "fmt"

// Direction of an IROB relative to the logging endpoint.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Directions lists both directions in report order.
var Directions = []Direction{Down, Up}

// Metric names an estimator series, or the derived transfer-time selector.
type Metric string

const (
	BandwidthUp Metric = "bandwidth_up"
	Latency     Metric = "latency"
	TxTime      Metric = "tx_time"
)

// EstimatorMetrics are the metrics the estimator tracker records.
var EstimatorMetrics = []Metric{BandwidthUp, Latency}

// Side selects the client or server run-segmentation rules.
type Side string

const (
	Client Side = "client"
	Server Side = "server"
)

// NetworkPeriod is a contiguous interval during which a network type was up.
type NetworkPeriod struct {
	Start  float64
	End    *float64 // nil while ongoing
	IP     string
	Socket *int // nil until a connection is attributed
}

// Ongoing reports whether the period has not been closed.
func (p NetworkPeriod) Ongoing() bool {
	return p.End == nil
}

// EndOr returns the end timestamp, or fallback for an ongoing period.
func (p NetworkPeriod) EndOr(fallback float64) float64 {
	if p.End == nil {
		return fallback
	}
	return *p.End
}

// Sample is one estimator update: the observation and the estimate produced from it.
type Sample struct {
	Timestamp   float64
	Observation float64
	Estimate    *float64 // filled exactly once, right after the observation
}

// SeriesKey identifies an estimator series.
type SeriesKey struct {
	Network string
	Metric  Metric
}

func (k SeriesKey) String() string {
	return fmt.Sprintf("%s-%s", k.Network, k.Metric)
}

// ChooseNetworkCall is one timed network-selection call.
type ChooseNetworkCall struct {
	Timestamp float64
	Duration  float64
}

// Session is an application-level session from the trace replayer.
type Session struct {
	Start float64
	End   *float64
}

// Duration returns the session length, or zero while the end is unknown.
func (s Session) Duration() float64 {
	if s.End == nil {
		return 0
	}
	return *s.End - s.Start
}

// RedundancyDecision is one redundant-strategy evaluation.
type RedundancyDecision struct {
	Timestamp float64
	Benefit   float64
	Cost      *float64
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}
