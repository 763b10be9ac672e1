// Package logline classifies IntNW diagnostic log lines into events.
package logline

import "intnwtrace/internal/model"

// Kind identifies the semantic event a log line carries.
type Kind int

const (
	KindIgnored Kind = iota

	KindNetworkStatus         // Got update from scout: <ip> is up|down ... type <net>
	KindConnectionEstablished // Successfully bound osfd <sock> to <ip>:<port>
	KindIncomingConnection    // Adding connection <sock> from <ip> ... type <net>
	KindConnectionTornDown    // CSocket <sock> is being destroyed
	KindChunkPrepared         // Getting bytes to send from IROB <id>
	KindChunkSent             // ...returning <n> bytes

	// Protocol messages (About to send message / Received message)
	KindBeginIROB // Begin_IROB or Data_Check
	KindIROBChunk // IROB_chunk ... datalen: <n>
	KindEndIROB   // End_IROB ... expected_bytes: <n> (received only)
	KindAck       // Ack ... IROB: <id> (received only)

	KindEstimatorObservation // Adding new stats to <net> network estimator
	KindChooseNetwork        // chooseNetwork ... took <s> seconds
	KindRedundancyStrategy   // redundancy_strategy_type: <name>
)

var kindNames = map[Kind]string{
	KindIgnored:               "ignored",
	KindNetworkStatus:         "network_status",
	KindConnectionEstablished: "connection_established",
	KindIncomingConnection:    "incoming_connection",
	KindConnectionTornDown:    "connection_torn_down",
	KindChunkPrepared:         "chunk_prepared",
	KindChunkSent:             "chunk_sent",
	KindBeginIROB:             "begin_irob",
	KindIROBChunk:             "irob_chunk",
	KindEndIROB:               "end_irob",
	KindAck:                   "ack",
	KindEstimatorObservation:  "estimator_observation",
	KindChooseNetwork:         "choose_network",
	KindRedundancyStrategy:    "redundancy_strategy",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Observation is one (observation, estimate) pair from an estimator line.
type Observation struct {
	Metric      model.Metric
	Observation float64
	Estimate    float64
}

// Event is a classified log line. Only the fields relevant to Kind are set.
type Event struct {
	Kind      Kind
	Timestamp float64
	HasTime   bool
	PID       int
	HasPID    bool

	// Socket comes from the [CSockSender N]/[CSockReceiver N] tag or an
	// explicit socket field on connection lines.
	Socket    int
	HasSocket bool

	IP      string
	Network string
	Up      bool

	Direction   model.Direction
	MessageType string
	IROB        int
	Bytes       int
	Expected    int

	Observations []Observation

	Duration    float64
	HasDuration bool

	Strategy string
}
