package engine

import (
	"fmt"

	"github.com/google/uuid"

	"intnwtrace/internal/estimator"
	"intnwtrace/internal/history"
	"intnwtrace/internal/irob"
	"intnwtrace/internal/logging"
	"intnwtrace/internal/logline"
	"intnwtrace/internal/model"
	"intnwtrace/internal/network"
)

// untagged keys the sending context of lines that carry no socket tag.
const untagged = -1

// RunContext is the run-external data handed to each new run.
type RunContext struct {
	Sessions  []model.Session
	Decisions []model.RedundancyDecision
	History   *history.History
}

// Run is one independent reconstruction scope.
type Run struct {
	ID     string
	Number int
	Side   model.Side

	Start    float64
	End      float64
	hasStart bool

	Strategy      string
	ChooseNetwork []model.ChooseNetworkCall
	Sessions      []model.Session
	Decisions     []model.RedundancyDecision
	History       *history.History

	IROBs     *irob.Registry
	Networks  *network.Tracker
	Estimates *estimator.Tracker

	// sending maps a socket to the IROB it is currently writing.
	sending  map[int]int
	lastTime float64
	hasLast  bool
	log      *logging.Logger
}

// NewRun returns an empty run. Its start is the first session start when
// sessions are known, otherwise the first timestamp it sees.
func NewRun(number int, side model.Side, rc RunContext, log *logging.Logger) *Run {
	reg := irob.NewRegistry(log)
	r := &Run{
		ID:        uuid.NewString(),
		Number:    number,
		Side:      side,
		Sessions:  rc.Sessions,
		Decisions: rc.Decisions,
		History:   rc.History,
		IROBs:     reg,
		Networks:  network.NewTracker(side == model.Server, reg, log),
		Estimates: estimator.NewTracker(),
		sending:   make(map[int]int),
		log:       log,
	}
	if len(rc.Sessions) > 0 {
		r.Start = rc.Sessions[0].Start
		r.hasStart = true
	}
	return r
}

// Apply folds one classified line into the run.
func (r *Run) Apply(ev logline.Event) error {
	if ev.HasTime {
		if !r.hasStart {
			r.Start, r.hasStart = ev.Timestamp, true
		}
		r.End = ev.Timestamp
	}
	err := r.apply(ev)
	if ev.HasTime {
		r.lastTime, r.hasLast = ev.Timestamp, true
	}
	return err
}

func (r *Run) apply(ev logline.Event) error {
	ts := ev.Timestamp
	switch ev.Kind {
	case logline.KindNetworkStatus:
		if r.Side == model.Server {
			return nil
		}
		if ev.Up {
			return r.Networks.NetworkUp(ev.Network, ev.IP, ts)
		}
		return r.Networks.NetworkDown(ev.Network, ev.IP, ts)

	case logline.KindConnectionEstablished:
		return r.Networks.ConnectionEstablished(ev.Socket, ev.IP)

	case logline.KindIncomingConnection:
		return r.Networks.IncomingConnection(ev.Socket, ev.IP, ev.Network, ts)

	case logline.KindConnectionTornDown:
		delete(r.sending, ev.Socket)
		return r.Networks.ConnectionTornDown(ev.Socket, ts)

	case logline.KindChunkPrepared:
		net, err := r.networkFor(ev)
		if err != nil {
			return err
		}
		r.sending[socketKey(ev)] = ev.IROB
		_, err = r.IROBs.GetOrCreate(net, model.Up, ev.IROB, ts)
		return err

	case logline.KindChunkSent:
		id, ok := r.sending[socketKey(ev)]
		if !ok {
			return fmt.Errorf("%d bytes sent with no IROB being sent: %w", ev.Bytes, model.ErrIntegrity)
		}
		net, err := r.networkFor(ev)
		if err != nil {
			return err
		}
		return r.IROBs.AddBytes(net, model.Up, id, ts, ev.Bytes)

	case logline.KindBeginIROB:
		net, err := r.networkFor(ev)
		if err != nil {
			return err
		}
		if ev.Direction == model.Up {
			delete(r.sending, socketKey(ev))
		}
		_, err = r.IROBs.GetOrCreate(net, ev.Direction, ev.IROB, ts)
		return err

	case logline.KindIROBChunk:
		net, err := r.networkFor(ev)
		if err != nil {
			return err
		}
		return r.IROBs.AddBytes(net, ev.Direction, ev.IROB, ts, ev.Bytes)

	case logline.KindEndIROB:
		net, err := r.networkFor(ev)
		if err != nil {
			return err
		}
		if err := r.IROBs.Finish(net, ev.IROB, ts, ev.Expected); err != nil {
			return err
		}
		// End_IROB acknowledges a download
		return r.IROBs.Ack(net, model.Down, ev.IROB, ts)

	case logline.KindAck:
		net, err := r.networkFor(ev)
		if err != nil {
			return err
		}
		return r.IROBs.Ack(net, model.Up, ev.IROB, ts)

	case logline.KindEstimatorObservation:
		for _, o := range ev.Observations {
			r.Estimates.AddObservation(ev.Network, o.Metric, ts, o.Observation)
			if err := r.Estimates.AddEstimate(ev.Network, o.Metric, o.Estimate); err != nil {
				return err
			}
		}
		return nil

	case logline.KindChooseNetwork:
		duration := ev.Duration
		if !ev.HasDuration {
			duration = 0
			if r.hasLast {
				duration = ts - r.lastTime
			}
		}
		r.ChooseNetwork = append(r.ChooseNetwork, model.ChooseNetworkCall{Timestamp: ts, Duration: duration})
		return nil

	case logline.KindRedundancyStrategy:
		if r.Strategy == "" {
			r.Strategy = ev.Strategy
		}
		return nil
	}
	return nil
}

func (r *Run) networkFor(ev logline.Event) (string, error) {
	if ev.HasSocket {
		return r.Networks.NetworkForSocket(ev.Socket)
	}
	return r.Networks.SoleNetwork()
}

func socketKey(ev logline.Event) int {
	if ev.HasSocket {
		return ev.Socket
	}
	return untagged
}
