// Package network reconstructs per-network-type availability periods and
// the IP and socket attributions that tie connections to them.
package network

import (
	"fmt"
	"sort"

	"intnwtrace/internal/logging"
	"intnwtrace/internal/model"
)

// Transfers is the IROB side of the tracker: it learns about network types
// and drops in-flight transfers when their connection disappears.
type Transfers interface {
	AddNetwork(network string)
	DropIncomplete(network string, ts float64) int
}

type attributionState int

const (
	unknown attributionState = iota
	placeholder
	resolved
)

// attribution is the state of one IP: unknown, a placeholder socket waiting
// for its network type, or resolved to a network type.
type attribution struct {
	state   attributionState
	socket  int
	network string
}

// Tracker owns the period sequences of every network type seen in a run.
type Tracker struct {
	periods   map[string][]*model.NetworkPeriod
	byIP      map[string]attribution
	bySocket  map[int]string
	server    bool
	transfers Transfers
	log       *logging.Logger

	duplicateDowns int
	dropped        int
}

// NewTracker returns an empty tracker. In server mode a connection teardown
// also ends the network period that carried it. transfers and log may be nil.
func NewTracker(server bool, transfers Transfers, log *logging.Logger) *Tracker {
	return &Tracker{
		periods:   make(map[string][]*model.NetworkPeriod),
		byIP:      make(map[string]attribution),
		bySocket:  make(map[int]string),
		server:    server,
		transfers: transfers,
		log:       log,
	}
}

func (t *Tracker) addNetwork(network string) {
	if _, ok := t.periods[network]; !ok {
		t.periods[network] = nil
	}
	if t.transfers != nil {
		t.transfers.AddNetwork(network)
	}
}

// NetworkUp opens a new period for network at ts and attributes ip to it.
// A socket that was waiting on ip is attached to the new period.
func (t *Tracker) NetworkUp(network, ip string, ts float64) error {
	t.addNetwork(network)
	t.startPeriod(network, ip, ts)

	prev := t.byIP[ip]
	t.byIP[ip] = attribution{state: resolved, network: network}
	if prev.state == placeholder {
		t.log.Debugf("resolving placeholder socket %d on %s to %s", prev.socket, ip, network)
		return t.attachSocket(prev.socket, ip)
	}
	return nil
}

// NetworkDown closes the current period of network at ts. Closing a period
// that is already closed is logged and tolerated.
func (t *Tracker) NetworkDown(network, ip string, ts float64) error {
	periods := t.periods[network]
	if len(periods) == 0 {
		return &model.UnknownNetworkError{Network: network}
	}
	current := periods[len(periods)-1]
	if !current.Ongoing() {
		t.duplicateDowns++
		t.log.Warnf("double-ending %s period at %f", network, ts)
	}
	current.End = model.Float(ts)

	if a := t.byIP[ip]; a.state == resolved && a.network == network {
		delete(t.byIP, ip)
	}
	return nil
}

func (t *Tracker) startPeriod(network, ip string, ts float64) *model.NetworkPeriod {
	periods := t.periods[network]
	if n := len(periods); n > 0 && periods[n-1].Ongoing() {
		prev := periods[n-1]
		prev.End = model.Float(ts)
		if a := t.byIP[prev.IP]; prev.IP != ip && a.state == resolved && a.network == network {
			delete(t.byIP, prev.IP)
		}
	}
	p := &model.NetworkPeriod{Start: ts, IP: ip}
	t.periods[network] = append(periods, p)
	return p
}

// ConnectionEstablished attributes socket to the network type of ip, or
// holds it as a placeholder until that network type becomes known.
func (t *Tracker) ConnectionEstablished(socket int, ip string) error {
	a := t.byIP[ip]
	switch a.state {
	case resolved:
		return t.attachSocket(socket, ip)
	case placeholder:
		return fmt.Errorf("socket %d on %s while socket %d is still waiting for its network: %w",
			socket, ip, a.socket, model.ErrIntegrity)
	default:
		t.byIP[ip] = attribution{state: placeholder, socket: socket}
		t.log.Debugf("socket %d on %s held as placeholder", socket, ip)
		return nil
	}
}

// IncomingConnection opens a period, attributes ip and attaches socket in
// one step. The server never sees scout notifications for client networks.
func (t *Tracker) IncomingConnection(socket int, ip, network string, ts float64) error {
	t.addNetwork(network)
	t.startPeriod(network, ip, ts)
	t.byIP[ip] = attribution{state: resolved, network: network}
	return t.attachSocket(socket, ip)
}

// ConnectionTornDown detaches socket from its network and marks every
// incomplete IROB on that network dropped at ts. Unknown sockets are ignored.
func (t *Tracker) ConnectionTornDown(socket int, ts float64) error {
	network, ok := t.bySocket[socket]
	if !ok {
		for ip, a := range t.byIP {
			if a.state == placeholder && a.socket == socket {
				delete(t.byIP, ip)
			}
		}
		return nil
	}
	delete(t.bySocket, socket)

	period := t.periodWithSocket(network, socket)
	if period != nil {
		period.Socket = nil
	}
	if t.transfers != nil {
		t.dropped += t.transfers.DropIncomplete(network, ts)
	}
	if t.server && period != nil {
		return t.NetworkDown(network, period.IP, ts)
	}
	return nil
}

func (t *Tracker) periodWithSocket(network string, socket int) *model.NetworkPeriod {
	periods := t.periods[network]
	for i := len(periods) - 1; i >= 0; i-- {
		if s := periods[i].Socket; s != nil && *s == socket {
			return periods[i]
		}
	}
	return nil
}

func (t *Tracker) attachSocket(socket int, ip string) error {
	network := t.byIP[ip].network
	periods := t.periods[network]
	if len(periods) == 0 {
		return &model.UnknownNetworkError{Network: network, Socket: socket}
	}
	current := periods[len(periods)-1]
	if current.IP != ip {
		return fmt.Errorf("socket %d on %s but current %s period belongs to %s: %w",
			socket, ip, network, current.IP, model.ErrIntegrity)
	}
	if current.Socket != nil {
		return fmt.Errorf("socket %d on %s but %s period already carries socket %d: %w",
			socket, ip, network, *current.Socket, model.ErrIntegrity)
	}
	if other, ok := t.bySocket[socket]; ok {
		return fmt.Errorf("socket %d already attributed to %s: %w", socket, other, model.ErrIntegrity)
	}
	current.Socket = model.Int(socket)
	t.bySocket[socket] = network
	return nil
}

// NetworkForSocket returns the network type socket is attributed to.
func (t *Tracker) NetworkForSocket(socket int) (string, error) {
	network, ok := t.bySocket[socket]
	if !ok {
		return "", &model.UnknownNetworkError{Socket: socket}
	}
	return network, nil
}

// SoleNetwork returns the network type of the only attributed socket, for
// lines that carry no socket tag.
func (t *Tracker) SoleNetwork() (string, error) {
	if len(t.bySocket) != 1 {
		return "", &model.UnknownNetworkError{Socket: -1}
	}
	for _, network := range t.bySocket {
		return network, nil
	}
	return "", nil
}

// Networks returns the network types seen so far, sorted.
func (t *Tracker) Networks() []string {
	out := make([]string, 0, len(t.periods))
	for n := range t.periods {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Periods returns a copy of network's period sequence.
func (t *Tracker) Periods(network string) []model.NetworkPeriod {
	src := t.periods[network]
	out := make([]model.NetworkPeriod, len(src))
	for i, p := range src {
		out[i] = model.NetworkPeriod{Start: p.Start, IP: p.IP}
		if p.End != nil {
			out[i].End = model.Float(*p.End)
		}
		if p.Socket != nil {
			out[i].Socket = model.Int(*p.Socket)
		}
	}
	return out
}

// Snapshot copies every period sequence.
func (t *Tracker) Snapshot() map[string][]model.NetworkPeriod {
	out := make(map[string][]model.NetworkPeriod, len(t.periods))
	for n := range t.periods {
		out[n] = t.Periods(n)
	}
	return out
}

// DuplicateDowns counts tolerated down notifications on closed periods.
func (t *Tracker) DuplicateDowns() int {
	return t.duplicateDowns
}

// Dropped counts IROBs dropped by connection teardowns.
func (t *Tracker) Dropped() int {
	return t.dropped
}
