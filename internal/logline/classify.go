package logline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"intnwtrace/internal/addrutil"
	"intnwtrace/internal/model"
)

// RunStartMarker begins a new run in server mode.
const RunStartMarker = "Accepting connection from"

// Timestamp extracts the leading [seconds] field.
func Timestamp(line string) (float64, bool) {
	m := reTimestamp.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	ts, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}

// PID extracts the process id from the second bracketed field.
func PID(line string) (int, bool) {
	m := rePID.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	pid, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return pid, true
}

// IsNetworkStatus reports whether line is a scout network notification.
func IsNetworkStatus(line string) bool {
	return strings.Contains(line, "scout: ")
}

// Classify determines which event line carries. Patterns are tried in a
// fixed priority order and the first match wins. A line that matches an
// event prefix but lacks its required fields yields an error wrapping
// model.ErrMalformed.
func Classify(line string) (Event, error) {
	ev := Event{Kind: KindIgnored}
	ev.Timestamp, ev.HasTime = Timestamp(line)
	ev.PID, ev.HasPID = PID(line)
	if m := reSocketTag.FindStringSubmatch(line); m != nil {
		ev.Socket, _ = strconv.Atoi(m[1])
		ev.HasSocket = true
	}

	var err error
	switch {
	case IsNetworkStatus(line):
		err = ev.parseScout(line)
	case strings.Contains(line, "Successfully bound"):
		err = ev.parseBound(line)
	case strings.Contains(line, "Adding connection"):
		err = ev.parseIncoming(line)
	case reDestroyed.MatchString(line):
		m := reDestroyed.FindStringSubmatch(line)
		ev.Kind = KindConnectionTornDown
		ev.Socket, err = strconv.Atoi(m[1])
		ev.HasSocket = err == nil
	case strings.Contains(line, "Getting bytes to send from IROB"):
		ev.Kind = KindChunkPrepared
		ev.Direction = model.Up
		ev.IROB, err = intField(reChunkPrepared, line, "IROB id")
	case strings.Contains(line, "...returning "):
		ev.Kind = KindChunkSent
		ev.Direction = model.Up
		ev.Bytes, err = intField(reChunkSent, line, "byte count")
	case strings.Contains(line, "About to send message"), strings.Contains(line, "Received message"):
		err = ev.parseMessage(line)
	case strings.Contains(line, "network estimator"):
		err = ev.parseEstimator(line)
	case strings.Contains(line, "chooseNetwork"):
		ev.Kind = KindChooseNetwork
		if m := reChooseTook.FindStringSubmatch(line); m != nil {
			ev.Duration, err = strconv.ParseFloat(m[1], 64)
			ev.HasDuration = err == nil
		}
	case strings.Contains(line, "redundancy_strategy_type"):
		m := reStrategy.FindStringSubmatch(line)
		if m == nil {
			err = malformed("redundancy strategy")
			break
		}
		ev.Kind = KindRedundancyStrategy
		ev.Strategy = m[1]
	default:
		return ev, nil
	}
	if err != nil {
		return Event{}, err
	}
	if ev.Kind != KindIgnored && !ev.HasTime {
		return Event{}, malformed("timestamp")
	}
	return ev, nil
}

func (ev *Event) parseScout(line string) error {
	m := reScout.FindStringSubmatch(line)
	if m == nil {
		return malformed("scout notification")
	}
	ev.Kind = KindNetworkStatus
	ev.IP = strings.TrimSuffix(m[1], ",")
	ev.Up = m[2] == "up"
	ev.Network = m[3]
	return nil
}

func (ev *Event) parseBound(line string) error {
	m := reBound.FindStringSubmatch(line)
	if m == nil {
		return malformed("bound connection")
	}
	if !ev.HasSocket {
		if m[1] == "" {
			return malformed("socket id")
		}
		ev.Socket, _ = strconv.Atoi(m[1])
		ev.HasSocket = true
	}
	ev.IP = addrutil.Host(m[2])
	if !reIPAddress.MatchString(ev.IP) {
		ip := reIPAddress.FindString(line)
		if ip == "" {
			return malformed("IP address")
		}
		ev.IP = ip
	}
	ev.Kind = KindConnectionEstablished
	return nil
}

func (ev *Event) parseIncoming(line string) error {
	m := reIncoming.FindStringSubmatch(line)
	if m == nil {
		return malformed("incoming connection")
	}
	ev.Kind = KindIncomingConnection
	ev.Socket, _ = strconv.Atoi(m[1])
	ev.HasSocket = true
	ev.IP = m[2]
	ev.Network = m[3]
	return nil
}

func (ev *Event) parseMessage(line string) error {
	m := reMessageType.FindStringSubmatch(line)
	if m == nil {
		return malformed("message type")
	}
	ev.Direction = model.Down
	if m[1] == "About to send" {
		ev.Direction = model.Up
	}
	ev.MessageType = m[2]

	var err error
	switch {
	case ev.MessageType == "Begin_IROB" || ev.MessageType == "Data_Check":
		ev.Kind = KindBeginIROB
		ev.IROB, err = intField(reIROB, line, "IROB id")
	case ev.MessageType == "IROB_chunk":
		ev.Kind = KindIROBChunk
		if ev.IROB, err = intField(reIROB, line, "IROB id"); err != nil {
			return err
		}
		ev.Bytes, err = intField(reDatalen, line, "datalen")
	case ev.MessageType == "End_IROB" && ev.Direction == model.Down:
		ev.Kind = KindEndIROB
		if ev.IROB, err = intField(reIROB, line, "IROB id"); err != nil {
			return err
		}
		ev.Expected, err = intField(reExpectedBytes, line, "expected_bytes")
	case ev.MessageType == "Ack" && ev.Direction == model.Down:
		ev.Kind = KindAck
		ev.IROB, err = intField(reIROB, line, "IROB id")
	default:
		ev.Kind = KindIgnored
	}
	return err
}

func (ev *Event) parseEstimator(line string) error {
	m := reEstimator.FindStringSubmatch(line)
	if m == nil {
		return malformed("estimator network")
	}
	ev.Kind = KindEstimatorObservation
	ev.Network = m[1]

	pairs := []struct {
		metric model.Metric
		re     *regexp.Regexp
	}{
		{model.BandwidthUp, reBandwidth},
		{model.Latency, reLatency},
	}
	for _, p := range pairs {
		sm := p.re.FindStringSubmatch(line)
		if sm == nil {
			continue
		}
		obs, err := strconv.ParseFloat(sm[1], 64)
		if err != nil {
			return malformed(string(p.metric) + " observation")
		}
		est, err := strconv.ParseFloat(sm[2], 64)
		if err != nil {
			return malformed(string(p.metric) + " estimate")
		}
		if obs <= 0 {
			continue
		}
		ev.Observations = append(ev.Observations, Observation{
			Metric:      p.metric,
			Observation: obs,
			Estimate:    est,
		})
	}
	return nil
}

func intField(re *regexp.Regexp, line, what string) (int, error) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return 0, malformed(what)
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, malformed(what)
	}
	return v, nil
}

func malformed(what string) error {
	return fmt.Errorf("missing %s: %w", what, model.ErrMalformed)
}
