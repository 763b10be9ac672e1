package model

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed marks a line that matched an event prefix but whose
	// fields could not be extracted.
	ErrMalformed = errors.New("malformed line")
	// ErrIntegrity marks a line that contradicts previously reconstructed state.
	ErrIntegrity = errors.New("inconsistent log state")
)

// ParseError is a fatal reconstruction failure tied to one log line.
type ParseError struct {
	Line int // 1-based; 0 when not yet known
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	line := "<unknown>"
	if e.Line > 0 {
		line = fmt.Sprintf("%d", e.Line)
	}
	msg := fmt.Sprintf("log parse error at line %s: %v", line, e.Err)
	if e.Text != "" {
		msg += "\n" + e.Text
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UnknownNetworkError reports an event on a network type, or a socket,
// that was never attributed. Socket is -1 for lines without a socket tag.
type UnknownNetworkError struct {
	Network string
	Socket  int
}

func (e *UnknownNetworkError) Error() string {
	if e.Network == "" && e.Socket < 0 {
		return "saw data with no socket tag and no single attributed network"
	}
	if e.Network == "" {
		return fmt.Sprintf("saw data on socket %d with no known network", e.Socket)
	}
	return fmt.Sprintf("saw data on unknown network %q", e.Network)
}

// UnknownIROBError reports a reference to an IROB with no known start.
type UnknownIROBError struct {
	Network   string
	Direction Direction
	ID        int
}

func (e *UnknownIROBError) Error() string {
	return fmt.Sprintf("unknown IROB %d (%s, %s)", e.ID, e.Network, e.Direction)
}

// EstimatorOrderingError reports an estimate that does not directly follow
// its observation.
type EstimatorOrderingError struct {
	Network string
	Metric  Metric
}

func (e *EstimatorOrderingError) Error() string {
	return fmt.Sprintf("estimate for %s-%s without a pending observation", e.Network, e.Metric)
}

// WithLine attaches line context to err unless it already carries a line number.
func WithLine(err error, line int, text string) error {
	if err == nil {
		return nil
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		if pe.Line == 0 {
			pe.Line = line
			pe.Text = text
		}
		return err
	}
	return &ParseError{Line: line, Text: text, Err: err}
}
