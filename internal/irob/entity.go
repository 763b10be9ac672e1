// Package irob tracks the lifecycle of IntNW IROBs (individually reliable
// ordered byte-streams) per network type and direction.
package irob

import (
	"fmt"

	"intnwtrace/internal/model"
)

// Entity is one logical transfer.
type Entity struct {
	ID        int
	Network   string
	Direction model.Direction
	Start     float64

	Bytes        *int // nil until the first data arrives
	Expected     *int // nil until the receiver learns the total size
	Completion   *float64
	Drop         *float64
	LastActivity float64
	Acked        bool

	// AbnormalEnd flags an interval that could only be approximated.
	AbnormalEnd bool
}

func newEntity(network string, dir model.Direction, id int, start float64) *Entity {
	e := &Entity{ID: id, Network: network, Direction: dir, Start: start}
	e.touch(start)
	return e
}

func (e *Entity) String() string {
	return fmt.Sprintf("IROB %d (%s, %s)", e.ID, e.Direction, e.Network)
}

// AddBytes accumulates n bytes of payload seen at ts.
func (e *Entity) AddBytes(ts float64, n int) {
	if e.Bytes == nil {
		e.Bytes = model.Int(0)
	}
	*e.Bytes += n
	e.touch(ts)
}

// Finish records the receiver-reported total size.
func (e *Entity) Finish(ts float64, expected int) {
	e.Expected = model.Int(expected)
	e.touch(ts)
}

// Ack marks the transfer acknowledged.
func (e *Entity) Ack(ts float64) {
	e.Acked = true
	e.touch(ts)
}

// MarkDropped records the drop time. Only the first call has effect; it
// reports whether this call set the drop time.
func (e *Entity) MarkDropped(ts float64) bool {
	if e.Drop != nil {
		return false
	}
	e.Drop = model.Float(ts)
	return true
}

// Dropped reports whether a drop was recorded.
func (e *Entity) Dropped() bool {
	return e.Drop != nil
}

// Complete reports whether the transfer has been acknowledged and, for
// downloads, all expected bytes have arrived.
func (e *Entity) Complete() bool {
	if !e.Acked || e.Bytes == nil {
		return false
	}
	if e.Direction == model.Up {
		return true
	}
	return e.Expected != nil && *e.Bytes >= *e.Expected
}

func (e *Entity) touch(ts float64) {
	e.LastActivity = ts
	if e.Completion == nil && e.Complete() {
		e.Completion = model.Float(ts)
	}
}

// Unbounded reports whether no completion, ack or drop ends the transfer.
func (e *Entity) Unbounded() bool {
	return !e.Complete() && !e.Acked && e.Drop == nil
}

// Interval returns the effective [start, end] of the transfer. When the
// transfer is unbounded the end is the last activity.
func (e *Entity) Interval() (float64, float64) {
	if e.Complete() {
		return e.Start, *e.Completion
	}
	if e.Acked {
		return e.Start, e.LastActivity
	}
	if e.Drop != nil {
		return e.Start, *e.Drop
	}
	return e.Start, e.LastActivity
}

// Duration is the length of Interval.
func (e *Entity) Duration() float64 {
	start, end := e.Interval()
	return end - start
}

// Size returns the accumulated byte count.
func (e *Entity) Size() (int, error) {
	if e.Bytes == nil || *e.Bytes == 0 {
		return 0, fmt.Errorf("%s: no bytes recorded", e)
	}
	return *e.Bytes, nil
}

// clone copies e for a finished run and fixes its AbnormalEnd flag.
func (e *Entity) clone() *Entity {
	c := *e
	c.AbnormalEnd = e.Unbounded()
	if e.Bytes != nil {
		c.Bytes = model.Int(*e.Bytes)
	}
	if e.Expected != nil {
		c.Expected = model.Int(*e.Expected)
	}
	if e.Completion != nil {
		c.Completion = model.Float(*e.Completion)
	}
	if e.Drop != nil {
		c.Drop = model.Float(*e.Drop)
	}
	return &c
}
