// Package report computes per-run statistics from reconstructed runs.
package report

import (
	"math"
	"sort"

	"intnwtrace/internal/engine"
	"intnwtrace/internal/irob"
	"intnwtrace/internal/model"
)

// WiFi is the network type whose periods drive the session analysis.
const WiFi = "wifi"

// DurationStat is the average IROB duration for one network and direction.
type DurationStat struct {
	Network   string
	Direction model.Direction
	Count     int
	Mean      float64
}

// AverageDurations returns the mean effective IROB duration per
// (network, direction). Pairs without IROBs have Count 0.
func AverageDurations(snap *engine.Snapshot) []DurationStat {
	var out []DurationStat
	for _, network := range snap.IROBs.Networks() {
		for _, dir := range model.Directions {
			stat := DurationStat{Network: network, Direction: dir}
			var total float64
			for _, e := range snap.IROBs.Entities(network, dir) {
				total += e.Duration()
				stat.Count++
			}
			if stat.Count > 0 {
				stat.Mean = total / float64(stat.Count)
			}
			out = append(out, stat)
		}
	}
	return out
}

// IROBsInRange returns IROBs whose effective interval, relative to the run
// start, lies within [start, end].
func IROBsInRange(snap *engine.Snapshot, start, end float64) []*irob.Entity {
	var out []*irob.Entity
	for _, e := range snap.IROBs.All() {
		s, f := e.Interval()
		if snap.RelativeTime(s) >= start && snap.RelativeTime(f) <= end {
			out = append(out, e)
		}
	}
	return out
}

// ChooseNetworkTotal sums the time spent in chooseNetwork calls.
func ChooseNetworkTotal(snap *engine.Snapshot) (seconds float64, calls int) {
	for _, c := range snap.ChooseNetwork {
		seconds += c.Duration
	}
	return seconds, len(snap.ChooseNetwork)
}

// Upload is the earliest upload IROB of an id across networks.
type Upload struct {
	ID      int
	Network string
	Start   float64 // relative to run start
	Size    int
}

// Uploads returns every upload IROB starting after the run start, keeping
// the earliest instance of each id, in start order. An upload that never
// carried bytes is an error.
func Uploads(snap *engine.Snapshot) ([]Upload, error) {
	var out []Upload
	for _, e := range earliestUploads(snap) {
		size, err := e.Size()
		if err != nil {
			return nil, err
		}
		out = append(out, toUpload(snap, e, size))
	}
	return out, nil
}

// SizedUploads is Uploads that skips uploads without bytes, returning them
// separately.
func SizedUploads(snap *engine.Snapshot) (out []Upload, unsized []*irob.Entity) {
	for _, e := range earliestUploads(snap) {
		size, err := e.Size()
		if err != nil {
			unsized = append(unsized, e)
			continue
		}
		out = append(out, toUpload(snap, e, size))
	}
	return out, unsized
}

func toUpload(snap *engine.Snapshot, e *irob.Entity, size int) Upload {
	return Upload{ID: e.ID, Network: e.Network, Start: snap.RelativeTime(e.Start), Size: size}
}

func earliestUploads(snap *engine.Snapshot) []*irob.Entity {
	earliest := make(map[int]*irob.Entity)
	for _, network := range snap.IROBs.Networks() {
		for _, e := range snap.IROBs.Entities(network, model.Up) {
			if cur, ok := earliest[e.ID]; !ok || e.Start < cur.Start {
				earliest[e.ID] = e
			}
		}
	}

	entities := make([]*irob.Entity, 0, len(earliest))
	for _, e := range earliest {
		if snap.RelativeTime(e.Start) > 0 {
			entities = append(entities, e)
		}
	}
	sort.Slice(entities, func(i, j int) bool {
		if entities[i].Start != entities[j].Start {
			return entities[i].Start < entities[j].Start
		}
		return entities[i].ID < entities[j].ID
	})
	return entities
}

// Unbounded is an IROBsInRange end that admits every IROB.
var Unbounded = math.Inf(1)
