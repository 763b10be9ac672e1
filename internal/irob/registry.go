package irob

import (
	"sort"

	"intnwtrace/internal/logging"
	"intnwtrace/internal/model"
)

// Registry maps (network type, direction, id) to entities. Entities are
// never removed for the lifetime of a run.
type Registry struct {
	networks map[string]map[model.Direction]map[int]*Entity
	log      *logging.Logger
}

// NewRegistry returns an empty registry. log may be nil.
func NewRegistry(log *logging.Logger) *Registry {
	return &Registry{
		networks: make(map[string]map[model.Direction]map[int]*Entity),
		log:      log,
	}
}

// AddNetwork makes a network type known. Adding it twice is a no-op.
func (r *Registry) AddNetwork(network string) {
	if _, ok := r.networks[network]; ok {
		return
	}
	r.networks[network] = map[model.Direction]map[int]*Entity{
		model.Down: {},
		model.Up:   {},
	}
}

// HasNetwork reports whether network has been added.
func (r *Registry) HasNetwork(network string) bool {
	_, ok := r.networks[network]
	return ok
}

// Networks returns the known network types in sorted order.
func (r *Registry) Networks() []string {
	out := make([]string, 0, len(r.networks))
	for n := range r.networks {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Get looks up an existing entity.
func (r *Registry) Get(network string, dir model.Direction, id int) (*Entity, error) {
	byDir, ok := r.networks[network]
	if !ok {
		return nil, &model.UnknownNetworkError{Network: network}
	}
	e, ok := byDir[dir][id]
	if !ok {
		return nil, &model.UnknownIROBError{Network: network, Direction: dir, ID: id}
	}
	return e, nil
}

// GetOrCreate returns the entity for id, creating it with start if it does
// not exist yet.
func (r *Registry) GetOrCreate(network string, dir model.Direction, id int, start float64) (*Entity, error) {
	byDir, ok := r.networks[network]
	if !ok {
		return nil, &model.UnknownNetworkError{Network: network}
	}
	if e, ok := byDir[dir][id]; ok {
		return e, nil
	}
	e := newEntity(network, dir, id, start)
	byDir[dir][id] = e
	r.log.Debugf("adding %s at %f", e, start)
	return e, nil
}

// AddBytes accumulates bytes on an existing entity.
func (r *Registry) AddBytes(network string, dir model.Direction, id int, ts float64, n int) error {
	e, err := r.Get(network, dir, id)
	if err != nil {
		return err
	}
	e.AddBytes(ts, n)
	return nil
}

// Finish records the expected size of a download.
func (r *Registry) Finish(network string, id int, ts float64, expected int) error {
	e, err := r.Get(network, model.Down, id)
	if err != nil {
		return err
	}
	e.Finish(ts, expected)
	r.log.Debugf("finished %s at %f", e, ts)
	return nil
}

// Ack marks an existing entity acknowledged.
func (r *Registry) Ack(network string, dir model.Direction, id int, ts float64) error {
	e, err := r.Get(network, dir, id)
	if err != nil {
		return err
	}
	e.Ack(ts)
	r.log.Debugf("acked %s at %f", e, ts)
	return nil
}

// MarkDropped records a drop on an existing entity. Later drops are ignored.
func (r *Registry) MarkDropped(network string, dir model.Direction, id int, ts float64) error {
	e, err := r.Get(network, dir, id)
	if err != nil {
		return err
	}
	if e.MarkDropped(ts) {
		r.log.Debugf("dropped %s at %f", e, ts)
	}
	return nil
}

// DropIncomplete marks every incomplete entity on network, in both
// directions, dropped at ts. It returns how many entities got a new drop time.
func (r *Registry) DropIncomplete(network string, ts float64) int {
	byDir, ok := r.networks[network]
	if !ok {
		return 0
	}
	dropped := 0
	for _, dir := range model.Directions {
		for _, e := range byDir[dir] {
			if e.Complete() {
				continue
			}
			if e.MarkDropped(ts) {
				r.log.Debugf("dropped %s at %f", e, ts)
				dropped++
			}
		}
	}
	return dropped
}

// Entities returns the entities for (network, dir) ordered by id.
func (r *Registry) Entities(network string, dir model.Direction) []*Entity {
	byID := r.networks[network][dir]
	out := make([]*Entity, 0, len(byID))
	for _, e := range byID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// All returns every entity, grouped by network then direction, ordered by id.
func (r *Registry) All() []*Entity {
	var out []*Entity
	for _, n := range r.Networks() {
		for _, dir := range model.Directions {
			out = append(out, r.Entities(n, dir)...)
		}
	}
	return out
}

// Clone returns a deep copy that shares no state with r. Entities of the
// copy have AbnormalEnd set when they are unbounded.
func (r *Registry) Clone() *Registry {
	c := NewRegistry(nil)
	for n, byDir := range r.networks {
		c.AddNetwork(n)
		for dir, byID := range byDir {
			for id, e := range byID {
				c.networks[n][dir][id] = e.clone()
			}
		}
	}
	return c
}
