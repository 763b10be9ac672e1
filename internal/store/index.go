// Package store persists the index of reconstructed runs.
package store

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"intnwtrace/internal/engine"
)

// Index lists finished runs across analyses.
type Index struct {
	UpdatedAt time.Time `yaml:"updated_at"`
	Runs      []RunInfo `yaml:"runs"`
}

// RunInfo is a minimal summary of one run.
type RunInfo struct {
	ID             string         `yaml:"id"`
	Number         int            `yaml:"number"`
	Side           string         `yaml:"side"`
	Source         string         `yaml:"source,omitempty"`
	Start          float64        `yaml:"start"`
	End            float64        `yaml:"end"`
	Strategy       string         `yaml:"strategy,omitempty"`
	Periods        map[string]int `yaml:"periods,omitempty"`
	IROBs          IROBInfo       `yaml:"irobs"`
	Sessions       int            `yaml:"sessions"`
	DuplicateDowns int            `yaml:"duplicate_downs,omitempty"`
}

// IROBInfo counts IROB outcomes of a run.
type IROBInfo struct {
	Total    int `yaml:"total"`
	Complete int `yaml:"complete"`
	Dropped  int `yaml:"dropped"`
	Abnormal int `yaml:"abnormal"`
}

// FromSnapshot summarizes snap. source names the analyzed log.
func FromSnapshot(snap *engine.Snapshot, source string) RunInfo {
	periods := make(map[string]int, len(snap.Periods))
	for network, ps := range snap.Periods {
		periods[network] = len(ps)
	}
	counts := snap.Counts()
	return RunInfo{
		ID:       snap.ID,
		Number:   snap.Number,
		Side:     string(snap.Side),
		Source:   source,
		Start:    snap.Start,
		End:      snap.End,
		Strategy: snap.Strategy,
		Periods:  periods,
		IROBs: IROBInfo{
			Total:    counts.Total,
			Complete: counts.Complete,
			Dropped:  counts.Dropped,
			Abnormal: counts.Abnormal,
		},
		Sessions:       len(snap.Sessions),
		DuplicateDowns: snap.DuplicateDowns,
	}
}

// Upsert replaces the run with the same source, side and number, or
// appends it. Runs stay ordered by source, side and number.
func (idx *Index) Upsert(info RunInfo) {
	replaced := false
	for i, r := range idx.Runs {
		if r.Source == info.Source && r.Side == info.Side && r.Number == info.Number {
			idx.Runs[i] = info
			replaced = true
			break
		}
	}
	if !replaced {
		idx.Runs = append(idx.Runs, info)
	}
	sort.SliceStable(idx.Runs, func(i, j int) bool {
		a, b := idx.Runs[i], idx.Runs[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Side != b.Side {
			return a.Side < b.Side
		}
		return a.Number < b.Number
	})
}

// LoadIndex loads the index from disk. If the file is missing, returns an empty index.
func LoadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Index{}, nil
		}
		return nil, err
	}

	var idx Index
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return nil, err
	}

	return &idx, nil
}

// SaveIndex writes the index to disk.
func SaveIndex(path string, idx *Index) error {
	if idx == nil {
		return nil
	}
	idx.UpdatedAt = time.Now().UTC()
	data, err := yaml.Marshal(idx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
