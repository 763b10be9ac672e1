package metrics

import (
	"path/filepath"

	"intnwtrace/internal/engine"
	"intnwtrace/internal/estimator"
	"intnwtrace/internal/history"
	"intnwtrace/internal/model"
	"intnwtrace/internal/stats"
)

// ExportOptions controls how a run's estimator series are derived.
type ExportOptions struct {
	Mode         stats.ErrorMode
	Alpha        float64
	Method       estimator.BoundMethod
	LatencyAsRTT bool
}

// DeriveOptions returns the estimator options for one series of snap.
func (o ExportOptions) DeriveOptions(snap *engine.Snapshot, key model.SeriesKey) estimator.DeriveOptions {
	scale := 1.0
	if o.LatencyAsRTT && key.Metric == model.Latency {
		scale = 2
	}
	return estimator.DeriveOptions{
		Mode:    o.Mode,
		Alpha:   o.Alpha,
		Method:  o.Method,
		History: snap.History.Errors(key.Network, key.Metric),
		Scale:   scale,
		Origin:  snap.Start,
	}
}

// RunTable is one derived error table of a run.
type RunTable struct {
	Key  model.SeriesKey
	Name string
	Rows []ErrorRow
}

// RunTables derives every estimator series of snap into error tables.
// Series with no estimates are skipped.
func RunTables(snap *engine.Snapshot, opts ExportOptions) []RunTable {
	var tables []RunTable
	for _, key := range snap.SeriesKeys() {
		points := estimator.Derive(snap.Estimates[key], opts.DeriveOptions(snap, key))
		if len(points) == 0 {
			continue
		}
		tables = append(tables, RunTable{
			Key:  key,
			Name: TableName(snap.Side, key, snap.Number),
			Rows: RowsFromPoints(points),
		})
	}
	return tables
}

// WriteRunTables writes the error tables of snap under dir and returns the
// written paths.
func WriteRunTables(dir string, snap *engine.Snapshot, opts ExportOptions) ([]string, error) {
	var paths []string
	for _, table := range RunTables(snap, opts) {
		path := filepath.Join(dir, table.Name)
		if err := WriteFile(path, table.Rows); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// ErrorHistory collects the observed errors of every run into a history
// that can seed a later analysis. Saved errors carry the same scale as the
// run tables and exclude the prior history the runs were analyzed with.
func ErrorHistory(snaps []*engine.Snapshot, opts ExportOptions) *history.History {
	h := history.New()
	for _, snap := range snaps {
		for _, key := range snap.SeriesKeys() {
			dopts := opts.DeriveOptions(snap, key)
			dopts.History = nil
			points := estimator.Derive(snap.Estimates[key], dopts)
			if len(points) > 0 {
				h.Add(key, estimator.Errors(points)...)
			}
		}
	}
	return h
}
