package metrics

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"intnwtrace/internal/engine"
	"intnwtrace/internal/estimator"
	"intnwtrace/internal/history"
	"intnwtrace/internal/model"
	"intnwtrace/internal/stats"
)

func sampleSnapshot() *engine.Snapshot {
	return &engine.Snapshot{
		Number: 3,
		Side:   model.Client,
		Start:  5,
		Estimates: map[model.SeriesKey][]model.Sample{
			{Network: "wifi", Metric: model.Latency}: {
				{Timestamp: 10, Observation: 0.1, Estimate: model.Float(0.1)},
				{Timestamp: 12, Observation: 0.2, Estimate: model.Float(0.15)},
			},
			{Network: "3G", Metric: model.BandwidthUp}: {
				{Timestamp: 11, Observation: 1000},
			},
		},
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTableName(t *testing.T) {
	t.Parallel()

	got := TableName(model.Server, model.SeriesKey{Network: "wifi", Metric: model.BandwidthUp}, 2)
	if got != "server_wifi_bandwidth_up_error_table_2.txt" {
		t.Fatalf("name=%q", got)
	}
}

func TestRunTables_LatencyAsRTT(t *testing.T) {
	t.Parallel()

	tables := RunTables(sampleSnapshot(), ExportOptions{Mode: stats.Relative, Alpha: 0.1, LatencyAsRTT: true})
	if len(tables) != 1 {
		t.Fatalf("tables=%d", len(tables))
	}
	table := tables[0]
	if table.Name != "client_wifi_latency_error_table_3.txt" {
		t.Fatalf("name=%q", table.Name)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows=%d", len(table.Rows))
	}
	r0, r1 := table.Rows[0], table.Rows[1]
	if !near(r0.Time, 5) || !near(r0.Observation, 0.2) || !near(r0.PrevEstimate, 0.2) || !near(r0.Error, 1) {
		t.Fatalf("row0=%+v", r0)
	}
	if !near(r1.Time, 7) || !near(r1.Estimate, 0.3) || !near(r1.PrevEstimate, 0.2) || !near(r1.Error, 2) {
		t.Fatalf("row1=%+v", r1)
	}
}

func TestDeriveOptions_UsesHistory(t *testing.T) {
	t.Parallel()

	snap := sampleSnapshot()
	snap.History = history.New()
	key := model.SeriesKey{Network: "wifi", Metric: model.Latency}
	snap.History.Add(key, 0.9, 1.1)

	opts := ExportOptions{Method: estimator.BoundStdDev}.DeriveOptions(snap, key)
	if len(opts.History) != 2 || opts.Scale != 1 || opts.Origin != 5 {
		t.Fatalf("opts=%+v", opts)
	}
}

func TestWriteRunTables_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	paths, err := WriteRunTables(dir, sampleSnapshot(), ExportOptions{Mode: stats.Absolute})
	if err != nil {
		t.Fatalf("WriteRunTables: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("paths=%v", paths)
	}

	raw, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.HasPrefix(string(raw), "Time,Observation,Prev estimate,New estimate,Error\n") {
		t.Fatalf("content=%q", raw)
	}

	rows, err := ReadCSV(paths[0])
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(rows) != 2 || !near(rows[1].Error, 0.1-0.2) {
		t.Fatalf("rows=%+v", rows)
	}
}

func TestReadCSV_InvalidRecord(t *testing.T) {
	t.Parallel()

	in := "Time,Observation,Prev estimate,New estimate,Error\n1,2,3\n"
	if _, err := readCSV(strings.NewReader(in)); err == nil {
		t.Fatalf("expected error")
	}
	in = "Time,Observation,Prev estimate,New estimate,Error\n1,2,3,x,5\n"
	if _, err := readCSV(strings.NewReader(in)); err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("err=%v", err)
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	rows := []ErrorRow{
		{Time: 3, Observation: 10, Error: 1},
		{Time: 1, Observation: 20, Error: 3},
		{Time: 2, Observation: 30, Error: 2},
	}
	s := Summarize(rows)
	if s.Count != 3 || s.From != 1 || s.To != 3 {
		t.Fatalf("summary=%+v", s)
	}
	if !near(s.Error.Mean, 2) || s.Error.Min != 1 || s.Error.Max != 3 {
		t.Fatalf("error=%+v", s.Error)
	}
	if !near(s.Observation.Mean, 20) {
		t.Fatalf("observation=%+v", s.Observation)
	}
	if Summarize(nil).Count != 0 {
		t.Fatalf("empty summary")
	}
}

func TestErrorHistory(t *testing.T) {
	t.Parallel()

	first := sampleSnapshot()
	first.History = history.New()
	key := model.SeriesKey{Network: "wifi", Metric: model.Latency}
	first.History.Add(key, 7)
	second := sampleSnapshot()

	h := ErrorHistory([]*engine.Snapshot{first, second}, ExportOptions{Mode: stats.Relative, LatencyAsRTT: true})
	errs := h.Errors("wifi", model.Latency)
	if len(errs) != 4 {
		t.Fatalf("errors=%v", errs)
	}
	if !near(errs[0], 1) || !near(errs[1], 2) || !near(errs[3], 2) {
		t.Fatalf("errors=%v", errs)
	}
	if h.Errors("3G", model.BandwidthUp) != nil {
		t.Fatalf("series without estimates should be absent")
	}
}

func TestErrorHistory_AbsoluteMatchesTables(t *testing.T) {
	t.Parallel()

	opts := ExportOptions{Mode: stats.Absolute, LatencyAsRTT: true}
	key := model.SeriesKey{Network: "wifi", Metric: model.Latency}
	tables := RunTables(sampleSnapshot(), opts)
	if len(tables) != 1 || tables[0].Key != key {
		t.Fatalf("tables=%+v", tables)
	}

	var buf strings.Builder
	if err := history.Write(&buf, ErrorHistory([]*engine.Snapshot{sampleSnapshot()}, opts)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	saved, err := history.Parse(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	errs := saved.Errors("wifi", model.Latency)
	if len(errs) != len(tables[0].Rows) {
		t.Fatalf("saved=%v rows=%+v", errs, tables[0].Rows)
	}
	for i, row := range tables[0].Rows {
		if !near(errs[i], row.Error) {
			t.Fatalf("saved=%v rows=%+v", errs, tables[0].Rows)
		}
	}
	if !near(errs[0], 0) || !near(errs[1], -0.2) {
		t.Fatalf("saved=%v", errs)
	}

	next := sampleSnapshot()
	next.History = saved
	dopts := opts.DeriveOptions(next, key)
	if dopts.Scale != 2 || len(dopts.History) != 2 || !near(dopts.History[1], -0.2) {
		t.Fatalf("opts=%+v", dopts)
	}
}
