package store

import (
	"path/filepath"
	"testing"

	"intnwtrace/internal/engine"
	"intnwtrace/internal/irob"
	"intnwtrace/internal/model"
)

func TestLoadIndex_MissingFile_ReturnsEmpty(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	path := filepath.Join(tmp, "runs.yaml")
	idx, err := LoadIndex(path)
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if idx == nil {
		t.Fatalf("index is nil")
	}
	if len(idx.Runs) != 0 {
		t.Fatalf("runs=%d", len(idx.Runs))
	}
}

func TestFromSnapshot(t *testing.T) {
	t.Parallel()

	reg := irob.NewRegistry(nil)
	reg.AddNetwork("wifi")
	if _, err := reg.GetOrCreate("wifi", model.Up, 1, 10); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if err := reg.MarkDropped("wifi", model.Up, 1, 11); err != nil {
		t.Fatalf("MarkDropped: %v", err)
	}
	snap := &engine.Snapshot{
		ID:       "run-1",
		Number:   2,
		Side:     model.Server,
		Start:    10,
		End:      20,
		Strategy: "intnw_redundant",
		Periods: map[string][]model.NetworkPeriod{
			"wifi": {{Start: 10, End: model.Float(11)}, {Start: 12}},
		},
		IROBs: reg,
	}

	info := FromSnapshot(snap, "intnw.log")
	if info.ID != "run-1" || info.Side != "server" || info.Periods["wifi"] != 2 {
		t.Fatalf("info=%+v", info)
	}
	if info.IROBs.Total != 1 || info.IROBs.Dropped != 1 || info.IROBs.Complete != 0 {
		t.Fatalf("irobs=%+v", info.IROBs)
	}
}

func TestSaveIndex_RoundTripAndUpsert(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	path := filepath.Join(tmp, "out", "runs.yaml")

	in := &Index{}
	in.Upsert(RunInfo{ID: "b", Number: 2, Side: "client", Source: "a.log"})
	in.Upsert(RunInfo{ID: "a", Number: 1, Side: "client", Source: "a.log", Periods: map[string]int{"3G": 1}})
	in.Upsert(RunInfo{ID: "c", Number: 2, Side: "client", Source: "a.log", Strategy: "x"})
	if len(in.Runs) != 2 || in.Runs[0].ID != "a" || in.Runs[1].ID != "c" {
		t.Fatalf("runs=%+v", in.Runs)
	}

	if err := SaveIndex(path, in); err != nil {
		t.Fatalf("SaveIndex: %v", err)
	}
	out, err := LoadIndex(path)
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if len(out.Runs) != 2 {
		t.Fatalf("runs=%d", len(out.Runs))
	}
	if out.Runs[0].Periods["3G"] != 1 || out.Runs[1].Strategy != "x" {
		t.Fatalf("runs=%+v", out.Runs)
	}
	if out.UpdatedAt.IsZero() {
		t.Fatalf("updated_at not set")
	}
}
