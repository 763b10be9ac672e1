package main

import (
	"os"
	"path/filepath"
	"testing"

	"intnwtrace/internal/config"
	"intnwtrace/internal/engine"
	"intnwtrace/internal/irob"
	"intnwtrace/internal/model"
	"intnwtrace/internal/store"
)

func TestOverrideAnalysis(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	overrideAnalysis(&cfg, analyzeFlags{
		logPath:       "server.log",
		server:        true,
		absoluteError: true,
		alpha:         0.05,
		debug:         true,
	})
	if cfg.Inputs.IntNWLog != "server.log" || cfg.Analysis.Side != "server" {
		t.Fatalf("config=%+v", cfg)
	}
	if cfg.Analysis.ErrorMode != "absolute" || cfg.Analysis.ConfidenceAlpha != 0.05 || cfg.Logging.Level != "debug" {
		t.Fatalf("config=%+v", cfg)
	}
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadCompanions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Inputs.SessionsLog = filepath.Join(dir, "trace_replayer.log")
	cfg.Inputs.DecisionsLog = filepath.Join(dir, "instruments.log")
	cfg.Inputs.HistoryDir = dir

	sessions := "1.0 Waiting to execute at 2.0\n2.0 Executing: at 2.0\n3.0 Waiting until trace end\n"
	if err := os.WriteFile(cfg.Inputs.SessionsLog, []byte(sessions), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	hist := "1 estimators\nwifi-bandwidth empirical 2\n0.9 1.1\n"
	if err := os.WriteFile(filepath.Join(dir, "client_error_distributions.txt"), []byte(hist), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	opts, err := loadCompanions(cfg, model.Client, nil)
	if err != nil {
		t.Fatalf("loadCompanions: %v", err)
	}
	if len(opts.Sessions) != 1 || len(opts.Sessions[0]) != 1 {
		t.Fatalf("sessions=%+v", opts.Sessions)
	}
	if opts.Decisions != nil {
		t.Fatalf("decisions=%+v", opts.Decisions)
	}
	if got := opts.History.Errors("wifi", model.BandwidthUp); len(got) != 2 {
		t.Fatalf("history=%v", got)
	}
}

func TestUpdateRunIndex(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "runs.yaml")
	snap := &engine.Snapshot{ID: "r1", Number: 1, Side: model.Client, IROBs: irob.NewRegistry(nil)}
	for i := 0; i < 2; i++ {
		if err := updateRunIndex(path, "intnw.log", []*engine.Snapshot{snap}); err != nil {
			t.Fatalf("updateRunIndex: %v", err)
		}
	}
	idx, err := store.LoadIndex(path)
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if len(idx.Runs) != 1 || idx.Runs[0].ID != "r1" {
		t.Fatalf("runs=%+v", idx.Runs)
	}
}
