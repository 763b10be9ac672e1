package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{Analysis: AnalysisConfig{Side: "server"}}
	ApplyDefaults(&cfg)

	if cfg.Analysis.Side != "server" {
		t.Fatalf("side=%q", cfg.Analysis.Side)
	}
	if cfg.Analysis.ErrorMode != DefaultErrorMode || cfg.Analysis.BoundMethod != DefaultBoundMethod {
		t.Fatalf("analysis=%+v", cfg.Analysis)
	}
	if cfg.Analysis.ConfidenceAlpha != DefaultConfidenceAlpha {
		t.Fatalf("alpha=%v", cfg.Analysis.ConfidenceAlpha)
	}
	if cfg.Analysis.LatencyAsRTT == nil || !cfg.Analysis.RTT() {
		t.Fatalf("latency_as_rtt default not true")
	}
	if cfg.Inputs.SessionsLog != DefaultSessionsLog || cfg.Output.RunIndex != DefaultRunIndex {
		t.Fatalf("inputs=%+v output=%+v", cfg.Inputs, cfg.Output)
	}
	if !cfg.Output.WriteErrorTables() {
		t.Fatalf("error_tables default not true")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	if err := Validate(Default()); err != nil {
		t.Fatalf("Validate default: %v", err)
	}

	cases := map[string]func(*Config){
		"side":   func(c *Config) { c.Analysis.Side = "phone" },
		"mode":   func(c *Config) { c.Analysis.ErrorMode = "squared" },
		"method": func(c *Config) { c.Analysis.BoundMethod = "mad" },
		"alpha":  func(c *Config) { c.Analysis.ConfidenceAlpha = 1.5 },
		"log":    func(c *Config) { c.Inputs.IntNWLog = "" },
		"level":  func(c *Config) { c.Logging.Level = "loud" },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		if err := Validate(cfg); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	path := filepath.Join(tmp, "nested", "intnwtrace.yaml")

	in := Default()
	off := false
	in.Analysis.LatencyAsRTT = &off
	in.Analysis.ErrorMode = "absolute"
	in.Inputs.HistoryDir = "hist"
	if err := Save(path, in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode=%o", info.Mode().Perm())
	}

	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.Analysis.RTT() || out.Analysis.ErrorMode != "absolute" || out.Inputs.HistoryDir != "hist" {
		t.Fatalf("config=%+v", out)
	}
}

func TestLoad_PartialFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cfg.yaml")
	data := []byte("analysis:\n  side: server\ninputs:\n  intnw_log: server.log\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Analysis.Side != "server" || cfg.Inputs.IntNWLog != "server.log" || cfg.Output.Dir != DefaultOutputDir {
		t.Fatalf("config=%+v", cfg)
	}
}

func TestResolvePath(t *testing.T) {
	t.Parallel()

	if got := ResolvePath("/data", "intnw.log"); got != filepath.Join("/data", "intnw.log") {
		t.Fatalf("relative=%q", got)
	}
	if got := ResolvePath("/data", "/abs/intnw.log"); got != "/abs/intnw.log" {
		t.Fatalf("absolute=%q", got)
	}
	if got := ResolvePath("/data", ""); got != "" {
		t.Fatalf("empty=%q", got)
	}
}
