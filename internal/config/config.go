package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"intnwtrace/internal/estimator"
	"intnwtrace/internal/logging"
	"intnwtrace/internal/model"
	"intnwtrace/internal/stats"
)

const (
	DefaultSide            = "client"
	DefaultErrorMode       = "relative"
	DefaultConfidenceAlpha = 0.10
	DefaultBoundMethod     = "ci"
	DefaultIntNWLog        = "intnw.log"
	DefaultSessionsLog     = "trace_replayer.log"
	DefaultDecisionsLog    = "instruments.log"
	DefaultOutputDir       = "/tmp"
	DefaultRunIndex        = "runs.yaml"
	DefaultLogLevel        = "info"
)

// Config holds the settings of one analysis.
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	Inputs   InputsConfig   `yaml:"inputs"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AnalysisConfig selects the reconstruction rules and error model.
type AnalysisConfig struct {
	Side            string  `yaml:"side"`
	ErrorMode       string  `yaml:"error_mode"`
	ConfidenceAlpha float64 `yaml:"confidence_alpha"`
	BoundMethod     string  `yaml:"bound_method"`
	LatencyAsRTT    *bool   `yaml:"latency_as_rtt,omitempty"`
}

// InputsConfig names the analyzed log and its companion files.
type InputsConfig struct {
	IntNWLog     string `yaml:"intnw_log"`
	SessionsLog  string `yaml:"sessions_log"`
	DecisionsLog string `yaml:"decisions_log"`
	HistoryDir   string `yaml:"history_dir"`
}

// OutputConfig controls what an analysis writes.
type OutputConfig struct {
	Dir             string `yaml:"dir"`
	ErrorTables     *bool  `yaml:"error_tables,omitempty"`
	RunIndex        string `yaml:"run_index"`
	MetricsTextfile string `yaml:"metrics_textfile"`
}

// LoggingConfig sets the log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads and parses a YAML config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}

	ApplyDefaults(&cfg)
	return cfg, nil
}

// Save writes a YAML config file to disk.
func Save(path string, cfg Config) error {
	ApplyDefaults(&cfg)
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Validate checks enumerated fields and ranges.
func Validate(cfg Config) error {
	switch model.Side(cfg.Analysis.Side) {
	case model.Client, model.Server:
	default:
		return fmt.Errorf("analysis.side must be client or server, got %q", cfg.Analysis.Side)
	}
	if _, err := stats.ParseErrorMode(cfg.Analysis.ErrorMode); err != nil {
		return fmt.Errorf("analysis.error_mode: %w", err)
	}
	if _, err := estimator.ParseBoundMethod(cfg.Analysis.BoundMethod); err != nil {
		return fmt.Errorf("analysis.bound_method: %w", err)
	}
	if a := cfg.Analysis.ConfidenceAlpha; a <= 0 || a >= 1 {
		return fmt.Errorf("analysis.confidence_alpha must be in (0, 1), got %v", a)
	}
	if cfg.Inputs.IntNWLog == "" {
		return fmt.Errorf("inputs.intnw_log is required")
	}
	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

// ApplyDefaults fills in default values when empty.
func ApplyDefaults(cfg *Config) {
	if cfg.Analysis.Side == "" {
		cfg.Analysis.Side = DefaultSide
	}
	if cfg.Analysis.ErrorMode == "" {
		cfg.Analysis.ErrorMode = DefaultErrorMode
	}
	if cfg.Analysis.ConfidenceAlpha == 0 {
		cfg.Analysis.ConfidenceAlpha = DefaultConfidenceAlpha
	}
	if cfg.Analysis.BoundMethod == "" {
		cfg.Analysis.BoundMethod = DefaultBoundMethod
	}
	if cfg.Analysis.LatencyAsRTT == nil {
		cfg.Analysis.LatencyAsRTT = boolPtr(true)
	}

	if cfg.Inputs.IntNWLog == "" {
		cfg.Inputs.IntNWLog = DefaultIntNWLog
	}
	if cfg.Inputs.SessionsLog == "" {
		cfg.Inputs.SessionsLog = DefaultSessionsLog
	}
	if cfg.Inputs.DecisionsLog == "" {
		cfg.Inputs.DecisionsLog = DefaultDecisionsLog
	}

	if cfg.Output.Dir == "" {
		cfg.Output.Dir = DefaultOutputDir
	}
	if cfg.Output.ErrorTables == nil {
		cfg.Output.ErrorTables = boolPtr(true)
	}
	if cfg.Output.RunIndex == "" {
		cfg.Output.RunIndex = DefaultRunIndex
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
}

// Default returns a config with every default applied.
func Default() Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return cfg
}

// RTT reports whether latency estimates are reported as round-trip times.
func (a AnalysisConfig) RTT() bool {
	return a.LatencyAsRTT == nil || *a.LatencyAsRTT
}

// WriteErrorTables reports whether error tables are exported.
func (o OutputConfig) WriteErrorTables() bool {
	return o.ErrorTables == nil || *o.ErrorTables
}

// ResolvePath joins a relative path onto dir.
func ResolvePath(dir, path string) string {
	if path == "" || filepath.IsAbs(path) || dir == "" {
		return path
	}
	return filepath.Join(dir, path)
}

func boolPtr(v bool) *bool {
	return &v
}
