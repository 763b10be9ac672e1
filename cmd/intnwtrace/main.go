package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"intnwtrace/internal/companion"
	"intnwtrace/internal/config"
	"intnwtrace/internal/engine"
	"intnwtrace/internal/estimator"
	"intnwtrace/internal/history"
	"intnwtrace/internal/logging"
	"intnwtrace/internal/metrics"
	"intnwtrace/internal/model"
	"intnwtrace/internal/report"
	"intnwtrace/internal/stats"
	"intnwtrace/internal/store"
	"intnwtrace/internal/telemetry"
)

const usage = `intnwtrace - reconstruct network activity from IntNW logs

Usage:
  intnwtrace analyze --config <path> | --log <file> [--server] [--absolute-error]
                     [--history <dir>] [--sessions <file>] [--decisions <file>]
                     [--out <dir>] [--alpha 0.10] [--bound ci|stddev]
                     [--metrics-textfile <file>] [--save-history <file>] [--debug]
  intnwtrace errors --table <file>
  intnwtrace history --file <file>
`

// maxConcurrentWrites bounds concurrent error-table writers.
const maxConcurrentWrites = 4

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cmd := os.Args[1]
	switch cmd {
	case "-h", "--help", "help":
		fmt.Print(usage)
	case "analyze":
		handleAnalyze(os.Args[2:])
	case "errors":
		handleErrors(os.Args[2:])
	case "history":
		handleHistory(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

type analyzeFlags struct {
	logPath       string
	server        bool
	absoluteError bool
	historyDir    string
	sessions      string
	decisions     string
	out           string
	alpha         float64
	bound         string
	textfile      string
	debug         bool
}

func handleAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config")
	var f analyzeFlags
	fs.StringVar(&f.logPath, "log", "", "IntNW log to analyze")
	fs.BoolVar(&f.server, "server", false, "use server-side run segmentation")
	fs.BoolVar(&f.absoluteError, "absolute-error", false, "measure estimator error as prev estimate - observation")
	fs.StringVar(&f.historyDir, "history", "", "directory holding saved error distributions")
	fs.StringVar(&f.sessions, "sessions", "", "trace replayer log")
	fs.StringVar(&f.decisions, "decisions", "", "instruments log")
	fs.StringVar(&f.out, "out", "", "output directory")
	fs.Float64Var(&f.alpha, "alpha", 0, "confidence interval alpha")
	fs.StringVar(&f.bound, "bound", "", "error bound method (ci|stddev)")
	fs.StringVar(&f.textfile, "metrics-textfile", "", "write Prometheus metrics to this file")
	saveHistory := fs.String("save-history", "", "write observed error distributions to this file")
	fs.BoolVar(&f.debug, "debug", false, "enable debug logging")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal(err)
	}
	overrideAnalysis(&cfg, f)
	if err := config.Validate(cfg); err != nil {
		fatal(err)
	}

	log := logging.New("intnwtrace", os.Stderr)
	level, _ := logging.ParseLevel(cfg.Logging.Level)
	log.SetLevel(level)

	side := model.Side(cfg.Analysis.Side)
	mode, _ := stats.ParseErrorMode(cfg.Analysis.ErrorMode)
	method, _ := estimator.ParseBoundMethod(cfg.Analysis.BoundMethod)
	exportOpts := metrics.ExportOptions{
		Mode:         mode,
		Alpha:        cfg.Analysis.ConfidenceAlpha,
		Method:       method,
		LatencyAsRTT: cfg.Analysis.RTT(),
	}

	opts, err := loadCompanions(cfg, side, log)
	if err != nil {
		fatal(err)
	}

	tel := telemetry.New()
	opts.Side = side
	opts.Log = log
	opts.Observer = tel

	snaps, parseErr := engine.New(opts).ReconstructFile(cfg.Inputs.IntNWLog)
	if cfg.Output.MetricsTextfile != "" {
		if err := tel.WriteTextfile(cfg.Output.MetricsTextfile); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to write metrics textfile: %v\n", err)
		}
	}
	if parseErr != nil {
		fatal(parseErr)
	}

	for _, snap := range snaps {
		if err := report.Write(os.Stdout, snap, exportOpts); err != nil {
			fatal(err)
		}
		fmt.Fprintln(os.Stdout)
	}

	if cfg.Output.WriteErrorTables() {
		if err := writeErrorTables(cfg.Output.Dir, snaps, exportOpts, log); err != nil {
			fatal(err)
		}
	}

	if cfg.Output.RunIndex != "" {
		path := config.ResolvePath(cfg.Output.Dir, cfg.Output.RunIndex)
		if err := updateRunIndex(path, cfg.Inputs.IntNWLog, snaps); err != nil {
			fatal(err)
		}
		log.Infof("run index written to %s", path)
	}

	if *saveHistory != "" {
		if err := history.Save(*saveHistory, metrics.ErrorHistory(snaps, exportOpts)); err != nil {
			fatal(err)
		}
		log.Infof("error distributions written to %s", *saveHistory)
	}
}

// loadCompanions reads the session, decision and history files concurrently.
func loadCompanions(cfg config.Config, side model.Side, log *logging.Logger) (engine.Options, error) {
	var opts engine.Options
	var g errgroup.Group

	g.Go(func() error {
		path := cfg.Inputs.SessionsLog
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			log.Warnf("no session log at %s", path)
			return nil
		}
		sessions, err := companion.ReadSessions(path)
		if err != nil {
			return fmt.Errorf("read sessions: %w", err)
		}
		opts.Sessions = sessions
		return nil
	})
	g.Go(func() error {
		decisions, err := companion.ReadDecisions(cfg.Inputs.DecisionsLog, side)
		if err != nil {
			return fmt.Errorf("read decisions: %w", err)
		}
		opts.Decisions = decisions
		return nil
	})
	g.Go(func() error {
		if cfg.Inputs.HistoryDir == "" {
			return nil
		}
		h, err := history.Load(history.FileName(cfg.Inputs.HistoryDir, side))
		if err != nil {
			return fmt.Errorf("read error history: %w", err)
		}
		opts.History = h
		return nil
	})

	if err := g.Wait(); err != nil {
		return engine.Options{}, err
	}
	return opts, nil
}

func writeErrorTables(dir string, snaps []*engine.Snapshot, opts metrics.ExportOptions, log *logging.Logger) error {
	var g errgroup.Group
	g.SetLimit(maxConcurrentWrites)
	for _, snap := range snaps {
		snap := snap
		g.Go(func() error {
			paths, err := metrics.WriteRunTables(dir, snap, opts)
			for _, p := range paths {
				log.Debugf("wrote %s", p)
			}
			return err
		})
	}
	return g.Wait()
}

func updateRunIndex(path, source string, snaps []*engine.Snapshot) error {
	idx, err := store.LoadIndex(path)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(source)
	if err != nil {
		abs = source
	}
	for _, snap := range snaps {
		idx.Upsert(store.FromSnapshot(snap, abs))
	}
	return store.SaveIndex(path, idx)
}

func handleErrors(args []string) {
	fs := flag.NewFlagSet("errors", flag.ExitOnError)
	table := fs.String("table", "", "error table to summarize")
	_ = fs.Parse(args)

	if *table == "" {
		fatal(errors.New("--table is required"))
	}

	rows, err := metrics.ReadCSV(*table)
	if err != nil {
		fatal(err)
	}

	summary := metrics.Summarize(rows)
	if summary.Count == 0 {
		fmt.Fprintln(os.Stdout, "no samples in table")
		return
	}

	fmt.Fprintf(os.Stdout, "samples=%d from=%.3f to=%.3f\n", summary.Count, summary.From, summary.To)
	fmt.Fprintf(os.Stdout, "error avg=%.4f stddev=%.4f p50=%.4f p95=%.4f min=%.4f max=%.4f\n",
		summary.Error.Mean, summary.Error.StdDev, summary.Error.P50, summary.Error.P95, summary.Error.Min, summary.Error.Max)
	fmt.Fprintf(os.Stdout, "observation avg=%.4f p50=%.4f p95=%.4f\n",
		summary.Observation.Mean, summary.Observation.P50, summary.Observation.P95)
}

func handleHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	file := fs.String("file", "", "error distribution file")
	_ = fs.Parse(args)

	if *file == "" {
		fatal(errors.New("--file is required"))
	}
	if _, err := os.Stat(*file); err != nil {
		fatal(err)
	}

	h, err := history.Load(*file)
	if err != nil {
		fatal(err)
	}

	fmt.Fprintf(os.Stdout, "%-20s  %-10s  %-6s  %-10s  %-10s  %-10s\n", "SERIES", "TYPE", "COUNT", "MEAN", "P50", "P95")
	for _, s := range h.Series() {
		sum := stats.Summarize(s.Errors)
		fmt.Fprintf(os.Stdout, "%-20s  %-10s  %-6d  %-10.4f  %-10.4f  %-10.4f\n",
			s.Key, s.DistributionType, sum.Count, sum.Mean, sum.P50, sum.P95)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func overrideAnalysis(cfg *config.Config, f analyzeFlags) {
	if f.logPath != "" {
		cfg.Inputs.IntNWLog = f.logPath
	}
	if f.server {
		cfg.Analysis.Side = string(model.Server)
	}
	if f.absoluteError {
		cfg.Analysis.ErrorMode = stats.Absolute.String()
	}
	if f.historyDir != "" {
		cfg.Inputs.HistoryDir = f.historyDir
	}
	if f.sessions != "" {
		cfg.Inputs.SessionsLog = f.sessions
	}
	if f.decisions != "" {
		cfg.Inputs.DecisionsLog = f.decisions
	}
	if f.out != "" {
		cfg.Output.Dir = f.out
	}
	if f.alpha != 0 {
		cfg.Analysis.ConfidenceAlpha = f.alpha
	}
	if f.bound != "" {
		cfg.Analysis.BoundMethod = f.bound
	}
	if f.textfile != "" {
		cfg.Output.MetricsTextfile = f.textfile
	}
	if f.debug {
		cfg.Logging.Level = "debug"
	}
}

func fatal(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
