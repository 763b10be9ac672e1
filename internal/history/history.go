// Package history reads and writes saved estimator error distributions.
//
// File layout:
//
//	2 estimators
//	wifi-bandwidth empirical 3
//	0.9 1.1 1.05
//	cellular-RTT empirical 2
//	1.2
//	0.8
//
// The first line holds the number of series. Each series header is
// "<network>-<metric> <distribution type> <sample count>", followed by
// whitespace-separated samples on as many lines as needed.
package history

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"intnwtrace/internal/model"
)

// DefaultDistributionType labels series written without a known type.
const DefaultDistributionType = "empirical"

// Series is one saved error distribution.
type Series struct {
	Key              model.SeriesKey
	DistributionType string
	Errors           []float64
}

// History is a set of error distributions keyed by (network, metric).
type History struct {
	series map[model.SeriesKey]*Series
}

// New returns an empty history.
func New() *History {
	return &History{series: make(map[model.SeriesKey]*Series)}
}

// FileName returns the conventional file name for side under dir.
func FileName(dir string, side model.Side) string {
	return filepath.Join(dir, fmt.Sprintf("%s_error_distributions.txt", side))
}

// Errors returns the saved errors for (network, metric), or nil. A nil
// History has no errors.
func (h *History) Errors(network string, metric model.Metric) []float64 {
	if h == nil {
		return nil
	}
	s, ok := h.series[model.SeriesKey{Network: network, Metric: metric}]
	if !ok {
		return nil
	}
	return append([]float64(nil), s.Errors...)
}

// Add appends errors to the series for key.
func (h *History) Add(key model.SeriesKey, errors ...float64) {
	s, ok := h.series[key]
	if !ok {
		s = &Series{Key: key, DistributionType: DefaultDistributionType}
		h.series[key] = s
	}
	s.Errors = append(s.Errors, errors...)
}

// Series returns every series ordered by network then metric.
func (h *History) Series() []Series {
	if h == nil {
		return nil
	}
	out := make([]Series, 0, len(h.series))
	for _, s := range h.series {
		out = append(out, Series{
			Key:              s.Key,
			DistributionType: s.DistributionType,
			Errors:           append([]float64(nil), s.Errors...),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Network != out[j].Key.Network {
			return out[i].Key.Network < out[j].Key.Network
		}
		return out[i].Key.Metric < out[j].Key.Metric
	})
	return out
}

// Len returns the number of series.
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.series)
}

// Load reads a history file. A missing file yields an empty history.
func Load(path string) (*History, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, err
	}
	defer f.Close()

	h, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return h, nil
}

// Parse reads the history format from r.
func Parse(r io.Reader) (*History, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	next := func() (string, bool) {
		for scanner.Scan() {
			lineNo++
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				return line, true
			}
		}
		return "", false
	}

	h := New()
	first, ok := next()
	if !ok {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return h, nil
	}
	count, err := strconv.Atoi(strings.Fields(first)[0])
	if err != nil {
		return nil, fmt.Errorf("invalid series count at line %d: %w", lineNo, err)
	}

	for i := 0; i < count; i++ {
		header, ok := next()
		if !ok {
			return nil, fmt.Errorf("expected %d series, found %d", count, i)
		}
		fields := strings.Fields(header)
		if len(fields) < 3 {
			return nil, fmt.Errorf("invalid series header at line %d", lineNo)
		}
		key, err := decodeName(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		samples, err := strconv.Atoi(fields[2])
		if err != nil || samples < 0 {
			return nil, fmt.Errorf("invalid sample count at line %d", lineNo)
		}

		s, exists := h.series[key]
		if !exists {
			s = &Series{Key: key, DistributionType: fields[1]}
			h.series[key] = s
		}
		want := len(s.Errors) + samples
		for len(s.Errors) < want {
			line, ok := next()
			if !ok {
				return nil, fmt.Errorf("%s: expected %d samples, found %d", fields[0], samples, samples-(want-len(s.Errors)))
			}
			for _, tok := range strings.Fields(line) {
				v, err := strconv.ParseFloat(tok, 64)
				if err != nil {
					return nil, fmt.Errorf("invalid sample at line %d: %w", lineNo, err)
				}
				s.Errors = append(s.Errors, v)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return h, nil
}

// Save writes h to path, creating parent directories.
func Save(path string, h *History) error {
	if h == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, h); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write renders h in the history format.
func Write(w io.Writer, h *History) error {
	bw := bufio.NewWriter(w)
	series := h.Series()
	fmt.Fprintf(bw, "%d estimators\n", len(series))
	for _, s := range series {
		fmt.Fprintf(bw, "%s %s %d\n", encodeName(s.Key), s.DistributionType, len(s.Errors))
		for i, v := range s.Errors {
			if i > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// On disk the cellular network is "cellular", upstream bandwidth is
// "bandwidth" and latency is "RTT".
var (
	networkFromDisk = map[string]string{"cellular": "3G"}
	networkToDisk   = map[string]string{"3G": "cellular"}
	metricFromDisk  = map[string]model.Metric{"bandwidth": model.BandwidthUp, "RTT": model.Latency}
	metricToDisk    = map[model.Metric]string{model.BandwidthUp: "bandwidth", model.Latency: "RTT"}
)

func decodeName(name string) (model.SeriesKey, error) {
	network, metric, ok := strings.Cut(name, "-")
	if !ok || network == "" || metric == "" {
		return model.SeriesKey{}, fmt.Errorf("invalid series name %q", name)
	}
	if n, ok := networkFromDisk[network]; ok {
		network = n
	}
	m := model.Metric(metric)
	if mm, ok := metricFromDisk[metric]; ok {
		m = mm
	}
	return model.SeriesKey{Network: network, Metric: m}, nil
}

func encodeName(key model.SeriesKey) string {
	network := key.Network
	if n, ok := networkToDisk[network]; ok {
		network = n
	}
	metric := string(key.Metric)
	if m, ok := metricToDisk[key.Metric]; ok {
		metric = m
	}
	return network + "-" + metric
}
