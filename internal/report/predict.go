package report

import (
	"math"
	"sort"

	"intnwtrace/internal/engine"
	"intnwtrace/internal/estimator"
	"intnwtrace/internal/metrics"
	"intnwtrace/internal/model"
	"intnwtrace/internal/stats"
)

// Prediction is the predicted transfer time of one upload on one network.
type Prediction struct {
	Upload   Upload
	Network  string
	Time     float64
	Adjusted float64
	Lower    float64
	Upper    float64
}

// TransferTime is size/bandwidth + latency.
func TransferTime(bandwidth, latency float64, size int) float64 {
	return float64(size)/bandwidth + latency
}

type series struct {
	times   []float64
	points  []estimator.Point
	history []float64
}

func deriveSeries(snap *engine.Snapshot, key model.SeriesKey, opts metrics.ExportOptions) series {
	dopts := opts.DeriveOptions(snap, key)
	points := estimator.Derive(snap.Estimates[key], dopts)
	times := make([]float64, len(points))
	for i, p := range points {
		times[i] = p.Time
	}
	return series{times: times, points: points, history: dopts.History}
}

// at returns the number of samples at or before t.
func (s series) at(t float64) int {
	return sort.Search(len(s.times), func(i int) bool { return s.times[i] > t })
}

// errorsAt returns the history plus every observed error known by sample pos.
func (s series) errorsAt(pos int) []float64 {
	out := make([]float64, 0, len(s.history)+pos)
	out = append(out, s.history...)
	for _, p := range s.points[:pos] {
		out = append(out, p.Error)
	}
	return out
}

// PredictTransfers predicts the transfer time of each upload on network
// from the bandwidth and latency estimates in effect at its start. Bounds
// come from every pairing of the bandwidth and latency errors known by
// then. Uploads that start before the first estimate are skipped.
func PredictTransfers(snap *engine.Snapshot, uploads []Upload, network string, opts metrics.ExportOptions) []Prediction {
	bw := deriveSeries(snap, model.SeriesKey{Network: network, Metric: model.BandwidthUp}, opts)
	lat := deriveSeries(snap, model.SeriesKey{Network: network, Metric: model.Latency}, opts)
	dopts := estimator.DeriveOptions{Mode: opts.Mode, Alpha: opts.Alpha, Method: opts.Method}

	var out []Prediction
	for _, up := range uploads {
		bwPos, latPos := bw.at(up.Start), lat.at(up.Start)
		if bwPos == 0 || latPos == 0 {
			continue
		}
		bwEst := bw.points[bwPos-1].Estimate
		latEst := lat.points[latPos-1].Estimate
		predicted := TransferTime(bwEst, latEst, up.Size)

		var txErrors []float64
		for _, bwErr := range bw.errorsAt(bwPos) {
			for _, latErr := range lat.errorsAt(latPos) {
				b := opts.Mode.Adjust(bwEst, bwErr)
				l := opts.Mode.Adjust(latEst, latErr)
				if opts.Mode == stats.Absolute {
					b = math.Max(1, b)
					l = math.Max(0, l)
				}
				txErrors = append(txErrors, opts.Mode.ErrorValue(predicted, TransferTime(b, l, up.Size)))
			}
		}

		adjusted, lower, upper := estimator.Bound(predicted, txErrors, dopts)
		out = append(out, Prediction{
			Upload:   up,
			Network:  network,
			Time:     predicted,
			Adjusted: adjusted,
			Lower:    lower,
			Upper:    upper,
		})
	}
	return out
}
