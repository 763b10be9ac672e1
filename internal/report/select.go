package report

import (
	"fmt"

	"intnwtrace/internal/engine"
	"intnwtrace/internal/estimator"
	"intnwtrace/internal/metrics"
	"intnwtrace/internal/model"
)

// SeriesPoint is one value of a selected series with its error band.
type SeriesPoint struct {
	Time     float64
	Value    float64
	Adjusted float64
	Lower    float64
	Upper    float64
}

// Select returns the estimator series or predicted upload times of network
// for one metric selector.
func Select(snap *engine.Snapshot, network string, metric model.Metric, opts metrics.ExportOptions) ([]SeriesPoint, error) {
	switch metric {
	case model.TxTime:
		uploads, err := Uploads(snap)
		if err != nil {
			return nil, err
		}
		var out []SeriesPoint
		for _, p := range PredictTransfers(snap, uploads, network, opts) {
			out = append(out, SeriesPoint{
				Time:     p.Upload.Start,
				Value:    p.Time,
				Adjusted: p.Adjusted,
				Lower:    p.Lower,
				Upper:    p.Upper,
			})
		}
		return out, nil
	}

	for _, m := range model.EstimatorMetrics {
		if m != metric {
			continue
		}
		key := model.SeriesKey{Network: network, Metric: metric}
		points := estimator.Derive(snap.Estimates[key], opts.DeriveOptions(snap, key))
		out := make([]SeriesPoint, len(points))
		for i, p := range points {
			out[i] = SeriesPoint{
				Time:     p.Time,
				Value:    p.Estimate,
				Adjusted: p.Adjusted,
				Lower:    p.Lower,
				Upper:    p.Upper,
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown metric %q", metric)
}
