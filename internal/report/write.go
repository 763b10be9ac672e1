package report

import (
	"fmt"
	"io"

	"intnwtrace/internal/engine"
	"intnwtrace/internal/metrics"
)

// Write prints the statistics of one run.
func Write(w io.Writer, snap *engine.Snapshot, opts metrics.ExportOptions) error {
	fmt.Fprintf(w, "run %d id=%s side=%s duration=%.3fs\n", snap.Number, snap.ID, snap.Side, snap.End-snap.Start)
	if snap.Strategy != "" {
		fmt.Fprintf(w, "redundancy strategy: %s\n", snap.Strategy)
	}

	if seconds, calls := ChooseNetworkTotal(snap); calls > 0 {
		fmt.Fprintf(w, "%f seconds in chooseNetwork (%d calls)\n", seconds, calls)
	}

	counts := snap.Counts()
	fmt.Fprintf(w, "IROBs total=%d complete=%d dropped=%d abnormal=%d\n",
		counts.Total, counts.Complete, counts.Dropped, counts.Abnormal)
	if snap.DuplicateDowns > 0 {
		fmt.Fprintf(w, "duplicate network-down notifications: %d\n", snap.DuplicateDowns)
	}

	if a, ok := AnalyzeSessions(snap); ok && a.Total > 0 {
		fmt.Fprintf(w, "Single network sessions: %d/%d (%.2f%%), total time %f seconds\n",
			len(a.SingleNetwork), a.Total, percent(len(a.SingleNetwork), a.Total), Seconds(a.SingleNetwork))
		fmt.Fprintf(w, "Failover sessions: %d/%d (%.2f%%), total %f seconds\n",
			len(a.Failover), a.Total, percent(len(a.Failover), a.Total), Seconds(a.Failover))
		fmt.Fprintf(w, "Needed-reevaluation sessions: %d/%d (%.2f%%)\n",
			len(a.Reevaluation), a.Total, percent(len(a.Reevaluation), a.Total))
	}

	if len(snap.Decisions) > 0 {
		costed := 0
		for _, d := range snap.Decisions {
			if d.Cost != nil {
				costed++
			}
		}
		fmt.Fprintf(w, "redundancy decisions: %d (%d with cost)\n", len(snap.Decisions), costed)
	}

	fmt.Fprintln(w, "Average IROB durations:")
	for _, d := range AverageDurations(snap) {
		if d.Count == 0 {
			fmt.Fprintf(w, "  %5s, %4s: (no IROBs)\n", d.Network, d.Direction)
			continue
		}
		fmt.Fprintf(w, "  %5s, %4s: %f\n", d.Network, d.Direction, d.Mean)
	}

	for _, table := range metrics.RunTables(snap, opts) {
		s := metrics.Summarize(table.Rows)
		fmt.Fprintf(w, "estimator %-18s n=%-4d error mean=%.4f p50=%.4f p95=%.4f\n",
			table.Key, s.Count, s.Error.Mean, s.Error.P50, s.Error.P95)
	}

	uploads, unsized := SizedUploads(snap)
	if len(unsized) > 0 {
		fmt.Fprintf(w, "uploads without bytes: %d (not predicted)\n", len(unsized))
	}
	if len(uploads) == 0 {
		return nil
	}
	for _, network := range snap.Networks() {
		predictions := PredictTransfers(snap, uploads, network, opts)
		if len(predictions) == 0 {
			continue
		}
		var total float64
		for _, p := range predictions {
			total += p.Time
		}
		fmt.Fprintf(w, "predicted upload time %5s: %d uploads, mean %.4fs\n",
			network, len(predictions), total/float64(len(predictions)))
	}
	return nil
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
