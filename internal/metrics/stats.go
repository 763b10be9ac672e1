package metrics

import "intnwtrace/internal/stats"

// Summary describes one error table.
type Summary struct {
	Count int
	From  float64
	To    float64

	Error       stats.Summary
	Observation stats.Summary
}

// Summarize computes error and observation statistics for rows.
func Summarize(rows []ErrorRow) Summary {
	if len(rows) == 0 {
		return Summary{}
	}

	errs := make([]float64, len(rows))
	obs := make([]float64, len(rows))
	from, to := rows[0].Time, rows[0].Time
	for i, r := range rows {
		errs[i] = r.Error
		obs[i] = r.Observation
		if r.Time < from {
			from = r.Time
		}
		if r.Time > to {
			to = r.Time
		}
	}

	return Summary{
		Count:       len(rows),
		From:        from,
		To:          to,
		Error:       stats.Summarize(errs),
		Observation: stats.Summarize(obs),
	}
}
