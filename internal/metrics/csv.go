// Package metrics exports estimator error tables and summarizes them.
package metrics

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"intnwtrace/internal/estimator"
	"intnwtrace/internal/model"
)

// Header is the fixed error-table column order.
var Header = []string{"Time", "Observation", "Prev estimate", "New estimate", "Error"}

// ErrorRow is one estimator sample in an error table.
type ErrorRow struct {
	Time         float64
	Observation  float64
	PrevEstimate float64
	Estimate     float64
	Error        float64
}

// RowsFromPoints converts derived estimator points to table rows.
func RowsFromPoints(points []estimator.Point) []ErrorRow {
	rows := make([]ErrorRow, len(points))
	for i, p := range points {
		rows[i] = ErrorRow{
			Time:         p.Time,
			Observation:  p.Observation,
			PrevEstimate: p.PrevEstimate,
			Estimate:     p.Estimate,
			Error:        p.Error,
		}
	}
	return rows
}

// TableName returns the conventional file name of an error table.
func TableName(side model.Side, key model.SeriesKey, run int) string {
	return fmt.Sprintf("%s_%s_%s_error_table_%d.txt", side, key.Network, key.Metric, run)
}

// WriteCSV writes rows with the fixed header.
func WriteCSV(w io.Writer, rows []ErrorRow) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			formatFloat(r.Time),
			formatFloat(r.Observation),
			formatFloat(r.PrevEstimate),
			formatFloat(r.Estimate),
			formatFloat(r.Error),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteFile writes rows to path, creating parent directories.
func WriteFile(path string, rows []ErrorRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
