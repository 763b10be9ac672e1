package metrics

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// ReadCSV loads an error table.
func ReadCSV(path string) ([]ErrorRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return readCSV(file)
}

func readCSV(r io.Reader) ([]ErrorRow, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	start := 0
	if len(records[0]) > 0 && records[0][0] == Header[0] {
		start = 1
	}

	rows := make([]ErrorRow, 0, len(records)-start)
	for i := start; i < len(records); i++ {
		rec := records[i]
		if len(rec) < len(Header) {
			return nil, fmt.Errorf("invalid record at line %d", i+1)
		}
		var values [5]float64
		for j := range values {
			v, err := strconv.ParseFloat(rec[j], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid %s at line %d: %w", Header[j], i+1, err)
			}
			values[j] = v
		}
		rows = append(rows, ErrorRow{
			Time:         values[0],
			Observation:  values[1],
			PrevEstimate: values[2],
			Estimate:     values[3],
			Error:        values[4],
		})
	}

	return rows, nil
}
