package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// LoadPredictionsCSV reads classifier output scores from a CSV file, one
// row of class columns per sample. A leading non-numeric row is treated
// as a header and skipped.
func LoadPredictionsCSV(path string) (*Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening predictions: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading predictions: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("predictions file is empty")
	}

	if _, err := strconv.ParseFloat(records[0][0], 64); err != nil {
		records = records[1:]
		if len(records) == 0 {
			return nil, fmt.Errorf("predictions file has a header but no rows")
		}
	}

	cols := len(records[0])
	data := make([]float64, 0, len(records)*cols)
	for i, record := range records {
		for j, cell := range record {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", i+1, j+1, err)
			}
			data = append(data, v)
		}
	}
	return NewArray([]int{len(records), cols}, data)
}
