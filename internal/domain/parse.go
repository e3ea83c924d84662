package domain

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// timeLayouts are the Date_UTC renderings observed in SuperMAG CSV exports.
// The service usually omits the zone suffix; stamps are UTC regardless.
var timeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseInventory decodes the station list returned by the inventory service.
// An empty list is a valid answer (quiet window, no stations reporting).
func ParseInventory(data []byte) ([]string, error) {
	var resp struct {
		Stations []string `json:"stations"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse inventory: %w", err)
	}
	return resp.Stations, nil
}

// ParseStationCSV decodes one station's CSV export into a StationRecord.
// The Date_UTC column becomes the time index and the IAGA column is dropped
// (it repeats the station code on every row). Blank cells become NaN.
// A body without a Date_UTC column, or with ragged rows, is an error rather
// than a partial record.
func ParseStationCSV(station string, r io.Reader) (*StationRecord, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse station csv %s: empty body", station)
	}
	if err != nil {
		return nil, fmt.Errorf("parse station csv %s: %w", station, err)
	}

	timeCol := -1
	fields := make([]string, 0, len(header))
	sourceCols := make([]int, 0, len(header))
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "Date_UTC":
			timeCol = i
		case "IAGA":
			// dropped
		default:
			fields = append(fields, strings.TrimSpace(name))
			sourceCols = append(sourceCols, i)
		}
	}
	if timeCol == -1 {
		return nil, fmt.Errorf("parse station csv %s: no Date_UTC column in header %q", station, header)
	}

	rec := &StationRecord{Station: station, Fields: fields}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse station csv %s: %w", station, err)
		}
		ts, err := parseSampleTime(row[timeCol])
		if err != nil {
			return nil, fmt.Errorf("parse station csv %s: %w", station, err)
		}
		values := make([]float64, len(sourceCols))
		for j, src := range sourceCols {
			values[j] = parseCell(row[src])
		}
		rec.Times = append(rec.Times, ts)
		rec.Values = append(rec.Values, values)
	}
	return rec, nil
}

// parseCell reads one measurement cell. Blank and non-numeric cells are NaN,
// matching how the service encodes reporting gaps.
func parseCell(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// parseSampleTime parses a Date_UTC cell, trying each known layout.
func parseSampleTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized Date_UTC value %q", s)
}
