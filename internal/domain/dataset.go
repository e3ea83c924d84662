package domain

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"time"
)

// IntervalDataset collects every station's record for one fetch interval.
// Missing lists stations the inventory advertised but whose data could not
// be fetched.
type IntervalDataset struct {
	Interval  Interval
	Records   map[string]*StationRecord
	Missing   []string
	FetchedAt time.Time
}

// NewIntervalDataset returns an empty dataset stamped with the current time.
func NewIntervalDataset(iv Interval) *IntervalDataset {
	return &IntervalDataset{
		Interval:  iv,
		Records:   make(map[string]*StationRecord),
		FetchedAt: clock.Now(),
	}
}

// Add stores a station's record, replacing any previous record for the
// same station.
func (d *IntervalDataset) Add(rec *StationRecord) {
	d.Records[rec.Station] = rec
}

// MarkMissing notes a station that could not be fetched for this interval.
func (d *IntervalDataset) MarkMissing(station string) {
	d.Missing = append(d.Missing, station)
}

// Stations returns the fetched station codes in sorted order.
func (d *IntervalDataset) Stations() []string {
	return sortedKeys(d.Records)
}

// Rows returns the total sample count across all stations.
func (d *IntervalDataset) Rows() int {
	n := 0
	for _, rec := range d.Records {
		n += rec.Len()
	}
	return n
}

// YearlyDataset is a year's interval datasets concatenated into one combined
// record per station. Missing lists stations absent from at least one
// interval, deduplicated and sorted.
type YearlyDataset struct {
	Year    int
	Records map[string]*StationRecord
	Missing []string
}

// Stations returns the station codes in sorted order.
func (d *YearlyDataset) Stations() []string {
	return sortedKeys(d.Records)
}

// Rows returns the total sample count across all stations.
func (d *YearlyDataset) Rows() int {
	n := 0
	for _, rec := range d.Records {
		n += rec.Len()
	}
	return n
}

// MergeIntervals concatenates interval datasets, in order, into per-station
// yearly records. A station absent from some intervals contributes only the
// rows it has. Fields are unioned across intervals in first-seen order, and
// columns a source interval did not carry are filled with NaN. Parts must be
// ordered by interval start.
func MergeIntervals(year int, parts []*IntervalDataset) (*YearlyDataset, error) {
	for i := 1; i < len(parts); i++ {
		if parts[i].Interval.Start.Before(parts[i-1].Interval.Start) {
			return nil, fmt.Errorf("merge intervals for %d: part %d starts before part %d", year, i, i-1)
		}
	}

	// First pass: per-station field union in first-seen order, so every
	// merged row can be laid out once.
	fieldsByStation := make(map[string][]string)
	for _, part := range parts {
		for code, rec := range part.Records {
			for _, f := range rec.Fields {
				if !slices.Contains(fieldsByStation[code], f) {
					fieldsByStation[code] = append(fieldsByStation[code], f)
				}
			}
		}
	}

	out := &YearlyDataset{Year: year, Records: make(map[string]*StationRecord)}
	missing := make(map[string]bool)
	for _, part := range parts {
		for _, code := range part.Missing {
			missing[code] = true
		}
		for _, code := range part.Stations() {
			rec := part.Records[code]
			combined := out.Records[code]
			if combined == nil {
				combined = &StationRecord{Station: code, Fields: fieldsByStation[code]}
				out.Records[code] = combined
			}
			colMap := make([]int, len(rec.Fields))
			for i, f := range rec.Fields {
				colMap[i] = slices.Index(combined.Fields, f)
			}
			for i, row := range rec.Values {
				merged := make([]float64, len(combined.Fields))
				for j := range merged {
					merged[j] = math.NaN()
				}
				for j, v := range row {
					merged[colMap[j]] = v
				}
				combined.Times = append(combined.Times, rec.Times[i])
				combined.Values = append(combined.Values, merged)
			}
		}
	}
	for code := range missing {
		out.Missing = append(out.Missing, code)
	}
	sort.Strings(out.Missing)
	return out, nil
}

func sortedKeys(records map[string]*StationRecord) []string {
	codes := make([]string, 0, len(records))
	for code := range records {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
