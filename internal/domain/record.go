package domain

import "time"

// StationRecord holds one station's samples over some contiguous span.
// Values is row-major: one row per entry in Times, one column per entry in
// Fields. Cells the service left blank are NaN.
type StationRecord struct {
	Station string
	Fields  []string
	Times   []time.Time
	Values  [][]float64
}

// Len returns the number of samples in the record.
func (r *StationRecord) Len() int {
	return len(r.Times)
}

// FieldIndex returns the column position of the named field, or -1.
func (r *StationRecord) FieldIndex(name string) int {
	for i, f := range r.Fields {
		if f == name {
			return i
		}
	}
	return -1
}

// Column copies out the values of one field across all samples.
func (r *StationRecord) Column(name string) ([]float64, bool) {
	idx := r.FieldIndex(name)
	if idx < 0 {
		return nil, false
	}
	col := make([]float64, len(r.Values))
	for i, row := range r.Values {
		col[i] = row[idx]
	}
	return col, true
}
