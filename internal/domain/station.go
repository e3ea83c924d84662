package domain

import (
	"fmt"
	"time"
)

// DateFormat is the start-stamp layout the SuperMAG services accept,
// e.g. "2015-01-01T00:00:00.000Z". Always UTC, milliseconds fixed at zero.
const DateFormat = "2006-01-02T15:04:05.000Z"

// Interval is one fetch window: a half-open [Start, End) slice of a year.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Duration returns the interval's extent.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// StartParam renders the start stamp the way the services expect it.
func (iv Interval) StartParam() string {
	return iv.Start.UTC().Format(DateFormat)
}

// HoursMinutes renders the extent as "H:M" with no zero padding, total hours
// then leftover minutes. Leftover seconds are truncated.
func (iv Interval) HoursMinutes() string {
	total := int(iv.Duration() / time.Second)
	hours := total / 3600
	minutes := (total - hours*3600) / 60
	return fmt.Sprintf("%d:%d", hours, minutes)
}

func (iv Interval) String() string {
	return iv.StartParam() + "+" + iv.HoursMinutes()
}

// DateRange splits [start, end] into n equal steps and returns the n+1
// boundary stamps, both endpoints included and exact. Returns nil when n < 1.
func DateRange(start, end time.Time, n int) []time.Time {
	if n < 1 {
		return nil
	}
	total := int64(end.Sub(start))
	stamps := make([]time.Time, 0, n+1)
	for i := 0; i <= n; i++ {
		stamps = append(stamps, start.Add(time.Duration(total*int64(i)/int64(n))))
	}
	return stamps
}

// YearIntervals slices calendar year into n equal fetch intervals covering
// Jan 1 00:00 UTC up to Jan 1 of the following year. Adjacent intervals
// share a boundary stamp. Returns nil when n < 1.
func YearIntervals(year, n int) []Interval {
	if n < 1 {
		return nil
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	stamps := DateRange(start, end, n)
	intervals := make([]Interval, 0, n)
	for i := 0; i < n; i++ {
		intervals = append(intervals, Interval{Start: stamps[i], End: stamps[i+1]})
	}
	return intervals
}
