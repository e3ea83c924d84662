package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateRange(t *testing.T) {
	start := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("ten steps yields eleven stamps", func(t *testing.T) {
		stamps := DateRange(start, end, 10)
		require.Len(t, stamps, 11)
		assert.Equal(t, start, stamps[0])
		assert.Equal(t, end, stamps[10])
	})

	t.Run("stamps are evenly spaced", func(t *testing.T) {
		stamps := DateRange(start, end, 10)
		step := end.Sub(start) / 10
		for i := 1; i < len(stamps); i++ {
			assert.Equal(t, step, stamps[i].Sub(stamps[i-1]))
		}
	})

	t.Run("single step", func(t *testing.T) {
		stamps := DateRange(start, end, 1)
		require.Len(t, stamps, 2)
		assert.Equal(t, start, stamps[0])
		assert.Equal(t, end, stamps[1])
	})

	t.Run("zero steps", func(t *testing.T) {
		assert.Nil(t, DateRange(start, end, 0))
	})
}

func TestYearIntervals(t *testing.T) {
	t.Run("covers the year contiguously", func(t *testing.T) {
		intervals := YearIntervals(2015, 10)
		require.Len(t, intervals, 10)
		assert.Equal(t, time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC), intervals[0].Start)
		assert.Equal(t, time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC), intervals[9].End)
		for i := 1; i < len(intervals); i++ {
			assert.Equal(t, intervals[i-1].End, intervals[i].Start)
		}
	})

	t.Run("non-leap year extent", func(t *testing.T) {
		intervals := YearIntervals(2015, 10)
		assert.Equal(t, "876:0", intervals[0].HoursMinutes())
	})

	t.Run("leap year extent", func(t *testing.T) {
		intervals := YearIntervals(2016, 10)
		assert.Equal(t, "878:24", intervals[0].HoursMinutes())
		assert.Equal(t, time.Date(2016, 2, 6, 14, 24, 0, 0, time.UTC), intervals[1].Start)
	})

	t.Run("invalid count", func(t *testing.T) {
		assert.Nil(t, YearIntervals(2015, 0))
	})
}

func TestHoursMinutes(t *testing.T) {
	base := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		extent   time.Duration
		expected string
	}{
		{"half hour", 30 * time.Minute, "0:30"},
		{"hour and five", 65 * time.Minute, "1:5"},
		{"tenth of a year", 876 * time.Hour, "876:0"},
		{"seconds truncated", time.Hour + 30*time.Minute + 45*time.Second, "1:30"},
		{"empty", 0, "0:0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv := Interval{Start: base, End: base.Add(tt.extent)}
			assert.Equal(t, tt.expected, iv.HoursMinutes())
		})
	}
}

func TestStartParam(t *testing.T) {
	t.Run("formats with millisecond zeros", func(t *testing.T) {
		iv := Interval{Start: time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)}
		assert.Equal(t, "2015-01-01T00:00:00.000Z", iv.StartParam())
	})

	t.Run("mid-year stamp", func(t *testing.T) {
		iv := Interval{Start: time.Date(2016, 2, 10, 14, 24, 0, 0, time.UTC)}
		assert.Equal(t, "2016-02-10T14:24:00.000Z", iv.StartParam())
	})

	t.Run("converts to UTC first", func(t *testing.T) {
		est := time.FixedZone("EST", -5*3600)
		iv := Interval{Start: time.Date(2015, 6, 1, 7, 0, 0, 0, est)}
		assert.Equal(t, "2015-06-01T12:00:00.000Z", iv.StartParam())
	})
}

func TestIntervalString(t *testing.T) {
	iv := Interval{
		Start: time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC).Add(876 * time.Hour),
	}
	assert.Equal(t, "2015-01-01T00:00:00.000Z+876:0", iv.String())
}
