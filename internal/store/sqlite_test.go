package store_test

import (
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanzhou93/substorm-detection/internal/domain"
	"github.com/alanzhou93/substorm-detection/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleYear() *domain.YearlyDataset {
	times := []time.Time{
		time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2015, 1, 1, 0, 1, 0, 0, time.UTC),
		time.Date(2015, 1, 1, 0, 2, 0, 0, time.UTC),
	}
	return &domain.YearlyDataset{
		Year: 2015,
		Records: map[string]*domain.StationRecord{
			"BOU": {
				Station: "BOU",
				Fields:  []string{"MLT", "MLAT", "N_nez"},
				Times:   times,
				Values: [][]float64{
					{7.36, 48.9, -12.5},
					{7.38, 48.9, math.NaN()},
					{7.39, 48.9, -11.8},
				},
			},
			"OTT": {
				Station: "OTT",
				Fields:  []string{"MLT", "MLAT"},
				Times:   times[:2],
				Values: [][]float64{
					{8.1, 55.2},
					{8.2, 55.2},
				},
			},
		},
		Missing: []string{"THL"},
	}
}

func TestSQLite_WriteYearRoundTrip(t *testing.T) {
	s := store.NewSQLite(t.TempDir(), discardLogger())
	want := sampleYear()

	path, err := s.WriteYear(context.Background(), want)
	require.NoError(t, err)
	assert.Equal(t, s.YearPath(2015), path)

	got, err := store.ReadYear(context.Background(), path)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("dataset mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLite_WriteYearReplacesExisting(t *testing.T) {
	s := store.NewSQLite(t.TempDir(), discardLogger())
	ctx := context.Background()

	_, err := s.WriteYear(ctx, sampleYear())
	require.NoError(t, err)

	rewrite := &domain.YearlyDataset{
		Year: 2015,
		Records: map[string]*domain.StationRecord{
			"BOU": {
				Station: "BOU",
				Fields:  []string{"MLT"},
				Times:   []time.Time{time.Date(2015, 6, 1, 0, 0, 0, 0, time.UTC)},
				Values:  [][]float64{{3.2}},
			},
		},
	}
	path, err := s.WriteYear(ctx, rewrite)
	require.NoError(t, err)

	got, err := store.ReadYear(ctx, path)
	require.NoError(t, err)
	assert.Len(t, got.Records, 1)
	assert.Empty(t, got.Missing)
	assert.Equal(t, []string{"MLT"}, got.Records["BOU"].Fields)
}

func TestSQLite_WriteYearCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data", "raw")
	s := store.NewSQLite(dir, discardLogger())

	path, err := s.WriteYear(context.Background(), sampleYear())
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestSQLite_PartialStationKeepsDataAndMarker(t *testing.T) {
	// A station fetched in some intervals and unavailable in others carries
	// both its data and a missing marker.
	ds := sampleYear()
	ds.Missing = append(ds.Missing, "OTT")

	s := store.NewSQLite(t.TempDir(), discardLogger())
	path, err := s.WriteYear(context.Background(), ds)
	require.NoError(t, err)

	got, err := store.ReadYear(context.Background(), path)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"OTT", "THL"}, got.Missing)
	require.Contains(t, got.Records, "OTT")
	assert.Equal(t, 2, got.Records["OTT"].Len())
}

func TestSQLite_EmptyDataset(t *testing.T) {
	ds := &domain.YearlyDataset{Year: 2017, Records: map[string]*domain.StationRecord{}}

	s := store.NewSQLite(t.TempDir(), discardLogger())
	path, err := s.WriteYear(context.Background(), ds)
	require.NoError(t, err)

	got, err := store.ReadYear(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2017, got.Year)
	assert.Empty(t, got.Records)
	assert.Empty(t, got.Missing)
}

func TestSQLite_RejectsUnsafeStationCode(t *testing.T) {
	ds := &domain.YearlyDataset{
		Year: 2015,
		Records: map[string]*domain.StationRecord{
			"BOU; DROP TABLE stations": {
				Station: "BOU; DROP TABLE stations",
				Fields:  []string{"MLT"},
				Times:   []time.Time{time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)},
				Values:  [][]float64{{1}},
			},
		},
	}

	s := store.NewSQLite(t.TempDir(), discardLogger())
	_, err := s.WriteYear(context.Background(), ds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsafe station code")
}

func TestSQLite_RejectsUnsafeFieldName(t *testing.T) {
	ds := &domain.YearlyDataset{
		Year: 2015,
		Records: map[string]*domain.StationRecord{
			"BOU": {
				Station: "BOU",
				Fields:  []string{"MLT\" REAL; --"},
				Times:   []time.Time{time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)},
				Values:  [][]float64{{1}},
			},
		},
	}

	s := store.NewSQLite(t.TempDir(), discardLogger())
	_, err := s.WriteYear(context.Background(), ds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsafe field name")
}

func TestReadYear_MissingFile(t *testing.T) {
	_, err := store.ReadYear(context.Background(), filepath.Join(t.TempDir(), "mag_data_2015.db"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadMeta(t *testing.T) {
	s := store.NewSQLite(t.TempDir(), discardLogger())
	path, err := s.WriteYear(context.Background(), sampleYear())
	require.NoError(t, err)

	meta, err := store.ReadMeta(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "2015", meta["year"])
	assert.Equal(t, "substorm-detection", meta["generator"])
	assert.Equal(t, "1", meta["schema"])

	_, err = time.Parse(time.RFC3339, meta["created_at"])
	assert.NoError(t, err)
}

func TestSQLite_YearPath(t *testing.T) {
	s := store.NewSQLite(filepath.Join("out", "raw"), discardLogger())
	assert.Equal(t, filepath.Join("out", "raw", "mag_data_2018.db"), s.YearPath(2018))
}
