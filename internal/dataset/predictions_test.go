package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePredictions(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "predictions.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadPredictionsCSV(t *testing.T) {
	path := writePredictions(t, "0.9,0.1\n0.2,0.8\n")

	got, err := LoadPredictionsCSV(path)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 2}, got.Shape())
	assert.Equal(t, []float64{0.9, 0.1, 0.2, 0.8}, got.Data())
}

func TestLoadPredictionsCSV_SkipsHeader(t *testing.T) {
	path := writePredictions(t, "substorm,quiet\n0.9,0.1\n")

	got, err := LoadPredictionsCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got.Shape())
}

func TestLoadPredictionsCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty file", ""},
		{"header only", "substorm,quiet\n"},
		{"bad cell", "0.9,oops\n"},
		{"ragged rows", "0.9,0.1\n0.2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPredictionsCSV(writePredictions(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadPredictionsCSV_MissingFile(t *testing.T) {
	_, err := LoadPredictionsCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
