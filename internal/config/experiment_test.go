package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "experiment.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadExperiment(t *testing.T) {
	t.Run("full manifest", func(t *testing.T) {
		path := writeManifest(t, `
data: data/all_stations_data_128.npz
test_split: 0.2
val_split: 0.1
batch_size: 64
seed: 7
classes: [substorm, quiet]
predictions: runs/preds.csv
output_dir: runs
`)
		exp, err := LoadExperiment(path)

		require.NoError(t, err)
		assert.Equal(t, "data/all_stations_data_128.npz", exp.Data)
		assert.Equal(t, 0.2, exp.TestSplit)
		assert.Equal(t, 0.1, exp.ValSplit)
		assert.Equal(t, 64, exp.BatchSize)
		assert.Equal(t, int64(7), exp.Seed)
		assert.Equal(t, []string{"substorm", "quiet"}, exp.Classes)
		assert.Equal(t, "runs/preds.csv", exp.Predictions)
		assert.Equal(t, "runs", exp.OutputDir)
	})

	t.Run("absent keys keep defaults", func(t *testing.T) {
		path := writeManifest(t, "data: data/windows.npz\n")
		exp, err := LoadExperiment(path)

		require.NoError(t, err)
		assert.Equal(t, 0.1, exp.TestSplit)
		assert.Equal(t, 0.15, exp.ValSplit)
		assert.Equal(t, 32, exp.BatchSize)
		assert.Equal(t, int64(1), exp.Seed)
		assert.Equal(t, []string{"substorm", "quiet"}, exp.Classes)
		assert.Empty(t, exp.Predictions)
		assert.Equal(t, ".", exp.OutputDir)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadExperiment(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read experiment manifest")
	})

	t.Run("invalid YAML", func(t *testing.T) {
		path := writeManifest(t, "data: [unterminated\n")
		_, err := LoadExperiment(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse experiment manifest")
	})

	t.Run("missing data path", func(t *testing.T) {
		path := writeManifest(t, "batch_size: 16\n")
		_, err := LoadExperiment(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "data path is required")
	})

	t.Run("test split out of range", func(t *testing.T) {
		path := writeManifest(t, "data: d.npz\ntest_split: 1.0\n")
		_, err := LoadExperiment(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "test_split")
	})

	t.Run("negative batch size", func(t *testing.T) {
		path := writeManifest(t, "data: d.npz\nbatch_size: -1\n")
		_, err := LoadExperiment(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch_size")
	})

	t.Run("wrong class count", func(t *testing.T) {
		path := writeManifest(t, "data: d.npz\nclasses: [substorm]\n")
		_, err := LoadExperiment(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "classes")
	})
}
