package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Experiment describes one evaluation of a trained classifier against a
// prepared dataset, loaded from a YAML manifest. Absent keys keep their
// defaults from DefaultExperiment.
type Experiment struct {
	// Data is the path to the .npz archive holding arrays X and y.
	Data string `yaml:"data"`

	// TestSplit is the trailing fraction held out, in order, for testing.
	// ValSplit is the fraction of the remainder shuffled out for validation.
	TestSplit float64 `yaml:"test_split"`
	ValSplit  float64 `yaml:"val_split"`

	// BatchSize trims every split to a whole number of batches. Zero keeps
	// all samples.
	BatchSize int `yaml:"batch_size"`

	// Seed drives the validation shuffle so runs are reproducible.
	Seed int64 `yaml:"seed"`

	// Classes names the label classes, positive class first.
	Classes []string `yaml:"classes"`

	// Predictions is an optional CSV of model output probabilities for the
	// test split. Without it only the data preparation summary is reported.
	Predictions string `yaml:"predictions"`

	// OutputDir receives rendered plots.
	OutputDir string `yaml:"output_dir"`
}

// DefaultExperiment returns the manifest defaults.
func DefaultExperiment() Experiment {
	return Experiment{
		TestSplit: 0.1,
		ValSplit:  0.15,
		BatchSize: 32,
		Seed:      1,
		Classes:   []string{"substorm", "quiet"},
		OutputDir: ".",
	}
}

// LoadExperiment reads and validates a YAML experiment manifest.
func LoadExperiment(path string) (*Experiment, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read experiment manifest: %w", err)
	}
	exp := DefaultExperiment()
	if err := yaml.Unmarshal(raw, &exp); err != nil {
		return nil, fmt.Errorf("parse experiment manifest: %w", err)
	}
	if err := exp.validate(); err != nil {
		return nil, fmt.Errorf("experiment manifest: %w", err)
	}
	return &exp, nil
}

func (e *Experiment) validate() error {
	if e.Data == "" {
		return errors.New("data path is required")
	}
	if e.TestSplit < 0 || e.TestSplit >= 1 {
		return errors.New("test_split must be in [0, 1)")
	}
	if e.ValSplit < 0 || e.ValSplit >= 1 {
		return errors.New("val_split must be in [0, 1)")
	}
	if e.BatchSize < 0 {
		return errors.New("batch_size must not be negative")
	}
	if len(e.Classes) != 2 {
		return errors.New("classes must name exactly two classes, positive first")
	}
	return nil
}
