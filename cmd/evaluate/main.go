// Command evaluate scores an externally trained substorm classifier
// against the held-out test split and renders its confusion matrix and
// class activation maps.
//
// The training side exports a predictions CSV for the test split and,
// optionally, a feature-map .npz (entries maps and weights). This command
// reproduces the split protocol from the experiment manifest, reports the
// detection rates, and writes the plots.
//
// Usage:
//
//	go run ./cmd/evaluate -experiment experiment.yaml \
//	  -predictions out/predictions.csv -activations out/activations.npz
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alanzhou93/substorm-detection/internal/config"
	"github.com/alanzhou93/substorm-detection/internal/dataset"
	"github.com/alanzhou93/substorm-detection/internal/plotting"
)

func main() {
	experiment := flag.String("experiment", "experiment.yaml", "path to the experiment manifest")
	predictions := flag.String("predictions", "", "override the manifest's predictions CSV")
	activations := flag.String("activations", "", "feature-map .npz exported by the training run")
	outDir := flag.String("out-dir", "", "override the manifest's output directory")
	flag.Parse()

	if code := run(*experiment, *predictions, *activations, *outDir); code != 0 {
		os.Exit(code)
	}
}

// splits holds the three model-ready parts: sequence-formatted inputs and
// one-hot labels.
type splits struct {
	xTrain, xVal, xTest *dataset.Array
	yTrain, yVal, yTest *dataset.Array
}

func run(manifestPath, predictionsPath, activationsPath, outDir string) int {
	exp, err := config.LoadExperiment(manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	if predictionsPath != "" {
		exp.Predictions = predictionsPath
	}
	if outDir != "" {
		exp.OutputDir = outDir
	}

	fmt.Println("=== Substorm Classifier Evaluation ===")
	fmt.Println()
	fmt.Printf("  data: %s\n", exp.Data)

	x, y, err := dataset.LoadNPZ(exp.Data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load dataset: %v\n", err)
		return 1
	}
	fmt.Printf("  loaded X %s, y %s\n", shapeString(x), shapeString(y))

	s, err := prepare(exp, x, y)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: prepare splits: %v\n", err)
		return 1
	}
	fmt.Printf("  train  X %s, y %s\n", shapeString(s.xTrain), shapeString(s.yTrain))
	fmt.Printf("  val    X %s, y %s\n", shapeString(s.xVal), shapeString(s.yVal))
	fmt.Printf("  test   X %s, y %s\n", shapeString(s.xTest), shapeString(s.yTest))

	if exp.Predictions == "" {
		fmt.Println("\nNo predictions file configured, reporting data preparation only.")
		return 0
	}

	if err := os.MkdirAll(exp.OutputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: create output dir: %v\n", err)
		return 1
	}

	if code := scorePredictions(exp, s); code != 0 {
		return code
	}
	if activationsPath != "" {
		return renderActivations(exp, s, activationsPath)
	}
	return 0
}

// prepare reproduces the training pipeline's split protocol: the trailing
// test fraction is held out in order, then the validation fraction is
// shuffled out of the remainder, and every part is batch-trimmed,
// sequence-formatted, and one-hot encoded.
func prepare(exp *config.Experiment, x, y *dataset.Array) (*splits, error) {
	train, test, err := dataset.Split(
		[]*dataset.Array{x, y},
		exp.TestSplit,
		dataset.SplitOptions{BatchSize: exp.BatchSize},
	)
	if err != nil {
		return nil, fmt.Errorf("test split: %w", err)
	}

	train, val, err := dataset.Split(
		train,
		exp.ValSplit,
		dataset.SplitOptions{Shuffle: true, Seed: exp.Seed, BatchSize: exp.BatchSize},
	)
	if err != nil {
		return nil, fmt.Errorf("validation split: %w", err)
	}

	enc, err := dataset.FitOneHot(train[1], val[1], test[1])
	if err != nil {
		return nil, fmt.Errorf("fit label encoder: %w", err)
	}

	s := &splits{}
	if s.xTrain, err = dataset.FormatRNN(train[0]); err != nil {
		return nil, err
	}
	if s.xVal, err = dataset.FormatRNN(val[0]); err != nil {
		return nil, err
	}
	if s.xTest, err = dataset.FormatRNN(test[0]); err != nil {
		return nil, err
	}
	if s.yTrain, err = enc.Transform(train[1]); err != nil {
		return nil, err
	}
	if s.yVal, err = enc.Transform(val[1]); err != nil {
		return nil, err
	}
	if s.yTest, err = enc.Transform(test[1]); err != nil {
		return nil, err
	}
	return s, nil
}

func scorePredictions(exp *config.Experiment, s *splits) int {
	preds, err := dataset.LoadPredictionsCSV(exp.Predictions)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	if preds.Samples() != s.yTest.Samples() {
		fmt.Fprintf(os.Stderr, "FATAL: predictions cover %d samples, test split has %d\n",
			preds.Samples(), s.yTest.Samples())
		return 1
	}

	tpr, err := dataset.TruePositiveRate(s.yTest, preds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	fpr, err := dataset.FalsePositiveRate(s.yTest, preds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	m, err := dataset.ConfusionMatrix(s.yTest, preds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	fmt.Println()
	fmt.Printf("  true positive rate:  %.4f\n", tpr)
	fmt.Printf("  false positive rate: %.4f\n", fpr)
	fmt.Println("  confusion (rows actual, row-normalized):")
	for r := 0; r < 2; r++ {
		fmt.Printf("    %-9s %6.3f %6.3f\n", exp.Classes[r], m.At(r, 0), m.At(r, 1))
	}

	path := filepath.Join(exp.OutputDir, "confusion.png")
	if err := plotting.ConfusionPlot(m, exp.Classes, path); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	fmt.Printf("\n  wrote %s\n", path)
	return 0
}

func renderActivations(exp *config.Experiment, s *splits, activationsPath string) int {
	arrays, err := dataset.LoadNPZEntries(activationsPath, "maps", "weights")
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load activations: %v\n", err)
		return 1
	}
	maps, weights := arrays[0], arrays[1]
	if len(maps.Shape()) != 3 {
		fmt.Fprintf(os.Stderr, "FATAL: maps entry has shape %s, want (samples, steps, channels)\n", shapeString(maps))
		return 1
	}
	if maps.Samples() != s.xTest.Samples() {
		fmt.Fprintf(os.Stderr, "FATAL: maps cover %d samples, test split has %d\n",
			maps.Samples(), s.xTest.Samples())
		return 1
	}

	cam, err := dataset.BatchCAM(&activationReplay{maps: maps}, s.xTest, weights.Data(), exp.BatchSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	camPath := filepath.Join(exp.OutputDir, "cam.png")
	if err := plotting.CAMPlot(cam, camPath); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	fmt.Printf("  wrote %s\n", camPath)

	i := strongestSample(cam)
	overlayPath := filepath.Join(exp.OutputDir, "activation.png")
	if err := plotting.ActivationOverlay(meanSignal(s.xTest.Row(i)), cam.Row(i).Data(), overlayPath); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	fmt.Printf("  wrote %s (sample %d)\n", overlayPath, i)
	return 0
}

// activationReplay feeds exported feature maps back to the activation
// mapper in the same batch order the model processed them.
type activationReplay struct {
	maps   *dataset.Array
	offset int
}

func (a *activationReplay) FeatureMaps(x *dataset.Array) (*dataset.Array, error) {
	n := x.Samples()
	if a.offset+n > a.maps.Samples() {
		return nil, fmt.Errorf("activation archive exhausted at sample %d", a.offset)
	}
	out := a.maps.SliceRows(a.offset, a.offset+n)
	a.offset += n
	return out, nil
}

// strongestSample picks the row with the highest peak activation.
func strongestSample(cam *dataset.Array) int {
	best, bestVal := 0, cam.At(0, 0)
	shape := cam.Shape()
	for i := 0; i < shape[0]; i++ {
		for j := 0; j < shape[1]; j++ {
			if v := cam.At(i, j); v > bestVal {
				best, bestVal = i, v
			}
		}
	}
	return best
}

// meanSignal averages a (time, features) sample across features, giving
// one plottable trace.
func meanSignal(sample *dataset.Array) []float64 {
	shape := sample.Shape()
	out := make([]float64, shape[0])
	for t := 0; t < shape[0]; t++ {
		var sum float64
		for f := 0; f < shape[1]; f++ {
			sum += sample.At(t, f)
		}
		out[t] = sum / float64(shape[1])
	}
	return out
}

func shapeString(a *dataset.Array) string {
	dims := a.Shape()
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = strconv.Itoa(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
