package dataset

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// epsilon keeps the rate denominators finite when a class is absent.
const epsilon = 1e-7

// TruePositiveRate scores rounded column 0 of the one-hot arrays: the
// fraction of actual positives the classifier caught.
func TruePositiveRate(yTrue, yPred *Array) (float64, error) {
	actual, predicted, err := scoreColumns(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var hits, positives float64
	for i := range actual {
		hits += actual[i] * predicted[i]
		positives += actual[i]
	}
	return hits / (positives + epsilon), nil
}

// FalsePositiveRate scores rounded column 0 of the one-hot arrays: the
// fraction of actual negatives the classifier flagged anyway.
func FalsePositiveRate(yTrue, yPred *Array) (float64, error) {
	actual, predicted, err := scoreColumns(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var alarms, negatives float64
	for i := range actual {
		alarms += (1 - actual[i]) * predicted[i]
		negatives += 1 - actual[i]
	}
	return alarms / (negatives + epsilon), nil
}

// ConfusionCounts tallies the binary confusion counts from rounded column 0.
// Rows are actual classes in order [positive, negative], columns predicted
// in the same order.
func ConfusionCounts(yTrue, yPred *Array) (*mat.Dense, error) {
	actual, predicted, err := scoreColumns(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	counts := mat.NewDense(2, 2, nil)
	for i := range actual {
		t, p := actual[i], predicted[i]
		counts.Set(0, 0, counts.At(0, 0)+t*p)
		counts.Set(0, 1, counts.At(0, 1)+t*(1-p))
		counts.Set(1, 0, counts.At(1, 0)+(1-t)*p)
		counts.Set(1, 1, counts.At(1, 1)+(1-t)*(1-p))
	}
	return counts, nil
}

// ConfusionMatrix is ConfusionCounts with each row normalized to sum to
// one. A row with no samples stays zero.
func ConfusionMatrix(yTrue, yPred *Array) (*mat.Dense, error) {
	counts, err := ConfusionCounts(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	for r := 0; r < 2; r++ {
		sum := counts.At(r, 0) + counts.At(r, 1)
		if sum == 0 {
			continue
		}
		counts.Set(r, 0, counts.At(r, 0)/sum)
		counts.Set(r, 1, counts.At(r, 1)/sum)
	}
	return counts, nil
}

// scoreColumns extracts and rounds the leading column of both arrays.
func scoreColumns(yTrue, yPred *Array) (actual, predicted []float64, err error) {
	actual, err = leadingColumn(yTrue)
	if err != nil {
		return nil, nil, fmt.Errorf("true labels: %w", err)
	}
	predicted, err = leadingColumn(yPred)
	if err != nil {
		return nil, nil, fmt.Errorf("predictions: %w", err)
	}
	if len(actual) != len(predicted) {
		return nil, nil, fmt.Errorf("%d true labels against %d predictions", len(actual), len(predicted))
	}
	return actual, predicted, nil
}

func leadingColumn(a *Array) ([]float64, error) {
	shape := a.Shape()
	var out []float64
	switch {
	case len(shape) == 1:
		out = make([]float64, shape[0])
		copy(out, a.Data())
	case len(shape) == 2 && shape[1] >= 1:
		out = make([]float64, shape[0])
		for i := range out {
			out[i] = a.Data()[i*shape[1]]
		}
	default:
		return nil, fmt.Errorf("want a score matrix, got shape %v", shape)
	}
	for i, v := range out {
		out[i] = math.Round(v)
	}
	return out, nil
}
