package dataset

import (
	"fmt"
	"math"
	"slices"
)

// Encoder one-hot encodes class labels. Classes are ordered by ascending
// label value, so with labels {0, 1} column 0 is class 0.
type Encoder struct {
	classes []float64
}

// FitOneHot collects the distinct labels across all given label arrays.
// Fitting on every split together keeps the encoding consistent even when
// a split is missing a class.
func FitOneHot(ys ...*Array) (*Encoder, error) {
	seen := make(map[float64]struct{})
	for _, y := range ys {
		labels, err := labelColumn(y)
		if err != nil {
			return nil, err
		}
		for _, v := range labels {
			if math.IsNaN(v) {
				return nil, fmt.Errorf("NaN label")
			}
			seen[v] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("no labels to fit")
	}

	classes := make([]float64, 0, len(seen))
	for v := range seen {
		classes = append(classes, v)
	}
	slices.Sort(classes)
	return &Encoder{classes: classes}, nil
}

// Classes returns the fitted label values in column order.
func (e *Encoder) Classes() []float64 { return slices.Clone(e.classes) }

// Transform one-hot encodes y into shape (samples, classes). Labels the
// encoder was not fitted on are an error.
func (e *Encoder) Transform(y *Array) (*Array, error) {
	labels, err := labelColumn(y)
	if err != nil {
		return nil, err
	}
	out := Zeros(len(labels), len(e.classes))
	for i, v := range labels {
		col := slices.Index(e.classes, v)
		if col < 0 {
			return nil, fmt.Errorf("label %v not seen during fit", v)
		}
		out.Set(1, i, col)
	}
	return out, nil
}

// labelColumn extracts a label vector from a rank-1 array or a rank-2
// single-column array.
func labelColumn(y *Array) ([]float64, error) {
	shape := y.Shape()
	switch {
	case len(shape) == 1:
		return y.Data(), nil
	case len(shape) == 2 && shape[1] == 1:
		return y.Data(), nil
	default:
		return nil, fmt.Errorf("labels must be a vector, got shape %v", shape)
	}
}
