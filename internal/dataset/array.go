// Package dataset prepares windowed magnetometer arrays for model training
// and evaluation: loading NumPy archives, splitting, label encoding,
// classifier metrics, and class activation maps.
package dataset

import (
	"fmt"
	"slices"
)

// Array is a dense row-major numeric array with an explicit shape, the
// in-memory form of the NumPy arrays the training pipeline exchanges.
// Axis 0 is always the sample axis.
type Array struct {
	shape []int
	data  []float64
}

// NewArray wraps data in an array of the given shape. The data slice is
// retained, not copied.
func NewArray(shape []int, data []float64) (*Array, error) {
	if len(shape) == 0 {
		return nil, fmt.Errorf("empty shape")
	}
	n := 1
	for _, d := range shape {
		if d < 0 {
			return nil, fmt.Errorf("negative dimension in shape %v", shape)
		}
		n *= d
	}
	if n != len(data) {
		return nil, fmt.Errorf("shape %v wants %d values, got %d", shape, n, len(data))
	}
	return &Array{shape: slices.Clone(shape), data: data}, nil
}

// Zeros returns a zero-filled array of the given shape.
func Zeros(shape ...int) *Array {
	n := 1
	for _, d := range shape {
		n *= d
	}
	a, err := NewArray(shape, make([]float64, n))
	if err != nil {
		panic(err)
	}
	return a
}

// Shape returns a copy of the array's dimensions.
func (a *Array) Shape() []int { return slices.Clone(a.shape) }

// Samples returns the length of the sample axis.
func (a *Array) Samples() int { return a.shape[0] }

// Len returns the total number of values.
func (a *Array) Len() int { return len(a.data) }

// Data returns the backing slice in row-major order. Callers share it with
// the array.
func (a *Array) Data() []float64 { return a.data }

// At returns the value at the given multi-index.
func (a *Array) At(idx ...int) float64 {
	return a.data[a.offset(idx)]
}

// Set stores v at the given multi-index.
func (a *Array) Set(v float64, idx ...int) {
	a.data[a.offset(idx)] = v
}

func (a *Array) offset(idx []int) int {
	if len(idx) != len(a.shape) {
		panic(fmt.Sprintf("index rank %d against shape %v", len(idx), a.shape))
	}
	off := 0
	for i, j := range idx {
		if j < 0 || j >= a.shape[i] {
			panic(fmt.Sprintf("index %v out of range for shape %v", idx, a.shape))
		}
		off = off*a.shape[i] + j
	}
	return off
}

// Reshape returns a view of the same data under a new shape. The total
// number of values must be unchanged.
func (a *Array) Reshape(shape ...int) (*Array, error) {
	n := 1
	for _, d := range shape {
		n *= d
	}
	if n != len(a.data) {
		return nil, fmt.Errorf("cannot reshape %v to %v", a.shape, shape)
	}
	return &Array{shape: slices.Clone(shape), data: a.data}, nil
}

// Row copies out sample i as an array of shape Shape()[1:]. A rank-1
// array yields a single-element rank-1 array.
func (a *Array) Row(i int) *Array {
	stride := a.rowStride()
	data := slices.Clone(a.data[i*stride : (i+1)*stride])
	shape := slices.Clone(a.shape[1:])
	if len(shape) == 0 {
		shape = []int{1}
	}
	return &Array{shape: shape, data: data}
}

// Select copies out the given samples, in order, as a new array. Indices
// may repeat.
func (a *Array) Select(indices []int) *Array {
	stride := a.rowStride()
	out := make([]float64, 0, len(indices)*stride)
	for _, i := range indices {
		out = append(out, a.data[i*stride:(i+1)*stride]...)
	}
	shape := slices.Clone(a.shape)
	shape[0] = len(indices)
	return &Array{shape: shape, data: out}
}

// SliceRows copies out samples [i, j) as a new array.
func (a *Array) SliceRows(i, j int) *Array {
	stride := a.rowStride()
	shape := slices.Clone(a.shape)
	shape[0] = j - i
	return &Array{shape: shape, data: slices.Clone(a.data[i*stride : j*stride])}
}

func (a *Array) rowStride() int {
	stride := 1
	for _, d := range a.shape[1:] {
		stride *= d
	}
	return stride
}

// FormatRNN flattens everything after the time axis so each step carries
// one feature vector: (samples, time, stations, components) becomes
// (samples, time, stations*components). The result shares x's data.
func FormatRNN(x *Array) (*Array, error) {
	if len(x.shape) < 2 {
		return nil, fmt.Errorf("rank %d array cannot be sequence-formatted", len(x.shape))
	}
	rest := 1
	for _, d := range x.shape[2:] {
		rest *= d
	}
	return x.Reshape(x.shape[0], x.shape[1], rest)
}

// FormatLinear flattens everything after the sample axis, giving flat
// classifiers one feature vector per sample. The result shares x's data.
func FormatLinear(x *Array) (*Array, error) {
	if len(x.shape) < 2 {
		return nil, fmt.Errorf("rank %d array cannot be flattened", len(x.shape))
	}
	return x.Reshape(x.shape[0], x.rowStride())
}

// FlattenLabels reduces a (samples, 1) label array to rank one. Rank-1
// input is returned unchanged.
func FlattenLabels(y *Array) (*Array, error) {
	if len(y.shape) == 1 {
		return y, nil
	}
	if len(y.shape) == 2 && y.shape[1] == 1 {
		return y.Reshape(y.shape[0])
	}
	return nil, fmt.Errorf("labels have shape %v, want one value per sample", y.shape)
}
