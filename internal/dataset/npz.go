package dataset

import (
	"fmt"
	"strings"

	"github.com/sbinet/npyio/npz"
)

// LoadNPZEntries reads the named entries from a NumPy .npz archive, in
// order, widening every numeric dtype to float64. Entry names match with
// or without numpy's .npy member suffix.
func LoadNPZEntries(path string, keys ...string) ([]*Array, error) {
	f, err := npz.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	out := make([]*Array, len(keys))
	for i, key := range keys {
		a, err := readEntry(f, key)
		if err != nil {
			return nil, err
		}
		out[i] = a
	}
	return out, nil
}

// LoadNPZ reads the windowed samples X and labels y from a NumPy .npz
// archive. A flat y vector comes back as a single-column matrix.
func LoadNPZ(path string) (x, y *Array, err error) {
	arrays, err := LoadNPZEntries(path, "X", "y")
	if err != nil {
		return nil, nil, err
	}
	x, y = arrays[0], arrays[1]

	if len(y.Shape()) == 1 {
		y, err = y.Reshape(y.Samples(), 1)
		if err != nil {
			return nil, nil, err
		}
	}
	if x.Samples() != y.Samples() {
		return nil, nil, fmt.Errorf("%d samples in X against %d labels in y", x.Samples(), y.Samples())
	}
	return x, y, nil
}

func readEntry(f *npz.Reader, key string) (*Array, error) {
	name, ok := findKey(f.Keys(), key)
	if !ok {
		return nil, fmt.Errorf("archive has no %s entry (keys: %s)", key, strings.Join(f.Keys(), ", "))
	}

	hdr := f.Header(name)
	if hdr.Descr.Fortran {
		return nil, fmt.Errorf("%s: fortran-ordered arrays are not supported", name)
	}
	shape := hdr.Descr.Shape
	if len(shape) == 0 {
		return nil, fmt.Errorf("%s: scalar entry", name)
	}

	data, err := readFloats(f, name, hdr.Descr.Type)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	a, err := NewArray(shape, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return a, nil
}

// findKey matches how numpy names archive members: savez stores entry k
// as k.npy.
func findKey(keys []string, key string) (string, bool) {
	for _, k := range keys {
		if k == key || k == key+".npy" {
			return k, true
		}
	}
	return "", false
}

func readFloats(f *npz.Reader, name, dtype string) ([]float64, error) {
	switch strings.TrimLeft(dtype, "<>|=") {
	case "f8":
		var v []float64
		if err := f.Read(name, &v); err != nil {
			return nil, err
		}
		return v, nil
	case "f4":
		var v []float32
		if err := f.Read(name, &v); err != nil {
			return nil, err
		}
		return widen(v), nil
	case "i8":
		var v []int64
		if err := f.Read(name, &v); err != nil {
			return nil, err
		}
		return widen(v), nil
	case "i4":
		var v []int32
		if err := f.Read(name, &v); err != nil {
			return nil, err
		}
		return widen(v), nil
	case "u1":
		var v []uint8
		if err := f.Read(name, &v); err != nil {
			return nil, err
		}
		return widen(v), nil
	case "b1":
		var v []bool
		if err := f.Read(name, &v); err != nil {
			return nil, err
		}
		out := make([]float64, len(v))
		for i, b := range v {
			if b {
				out[i] = 1
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported dtype %q", dtype)
	}
}

func widen[T int32 | int64 | uint8 | float32](v []T) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
