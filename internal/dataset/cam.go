package dataset

import "fmt"

// ActivationSource yields per-sample feature maps from a trained network,
// shaped (samples, steps, channels). Implementations typically shell out
// to the framework holding the model.
type ActivationSource interface {
	FeatureMaps(x *Array) (*Array, error)
}

// BatchCAM computes class activation maps for every sample in x: each
// sample's feature maps are collapsed with the class weights and then
// stretched back onto the input time axis. x is fed to src in batches of
// batchSize; the final batch may be short. The result has shape
// (samples, time).
func BatchCAM(src ActivationSource, x *Array, weights []float64, batchSize int) (*Array, error) {
	shape := x.Shape()
	if len(shape) < 2 {
		return nil, fmt.Errorf("rank %d input has no time axis", len(shape))
	}
	n, steps := shape[0], shape[1]
	if batchSize <= 0 {
		batchSize = n
	}

	out := Zeros(n, steps)
	for start := 0; start < n; start += batchSize {
		end := min(start+batchSize, n)
		maps, err := src.FeatureMaps(x.SliceRows(start, end))
		if err != nil {
			return nil, fmt.Errorf("feature maps for samples %d-%d: %w", start, end-1, err)
		}

		mShape := maps.Shape()
		if len(mShape) != 3 {
			return nil, fmt.Errorf("feature maps have shape %v, want (samples, steps, channels)", mShape)
		}
		if mShape[0] != end-start {
			return nil, fmt.Errorf("feature maps cover %d samples, want %d", mShape[0], end-start)
		}
		if mShape[2] != len(weights) {
			return nil, fmt.Errorf("%d channels against %d class weights", mShape[2], len(weights))
		}

		raw := make([]float64, mShape[1])
		for i := 0; i < mShape[0]; i++ {
			for j := 0; j < mShape[1]; j++ {
				var sum float64
				for c, w := range weights {
					sum += maps.At(i, j, c) * w
				}
				raw[j] = sum
			}
			for j, v := range Resample(raw, steps) {
				out.Set(v, start+i, j)
			}
		}
	}
	return out, nil
}

// Resample stretches values onto n evenly spaced points by linear
// interpolation. The endpoints are preserved.
func Resample(values []float64, n int) []float64 {
	m := len(values)
	out := make([]float64, n)
	if m == 0 || n == 0 {
		return out
	}
	if m == 1 || n == 1 {
		for i := range out {
			out[i] = values[0]
		}
		return out
	}
	scale := float64(m-1) / float64(n-1)
	for i := range out {
		pos := float64(i) * scale
		lo := int(pos)
		if lo >= m-1 {
			out[i] = values[m-1]
			continue
		}
		frac := pos - float64(lo)
		out[i] = values[lo]*(1-frac) + values[lo+1]*frac
	}
	return out
}
