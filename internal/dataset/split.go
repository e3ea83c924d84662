package dataset

import (
	"fmt"
	"math/rand"
)

// SplitOptions control how Split carves the sample axis.
type SplitOptions struct {
	// Shuffle permutes samples before splitting. The same seed always
	// produces the same permutation, so paired arrays stay aligned.
	Shuffle bool
	Seed    int64

	// BatchSize, when positive, trims each part down to a whole number of
	// batches. An exact multiple loses nothing.
	BatchSize int
}

// Split carves each array into a kept part and a held-out part along the
// sample axis. fraction is the held-out share; the kept part gets
// floor((1-fraction)*n) samples. All arrays are carved with the same
// indices, so rows stay paired across them.
func Split(arrays []*Array, fraction float64, opts SplitOptions) (kept, held []*Array, err error) {
	if len(arrays) == 0 {
		return nil, nil, fmt.Errorf("no arrays to split")
	}
	if fraction < 0 || fraction >= 1 {
		return nil, nil, fmt.Errorf("split fraction %v outside [0, 1)", fraction)
	}
	n := arrays[0].Samples()
	for i, a := range arrays[1:] {
		if a.Samples() != n {
			return nil, nil, fmt.Errorf("array %d has %d samples, want %d", i+1, a.Samples(), n)
		}
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if opts.Shuffle {
		rng := rand.New(rand.NewSource(opts.Seed))
		rng.Shuffle(n, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	keepN := int((1 - fraction) * float64(n))
	keepIdx, heldIdx := indices[:keepN], indices[keepN:]
	if opts.BatchSize > 0 {
		keepIdx = keepIdx[:len(keepIdx)-len(keepIdx)%opts.BatchSize]
		heldIdx = heldIdx[:len(heldIdx)-len(heldIdx)%opts.BatchSize]
	}

	kept = make([]*Array, len(arrays))
	held = make([]*Array, len(arrays))
	for i, a := range arrays {
		kept[i] = a.Select(keepIdx)
		held[i] = a.Select(heldIdx)
	}
	return kept, held, nil
}
