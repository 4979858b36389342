// Copyright 2026 The PennyLane Go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package gradients

import "math/rand"

// Sampler draws a perturbation direction: a vector of length numParams that
// is nonzero only at the selected indices.
//
// Substitute samplers must produce mean-zero, symmetric, unit-magnitude
// entries at the selected indices; the SPSA estimator is unbiased only under
// that contract. rng may be nil, in which case the process-wide source is
// used.
type Sampler func(rng *rand.Rand, indices []int, numParams int) []float64

// Rademacher is the default perturbation sampler. Each selected entry is
// drawn independently from {+1, -1} with equal probability.
func Rademacher(rng *rand.Rand, indices []int, numParams int) []float64 {
	direction := make([]float64, numParams)
	for _, i := range indices {
		if coin(rng) {
			direction[i] = 1
		} else {
			direction[i] = -1
		}
	}
	return direction
}

func coin(rng *rand.Rand) bool {
	if rng != nil {
		return rng.Intn(2) == 0
	}
	return rand.Intn(2) == 0
}

// invertDirection returns the element-wise inverse of a direction vector,
// mapping zero entries to zero. Parameters outside the sampled direction
// contribute no shift and must not enter the coefficient contraction.
func invertDirection(direction []float64) []float64 {
	inv := make([]float64, len(direction))
	for i, d := range direction {
		if d != 0 {
			inv[i] = 1 / d
		}
	}
	return inv
}
