// Copyright 2026 The PennyLane Go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package gradients

import (
	"fmt"

	"github.com/eltociear/pennylane/internal/qmath"
)

// Jacobian holds the gradient estimates for one result batch.
//
// Entries[m][p] is the derivative of measurement m with respect to the
// tape's trainable parameter p. Scalar measurements yield scalar tensors;
// probability measurements yield one tensor per parameter with the
// measurement's own dimension.
type Jacobian struct {
	Entries [][]*qmath.Tensor
}

// NumMeasurements returns the number of measurements covered.
func (j Jacobian) NumMeasurements() int {
	return len(j.Entries)
}

// ForMeasurement returns the per-parameter gradients of measurement m.
func (j Jacobian) ForMeasurement(m int) []*qmath.Tensor {
	return j.Entries[m]
}

// Gradients collapses a single-measurement Jacobian to its per-parameter
// gradient sequence.
func (j Jacobian) Gradients() ([]*qmath.Tensor, error) {
	if len(j.Entries) != 1 {
		return nil, fmt.Errorf("jacobian covers %d measurements, want 1", len(j.Entries))
	}
	return j.Entries[0], nil
}

// Grad collapses a single-measurement, single-parameter Jacobian to its
// lone gradient value.
func (j Jacobian) Grad() (*qmath.Tensor, error) {
	grads, err := j.Gradients()
	if err != nil {
		return nil, err
	}
	if len(grads) != 1 {
		return nil, fmt.Errorf("jacobian covers %d trainable parameters, want 1", len(grads))
	}
	return grads[0], nil
}

// Result is the structured gradient of one tape.
//
// Under a plain shot setting it holds exactly one Jacobian; under a
// shot-vector configuration it holds one Jacobian per component, each
// computed independently from that component's slice of raw results.
type Result struct {
	components []Jacobian
	shotVector bool
}

// IsShotVector reports whether the result is a shot-vector batch.
func (r *Result) IsShotVector() bool {
	return r.shotVector
}

// NumComponents returns the number of shot-vector components (1 for a
// plain setting).
func (r *Result) NumComponents() int {
	return len(r.components)
}

// Component returns the Jacobian for shot-vector component i.
func (r *Result) Component(i int) Jacobian {
	return r.components[i]
}

// Single returns the lone Jacobian of a non-shot-vector result.
func (r *Result) Single() (Jacobian, error) {
	if r.shotVector {
		return Jacobian{}, fmt.Errorf("result is a shot-vector batch with %d components", len(r.components))
	}
	return r.components[0], nil
}
