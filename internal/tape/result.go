// Copyright 2026 The PennyLane Go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tape

import (
	"fmt"

	"github.com/eltociear/pennylane/internal/qmath"
)

// MeasurementValues holds the raw outcome of one tape execution for one
// shot setting: one tensor per tape measurement, in measurement order.
type MeasurementValues []*qmath.Tensor

// RawResult is the executor output for a single tape.
//
// Under a plain shot setting it holds exactly one entry. Under a shot-vector
// device configuration it holds one entry per shot-vector component, in
// component order.
type RawResult []MeasurementValues

// Shots describes the device shot configuration used to execute a tape
// batch. The zero value means analytic (infinite-shot) execution.
type Shots struct {
	// Total is the shot count for a plain (non-vector) setting.
	// Zero means analytic execution.
	Total int

	// Vector, when non-nil, declares a shot vector: one independent result
	// batch per entry, each entry being that component's shot count.
	Vector []int
}

// IsVector reports whether a shot vector is configured.
func (s Shots) IsVector() bool {
	return s.Vector != nil
}

// NumCopies returns the number of independent result batches per tape:
// the shot-vector length, or 1 for a plain setting.
func (s Shots) NumCopies() int {
	if s.Vector != nil {
		return len(s.Vector)
	}
	return 1
}

// Validate checks the configuration for consistency.
func (s Shots) Validate() error {
	if s.Total < 0 {
		return fmt.Errorf("negative shot count %d", s.Total)
	}
	if s.Vector != nil {
		if len(s.Vector) == 0 {
			return fmt.Errorf("shot vector must not be empty")
		}
		for i, n := range s.Vector {
			if n < 0 {
				return fmt.Errorf("negative shot count %d in shot-vector component %d", n, i)
			}
		}
	}
	return nil
}
