// Copyright 2026 The PennyLane Go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tape

import "fmt"

// MultiShifted produces one derived tape per shift row.
//
// indices selects positions within t.TrainableParams that are eligible for
// shifting; each shift row spans the full trainable-parameter space (row
// entry j belongs to trainable parameter j) and is applied only at the
// eligible positions. The input tape is never mutated, and each derived
// tape preserves the original operation and measurement structure exactly.
func MultiShifted(t *Tape, indices []int, shifts [][]float64) ([]*Tape, error) {
	numTrainable := len(t.TrainableParams)
	for _, j := range indices {
		if j < 0 || j >= numTrainable {
			return nil, fmt.Errorf("trainable index %d out of range (tape has %d trainable parameters)", j, numTrainable)
		}
	}

	tapes := make([]*Tape, 0, len(shifts))
	for _, row := range shifts {
		if len(row) != numTrainable {
			return nil, fmt.Errorf("shift row has %d entries, want %d", len(row), numTrainable)
		}
		params := t.Parameters()
		for _, j := range indices {
			params[t.TrainableParams[j]] += row[j]
		}
		shifted, err := t.WithParameters(params)
		if err != nil {
			return nil, err
		}
		tapes = append(tapes, shifted)
	}
	return tapes, nil
}
