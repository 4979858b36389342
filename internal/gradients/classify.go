// Copyright 2026 The PennyLane Go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package gradients

import (
	"fmt"

	"github.com/eltociear/pennylane/internal/tape"
)

// DiffMethods classifies every trainable parameter of the tape with a
// grad-method tag. Tags are read from the owning operation; parameters
// without a tag are assumed to support numeric differentiation, which
// subsumes SPSA.
func DiffMethods(t *tape.Tape) ([]string, error) {
	methods := make([]string, len(t.TrainableParams))
	for i, flat := range t.TrainableParams {
		tag, err := t.GradMethod(flat)
		if err != nil {
			return nil, err
		}
		if tag == "" {
			tag = tape.GradNumeric
		}
		methods[i] = tag
	}
	return methods, nil
}

// ChooseMethods restricts per-parameter method tags to an explicit index
// filter. With a nil filter, every trainable parameter is selected. The
// returned map is keyed by position within the tape's trainable-parameter
// ordering.
func ChooseMethods(methods []string, argnum []int) (map[int]string, error) {
	chosen := make(map[int]string, len(methods))
	if argnum == nil {
		for i, m := range methods {
			chosen[i] = m
		}
		return chosen, nil
	}
	for _, i := range argnum {
		if i < 0 || i >= len(methods) {
			return nil, fmt.Errorf("argnum %d out of range (tape has %d trainable parameters)", i, len(methods))
		}
		chosen[i] = methods[i]
	}
	return chosen, nil
}

// allZero reports whether every tag marks its parameter as
// parameter-independent.
func allZero(methods []string) bool {
	for _, m := range methods {
		if m != tape.GradZero {
			return false
		}
	}
	return len(methods) > 0
}
