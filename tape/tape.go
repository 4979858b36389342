// Copyright 2026 The PennyLane Go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tape provides the public API for quantum tapes: ordered programs
// of quantum operations and measurements with a marked subset of trainable
// parameters.
//
// Example:
//
//	t := tape.New(
//	    []tape.Operation{
//	        {Name: "RX", Wires: []int{0}, Params: []float64{0.1}},
//	        {Name: "RY", Wires: []int{0}, Params: []float64{0.2}},
//	    },
//	    []tape.Measurement{
//	        {Kind: tape.Expectation, Observable: "PauliZ", Wires: []int{0}},
//	    },
//	    nil, // all parameters trainable
//	)
package tape

import (
	"github.com/eltociear/pennylane/internal/tape"
)

// Operation is a single quantum operation placed on a tape.
type Operation = tape.Operation

// Measurement is a single measurement specification on a tape.
type Measurement = tape.Measurement

// MeasurementKind enumerates the supported measurement types.
type MeasurementKind = tape.MeasurementKind

// Supported measurement kinds.
const (
	Expectation = tape.Expectation
	Variance    = tape.Variance
	Probability = tape.Probability
)

// Grad-method tags attached to operation parameters.
const (
	GradNumeric = tape.GradNumeric
	GradZero    = tape.GradZero
)

// Tape is an ordered sequence of operations and measurements with a marked
// subset of trainable parameters.
type Tape = tape.Tape

// New creates a tape. When trainable is nil, every parameter is marked
// trainable.
func New(ops []Operation, measurements []Measurement, trainable []int) *Tape {
	return tape.New(ops, measurements, trainable)
}

// MeasurementValues holds one result tensor per tape measurement.
type MeasurementValues = tape.MeasurementValues

// RawResult is the executor output for a single tape: one entry per
// shot-vector component, exactly one entry under a plain shot setting.
type RawResult = tape.RawResult

// Shots describes a device shot configuration.
type Shots = tape.Shots

// MultiShifted produces one derived tape per shift row; see the internal
// package for the shift-matrix convention.
func MultiShifted(t *Tape, indices []int, shifts [][]float64) ([]*Tape, error) {
	return tape.MultiShifted(t, indices, shifts)
}
