// Copyright 2026 The PennyLane Go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tape defines the quantum tape: an ordered program of quantum
// operations and measurement specifications with a marked subset of
// trainable numeric parameters.
//
// A tape is a value that gradient transforms read but never mutate; derived
// tapes share the operation and measurement structure of the original and
// carry shifted parameter values.
package tape

import "fmt"

// Grad-method tags attached to operation parameters.
//
// "F" marks a parameter as differentiable by numeric (finite-difference)
// methods, "0" marks a parameter the output does not depend on. An empty tag
// means the method has not been determined.
const (
	GradNumeric = "F"
	GradZero    = "0"
)

// Operation is a single quantum operation placed on a tape.
type Operation struct {
	Name   string
	Wires  []int
	Params []float64

	// GradMethods holds one grad-method tag per entry of Params.
	// A nil slice means no tags have been assigned.
	GradMethods []string
}

// Clone returns a deep copy of the operation.
func (o Operation) Clone() Operation {
	c := Operation{Name: o.Name}
	c.Wires = append([]int(nil), o.Wires...)
	c.Params = append([]float64(nil), o.Params...)
	if o.GradMethods != nil {
		c.GradMethods = append([]string(nil), o.GradMethods...)
	}
	return c
}

// MeasurementKind enumerates the supported measurement types.
type MeasurementKind int

// Supported measurement kinds.
const (
	Expectation MeasurementKind = iota
	Variance
	Probability
)

// String returns a human-readable measurement kind name.
func (k MeasurementKind) String() string {
	switch k {
	case Expectation:
		return "expval"
	case Variance:
		return "var"
	case Probability:
		return "probs"
	default:
		return "unknown"
	}
}

// Measurement is a single measurement specification on a tape.
type Measurement struct {
	Kind       MeasurementKind
	Observable string // Pauli observable name; unused for Probability.
	Wires      []int
}

// Dim returns the number of values the measurement produces per execution:
// 1 for expectation and variance, 2^len(wires) for probabilities.
func (m Measurement) Dim() int {
	if m.Kind == Probability {
		return 1 << len(m.Wires)
	}
	return 1
}

// Clone returns a deep copy of the measurement.
func (m Measurement) Clone() Measurement {
	c := m
	c.Wires = append([]int(nil), m.Wires...)
	return c
}

// Tape is an ordered sequence of operations and measurements.
//
// TrainableParams holds flat parameter indices (positions in the
// concatenation of all operation parameter lists, in operation order) that
// are marked trainable. The slice is kept in ascending order; its order
// defines the trainable-parameter ordering used by gradient transforms.
type Tape struct {
	Operations      []Operation
	Measurements    []Measurement
	TrainableParams []int
}

// New creates a tape. When trainable is nil, every parameter is marked
// trainable.
func New(ops []Operation, measurements []Measurement, trainable []int) *Tape {
	t := &Tape{Operations: ops, Measurements: measurements}
	if trainable == nil {
		n := t.NumParams()
		trainable = make([]int, n)
		for i := range trainable {
			trainable[i] = i
		}
	}
	t.TrainableParams = trainable
	return t
}

// NumParams returns the total number of parameters across all operations.
func (t *Tape) NumParams() int {
	n := 0
	for _, op := range t.Operations {
		n += len(op.Params)
	}
	return n
}

// Parameters returns a flat copy of all operation parameters, in operation
// order.
func (t *Tape) Parameters() []float64 {
	params := make([]float64, 0, t.NumParams())
	for _, op := range t.Operations {
		params = append(params, op.Params...)
	}
	return params
}

// ParamInfo locates a flat parameter index, returning the operation index
// and the parameter's position within that operation.
func (t *Tape) ParamInfo(flat int) (opIdx, paramIdx int, err error) {
	if flat < 0 {
		return 0, 0, fmt.Errorf("parameter index %d out of range", flat)
	}
	rest := flat
	for i, op := range t.Operations {
		if rest < len(op.Params) {
			return i, rest, nil
		}
		rest -= len(op.Params)
	}
	return 0, 0, fmt.Errorf("parameter index %d out of range (tape has %d parameters)", flat, t.NumParams())
}

// GradMethod returns the grad-method tag for a flat parameter index, or the
// empty string when no tag has been assigned.
func (t *Tape) GradMethod(flat int) (string, error) {
	opIdx, paramIdx, err := t.ParamInfo(flat)
	if err != nil {
		return "", err
	}
	op := t.Operations[opIdx]
	if op.GradMethods == nil || paramIdx >= len(op.GradMethods) {
		return "", nil
	}
	return op.GradMethods[paramIdx], nil
}

// WithParameters returns a structurally identical copy of the tape carrying
// the given flat parameter values. The receiver is not modified.
func (t *Tape) WithParameters(params []float64) (*Tape, error) {
	if len(params) != t.NumParams() {
		return nil, fmt.Errorf("got %d parameters, tape has %d", len(params), t.NumParams())
	}
	c := t.Copy()
	off := 0
	for i := range c.Operations {
		n := len(c.Operations[i].Params)
		copy(c.Operations[i].Params, params[off:off+n])
		off += n
	}
	return c, nil
}

// Copy returns a deep copy of the tape.
func (t *Tape) Copy() *Tape {
	c := &Tape{
		Operations:      make([]Operation, len(t.Operations)),
		Measurements:    make([]Measurement, len(t.Measurements)),
		TrainableParams: append([]int(nil), t.TrainableParams...),
	}
	for i, op := range t.Operations {
		c.Operations[i] = op.Clone()
	}
	for i, m := range t.Measurements {
		c.Measurements[i] = m.Clone()
	}
	return c
}

// OutputDim returns the total number of output values across all
// measurements.
func (t *Tape) OutputDim() int {
	dim := 0
	for _, m := range t.Measurements {
		dim += m.Dim()
	}
	return dim
}

// NumWires returns one past the highest wire index referenced by the tape's
// operations and measurements.
func (t *Tape) NumWires() int {
	maxWire := -1
	for _, op := range t.Operations {
		for _, w := range op.Wires {
			maxWire = max(maxWire, w)
		}
	}
	for _, m := range t.Measurements {
		for _, w := range m.Wires {
			maxWire = max(maxWire, w)
		}
	}
	return maxWire + 1
}
