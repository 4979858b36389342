// Copyright 2026 The PennyLane Go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package qmath provides the small dense float64 tensor used by the
// gradient reducer.
//
// Measurement results and gradient estimates are low-dimensional (scalars,
// probability vectors, stacked Jacobian rows), so the package keeps a flat
// row-major representation and only the operations the gradient pipeline
// needs: scaled accumulation, flattening, concatenation and comparison.
package qmath

import (
	"fmt"
	"math"
)

// Tensor is a dense row-major float64 tensor.
type Tensor struct {
	shape Shape
	data  []float64
}

// Zeros creates a tensor of the given shape filled with zeros.
func Zeros(shape Shape) *Tensor {
	return &Tensor{
		shape: shape.Clone(),
		data:  make([]float64, shape.NumElements()),
	}
}

// Scalar creates a zero-dimensional tensor holding a single value.
func Scalar(v float64) *Tensor {
	return &Tensor{shape: Shape{}, data: []float64{v}}
}

// FromSlice creates a tensor from a flat data slice and a shape.
// The data is copied.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(data), shape, shape.NumElements())
	}
	t := Zeros(shape)
	copy(t.data, data)
	return t, nil
}

// Vector creates a 1-D tensor from the given values.
func Vector(values ...float64) *Tensor {
	t := Zeros(Shape{len(values)})
	copy(t.data, values)
	return t
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return len(t.data)
}

// Data returns the underlying flat data slice.
// The slice is shared with the tensor; mutate with care.
func (t *Tensor) Data() []float64 {
	return t.data
}

// Value returns the single element of a one-element tensor.
func (t *Tensor) Value() (float64, error) {
	if len(t.data) != 1 {
		return 0, fmt.Errorf("tensor with shape %v is not a scalar", t.shape)
	}
	return t.data[0], nil
}

// At returns the element at the given multi-dimensional index.
func (t *Tensor) At(indices ...int) (float64, error) {
	off, err := t.offset(indices)
	if err != nil {
		return 0, err
	}
	return t.data[off], nil
}

// Set assigns the element at the given multi-dimensional index.
func (t *Tensor) Set(v float64, indices ...int) error {
	off, err := t.offset(indices)
	if err != nil {
		return err
	}
	t.data[off] = v
	return nil
}

func (t *Tensor) offset(indices []int) (int, error) {
	if len(indices) != len(t.shape) {
		return 0, fmt.Errorf("index rank %d does not match tensor rank %d", len(indices), len(t.shape))
	}
	strides := t.shape.ComputeStrides()
	off := 0
	for i, idx := range indices {
		if idx < 0 || idx >= t.shape[i] {
			return 0, fmt.Errorf("index %d out of range for dimension %d (size %d)", idx, i, t.shape[i])
		}
		off += idx * strides[i]
	}
	return off, nil
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	c := Zeros(t.shape)
	copy(c.data, t.data)
	return c
}

// Scale multiplies every element by a in place and returns the tensor.
func (t *Tensor) Scale(a float64) *Tensor {
	for i := range t.data {
		t.data[i] *= a
	}
	return t
}

// AddScaled accumulates a*u into t element-wise.
// The shapes must match exactly.
func (t *Tensor) AddScaled(u *Tensor, a float64) error {
	if !t.shape.Equal(u.shape) {
		return fmt.Errorf("shape mismatch: %v vs %v", t.shape, u.shape)
	}
	for i := range t.data {
		t.data[i] += a * u.data[i]
	}
	return nil
}

// Flatten returns a 1-D view-copy of the tensor's elements.
func (t *Tensor) Flatten() *Tensor {
	f := Zeros(Shape{len(t.data)})
	copy(f.data, t.data)
	return f
}

// Squeeze returns a copy with all size-1 dimensions removed.
// A tensor with a single element squeezes to a scalar.
func (t *Tensor) Squeeze() *Tensor {
	squeezed := make(Shape, 0, len(t.shape))
	for _, dim := range t.shape {
		if dim != 1 {
			squeezed = append(squeezed, dim)
		}
	}
	c := Zeros(squeezed)
	copy(c.data, t.data)
	return c
}

// Concat concatenates the flattened elements of the given tensors into a
// single 1-D tensor, in argument order.
func Concat(tensors ...*Tensor) *Tensor {
	total := 0
	for _, t := range tensors {
		total += len(t.data)
	}
	out := Zeros(Shape{total})
	off := 0
	for _, t := range tensors {
		copy(out.data[off:], t.data)
		off += len(t.data)
	}
	return out
}

// AllClose reports whether two tensors have equal shapes and element-wise
// differences within tol.
func AllClose(a, b *Tensor, tol float64) bool {
	if !a.shape.Equal(b.shape) {
		return false
	}
	for i := range a.data {
		if math.Abs(a.data[i]-b.data[i]) > tol {
			return false
		}
	}
	return true
}
