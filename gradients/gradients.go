// Copyright 2026 The PennyLane Go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package gradients provides the public API for quantum gradient
// transforms.
//
// The SPSA transform turns a tape into a batch of perturbed gradient tapes
// and a processing function that reduces the batch's ordered raw execution
// results into gradient estimates:
//
//	tapes, fn, err := gradients.SPSA(t,
//	    gradients.WithNumSamples(10),
//	    gradients.WithStepSize(1e-3),
//	    gradients.WithStrategy(gradients.Center),
//	)
//	// ... execute tapes on any device or simulator, in order ...
//	grad, err := fn(results)
package gradients

import (
	"github.com/eltociear/pennylane/internal/gradients"
	"github.com/eltociear/pennylane/internal/tape"
)

// Strategy selects the finite-difference shift placement.
type Strategy = gradients.Strategy

// Supported finite-difference strategies.
const (
	Forward  = gradients.Forward
	Center   = gradients.Center
	Backward = gradients.Backward
)

// Sampler draws a perturbation direction; see Rademacher for the default.
type Sampler = gradients.Sampler

// Rademacher is the default perturbation sampler: independent +-1 entries
// with equal probability at the selected indices.
var Rademacher Sampler = gradients.Rademacher

// CoeffFunc produces a finite-difference stencil.
type CoeffFunc = gradients.CoeffFunc

// Coeffs is the default finite-difference coefficient provider.
func Coeffs(n, approxOrder int, strategy Strategy) (coeffs, shifts []float64, err error) {
	return gradients.Coeffs(n, approxOrder, strategy)
}

// Option configures a gradient transform call.
type Option = gradients.Option

// Transform options.
var (
	WithArgnum          = gradients.WithArgnum
	WithStepSize        = gradients.WithStepSize
	WithStepSizes       = gradients.WithStepSizes
	WithApproxOrder     = gradients.WithApproxOrder
	WithDerivativeOrder = gradients.WithDerivativeOrder
	WithStrategy        = gradients.WithStrategy
	WithBaseline        = gradients.WithBaseline
	WithValidate        = gradients.WithValidate
	WithShots           = gradients.WithShots
	WithNumSamples      = gradients.WithNumSamples
	WithSampler         = gradients.WithSampler
	WithRand            = gradients.WithRand
	WithCoeffs          = gradients.WithCoeffs
	WithDiffMethods     = gradients.WithDiffMethods
)

// Jacobian holds per-measurement, per-parameter gradient estimates.
type Jacobian = gradients.Jacobian

// Result is the structured gradient of one tape.
type Result = gradients.Result

// ProcessFn reduces ordered raw results into a structured gradient result.
type ProcessFn = gradients.ProcessFn

// LegacyProcessFn reduces ordered raw results into the legacy fixed-array
// convention.
type LegacyProcessFn = gradients.LegacyProcessFn

// Executor runs a batch of tapes, returning one raw result per tape in
// submission order.
type Executor = gradients.Executor

// SPSA builds the SPSA gradient-tape batch for a tape under the structured
// result convention.
func SPSA(t *tape.Tape, opts ...Option) ([]*tape.Tape, ProcessFn, error) {
	return gradients.SPSA(t, opts...)
}

// SPSALegacy builds the SPSA gradient-tape batch under the legacy
// fixed-array result convention.
func SPSALegacy(t *tape.Tape, opts ...Option) ([]*tape.Tape, LegacyProcessFn, error) {
	return gradients.SPSALegacy(t, opts...)
}
