// Copyright 2026 The PennyLane Go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package gradients

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/eltociear/pennylane/internal/tape"
)

// ErrConfig wraps transform configuration errors.
var ErrConfig = errors.New("invalid gradient configuration")

// config carries the resolved options for one transform invocation.
type config struct {
	argnum      []int
	h           float64   // scalar step size
	hs          []float64 // per-parameter step sizes; overrides h when set
	approxOrder int
	derivOrder  int
	strategy    Strategy
	baseline    tape.MeasurementValues
	validate    bool
	shots       tape.Shots
	numSamples  int
	sampler     Sampler
	rng         *rand.Rand
	coeffs      CoeffFunc
	diffMethods []string // explicit classification cache; nil means classify
}

// Option configures a gradient transform call.
type Option func(*config)

func defaults(legacy bool) config {
	c := config{
		h:           1e-7,
		approxOrder: 1,
		derivOrder:  1,
		strategy:    Forward,
		validate:    true,
		numSamples:  1,
		sampler:     Rademacher,
		coeffs:      Coeffs,
	}
	if legacy {
		c.h = 1e-4
		c.approxOrder = 2
		c.strategy = Center
	}
	return c
}

// WithArgnum restricts differentiation to the given positions within the
// tape's trainable-parameter ordering.
func WithArgnum(argnum []int) Option {
	return func(c *config) { c.argnum = argnum }
}

// WithStepSize sets the scalar finite-difference step size.
func WithStepSize(h float64) Option {
	return func(c *config) { c.h = h; c.hs = nil }
}

// WithStepSizes sets one step size per trainable parameter.
func WithStepSizes(hs []float64) Option {
	return func(c *config) { c.hs = hs }
}

// WithApproxOrder sets the approximation order of the underlying
// finite-difference method.
func WithApproxOrder(order int) Option {
	return func(c *config) { c.approxOrder = order }
}

// WithDerivativeOrder sets the derivative order to compute.
func WithDerivativeOrder(n int) Option {
	return func(c *config) { c.derivOrder = n }
}

// WithStrategy selects the finite-difference strategy.
func WithStrategy(s Strategy) Option {
	return func(c *config) { c.strategy = s }
}

// WithBaseline supplies the unshifted tape's execution result. When the
// stencil contains a zero-shift term, the supplied value is used instead of
// executing an extra tape.
func WithBaseline(f0 tape.MeasurementValues) Option {
	return func(c *config) { c.baseline = f0 }
}

// WithValidate toggles trainability validation. When disabled, every
// trainable parameter is treated as numerically differentiable.
func WithValidate(validate bool) Option {
	return func(c *config) { c.validate = validate }
}

// WithShots declares the device shot configuration the gradient tapes will
// be executed under. It does not influence execution itself; it tells the
// post-processing step whether to expect shot-vector result batches.
func WithShots(s tape.Shots) Option {
	return func(c *config) { c.shots = s }
}

// WithNumSamples sets the number of independently sampled perturbation
// directions to average over.
func WithNumSamples(n int) Option {
	return func(c *config) { c.numSamples = n }
}

// WithSampler replaces the default Rademacher perturbation sampler.
func WithSampler(s Sampler) Option {
	return func(c *config) { c.sampler = s }
}

// WithRand supplies a dedicated random source for the sampler. When unset,
// the sampler draws from the process-wide source.
func WithRand(rng *rand.Rand) Option {
	return func(c *config) { c.rng = rng }
}

// WithCoeffs replaces the default finite-difference coefficient provider.
func WithCoeffs(f CoeffFunc) Option {
	return func(c *config) { c.coeffs = f }
}

// WithDiffMethods supplies precomputed per-parameter grad-method tags,
// skipping classification. The slice must have one tag per trainable
// parameter.
func WithDiffMethods(methods []string) Option {
	return func(c *config) { c.diffMethods = methods }
}

// validateConfig checks option consistency against the tape.
func (c *config) validateConfig(t *tape.Tape) error {
	numTrainable := len(t.TrainableParams)
	if c.numSamples < 1 {
		return fmt.Errorf("%w: num samples must be at least 1, got %d", ErrConfig, c.numSamples)
	}
	if c.hs != nil {
		if len(c.hs) != numTrainable {
			return fmt.Errorf("%w: got %d step sizes for %d trainable parameters", ErrConfig, len(c.hs), numTrainable)
		}
		for i, h := range c.hs {
			if h <= 0 {
				return fmt.Errorf("%w: step size %g at position %d must be positive", ErrConfig, h, i)
			}
		}
	} else if c.h <= 0 {
		return fmt.Errorf("%w: step size %g must be positive", ErrConfig, c.h)
	}
	if c.diffMethods != nil && len(c.diffMethods) != numTrainable {
		return fmt.Errorf("%w: got %d diff methods for %d trainable parameters", ErrConfig, len(c.diffMethods), numTrainable)
	}
	if err := c.shots.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if c.baseline != nil && len(c.baseline) != len(t.Measurements) {
		return fmt.Errorf("%w: baseline has %d measurement values, tape has %d measurements", ErrConfig, len(c.baseline), len(t.Measurements))
	}
	return nil
}

// stepSize returns the step size for trainable parameter j.
func (c *config) stepSize(j int) float64 {
	if c.hs != nil {
		return c.hs[j]
	}
	return c.h
}
