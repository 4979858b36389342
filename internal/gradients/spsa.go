// Copyright 2026 The PennyLane Go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package gradients implements the SPSA (simultaneous perturbation
// stochastic approximation) gradient transform.
//
// Given a parameterized tape, the transform builds a batch of perturbed
// tapes whose execution results a returned processing function reduces into
// gradient estimates. All trainable parameters are shifted simultaneously
// along randomly sampled directions, and a finite-difference stencil along
// each direction yields one high-variance, unbiased estimate of the
// directional gradient; averaging over independently sampled directions
// reduces the variance without biasing the result.
//
// The transform works against any black-box executor: it needs only the
// ordered raw results of the generated tapes, never analytic access to a
// simulator's internal state.
package gradients

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/eltociear/pennylane/internal/qmath"
	"github.com/eltociear/pennylane/internal/tape"
)

// ProcessFn reduces the ordered raw results of a gradient-tape batch into a
// structured gradient result.
type ProcessFn func(results []tape.RawResult) (*Result, error)

// LegacyProcessFn reduces the ordered raw results of a gradient-tape batch
// into the legacy fixed-array convention: a single tensor of shape
// [outputDim][numTrainableParams].
type LegacyProcessFn func(results []tape.RawResult) (*qmath.Tensor, error)

// plan carries everything the reducer needs to fold raw results back into
// gradients: the stencil-aligned coefficient tensors per repetition and the
// batch layout.
type plan struct {
	t            *tape.Tape
	cfg          config
	numTrainable int

	extractR0    bool          // baseline embedded at batch position 0
	hasZeroShift bool          // stencil contained a zero-shift term
	tapesPerGrad int           // shifted tapes per repetition
	allCoeffs    [][][]float64 // [repetition][stencil index][trainable param]

	noTrainable bool // short-circuit: nothing to differentiate
	zeroGrad    bool // short-circuit: every parameter classified "0"
}

// SPSA builds the SPSA gradient-tape batch for a tape and returns it with a
// processing function implementing the structured result convention.
//
// The returned tapes must be executed in order and their raw results passed
// to the processing function in the same order.
func SPSA(t *tape.Tape, opts ...Option) ([]*tape.Tape, ProcessFn, error) {
	cfg := defaults(false)
	for _, opt := range opts {
		opt(&cfg)
	}
	tapes, p, err := build(t, cfg)
	if err != nil {
		return nil, nil, err
	}

	fn := func(results []tape.RawResult) (*Result, error) {
		switch {
		case p.noTrainable:
			return p.emptyResult(), nil
		case p.zeroGrad:
			return p.zeroResult(), nil
		}
		if !p.cfg.shots.IsVector() {
			component, err := componentSlice(results, 0)
			if err != nil {
				return nil, err
			}
			jac, err := p.reduce(component)
			if err != nil {
				return nil, err
			}
			return &Result{components: []Jacobian{jac}}, nil
		}
		numCopies := p.cfg.shots.NumCopies()
		components := make([]Jacobian, numCopies)
		for idx := 0; idx < numCopies; idx++ {
			component, err := componentSlice(results, idx)
			if err != nil {
				return nil, fmt.Errorf("shot-vector component %d: %w", idx, err)
			}
			jac, err := p.reduce(component)
			if err != nil {
				return nil, fmt.Errorf("shot-vector component %d: %w", idx, err)
			}
			components[idx] = jac
		}
		return &Result{components: components, shotVector: true}, nil
	}
	return tapes, fn, nil
}

// SPSALegacy builds the SPSA gradient-tape batch with the legacy
// fixed-array result convention: the processing function returns one tensor
// of shape [outputDim][numTrainableParams], rows being the concatenated
// flattened per-measurement gradients. Shot-vector configurations are not
// part of the legacy convention; only the first result component is used.
func SPSALegacy(t *tape.Tape, opts ...Option) ([]*tape.Tape, LegacyProcessFn, error) {
	cfg := defaults(true)
	for _, opt := range opts {
		opt(&cfg)
	}
	tapes, p, err := build(t, cfg)
	if err != nil {
		return nil, nil, err
	}

	fn := func(results []tape.RawResult) (*qmath.Tensor, error) {
		switch {
		case p.noTrainable:
			slog.Warn("attempted to compute the gradient of a tape with no trainable parameters; " +
				"mark trainable parameters via the tape's TrainableParams")
			return qmath.Zeros(qmath.Shape{t.OutputDim(), 0}), nil
		case p.zeroGrad:
			return qmath.Zeros(qmath.Shape{t.OutputDim(), p.numTrainable}), nil
		}
		component, err := componentSlice(results, 0)
		if err != nil {
			return nil, err
		}
		jac, err := p.reduce(component)
		if err != nil {
			return nil, err
		}
		return p.flatten(jac)
	}
	return tapes, fn, nil
}

// build assembles the gradient-tape batch and the reduction plan shared by
// both entry points.
func build(t *tape.Tape, cfg config) ([]*tape.Tape, *plan, error) {
	if err := cfg.validateConfig(t); err != nil {
		return nil, nil, err
	}
	p := &plan{t: t, cfg: cfg, numTrainable: len(t.TrainableParams)}

	// Nothing requested and nothing marked trainable: no tapes, zero-shaped
	// output. The sampler and classifier are never invoked on this path.
	if cfg.argnum == nil && p.numTrainable == 0 {
		p.noTrainable = true
		return nil, p, nil
	}

	methods := cfg.diffMethods
	if methods == nil {
		if cfg.validate {
			var err error
			methods, err = DiffMethods(t)
			if err != nil {
				return nil, nil, err
			}
		} else {
			methods = make([]string, p.numTrainable)
			for i := range methods {
				methods[i] = tape.GradNumeric
			}
		}
	}
	if allZero(methods) {
		p.zeroGrad = true
		return nil, p, nil
	}

	coeffs, shifts, err := cfg.coeffs(cfg.derivOrder, cfg.approxOrder, cfg.strategy)
	if err != nil {
		return nil, nil, err
	}
	if len(coeffs) != len(shifts) || len(shifts) == 0 {
		return nil, nil, fmt.Errorf("%w: malformed stencil (%d coefficients, %d shifts)", ErrConfig, len(coeffs), len(shifts))
	}

	var gradientTapes []*tape.Tape
	if len(shifts) > 0 && shifts[0] == 0 {
		// The stencil contains an unshifted term. Reuse a supplied baseline,
		// or schedule the unshifted tape at batch position 0.
		p.hasZeroShift = true
		if cfg.baseline == nil {
			gradientTapes = append(gradientTapes, t.Copy())
			p.extractR0 = true
		}
		shifts = shifts[1:]
	}

	methodMap, err := ChooseMethods(methods, cfg.argnum)
	if err != nil {
		return nil, nil, err
	}
	indices := make([]int, 0, p.numTrainable)
	for i := 0; i < p.numTrainable; i++ {
		if m, ok := methodMap[i]; ok && m != tape.GradZero {
			indices = append(indices, i)
		}
	}

	p.tapesPerGrad = len(shifts)
	p.allCoeffs = make([][][]float64, cfg.numSamples)
	for rep := 0; rep < cfg.numSamples; rep++ {
		direction := cfg.sampler(cfg.rng, indices, p.numTrainable)
		invDirection := invertDirection(direction)

		// Coefficient tensor: outer product of the step-normalized stencil
		// coefficients and the inverse direction.
		repCoeffs := make([][]float64, len(coeffs))
		for s, c := range coeffs {
			row := make([]float64, p.numTrainable)
			for j := 0; j < p.numTrainable; j++ {
				hn := math.Pow(cfg.stepSize(j), float64(cfg.derivOrder))
				row[j] = c / hn * invDirection[j]
			}
			repCoeffs[s] = row
		}
		p.allCoeffs[rep] = repCoeffs

		// Shift matrix: outer product of the step-scaled stencil shifts and
		// the sampled direction. Zero-shift rows never reach this point.
		rows := make([][]float64, len(shifts))
		for s, shift := range shifts {
			row := make([]float64, p.numTrainable)
			for j := 0; j < p.numTrainable; j++ {
				row[j] = shift * cfg.stepSize(j) * direction[j]
			}
			rows[s] = row
		}
		shifted, err := tape.MultiShifted(t, indices, rows)
		if err != nil {
			return nil, nil, err
		}
		gradientTapes = append(gradientTapes, shifted...)
	}

	return gradientTapes, p, nil
}

// componentSlice projects one shot-vector component out of the per-tape raw
// results. Plain shot settings use component 0.
func componentSlice(results []tape.RawResult, idx int) ([]tape.MeasurementValues, error) {
	out := make([]tape.MeasurementValues, len(results))
	for i, rr := range results {
		if idx >= len(rr) {
			return nil, fmt.Errorf("raw result %d has %d shot components, want at least %d", i, len(rr), idx+1)
		}
		out[i] = rr[idx]
	}
	return out, nil
}

// reduce folds one component's ordered raw results into a Jacobian.
func (p *plan) reduce(results []tape.MeasurementValues) (Jacobian, error) {
	numMeas := len(p.t.Measurements)
	expected := p.cfg.numSamples * p.tapesPerGrad
	if p.extractR0 {
		expected++
	}
	if len(results) != expected {
		return Jacobian{}, fmt.Errorf("got %d raw results, want %d", len(results), expected)
	}

	var r0 tape.MeasurementValues
	if p.hasZeroShift {
		r0 = p.cfg.baseline
	}
	if p.extractR0 {
		r0, results = results[0], results[1:]
	}

	entries := make([][]*qmath.Tensor, numMeas)
	for m := 0; m < numMeas; m++ {
		grads := make([]*qmath.Tensor, p.numTrainable)
		for j := range grads {
			grads[j] = qmath.Zeros(p.measurementShape(m, r0, results))
		}

		for rep := 0; rep < p.cfg.numSamples; rep++ {
			block, err := p.repetitionBlock(results, rep, m, r0)
			if err != nil {
				return Jacobian{}, err
			}
			coeffs := p.allCoeffs[rep]
			if len(block) != len(coeffs) {
				return Jacobian{}, fmt.Errorf("measurement %d, repetition %d: %d stacked results for %d stencil coefficients",
					m, rep, len(block), len(coeffs))
			}
			for s, val := range block {
				for j := 0; j < p.numTrainable; j++ {
					if coeffs[s][j] == 0 {
						continue
					}
					if err := grads[j].AddScaled(val, coeffs[s][j]); err != nil {
						return Jacobian{}, fmt.Errorf("measurement %d, repetition %d: %w", m, rep, err)
					}
				}
			}
		}

		// Monte-Carlo average over the sampled perturbation directions.
		for j := range grads {
			grads[j].Scale(1 / float64(p.cfg.numSamples))
		}
		entries[m] = grads
	}
	return Jacobian{Entries: entries}, nil
}

// repetitionBlock assembles the stencil-ordered result sequence for one
// repetition and one measurement, prepending the baseline when in play.
func (p *plan) repetitionBlock(results []tape.MeasurementValues, rep, m int, r0 tape.MeasurementValues) ([]*qmath.Tensor, error) {
	start := rep * p.tapesPerGrad
	block := make([]*qmath.Tensor, 0, p.tapesPerGrad+1)
	if r0 != nil {
		if m >= len(r0) {
			return nil, fmt.Errorf("baseline result has %d measurement values, want at least %d", len(r0), m+1)
		}
		block = append(block, r0[m])
	}
	for s := 0; s < p.tapesPerGrad; s++ {
		mv := results[start+s]
		if m >= len(mv) {
			return nil, fmt.Errorf("raw result %d has %d measurement values, want at least %d", start+s, len(mv), m+1)
		}
		block = append(block, mv[m])
	}
	return block, nil
}

// measurementShape determines the per-parameter gradient shape for
// measurement m from the available raw results, falling back to the tape's
// declared measurement dimension.
func (p *plan) measurementShape(m int, r0 tape.MeasurementValues, results []tape.MeasurementValues) qmath.Shape {
	if r0 != nil && m < len(r0) && r0[m] != nil {
		return r0[m].Shape()
	}
	if len(results) > 0 && m < len(results[0]) && results[0][m] != nil {
		return results[0][m].Shape()
	}
	if dim := p.t.Measurements[m].Dim(); dim > 1 {
		return qmath.Shape{dim}
	}
	return qmath.Shape{}
}

// emptyResult shapes the no-trainable-parameters short circuit: one empty
// per-parameter sequence per measurement.
func (p *plan) emptyResult() *Result {
	entries := make([][]*qmath.Tensor, len(p.t.Measurements))
	for m := range entries {
		entries[m] = []*qmath.Tensor{}
	}
	return p.wrap(Jacobian{Entries: entries})
}

// zeroResult shapes the all-parameters-non-differentiable short circuit:
// zero gradients for every measurement and trainable parameter.
func (p *plan) zeroResult() *Result {
	entries := make([][]*qmath.Tensor, len(p.t.Measurements))
	for m := range entries {
		grads := make([]*qmath.Tensor, p.numTrainable)
		for j := range grads {
			if dim := p.t.Measurements[m].Dim(); dim > 1 {
				grads[j] = qmath.Zeros(qmath.Shape{dim})
			} else {
				grads[j] = qmath.Scalar(0)
			}
		}
		entries[m] = grads
	}
	return p.wrap(Jacobian{Entries: entries})
}

func (p *plan) wrap(jac Jacobian) *Result {
	if !p.cfg.shots.IsVector() {
		return &Result{components: []Jacobian{jac}}
	}
	components := make([]Jacobian, p.cfg.shots.NumCopies())
	for i := range components {
		components[i] = jac
	}
	return &Result{components: components, shotVector: true}
}

// flatten renders a Jacobian in the legacy fixed-array convention: each
// measurement's gradients are flattened to rows and stacked into one
// [outputDim][numTrainable] tensor.
func (p *plan) flatten(jac Jacobian) (*qmath.Tensor, error) {
	out := qmath.Zeros(qmath.Shape{p.t.OutputDim(), p.numTrainable})
	rowOff := 0
	for m, grads := range jac.Entries {
		dim := p.t.Measurements[m].Dim()
		for j, g := range grads {
			flat := g.Flatten()
			if flat.NumElements() != dim {
				return nil, fmt.Errorf("measurement %d gradient has %d elements, want %d", m, flat.NumElements(), dim)
			}
			for d, v := range flat.Data() {
				if err := out.Set(v, rowOff+d, j); err != nil {
					return nil, err
				}
			}
		}
		rowOff += dim
	}
	return out, nil
}
