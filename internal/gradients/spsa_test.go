// Copyright 2026 The PennyLane Go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package gradients_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eltociear/pennylane/internal/gradients"
	"github.com/eltociear/pennylane/internal/qmath"
	"github.com/eltociear/pennylane/internal/tape"
)

// constSampler returns a sampler that always yields the given direction,
// making the transform fully deterministic.
func constSampler(direction []float64) gradients.Sampler {
	return func(_ *rand.Rand, _ []int, numParams int) []float64 {
		out := make([]float64, numParams)
		copy(out, direction)
		return out
	}
}

func oneMeasTape() *tape.Tape {
	return tape.New(
		[]tape.Operation{
			{Name: "RX", Wires: []int{0}, Params: []float64{0.1}},
			{Name: "RY", Wires: []int{0}, Params: []float64{0.2}},
			{Name: "RX", Wires: []int{1}, Params: []float64{0.3}},
		},
		[]tape.Measurement{
			{Kind: tape.Expectation, Observable: "PauliZ", Wires: []int{0}},
		},
		nil,
	)
}

func twoMeasTape() *tape.Tape {
	t := oneMeasTape()
	t.Measurements = append(t.Measurements, tape.Measurement{
		Kind: tape.Variance, Observable: "PauliZ", Wires: []int{1},
	})
	return t
}

// scalars builds a single-component raw result holding one scalar per
// measurement.
func scalars(values ...float64) tape.RawResult {
	mv := make(tape.MeasurementValues, len(values))
	for i, v := range values {
		mv[i] = qmath.Scalar(v)
	}
	return tape.RawResult{mv}
}

func scalarOf(t *testing.T, tensor *qmath.Tensor) float64 {
	t.Helper()
	v, err := tensor.Value()
	require.NoError(t, err)
	return v
}

func TestSPSA_NoTrainableParams(t *testing.T) {
	tp := tape.New(
		[]tape.Operation{{Name: "Hadamard", Wires: []int{0}}},
		[]tape.Measurement{{Kind: tape.Expectation, Observable: "PauliZ", Wires: []int{0}}},
		[]int{},
	)

	sampled := false
	tapes, fn, err := gradients.SPSA(tp, gradients.WithSampler(
		func(_ *rand.Rand, _ []int, n int) []float64 {
			sampled = true
			return make([]float64, n)
		}))
	require.NoError(t, err)
	assert.Empty(t, tapes, "no gradient tapes for a tape with nothing to differentiate")
	assert.False(t, sampled, "sampler must not be invoked")

	res, err := fn(nil)
	require.NoError(t, err)
	jac, err := res.Single()
	require.NoError(t, err)
	require.Equal(t, 1, jac.NumMeasurements())
	assert.Empty(t, jac.ForMeasurement(0))
}

func TestSPSALegacy_NoTrainableParams(t *testing.T) {
	tp := tape.New(
		[]tape.Operation{{Name: "Hadamard", Wires: []int{0}}},
		[]tape.Measurement{{Kind: tape.Expectation, Observable: "PauliZ", Wires: []int{0}}},
		[]int{},
	)

	tapes, fn, err := gradients.SPSALegacy(tp)
	require.NoError(t, err)
	assert.Empty(t, tapes)

	grad, err := fn(nil)
	require.NoError(t, err)
	assert.True(t, grad.Shape().Equal(qmath.Shape{1, 0}), "legacy zero shape is [outputDim][0], got %v", grad.Shape())
}

func TestSPSA_AllParamsNonDifferentiable(t *testing.T) {
	tp := oneMeasTape()
	tapes, fn, err := gradients.SPSA(tp, gradients.WithDiffMethods([]string{"0", "0", "0"}))
	require.NoError(t, err)
	assert.Empty(t, tapes)

	res, err := fn(nil)
	require.NoError(t, err)
	jac, err := res.Single()
	require.NoError(t, err)
	grads, err := jac.Gradients()
	require.NoError(t, err)
	require.Len(t, grads, 3)
	for _, g := range grads {
		assert.Equal(t, 0.0, scalarOf(t, g))
	}
}

func TestSPSA_ForwardSingleMeasurement(t *testing.T) {
	tp := oneMeasTape()
	h := 0.1

	tapes, fn, err := gradients.SPSA(tp,
		gradients.WithStepSize(h),
		gradients.WithSampler(constSampler([]float64{1, 1, 1})),
	)
	require.NoError(t, err)
	// Forward first-order stencil: one baseline plus one shifted tape.
	require.Len(t, tapes, 2)
	assert.Equal(t, tp.Parameters(), tapes[0].Parameters(), "baseline tape is unshifted")
	assert.InDeltaSlice(t, []float64{0.2, 0.3, 0.4}, tapes[1].Parameters(), 1e-12)

	f0, f1 := 0.5, 0.7
	res, err := fn([]tape.RawResult{scalars(f0), scalars(f1)})
	require.NoError(t, err)

	jac, err := res.Single()
	require.NoError(t, err)
	grads, err := jac.Gradients()
	require.NoError(t, err)
	require.Len(t, grads, 3, "one gradient per trainable parameter")

	want := (f1 - f0) / h
	for _, g := range grads {
		assert.InDelta(t, want, scalarOf(t, g), 1e-12)
	}
}

func TestSPSA_DirectionSignEntersGradient(t *testing.T) {
	tp := oneMeasTape()
	h := 0.1

	tapes, fn, err := gradients.SPSA(tp,
		gradients.WithStepSize(h),
		gradients.WithSampler(constSampler([]float64{-1, 1, -1})),
	)
	require.NoError(t, err)
	require.Len(t, tapes, 2)
	assert.InDeltaSlice(t, []float64{0, 0.3, 0.2}, tapes[1].Parameters(), 1e-12)

	res, err := fn([]tape.RawResult{scalars(0.5), scalars(0.7)})
	require.NoError(t, err)
	jac, err := res.Single()
	require.NoError(t, err)
	grads, err := jac.Gradients()
	require.NoError(t, err)

	// The raw difference quotient is multiplied by the inverse direction.
	assert.InDelta(t, -2.0, scalarOf(t, grads[0]), 1e-12)
	assert.InDelta(t, 2.0, scalarOf(t, grads[1]), 1e-12)
	assert.InDelta(t, -2.0, scalarOf(t, grads[2]), 1e-12)
}

func TestSPSA_CenterStencilNoBaseline(t *testing.T) {
	tp := oneMeasTape()
	h := 0.05

	tapes, fn, err := gradients.SPSA(tp,
		gradients.WithStepSize(h),
		gradients.WithApproxOrder(2),
		gradients.WithStrategy(gradients.Center),
		gradients.WithSampler(constSampler([]float64{1, 1, 1})),
	)
	require.NoError(t, err)
	// Centered first derivative has no zero-shift term: two shifted tapes,
	// no baseline.
	require.Len(t, tapes, 2)
	assert.InDeltaSlice(t, []float64{0.05, 0.15, 0.25}, tapes[0].Parameters(), 1e-12)
	assert.InDeltaSlice(t, []float64{0.15, 0.25, 0.35}, tapes[1].Parameters(), 1e-12)

	fMinus, fPlus := 0.4, 0.9
	res, err := fn([]tape.RawResult{scalars(fMinus), scalars(fPlus)})
	require.NoError(t, err)
	jac, err := res.Single()
	require.NoError(t, err)
	grads, err := jac.Gradients()
	require.NoError(t, err)

	want := (fPlus - fMinus) / (2 * h)
	for _, g := range grads {
		assert.InDelta(t, want, scalarOf(t, g), 1e-12)
	}
}

func TestSPSA_TwoMeasurements(t *testing.T) {
	tp := twoMeasTape()
	h := 0.1

	tapes, fn, err := gradients.SPSA(tp,
		gradients.WithStepSize(h),
		gradients.WithSampler(constSampler([]float64{1, 1, 1})),
	)
	require.NoError(t, err)
	require.Len(t, tapes, 2)

	res, err := fn([]tape.RawResult{scalars(0.5, -0.2), scalars(0.7, -0.4)})
	require.NoError(t, err)

	jac, err := res.Single()
	require.NoError(t, err)
	require.Equal(t, 2, jac.NumMeasurements(), "one outer entry per measurement")

	for m, want := range []float64{2.0, -2.0} {
		grads := jac.ForMeasurement(m)
		require.Len(t, grads, 3, "measurement %d", m)
		for _, g := range grads {
			assert.InDelta(t, want, scalarOf(t, g), 1e-12, "measurement %d", m)
		}
	}
}

func TestSPSA_ShotVector(t *testing.T) {
	tp := oneMeasTape()
	h := 0.1
	shots := tape.Shots{Vector: []int{10, 100, 1000}}

	tapes, fn, err := gradients.SPSA(tp,
		gradients.WithStepSize(h),
		gradients.WithShots(shots),
		gradients.WithSampler(constSampler([]float64{1, 1, 1})),
	)
	require.NoError(t, err)
	require.Len(t, tapes, 2)

	// Per-tape results carry one entry per shot-vector component.
	perComponent := func(f0, f1 float64) []tape.RawResult {
		mk := func(base float64) tape.RawResult {
			rr := make(tape.RawResult, 3)
			for c := range rr {
				rr[c] = tape.MeasurementValues{qmath.Scalar(base + float64(c))}
			}
			return rr
		}
		return []tape.RawResult{mk(f0), mk(f1)}
	}

	res, err := fn(perComponent(0.5, 0.7))
	require.NoError(t, err)
	assert.True(t, res.IsShotVector())
	require.Equal(t, 3, res.NumComponents())

	// Component c sees f0 = 0.5+c and f1 = 0.7+c, so every component's
	// gradient is the same difference quotient, computed independently.
	for c := 0; c < 3; c++ {
		grads, err := res.Component(c).Gradients()
		require.NoError(t, err)
		require.Len(t, grads, 3)
		for _, g := range grads {
			assert.InDelta(t, 2.0, scalarOf(t, g), 1e-12, "component %d", c)
		}
	}
}

func TestSPSA_AveragingOverSamples(t *testing.T) {
	tp := oneMeasTape()
	h := 0.1

	tapes, fn, err := gradients.SPSA(tp,
		gradients.WithStepSize(h),
		gradients.WithNumSamples(2),
		gradients.WithSampler(constSampler([]float64{1, 1, 1})),
	)
	require.NoError(t, err)
	// One shared baseline plus one shifted tape per repetition.
	require.Len(t, tapes, 3)

	f0, fA, fB := 0.5, 0.7, 1.1
	res, err := fn([]tape.RawResult{scalars(f0), scalars(fA), scalars(fB)})
	require.NoError(t, err)

	jac, err := res.Single()
	require.NoError(t, err)
	grads, err := jac.Gradients()
	require.NoError(t, err)

	repA := (fA - f0) / h
	repB := (fB - f0) / h
	want := (repA + repB) / 2
	for _, g := range grads {
		assert.InDelta(t, want, scalarOf(t, g), 1e-12,
			"output must be the arithmetic mean of the single-repetition estimates")
	}
}

func TestSPSA_ExternalBaseline(t *testing.T) {
	tp := oneMeasTape()
	h := 0.1
	f0 := 0.5

	tapes, fn, err := gradients.SPSA(tp,
		gradients.WithStepSize(h),
		gradients.WithNumSamples(2),
		gradients.WithBaseline(tape.MeasurementValues{qmath.Scalar(f0)}),
		gradients.WithSampler(constSampler([]float64{1, 1, 1})),
	)
	require.NoError(t, err)
	// The supplied baseline saves the unshifted tape.
	require.Len(t, tapes, 2)

	fA, fB := 0.7, 1.1
	res, err := fn([]tape.RawResult{scalars(fA), scalars(fB)})
	require.NoError(t, err)

	jac, err := res.Single()
	require.NoError(t, err)
	grads, err := jac.Gradients()
	require.NoError(t, err)

	want := ((fA-f0)/h + (fB-f0)/h) / 2
	for _, g := range grads {
		assert.InDelta(t, want, scalarOf(t, g), 1e-12,
			"the same baseline must be reused across repetitions")
	}
}

func TestSPSA_DeterministicUnderFixedSampler(t *testing.T) {
	tp := oneMeasTape()
	opts := []gradients.Option{
		gradients.WithStepSize(0.1),
		gradients.WithNumSamples(3),
		gradients.WithSampler(constSampler([]float64{1, -1, 1})),
	}

	tapesA, fnA, err := gradients.SPSA(tp, opts...)
	require.NoError(t, err)
	tapesB, fnB, err := gradients.SPSA(tp, opts...)
	require.NoError(t, err)

	require.Equal(t, len(tapesA), len(tapesB))
	for i := range tapesA {
		assert.Equal(t, tapesA[i].Parameters(), tapesB[i].Parameters(),
			"tape %d must carry identical shifts", i)
	}

	results := []tape.RawResult{scalars(0.5), scalars(0.6), scalars(0.8), scalars(0.3)}
	resA, err := fnA(results)
	require.NoError(t, err)
	resB, err := fnB(results)
	require.NoError(t, err)

	jacA, err := resA.Single()
	require.NoError(t, err)
	jacB, err := resB.Single()
	require.NoError(t, err)
	gradsA, err := jacA.Gradients()
	require.NoError(t, err)
	gradsB, err := jacB.Gradients()
	require.NoError(t, err)
	for i := range gradsA {
		assert.Equal(t, gradsA[i].Data(), gradsB[i].Data())
	}
}

func TestSPSA_ArgnumRestrictsShifts(t *testing.T) {
	tp := oneMeasTape()

	tapes, _, err := gradients.SPSA(tp,
		gradients.WithStepSize(0.1),
		gradients.WithArgnum([]int{1}),
		gradients.WithSampler(constSampler([]float64{0, 1, 0})),
	)
	require.NoError(t, err)
	require.Len(t, tapes, 2)

	// Only parameter 1 moves.
	assert.InDeltaSlice(t, []float64{0.1, 0.3, 0.3}, tapes[1].Parameters(), 1e-12)
}

func TestSPSA_WrongResultCount(t *testing.T) {
	tp := oneMeasTape()
	_, fn, err := gradients.SPSA(tp,
		gradients.WithStepSize(0.1),
		gradients.WithSampler(constSampler([]float64{1, 1, 1})),
	)
	require.NoError(t, err)

	_, err = fn([]tape.RawResult{scalars(0.5)})
	assert.Error(t, err, "missing results violate the batch contract")
}

func TestSPSA_ConfigErrors(t *testing.T) {
	tp := oneMeasTape()

	_, _, err := gradients.SPSA(tp, gradients.WithNumSamples(0))
	assert.ErrorIs(t, err, gradients.ErrConfig)

	_, _, err = gradients.SPSA(tp, gradients.WithStepSize(-1))
	assert.ErrorIs(t, err, gradients.ErrConfig)

	_, _, err = gradients.SPSA(tp, gradients.WithStepSizes([]float64{0.1}))
	assert.ErrorIs(t, err, gradients.ErrConfig, "step-size count must match trainable parameters")

	_, _, err = gradients.SPSA(tp, gradients.WithDiffMethods([]string{"F"}))
	assert.ErrorIs(t, err, gradients.ErrConfig)

	_, _, err = gradients.SPSA(tp, gradients.WithArgnum([]int{7}))
	assert.Error(t, err)
}

func TestSPSA_PerParameterStepSizes(t *testing.T) {
	tp := oneMeasTape()
	hs := []float64{0.1, 0.2, 0.4}

	tapes, fn, err := gradients.SPSA(tp,
		gradients.WithStepSizes(hs),
		gradients.WithSampler(constSampler([]float64{1, 1, 1})),
	)
	require.NoError(t, err)
	require.Len(t, tapes, 2)
	assert.InDeltaSlice(t, []float64{0.2, 0.4, 0.7}, tapes[1].Parameters(), 1e-12)

	f0, f1 := 0.5, 0.7
	res, err := fn([]tape.RawResult{scalars(f0), scalars(f1)})
	require.NoError(t, err)
	jac, err := res.Single()
	require.NoError(t, err)
	grads, err := jac.Gradients()
	require.NoError(t, err)

	for j, h := range hs {
		assert.InDelta(t, (f1-f0)/h, scalarOf(t, grads[j]), 1e-12)
	}
}

func TestSPSALegacy_FlattenedOutput(t *testing.T) {
	tp := tape.New(
		[]tape.Operation{
			{Name: "RX", Wires: []int{0}, Params: []float64{0.1}},
			{Name: "RY", Wires: []int{0}, Params: []float64{0.2}},
		},
		[]tape.Measurement{
			{Kind: tape.Probability, Wires: []int{0}},
			{Kind: tape.Expectation, Observable: "PauliZ", Wires: []int{0}},
		},
		nil,
	)
	h := 0.1

	mk := func(p0, p1, e float64) tape.RawResult {
		probs, err := qmath.FromSlice([]float64{p0, p1}, qmath.Shape{2})
		require.NoError(t, err)
		return tape.RawResult{tape.MeasurementValues{probs, qmath.Scalar(e)}}
	}

	tapes, fn, err := gradients.SPSALegacy(tp,
		gradients.WithStepSize(h),
		gradients.WithApproxOrder(1),
		gradients.WithStrategy(gradients.Forward),
		gradients.WithSampler(constSampler([]float64{1, 1})),
	)
	require.NoError(t, err)
	require.Len(t, tapes, 2)

	grad, err := fn([]tape.RawResult{mk(0.6, 0.4, 0.5), mk(0.7, 0.3, 0.9)})
	require.NoError(t, err)

	// Rows: two probability outcomes then the expectation value; columns:
	// trainable parameters.
	require.True(t, grad.Shape().Equal(qmath.Shape{3, 2}), "legacy shape is [outputDim][numParams], got %v", grad.Shape())

	wantRows := []float64{(0.7 - 0.6) / h, (0.3 - 0.4) / h, (0.9 - 0.5) / h}
	for row, want := range wantRows {
		for col := 0; col < 2; col++ {
			v, err := grad.At(row, col)
			require.NoError(t, err)
			assert.InDelta(t, want, v, 1e-12, "row %d col %d", row, col)
		}
	}
}

func TestSPSALegacy_AllZeroShape(t *testing.T) {
	tp := oneMeasTape()
	tapes, fn, err := gradients.SPSALegacy(tp, gradients.WithDiffMethods([]string{"0", "0", "0"}))
	require.NoError(t, err)
	assert.Empty(t, tapes)

	grad, err := fn(nil)
	require.NoError(t, err)
	assert.True(t, grad.Shape().Equal(qmath.Shape{1, 3}))
	for _, v := range grad.Data() {
		assert.Equal(t, 0.0, v)
	}
}
