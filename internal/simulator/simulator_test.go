// Copyright 2026 The PennyLane Go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package simulator_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eltociear/pennylane/internal/simulator"
	"github.com/eltociear/pennylane/internal/tape"
)

func rxTape(theta float64, meas ...tape.Measurement) *tape.Tape {
	return tape.New(
		[]tape.Operation{{Name: "RX", Wires: []int{0}, Params: []float64{theta}}},
		meas,
		nil,
	)
}

func execOne(t *testing.T, sim *simulator.Simulator, tp *tape.Tape) tape.MeasurementValues {
	t.Helper()
	results, err := sim.Execute(context.Background(), []*tape.Tape{tp})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0], 1, "analytic execution yields a single component")
	return results[0][0]
}

func TestExecute_RXExpectation(t *testing.T) {
	sim := simulator.New()
	for _, theta := range []float64{0, 0.3, math.Pi / 2, math.Pi, 2.1} {
		tp := rxTape(theta,
			tape.Measurement{Kind: tape.Expectation, Observable: "PauliZ", Wires: []int{0}},
			tape.Measurement{Kind: tape.Variance, Observable: "PauliZ", Wires: []int{0}},
		)
		values := execOne(t, sim, tp)
		require.Len(t, values, 2)

		z, err := values[0].Value()
		require.NoError(t, err)
		assert.InDelta(t, math.Cos(theta), z, 1e-12, "theta=%v", theta)

		v, err := values[1].Value()
		require.NoError(t, err)
		s := math.Sin(theta)
		assert.InDelta(t, s*s, v, 1e-12, "theta=%v", theta)
	}
}

func TestExecute_RXProbabilities(t *testing.T) {
	theta := 0.7
	tp := rxTape(theta, tape.Measurement{Kind: tape.Probability, Wires: []int{0}})

	values := execOne(t, simulator.New(), tp)
	probs := values[0]
	require.True(t, probs.Shape().Equal([]int{2}))

	c, s := math.Cos(theta/2), math.Sin(theta/2)
	assert.InDeltaSlice(t, []float64{c * c, s * s}, probs.Data(), 1e-12)
}

func TestExecute_BellState(t *testing.T) {
	tp := tape.New(
		[]tape.Operation{
			{Name: "Hadamard", Wires: []int{0}},
			{Name: "CNOT", Wires: []int{0, 1}},
		},
		[]tape.Measurement{
			{Kind: tape.Probability, Wires: []int{0, 1}},
			{Kind: tape.Expectation, Observable: "PauliZ", Wires: []int{0, 1}},
		},
		nil,
	)

	values := execOne(t, simulator.New(), tp)
	require.Len(t, values, 2)

	assert.InDeltaSlice(t, []float64{0.5, 0, 0, 0.5}, values[0].Data(), 1e-12)

	// Z0 Z1 on a Bell state is +1.
	zz, err := values[1].Value()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, zz, 1e-12)
}

func TestExecute_PauliGatesAndObservables(t *testing.T) {
	tp := tape.New(
		[]tape.Operation{{Name: "PauliX", Wires: []int{0}}},
		[]tape.Measurement{{Kind: tape.Expectation, Observable: "PauliZ", Wires: []int{0}}},
		nil,
	)
	z, err := execOne(t, simulator.New(), tp)[0].Value()
	require.NoError(t, err)
	assert.InDelta(t, -1.0, z, 1e-12)

	tp = tape.New(
		[]tape.Operation{{Name: "Hadamard", Wires: []int{0}}},
		[]tape.Measurement{{Kind: tape.Expectation, Observable: "PauliX", Wires: []int{0}}},
		nil,
	)
	x, err := execOne(t, simulator.New(), tp)[0].Value()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, x, 1e-12)
}

func TestExecute_FiniteShots(t *testing.T) {
	theta := 0.9
	tp := rxTape(theta, tape.Measurement{Kind: tape.Expectation, Observable: "PauliZ", Wires: []int{0}})

	sim := simulator.New(
		simulator.WithShots(tape.Shots{Total: 200000}),
		simulator.WithSeed(42),
	)
	z, err := execOne(t, sim, tp)[0].Value()
	require.NoError(t, err)
	assert.InDelta(t, math.Cos(theta), z, 0.01, "shot estimate must be close to the analytic value")
}

func TestExecute_ShotVectorComponents(t *testing.T) {
	tp := rxTape(0.4, tape.Measurement{Kind: tape.Probability, Wires: []int{0}})

	sim := simulator.New(
		simulator.WithShots(tape.Shots{Vector: []int{100, 1000, 100000}}),
		simulator.WithSeed(7),
	)
	results, err := sim.Execute(context.Background(), []*tape.Tape{tp})
	require.NoError(t, err)
	require.Len(t, results[0], 3, "one result per shot-vector component")

	for c, values := range results[0] {
		probs := values[0].Data()
		require.Len(t, probs, 2, "component %d", c)
		assert.InDelta(t, 1.0, probs[0]+probs[1], 1e-12, "component %d frequencies must sum to one", c)
	}

	// The highest-shot component should sit tightest around the analytic
	// distribution.
	c2 := math.Cos(0.2) * math.Cos(0.2)
	assert.InDelta(t, c2, results[0][2][0].Data()[0], 0.01)
}

func TestExecute_SeedReproducibility(t *testing.T) {
	tp := rxTape(1.2, tape.Measurement{Kind: tape.Expectation, Observable: "PauliZ", Wires: []int{0}})

	run := func() float64 {
		sim := simulator.New(simulator.WithShots(tape.Shots{Total: 500}), simulator.WithSeed(99))
		v, err := execOne(t, sim, tp)[0].Value()
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, run(), run())
}

func TestExecute_BatchOrdering(t *testing.T) {
	thetas := []float64{0, 0.5, 1.0, 1.5, 2.0, 2.5}
	tapes := make([]*tape.Tape, len(thetas))
	for i, theta := range thetas {
		tapes[i] = rxTape(theta, tape.Measurement{Kind: tape.Expectation, Observable: "PauliZ", Wires: []int{0}})
	}

	results, err := simulator.New().Execute(context.Background(), tapes)
	require.NoError(t, err)
	require.Len(t, results, len(tapes))

	for i, theta := range thetas {
		v, err := results[i][0][0].Value()
		require.NoError(t, err)
		assert.InDelta(t, math.Cos(theta), v, 1e-12, "result %d must match tape %d", i, i)
	}
}

func TestExecute_Errors(t *testing.T) {
	sim := simulator.New()

	bad := tape.New(
		[]tape.Operation{{Name: "Toffoli", Wires: []int{0, 1, 2}}},
		[]tape.Measurement{{Kind: tape.Expectation, Observable: "PauliZ", Wires: []int{0}}},
		nil,
	)
	_, err := sim.Execute(context.Background(), []*tape.Tape{bad})
	assert.ErrorContains(t, err, "unsupported gate")

	bad = rxTape(0.1, tape.Measurement{Kind: tape.Expectation, Observable: "Hermitian", Wires: []int{0}})
	_, err = sim.Execute(context.Background(), []*tape.Tape{bad})
	assert.ErrorContains(t, err, "unsupported observable")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sim.Execute(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
