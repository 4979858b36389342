// Copyright 2026 The PennyLane Go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package simulator provides an analytic statevector executor for tape
// batches.
//
// It is the default Executor used by the CLI and the integration tests:
// gradient transforms themselves never look inside it and work against any
// executor honoring the result-ordering contract.
package simulator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/eltociear/pennylane/internal/parallel"
	"github.com/eltociear/pennylane/internal/qmath"
	"github.com/eltociear/pennylane/internal/tape"
)

// Simulator executes tapes on an in-memory complex128 statevector.
type Simulator struct {
	shots tape.Shots
	par   parallel.Config

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithShots sets the device shot configuration. The zero value means
// analytic execution.
func WithShots(s tape.Shots) Option {
	return func(sim *Simulator) { sim.shots = s }
}

// WithSeed seeds the sampler used for finite-shot estimates.
func WithSeed(seed int64) Option {
	return func(sim *Simulator) { sim.rng = rand.New(rand.NewSource(seed)) }
}

// WithParallel overrides the batch-execution parallelism settings.
func WithParallel(cfg parallel.Config) Option {
	return func(sim *Simulator) { sim.par = cfg }
}

// New creates a simulator.
func New(opts ...Option) *Simulator {
	sim := &Simulator{
		par: parallel.DefaultConfig(),
		rng: rand.New(rand.NewSource(rand.Int63())),
	}
	for _, opt := range opts {
		opt(sim)
	}
	return sim
}

// Shots returns the configured shot setting.
func (sim *Simulator) Shots() tape.Shots {
	return sim.shots
}

// Execute runs every tape in the batch and returns one raw result per
// tape, in submission order. Tapes are independent and are simulated
// concurrently.
func (sim *Simulator) Execute(ctx context.Context, tapes []*tape.Tape) ([]tape.RawResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := sim.shots.Validate(); err != nil {
		return nil, err
	}

	// Per-tape seeds are drawn up front so concurrent tapes never share
	// the sampler.
	seeds := make([]int64, len(tapes))
	sim.mu.Lock()
	for i := range seeds {
		seeds[i] = sim.rng.Int63()
	}
	sim.mu.Unlock()

	results := make([]tape.RawResult, len(tapes))
	errs := make([]error, len(tapes))
	parallel.For(len(tapes), func(i int) {
		results[i], errs[i] = sim.executeOne(tapes[i], seeds[i])
	}, sim.par)

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("tape %d: %w", i, err)
		}
	}
	return results, nil
}

func (sim *Simulator) executeOne(t *tape.Tape, seed int64) (tape.RawResult, error) {
	state, err := run(t)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	copies := shotCopies(sim.shots)
	rr := make(tape.RawResult, len(copies))
	for c, numShots := range copies {
		values := make(tape.MeasurementValues, len(t.Measurements))
		for m, meas := range t.Measurements {
			v, err := measure(state, meas, numShots, rng)
			if err != nil {
				return nil, fmt.Errorf("measurement %d: %w", m, err)
			}
			values[m] = v
		}
		rr[c] = values
	}
	return rr, nil
}

// shotCopies expands a shot configuration into per-component shot counts.
func shotCopies(s tape.Shots) []int {
	if s.Vector != nil {
		return s.Vector
	}
	return []int{s.Total}
}

// run applies the tape's operations to the |0...0> state.
func run(t *tape.Tape) ([]complex128, error) {
	numWires := t.NumWires()
	if numWires == 0 {
		numWires = 1
	}
	state := make([]complex128, 1<<numWires)
	state[0] = 1

	for i, op := range t.Operations {
		if err := apply(state, numWires, op); err != nil {
			return nil, fmt.Errorf("operation %d (%s): %w", i, op.Name, err)
		}
	}
	return state, nil
}

func apply(state []complex128, numWires int, op tape.Operation) error {
	for _, w := range op.Wires {
		if w < 0 || w >= numWires {
			return fmt.Errorf("wire %d out of range", w)
		}
	}
	switch op.Name {
	case "RX", "RY", "RZ":
		if len(op.Params) != 1 || len(op.Wires) != 1 {
			return fmt.Errorf("%s takes one wire and one parameter", op.Name)
		}
		applySingle(state, op.Wires[0], rotation(op.Name, op.Params[0]))
	case "Hadamard", "H":
		if len(op.Wires) != 1 {
			return fmt.Errorf("%s takes one wire", op.Name)
		}
		s := complex(1/math.Sqrt2, 0)
		applySingle(state, op.Wires[0], [2][2]complex128{{s, s}, {s, -s}})
	case "PauliX", "X":
		if len(op.Wires) != 1 {
			return fmt.Errorf("%s takes one wire", op.Name)
		}
		applySingle(state, op.Wires[0], [2][2]complex128{{0, 1}, {1, 0}})
	case "PauliY", "Y":
		if len(op.Wires) != 1 {
			return fmt.Errorf("%s takes one wire", op.Name)
		}
		applySingle(state, op.Wires[0], [2][2]complex128{{0, -1i}, {1i, 0}})
	case "PauliZ", "Z":
		if len(op.Wires) != 1 {
			return fmt.Errorf("%s takes one wire", op.Name)
		}
		applySingle(state, op.Wires[0], [2][2]complex128{{1, 0}, {0, -1}})
	case "CNOT":
		if len(op.Wires) != 2 {
			return fmt.Errorf("CNOT takes two wires")
		}
		applyCNOT(state, op.Wires[0], op.Wires[1])
	default:
		return fmt.Errorf("unsupported gate %q", op.Name)
	}
	return nil
}

// rotation builds the single-qubit rotation matrix exp(-i theta P / 2).
func rotation(name string, theta float64) [2][2]complex128 {
	c := complex(math.Cos(theta/2), 0)
	s := math.Sin(theta / 2)
	switch name {
	case "RX":
		return [2][2]complex128{{c, complex(0, -s)}, {complex(0, -s), c}}
	case "RY":
		return [2][2]complex128{{c, complex(-s, 0)}, {complex(s, 0), c}}
	default: // RZ
		return [2][2]complex128{
			{complex(math.Cos(theta/2), -math.Sin(theta/2)), 0},
			{0, complex(math.Cos(theta/2), math.Sin(theta/2))},
		}
	}
}

// applySingle applies a single-qubit matrix to the given wire.
// Wire w corresponds to bit w of the basis index.
func applySingle(state []complex128, w int, m [2][2]complex128) {
	bit := 1 << w
	for i := range state {
		if i&bit != 0 {
			continue
		}
		j := i | bit
		a, b := state[i], state[j]
		state[i] = m[0][0]*a + m[0][1]*b
		state[j] = m[1][0]*a + m[1][1]*b
	}
}

func applyCNOT(state []complex128, control, target int) {
	cbit, tbit := 1<<control, 1<<target
	for i := range state {
		if i&cbit != 0 && i&tbit == 0 {
			j := i | tbit
			state[i], state[j] = state[j], state[i]
		}
	}
}

// measure evaluates one measurement on the final state. numShots == 0 means
// the analytic value; otherwise a sampled estimate with that many shots.
func measure(state []complex128, m tape.Measurement, numShots int, rng *rand.Rand) (*qmath.Tensor, error) {
	switch m.Kind {
	case tape.Expectation:
		e, err := expval(state, m)
		if err != nil {
			return nil, err
		}
		if numShots > 0 {
			e = sampleEigenvalueMean(e, numShots, rng)
		}
		return qmath.Scalar(e), nil

	case tape.Variance:
		e, err := expval(state, m)
		if err != nil {
			return nil, err
		}
		// Pauli observables square to the identity, so Var = 1 - <O>^2.
		if numShots > 0 {
			mean := sampleEigenvalueMean(e, numShots, rng)
			return qmath.Scalar(1 - mean*mean), nil
		}
		return qmath.Scalar(1 - e*e), nil

	case tape.Probability:
		probs := marginalProbs(state, m.Wires)
		if numShots > 0 {
			probs = sampleProbs(probs, numShots, rng)
		}
		return qmath.FromSlice(probs, qmath.Shape{len(probs)})

	default:
		return nil, fmt.Errorf("unsupported measurement kind %v", m.Kind)
	}
}

// expval computes Re<psi|O|psi> for a product of identical single-wire
// Paulis over the measurement's wires.
func expval(state []complex128, m tape.Measurement) (float64, error) {
	applied := make([]complex128, len(state))
	copy(applied, state)
	for _, w := range m.Wires {
		switch m.Observable {
		case "PauliX", "X":
			applySingle(applied, w, [2][2]complex128{{0, 1}, {1, 0}})
		case "PauliY", "Y":
			applySingle(applied, w, [2][2]complex128{{0, -1i}, {1i, 0}})
		case "PauliZ", "Z":
			applySingle(applied, w, [2][2]complex128{{1, 0}, {0, -1}})
		default:
			return 0, fmt.Errorf("unsupported observable %q", m.Observable)
		}
	}
	var e complex128
	for i := range state {
		// <psi|O|psi> accumulated as conj(psi_i) * (O psi)_i.
		e += cmplxConj(state[i]) * applied[i]
	}
	return real(e), nil
}

func cmplxConj(c complex128) complex128 {
	return complex(real(c), -imag(c))
}

// marginalProbs computes computational-basis probabilities marginalized to
// the given wires, the first listed wire being the most significant bit of
// the outcome index.
func marginalProbs(state []complex128, wires []int) []float64 {
	probs := make([]float64, 1<<len(wires))
	for i, a := range state {
		p := real(a)*real(a) + imag(a)*imag(a)
		outcome := 0
		for j, w := range wires {
			if i&(1<<w) != 0 {
				outcome |= 1 << (len(wires) - 1 - j)
			}
		}
		probs[outcome] += p
	}
	return probs
}

// sampleEigenvalueMean draws numShots +-1 eigenvalues consistent with the
// analytic expectation and returns their mean.
func sampleEigenvalueMean(e float64, numShots int, rng *rand.Rand) float64 {
	pPlus := (1 + e) / 2
	sum := 0.0
	for i := 0; i < numShots; i++ {
		if rng.Float64() < pPlus {
			sum++
		} else {
			sum--
		}
	}
	return sum / float64(numShots)
}

// sampleProbs draws numShots outcomes from the analytic distribution and
// returns relative frequencies.
func sampleProbs(probs []float64, numShots int, rng *rand.Rand) []float64 {
	counts := make([]float64, len(probs))
	for i := 0; i < numShots; i++ {
		r := rng.Float64()
		acc := 0.0
		outcome := len(probs) - 1
		for o, p := range probs {
			acc += p
			if r < acc {
				outcome = o
				break
			}
		}
		counts[outcome]++
	}
	for i := range counts {
		counts[i] /= float64(numShots)
	}
	return counts
}
