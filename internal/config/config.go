// Copyright 2026 The PennyLane Go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package config loads the YAML run description consumed by the qgrad CLI:
// a circuit, its trainable-parameter marks, the device shot configuration
// and the SPSA options.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/eltociear/pennylane/internal/gradients"
	"github.com/eltociear/pennylane/internal/tape"
)

// SupportedSchema is the run-file schema version this build understands.
const SupportedSchema = "v1"

// Run is the top-level run description.
type Run struct {
	SchemaVersion string    `yaml:"schema_version"`
	Circuit       Circuit   `yaml:"circuit"`
	Shots         ShotsSpec `yaml:"shots"`
	SPSA          SPSASpec  `yaml:"spsa"`
}

// Circuit describes the tape to differentiate.
type Circuit struct {
	Qubits       int               `yaml:"qubits"`
	Gates        []GateSpec        `yaml:"gates"`
	Measurements []MeasurementSpec `yaml:"measurements"`
}

// GateSpec describes one operation.
type GateSpec struct {
	Name      string    `yaml:"name"`
	Wires     []int     `yaml:"wires"`
	Params    []float64 `yaml:"params"`
	Trainable []bool    `yaml:"trainable"` // per-param; nil means all trainable
}

// MeasurementSpec describes one measurement.
type MeasurementSpec struct {
	Kind       string `yaml:"kind"` // expval, var, probs
	Observable string `yaml:"observable"`
	Wires      []int  `yaml:"wires"`
}

// ShotsSpec describes the device shot configuration.
type ShotsSpec struct {
	Total  int   `yaml:"total"`
	Vector []int `yaml:"vector"`
}

// SPSASpec carries the SPSA transform options.
type SPSASpec struct {
	StepSize        float64 `yaml:"step_size"`
	ApproxOrder     int     `yaml:"approx_order"`
	DerivativeOrder int     `yaml:"derivative_order"`
	Strategy        string  `yaml:"strategy"`
	NumSamples      int     `yaml:"num_samples"`
	Seed            *int64  `yaml:"seed"`
}

// Load parses a run file and validates its schema version.
func Load(path string) (*Run, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var run Run
	if err := yaml.Unmarshal(raw, &run); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if run.SchemaVersion == "" {
		run.SchemaVersion = SupportedSchema
	}
	if run.SchemaVersion != SupportedSchema {
		return nil, fmt.Errorf("run schema_version %q not supported (want %q)", run.SchemaVersion, SupportedSchema)
	}
	if err := run.validate(); err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *Run) validate() error {
	if r.Circuit.Qubits < 1 {
		return fmt.Errorf("circuit.qubits must be at least 1, got %d", r.Circuit.Qubits)
	}
	if len(r.Circuit.Measurements) == 0 {
		return fmt.Errorf("circuit.measurements must not be empty")
	}
	for i, g := range r.Circuit.Gates {
		if g.Name == "" {
			return fmt.Errorf("circuit.gates[%d].name is required", i)
		}
		for _, w := range g.Wires {
			if w < 0 || w >= r.Circuit.Qubits {
				return fmt.Errorf("circuit.gates[%d]: wire %d out of range for %d qubits", i, w, r.Circuit.Qubits)
			}
		}
		if g.Trainable != nil && len(g.Trainable) != len(g.Params) {
			return fmt.Errorf("circuit.gates[%d]: %d trainable flags for %d params", i, len(g.Trainable), len(g.Params))
		}
	}
	for i, m := range r.Circuit.Measurements {
		switch m.Kind {
		case "expval", "var", "probs":
		default:
			return fmt.Errorf("circuit.measurements[%d].kind %q must be one of expval, var, probs", i, m.Kind)
		}
		if len(m.Wires) == 0 {
			return fmt.Errorf("circuit.measurements[%d].wires must not be empty", i)
		}
		for _, w := range m.Wires {
			if w < 0 || w >= r.Circuit.Qubits {
				return fmt.Errorf("circuit.measurements[%d]: wire %d out of range for %d qubits", i, w, r.Circuit.Qubits)
			}
		}
	}
	if r.Shots.Total < 0 {
		return fmt.Errorf("shots.total must not be negative")
	}
	if r.SPSA.StepSize < 0 {
		return fmt.Errorf("spsa.step_size must not be negative")
	}
	if r.SPSA.Strategy != "" {
		switch gradients.Strategy(r.SPSA.Strategy) {
		case gradients.Forward, gradients.Center, gradients.Backward:
		default:
			return fmt.Errorf("spsa.strategy %q must be one of forward, center, backward", r.SPSA.Strategy)
		}
	}
	return nil
}

// BuildTape constructs the tape described by the run file.
func (r *Run) BuildTape() (*tape.Tape, error) {
	ops := make([]tape.Operation, len(r.Circuit.Gates))
	var trainable []int
	flat := 0
	for i, g := range r.Circuit.Gates {
		ops[i] = tape.Operation{
			Name:   g.Name,
			Wires:  append([]int(nil), g.Wires...),
			Params: append([]float64(nil), g.Params...),
		}
		for p := range g.Params {
			if g.Trainable == nil || g.Trainable[p] {
				trainable = append(trainable, flat)
			}
			flat++
		}
	}

	measurements := make([]tape.Measurement, len(r.Circuit.Measurements))
	for i, m := range r.Circuit.Measurements {
		var kind tape.MeasurementKind
		switch m.Kind {
		case "expval":
			kind = tape.Expectation
		case "var":
			kind = tape.Variance
		case "probs":
			kind = tape.Probability
		default:
			return nil, fmt.Errorf("unknown measurement kind %q", m.Kind)
		}
		measurements[i] = tape.Measurement{
			Kind:       kind,
			Observable: m.Observable,
			Wires:      append([]int(nil), m.Wires...),
		}
	}

	return tape.New(ops, measurements, trainable), nil
}

// TapeShots converts the shot spec to the tape package's representation.
func (r *Run) TapeShots() tape.Shots {
	return tape.Shots{Total: r.Shots.Total, Vector: r.Shots.Vector}
}

// Options converts the SPSA spec to transform options. Zero-valued fields
// keep the transform's defaults.
func (r *Run) Options() []gradients.Option {
	var opts []gradients.Option
	if r.SPSA.StepSize > 0 {
		opts = append(opts, gradients.WithStepSize(r.SPSA.StepSize))
	}
	if r.SPSA.ApproxOrder > 0 {
		opts = append(opts, gradients.WithApproxOrder(r.SPSA.ApproxOrder))
	}
	if r.SPSA.DerivativeOrder > 0 {
		opts = append(opts, gradients.WithDerivativeOrder(r.SPSA.DerivativeOrder))
	}
	if r.SPSA.Strategy != "" {
		opts = append(opts, gradients.WithStrategy(gradients.Strategy(r.SPSA.Strategy)))
	}
	if r.SPSA.NumSamples > 0 {
		opts = append(opts, gradients.WithNumSamples(r.SPSA.NumSamples))
	}
	opts = append(opts, gradients.WithShots(r.TapeShots()))
	return opts
}
