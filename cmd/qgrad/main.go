// Copyright 2026 The PennyLane Go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package main provides the qgrad CLI: SPSA gradients of quantum circuits
// against the built-in statevector simulator.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"github.com/spf13/cobra"

	"github.com/eltociear/pennylane/internal/config"
	"github.com/eltociear/pennylane/internal/gradients"
	"github.com/eltociear/pennylane/internal/logging"
	"github.com/eltociear/pennylane/internal/simulator"
)

const version = "v0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string
	var logJSON bool

	root := &cobra.Command{
		Use:          "qgrad",
		Short:        "SPSA gradient estimation for quantum circuits",
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logging.Configure(logging.Options{Level: logLevel, JSON: logJSON})
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit logs as JSON")

	root.AddCommand(newVersionCmd(), newGradCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "qgrad %s\n", version)
		},
	}
}

func newGradCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "grad",
		Short: "Estimate the SPSA gradient of a circuit described by a run file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			run, err := config.Load(file)
			if err != nil {
				return err
			}
			return runGrad(cmd.Context(), cmd, run)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "run.yaml", "run description file")
	return cmd
}

func runGrad(ctx context.Context, cmd *cobra.Command, run *config.Run) error {
	if ctx == nil {
		ctx = context.Background()
	}
	t, err := run.BuildTape()
	if err != nil {
		return err
	}

	opts := run.Options()
	simOpts := []simulator.Option{simulator.WithShots(run.TapeShots())}
	if run.SPSA.Seed != nil {
		opts = append(opts, gradients.WithRand(rand.New(rand.NewSource(*run.SPSA.Seed))))
		simOpts = append(simOpts, simulator.WithSeed(*run.SPSA.Seed))
	}

	tapes, fn, err := gradients.SPSA(t, opts...)
	if err != nil {
		return err
	}
	slog.Info("gradient batch built",
		"tapes", len(tapes),
		"trainable_params", len(t.TrainableParams),
		"measurements", len(t.Measurements))

	sim := simulator.New(simOpts...)
	results, err := sim.Execute(ctx, tapes)
	if err != nil {
		return err
	}

	grad, err := fn(results)
	if err != nil {
		return err
	}
	printResult(cmd, grad)
	return nil
}

func printResult(cmd *cobra.Command, r *gradients.Result) {
	out := cmd.OutOrStdout()
	for c := 0; c < r.NumComponents(); c++ {
		if r.IsShotVector() {
			fmt.Fprintf(out, "shot-vector component %d:\n", c)
		}
		jac := r.Component(c)
		for m := 0; m < jac.NumMeasurements(); m++ {
			fmt.Fprintf(out, "  measurement %d:\n", m)
			for p, g := range jac.ForMeasurement(m) {
				fmt.Fprintf(out, "    d/dtheta[%d] = %v\n", p, g.Data())
			}
		}
	}
}
