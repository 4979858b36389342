// Copyright 2026 The PennyLane Go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package gradients

import (
	"context"

	"github.com/eltociear/pennylane/internal/tape"
)

// Executor runs a batch of tapes and returns one raw result per tape, in
// submission order. That ordering is a wire contract: the processing
// function returned by a gradient transform decodes (repetition,
// stencil-index) from result positions and, when baseline reuse applies,
// treats position 0 as the unshifted baseline.
//
// Any retry policy for failed executions belongs to the implementation;
// the gradient core never retries.
type Executor interface {
	Execute(ctx context.Context, tapes []*tape.Tape) ([]tape.RawResult, error)
}
