// Copyright 2026 The PennyLane Go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package gradients

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Strategy selects where the finite-difference shifts are placed relative
// to the unshifted point.
type Strategy string

// Supported finite-difference strategies.
const (
	Forward  Strategy = "forward"
	Center   Strategy = "center"
	Backward Strategy = "backward"
)

// Stencil construction errors.
var (
	ErrInvalidOrder    = errors.New("derivative and approximation orders must be positive")
	ErrOddCenterOrder  = errors.New("centered finite difference requires an even approximation order")
	ErrUnknownStrategy = errors.New("unknown finite-difference strategy")
)

// CoeffFunc produces a finite-difference stencil: parallel coefficient and
// shift slices for the n-th derivative at the given approximation order.
// A zero shift, when present, is always the first element.
type CoeffFunc func(n, approxOrder int, strategy Strategy) (coeffs, shifts []float64, err error)

// coeffSnapTol is the magnitude below which solved stencil entries are
// treated as exact zeros.
const coeffSnapTol = 1e-10

// Coeffs computes finite-difference stencil coefficients for the n-th
// derivative with the given approximation order and strategy.
//
// The shifts are integer multiples of the step size: 0, 1, 2, ... for the
// forward strategy, 0, -1, -2, ... for backward, and a symmetric range for
// center. The coefficients solve the Vandermonde system
//
//	sum_i c_i s_i^k = n! * delta_{k,n}
//
// so that sum_i c_i f(x + s_i h) / h^n approximates the n-th derivative.
// Terms with zero coefficients are dropped, and the stencil is ordered by
// ascending |shift| so a zero shift, if present, comes first.
func Coeffs(n, approxOrder int, strategy Strategy) (coeffs, shifts []float64, err error) {
	if n < 1 || approxOrder < 1 {
		return nil, nil, ErrInvalidOrder
	}

	numPoints := n + approxOrder - 1
	switch strategy {
	case Forward:
		shifts = make([]float64, numPoints+1)
		for i := range shifts {
			shifts[i] = float64(i)
		}
	case Backward:
		shifts = make([]float64, numPoints+1)
		for i := range shifts {
			shifts[i] = -float64(i)
		}
	case Center:
		if approxOrder%2 != 0 {
			return nil, nil, ErrOddCenterOrder
		}
		if n%2 == 0 {
			numPoints++
		}
		half := numPoints / 2
		shifts = make([]float64, 0, 2*half+1)
		for i := -half; i <= half; i++ {
			shifts = append(shifts, float64(i))
		}
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}

	coeffs, err = solveStencil(shifts, n)
	if err != nil {
		return nil, nil, err
	}

	// Snap numerical noise to zero and drop terms that contribute nothing.
	outC := make([]float64, 0, len(coeffs))
	outS := make([]float64, 0, len(coeffs))
	for i := range coeffs {
		if math.Abs(coeffs[i]) < coeffSnapTol {
			continue
		}
		if math.Abs(shifts[i]) < coeffSnapTol {
			shifts[i] = 0
		}
		outC = append(outC, coeffs[i])
		outS = append(outS, shifts[i])
	}

	// Canonical order: ascending |shift|, stable, so a zero shift leads.
	order := make([]int, len(outS))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return math.Abs(outS[order[a]]) < math.Abs(outS[order[b]])
	})
	sortedC := make([]float64, len(order))
	sortedS := make([]float64, len(order))
	for i, idx := range order {
		sortedC[i] = outC[idx]
		sortedS[i] = outS[idx]
	}
	return sortedC, sortedS, nil
}

// solveStencil solves the Vandermonde system A c = b with A[k][i] =
// shifts[i]^k and b[k] = n!*delta_{k,n}, using Gaussian elimination with
// partial pivoting. Stencils are tiny (a handful of points), so a dense
// solve is more than enough.
func solveStencil(shifts []float64, n int) ([]float64, error) {
	size := len(shifts)
	if n >= size {
		return nil, fmt.Errorf("stencil with %d points cannot resolve derivative order %d", size, n)
	}

	a := make([][]float64, size)
	for k := range a {
		a[k] = make([]float64, size+1)
		for i := 0; i < size; i++ {
			a[k][i] = math.Pow(shifts[i], float64(k))
		}
	}
	a[n][size] = factorial(n)

	for col := 0; col < size; col++ {
		pivot := col
		for row := col + 1; row < size; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < coeffSnapTol {
			return nil, fmt.Errorf("singular stencil system for shifts %v", shifts)
		}
		a[col], a[pivot] = a[pivot], a[col]
		for row := col + 1; row < size; row++ {
			f := a[row][col] / a[col][col]
			for i := col; i <= size; i++ {
				a[row][i] -= f * a[col][i]
			}
		}
	}

	coeffs := make([]float64, size)
	for row := size - 1; row >= 0; row-- {
		sum := a[row][size]
		for i := row + 1; i < size; i++ {
			sum -= a[row][i] * coeffs[i]
		}
		coeffs[row] = sum / a[row][row]
	}
	return coeffs, nil
}

func factorial(n int) float64 {
	f := 1.0
	for i := 2; i <= n; i++ {
		f *= float64(i)
	}
	return f
}
