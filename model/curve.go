/*
DESCRIPTION
  curve.go provides nonlinear least squares fitting of an arbitrary model
  function y = f(x, params).

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean)

  It is free software: you can redistribute it and/or modify them
  under the terms of the GNU General Public License as published by the
  Free Software Foundation, either version 3 of the License, or (at your
  option) any later version.

  It is distributed in the hope that it will be useful, but WITHOUT
  ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
  FITNESS FOR A PARTICULAR PURPOSE. See the GNU General Public License
  for more details.

  You should have received a copy of the GNU General Public License
  in gpl.txt. If not, see http://www.gnu.org/licenses.
*/

package model

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// Function is a model function for curve fitting.
type Function interface {
	// Eval returns the model value at x for the parameters p.
	Eval(x float64, p []float64) float64

	// Params returns the parameter names. Its length is the number of
	// parameters.
	Params() []string
}

// Func is a Function built from a plain Go function and parameter names.
type Func struct {
	Names []string
	F     func(x float64, p []float64) float64
}

// NewFunc returns a Function evaluating f with the given parameter names.
func NewFunc(f func(x float64, p []float64) float64, names ...string) Func {
	return Func{Names: names, F: f}
}

// Eval implements Function.
func (f Func) Eval(x float64, p []float64) float64 { return f.F(x, p) }

// Params implements Function.
func (f Func) Params() []string { return f.Names }

// Eval evaluates f at each value of x.
func Eval(f Function, p []float64, x []float64) []float64 {
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = f.Eval(v, p)
	}
	return y
}

// SSR returns the sum of squared residuals of f with parameters p against the
// observations (x, y).
func SSR(f Function, p []float64, x, y []float64) float64 {
	var s float64
	for i, v := range x {
		r := y[i] - f.Eval(v, p)
		s += r * r
	}
	return s
}

// CurveOptions holds the settings of a curve fit.
type CurveOptions struct {
	// P0 is the initial guess. If nil, every parameter starts at 1.
	P0 []float64

	// Bounds holds one bound per parameter. If nil, the fit is unbounded.
	Bounds []Bound
}

// Solver settings.
const (
	curveFuncAbsTol = 1e-15
	curveFuncRelTol = 1e-12
	curveConvIters  = 20
	curveMaxIters   = 2000
)

// FitCurve fits the parameters of f to the data in x and y by minimising the
// sum of squared residuals. The search starts at opts.P0 and is kept within
// opts.Bounds by a change of variables.
//
// The parameters of the result are also reported as diagnostics under the
// function's parameter names, along with rsquared, and err when f has a single
// parameter. The covariance is estimated from the Jacobian at the solution and
// is filled with +Inf when it cannot be estimated.
func FitCurve(ctx context.Context, f Function, x, y []float64, opts CurveOptions) (*Result, error) {
	names := f.Params()
	np := len(names)
	if np == 0 {
		return nil, fmt.Errorf("curve function has no parameters")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("length mismatch: len(x)=%d, len(y)=%d", len(x), len(y))
	}
	if len(x) < np {
		return nil, fmt.Errorf("%w: need at least %d points for %d parameters, got %d", ErrInsufficientData, np, np, len(x))
	}

	p0 := opts.P0
	if p0 == nil {
		p0 = make([]float64, np)
		for i := range p0 {
			p0[i] = 1
		}
	}
	if len(p0) != np {
		return nil, fmt.Errorf("initial guess has %d values, function has %d parameters", len(p0), np)
	}

	var t transform
	if opts.Bounds != nil {
		if len(opts.Bounds) != np {
			return nil, fmt.Errorf("got %d bounds for %d parameters", len(opts.Bounds), np)
		}
		t = transform(opts.Bounds)
	}

	objective := func(z []float64) float64 {
		return SSR(f, t.params(z), x, y)
	}
	problem := optimize.Problem{
		Func: objective,
		Grad: func(grad, z []float64) {
			fd.Gradient(grad, objective, z, &fd.Settings{Formula: fd.Central})
		},
		Status: ctxStatus(ctx),
	}
	settings := &optimize.Settings{
		MajorIterations: curveMaxIters,
		Converger: &optimize.FunctionConverge{
			Absolute:   curveFuncAbsTol,
			Relative:   curveFuncRelTol,
			Iterations: curveConvIters,
		},
	}

	z0 := t.free(p0)
	if !finite(objective(z0)) {
		return nil, fmt.Errorf("%w: non-finite residuals at the initial guess %v", ErrNonconvergence, p0)
	}
	res, err := optimize.Minimize(problem, z0, settings, &optimize.BFGS{})
	err = converged(res, err)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Quasi-Newton line searches can stall on a noisy finite difference
		// gradient, retry from where it stopped with a derivative free method.
		start := z0
		if res != nil && finite(res.F) {
			start = res.X
		}
		res, err = optimize.Minimize(problem, start, settings, &optimize.NelderMead{})
		err = converged(res, err)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", ErrNonconvergence, err)
		}
	}
	if !finite(res.F) {
		return nil, fmt.Errorf("%w: non-finite residuals", ErrNonconvergence)
	}

	params := t.params(res.X)
	fitted := Eval(f, params, x)

	attrs := make(map[string]float64, np+2)
	for i, name := range names {
		attrs[name] = params[i]
	}
	attrs[KeyRSquared] = RSquared(fitted, y)

	jac := mat.NewDense(len(x), np, nil)
	fd.Jacobian(jac, func(dst, p []float64) {
		for i, v := range x {
			dst[i] = f.Eval(v, p)
		}
	}, params, &fd.JacobianSettings{Formula: fd.Central})
	cov, err := covariance(jac, ssr(fitted, y))
	if err != nil {
		cov = infCov(np)
	}
	if np == 1 {
		attrs[KeyErr] = math.Sqrt(cov.At(0, 0))
	}

	return NewResult(Curve, params, attrs, cov, func(x []float64) []float64 { return Eval(f, params, x) }), nil
}

// ctxStatus returns an optimize status function that stops a minimisation
// when ctx is done.
func ctxStatus(ctx context.Context) func() (optimize.Status, error) {
	return func() (optimize.Status, error) {
		if err := ctx.Err(); err != nil {
			return optimize.Failure, err
		}
		return optimize.NotTerminated, nil
	}
}

// converged returns an error if a minimisation did not reach a minimum.
func converged(res *optimize.Result, err error) error {
	if err != nil {
		return err
	}
	if res == nil {
		return fmt.Errorf("no result")
	}
	switch res.Status {
	case optimize.Failure, optimize.IterationLimit, optimize.RuntimeLimit,
		optimize.FunctionEvaluationLimit, optimize.GradientEvaluationLimit,
		optimize.HessianEvaluationLimit, optimize.FunctionNegativeInfinity:
		return fmt.Errorf("optimizer stopped with status %v", res.Status)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
