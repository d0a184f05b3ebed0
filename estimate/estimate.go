/*
DESCRIPTION
  estimate.go provides automatic estimation of initial curve fit parameters
  by a global search over the parameter bounds.

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

// Package estimate provides automatic estimation of the initial parameters of
// a curve fit. The sum of squared residuals is minimised by a random global
// search over the hyper-rectangle given by finite parameter bounds.
package estimate

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/ausocean/regfit/model"
)

// Errors returned by Initial.
var (
	ErrBoundsRequired = errors.New("finite parameter bounds required for automatic initial parameter estimation")
	ErrFailed         = errors.New("could not estimate initial parameters")
)

// Search size defaults.
const (
	minSamples      = 1000
	samplesPerParam = 500
)

// Options holds search settings.
type Options struct {
	// Samples is the number of candidate parameter vectors drawn. If zero,
	// a default based on the number of parameters is used.
	Samples int

	// Src is the source of candidate draws. If nil, the global source is
	// used and the search is not repeatable.
	Src rand.Source
}

// Initial returns the parameters within bounds that minimise the sum of
// squared residuals of f against (x, y), found by uniform random search of
// the bounds. There must be one finite bound per parameter, otherwise
// ErrBoundsRequired is returned. If the search finds no finite objective
// value the returned error wraps ErrFailed with the reason.
func Initial(ctx context.Context, f model.Function, x, y []float64, bounds []model.Bound, opts Options) ([]float64, error) {
	np := len(f.Params())
	if len(bounds) != np || !model.AllFinite(bounds) {
		return nil, ErrBoundsRequired
	}

	ivs := make([]r1.Interval, np)
	init := make([]float64, np)
	for i, b := range bounds {
		if err := b.Valid(); err != nil {
			return nil, fmt.Errorf("invalid bound for parameter %d: %w", i, err)
		}
		ivs[i] = r1.Interval{Min: b.Lo, Max: b.Hi}
		init[i] = (b.Lo + b.Hi) / 2
	}

	n := opts.Samples
	if n <= 0 {
		n = max(minSamples, samplesPerParam*np)
	}

	problem := optimize.Problem{
		Func: func(p []float64) float64 {
			v := model.SSR(f, p, x, y)
			if math.IsNaN(v) {
				return math.Inf(1)
			}
			return v
		},
		Status: func() (optimize.Status, error) {
			if err := ctx.Err(); err != nil {
				return optimize.Failure, err
			}
			return optimize.NotTerminated, nil
		},
	}
	settings := &optimize.Settings{
		FuncEvaluations: n,
		Converger:       optimize.NeverTerminate{},
	}
	method := &optimize.GuessAndCheck{Rander: distmv.NewUniform(ivs, opts.Src)}

	res, err := optimize.Minimize(problem, init, settings, method)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if res == nil {
		return nil, fmt.Errorf("%w: %v", ErrFailed, err)
	}
	if math.IsInf(res.F, 0) || math.IsNaN(res.F) {
		reason := fmt.Sprintf("no finite objective value after %d evaluations (status %v)", res.Stats.FuncEvaluations, res.Status)
		if err != nil {
			reason = err.Error()
		}
		return nil, fmt.Errorf("%w: %s", ErrFailed, reason)
	}
	return res.X, nil
}
