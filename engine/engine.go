/*
DESCRIPTION
  engine.go provides the fit engine, which filters each sample pair, fits the
  configured model, evaluates the fit on a grid and estimates a bootstrap
  confidence band around it.

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

// Package engine fits regression models to sample pairs. It selects the
// model configured for each pair, filters the data by range, constrains
// straight lines to fix points, seeds curve fits by global search, evaluates
// the fitted curve on a grid and estimates a bootstrap confidence band.
//
// Sample pairs are independent: a pair that cannot be fitted reports its
// error on its own Line and never stops the others.
package engine

import (
	"context"
	"errors"

	"github.com/ausocean/utils/logging"
	"golang.org/x/exp/rand"

	"github.com/ausocean/regfit/bootstrap"
	"github.com/ausocean/regfit/estimate"
	"github.com/ausocean/regfit/model"
)

// Pair is a sample pair and the metadata of its source.
type Pair struct {
	Name  string            // Name of the value array.
	XName string            // Name of the coordinate.
	X, Y  []float64         // Equal length; NaN marks a missing value.
	Attrs map[string]string // Source attributes, copied to the Line.
}

// Line is the outcome of fitting one sample pair.
//
// X and Y hold the fitted curve on the evaluation grid, or the unfiltered
// data when the method is NoFit. Lower and Upper hold the confidence band
// of Y, or are nil when no band was computed. When the configuration is
// transposed the fit is made of x on y, so X holds the fitted values and the
// band bounds X.
type Line struct {
	Index        int
	Name, XName  string
	Attrs        map[string]string
	Method       Method
	Result       *model.Result // Nil if no fit was made.
	X, Y         []float64
	Lower, Upper []float64
	Warnings     []Warning
	Err          error // The error that stopped the fit, if any.
}

// fitFunc fits a model to x and y.
type fitFunc func(x, y []float64) (*model.Result, error)

// Engine fits the models of a Config.
type Engine struct {
	cfg Config
	log logging.Logger
}

// New returns a new Engine for the configuration, or an error wrapping
// ErrConfig if the configuration is malformed.
func New(cfg Config, log logging.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, log: log}, nil
}

// Fit fits every sample pair and returns one Line per pair, in order. An
// error is returned only for a configuration that cannot be broadcast over
// the pairs, before any data is used, or when ctx is done.
func (e *Engine) Fit(ctx context.Context, pairs []Pair) ([]Line, error) {
	pcs, err := e.cfg.Resolve(len(pairs))
	if err != nil {
		return nil, err
	}
	bopts, wantBand := e.cfg.band()
	e.log.Debug("fitting sample pairs", "pairs", len(pairs), "resamples", bopts.N, "level", bopts.Level, "band", wantBand)

	lines := make([]Line, len(pairs))
	for i, p := range pairs {
		l := &lines[i]
		*l = Line{Index: i, Name: p.Name, XName: p.XName, Attrs: copyAttrs(p.Attrs), Method: pcs[i].Method}
		e.fitPair(ctx, l, p, pcs[i], bopts, wantBand)
	}
	return lines, ctx.Err()
}

// fitPair fills in l for the sample pair p.
func (e *Engine) fitPair(ctx context.Context, l *Line, p Pair, pc PairConfig, bopts bootstrap.Options, wantBand bool) {
	if pc.Method.Kind == model.None {
		l.X, l.Y = p.X, p.Y
		return
	}
	x, y := p.X, p.Y
	if e.cfg.Transpose {
		x, y = y, x
	}

	fx, fy, err := Filter(x, y, pc.XRange, pc.YRange)
	if err != nil {
		e.fail(l, err)
		return
	}
	e.log.Debug("filtered sample pair", "index", l.Index, "points", len(x), "kept", len(fx))

	lo, hi, err := pc.LineXLim.Limits(fx)
	if err != nil {
		e.fail(l, err)
		return
	}
	grid := Grid(lo, hi)

	fit := e.fitter(ctx, l, pc, fx, fy)
	res, err := fit(fx, fy)
	if err != nil {
		e.fail(l, err)
		return
	}
	l.Result = res
	l.X, l.Y = grid, res.Predict(grid)
	e.log.Debug("fitted sample pair", "index", l.Index, "method", pc.Method.String(), "min", lo, "max", hi)

	if wantBand {
		predict := func(x, y []float64) ([]float64, error) {
			r, err := fit(x, y)
			if err != nil {
				return nil, err
			}
			return r.Predict(grid), nil
		}
		opts := bopts
		if pc.Method.Kind == model.External {
			// Caller estimators need not be safe for concurrent use.
			opts.Workers = 1
		}
		b, err := bootstrap.Estimate(ctx, fx, fy, len(grid), predict, opts)
		switch {
		case err == nil:
			l.Lower, l.Upper = b.Lower, b.Upper
			e.log.Debug("estimated confidence band", "index", l.Index, "resamples", b.Resamples, "failed", b.Failed)
		case ctx.Err() != nil:
			l.Err = err
		default:
			e.warn(l, BandFailed, err)
		}

		// A caller estimator may keep its state on the receiver, so the
		// resample fits can have changed the base result. Fit the data last.
		if pc.Method.Kind == model.External && l.Err == nil {
			res, err := fit(fx, fy)
			if err != nil {
				l.Lower, l.Upper = nil, nil
				e.fail(l, err)
				return
			}
			l.Result = res
			l.Y = res.Predict(grid)
		}
	}

	if e.cfg.Transpose {
		l.X, l.Y = l.Y, l.X
	}
}

// fitter returns the fit function of the pair's method. For a curve with an
// automatic initial guess the parameters are estimated from x and y once, and
// the estimate is used for every later fit. A configured seed also seeds the
// estimate.
func (e *Engine) fitter(ctx context.Context, l *Line, pc PairConfig, x, y []float64) fitFunc {
	m := pc.Method
	if pc.Fix != nil && !m.Kind.IsLinear() {
		e.log.Debug("ignoring fix point of non linear method", "index", l.Index, "method", m.String())
	}

	switch m.Kind {
	case model.Linear, model.Robust:
		if pc.Fix != nil {
			fp := *pc.Fix
			return func(x, y []float64) (*model.Result, error) { return fitThrough(m.Kind, x, y, fp) }
		}
		if m.Kind == model.Robust {
			return func(x, y []float64) (*model.Result, error) { return model.FitRobust(x, y, false) }
		}
		return func(x, y []float64) (*model.Result, error) { return model.FitLinear(x, y, false) }

	case model.Poly:
		return func(x, y []float64) (*model.Result, error) { return model.FitPoly(x, y, m.Degree) }

	case model.External:
		return func(x, y []float64) (*model.Result, error) { return model.FitExternal(m.Estimator, x, y) }
	}

	opts := model.CurveOptions{P0: pc.P0.Values, Bounds: pc.Bounds}
	if pc.P0.Auto {
		var eopts estimate.Options
		if b, _ := e.cfg.band(); b.Seed != nil {
			eopts.Src = rand.NewSource(uint64(*b.Seed))
		}
		p0, err := estimate.Initial(ctx, m.Func, x, y, pc.Bounds, eopts)
		switch {
		case err == nil:
			opts.P0 = p0
			e.log.Debug("estimated initial parameters", "index", l.Index, "p0", p0)
		case errors.Is(err, estimate.ErrBoundsRequired):
			e.warn(l, BoundsRequired, err)
		case ctx.Err() == nil:
			e.warn(l, EstimationFailed, err)
		}
	}
	return func(x, y []float64) (*model.Result, error) { return model.FitCurve(ctx, m.Func, x, y, opts) }
}

// fail records the error of a pair that could not be fitted.
func (e *Engine) fail(l *Line, err error) {
	l.Err = err
	switch {
	case errors.Is(err, ErrInsufficientData):
		e.warn(l, InsufficientData, err)
	case errors.Is(err, ErrNonconvergence):
		e.warn(l, FitNonconvergence, err)
	default:
		e.log.Warning("could not fit sample pair", "index", l.Index, "error", err.Error())
	}
}

// warn records and logs a warning.
func (e *Engine) warn(l *Line, kind WarningKind, err error) {
	w := Warning{Kind: kind, Index: l.Index, Msg: err.Error()}
	l.Warnings = append(l.Warnings, w)
	e.log.Warning(kind.String(), "index", l.Index, "error", w.Msg)
}

func copyAttrs(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
