/*
DESCRIPTION
  fix.go provides straight line fits constrained to pass through a fix point.

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

package engine

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ausocean/regfit/model"
)

// fitThrough fits a straight line of the given kind through p. The data are
// shifted so that p is the origin and fitted without an intercept. The
// reported intercept is p.Y - slope*p.X, which is 0 for a fix point at the
// origin. Diagnostics other than the intercept refer to the shifted frame.
// The covariance of [intercept, slope] follows from the slope variance alone,
// since the intercept is a linear function of the slope.
func fitThrough(kind model.Kind, x, y []float64, p FixPoint) (*model.Result, error) {
	xs, ys := x, y
	if p != (FixPoint{}) {
		xs = make([]float64, len(x))
		ys = make([]float64, len(y))
		for i := range x {
			xs[i] = x[i] - p.X
			ys[i] = y[i] - p.Y
		}
	}

	var res *model.Result
	var err error
	if kind == model.Robust {
		res, err = model.FitRobust(xs, ys, true)
	} else {
		res, err = model.FitLinear(xs, ys, true)
	}
	if err != nil {
		return nil, err
	}

	slope := res.Attrs[model.KeySlope]
	intercept := p.Y - slope*p.X
	attrs := make(map[string]float64, len(res.Attrs)+1)
	for k, v := range res.Attrs {
		attrs[k] = v
	}
	attrs[model.KeyIntercept] = intercept

	x0, y0 := p.X, p.Y
	var cov *mat.Dense
	if res.Cov != nil {
		vs := res.Cov.At(1, 1)
		cov = mat.NewDense(2, 2, []float64{
			x0 * x0 * vs, -x0 * vs,
			-x0 * vs, vs,
		})
		if _, ok := attrs[model.KeySlope+"_err"]; ok {
			attrs[model.KeyIntercept+"_err"] = math.Abs(x0) * math.Sqrt(vs)
		}
	}
	predict := func(x []float64) []float64 {
		y := make([]float64, len(x))
		for i, v := range x {
			y[i] = y0 + slope*(v-x0)
		}
		return y
	}
	return model.NewResult(kind, []float64{intercept, slope}, attrs, cov, predict), nil
}
