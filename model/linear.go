/*
DESCRIPTION
  linear.go provides ordinary and robust straight line least squares fits of
  y on x, optionally forced through the origin.

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
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Robust fit constants. Weights follow Huber's T norm and the residual scale
// is the median absolute residual normalised to a standard normal.
const (
	huberT      = 1.345
	madNorm     = 0.6744897501960817
	irlsMaxIter = 50
	irlsTol     = 1e-8
)

// FitLinear fits y = intercept + slope*x by ordinary least squares. If origin
// is true no intercept is fitted, the line passes through (0, 0) and R² is
// computed uncentered.
//
// The parameters of the result are [intercept, slope]. Diagnostics are slope,
// intercept (unless origin), rsquared and the standard errors slope_err and
// intercept_err. The covariance is that of [intercept, slope].
func FitLinear(x, y []float64, origin bool) (*Result, error) {
	err := checkLinear(x, y, origin)
	if err != nil {
		return nil, err
	}

	alpha, beta := stat.LinearRegression(x, y, nil, origin)
	sim := line(alpha, beta, x)

	attrs := map[string]float64{KeySlope: beta}
	if origin {
		attrs[KeyRSquared] = UncenteredRSquared(sim, y)
	} else {
		attrs[KeyIntercept] = alpha
		attrs[KeyRSquared] = stat.RSquared(x, y, nil, alpha, beta)
	}

	cov, err := covariance(design(x, origin), ssr(sim, y))
	if err == nil {
		se := StdErr(cov)
		if origin {
			attrs[KeySlope+"_err"] = se[0]
			// The intercept is fixed at zero.
			cov = mat.NewDense(2, 2, []float64{0, 0, 0, cov.At(0, 0)})
		} else {
			attrs[KeyIntercept+"_err"] = se[0]
			attrs[KeySlope+"_err"] = se[1]
		}
	}
	return NewResult(Linear, []float64{alpha, beta}, attrs, cov, lineFunc(alpha, beta)), nil
}

// FitRobust fits y = intercept + slope*x by iteratively reweighted least
// squares with Huber weights, limiting the influence of outliers. If origin is
// true no intercept is fitted.
//
// The parameters of the result are [intercept, slope]. Diagnostics are slope
// and intercept (unless origin); no R² is reported.
func FitRobust(x, y []float64, origin bool) (*Result, error) {
	err := checkLinear(x, y, origin)
	if err != nil {
		return nil, err
	}

	alpha, beta := stat.LinearRegression(x, y, nil, origin)
	w := make([]float64, len(x))
	resid := make([]float64, len(x))
	for i := 0; i < irlsMaxIter; i++ {
		for j := range x {
			resid[j] = y[j] - (alpha + beta*x[j])
		}
		scale := medianAbs(resid) / madNorm
		if scale == 0 {
			break
		}
		for j, r := range resid {
			u := math.Abs(r) / scale
			w[j] = 1
			if u > huberT {
				w[j] = huberT / u
			}
		}

		a, b := stat.LinearRegression(x, y, w, origin)
		done := math.Abs(a-alpha) <= irlsTol*(1+math.Abs(alpha)) && math.Abs(b-beta) <= irlsTol*(1+math.Abs(beta))
		alpha, beta = a, b
		if done {
			break
		}
	}

	attrs := map[string]float64{KeySlope: beta}
	if !origin {
		attrs[KeyIntercept] = alpha
	}
	return NewResult(Robust, []float64{alpha, beta}, attrs, nil, lineFunc(alpha, beta)), nil
}

// checkLinear checks that x and y can support a straight line fit.
func checkLinear(x, y []float64, origin bool) error {
	if len(x) != len(y) {
		return fmt.Errorf("length mismatch: len(x)=%d, len(y)=%d", len(x), len(y))
	}
	need := 2
	if origin {
		need = 1
	}
	if len(x) < need {
		return fmt.Errorf("%w: need at least %d points for a linear fit, got %d", ErrInsufficientData, need, len(x))
	}

	if origin {
		var s float64
		for _, v := range x {
			s += v * v
		}
		if s == 0 {
			return fmt.Errorf("%w: all x values are zero", ErrInsufficientData)
		}
		return nil
	}
	if stat.Variance(x, nil) == 0 {
		return fmt.Errorf("%w: x values have no spread", ErrInsufficientData)
	}
	return nil
}

// design returns the design matrix for a straight line fit, with a leading
// column of ones unless origin.
func design(x []float64, origin bool) *mat.Dense {
	if origin {
		return mat.NewDense(len(x), 1, append([]float64(nil), x...))
	}
	a := mat.NewDense(len(x), 2, nil)
	for i, v := range x {
		a.Set(i, 0, 1)
		a.Set(i, 1, v)
	}
	return a
}

func line(alpha, beta float64, x []float64) []float64 {
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = alpha + beta*v
	}
	return y
}

func lineFunc(alpha, beta float64) func([]float64) []float64 {
	return func(x []float64) []float64 { return line(alpha, beta, x) }
}

// medianAbs returns the median of the absolute values of s.
func medianAbs(s []float64) float64 {
	a := make([]float64, len(s))
	for i, v := range s {
		a[i] = math.Abs(v)
	}
	sort.Float64s(a)
	n := len(a)
	if n%2 == 1 {
		return a[n/2]
	}
	return (a[n/2-1] + a[n/2]) / 2
}
