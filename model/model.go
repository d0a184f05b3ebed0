/*
DESCRIPTION
  model.go provides the Result type shared by every regression model, and
  the Kind enumeration used to tag which model produced a result.

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

// Package model provides the regression models used by regfit: ordinary and
// robust linear least squares, polynomial least squares, nonlinear least
// squares of an arbitrary function, and an adapter for caller-supplied
// estimators. Every model produces a Result holding the estimated parameters,
// a diagnostics mapping and a predictor.
package model

import (
	"errors"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Kind identifies a model variant.
type Kind int

// Model variants. None means that no fit is made.
const (
	None Kind = iota
	Linear
	Robust
	Poly
	Curve
	External
)

var kindNames = map[Kind]string{
	None:     "none",
	Linear:   "linear",
	Robust:   "robust",
	Poly:     "poly",
	Curve:    "curve",
	External: "external",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// IsLinear reports whether k is one of the straight line models.
func (k Kind) IsLinear() bool { return k == Linear || k == Robust }

// Errors returned by the models.
var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrNonconvergence   = errors.New("fit did not converge")
)

// Diagnostic keys shared by several models.
const (
	KeySlope     = "slope"
	KeyIntercept = "intercept"
	KeyRSquared  = "rsquared"
	KeyErr       = "err"
)

// Result is the outcome of a single fit. It is created once per fit and is
// not modified afterwards.
type Result struct {
	Kind   Kind
	Params []float64          // Estimated parameters.
	Attrs  map[string]float64 // Diagnostics, e.g. slope, intercept, rsquared.
	Cov    *mat.Dense         // Parameter covariance, nil when not derivable.

	predict func(x []float64) []float64
}

// NewResult returns a new Result. The attrs map is copied.
func NewResult(kind Kind, params []float64, attrs map[string]float64, cov *mat.Dense, predict func([]float64) []float64) *Result {
	a := make(map[string]float64, len(attrs))
	for k, v := range attrs {
		a[k] = v
	}
	p := make([]float64, len(params))
	copy(p, params)
	return &Result{Kind: kind, Params: p, Attrs: a, Cov: cov, predict: predict}
}

// Predict evaluates the fitted model at each value of x.
func (r *Result) Predict(x []float64) []float64 {
	return r.predict(x)
}

// Attr returns the diagnostic with the given key.
func (r *Result) Attr(key string) (float64, bool) {
	v, ok := r.Attrs[key]
	return v, ok
}

// Keys returns the diagnostic keys in sorted order.
func (r *Result) Keys() []string {
	keys := make([]string, 0, len(r.Attrs))
	for k := range r.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
