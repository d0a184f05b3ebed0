/*
DESCRIPTION
  external.go adapts caller supplied estimators to the Result type.

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
	"errors"
	"fmt"
)

// Estimator is a caller supplied model. Fit is never called concurrently
// for one fit engine pair, but it is called once per bootstrap resample. A
// Predictor returned by Fit should not change when Fit is called again; if
// it does, the engine fits the full data last so that the result it reports
// matches its fitted curve.
type Estimator interface {
	Fit(x, y []float64) (Predictor, error)
}

// Predictor is a fitted caller supplied model.
type Predictor interface {
	Predict(x []float64) []float64
}

// Attributer may be implemented by a Predictor to expose diagnostics.
type Attributer interface {
	Attrs() map[string]float64
}

// Parameterizer may be implemented by a Predictor to expose its parameters.
type Parameterizer interface {
	Params() []float64
}

// FitExternal fits the estimator e to x and y. Diagnostics and parameters are
// taken from the fitted predictor if it implements Attributer or
// Parameterizer, and are otherwise empty.
func FitExternal(e Estimator, x, y []float64) (*Result, error) {
	if e == nil {
		return nil, errors.New("nil estimator")
	}
	if len(x) == 0 {
		return nil, fmt.Errorf("%w: no points to fit", ErrInsufficientData)
	}
	p, err := e.Fit(x, y)
	if err != nil {
		return nil, fmt.Errorf("external estimator failed: %w", err)
	}
	if p == nil {
		return nil, errors.New("external estimator returned no predictor")
	}

	var attrs map[string]float64
	if a, ok := p.(Attributer); ok {
		attrs = a.Attrs()
	}
	var params []float64
	if pp, ok := p.(Parameterizer); ok {
		params = pp.Params()
	}
	return NewResult(External, params, attrs, nil, p.Predict), nil
}
