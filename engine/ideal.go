/*
DESCRIPTION
  ideal.go provides evaluation of reference curves with known parameters.

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
	"fmt"

	"github.com/ausocean/regfit/model"
)

// Ideal evaluates the curve of method m with the given parameters at each
// value of x. Straight lines take [intercept, slope], polynomials their
// coefficients lowest order first, and curves the parameters of their
// function.
func Ideal(m Method, params, x []float64) ([]float64, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	if m.Kind == model.None || m.Kind == model.External {
		return nil, fmt.Errorf("no ideal curve for method %v", m)
	}
	if np := m.NumParams(); len(params) != np {
		return nil, fmt.Errorf("method %v takes %d parameters, got %d", m, np, len(params))
	}
	if m.Kind == model.Curve {
		return model.Eval(m.Func, params, x), nil
	}
	// A straight line is the polynomial c0 + c1*x.
	return model.Polyval(params, x), nil
}
