/*
DESCRIPTION
  filter.go provides filtering of sample pairs by fit range.

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
	"math"
)

// bounds returns the interval of a fit range. Ends that depend on the data
// keep every point, so they are unbounded.
func (r Range) bounds() (lo, hi float64) {
	lo, hi = math.Inf(-1), math.Inf(1)
	if r.Min.Kind == Value {
		lo = r.Min.Value
	}
	if r.Max.Kind == Value {
		hi = r.Max.Value
	}
	return lo, hi
}

// Filter returns the points of x and y where neither value is NaN and both
// lie within their closed range. If no point remains the error wraps
// ErrInsufficientData.
func Filter(x, y []float64, xr, yr Range) ([]float64, []float64, error) {
	if len(x) != len(y) {
		return nil, nil, fmt.Errorf("length mismatch: len(x)=%d, len(y)=%d", len(x), len(y))
	}
	xlo, xhi := xr.bounds()
	ylo, yhi := yr.bounds()
	var fx, fy []float64
	for i := range x {
		vx, vy := x[i], y[i]
		if math.IsNaN(vx) || math.IsNaN(vy) {
			continue
		}
		if vx < xlo || vx > xhi || vy < ylo || vy > yhi {
			continue
		}
		fx = append(fx, vx)
		fy = append(fy, vy)
	}
	if len(fx) == 0 {
		return nil, nil, fmt.Errorf("%w: no points of %d in range", ErrInsufficientData, len(x))
	}
	return fx, fy, nil
}
