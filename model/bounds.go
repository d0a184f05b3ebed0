/*
DESCRIPTION
  bounds.go provides parameter bounds and the change of variables that maps
  an unconstrained search space onto a bounded parameter space.

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
)

// Bound is the closed admissible interval of one parameter. Either end may be
// infinite.
type Bound struct {
	Lo, Hi float64
}

// Open is the unbounded interval.
var Open = Bound{Lo: math.Inf(-1), Hi: math.Inf(1)}

// Finite reports whether both ends of b are finite.
func (b Bound) Finite() bool {
	return !math.IsInf(b.Lo, 0) && !math.IsInf(b.Hi, 0)
}

// Valid returns an error if b is not a proper interval.
func (b Bound) Valid() error {
	if math.IsNaN(b.Lo) || math.IsNaN(b.Hi) {
		return fmt.Errorf("bound %v contains NaN", b)
	}
	if b.Lo >= b.Hi {
		return fmt.Errorf("lower bound %v is not less than upper bound %v", b.Lo, b.Hi)
	}
	return nil
}

// AllFinite reports whether bounds is non-empty and every bound is finite.
func AllFinite(bounds []Bound) bool {
	if len(bounds) == 0 {
		return false
	}
	for _, b := range bounds {
		if !b.Finite() {
			return false
		}
	}
	return true
}

// toParam maps the unconstrained value z into b. Two sided bounds use a sine
// mapping and one sided bounds a hyperbolic one.
func (b Bound) toParam(z float64) float64 {
	loInf, hiInf := math.IsInf(b.Lo, -1), math.IsInf(b.Hi, 1)
	switch {
	case loInf && hiInf:
		return z
	case hiInf:
		return b.Lo - 1 + math.Sqrt(z*z+1)
	case loInf:
		return b.Hi + 1 - math.Sqrt(z*z+1)
	default:
		return b.Lo + (b.Hi-b.Lo)*(math.Sin(z)+1)/2
	}
}

// toFree is the inverse of toParam. The parameter p is first moved strictly
// inside b since the mappings are stationary at the bounds.
func (b Bound) toFree(p float64) float64 {
	loInf, hiInf := math.IsInf(b.Lo, -1), math.IsInf(b.Hi, 1)
	switch {
	case loInf && hiInf:
		return p
	case hiInf:
		p = math.Max(p, b.Lo+nudge(b.Lo))
		d := p - b.Lo + 1
		return math.Sqrt(d*d - 1)
	case loInf:
		p = math.Min(p, b.Hi-nudge(b.Hi))
		d := b.Hi - p + 1
		return math.Sqrt(d*d - 1)
	default:
		eps := (b.Hi - b.Lo) * 1e-3
		p = math.Min(math.Max(p, b.Lo+eps), b.Hi-eps)
		return math.Asin(2*(p-b.Lo)/(b.Hi-b.Lo) - 1)
	}
}

func nudge(v float64) float64 {
	return 1e-3 * math.Max(1, math.Abs(v))
}

// transform maps between the free search space and the parameter space for a
// set of bounds. A nil transform is the identity.
type transform []Bound

func (t transform) params(z []float64) []float64 {
	p := make([]float64, len(z))
	for i, v := range z {
		if t == nil {
			p[i] = v
			continue
		}
		p[i] = t[i].toParam(v)
	}
	return p
}

func (t transform) free(p []float64) []float64 {
	z := make([]float64, len(p))
	for i, v := range p {
		if t == nil {
			z[i] = v
			continue
		}
		z[i] = t[i].toFree(v)
	}
	return z
}
