/*
DESCRIPTION
  sampler.go provides the evaluation grid of fitted curves.

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
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
)

// GridSize is the number of points at which a fitted curve is evaluated.
const GridSize = 100

// Grid returns GridSize evenly spaced points from lo to hi inclusive.
func Grid(lo, hi float64) []float64 {
	return floats.Span(make([]float64, GridSize), lo, hi)
}

var errNoData = errors.New("no finite data")

// extent returns the minimum and maximum of the non NaN values of v.
func extent(v []float64) (lo, hi float64, err error) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, f := range v {
		if math.IsNaN(f) {
			continue
		}
		lo = math.Min(lo, f)
		hi = math.Max(hi, f)
	}
	if lo > hi {
		return 0, 0, errNoData
	}
	return lo, hi, nil
}

// Limits returns the interval given by r for the data v.
func (r Range) Limits(v []float64) (lo, hi float64, err error) {
	if r.Min.Kind == Value && r.Max.Kind == Value {
		return r.Min.Value, r.Max.Value, nil
	}
	dlo, dhi, err := extent(v)
	if err != nil {
		return 0, 0, err
	}
	nlo, nhi := nice(dlo, dhi)
	lo = pick(r.Min, dlo, nlo)
	hi = pick(r.Max, dhi, nhi)
	if lo > hi {
		return 0, 0, configError("resolved limits [%v, %v] are reversed", lo, hi)
	}
	return lo, hi, nil
}

func pick(l Limit, data, rounded float64) float64 {
	switch l.Kind {
	case MinMax:
		return data
	case Rounded:
		return rounded
	}
	return l.Value
}

// nice extends [lo, hi] outward to multiples of the major tick step that a
// plot axis would use for it.
func nice(lo, hi float64) (float64, float64) {
	if !(lo < hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return lo, hi
	}
	var major []float64
	for _, t := range (plot.DefaultTicks{}).Ticks(lo, hi) {
		if !t.IsMinor() {
			major = append(major, t.Value)
		}
	}
	if len(major) < 2 {
		return lo, hi
	}
	step := major[1] - major[0]
	if !(step > 0) {
		return lo, hi
	}
	return math.Floor(lo/step) * step, math.Ceil(hi/step) * step
}
