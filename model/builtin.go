/*
DESCRIPTION
  builtin.go provides named curve functions that can be selected by
  configuration.

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
)

var builtins = map[string]Func{
	// y = a·exp(b·x)
	"exp": NewFunc(func(x float64, p []float64) float64 {
		return p[0] * math.Exp(p[1]*x)
	}, "a", "b"),

	// y = a·x^b
	"power": NewFunc(func(x float64, p []float64) float64 {
		return p[0] * math.Pow(x, p[1])
	}, "a", "b"),

	// y = a + b·ln(x)
	"log": NewFunc(func(x float64, p []float64) float64 {
		return p[0] + p[1]*math.Log(x)
	}, "a", "b"),

	// y = L / (1 + exp(-k·(x - x0)))
	"logistic": NewFunc(func(x float64, p []float64) float64 {
		return p[0] / (1 + math.Exp(-p[1]*(x-p[2])))
	}, "L", "k", "x0"),

	// y = a²·x·(1 - x)
	"parabola": NewFunc(func(x float64, p []float64) float64 {
		return p[0] * p[0] * x * (1 - x)
	}, "a"),
}

// Builtin returns the named builtin curve function.
func Builtin(name string) (Function, error) {
	f, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown curve function: %q", name)
	}
	return f, nil
}

// BuiltinNames returns the names of the builtin curve functions.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for k := range builtins {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
