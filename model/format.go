/*
DESCRIPTION
  format.go provides label templating from the diagnostics of a Result.

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
	"regexp"
	"strconv"
)

// placeholder matches %(key)<flags><width><.precision><verb> and %%.
var placeholder = regexp.MustCompile(`%(?:%|\((\w+)\)([-+ #0]*\d*(?:\.\d+)?)([sdifeEgGxX]))`)

// Format substitutes the diagnostics of r into tmpl. Placeholders have the
// form %(key)<spec><verb>, e.g. "%(slope)1.2f" or "%(rsquared)s", where verb
// is one of s, d, i, f, e, E, g, G, x or X. The s verb prints the shortest
// exact representation. Placeholders with unknown keys are left unchanged and
// %% yields a single %.
func (r *Result) Format(tmpl string) string {
	return placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		if m == "%%" {
			return "%"
		}
		sub := placeholder.FindStringSubmatch(m)
		key, spec, verb := sub[1], sub[2], sub[3]
		v, ok := r.Attrs[key]
		if !ok {
			return m
		}
		switch verb {
		case "s":
			return fmt.Sprintf("%"+spec+"s", strconv.FormatFloat(v, 'g', -1, 64))
		case "d", "i":
			return fmt.Sprintf("%"+spec+"d", int64(v))
		case "x", "X":
			return fmt.Sprintf("%"+spec+verb, int64(v))
		default:
			return fmt.Sprintf("%"+spec+verb, v)
		}
	})
}
