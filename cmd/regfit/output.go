/*
DESCRIPTION
  output.go provides the JSON encoding of fitted lines.

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

package main

import (
	"encoding/json"
	"io"
	"math"

	"github.com/ausocean/regfit/engine"
)

// outputJSON is the document written by regfit.
type outputJSON struct {
	Digest string     `json:"digest"` // Hash of the input and config.
	Lines  []lineJSON `json:"lines"`
}

// lineJSON is the encoding of an engine.Line. Non-finite values are null,
// and non-finite diagnostics are left out.
type lineJSON struct {
	Index       int                `json:"index"`
	Name        string             `json:"name,omitempty"`
	XName       string             `json:"xname,omitempty"`
	Method      string             `json:"method"`
	Label       string             `json:"label,omitempty"`
	Params      []*float64         `json:"params,omitempty"`
	Diagnostics map[string]float64 `json:"diagnostics,omitempty"`
	Cov         [][]*float64       `json:"cov,omitempty"`
	X           []*float64         `json:"x"`
	Y           []*float64         `json:"y"`
	Lower       []*float64         `json:"lower,omitempty"`
	Upper       []*float64         `json:"upper,omitempty"`
	Attrs       map[string]string  `json:"attrs,omitempty"`
	Warnings    []string           `json:"warnings,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// writeOutput writes the lines as indented JSON. If label is not empty it
// is formatted with the diagnostics of each fit.
func writeOutput(w io.Writer, digest string, lines []engine.Line, label string) error {
	out := outputJSON{Digest: digest, Lines: make([]lineJSON, len(lines))}
	for i, l := range lines {
		lj := lineJSON{
			Index:  l.Index,
			Name:   l.Name,
			XName:  l.XName,
			Method: l.Method.String(),
			X:      nullable(l.X),
			Y:      nullable(l.Y),
			Lower:  nullable(l.Lower),
			Upper:  nullable(l.Upper),
			Attrs:  l.Attrs,
		}
		if res := l.Result; res != nil {
			lj.Params = nullable(res.Params)
			for k, v := range res.Attrs {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					continue
				}
				if lj.Diagnostics == nil {
					lj.Diagnostics = make(map[string]float64)
				}
				lj.Diagnostics[k] = v
			}
			if res.Cov != nil {
				r, _ := res.Cov.Dims()
				for j := 0; j < r; j++ {
					lj.Cov = append(lj.Cov, nullable(res.Cov.RawRowView(j)))
				}
			}
			if label != "" {
				lj.Label = res.Format(label)
			}
		}
		for _, warn := range l.Warnings {
			lj.Warnings = append(lj.Warnings, warn.String())
		}
		if l.Err != nil {
			lj.Error = l.Err.Error()
		}
		out.Lines[i] = lj
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// nullable returns v with non-finite values replaced by nil.
func nullable(v []float64) []*float64 {
	if v == nil {
		return nil
	}
	p := make([]*float64, len(v))
	for i := range v {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			continue
		}
		f := v[i]
		p[i] = &f
	}
	return p
}
