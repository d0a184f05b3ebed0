/*
DESCRIPTION
  config.go provides the fit engine configuration, its process wide defaults
  and the broadcasting of per pair options across sample pairs.

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
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/ausocean/regfit/bootstrap"
	"github.com/ausocean/regfit/model"
)

// LimitKind says how one end of a Range is resolved.
type LimitKind int

// Limit kinds.
const (
	Value   LimitKind = iota // A fixed value.
	MinMax                   // The data's extremum, ignoring NaN.
	Rounded                  // The data's extremum extended to a nice number.
)

// Limit is one end of a Range.
type Limit struct {
	Kind  LimitKind
	Value float64
}

// At returns a Limit with a fixed value.
func At(v float64) Limit { return Limit{Kind: Value, Value: v} }

// ParseLimit parses "minmax", "rounded" or a number.
func ParseLimit(tok string) (Limit, error) {
	switch t := strings.ToLower(strings.TrimSpace(tok)); t {
	case "minmax":
		return Limit{Kind: MinMax}, nil
	case "rounded":
		return Limit{Kind: Rounded}, nil
	default:
		v, err := strconv.ParseFloat(t, 64)
		if err != nil || math.IsNaN(v) {
			return Limit{}, configError("limit must be a number, 'minmax' or 'rounded', not %q", tok)
		}
		return At(v), nil
	}
}

// Range is a closed interval whose ends may depend on the data.
type Range struct {
	Min, Max Limit
}

// DataRange is the data's own extent.
var DataRange = Range{Min: Limit{Kind: MinMax}, Max: Limit{Kind: MinMax}}

// RoundedRange is the data's extent extended to nice numbers.
var RoundedRange = Range{Min: Limit{Kind: Rounded}, Max: Limit{Kind: Rounded}}

// Fixed returns the Range [min, max].
func Fixed(min, max float64) Range { return Range{Min: At(min), Max: At(max)} }

func (r Range) validate() error {
	if r.Min.Kind == Value && r.Max.Kind == Value && r.Min.Value > r.Max.Value {
		return configError("range minimum %v exceeds maximum %v", r.Min.Value, r.Max.Value)
	}
	return nil
}

// FixPoint is a point that a straight line fit must pass through.
type FixPoint struct {
	X, Y float64
}

// FixAt returns the fix point (0, y), the meaning of a scalar fix value.
func FixAt(y float64) *FixPoint { return &FixPoint{Y: y} }

// Guess is the initial guess of the parameters of a curve fit.
type Guess struct {
	// Auto requests estimation of the initial parameters from the bounds.
	Auto bool

	// Values holds one value per parameter. If nil and Auto is false the
	// solver starts with every parameter at 1.
	Values []float64
}

// AutoGuess requests automatic estimation of the initial parameters.
var AutoGuess = Guess{Auto: true}

// Config holds the engine configuration. Every list holds either a single
// value used for all sample pairs, or one value per pair. A list shorter
// than the number of pairs is repeated. An empty list selects the default.
type Config struct {
	Methods  []Method        // Default Linear.
	XRange   []Range         // Fit range of x. Default DataRange.
	YRange   []Range         // Fit range of y. Default DataRange.
	LineXLim []Range         // Extent of the evaluation grid. Default DataRange.
	Bounds   [][]model.Bound // Curve parameter bounds, repeated over the parameters. Default unbounded.
	P0       []Guess         // Curve initial guess. Default AutoGuess.
	Fix      []*FixPoint     // Straight line fix points; nil for none.

	// Transpose swaps x and y before fitting.
	Transpose bool

	// NBoot is the number of bootstrap resamples, CI the confidence level in
	// percent and Seed the resampling seed. Nil selects the Defaults value.
	// Zero NBoot or CI disables the confidence band.
	NBoot *int
	CI    *float64
	Seed  *int64
}

// Settings holds the process wide defaults of the bootstrap options.
type Settings struct {
	NBoot int
	CI    float64
	Seed  *int64 // If nil, resampling is seeded from the clock.
}

var (
	defaultsMu sync.RWMutex
	defaults   = Settings{NBoot: bootstrap.DefaultResamples, CI: bootstrap.DefaultLevel}
)

// Defaults returns the process wide defaults.
func Defaults() Settings {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()
	return defaults
}

// SetDefaults replaces the process wide defaults. Engines read them at the
// start of every fit.
func SetDefaults(s Settings) {
	defaultsMu.Lock()
	defaults = s
	defaultsMu.Unlock()
}

// PairConfig is the configuration of a single sample pair after
// broadcasting.
type PairConfig struct {
	Method   Method
	XRange   Range
	YRange   Range
	LineXLim Range
	Bounds   []model.Bound // One per parameter, or nil.
	P0       Guess
	Fix      *FixPoint
}

// cyclic returns element i of s, repeating s if it is shorter than i+1, or
// def if s is empty.
func cyclic[T any](s []T, i int, def T) T {
	if len(s) == 0 {
		return def
	}
	return s[i%len(s)]
}

// Validate checks the parts of the configuration that do not depend on the
// number of sample pairs.
func (c *Config) Validate() error {
	for _, m := range c.Methods {
		if err := m.validate(); err != nil {
			return err
		}
	}
	for _, rs := range [][]Range{c.XRange, c.YRange, c.LineXLim} {
		for _, r := range rs {
			if err := r.validate(); err != nil {
				return err
			}
		}
	}
	for i, bs := range c.Bounds {
		for j, b := range bs {
			if err := b.Valid(); err != nil {
				return configError("bounds %d, parameter %d: %v", i, j, err)
			}
		}
	}
	for i, g := range c.P0 {
		for _, v := range g.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return configError("initial guess %d is not finite: %v", i, g.Values)
			}
		}
	}
	if c.NBoot != nil && *c.NBoot < 0 {
		return configError("negative number of bootstrap resamples %d", *c.NBoot)
	}
	if c.CI != nil && (*c.CI < 0 || *c.CI > 100 || math.IsNaN(*c.CI)) {
		return configError("confidence level %v not in [0, 100]", *c.CI)
	}
	return nil
}

// Resolve broadcasts the configuration over n sample pairs. Parameter bounds
// are repeated over the parameters of the pair's method.
func (c *Config) Resolve(n int) ([]PairConfig, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	pcs := make([]PairConfig, n)
	for i := range pcs {
		pc := PairConfig{
			Method:   cyclic(c.Methods, i, Linear),
			XRange:   cyclic(c.XRange, i, DataRange),
			YRange:   cyclic(c.YRange, i, DataRange),
			LineXLim: cyclic(c.LineXLim, i, DataRange),
			P0:       cyclic(c.P0, i, AutoGuess),
			Fix:      cyclic(c.Fix, i, nil),
		}
		np := pc.Method.NumParams()
		bs := cyclic(c.Bounds, i, nil)
		if pc.Method.Kind == model.Curve {
			if len(bs) > np {
				return nil, configError("pair %d: %d bounds for %d parameters", i, len(bs), np)
			}
			if len(bs) != 0 {
				pc.Bounds = make([]model.Bound, np)
				for j := range pc.Bounds {
					pc.Bounds[j] = bs[j%len(bs)]
				}
			}
			if pc.P0.Values != nil && len(pc.P0.Values) != np {
				return nil, configError("pair %d: %d initial values for %d parameters", i, len(pc.P0.Values), np)
			}
		}
		pcs[i] = pc
	}
	return pcs, nil
}

// band returns the bootstrap settings, with ok false if no band is wanted.
func (c *Config) band() (opts bootstrap.Options, ok bool) {
	d := Defaults()
	opts = bootstrap.Options{N: d.NBoot, Level: d.CI, Seed: d.Seed}
	if c.NBoot != nil {
		opts.N = *c.NBoot
	}
	if c.CI != nil {
		opts.Level = *c.CI
	}
	if c.Seed != nil {
		opts.Seed = c.Seed
	}
	return opts, opts.N > 0 && opts.Level > 0
}
