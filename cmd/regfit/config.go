/*
DESCRIPTION
  config.go provides reading of the regfit configuration file and its
  conversion to an engine configuration.

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
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/ausocean/utils/filemap"
	"github.com/ausocean/utils/sliceutils"

	"github.com/ausocean/regfit/engine"
	"github.com/ausocean/regfit/model"
)

// Config keys.
var configKeys = []string{
	"fit",       // Methods, e.g. fit, robust, poly2, curve:exp or none.
	"fix",       // Fix points: none, y or x,y.
	"xrange",    // Fit ranges of x: min,max, each a number, minmax or rounded.
	"yrange",    // Fit ranges of y.
	"line_xlim", // Extents of the evaluation grids.
	"bounds",    // Curve parameter bounds: lo:hi,lo:hi. An empty end is infinite.
	"p0",        // Curve initial guesses: auto, none or values.
	"nboot",     // Number of bootstrap resamples, 0 for none.
	"ci",        // Confidence level in percent, or none.
	"seed",      // Resampling seed, or none.
	"transpose", // Fit x on y.
	"ideal",     // Ideal line parameters: none or values, intercept,slope for straight lines.
}

// Separators of config values. Per pair values are separated by pairSep and
// the items of a value by itemSep.
const (
	pairSep  = ";"
	itemSep  = ","
	boundSep = ":"
)

var errUnknownKey = errors.New("unknown config key")

// readConfig reads the config file at path, if any, then applies the
// space separated key=value overrides in set.
func readConfig(path, set string) (map[string]string, error) {
	vals := make(map[string]string)
	if path != "" {
		var err error
		vals, err = filemap.ReadFrom(path, "\n", " ")
		if err != nil {
			return nil, err
		}
		if vals == nil {
			vals = make(map[string]string)
		}
	}
	if set != "" {
		for k, v := range filemap.Split(set, " ", "=") {
			vals[k] = v
		}
	}

	for k := range vals {
		if k == "" || strings.HasPrefix(k, "#") {
			delete(vals, k)
			continue
		}
		if !sliceutils.ContainsString(configKeys, k) {
			return nil, fmt.Errorf("%w: %s", errUnknownKey, k)
		}
	}
	return vals, nil
}

// writeConfigDigest writes the config values to w in key order.
func writeConfigDigest(w io.Writer, vals map[string]string) {
	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s %s\n", k, vals[k])
	}
}

// parseConfig returns the engine configuration given by vals.
func parseConfig(vals map[string]string) (engine.Config, error) {
	var cfg engine.Config
	var err error

	cfg.Methods, err = parseList(vals["fit"], engine.ParseMethod)
	if err != nil {
		return cfg, fmt.Errorf("fit: %w", err)
	}
	cfg.Fix, err = parseList(vals["fix"], parseFix)
	if err != nil {
		return cfg, fmt.Errorf("fix: %w", err)
	}
	cfg.XRange, err = parseList(vals["xrange"], parseRange)
	if err != nil {
		return cfg, fmt.Errorf("xrange: %w", err)
	}
	cfg.YRange, err = parseList(vals["yrange"], parseRange)
	if err != nil {
		return cfg, fmt.Errorf("yrange: %w", err)
	}
	cfg.LineXLim, err = parseList(vals["line_xlim"], parseRange)
	if err != nil {
		return cfg, fmt.Errorf("line_xlim: %w", err)
	}
	cfg.Bounds, err = parseList(vals["bounds"], parseBounds)
	if err != nil {
		return cfg, fmt.Errorf("bounds: %w", err)
	}
	cfg.P0, err = parseList(vals["p0"], parseGuess)
	if err != nil {
		return cfg, fmt.Errorf("p0: %w", err)
	}

	if v, ok := vals["nboot"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("nboot: %w", err)
		}
		cfg.NBoot = &n
	}
	if v, ok := vals["ci"]; ok {
		ci := 0.0
		if !isNone(v) {
			ci, err = strconv.ParseFloat(v, 64)
			if err != nil {
				return cfg, fmt.Errorf("ci: %w", err)
			}
		}
		cfg.CI = &ci
	}
	if v, ok := vals["seed"]; ok && !isNone(v) {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("seed: %w", err)
		}
		cfg.Seed = &seed
	}
	if v, ok := vals["transpose"]; ok {
		cfg.Transpose, err = strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("transpose: %w", err)
		}
	}
	return cfg, cfg.Validate()
}

// parseList parses the per pair values of s with parse.
func parseList[T any](s string, parse func(string) (T, error)) ([]T, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var l []T
	for _, tok := range strings.Split(s, pairSep) {
		v, err := parse(strings.TrimSpace(tok))
		if err != nil {
			return nil, err
		}
		l = append(l, v)
	}
	return l, nil
}

func isNone(s string) bool { return strings.EqualFold(strings.TrimSpace(s), "none") }

// parseFloats parses the itemSep separated numbers of s.
func parseFloats(s string) ([]float64, error) {
	var f []float64
	for _, tok := range strings.Split(s, itemSep) {
		v, err := strconv.ParseFloat(strings.TrimSpace(tok), 64)
		if err != nil {
			return nil, err
		}
		f = append(f, v)
	}
	return f, nil
}

// parseFix parses none, a y value meaning the point (0, y), or x,y.
func parseFix(s string) (*engine.FixPoint, error) {
	if isNone(s) {
		return nil, nil
	}
	f, err := parseFloats(s)
	if err != nil {
		return nil, err
	}
	switch len(f) {
	case 1:
		return engine.FixAt(f[0]), nil
	case 2:
		return &engine.FixPoint{X: f[0], Y: f[1]}, nil
	}
	return nil, fmt.Errorf("%w: fix point must be a number or x,y, not %q", engine.ErrConfig, s)
}

// parseRange parses min,max, or a single token used for both ends.
func parseRange(s string) (engine.Range, error) {
	toks := strings.Split(s, itemSep)
	if len(toks) == 1 {
		toks = append(toks, toks[0])
	}
	if len(toks) != 2 {
		return engine.Range{}, fmt.Errorf("%w: range must be min,max, not %q", engine.ErrConfig, s)
	}
	lo, err := engine.ParseLimit(toks[0])
	if err != nil {
		return engine.Range{}, err
	}
	hi, err := engine.ParseLimit(toks[1])
	if err != nil {
		return engine.Range{}, err
	}
	return engine.Range{Min: lo, Max: hi}, nil
}

// parseBounds parses none or lo:hi,lo:hi. An empty end is infinite and none
// leaves every parameter unbounded.
func parseBounds(s string) ([]model.Bound, error) {
	if isNone(s) {
		return nil, nil
	}
	var bs []model.Bound
	for _, tok := range strings.Split(s, itemSep) {
		ends := strings.Split(strings.TrimSpace(tok), boundSep)
		if len(ends) != 2 {
			return nil, fmt.Errorf("%w: bound must be lo:hi, not %q", engine.ErrConfig, tok)
		}
		b := model.Open
		var err error
		if ends[0] != "" {
			b.Lo, err = strconv.ParseFloat(ends[0], 64)
			if err != nil {
				return nil, err
			}
		}
		if ends[1] != "" {
			b.Hi, err = strconv.ParseFloat(ends[1], 64)
			if err != nil {
				return nil, err
			}
		}
		if math.IsNaN(b.Lo) || math.IsNaN(b.Hi) {
			return nil, fmt.Errorf("%w: NaN bound %q", engine.ErrConfig, tok)
		}
		bs = append(bs, b)
	}
	return bs, nil
}

// parseIdeal returns the per pair ideal line parameters given by vals. A nil
// entry means no ideal line.
func parseIdeal(vals map[string]string) ([][]float64, error) {
	ideal, err := parseList(vals["ideal"], func(s string) ([]float64, error) {
		if isNone(s) {
			return nil, nil
		}
		return parseFloats(s)
	})
	if err != nil {
		return nil, fmt.Errorf("ideal: %w", err)
	}
	return ideal, nil
}

// parseGuess parses auto, none or initial parameter values.
func parseGuess(s string) (engine.Guess, error) {
	switch {
	case strings.EqualFold(s, "auto"):
		return engine.AutoGuess, nil
	case isNone(s):
		return engine.Guess{}, nil
	}
	f, err := parseFloats(s)
	if err != nil {
		return engine.Guess{}, err
	}
	return engine.Guess{Values: f}, nil
}
