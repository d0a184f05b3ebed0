/*
DESCRIPTION
  engine_test.go provides testing of the fit engine.

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
	"context"
	"errors"
	"math"
	"math/rand"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/ausocean/utils/logging"
	"gonum.org/v1/gonum/floats"

	"github.com/ausocean/regfit/model"
)

// lineData returns n points of y = 2 + 3x on [0, 10] with additive noise of
// the given scale.
func lineData(n int, noise float64, seed int64) ([]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	x := floats.Span(make([]float64, n), 0, 10)
	y := make([]float64, n)
	for i, v := range x {
		y[i] = 2 + 3*v + rng.NormFloat64()*noise
	}
	return x, y
}

func intp(i int) *int           { return &i }
func floatp(f float64) *float64 { return &f }
func int64p(i int64) *int64     { return &i }

// newEngine returns an engine for cfg without a confidence band unless cfg
// asks for one.
func newEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	if cfg.NBoot == nil {
		cfg.NBoot = intp(0)
	}
	e, err := New(cfg, (*logging.TestLogger)(t))
	if err != nil {
		t.Fatalf("could not create engine: %v", err)
	}
	return e
}

// fitOne fits a single pair and fails the test on error.
func fitOne(t *testing.T, cfg Config, x, y []float64) Line {
	t.Helper()
	lines, err := newEngine(t, cfg).Fit(context.Background(), []Pair{{X: x, Y: y}})
	if err != nil {
		t.Fatalf("did not expect error from Fit: %v", err)
	}
	if lines[0].Err != nil {
		t.Fatalf("did not expect error fitting pair: %v", lines[0].Err)
	}
	return lines[0]
}

func TestLinear(t *testing.T) {
	x, y := lineData(500, 0.1, 1)
	l := fitOne(t, Config{}, x, y)

	slope, _ := l.Result.Attr(model.KeySlope)
	intercept, _ := l.Result.Attr(model.KeyIntercept)
	r2, _ := l.Result.Attr(model.KeyRSquared)
	if math.Abs(slope-3) > 0.01 {
		t.Errorf("unexpected slope. Got: %v, Want: 3", slope)
	}
	if math.Abs(intercept-2) > 0.05 {
		t.Errorf("unexpected intercept. Got: %v, Want: 2", intercept)
	}
	if r2 <= 0.8 {
		t.Errorf("unexpected rsquared. Got: %v, Want: > 0.8", r2)
	}
	if len(l.X) != GridSize || len(l.Y) != GridSize {
		t.Fatalf("unexpected grid size. Got: %d, %d, Want: %d", len(l.X), len(l.Y), GridSize)
	}
	if l.X[0] != 0 || math.Abs(l.X[GridSize-1]-10) > 1e-12 {
		t.Errorf("unexpected grid extent. Got: [%v, %v], Want: [0, 10]", l.X[0], l.X[GridSize-1])
	}
	if l.Lower != nil || l.Upper != nil {
		t.Errorf("did not expect a confidence band")
	}
}

func TestFixOrigin(t *testing.T) {
	x, y := lineData(500, 0.1, 1)
	l := fitOne(t, Config{Fix: []*FixPoint{FixAt(0)}}, x, y)

	intercept, ok := l.Result.Attr(model.KeyIntercept)
	if !ok || intercept != 0 {
		t.Errorf("unexpected intercept. Got: %v (%v), Want: 0", intercept, ok)
	}
	r2, _ := l.Result.Attr(model.KeyRSquared)
	if r2 <= 0.8 {
		t.Errorf("unexpected rsquared. Got: %v, Want: > 0.8", r2)
	}
}

func TestFixPoint(t *testing.T) {
	x, y := lineData(50, 2, 3)
	points := []FixPoint{{0, 0}, {0, 5}, {2.5, -1}, {-3, 7}, {100, 1e3}}
	for _, m := range []Method{Linear, Robust} {
		for _, p := range points {
			p := p
			l := fitOne(t, Config{Methods: []Method{m}, Fix: []*FixPoint{&p}}, x, y)
			got := l.Result.Predict([]float64{p.X})[0]
			if math.Abs(got-p.Y) > 1e-9*math.Max(1, math.Abs(p.Y)) {
				t.Errorf("%v through %v: unexpected prediction at fix point. Got: %v, Want: %v", m, p, got, p.Y)
			}
			slope, _ := l.Result.Attr(model.KeySlope)
			intercept, _ := l.Result.Attr(model.KeyIntercept)
			if want := p.Y - slope*p.X; intercept != want {
				t.Errorf("%v through %v: unexpected intercept. Got: %v, Want: %v", m, p, intercept, want)
			}
		}
	}
}

func TestFixCovariance(t *testing.T) {
	x, y := lineData(50, 2, 3)
	for _, p := range []FixPoint{{0, 0}, {2.5, -1}, {-3, 7}} {
		p := p
		l := fitOne(t, Config{Fix: []*FixPoint{&p}}, x, y)
		cov := l.Result.Cov
		if cov == nil {
			t.Fatalf("through %v: expected covariance", p)
		}
		if r, c := cov.Dims(); r != len(l.Result.Params) || c != len(l.Result.Params) {
			t.Fatalf("through %v: covariance does not match parameters. Got: %dx%d, Want: %dx%d", p, r, c, len(l.Result.Params), len(l.Result.Params))
		}
		slopeErr, _ := l.Result.Attr(model.KeySlope + "_err")
		if got := math.Sqrt(cov.At(1, 1)); math.Abs(got-slopeErr) > 1e-12*slopeErr {
			t.Errorf("through %v: unexpected slope variance. Got: %v, Want: %v", p, got, slopeErr)
		}
		want := math.Abs(p.X) * slopeErr
		got, ok := l.Result.Attr(model.KeyIntercept + "_err")
		if !ok || math.Abs(got-want) > 1e-12*math.Max(1, want) {
			t.Errorf("through %v: unexpected intercept_err. Got: %v (%v), Want: %v", p, got, ok, want)
		}
		if got, want := cov.At(0, 1), -p.X*cov.At(1, 1); math.Abs(got-want) > 1e-12*math.Max(1, math.Abs(want)) {
			t.Errorf("through %v: unexpected covariance. Got: %v, Want: %v", p, got, want)
		}
	}
}

func TestMethodKeys(t *testing.T) {
	x, y := lineData(500, 0.1, 1)
	cfg := Config{Methods: []Method{Linear, Poly(1)}}
	lines, err := newEngine(t, cfg).Fit(context.Background(), []Pair{{X: x, Y: y}, {X: x, Y: y}})
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}

	tests := []struct {
		want, notWant []string
	}{
		{want: []string{"intercept", "slope"}, notWant: []string{"c0", "c1"}},
		{want: []string{"c0", "c1"}, notWant: []string{"intercept", "slope"}},
	}
	for i, test := range tests {
		res := lines[i].Result
		if res == nil {
			t.Fatalf("pair %d: no result: %v", i, lines[i].Err)
		}
		for _, k := range test.want {
			if _, ok := res.Attr(k); !ok {
				t.Errorf("pair %d: missing key %q in %v", i, k, res.Keys())
			}
		}
		for _, k := range test.notWant {
			if _, ok := res.Attr(k); ok {
				t.Errorf("pair %d: unexpected key %q in %v", i, k, res.Keys())
			}
		}
	}

	// Both describe the same line.
	c1, _ := lines[1].Result.Attr("c1")
	slope, _ := lines[0].Result.Attr(model.KeySlope)
	if math.Abs(c1-slope) > 1e-9 {
		t.Errorf("unexpected c1. Got: %v, Want: %v", c1, slope)
	}
}

func TestCurve(t *testing.T) {
	const a = 1.0434
	f, err := model.Builtin("parabola")
	if err != nil {
		t.Fatalf("could not get builtin: %v", err)
	}
	rng := rand.New(rand.NewSource(1))
	x := floats.Span(make([]float64, 500), 0, 1)
	y := model.Eval(f, []float64{a}, x)
	for i := range y {
		y[i] += y[i] * rng.NormFloat64() * 0.01
	}

	cfg := Config{Methods: []Method{Curve(f)}, Bounds: [][]model.Bound{{{Lo: 0, Hi: 2}}}}
	l := fitOne(t, cfg, x, y)
	if len(l.Warnings) != 0 {
		t.Errorf("did not expect warnings: %v", l.Warnings)
	}
	got, _ := l.Result.Attr("a")
	if math.Abs(got-a) > 0.01 {
		t.Errorf("unexpected parameter. Got: %v, Want: %v", got, a)
	}
	se, ok := l.Result.Attr(model.KeyErr)
	if !ok || !(se < 0.01) {
		t.Errorf("unexpected standard error. Got: %v (%v), Want: < 0.01", se, ok)
	}
}

func TestBoundsRequired(t *testing.T) {
	f, _ := model.Builtin("exp")
	x := floats.Span(make([]float64, 50), 0, 2)
	y := model.Eval(f, []float64{1, 0.5}, x)

	l := fitOne(t, Config{Methods: []Method{Curve(f)}}, x, y)
	if len(l.Warnings) != 1 || l.Warnings[0].Kind != BoundsRequired {
		t.Fatalf("unexpected warnings. Got: %v, Want: one %v", l.Warnings, BoundsRequired)
	}
	got, _ := l.Result.Attr("b")
	if math.Abs(got-0.5) > 1e-3 {
		t.Errorf("unexpected parameter b. Got: %v, Want: 0.5", got)
	}
}

func TestIsolation(t *testing.T) {
	x, y := lineData(20, 0.1, 1)
	nan := []float64{math.NaN(), math.NaN()}
	pairs := []Pair{
		{Name: "empty", X: nan, Y: nan},
		{Name: "line", XName: "time", X: x, Y: y, Attrs: map[string]string{"units": "m"}},
		{Name: "point", X: []float64{1}, Y: []float64{2}},
	}
	lines, err := newEngine(t, Config{}).Fit(context.Background(), pairs)
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}

	for _, i := range []int{0, 2} {
		l := lines[i]
		if !errors.Is(l.Err, ErrInsufficientData) {
			t.Errorf("pair %d: unexpected error. Got: %v, Want: %v", i, l.Err, ErrInsufficientData)
		}
		if len(l.Warnings) != 1 || l.Warnings[0].Kind != InsufficientData || l.Warnings[0].Index != i {
			t.Errorf("pair %d: unexpected warnings: %v", i, l.Warnings)
		}
		if l.Result != nil {
			t.Errorf("pair %d: did not expect a result", i)
		}
	}

	l := lines[1]
	if l.Result == nil {
		t.Fatalf("pair 1: expected a result, got error: %v", l.Err)
	}
	if l.Name != "line" || l.XName != "time" || l.Attrs["units"] != "m" {
		t.Errorf("metadata not copied. Got: %q, %q, %v", l.Name, l.XName, l.Attrs)
	}
}

func TestNoFit(t *testing.T) {
	x, y := lineData(20, 0.1, 1)
	l := fitOne(t, Config{Methods: []Method{NoFit}}, x, y)
	if l.Result != nil {
		t.Errorf("did not expect a result")
	}
	if !floats.Equal(l.X, x) || !floats.Equal(l.Y, y) {
		t.Errorf("expected the data to be returned unchanged")
	}
}

func TestRange(t *testing.T) {
	x, y := lineData(101, 0, 1)
	cfg := Config{XRange: []Range{Fixed(2, 5)}, LineXLim: []Range{Fixed(-1, 1)}}
	l := fitOne(t, cfg, x, y)

	if l.X[0] != -1 || math.Abs(l.X[GridSize-1]-1) > 1e-12 {
		t.Errorf("unexpected grid extent. Got: [%v, %v], Want: [-1, 1]", l.X[0], l.X[GridSize-1])
	}
	slope, _ := l.Result.Attr(model.KeySlope)
	if math.Abs(slope-3) > 1e-9 {
		t.Errorf("unexpected slope. Got: %v, Want: 3", slope)
	}

	// Outliers outside the y range are dropped.
	y[10], y[20] = 1e6, 2e6
	l = fitOne(t, Config{YRange: []Range{{Min: Limit{Kind: MinMax}, Max: At(100)}}}, x, y)
	intercept, _ := l.Result.Attr(model.KeyIntercept)
	if math.Abs(intercept-2) > 1e-9 {
		t.Errorf("unexpected intercept. Got: %v, Want: 2", intercept)
	}
}

func TestTranspose(t *testing.T) {
	x, y := lineData(50, 0, 1)
	l := fitOne(t, Config{Transpose: true}, x, y)

	slope, _ := l.Result.Attr(model.KeySlope)
	if math.Abs(slope-1.0/3) > 1e-9 {
		t.Errorf("unexpected slope. Got: %v, Want: 1/3", slope)
	}
	// The grid spans the data's y values and the fit gives x.
	if math.Abs(l.Y[0]-2) > 1e-9 || math.Abs(l.Y[GridSize-1]-32) > 1e-9 {
		t.Errorf("unexpected grid extent. Got: [%v, %v], Want: [2, 32]", l.Y[0], l.Y[GridSize-1])
	}
	if math.Abs(l.X[GridSize-1]-10) > 1e-9 {
		t.Errorf("unexpected fitted value. Got: %v, Want: 10", l.X[GridSize-1])
	}
}

func TestBand(t *testing.T) {
	x, y := lineData(200, 1, 2)
	cfg := Config{NBoot: intp(200), CI: floatp(90), Seed: int64p(7)}
	l := fitOne(t, cfg, x, y)
	if len(l.Lower) != GridSize || len(l.Upper) != GridSize {
		t.Fatalf("unexpected band length. Got: %d, %d, Want: %d", len(l.Lower), len(l.Upper), GridSize)
	}
	for i := range l.Lower {
		if l.Lower[i] > l.Upper[i] {
			t.Errorf("band reversed at %d: [%v, %v]", i, l.Lower[i], l.Upper[i])
		}
	}
	if w := l.Upper[0] - l.Lower[0]; !(w > 0) || w > 2 {
		t.Errorf("unexpected band width. Got: %v", w)
	}

	again := fitOne(t, cfg, x, y)
	if !floats.Equal(l.Lower, again.Lower) || !floats.Equal(l.Upper, again.Upper) {
		t.Errorf("expected identical bands for the same seed")
	}

	cfg.CI = floatp(0)
	if l := fitOne(t, cfg, x, y); l.Lower != nil {
		t.Errorf("did not expect a band at zero confidence")
	}
}

func TestBandDefaults(t *testing.T) {
	saved := Defaults()
	defer SetDefaults(saved)
	SetDefaults(Settings{NBoot: 50, CI: 95, Seed: int64p(3)})

	x, y := lineData(50, 1, 2)
	e, err := New(Config{}, (*logging.TestLogger)(t))
	if err != nil {
		t.Fatalf("could not create engine: %v", err)
	}
	lines, err := e.Fit(context.Background(), []Pair{{X: x, Y: y}})
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	if lines[0].Lower == nil {
		t.Errorf("expected a band from the defaults")
	}
}

func TestCancel(t *testing.T) {
	x, y := lineData(50, 1, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := newEngine(t, Config{NBoot: intp(100)})
	lines, err := e.Fit(ctx, []Pair{{X: x, Y: y}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("unexpected error. Got: %v, Want: %v", err, context.Canceled)
	}
	if !errors.Is(lines[0].Err, context.Canceled) {
		t.Errorf("unexpected pair error. Got: %v, Want: %v", lines[0].Err, context.Canceled)
	}
}

func TestIdeal(t *testing.T) {
	x := []float64{0, 1, 2}
	f, _ := model.Builtin("exp")
	tests := []struct {
		m      Method
		params []float64
		want   []float64
		err    bool
	}{
		{m: Linear, params: []float64{1, 2}, want: []float64{1, 3, 5}},
		{m: Poly(2), params: []float64{1, 0, 1}, want: []float64{1, 2, 5}},
		{m: Curve(f), params: []float64{2, 0}, want: []float64{2, 2, 2}},
		{m: Linear, params: []float64{1}, err: true},
		{m: NoFit, params: nil, err: true},
	}
	for i, test := range tests {
		got, err := Ideal(test.m, test.params, x)
		if (err != nil) != test.err {
			t.Errorf("test %d: unexpected error: %v", i, err)
			continue
		}
		if !test.err && !floats.EqualApprox(got, test.want, 1e-12) {
			t.Errorf("test %d: Got: %v, Want: %v", i, got, test.want)
		}
	}
}

// meanModel fits a constant and keeps it on the receiver, so a fit changes
// every predictor it has returned. It records the peak number of concurrent
// fits.
type meanModel struct {
	mean         float64
	active, peak atomic.Int32
}

func (m *meanModel) Fit(x, y []float64) (model.Predictor, error) {
	n := m.active.Add(1)
	defer m.active.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	runtime.Gosched()
	m.mean = floats.Sum(y) / float64(len(y))
	return m, nil
}

func (m *meanModel) Predict(x []float64) []float64 {
	y := make([]float64, len(x))
	for i := range y {
		y[i] = m.mean
	}
	return y
}

func TestExternalStateful(t *testing.T) {
	x, y := lineData(100, 1, 4)
	est := &meanModel{}
	cfg := Config{Methods: []Method{External(est)}, NBoot: intp(50), Seed: int64p(1)}
	l := fitOne(t, cfg, x, y)

	if p := est.peak.Load(); p != 1 {
		t.Errorf("unexpected concurrent fits. Got: %d, Want: 1", p)
	}
	if l.Lower == nil || l.Upper == nil {
		t.Fatalf("expected a confidence band")
	}
	if got := l.Result.Predict(l.X); !floats.Equal(got, l.Y) {
		t.Errorf("result does not match the fitted curve. Got: %v, Want: %v", got[0], l.Y[0])
	}
	want := floats.Sum(y) / float64(len(y))
	if l.Y[0] != want {
		t.Errorf("unexpected fitted value. Got: %v, Want: %v", l.Y[0], want)
	}
}

func TestCurveWarnings(t *testing.T) {
	nan := model.NewFunc(func(x float64, p []float64) float64 { return math.NaN() }, "a")
	x, y := lineData(20, 0.1, 1)

	tests := []struct {
		name string
		cfg  Config
		want []WarningKind
	}{
		{
			name: "estimation failed",
			cfg:  Config{Methods: []Method{Curve(nan)}, Bounds: [][]model.Bound{{{Lo: 0, Hi: 1}}}},
			want: []WarningKind{EstimationFailed, FitNonconvergence},
		},
		{
			name: "given guess",
			cfg:  Config{Methods: []Method{Curve(nan)}, P0: []Guess{{Values: []float64{1}}}},
			want: []WarningKind{FitNonconvergence},
		},
	}
	for _, test := range tests {
		lines, err := newEngine(t, test.cfg).Fit(context.Background(), []Pair{{X: x, Y: y}})
		if err != nil {
			t.Fatalf("%s: did not expect error from Fit: %v", test.name, err)
		}
		l := lines[0]
		if !errors.Is(l.Err, ErrNonconvergence) {
			t.Errorf("%s: unexpected error. Got: %v, Want: %v", test.name, l.Err, ErrNonconvergence)
		}
		if l.Result != nil {
			t.Errorf("%s: did not expect a result", test.name)
		}
		if len(l.Warnings) != len(test.want) {
			t.Errorf("%s: unexpected warnings. Got: %v, Want: %v", test.name, l.Warnings, test.want)
			continue
		}
		for i, w := range l.Warnings {
			if w.Kind != test.want[i] || w.Index != 0 {
				t.Errorf("%s: unexpected warning %d. Got: %v, Want: %v", test.name, i, w.Kind, test.want[i])
			}
		}
	}
}

func TestCurveSeeded(t *testing.T) {
	f, _ := model.Builtin("exp")
	x := floats.Span(make([]float64, 50), 0, 2)
	y := model.Eval(f, []float64{2, -1.5}, x)
	rng := rand.New(rand.NewSource(2))
	for i := range y {
		y[i] += rng.NormFloat64() * 0.05
	}

	cfg := Config{
		Methods: []Method{Curve(f)},
		Bounds:  [][]model.Bound{{{Lo: 0, Hi: 5}, {Lo: -5, Hi: 5}}},
		Seed:    int64p(11),
	}
	a := fitOne(t, cfg, x, y)
	b := fitOne(t, cfg, x, y)
	if !floats.Equal(a.Result.Params, b.Result.Params) {
		t.Errorf("expected identical parameters for the same seed. Got: %v, Want: %v", b.Result.Params, a.Result.Params)
	}
}
