/*
DESCRIPTION
  bootstrap_test.go provides testing for functionality in bootstrap.go.

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

package bootstrap

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/stat"
)

var grid = []float64{0, 2.5, 5, 7.5, 10}

// lineFit fits a straight line and evaluates it on grid.
func lineFit(x, y []float64) ([]float64, error) {
	if stat.Variance(x, nil) == 0 {
		return nil, errors.New("degenerate resample")
	}
	a, b := stat.LinearRegression(x, y, nil, false)
	out := make([]float64, len(grid))
	for i, v := range grid {
		out[i] = a + b*v
	}
	return out, nil
}

func noisyLine(n int, seed int64) ([]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	x := make([]float64, n)
	floats.Span(x, 0, 10)
	y := make([]float64, n)
	for i, v := range x {
		y[i] = 2 + 3*v + rng.NormFloat64()
	}
	return x, y
}

// TestEstimate checks the band ordering and that it brackets the truth.
func TestEstimate(t *testing.T) {
	x, y := noisyLine(200, 1)
	seed := int64(42)
	band, err := Estimate(context.Background(), x, y, len(grid), lineFit, Options{N: 500, Seed: &seed})
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	if len(band.Lower) != len(grid) || len(band.Upper) != len(grid) {
		t.Fatalf("unexpected band length. Got: %d and %d, Want: %d", len(band.Lower), len(band.Upper), len(grid))
	}
	for i := range grid {
		if band.Lower[i] > band.Upper[i] {
			t.Errorf("lower above upper at %d. Got: %v > %v", i, band.Lower[i], band.Upper[i])
		}
		truth := 2 + 3*grid[i]
		if truth < band.Lower[i]-0.5 || truth > band.Upper[i]+0.5 {
			t.Errorf("band [%v, %v] far from truth %v at %d", band.Lower[i], band.Upper[i], truth, i)
		}
	}
	if band.Resamples != 500 || band.Failed != 0 {
		t.Errorf("unexpected resample counts. Got: %d ok, %d failed", band.Resamples, band.Failed)
	}
}

// TestEstimateDeterministic checks that a seed gives the same band for any
// number of workers.
func TestEstimateDeterministic(t *testing.T) {
	x, y := noisyLine(50, 2)
	seed := int64(7)
	a, err := Estimate(context.Background(), x, y, len(grid), lineFit, Options{N: 100, Seed: &seed, Workers: 1})
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	b, err := Estimate(context.Background(), x, y, len(grid), lineFit, Options{N: 100, Seed: &seed, Workers: 8})
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	if !floats.Equal(a.Lower, b.Lower) || !floats.Equal(a.Upper, b.Upper) {
		t.Errorf("bands differ between worker counts.\nGot: %v %v\nWant: %v %v", b.Lower, b.Upper, a.Lower, a.Upper)
	}
}

// TestEstimateLevels checks that wider confidence levels give wider bands.
func TestEstimateLevels(t *testing.T) {
	x, y := noisyLine(100, 3)
	seed := int64(1)
	var prev []float64
	for _, level := range []float64{50, 90, 99} {
		band, err := Estimate(context.Background(), x, y, len(grid), lineFit, Options{N: 300, Level: level, Seed: &seed})
		if err != nil {
			t.Fatalf("did not expect error for level %v: %v", level, err)
		}
		width := make([]float64, len(grid))
		floats.SubTo(width, band.Upper, band.Lower)
		if prev != nil {
			for i := range width {
				if width[i] < prev[i] {
					t.Errorf("band narrower at level %v, point %d. Got: %v, Want: >= %v", level, i, width[i], prev[i])
				}
			}
		}
		prev = width
	}
}

// TestEstimateErrors checks failures and cancellation.
func TestEstimateErrors(t *testing.T) {
	x, y := noisyLine(20, 4)
	fail := func(x, y []float64) ([]float64, error) { return nil, errors.New("nope") }

	_, err := Estimate(context.Background(), x, y, len(grid), fail, Options{N: 10})
	if !errors.Is(err, ErrTooFew) {
		t.Errorf("did not get expected error for failing fits. Got: %v", err)
	}
	_, err = Estimate(context.Background(), x, y, len(grid), lineFit, Options{N: 10, Level: 120})
	if err == nil {
		t.Errorf("expected error for invalid level")
	}
	_, err = Estimate(context.Background(), nil, nil, len(grid), lineFit, Options{})
	if err == nil {
		t.Errorf("expected error for no data")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Estimate(ctx, x, y, len(grid), lineFit, Options{N: 1000})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("did not get expected cancellation. Got: %v", err)
	}
}

// TestPercentile checks interpolation between order statistics.
func TestPercentile(t *testing.T) {
	s := []float64{1, 2, 3, 4}
	tests := []struct {
		p, want float64
	}{
		{p: 0, want: 1},
		{p: 100, want: 4},
		{p: 50, want: 2.5},
		{p: 25, want: 1.75},
		{p: 2.5, want: 1.075},
	}
	for i, test := range tests {
		if got := Percentile(s, test.p); !scalar.EqualWithinAbs(got, test.want, 1e-12) {
			t.Errorf("unexpected percentile for test %d. Got: %v, Want: %v", i, got, test.want)
		}
	}
}
