/*
DESCRIPTION
  bootstrap.go provides percentile bootstrap confidence bands for fitted
  curves.

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

// Package bootstrap provides percentile bootstrap confidence bands. The data
// are resampled with replacement, a curve is fitted to every resample and the
// band at each grid point is a pair of percentiles of the fitted values.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"time"
)

// Defaults.
const (
	DefaultResamples = 1000
	DefaultLevel     = 95.0
)

// ErrTooFew is returned when fewer than two resamples could be fitted.
var ErrTooFew = errors.New("too few successful resamples")

// Func fits a curve to the data x, y and returns its values on the grid.
// It is called concurrently and must not modify x or y.
type Func func(x, y []float64) ([]float64, error)

// Options holds the bootstrap settings.
type Options struct {
	// N is the number of resamples. If zero, DefaultResamples is used.
	N int

	// Level is the confidence level in percent, in (0, 100]. If zero,
	// DefaultLevel is used.
	Level float64

	// Seed seeds the resampling. If nil, the current time is used.
	Seed *int64

	// Workers is the number of concurrent fits. If zero, the number of CPUs
	// is used.
	Workers int
}

// Band is a confidence band on a grid of points.
type Band struct {
	Lower, Upper []float64

	// Resamples is the number of resamples that contributed to the band and
	// Failed the number whose fit returned an error or non-finite values.
	Resamples, Failed int
}

// Estimate resamples x and y with replacement opts.N times, calls fn on every
// resample and returns the band given by the (100-level)/2 and
// 100-(100-level)/2 percentiles of the fitted values at each of the gridLen
// grid points. Resamples for which fn fails are skipped.
//
// For a given seed the result does not depend on the number of workers.
func Estimate(ctx context.Context, x, y []float64, gridLen int, fn Func, opts Options) (*Band, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("length mismatch: len(x)=%d, len(y)=%d", len(x), len(y))
	}
	if len(x) == 0 {
		return nil, errors.New("no data to resample")
	}
	if opts.N < 0 {
		return nil, fmt.Errorf("invalid number of resamples: %d", opts.N)
	}
	if opts.N == 0 {
		opts.N = DefaultResamples
	}
	if opts.Level == 0 {
		opts.Level = DefaultLevel
	}
	if opts.Level < 0 || opts.Level > 100 || math.IsNaN(opts.Level) {
		return nil, fmt.Errorf("invalid confidence level: %v", opts.Level)
	}

	// Per resample seeds so that no RNG is shared across goroutines.
	var masterSeed int64
	if opts.Seed != nil {
		masterSeed = *opts.Seed
	} else {
		masterSeed = time.Now().UnixNano()
	}
	master := rand.New(rand.NewSource(masterSeed))
	seeds := make([]int64, opts.N)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > opts.N {
		numWorkers = opts.N
	}

	curves := make([][]float64, opts.N)
	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(numWorkers)

	worker := func() {
		defer wg.Done()
		n := len(x)
		for b := range jobs {
			xs := make([]float64, n)
			ys := make([]float64, n)
			rng := rand.New(rand.NewSource(seeds[b]))
			for i := 0; i < n; i++ {
				j := rng.Intn(n)
				xs[i], ys[i] = x[j], y[j]
			}
			pred, err := fn(xs, ys)
			if err != nil || len(pred) != gridLen || !allFinite(pred) {
				continue
			}
			curves[b] = pred
		}
	}
	for w := 0; w < numWorkers; w++ {
		go worker()
	}

feed:
	for b := 0; b < opts.N; b++ {
		select {
		case jobs <- b:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ok := curves[:0:0]
	for _, c := range curves {
		if c != nil {
			ok = append(ok, c)
		}
	}
	band := &Band{
		Lower:     make([]float64, gridLen),
		Upper:     make([]float64, gridLen),
		Resamples: len(ok),
		Failed:    opts.N - len(ok),
	}
	if len(ok) < 2 {
		return band, fmt.Errorf("%w: %d of %d", ErrTooFew, len(ok), opts.N)
	}

	lo, hi := 50-opts.Level/2, 50+opts.Level/2
	col := make([]float64, len(ok))
	for i := 0; i < gridLen; i++ {
		for j, c := range ok {
			col[j] = c[i]
		}
		sort.Float64s(col)
		band.Lower[i] = Percentile(col, lo)
		band.Upper[i] = Percentile(col, hi)
	}
	return band, nil
}

// Percentile returns the p-th percentile, p in [0, 100], of the sorted values
// s, interpolating linearly between order statistics.
func Percentile(s []float64, p float64) float64 {
	n := len(s)
	if n == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return s[0]
	}
	if p >= 100 {
		return s[n-1]
	}

	pos := p / 100 * float64(n-1)
	below := int(math.Floor(pos))
	above := int(math.Ceil(pos))
	if below == above {
		return s[below]
	}
	w := pos - float64(below)
	return s[below]*(1-w) + s[above]*w
}

func allFinite(s []float64) bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
