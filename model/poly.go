/*
DESCRIPTION
  poly.go provides polynomial least squares fitting of a dataset.

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

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// FitPoly fits a polynomial of degree to the data provided in x and y.
//
// The parameters of the result are the coefficients c0..c<degree>, lowest
// order first, and are also reported as diagnostics of the same names along
// with rsquared. The covariance is scaled by the residual variance and is
// only available when there are more points than coefficients; for degree 0
// its square root is reported as c0_err.
func FitPoly(x, y []float64, degree int) (*Result, error) {
	if degree < 0 {
		return nil, fmt.Errorf("invalid polynomial degree: %d", degree)
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("length mismatch: len(x)=%d, len(y)=%d", len(x), len(y))
	}
	if len(x) < degree+1 {
		return nil, fmt.Errorf("%w: need at least %d points for degree %d, got %d", ErrInsufficientData, degree+1, degree, len(x))
	}

	if distinct(x) < degree+1 {
		return nil, fmt.Errorf("%w: need at least %d distinct x values for degree %d", ErrInsufficientData, degree+1, degree)
	}

	// Fit in t = (x-mu)/s, which lies in [-1, 1].
	mu, s := centre(x)
	t := make([]float64, len(x))
	for i, v := range x {
		t[i] = (v - mu) / s
	}

	a := vandermonde(t, degree)
	b := mat.NewVecDense(len(y), y)
	d := mat.NewVecDense(degree+1, nil)

	qr := new(mat.QR)
	qr.Factorize(a)

	err := qr.SolveVecTo(d, false, b)
	if err != nil {
		return nil, fmt.Errorf("could not solve QR: %w", err)
	}

	// c = T·d gives the coefficients in powers of x.
	tm := unscale(mu, s, degree)
	var c mat.VecDense
	c.MulVec(tm, d)

	coeffs := make([]float64, degree+1)
	attrs := make(map[string]float64, degree+3)
	for i := range coeffs {
		coeffs[i] = c.AtVec(i)
		attrs[fmt.Sprintf("c%d", i)] = coeffs[i]
	}

	fitted := Polyval(d.RawVector().Data, t)
	attrs[KeyRSquared] = RSquared(fitted, y)

	var cov *mat.Dense
	covT, err := covariance(a, ssr(fitted, y))
	if err == nil {
		cov = new(mat.Dense)
		cov.Product(tm, covT, tm.T())
		if degree == 0 {
			attrs["c0_err"] = math.Sqrt(cov.At(0, 0))
		}
	}

	return NewResult(Poly, coeffs, attrs, cov, func(x []float64) []float64 { return Polyval(coeffs, x) }), nil
}

// Polyval evaluates the polynomial with coefficients c, lowest order first, at
// each value of x.
func Polyval(c []float64, x []float64) []float64 {
	y := make([]float64, len(x))
	for i, v := range x {
		for j := len(c) - 1; j >= 0; j-- {
			y[i] = y[i]*v + c[j]
		}
	}
	return y
}

// centre returns the midpoint and half width of the range of x. The half
// width is 1 if all values are equal.
func centre(x []float64) (mu, s float64) {
	lo, hi := floats.Min(x), floats.Max(x)
	mu, s = (lo+hi)/2, (hi-lo)/2
	if s == 0 {
		s = 1
	}
	return mu, s
}

// unscale returns the matrix taking the coefficients of a polynomial in
// t = (x-mu)/s to those of the same polynomial in x, lowest order first.
// Element (j, k) is binom(k, j)·(-mu)^(k-j)/s^k.
func unscale(mu, s float64, degree int) *mat.Dense {
	n := degree + 1
	m := mat.NewDense(n, n, nil)
	binom := make([]float64, n)
	for k := 0; k < n; k++ {
		// Row k of Pascal's triangle.
		for j := k; j >= 0; j-- {
			if j == 0 || j == k {
				binom[j] = 1
			} else {
				binom[j] += binom[j-1]
			}
		}
		sk := math.Pow(s, float64(k))
		for j := 0; j <= k; j++ {
			m.Set(j, k, binom[j]*math.Pow(-mu, float64(k-j))/sk)
		}
	}
	return m
}

// distinct returns the number of distinct values in x.
func distinct(x []float64) int {
	seen := make(map[float64]struct{}, len(x))
	for _, v := range x {
		seen[v] = struct{}{}
	}
	return len(seen)
}

// vandermonde calculates the vandermonde matrix for set a and the given degree.
func vandermonde(a []float64, degree int) *mat.Dense {
	x := mat.NewDense(len(a), degree+1, nil)
	for i := range a {
		for j, p := 0, 1.0; j <= degree; j, p = j+1, p*a[i] {
			x.Set(i, j, p)
		}
	}
	return x
}
