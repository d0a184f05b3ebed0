/*
DESCRIPTION
  goodness.go provides goodness of fit helpers shared by the models: the
  coefficient of determination and the parameter covariance estimate.

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
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// RSquared returns the coefficient of determination of the simulated values
// sim against the observed values obs,
//
//	R² = 1 - Σ(obs - sim)² / Σ(obs - mean(obs))²
func RSquared(sim, obs []float64) float64 {
	mean := stat.Mean(obs, nil)
	var ssRes, ssTot float64
	for i := range obs {
		r := obs[i] - sim[i]
		ssRes += r * r
		d := obs[i] - mean
		ssTot += d * d
	}
	return 1 - ssRes/ssTot
}

// UncenteredRSquared is RSquared with the total sum of squares taken about
// zero. It is the convention for models fitted without an intercept.
func UncenteredRSquared(sim, obs []float64) float64 {
	var ssRes, ssTot float64
	for i := range obs {
		r := obs[i] - sim[i]
		ssRes += r * r
		ssTot += obs[i] * obs[i]
	}
	return 1 - ssRes/ssTot
}

// ssr returns the sum of squared residuals.
func ssr(sim, obs []float64) float64 {
	var s float64
	for i := range obs {
		r := obs[i] - sim[i]
		s += r * r
	}
	return s
}

var errNoDOF = errors.New("no residual degrees of freedom")

// covariance estimates the parameter covariance of a least squares fit with
// design (or Jacobian) matrix a and sum of squared residuals res, as
//
//	inv(AᵀA) · res / (n - p)
func covariance(a mat.Matrix, res float64) (*mat.Dense, error) {
	n, p := a.Dims()
	if n <= p {
		return nil, errNoDOF
	}

	var ata mat.Dense
	ata.Mul(a.T(), a)

	var inv mat.Dense
	err := inv.Inverse(&ata)
	if err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("could not invert normal matrix: %w", err)
		}
		if math.IsInf(float64(cond), 1) {
			return nil, fmt.Errorf("could not invert normal matrix: %w", err)
		}
	}
	inv.Scale(res/float64(n-p), &inv)
	return &inv, nil
}

// infCov returns a p×p matrix filled with +Inf, the covariance reported when
// it cannot be estimated.
func infCov(p int) *mat.Dense {
	d := make([]float64, p*p)
	for i := range d {
		d[i] = math.Inf(1)
	}
	return mat.NewDense(p, p, d)
}

// StdErr returns the standard errors of the parameters, the square roots of
// the diagonal of cov.
func StdErr(cov *mat.Dense) []float64 {
	if cov == nil {
		return nil
	}
	p, _ := cov.Dims()
	se := make([]float64, p)
	for i := range se {
		se[i] = math.Sqrt(cov.At(i, i))
	}
	return se
}
