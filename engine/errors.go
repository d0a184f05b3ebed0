/*
DESCRIPTION
  errors.go provides the errors and warnings reported by the fit engine.

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
	"errors"
	"fmt"

	"github.com/ausocean/regfit/model"
)

// Errors. Per pair errors are reported on Line.Err, configuration errors are
// returned by New.
var (
	ErrInsufficientData = model.ErrInsufficientData
	ErrNonconvergence   = model.ErrNonconvergence
	ErrConfig           = errors.New("invalid configuration")
)

// configError returns an error wrapping ErrConfig.
func configError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// WarningKind classifies a non-fatal condition.
type WarningKind int

// Warning kinds.
const (
	BoundsRequired WarningKind = iota
	EstimationFailed
	FitNonconvergence
	InsufficientData
	BandFailed
)

var warningNames = map[WarningKind]string{
	BoundsRequired:    "bounds required",
	EstimationFailed:  "estimation failed",
	FitNonconvergence: "fit nonconvergence",
	InsufficientData:  "insufficient data",
	BandFailed:        "band failed",
}

func (k WarningKind) String() string {
	if s, ok := warningNames[k]; ok {
		return s
	}
	return "unknown"
}

// Warning is a non-fatal condition met while fitting one sample pair.
type Warning struct {
	Kind  WarningKind
	Index int    // Sample pair index.
	Msg   string // Human readable detail, e.g. the optimizer's reason.
}

func (w Warning) String() string {
	return fmt.Sprintf("pair %d: %v: %s", w.Index, w.Kind, w.Msg)
}
