/*
DESCRIPTION
  method.go provides the Method type that selects the model used for a fit.

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
	"fmt"
	"strconv"
	"strings"

	"github.com/ausocean/regfit/model"
)

// Method selects a model variant. The zero Method makes no fit.
type Method struct {
	Kind      model.Kind
	Degree    int             // Polynomial degree, for model.Poly.
	Func      model.Function  // Curve function, for model.Curve.
	Estimator model.Estimator // Caller's estimator, for model.External.
}

// Methods.
var (
	NoFit  = Method{Kind: model.None}
	Linear = Method{Kind: model.Linear}
	Robust = Method{Kind: model.Robust}
)

// Poly returns a Method for a polynomial fit of the given degree.
func Poly(degree int) Method { return Method{Kind: model.Poly, Degree: degree} }

// Curve returns a Method for a nonlinear fit of f.
func Curve(f model.Function) Method { return Method{Kind: model.Curve, Func: f} }

// External returns a Method delegating to e.
func External(e model.Estimator) Method { return Method{Kind: model.External, Estimator: e} }

// ParseMethod returns the Method for a configuration token: "fit" or
// "linear", "robust", "poly<degree>", "curve:<builtin>" or "none". Tokens are
// case insensitive.
func ParseMethod(tok string) (Method, error) {
	t := strings.ToLower(strings.TrimSpace(tok))
	switch {
	case t == "fit" || t == "linear":
		return Linear, nil
	case t == "robust":
		return Robust, nil
	case t == "none" || t == "":
		return NoFit, nil
	case strings.HasPrefix(t, "poly"):
		deg, err := strconv.Atoi(t[len("poly"):])
		if err != nil || deg < 0 {
			return Method{}, configError("polynomials must be of the form 'poly<deg>' (e.g. 'poly3'), not %q", tok)
		}
		return Poly(deg), nil
	case strings.HasPrefix(t, "curve:"):
		f, err := model.Builtin(t[len("curve:"):])
		if err != nil {
			return Method{}, configError("%v", err)
		}
		return Curve(f), nil
	}
	return Method{}, configError("unknown fit method %q", tok)
}

// NumParams returns the number of parameters of the model, or -1 if unknown.
func (m Method) NumParams() int {
	switch m.Kind {
	case model.Linear, model.Robust:
		return 2
	case model.Poly:
		return m.Degree + 1
	case model.Curve:
		return len(m.Func.Params())
	}
	return -1
}

// validate checks that the Method is complete.
func (m Method) validate() error {
	switch m.Kind {
	case model.None, model.Linear, model.Robust:
	case model.Poly:
		if m.Degree < 0 {
			return configError("negative polynomial degree %d", m.Degree)
		}
	case model.Curve:
		if m.Func == nil {
			return configError("curve method without a function")
		}
		if len(m.Func.Params()) == 0 {
			return configError("curve function has no parameters")
		}
	case model.External:
		if m.Estimator == nil {
			return configError("external method without an estimator")
		}
	default:
		return configError("unknown method kind %d", m.Kind)
	}
	return nil
}

func (m Method) String() string {
	switch m.Kind {
	case model.Poly:
		return "poly" + strconv.Itoa(m.Degree)
	case model.Curve:
		return fmt.Sprintf("curve%v", m.Func.Params())
	}
	return m.Kind.String()
}
