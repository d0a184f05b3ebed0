/*
DESCRIPTION
  plot.go provides plotting of sample pairs, their fits and confidence bands.

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
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/ausocean/regfit/engine"
)

// Plot size.
const plotSize = 15 * vg.Centimeter

// bandAlpha is the opacity of confidence bands.
const bandAlpha = 64

// plotLines plots the data of each pair as points, its fit as a line and the
// confidence band as a shaded area, and saves the plot to path. The file
// type is given by the extension of path. Ideal holds the parameters of a
// dashed ideal line per pair, repeated over the pairs; nil entries draw none.
func plotLines(path string, pairs []engine.Pair, lines []engine.Line, ideal [][]float64, transpose bool, label string) error {
	xTitle := "x"
	if len(pairs) != 0 && pairs[0].XName != "" {
		xTitle = pairs[0].XName
	}
	return plotToFile(path, "Regression", xTitle, "y", func(p *plot.Plot) error {
		for i, l := range lines {
			c := plotutil.Color(i)
			pr := pairs[i]

			if data := plotterXY(pr.X, pr.Y); len(data) != 0 {
				s, err := plotter.NewScatter(data)
				if err != nil {
					return fmt.Errorf("could not plot data of %q: %w", pr.Name, err)
				}
				s.GlyphStyle.Color = c
				p.Add(s)
				p.Legend.Add(pr.Name, s)
			}
			if len(ideal) != 0 && ideal[i%len(ideal)] != nil {
				xy, err := idealXY(pr, l.Method, ideal[i%len(ideal)], transpose)
				if err != nil {
					return fmt.Errorf("could not compute ideal line of %q: %w", pr.Name, err)
				}
				if len(xy) != 0 {
					ln, err := plotter.NewLine(xy)
					if err != nil {
						return fmt.Errorf("could not plot ideal line of %q: %w", pr.Name, err)
					}
					ln.LineStyle.Color = c
					ln.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
					p.Add(ln)
				}
			}
			if l.Result == nil {
				continue
			}

			if band := bandXY(l, transpose); len(band) != 0 {
				poly, err := plotter.NewPolygon(band)
				if err != nil {
					return fmt.Errorf("could not plot band of %q: %w", pr.Name, err)
				}
				poly.Color = fade(c)
				poly.LineStyle.Width = 0
				p.Add(poly)
			}

			fit := plotterXY(l.X, l.Y)
			if len(fit) == 0 {
				continue
			}
			ln, err := plotter.NewLine(fit)
			if err != nil {
				return fmt.Errorf("could not plot fit of %q: %w", pr.Name, err)
			}
			ln.LineStyle.Color = c
			ln.LineStyle.Width = vg.Points(1.5)
			p.Add(ln)
			if label != "" {
				p.Legend.Add(l.Result.Format(label), ln)
			}
		}
		return nil
	})
}

// plotToFile creates a plot with a specified name and x&y titles using the
// provided draw function, and then saves it to the file at path.
func plotToFile(path, name, xTitle, yTitle string, draw func(*plot.Plot) error) error {
	p := plot.New()

	p.Title.Text = name
	p.X.Label.Text = xTitle
	p.Y.Label.Text = yTitle

	err := draw(p)
	if err != nil {
		return fmt.Errorf("could not draw plot contents: %w", err)
	}

	if err := p.Save(plotSize, plotSize, path); err != nil {
		return fmt.Errorf("could not save plot: %w", err)
	}
	return nil
}

// plotterXY provides a plotter.XYs type value based on the given x and y data,
// leaving out points that are not finite.
func plotterXY(x, y []float64) plotter.XYs {
	xy := make(plotter.XYs, 0, len(x))
	for i := range x {
		if !finite(x[i]) || !finite(y[i]) {
			continue
		}
		xy = append(xy, plotter.XY{X: x[i], Y: y[i]})
	}
	return xy
}

// idealXY evaluates the ideal line of method m with params over the data
// range of the fitted coordinate of pr.
func idealXY(pr engine.Pair, m engine.Method, params []float64, transpose bool) (plotter.XYs, error) {
	coord := pr.X
	if transpose {
		coord = pr.Y
	}
	var xs []float64
	for _, v := range coord {
		if finite(v) {
			xs = append(xs, v)
		}
	}
	if len(xs) == 0 {
		return nil, nil
	}
	grid := engine.Grid(floats.Min(xs), floats.Max(xs))
	y, err := engine.Ideal(m, params, grid)
	if err != nil {
		return nil, err
	}
	if transpose {
		return plotterXY(y, grid), nil
	}
	return plotterXY(grid, y), nil
}

// bandXY returns the outline of the confidence band of l, along the lower
// bound and back along the upper.
func bandXY(l engine.Line, transpose bool) plotter.XYs {
	if l.Lower == nil {
		return nil
	}
	lower, upper := plotterXY(l.X, l.Lower), plotterXY(l.X, l.Upper)
	if transpose {
		lower, upper = plotterXY(l.Lower, l.Y), plotterXY(l.Upper, l.Y)
	}
	band := append(plotter.XYs{}, lower...)
	for i := len(upper) - 1; i >= 0; i-- {
		band = append(band, upper[i])
	}
	return band
}

// fade returns c with bandAlpha opacity.
func fade(c color.Color) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: bandAlpha}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
