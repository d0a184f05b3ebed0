/*
DESCRIPTION
  data.go provides reading of sample pairs from CSV files and the opening of
  optionally compressed input and output files.

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
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/ausocean/regfit/engine"
)

// readPairs reads CSV data with a header row. The first column is the
// coordinate shared by every pair and each further column a value array.
// Empty cells and cells that do not parse as numbers are NaN.
func readPairs(r io.Reader) ([]engine.Pair, error) {
	recs, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, errors.New("no header")
	}
	header := recs[0]
	if len(header) < 2 {
		return nil, fmt.Errorf("need a coordinate and at least one value column, got %d columns", len(header))
	}

	rows := recs[1:]
	cols := make([][]float64, len(header))
	for i := range cols {
		cols[i] = make([]float64, len(rows))
	}
	for i, row := range rows {
		for j, cell := range row {
			cols[j][i] = parseCell(cell)
		}
	}

	xname := strings.TrimSpace(header[0])
	pairs := make([]engine.Pair, len(header)-1)
	for j := range pairs {
		pairs[j] = engine.Pair{
			Name:  strings.TrimSpace(header[j+1]),
			XName: xname,
			X:     cols[0],
			Y:     cols[j+1],
		}
	}
	return pairs, nil
}

func parseCell(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// openInput opens the file at path, decompressing by extension, or returns
// stdin if path is empty.
func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	switch filepath.Ext(path) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return readCloser{zr, []func() error{zr.Close, f.Close}}, nil
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return readCloser{zr, []func() error{func() error { zr.Close(); return nil }, f.Close}}, nil
	}
	return f, nil
}

// openOutput creates the file at path, compressing by extension, or returns
// stdout if path is empty.
func openOutput(path string, stdout io.Writer) (io.WriteCloser, error) {
	if path == "" {
		return nopWriteCloser{stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	switch filepath.Ext(path) {
	case ".gz":
		zw := gzip.NewWriter(f)
		return writeCloser{zw, []func() error{zw.Close, f.Close}}, nil
	case ".zst":
		zw, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return writeCloser{zw, []func() error{zw.Close, f.Close}}, nil
	}
	return f, nil
}

// closeAll calls each close function in order, returning the first error.
func closeAll(fns []func() error) error {
	var first error
	for _, fn := range fns {
		if err := fn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type readCloser struct {
	io.Reader
	closers []func() error
}

func (r readCloser) Close() error { return closeAll(r.closers) }

type writeCloser struct {
	io.Writer
	closers []func() error
}

func (w writeCloser) Close() error { return closeAll(w.closers) }

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
