/*
DESCRIPTION
  regfit reads sample pairs from a CSV file, fits the configured regression
  models to them and writes the fitted curves, their diagnostics and their
  bootstrap confidence bands as JSON, optionally plotting them to a PNG file.

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

// regfit fits regression models to the columns of a CSV file. The first
// column holds the coordinate and every other column a value array, each of
// which is fitted independently according to the configuration file.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/regfit/engine"
	"github.com/ausocean/utils/logging"
)

// Logging configuration consts.
const (
	defaultLogPath = "regfit.log"
	logMaxSize     = 500 // MB.
	logMaxBackup   = 10
	logMaxAge      = 28 // Days.
	logSuppress    = false
)

// options holds the command line options of a run.
type options struct {
	configFile string
	set        string
	input      string
	output     string
	plot       string
	label      string
	timeout    time.Duration
}

func main() {
	var opts options
	flag.StringVar(&opts.configFile, "ConfigFile", "", "Specifies fit config file")
	flag.StringVar(&opts.set, "Set", "", "Specifies config overrides, e.g. \"fit=poly2 nboot=0\"")
	flag.StringVar(&opts.input, "Input", "", "Specifies CSV input file (.gz or .zst compressed), stdin if empty")
	flag.StringVar(&opts.output, "Output", "", "Specifies JSON output file (.gz or .zst compressed), stdout if empty")
	flag.StringVar(&opts.plot, "Plot", "", "Specifies PNG file to plot data and fits to")
	flag.StringVar(&opts.label, "Label", "", "Specifies legend label template, e.g. \"%(slope)1.1f\"")
	flag.DurationVar(&opts.timeout, "Timeout", 0, "Specifies time limit of the fits, none if zero")
	logLevel := flag.Int("LogLevel", int(logging.Info), "Specifies log level")
	logPath := flag.String("LogPath", defaultLogPath, "Specifies log path")
	flag.Parse()

	validLogLevel := true
	if *logLevel < int(logging.Debug) || *logLevel > int(logging.Fatal) {
		*logLevel = int(logging.Info)
		validLogLevel = false
	}

	fileLog := &lumberjack.Logger{
		Filename:   *logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(int8(*logLevel), io.MultiWriter(fileLog, os.Stderr), logSuppress)
	if !validLogLevel {
		log.Error("invalid log level was defaulted to Info")
	}

	ctx := context.Background()
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	err := run(ctx, log, opts, os.Stdin, os.Stdout)
	if err != nil {
		log.Fatal("regfit failed", "error", err)
	}
}

// run performs the fits described by opts. Input is read from stdin and
// output written to stdout unless files are given.
func run(ctx context.Context, log logging.Logger, opts options, stdin io.Reader, stdout io.Writer) error {
	log.Debug("reading config", "file", opts.configFile, "overrides", opts.set)
	vals, err := readConfig(opts.configFile, opts.set)
	if err != nil {
		return fmt.Errorf("could not read config: %w", err)
	}
	cfg, err := parseConfig(vals)
	if err != nil {
		return fmt.Errorf("could not parse config: %w", err)
	}
	ideal, err := parseIdeal(vals)
	if err != nil {
		return fmt.Errorf("could not parse config: %w", err)
	}

	in, err := openInput(opts.input, stdin)
	if err != nil {
		return fmt.Errorf("could not open input: %w", err)
	}
	defer in.Close()

	h := xxhash.New()
	pairs, err := readPairs(io.TeeReader(in, h))
	if err != nil {
		return fmt.Errorf("could not read input: %w", err)
	}
	writeConfigDigest(h, vals)
	log.Info("read sample pairs", "pairs", len(pairs))

	e, err := engine.New(cfg, log)
	if err != nil {
		return err
	}
	start := time.Now()
	lines, err := e.Fit(ctx, pairs)
	if err != nil {
		return fmt.Errorf("could not fit: %w", err)
	}
	log.Info("fitted sample pairs", "pairs", len(lines), "duration (sec)", time.Since(start).Seconds())

	out, err := openOutput(opts.output, stdout)
	if err != nil {
		return fmt.Errorf("could not open output: %w", err)
	}
	err = writeOutput(out, fmt.Sprintf("%016x", h.Sum64()), lines, opts.label)
	if err != nil {
		out.Close()
		return fmt.Errorf("could not write output: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("could not close output: %w", err)
	}

	if opts.plot == "" {
		return nil
	}
	log.Debug("plotting", "file", opts.plot)
	err = plotLines(opts.plot, pairs, lines, ideal, cfg.Transpose, opts.label)
	if err != nil {
		return fmt.Errorf("could not plot: %w", err)
	}
	return nil
}
