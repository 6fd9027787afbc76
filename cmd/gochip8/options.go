// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/lassandro/gochip8/pkg/sdlio"
	"github.com/retroenv/retrogolib/log"
)

const usage = "gochip8 [options] filename"

const (
	RATE_DEFAULT = 300
	RATE_MIN     = 1
)

var (
	ErrMissingROM   = errors.New("expected exactly one ROM file")
	ErrInvalidRate  = errors.New("rate must be at least 1 instruction per second")
	ErrInvalidScale = errors.New("scale out of range")
)

type options struct {
	ROM   string
	Rate  int
	Scale int

	Term      bool
	Debug     bool
	WAV       string
	Beep      string
	Statsview bool

	DebugLog bool
	Quiet    bool
}

// Parses and validates the command line, without the program name.
// flag.ErrHelp is returned when usage was requested.
func parseOptions(args []string, output io.Writer) (*options, error) {
	opts := &options{}

	flags := flag.NewFlagSet("gochip8", flag.ContinueOnError)
	flags.SetOutput(output)
	flags.Usage = func() {
		fmt.Fprintf(output, "usage: %s\n\n", usage)
		flags.PrintDefaults()
	}

	flags.IntVar(&opts.Rate, "rate", RATE_DEFAULT, "Instructions executed per second")
	flags.IntVar(&opts.Scale, "scale", sdlio.SCALE_DEFAULT, "Window pixels per display pixel")
	flags.BoolVar(&opts.Term, "term", false, "Runs in the terminal instead of a window")
	flags.BoolVar(&opts.Debug, "debug", false, "Runs the machine in a debug CLI")
	flags.StringVar(&opts.WAV, "wav", "", "Records the beeper to a WAV file")
	flags.StringVar(&opts.Beep, "beep", "", "Plays a WAV or MP3 sample as the beeper")
	flags.BoolVar(&opts.Statsview, "statsview", false, "Serves runtime statistics on "+STATSVIEW_ADDR)
	flags.BoolVar(&opts.DebugLog, "debug-log", false, "Enables debug logging")
	flags.BoolVar(&opts.Quiet, "q", false, "Only logs errors")

	help := flags.Bool("help", false, "Displays command usage")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	if *help {
		flags.Usage()
		return nil, flag.ErrHelp
	}

	if flags.NArg() != 1 {
		return nil, fmt.Errorf("%d given: %w", flags.NArg(), ErrMissingROM)
	}

	opts.ROM = flags.Arg(0)

	if opts.Rate < RATE_MIN {
		return nil, fmt.Errorf("%d: %w", opts.Rate, ErrInvalidRate)
	}

	if !opts.Term && (opts.Scale < sdlio.SCALE_MIN || opts.Scale > sdlio.SCALE_MAX) {
		return nil, fmt.Errorf(
			"%d not in [%d, %d]: %w",
			opts.Scale,
			sdlio.SCALE_MIN,
			sdlio.SCALE_MAX,
			ErrInvalidScale,
		)
	}

	return opts, nil
}

func createLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()

	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}

	return log.NewWithConfig(cfg)
}
