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
	"bufio"
	"context"
	"encoding/gob"
	"errors"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/lassandro/gochip8/pkg/assembler"
	"github.com/lassandro/gochip8/pkg/audio"
	"github.com/lassandro/gochip8/pkg/debugger"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/lassandro/gochip8/pkg/runner"
	"github.com/lassandro/gochip8/pkg/sdlio"
	"github.com/lassandro/gochip8/pkg/termio"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"
)

// SDL must be driven from the main thread
func init() {
	runtime.LockOSThread()
}

type frontend interface {
	runner.Display
	runner.Input
	runner.Audio
}

// Symbol table written by gochip8-asm next to the program
func symtablePath(rom string) string {
	return strings.TrimSuffix(rom, filepath.Ext(rom)) + ".c8db"
}

func loadSymTable(logger *log.Logger, rom string) *assembler.SymTable {
	file, err := os.Open(symtablePath(rom))

	if err != nil {
		logger.Debug("No symbol table loaded", log.Err(err))
		return nil
	}

	defer file.Close()

	var symtable assembler.SymTable

	if err := gob.NewDecoder(file).Decode(&symtable); err != nil {
		logger.Error("Error loading symbol table", log.Err(err))
		return nil
	}

	return &symtable
}

func loadBeep(logger *log.Logger, path string) (audio.Source, error) {
	file, err := os.Open(path)

	if err != nil {
		return nil, err
	}

	defer file.Close()

	sample, err := audio.LoadSample(file, path)

	if err != nil {
		return nil, err
	}

	logger.Debug(
		"Beep sample loaded",
		log.String("file", path),
		log.Int("samples", len(sample.Data)),
	)

	return sample, nil
}

func gochip8() int {
	opts, err := parseOptions(os.Args[1:], os.Stderr)

	if errors.Is(err, flag.ErrHelp) {
		return 0
	}

	logger := createLogger(opts != nil && opts.DebugLog, opts != nil && opts.Quiet)

	if err != nil {
		logger.Error("Invalid arguments", log.Err(err))
		logger.Info("usage: " + usage)
		return 1
	}

	file, err := os.Open(opts.ROM)

	if err != nil {
		logger.Error("Error opening program", log.Err(err))
		return 1
	}

	defer file.Close()

	mc := &machine.Machine{Logger: logger}

	if err := mc.LoadROM(file); err != nil {
		logger.Error("Error loading program", log.String("file", opts.ROM), log.Err(err))
		return 1
	}

	var source audio.Source = audio.NewTone()

	if opts.Beep != "" {
		if source, err = loadBeep(logger, opts.Beep); err != nil {
			logger.Error("Error loading beep sample", log.Err(err))
			return 1
		}
	}

	var ctx context.Context
	var cancel context.CancelFunc

	if opts.Debug {
		// Interrupts break into the debugger instead
		ctx, cancel = signal.NotifyContext(context.Background(), syscall.SIGTERM)
	} else {
		ctx, cancel = context.WithCancel(app.Context())
	}

	defer cancel()

	var front frontend

	if opts.Term {
		fd := int(os.Stdin.Fd())

		raw, err := termio.EnterRaw(fd)

		if err != nil {
			logger.Error("Error entering raw terminal mode", log.Err(err))
			return 1
		}

		defer raw.Restore()

		if cols, rows, err := termio.Size(int(os.Stdout.Fd())); err == nil &&
			(cols < machine.DISPLAY_WIDTH || rows < machine.DISPLAY_HEIGHT/2) {
			logger.Warn(
				"Terminal smaller than the display",
				log.Int("columns", cols),
				log.Int("rows", rows),
			)
		}

		term := termio.New(os.Stdin, os.Stdout)

		if err := term.Open(); err != nil {
			logger.Error("Error writing to terminal", log.Err(err))
			return 1
		}

		defer term.Close()

		replTerm = raw
		front = term
	} else {
		window, err := sdlio.New(opts.Scale, source)

		if err != nil {
			logger.Error("Error opening window", log.Err(err))
			return 1
		}

		defer window.Close()

		front = window
	}

	var player runner.Audio = front

	if opts.WAV != "" {
		wav, err := os.Create(opts.WAV)

		if err != nil {
			logger.Error("Error creating recording", log.Err(err))
			return 1
		}

		defer wav.Close()

		// The recording keeps its own playback position
		var recorded audio.Source = audio.NewTone()

		if sample, ok := source.(*audio.Sample); ok {
			recorded = &audio.Sample{Data: sample.Data}
		}

		recorder := audio.NewRecorder(wav, recorded, front)

		defer func() {
			if err := recorder.Close(); err != nil {
				logger.Error("Error writing recording", log.Err(err))
				return
			}

			logger.Info(
				"Recording saved",
				log.String("file", opts.WAV),
				log.String("duration", recorder.Duration().String()),
			)
		}()

		player = recorder
	}

	if opts.Statsview {
		launchStatsview(logger)
	}

	if opts.Debug {
		dbg := &debugger.Debugger{
			HandleBreak:   handleBreak,
			HandleRead:    handleRead,
			HandleWrite:   handleWrite,
			HandleUnknown: handleUnknown,
			SymTable:      loadSymTable(logger, opts.ROM),
		}

		if dbg.SymTable != nil && dbg.SymTable.Source != "" {
			if src, err := os.Open(dbg.SymTable.Source); err == nil {
				dbg.Source = src
				defer src.Close()
			} else {
				logger.Error("Error loading source file", log.Err(err))
			}
		}

		mc.Debugger = dbg

		replInput = bufio.NewScanner(os.Stdin)
		replQuit = cancel

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		defer signal.Stop(c)

		go func() {
			for range c {
				dbg.Break.Store(true)
			}
		}()

		dbg.PrintSource(&mc.State, mc.State.Program, 8)
		debugREPL(dbg, mc)

		if shouldexit {
			return 0
		}
	}

	run := &runner.Runner{
		Machine: mc,
		Display: front,
		Input:   front,
		Audio:   player,
		Rate:    opts.Rate,
		Logger:  logger,
	}

	if err := run.Run(ctx); err != nil {
		logger.Error("Machine stopped", log.Err(err))
		return 1
	}

	return 0
}

func main() {
	os.Exit(gochip8())
}
