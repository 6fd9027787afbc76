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

package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/retroenv/retrogolib/log"
)

var ErrInvalidRate = errors.New("instruction rate must be at least 1")

type Display interface {
	Render(frame machine.Frame) error
}

type Input interface {
	// Current state of every key, and whether the user asked to quit
	Poll() (keys [machine.KEY_COUNT]bool, quit bool, err error)

	// Blocks until a key is pressed, the user asks to quit or ctx is done
	WaitKey(ctx context.Context) (key uint8, quit bool, err error)
}

type Audio interface {
	SetPlaying(playing bool) error
}

// Drives a machine at Rate instructions per second while a second goroutine
// applies timer ticks at machine.TIMER_FREQUENCY.
type Runner struct {
	Machine *machine.Machine
	Display Display
	Input   Input
	Audio   Audio
	Rate    int
	Logger  *log.Logger
}

// Runs until the user quits, ctx is done, or a fatal error occurs. Quitting
// and cancellation are not errors.
func (r *Runner) Run(ctx context.Context) error {
	if r.Rate < 1 {
		return fmt.Errorf("%d: %w", r.Rate, ErrInvalidRate)
	}

	if r.Logger == nil {
		r.Logger = log.NewWithConfig(log.DefaultConfig())
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var tickErr error

	wg.Add(1)
	go func() {
		defer wg.Done()

		if err := r.tick(ctx); err != nil {
			tickErr = err
			cancel()
		}
	}()

	r.Logger.Debug("Machine started", log.Int("rate", r.Rate))

	err := r.cycle(ctx)

	cancel()
	wg.Wait()

	if err == nil {
		err = tickErr
	}

	r.Logger.Debug("Machine stopped")

	return err
}

func (r *Runner) tick(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / machine.TIMER_FREQUENCY)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return r.setPlaying(false)

		case <-ticker.C:
			// Lock is released before the audio device is touched
			sound := r.Machine.Tick()

			if err := r.setPlaying(sound > 0); err != nil {
				return err
			}
		}
	}
}

func (r *Runner) setPlaying(playing bool) error {
	if r.Audio == nil {
		return nil
	}

	if err := r.Audio.SetPlaying(playing); err != nil {
		return fmt.Errorf("audio: %w", err)
	}

	return nil
}

func (r *Runner) cycle(ctx context.Context) error {
	lim := newLimiter(ctx, r.Rate)

	for {
		if r.Machine.WaitingForKey() {
			quit, err := r.awaitKey(ctx)

			if err != nil || quit {
				return err
			}

			continue
		}

		if !lim.wait(ctx) {
			return nil
		}

		if err := r.Machine.Cycle(); err != nil {
			return err
		}

		if err := r.render(); err != nil {
			return err
		}

		keys, quit, err := r.Input.Poll()

		if err != nil {
			return fmt.Errorf("input: %w", err)
		}

		if quit {
			r.Logger.Debug("Quit requested")
			return nil
		}

		r.Machine.SetKeys(keys)
	}
}

// The whole simulation is suspended here. Timers keep ticking.
func (r *Runner) awaitKey(ctx context.Context) (bool, error) {
	if err := r.render(); err != nil {
		return false, err
	}

	key, quit, err := r.Input.WaitKey(ctx)

	if err != nil {
		return false, fmt.Errorf("input: %w", err)
	}

	if quit || ctx.Err() != nil {
		return true, nil
	}

	r.Logger.Debug("Key delivered", log.Hex("key", key))
	r.Machine.DeliverKey(key)

	return false, nil
}

func (r *Runner) render() error {
	frame, dirty := r.Machine.Frame()

	if !dirty || r.Display == nil {
		return nil
	}

	if err := r.Display.Render(frame); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	return nil
}
