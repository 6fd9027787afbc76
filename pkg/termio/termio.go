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

// Display, keyboard and bell on a raw mode ANSI terminal.
package termio

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/lassandro/gochip8/pkg/machine"
)

const (
	ESC_HOME        = "\x1b[H"
	ESC_CLEAR       = "\x1b[2J"
	ESC_HIDE_CURSOR = "\x1b[?25l"
	ESC_SHOW_CURSOR = "\x1b[?25h"
	BELL            = "\a"

	KEY_ESCAPE = 0x1B

	// Terminals report presses only. A key counts as down for this long after
	// its last press or auto-repeat.
	KEY_HOLD = 150 * time.Millisecond

	// Interval between reads while waiting for a key
	WAIT_POLL = 10 * time.Millisecond
)

// Keypad layout, key 0x0 through 0xF
//
//   1 2 3 4
//   Q W E R
//   A S D F
//   Z X C V
const KEYMAP = "1234qwerasdfzxcv"

type Frontend struct {
	In  io.Reader
	Out *bufio.Writer

	// Replaceable for tests
	Now func() time.Time

	lock    sync.Mutex
	pressed [machine.KEY_COUNT]time.Time
	buffer  []byte
	playing bool
}

// in should be a raw mode terminal, reads must not block
func New(in io.Reader, out io.Writer) *Frontend {
	return &Frontend{
		In:     in,
		Out:    bufio.NewWriter(out),
		Now:    time.Now,
		buffer: make([]byte, 64),
	}
}

// Returns the key bound to b, or -1. Letters match in either case.
func KeyIndex(b byte) int {
	if b >= 'A' && b <= 'Z' {
		b += 'a' - 'A'
	}

	for i := 0; i < len(KEYMAP); i++ {
		if KEYMAP[i] == b {
			return i
		}
	}

	return -1
}

func (f *Frontend) Open() error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.Out.WriteString(ESC_HIDE_CURSOR + ESC_CLEAR + ESC_HOME)
	return f.Out.Flush()
}

func (f *Frontend) Close() error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.Out.WriteString(ESC_SHOW_CURSOR + "\r\n")
	return f.Out.Flush()
}

// Pairs of rows share a line using half block characters
func (f *Frontend) Render(frame machine.Frame) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.Out.WriteString(ESC_HOME)

	for y := 0; y < frame.Height; y += 2 {
		for x := 0; x < frame.Width; x++ {
			top := frame.At(x, y)
			bottom := y+1 < frame.Height && frame.At(x, y+1)

			switch {
			case top && bottom:
				f.Out.WriteString("█")
			case top:
				f.Out.WriteString("▀")
			case bottom:
				f.Out.WriteString("▄")
			default:
				f.Out.WriteByte(' ')
			}
		}

		f.Out.WriteString("\r\n")
	}

	return f.Out.Flush()
}

// Consumes pending input. Returns the first newly pressed key (or -1) and
// whether escape was pressed.
func (f *Frontend) read() (int, bool, error) {
	n, err := f.In.Read(f.buffer)

	if err != nil && !errors.Is(err, io.EOF) {
		return -1, false, err
	}

	now := f.Now()
	first := -1

	for i := 0; i < n; i++ {
		b := f.buffer[i]

		if b == KEY_ESCAPE {
			// Arrow and function keys arrive as escape sequences
			if i+1 < n && (f.buffer[i+1] == '[' || f.buffer[i+1] == 'O') {
				break
			}

			return -1, true, nil
		}

		key := KeyIndex(b)

		if key < 0 {
			continue
		}

		f.pressed[key] = now

		if first < 0 {
			first = key
		}
	}

	return first, false, nil
}

func (f *Frontend) Poll() ([machine.KEY_COUNT]bool, bool, error) {
	var keys [machine.KEY_COUNT]bool

	_, quit, err := f.read()

	if err != nil || quit {
		return keys, quit, err
	}

	now := f.Now()

	for i, at := range f.pressed {
		keys[i] = !at.IsZero() && now.Sub(at) < KEY_HOLD
	}

	return keys, false, nil
}

func (f *Frontend) WaitKey(ctx context.Context) (uint8, bool, error) {
	ticker := time.NewTicker(WAIT_POLL)
	defer ticker.Stop()

	for {
		key, quit, err := f.read()

		if err != nil || quit {
			return 0, quit, err
		}

		if key >= 0 {
			return uint8(key), false, nil
		}

		select {
		case <-ctx.Done():
			return 0, false, nil
		case <-ticker.C:
		}
	}
}

// Rings the bell once each time the sound timer starts
func (f *Frontend) SetPlaying(playing bool) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if playing == f.playing {
		return nil
	}

	f.playing = playing

	if !playing {
		return nil
	}

	f.Out.WriteString(BELL)
	return f.Out.Flush()
}
