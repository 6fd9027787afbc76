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

package sdlio

import (
	"context"

	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/veandco/go-sdl2/sdl"
)

// Milliseconds between cancellation checks while waiting for a key
const WAIT_POLL_MS = 50

// Keypad layout, key 0x0 through 0xF
//
//   1 2 3 4
//   Q W E R
//   A S D F
//   Z X C V
var KEYMAP = [machine.KEY_COUNT]sdl.Scancode{
	sdl.SCANCODE_1, sdl.SCANCODE_2, sdl.SCANCODE_3, sdl.SCANCODE_4,
	sdl.SCANCODE_Q, sdl.SCANCODE_W, sdl.SCANCODE_E, sdl.SCANCODE_R,
	sdl.SCANCODE_A, sdl.SCANCODE_S, sdl.SCANCODE_D, sdl.SCANCODE_F,
	sdl.SCANCODE_Z, sdl.SCANCODE_X, sdl.SCANCODE_C, sdl.SCANCODE_V,
}

// Returns the key bound to scancode, or -1
func KeyIndex(scancode sdl.Scancode) int {
	for i, bound := range KEYMAP {
		if bound == scancode {
			return i
		}
	}

	return -1
}

// Reports whether event asks to quit, and the pressed key if it is a fresh
// key press of a bound key (-1 otherwise).
func classify(event sdl.Event) (bool, int) {
	switch ev := event.(type) {
	case *sdl.QuitEvent:
		return true, -1

	case *sdl.KeyboardEvent:
		if ev.Type != sdl.KEYDOWN || ev.Repeat != 0 {
			return false, -1
		}

		if ev.Keysym.Scancode == sdl.SCANCODE_ESCAPE {
			return true, -1
		}

		return false, KeyIndex(ev.Keysym.Scancode)
	}

	return false, -1
}

func (f *Frontend) Poll() ([machine.KEY_COUNT]bool, bool, error) {
	var keys [machine.KEY_COUNT]bool

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if quit, _ := classify(event); quit {
			return keys, true, nil
		}
	}

	state := sdl.GetKeyboardState()

	for i, scancode := range KEYMAP {
		keys[i] = state[scancode] != 0
	}

	return keys, false, nil
}

func (f *Frontend) WaitKey(ctx context.Context) (uint8, bool, error) {
	for ctx.Err() == nil {
		event := sdl.WaitEventTimeout(WAIT_POLL_MS)

		if event == nil {
			continue
		}

		quit, key := classify(event)

		if quit {
			return 0, true, nil
		}

		if key >= 0 {
			return uint8(key), false, nil
		}
	}

	return 0, false, nil
}
