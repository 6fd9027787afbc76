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

package machine

// Everything below takes the machine lock. Once a driver loop and a ticker
// are running, State must only be touched through these methods, or from
// Debugger hooks which already run under the lock.

// Executes one instruction under the lock
func (mc *Machine) Cycle() error {
	mc.lock.Lock()
	defer mc.lock.Unlock()

	return mc.Step()
}

// Applies one timer decrement under the lock and returns the sound timer.
// Callers act on the result after the lock has been released.
func (mc *Machine) Tick() uint8 {
	mc.lock.Lock()
	defer mc.lock.Unlock()

	return mc.State.UpdateTimers()
}

// Returns a copy of the display if it changed since the last call
func (mc *Machine) Frame() (Frame, bool) {
	mc.lock.Lock()
	defer mc.lock.Unlock()

	if !mc.State.DisplayDirty {
		return Frame{}, false
	}

	width := int(mc.State.DisplayWidth)
	height := int(mc.State.DisplayHeight)

	frame := Frame{
		Width:  width,
		Height: height,
		Pixels: make([]uint8, width*height),
	}

	copy(frame.Pixels, mc.State.Display[:width*height])
	mc.State.DisplayDirty = false

	return frame, true
}

func (mc *Machine) SetKeys(keys [KEY_COUNT]bool) {
	mc.lock.Lock()
	defer mc.lock.Unlock()

	mc.State.Keys = keys
}

func (mc *Machine) WaitingForKey() bool {
	mc.lock.Lock()
	defer mc.lock.Unlock()

	return mc.State.WaitKey != KEY_NONE
}

// Satisfies a pending await-key instruction. Reports whether one was pending.
func (mc *Machine) DeliverKey(key uint8) bool {
	mc.lock.Lock()
	defer mc.lock.Unlock()

	if mc.State.WaitKey == KEY_NONE {
		return false
	}

	mc.State.Registers[mc.State.WaitKey] = key & 0xF
	mc.State.WaitKey = KEY_NONE

	return true
}

func (mc *Machine) Snapshot() MachineState {
	mc.lock.Lock()
	defer mc.lock.Unlock()

	return mc.State
}
