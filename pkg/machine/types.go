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

import (
	"errors"
	"sync"

	"github.com/retroenv/retrogolib/log"
)

var (
	ErrROMTooLarge       = errors.New("program exceeds available memory")
	ErrStackOverflow     = errors.New("call stack overflow")
	ErrStackUnderflow    = errors.New("call stack underflow")
	ErrInvalidResolution = errors.New("invalid display resolution")
)

type MachineState struct {
	Memory    [MEMORY_SIZE]byte
	Registers [REGISTER_COUNT]uint8
	Index     uint16
	Program   uint16

	Delay uint8
	Sound uint8

	Stack        [STACK_DEPTH]uint16
	StackPointer uint8

	// Row-major, DisplayWidth cells per row
	Display       [DISPLAY_MAX_WIDTH * DISPLAY_MAX_HEIGHT]uint8
	DisplayWidth  uint8
	DisplayHeight uint8
	DisplayDirty  bool

	Keys [KEY_COUNT]bool

	// Register awaiting a key press, KEY_NONE otherwise
	WaitKey int8
}

type MachineDebugger interface {
	Step(mc *Machine)
	Read(addr uint16, mc *Machine)
	Write(addr uint16, mc *Machine)
	Unknown(instruction uint16, mc *Machine)
}

// Random is satisfied by *math/rand.Rand
type Random interface {
	Intn(n int) int
}

// Frame is a detached copy of the display
type Frame struct {
	Width  int
	Height int
	Pixels []uint8
}

func (f Frame) At(x, y int) bool {
	return f.Pixels[y*f.Width+x] != 0
}

type Machine struct {
	State    MachineState
	Debugger MachineDebugger
	Random   Random
	Logger   *log.Logger

	lock sync.Mutex
	rom  []byte
}
