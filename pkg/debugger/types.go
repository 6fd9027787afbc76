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

package debugger

import (
	"io"
	"sync/atomic"

	"github.com/lassandro/gochip8/pkg/assembler"
	"github.com/lassandro/gochip8/pkg/machine"
)

type WatchpointType uint

const (
	ReadWatch WatchpointType = iota
	WriteWatch
	ReadWriteWatch
)

func (wtype WatchpointType) String() string {
	switch wtype {
	case ReadWatch:
		return "read"
	case WriteWatch:
		return "write"
	case ReadWriteWatch:
		return "readwrite"
	}

	return "<invalid>"
}

type Watchpoint struct {
	Addr uint16
	Type WatchpointType
}

type Breakpoint struct {
	Addr uint16
}

// Debugger hooks run on the goroutine stepping the machine, while it holds the
// machine lock. Handlers must use mc.State directly. Watchpoint and unknown
// instruction handlers run once the instruction has completed, so changes they
// make to the program counter stick.
type Debugger struct {
	// Stops after every instruction while set. Safe to set from a signal
	// handler.
	Break atomic.Bool

	Breakpoints []Breakpoint
	Watchpoints []Watchpoint

	Source   io.ReadSeeker
	SymTable *assembler.SymTable

	// Listings are written here
	Out io.Writer

	HandleBreak   func(*Debugger, *machine.Machine)
	HandleRead    func(uint16, *Debugger, *machine.Machine)
	HandleWrite   func(uint16, *Debugger, *machine.Machine)
	HandleUnknown func(uint16, *Debugger, *machine.Machine)

	// Temporary breakpoint set when stepping over a call
	resume    uint16
	resumeSet bool

	// Hits seen during the current instruction
	pending []event
}

type eventType uint

const (
	readEvent eventType = iota
	writeEvent
	unknownEvent
)

type event struct {
	Type  eventType
	Value uint16
}
