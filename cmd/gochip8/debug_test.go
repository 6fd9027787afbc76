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
	"testing"

	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/retroenv/retrogolib/assert"
)

func TestDebugReg(t *testing.T) {
	var state machine.MachineState
	state.Reset()

	debugReg(&state, []string{"I", "0xF123"})
	assert.Equal(t, uint16(0x123), state.Index)

	debugReg(&state, []string{"PC", "0x1FFE"})
	assert.Equal(t, uint16(0xFFE), state.Program)

	debugReg(&state, []string{"VA", "0x2A"})
	assert.Equal(t, uint8(0x2A), state.Registers[0xA])

	// Too wide for a byte register
	debugReg(&state, []string{"DT", "0x100"})
	assert.Equal(t, uint8(0), state.Delay)

	debugReg(&state, []string{"SP", "17"})
	assert.Equal(t, uint8(0), state.StackPointer)
}
