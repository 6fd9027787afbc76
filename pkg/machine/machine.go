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
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/lassandro/gochip8/pkg/encoding"
	"github.com/retroenv/retrogolib/log"
)

func (mc *MachineState) Reset() {
	*mc = MachineState{}

	copy(mc.Memory[MEMSPACE_FONT:], FONT[:])

	mc.Program = MEMSPACE_PROGRAM
	mc.WaitKey = KEY_NONE
	mc.DisplayWidth = DISPLAY_WIDTH
	mc.DisplayHeight = DISPLAY_HEIGHT
}

// Resets the state and copies program to MEMSPACE_PROGRAM
func (mc *MachineState) Load(program []byte) error {
	if len(program) > PROGRAM_MAX_SIZE {
		return fmt.Errorf("%d bytes: %w", len(program), ErrROMTooLarge)
	}

	mc.Reset()
	copy(mc.Memory[MEMSPACE_PROGRAM:], program)

	return nil
}

func (mc *MachineState) Resize(width, height int) error {
	if width <= 0 || height <= 0 ||
		width > DISPLAY_MAX_WIDTH || height > DISPLAY_MAX_HEIGHT {
		return fmt.Errorf("%dx%d: %w", width, height, ErrInvalidResolution)
	}

	mc.DisplayWidth = uint8(width)
	mc.DisplayHeight = uint8(height)
	mc.ClearDisplay()

	return nil
}

func (mc *MachineState) ClearDisplay() {
	for i := range mc.Display {
		mc.Display[i] = 0
	}

	mc.DisplayDirty = true
}

// Decrements both timers towards zero and returns the sound timer
func (mc *MachineState) UpdateTimers() uint8 {
	if mc.Delay > 0 {
		mc.Delay--
	}

	if mc.Sound > 0 {
		mc.Sound--
	}

	return mc.Sound
}

// Reads a whole program image and loads it. The machine must not be running.
func (mc *Machine) LoadROM(reader io.Reader) error {
	program, err := io.ReadAll(io.LimitReader(reader, int64(PROGRAM_MAX_SIZE)+1))

	if err != nil {
		return err
	}

	if err := mc.State.Load(program); err != nil {
		return err
	}

	mc.rom = program

	return nil
}

// Reloads the last program given to LoadROM
func (mc *Machine) Restart() {
	// Cannot fail, the image was validated by LoadROM
	_ = mc.State.Load(mc.rom)
}

func (mc *Machine) push(value uint16) error {
	if int(mc.State.StackPointer) >= STACK_DEPTH {
		return ErrStackOverflow
	}

	mc.State.Stack[mc.State.StackPointer] = value
	mc.State.StackPointer++

	return nil
}

func (mc *Machine) pop() (uint16, error) {
	if mc.State.StackPointer == 0 {
		return 0, ErrStackUnderflow
	}

	mc.State.StackPointer--

	return mc.State.Stack[mc.State.StackPointer], nil
}

func (mc *Machine) read(addr uint16) byte {
	addr &= ADDR_MASK

	if mc.Debugger != nil {
		mc.Debugger.Read(addr, mc)
	}

	return mc.State.Memory[addr]
}

func (mc *Machine) write(addr uint16, value byte) {
	addr &= ADDR_MASK

	mc.State.Memory[addr] = value

	if mc.Debugger != nil {
		mc.Debugger.Write(addr, mc)
	}
}

func (mc *Machine) random() int {
	if mc.Random == nil {
		mc.Random = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return mc.Random.Intn(256)
}

func (mc *Machine) unknown(instruction uint16) {
	if mc.Logger != nil {
		mc.Logger.Warn(
			"Unknown instruction",
			log.Hex("opcode", instruction),
			log.Hex("address", mc.State.Program),
		)
	}

	if mc.Debugger != nil {
		mc.Debugger.Unknown(instruction, mc)
	}
}

func (mc *Machine) fault(instruction uint16, err error) error {
	return fmt.Errorf(
		"%#04x at %#03x: %w", instruction, mc.State.Program, err,
	)
}

func (mc *Machine) draw(vx, vy, rows uint8) {
	state := &mc.State
	width := uint16(state.DisplayWidth)
	height := uint16(state.DisplayHeight)

	state.Registers[REGISTER_FLAG] = 0

	for row := uint16(0); row < uint16(rows); row++ {
		sprite := mc.read(state.Index + row)
		y := (uint16(vy) + row) % height

		for bit := uint16(0); bit < 8; bit++ {
			if sprite&(0x80>>bit) == 0 {
				continue
			}

			x := (uint16(vx) + bit) % width
			cell := &state.Display[y*width+x]

			if *cell == 1 {
				state.Registers[REGISTER_FLAG] = 1
			}

			*cell ^= 1
		}
	}

	state.DisplayDirty = true
}

// Executes a single instruction. An error is only returned for call stack
// misuse, in which case the state is left as it was before the instruction.
func (mc *Machine) Step() error {
	state := &mc.State

	instruction := encoding.Word(
		mc.read(state.Program), mc.read(state.Program+1),
	)
	opcode := instruction >> 12

	x := encoding.X(instruction)
	y := encoding.Y(instruction)
	nn := encoding.NN(instruction)
	nnn := encoding.NNN(instruction)

	next := state.Program + 2

	switch opcode {
	// CLS  |0000    |0000   |1110   |0000   | Clear display
	// RET  |0000    |0000   |1110   |1110   | Return from subroutine
	// LOW  |0000    |0000   |1111   |1110   | Low resolution (64x32)
	// HIGH |0000    |0000   |1111   |1111   | High resolution (128x64)
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SYS:
		switch instruction {
		case SYS_CLS:
			state.ClearDisplay()

		case SYS_RET:
			addr, err := mc.pop()

			if err != nil {
				return mc.fault(instruction, err)
			}

			next = addr + 2

		case SYS_LOW:
			_ = state.Resize(DISPLAY_WIDTH, DISPLAY_HEIGHT)

		case SYS_HIGH:
			_ = state.Resize(DISPLAY_MAX_WIDTH, DISPLAY_MAX_HEIGHT)

		default:
			mc.unknown(instruction)
		}

	// JP   |0001    |addr                   | Jump
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_JP:
		next = nnn

	// CALL |0010    |addr                   | Call subroutine
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_CALL:
		if err := mc.push(state.Program); err != nil {
			return mc.fault(instruction, err)
		}

		next = nnn

	// SE   |0011    |Vx     |byte           | Skip if equal
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SE_IMM:
		if state.Registers[x] == nn {
			next += 2
		}

	// SNE  |0100    |Vx     |byte           | Skip if not equal
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SNE_IMM:
		if state.Registers[x] != nn {
			next += 2
		}

	// SE   |0101    |Vx     |Vy     |0000   | Skip if registers equal
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SE_REG:
		if state.Registers[x] == state.Registers[y] {
			next += 2
		}

	// LD   |0110    |Vx     |byte           | Load immediate
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LD_IMM:
		state.Registers[x] = nn

	// ADD  |0111    |Vx     |byte           | Add immediate (no carry)
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_ADD_IMM:
		state.Registers[x] += nn

	// LD   |1000    |Vx     |Vy     |0000   | Assign
	// OR   |1000    |Vx     |Vy     |0001   | Bitwise or
	// AND  |1000    |Vx     |Vy     |0010   | Bitwise and
	// XOR  |1000    |Vx     |Vy     |0011   | Bitwise xor
	// ADD  |1000    |Vx     |Vy     |0100   | Add, VF = carry
	// SUB  |1000    |Vx     |Vy     |0101   | Vx - Vy, VF = no borrow
	// SHR  |1000    |Vx     |Vy     |0110   | Vx / 2, VF = low bit
	// SUBN |1000    |Vx     |Vy     |0111   | Vy - Vx, VF = no borrow
	// SHL  |1000    |Vx     |Vy     |1110   | Vx * 2, VF = high bit
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_ALU:
		vx := state.Registers[x]
		vy := state.Registers[y]

		// Flag first, a result targeting VF overrides it
		switch uint16(encoding.N(instruction)) {
		case ALU_LD:
			state.Registers[x] = vy

		case ALU_OR:
			state.Registers[x] = vx | vy

		case ALU_AND:
			state.Registers[x] = vx & vy

		case ALU_XOR:
			state.Registers[x] = vx ^ vy

		case ALU_ADD:
			state.Registers[REGISTER_FLAG] = flag(uint16(vx)+uint16(vy) > 0xFF)
			state.Registers[x] = vx + vy

		case ALU_SUB:
			state.Registers[REGISTER_FLAG] = flag(vx > vy)
			state.Registers[x] = vx - vy

		case ALU_SHR:
			// Vy is ignored. Shifts in place after the flag write, so SHR VF
			// shifts the flag.
			state.Registers[REGISTER_FLAG] = vx & 0x1
			state.Registers[x] >>= 1

		case ALU_SUBN:
			state.Registers[REGISTER_FLAG] = flag(vy > vx)
			state.Registers[x] = vy - vx

		case ALU_SHL:
			// Vy is ignored
			state.Registers[REGISTER_FLAG] = vx >> 7
			state.Registers[x] <<= 1

		default:
			mc.unknown(instruction)
		}

	// SNE  |1001    |Vx     |Vy     |0000   | Skip if registers not equal
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SNE_REG:
		if state.Registers[x] != state.Registers[y] {
			next += 2
		}

	// LD   |1010    |addr                   | Load address register
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LD_I:
		state.Index = nnn

	// JP   |1011    |addr                   | Jump to V0 + addr
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_JP_V0:
		next = nnn + uint16(state.Registers[0])

	// RND  |1100    |Vx     |byte           | Random byte and mask
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_RND:
		state.Registers[x] = uint8(mc.random()) & nn

	// DRW  |1101    |Vx     |Vy     |n      | Draw n byte sprite at I
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_DRW:
		mc.draw(state.Registers[x], state.Registers[y], encoding.N(instruction))

	// SKP  |1110    |Vx     |1001   |1110   | Skip if key pressed
	// SKNP |1110    |Vx     |1010   |0001   | Skip if key not pressed
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_KEY:
		pressed := state.Keys[state.Registers[x]&0xF]

		switch uint16(nn) {
		case KEY_SKP:
			if pressed {
				next += 2
			}

		case KEY_SKNP:
			if !pressed {
				next += 2
			}

		default:
			mc.unknown(instruction)
		}

	// LD   |1111    |Vx     |0000   |0111   | Vx = DT
	// LD   |1111    |Vx     |0000   |1010   | Await key into Vx
	// LD   |1111    |Vx     |0001   |0101   | DT = Vx
	// LD   |1111    |Vx     |0001   |1000   | ST = Vx
	// ADD  |1111    |Vx     |0001   |1110   | I += Vx
	// LD   |1111    |Vx     |0010   |1001   | I = glyph address of Vx
	// LD   |1111    |Vx     |0011   |0011   | BCD of Vx at I
	// LD   |1111    |Vx     |0101   |0101   | Store V0..Vx at I
	// LD   |1111    |Vx     |0110   |0101   | Load V0..Vx from I
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_MISC:
		switch uint16(nn) {
		case MISC_LD_VX_DT:
			state.Registers[x] = state.Delay

		case MISC_LD_VX_K:
			state.WaitKey = int8(x)

		case MISC_LD_DT_VX:
			state.Delay = state.Registers[x]

		case MISC_LD_ST_VX:
			state.Sound = state.Registers[x]

		case MISC_ADD_I_VX:
			state.Index = (state.Index + uint16(state.Registers[x])) & ADDR_MASK

		case MISC_LD_F_VX:
			state.Index = uint16(state.Registers[x]) * FONT_GLYPH_SIZE

		case MISC_LD_B_VX:
			value := state.Registers[x]

			mc.write(state.Index, value/100)
			mc.write(state.Index+1, (value/10)%10)
			mc.write(state.Index+2, value%10)

		case MISC_LD_MEM:
			for i := uint16(0); i <= uint16(x); i++ {
				mc.write(state.Index+i, state.Registers[i])
			}

		case MISC_LD_REG:
			for i := uint16(0); i <= uint16(x); i++ {
				state.Registers[i] = mc.read(state.Index + i)
			}

		default:
			mc.unknown(instruction)
		}
	}

	state.Program = next & ADDR_MASK

	if mc.Debugger != nil {
		mc.Debugger.Step(mc)
	}

	return nil
}

func flag(set bool) uint8 {
	if set {
		return 1
	}

	return 0
}
