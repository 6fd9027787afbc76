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

package disasm

import (
	"fmt"
	"strings"

	"github.com/lassandro/gochip8/pkg/encoding"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// Mnemonic used for words that do not decode to an instruction
const DATA = "DATA"

type Line struct {
	Address  uint16
	Opcode   uint16
	Mnemonic string
	Operands string

	// Conditionally skips the following instruction
	Skip bool
	// Pushes a return address
	Call bool
}

func (l Line) String() string {
	if l.Operands == "" {
		return l.Mnemonic
	}

	return l.Mnemonic + " " + l.Operands
}

// Finds opcode in the generic CHIP-8 opcode table
func lookup(opcode uint16) (chip8.Opcode, bool) {
	for _, op := range chip8.Opcodes[int(opcode>>12)] {
		if op.Info.Mask&opcode == op.Info.Value {
			return op, true
		}
	}

	return chip8.Opcode{}, false
}

// Addressing mode the table lists for op
func mode(op chip8.Opcode) chip8.Mode {
	for mode, info := range op.Instruction.Addressing {
		if info == op.Info {
			return mode
		}
	}

	return chip8.NoAddressing
}

func Disassemble(opcode uint16) Line {
	line := Line{Opcode: opcode}

	op, ok := lookup(opcode)

	if !ok {
		// Resolution switches are not in the table
		switch opcode {
		case machine.SYS_LOW:
			line.Mnemonic = "LOW"
		case machine.SYS_HIGH:
			line.Mnemonic = "HIGH"
		default:
			line.Mnemonic = DATA
			line.Operands = fmt.Sprintf("$%04X", opcode)
		}

		return line
	}

	name := op.Instruction.Name

	line.Mnemonic = strings.ToUpper(name)
	line.Operands = operands(name, mode(op), opcode)
	line.Skip = chip8.SkipInstructions.Contains(name)
	line.Call = name == chip8.CallName

	return line
}

// Disassembles count words of mem starting at from. Addresses wrap at the end
// of memory.
func Range(mem []byte, from uint16, count int) []Line {
	lines := make([]Line, 0, count)
	size := uint16(len(mem))

	for i := 0; i < count && size > 1; i++ {
		addr := (from + uint16(i*2)) % size
		next := (addr + 1) % size

		line := Disassemble(encoding.Word(mem[addr], mem[next]))
		line.Address = addr

		lines = append(lines, line)
	}

	return lines
}

func operands(name string, addressing chip8.Mode, opcode uint16) string {
	x := encoding.X(opcode)
	y := encoding.Y(opcode)

	switch addressing {
	case chip8.AbsoluteAddressing:
		return fmt.Sprintf("$%03X", encoding.NNN(opcode))
	case chip8.V0AbsoluteAddressing:
		return fmt.Sprintf("V0, $%03X", encoding.NNN(opcode))
	case chip8.RegisterAddressing:
		return fmt.Sprintf("V%X", x)
	case chip8.RegisterValueAddressing:
		// Key skips carry their condition in the low byte
		if name == chip8.SkpName || name == chip8.SknpName {
			return fmt.Sprintf("V%X", x)
		}

		return fmt.Sprintf("V%X, $%02X", x, encoding.NN(opcode))
	case chip8.RegisterRegisterAddressing:
		return fmt.Sprintf("V%X, V%X", x, y)
	case chip8.RegisterRegisterNibbleAddressing:
		return fmt.Sprintf("V%X, V%X, $%X", x, y, encoding.N(opcode))
	case chip8.RegisterDTAddressing:
		return fmt.Sprintf("V%X, DT", x)
	case chip8.RegisterKAddressing:
		return fmt.Sprintf("V%X, K", x)
	case chip8.RegisterIndirectIAddressing:
		return fmt.Sprintf("V%X, [I]", x)
	case chip8.DTRegisterAddressing:
		return fmt.Sprintf("DT, V%X", x)
	case chip8.STRegisterAddressing:
		return fmt.Sprintf("ST, V%X", x)
	case chip8.FRegisterAddressing:
		return fmt.Sprintf("F, V%X", x)
	case chip8.BRegisterAddressing:
		return fmt.Sprintf("B, V%X", x)
	case chip8.IAbsoluteAddressing:
		return fmt.Sprintf("I, $%03X", encoding.NNN(opcode))
	case chip8.IRegisterAddressing:
		return fmt.Sprintf("I, V%X", x)
	case chip8.IIndirectRegisterAddressing:
		return fmt.Sprintf("[I], V%X", x)
	}

	return ""
}
