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
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/lassandro/gochip8/pkg/disasm"
	"github.com/lassandro/gochip8/pkg/machine"
)

func (dbg *Debugger) out() io.Writer {
	if dbg.Out == nil {
		return os.Stdout
	}

	return dbg.Out
}

func (dbg *Debugger) handleBreak(mc *machine.Machine) {
	if dbg.HandleBreak != nil {
		dbg.HandleBreak(dbg, mc)
	}
}

// Runs the handlers for hits recorded during the last instruction. Reports
// whether any were pending.
func (dbg *Debugger) flush(mc *machine.Machine) bool {
	if len(dbg.pending) == 0 {
		return false
	}

	pending := dbg.pending
	dbg.pending = nil

	for _, ev := range pending {
		switch ev.Type {
		case readEvent:
			if dbg.HandleRead != nil {
				dbg.HandleRead(ev.Value, dbg, mc)
			}
		case writeEvent:
			if dbg.HandleWrite != nil {
				dbg.HandleWrite(ev.Value, dbg, mc)
			}
		case unknownEvent:
			if dbg.HandleUnknown != nil {
				dbg.HandleUnknown(ev.Value, dbg, mc)
			}
		}
	}

	return true
}

func (dbg *Debugger) Step(mc *machine.Machine) {
	// A stop for a watchpoint replaces a break on the same instruction
	if dbg.flush(mc) {
		return
	}

	if dbg.resumeSet && mc.State.Program == dbg.resume {
		dbg.resumeSet = false
		dbg.handleBreak(mc)
		return
	}

	if dbg.Break.Load() {
		dbg.handleBreak(mc)
		return
	}

	for _, breakpoint := range dbg.Breakpoints {
		if mc.State.Program == breakpoint.Addr {
			dbg.handleBreak(mc)
			break
		}
	}
}

func (dbg *Debugger) Read(addr uint16, mc *machine.Machine) {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == WriteWatch {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.pending = append(dbg.pending, event{readEvent, addr})
			break
		}
	}
}

func (dbg *Debugger) Write(addr uint16, mc *machine.Machine) {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == ReadWatch {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.pending = append(dbg.pending, event{writeEvent, addr})
			break
		}
	}
}

func (dbg *Debugger) Unknown(instruction uint16, mc *machine.Machine) {
	dbg.pending = append(dbg.pending, event{unknownEvent, instruction})
}

// Runs until the next instruction. Calls are stepped over, stopping once the
// subroutine returns.
func (dbg *Debugger) Next(state *machine.MachineState) {
	line := disasm.Range(state.Memory[:], state.Program, 1)[0]

	if line.Call {
		dbg.resume = (state.Program + 2) & machine.ADDR_MASK
		dbg.resumeSet = true
		dbg.Break.Store(false)
		return
	}

	dbg.Break.Store(true)
}

func (dbg *Debugger) Continue() {
	dbg.resumeSet = false
	dbg.Break.Store(false)
}

// Address of a label in the symbol table
func (dbg *Debugger) Label(name string) (uint16, bool) {
	if dbg.SymTable == nil {
		return 0, false
	}

	for addr, label := range dbg.SymTable.Labels {
		if label == name {
			return addr, true
		}
	}

	return 0, false
}

// Lists source lines starting at the instruction at addr. Without a source
// file the instructions are disassembled from memory instead.
func (dbg *Debugger) PrintSource(state *machine.MachineState, addr, count uint16) {
	out := dbg.out()

	if dbg.Source == nil || dbg.SymTable == nil {
		dbg.PrintDisasm(state, addr, count)
		return
	}

	offset, exists := dbg.SymTable.Symbols[addr]

	if !exists {
		fmt.Fprintf(out, "No instruction found at %#03x\n", addr)
		return
	}

	if _, err := dbg.Source.Seek(offset, io.SeekStart); err != nil {
		fmt.Fprintln(out, err)
		return
	}

	lines := make(map[int64]uint16, len(dbg.SymTable.Symbols))

	for lineaddr, linebyte := range dbg.SymTable.Symbols {
		lines[linebyte] = lineaddr
	}

	scanner := bufio.NewScanner(dbg.Source)
	scanner.Split(bufio.ScanLines)

	for i := uint16(0); i < count; i++ {
		if !scanner.Scan() {
			break
		}

		line := scanner.Text()

		if lineaddr, found := lines[offset]; found {
			fmt.Fprintf(out, "\033[1m[%#03x]\033[0m ", lineaddr)
		} else {
			fmt.Fprint(out, "\033[1;30m~~~~~~~\033[0m ")
		}

		fmt.Fprintln(out, line)

		offset += int64(len(line) + 1)
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintln(out, err)
	}
}

func (dbg *Debugger) PrintDisasm(state *machine.MachineState, addr, count uint16) {
	out := dbg.out()

	for _, line := range disasm.Range(state.Memory[:], addr, int(count)) {
		marker := ' '

		if line.Address == state.Program {
			marker = '>'
		}

		fmt.Fprintf(
			out,
			"%c\033[1m[%#03x]\033[0m %04x  %s",
			marker,
			line.Address,
			line.Opcode,
			line,
		)

		if dbg.SymTable != nil {
			if label, exists := dbg.SymTable.Labels[line.Address]; exists {
				fmt.Fprintf(out, " \033[1;30m(%s)\033[0m", label)
			}
		}

		fmt.Fprintln(out)
	}
}

func (dbg *Debugger) PrintMem(state *machine.MachineState, addr, count uint16) {
	out := dbg.out()

	for i := uint16(0); i < count; i++ {
		at := (addr + i) & machine.ADDR_MASK

		if i == 0 {
			fmt.Fprintf(out, "\033[1m[%#03x]\033[0m ", at)
		} else if i%8 == 0 {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "\033[1m[%#03x]\033[0m ", at)
		}

		result := state.Memory[at]

		if result == 0 {
			fmt.Fprintf(out, "\033[1;30m%#02x\033[0m ", result)
		} else {
			fmt.Fprintf(out, "%#02x ", result)
		}
	}

	fmt.Fprintln(out)
}
