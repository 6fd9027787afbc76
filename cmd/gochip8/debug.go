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
	"bufio"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/lassandro/gochip8/pkg/debugger"
	"github.com/lassandro/gochip8/pkg/encoding"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/lassandro/gochip8/pkg/termio"
)

var lastcmd []string

// Set up by main before the first prompt
var replInput *bufio.Scanner
var replTerm *termio.RawTerm
var replQuit func()

var shouldexit bool

// Resolves a label or a hex address
func debugAddr(dbg *debugger.Debugger, arg string) (uint16, error) {
	if addr, ok := dbg.Label(arg); ok {
		return addr, nil
	}

	addr, err := encoding.DecodeHex(arg)

	if err != nil {
		return 0, err
	}

	return addr & machine.ADDR_MASK, nil
}

// Parses the optional [address|label] [count] arguments shared by listings
func debugRange(dbg *debugger.Debugger, mc *machine.MachineState, args []string, size uint16) (uint16, uint16, bool) {
	var addr uint16 = mc.Program

	if len(args) > 2 {
		return 0, 0, false
	}

	if len(args) > 0 {
		value, err := debugAddr(dbg, args[0])

		if err == nil {
			addr = value
		} else {
			count, err := strconv.ParseUint(args[0], 10, 16)

			if err != nil {
				fmt.Println(err)
				return 0, 0, false
			}

			size = uint16(count)
		}
	}

	if len(args) > 1 {
		count, err := strconv.ParseUint(args[1], 10, 16)

		if err != nil {
			fmt.Println(err)
			return 0, 0, false
		}

		size = uint16(count)
	}

	return addr, size, true
}

func debugBreak(dbg *debugger.Debugger, args []string) {
	const usage = "break [add|list|remove|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "break add [0x###|label]"

		if len(args) != 1 {
			fmt.Println(usage)
			return
		}

		addr, err := debugAddr(dbg, args[0])

		if err != nil {
			fmt.Println(err)
			return
		}

		for _, breakpoint := range dbg.Breakpoints {
			if breakpoint.Addr == addr {
				return
			}
		}

		dbg.Breakpoints = append(dbg.Breakpoints, debugger.Breakpoint{Addr: addr})
		fmt.Printf("Breakpoint added [%#03x]\n", addr)

	case "l", "ls", "list":
		const usage = "break list"

		if len(args) != 0 {
			fmt.Println(usage)
			return
		}

		var fmtstring string
		{
			digits := math.Floor(math.Log10(float64(len(dbg.Breakpoints) + 1)))
			fmtstring = fmt.Sprintf("#%%0%dd: %%#03x\n", int64(digits)+1)
		}

		for i, breakpoint := range dbg.Breakpoints {
			fmt.Printf(fmtstring, i, breakpoint.Addr)
		}

	case "r", "rm", "remove":
		const usage = "break remove [#]"

		if len(args) != 1 {
			fmt.Println(usage)
			return
		}

		i, err := strconv.ParseInt(args[0], 10, 64)

		if err != nil {
			fmt.Println(err)
			return
		}

		if i < 0 || i >= int64(len(dbg.Breakpoints)) {
			fmt.Println("Invalid breakpoint number")
			return
		}

		dbg.Breakpoints[i] = dbg.Breakpoints[len(dbg.Breakpoints)-1]
		dbg.Breakpoints = dbg.Breakpoints[:len(dbg.Breakpoints)-1]
		fmt.Printf("Breakpoint removed [%d]\n", i)

	case "clear":
		dbg.Breakpoints = nil
		fmt.Println("Breakpoints reset")

	default:
		fmt.Printf("break: '%s' is not a valid command\n%s\n", cmd, usage)
	}
}

func debugWatch(dbg *debugger.Debugger, args []string) {
	const usage = "watch [add|list|remove|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "watch add [0x###|label] [read|write|readwrite]"

		if len(args) != 2 {
			fmt.Println(usage)
			return
		}

		addr, err := debugAddr(dbg, args[0])

		if err != nil {
			fmt.Println(err)
			return
		}

		var wtype debugger.WatchpointType

		switch args[1] {
		case "r", "read":
			wtype = debugger.ReadWatch
		case "w", "write":
			wtype = debugger.WriteWatch
		case "rw", "readwrite":
			wtype = debugger.ReadWriteWatch
		default:
			fmt.Println(usage)
			return
		}

		for _, watchpoint := range dbg.Watchpoints {
			if watchpoint.Addr == addr && watchpoint.Type == wtype {
				return
			}
		}

		dbg.Watchpoints = append(
			dbg.Watchpoints,
			debugger.Watchpoint{Addr: addr, Type: wtype},
		)

		fmt.Printf("Watchpoint added [%#03x] (%s)\n", addr, wtype)

	case "l", "ls", "list":
		const usage = "watch list"

		if len(args) != 0 {
			fmt.Println(usage)
			return
		}

		var fmtstring string
		{
			digits := math.Floor(math.Log10(float64(len(dbg.Watchpoints) + 1)))
			fmtstring = fmt.Sprintf("#%%0%dd: %%#03x %%s\n", int64(digits)+1)
		}

		for i, watchpoint := range dbg.Watchpoints {
			fmt.Printf(fmtstring, i, watchpoint.Addr, watchpoint.Type)
		}

	case "r", "rm", "remove":
		const usage = "watch remove [#]"

		if len(args) != 1 {
			fmt.Println(usage)
			return
		}

		i, err := strconv.ParseInt(args[0], 10, 64)

		if err != nil {
			fmt.Println(err)
			return
		}

		if i < 0 || i >= int64(len(dbg.Watchpoints)) {
			fmt.Println("Invalid watchpoint number")
			return
		}

		dbg.Watchpoints[i] = dbg.Watchpoints[len(dbg.Watchpoints)-1]
		dbg.Watchpoints = dbg.Watchpoints[:len(dbg.Watchpoints)-1]
		fmt.Printf("Watchpoint removed [%d]\n", i)

	case "clear":
		dbg.Watchpoints = nil
		fmt.Println("Watchpoints reset")

	default:
		fmt.Printf("watch: '%s' is not a valid command\n%s\n", cmd, usage)
	}
}

func debugReg(mc *machine.MachineState, args []string) {
	const usage = "register [V#|I|PC|SP|DT|ST] [value]"

	if len(args) == 0 {
		for i, register := range mc.Registers {
			fmt.Printf("\033[1mV%X:\033[0m %#02x\t", i, register)

			if i%8 == 7 {
				fmt.Println()
			}
		}

		fmt.Printf(
			"\033[1mI:\033[0m %#03x\t\033[1mPC:\033[0m %#03x\t"+
				"\033[1mSP:\033[0m %d\t\033[1mDT:\033[0m %d\t\033[1mST:\033[0m %d\n",
			mc.Index,
			mc.Program,
			mc.StackPointer,
			mc.Delay,
			mc.Sound,
		)

		for i := uint8(0); i < mc.StackPointer; i++ {
			fmt.Printf("\033[1;30m#%02d:\033[0m %#03x\n", i, mc.Stack[i])
		}

		return
	}

	if len(args) != 2 {
		fmt.Println(usage)
		return
	}

	value, err := encoding.DecodeValue(args[1])

	if err != nil {
		fmt.Println(err)
		return
	}

	name := strings.ToUpper(args[0])

	// Byte sized registers
	switch {
	case len(name) == 2 && name[0] == 'V',
		name == "SP",
		name == "DT",
		name == "ST":
		if value > math.MaxUint8 {
			fmt.Println("Value exceeds register size")
			return
		}
	}

	switch name {
	case "I":
		value &= machine.ADDR_MASK
		mc.Index = value
	case "PC":
		value &= machine.ADDR_MASK
		mc.Program = value
	case "SP":
		if int(value) > machine.STACK_DEPTH {
			fmt.Println("Value exceeds stack depth")
			return
		}

		mc.StackPointer = uint8(value)
	case "DT":
		mc.Delay = uint8(value)
	case "ST":
		mc.Sound = uint8(value)
	default:
		reg, err := strconv.ParseUint(strings.TrimPrefix(name, "V"), 16, 4)

		if err != nil || len(name) != 2 {
			fmt.Println("Invalid register")
			return
		}

		mc.Registers[reg] = uint8(value)
	}

	fmt.Printf("\033[1m%s:\033[0m %#02x\n", name, value)
}

func debugSource(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "source [0x###|label] [#]"

	addr, size, ok := debugRange(dbg, mc, args, 3)

	if !ok {
		fmt.Println(usage)
		return
	}

	dbg.PrintSource(mc, addr, size)
}

func debugDisasm(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "disasm [0x###|label] [#]"

	addr, size, ok := debugRange(dbg, mc, args, 8)

	if !ok {
		fmt.Println(usage)
		return
	}

	dbg.PrintDisasm(mc, addr, size)
}

func debugLabels(dbg *debugger.Debugger, args []string) {
	const usage = "labels"

	if len(args) > 0 {
		fmt.Println(usage)
		return
	}

	if dbg.SymTable == nil {
		fmt.Println("No symbol table loaded")
		return
	}

	keys := make([]uint16, 0, len(dbg.SymTable.Labels))
	for addr := range dbg.SymTable.Labels {
		keys = append(keys, addr)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, addr := range keys {
		fmt.Printf(
			"\033[1m[%#03x]\033[0m %s\n", addr, dbg.SymTable.Labels[addr],
		)
	}
}

func debugJump(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "jump [0x###|label]"

	if len(args) != 1 {
		fmt.Println(usage)
		return
	}

	addr, err := debugAddr(dbg, args[0])

	if err != nil {
		fmt.Printf("Unable to find '%s'\n", args[0])
		return
	}

	mc.Program = addr

	fmt.Printf("\033[1mPC:\033[0m %#03x\n", addr)
}

func debugMemory(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "memory [0x###|label|#] [#]"

	addr, size, ok := debugRange(dbg, mc, args, 8)

	if !ok {
		fmt.Println(usage)
		return
	}

	dbg.PrintMem(mc, addr, size)
}

func debugSet(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "set [0x###|label] [value]"

	if len(args) != 2 {
		fmt.Println(usage)
		return
	}

	addr, err := debugAddr(dbg, args[0])

	if err != nil {
		fmt.Println(err)
		return
	}

	value, err := encoding.DecodeValue(args[1])

	if err != nil {
		fmt.Println(err)
		return
	}

	if value > math.MaxUint8 {
		fmt.Println("Value exceeds byte size")
		return
	}

	mc.Memory[addr] = uint8(value)
	dbg.PrintMem(mc, addr, 1)
}

func debugHelp() {
	fmt.Print(
		"break    [add|list|remove|clear]  Manages breakpoints\n" +
			"watch    [add|list|remove|clear]  Manages watchpoints\n" +
			"register [name] [value]           Shows or sets registers\n" +
			"source   [addr|label] [#]         Lists source lines\n" +
			"disasm   [addr|label] [#]         Disassembles memory\n" +
			"labels                            Lists labels\n" +
			"jump     [addr|label]             Sets the program counter\n" +
			"memory   [addr|label] [#]         Dumps memory\n" +
			"set      [addr|label] [value]     Writes a byte of memory\n" +
			"continue                          Resumes execution\n" +
			"next                              Runs to the next line, over calls\n" +
			"step                              Runs one instruction\n" +
			"reset                             Reloads the program\n" +
			"clear                             Clears the screen\n" +
			"quit                              Exits\n",
	)
}

func debugREPL(dbg *debugger.Debugger, mc *machine.Machine) {
	if replTerm != nil {
		replTerm.Restore()
		defer replTerm.Resume()
	}

	for {
		fmt.Print("\033[1;30m(dbg)\033[0m ")

		if !replInput.Scan() {
			fmt.Println()
			debugQuit(dbg)
			return
		}

		args := strings.Fields(replInput.Text())

		if len(args) == 0 {
			if len(lastcmd) == 0 {
				continue
			}
			args = lastcmd
		} else {
			lastcmd = make([]string, len(args))
			copy(lastcmd, args)
		}

		cmd := args[0]
		args = args[1:]

		switch cmd {
		case "b", "bp", "break", "breakpoint":
			debugBreak(dbg, args)

		case "w", "wp", "watch", "watchpoint":
			debugWatch(dbg, args)

		case "r", "reg", "register", "registers":
			debugReg(&mc.State, args)

		case "s", "src", "source":
			debugSource(dbg, &mc.State, args)

		case "d", "dis", "disasm":
			debugDisasm(dbg, &mc.State, args)

		case "l", "label", "labels":
			debugLabels(dbg, args)

		case "j", "jmp", "jump":
			debugJump(dbg, &mc.State, args)

		case "m", "mem", "memory":
			debugMemory(dbg, &mc.State, args)

		case "set":
			debugSet(dbg, &mc.State, args)

		case "c", "continue":
			dbg.Continue()
			return

		case "n", "next":
			dbg.Next(&mc.State)
			return

		case "step":
			dbg.Break.Store(true)
			return

		case "q", "quit", "exit":
			debugQuit(dbg)
			return

		case "clear":
			fmt.Print("\033[H\033[2J")

		case "reset":
			mc.Restart()
			mc.State.DisplayDirty = true
			fmt.Printf("Program reloaded, \033[1mPC:\033[0m %#03x\n", mc.State.Program)

		case "h", "help":
			debugHelp()

		default:
			fmt.Printf("error: '%s' is not a valid command\n", cmd)
		}
	}
}

func debugQuit(dbg *debugger.Debugger) {
	shouldexit = true
	dbg.Continue()

	if replQuit != nil {
		replQuit()
	}
}

func handleBreak(dbg *debugger.Debugger, mc *machine.Machine) {
	if shouldexit {
		return
	}

	if !dbg.Break.Load() {
		fmt.Println()
		fmt.Println("Program stopped")
		dbg.PrintSource(&mc.State, mc.State.Program, 8)
	} else {
		dbg.PrintSource(&mc.State, mc.State.Program, 1)
	}

	debugREPL(dbg, mc)
}

func handleRead(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	if shouldexit {
		return
	}

	fmt.Println()
	fmt.Println("Program stopped (read)")
	dbg.PrintMem(&mc.State, addr, 1)
	debugREPL(dbg, mc)
}

func handleWrite(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	if shouldexit {
		return
	}

	fmt.Println()
	fmt.Println("Program stopped (write)")
	dbg.PrintMem(&mc.State, addr, 1)
	debugREPL(dbg, mc)
}

func handleUnknown(instruction uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	if shouldexit {
		return
	}

	fmt.Println()
	fmt.Printf("Unknown instruction %#04x\n", instruction)
	// Runs after the program counter moved past the instruction
	dbg.PrintDisasm(&mc.State, (mc.State.Program-2)&machine.ADDR_MASK, 1)
	debugREPL(dbg, mc)
}
