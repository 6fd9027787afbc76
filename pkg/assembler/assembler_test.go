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

package assembler_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/lassandro/gochip8/pkg/assembler"
	"github.com/lassandro/gochip8/pkg/disasm"
	"github.com/lassandro/gochip8/pkg/encoding"
)

type testCase struct {
	Name   string
	Input  string
	Output map[uint16]uint16 // Words by address
	// Length of the program image, checked when non-zero
	Size     int
	SymTable *assembler.SymTable
}

type failCase struct {
	Name  string
	Input string
	Error error
}

func testAssemblerSuccess(t *testing.T, test *testCase) {
	var result []byte
	var errs []error
	var symtable *assembler.SymTable = nil

	if test.SymTable != nil {
		symtable = assembler.NewSymTable("")
	}

	result, errs = assembler.AssembleSource(
		strings.NewReader(test.Input), symtable,
	)

	if len(errs) > 0 {
		t.Fatal(errs[0])
	}

	if test.Size != 0 && len(result) != test.Size {
		t.Fatalf(
			"Invalid image length\n"+
				"want:%d\n"+
				"have:%d",
			test.Size,
			len(result),
		)
	}

	covered := make(map[int]bool)

	for addr, want := range test.Output {
		i := int(addr) - int(assembler.PROGRAM_START)

		if i < 0 || i+1 >= len(result) {
			t.Fatalf(
				"Missing instruction\n"+
					"want:%#04x (test.Output[%#03x])\n"+
					"have:<none>",
				want,
				addr,
			)
		}

		covered[i] = true
		covered[i+1] = true

		if have := encoding.Word(result[i], result[i+1]); have != want {
			t.Fatalf(
				"Instruction encoding mismatch\n"+
					"want:%#04x (test.Output[%#03x])\n"+
					"have:%#04x",
				want,
				addr,
				have,
			)
		}
	}

	for i, have := range result {
		if !covered[i] && have != 0 {
			t.Fatalf(
				"Unexpected byte\n"+
					"want:0x00\n"+
					"have:%#02x (result [%#03x])",
				have,
				i+int(assembler.PROGRAM_START),
			)
		}
	}

	if test.SymTable != nil {
		for addr, want := range test.SymTable.Symbols {
			have, exists := symtable.Symbols[addr]

			if !exists {
				t.Fatalf(
					"Missing symtable encoding\n"+
						"want:%d (test.SymTable.Symbols[%#03x])\n"+
						"have:nil",
					want,
					addr,
				)
			} else if have != want {
				t.Fatalf(
					"Symtable encoding mismatch\n"+
						"want:%d (test.SymTable.Symbols[%#03x])\n"+
						"have:%d",
					want,
					addr,
					have,
				)
			}
		}

		for addr, have := range symtable.Symbols {
			if _, exists := test.SymTable.Symbols[addr]; !exists {
				t.Fatalf(
					"Unexpected symtable encoding\n"+
						"want: nil\n"+
						"have: %d (symtable.Symbols[%#03x])",
					have,
					addr,
				)
			}
		}

		for addr, want := range test.SymTable.Labels {
			have, exists := symtable.Labels[addr]

			if !exists {
				t.Fatalf(
					"Missing symtable encoding\n"+
						"want:%s (test.SymTable.Labels[%#03x])\n"+
						"have:nil",
					want,
					addr,
				)
			} else if have != want {
				t.Fatalf(
					"Symtable encoding mismatch\n"+
						"want:%s (test.SymTable.Labels[%#03x])\n"+
						"have:%s",
					want,
					addr,
					have,
				)
			}
		}

		for addr, have := range symtable.Labels {
			if _, exists := test.SymTable.Labels[addr]; !exists {
				t.Fatalf(
					"Unexpected symtable encoding\n"+
						"want: nil\n"+
						"have: %s (symtable.Labels[%#03x])",
					have,
					addr,
				)
			}
		}
	}
}

func testAssemblerFail(t *testing.T, test *failCase) {
	file := strings.NewReader(test.Input)

	_, errs := assembler.AssembleSource(file, nil)

	if test.Error == nil {
		panic("Fail case missing error value")
	}

	if len(errs) == 0 {
		t.Fatalf(
			"%s produced error of incorrect type"+
				"\nwant:%T (test.Error)\nhave:<nil>",
			t.Name(),
			test.Error,
		)
	}

	if len(errs) > 1 {
		errTypes := make([]reflect.Type, 0, len(errs))
		for _, err := range errs {
			errTypes = append(errTypes, reflect.TypeOf(err))
		}

		t.Fatalf(
			"%s produced multiple errors:\n\twant:%T (test.Error)\n\thave:%v",
			t.Name(),
			test.Error,
			errTypes,
		)
	}

	if reflect.TypeOf(errs[0]) != reflect.TypeOf(test.Error) {
		t.Fatalf(
			"%s produced error of incorrect type"+
				"\nwant:%T (test.Error)\nhave:%T",
			t.Name(),
			test.Error,
			errs[0],
		)
	}
}

func testSuccess(t *testing.T, tests []testCase) {
	t.Run("Success", func(t *testing.T) {
		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				testAssemblerSuccess(t, &test)
			})
		}
	})
}

func testFail(t *testing.T, tests []failCase) {
	t.Run("Fail", func(t *testing.T) {
		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				testAssemblerFail(t, &test)
			})
		}
	})
}

func TestSystem(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "CLS RET LOW HIGH",
			Input: `
			CLS
			RET
			low
			high
			`,
			Output: map[uint16]uint16{
				0x200: 0x00E0,
				0x202: 0x00EE,
				0x204: 0x00FE,
				0x206: 0x00FF,
			},
			Size: 8,
		},
	})

	testFail(t, []failCase{
		{
			Name:  "Too Many Arguments",
			Input: `CLS V0`,
			Error: &assembler.InvalidNumArgumentsError{},
		},
	})
}

// JP   |0001    |addr                    | Jump
// JP   |1011    |addr                    | Jump (V0 offset)
// CALL |0010    |addr                    | Call subroutine
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestJump(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:   "JP addr",
			Input:  `JP 0x234`,
			Output: map[uint16]uint16{0x200: 0x1234},
		},
		{
			Name:   "JP V0, addr",
			Input:  `JP V0, 0x300`,
			Output: map[uint16]uint16{0x200: 0xB300},
		},
		{
			Name:   "CALL addr",
			Input:  `CALL $300`,
			Output: map[uint16]uint16{0x200: 0x2300},
		},
		{
			Name: "CALL label",
			Input: `
			CALL ROUTINE
			CLS
			ROUTINE
				RET
			`,
			Output: map[uint16]uint16{
				0x200: 0x2204,
				0x202: 0x00E0,
				0x204: 0x00EE,
			},
		},
		{
			Name: "JP V0, label",
			Input: `
			TABLE
				JP V0, TABLE
			`,
			Output: map[uint16]uint16{0x200: 0xB200},
		},
	})

	testFail(t, []failCase{
		{
			Name:  "Offset Register",
			Input: `JP V1, 0x300`,
			Error: &assembler.InvalidOperandError{},
		},
		{
			Name:  "Oversized Address",
			Input: `JP 0x1000`,
			Error: &assembler.OversizedLiteralError{},
		},
		{
			Name:  "Invalid Operand",
			Input: `CALL [I]`,
			Error: &assembler.InvalidOperandError{},
		},
		{
			Name:  "Missing Operand",
			Input: `JP`,
			Error: &assembler.InvalidNumArgumentsError{},
		},
	})
}

// SE   |0011    |Vx     |byte            | Skip if equal
// SE   |0101    |Vx     |Vy     |0000    | Skip if equal register
// SNE  |0100    |Vx     |byte            | Skip if not equal
// SNE  |1001    |Vx     |Vy     |0000    | Skip if not equal register
// SKP  |1110    |Vx     |1001   |1110    | Skip if key down
// SKNP |1110    |Vx     |1010   |0001    | Skip if key up
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestSkip(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "Skips",
			Input: `
			SE V2, 0x34
			SE V2, V3
			SNE VA, 1
			SNE v1, v2
			SKP V1
			SKNP VF
			`,
			Output: map[uint16]uint16{
				0x200: 0x3234,
				0x202: 0x5230,
				0x204: 0x4A01,
				0x206: 0x9120,
				0x208: 0xE19E,
				0x20A: 0xEFA1,
			},
		},
	})

	testFail(t, []failCase{
		{
			Name:  "Immediate Register",
			Input: `SE 0x34, V2`,
			Error: &assembler.InvalidOperandError{},
		},
		{
			Name:  "Oversized Immediate",
			Input: `SNE V1, 256`,
			Error: &assembler.OversizedLiteralError{},
		},
		{
			Name:  "Key Literal",
			Input: `SKP 1`,
			Error: &assembler.InvalidOperandError{},
		},
	})
}

func TestLoad(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "LD",
			Input: `
			LD V1, 0x2A
			LD V1, V2
			LD I, 0x234
			LD V1, DT
			LD V1, K
			LD DT, V1
			LD ST, V1
			LD F, V1
			LD B, V1
			LD [I], V1
			LD V1, [I]
			`,
			Output: map[uint16]uint16{
				0x200: 0x612A,
				0x202: 0x8120,
				0x204: 0xA234,
				0x206: 0xF107,
				0x208: 0xF10A,
				0x20A: 0xF115,
				0x20C: 0xF118,
				0x20E: 0xF129,
				0x210: 0xF133,
				0x212: 0xF155,
				0x214: 0xF165,
			},
		},
		{
			Name: "LD I, label",
			Input: `
			LD I, SPRITE
			SPRITE
				.BYTE 0xF0, 0x90
			`,
			Output: map[uint16]uint16{
				0x200: 0xA202,
				0x202: 0xF090,
			},
		},
	})

	testFail(t, []failCase{
		{
			Name:  "Timer To Key",
			Input: `LD DT, K`,
			Error: &assembler.InvalidOperandError{},
		},
		{
			Name:  "Key Destination",
			Input: `LD K, V1`,
			Error: &assembler.InvalidOperandError{},
		},
		{
			Name:  "Missing Operand",
			Input: `LD V1`,
			Error: &assembler.InvalidNumArgumentsError{},
		},
		{
			Name:  "Indirect Literal",
			Input: `LD [I], 5`,
			Error: &assembler.InvalidOperandError{},
		},
	})
}

func TestArithmetic(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "ALU",
			Input: `
			ADD V1, 5
			ADD V1, -1
			ADD V1, V2
			ADD I, V1
			OR V1, V2
			AND V1, V2
			XOR V1, V2
			SUB V1, V2
			SUBN V1, V2
			SHR V1
			SHR V1, V2
			SHL V1
			RND V1, 0x0F
			`,
			Output: map[uint16]uint16{
				0x200: 0x7105,
				0x202: 0x71FF,
				0x204: 0x8124,
				0x206: 0xF11E,
				0x208: 0x8121,
				0x20A: 0x8122,
				0x20C: 0x8123,
				0x20E: 0x8125,
				0x210: 0x8127,
				0x212: 0x8106,
				0x214: 0x8126,
				0x216: 0x810E,
				0x218: 0xC10F,
			},
		},
	})

	testFail(t, []failCase{
		{
			Name:  "Index Immediate",
			Input: `ADD I, 5`,
			Error: &assembler.InvalidOperandError{},
		},
		{
			Name:  "Oversized Negative",
			Input: `ADD V1, -129`,
			Error: &assembler.OversizedLiteralError{},
		},
		{
			Name:  "Logic Immediate",
			Input: `OR V1, 5`,
			Error: &assembler.InvalidOperandError{},
		},
		{
			Name:  "Shift Without Register",
			Input: `SHR`,
			Error: &assembler.InvalidNumArgumentsError{},
		},
		{
			Name:  "Random Register",
			Input: `RND V1, V2`,
			Error: &assembler.InvalidOperandError{},
		},
	})
}

// DRW  |1101    |Vx     |Vy     |nibble  | Draw sprite
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestDraw(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "DRW",
			Input: `
			DRW V1, V2, 5
			DRW V1, V2, 0
			`,
			Output: map[uint16]uint16{
				0x200: 0xD125,
				0x202: 0xD120,
			},
		},
	})

	testFail(t, []failCase{
		{
			Name:  "Oversized Height",
			Input: `DRW V1, V2, 16`,
			Error: &assembler.OversizedLiteralError{},
		},
		{
			Name:  "Missing Height",
			Input: `DRW V1, V2`,
			Error: &assembler.InvalidNumArgumentsError{},
		},
	})
}

func TestLiteral(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "Formats",
			Input: `
			LD V0, 0x2A
			LD V0, x2A
			LD V0, $2A
			LD V0, #42
			LD V0, 42
			`,
			Output: map[uint16]uint16{
				0x200: 0x602A,
				0x202: 0x602A,
				0x204: 0x602A,
				0x206: 0x602A,
				0x208: 0x602A,
			},
		},
	})

	testFail(t, []failCase{
		{
			Name:  "Invalid Hex",
			Input: `LD V0, 0xZZ`,
			Error: &assembler.InvalidLiteralError{},
		},
		{
			Name:  "Unexpected Sign",
			Input: `LD V0, 0x-2`,
			Error: &assembler.InvalidLiteralError{},
		},
	})
}

func TestOrig(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "Origin",
			Input: `
			.ORIG 0x300
			CLS
			`,
			Output: map[uint16]uint16{0x300: 0x00E0},
			Size:   0x102,
		},
	})

	testFail(t, []failCase{
		{
			Name:  "Below Program Space",
			Input: `.ORIG 0x100`,
			Error: &assembler.InvalidOriginError{},
		},
		{
			Name:  "Above Program Space",
			Input: `.ORIG 0x1000`,
			Error: &assembler.OversizedLiteralError{},
		},
		{
			Name:  "Register",
			Input: `.ORIG V0`,
			Error: &assembler.InvalidOperandError{},
		},
		{
			Name:  "Missing Address",
			Input: `.ORIG`,
			Error: &assembler.InvalidNumArgumentsError{},
		},
	})
}

func TestByte(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:   "Bytes",
			Input:  `.BYTE 1, 2, 0x30, -1`,
			Output: map[uint16]uint16{0x200: 0x0102, 0x202: 0x30FF},
			Size:   4,
		},
	})

	testFail(t, []failCase{
		{
			Name:  "Missing Bytes",
			Input: `.BYTE`,
			Error: &assembler.InvalidNumArgumentsError{},
		},
		{
			Name:  "Oversized Byte",
			Input: `.BYTE 256`,
			Error: &assembler.OversizedLiteralError{},
		},
		{
			Name:  "Register",
			Input: `.BYTE V0`,
			Error: &assembler.InvalidOperandError{},
		},
	})
}

func TestWord(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:   "Literal",
			Input:  `.WORD 0xBEEF`,
			Output: map[uint16]uint16{0x200: 0xBEEF},
		},
		{
			Name: "Label",
			Input: `
			CLS
			.WORD LABEL
			LABEL
				RET
			`,
			Output: map[uint16]uint16{
				0x200: 0x00E0,
				0x202: 0x0204,
				0x204: 0x00EE,
			},
		},
	})

	testFail(t, []failCase{
		{
			Name:  "Unknown Label",
			Input: `.WORD MISSING`,
			Error: &assembler.UnknownLabelError{},
		},
	})
}

func TestBlkb(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "Block",
			Input: `
			CLS
			.BLKB 4
			RET
			`,
			Output: map[uint16]uint16{
				0x200: 0x00E0,
				0x206: 0x00EE,
			},
			Size: 8,
		},
	})

	testFail(t, []failCase{
		{
			Name:  "Register",
			Input: `.BLKB V0`,
			Error: &assembler.InvalidOperandError{},
		},
	})
}

func TestAscii(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:   "String",
			Input:  `.ASCII "HI, ok"`,
			Output: map[uint16]uint16{0x200: 0x4849, 0x202: 0x2C20, 0x204: 0x6F6B},
			Size:   6,
		},
	})

	testFail(t, []failCase{
		{
			Name:  "Bare Identifier",
			Input: `.ASCII HI`,
			Error: &assembler.InvalidOperandError{},
		},
		{
			Name:  "Unterminated",
			Input: `.ASCII "HI`,
			Error: &assembler.InvalidStringError{},
		},
	})
}

func TestEnd(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "End",
			Input: `
			CLS
			.END
			RET
			`,
			Output: map[uint16]uint16{0x200: 0x00E0},
			Size:   2,
		},
	})

	testFail(t, []failCase{
		{
			Name:  "End Operand",
			Input: `.END 5`,
			Error: &assembler.InvalidNumArgumentsError{},
		},
	})
}

func TestComment(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "Comments",
			Input: `
			; Header
			CLS ; clear
			RET;return
			`,
			Output: map[uint16]uint16{
				0x200: 0x00E0,
				0x202: 0x00EE,
			},
			Size: 4,
		},
	})
}

func TestLabel(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "Backwards Label",
			Input: `
			LOOP
				CLS
				JP LOOP
			`,
			Output: map[uint16]uint16{
				0x200: 0x00E0,
				0x202: 0x1200,
			},
		},
		{
			Name: "Forwards Label",
			Input: `
			JP DONE
			CLS
			DONE
				RET
			`,
			Output: map[uint16]uint16{
				0x200: 0x1204,
				0x202: 0x00E0,
				0x204: 0x00EE,
			},
		},
		{
			Name:   "Same Line",
			Input:  `LOOP JP LOOP`,
			Output: map[uint16]uint16{0x200: 0x1200},
		},
		{
			Name: "Hex-like Label",
			Input: `
			JP xpos
			xpos
				XOR V1, V2
			`,
			Output: map[uint16]uint16{
				0x200: 0x1202,
				0x202: 0x8123,
			},
		},
	})

	testFail(t, []failCase{
		{
			Name:  "Unknown Label",
			Input: `JP LABEL`,
			Error: &assembler.UnknownLabelError{},
		},
		{
			Name: "Redeclared Label",
			Input: `
			LOOP
			LOOP
			`,
			Error: &assembler.RedeclaredLabelError{},
		},
		{
			Name: "Oversized Label",
			Input: `
			.ORIG 0xFFE
			JP END
			END
			`,
			Error: &assembler.OversizedLabelError{},
		},
		{
			Name:  "Unknown Identifier",
			Input: `FOO V1`,
			Error: &assembler.UnknownIdentifierError{},
		},
	})
}

func TestCharacters(t *testing.T) {
	testFail(t, []failCase{
		{
			Name:  "Unexpected Character",
			Input: `CLS @`,
			Error: &assembler.UnexpectedCharacterError{},
		},
		{
			Name:  "Oversized Character",
			Input: `é`,
			Error: &assembler.OversizedCharacterError{},
		},
		{
			Name:  "Trailing Separator",
			Input: `LD V1, V2,`,
			Error: &assembler.UnexpectedCharacterError{},
		},
	})
}

func TestProgramSize(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "Fills Program Space",
			Input: `
			.ORIG 0xFFE
			RET
			`,
			Output: map[uint16]uint16{0xFFE: 0x00EE},
			Size:   0xE00,
		},
	})

	testFail(t, []failCase{
		{
			Name: "Oversized Binary",
			Input: `
			.BLKB 0xE00
			CLS
			`,
			Error: &assembler.OversizedBinaryError{},
		},
		{
			Name: "Oversized Binary",
			Input: `
			.ORIG 0xFFF
			CLS
			`,
			Error: &assembler.OversizedBinaryError{},
		},
	})
}

func TestSymtable(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "Symtable",
			/*
				+ 12	.ORIG 0x300
				+  6	START
				+  4	CLS
				+  5	DATA
				+ 11	.BYTE 1, 2
				+  8	JP START
				----
				= 46
			*/
			Input: (".ORIG 0x300\n" +
				"START\n" +
				"CLS\n" +
				"DATA\n" +
				".BYTE 1, 2\n" +
				"JP START"),
			Output: map[uint16]uint16{
				0x300: 0x00E0,
				0x302: 0x0102,
				0x304: 0x1300,
			},
			SymTable: &assembler.SymTable{
				Symbols: map[uint16]int64{
					0x300: 18, // CLS
					0x302: 27, // .BYTE
					0x304: 38, // JP
				},
				Labels: map[uint16]string{
					0x300: "START",
					0x302: "DATA",
				},
			},
		},
	})
}

func TestDisassembly(t *testing.T) {
	lines := []string{
		"CLS",
		"RET",
		"JP $234",
		"JP V0, $300",
		"CALL $300",
		"SE V2, $34",
		"SNE VA, V1",
		"LD VF, $2A",
		"LD I, $234",
		"LD [I], V1",
		"LD V1, [I]",
		"ADD I, V3",
		"SHR V1, V2",
		"SUBN V1, V2",
		"RND V1, $0F",
		"DRW V1, V2, $5",
		"SKNP V1",
	}

	for _, line := range lines {
		result, errs := assembler.AssembleSource(strings.NewReader(line), nil)

		if len(errs) > 0 {
			t.Fatalf("%s: %v", line, errs[0])
		}

		if len(result) != 2 {
			t.Fatalf("%s: image length %d", line, len(result))
		}

		have := disasm.Disassemble(encoding.Word(result[0], result[1])).String()

		if have != line {
			t.Fatalf(
				"Disassembly mismatch\n"+
					"want:%s\n"+
					"have:%s",
				line,
				have,
			)
		}
	}
}
