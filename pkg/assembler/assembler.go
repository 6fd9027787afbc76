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

package assembler

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/lassandro/gochip8/pkg/encoding"
)

func parseDirective(ident string) DirectiveType {
	if strings.EqualFold(ident, ".ORIG") {
		return DIRECTIVE_ORIG
	} else if strings.EqualFold(ident, ".BYTE") {
		return DIRECTIVE_BYTE
	} else if strings.EqualFold(ident, ".WORD") {
		return DIRECTIVE_WORD
	} else if strings.EqualFold(ident, ".BLKB") {
		return DIRECTIVE_BLKB
	} else if strings.EqualFold(ident, ".ASCII") {
		return DIRECTIVE_ASCII
	} else if strings.EqualFold(ident, ".END") {
		return DIRECTIVE_END
	}

	return DIRECTIVE_INVALID
}

var instructions = map[string]InstructionType{
	"CLS":  INSTRUCTION_CLS,
	"RET":  INSTRUCTION_RET,
	"LOW":  INSTRUCTION_LOW,
	"HIGH": INSTRUCTION_HIGH,
	"JP":   INSTRUCTION_JP,
	"CALL": INSTRUCTION_CALL,
	"SE":   INSTRUCTION_SE,
	"SNE":  INSTRUCTION_SNE,
	"LD":   INSTRUCTION_LD,
	"ADD":  INSTRUCTION_ADD,
	"OR":   INSTRUCTION_OR,
	"AND":  INSTRUCTION_AND,
	"XOR":  INSTRUCTION_XOR,
	"SUB":  INSTRUCTION_SUB,
	"SHR":  INSTRUCTION_SHR,
	"SUBN": INSTRUCTION_SUBN,
	"SHL":  INSTRUCTION_SHL,
	"RND":  INSTRUCTION_RND,
	"DRW":  INSTRUCTION_DRW,
	"SKP":  INSTRUCTION_SKP,
	"SKNP": INSTRUCTION_SKNP,
}

func parseInstruction(ident string) InstructionType {
	return instructions[strings.ToUpper(ident)]
}

func parseLiteral(token *Token, bits LiteralType) (uint16, error) {
	if strings.ContainsAny(token.Value, "xX$") {
		result, err := encoding.DecodeHex(token.Value)

		if err != nil {
			return 0, &InvalidLiteralError{token.Position}
		}

		if bits < 16 {
			limit := uint16(1) << bits

			if result >= limit {
				return 0, &OversizedLiteralError{token.Position, limit - 1, result}
			}
		}

		return result, nil
	} else {
		result, err := encoding.DecodeInt(token.Value)

		if err != nil {
			return 0, &InvalidLiteralError{token.Position}
		}

		if bits < 16 {
			// Negative values are accepted as two's complement
			limit := int32(1) << bits

			if int32(result) < -(limit>>1) || int32(result) >= limit {
				return 0, &OversizedLiteralError{token.Position, limit - 1, result}
			}

			return uint16(result) & uint16(limit-1), nil
		}

		return uint16(result), nil
	}
}

// Returns the index of a V0-VF register identifier
func parseRegister(token *Token) (uint16, bool) {
	ident := token.Value

	if len(ident) != 2 || (ident[0] != 'V' && ident[0] != 'v') {
		return 0, false
	}

	reg, err := strconv.ParseUint(ident[1:], 16, 4)

	if err != nil {
		return 0, false
	}

	return uint16(reg), true
}

func parseOperand(token *Token) OperandType {
	switch token.Type {
	case TOKEN_LITERAL:
		return OPERAND_LITERAL
	case TOKEN_STRING:
		return OPERAND_STRING
	case TOKEN_DIRECTIVE:
		return OPERAND_DIRECTIVE
	case TOKEN_IDENT:
	default:
		return OPERAND_INVALID
	}

	if _, ok := parseRegister(token); ok {
		return OPERAND_REGISTER
	}

	switch strings.ToUpper(token.Value) {
	case "I":
		return OPERAND_I
	case "[I]":
		return OPERAND_INDIRECT
	case "DT":
		return OPERAND_DT
	case "ST":
		return OPERAND_ST
	case "K":
		return OPERAND_K
	case "F":
		return OPERAND_F
	case "B":
		return OPERAND_B
	}

	if strings.ContainsAny(token.Value, "[]") {
		return OPERAND_INVALID
	}

	return OPERAND_LABEL
}

// Assembles CHIP-8 source into a program image loaded at PROGRAM_START. When
// symtable is not nil it receives the source offset of every assembled address
// and the address of every label.
func AssembleSource(input io.Reader, symtable *SymTable) (result []byte, errs []error) {
	type LabelRef struct {
		Label    string
		Addr     uint32
		Size     LiteralType
		Position Cursor
	}

	var labels = make(map[string]uint16)
	var labelRefs []LabelRef

	var program uint32 = PROGRAM_START
	var end uint32 = PROGRAM_START

	var builder strings.Builder
	var scanner = bufio.NewScanner(input)

	var cursor = Cursor{Line: 1, Column: 0, Size: 0, Byte: 0}

	var memory = make([]byte, PROGRAM_END)

	errs = make([]error, 0)

	// Reserves size bytes at the program counter, reporting whether they fit
	var reserve = func(size uint32) bool {
		if program+size > PROGRAM_END {
			errs = append(errs, &OversizedBinaryError{})
			return false
		}

		if symtable != nil && size > 0 {
			symtable.Symbols[uint16(program)] = cursor.LineByte
		}

		return true
	}

	var advance = func(size uint32) {
		program += size

		if program > end {
			end = program
		}
	}

	var invalidOperand = func(token *Token, required ...OperandType) {
		errs = append(
			errs,
			&InvalidOperandError{token.Position, required, parseOperand(token)},
		)
	}

	// Process:
	// - Parse line
	// - Assemble line
	for scanner.Scan() {
		var tokens = make([]Token, 0, 5)
		var tokenStart int = 0
		var tokenType TokenType = TOKEN_NONE

		var lineErrs = len(errs)

		line := scanner.Text()
		builder.Reset()
		builder.Grow(len(line))

		cursor.Size = int64(len(line))

		// Parse Line:
		// - Gather tokens and their types
		// - Check for syntax errors
		for column, char := range line {
			cursor.Column = column + 1

			var flush bool = false
			var skip bool = false

			if tokenType == TOKEN_NONE {
				tokenStart = cursor.Column
			}

			switch {
			// Whitespace
			case unicode.IsSpace(char):
				if tokenType == TOKEN_NONE {
					continue
				} else if tokenType != TOKEN_STRING {
					flush = true
				}

			// Comments
			case char == ';':
				if tokenType == TOKEN_NONE {
					skip = true
				} else if tokenType != TOKEN_STRING {
					flush = true
					skip = true
				}

			// Assembler Directives
			case char == '.':
				if tokenType == TOKEN_NONE {
					tokenType = TOKEN_DIRECTIVE
				} else if tokenType != TOKEN_STRING {
					errs = append(errs, &UnexpectedCharacterError{cursor, char})
				}

			// Operand Separator
			case char == ',':
				if tokenType != TOKEN_STRING {
					flush = true
				}

			// Hex Literal (i.e. x2A, no leading zero)
			case char == 'x' || char == 'X':
				if tokenType == TOKEN_NONE {
					tokenType = TOKEN_LITERAL
				}

			// Hex Literal (i.e. $2A) or Base 10 Literal (i.e. #42)
			case char == '$' || char == '#':
				if tokenType == TOKEN_NONE {
					tokenType = TOKEN_LITERAL
				} else if tokenType != TOKEN_STRING {
					errs = append(errs, &UnexpectedCharacterError{cursor, char})
				}

			// String Literal
			case char == '"':
				if tokenType == TOKEN_NONE {
					tokenType = TOKEN_STRING
				} else if tokenType == TOKEN_STRING {
					flush = true
				} else {
					errs = append(errs, &UnexpectedCharacterError{cursor, char})
				}

			// Numeric Literal
			case unicode.IsDigit(char):
				if tokenType == TOKEN_NONE {
					tokenType = TOKEN_LITERAL
				}

			// Numeric Sign
			case char == '-':
				if tokenType == TOKEN_NONE {
					tokenType = TOKEN_LITERAL
				} else if tokenType != TOKEN_LITERAL && tokenType != TOKEN_STRING {
					errs = append(errs, &UnexpectedCharacterError{cursor, char})
				}

			// Indirect Operand (i.e. [I])
			case char == '[' || char == ']':
				if tokenType == TOKEN_NONE && char == '[' {
					tokenType = TOKEN_IDENT
				} else if tokenType != TOKEN_IDENT && tokenType != TOKEN_STRING {
					errs = append(errs, &UnexpectedCharacterError{cursor, char})
				}

			// Underscore'd Identifier
			case char == '_':
				if tokenType == TOKEN_NONE {
					tokenType = TOKEN_IDENT
				} else if tokenType != TOKEN_IDENT && tokenType != TOKEN_STRING {
					errs = append(errs, &UnexpectedCharacterError{cursor, char})
				}

			// Identifier
			case unicode.IsLetter(char):
				if char > unicode.MaxASCII {
					errs = append(errs, &OversizedCharacterError{cursor})
				}

				if tokenType == TOKEN_NONE {
					tokenType = TOKEN_IDENT
				}

			default:
				if char > unicode.MaxASCII {
					errs = append(errs, &OversizedCharacterError{cursor})
				}

				if tokenType != TOKEN_STRING {
					errs = append(
						errs, &UnexpectedCharacterError{cursor, char},
					)
				}
			}

			if cursor.Column == len(line) {
				if tokenType == TOKEN_STRING {
					if char != '"' || tokenStart == cursor.Column {
						errs = append(errs, &InvalidStringError{cursor})
					}
				} else {
					if char == ',' {
						errs = append(
							errs, &UnexpectedCharacterError{cursor, char},
						)
					}
				}

				if !flush && !skip {
					builder.WriteRune(char)
				} else if flush && tokenType == TOKEN_STRING && char == '"' {
					builder.WriteRune(char)
				}

				flush = true
			} else {
				if flush && tokenType == TOKEN_STRING && char == '"' {
					builder.WriteRune(char)
				}
			}

			if flush {
				if builder.Len() > 0 {
					var token Token
					token.Position = Cursor{
						Line:     cursor.Line,
						Column:   tokenStart,
						Byte:     cursor.Byte + int64(tokenStart-1),
						Size:     int64(builder.Len()),
						LineByte: cursor.Byte,
					}
					token.Type = tokenType
					token.Value = builder.String()

					// Identifiers may begin with x (i.e. xpos)
					if tokenType == TOKEN_LITERAL &&
						(token.Value[0] == 'x' || token.Value[0] == 'X') {
						if _, err := encoding.DecodeHex(token.Value); err != nil {
							token.Type = TOKEN_IDENT
						}
					}

					tokens = append(tokens, token)
					builder.Reset()
				}

				flush = false
				tokenType = TOKEN_NONE
			} else if !skip {
				builder.WriteRune(char)
			}

			if skip {
				break
			}
		}

		if len(tokens) == 0 {
			cursor.Line++
			cursor.Byte += int64(len(line) + 1)
			cursor.LineByte += int64(len(line) + 1)
			continue
		}

		// Pass any potential assembler errors if we already had parser errors
		if len(errs) > lineErrs {
			cursor.Line++
			cursor.Byte += int64(len(line) + 1)
			cursor.LineByte += int64(len(line) + 1)
			continue
		}

		// Assemble line
		// - Write instruction bits to memory
		// - Save label refs for unknown labels
		// - Type check instruction arguments
		var label *Token = nil
		var directive DirectiveType
		var instruction InstructionType
		var keyword *Token = nil
		var operands []Token

		if instruction = parseInstruction(tokens[0].Value); instruction != INSTRUCTION_INVALID {
			keyword = &tokens[0]

			if len(tokens) > 1 {
				operands = tokens[1:]
			}
		} else if directive = parseDirective(tokens[0].Value); directive != DIRECTIVE_INVALID {
			keyword = &tokens[0]

			if len(tokens) > 1 {
				operands = tokens[1:]
			}
		} else if tokens[0].Type == TOKEN_IDENT &&
			parseOperand(&tokens[0]) == OPERAND_LABEL {
			label = &tokens[0]
		}

		if label != nil {
			if _, exists := labels[label.Value]; !exists {
				labels[label.Value] = uint16(program)
			} else {
				errs = append(
					errs, &RedeclaredLabelError{label.Position, label.Value},
				)
			}

			// No need to assemble label-only statements
			if len(tokens) == 1 {
				cursor.Line++
				cursor.Byte += int64(len(line) + 1)
				cursor.LineByte += int64(len(line) + 1)
				continue
			}

			if instruction = parseInstruction(tokens[1].Value); instruction != INSTRUCTION_INVALID {
				keyword = &tokens[1]

				if len(tokens) > 2 {
					operands = tokens[2:]
				}
			} else if directive = parseDirective(tokens[1].Value); directive != DIRECTIVE_INVALID {
				keyword = &tokens[1]

				if len(tokens) > 2 {
					operands = tokens[2:]
				}
			}
		}

		if keyword == nil {
			unknown := &tokens[0]

			if label != nil {
				unknown = &tokens[1]
			}

			errs = append(
				errs,
				&UnknownIdentifierError{unknown.Position, unknown.Value},
			)

			cursor.Line++
			cursor.Byte += int64(len(line) + 1)
			cursor.LineByte += int64(len(line) + 1)
			continue
		}

		if directive == DIRECTIVE_END {
			if count := len(operands); count != 0 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 0, count},
				)
			}

			break
		}

		switch directive {
		// .BYTE #[, #...]
		case DIRECTIVE_BYTE:
			if len(operands) == 0 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, 0},
				)

				break
			}

			if !reserve(uint32(len(operands))) {
				return nil, errs
			}

			for i := range operands {
				if operands[i].Type != TOKEN_LITERAL {
					invalidOperand(&operands[i], OPERAND_LITERAL)
					continue
				}

				literal, err := parseLiteral(&operands[i], LITERAL_BYTE)

				if err != nil {
					errs = append(errs, err)
				}

				memory[program+uint32(i)] = byte(literal)
			}

			advance(uint32(len(operands)))

		// .WORD #|LABEL
		case DIRECTIVE_WORD:
			if count := len(operands); count != 1 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
				)

				break
			}

			if !reserve(2) {
				return nil, errs
			}

			switch parseOperand(&operands[0]) {
			case OPERAND_LITERAL:
				literal, err := parseLiteral(&operands[0], LITERAL_WORD)

				if err != nil {
					errs = append(errs, err)
				}

				memory[program] = byte(literal >> 8)
				memory[program+1] = byte(literal)
			case OPERAND_LABEL:
				labelRefs = append(
					labelRefs,
					LabelRef{
						operands[0].Value,
						program,
						LITERAL_WORD,
						operands[0].Position,
					},
				)
			default:
				invalidOperand(&operands[0], OPERAND_LITERAL, OPERAND_LABEL)
			}

			advance(2)

		// .BLKB #
		case DIRECTIVE_BLKB:
			if count := len(operands); count != 1 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
				)

				break
			}

			if operands[0].Type != TOKEN_LITERAL {
				invalidOperand(&operands[0], OPERAND_LITERAL)
				break
			}

			literal, err := parseLiteral(&operands[0], LITERAL_WORD)

			if err != nil {
				errs = append(errs, err)
				break
			}

			if !reserve(uint32(literal)) {
				return nil, errs
			}

			advance(uint32(literal))

		// .ASCII "..."
		case DIRECTIVE_ASCII:
			if count := len(operands); count != 1 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
				)

				break
			}

			if operands[0].Type != TOKEN_STRING {
				invalidOperand(&operands[0], OPERAND_STRING)
				break
			}

			s, err := strconv.Unquote(operands[0].Value)

			if err != nil {
				errs = append(errs, &InvalidStringError{operands[0].Position})
				break
			}

			if !reserve(uint32(len(s))) {
				return nil, errs
			}

			copy(memory[program:], s)
			advance(uint32(len(s)))

		// .ORIG #
		case DIRECTIVE_ORIG:
			if count := len(operands); count != 1 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
				)

				break
			}

			if operands[0].Type != TOKEN_LITERAL {
				invalidOperand(&operands[0], OPERAND_LITERAL)
				break
			}

			literal, err := parseLiteral(&operands[0], LITERAL_ADDR)

			if err != nil {
				errs = append(errs, err)
				break
			}

			if uint32(literal) < PROGRAM_START {
				errs = append(
					errs, &InvalidOriginError{operands[0].Position, literal},
				)

				break
			}

			program = uint32(literal)
		}

		if instruction == INSTRUCTION_INVALID {
			cursor.Line++
			cursor.Byte += int64(len(line) + 1)
			cursor.LineByte += int64(len(line) + 1)
			continue
		}

		// Operand signature, checked against each accepted form
		kinds := make([]OperandType, len(operands))

		for i := range operands {
			kinds[i] = parseOperand(&operands[i])
		}

		var scratch uint16 = 0
		var addrRef *Token = nil
		var lineOk = true

		var register = func(i int) uint16 {
			reg, _ := parseRegister(&operands[i])
			return reg
		}

		var literal = func(i int, bits LiteralType) uint16 {
			value, err := parseLiteral(&operands[i], bits)

			if err != nil {
				errs = append(errs, err)
				lineOk = false
			}

			return value
		}

		var count = func(required int) bool {
			if len(operands) != required {
				errs = append(
					errs,
					&InvalidNumArgumentsError{
						keyword.Position, required, len(operands),
					},
				)

				lineOk = false
			}

			return lineOk
		}

		// Accepts a literal address or a label, resolved after the last line
		var address = func(i int) uint16 {
			switch kinds[i] {
			case OPERAND_LITERAL:
				return literal(i, LITERAL_ADDR)
			case OPERAND_LABEL:
				addrRef = &operands[i]
			default:
				invalidOperand(&operands[i], OPERAND_LITERAL, OPERAND_LABEL)
				lineOk = false
			}

			return 0
		}

		var expect = func(i int, required ...OperandType) bool {
			for _, kind := range required {
				if kinds[i] == kind {
					return true
				}
			}

			invalidOperand(&operands[i], required...)
			lineOk = false

			return false
		}

		switch instruction {
		// CLS  |0000    |0000   |1110   |0000    | Clear display
		// RET  |0000    |0000   |1110   |1110    | Return
		// LOW  |0000    |0000   |1111   |1110    | 64x32 display
		// HIGH |0000    |0000   |1111   |1111    | 128x64 display
		// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
		case INSTRUCTION_CLS, INSTRUCTION_RET, INSTRUCTION_LOW, INSTRUCTION_HIGH:
			if !count(0) {
				break
			}

			switch instruction {
			case INSTRUCTION_CLS:
				scratch = 0x00E0
			case INSTRUCTION_RET:
				scratch = 0x00EE
			case INSTRUCTION_LOW:
				scratch = 0x00FE
			case INSTRUCTION_HIGH:
				scratch = 0x00FF
			}

		// JP   |0001    |addr                    | Jump
		// JP   |1011    |addr                    | Jump (V0 offset)
		// CALL |0010    |addr                    | Call subroutine
		// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
		case INSTRUCTION_JP, INSTRUCTION_CALL:
			if instruction == INSTRUCTION_JP && len(operands) == 2 {
				if kinds[0] != OPERAND_REGISTER || register(0) != 0 {
					invalidOperand(&operands[0], OPERAND_REGISTER)
					lineOk = false
					break
				}

				scratch = 0xB000 | address(1)
				break
			}

			if !count(1) {
				break
			}

			if instruction == INSTRUCTION_JP {
				scratch = 0x1000
			} else {
				scratch = 0x2000
			}

			scratch |= address(0)

		// SE   |0011    |Vx     |byte            | Skip if equal
		// SE   |0101    |Vx     |Vy     |0000    | Skip if equal register
		// SNE  |0100    |Vx     |byte            | Skip if not equal
		// SNE  |1001    |Vx     |Vy     |0000    | Skip if not equal register
		// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
		case INSTRUCTION_SE, INSTRUCTION_SNE:
			if !count(2) || !expect(0, OPERAND_REGISTER) ||
				!expect(1, OPERAND_REGISTER, OPERAND_LITERAL) {
				break
			}

			if kinds[1] == OPERAND_REGISTER {
				if instruction == INSTRUCTION_SE {
					scratch = 0x5000
				} else {
					scratch = 0x9000
				}

				scratch |= register(0)<<8 | register(1)<<4
			} else {
				if instruction == INSTRUCTION_SE {
					scratch = 0x3000
				} else {
					scratch = 0x4000
				}

				scratch |= register(0)<<8 | literal(1, LITERAL_BYTE)
			}

		// LD   |0110    |Vx     |byte            | Load immediate
		// LD   |1000    |Vx     |Vy     |0000    | Load register
		// LD   |1010    |addr                    | Load index
		// LD   |1111    |Vx     |0000   |0111    | Load delay timer
		// LD   |1111    |Vx     |0000   |1010    | Wait for key
		// LD   |1111    |Vx     |0001   |0101    | Set delay timer
		// LD   |1111    |Vx     |0001   |1000    | Set sound timer
		// LD   |1111    |Vx     |0010   |1001    | Load glyph
		// LD   |1111    |Vx     |0011   |0011    | Store BCD
		// LD   |1111    |Vx     |0101   |0101    | Store registers
		// LD   |1111    |Vx     |0110   |0101    | Load registers
		// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
		case INSTRUCTION_LD:
			if !count(2) {
				break
			}

			switch kinds[0] {
			case OPERAND_REGISTER:
				if !expect(
					1,
					OPERAND_REGISTER,
					OPERAND_LITERAL,
					OPERAND_DT,
					OPERAND_K,
					OPERAND_INDIRECT,
				) {
					break
				}

				x := register(0) << 8

				switch kinds[1] {
				case OPERAND_REGISTER:
					scratch = 0x8000 | x | register(1)<<4
				case OPERAND_LITERAL:
					scratch = 0x6000 | x | literal(1, LITERAL_BYTE)
				case OPERAND_DT:
					scratch = 0xF007 | x
				case OPERAND_K:
					scratch = 0xF00A | x
				case OPERAND_INDIRECT:
					scratch = 0xF065 | x
				}

			case OPERAND_I:
				scratch = 0xA000 | address(1)

			case OPERAND_DT, OPERAND_ST, OPERAND_F, OPERAND_B, OPERAND_INDIRECT:
				if !expect(1, OPERAND_REGISTER) {
					break
				}

				scratch = 0xF000 | register(1)<<8

				switch kinds[0] {
				case OPERAND_DT:
					scratch |= 0x15
				case OPERAND_ST:
					scratch |= 0x18
				case OPERAND_F:
					scratch |= 0x29
				case OPERAND_B:
					scratch |= 0x33
				case OPERAND_INDIRECT:
					scratch |= 0x55
				}

			default:
				invalidOperand(
					&operands[0],
					OPERAND_REGISTER,
					OPERAND_I,
					OPERAND_DT,
					OPERAND_ST,
					OPERAND_F,
					OPERAND_B,
					OPERAND_INDIRECT,
				)

				lineOk = false
			}

		// ADD  |0111    |Vx     |byte            | Add immediate
		// ADD  |1000    |Vx     |Vy     |0100    | Add register
		// ADD  |1111    |Vx     |0001   |1110    | Add to index
		// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
		case INSTRUCTION_ADD:
			if !count(2) || !expect(0, OPERAND_REGISTER, OPERAND_I) {
				break
			}

			if kinds[0] == OPERAND_I {
				if !expect(1, OPERAND_REGISTER) {
					break
				}

				scratch = 0xF01E | register(1)<<8
				break
			}

			if !expect(1, OPERAND_REGISTER, OPERAND_LITERAL) {
				break
			}

			if kinds[1] == OPERAND_REGISTER {
				scratch = 0x8004 | register(0)<<8 | register(1)<<4
			} else {
				scratch = 0x7000 | register(0)<<8 | literal(1, LITERAL_BYTE)
			}

		// OR   |1000    |Vx     |Vy     |0001    | Bitwise or
		// AND  |1000    |Vx     |Vy     |0010    | Bitwise and
		// XOR  |1000    |Vx     |Vy     |0011    | Bitwise xor
		// SUB  |1000    |Vx     |Vy     |0101    | Subtract
		// SUBN |1000    |Vx     |Vy     |0111    | Subtract reversed
		// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
		case INSTRUCTION_OR,
			INSTRUCTION_AND,
			INSTRUCTION_XOR,
			INSTRUCTION_SUB,
			INSTRUCTION_SUBN:
			if !count(2) ||
				!expect(0, OPERAND_REGISTER) ||
				!expect(1, OPERAND_REGISTER) {
				break
			}

			scratch = 0x8000 | register(0)<<8 | register(1)<<4

			switch instruction {
			case INSTRUCTION_OR:
				scratch |= 0x1
			case INSTRUCTION_AND:
				scratch |= 0x2
			case INSTRUCTION_XOR:
				scratch |= 0x3
			case INSTRUCTION_SUB:
				scratch |= 0x5
			case INSTRUCTION_SUBN:
				scratch |= 0x7
			}

		// SHR  |1000    |Vx     |Vy     |0110    | Shift right
		// SHL  |1000    |Vx     |Vy     |1110    | Shift left
		// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
		case INSTRUCTION_SHR, INSTRUCTION_SHL:
			// Vy is ignored by the machine and may be omitted
			if len(operands) != 1 && len(operands) != 2 {
				count(1)
				break
			}

			if !expect(0, OPERAND_REGISTER) {
				break
			}

			scratch = 0x8000 | register(0)<<8

			if len(operands) == 2 {
				if !expect(1, OPERAND_REGISTER) {
					break
				}

				scratch |= register(1) << 4
			}

			if instruction == INSTRUCTION_SHR {
				scratch |= 0x6
			} else {
				scratch |= 0xE
			}

		// RND  |1100    |Vx     |byte            | Random and mask
		// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
		case INSTRUCTION_RND:
			if !count(2) ||
				!expect(0, OPERAND_REGISTER) ||
				!expect(1, OPERAND_LITERAL) {
				break
			}

			scratch = 0xC000 | register(0)<<8 | literal(1, LITERAL_BYTE)

		// DRW  |1101    |Vx     |Vy     |nibble  | Draw sprite
		// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
		case INSTRUCTION_DRW:
			if !count(3) ||
				!expect(0, OPERAND_REGISTER) ||
				!expect(1, OPERAND_REGISTER) ||
				!expect(2, OPERAND_LITERAL) {
				break
			}

			scratch = 0xD000 | register(0)<<8 | register(1)<<4 |
				literal(2, LITERAL_NIBBLE)

		// SKP  |1110    |Vx     |1001   |1110    | Skip if key down
		// SKNP |1110    |Vx     |1010   |0001    | Skip if key up
		// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
		case INSTRUCTION_SKP, INSTRUCTION_SKNP:
			if !count(1) || !expect(0, OPERAND_REGISTER) {
				break
			}

			if instruction == INSTRUCTION_SKP {
				scratch = 0xE09E | register(0)<<8
			} else {
				scratch = 0xE0A1 | register(0)<<8
			}
		}

		if !reserve(2) {
			return nil, errs
		}

		if lineOk && addrRef != nil {
			labelRefs = append(
				labelRefs,
				LabelRef{addrRef.Value, program, LITERAL_ADDR, addrRef.Position},
			)
		}

		memory[program] = byte(scratch >> 8)
		memory[program+1] = byte(scratch)
		advance(2)

		cursor.Line++
		cursor.Byte += int64(len(line) + 1)
		cursor.LineByte += int64(len(line) + 1)
	}

	// Label
	// - Validate and resolve label references
	// - Add labels to symbol table
	for _, ref := range labelRefs {
		addr, exists := labels[ref.Label]

		if !exists {
			errs = append(errs, &UnknownLabelError{ref.Position, ref.Label})
			continue
		}

		limit := int64(1) << ref.Size

		if int64(addr) >= limit {
			errs = append(
				errs, &OversizedLabelError{ref.Position, limit - 1, int64(addr)},
			)

			continue
		}

		scratch := encoding.Word(memory[ref.Addr], memory[ref.Addr+1])
		scratch |= addr & uint16(limit-1)

		memory[ref.Addr] = byte(scratch >> 8)
		memory[ref.Addr+1] = byte(scratch)
	}

	if symtable != nil {
		for label, addr := range labels {
			symtable.Labels[addr] = label
		}
	}

	result = memory[PROGRAM_START:end]

	return
}
