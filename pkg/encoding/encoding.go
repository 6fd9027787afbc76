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

package encoding

import (
	"errors"
	"strconv"
	"strings"
)

var ErrInvalidHex = errors.New("Invalid hex string")

// Decodes a hexidecimal string in the formats: 0xFFF, xFFF, $FFF
func DecodeHex(s string) (uint16, error) {
	if strings.HasPrefix(s, "$") {
		s = "0x" + s[1:]
	} else if i := strings.IndexAny(s, "xX"); i == 0 {
		s = "0" + s
	} else if i == -1 || i != 1 || s[0] != '0' {
		return 0, ErrInvalidHex
	}

	result, err := strconv.ParseUint(s, 0, 16)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

// Decodes a base-10 string in the formats: #123, 123
func DecodeInt(s string) (int16, error) {
	if i := strings.Index(s, "#"); i == 0 {
		s = s[1:]
	}

	result, err := strconv.ParseInt(s, 10, 16)

	if err != nil {
		return 0, err
	}

	return int16(result), nil
}

// Decodes either a hex or a base-10 string
func DecodeValue(s string) (uint16, error) {
	if strings.ContainsAny(s, "xX$") {
		return DecodeHex(s)
	}

	result, err := DecodeInt(s)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

// Joins two bytes stored most-significant first
func Word(hi, lo byte) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}

// Opcode fields
// ---- [ _ _ _ _|_ X _ _|_ Y _ _|_ N _ _ ]

func X(instruction uint16) uint8 {
	return uint8((instruction >> 8) & 0xF)
}

func Y(instruction uint16) uint8 {
	return uint8((instruction >> 4) & 0xF)
}

func N(instruction uint16) uint8 {
	return uint8(instruction & 0xF)
}

func NN(instruction uint16) uint8 {
	return uint8(instruction & 0xFF)
}

func NNN(instruction uint16) uint16 {
	return instruction & 0xFFF
}
