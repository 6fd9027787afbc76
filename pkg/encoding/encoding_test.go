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
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestDecodeHex(t *testing.T) {
	for input, want := range map[string]uint16{
		"0x200":  0x200,
		"x2A":    0x2A,
		"X2a":    0x2A,
		"$FFF":   0xFFF,
		"0XFFFF": 0xFFFF,
	} {
		have, err := DecodeHex(input)
		assert.NoError(t, err)
		assert.Equal(t, want, have)
	}

	for _, input := range []string{"200", "#12", "1x2", "xyz", "0x10000"} {
		_, err := DecodeHex(input)
		assert.Error(t, err)
	}

	_, err := DecodeHex("200")
	assert.True(t, errors.Is(err, ErrInvalidHex))
}

func TestDecodeInt(t *testing.T) {
	have, err := DecodeInt("#42")
	assert.NoError(t, err)
	assert.Equal(t, int16(42), have)

	have, err = DecodeInt("-1")
	assert.NoError(t, err)
	assert.Equal(t, int16(-1), have)

	_, err = DecodeInt("4x")
	assert.Error(t, err)
}

func TestDecodeValue(t *testing.T) {
	have, err := DecodeValue("$10")
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x10), have)

	have, err = DecodeValue("16")
	assert.NoError(t, err)
	assert.Equal(t, uint16(16), have)
}

func TestFields(t *testing.T) {
	const opcode = 0xD12F

	assert.Equal(t, uint8(0x1), X(opcode))
	assert.Equal(t, uint8(0x2), Y(opcode))
	assert.Equal(t, uint8(0xF), N(opcode))
	assert.Equal(t, uint8(0x2F), NN(opcode))
	assert.Equal(t, uint16(0x12F), NNN(opcode))
	assert.Equal(t, uint16(0xD12F), Word(0xD1, 0x2F))
}
