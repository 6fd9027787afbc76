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
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/lassandro/gochip8/pkg/assembler"
	"github.com/retroenv/retrogolib/assert"
)

func TestWithExt(t *testing.T) {
	assert.Equal(t, "game.ch8", withExt("game.s", ".ch8"))
	assert.Equal(t, "dir/game.c8db", withExt("dir/game.ch8", ".c8db"))
	assert.Equal(t, "game.ch8", withExt("game", ".ch8"))
}

func TestDiagnose(t *testing.T) {
	source := []byte("CLS\nBOGUS V1\nRET")

	_, errs := assembler.AssembleSource(bytes.NewReader(source), nil)
	assert.Len(t, errs, 1)

	out := &bytes.Buffer{}
	diagnose(out, "test.s", source, errs[0])

	lines := strings.Split(out.String(), "\n")

	assert.Contains(t, lines[0], "test.s:")
	assert.Equal(t, "BOGUS V1", lines[1])
	assert.Contains(t, lines[2], "^")
	assert.False(t, strings.Contains(out.String(), "CLS"))
}

func TestDiagnoseLastLine(t *testing.T) {
	// No trailing newline
	source := []byte("CLS\nBOGUS V1")

	_, errs := assembler.AssembleSource(bytes.NewReader(source), nil)
	assert.Len(t, errs, 1)

	out := &bytes.Buffer{}
	diagnose(out, "test.s", source, errs[0])

	assert.Contains(t, out.String(), "\nBOGUS V1\n")
}

func TestDiagnosePlain(t *testing.T) {
	out := &bytes.Buffer{}
	diagnose(out, "test.s", nil, errors.New("broken"))

	assert.Contains(t, out.String(), "broken")
	assert.Equal(t, 1, strings.Count(out.String(), "\n"))
}
