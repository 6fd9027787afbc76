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
	"flag"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestParseOptions(t *testing.T) {
	var out bytes.Buffer

	opts, err := parseOptions([]string{"game.ch8"}, &out)

	assert.NoError(t, err)
	assert.Equal(t, "game.ch8", opts.ROM)
	assert.Equal(t, RATE_DEFAULT, opts.Rate)
	assert.Equal(t, 8, opts.Scale)
	assert.False(t, opts.Term)
	assert.False(t, opts.Debug)

	opts, err = parseOptions([]string{
		"-rate", "700",
		"-scale", "16",
		"-debug",
		"-wav", "out.wav",
		"-beep", "beep.mp3",
		"-q",
		"game.ch8",
	}, &out)

	assert.NoError(t, err)
	assert.Equal(t, 700, opts.Rate)
	assert.Equal(t, 16, opts.Scale)
	assert.True(t, opts.Debug)
	assert.True(t, opts.Quiet)
	assert.Equal(t, "out.wav", opts.WAV)
	assert.Equal(t, "beep.mp3", opts.Beep)
}

func TestParseOptionsFail(t *testing.T) {
	tests := []struct {
		Name  string
		Args  []string
		Error error
	}{
		{"Missing ROM", []string{}, ErrMissingROM},
		{"Two ROMs", []string{"a.ch8", "b.ch8"}, ErrMissingROM},
		{"Zero Rate", []string{"-rate", "0", "a.ch8"}, ErrInvalidRate},
		{"Small Scale", []string{"-scale", "0", "a.ch8"}, ErrInvalidScale},
		{"Large Scale", []string{"-scale", "17", "a.ch8"}, ErrInvalidScale},
		{"Help", []string{"-help"}, flag.ErrHelp},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			var out bytes.Buffer

			_, err := parseOptions(test.Args, &out)

			assert.True(t, errors.Is(err, test.Error))
		})
	}
}

func TestParseOptionsTermScale(t *testing.T) {
	var out bytes.Buffer

	// The terminal has no window to scale
	opts, err := parseOptions([]string{"-term", "-scale", "0", "a.ch8"}, &out)

	assert.NoError(t, err)
	assert.True(t, opts.Term)
}

func TestParseOptionsUsage(t *testing.T) {
	var out bytes.Buffer

	_, err := parseOptions([]string{"-help"}, &out)

	assert.True(t, errors.Is(err, flag.ErrHelp))
	assert.Contains(t, out.String(), usage)
	assert.Contains(t, out.String(), "-rate")

	out.Reset()
	_, err = parseOptions([]string{"-bogus", "a.ch8"}, &out)

	assert.Error(t, err)
}
