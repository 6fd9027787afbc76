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

package termio

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/retroenv/retrogolib/assert"
)

// Returns one chunk per Read, then nothing
type scriptedReader struct {
	chunks []string
}

func (r *scriptedReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, nil
	}

	n := copy(p, r.chunks[0])
	r.chunks = r.chunks[1:]

	return n, nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func newFrontend(chunks ...string) (*Frontend, *bytes.Buffer, *fakeClock) {
	out := &bytes.Buffer{}
	clock := &fakeClock{now: time.Unix(1000, 0)}

	f := New(&scriptedReader{chunks: chunks}, out)
	f.Now = clock.Now

	return f, out, clock
}

func TestKeyIndex(t *testing.T) {
	assert.Equal(t, 0x0, KeyIndex('1'))
	assert.Equal(t, 0x4, KeyIndex('q'))
	assert.Equal(t, 0x4, KeyIndex('Q'))
	assert.Equal(t, 0xB, KeyIndex('f'))
	assert.Equal(t, 0xF, KeyIndex('V'))
	assert.Equal(t, -1, KeyIndex('p'))
	assert.Equal(t, -1, KeyIndex(KEY_ESCAPE))
}

func TestRender(t *testing.T) {
	f, out, _ := newFrontend()

	frame := machine.Frame{
		Width:  4,
		Height: 3,
		Pixels: []uint8{
			1, 0, 1, 0,
			1, 1, 0, 0,
			0, 1, 0, 1,
		},
	}

	assert.NoError(t, f.Render(frame))

	want := ESC_HOME +
		"█▄▀ \r\n" +
		" ▀ ▀\r\n"

	assert.Equal(t, want, out.String())
}

func TestPoll(t *testing.T) {
	f, _, clock := newFrontend("wZ", "")

	keys, quit, err := f.Poll()
	assert.NoError(t, err)
	assert.False(t, quit)
	assert.True(t, keys[0x5])
	assert.True(t, keys[0xC])
	assert.False(t, keys[0x0])

	// Still held shortly after
	clock.now = clock.now.Add(KEY_HOLD / 2)

	keys, _, _ = f.Poll()
	assert.True(t, keys[0x5])

	// Released once the hold expires
	clock.now = clock.now.Add(KEY_HOLD)

	keys, _, _ = f.Poll()
	assert.False(t, keys[0x5])
	assert.False(t, keys[0xC])
}

func TestPollEscape(t *testing.T) {
	f, _, _ := newFrontend("\x1b[A", "\x1b")

	_, quit, err := f.Poll()
	assert.NoError(t, err)
	assert.False(t, quit)

	_, quit, err = f.Poll()
	assert.NoError(t, err)
	assert.True(t, quit)
}

func TestWaitKey(t *testing.T) {
	f, _, _ := newFrontend("", "p", "", "E")

	key, quit, err := f.WaitKey(context.Background())

	assert.NoError(t, err)
	assert.False(t, quit)
	assert.Equal(t, uint8(0x6), key)
}

func TestWaitKeyCancel(t *testing.T) {
	f, _, _ := newFrontend()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, quit, err := f.WaitKey(ctx)

	assert.NoError(t, err)
	assert.False(t, quit)
}

func TestBell(t *testing.T) {
	f, out, _ := newFrontend()

	for _, playing := range []bool{false, true, true, true, false, true} {
		assert.NoError(t, f.SetPlaying(playing))
	}

	assert.Equal(t, 2, strings.Count(out.String(), BELL))
}

func TestOpenClose(t *testing.T) {
	f, out, _ := newFrontend()

	assert.NoError(t, f.Open())
	assert.True(t, strings.HasPrefix(out.String(), ESC_HIDE_CURSOR))

	assert.NoError(t, f.Close())
	assert.Contains(t, out.String(), ESC_SHOW_CURSOR)
}
