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

// Window, keyboard and speaker for the interpreter, backed by SDL2.
//
// Everything except SetPlaying must be called from the thread that called
// New, which should be the main OS thread.
package sdlio

import (
	"errors"
	"fmt"

	"github.com/lassandro/gochip8/pkg/audio"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/veandco/go-sdl2/sdl"
)

const WINDOW_TITLE = "CHIP-8 Interpreter"

const (
	SCALE_MIN     = 1
	SCALE_MAX     = 16
	SCALE_DEFAULT = 8
)

var ErrInvalidScale = errors.New("scale out of range")

type Frontend struct {
	window   *sdl.Window
	renderer *sdl.Renderer

	// Window size in screen pixels
	width  int32
	height int32

	// Resolution the renderer scale was last set for
	frameWidth  int
	frameHeight int

	rects []sdl.Rect

	device  sdl.AudioDeviceID
	source  audio.Source
	buffer  []int16
	playing bool
}

// Opens a window sized for the low resolution display times scale. A nil
// source plays the default tone.
func New(scale int, source audio.Source) (*Frontend, error) {
	if scale < SCALE_MIN || scale > SCALE_MAX {
		return nil, fmt.Errorf(
			"%d not in [%d, %d]: %w", scale, SCALE_MIN, SCALE_MAX, ErrInvalidScale,
		)
	}

	if source == nil {
		source = audio.NewTone()
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("sdl: %w", err)
	}

	f := &Frontend{
		width:  int32(machine.DISPLAY_WIDTH * scale),
		height: int32(machine.DISPLAY_HEIGHT * scale),
		source: source,
		buffer: make([]int16, audio.TICK_SAMPLES),
		rects:  make([]sdl.Rect, 0, machine.DISPLAY_MAX_WIDTH*machine.DISPLAY_MAX_HEIGHT),
	}

	var err error

	f.window, err = sdl.CreateWindow(
		WINDOW_TITLE,
		int32(sdl.WINDOWPOS_CENTERED),
		int32(sdl.WINDOWPOS_CENTERED),
		f.width,
		f.height,
		uint32(sdl.WINDOW_SHOWN),
	)

	if err != nil {
		f.Close()
		return nil, fmt.Errorf("sdl: window: %w", err)
	}

	f.renderer, err = sdl.CreateRenderer(
		f.window, -1, uint32(sdl.RENDERER_ACCELERATED),
	)

	if err != nil {
		f.Close()
		return nil, fmt.Errorf("sdl: renderer: %w", err)
	}

	spec := &sdl.AudioSpec{
		Freq:     audio.SAMPLE_RATE,
		Format:   sdl.AUDIO_S16LSB,
		Channels: audio.CHANNELS,
		Samples:  2048,
	}

	var actual sdl.AudioSpec

	f.device, err = sdl.OpenAudioDevice("", false, spec, &actual, 0)

	if err != nil {
		f.Close()
		return nil, fmt.Errorf("sdl: audio: %w", err)
	}

	return f, nil
}

func (f *Frontend) Close() {
	if f.device != 0 {
		sdl.CloseAudioDevice(f.device)
		f.device = 0
	}

	if f.renderer != nil {
		f.renderer.Destroy()
		f.renderer = nil
	}

	if f.window != nil {
		f.window.Destroy()
		f.window = nil
	}

	sdl.Quit()
}
