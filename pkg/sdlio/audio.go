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

package sdlio

import (
	"fmt"

	"github.com/lassandro/gochip8/pkg/audio"
	"github.com/veandco/go-sdl2/sdl"
)

// Queued audio is kept at most this many ticks ahead of playback
const QUEUE_TICKS = 3

// Called once per timer tick. The queue is topped up while playing so
// the tone never underruns, and dropped as soon as playback stops.
func (f *Frontend) SetPlaying(playing bool) error {
	if !playing {
		if f.playing {
			sdl.PauseAudioDevice(f.device, true)
			sdl.ClearQueuedAudio(f.device)
			f.playing = false
		}

		return nil
	}

	ahead := QUEUE_TICKS * audio.TICK_SAMPLES * 2

	for int(sdl.GetQueuedAudioSize(f.device)) < ahead {
		f.source.Read(f.buffer)

		if err := sdl.QueueAudio(f.device, audio.Bytes(f.buffer)); err != nil {
			return fmt.Errorf("sdl: %w", err)
		}
	}

	if !f.playing {
		sdl.PauseAudioDevice(f.device, false)
		f.playing = true
	}

	return nil
}
