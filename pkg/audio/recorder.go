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

package audio

import (
	"fmt"
	"io"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

type Player interface {
	SetPlaying(playing bool) error
}

// Records one tick of audio per SetPlaying call, silence or tone, and
// forwards the call to Player if there is one. Audio is buffered in memory
// and only written out by Close.
type Recorder struct {
	Player Player

	writer  io.WriteSeeker
	source  Source
	tick    []int16
	samples []int
}

func NewRecorder(w io.WriteSeeker, source Source, player Player) *Recorder {
	return &Recorder{
		Player: player,
		writer: w,
		source: source,
		tick:   make([]int16, TICK_SAMPLES),
	}
}

func (r *Recorder) SetPlaying(playing bool) error {
	if playing {
		r.source.Read(r.tick)
	} else {
		for i := range r.tick {
			r.tick[i] = 0
		}
	}

	for _, sample := range r.tick {
		r.samples = append(r.samples, int(sample))
	}

	if r.Player != nil {
		return r.Player.SetPlaying(playing)
	}

	return nil
}

func (r *Recorder) Duration() time.Duration {
	return time.Duration(len(r.samples)) * time.Second / SAMPLE_RATE
}

// Encodes everything recorded so far. The underlying writer is not closed.
func (r *Recorder) Close() error {
	enc := wav.NewEncoder(r.writer, SAMPLE_RATE, BIT_DEPTH, CHANNELS, 1)

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: CHANNELS,
			SampleRate:  SAMPLE_RATE,
		},
		Data:           r.samples,
		SourceBitDepth: BIT_DEPTH,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wav: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("wav: %w", err)
	}

	return nil
}
