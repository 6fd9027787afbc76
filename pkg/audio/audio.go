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
	"encoding/binary"
	"math"
)

const (
	SAMPLE_RATE = 44100
	BIT_DEPTH   = 16
	CHANNELS    = 1

	TONE_FREQUENCY = 880
	TONE_AMPLITUDE = 28000

	// Samples covering one timer tick
	TICK_SAMPLES = SAMPLE_RATE / 60
)

// An endless stream of mono 16 bit samples at SAMPLE_RATE
type Source interface {
	Read(samples []int16)
}

// Sine wave generator. Phase carries over between reads so consecutive
// buffers join without clicks.
type Tone struct {
	Frequency float64
	Amplitude float64

	phase float64
}

func NewTone() *Tone {
	return &Tone{
		Frequency: TONE_FREQUENCY,
		Amplitude: TONE_AMPLITUDE,
	}
}

func (t *Tone) Read(samples []int16) {
	step := 2 * math.Pi * t.Frequency / SAMPLE_RATE

	for i := range samples {
		samples[i] = int16(t.Amplitude * math.Sin(t.phase))

		t.phase += step

		if t.phase >= 2*math.Pi {
			t.phase -= 2 * math.Pi
		}
	}
}

// A recorded sound played in a loop
type Sample struct {
	Data []int16

	position int
}

func (s *Sample) Read(samples []int16) {
	if len(s.Data) == 0 {
		for i := range samples {
			samples[i] = 0
		}

		return
	}

	for i := range samples {
		samples[i] = s.Data[s.position]
		s.position = (s.position + 1) % len(s.Data)
	}
}

// Little endian byte layout expected by audio devices opened as AUDIO_S16LSB
func Bytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)

	for i, sample := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(sample))
	}

	return data
}
