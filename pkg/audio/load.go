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
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported sample format")
	ErrInvalidSample     = errors.New("invalid sample")
)

// Loads a .wav or .mp3 file as a looping Sample. Only the first channel is
// kept and the data is resampled to SAMPLE_RATE.
func LoadSample(r io.ReadSeeker, name string) (*Sample, error) {
	var data []int16
	var rate int
	var err error

	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav":
		data, rate, err = decodeWAV(r)

	case ".mp3":
		data, rate, err = decodeMP3(r)

	default:
		return nil, fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
	}

	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	if len(data) == 0 || rate <= 0 {
		return nil, fmt.Errorf("%s: no audio data: %w", name, ErrInvalidSample)
	}

	return &Sample{Data: resample(data, rate, SAMPLE_RATE)}, nil
}

func decodeWAV(r io.ReadSeeker) ([]int16, int, error) {
	dec := wav.NewDecoder(r)

	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("wav: %w", ErrInvalidSample)
	}

	buf, err := dec.FullPCMBuffer()

	if err != nil {
		return nil, 0, fmt.Errorf("wav: %w", err)
	}

	channels := int(dec.NumChans)
	depth := int(dec.BitDepth)

	if channels < 1 {
		return nil, 0, fmt.Errorf("wav: no channels: %w", ErrInvalidSample)
	}

	data := make([]int16, 0, len(buf.Data)/channels)

	for i := 0; i < len(buf.Data); i += channels {
		value := buf.Data[i]

		switch {
		case depth == 8:
			// 8 bit WAV data is unsigned
			value = (value - 128) << 8
		case depth < 16:
			value <<= 16 - depth
		case depth > 16:
			value >>= depth - 16
		}

		data = append(data, int16(value))
	}

	return data, int(dec.SampleRate), nil
}

// go-mp3 always produces 16 bit little endian stereo, 4 bytes per frame
func decodeMP3(r io.Reader) ([]int16, int, error) {
	dec, err := mp3.NewDecoder(r)

	if err != nil {
		return nil, 0, fmt.Errorf("mp3: %w", err)
	}

	raw, err := io.ReadAll(dec)

	if err != nil {
		return nil, 0, fmt.Errorf("mp3: %w", err)
	}

	data := make([]int16, 0, len(raw)/4)

	for i := 0; i+1 < len(raw); i += 4 {
		data = append(data, int16(uint16(raw[i])|uint16(raw[i+1])<<8))
	}

	return data, dec.SampleRate(), nil
}

// Nearest neighbour
func resample(data []int16, from, to int) []int16 {
	if from == to {
		return data
	}

	length := int(int64(len(data)) * int64(to) / int64(from))
	result := make([]int16, length)

	for i := range result {
		result[i] = data[int64(i)*int64(from)/int64(to)]
	}

	return result
}
