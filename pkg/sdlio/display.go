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

	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/veandco/go-sdl2/sdl"
)

// Lit cells as 1x1 rectangles in display coordinates
func litCells(frame machine.Frame, rects []sdl.Rect) []sdl.Rect {
	rects = rects[:0]

	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			if frame.At(x, y) {
				rects = append(rects, sdl.Rect{X: int32(x), Y: int32(y), W: 1, H: 1})
			}
		}
	}

	return rects
}

func (f *Frontend) Render(frame machine.Frame) error {
	// Display cells are stretched over the whole window in either resolution
	if frame.Width != f.frameWidth || frame.Height != f.frameHeight {
		err := f.renderer.SetScale(
			float32(f.width)/float32(frame.Width),
			float32(f.height)/float32(frame.Height),
		)

		if err != nil {
			return fmt.Errorf("sdl: %w", err)
		}

		f.frameWidth = frame.Width
		f.frameHeight = frame.Height
	}

	f.renderer.SetDrawColor(0, 0, 0, 255)

	if err := f.renderer.Clear(); err != nil {
		return fmt.Errorf("sdl: %w", err)
	}

	f.rects = litCells(frame, f.rects)

	if len(f.rects) > 0 {
		f.renderer.SetDrawColor(255, 255, 255, 255)

		if err := f.renderer.FillRects(f.rects); err != nil {
			return fmt.Errorf("sdl: %w", err)
		}
	}

	f.renderer.Present()

	return nil
}
