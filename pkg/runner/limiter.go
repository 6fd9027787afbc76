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

package runner

import (
	"context"
	"time"
)

// Releases one waiter per period. Oversleeping in one period is taken off the
// next, so the long run average holds even if single periods drift.
type limiter struct {
	period time.Duration
	tick   chan struct{}
}

func newLimiter(ctx context.Context, perSecond int) *limiter {
	lim := &limiter{
		period: time.Second / time.Duration(perSecond),
		tick:   make(chan struct{}),
	}

	go func() {
		adjusted := lim.period
		t := time.Now()

		for {
			select {
			case lim.tick <- struct{}{}:
			case <-ctx.Done():
				return
			}

			time.Sleep(adjusted)

			nt := time.Now()
			adjusted -= nt.Sub(t) - lim.period
			t = nt

			if adjusted < 0 {
				adjusted = 0
			}
		}
	}()

	return lim
}

// Blocks until the next period. Returns false once ctx is done.
func (lim *limiter) wait(ctx context.Context) bool {
	select {
	case <-lim.tick:
		return true
	case <-ctx.Done():
		return false
	}
}
