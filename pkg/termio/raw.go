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
	"fmt"

	"golang.org/x/sys/unix"
)

type RawTerm struct {
	fd      int
	raw     unix.Termios
	restore unix.Termios
}

// Puts the terminal on fd in raw, non-blocking mode. Signals are still
// generated so an interrupt can stop the program.
func EnterRaw(fd int) (*RawTerm, error) {
	termios, err := unix.IoctlGetTermios(fd, ioctlGetTermios)

	if err != nil {
		return nil, fmt.Errorf("termios: %w", err)
	}

	termstate := *termios

	termstate.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.INLCR | unix.ICRNL
	termstate.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.IEXTEN
	termstate.Cflag &^= unix.CSIZE | unix.PARENB
	termstate.Cflag |= unix.CS8

	termstate.Cc[unix.VMIN] = 0
	termstate.Cc[unix.VTIME] = 0

	raw := &RawTerm{fd: fd, raw: termstate, restore: *termios}

	if err := raw.Resume(); err != nil {
		return nil, err
	}

	return raw, nil
}

// Reapplies raw mode after Restore
func (raw *RawTerm) Resume() error {
	if err := unix.IoctlSetTermios(
		raw.fd, ioctlSetTermios, &raw.raw,
	); err != nil {
		return fmt.Errorf("termios: %w", err)
	}

	return nil
}

func (raw *RawTerm) Restore() error {
	if err := unix.IoctlSetTermios(
		raw.fd, ioctlSetTermios, &raw.restore,
	); err != nil {
		return fmt.Errorf("termios: %w", err)
	}

	return nil
}

// Columns and rows of the terminal on fd
func Size(fd int) (int, int, error) {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)

	if err != nil {
		return 0, 0, fmt.Errorf("winsize: %w", err)
	}

	return int(ws.Col), int(ws.Row), nil
}
