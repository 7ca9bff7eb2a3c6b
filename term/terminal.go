// Package term reads keystrokes from a raw-mode terminal.
package term

import (
	"errors"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Terminal handles raw mode and screen control.
type Terminal struct {
	fd       int
	original unix.Termios
}

// NewTerminal creates a terminal controller for the given file.
func NewTerminal(f *os.File) (*Terminal, error) {
	fd := int(f.Fd())
	termios, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return nil, err
	}
	return &Terminal{fd: fd, original: *termios}, nil
}

// EnterRawMode puts the terminal into raw mode for direct character input.
func (t *Terminal) EnterRawMode() error {
	raw := t.original
	raw.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	raw.Oflag &^= unix.OPOST
	raw.Cflag |= unix.CS8
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.IEXTEN | unix.ISIG
	raw.Cc[unix.VMIN] = 0
	raw.Cc[unix.VTIME] = 1
	return unix.IoctlSetTermios(t.fd, ioctlSetTermios, &raw)
}

// RestoreMode restores the original terminal mode.
func (t *Terminal) RestoreMode() error {
	return unix.IoctlSetTermios(t.fd, ioctlSetTermios, &t.original)
}

// Read reads pending input from the terminal. In raw mode a read waits at
// most a tenth of a second; a read that times out returns 0, nil rather
// than io.EOF, so callers can treat any error as the end of input.
func (t *Terminal) Read(p []byte) (int, error) {
	n, err := unix.Read(t.fd, p)
	if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

var _ io.Reader = (*Terminal)(nil)

const (
	ClearLine  = "\033[2K"
	CursorHide = "\033[?25l"
	CursorShow = "\033[?25h"
)

// Status overwrites the current line with msg. Raw mode disables output
// post-processing, so lines are started with an explicit carriage return.
func Status(w io.Writer, msg string) {
	io.WriteString(w, "\r"+ClearLine+msg)
}
