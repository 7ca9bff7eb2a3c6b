// Package tabs moves the active tab left, right, or to either end of the
// window.
package tabs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Command names a tab movement.
type Command string

const (
	Left  Command = "tab-left"
	Right Command = "tab-right"
	First Command = "tab-first"
	Last  Command = "tab-last"
)

// Commands lists every known command.
var Commands = []Command{Left, Right, First, Last}

// ErrUnknownCommand is returned by ParseCommand for unrecognised names.
var ErrUnknownCommand = errors.New("unknown tab command")

// ParseCommand validates a command name.
func ParseCommand(name string) (Command, error) {
	for _, c := range Commands {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

// Tab is one open tab.
type Tab struct {
	ID     string
	Title  string
	URL    string
	Active bool
}

// Directory lists the tabs of the current window in order and switches
// between them.
type Directory interface {
	Tabs(ctx context.Context) ([]Tab, error)
	Activate(ctx context.Context, id string) error
}

// Target returns the index cmd moves to from active among n tabs. It
// returns false when there is nothing to do: no tabs, already at the
// boundary, or an active index that is not in the list.
func Target(cmd Command, n, active int) (int, bool) {
	if n == 0 {
		return 0, false
	}
	known := active >= 0 && active < n

	target := -1
	switch cmd {
	case Left:
		if known && active > 0 {
			target = active - 1
		}
	case Right:
		if known && active < n-1 {
			target = active + 1
		}
	case First:
		target = 0
	case Last:
		target = n - 1
	}
	if target < 0 || target == active {
		return 0, false
	}
	return target, true
}

// Switcher applies commands to a Directory.
type Switcher struct {
	dir    Directory
	logger *slog.Logger
}

// NewSwitcher returns a Switcher over dir.
func NewSwitcher(dir Directory, logger *slog.Logger) *Switcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Switcher{dir: dir, logger: logger}
}

// Switch runs cmd. Commands with no target are silent no-ops.
func (s *Switcher) Switch(ctx context.Context, cmd Command) error {
	list, err := s.dir.Tabs(ctx)
	if err != nil {
		return fmt.Errorf("listing tabs: %w", err)
	}

	active := -1
	for i, t := range list {
		if t.Active {
			active = i
			break
		}
	}

	target, ok := Target(cmd, len(list), active)
	if !ok {
		s.logger.Debug("tabs: no-op", "command", cmd, "tabs", len(list), "active", active)
		return nil
	}
	if err := s.dir.Activate(ctx, list[target].ID); err != nil {
		return fmt.Errorf("activating tab %s: %w", list[target].ID, err)
	}
	return nil
}
