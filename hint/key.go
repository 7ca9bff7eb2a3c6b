package hint

import "unicode"

// KeyName identifies non-character keys.
type KeyName int

const (
	KeyRune KeyName = iota
	KeyEscape
	KeyBackspace
	KeyTab
	KeyEnter
)

// Key is a single keydown.
type Key struct {
	Name  KeyName
	Rune  rune
	Ctrl  bool
	Shift bool
}

// Rune returns a plain character key.
func Rune(r rune) Key {
	return Key{Name: KeyRune, Rune: r}
}

// Letter reports whether the key is an unmodified ASCII letter, and returns
// it lowercased.
func (k Key) Letter() (byte, bool) {
	if k.Name != KeyRune || k.Ctrl || k.Rune > unicode.MaxASCII {
		return 0, false
	}
	r := unicode.ToLower(k.Rune)
	if r < 'a' || r > 'z' {
		return 0, false
	}
	return byte(r), true
}

func (k Key) String() string {
	var s string
	switch k.Name {
	case KeyEscape:
		s = "Escape"
	case KeyBackspace:
		s = "Backspace"
	case KeyTab:
		s = "Tab"
	case KeyEnter:
		s = "Enter"
	default:
		s = string(k.Rune)
	}
	if k.Shift && k.Name != KeyRune {
		s = "Shift+" + s
	}
	if k.Ctrl {
		s = "Ctrl+" + s
	}
	return s
}
