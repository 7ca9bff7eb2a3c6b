package term

import (
	"unicode/utf8"

	"hintnav/hint"
)

// Decode turns one read from a raw-mode terminal into a key. It reports
// false for input it does not understand, such as arrow keys.
func Decode(buf []byte) (hint.Key, bool) {
	if len(buf) == 0 {
		return hint.Key{}, false
	}

	switch {
	case len(buf) == 1 && buf[0] == 27:
		return hint.Key{Name: hint.KeyEscape}, true
	case len(buf) == 3 && buf[0] == 27 && buf[1] == '[' && buf[2] == 'Z':
		return hint.Key{Name: hint.KeyTab, Shift: true}, true
	case buf[0] == 27:
		return hint.Key{}, false
	}

	if len(buf) == 1 {
		switch b := buf[0]; b {
		case 127, 8:
			return hint.Key{Name: hint.KeyBackspace}, true
		case '\t':
			return hint.Key{Name: hint.KeyTab}, true
		case '\r':
			return hint.Key{Name: hint.KeyEnter}, true
		case '\n': // Ctrl-J; terminals cannot send Ctrl-Enter
			return hint.Key{Name: hint.KeyEnter, Ctrl: true}, true
		default:
			if b < 32 {
				return hint.Key{Name: hint.KeyRune, Rune: rune(b + 'a' - 1), Ctrl: true}, true
			}
		}
	}

	r, size := utf8.DecodeRune(buf)
	if r == utf8.RuneError || size != len(buf) {
		return hint.Key{}, false
	}
	return hint.Rune(r), true
}

// Split breaks one read into the byte sequences of individual keys. CSI
// (ESC [) and SS3 (ESC O) sequences stay whole; any other escape is a lone
// Escape key.
func Split(buf []byte) [][]byte {
	var keys [][]byte
	for len(buf) > 0 {
		size := escapeLen(buf)
		if size == 0 {
			_, size = utf8.DecodeRune(buf)
		}
		keys = append(keys, buf[:size])
		buf = buf[size:]
	}
	return keys
}

// escapeLen returns the length of the escape sequence at the start of buf,
// or 0 when buf does not start with ESC.
func escapeLen(buf []byte) int {
	if buf[0] != 27 {
		return 0
	}
	if len(buf) < 2 {
		return 1
	}
	switch buf[1] {
	case 'O':
		return min(3, len(buf))
	case '[':
		for i := 2; i < len(buf); i++ {
			if buf[i] >= 0x40 && buf[i] <= 0x7e {
				return i + 1
			}
		}
		return len(buf)
	}
	return 1
}
