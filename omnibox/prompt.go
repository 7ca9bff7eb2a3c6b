package omnibox

import (
	"hintnav/hint"
)

// Prompt is a single-line input driven by decoded keystrokes.
type Prompt struct {
	label string
	text  []rune
}

// NewPrompt returns an empty prompt shown with label.
func NewPrompt(label string) *Prompt {
	return &Prompt{label: label}
}

// Feed applies one key. It reports done when Enter was pressed and
// cancelled when Escape was, or when backspace emptied an empty line.
func (p *Prompt) Feed(k hint.Key) (done, cancelled bool) {
	switch k.Name {
	case hint.KeyEnter:
		return true, false
	case hint.KeyEscape:
		return false, true
	case hint.KeyBackspace:
		if len(p.text) == 0 {
			return false, true
		}
		p.text = p.text[:len(p.text)-1]
	case hint.KeyRune:
		if !k.Ctrl {
			p.text = append(p.text, k.Rune)
			break
		}
		switch k.Rune {
		case 'u': // kill line
			p.text = p.text[:0]
		case 'w': // delete word backward
			i := len(p.text)
			for i > 0 && p.text[i-1] == ' ' {
				i--
			}
			for i > 0 && p.text[i-1] != ' ' {
				i--
			}
			p.text = p.text[:i]
		}
	}
	return false, false
}

// Text returns the typed line.
func (p *Prompt) Text() string {
	return string(p.text)
}

// String renders the prompt for a status line.
func (p *Prompt) String() string {
	return p.label + string(p.text) + "_"
}
