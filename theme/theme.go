// Package theme provides colour palettes for hint badges.
package theme

import (
	"fmt"
	"sort"
)

// Color is an RGB colour.
type Color struct {
	R, G, B uint8
}

// CSS renders the colour as #rrggbb.
func (c Color) CSS() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Palette colours the three kinds of badge and the typed part of a code.
type Palette struct {
	Name string

	Label    Color // ordinary link badge background
	Priority Color // landmark or frequently clicked
	Field    Color // form field
	Text     Color // code text
	Typed    Color // typed portion of the code
	Border   Color
}

// Hex creates a Color from a hex string like "#RRGGBB" or "RRGGBB".
func Hex(s string) Color {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return Color{}
	}
	return Color{
		R: hexByte(s[0:2]),
		G: hexByte(s[2:4]),
		B: hexByte(s[4:6]),
	}
}

func hexByte(s string) uint8 {
	var v uint8
	for _, c := range s {
		v *= 16
		switch {
		case c >= '0' && c <= '9':
			v += uint8(c - '0')
		case c >= 'a' && c <= 'f':
			v += uint8(c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			v += uint8(c - 'A' + 10)
		}
	}
	return v
}

// Built-in palettes
var (
	Default = &Palette{
		Name:     "default",
		Label:    Hex("ffe066"), // yellow
		Priority: Hex("ffb347"), // orange
		Field:    Hex("9fd8ff"), // light blue
		Text:     Hex("000000"),
		Typed:    Hex("2e7d32"), // green
		Border:   Hex("333333"),
	}

	// Solarized - Ethan Schoonover's precision colors
	Solarized = &Palette{
		Name:     "solarized",
		Label:    Hex("b58900"), // yellow
		Priority: Hex("cb4b16"), // orange
		Field:    Hex("268bd2"), // blue
		Text:     Hex("fdf6e3"), // base3
		Typed:    Hex("073642"), // base02
		Border:   Hex("002b36"), // base03
	}

	// Nord - Arctic, north-bluish color palette
	Nord = &Palette{
		Name:     "nord",
		Label:    Hex("ebcb8b"), // nord13 (yellow)
		Priority: Hex("d08770"), // nord12 (orange)
		Field:    Hex("88c0d0"), // nord8 (frost)
		Text:     Hex("2e3440"), // nord0
		Typed:    Hex("bf616a"), // nord11 (red)
		Border:   Hex("3b4252"), // nord1
	}
)

var builtin = map[string]*Palette{
	Default.Name:   Default,
	Solarized.Name: Solarized,
	Nord.Name:      Nord,
}

// ByName returns a built-in palette.
func ByName(name string) (*Palette, bool) {
	p, ok := builtin[name]
	return p, ok
}

// Names lists the built-in palettes.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
