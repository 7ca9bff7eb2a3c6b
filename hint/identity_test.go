package hint

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestIdentityKeyPrefersURL(t *testing.T) {
	id := Identity{URL: "https://example.com/a", Tag: "A", Text: "Home"}
	if got := id.Key(); got != "https://example.com/a" {
		t.Errorf("expected URL key, got %q", got)
	}
}

func TestIdentityKeyComposite(t *testing.T) {
	id := Identity{Tag: "BUTTON", ID: "save", Classes: []string{"primary", "btn"}, Text: "  Save\n  draft "}
	want := "button:save:btn primary:Save draft"
	if got := id.Key(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestIdentityKeyClassOrderInsensitive(t *testing.T) {
	a := Identity{Tag: "div", Classes: []string{"x", "y", "x"}}
	b := Identity{Tag: "div", Classes: []string{"y", "x"}}
	if a.Key() != b.Key() {
		t.Errorf("expected equal keys, got %q and %q", a.Key(), b.Key())
	}
}

func TestIdentityKeyTruncated(t *testing.T) {
	id := Identity{Tag: "button", Text: strings.Repeat("é", 500)}
	key := id.Key()
	if n := utf8.RuneCountInString(key); n != maxKeyLen {
		t.Errorf("expected %d runes, got %d", maxKeyLen, n)
	}
	if !utf8.ValidString(key) {
		t.Error("truncated key is not valid UTF-8")
	}
}
