package theme

import "testing"

func TestHex(t *testing.T) {
	tests := map[string]Color{
		"#ff8000": {255, 128, 0},
		"FF8000":  {255, 128, 0},
		"abc":     {},
		"":        {},
	}
	for in, want := range tests {
		if got := Hex(in); got != want {
			t.Errorf("Hex(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCSS(t *testing.T) {
	if got := Hex("#0A0b0C").CSS(); got != "#0a0b0c" {
		t.Errorf("unexpected CSS %q", got)
	}
}

func TestByName(t *testing.T) {
	for _, name := range Names() {
		p, ok := ByName(name)
		if !ok || p.Name != name {
			t.Errorf("palette %q not found by name", name)
		}
	}
	if _, ok := ByName("neon"); ok {
		t.Error("expected unknown palette to be missing")
	}
}
