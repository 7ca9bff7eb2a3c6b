package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestDefaultTOMLMatchesDefault(t *testing.T) {
	var cfg Config
	if _, err := toml.Decode(DefaultTOML(), &cfg); err != nil {
		t.Fatalf("DefaultTOML does not parse: %v", err)
	}
	def := Default()
	if cfg.Hints.DelayMs != def.Hints.DelayMs || cfg.Keybindings.Quit != def.Keybindings.Quit || cfg.Hints.Theme != def.Hints.Theme {
		t.Errorf("DefaultTOML drifted from Default: %+v", cfg)
	}
	if len(cfg.Hints.PrioritySelectors) != len(def.Hints.PrioritySelectors) {
		t.Errorf("expected %d selectors, got %d", len(def.Hints.PrioritySelectors), len(cfg.Hints.PrioritySelectors))
	}
}

func TestLoadFileMissing(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Hints.LinkTrigger != ";" {
		t.Errorf("expected default trigger, got %q", cfg.Hints.LinkTrigger)
	}
}

func TestLoadFileLayersOverDefaults(t *testing.T) {
	path := writeConfig(t, `
[hints]
delayMs = 250

[browser]
headless = true

[stats]
backend = "sqlite"
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Hints.Delay() != 250*time.Millisecond {
		t.Errorf("expected 250ms delay, got %v", cfg.Hints.Delay())
	}
	if !cfg.Browser.Headless {
		t.Error("expected headless from file")
	}
	if cfg.Stats.Backend != "sqlite" {
		t.Errorf("expected sqlite backend, got %q", cfg.Stats.Backend)
	}
	if cfg.Hints.FormTrigger != "," || cfg.Browser.TimeoutSeconds != 30 {
		t.Error("expected unspecified values to keep defaults")
	}
}

func TestLoadFileInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"letter trigger", "[hints]\nlinkTrigger = \"f\"", "cannot be a letter"},
		{"long trigger", "[hints]\nformTrigger = \";;\"", "single character"},
		{"same triggers", "[hints]\nformTrigger = \";\"", "must differ"},
		{"bad selector", "[hints]\nprioritySelectors = [\"nav >> a[\"]", "prioritySelectors"},
		{"bad backend", "[stats]\nbackend = \"redis\"", "stats.backend"},
		{"bad theme", "[hints]\ntheme = \"neon\"", "hints.theme"},
		{"bad log level", "[log]\nlevel = \"loud\"", "log.level"},
		{"search without query", "[browser]\nsearch = \"https://kagi.com/search\"", "browser.search"},
		{"duplicate binding", "[keybindings]\ntabLeft = \"gt\"", "share"},
		{"bad toml", "[hints\n", "loading config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestHintsOptions(t *testing.T) {
	h := Default().Hints
	h.LinkTrigger = "'"
	h.DelayMs = 100
	opts := h.Options()
	if opts.LinkTrigger != '\'' || opts.FormTrigger != ',' {
		t.Errorf("unexpected triggers %q %q", opts.LinkTrigger, opts.FormTrigger)
	}
	if opts.Delay != 100*time.Millisecond {
		t.Errorf("expected 100ms, got %v", opts.Delay)
	}
}

func TestKeyMatcher(t *testing.T) {
	km := NewKeyMatcher(Default().Keybindings.Map())

	cmd, consumed := km.Feed('g')
	if cmd != "" || !consumed || !km.IsPending() {
		t.Fatalf("expected g to be pending, got %q %v", cmd, consumed)
	}
	cmd, consumed = km.Feed('T')
	if cmd != "tab-left" || !consumed {
		t.Errorf("expected tab-left, got %q %v", cmd, consumed)
	}
	if km.IsPending() {
		t.Error("expected pending cleared after match")
	}

	cmd, consumed = km.Feed(0x11)
	if cmd != CommandQuit || !consumed {
		t.Errorf("expected quit, got %q %v", cmd, consumed)
	}

	km.Feed('g')
	cmd, consumed = km.Feed('x')
	if cmd != "" || consumed {
		t.Errorf("expected gx to match nothing, got %q %v", cmd, consumed)
	}
	if km.Pending() != "" {
		t.Errorf("expected pending cleared, got %q", km.Pending())
	}

	cmd, consumed = km.Feed('a')
	if cmd != "" || consumed {
		t.Errorf("expected plain letter to pass through, got %q %v", cmd, consumed)
	}
}
