// Package config provides configuration loading for hintnav using TOML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"github.com/andybalholm/cascadia"

	"hintnav/hint"
	"hintnav/tabs"
	"hintnav/theme"
)

// Hint settings
type Hints struct {
	LinkTrigger       string   `toml:"linkTrigger"`
	FormTrigger       string   `toml:"formTrigger"`
	DelayMs           int      `toml:"delayMs"`        // wait after an exact match before activating
	ClickThreshold    int      `toml:"clickThreshold"` // clicks above this make an element priority
	PrioritySelectors []string `toml:"prioritySelectors"`
	Theme             string   `toml:"theme"` // badge palette
}

// Browser settings
type Browser struct {
	ChromePath     string `toml:"chromePath"`
	ProfileDir     string `toml:"profileDir"` // empty = throwaway profile per run
	RemoteURL      string `toml:"remoteURL"`  // attach to a running Chrome instead of launching one
	Headless       bool   `toml:"headless"`
	UserAgent      string `toml:"userAgent"`
	TimeoutSeconds int    `toml:"timeoutSeconds"`
	Width          int    `toml:"width"`
	Height         int    `toml:"height"`
	Search         string `toml:"search"` // search URL with %s for the query; empty = DuckDuckGo
}

// Stats storage settings
type Stats struct {
	Backend string `toml:"backend"` // "json" or "sqlite"
	Path    string `toml:"path"`    // empty = default location for the backend
}

// Log settings
type Log struct {
	Level string `toml:"level"` // debug, info, warn, error
	Path  string `toml:"path"`  // empty = ~/.cache/hintnav/hintnav.log
}

// Keybindings for commands handled outside the hint engine
type Keybindings struct {
	TabLeft  string `toml:"tabLeft"`
	TabRight string `toml:"tabRight"`
	TabFirst string `toml:"tabFirst"`
	TabLast  string `toml:"tabLast"`
	NewTab   string `toml:"newTab"`
	Quit     string `toml:"quit"`
}

// Config is the main configuration struct
type Config struct {
	Hints       Hints       `toml:"hints"`
	Browser     Browser     `toml:"browser"`
	Stats       Stats       `toml:"stats"`
	Log         Log         `toml:"log"`
	Keybindings Keybindings `toml:"keybindings"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Hints: Hints{
			LinkTrigger:       ";",
			FormTrigger:       ",",
			DelayMs:           int(hint.DefaultDelay / time.Millisecond),
			ClickThreshold:    hint.DefaultClickThreshold,
			PrioritySelectors: append([]string(nil), hint.DefaultPrioritySelectors...),
			Theme:             theme.Default.Name,
		},
		Browser: Browser{
			Headless:       false,
			UserAgent:      "",
			TimeoutSeconds: 30,
			Width:          1280,
			Height:         900,
		},
		Stats: Stats{
			Backend: "json",
		},
		Log: Log{
			Level: "info",
		},
		Keybindings: Keybindings{
			TabLeft:  "gT",
			TabRight: "gt",
			TabFirst: "g0",
			TabLast:  "g$",
			NewTab:   "\x14", // Ctrl-t
			Quit:     "\x11", // Ctrl-q
		},
	}
}

// configDir returns the configuration directory path.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "hintnav"), nil
}

// ConfigPath returns the path to the user's config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load loads configuration, layering user config on top of defaults.
// Returns the default config if no user config exists.
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return Default(), nil // Return defaults if we can't determine path
	}
	return LoadFile(configPath)
}

// LoadFile layers the TOML file at path over the defaults. A missing file
// yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	// Decoding onto the defaults leaves every key the file omits untouched,
	// including booleans.
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail at first use.
func (c *Config) Validate() error {
	var errs []error

	for name, trigger := range map[string]string{"linkTrigger": c.Hints.LinkTrigger, "formTrigger": c.Hints.FormTrigger} {
		r, size := utf8.DecodeRuneInString(trigger)
		if size == 0 || size != len(trigger) {
			errs = append(errs, fmt.Errorf("hints.%s must be a single character, got %q", name, trigger))
		} else if unicode.IsLetter(r) {
			errs = append(errs, fmt.Errorf("hints.%s cannot be a letter, letters select hints", name))
		}
	}
	if c.Hints.LinkTrigger == c.Hints.FormTrigger {
		errs = append(errs, errors.New("hints.linkTrigger and hints.formTrigger must differ"))
	}
	if c.Hints.DelayMs <= 0 {
		errs = append(errs, fmt.Errorf("hints.delayMs must be positive, got %d", c.Hints.DelayMs))
	}
	for _, sel := range c.Hints.PrioritySelectors {
		if _, err := cascadia.Compile(sel); err != nil {
			errs = append(errs, fmt.Errorf("hints.prioritySelectors %q: %w", sel, err))
		}
	}

	if _, ok := theme.ByName(c.Hints.Theme); !ok {
		errs = append(errs, fmt.Errorf("hints.theme must be one of %v, got %q", theme.Names(), c.Hints.Theme))
	}

	if c.Browser.Search != "" && strings.Count(c.Browser.Search, "%s") != 1 {
		errs = append(errs, fmt.Errorf("browser.search must contain %%s once, got %q", c.Browser.Search))
	}

	switch c.Stats.Backend {
	case "json", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("stats.backend must be json or sqlite, got %q", c.Stats.Backend))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	seen := make(map[string]string)
	for name, seq := range c.Keybindings.Map() {
		if seq == "" {
			continue
		}
		if other, ok := seen[seq]; ok {
			errs = append(errs, fmt.Errorf("keybindings %s and %s share %q", name, other, seq))
		}
		seen[seq] = name
	}

	return errors.Join(errs...)
}

// Palette returns the badge palette, falling back to the default.
func (h Hints) Palette() *theme.Palette {
	if p, ok := theme.ByName(h.Theme); ok {
		return p
	}
	return theme.Default
}

// Delay returns the activation delay.
func (h Hints) Delay() time.Duration {
	return time.Duration(h.DelayMs) * time.Millisecond
}

// Options converts the hint settings to engine options.
func (h Hints) Options() hint.Options {
	opts := hint.DefaultOptions()
	if r, _ := utf8.DecodeRuneInString(h.LinkTrigger); r != utf8.RuneError {
		opts.LinkTrigger = r
	}
	if r, _ := utf8.DecodeRuneInString(h.FormTrigger); r != utf8.RuneError {
		opts.FormTrigger = r
	}
	opts.Delay = h.Delay()
	opts.ClickThreshold = h.ClickThreshold
	opts.PrioritySelectors = h.PrioritySelectors
	return opts
}

// Command names for the non-tab keybindings.
const (
	CommandNewTab = "new-tab"
	CommandQuit   = "quit"
)

// Map returns the bindings keyed by command name.
func (k Keybindings) Map() map[string]string {
	return map[string]string{
		string(tabs.Left):  k.TabLeft,
		string(tabs.Right): k.TabRight,
		string(tabs.First): k.TabFirst,
		string(tabs.Last):  k.TabLast,
		CommandNewTab:      k.NewTab,
		CommandQuit:        k.Quit,
	}
}

// DefaultTOML returns the default configuration as a TOML string.
// Used for --init-config to generate a user config file.
func DefaultTOML() string {
	return `# hintnav configuration
# Save to ~/.config/hintnav/config.toml and customize
# Only include settings you want to change from defaults

[hints]
linkTrigger = ";"             # Show hints for links and buttons
formTrigger = ","             # Show hints for form fields
delayMs = 500                 # Wait after an exact match before activating
clickThreshold = 2            # Elements clicked more often than this are priority
prioritySelectors = ["nav a", "header a", '[role="navigation"] a', ".menu a", ".nav a"]
theme = "default"             # Badge colours: default, nord, solarized

[browser]
chromePath = ""               # Path to Chrome/Chromium (empty = auto-detect)
profileDir = ""               # Chrome user data dir (empty = fresh profile each run)
remoteURL = ""                # DevTools websocket URL of a running Chrome
headless = false
userAgent = ""                # Empty keeps Chrome's own user agent
timeoutSeconds = 30
width = 1280
height = 900
search = ""                   # Search URL for the new-tab prompt, %s = query (empty = DuckDuckGo)

[stats]
backend = "json"              # "json" or "sqlite"
path = ""                     # Empty = ~/.config/hintnav/linkstats.json (or .db)

[log]
level = "info"
path = ""                     # Empty = ~/.cache/hintnav/hintnav.log

[keybindings]
tabLeft = "gT"
tabRight = "gt"
tabFirst = "g0"
tabLast = "g$"
newTab = "\u0014"             # Ctrl-t
quit = "\u0011"               # Ctrl-q
`
}

// KeyMatcher matches input bytes against multi-key bindings.
type KeyMatcher struct {
	pending  string // Accumulated prefix (e.g., "g" waiting for second key)
	bindings map[string]string
}

// NewKeyMatcher creates a matcher over bindings keyed by command name.
// Empty bindings are ignored.
func NewKeyMatcher(bindings map[string]string) *KeyMatcher {
	km := &KeyMatcher{bindings: make(map[string]string)}
	for name, seq := range bindings {
		if seq != "" {
			km.bindings[seq] = name
		}
	}
	return km
}

// Feed adds one input byte. It returns the command completed by this byte,
// if any, and whether the byte was consumed as part of a binding.
func (km *KeyMatcher) Feed(input byte) (command string, consumed bool) {
	seq := km.pending + string(input)
	if name, ok := km.bindings[seq]; ok {
		km.pending = ""
		return name, true
	}
	for b := range km.bindings {
		if len(b) > len(seq) && b[:len(seq)] == seq {
			km.pending = seq
			return "", true
		}
	}
	km.pending = ""
	return "", false
}

// ClearPending clears any pending prefix.
func (km *KeyMatcher) ClearPending() {
	km.pending = ""
}

// Pending returns the current pending prefix.
func (km *KeyMatcher) Pending() string {
	return km.pending
}

// IsPending returns true if there's a pending prefix.
func (km *KeyMatcher) IsPending() bool {
	return km.pending != ""
}
