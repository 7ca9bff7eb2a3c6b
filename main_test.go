package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hintnav/config"
	"hintnav/document"
	"hintnav/hint"
	"hintnav/stats"
	"hintnav/tabs"
	"hintnav/theme"
)

const pageHTML = `<html><body>
<a href="/a">Alpha</a>
<a href="/b">Beta</a>
<form action="/search"><input type="text" name="q"></form>
</body></html>`

// fakeTab is a static document that records keys typed into it.
type fakeTab struct {
	*document.Page
	sent  []hint.Key
	loads chan struct{}
}

func newFakeTab(t *testing.T) *fakeTab {
	t.Helper()
	p, err := document.Parse("https://example.com/", strings.NewReader(pageHTML), document.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	return &fakeTab{Page: p, loads: make(chan struct{})}
}

func (f *fakeTab) SendKey(ctx context.Context, k hint.Key) error {
	f.sent = append(f.sent, k)
	return nil
}

func (f *fakeTab) Loads() <-chan struct{} { return f.loads }

// fakeWindow holds two tabs, the first one active.
type fakeWindow struct {
	tabs      []*fakeTab
	active    int
	activated []string
	opened    []string
	palette   *theme.Palette
}

func (w *fakeWindow) Tabs(ctx context.Context) ([]tabs.Tab, error) {
	list := make([]tabs.Tab, len(w.tabs))
	for i := range w.tabs {
		list[i] = tabs.Tab{ID: string(rune('A' + i)), Active: i == w.active}
	}
	return list, nil
}

func (w *fakeWindow) Activate(ctx context.Context, id string) error {
	w.activated = append(w.activated, id)
	w.active = int(id[0] - 'A')
	return nil
}

func (w *fakeWindow) Sync(ctx context.Context) (tab, error) {
	return w.tabs[w.active], nil
}

func (w *fakeWindow) NewTab(ctx context.Context, url string) error {
	w.opened = append(w.opened, url)
	return nil
}

func (w *fakeWindow) SetPalette(p *theme.Palette) { w.palette = p }

func (w *fakeWindow) Changes() <-chan struct{} { return nil }

func newTestApp(t *testing.T, cfg *config.Config) (*app, *fakeWindow) {
	t.Helper()
	w := &fakeWindow{tabs: []*fakeTab{newFakeTab(t), newFakeTab(t)}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := stats.NewFileStore(filepath.Join(t.TempDir(), "linkstats.json"))
	a := newApp(cfg, logger, store, w, io.Discard)
	a.sync(context.Background(), true)
	t.Cleanup(func() { a.engine.Close(context.Background()) })
	return a, w
}

// press feeds keys one byte at a time and reports whether any asked to
// quit.
func press(t *testing.T, a *app, keys string) bool {
	t.Helper()
	quit := false
	for i := 0; i < len(keys); i++ {
		q, err := a.handle(context.Background(), []byte{keys[i]})
		if err != nil {
			t.Fatalf("handle %q failed: %v", keys[i], err)
		}
		quit = quit || q
	}
	return quit
}

func TestHandleTriggerStartsHints(t *testing.T) {
	a, w := newTestApp(t, config.Default())

	press(t, a, ";")
	if a.engine.Mode() != hint.LinkHints {
		t.Fatalf("expected link hints, got %s", a.engine.Mode())
	}
	if len(w.tabs[0].Badges()) == 0 {
		t.Error("expected badges on the active tab")
	}
	if len(w.tabs[0].sent) != 0 {
		t.Errorf("expected the trigger consumed, page got %v", w.tabs[0].sent)
	}
}

func TestHandleUnconsumedKeyReachesPage(t *testing.T) {
	a, w := newTestApp(t, config.Default())

	press(t, a, "x")
	sent := w.tabs[0].sent
	if len(sent) != 1 || sent[0].Rune != 'x' {
		t.Errorf("expected x typed into the page, got %v", sent)
	}
}

func TestHandleKeybindingSwitchesTab(t *testing.T) {
	a, w := newTestApp(t, config.Default())

	press(t, a, "g")
	if !a.keys.IsPending() || len(w.tabs[0].sent) != 0 {
		t.Fatal("expected g held as a pending keybinding")
	}
	press(t, a, "t")
	if len(w.activated) != 1 || w.activated[0] != "B" {
		t.Fatalf("expected tab B activated, got %v", w.activated)
	}
	if a.page != tab(w.tabs[1]) {
		t.Error("expected the engine moved to the new tab")
	}
	if len(w.tabs[0].sent)+len(w.tabs[1].sent) != 0 {
		t.Error("expected keybinding keys kept from the page")
	}
}

func TestHandleKeybindingIgnoredWhileEditing(t *testing.T) {
	a, w := newTestApp(t, config.Default())
	ctx := context.Background()

	fields, err := w.tabs[0].Discover(ctx, hint.Query{Kind: hint.Fields})
	if err != nil || len(fields) == 0 {
		t.Fatalf("expected a field, got %v, %v", fields, err)
	}
	if err := w.tabs[0].Focus(ctx, fields[0].Ref, false); err != nil {
		t.Fatal(err)
	}

	press(t, a, "gt")
	if len(w.activated) != 0 {
		t.Errorf("expected no tab switch while typing, got %v", w.activated)
	}
	if len(w.tabs[0].sent) != 2 {
		t.Errorf("expected both keys typed into the field, got %v", w.tabs[0].sent)
	}
}

func TestHandlePromptTakesKeysFirst(t *testing.T) {
	cfg := config.Default()
	cfg.Browser.Search = "https://search.example/?q=%s"
	a, w := newTestApp(t, cfg)

	press(t, a, "\x14") // Ctrl-T
	if a.prompt == nil {
		t.Fatal("expected the new-tab prompt open")
	}
	press(t, a, "gt;")
	if len(w.activated) != 0 || a.engine.Mode() != hint.Idle {
		t.Fatal("expected prompt input kept from keybindings and hints")
	}
	press(t, a, "\r")
	if a.prompt != nil {
		t.Error("expected the prompt closed")
	}
	if len(w.opened) != 1 || w.opened[0] != "https://search.example/?q=gt%3B" {
		t.Errorf("expected a search tab, got %v", w.opened)
	}
}

func TestHandleQuit(t *testing.T) {
	a, _ := newTestApp(t, config.Default())
	if !press(t, a, "\x03") {
		t.Error("expected Ctrl-C to quit")
	}
	if !press(t, a, "\x11") {
		t.Error("expected the quit keybinding to quit")
	}
}

func TestReloadAppliesTheme(t *testing.T) {
	a, w := newTestApp(t, config.Default())
	before := a.engine

	cfg := config.Default()
	cfg.Hints.Theme = theme.Nord.Name
	cfg.Hints.LinkTrigger = "'"
	a.reload(context.Background(), cfg)

	if w.palette != theme.Nord {
		t.Errorf("expected the nord palette pushed to the browser, got %v", w.palette)
	}
	if a.engine == before {
		t.Error("expected a fresh engine for the new hint settings")
	}
	press(t, a, "'")
	if a.engine.Mode() != hint.LinkHints {
		t.Error("expected the new trigger to start hints")
	}
}

func TestReadInputClosesOnEOF(t *testing.T) {
	out := make(chan []byte)
	go readInput(strings.NewReader("ab"), out)

	var got []byte
	deadline := time.After(2 * time.Second)
	for {
		select {
		case buf, ok := <-out:
			if !ok {
				if string(got) != "ab" {
					t.Errorf("expected ab, got %q", got)
				}
				return
			}
			got = append(got, buf...)
		case <-deadline:
			t.Fatal("input channel not closed after EOF")
		}
	}
}
