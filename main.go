// Hintnav drives a Chrome window from the terminal with keyboard hints:
// type a trigger key, then the letters shown next to a link to follow it.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"hintnav/browser"
	"hintnav/config"
	"hintnav/document"
	"hintnav/fetcher"
	"hintnav/hint"
	"hintnav/omnibox"
	"hintnav/stats"
	"hintnav/tabs"
	"hintnav/term"
	"hintnav/theme"
)

func main() {
	url := ""
	printMode := false
	forms := false
	initConfig := false

	for _, arg := range os.Args[1:] {
		switch arg {
		case "-p", "--print":
			printMode = true
		case "-f", "--forms":
			forms = true
		case "--init-config":
			initConfig = true
		case "-h", "--help":
			printUsage()
			return
		default:
			if url == "" {
				url = arg
			}
		}
	}

	// Generate default config and exit
	if initConfig {
		fmt.Print(config.DefaultTOML())
		return
	}

	if printMode {
		if err := runPrint(url, forms); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(url); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Hintnav - keyboard hints for Chrome

Usage: hintnav [options] [url]

Options:
  -p, --print       Print the hints a page would get and exit (no browser)
  -f, --forms       With --print, show form field hints instead of links
  --init-config     Output default config (redirect to ~/.config/hintnav/config.toml)
  -h, --help        Show this help

Keys:
  ;                 Hint links and buttons, then type the letters shown
  ,                 Hint form fields; Tab moves to the next field
  Backspace, Esc    Undo a letter, dismiss hints
  Ctrl-J            Submit the focused form
  gT gt g0 g$       Previous, next, first and last tab
  Ctrl-T            Open a tab
  Ctrl-Q            Quit

Examples:
  hintnav https://example.com
  hintnav -p https://news.ycombinator.com
  hintnav --init-config > ~/.config/hintnav/config.toml`)
}

func setupLogger(cfg config.Log) (*slog.Logger, io.Closer, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}

	path := cfg.Path
	if path == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			return nil, nil, err
		}
		path = filepath.Join(dir, "hintnav", "hintnav.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})), f, nil
}

func runPrint(url string, forms bool) error {
	if url == "" {
		return errors.New("--print needs a URL")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	fetcher.Configure(fetcher.Options{
		UserAgent:      cfg.Browser.UserAgent,
		TimeoutSeconds: cfg.Browser.TimeoutSeconds,
	})

	ctx, cancel := context.WithTimeout(context.Background(), fetcher.Timeout())
	defer cancel()

	res, err := fetcher.Simple(ctx, url)
	if err != nil {
		return err
	}
	page, err := document.Parse(res.FinalURL, strings.NewReader(res.HTML), document.DefaultOptions())
	if err != nil {
		return err
	}

	store, closeStore, err := stats.Open(cfg.Stats.Backend, cfg.Stats.Path)
	if err != nil {
		return fmt.Errorf("opening stats: %w", err)
	}
	defer closeStore()

	opts := cfg.Hints.Options()
	opts.Logger = logger
	engine := hint.New(page, stats.NewRecorder(ctx, store, logger), opts)
	defer engine.Close(ctx)

	trigger := opts.LinkTrigger
	if forms {
		trigger = opts.FormTrigger
	}
	if _, err := engine.HandleKey(ctx, hint.Rune(trigger)); err != nil {
		return err
	}
	return page.WriteBadges(os.Stdout)
}

// tab is the page the hint engine is attached to.
type tab interface {
	hint.Surface
	SendKey(ctx context.Context, k hint.Key) error
	Loads() <-chan struct{}
}

// window is the browser as the key loop sees it.
type window interface {
	tabs.Directory
	Sync(ctx context.Context) (tab, error)
	NewTab(ctx context.Context, url string) error
	SetPalette(p *theme.Palette)
	Changes() <-chan struct{}
}

// chrome adapts a browser.Browser to window.
type chrome struct {
	*browser.Browser
}

func (c chrome) Sync(ctx context.Context) (tab, error) {
	p, err := c.Browser.Sync(ctx)
	if p == nil {
		return nil, err
	}
	return p, err
}

func (c chrome) NewTab(ctx context.Context, url string) error {
	_, err := c.Browser.NewTab(ctx, url)
	return err
}

// app is the interactive loop's state. Everything but status is owned by
// the loop goroutine.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    stats.Store
	window   window
	switcher *tabs.Switcher
	keys     *config.KeyMatcher
	omnibox  *omnibox.Parser
	out      io.Writer

	page   tab
	engine *hint.Engine
	prompt *omnibox.Prompt

	// status receives messages from timer goroutines.
	status chan string
	// reloads delivers edited configs; nil when the file is not watched.
	reloads <-chan *config.Config
}

func newApp(cfg *config.Config, logger *slog.Logger, store stats.Store, w window, out io.Writer) *app {
	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		window:   w,
		switcher: tabs.NewSwitcher(w, logger),
		keys:     config.NewKeyMatcher(cfg.Keybindings.Map()),
		omnibox:  newParser(cfg),
		out:      out,
		status:   make(chan string, 8),
	}
}

func newParser(cfg *config.Config) *omnibox.Parser {
	p := omnibox.NewParser()
	if cfg.Browser.Search != "" {
		p.SetDefaultSearch(cfg.Browser.Search)
	}
	return p
}

func run(url string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, logFile, err := setupLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logFile.Close()
	slog.SetDefault(logger)

	store, closeStore, err := stats.Open(cfg.Stats.Backend, cfg.Stats.Path)
	if err != nil {
		return fmt.Errorf("opening stats: %w", err)
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := browser.Launch(ctx, browser.Options{
		ChromePath: cfg.Browser.ChromePath,
		ProfileDir: cfg.Browser.ProfileDir,
		RemoteURL:  cfg.Browser.RemoteURL,
		Headless:   cfg.Browser.Headless,
		UserAgent:  cfg.Browser.UserAgent,
		Timeout:    time.Duration(cfg.Browser.TimeoutSeconds) * time.Second,
		Width:      cfg.Browser.Width,
		Height:     cfg.Browser.Height,
		Palette:    cfg.Hints.Palette(),
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer b.Close()

	a := newApp(cfg, logger, store, chrome{b}, os.Stdout)

	if path, err := config.ConfigPath(); err == nil {
		if a.reloads, err = config.Watch(ctx, path, logger); err != nil {
			logger.Info("config: not watching for changes", "path", path, "error", err)
		}
	}

	// The start page loads in the first tab; with no URL it stays blank.
	if url != "" {
		if err := b.Active().Navigate(ctx, a.omnibox.Parse(url).URL); err != nil {
			return err
		}
	}
	a.sync(ctx, true)
	if a.page == nil {
		return errors.New("browser has no tabs")
	}

	t, err := term.NewTerminal(os.Stdin)
	if err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	if err := t.EnterRawMode(); err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	defer func() {
		t.RestoreMode()
		fmt.Print("\r" + term.ClearLine + term.CursorShow + "\n")
	}()
	fmt.Print(term.CursorHide)

	input := make(chan []byte)
	go readInput(t, input)
	return a.loop(ctx, input)
}

// sync catches up with tab changes made outside hintnav and moves the
// engine to the active tab. With force the engine is rebuilt even when the
// tab is the same.
func (a *app) sync(ctx context.Context, force bool) {
	p, err := a.window.Sync(ctx)
	if err != nil {
		a.logger.Warn("tabs: sync failed", "error", err)
	}
	if p == nil {
		return
	}
	if force || p != a.page {
		a.attach(ctx, p)
	}
}

// attach binds a fresh engine to p. Hint state never outlives the document
// it was built for.
func (a *app) attach(ctx context.Context, p tab) {
	if a.engine != nil {
		a.engine.Close(ctx)
	}
	a.keys.ClearPending()
	a.page = p

	opts := a.cfg.Hints.Options()
	opts.Logger = a.logger
	opts.OnActivate = func(act hint.Activation) {
		msg := "→ " + act.Candidate.Identity.Key()
		if act.Err != nil {
			msg = "error: " + act.Err.Error()
		}
		select {
		case a.status <- msg:
		default:
		}
	}
	a.engine = hint.New(p, stats.NewRecorder(ctx, a.store, a.logger), opts)
}

// reload applies an edited config. Hint, theme, search and keybinding
// settings take effect at once; browser launch and stats settings need a
// restart.
func (a *app) reload(ctx context.Context, cfg *config.Config) {
	a.cfg = cfg
	a.keys = config.NewKeyMatcher(cfg.Keybindings.Map())
	a.omnibox = newParser(cfg)
	a.window.SetPalette(cfg.Hints.Palette())
	a.attach(ctx, a.page)
}

// readInput forwards reads from r until it fails or reaches EOF, then
// closes out.
func readInput(r io.Reader, out chan<- []byte) {
	defer close(out)
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			out <- append([]byte(nil), buf[:n]...)
		}
		if err != nil {
			return
		}
	}
}

func (a *app) loop(ctx context.Context, input <-chan []byte) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-a.page.Loads():
			a.attach(ctx, a.page)
			a.show("")
		case <-a.window.Changes():
			a.sync(ctx, false)
			a.show("")
		case msg := <-a.status:
			a.show(msg)
		case cfg, ok := <-a.reloads:
			if !ok {
				a.reloads = nil
				continue
			}
			a.reload(ctx, cfg)
			a.show("config reloaded")
		case buf, ok := <-input:
			if !ok {
				return nil
			}
			for _, raw := range term.Split(buf) {
				quit, err := a.handle(ctx, raw)
				if err != nil {
					a.logger.Warn("key failed", "error", err)
					a.show("error: " + err.Error())
				}
				if quit {
					return nil
				}
			}
		}
	}
}

func (a *app) show(msg string) {
	if msg == "" {
		msg = a.engine.Mode().String()
		if in := a.engine.Input(); in != "" {
			msg += " " + in
		}
	}
	term.Status(a.out, msg)
}

// handle routes one key: to the open prompt, to a keybinding, or to the
// hint engine, which passes anything it does not consume on to the page.
func (a *app) handle(ctx context.Context, raw []byte) (quit bool, err error) {
	if len(raw) == 1 && raw[0] == 3 { // Ctrl-C
		return true, nil
	}
	k, ok := term.Decode(raw)
	if !ok {
		return false, nil
	}

	if a.prompt != nil {
		return false, a.feedPrompt(ctx, k)
	}

	if len(raw) == 1 && a.engine.Mode() == hint.Idle && !a.engine.Pending() {
		if !a.keys.IsPending() {
			// The user may have switched tabs in the browser window.
			a.sync(ctx, false)
		}
		editable, err := a.page.ActiveEditable(ctx)
		if err != nil {
			a.logger.Debug("editable check failed", "error", err)
		}
		if editable {
			a.keys.ClearPending()
		} else if cmd, consumed := a.keys.Feed(raw[0]); cmd != "" {
			return a.command(ctx, cmd)
		} else if consumed {
			a.show(a.keys.Pending())
			return false, nil
		}
	}

	handled, err := a.engine.HandleKey(ctx, k)
	if err != nil {
		return false, err
	}
	if !handled {
		if err := a.page.SendKey(ctx, k); err != nil {
			return false, fmt.Errorf("sending %s: %w", k, err)
		}
	}
	a.show("")
	return false, nil
}

func (a *app) command(ctx context.Context, name string) (bool, error) {
	switch name {
	case config.CommandQuit:
		return true, nil
	case config.CommandNewTab:
		a.prompt = omnibox.NewPrompt("open: ")
		a.show(a.prompt.String())
		return false, nil
	}

	cmd, err := tabs.ParseCommand(name)
	if err != nil {
		return false, err
	}
	if err := a.switcher.Switch(ctx, cmd); err != nil {
		return false, err
	}
	a.sync(ctx, true)
	a.show("")
	return false, nil
}

func (a *app) feedPrompt(ctx context.Context, k hint.Key) error {
	done, cancelled := a.prompt.Feed(k)
	switch {
	case cancelled:
		a.prompt = nil
		a.show("")
		return nil
	case !done:
		a.show(a.prompt.String())
		return nil
	}

	res := a.omnibox.Parse(a.prompt.Text())
	a.prompt = nil
	if res.URL == "" {
		a.show("")
		return nil
	}
	if err := a.window.NewTab(ctx, res.URL); err != nil {
		return err
	}
	a.sync(ctx, true)
	a.show(res.URL)
	return nil
}
