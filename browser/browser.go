// Package browser drives Chrome over the DevTools protocol: it owns the
// tabs of one window and exposes each as a hint surface.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"hintnav/tabs"
	"hintnav/theme"
)

// Options configures how Chrome is started.
type Options struct {
	ChromePath string // Path to Chrome binary (empty = auto-detect)
	ProfileDir string // Chrome user data dir (empty = throwaway profile)
	RemoteURL  string // DevTools websocket URL; when set nothing is launched
	Headless   bool
	UserAgent  string
	Timeout    time.Duration // per-command timeout
	Width      int
	Height     int
	Palette    *theme.Palette // badge colours; nil = theme.Default
	Logger     *slog.Logger
}

// Browser is a running Chrome. Every page target in it is a tab, whether
// hintnav, the user or a page script opened it.
type Browser struct {
	allocCancel context.CancelFunc
	rootCtx     context.Context
	rootCancel  context.CancelFunc
	opts        Options
	logger      *slog.Logger
	changes     chan struct{}

	mu     sync.Mutex
	order  []target.ID // tabs in the order they were first seen
	pages  map[target.ID]*Page
	active target.ID
}

// Launch starts Chrome, or attaches to a running one when RemoteURL is set.
func Launch(ctx context.Context, opts Options) (*Browser, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Palette == nil {
		opts.Palette = theme.Default
	}

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if opts.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, opts.RemoteURL)
	} else {
		allocOpts := []chromedp.ExecAllocatorOption{
			chromedp.NoDefaultBrowserCheck,
			chromedp.NoFirstRun,
			chromedp.Flag("disable-infobars", true),
			chromedp.Flag("disable-default-apps", true),
			chromedp.Flag("disable-component-update", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("password-store", "basic"),
			chromedp.Flag("use-mock-keychain", true),
		}
		if opts.ProfileDir != "" {
			allocOpts = append(allocOpts, chromedp.UserDataDir(opts.ProfileDir))
		}
		if opts.Headless {
			allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
		}
		if opts.Width > 0 && opts.Height > 0 {
			allocOpts = append(allocOpts, chromedp.WindowSize(opts.Width, opts.Height))
		}
		if opts.UserAgent != "" {
			allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
		}
		if opts.ChromePath != "" {
			allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromePath))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, allocOpts...)
	}

	rootCtx, rootCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			opts.Logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	// The first Run starts the browser and attaches to its initial tab.
	if err := chromedp.Run(rootCtx); err != nil {
		rootCancel()
		allocCancel()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	b := &Browser{
		allocCancel: allocCancel,
		rootCtx:     rootCtx,
		rootCancel:  rootCancel,
		opts:        opts,
		logger:      opts.Logger,
		changes:     make(chan struct{}, 1),
		pages:       make(map[target.ID]*Page),
	}
	root := newPage(rootCtx, nil, opts)
	b.add(root)
	b.active = root.TargetID()

	chromedp.ListenBrowser(rootCtx, func(ev any) {
		switch ev.(type) {
		case *target.EventTargetCreated, *target.EventTargetDestroyed:
			select {
			case b.changes <- struct{}{}:
			default:
			}
		}
	})
	bc := chromedp.FromContext(rootCtx).Browser
	if err := target.SetDiscoverTargets(true).Do(cdp.WithExecutor(rootCtx, bc)); err != nil {
		b.logger.Warn("browser: target discovery unavailable", "error", err)
	}
	return b, nil
}

// Close shuts the browser down.
func (b *Browser) Close() {
	b.mu.Lock()
	pages := b.pages
	b.pages = nil
	b.order = nil
	b.mu.Unlock()

	for _, p := range pages {
		if p.cancel != nil {
			p.cancel()
		}
	}
	b.rootCancel()
	b.allocCancel()
}

// Changes delivers a value when tabs open or close. Which tab is active
// may have changed too; Sync finds out.
func (b *Browser) Changes() <-chan struct{} {
	return b.changes
}

func (b *Browser) add(p *Page) {
	p.id = p.TargetID()
	id := p.id
	if _, ok := b.pages[id]; !ok {
		b.order = append(b.order, id)
	}
	b.pages[id] = p
}

// page returns the page for target id, attaching to the tab on first use.
// Must be called with b.mu held.
func (b *Browser) page(id target.ID) *Page {
	if p, ok := b.pages[id]; ok {
		return p
	}
	tabCtx, cancel := chromedp.NewContext(b.rootCtx, chromedp.WithTargetID(id))
	p := newPage(tabCtx, cancel, b.opts)
	p.id = id
	b.add(p)
	return p
}

// Active returns the page of the active tab as of the last Sync, Tabs,
// NewTab or Activate.
func (b *Browser) Active() *Page {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pages[b.active]
}

// Sync refreshes the tab list from Chrome, picking up tabs the user or a
// page opened and tab changes made in the browser window, and returns the
// active page.
func (b *Browser) Sync(ctx context.Context) (*Page, error) {
	if _, err := b.Tabs(ctx); err != nil {
		return b.Active(), err
	}
	return b.Active(), nil
}

// NewTab opens url in a new tab to the right of the others and makes it
// active.
func (b *Browser) NewTab(ctx context.Context, url string) (*Page, error) {
	tabCtx, cancel := chromedp.NewContext(b.rootCtx)
	p := newPage(tabCtx, cancel, b.opts)
	if err := p.Navigate(ctx, url); err != nil {
		cancel()
		return nil, err
	}

	b.mu.Lock()
	b.add(p)
	b.active = p.TargetID()
	b.mu.Unlock()

	b.logger.Info("browser: opened tab", "target", p.TargetID(), "url", url)
	return p, nil
}

// Tabs lists the tabs in the order they were opened, with the active one
// flagged. The active tab is the one Chrome shows; when no tab reports
// itself visible, as in headless mode, the last tab hintnav activated
// keeps the flag.
func (b *Browser) Tabs(ctx context.Context) ([]tabs.Tab, error) {
	infos, err := chromedp.Targets(b.rootCtx)
	if err != nil {
		return nil, fmt.Errorf("listing targets: %w", err)
	}
	infos = pageTargets(infos)

	b.mu.Lock()
	b.order = mergeOrder(b.order, infos)
	live := make(map[target.ID]bool, len(b.order))
	for _, id := range b.order {
		live[id] = true
	}
	var gone []*Page
	for id, p := range b.pages {
		if !live[id] {
			gone = append(gone, p)
			delete(b.pages, id)
		}
	}
	pages := make([]*Page, len(b.order))
	for i, id := range b.order {
		pages[i] = b.page(id)
	}
	b.mu.Unlock()

	for _, p := range gone {
		if p.cancel != nil {
			p.cancel()
		}
	}

	visible := make(map[target.ID]bool, len(pages))
	for _, p := range pages {
		ok, err := p.visible(ctx)
		if err != nil {
			b.logger.Debug("browser: visibility check failed", "target", p.id, "error", err)
		}
		visible[p.id] = ok
	}

	byID := make(map[target.ID]*target.Info, len(infos))
	for _, info := range infos {
		byID[info.TargetID] = info
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.active = pickActive(b.order, visible, b.active)
	list := make([]tabs.Tab, 0, len(b.order))
	for _, id := range b.order {
		t := tabs.Tab{ID: string(id), Active: id == b.active}
		if info, ok := byID[id]; ok {
			t.Title = info.Title
			t.URL = info.URL
		}
		list = append(list, t)
	}
	return list, nil
}

// Activate brings the tab with the given target ID to the front.
func (b *Browser) Activate(ctx context.Context, id string) error {
	tid := target.ID(id)
	b.mu.Lock()
	if _, ok := b.pages[tid]; !ok {
		b.mu.Unlock()
		return fmt.Errorf("no tab with target %s", id)
	}
	p := b.page(tid)
	b.mu.Unlock()

	if err := p.run(ctx, page.BringToFront()); err != nil {
		return fmt.Errorf("bringing tab to front: %w", err)
	}

	b.mu.Lock()
	b.active = tid
	b.mu.Unlock()
	return nil
}

// SetPalette recolours the badges of every tab, current and future.
func (b *Browser) SetPalette(palette *theme.Palette) {
	if palette == nil {
		palette = theme.Default
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opts.Palette = palette
	for _, p := range b.pages {
		p.setStyle(styleOf(palette))
	}
}

// pageTargets keeps the targets that are ordinary tabs.
func pageTargets(infos []*target.Info) []*target.Info {
	var out []*target.Info
	for _, info := range infos {
		if info.Type != "page" || info.Subtype != "" || strings.HasPrefix(info.URL, "devtools://") {
			continue
		}
		out = append(out, info)
	}
	return out
}

// mergeOrder drops closed tabs from order and appends new ones in the
// order Chrome lists them.
func mergeOrder(order []target.ID, infos []*target.Info) []target.ID {
	present := make(map[target.ID]bool, len(infos))
	for _, info := range infos {
		present[info.TargetID] = true
	}
	merged := make([]target.ID, 0, len(infos))
	seen := make(map[target.ID]bool, len(infos))
	for _, id := range order {
		if present[id] {
			merged = append(merged, id)
			seen[id] = true
		}
	}
	for _, info := range infos {
		if !seen[info.TargetID] {
			merged = append(merged, info.TargetID)
			seen[info.TargetID] = true
		}
	}
	return merged
}

// pickActive chooses the active tab: current while Chrome still shows it,
// otherwise the first visible tab, otherwise current if it is still open,
// otherwise the first tab.
func pickActive(order []target.ID, visible map[target.ID]bool, current target.ID) target.ID {
	open := false
	for _, id := range order {
		if id == current {
			open = true
		}
	}
	if open && visible[current] {
		return current
	}
	for _, id := range order {
		if visible[id] {
			return id
		}
	}
	switch {
	case open:
		return current
	case len(order) == 0:
		return ""
	}
	return order[0]
}
