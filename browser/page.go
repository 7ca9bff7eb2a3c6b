package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"hintnav/hint"
	"hintnav/theme"
)

// Page is one browser tab. It implements hint.Surface.
type Page struct {
	ctx     context.Context
	cancel  context.CancelFunc
	id      target.ID
	timeout time.Duration
	loads   chan struct{}

	mu     sync.Mutex
	style  badgeStyle
	badges []hint.Badge
}

var _ hint.Surface = (*Page)(nil)

func newPage(ctx context.Context, cancel context.CancelFunc, opts Options) *Page {
	p := &Page{
		ctx:     ctx,
		cancel:  cancel,
		timeout: opts.Timeout,
		style:   styleOf(opts.Palette),
		loads:   make(chan struct{}, 1),
	}
	chromedp.ListenTarget(ctx, func(ev any) {
		if _, ok := ev.(*page.EventLoadEventFired); ok {
			select {
			case p.loads <- struct{}{}:
			default:
			}
		}
	})
	return p
}

// Loads delivers a value each time the page finishes loading a document.
// Hint state is per document, so callers rebuild their engine on receipt.
func (p *Page) Loads() <-chan struct{} {
	return p.loads
}

// TargetID returns the DevTools target of the tab.
func (p *Page) TargetID() target.ID {
	if p.id != "" {
		return p.id
	}
	c := chromedp.FromContext(p.ctx)
	if c == nil || c.Target == nil {
		return ""
	}
	return c.Target.TargetID
}

// run executes actions against the tab, bounded by both the caller's
// context and the per-command timeout.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// call evaluates a script function with JSON-encoded arguments.
func (p *Page) call(ctx context.Context, fn string, res any, args ...any) error {
	encoded := make([]string, len(args))
	for i, a := range args {
		data, err := json.Marshal(a)
		if err != nil {
			return err
		}
		encoded[i] = string(data)
	}
	expr := "(" + fn + ")(" + strings.Join(encoded, ", ") + ")"
	return p.run(ctx, chromedp.Evaluate(expr, res))
}

// Navigate loads url in the tab.
func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := p.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

// visible reports whether Chrome is showing the tab.
func (p *Page) visible(ctx context.Context) (bool, error) {
	var state string
	if err := p.run(ctx, chromedp.Evaluate(`document.visibilityState`, &state)); err != nil {
		return false, err
	}
	return state == "visible", nil
}

func (p *Page) setStyle(s badgeStyle) {
	p.mu.Lock()
	p.style = s
	p.mu.Unlock()
}

// Hostname returns the hostname of the current document.
func (p *Page) Hostname(ctx context.Context) (string, error) {
	var host string
	if err := p.run(ctx, chromedp.Evaluate(`location.hostname`, &host)); err != nil {
		return "", err
	}
	return host, nil
}

type rawElement struct {
	Ref        string   `json:"ref"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Width      float64  `json:"width"`
	Height     float64  `json:"height"`
	Visible    bool     `json:"visible"`
	Landmark   bool     `json:"landmark"`
	InViewport bool     `json:"inViewport"`
	TextLike   bool     `json:"textLike"`
	URL        string   `json:"url"`
	Tag        string   `json:"tag"`
	ID         string   `json:"id"`
	Classes    []string `json:"classes"`
	Text       string   `json:"text"`
}

// Discover returns the elements matching q in document order.
func (p *Page) Discover(ctx context.Context, q hint.Query) ([]hint.Element, error) {
	selectors := q.PrioritySelectors
	if selectors == nil {
		selectors = []string{}
	}

	var raw []rawElement
	if err := p.call(ctx, discoverScript, &raw, q.Kind.Selector(), selectors); err != nil {
		return nil, fmt.Errorf("discovering %s: %w", q.Kind, err)
	}

	elements := make([]hint.Element, len(raw))
	for i, r := range raw {
		elements[i] = hint.Element{
			Ref:        r.Ref,
			Rect:       hint.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height},
			Visible:    r.Visible,
			Landmark:   r.Landmark,
			InViewport: r.InViewport,
			TextLike:   r.TextLike,
			Identity: hint.Identity{
				URL:     r.URL,
				Tag:     r.Tag,
				ID:      r.ID,
				Classes: r.Classes,
				Text:    r.Text,
			},
		}
	}
	return elements, nil
}

type badgeStyle struct {
	Label    string `json:"label"`
	Priority string `json:"priority"`
	Field    string `json:"field"`
	Text     string `json:"text"`
	Typed    string `json:"typed"`
	Border   string `json:"border"`
}

func styleOf(p *theme.Palette) badgeStyle {
	if p == nil {
		p = theme.Default
	}
	return badgeStyle{
		Label:    p.Label.CSS(),
		Priority: p.Priority.CSS(),
		Field:    p.Field.CSS(),
		Text:     p.Text.CSS(),
		Typed:    p.Typed.CSS(),
		Border:   p.Border.CSS(),
	}
}

type badgeView struct {
	Code     string  `json:"code"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Priority bool    `json:"priority"`
	Field    bool    `json:"field"`
	Visible  bool    `json:"visible"`
	Matched  string  `json:"matched"`
	Rest     string  `json:"rest"`
}

func (p *Page) views(prefix string) []badgeView {
	views := make([]badgeView, len(p.badges))
	for i, b := range p.badges {
		matched, rest := hint.Label(b.Code, prefix)
		views[i] = badgeView{
			Code:     b.Code,
			X:        b.X,
			Y:        b.Y,
			Priority: b.Priority,
			Field:    b.Field,
			Visible:  strings.HasPrefix(b.Code, strings.ToLower(prefix)),
			Matched:  matched,
			Rest:     rest,
		}
	}
	return views
}

// ShowBadges draws badges, replacing any already shown.
func (p *Page) ShowBadges(ctx context.Context, badges []hint.Badge) error {
	p.mu.Lock()
	p.badges = append([]hint.Badge(nil), badges...)
	views := p.views("")
	style := p.style
	p.mu.Unlock()

	var ok bool
	return p.call(ctx, renderScript, &ok, views, true, style)
}

// FilterBadges hides badges not starting with prefix and underlines the
// typed part of the rest.
func (p *Page) FilterBadges(ctx context.Context, prefix string) error {
	p.mu.Lock()
	views := p.views(prefix)
	style := p.style
	p.mu.Unlock()

	var ok bool
	return p.call(ctx, renderScript, &ok, views, false, style)
}

// ClearBadges removes every badge.
func (p *Page) ClearBadges(ctx context.Context) error {
	p.mu.Lock()
	p.badges = nil
	p.mu.Unlock()

	var ok bool
	return p.call(ctx, clearScript, &ok)
}

// Click simulates a click on the element.
func (p *Page) Click(ctx context.Context, ref string) error {
	var found bool
	if err := p.call(ctx, clickScript, &found, ref); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("element %s is gone", ref)
	}
	return nil
}

// Focus focuses the element, centers it and optionally selects its text.
func (p *Page) Focus(ctx context.Context, ref string, selectText bool) error {
	var found bool
	if err := p.call(ctx, focusScript, &found, ref, selectText); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("element %s is gone", ref)
	}
	return nil
}

// ActiveEditable reports whether focus is in an input, textarea, select or
// contenteditable element.
func (p *Page) ActiveEditable(ctx context.Context) (bool, error) {
	var ok bool
	err := p.call(ctx, activeEditableScript, &ok)
	return ok, err
}

// SubmitActiveForm submits the focused element's form, falling back to the
// first visible submit control.
func (p *Page) SubmitActiveForm(ctx context.Context) (bool, error) {
	var ok bool
	err := p.call(ctx, submitScript, &ok)
	return ok, err
}

// SendKey types a key the hint engine did not consume into the page.
func (p *Page) SendKey(ctx context.Context, k hint.Key) error {
	var keys string
	switch k.Name {
	case hint.KeyEscape:
		keys = kb.Escape
	case hint.KeyBackspace:
		keys = kb.Backspace
	case hint.KeyTab:
		keys = kb.Tab
	case hint.KeyEnter:
		keys = kb.Enter
	default:
		if k.Ctrl {
			return nil
		}
		keys = string(k.Rune)
	}

	var opts []chromedp.KeyOption
	if k.Shift && k.Name != hint.KeyRune {
		opts = append(opts, chromedp.KeyModifiers(input.ModifierShift))
	}
	return p.run(ctx, chromedp.KeyEvent(keys, opts...))
}
