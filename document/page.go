// Package document is a hint surface over static HTML. It lays elements out
// one per row in document order, which is enough to preview hint
// assignment for a page without a browser.
package document

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"hintnav/hint"
)

// Options sets the approximate layout.
type Options struct {
	RowHeight      float64
	CharWidth      float64
	ViewportWidth  float64
	ViewportHeight float64
}

// DefaultOptions returns a layout roughly matching a laptop browser window.
func DefaultOptions() Options {
	return Options{
		RowHeight:      20,
		CharWidth:      8,
		ViewportWidth:  1280,
		ViewportHeight: 800,
	}
}

// Page is parsed HTML acting as a hint surface. Side effects such as
// clicks and focus changes are recorded rather than performed.
type Page struct {
	url  *url.URL
	doc  *goquery.Document
	opts Options

	order map[*html.Node]int
	nodes map[string]*html.Node

	badges []hint.Badge
	filter string

	focused   *html.Node
	clicked   []string
	submitted []string
	location  string
}

var _ hint.Surface = (*Page)(nil)

// Parse reads HTML from r. pageURL resolves relative links and scopes
// click statistics.
func Parse(pageURL string, r io.Reader, opts Options) (*Page, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing page URL: %w", err)
	}
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	doc := goquery.NewDocumentFromNode(root)
	doc.Url = u

	p := &Page{
		url:      u,
		doc:      doc,
		opts:     opts,
		order:    make(map[*html.Node]int),
		nodes:    make(map[string]*html.Node),
		location: u.String(),
	}
	p.number(root)
	return p, nil
}

// number assigns each element its preorder position, which doubles as its
// layout row and its ref.
func (p *Page) number(n *html.Node) {
	if n.Type == html.ElementNode {
		i := len(p.order)
		p.order[n] = i
		p.nodes[strconv.Itoa(i)] = n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.number(c)
	}
}

func (p *Page) ref(n *html.Node) string {
	return strconv.Itoa(p.order[n])
}

// Hostname returns the page's hostname.
func (p *Page) Hostname(ctx context.Context) (string, error) {
	return p.url.Hostname(), nil
}

// Discover returns the elements matching q in document order.
func (p *Page) Discover(ctx context.Context, q hint.Query) ([]hint.Element, error) {
	matchers := make([]cascadia.Selector, 0, len(q.PrioritySelectors))
	for _, sel := range q.PrioritySelectors {
		m, err := cascadia.Compile(sel)
		if err != nil {
			return nil, fmt.Errorf("priority selector %q: %w", sel, err)
		}
		matchers = append(matchers, m)
	}

	var elements []hint.Element
	p.doc.Find(q.Kind.Selector()).Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, p.element(s, matchers))
	})
	return elements, nil
}

func (p *Page) element(s *goquery.Selection, priority []cascadia.Selector) hint.Element {
	n := s.Get(0)
	tag := goquery.NodeName(s)
	text := strings.Join(strings.Fields(s.Text()), " ")
	if r := []rune(text); len(r) > 200 {
		text = string(r[:200])
	}

	label := text
	if label == "" {
		label, _ = s.Attr("value")
	}
	width := float64(max(len(label), 4)) * p.opts.CharWidth
	rect := hint.Rect{
		X:      0,
		Y:      float64(p.order[n]) * p.opts.RowHeight,
		Width:  width,
		Height: p.opts.RowHeight,
	}

	landmark := false
	for _, m := range priority {
		if s.IsMatcher(m) {
			landmark = true
			break
		}
	}

	id := hint.Identity{Tag: tag, Text: text}
	id.ID, _ = s.Attr("id")
	if class, ok := s.Attr("class"); ok {
		id.Classes = strings.Fields(class)
	}
	if tag == "a" || tag == "area" {
		id.URL = p.resolve(s.AttrOr("href", ""))
	}

	return hint.Element{
		Ref:        p.ref(n),
		Rect:       rect,
		Visible:    visible(s),
		Landmark:   landmark,
		InViewport: rect.Y >= 0 && rect.Y+rect.Height <= p.opts.ViewportHeight && rect.X+rect.Width <= p.opts.ViewportWidth,
		TextLike:   tag == "input" || tag == "textarea",
		Identity:   id,
	}
}

func (p *Page) resolve(href string) string {
	if href == "" {
		return ""
	}
	u, err := p.url.Parse(href)
	if err != nil {
		return href
	}
	return u.String()
}

// visible approximates computed visibility from attributes and inline
// styles on the element and its ancestors.
func visible(s *goquery.Selection) bool {
	if t, _ := s.Attr("type"); strings.EqualFold(t, "hidden") {
		return false
	}
	for n := s; n.Length() > 0; n = n.Parent() {
		if _, ok := n.Attr("hidden"); ok {
			return false
		}
		if hiddenStyle(n.AttrOr("style", "")) {
			return false
		}
	}
	return true
}

func hiddenStyle(style string) bool {
	for _, decl := range strings.Split(style, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		val = strings.ToLower(strings.TrimSpace(val))
		switch {
		case prop == "display" && val == "none",
			prop == "visibility" && val == "hidden",
			prop == "opacity" && (val == "0" || val == "0.0"):
			return true
		}
	}
	return false
}

// ShowBadges records the badges to draw.
func (p *Page) ShowBadges(ctx context.Context, badges []hint.Badge) error {
	p.badges = append([]hint.Badge(nil), badges...)
	p.filter = ""
	return nil
}

// FilterBadges records the current filter.
func (p *Page) FilterBadges(ctx context.Context, prefix string) error {
	p.filter = strings.ToLower(prefix)
	return nil
}

// ClearBadges removes all badges.
func (p *Page) ClearBadges(ctx context.Context) error {
	p.badges = nil
	p.filter = ""
	return nil
}

// Badges returns the badges currently visible under the filter.
func (p *Page) Badges() []hint.Badge {
	var out []hint.Badge
	for _, b := range p.badges {
		if strings.HasPrefix(b.Code, p.filter) {
			out = append(out, b)
		}
	}
	return out
}

// Click records a click. Clicking a link moves Location to its target.
func (p *Page) Click(ctx context.Context, ref string) error {
	n, ok := p.nodes[ref]
	if !ok {
		return fmt.Errorf("no element %s", ref)
	}
	p.clicked = append(p.clicked, ref)

	s := goquery.NewDocumentFromNode(n).Selection
	if goquery.NodeName(s) == "a" {
		if href := p.resolve(s.AttrOr("href", "")); href != "" {
			p.location = href
		}
	}
	return nil
}

// Focus moves focus to the element.
func (p *Page) Focus(ctx context.Context, ref string, selectText bool) error {
	n, ok := p.nodes[ref]
	if !ok {
		return fmt.Errorf("no element %s", ref)
	}
	p.focused = n
	return nil
}

// ActiveEditable reports whether the focused element accepts typing.
func (p *Page) ActiveEditable(ctx context.Context) (bool, error) {
	if p.focused == nil {
		return false, nil
	}
	s := goquery.NewDocumentFromNode(p.focused).Selection
	switch goquery.NodeName(s) {
	case "input", "textarea", "select":
		return true, nil
	}
	return s.AttrOr("contenteditable", "") == "true", nil
}

// SubmitActiveForm records submission of the focused element's form, or
// clicks the first visible submit control.
func (p *Page) SubmitActiveForm(ctx context.Context) (bool, error) {
	if p.focused != nil {
		if form := p.doc.FindNodes(p.focused).Closest("form"); form.Length() > 0 {
			p.submitted = append(p.submitted, p.resolve(form.AttrOr("action", p.url.String())))
			return true, nil
		}
	}

	var submit *goquery.Selection
	p.doc.Find(`button[type="submit"], input[type="submit"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if visible(s) {
			submit = s
			return false
		}
		return true
	})
	if submit == nil {
		return false, nil
	}
	return true, p.Click(ctx, p.ref(submit.Get(0)))
}

// Clicked returns the refs clicked so far.
func (p *Page) Clicked() []string { return p.clicked }

// Submitted returns the actions of submitted forms.
func (p *Page) Submitted() []string { return p.submitted }

// Focused returns the ref of the focused element, or "".
func (p *Page) Focused() string {
	if p.focused == nil {
		return ""
	}
	return p.ref(p.focused)
}

// Location returns the page URL, updated by link clicks.
func (p *Page) Location() string { return p.location }

// WriteBadges prints the visible badges as a table, in code order.
func (p *Page) WriteBadges(w io.Writer) error {
	badges := p.Badges()
	sort.SliceStable(badges, func(i, j int) bool {
		if len(badges[i].Code) != len(badges[j].Code) {
			return len(badges[i].Code) < len(badges[j].Code)
		}
		return badges[i].Code < badges[j].Code
	})

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, b := range badges {
		n := p.nodes[b.Ref]
		s := goquery.NewDocumentFromNode(n).Selection
		matched, rest := hint.Label(b.Code, p.filter)
		mark := " "
		switch {
		case b.Priority:
			mark = "*"
		case b.Field:
			mark = "+"
		}
		target := p.resolve(s.AttrOr("href", ""))
		if target == "" {
			target = "<" + goquery.NodeName(s) + ">"
		}
		fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s\n", matched, rest, mark, truncate(strings.Join(strings.Fields(s.Text()), " "), 50), target)
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
