// Package omnibox turns what is typed at the new-tab prompt into a URL.
package omnibox

import (
	"net/url"
	"strings"
)

// Prefix is a search shortcut such as "wp cats".
type Prefix struct {
	Names   []string // Prefix names (e.g., "wp", "wiki", "wikipedia")
	URLFmt  string   // URL format with %s for the escaped query
	Display string
}

// DefaultPrefixes returns the built-in search prefixes.
func DefaultPrefixes() []Prefix {
	return []Prefix{
		{Names: []string{"ddg", "duckduckgo"}, URLFmt: "https://duckduckgo.com/?q=%s", Display: "DuckDuckGo"},
		{Names: []string{"wp", "wiki", "wikipedia"}, URLFmt: "https://en.wikipedia.org/w/index.php?search=%s", Display: "Wikipedia"},
		{Names: []string{"gh", "github"}, URLFmt: "https://github.com/search?q=%s", Display: "GitHub"},
		{Names: []string{"go", "pkg"}, URLFmt: "https://pkg.go.dev/search?q=%s", Display: "pkg.go.dev"},
		{Names: []string{"mdn"}, URLFmt: "https://developer.mozilla.org/en-US/search?q=%s", Display: "MDN Web Docs"},
	}
}

// Result is the parsed input.
type Result struct {
	URL      string
	IsSearch bool
	Provider string // set for searches
}

// Parser resolves omnibox input.
type Parser struct {
	prefixes      []Prefix
	defaultSearch string
}

// NewParser creates a parser with the default prefixes, searching
// DuckDuckGo for anything that is not a URL.
func NewParser() *Parser {
	return &Parser{
		prefixes:      DefaultPrefixes(),
		defaultSearch: "https://duckduckgo.com/?q=%s",
	}
}

// SetDefaultSearch sets the default search URL format.
func (p *Parser) SetDefaultSearch(urlFmt string) {
	p.defaultSearch = urlFmt
}

// Parse resolves input. Empty input gives an empty result.
func (p *Parser) Parse(input string) Result {
	input = strings.TrimSpace(input)
	if input == "" {
		return Result{}
	}

	if hasScheme(input) {
		return Result{URL: input}
	}

	if idx := strings.Index(input, " "); idx > 0 {
		prefix := strings.ToLower(input[:idx])
		query := strings.TrimSpace(input[idx+1:])
		if query != "" {
			for _, pfx := range p.prefixes {
				for _, name := range pfx.Names {
					if prefix == name {
						return Result{URL: format(pfx.URLFmt, query), IsSearch: true, Provider: pfx.Display}
					}
				}
			}
		}
	}

	if looksLikeURL(input) {
		return Result{URL: "https://" + input}
	}
	return Result{URL: format(p.defaultSearch, input), IsSearch: true, Provider: "Search"}
}

func format(urlFmt, query string) string {
	return strings.Replace(urlFmt, "%s", url.QueryEscape(query), 1)
}

func hasScheme(input string) bool {
	lower := strings.ToLower(input)
	for _, s := range []string{"http://", "https://", "file://", "about:", "chrome://"} {
		if strings.HasPrefix(lower, s) {
			return true
		}
	}
	return false
}

// looksLikeURL checks if input looks like a host, optionally with a path.
func looksLikeURL(input string) bool {
	if strings.Contains(input, " ") {
		return false
	}
	lower := strings.ToLower(input)
	if strings.HasPrefix(lower, "localhost") || strings.HasPrefix(lower, "127.") {
		return true
	}
	host, _, _ := strings.Cut(lower, "/")
	host, _, _ = strings.Cut(host, ":")
	dot := strings.LastIndex(host, ".")
	return dot > 0 && dot < len(host)-1
}
