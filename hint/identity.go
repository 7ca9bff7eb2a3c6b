package hint

import (
	"sort"
	"strings"
)

// maxKeyLen caps synthesized identity keys, in runes.
const maxKeyLen = 200

// Identity describes an element well enough to recognise it again on a later
// visit to the same site.
type Identity struct {
	URL     string   `json:"url,omitempty"`
	Tag     string   `json:"tag"`
	ID      string   `json:"id,omitempty"`
	Classes []string `json:"classes,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// Key returns the statistics key for the element. Elements with a URL are
// keyed by it. Others get tag:id:classes:text with classes sorted, so class
// attribute order does not matter.
func (id Identity) Key() string {
	if id.URL != "" {
		return id.URL
	}

	seen := make(map[string]bool, len(id.Classes))
	classes := make([]string, 0, len(id.Classes))
	for _, c := range id.Classes {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		classes = append(classes, c)
	}
	sort.Strings(classes)

	key := strings.ToLower(id.Tag) + ":" + id.ID + ":" + strings.Join(classes, " ") + ":" + strings.Join(strings.Fields(id.Text), " ")
	if r := []rune(key); len(r) > maxKeyLen {
		key = string(r[:maxKeyLen])
	}
	return key
}
