package hint

import "sort"

// Kind selects which elements a surface should discover.
type Kind int

const (
	// Links are things that can be clicked: anchors with a target, buttons,
	// button-typed inputs and role=button elements.
	Links Kind = iota
	// Fields are form controls shown alongside link hints.
	Fields
	// FormFields are the form controls of form-hint mode, which also
	// includes submit buttons.
	FormFields
)

func (k Kind) String() string {
	switch k {
	case Links:
		return "links"
	case Fields:
		return "fields"
	case FormFields:
		return "form-fields"
	}
	return "unknown"
}

// Selector returns the CSS selector used to find elements of this kind.
func (k Kind) Selector() string {
	switch k {
	case Links:
		return `a[href], button, input[type="button"], input[type="submit"], [role="button"]`
	case Fields:
		return `input:not([type="hidden"]):not([type="submit"]):not([type="button"]), textarea, select`
	case FormFields:
		return `input:not([type="hidden"]):not([type="submit"]):not([type="button"]), textarea, select, button[type="submit"]`
	}
	return ""
}

// DefaultPrioritySelectors match navigation landmarks.
var DefaultPrioritySelectors = []string{
	"nav a",
	"header a",
	`[role="navigation"] a`,
	".menu a",
	".nav a",
}

// DefaultClickThreshold is the click count above which an element is
// treated as priority.
const DefaultClickThreshold = 2

// Query tells a surface what to discover.
type Query struct {
	Kind              Kind
	PrioritySelectors []string
}

// Rect is an element's bounding box in viewport coordinates.
type Rect struct {
	X, Y, Width, Height float64
}

// Empty reports whether the rect has zero area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Element is a discovered interactive element. The engine only references
// it; the surface owns the underlying node.
type Element struct {
	Ref        string
	Rect       Rect
	Visible    bool
	Landmark   bool // matches a priority selector
	InViewport bool
	TextLike   bool // input or textarea whose text can be selected
	Identity   Identity
}

// Eligible reports whether the element can receive a hint.
func (e Element) Eligible() bool {
	return e.Visible && !e.Rect.Empty()
}

// Bucket is a classification tier. Lower buckets are assigned first.
type Bucket int

const (
	Priority Bucket = iota
	Viewport
	Other
)

func (b Bucket) String() string {
	switch b {
	case Priority:
		return "priority"
	case Viewport:
		return "viewport"
	}
	return "other"
}

// Candidate is an eligible element with its ranking data.
type Candidate struct {
	Element
	Bucket Bucket
	Clicks int
}

// Counter returns historical click counts by identity key.
type Counter func(key string) int

// Classify drops ineligible elements, buckets the rest and returns them in
// assignment order: priority, then in-viewport, then other. Each bucket is
// stably sorted by descending click count.
func Classify(elements []Element, clicks Counter, threshold int) []Candidate {
	var buckets [3][]Candidate
	for _, el := range elements {
		if !el.Eligible() {
			continue
		}
		c := Candidate{Element: el}
		if clicks != nil {
			c.Clicks = clicks(el.Identity.Key())
		}
		switch {
		case el.Landmark || c.Clicks > threshold:
			c.Bucket = Priority
		case el.InViewport:
			c.Bucket = Viewport
		default:
			c.Bucket = Other
		}
		buckets[c.Bucket] = append(buckets[c.Bucket], c)
	}

	ordered := make([]Candidate, 0, len(buckets[0])+len(buckets[1])+len(buckets[2]))
	for _, b := range buckets {
		sort.SliceStable(b, func(i, j int) bool { return b[i].Clicks > b[j].Clicks })
		ordered = append(ordered, b...)
	}
	return ordered
}

// Eligible filters elements down to those that can receive hints, keeping
// discovery order.
func Eligible(elements []Element) []Candidate {
	var out []Candidate
	for _, el := range elements {
		if el.Eligible() {
			out = append(out, Candidate{Element: el, Bucket: Other})
		}
	}
	return out
}

// Assignment pairs a code with the candidate it selects.
type Assignment struct {
	Code      string
	Candidate Candidate
}

// Assign gives each candidate a code, drawing indices from start upward.
func Assign(candidates []Candidate, start int) []Assignment {
	out := make([]Assignment, len(candidates))
	for i, c := range candidates {
		out[i] = Assignment{Code: Code(start + i), Candidate: c}
	}
	return out
}
