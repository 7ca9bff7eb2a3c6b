package hint

import "context"

// Badge is an on-screen hint label.
type Badge struct {
	Code     string
	Ref      string
	X, Y     float64 // viewport top-left of the element
	Priority bool
	Field    bool
}

// Surface is the page the engine works against: it finds elements, draws
// badges and performs the activation side effects.
type Surface interface {
	// Hostname of the current page, used to scope click statistics.
	Hostname(ctx context.Context) (string, error)
	Discover(ctx context.Context, q Query) ([]Element, error)

	ShowBadges(ctx context.Context, badges []Badge) error
	// FilterBadges hides badges whose code does not start with prefix and
	// re-renders the rest with the prefix underlined. An empty prefix shows
	// every badge unfiltered.
	FilterBadges(ctx context.Context, prefix string) error
	ClearBadges(ctx context.Context) error

	Click(ctx context.Context, ref string) error
	// Focus focuses the element, scrolls it to the middle of the viewport
	// and selects its text when selectText is set.
	Focus(ctx context.Context, ref string, selectText bool) error

	// ActiveEditable reports whether keyboard focus is inside an editable
	// field.
	ActiveEditable(ctx context.Context) (bool, error)
	// SubmitActiveForm submits the form enclosing the focused element, or
	// clicks the first visible submit control. It returns false when there
	// was nothing to submit.
	SubmitActiveForm(ctx context.Context) (bool, error)
}
