package hint

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Mode is the engine's top-level state.
type Mode int

const (
	Idle Mode = iota
	LinkHints
	FormHints
)

func (m Mode) String() string {
	switch m {
	case LinkHints:
		return "link-hints"
	case FormHints:
		return "form-hints"
	}
	return "idle"
}

// DefaultDelay is how long an exact match waits for further keystrokes
// before it is activated.
const DefaultDelay = 500 * time.Millisecond

// Stats serves and records historical click counts.
type Stats interface {
	Count(host, key string) int
	Record(ctx context.Context, host, key string) error
}

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock schedules delayed callbacks.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Activation describes a completed hint selection.
type Activation struct {
	SessionID string
	Code      string
	Candidate Candidate
	Field     bool
	Err       error
}

// Options configures an Engine.
type Options struct {
	LinkTrigger       rune
	FormTrigger       rune
	Delay             time.Duration
	ClickThreshold    int
	PrioritySelectors []string

	Clock  Clock
	Logger *slog.Logger
	// OnActivate, if set, is called after every activation. It runs with
	// the engine locked and must not call back into the engine.
	OnActivate func(Activation)
}

// DefaultOptions returns the stock key bindings and timings.
func DefaultOptions() Options {
	return Options{
		LinkTrigger:       ';',
		FormTrigger:       ',',
		Delay:             DefaultDelay,
		ClickThreshold:    DefaultClickThreshold,
		PrioritySelectors: DefaultPrioritySelectors,
	}
}

// Session is the state of one hinting interaction, from trigger key until
// dismissal or activation.
type Session struct {
	ID   string
	Mode Mode
	Host string

	Links  map[string]Candidate
	Fields map[string]Candidate
	// fieldCodes holds field codes in assignment order for Tab cycling.
	fieldCodes []string

	// Filter is what the badges are currently filtered by; Sequence is
	// what gets matched against codes.
	Filter     string
	Sequence   string
	FieldIndex int

	pending Timer
}

func (s *Session) lookup(code string) (Candidate, bool, bool) {
	if c, ok := s.Links[code]; ok {
		return c, false, true
	}
	if c, ok := s.Fields[code]; ok {
		return c, true, true
	}
	return Candidate{}, false, false
}

// extended reports whether some code other than seq starts with seq.
func (s *Session) extended(seq string) bool {
	for code := range s.Links {
		if code != seq && strings.HasPrefix(code, seq) {
			return true
		}
	}
	for code := range s.Fields {
		if code != seq && strings.HasPrefix(code, seq) {
			return true
		}
	}
	return false
}

func (s *Session) cancel() {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

// Engine is the per-page hint state machine. Create one per page load.
type Engine struct {
	mu      sync.Mutex
	surface Surface
	stats   Stats
	opts    Options
	clock   Clock
	logger  *slog.Logger

	session *Session
	// gen invalidates timers that fired after being superseded.
	gen uint64
}

// New creates an engine for one page. stats may be nil.
func New(surface Surface, stats Stats, opts Options) *Engine {
	def := DefaultOptions()
	if opts.LinkTrigger == 0 {
		opts.LinkTrigger = def.LinkTrigger
	}
	if opts.FormTrigger == 0 {
		opts.FormTrigger = def.FormTrigger
	}
	if opts.Delay <= 0 {
		opts.Delay = def.Delay
	}
	if opts.PrioritySelectors == nil {
		opts.PrioritySelectors = def.PrioritySelectors
	}
	clock := opts.Clock
	if clock == nil {
		clock = systemClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		surface: surface,
		stats:   stats,
		opts:    opts,
		clock:   clock,
		logger:  logger,
	}
}

// Mode returns the current state.
func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return Idle
	}
	return e.session.Mode
}

// Input returns the keystrokes typed so far in the active session.
func (e *Engine) Input() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return ""
	}
	return e.session.Filter
}

// Pending reports whether an activation is scheduled.
func (e *Engine) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session != nil && e.session.pending != nil
}

// HandleKey feeds one keydown to the engine. It reports whether the key was
// consumed; unconsumed keys belong to the page.
func (e *Engine) HandleKey(ctx context.Context, k Key) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if k.Ctrl && k.Name == KeyEnter {
		if e.editable(ctx) {
			return true, e.submit(ctx)
		}
		return false, nil
	}

	s := e.session
	if s == nil {
		if e.editable(ctx) {
			return false, nil
		}
		if k.Name != KeyRune || k.Ctrl {
			return false, nil
		}
		switch k.Rune {
		case e.opts.LinkTrigger:
			return true, e.startLinks(ctx)
		case e.opts.FormTrigger:
			return true, e.startForms(ctx)
		}
		return false, nil
	}

	switch {
	case k.Name == KeyEscape:
		e.end(ctx)
		return true, nil
	case k.Name == KeyTab && !k.Shift && s.Mode == FormHints:
		return true, e.focusNext(ctx, s)
	case k.Name == KeyBackspace:
		return true, e.backspace(ctx, s)
	}
	if c, ok := k.Letter(); ok {
		return true, e.typeLetter(ctx, s, c)
	}
	return false, nil
}

// Close ends any active session, e.g. when the page unloads.
func (e *Engine) Close(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		e.end(ctx)
	}
}

func (e *Engine) editable(ctx context.Context) bool {
	ok, err := e.surface.ActiveEditable(ctx)
	if err != nil {
		e.logger.Debug("hint: active element check failed", "error", err)
		return false
	}
	return ok
}

func (e *Engine) submit(ctx context.Context) error {
	ok, err := e.surface.SubmitActiveForm(ctx)
	if err != nil {
		return fmt.Errorf("submitting form: %w", err)
	}
	if !ok {
		e.logger.Debug("hint: nothing to submit")
	}
	return nil
}

func (e *Engine) counter(host string) Counter {
	if e.stats == nil {
		return nil
	}
	return func(key string) int { return e.stats.Count(host, key) }
}

func (e *Engine) hostname(ctx context.Context) string {
	host, err := e.surface.Hostname(ctx)
	if err != nil {
		e.logger.Debug("hint: hostname lookup failed", "error", err)
	}
	return host
}

func (e *Engine) startLinks(ctx context.Context) error {
	host := e.hostname(ctx)

	links, err := e.surface.Discover(ctx, Query{Kind: Links, PrioritySelectors: e.opts.PrioritySelectors})
	if err != nil {
		return fmt.Errorf("discovering links: %w", err)
	}
	fields, err := e.surface.Discover(ctx, Query{Kind: Fields})
	if err != nil {
		return fmt.Errorf("discovering fields: %w", err)
	}

	ordered := Classify(links, e.counter(host), e.opts.ClickThreshold)
	linkCodes := Assign(ordered, 0)
	// Field codes continue after the links so both sets can share the
	// screen without colliding.
	fieldCodes := Assign(Eligible(fields), len(ordered))
	if len(linkCodes)+len(fieldCodes) == 0 {
		e.logger.Debug("hint: no candidates", "host", host)
		return nil
	}

	return e.begin(ctx, LinkHints, host, linkCodes, fieldCodes)
}

func (e *Engine) startForms(ctx context.Context) error {
	fields, err := e.surface.Discover(ctx, Query{Kind: FormFields})
	if err != nil {
		return fmt.Errorf("discovering form fields: %w", err)
	}
	fieldCodes := Assign(Eligible(fields), 0)
	if len(fieldCodes) == 0 {
		return nil
	}

	if err := e.begin(ctx, FormHints, e.hostname(ctx), nil, fieldCodes); err != nil {
		return err
	}
	first := fieldCodes[0].Candidate
	if err := e.surface.Focus(ctx, first.Ref, false); err != nil {
		return fmt.Errorf("focusing first field: %w", err)
	}
	return nil
}

func (e *Engine) begin(ctx context.Context, mode Mode, host string, links, fields []Assignment) error {
	s := &Session{
		ID:     uuid.New().String(),
		Mode:   mode,
		Host:   host,
		Links:  make(map[string]Candidate, len(links)),
		Fields: make(map[string]Candidate, len(fields)),
	}

	badges := make([]Badge, 0, len(links)+len(fields))
	for _, a := range links {
		s.Links[a.Code] = a.Candidate
		badges = append(badges, badgeFor(a, false))
	}
	for _, a := range fields {
		s.Fields[a.Code] = a.Candidate
		s.fieldCodes = append(s.fieldCodes, a.Code)
		badges = append(badges, badgeFor(a, true))
	}

	if err := e.surface.ShowBadges(ctx, badges); err != nil {
		e.surface.ClearBadges(ctx)
		return fmt.Errorf("showing badges: %w", err)
	}
	e.session = s
	e.logger.Debug("hint: session started", "session", s.ID, "mode", mode, "host", host,
		"links", len(links), "fields", len(fields))
	return nil
}

func badgeFor(a Assignment, field bool) Badge {
	return Badge{
		Code:     a.Code,
		Ref:      a.Candidate.Ref,
		X:        a.Candidate.Rect.X,
		Y:        a.Candidate.Rect.Y,
		Priority: !field && a.Candidate.Bucket == Priority,
		Field:    field,
	}
}

// end returns to idle, dropping badges and any pending activation.
func (e *Engine) end(ctx context.Context) {
	s := e.session
	if s == nil {
		return
	}
	s.cancel()
	e.gen++
	e.session = nil
	if err := e.surface.ClearBadges(ctx); err != nil {
		e.logger.Debug("hint: clearing badges failed", "session", s.ID, "error", err)
	}
	e.logger.Debug("hint: session ended", "session", s.ID)
}

func (e *Engine) typeLetter(ctx context.Context, s *Session, c byte) error {
	s.cancel()
	s.Filter += string(c)
	s.Sequence += string(c)

	if err := e.surface.FilterBadges(ctx, s.Filter); err != nil {
		return fmt.Errorf("filtering badges: %w", err)
	}

	if _, _, ok := s.lookup(s.Sequence); ok {
		// Exact match. Wait in case the user is still typing toward a
		// longer code; any further key cancels this.
		e.schedule(ctx, s, s.Sequence)
		return nil
	}
	if !s.extended(s.Sequence) {
		s.Filter = ""
		s.Sequence = ""
		if err := e.surface.FilterBadges(ctx, ""); err != nil {
			return fmt.Errorf("resetting badges: %w", err)
		}
	}
	return nil
}

func (e *Engine) backspace(ctx context.Context, s *Session) error {
	s.cancel()
	s.Filter = trimLast(s.Filter)
	s.Sequence = trimLast(s.Sequence)

	if s.Filter == "" {
		e.end(ctx)
		return nil
	}
	if err := e.surface.FilterBadges(ctx, s.Filter); err != nil {
		return fmt.Errorf("filtering badges: %w", err)
	}
	return nil
}

func trimLast(s string) string {
	if s == "" {
		return s
	}
	return s[:len(s)-1]
}

func (e *Engine) schedule(ctx context.Context, s *Session, code string) {
	e.gen++
	gen := e.gen
	s.pending = e.clock.AfterFunc(e.opts.Delay, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.session != s || e.gen != gen {
			return
		}
		s.pending = nil
		if err := e.activate(ctx, s, code); err != nil {
			e.logger.Warn("hint: activation failed", "session", s.ID, "code", code, "error", err)
		}
	})
}

func (e *Engine) activate(ctx context.Context, s *Session, code string) error {
	c, field, ok := s.lookup(code)
	if !ok {
		return nil
	}

	var err error
	if field {
		err = e.activateField(ctx, s, code, c)
	} else {
		err = e.activateLink(ctx, s, c)
	}

	e.logger.Info("hint: activated", "session", s.ID, "code", code, "field", field, "key", c.Identity.Key())
	if e.opts.OnActivate != nil {
		e.opts.OnActivate(Activation{SessionID: s.ID, Code: code, Candidate: c, Field: field, Err: err})
	}
	return err
}

func (e *Engine) activateLink(ctx context.Context, s *Session, c Candidate) error {
	if e.stats != nil {
		if err := e.stats.Record(ctx, s.Host, c.Identity.Key()); err != nil {
			e.logger.Warn("hint: recording click failed", "session", s.ID, "error", err)
		}
	}
	err := e.surface.Click(ctx, c.Ref)
	e.end(ctx)
	if err != nil {
		return fmt.Errorf("clicking %s: %w", c.Ref, err)
	}
	return nil
}

func (e *Engine) activateField(ctx context.Context, s *Session, code string, c Candidate) error {
	err := e.surface.Focus(ctx, c.Ref, c.TextLike)
	if s.Mode == LinkHints {
		e.end(ctx)
	} else {
		// Form mode stays up so Tab keeps cycling from the chosen field.
		for i, fc := range s.fieldCodes {
			if fc == code {
				s.FieldIndex = i
				break
			}
		}
		s.Filter = ""
		s.Sequence = ""
		if ferr := e.surface.FilterBadges(ctx, ""); ferr != nil && err == nil {
			err = ferr
		}
	}
	if err != nil {
		return fmt.Errorf("focusing %s: %w", c.Ref, err)
	}
	return nil
}

func (e *Engine) focusNext(ctx context.Context, s *Session) error {
	if len(s.fieldCodes) == 0 {
		return nil
	}
	s.FieldIndex = (s.FieldIndex + 1) % len(s.fieldCodes)
	c := s.Fields[s.fieldCodes[s.FieldIndex]]
	if err := e.surface.Focus(ctx, c.Ref, c.TextLike); err != nil {
		return fmt.Errorf("focusing %s: %w", c.Ref, err)
	}
	return nil
}
