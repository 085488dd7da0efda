package browser

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Fetcher retrieves raw page markup through the fetch gateway.
// A returned error and a body starting with an error sentinel are both failures.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Phase is the lifecycle stage of the current view.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

// State is a snapshot of what the surface should display.
// Outside of loading, a non-empty URL has exactly one of Markup or Err.
type State struct {
	Phase  Phase
	URL    string
	Markup string // rewritten, display-ready
	Err    string
	Title  string
}

// Loading reports whether a navigation is in flight.
func (s State) Loading() bool { return s.Phase == PhaseLoading }

// Intent identifies which user action started a load.
type Intent int

const (
	IntentSubmit Intent = iota
	IntentClick
	IntentReload
	IntentBack
	IntentForward
)

func (i Intent) String() string {
	switch i {
	case IntentSubmit:
		return "submit"
	case IntentClick:
		return "click"
	case IntentReload:
		return "reload"
	case IntentBack:
		return "back"
	case IntentForward:
		return "forward"
	}
	return "unknown"
}

// pushesHistory is true for forward, user-chosen navigations. Replays never
// touch the stack.
func (i Intent) pushesHistory() bool {
	return i == IntentSubmit || i == IntentClick
}

// PayloadError is a fetch that succeeded at transport level but whose body
// is a gateway error sentinel.
type PayloadError struct {
	Body string
}

func (e *PayloadError) Error() string { return e.Body }

var errorSentinels = []string{"error:", "http error"}

// IsErrorPayload reports whether a gateway body is an error sentinel.
func IsErrorPayload(body string) bool {
	for _, p := range errorSentinels {
		if hasPrefixFold(body, p) {
			return true
		}
	}
	return false
}

// schemePrefix matches a leading RFC 3986 scheme and the character after it.
var schemePrefix = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:(.?)`)

// NormalizeURL trims raw and adds https:// when no scheme is present.
// ok is false for empty input.
func NormalizeURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if hasScheme(raw) {
		return raw, true
	}
	return "https://" + raw, true
}

// hasScheme reports whether raw starts with a scheme. "host:8080/x" is a
// host and port, not a scheme.
func hasScheme(raw string) bool {
	m := schemePrefix.FindStringSubmatch(raw)
	if m == nil {
		return false
	}
	next := m[1]
	return next == "" || next[0] < '0' || next[0] > '9'
}

// Load is a ticket for one navigation. Run it off the UI loop and hand the
// Result back to Controller.Complete.
type Load struct {
	Token  uint64
	URL    string
	Intent Intent

	fetcher Fetcher
}

// Result is the outcome of a Load. Err is set on failure; otherwise Markup
// holds the rewritten page.
type Result struct {
	Token    uint64
	URL      string
	Intent   Intent
	Markup   string
	Title    string
	Err      error
	Duration time.Duration
}

// Run fetches, classifies and rewrites the page. It does not touch
// controller state and is safe to call from any goroutine.
func (l *Load) Run(ctx context.Context) (r Result) {
	r = Result{Token: l.Token, URL: l.URL, Intent: l.Intent}
	start := time.Now()
	defer func() { r.Duration = time.Since(start) }()

	body, err := l.fetcher.Fetch(ctx, l.URL)
	switch {
	case err != nil:
		r.Err = err
		return r
	case IsErrorPayload(body):
		r.Err = &PayloadError{Body: body}
		return r
	}

	r.Markup = Rewrite(body, l.URL)
	r.Title, _ = ExtractTitle(body)
	return r
}

// Controller owns the navigation state and session history. All intents are
// serialized through it; the latest intent wins when loads race.
type Controller struct {
	mu      sync.Mutex
	fetcher Fetcher
	logger  *zap.Logger

	state   State
	history *History
	token   uint64
	settled bool // result for token already applied
}

// NewController creates an idle controller. A nil logger disables logging.
func NewController(f Fetcher, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		fetcher: f,
		logger:  logger,
		history: NewHistory(),
	}
}

// State returns a snapshot of the current view state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// History returns a copy of the session history and its cursor.
func (c *Controller) History() ([]HistoryEntry, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Entries(), c.history.Cursor()
}

// CanGoBack reports whether Back would start a load.
func (c *Controller) CanGoBack() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.CanGoBack()
}

// CanGoForward reports whether Forward would start a load.
func (c *Controller) CanGoForward() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.CanGoForward()
}

// Submit navigates to user-typed input. Empty input is a no-op.
func (c *Controller) Submit(raw string) (*Load, bool) {
	u, ok := NormalizeURL(raw)
	if !ok {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.begin(u, IntentSubmit), true
}

// ClickLink navigates to a link destination recovered from the document.
func (c *Controller) ClickLink(href string) (*Load, bool) {
	u, ok := NormalizeURL(href)
	if !ok {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.begin(u, IntentClick), true
}

// Reload refetches the current URL without touching history.
func (c *Controller) Reload() (*Load, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.URL == "" {
		return nil, false
	}
	return c.begin(c.state.URL, IntentReload), true
}

// Back replays the previous history entry.
func (c *Controller) Back() (*Load, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.history.Back()
	if !ok {
		return nil, false
	}
	return c.begin(e.URL, IntentBack), true
}

// Forward replays the next history entry.
func (c *Controller) Forward() (*Load, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.history.Forward()
	if !ok {
		return nil, false
	}
	return c.begin(e.URL, IntentForward), true
}

// Clear resets the view to idle. History is kept and any in-flight load is
// superseded.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token++
	c.settled = true
	c.state = State{Phase: PhaseIdle}
}

// begin must be called with c.mu held.
func (c *Controller) begin(u string, intent Intent) *Load {
	c.token++
	c.settled = false
	c.state.Phase = PhaseLoading
	c.state.URL = u
	c.state.Err = ""

	c.logger.Debug("navigation started",
		zap.String("url", u),
		zap.Stringer("intent", intent),
		zap.Uint64("token", c.token),
	)
	return &Load{Token: c.token, URL: u, Intent: intent, fetcher: c.fetcher}
}

// Complete applies r if it belongs to the latest intent. It reports whether
// the state changed; stale results are dropped.
func (c *Controller) Complete(r Result) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r.Token != c.token || c.settled {
		c.logger.Debug("dropping stale result",
			zap.String("url", r.URL),
			zap.Uint64("token", r.Token),
			zap.Uint64("latest", c.token),
		)
		return false
	}
	c.settled = true

	if r.Err != nil {
		msg := r.Err.Error()
		if msg == "" {
			msg = "fetch failed"
		}
		c.state = State{Phase: PhaseFailed, URL: r.URL, Err: msg}
		c.logger.Info("navigation failed",
			zap.String("url", r.URL),
			zap.Stringer("intent", r.Intent),
			zap.Error(r.Err),
		)
		return true
	}

	c.state = State{Phase: PhaseLoaded, URL: r.URL, Markup: r.Markup, Title: r.Title}
	if r.Intent.pushesHistory() {
		c.history.Push(HistoryEntry{URL: r.URL, Title: r.Title})
	}
	c.logger.Info("navigation loaded",
		zap.String("url", r.URL),
		zap.Stringer("intent", r.Intent),
		zap.Duration("took", r.Duration),
	)
	return true
}

// Navigate runs load synchronously and applies its result.
func (c *Controller) Navigate(ctx context.Context, load *Load) bool {
	return c.Complete(load.Run(ctx))
}
