package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

const (
	defaultTimeout   = 15 * time.Second
	maxBodySize      = 10 * 1024 * 1024 // 10 MB
	maxRedirects     = 10
	DefaultUserAgent = "framesurf/0.1 (terminal browser; +https://github.com/vidyasagar/framesurf)"
)

var (
	// ErrEmptyBody is returned when the upstream answered with no content.
	ErrEmptyBody = errors.New("empty response body")
	// ErrUnsupportedContent is returned for binary payloads such as images.
	ErrUnsupportedContent = errors.New("unsupported content type")
)

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error %d", e.Code)
}

// SharedTransport is a tuned HTTP transport shared across all clients.
var SharedTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ResponseHeaderTimeout: 15 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
}

// Page holds an upstream response decoded to UTF-8 text.
type Page struct {
	URL         string
	FinalURL    string // after redirects
	StatusCode  int
	ContentType string
	Body        string
	Duration    time.Duration
}

// Options configures Direct and Remote fetchers.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	RetryMax  int
	Logger    *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.RetryMax < 0 {
		o.RetryMax = 0
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Direct fetches pages straight from the origin with retries. It is the
// in-process gateway and the engine behind the gateway service.
type Direct struct {
	client    *retryablehttp.Client
	userAgent string
	logger    *zap.Logger
}

// NewDirect creates a Direct fetcher using the shared transport.
func NewDirect(opts Options) *Direct {
	opts = opts.withDefaults()

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{
		Transport: SharedTransport,
		Timeout:   opts.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				// Same wording as net/http so the retry policy gives up on it.
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
	rc.RetryMax = opts.RetryMax
	rc.RetryWaitMin = 250 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = leveledLogger{opts.Logger.Named("retry").Sugar()}
	// Hand the last response back instead of a generic "giving up" error.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Direct{
		client:    rc,
		userAgent: opts.UserAgent,
		logger:    opts.Logger,
	}
}

// Fetch implements browser.Fetcher.
func (d *Direct) Fetch(ctx context.Context, rawURL string) (string, error) {
	page, err := d.FetchPage(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return page.Body, nil
}

// FetchPage retrieves rawURL and decodes its body to UTF-8.
func (d *Direct) FetchPage(ctx context.Context, rawURL string) (*Page, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrEmptyBody
	}

	contentType := resp.Header.Get("Content-Type")
	if !isText(contentType, raw) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContent, mimetype.Detect(raw).String())
	}

	body, err := decodeUTF8(raw, contentType)
	if err != nil {
		return nil, fmt.Errorf("decoding body: %w", err)
	}

	page := &Page{
		URL:         rawURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        body,
		Duration:    time.Since(start),
	}
	d.logger.Debug("fetched",
		zap.String("url", rawURL),
		zap.String("final_url", page.FinalURL),
		zap.Int("bytes", len(raw)),
		zap.Duration("took", page.Duration),
	)
	return page, nil
}

// isText trusts a textual Content-Type header and otherwise sniffs the body.
func isText(contentType string, body []byte) bool {
	ct := strings.ToLower(contentType)
	if strings.HasPrefix(ct, "text/") ||
		strings.Contains(ct, "html") ||
		strings.Contains(ct, "xml") ||
		strings.Contains(ct, "json") {
		return true
	}
	for m := mimetype.Detect(body); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func decodeUTF8(raw []byte, contentType string) (string, error) {
	r, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// leveledLogger adapts zap to retryablehttp.LeveledLogger.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
