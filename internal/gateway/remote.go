package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// HeaderFetchError marks a gateway response whose body is an error message
// rather than page content.
const HeaderFetchError = "X-Fetch-Error"

// RemoteError is a failure reported by a gateway service.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("gateway returned status %d", e.Status)
}

// Remote fetches pages through a gateway service exposing GET /fetch?url=.
type Remote struct {
	client *resty.Client
	logger *zap.Logger
}

// NewRemote creates a client for the gateway at endpoint, e.g. http://localhost:8090.
func NewRemote(endpoint string, opts Options) *Remote {
	opts = opts.withDefaults()

	client := resty.New().
		SetBaseURL(strings.TrimRight(endpoint, "/")).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryMax).
		SetRetryWaitTime(250*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", "text/html, text/plain;q=0.9")

	return &Remote{client: client, logger: opts.Logger}
}

// Fetch implements browser.Fetcher. The X-Fetch-Error header and non-2xx
// statuses both map to a RemoteError carrying the body verbatim.
func (r *Remote) Fetch(ctx context.Context, rawURL string) (string, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParam("url", rawURL).
		Get("/fetch")
	if err != nil {
		return "", fmt.Errorf("gateway request: %w", err)
	}

	body := resp.String()
	if resp.Header().Get(HeaderFetchError) != "" || resp.IsError() {
		r.logger.Debug("gateway reported failure",
			zap.String("url", rawURL),
			zap.Int("status", resp.StatusCode()),
			zap.String("request_id", resp.Header().Get(HeaderRequestID)),
		)
		return "", &RemoteError{Status: resp.StatusCode(), Message: strings.TrimSpace(body)}
	}
	return body, nil
}
