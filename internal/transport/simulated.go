package transport

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Simulated is a Fetcher that performs no network I/O. It sleeps briefly so
// timing-dependent callers are exercised, then returns a deterministic
// payload derived from the URL's filename component.
type Simulated struct {
	// Delay is the artificial fetch latency. Zero gets the default.
	Delay time.Duration
}

const defaultSimulatedDelay = 50 * time.Millisecond

// NewSimulated creates a simulated fetcher with the default artificial delay
func NewSimulated() *Simulated {
	return &Simulated{Delay: defaultSimulatedDelay}
}

// Fetch returns the deterministic payload for rawURL
func (s *Simulated) Fetch(ctx context.Context, rawURL string, opts Options) (*Result, error) {
	delay := s.Delay
	if delay <= 0 {
		delay = defaultSimulatedDelay
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(delay):
	}

	filename := filenameOf(rawURL)
	contentType := opts.Accept
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var body []byte
	if strings.Contains(contentType, "json") {
		body = []byte(fmt.Sprintf(`{"file":%q,"payload":"simulated audio bytes"}`, filename))
	} else {
		body = []byte(fmt.Sprintf("simulated audio payload for %s", filename))
	}

	headers := make(http.Header)
	headers.Set("Content-Type", contentType)

	return &Result{
		StatusCode:  http.StatusOK,
		Headers:     headers,
		Body:        body,
		ContentType: contentType,
	}, nil
}
