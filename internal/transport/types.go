package transport

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Options tunes a single fetch
type Options struct {
	// Timeout bounds the whole fetch, connect included.
	Timeout time.Duration

	// MaxBytes caps the response body size. Zero means no cap.
	MaxBytes int64

	// Accept is the requested response shape, sent as the Accept header.
	Accept string

	// ValidateStatus makes non-2xx responses an error.
	ValidateStatus bool
}

// Result is a fetched payload
type Result struct {
	StatusCode  int
	Headers     http.Header
	Body        []byte
	ContentType string
}

// Fetcher retrieves a byte payload for a URL. Callers must validate the URL
// syntactically before invoking Fetch; implementations do not re-validate.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, opts Options) (*Result, error)
}

// filenameOf extracts the final path component of an already-validated URL,
// used by the simulated fetcher to derive deterministic payloads.
func filenameOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "audio"
	}
	name := u.Path
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	if name == "" {
		return "audio"
	}
	return name
}
