package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPFetcher is the real network Fetcher
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher backed by a shared http.Client. Per-fetch
// timeouts come from Options, not the client.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{},
	}
}

// Fetch downloads the payload at rawURL, honoring the caller's timeout and
// size cap. Transport failures, timeouts, oversized bodies, and (when
// enabled) non-2xx statuses are returned as errors with no retry handling;
// retries are the executor's concern.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string, opts Options) (*Result, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if opts.Accept != "" {
		req.Header.Set("Accept", opts.Accept)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s failed after %v: %w", rawURL, time.Since(start).Round(time.Millisecond), err)
	}
	defer resp.Body.Close()

	if opts.ValidateStatus && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	reader := io.Reader(resp.Body)
	if opts.MaxBytes > 0 {
		// Read one extra byte so an exactly-at-limit body is distinguishable
		// from an oversized one.
		reader = io.LimitReader(resp.Body, opts.MaxBytes+1)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: failed to read body: %w", rawURL, err)
	}
	if opts.MaxBytes > 0 && int64(len(body)) > opts.MaxBytes {
		return nil, fmt.Errorf("fetch %s: payload exceeds %d byte limit", rawURL, opts.MaxBytes)
	}

	return &Result{
		StatusCode:  resp.StatusCode,
		Headers:     resp.Header,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
