// Package source implements the remote CSV data source client: single-page
// fetches with bounded fixed-delay retry, and a forward-only chunk iterator
// over offset pagination.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// httpGetter fetches one URL and returns the response body. It performs no
// retries; the retry loop lives in Client.FetchPage so that payload parse
// failures are retried under the same budget as transport failures.
type httpGetter struct {
	client *http.Client
}

func newHTTPGetter(timeout time.Duration, transport http.RoundTripper) *httpGetter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpGetter{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// get issues one GET and reads the full body. Non-2xx statuses are returned
// as errors; callers treat every failure as retryable.
func (g *httpGetter) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("source: build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("source: request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("source: status %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("source: read body: %w", err)
	}
	return body, nil
}
