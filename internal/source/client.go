package source

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
	"go.uber.org/zap"

	"cdcetl/internal/logging"
	"cdcetl/internal/parser"
	csvparser "cdcetl/internal/parser/csv"
	"cdcetl/internal/schema"
	"cdcetl/pkg/records"
)

// Config configures the data source client.
//
// Zero values are given sensible defaults:
//   - Timeout:   30s
//   - Retries:   3 (total attempts per page)
//   - RetryWait: 2s (fixed delay between attempts)
type Config struct {
	// BaseURL is a URL template containing {limit} and {offset} placeholders.
	BaseURL string

	// Timeout is the per-request timeout applied at the http.Client level.
	Timeout time.Duration

	// Retries is the total number of attempts made for one page before the
	// fetch is reported as failed. Each attempt covers both the HTTP request
	// and the CSV parse of its payload.
	Retries int

	// RetryWait is the fixed delay between attempts.
	RetryWait time.Duration

	// Transport is an optional custom RoundTripper, injectable for tests.
	Transport http.RoundTripper
}

// Client fetches CSV pages from the remote endpoint.
type Client struct {
	cfg    Config
	getter *httpGetter
	parser parser.Parser

	// sleep is injectable to make retry tests fast and deterministic. When
	// nil, a context-aware timer sleep is used.
	sleep func(time.Duration)
}

// New constructs a Client from Config, applying defaults for zero values.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = 2 * time.Second
	}
	return &Client{
		cfg:    cfg,
		getter: newHTTPGetter(cfg.Timeout, cfg.Transport),
		parser: csvparser.NewParser(csvparser.Options{TrimSpace: true}),
	}
}

// pageURL renders the URL template for one bounded request.
func (c *Client) pageURL(limit, offset int) string {
	url := strings.ReplaceAll(c.cfg.BaseURL, "{limit}", strconv.Itoa(limit))
	return strings.ReplaceAll(url, "{offset}", strconv.Itoa(offset))
}

// FetchPage performs one bounded request for limit rows starting at offset.
// Transport, status, and parse failures are all retried up to the configured
// attempt count with a fixed delay between attempts; when the budget is
// exhausted the last error is returned. An empty batch is a genuine
// end-of-data signal, never a masked failure.
func (c *Client) FetchPage(ctx context.Context, limit, offset int) ([]records.Record, error) {
	url := c.pageURL(limit, offset)

	var lastErr error
	for attempt := 1; attempt <= c.cfg.Retries; attempt++ {
		batch, err := c.fetchOnce(ctx, url, offset)
		if err == nil {
			return batch, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		logging.L.Error("fetch attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("offset", offset),
			zap.Error(err))
		if attempt < c.cfg.Retries {
			logging.L.Warn("retrying fetch",
				zap.Int("attempt", attempt),
				zap.Duration("wait", c.cfg.RetryWait))
			if werr := c.wait(ctx, c.cfg.RetryWait); werr != nil {
				return nil, werr
			}
		}
	}
	return nil, fmt.Errorf("source: fetch offset %d failed after %d attempts: %w",
		offset, c.cfg.Retries, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, url string, offset int) ([]records.Record, error) {
	body, err := c.getter.get(ctx, url)
	if err != nil {
		return nil, err
	}

	batch, err := c.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	logging.L.Info("fetched page",
		zap.Int("rows", len(batch)),
		zap.Int("offset", offset),
		zap.Uint64("payload_xxh3", xxh3.Hash(body)))
	return batch, nil
}

// wait blocks for d or until ctx is canceled, whichever comes first.
func (c *Client) wait(ctx context.Context, d time.Duration) error {
	if c.sleep != nil {
		c.sleep(d)
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// dateLayouts are the accepted calendar-date formats for the date column.
// The upstream publishes case_month as YYYY-MM; full dates and timestamped
// variants appear in older extracts.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01",
	"2006-01-02T15:04:05",
}

// ParseCaseDate parses the date column's string form. The second return is
// false for blank or unparsable values.
func ParseCaseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// inDateRange reports whether the record's date column falls inside the
// inclusive [start, end] range. Records whose date is blank or unparsable are
// excluded whenever a range is active.
func inDateRange(rec records.Record, start, end *time.Time) bool {
	s, _ := rec.String(schema.DateColumn)
	t, ok := ParseCaseDate(s)
	if !ok {
		return false
	}
	if start != nil && t.Before(*start) {
		return false
	}
	if end != nil && t.After(*end) {
		return false
	}
	return true
}
