// Package jma fetches the daily hypocenter listing pages published by the
// Japan Meteorological Agency and extracts their preformatted text.
package jma

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/quake-catalog/internal/observability"
)

// defaultMaxPageBytes caps the response body read from the listing endpoint.
const defaultMaxPageBytes = 16 << 20

// Page is a fetched listing page before extraction.
type Page struct {
	URL         string
	ContentType string
	Body        []byte
}

// Client downloads daily listing pages. Failed requests are not retried.
type Client struct {
	baseURL      string
	userAgent    string
	maxPageBytes int64
	httpClient   *http.Client
	clock        clockwork.Clock
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// ClientOption configures optional Client behavior.
type ClientOption func(*Client)

// WithClientClock overrides the clock used for request durations.
func WithClientClock(clk clockwork.Clock) ClientOption {
	return func(c *Client) { c.clock = clk }
}

// WithMaxPageBytes overrides the largest page body Fetch accepts.
func WithMaxPageBytes(n int64) ClientOption {
	return func(c *Client) { c.maxPageBytes = n }
}

// NewClient creates a listing client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, userAgent string, logger *slog.Logger, metrics *observability.Metrics, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		userAgent:    userAgent,
		maxPageBytes: defaultMaxPageBytes,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		clock:   clockwork.NewRealClock(),
		logger:  logger,
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the listing page address for date.
func (c *Client) URL(date time.Time) string {
	return fmt.Sprintf("%s/%s.html", c.baseURL, date.Format("20060102"))
}

// Fetch downloads the listing page for date.
func (c *Client) Fetch(ctx context.Context, date time.Time) (Page, error) {
	u := c.URL(date)
	start := c.clock.Now()
	page, err := c.doRequest(ctx, u)
	c.metrics.FetchDuration.Observe(c.clock.Since(start).Seconds())
	if err != nil {
		c.metrics.ListingsFetched.WithLabelValues("error").Inc()
		return Page{}, fmt.Errorf("fetch listing %s: %w", date.Format("20060102"), err)
	}
	c.metrics.ListingsFetched.WithLabelValues("success").Inc()
	c.logger.Debug("listing fetched", "url", u, "bytes", len(page.Body), "content_type", page.ContentType)
	return page, nil
}

func (c *Client) doRequest(ctx context.Context, u string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Page{}, fmt.Errorf("create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Page{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Page{}, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxPageBytes+1))
	if err != nil {
		return Page{}, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > c.maxPageBytes {
		return Page{}, fmt.Errorf("page exceeds %d bytes", c.maxPageBytes)
	}
	return Page{URL: u, ContentType: resp.Header.Get("Content-Type"), Body: body}, nil
}
