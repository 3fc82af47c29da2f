package sheets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/subpulse/internal/catalog"
	"github.com/abelbrown/subpulse/internal/stats"
)

const userAgent = "subpulse/0.1 (https://github.com/abelbrown/subpulse)"

// Client retrieves stat and post rows from the spreadsheet backend.
//
// Requests are rate limited to stay friendly with the gviz endpoint.
// All fetch methods honor context cancellation.
type Client struct {
	doc      string
	http     *http.Client
	limiter  *rate.Limiter
	index    Registrar
	quantize bool
	baseURL  string // test override; empty means the real endpoint
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithoutQuantization disables the request-side decimation of wide
// windows, forcing full resolution regardless of span.
func WithoutQuantization() Option {
	return func(c *Client) { c.quantize = false }
}

// WithBaseURL redirects requests to an alternate endpoint. Tests point
// this at an httptest server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// NewClient creates a Client for the given spreadsheet document. Every
// parsed sample timestamp is registered with reg as a side effect of
// fetching; pass the dataset's time index.
func NewClient(doc string, reg Registrar, opts ...Option) *Client {
	if doc == "" {
		doc = DefaultDoc
	}
	c := &Client{
		doc:      doc,
		http:     &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(rate.Every(500*time.Millisecond), 2),
		index:    reg,
		quantize: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchScalar retrieves an aggregate metric over [from, to] seconds.
func (c *Client) FetchScalar(ctx context.Context, metric stats.Metric, from, to int64) (stats.ScalarRecord, error) {
	if !metric.Scalar() {
		return nil, fmt.Errorf("metric %s is not scalar", metric)
	}
	body, err := c.get(ctx, c.url(statsSheet, statsQuery(metric, from, to, c.quantize)))
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return parseScalar(body, c.index)
}

// FetchSeries retrieves a per-post metric over [from, to] seconds,
// along with the front-page ranks carried on the same rows.
func (c *Client) FetchSeries(ctx context.Context, metric stats.Metric, from, to int64) (stats.SeriesRecord, stats.RankTable, error) {
	if metric.Scalar() {
		return nil, nil, fmt.Errorf("metric %s is not per-post", metric)
	}
	body, err := c.get(ctx, c.url(statsSheet, statsQuery(metric, from, to, c.quantize)))
	if err != nil {
		return nil, nil, err
	}
	defer body.Close()
	return parseSeries(body, c.index)
}

// FetchPosts retrieves metadata for posts created in [from, to].
func (c *Client) FetchPosts(ctx context.Context, from, to int64) (map[string]catalog.Post, error) {
	body, err := c.get(ctx, c.url(postsSheet, postsQuery(from, to)))
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return parsePosts(body)
}

func (c *Client) url(sheet, query string) string {
	u := gvizURL(c.doc, sheet, query)
	if c.baseURL != "" {
		u = c.baseURL + u[len("https://docs.google.com"):]
	}
	return u
}

func (c *Client) get(ctx context.Context, url string) (io.ReadCloser, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sheet: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}
	return resp.Body, nil
}
