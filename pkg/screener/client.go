// Package screener provides a client for the company fundamentals provider API.
package screener

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// ErrNotFound is returned when the provider has no payload for a company.
var ErrNotFound = eris.New("screener: company not found")

// Client defines the provider operations the ingest pipeline consumes.
type Client interface {
	// CompanyIDs lists every company id the provider serves.
	CompanyIDs(ctx context.Context) ([]string, error)
	// FetchCompany returns the raw JSON payload for one company.
	FetchCompany(ctx context.Context, id string) ([]byte, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets the provider base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) { c.baseURL = url }
}

// WithAPIKey sends key as a bearer token.
func WithAPIKey(key string) Option {
	return func(c *httpClient) { c.apiKey = key }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) { c.userAgent = ua }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) { c.timeout = d }
}

// WithRetries sets how many times a failed request is retried and the
// initial wait between attempts.
func WithRetries(n int, wait time.Duration) Option {
	return func(c *httpClient) {
		c.retries = n
		c.retryWait = wait
	}
}

// WithRateLimiter throttles every request through l.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *httpClient) { c.limiter = l }
}

// WithPaths sets the id listing path and the company path. The company path
// must contain "{id}".
func WithPaths(idsPath, companyPath string) Option {
	return func(c *httpClient) {
		c.idsPath = idsPath
		c.companyPath = companyPath
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	baseURL     string
	apiKey      string
	userAgent   string
	idsPath     string
	companyPath string
	timeout     time.Duration
	retries     int
	retryWait   time.Duration
	limiter     *rate.Limiter
	http        *http.Client
	rc          *resty.Client
}

// NewClient creates a provider client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		userAgent:   "fundamentals-cli/1.0",
		idsPath:     "/companies",
		companyPath: "/companies/{id}",
		timeout:     30 * time.Second,
		retries:     3,
		retryWait:   500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.http != nil {
		c.rc = resty.NewWithClient(c.http)
	} else {
		c.rc = resty.New()
	}
	c.rc.SetBaseURL(strings.TrimRight(c.baseURL, "/")).
		SetTimeout(c.timeout).
		SetRetryCount(c.retries).
		SetRetryWaitTime(c.retryWait).
		SetRetryMaxWaitTime(10 * c.retryWait).
		SetHeader("User-Agent", c.userAgent).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			code := resp.StatusCode()
			return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
		})
	if c.apiKey != "" {
		c.rc.SetAuthToken(c.apiKey)
	}
	return c
}

func (c *httpClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *httpClient) CompanyIDs(ctx context.Context) ([]string, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "screener: rate limit wait")
	}

	resp, err := c.rc.R().SetContext(ctx).Get(c.idsPath)
	if err != nil {
		return nil, eris.Wrap(err, "screener: list companies")
	}
	if resp.IsError() {
		return nil, eris.Errorf("screener: list companies: status %d: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}

	var doc any
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return nil, eris.Wrap(err, "screener: decode company list")
	}
	return parseIDs(doc)
}

func (c *httpClient) FetchCompany(ctx context.Context, id string) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "screener: rate limit wait")
	}

	resp, err := c.rc.R().SetContext(ctx).SetPathParam("id", id).Get(c.companyPath)
	if err != nil {
		return nil, eris.Wrapf(err, "screener: fetch %s", id)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, eris.Wrapf(ErrNotFound, "company %s", id)
	}
	if resp.IsError() {
		return nil, eris.Errorf("screener: fetch %s: status %d: %s", id, resp.StatusCode(), truncate(resp.String(), 200))
	}

	body := bytes.TrimSpace(resp.Body())
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, eris.Wrapf(ErrNotFound, "company %s: empty body", id)
	}
	return body, nil
}

// parseIDs accepts a JSON array of ids (strings, numbers or objects with an
// "id" or "company_id" field), or an object wrapping such an array under
// "companies" or "data".
func parseIDs(doc any) ([]string, error) {
	if m, ok := doc.(map[string]any); ok {
		switch {
		case m["companies"] != nil:
			doc = m["companies"]
		case m["data"] != nil:
			doc = m["data"]
		}
	}

	items, ok := doc.([]any)
	if !ok {
		return nil, eris.New("screener: company list is not an array")
	}

	ids := make([]string, 0, len(items))
	for i, item := range items {
		if obj, ok := item.(map[string]any); ok {
			item = obj["id"]
			if item == nil {
				item = obj["company_id"]
			}
		}
		id, ok := idString(item)
		if !ok {
			return nil, eris.Errorf("screener: company list entry %d has no id", i)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func idString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		t = strings.TrimSpace(t)
		return t, t != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
