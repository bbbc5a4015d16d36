// Package collection is a thin client for the storage modules' collection endpoints
// (list, get, create, replace and delete by id) reached through Okapi.
//
// Every call is a single request/response round-trip. There are no retries and
// no caching: a call returns a *Response for any status code, or an error when
// no response arrived.
package collection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrMissingOkapiURL is returned when a client is requested for a context without an Okapi URL.
var ErrMissingOkapiURL = errors.New("okapi url is required")

// Context identifies the tenant and user a request is made for.
type Context struct {
	OkapiURL  string `json:"okapiUrl"`
	Tenant    string `json:"tenant"`
	Token     string `json:"token,omitempty"`
	UserID    string `json:"userId,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// Options tunes the clients created by a Factory.
type Options struct {
	// Timeout bounds a single round-trip. Default 30s.
	Timeout time.Duration
	// RateLimit is the number of requests per second across all clients. 0 disables limiting.
	RateLimit float64
	// Burst is the limiter bucket size. Default 1 when RateLimit is set.
	Burst int
	// Breaker enables a circuit breaker per tenant and collection when non-nil.
	Breaker *BreakerConfig
	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client
}

// Factory creates collection clients sharing one transport and rate limiter.
// Breakers are per tenant and collection URL.
type Factory struct {
	http     *http.Client
	limiter  *rate.Limiter
	breaker  *BreakerConfig
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewFactory creates a Factory with the given options.
func NewFactory(opts Options) *Factory {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	f := &Factory{
		http:     hc,
		breaker:  opts.Breaker,
		breakers: make(map[string]*CircuitBreaker),
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return f
}

// Collection returns a client bound to <okapi url><path> for the given Okapi context.
func (f *Factory) Collection(okapi Context, path string) (*Client, error) {
	root, err := collectionRoot(okapi, path)
	if err != nil {
		return nil, err
	}
	return &Client{
		root:    root,
		okapi:   okapi,
		http:    f.http,
		limiter: f.limiter,
		breaker: f.breakerFor(okapi.Tenant, root),
	}, nil
}

// Breaker returns the breaker guarding path for the tenant and Okapi URL of okapi,
// or nil when breakers are disabled or the Okapi URL is invalid.
func (f *Factory) Breaker(okapi Context, path string) *CircuitBreaker {
	root, err := collectionRoot(okapi, path)
	if err != nil {
		return nil
	}
	return f.breakerFor(okapi.Tenant, root)
}

func collectionRoot(okapi Context, path string) (string, error) {
	if strings.TrimSpace(okapi.OkapiURL) == "" {
		return "", ErrMissingOkapiURL
	}
	base, err := url.Parse(strings.TrimRight(okapi.OkapiURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("invalid okapi url %q", okapi.OkapiURL)
	}
	return base.String() + "/" + strings.TrimLeft(path, "/"), nil
}

// breakerFor keeps one breaker per tenant and collection URL.
func (f *Factory) breakerFor(tenant, root string) *CircuitBreaker {
	if f.breaker == nil {
		return nil
	}
	key := tenant + "@" + root
	f.mu.Lock()
	defer f.mu.Unlock()
	cb, ok := f.breakers[key]
	if !ok {
		cb = NewCircuitBreaker(key, *f.breaker)
		f.breakers[key] = cb
	}
	return cb
}

// Client accesses one collection endpoint.
type Client struct {
	root    string
	okapi   Context
	http    *http.Client
	limiter *rate.Limiter
	breaker *CircuitBreaker
}

// Get fetches a single record by id.
func (c *Client) Get(ctx context.Context, id string) (*Response, error) {
	return c.do(ctx, http.MethodGet, c.itemURL(id), nil)
}

// GetMany lists the collection with a raw, already encoded query string
// (e.g. "query=...&limit=10"). An empty query lists the collection root.
func (c *Client) GetMany(ctx context.Context, query string) (*Response, error) {
	u := c.root
	if isProvided(query) {
		u = c.root + "?" + query
	}
	return c.do(ctx, http.MethodGet, u, nil)
}

// GetManyPaged lists records matching a CQL query with explicit paging.
// An empty query lists the collection root without paging parameters.
func (c *Client) GetManyPaged(ctx context.Context, query CQL, limit, offset int) (*Response, error) {
	if !isProvided(string(query)) {
		return c.GetMany(ctx, "")
	}
	v := url.Values{}
	v.Set("query", query.String())
	v.Set("limit", strconv.Itoa(limit))
	v.Set("offset", strconv.Itoa(offset))
	return c.GetMany(ctx, v.Encode())
}

// Post creates a record. Storage assigns an id when the entity carries none.
func (c *Client) Post(ctx context.Context, entity any) (*Response, error) {
	body, err := encode(entity)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, c.root, body)
}

// Put replaces the record with the given id.
func (c *Client) Put(ctx context.Context, id string, entity any) (*Response, error) {
	body, err := encode(entity)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPut, c.itemURL(id), body)
}

// Delete removes the record with the given id.
func (c *Client) Delete(ctx context.Context, id string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, c.itemURL(id), nil)
}

// DeleteAll removes every record in the collection.
func (c *Client) DeleteAll(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodDelete, c.root, nil)
}

func (c *Client) itemURL(id string) string {
	return c.root + "/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, u string, body []byte) (*Response, error) {
	if c.breaker == nil {
		return c.roundTrip(ctx, method, u, body)
	}
	return c.breaker.Execute(ctx, func() (*Response, error) {
		return c.roundTrip(ctx, method, u, body)
	})
}

func (c *Client) roundTrip(ctx context.Context, method, u string, body []byte) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, u, err)
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, body != nil)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to contact storage module: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s %s: %w", method, u, err)
	}

	return &Response{
		Method:      method,
		URL:         u,
		StatusCode:  resp.StatusCode,
		Body:        data,
		ContentType: resp.Header.Get("Content-Type"),
		Location:    resp.Header.Get("Location"),
	}, nil
}

func (c *Client) setHeaders(req *http.Request, hasBody bool) {
	req.Header.Set("Accept", "application/json, text/plain")
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	setIfProvided(req.Header, "X-Okapi-Url", c.okapi.OkapiURL)
	setIfProvided(req.Header, "X-Okapi-Tenant", c.okapi.Tenant)
	setIfProvided(req.Header, "X-Okapi-Token", c.okapi.Token)
	setIfProvided(req.Header, "X-Okapi-User-Id", c.okapi.UserID)
	setIfProvided(req.Header, "X-Okapi-Request-Id", c.okapi.RequestID)
}

func setIfProvided(h http.Header, key, value string) {
	if value != "" {
		h.Set(key, value)
	}
}

func encode(entity any) ([]byte, error) {
	switch v := entity.(type) {
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	}
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	return data, nil
}

func isProvided(query string) bool {
	return strings.TrimSpace(query) != ""
}
