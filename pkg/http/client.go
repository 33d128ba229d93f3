package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// ErrDecode marks a response body that was not valid JSON for the expected
// shape. Adapters translate it to their malformed-response error kind.
var ErrDecode = errors.New("decode json")

// StatusError reports a non-2xx response. Adapters map codes onto their
// error taxonomy (429 vs 404 matter differently per source), so the code and
// a body excerpt are preserved.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Client is a small JSON-over-HTTP client shared by all provider adapters.
// One instance per process; connection pooling lives in the transport.
type Client struct {
	http      *http.Client
	userAgent string
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithUserAgent sets the User-Agent header for all requests.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a client with a tuned transport. Per-call deadlines come
// from the request context, not a client-wide timeout, so each provider can
// carry its own budget.
func NewClient(opts ...ClientOption) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   3 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   3 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	c := &Client{
		http:      &http.Client{Transport: transport},
		userAgent: "coincast/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON performs a GET with optional query params and decodes the JSON
// body into dest. Non-2xx responses return *StatusError with a body excerpt;
// a decode failure comes back as a wrapped error the caller treats as
// malformed.
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values, dest interface{}) error {
	u := rawURL
	if len(query) > 0 {
		u = rawURL + "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}
