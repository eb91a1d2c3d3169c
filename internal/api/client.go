// Package api implements the typed REST client for the Budget Mini Bot
// backend.
//
// Every response body is the envelope {success, data, message}. The
// client decodes the envelope first, maps failures to *Error, and only
// then decodes data into the endpoint's typed result, returning a
// *DecodeError when the shape does not match.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/budgetminibot/appcore/internal/metrics"
)

// BasePath is the versioned API prefix.
const BasePath = "/api/v1"

// Client talks to the Budget Mini Bot REST API. The session token is
// the only mutable state; it is applied as a bearer header on every
// request once set.
type Client struct {
	base   string
	http   *http.Client
	logger *slog.Logger

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger replaces the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for the given base URL (scheme and host, without
// the /api/v1 prefix).
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base URL %q must include scheme and host", baseURL)
	}

	c := &Client{
		base:   strings.TrimRight(u.String(), "/") + BasePath,
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetToken installs the session token used for subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken drops the session token.
func (c *Client) ClearToken() {
	c.SetToken("")
}

// Token returns the currently installed session token, if any.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// envelope is the normalized response shape every endpoint uses.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// do performs one API call: marshals body (if non-nil), sends the
// request with auth and request-id headers, decodes the envelope, and
// unmarshals envelope.data into out (if non-nil).
func (c *Client) do(ctx context.Context, endpoint, method, path string, query url.Values, body, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", endpoint, err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", endpoint, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-Id", uuid.New().String())
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.APIDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APIRequests.WithLabelValues(endpoint, "error").Inc()
		c.logger.Warn("API request failed", "endpoint", endpoint, "error", err)
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	metrics.APIRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s: reading response: %w", endpoint, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &Error{Endpoint: endpoint, Status: resp.StatusCode}
		}
		return &DecodeError{Endpoint: endpoint, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		c.logger.Debug("API call rejected",
			"endpoint", endpoint,
			"status", resp.StatusCode,
			"message", env.Message,
		)
		return &Error{Endpoint: endpoint, Status: resp.StatusCode, Message: env.Message}
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &DecodeError{Endpoint: endpoint, Err: err}
		}
	}

	c.logger.Debug("API call ok",
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
