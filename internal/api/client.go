// Package api wraps the backend's REST and SSE endpoints behind typed
// methods. It attaches the session credential, normalizes error shapes, and
// exposes the stream subscriptions the controllers consume.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jonathan/outreach-agent/internal/sse"
)

// DefaultTimeout is the default request timeout for plain REST calls.
// Stream subscriptions are not subject to it.
const DefaultTimeout = 30 * time.Second

// Sentinel errors mapped from backend status codes. Match with errors.Is.
var (
	ErrUnauthorized = errors.New("session unauthorized")
	ErrConflict     = errors.New("already in progress")
	ErrNotFound     = errors.New("not found")
)

// Error is the normalized shape of any non-2xx backend response.
type Error struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error %d for %s: %s", e.StatusCode, e.URL, e.Message)
}

// Is maps status codes onto the package sentinels so callers can branch with
// errors.Is without inspecting codes.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// Config holds client configuration.
type Config struct {
	// BaseURL is the backend root, e.g. "http://localhost:8000".
	BaseURL string
	// Token is the session token attached as a Bearer credential. May be
	// empty for endpoints reached through an authenticated proxy session.
	Token string
	// Timeout overrides DefaultTimeout when non-zero.
	Timeout time.Duration
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
	// StrictSchemas enables JSON Schema validation of backend payloads.
	StrictSchemas bool
}

// Client is a backend API client. Safe for concurrent use.
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
	stream  *http.Client
	strict  bool
}

// New creates a client for the given backend.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend base URL %q: %w", cfg.BaseURL, err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	// Streams are long-lived; they get a client without the overall timeout.
	stream := &http.Client{Transport: hc.Transport}

	return &Client{
		baseURL: base,
		token:   cfg.Token,
		http:    hc,
		stream:  stream,
		strict:  cfg.StrictSchemas,
	}, nil
}

// checkSession fails fast with ErrUnauthorized when the stored session token
// is a JWT whose expiry has passed, so an expired session never reaches the
// network. Opaque (non-JWT) tokens are passed through untouched.
func (c *Client) checkSession() error {
	if c.token == "" {
		return nil
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if time.Now().After(exp.Time) {
		return fmt.Errorf("session token expired at %s: %w", exp.Format(time.RFC3339), ErrUnauthorized)
	}
	return nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// doJSON issues a JSON request and decodes a JSON response. A nil in skips
// the request body; a nil out discards the response body.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if err := c.checkSession(); err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.errorFrom(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// doRaw is doJSON without response decoding; it returns the raw body so the
// caller can schema-validate before unmarshalling.
func (c *Client) doRaw(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	if err := c.checkSession(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.errorFrom(resp)
	}
	return io.ReadAll(resp.Body)
}

// subscribe opens an SSE subscription with the session credential attached.
func (c *Client) subscribe(ctx context.Context, path string, query url.Values) (*sse.Subscription, error) {
	if err := c.checkSession(); err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodGet, c.endpoint(path, query), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream request: %w", err)
	}
	c.authorize(req)
	return sse.Subscribe(ctx, c.stream, req)
}

// errorFrom normalizes a non-2xx response. The backend reports either
// {"error": "..."} or {"message": "..."}; anything else falls back to the raw
// body.
func (c *Client) errorFrom(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	message := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Error != "":
			message = payload.Error
		case payload.Message != "":
			message = payload.Message
		case payload.Detail != "":
			message = payload.Detail
		}
	}
	if message == "" {
		message = strings.TrimSpace(string(body))
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	return &Error{
		StatusCode: resp.StatusCode,
		Message:    message,
		URL:        resp.Request.URL.String(),
	}
}
