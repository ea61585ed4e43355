// Package apiclient talks to the École des Excellents REST API with cookie
// based sessions and repairs expired sessions transparently.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/ecoledesexcellents/ecole-ui/internal/errors"
	"github.com/ecoledesexcellents/ecole-ui/internal/ports"
)

const (
	maxResponseBytes = 10 << 20

	headerRequestID = "X-Request-ID"
)

// Backend auth endpoints, relative to the base URL.
const (
	PathLogin   = "/auth/login-cookie/"
	PathLogout  = "/auth/logout-cookie/"
	PathRefresh = "/auth/refresh-cookie/"
	PathMe      = "/auth/users/me/"
)

var _ ports.Backend = (*Client)(nil)

// Options configures a Client.
type Options struct {
	// BaseURL is the API root, e.g. http://localhost:8000/api.
	BaseURL string

	// Timeout bounds one HTTP exchange. Zero means 30s.
	Timeout time.Duration

	// Transport overrides http.DefaultTransport.
	Transport http.RoundTripper

	// CookieName is the access token cookie. Empty means "access_token".
	CookieName string

	// Refresh tunes the refresh interceptor.
	Refresh RefreshOptions

	Logger *slog.Logger
}

// RefreshOptions tunes the shared refresh.
type RefreshOptions struct {
	// Timeout bounds the refresh call. Zero means 10s.
	Timeout time.Duration

	// QueueLimit caps how many requests may wait on one refresh. Zero means 1024.
	QueueLimit int

	// LoginPath is where the Navigator is sent when the refresh fails.
	LoginPath string

	Navigator ports.Navigator
	Observer  RefreshObserver
}

// Client is the HTTP client for the backend. It is safe for concurrent use.
type Client struct {
	base       *url.URL
	http       *http.Client
	jar        *sessionJar
	cookieName string
	logger     *slog.Logger
	refresh    *refresher
}

// Request describes one backend call.
type Request struct {
	Method string
	// Path is relative to the base URL, e.g. /academique/cours/.
	Path  string
	Query url.Values
	// Body is encoded as JSON when non-nil.
	Body   any
	Header http.Header

	retried bool
}

// Response is a completed HTTP exchange, whatever its status.
type Response struct {
	Status int
	Header http.Header
	Data   []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

// Decode unmarshals the body into dst. An empty body leaves dst untouched.
func (r *Response) Decode(dst any) error {
	if dst == nil || len(bytes.TrimSpace(r.Data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Data, dst); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "réponse illisible du serveur")
	}
	return nil
}

// Err classifies a non-2xx response; it returns nil for 2xx.
func (r *Response) Err() error {
	if appErr := apperrors.MapHTTPError(r.Status, r.Data); appErr != nil {
		return appErr
	}
	return nil
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if raw == "" {
		return nil, errors.New("apiclient: base URL is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("apiclient: unsupported base URL scheme %q", base.Scheme)
	}

	jar, err := newSessionJar()
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	cookieName := opts.CookieName
	if cookieName == "" {
		cookieName = "access_token"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		base:       base,
		http:       &http.Client{Jar: jar, Timeout: timeout, Transport: transport},
		jar:        jar,
		cookieName: cookieName,
		logger:     logger.With("component", "apiclient"),
	}
	c.refresh = newRefresher(refresherOptions{
		RefreshOptions: opts.Refresh,
		call:           c.refreshSession,
		logger:         c.logger,
	})
	return c, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

// Do sends req. Ordinary HTTP error statuses come back as a Response; a
// request that got no response fails with a network AppError. A 401 is
// repaired once through the shared refresh before being returned.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Status != http.StatusUnauthorized || req.retried || isAuthEndpoint(req.Path) {
		return resp, nil
	}

	if err := c.refresh.await(ctx); err != nil {
		return nil, err
	}

	retry := *req
	retry.retried = true
	return c.send(ctx, &retry)
}

// GetJSON issues a GET and decodes a 2xx body into dst.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, dst any) error {
	return c.doJSON(ctx, &Request{Method: http.MethodGet, Path: path, Query: query}, dst)
}

// SendJSON issues method with body and decodes a 2xx body into dst.
func (c *Client) SendJSON(ctx context.Context, method, path string, body, dst any) error {
	return c.doJSON(ctx, &Request{Method: method, Path: path, Body: body}, dst)
}

func (c *Client) doJSON(ctx context.Context, req *Request, dst any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}
	return resp.Decode(dst)
}

func (c *Client) send(ctx context.Context, req *Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, apperrors.MsgInvalidData)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.resolve(req.Path, req.Query), body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: build %s %s: %w", method, req.Path, err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	if httpReq.Header.Get(headerRequestID) == "" {
		httpReq.Header.Set(headerRequestID, uuid.NewString())
	}

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("apiclient: %s %s: %w", method, req.Path, ctx.Err())
		}
		c.logger.WarnContext(ctx, "backend unreachable", "method", method, "path", req.Path, "error", err)
		return nil, apperrors.Network(err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("apiclient: %s %s: %w", method, req.Path, ctx.Err())
		}
		return nil, apperrors.Network(err)
	}

	c.logger.DebugContext(ctx, "backend request",
		"method", method,
		"path", req.Path,
		"status", httpResp.StatusCode,
		"retried", req.retried,
		"request_id", httpReq.Header.Get(headerRequestID),
		"duration", time.Since(start),
	)

	return &Response{Status: httpResp.StatusCode, Header: httpResp.Header, Data: data}, nil
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.TrimLeft(path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// isAuthEndpoint reports whether path is one of the cookie auth endpoints.
// A 401 from those is an answer, not an expired session.
func isAuthEndpoint(path string) bool {
	switch "/" + strings.Trim(path, "/") + "/" {
	case PathLogin, PathLogout, PathRefresh:
		return true
	default:
		return false
	}
}
