// Package apiclient wraps net/http for the storefront REST API: it attaches the bearer
// token, normalizes failures into AppError, and refreshes the session once after a 401.
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
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/oauth2"

	apperrors "github.com/target/storefront-go/internal/errors"
	"github.com/target/storefront-go/internal/observability/metrics"
	"github.com/target/storefront-go/internal/observability/statsd"
	"github.com/target/storefront-go/internal/ports"
)

const (
	// HeaderRequestID carries a per-request correlation id. A replay after refresh reuses it.
	HeaderRequestID = "X-Request-ID"

	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 10 << 20
)

// Config describes the remote API.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Options groups optional dependencies.
type Options struct {
	HTTPClient *http.Client
	Logger     *slog.Logger
	Metrics    statsd.Sink
}

// Client issues API requests. A Client without a session sends anonymous requests and
// never refreshes; WithSession returns a copy bound to one.
type Client struct {
	base      *url.URL
	http      *http.Client
	timeout   time.Duration
	userAgent string
	logger    *slog.Logger
	metrics   statsd.Sink
	session   ports.SessionHooks
}

// New constructs a Client. When no HTTPClient is given, one with a public-suffix-aware
// cookie jar is created so CSRF or session cookies set by the API are replayed.
func New(cfg Config, opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http(s), got %q", cfg.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		jar, jarErr := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if jarErr != nil {
			return nil, fmt.Errorf("cookie jar: %w", jarErr)
		}
		hc = &http.Client{Jar: jar}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		base:      base,
		http:      hc,
		timeout:   timeout,
		userAgent: cfg.UserAgent,
		logger:    logger.With("component", "apiclient"),
		metrics:   opts.Metrics,
	}, nil
}

// WithSession returns a copy of c that reads its bearer token from s and refreshes
// through it after a 401.
func (c *Client) WithSession(s ports.SessionHooks) *Client {
	cp := *c
	cp.session = s
	return &cp
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.base.String() }

// Request describes one API call.
type Request struct {
	Method string
	// Path is relative to the base URL, or an absolute http(s) URL such as a pagination link.
	Path  string
	Query url.Values
	// Body is JSON-encoded when non-nil. Ignored when Multipart is set.
	Body      any
	Multipart *Multipart
	// Token overrides the session token for this call.
	Token string
	// Anonymous sends no Authorization header.
	Anonymous bool
	// SkipRefresh disables the refresh-and-replay step, for the auth endpoints themselves.
	SkipRefresh bool
}

// Response is a successful (2xx) API response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if r == nil || v == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "Unexpected response from the server.")
	}
	return nil
}

// Do issues req. A 401 triggers at most one refresh and one replay; if the refresh fails,
// or the replay is also rejected with 401, the session is logged out and the normalized
// 401 is returned.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	p, err := c.prepare(req)
	if err != nil {
		return nil, err
	}

	tok, err := c.tokenFor(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Could not read the session.")
	}

	resp, err := c.send(ctx, p, tok)
	retried := false
	if err == nil && resp.Status == http.StatusUnauthorized && c.canRefresh(req) {
		resp, err = c.refreshAndReplay(ctx, p, resp)
		retried = true
	}

	status := apperrors.GetStatus(err)
	if resp != nil {
		status = resp.Status
	}
	if err == nil && (status < 200 || status > 299) {
		err = apperrors.FromResponse(status, resp.Body)
	}
	metrics.EmitRequest(c.metrics, metrics.RequestMetric{
		Method:   p.method,
		Status:   status,
		Retried:  retried,
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		c.logger.DebugContext(ctx, "api request failed",
			"method", p.method, "path", p.url.Path, "status", status,
			"request_id", p.requestID, "retried", retried, "error", err)
		return nil, err
	}
	return resp, nil
}

func (c *Client) canRefresh(req Request) bool {
	return c.session != nil && !req.SkipRefresh && !req.Anonymous && req.Token == ""
}

func (c *Client) refreshAndReplay(ctx context.Context, p *prepared, first *Response) (*Response, error) {
	original := apperrors.FromResponse(first.Status, first.Body)

	tok, err := c.session.RefreshToken(ctx)
	if err != nil || tok == nil || tok.AccessToken == "" {
		c.logger.InfoContext(ctx, "token refresh failed, logging out", "request_id", p.requestID, "error", err)
		c.forceLogout(ctx)
		return nil, original
	}

	resp, err := c.send(ctx, p, tok)
	if err != nil {
		return nil, err
	}
	if resp.Status == http.StatusUnauthorized {
		c.logger.InfoContext(ctx, "request rejected after refresh, logging out", "request_id", p.requestID)
		c.forceLogout(ctx)
	}
	return resp, nil
}

func (c *Client) forceLogout(ctx context.Context) {
	// The caller's context may already be done; cleanup must still run.
	if err := c.session.Logout(context.WithoutCancel(ctx)); err != nil {
		c.logger.WarnContext(ctx, "logout after failed refresh", "error", err)
	}
}

func (c *Client) tokenFor(req Request) (*oauth2.Token, error) {
	switch {
	case req.Anonymous:
		return nil, nil
	case req.Token != "":
		return &oauth2.Token{AccessToken: req.Token, TokenType: "Bearer"}, nil
	case c.session == nil:
		return nil, nil
	default:
		return c.session.Token()
	}
}

// prepared is a request whose body has been encoded once so it can be replayed.
type prepared struct {
	method      string
	url         *url.URL
	body        []byte
	contentType string
	requestID   string
}

func (c *Client) prepare(req Request) (*prepared, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	u, err := c.resolve(req.Path, req.Query)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Invalid request path.")
	}

	p := &prepared{method: method, url: u, requestID: uuid.NewString()}
	switch {
	case req.Multipart != nil:
		body, ct, encErr := req.Multipart.encode()
		if encErr != nil {
			return nil, apperrors.Wrap(encErr, apperrors.ErrCodeInternal, "Could not encode upload.")
		}
		p.body, p.contentType = body, ct
	case req.Body != nil:
		body, encErr := json.Marshal(req.Body)
		if encErr != nil {
			return nil, apperrors.Wrap(encErr, apperrors.ErrCodeInternal, "Could not encode request.")
		}
		p.body, p.contentType = body, "application/json"
	}
	return p, nil
}

func (c *Client) resolve(path string, query url.Values) (*url.URL, error) {
	var u *url.URL
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		parsed, err := url.Parse(path)
		if err != nil {
			return nil, err
		}
		u = parsed
	} else {
		rel, err := url.Parse(strings.TrimLeft(path, "/"))
		if err != nil {
			return nil, err
		}
		cp := *c.base
		cp.Path = strings.TrimRight(c.base.Path, "/") + "/" + rel.Path
		cp.RawQuery = rel.RawQuery
		u = &cp
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}

func (c *Client) send(ctx context.Context, p *prepared, tok *oauth2.Token) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if p.body != nil {
		body = bytes.NewReader(p.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, p.method, p.url.String(), body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Could not build request.")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(HeaderRequestID, p.requestID)
	if p.contentType != "" {
		httpReq.Header.Set("Content-Type", p.contentType)
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	if tok != nil && tok.AccessToken != "" {
		tok.SetAuthHeader(httpReq)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, apperrors.Network(err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, apperrors.Network(err)
	}
	return &Response{Status: httpResp.StatusCode, Header: httpResp.Header, Body: data}, nil
}

// Get issues a GET and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.call(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post issues a POST with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Put issues a PUT with a JSON body and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

// Patch issues a PATCH with a JSON body and decodes the response into out.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, Request{Method: http.MethodPatch, Path: path, Body: body}, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.call(ctx, Request{Method: http.MethodDelete, Path: path}, nil)
}

// Call issues req and decodes the response into out.
func (c *Client) Call(ctx context.Context, req Request, out any) error {
	return c.call(ctx, req, out)
}

func (c *Client) call(ctx context.Context, req Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// IsStatus reports whether err is a normalized API error with the given status.
func IsStatus(err error, status int) bool {
	var appErr *apperrors.AppError
	return errors.As(err, &appErr) && appErr.Status == status
}
