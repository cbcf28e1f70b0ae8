// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/singleflight"

	"github.com/MKhiriev/amestris-client/internal/config"
	"github.com/MKhiriev/amestris-client/internal/logger"
	"github.com/MKhiriev/amestris-client/internal/utils"
	"github.com/MKhiriev/amestris-client/models"
)

const (
	refreshPath = "/api/auth/refresh"

	// expirySkew is how long before its exp an access token is refreshed by
	// EnsureFresh.
	expirySkew = 30 * time.Second
)

var absoluteURL = regexp.MustCompile(`(?i)^https?://`)

// Request describes one call to the backend.
type Request struct {
	// Method is the HTTP method; GET when empty.
	Method string
	// Path is relative to the configured base URL, or an absolute http(s) URL
	// used as-is.
	Path string
	// Query is appended to the URL. Empty values are the caller's concern;
	// see [Query].
	Query url.Values
	// Body is JSON-encoded when not nil.
	Body any
	// Header holds extra headers. Accept and Content-Type given here win
	// over the defaults.
	Header http.Header
	// Token overrides the stored access token. A request with an explicit
	// token is never refreshed.
	Token string
	// Timeout bounds the request together with its refresh-retry. Zero uses
	// the client default; a negative value disables the timeout.
	Timeout time.Duration
}

// Result is the outcome of a successful request.
type Result struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Empty reports whether the response carried no body (e.g. 204 No Content).
func (r *Result) Empty() bool {
	return r == nil || len(strings.TrimSpace(string(r.Body))) == 0
}

// Value returns the body parsed as JSON when possible and as raw text
// otherwise. An empty body yields nil.
func (r *Result) Value() any {
	if r.Empty() {
		return nil
	}

	var v any
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return string(r.Body)
	}
	return v
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Result) Decode(v any) error {
	if r.Empty() {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// Client is the authenticated request client. It is safe for concurrent use.
type Client struct {
	http    *utils.HTTPClient
	baseURL string

	tokens   TokenStore
	ids      *utils.UUIDGenerator
	recorder Recorder

	requestTimeout time.Duration
	refreshTimeout time.Duration
	refreshGroup   singleflight.Group

	logger *logger.Logger
}

// Option customises a [Client].
type Option func(*Client)

// WithRecorder reports requests and refreshes to r.
func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithUserAgent sets the User-Agent header of every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.http.SetHeader("User-Agent", userAgent)
	}
}

// NewClient constructs a [Client] for the backend at cfg.BaseURL. tokens is
// read for every request without an explicit token and overwritten by a
// successful refresh.
//
// Returns an error if cfg.BaseURL is empty or cannot be parsed as a URL.
func NewClient(cfg config.ClientAdapter, tokens TokenStore, log *logger.Logger, opts ...Option) (*Client, error) {
	baseURL, err := utils.NormalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	httpClient := utils.NewHTTPClient(baseURL, "")
	httpClient.SetLogger(restyLogger{log})

	c := &Client{
		http:           httpClient,
		baseURL:        baseURL,
		tokens:         tokens,
		ids:            utils.NewUUIDGenerator(),
		recorder:       nopRecorder{},
		requestTimeout: cfg.RequestTimeout,
		refreshTimeout: cfg.RefreshTimeout,
		logger:         log,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// BaseURL returns the normalised backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HTTP exposes the underlying resty client for streaming transports that
// share its connection pool and headers.
func (c *Client) HTTP() *utils.HTTPClient {
	return c.http
}

// URL resolves path against the base URL. Absolute http(s) URLs are returned
// unchanged.
func (c *Client) URL(path string) string {
	if absoluteURL.MatchString(path) {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Do performs req.
//
// A 401 on a request without an explicit token triggers one silent refresh;
// when it succeeds the request is retried once with the new access token and
// the retry's outcome is final. When the refresh fails the original 401 is
// returned.
func (c *Client) Do(ctx context.Context, req Request) (*Result, error) {
	if timeout := c.timeoutFor(req); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	explicit := req.Token != ""
	token := req.Token
	if !explicit {
		token = c.storedAccessToken(ctx)
	}

	resp, err := c.send(ctx, req, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() == http.StatusUnauthorized && !explicit {
		unauthorized := mapHTTPError(resp)

		set, err := c.refresh(ctx, token)
		if err != nil {
			c.logger.Debug().Err(err).Str("path", req.Path).Msg("silent refresh failed")
			return nil, unauthorized
		}

		if resp, err = c.send(ctx, req, set.Access); err != nil {
			return nil, err
		}
	}

	return toResult(resp)
}

// EnsureFresh returns the stored access token, refreshing it first when its
// exp claim is within expirySkew. Tokens whose expiry cannot be read are
// returned unchanged.
//
// It fails with an error wrapping [ErrUnauthorized] only when the token has
// already expired and cannot be refreshed.
func (c *Client) EnsureFresh(ctx context.Context) (string, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return "", err
	}

	exp, err := utils.AccessTokenExpiry(token)
	if err != nil || time.Until(exp) > expirySkew {
		return token, nil
	}

	set, err := c.refresh(ctx, token)
	if err == nil {
		return set.Access, nil
	}
	if time.Now().Before(exp) {
		return token, nil
	}

	return "", fmt.Errorf("%w: %w: %w", ErrUnauthorized, ErrRefreshFailed, err)
}

func (c *Client) timeoutFor(req Request) time.Duration {
	if req.Timeout != 0 {
		return req.Timeout
	}
	return c.requestTimeout
}

func (c *Client) storedAccessToken(ctx context.Context) string {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return ""
	}
	return token
}

func (c *Client) send(ctx context.Context, req Request, token string) (*resty.Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	requestID := c.ids.Generate()
	log := c.logger.With().Str("request_id", requestID).Str("method", method).Str("path", req.Path).Logger()

	r := c.http.R().
		SetContext(utils.WithRequestID(ctx, requestID))

	for name, values := range req.Header {
		for _, v := range values {
			r.Header.Add(name, v)
		}
	}
	if r.Header.Get("Accept") == "" {
		r.SetHeader("Accept", "application/json")
	}
	if req.Body != nil {
		if r.Header.Get("Content-Type") == "" {
			r.SetHeader("Content-Type", "application/json; charset=utf-8")
		}
		r.SetBody(req.Body)
	}
	if token != "" {
		r.SetAuthToken(token)
	}
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}

	start := time.Now()
	resp, err := r.Execute(method, c.URL(req.Path))
	elapsed := time.Since(start)

	if err != nil {
		c.recorder.ObserveRequest(method, 0, elapsed)
		mapped := mapTransportError(ctx, err)
		log.Debug().Err(mapped).Dur("elapsed", elapsed).Msg("request failed")
		return nil, mapped
	}

	c.recorder.ObserveRequest(method, resp.StatusCode(), elapsed)
	log.Debug().Int("status", resp.StatusCode()).Dur("elapsed", elapsed).Msg("request done")

	return resp, nil
}

func toResult(resp *resty.Response) (*Result, error) {
	if err := mapHTTPError(resp); err != nil {
		return nil, err
	}

	result := &Result{StatusCode: resp.StatusCode(), Header: resp.Header()}
	if resp.StatusCode() != http.StatusNoContent {
		result.Body = resp.Body()
	}
	return result, nil
}

// refresh exchanges the stored refresh token for a new triplet. rejected is
// the access token the caller sent; when the store already holds a different
// one, a concurrent refresh has rotated it and that token is reused.
//
// Concurrent callers share one in-flight refresh. The refresh itself is
// detached from the caller's cancellation and bounded by refreshTimeout.
func (c *Client) refresh(ctx context.Context, rejected string) (models.TokenSet, error) {
	if current, err := c.tokens.GetAll(ctx); err == nil && current.Access != "" && current.Access != rejected {
		return current, nil
	}

	ch := c.refreshGroup.DoChan("refresh", func() (any, error) {
		refreshCtx := context.WithoutCancel(ctx)
		if c.refreshTimeout > 0 {
			var cancel context.CancelFunc
			refreshCtx, cancel = context.WithTimeout(refreshCtx, c.refreshTimeout)
			defer cancel()
		}
		return c.refreshTokens(refreshCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return models.TokenSet{}, res.Err
		}
		return res.Val.(models.TokenSet), nil
	case <-ctx.Done():
		return models.TokenSet{}, mapTransportError(ctx, ctx.Err())
	}
}

func (c *Client) refreshTokens(ctx context.Context) (models.TokenSet, error) {
	set, err := c.tokens.GetAll(ctx)
	if err != nil || !set.CanRefresh() {
		c.recorder.ObserveRefresh(RefreshNoToken)
		return models.TokenSet{}, ErrNoRefreshToken
	}

	resp, err := c.send(ctx, Request{
		Method: http.MethodPost,
		Path:   refreshPath,
		Body:   models.RefreshRequest{Refresh: set.Refresh, SessionID: set.SessionID},
	}, "")
	if err != nil {
		c.recorder.ObserveRefresh(RefreshFailed)
		return models.TokenSet{}, err
	}
	if err = mapHTTPError(resp); err != nil {
		c.recorder.ObserveRefresh(RefreshFailed)
		return models.TokenSet{}, err
	}

	var out models.RefreshResponse
	if err = json.Unmarshal(resp.Body(), &out); err != nil || !out.TokenSet().Complete() {
		c.recorder.ObserveRefresh(RefreshIncomplete)
		return models.TokenSet{}, errors.Join(ErrIncompleteTokenSet, err)
	}

	next := out.TokenSet()
	if err = c.tokens.SetAll(ctx, next); err != nil {
		c.recorder.ObserveRefresh(RefreshFailed)
		return models.TokenSet{}, fmt.Errorf("store refreshed tokens: %w", err)
	}

	c.recorder.ObserveRefresh(RefreshSucceeded)
	c.logger.Debug().Msg("access token refreshed")
	return next, nil
}

// restyLogger routes resty's own diagnostics to zerolog.
type restyLogger struct {
	l *logger.Logger
}

func (r restyLogger) Errorf(format string, v ...any) {
	r.l.Error().Str("component", "resty").Msgf(format, v...)
}

func (r restyLogger) Warnf(format string, v ...any) {
	r.l.Warn().Str("component", "resty").Msgf(format, v...)
}

func (r restyLogger) Debugf(format string, v ...any) {
	r.l.Debug().Str("component", "resty").Msgf(format, v...)
}
