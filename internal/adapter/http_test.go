// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/amestris-client/internal/config"
	"github.com/MKhiriev/amestris-client/internal/logger"
	"github.com/MKhiriev/amestris-client/internal/mock"
	"github.com/MKhiriev/amestris-client/internal/store"
	"github.com/MKhiriev/amestris-client/internal/testserver"
	"github.com/MKhiriev/amestris-client/models"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func newTokenStore() *store.TokenStore {
	return store.NewTokenStore(store.NewMemoryKeyValueStorage(), store.NewMemoryKeyValueStorage(), logger.Nop())
}

func newTestClient(t *testing.T, baseURL string, tokens TokenStore, opts ...Option) *Client {
	t.Helper()

	c, err := NewClient(config.ClientAdapter{
		BaseURL:        baseURL,
		RequestTimeout: 5 * time.Second,
		RefreshTimeout: 5 * time.Second,
	}, tokens, logger.Nop(), opts...)
	require.NoError(t, err)
	return c
}

// loggedIn returns a token store holding a fresh session of the seeded
// supervisor on srv.
func loggedIn(t *testing.T, srv *testserver.Server) (*store.TokenStore, models.TokenSet) {
	t.Helper()

	tokens := newTokenStore()
	set, _ := srv.Login(testserver.SupervisorEmail)
	require.True(t, set.Complete())
	require.NoError(t, tokens.SetAll(context.Background(), set))
	return tokens, set
}

type capturedRequest struct {
	method string
	header http.Header
	body   string
	query  string
}

// echoServer records every request and answers with status and body.
func echoServer(t *testing.T, status int, body string) (*httptest.Server, *[]capturedRequest) {
	t.Helper()

	var (
		mu       sync.Mutex
		captured []capturedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		captured = append(captured, capturedRequest{method: r.Method, header: r.Header.Clone(), body: string(b), query: r.URL.RawQuery})
		mu.Unlock()

		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

// ── construction ──────────────────────────────────────────────────────────────

func TestNewClient_InvalidBaseURL(t *testing.T) {
	_, err := NewClient(config.ClientAdapter{BaseURL: " "}, newTokenStore(), logger.Nop())
	assert.Error(t, err)
}

func TestClientURL(t *testing.T) {
	c := newTestClient(t, "http://localhost:8080/", newTokenStore())

	assert.Equal(t, "http://localhost:8080/api/materials", c.URL("/api/materials"))
	assert.Equal(t, "http://localhost:8080/api/materials", c.URL("api/materials"))
	assert.Equal(t, "https://elsewhere.example/x", c.URL("https://elsewhere.example/x"))
	assert.Equal(t, "HTTP://elsewhere.example/x", c.URL("HTTP://elsewhere.example/x"))
}

// ── headers ───────────────────────────────────────────────────────────────────

func TestDo_DefaultHeaders(t *testing.T) {
	srv, captured := echoServer(t, http.StatusOK, `{}`)
	tokens := newTokenStore()
	require.NoError(t, tokens.Set(context.Background(), "stored-token"))
	c := newTestClient(t, srv.URL, tokens, WithUserAgent("amestris-client/test"))

	_, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/api/materials", Body: models.MaterialInput{Name: "Iron", Unit: "kg"}})
	require.NoError(t, err)

	require.Len(t, *captured, 1)
	got := (*captured)[0]
	assert.Equal(t, "application/json", got.header.Get("Accept"))
	assert.Equal(t, "application/json; charset=utf-8", got.header.Get("Content-Type"))
	assert.Equal(t, "Bearer stored-token", got.header.Get("Authorization"))
	assert.Equal(t, "amestris-client/test", got.header.Get("User-Agent"))
	assert.NotEmpty(t, got.header.Get("X-Request-ID"))
	assert.JSONEq(t, `{"name":"Iron","quantity":0,"unit":"kg"}`, got.body)
}

func TestDo_CallerHeadersWin(t *testing.T) {
	srv, captured := echoServer(t, http.StatusOK, `ok`)
	c := newTestClient(t, srv.URL, newTokenStore())

	_, err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/upload",
		Body:   "raw text",
		Header: http.Header{"Accept": {"text/plain"}, "Content-Type": {"text/plain"}},
	})
	require.NoError(t, err)

	got := (*captured)[0]
	assert.Equal(t, "text/plain", got.header.Get("Accept"))
	assert.Equal(t, "text/plain", got.header.Get("Content-Type"))
	assert.Equal(t, "raw text", got.body)
}

func TestDo_NoBodyNoContentType(t *testing.T) {
	srv, captured := echoServer(t, http.StatusOK, `[]`)
	c := newTestClient(t, srv.URL, newTokenStore())

	_, err := c.Do(context.Background(), Request{Path: "/api/audits"})
	require.NoError(t, err)

	got := (*captured)[0]
	assert.Equal(t, http.MethodGet, got.method)
	assert.Empty(t, got.header.Get("Content-Type"))
	assert.Empty(t, got.header.Get("Authorization"), "no token anywhere means no auth header")
}

func TestDo_ExplicitTokenOverridesStore(t *testing.T) {
	srv, captured := echoServer(t, http.StatusOK, `{}`)
	tokens := newTokenStore()
	require.NoError(t, tokens.Set(context.Background(), "stored-token"))
	c := newTestClient(t, srv.URL, tokens)

	_, err := c.Do(context.Background(), Request{Path: "/api/auth/me", Token: "explicit"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer explicit", (*captured)[0].header.Get("Authorization"))
}

func TestDo_StoreErrorSendsNoAuth(t *testing.T) {
	ctrl := gomock.NewController(t)
	tokens := mock.NewMockTokenStore(ctrl)
	tokens.EXPECT().AccessToken(gomock.Any()).Return("", errors.New("disk I/O error"))

	srv, captured := echoServer(t, http.StatusOK, `{}`)
	c := newTestClient(t, srv.URL, tokens)

	_, err := c.Do(context.Background(), Request{Path: "/api/health"})
	require.NoError(t, err)
	assert.Empty(t, (*captured)[0].header.Get("Authorization"))
}

func TestDo_Query(t *testing.T) {
	srv, captured := echoServer(t, http.StatusOK, `[]`)
	c := newTestClient(t, srv.URL, newTokenStore())

	_, err := c.Do(context.Background(), Request{
		Path:  "/api/transmutations",
		Query: Query(map[string]any{"page": 2, "q": "", "pageSize": nil}),
	})
	require.NoError(t, err)
	assert.Equal(t, "page=2", (*captured)[0].query)
}

// ── results ───────────────────────────────────────────────────────────────────

func TestDo_NoContent(t *testing.T) {
	srv, _ := echoServer(t, http.StatusNoContent, "")
	c := newTestClient(t, srv.URL, newTokenStore())

	res, err := c.Do(context.Background(), Request{Method: http.MethodDelete, Path: "/api/materials/1"})
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Nil(t, res.Value())

	var m models.Material
	require.NoError(t, res.Decode(&m))
	assert.Zero(t, m)
}

func TestResult_Value(t *testing.T) {
	tests := []struct {
		name string
		body string
		want any
	}{
		{name: "json object", body: `{"id":1}`, want: map[string]any{"id": float64(1)}},
		{name: "json array", body: `[1,2]`, want: []any{float64(1), float64(2)}},
		{name: "raw text", body: `pong`, want: "pong"},
		{name: "empty", body: ``, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := &Result{StatusCode: http.StatusOK, Body: []byte(tt.body)}
			assert.Equal(t, tt.want, res.Value())
		})
	}
}

func TestResult_DecodeError(t *testing.T) {
	res := &Result{Body: []byte(`not json`)}

	var v map[string]any
	assert.Error(t, res.Decode(&v))
}

// ── errors ────────────────────────────────────────────────────────────────────

func TestDo_HTTPErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantIs      error
	}{
		{name: "json error field", status: http.StatusConflict, body: `{"error":"email ya registrado"}`, wantMessage: "email ya registrado", wantIs: ErrConflict},
		{name: "validation", status: http.StatusUnprocessableEntity, body: `{"error":"validación","fields":{"name":"requerido"}}`, wantMessage: "validación", wantIs: ErrValidation},
		{name: "raw text", status: http.StatusBadGateway, body: "upstream down\n", wantMessage: "upstream down", wantIs: ErrBadGateway},
		{name: "json without error field", status: http.StatusNotFound, body: `{"detail":"x"}`, wantMessage: `{"detail":"x"}`, wantIs: ErrNotFound},
		{name: "empty body", status: http.StatusInternalServerError, body: "", wantMessage: "HTTP 500", wantIs: ErrInternalServerError},
		{name: "forbidden", status: http.StatusForbidden, body: `{"error":"prohibido"}`, wantMessage: "prohibido", wantIs: ErrForbidden},
		{name: "bad request", status: http.StatusBadRequest, body: `{"error":"json inválido"}`, wantMessage: "json inválido", wantIs: ErrBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := echoServer(t, tt.status, tt.body)
			c := newTestClient(t, srv.URL, newTokenStore())

			_, err := c.Do(context.Background(), Request{Path: "/x"})
			require.Error(t, err)

			var httpErr *HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, tt.wantMessage, err.Error())
			assert.ErrorIs(t, err, tt.wantIs)
		})
	}
}

func TestHTTPError_UnknownStatusHasNoSentinel(t *testing.T) {
	err := &HTTPError{StatusCode: http.StatusTeapot, Message: "HTTP 418"}
	assert.Nil(t, err.Unwrap())
	assert.NotErrorIs(t, err, ErrBadRequest)
}

func TestDo_Timeout(t *testing.T) {
	srv := testserver.New()
	defer srv.Close()
	srv.SetDelay("/api/materials", time.Second)
	tokens, _ := loggedIn(t, srv)
	c := newTestClient(t, srv.URL, tokens)

	_, err := c.Do(context.Background(), Request{Path: "/api/materials", Timeout: 30 * time.Millisecond})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, ErrNetwork)
	assert.Contains(t, err.Error(), "timed out")
}

func TestDo_DefaultTimeoutApplies(t *testing.T) {
	srv := testserver.New()
	defer srv.Close()
	srv.SetDelay("/api/materials", time.Second)
	tokens, _ := loggedIn(t, srv)

	c, err := NewClient(config.ClientAdapter{BaseURL: srv.URL, RequestTimeout: 30 * time.Millisecond}, tokens, logger.Nop())
	require.NoError(t, err)

	_, err = c.Do(context.Background(), Request{Path: "/api/materials"})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestDo_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newTestClient(t, url, newTokenStore())

	_, err := c.Do(context.Background(), Request{Path: "/api/materials"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "network or CORS")
}

func TestDo_CallerCancellation(t *testing.T) {
	srv := testserver.New()
	defer srv.Close()
	srv.SetDelay("/api/materials", time.Second)
	tokens, _ := loggedIn(t, srv)
	c := newTestClient(t, srv.URL, tokens)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := c.Do(ctx, Request{Path: "/api/materials"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrNetwork)
}

// ── refresh ───────────────────────────────────────────────────────────────────

func TestDo_RefreshAndRetryOn401(t *testing.T) {
	srv := testserver.New()
	defer srv.Close()
	tokens, old := loggedIn(t, srv)
	c := newTestClient(t, srv.URL, tokens)

	srv.ExpireAccessTokens()

	var page models.List[models.Material]
	res, err := c.Do(context.Background(), Request{Path: "/api/materials"})
	require.NoError(t, err)
	require.NoError(t, res.Decode(&page))
	assert.NotEmpty(t, page.Items)

	assert.Equal(t, 1, srv.RefreshCalls())

	got, err := tokens.GetAll(context.Background())
	require.NoError(t, err)
	assert.True(t, got.Complete())
	assert.NotEqual(t, old, got)

	reqs := srv.RequestsTo("/api/materials")
	require.Len(t, reqs, 2)
	assert.Equal(t, "Bearer "+old.Access, reqs[0].Header.Get("Authorization"))
	assert.Equal(t, "Bearer "+got.Access, reqs[1].Header.Get("Authorization"))
}

func TestDo_PartialRefreshKeepsOriginal401(t *testing.T) {
	srv := testserver.New()
	defer srv.Close()
	tokens, old := loggedIn(t, srv)
	c := newTestClient(t, srv.URL, tokens)

	srv.ExpireAccessTokens()
	srv.SetPartialRefresh(true)

	_, err := c.Do(context.Background(), Request{Path: "/api/materials"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "token inválido", err.Error())

	got, err := tokens.GetAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, old, got, "token store must be unchanged")
	assert.Len(t, srv.RequestsTo("/api/materials"), 1, "no retry without a successful refresh")
}

func TestDo_RejectedRefreshKeepsOriginal401(t *testing.T) {
	srv := testserver.New()
	defer srv.Close()
	tokens, _ := loggedIn(t, srv)
	c := newTestClient(t, srv.URL, tokens)

	srv.ExpireAccessTokens()
	srv.SetFailRefresh(true)

	_, err := c.Do(context.Background(), Request{Path: "/api/materials"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "token inválido", err.Error())
	assert.Equal(t, 1, srv.RefreshCalls())
}

func TestDo_ExplicitTokenBypassesRefresh(t *testing.T) {
	srv := testserver.New()
	defer srv.Close()
	tokens, set := loggedIn(t, srv)
	c := newTestClient(t, srv.URL, tokens)

	srv.ExpireAccessTokens()

	_, err := c.Do(context.Background(), Request{Path: "/api/auth/me", Token: set.Access})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Zero(t, srv.RefreshCalls())
}

func TestDo_NoRefreshTokenSkipsNetwork(t *testing.T) {
	srv := testserver.New()
	defer srv.Close()
	set, _ := srv.Login(testserver.SupervisorEmail)
	tokens := newTokenStore()
	require.NoError(t, tokens.Set(context.Background(), set.Access))
	c := newTestClient(t, srv.URL, tokens)

	srv.ExpireAccessTokens()

	_, err := c.Do(context.Background(), Request{Path: "/api/materials"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Zero(t, srv.RefreshCalls())
}

func TestDo_RetryOutcomeIsFinal(t *testing.T) {
	var (
		mu        sync.Mutex
		refreshes int
		hits      int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		if r.URL.Path == refreshPath {
			refreshes++
			fmt.Fprintf(w, `{"access":"a%d","refresh":"r%d","jti":"s%d"}`, refreshes+1, refreshes+1, refreshes+1)
			return
		}
		hits++
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"still unauthorized"}`)
	}))
	defer srv.Close()

	tokens := newTokenStore()
	require.NoError(t, tokens.SetAll(context.Background(), models.TokenSet{Access: "a1", Refresh: "r1", SessionID: "s1"}))
	c := newTestClient(t, srv.URL, tokens)

	_, err := c.Do(context.Background(), Request{Path: "/api/materials"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "still unauthorized", err.Error())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, refreshes, "no second refresh")
	assert.Equal(t, 2, hits, "original plus one retry")

	got, _ := tokens.GetAll(context.Background())
	assert.Equal(t, models.TokenSet{Access: "a2", Refresh: "r2", SessionID: "s2"}, got)
}

func TestDo_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	srv := testserver.New()
	defer srv.Close()
	tokens, _ := loggedIn(t, srv)
	c := newTestClient(t, srv.URL, tokens)

	srv.ExpireAccessTokens()
	srv.SetDelay("/api/auth/refresh", 100*time.Millisecond)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = c.Do(context.Background(), Request{Path: "/api/materials"})
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, srv.RefreshCalls())
}

func TestDo_RefreshRecorded(t *testing.T) {
	srv := testserver.New()
	defer srv.Close()
	tokens, _ := loggedIn(t, srv)

	ctrl := gomock.NewController(t)
	rec := mock.NewMockRecorder(ctrl)
	rec.EXPECT().ObserveRequest(http.MethodGet, http.StatusUnauthorized, gomock.Any())
	rec.EXPECT().ObserveRequest(http.MethodPost, http.StatusOK, gomock.Any())
	rec.EXPECT().ObserveRefresh(RefreshSucceeded)
	rec.EXPECT().ObserveRequest(http.MethodGet, http.StatusOK, gomock.Any())

	c := newTestClient(t, srv.URL, tokens, WithRecorder(rec))
	srv.ExpireAccessTokens()

	_, err := c.Do(context.Background(), Request{Path: "/api/materials"})
	require.NoError(t, err)
}

// ── EnsureFresh ───────────────────────────────────────────────────────────────

func TestEnsureFresh(t *testing.T) {
	t.Run("long-lived token is kept", func(t *testing.T) {
		srv := testserver.New()
		defer srv.Close()
		tokens, set := loggedIn(t, srv)
		c := newTestClient(t, srv.URL, tokens)

		token, err := c.EnsureFresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, set.Access, token)
		assert.Zero(t, srv.RefreshCalls())
	})

	t.Run("token close to expiry is refreshed", func(t *testing.T) {
		srv := testserver.New()
		defer srv.Close()
		srv.SetAccessTTL(5 * time.Second)
		tokens, set := loggedIn(t, srv)
		c := newTestClient(t, srv.URL, tokens)

		token, err := c.EnsureFresh(context.Background())
		require.NoError(t, err)
		assert.NotEqual(t, set.Access, token)
		assert.Equal(t, 1, srv.RefreshCalls())
	})

	t.Run("expired token that cannot be refreshed", func(t *testing.T) {
		srv := testserver.New()
		defer srv.Close()
		srv.SetAccessTTL(-time.Minute)
		tokens, _ := loggedIn(t, srv)
		srv.SetFailRefresh(true)
		c := newTestClient(t, srv.URL, tokens)

		_, err := c.EnsureFresh(context.Background())
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.ErrorIs(t, err, ErrRefreshFailed)
	})

	t.Run("opaque token is used as-is", func(t *testing.T) {
		tokens := newTokenStore()
		require.NoError(t, tokens.Set(context.Background(), "opaque"))
		c := newTestClient(t, "http://localhost:1", tokens)

		token, err := c.EnsureFresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "opaque", token)
	})

	t.Run("no token", func(t *testing.T) {
		c := newTestClient(t, "http://localhost:1", newTokenStore())

		_, err := c.EnsureFresh(context.Background())
		assert.ErrorIs(t, err, store.ErrTokenNotFound)
	})
}
