// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// HTTPClient is a wrapper around the resty.Client HTTP client.
// It embeds *resty.Client to expose all of its methods directly,
// while allowing extension with additional application-specific behavior.
//
// Example usage:
//
//	client := utils.NewHTTPClient("http://localhost:8080", "amestris-client/dev")
//	resp, err := client.R().Get("/api/materials")
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient creates a resty client rooted at baseURL that identifies
// itself with userAgent. No client-wide timeout is set: callers bound each
// request through its context. A request id stored with WithRequestID is sent
// as X-Request-ID.
//
// Each call returns an independent client instance with its own
// configuration, connection pool, and state.
func NewHTTPClient(baseURL, userAgent string) *HTTPClient {
	client := resty.New().SetBaseURL(baseURL)
	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}
	client.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		if id, ok := GetRequestIDFromContext(r.Context()); ok && r.Header.Get(RequestIDHeader) == "" {
			r.SetHeader(RequestIDHeader, id)
		}
		return nil
	})
	return &HTTPClient{Client: client}
}

// NormalizeBaseURL trims raw, defaults the scheme to http and strips trailing
// slashes. Returns an error when raw is empty or has no host.
func NormalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}
