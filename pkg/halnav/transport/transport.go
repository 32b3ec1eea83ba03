// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package transport implements the HTTP collaborator for the halnav core.
//
// The navigation core never talks to net/http directly. It issues requests
// through the Requester interface, which keeps connection pooling, TLS,
// timeouts, and credentials out of the navigation state machine. The default
// implementation is Client; decorators (RetryRequester, RateLimitedRequester,
// MetricsRequester, TracingRequester) wrap any Requester to add policy at the
// transport boundary without the core knowing.
//
// # Redirect Handling
//
// The core builds successor navigators from raw 3xx responses, so Client
// deliberately does not follow redirects for mutating methods. A POST that
// answers 303 + Location is returned to the caller as-is; only GET/HEAD
// redirect chains are followed.
//
// # Usage
//
//	client := transport.New(transport.Config{
//	    Credential: transport.BearerToken("s3cret"),
//	})
//	resp, err := client.Request(ctx, http.MethodGet, "http://api.example.com/", nil, nil)
//
// Decorators compose outside-in:
//
//	var requester transport.Requester = transport.New(transport.Config{})
//	requester = transport.NewRetryRequester(requester, transport.RetryConfig{})
//	requester = transport.NewRateLimitedRequester(requester, 10, 5)
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Defaults
// -----------------------------------------------------------------------------

const (
	// DefaultAccept is the Accept header sent with every request unless the
	// caller overrides it. HAL endpoints commonly fall back to plain JSON.
	DefaultAccept = "application/hal+json,application/json"

	// DefaultUserAgent identifies the library on the wire.
	DefaultUserAgent = "halnav/" + Version

	// DefaultTimeout bounds a single round trip when no custom http.Client
	// is supplied.
	DefaultTimeout = 30 * time.Second

	// maxRedirects caps GET redirect chains.
	maxRedirects = 10
)

// Version is the library version reported in the User-Agent header.
const Version = "0.3.0"

// -----------------------------------------------------------------------------
// Wire Types
// -----------------------------------------------------------------------------

// Response is the transport-level view of an HTTP exchange. The body is fully
// read and the connection released before Response is returned, so callers may
// hold it as long as they like.
type Response struct {
	// Status is the HTTP status code.
	Status int

	// Header holds the response headers (case-insensitive access via
	// http.Header methods).
	Header http.Header

	// Body is the raw response body. Empty, never nil, for bodyless
	// responses.
	Body []byte

	// URL is the final request URL after any followed redirects.
	URL string
}

// ContentType returns the Content-Type header value, or "" if absent.
func (r *Response) ContentType() string {
	return r.Header.Get("Content-Type")
}

// Location returns the Location header value and whether it was present.
func (r *Response) Location() (string, bool) {
	loc := r.Header.Get("Location")
	return loc, loc != ""
}

// Requester is the contract the navigation core depends on.
//
// Implementations must return the raw response for mutating-method redirects
// (no transparent 3xx following) and must not retranslate transport failures;
// the core propagates them untouched.
type Requester interface {
	// Request performs one HTTP exchange. body may be nil for bodyless
	// methods. header entries override the requester's defaults key by key.
	Request(ctx context.Context, method, uri string, body []byte, header http.Header) (*Response, error)
}

// -----------------------------------------------------------------------------
// Credentials
// -----------------------------------------------------------------------------

// Credential attaches authentication to an outgoing request. The core treats
// credentials as opaque: it only forwards them here, never inspects them.
type Credential interface {
	Apply(req *http.Request) error
}

// BasicAuth is a username/password credential.
type BasicAuth struct {
	Username string
	Password string
}

// Apply sets the Authorization header using HTTP basic auth.
func (b BasicAuth) Apply(req *http.Request) error {
	req.SetBasicAuth(b.Username, b.Password)
	return nil
}

// BearerToken is an OAuth-style bearer token credential.
type BearerToken string

// Apply sets the Authorization header with the bearer scheme.
func (t BearerToken) Apply(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+string(t))
	return nil
}

// -----------------------------------------------------------------------------
// Client
// -----------------------------------------------------------------------------

// Config configures the default Client.
type Config struct {
	// HTTPClient is the underlying client. Its redirect policy is replaced
	// so the core sees raw 3xx responses for mutating methods.
	// Default: a fresh client with DefaultTimeout.
	HTTPClient *http.Client

	// Credential is forwarded on every request. May be nil.
	Credential Credential

	// Headers are extra default headers merged into every request.
	Headers http.Header

	// UserAgent overrides DefaultUserAgent.
	UserAgent string

	// Logger receives a debug line per request. Default: slog.Default().
	Logger *slog.Logger
}

// Client is the default Requester over net/http.
//
// Client is safe for concurrent use. The credential may be swapped at runtime
// with SetCredential; in-flight requests keep the credential they started
// with.
type Client struct {
	http    *http.Client
	headers http.Header
	agent   string
	log     *slog.Logger

	mu   sync.RWMutex
	cred Credential
}

// New creates a Client from config, filling defaults for zero fields.
func New(config Config) *Client {
	base := config.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: DefaultTimeout}
	}
	// Shallow-copy so the caller's client keeps its own redirect policy.
	owned := *base
	owned.CheckRedirect = checkRedirect

	agent := config.UserAgent
	if agent == "" {
		agent = DefaultUserAgent
	}
	log := config.Logger
	if log == nil {
		log = slog.Default()
	}
	headers := make(http.Header)
	for k, vs := range config.Headers {
		for _, v := range vs {
			headers.Add(k, v)
		}
	}
	return &Client{
		http:    &owned,
		headers: headers,
		agent:   agent,
		log:     log,
		cred:    config.Credential,
	}
}

// SetCredential replaces the credential used for subsequent requests.
func (c *Client) SetCredential(cred Credential) {
	c.mu.Lock()
	c.cred = cred
	c.mu.Unlock()
}

// checkRedirect follows redirect chains only for safe methods. Mutating
// methods surface the raw 3xx so the core can read its Location header.
func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	switch via[0].Method {
	case http.MethodGet, http.MethodHead:
		return nil
	default:
		return http.ErrUseLastResponse
	}
}

// Request implements Requester.
func (c *Client) Request(ctx context.Context, method, uri string, body []byte, header http.Header) (*Response, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, uri, reader)
	if err != nil {
		return nil, fmt.Errorf("building %s request for %s: %w", method, uri, err)
	}

	req.Header.Set("Accept", DefaultAccept)
	req.Header.Set("User-Agent", c.agent)
	for k, vs := range c.headers {
		req.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}
	for k, vs := range header {
		req.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}
	if req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", uuid.NewString())
	}

	c.mu.RLock()
	cred := c.cred
	c.mu.RUnlock()
	if cred != nil {
		if err := cred.Apply(req); err != nil {
			return nil, fmt.Errorf("applying credential: %w", err)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body from %s: %w", uri, err)
	}

	c.log.Debug("request completed",
		"method", method,
		"url", uri,
		"status", resp.StatusCode,
		"bytes", len(data),
		"duration_ms", time.Since(start).Milliseconds(),
		"request_id", req.Header.Get("X-Request-ID"),
	)

	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   data,
		URL:    resp.Request.URL.String(),
	}, nil
}
