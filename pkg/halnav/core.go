// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package halnav

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime"
	"sync"
	"weak"

	"github.com/AleutianAI/halnav/pkg/halnav/transport"
)

// APICore is the state shared by every navigator spawned from one API root:
// the root URL, the display name, the default CURIE prefix, the HTTP
// collaborator, and the identity map.
//
// The identity map guarantees one navigator per resource URI. Entries are
// weak references: once no caller holds a navigator, the garbage collector
// reclaims it and a cleanup removes the map entry, so traversing unbounded or
// cyclic graphs (a `next` chain looping back to page one) does not grow the
// map forever.
type APICore struct {
	root         string
	apiName      string
	defaultCurie string
	requester    transport.Requester
	headers      http.Header
	log          *slog.Logger
	viewer       DocsViewer

	mu       sync.Mutex
	identity map[string]weak.Pointer[Navigator]
}

// Root returns the fixed API root URL.
func (c *APICore) Root() string { return c.root }

// Name returns the API display name.
func (c *APICore) Name() string { return c.apiName }

// DefaultCurie returns the configured default CURIE prefix, or "".
func (c *APICore) DefaultCurie() string { return c.defaultCurie }

// Authenticate swaps the credential forwarded with future requests. It
// requires the configured Requester to support credential swapping (the
// default transport.Client does; decorators hide it).
func (c *APICore) Authenticate(cred transport.Credential) error {
	type credentialSetter interface {
		SetCredential(transport.Credential)
	}
	if setter, ok := c.requester.(credentialSetter); ok {
		setter.SetCredential(cred)
		return nil
	}
	return errors.New("configured transport does not support credential swapping")
}

// -----------------------------------------------------------------------------
// Identity Map
// -----------------------------------------------------------------------------

// cached returns the live navigator for uri, or nil. Dead entries are pruned
// on the way.
func (c *APICore) cached(uri string) *Navigator {
	c.mu.Lock()
	defer c.mu.Unlock()
	if wp, ok := c.identity[uri]; ok {
		if nav := wp.Value(); nav != nil {
			return nav
		}
		delete(c.identity, uri)
	}
	return nil
}

// intern inserts nav if its URI is absent, else returns the existing
// navigator. This is the one atomic primitive the identity invariant needs:
// two concurrent traversals reaching the same URI race here, and exactly one
// navigator wins.
func (c *APICore) intern(nav *Navigator) *Navigator {
	uri := nav.URI()
	c.mu.Lock()
	defer c.mu.Unlock()
	if wp, ok := c.identity[uri]; ok {
		if existing := wp.Value(); existing != nil {
			return existing
		}
	}
	c.identity[uri] = weak.Make(nav)
	// The cleanup must not capture nav itself or it would never run.
	runtime.AddCleanup(nav, c.sweep, uri)
	return nav
}

// sweep drops the identity-map entry for uri if its navigator has been
// collected. A fresh navigator may have taken the slot in the meantime; only
// dead entries are removed.
func (c *APICore) sweep(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if wp, ok := c.identity[uri]; ok && wp.Value() == nil {
		delete(c.identity, uri)
	}
}

// materialize returns the identity-mapped navigator for link's URI, creating
// an unresolved one when the URI is new.
func (c *APICore) materialize(link *Link) *Navigator {
	if nav := c.cached(link.URI()); nav != nil {
		return nav
	}
	return c.intern(newNavigator(c, link))
}

// -----------------------------------------------------------------------------
// Construction
// -----------------------------------------------------------------------------

type options struct {
	apiName      string
	defaultCurie string
	headers      http.Header
	credential   transport.Credential
	requester    transport.Requester
	httpClient   *http.Client
	log          *slog.Logger
	viewer       DocsViewer
}

// Option customizes New.
type Option func(*options)

// WithAPIName overrides the Namify-derived display name.
func WithAPIName(name string) Option {
	return func(o *options) { o.apiName = name }
}

// WithDefaultCurie sets the CURIE prefix tried when a bare relation lookup
// misses.
func WithDefaultCurie(prefix string) Option {
	return func(o *options) { o.defaultCurie = prefix }
}

// WithHeaders adds default headers to every request.
func WithHeaders(headers http.Header) Option {
	return func(o *options) { o.headers = headers }
}

// WithCredential attaches an opaque credential. The core never inspects it;
// it is forwarded to the transport per request.
func WithCredential(cred transport.Credential) Option {
	return func(o *options) { o.credential = cred }
}

// WithRequester replaces the HTTP collaborator entirely. Use this to stack
// transport decorators (retry, rate limit, metrics, tracing) or to plug in a
// fake for tests.
func WithRequester(requester transport.Requester) Option {
	return func(o *options) { o.requester = requester }
}

// WithHTTPClient supplies the underlying http.Client for the default
// transport. Ignored when WithRequester is used.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithDocsViewer sets the collaborator DocsFor hands resolved documentation
// URLs to. Default: BrowserViewer.
func WithDocsViewer(viewer DocsViewer) Option {
	return func(o *options) { o.viewer = viewer }
}

// New creates the root navigator for an API. The scheme defaults to http://
// when omitted; non-http(s) schemes are rejected with a SchemeError.
func New(root string, opts ...Option) (*Navigator, error) {
	fixed, err := FixScheme(root)
	if err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.apiName == "" {
		o.apiName = Namify(fixed)
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	if o.viewer == nil {
		o.viewer = &BrowserViewer{}
	}

	core := &APICore{
		root:         fixed,
		apiName:      o.apiName,
		defaultCurie: o.defaultCurie,
		log:          o.log,
		viewer:       o.viewer,
		identity:     make(map[string]weak.Pointer[Navigator]),
	}
	if o.requester != nil {
		core.requester = o.requester
		core.headers = o.headers
	} else {
		core.requester = transport.New(transport.Config{
			HTTPClient: o.httpClient,
			Credential: o.credential,
			Headers:    o.headers,
			Logger:     o.log,
		})
	}

	return core.materialize(NewLink(fixed, nil)), nil
}
