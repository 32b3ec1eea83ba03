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
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"strings"

	"github.com/yosida95/uritemplate/v3"

	"github.com/AleutianAI/halnav/pkg/halnav/transport"
)

// navKind distinguishes the navigator variants. Template-pending links are a
// separate type (TemplateThunk), so fetching one is impossible by
// construction rather than a runtime check.
type navKind int

const (
	// navNormal is an addressable resource with a canonical URI.
	navNormal navKind = iota

	// navOrphan is the result of a non-idempotent operation with no
	// Location: it has no canonical URI, never enters the identity map, and
	// can never be fetched.
	navOrphan
)

// Navigator represents one addressable HAL resource. It starts unresolved
// and lazily fetches on first access; ingestion rebuilds state, links,
// embedded, and curies wholesale, never partially.
//
// Navigators are created by New (the root) or by link/embedded resolution
// during ingestion (descendants); all of them share one APICore, so two
// navigators with the same URI under the same core are the same object
// unless one is an orphan.
//
// A Navigator is not safe for concurrent mutation; issue requests from one
// goroutine at a time. The identity map underneath is concurrency-safe.
type Navigator struct {
	core   *APICore
	kind   navKind
	self   *Link
	parent *Navigator

	resolved bool
	response *transport.Response
	state    map[string]any
	links    *LinkCollection
	embedded *LinkCollection
	curies   map[string]string
}

func newNavigator(core *APICore, link *Link) *Navigator {
	return &Navigator{core: core, kind: navNormal, self: link}
}

func newOrphanNavigator(core *APICore, parent *Navigator, resp *transport.Response) *Navigator {
	return &Navigator{core: core, kind: navOrphan, parent: parent, response: resp}
}

// TargetURI implements Node.
func (n *Navigator) TargetURI() string { return n.URI() }

func (n *Navigator) node() {}

// -----------------------------------------------------------------------------
// Accessors
// -----------------------------------------------------------------------------

// URI returns the canonical resource URI, or "" for an orphan.
func (n *Navigator) URI() string { return n.self.URI() }

// RelativeURI returns the URI with the API root stripped, for display.
func (n *Navigator) RelativeURI() string {
	return relativeTo(n.core.root, n.URI())
}

// SelfLink returns the navigator's self link. Nil only for orphans.
func (n *Navigator) SelfLink() *Link { return n.self }

// Core returns the shared per-API state.
func (n *Navigator) Core() *APICore { return n.core }

// Resolved reports whether a body has been ingested.
func (n *Navigator) Resolved() bool { return n.resolved }

// Orphan reports whether this navigator is a non-addressable operation
// result.
func (n *Navigator) Orphan() bool { return n.kind == navOrphan }

// Parent returns the navigator an orphan hangs off, or nil.
func (n *Navigator) Parent() *Navigator { return n.parent }

// Response returns the last raw transport response, or nil before any
// request.
func (n *Navigator) Response() *transport.Response { return n.response }

// Status returns the last HTTP status code, or 0 before any request.
func (n *Navigator) Status() int {
	if n.response == nil {
		return 0
	}
	return n.response.Status
}

// String renders like "Navigator(ExampleAPI.users[42])".
func (n *Navigator) String() string {
	if n.kind == navOrphan {
		return fmt.Sprintf("Navigator(%s, orphan)", n.core.apiName)
	}
	var b strings.Builder
	for chunk := range strings.SplitSeq(n.RelativeURI(), "/") {
		switch {
		case chunk == "":
		case isDigits(chunk):
			fmt.Fprintf(&b, "[%s]", chunk)
		default:
			b.WriteString("." + chunk)
		}
	}
	return fmt.Sprintf("Navigator(%s%s)", n.core.apiName, b.String())
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// -----------------------------------------------------------------------------
// Fetch / State
// -----------------------------------------------------------------------------

// Fetch issues a GET unconditionally, re-ingests the body, and returns a
// state snapshot. A 4xx/5xx status is an *HTTPError (state stays ingested and
// inspectable on the navigator).
func (n *Navigator) Fetch(ctx context.Context) (map[string]any, error) {
	return n.fetch(ctx, true)
}

// FetchSilent is Fetch without status and parse checking: non-2xx/3xx
// statuses and unparseable bodies leave the state empty instead of failing.
// Transport-level failures still surface untranslated.
func (n *Navigator) FetchSilent(ctx context.Context) (map[string]any, error) {
	return n.fetch(ctx, false)
}

func (n *Navigator) fetch(ctx context.Context, strict bool) (map[string]any, error) {
	if n.kind == navOrphan {
		return nil, &UnsupportedOperationError{Op: "fetch"}
	}

	resp, err := n.request(ctx, http.MethodGet, nil, nil)
	if err != nil {
		return nil, err
	}
	n.response = resp

	if err := n.ingest(resp); err != nil {
		if strict {
			return nil, err
		}
		n.applyEmpty()
	}
	if strict && resp.Status >= 400 {
		return nil, &HTTPError{Nav: n, Status: resp.Status, Response: resp}
	}
	return deepCopyState(n.state), nil
}

// State returns a snapshot of the resource state, fetching first if the
// navigator is unresolved. Every call returns an independent copy: mutating
// one snapshot affects neither the navigator nor other snapshots.
func (n *Navigator) State(ctx context.Context) (map[string]any, error) {
	if !n.resolved {
		return n.Fetch(ctx)
	}
	return deepCopyState(n.state), nil
}

// OK reports whether the resource answers 2xx, fetching quietly if needed.
func (n *Navigator) OK(ctx context.Context) (bool, error) {
	if n.response == nil {
		if _, err := n.fetch(ctx, false); err != nil {
			return false, err
		}
	}
	return n.response.Status >= 200 && n.response.Status < 300, nil
}

// Links returns the link collection, fetching first if unresolved.
func (n *Navigator) Links(ctx context.Context) (*LinkCollection, error) {
	if err := n.ensureResolved(ctx); err != nil {
		return nil, err
	}
	return n.links, nil
}

// Embedded returns the embedded-resource collection, fetching first if
// unresolved.
func (n *Navigator) Embedded(ctx context.Context) (*LinkCollection, error) {
	if err := n.ensureResolved(ctx); err != nil {
		return nil, err
	}
	return n.embedded, nil
}

// Curies returns the CURIE prefix -> template map, fetching first if
// unresolved.
func (n *Navigator) Curies(ctx context.Context) (map[string]string, error) {
	if err := n.ensureResolved(ctx); err != nil {
		return nil, err
	}
	return maps.Clone(n.curies), nil
}

// Authenticate swaps the credential for all future requests to this API.
func (n *Navigator) Authenticate(cred transport.Credential) error {
	return n.core.Authenticate(cred)
}

func (n *Navigator) ensureResolved(ctx context.Context) error {
	if n.resolved {
		return nil
	}
	_, err := n.Fetch(ctx)
	return err
}

// request forwards one exchange to the HTTP collaborator.
func (n *Navigator) request(ctx context.Context, method string, body []byte, header http.Header) (*transport.Response, error) {
	merged := make(http.Header)
	for k, vs := range n.core.headers {
		merged[k] = vs
	}
	for k, vs := range header {
		merged[k] = vs
	}
	return n.core.requester.Request(ctx, method, n.URI(), body, merged)
}

// ingest parses resp and applies the resulting graph delta atomically. The
// navigator is left untouched when any stage fails.
func (n *Navigator) ingest(resp *transport.Response) error {
	if len(resp.Body) == 0 {
		n.applyEmpty()
		return nil
	}
	if ct := resp.ContentType(); !jsonMediaType(ct) {
		return &ContentTypeError{URI: n.URI(), Got: ct, Want: transport.DefaultAccept}
	}
	body, err := decodeBody(resp.Body)
	if err != nil {
		return &NotJSONError{URI: n.URI(), Response: resp, Err: err}
	}
	delta, err := buildGraph(n.core, n, body, n.URI())
	if err != nil {
		return err
	}
	n.apply(delta, resp.ContentType())
	return nil
}

// apply installs a fully built graph delta. The self link absorbs the body's
// own _links.self properties, then type is forced to the actual response
// content type: the self link reflects what the server returned, not what
// was requested.
func (n *Navigator) apply(delta *graphDelta, contentType string) {
	n.state = delta.state
	n.links = delta.links
	n.embedded = delta.embedded
	n.curies = delta.curies
	if n.self != nil {
		if len(delta.selfProps) > 0 {
			props := maps.Clone(delta.selfProps)
			delete(props, "href")
			n.self = n.self.withProperties(props)
		}
		if contentType != "" {
			n.self = n.self.with("type", contentType)
		}
	}
	n.resolved = true
}

// applyEmpty resolves the navigator with empty state and collections.
func (n *Navigator) applyEmpty() {
	n.apply(&graphDelta{
		state:    map[string]any{},
		links:    newLinkCollection(n.core.defaultCurie),
		embedded: newLinkCollection(n.core.defaultCurie),
	}, "")
}

// -----------------------------------------------------------------------------
// Mutating Requests
// -----------------------------------------------------------------------------

// Create POSTs body to this resource to create a subordinate one. The result
// is either a fresh unfetched navigator at the response's Location, or an
// orphan carrying the response body (see successor).
func (n *Navigator) Create(ctx context.Context, body any, header http.Header) (*Navigator, error) {
	return n.mutate(ctx, http.MethodPost, body, header)
}

// Update PUTs body to this resource.
func (n *Navigator) Update(ctx context.Context, body any) (*Navigator, error) {
	return n.mutate(ctx, http.MethodPut, body, nil)
}

// Patch PATCHes body to this resource.
func (n *Navigator) Patch(ctx context.Context, body any) (*Navigator, error) {
	return n.mutate(ctx, http.MethodPatch, body, nil)
}

// Delete DELETEs this resource.
func (n *Navigator) Delete(ctx context.Context) (*Navigator, error) {
	return n.mutate(ctx, http.MethodDelete, nil, nil)
}

func (n *Navigator) mutate(ctx context.Context, method string, body any, header http.Header) (*Navigator, error) {
	if n.kind == navOrphan {
		return nil, &UnsupportedOperationError{Op: strings.ToLower(method)}
	}

	payload, err := encodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("encoding %s body: %w", method, err)
	}
	merged := make(http.Header)
	for k, vs := range header {
		merged[k] = vs
	}
	if payload != nil && merged.Get("Content-Type") == "" {
		merged.Set("Content-Type", "application/json")
	}

	resp, err := n.request(ctx, method, payload, merged)
	if err != nil {
		return nil, err
	}
	if resp.Status >= 400 {
		return nil, &HTTPError{Nav: n, Status: resp.Status, Response: resp}
	}
	return n.successor(method, resp)
}

// successor decides what navigator a mutating response stands for:
//
//   - 201/302/303/204 with a Location header: a fresh identity-mapped
//     navigator at that Location, deliberately not pre-fetched.
//   - anything else: an orphan whose parent is this navigator, with the body
//     ingested when its content type allows, empty state otherwise.
func (n *Navigator) successor(method string, resp *transport.Response) (*Navigator, error) {
	switch resp.Status {
	case http.StatusCreated, http.StatusFound, http.StatusSeeOther, http.StatusNoContent:
		if loc, ok := resp.Location(); ok {
			uri, err := resolveRef(n.URI(), loc)
			if err != nil {
				return nil, fmt.Errorf("resolving Location %q from %s: %w", loc, method, err)
			}
			return n.core.materialize(NewLink(uri, nil)), nil
		}
	}

	orphan := newOrphanNavigator(n.core, n, resp)
	if len(resp.Body) > 0 && jsonMediaType(resp.ContentType()) {
		if body, err := decodeBody(resp.Body); err == nil {
			if delta, err := buildGraph(n.core, orphan, body, n.URI()); err == nil {
				orphan.apply(delta, resp.ContentType())
				return orphan, nil
			}
		}
	}
	orphan.applyEmpty()
	return orphan, nil
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		return json.Marshal(body)
	}
}

// -----------------------------------------------------------------------------
// Documentation Lookup
// -----------------------------------------------------------------------------

// DocsFor resolves the documentation URL for a link relation and hands it to
// the configured docs viewer. The relation's CURIE prefix selects the doc
// template; a bare relation tries the default CURIE prefix; a relation with
// no matching CURIE is treated as a URL itself.
func (n *Navigator) DocsFor(ctx context.Context, rel string) (string, error) {
	if err := n.ensureResolved(ctx); err != nil {
		return "", err
	}

	docURL := rel
	prefix, name, hasPrefix := strings.Cut(rel, ":")
	if !hasPrefix && n.core.defaultCurie != "" {
		prefix, name, hasPrefix = n.core.defaultCurie, rel, true
	}
	if hasPrefix {
		if raw, ok := n.curies[prefix]; ok {
			tmpl, err := uritemplate.New(raw)
			if err != nil {
				return "", fmt.Errorf("curie template for %q: %w", prefix, err)
			}
			expanded, err := tmpl.Expand(uritemplate.Values{
				"rel": uritemplate.String(name),
			})
			if err != nil {
				return "", fmt.Errorf("expanding curie template for %q: %w", prefix, err)
			}
			docURL = expanded
		}
	}

	n.core.log.Info("opening relation docs", "rel", rel, "url", docURL)
	return docURL, n.core.viewer.Open(docURL)
}
