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
	"fmt"
	"strings"

	"github.com/AleutianAI/halnav/pkg/halnav/transport"
)

// -----------------------------------------------------------------------------
// Sentinels
// -----------------------------------------------------------------------------

var (
	// ErrAmbiguousNavigation is returned when an operation needs a concrete
	// URI but the target is still an unexpanded URI template. Bind the
	// template variables (Bind/Expand) before fetching.
	ErrAmbiguousNavigation = errors.New("templated link requires variable bindings before it can be fetched")

	// ErrTraversalSyntax is returned when a traversal mixes conflicting
	// template markers (Expand and KeepTemplated in the same call).
	ErrTraversalSyntax = errors.New("conflicting traversal markers: Expand and KeepTemplated cannot be combined")

	// ErrNoSuchRelation is returned when a relation is absent from both the
	// embedded and link collections of a resolved resource.
	ErrNoSuchRelation = errors.New("no such link relation")

	// ErrNotFound is returned when a Where filter matches no entry.
	ErrNotFound = errors.New("no link entry matches the property filter")

	// ErrIndexOutOfRange is returned when an At step indexes past the end of
	// a link list.
	ErrIndexOutOfRange = errors.New("link index out of range")

	// ErrNotTemplated is returned when template bindings or markers are
	// applied to a link that is not a URI template.
	ErrNotTemplated = errors.New("link is not templated and cannot be expanded")

	// ErrAmbiguousHop is returned when a relation hop is applied to a
	// multi-valued entry. Disambiguate with At or Where first.
	ErrAmbiguousHop = errors.New("relation is multi-valued; select one entry with At or Where")

	// ErrManyResults is returned by Result accessors that expect a single
	// node when the traversal ended on a multi-valued relation.
	ErrManyResults = errors.New("traversal produced multiple nodes")
)

// -----------------------------------------------------------------------------
// Typed Errors
// -----------------------------------------------------------------------------

// SchemeError reports a root URL with an unsupported or duplicated scheme.
type SchemeError struct {
	// URL is the offending root URL.
	URL string

	// Scheme is the scheme that was rejected ("" when the URL carried more
	// than one scheme marker).
	Scheme string
}

func (e *SchemeError) Error() string {
	if e.Scheme == "" {
		return fmt.Sprintf("too many scheme markers in %q", e.URL)
	}
	return fmt.Sprintf("unsupported scheme %q in %q (expected http or https)", e.Scheme, e.URL)
}

// NotJSONError reports a response body that failed to decode as JSON. The raw
// response is retained for diagnostics.
type NotJSONError struct {
	// URI is the resource that produced the body.
	URI string

	// Response is the raw transport response.
	Response *transport.Response

	// Err is the decoder error.
	Err error
}

func (e *NotJSONError) Error() string {
	return fmt.Sprintf("the resource at %s was not valid JSON: %v", e.URI, e.Err)
}

func (e *NotJSONError) Unwrap() error { return e.Err }

// ContentTypeError reports a response whose declared content type does not
// match the navigator's Accept expectation.
type ContentTypeError struct {
	// URI is the resource that answered.
	URI string

	// Got is the Content-Type the server declared.
	Got string

	// Want is the Accept expectation that was violated.
	Want string
}

func (e *ContentTypeError) Error() string {
	return fmt.Sprintf("the resource at %s answered with content type %q, want %q", e.URI, e.Got, e.Want)
}

// HTTPError reports a 4xx/5xx status from a request the caller asked to be
// checked. The navigator and raw response remain inspectable.
type HTTPError struct {
	// Nav is the navigator the request was issued from.
	Nav *Navigator

	// Status is the HTTP status code.
	Status int

	// Response is the raw transport response, body included.
	Response *transport.Response
}

func (e *HTTPError) Error() string {
	uri := "<orphan>"
	if e.Nav != nil && e.Nav.URI() != "" {
		uri = e.Nav.URI()
	}
	return fmt.Sprintf("HTTP %d from %s", e.Status, uri)
}

// UnsupportedOperationError reports an operation that an orphan navigator can
// never perform. Orphans have no canonical URI: inspect Parent() or the
// ingested Links() instead.
type UnsupportedOperationError struct {
	// Op names the rejected operation ("fetch", "create", ...).
	Op string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("cannot %s an orphan navigator: it has no canonical URI; use Parent() or Links() instead", e.Op)
}

// TraversalError wraps any failure during a multi-step Traverse call. It
// records the full instruction sequence, the index of the failing step, and
// the chain of nodes reached before the failure, so callers get a complete
// trace of what happened before the walk broke.
type TraversalError struct {
	// Steps is the full normalized instruction sequence.
	Steps []Step

	// FailedAt is the index into Steps of the failing instruction. It equals
	// len(Steps) when the failure happened during final template expansion.
	FailedAt int

	// Chain holds the starting navigator plus every node a completed step
	// landed on, in order.
	Chain []Node

	// Err is the underlying cause.
	Err error
}

func (e *TraversalError) Error() string {
	var steps []string
	for _, s := range e.Steps {
		steps = append(steps, s.String())
	}
	return fmt.Sprintf("traversal [%s] failed at step %d after %d nodes: %v",
		strings.Join(steps, " "), e.FailedAt, len(e.Chain), e.Err)
}

func (e *TraversalError) Unwrap() error { return e.Err }
