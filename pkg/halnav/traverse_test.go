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
	"testing"
)

func TestFollow(t *testing.T) {
	srv := serveHAL(t, map[string]halDoc{
		"/": {body: `{"_links": {
			"self": {"href": "/"},
			"users": {"href": "/users"}
		}}`},
		"/users": {body: `{"_links": {
			"self": {"href": "/users"},
			"first": {"href": "/users/1"}
		}}`},
	})
	nav := newTestNav(t, srv)

	first, err := nav.Follow(t.Context(), "users", "first")
	if err != nil {
		t.Fatalf("Follow failed: %v", err)
	}
	if got, want := first.URI(), srv.URL+"/users/1"; got != want {
		t.Errorf("URI = %q, want %q", got, want)
	}
	if first.Resolved() {
		t.Error("final hop was fetched; only intermediate hops should be")
	}
}

func TestTraverseNoSuchRelation(t *testing.T) {
	srv := serveHAL(t, map[string]halDoc{
		"/": {body: `{"_links": {"self": {"href": "/"}}}`},
	})
	nav := newTestNav(t, srv)

	_, err := nav.Traverse(t.Context(), Rel("nope"))
	if !errors.Is(err, ErrNoSuchRelation) {
		t.Fatalf("err = %v, want ErrNoSuchRelation", err)
	}
	var travErr *TraversalError
	if !errors.As(err, &travErr) {
		t.Fatalf("err = %v, want *TraversalError", err)
	}
	if travErr.FailedAt != 0 {
		t.Errorf("FailedAt = %d, want 0", travErr.FailedAt)
	}
	if len(travErr.Steps) != 1 {
		t.Errorf("Steps = %v, want one step", travErr.Steps)
	}
	if len(travErr.Chain) != 1 || travErr.Chain[0] != Node(nav) {
		t.Errorf("Chain = %v, want just the start navigator", travErr.Chain)
	}
}

func TestTraverseMultiValued(t *testing.T) {
	srv := serveHAL(t, map[string]halDoc{
		"/": {body: `{"_links": {
			"self": {"href": "/"},
			"crew": [
				{"href": "/crew/1", "name": "kirk", "rank": "captain"},
				{"href": "/crew/2", "name": "spock", "rank": "commander"},
				{"href": "/crew/3", "name": "scotty", "rank": "commander"}
			]
		}}`},
	})
	nav := newTestNav(t, srv)

	t.Run("a bare hop returns all entries", func(t *testing.T) {
		res, err := nav.Traverse(t.Context(), Rel("crew"))
		if err != nil {
			t.Fatalf("Traverse failed: %v", err)
		}
		if !res.Many() || res.Len() != 3 {
			t.Fatalf("Len = %d, want 3", res.Len())
		}
		if _, err := res.Navigator(); !errors.Is(err, ErrManyResults) {
			t.Errorf("Navigator error = %v, want ErrManyResults", err)
		}
	})

	t.Run("Where selects by link metadata", func(t *testing.T) {
		res, err := nav.Traverse(t.Context(), Rel("crew"), Where("name", "spock"))
		if err != nil {
			t.Fatalf("Traverse failed: %v", err)
		}
		spock, err := res.Navigator()
		if err != nil {
			t.Fatalf("Navigator failed: %v", err)
		}
		if got, want := spock.URI(), srv.URL+"/crew/2"; got != want {
			t.Errorf("URI = %q, want %q", got, want)
		}
	})

	t.Run("At selects by position", func(t *testing.T) {
		res, err := nav.Traverse(t.Context(), Rel("crew"), At(0))
		if err != nil {
			t.Fatalf("Traverse failed: %v", err)
		}
		kirk, err := res.Navigator()
		if err != nil {
			t.Fatalf("Navigator failed: %v", err)
		}
		if got, want := kirk.URI(), srv.URL+"/crew/1"; got != want {
			t.Errorf("URI = %q, want %q", got, want)
		}
	})

	t.Run("At out of range carries position diagnostics", func(t *testing.T) {
		_, err := nav.Traverse(t.Context(), Rel("crew"), At(7))
		if !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("err = %v, want ErrIndexOutOfRange", err)
		}
		var travErr *TraversalError
		if !errors.As(err, &travErr) {
			t.Fatalf("err = %v, want *TraversalError", err)
		}
		if travErr.FailedAt != 1 {
			t.Errorf("FailedAt = %d, want 1", travErr.FailedAt)
		}
	})

	t.Run("hopping off an unselected list is ambiguous", func(t *testing.T) {
		_, err := nav.Traverse(t.Context(), Rel("crew"), Rel("ship"))
		if !errors.Is(err, ErrAmbiguousHop) {
			t.Errorf("err = %v, want ErrAmbiguousHop", err)
		}
	})
}

func TestTraverseMarkersConflict(t *testing.T) {
	srv := serveHAL(t, map[string]halDoc{"/": {body: `{}`}})
	nav := newTestNav(t, srv)

	_, err := nav.Traverse(t.Context(), Rel("search"), Expand(), KeepTemplated())
	if !errors.Is(err, ErrTraversalSyntax) {
		t.Errorf("err = %v, want ErrTraversalSyntax", err)
	}
}

func TestTraverseTemplated(t *testing.T) {
	srv := serveHAL(t, map[string]halDoc{
		"/": {body: `{"_links": {
			"self": {"href": "/"},
			"search": {"href": "/search{?q}", "templated": true},
			"users": {"href": "/users"}
		}}`},
	})
	nav := newTestNav(t, srv)

	t.Run("a bare traversal returns the thunk", func(t *testing.T) {
		res, err := nav.Traverse(t.Context(), Rel("search"))
		if err != nil {
			t.Fatalf("Traverse failed: %v", err)
		}
		thunk, err := res.Thunk()
		if err != nil {
			t.Fatalf("Thunk failed: %v", err)
		}
		if got, want := thunk.TargetURI(), srv.URL+"/search{?q}"; got != want {
			t.Errorf("TargetURI = %q, want %q", got, want)
		}
		if _, err := res.Navigator(); !errors.Is(err, ErrAmbiguousNavigation) {
			t.Errorf("Navigator error = %v, want ErrAmbiguousNavigation", err)
		}
	})

	t.Run("bindings expand the final link", func(t *testing.T) {
		res, err := nav.Traverse(t.Context(), Rel("search"), Bind("q", "gold"))
		if err != nil {
			t.Fatalf("Traverse failed: %v", err)
		}
		found, err := res.Navigator()
		if err != nil {
			t.Fatalf("Navigator failed: %v", err)
		}
		if got, want := found.URI(), srv.URL+"/search?q=gold"; got != want {
			t.Errorf("URI = %q, want %q", got, want)
		}
	})

	t.Run("KeepTemplated binds without expanding", func(t *testing.T) {
		res, err := nav.Traverse(t.Context(), Rel("search"), Bind("q", "gold"), KeepTemplated())
		if err != nil {
			t.Fatalf("Traverse failed: %v", err)
		}
		thunk, err := res.Thunk()
		if err != nil {
			t.Fatalf("Thunk failed: %v", err)
		}
		if got := thunk.Bound()["q"]; got != "gold" {
			t.Errorf("Bound[q] = %v, want gold", got)
		}
	})

	t.Run("expanding a concrete link fails past the last step", func(t *testing.T) {
		steps := []Step{Rel("users"), Expand()}
		_, err := nav.Traverse(t.Context(), steps...)
		if !errors.Is(err, ErrNotTemplated) {
			t.Fatalf("err = %v, want ErrNotTemplated", err)
		}
		var travErr *TraversalError
		if !errors.As(err, &travErr) {
			t.Fatalf("err = %v, want *TraversalError", err)
		}
		if travErr.FailedAt != len(steps) {
			t.Errorf("FailedAt = %d, want %d for an expansion failure", travErr.FailedAt, len(steps))
		}
	})
}

func TestTraverseEmbeddedWinsOverLinks(t *testing.T) {
	srv := serveHAL(t, map[string]halDoc{
		"/": {body: `{
			"_links": {
				"self": {"href": "/"},
				"item": {"href": "/from-links"}
			},
			"_embedded": {
				"item": {
					"size": 3,
					"_links": {"self": {"href": "/from-embedded"}}
				}
			}
		}`},
	})
	nav := newTestNav(t, srv)

	item, err := nav.Follow(t.Context(), "item")
	if err != nil {
		t.Fatalf("Follow failed: %v", err)
	}
	if got, want := item.URI(), srv.URL+"/from-embedded"; got != want {
		t.Errorf("URI = %q, want the embedded entry %q", got, want)
	}
	// Pre-seeded from the embedded document; the server never served it.
	if !item.Resolved() {
		t.Error("embedded navigator not pre-seeded")
	}
	state, err := item.State(t.Context())
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	if state["size"] != float64(3) {
		t.Errorf("state[size] = %v, want 3", state["size"])
	}
}

func TestTraverseEmbeddedOrphan(t *testing.T) {
	srv := serveHAL(t, map[string]halDoc{
		"/": {body: `{"_embedded": {
			"note": {"text": "no self link here"}
		}}`},
	})
	nav := newTestNav(t, srv)

	res, err := nav.Traverse(t.Context(), Rel("note"))
	if err != nil {
		t.Fatalf("Traverse failed: %v", err)
	}
	note, err := res.Navigator()
	if err != nil {
		t.Fatalf("Navigator failed: %v", err)
	}
	if !note.Orphan() {
		t.Fatal("embedded document without self link is not an orphan")
	}
	if note.Parent() != nav {
		t.Error("orphan parent is not the enclosing navigator")
	}
	state, err := note.State(t.Context())
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	if state["text"] != "no self link here" {
		t.Errorf("state[text] = %v", state["text"])
	}
}

func TestTraverseDefaultCurie(t *testing.T) {
	srv := serveHAL(t, map[string]halDoc{
		"/": {body: `{"_links": {
			"self": {"href": "/"},
			"curies": [{"name": "ex", "href": "/docs/{rel}", "templated": true}],
			"ex:widgets": {"href": "/widgets"},
			"next": {"href": "/literal-next"},
			"ex:next": {"href": "/curied-next"}
		}}`},
	})
	nav := newTestNav(t, srv, WithDefaultCurie("ex"))

	widgets, err := nav.Follow(t.Context(), "widgets")
	if err != nil {
		t.Fatalf("Follow(widgets) failed: %v", err)
	}
	if got, want := widgets.URI(), srv.URL+"/widgets"; got != want {
		t.Errorf("URI = %q, want %q", got, want)
	}

	// A standard relation is never shadowed by the default-curie guess.
	next, err := nav.Follow(t.Context(), "next")
	if err != nil {
		t.Fatalf("Follow(next) failed: %v", err)
	}
	if got, want := next.URI(), srv.URL+"/literal-next"; got != want {
		t.Errorf("URI = %q, want %q", got, want)
	}
}

func TestTraverseSingleElementArray(t *testing.T) {
	// Collection relations commonly arrive as a JSON array even when they
	// currently hold one member; filters and indexing must keep working.
	srv := serveHAL(t, map[string]halDoc{
		"/": {body: `{"_links": {
			"self": {"href": "/"},
			"crew": [
				{"href": "/crew/1", "name": "kirk", "rank": "captain"}
			]
		}, "_embedded": {
			"officers": [
				{"rank": "captain", "_links": {"self": {"href": "/crew/1", "name": "kirk"}}}
			]
		}}`},
	})
	nav := newTestNav(t, srv)

	t.Run("Where selects from a one-element array", func(t *testing.T) {
		res, err := nav.Traverse(t.Context(), Rel("crew"), Where("name", "kirk"))
		if err != nil {
			t.Fatalf("Traverse failed: %v", err)
		}
		kirk, err := res.Navigator()
		if err != nil {
			t.Fatalf("Navigator failed: %v", err)
		}
		if got, want := kirk.URI(), srv.URL+"/crew/1"; got != want {
			t.Errorf("URI = %q, want %q", got, want)
		}
	})

	t.Run("At indexes a one-element array", func(t *testing.T) {
		res, err := nav.Traverse(t.Context(), Rel("crew"), At(0))
		if err != nil {
			t.Fatalf("Traverse failed: %v", err)
		}
		first, err := res.Navigator()
		if err != nil {
			t.Fatalf("Navigator failed: %v", err)
		}
		if got, want := first.URI(), srv.URL+"/crew/1"; got != want {
			t.Errorf("URI = %q, want %q", got, want)
		}
	})

	t.Run("a bare hop still yields the sole entry", func(t *testing.T) {
		res, err := nav.Traverse(t.Context(), Rel("crew"))
		if err != nil {
			t.Fatalf("Traverse failed: %v", err)
		}
		if res.Many() {
			t.Errorf("Many = true, want false for a single entry")
		}
		if _, err := res.Navigator(); err != nil {
			t.Errorf("Navigator failed: %v", err)
		}
	})

	t.Run("embedded one-element arrays keep list shape", func(t *testing.T) {
		res, err := nav.Traverse(t.Context(), Rel("officers"), Where("name", "kirk"))
		if err != nil {
			t.Fatalf("Traverse failed: %v", err)
		}
		captain, err := res.Navigator()
		if err != nil {
			t.Fatalf("Navigator failed: %v", err)
		}
		if got, want := captain.URI(), srv.URL+"/crew/1"; got != want {
			t.Errorf("URI = %q, want %q", got, want)
		}
	})
}
