// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

/*
Package halnav navigates HAL+JSON hypermedia APIs by following named link
relations instead of hand-building URLs.

# Problem Statement

REST clients usually hardcode URL patterns, which couples them to one
server's layout and breaks the moment the server reshapes its paths. HAL
(Hypertext Application Language) servers publish their layout in-band via
`_links` and `_embedded`; a client that follows relations needs only the root
URL.

# Model

	┌──────────────────────────────────────────────────────────────┐
	│                          APICore                             │
	│   root URL · default CURIE · HTTP collaborator · identity    │
	│   map (weak refs: one navigator per URI, no unbounded        │
	│   growth on cyclic graphs)                                   │
	└──────────────────────────────────────────────────────────────┘
	        ▲                 ▲                    ▲
	        │ shared          │                    │
	  ┌─────┴─────┐    ┌──────┴───────┐    ┌───────┴──────┐
	  │ Navigator │───▶│ LinkCollection│──▶│ TemplateThunk│
	  │ (resource)│    │ rel → entries │    │ (deferred)   │
	  └───────────┘    └──────────────┘    └──────────────┘

A Navigator is one addressable resource. It fetches lazily, ingests the HAL
body into state/links/embedded atomically, and spawns identity-mapped child
navigators for every link. Templated links become TemplateThunks, which
expand into concrete navigators once variables are bound.

# Usage

	root, err := halnav.New("api.example.com", halnav.WithDefaultCurie("ex"))
	if err != nil {
	    return err
	}

	// Follow relations.
	users, err := root.Follow(ctx, "users")

	// Traverse with filters, indices, and template bindings.
	res, err := root.Traverse(ctx,
	    halnav.Rel("users"),
	    halnav.Rel("search"),
	    halnav.Bind("q", "fred"),
	)
	nav, err := res.Navigator()

	// Read state (always an independent snapshot).
	state, err := nav.State(ctx)

	// Iterate a paginated collection.
	for page, err := range users.Pages(ctx) {
	    if err != nil {
	        return err
	    }
	    _ = page
	}

	// Create a subordinate resource.
	created, err := users.Create(ctx, map[string]any{"name": "fred"}, nil)

# Identity

Two traversals reaching the same absolute URI under one root return the same
*Navigator. The exceptions are template thunks (distinct until expanded) and
orphans (results of mutating requests without a Location header), which are
never cached. The identity map holds weak references, so navigators are
reclaimed once nothing outside the map holds them.

# Concurrency

Each network operation blocks until the round trip completes; there is no
request fan-out in the core. The identity map and the default transport are
safe for concurrent use, but a single Navigator must not be mutated from two
goroutines at once. Timeouts and cancellation belong to the transport
collaborator and the ctx passed into each call.

# Errors

Failures carry their context: *TraversalError records the instruction
sequence, failing index, and the chain of nodes reached; *HTTPError and
*NotJSONError retain the raw response. Transport failures pass through
untranslated. See errors.go for the full taxonomy.

# Related Packages

  - pkg/halnav/transport: the HTTP collaborator and its decorators (retry,
    rate limiting, metrics, tracing).
  - cmd/halnav: CLI front-end for interactive API browsing.
*/
package halnav
