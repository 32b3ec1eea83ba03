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

import "testing"

func TestLinkProperties(t *testing.T) {
	link := NewLink("http://example.com/users/1", map[string]any{
		"title":   "Alice",
		"type":    "application/hal+json",
		"profile": "http://example.com/profiles/user",
	})

	if got := link.URI(); got != "http://example.com/users/1" {
		t.Errorf("URI = %q", got)
	}
	if got := link.Title(); got != "Alice" {
		t.Errorf("Title = %q, want Alice", got)
	}
	if got := link.Type(); got != "application/hal+json" {
		t.Errorf("Type = %q", got)
	}
	if got := link.Profile(); got != "http://example.com/profiles/user" {
		t.Errorf("Profile = %q", got)
	}
	if _, ok := link.Property("missing"); ok {
		t.Error("Property(missing) reported present")
	}
}

func TestLinkIsImmutable(t *testing.T) {
	props := map[string]any{"title": "original"}
	link := NewLink("http://example.com/", props)

	// Mutating the source map must not reach the link.
	props["title"] = "mutated"
	if got := link.Title(); got != "original" {
		t.Errorf("Title after source mutation = %q, want original", got)
	}

	// Mutating a Properties snapshot must not reach the link either.
	snapshot := link.Properties()
	snapshot["title"] = "mutated"
	if got := link.Title(); got != "original" {
		t.Errorf("Title after snapshot mutation = %q, want original", got)
	}
}

func TestLinkWithCopiesOnWrite(t *testing.T) {
	link := NewLink("http://example.com/", map[string]any{"title": "home"})
	derived := link.with("type", "application/json")

	if got := link.Type(); got != "" {
		t.Errorf("original Type = %q, want empty", got)
	}
	if got := derived.Type(); got != "application/json" {
		t.Errorf("derived Type = %q", got)
	}
	if got := derived.Title(); got != "home" {
		t.Errorf("derived Title = %q, want home", got)
	}
}

func TestLinkRelativeURI(t *testing.T) {
	link := NewLink("http://example.com/users/1", nil)
	if got := link.RelativeURI("http://example.com"); got != "/users/1" {
		t.Errorf("RelativeURI = %q, want /users/1", got)
	}
}
