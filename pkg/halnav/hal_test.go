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

func TestJSONMediaType(t *testing.T) {
	cases := []struct {
		contentType string
		want        bool
	}{
		{"application/json", true},
		{"application/hal+json", true},
		{"application/hal+json; charset=utf-8", true},
		{"application/vnd.example.v2+json", true},
		{"text/html", false},
		{"text/plain; charset=utf-8", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := jsonMediaType(tc.contentType); got != tc.want {
			t.Errorf("jsonMediaType(%q) = %v, want %v", tc.contentType, got, tc.want)
		}
	}
}

func TestBuildGraphRejectsMalformedLinks(t *testing.T) {
	nav, err := New("http://api.test", WithAPIName("T"), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	core := nav.Core()

	cases := []struct {
		name string
		body string
	}{
		{"link without href", `{"_links": {"users": {"title": "no href"}}}`},
		{"link entry is a scalar", `{"_links": {"users": ["/users"]}}`},
		{"curie without name", `{"_links": {"curies": [{"href": "/docs/{rel}"}]}}`},
		{"embedded document is a scalar", `{"_embedded": {"items": [42]}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, err := decodeBody([]byte(tc.body))
			if err != nil {
				t.Fatalf("decodeBody failed: %v", err)
			}
			if _, err := buildGraph(core, nav, body, "http://api.test"); err == nil {
				t.Error("buildGraph accepted a malformed document")
			}
		})
	}
}

// A mid-parse failure must leave the navigator exactly as it was.
func TestIngestIsAtomic(t *testing.T) {
	srv := serveHAL(t, map[string]halDoc{
		"/": {body: `{"version": 1, "_links": {"self": {"href": "/"}, "a": {"href": "/a"}}}`},
	})
	nav := newTestNav(t, srv)
	if _, err := nav.Fetch(t.Context()); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	resp := nav.Response()
	resp.Body = []byte(`{"version": 2, "_links": {"bad": {"title": "no href"}}}`)
	if err := nav.ingest(resp); err == nil {
		t.Fatal("ingest accepted a malformed body")
	}

	state, err := nav.State(t.Context())
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	if state["version"] != float64(1) {
		t.Errorf("state[version] = %v, want the pre-failure value 1", state["version"])
	}
	links, err := nav.Links(t.Context())
	if err != nil {
		t.Fatalf("Links failed: %v", err)
	}
	if !links.Has("a") {
		t.Error("pre-failure links were lost")
	}
}

func TestDeepCopyState(t *testing.T) {
	original := map[string]any{
		"scalar": "x",
		"nested": map[string]any{"n": float64(1)},
		"list":   []any{map[string]any{"m": "y"}},
	}
	snapshot := deepCopyState(original)

	snapshot["nested"].(map[string]any)["n"] = float64(2)
	snapshot["list"].([]any)[0].(map[string]any)["m"] = "z"

	if got := original["nested"].(map[string]any)["n"]; got != float64(1) {
		t.Errorf("nested value = %v after copy mutation, want 1", got)
	}
	if got := original["list"].([]any)[0].(map[string]any)["m"]; got != "y" {
		t.Errorf("list value = %v after copy mutation, want y", got)
	}
}
