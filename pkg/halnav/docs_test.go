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

// recordingViewer captures opened URLs instead of launching a browser.
type recordingViewer struct {
	opened []string
}

func (v *recordingViewer) Open(url string) error {
	v.opened = append(v.opened, url)
	return nil
}

func docsFixture() map[string]halDoc {
	return map[string]halDoc{
		"/": {body: `{"_links": {
			"self": {"href": "/"},
			"curies": [{"name": "ex", "href": "/docs/{rel}", "templated": true}],
			"ex:widgets": {"href": "/widgets"}
		}}`},
	}
}

func TestDocsFor(t *testing.T) {
	t.Run("curie-prefixed relation expands the doc template", func(t *testing.T) {
		srv := serveHAL(t, docsFixture())
		viewer := &recordingViewer{}
		nav := newTestNav(t, srv, WithDocsViewer(viewer))

		url, err := nav.DocsFor(t.Context(), "ex:widgets")
		if err != nil {
			t.Fatalf("DocsFor failed: %v", err)
		}
		if want := srv.URL + "/docs/widgets"; url != want {
			t.Errorf("url = %q, want %q", url, want)
		}
		if len(viewer.opened) != 1 || viewer.opened[0] != url {
			t.Errorf("viewer opened %v, want [%s]", viewer.opened, url)
		}
	})

	t.Run("bare relation tries the default curie prefix", func(t *testing.T) {
		srv := serveHAL(t, docsFixture())
		viewer := &recordingViewer{}
		nav := newTestNav(t, srv, WithDocsViewer(viewer), WithDefaultCurie("ex"))

		url, err := nav.DocsFor(t.Context(), "widgets")
		if err != nil {
			t.Fatalf("DocsFor failed: %v", err)
		}
		if want := srv.URL + "/docs/widgets"; url != want {
			t.Errorf("url = %q, want %q", url, want)
		}
	})

	t.Run("unknown prefix falls back to the relation as a URL", func(t *testing.T) {
		srv := serveHAL(t, docsFixture())
		viewer := &recordingViewer{}
		nav := newTestNav(t, srv, WithDocsViewer(viewer))

		url, err := nav.DocsFor(t.Context(), "http://elsewhere.example.com/doc")
		if err != nil {
			t.Fatalf("DocsFor failed: %v", err)
		}
		if url != "http://elsewhere.example.com/doc" {
			t.Errorf("url = %q, want the relation itself", url)
		}
	})
}

func TestNopViewer(t *testing.T) {
	var v NopViewer
	if err := v.Open("http://example.com/docs"); err != nil {
		t.Errorf("NopViewer.Open returned %v", err)
	}
}
