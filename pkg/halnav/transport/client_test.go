// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package transport

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// headerRecorder remembers the headers of the last request it served.
type headerRecorder struct {
	mu     sync.Mutex
	header http.Header
}

func (h *headerRecorder) record(r *http.Request) {
	h.mu.Lock()
	h.header = r.Header.Clone()
	h.mu.Unlock()
}

func (h *headerRecorder) get(key string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.header.Get(key)
}

func TestClientDefaults(t *testing.T) {
	rec := &headerRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		w.Header().Set("Content-Type", "application/hal+json")
		_, _ = io.WriteString(w, `{}`)
	}))
	t.Cleanup(srv.Close)

	client := New(Config{Logger: quietLogger()})
	resp, err := client.Request(t.Context(), http.MethodGet, srv.URL, nil, nil)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	if resp.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200", resp.Status)
	}
	if got := resp.ContentType(); got != "application/hal+json" {
		t.Errorf("ContentType = %q", got)
	}
	if got := rec.get("Accept"); got != DefaultAccept {
		t.Errorf("Accept = %q, want %q", got, DefaultAccept)
	}
	if got := rec.get("User-Agent"); got != DefaultUserAgent {
		t.Errorf("User-Agent = %q, want %q", got, DefaultUserAgent)
	}
	if rec.get("X-Request-ID") == "" {
		t.Error("X-Request-ID not set")
	}
}

func TestClientHeaderPrecedence(t *testing.T) {
	rec := &headerRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
	}))
	t.Cleanup(srv.Close)

	client := New(Config{
		Logger:  quietLogger(),
		Headers: http.Header{"X-Tenant": []string{"alpha"}, "Accept": []string{"application/json"}},
	})

	// Config headers override built-in defaults.
	if _, err := client.Request(t.Context(), http.MethodGet, srv.URL, nil, nil); err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if got := rec.get("Accept"); got != "application/json" {
		t.Errorf("Accept = %q, want the config override", got)
	}
	if got := rec.get("X-Tenant"); got != "alpha" {
		t.Errorf("X-Tenant = %q, want alpha", got)
	}

	// Per-call headers override config headers.
	perCall := http.Header{"X-Tenant": []string{"beta"}}
	if _, err := client.Request(t.Context(), http.MethodGet, srv.URL, nil, perCall); err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if got := rec.get("X-Tenant"); got != "beta" {
		t.Errorf("X-Tenant = %q, want the per-call override", got)
	}
}

func TestClientCredentials(t *testing.T) {
	rec := &headerRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
	}))
	t.Cleanup(srv.Close)

	client := New(Config{Logger: quietLogger(), Credential: BearerToken("first")})
	if _, err := client.Request(t.Context(), http.MethodGet, srv.URL, nil, nil); err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if got := rec.get("Authorization"); got != "Bearer first" {
		t.Errorf("Authorization = %q", got)
	}

	client.SetCredential(BasicAuth{Username: "u", Password: "p"})
	if _, err := client.Request(t.Context(), http.MethodGet, srv.URL, nil, nil); err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	req := &http.Request{Header: http.Header{}}
	_ = BasicAuth{Username: "u", Password: "p"}.Apply(req)
	if got, want := rec.get("Authorization"), req.Header.Get("Authorization"); got != want {
		t.Errorf("Authorization = %q, want %q after SetCredential", got, want)
	}
}

func TestClientRedirects(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		mu.Unlock()
		switch r.URL.Path {
		case "/old":
			w.Header().Set("Location", "/new")
			w.WriteHeader(http.StatusFound)
		case "/new":
			_, _ = io.WriteString(w, "arrived")
		}
	}))
	t.Cleanup(srv.Close)

	client := New(Config{Logger: quietLogger()})

	t.Run("GET follows the redirect", func(t *testing.T) {
		resp, err := client.Request(t.Context(), http.MethodGet, srv.URL+"/old", nil, nil)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		if resp.Status != http.StatusOK {
			t.Errorf("Status = %d, want 200 after following", resp.Status)
		}
		if string(resp.Body) != "arrived" {
			t.Errorf("Body = %q", resp.Body)
		}
		if resp.URL != srv.URL+"/new" {
			t.Errorf("URL = %q, want the final URL", resp.URL)
		}
	})

	t.Run("POST surfaces the raw 302", func(t *testing.T) {
		resp, err := client.Request(t.Context(), http.MethodPost, srv.URL+"/old", []byte("x"), nil)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		if resp.Status != http.StatusFound {
			t.Errorf("Status = %d, want the raw 302", resp.Status)
		}
		loc, ok := resp.Location()
		if !ok || loc != "/new" {
			t.Errorf("Location = %q (%v), want /new", loc, ok)
		}
	})
}

func TestResponseLocation(t *testing.T) {
	resp := &Response{Header: http.Header{}}
	if _, ok := resp.Location(); ok {
		t.Error("Location reported present on an empty header")
	}
	resp.Header.Set("Location", "/x")
	loc, ok := resp.Location()
	if !ok || loc != "/x" {
		t.Errorf("Location = %q (%v)", loc, ok)
	}
}
