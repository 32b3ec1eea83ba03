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
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FixScheme prepends http:// to a root URL that carries no scheme. Schemes
// other than http/https are rejected, as is a URL with more than one scheme
// marker.
func FixScheme(rawURL string) (string, error) {
	parts := strings.Split(rawURL, "://")
	switch len(parts) {
	case 1:
		return "http://" + rawURL, nil
	case 2:
		switch parts[0] {
		case "http", "https":
			return rawURL, nil
		default:
			return "", &SchemeError{URL: rawURL, Scheme: parts[0]}
		}
	default:
		return "", &SchemeError{URL: rawURL}
	}
}

// resolveRef resolves href against base per RFC 3986 reference resolution.
// HAL documents may live at arbitrary sub-paths and emit relation-relative
// hrefs, so resolution is always against the current document URI, never the
// API root.
func resolveRef(base, href string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	refURL, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(refURL).String(), nil
}

// resolveTemplateRef resolves a templated href against base without going
// through net/url, which would percent-encode the {} expression characters.
// Templates resolve textually: absolute templates pass through, rooted and
// query templates splice onto the base origin, and anything else merges with
// the base path directory.
func resolveTemplateRef(base, href string) (string, error) {
	if strings.Contains(href, "://") {
		return href, nil
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	origin := baseURL.Scheme + "://" + baseURL.Host
	switch {
	case strings.HasPrefix(href, "/"):
		return origin + href, nil
	case strings.HasPrefix(href, "?") || strings.HasPrefix(href, "{?"):
		return origin + baseURL.Path + href, nil
	default:
		dir := baseURL.Path
		if i := strings.LastIndex(dir, "/"); i >= 0 {
			dir = dir[:i+1]
		} else {
			dir = "/"
		}
		return origin + dir + href, nil
	}
}

// relativeTo strips the API root prefix from uri for display.
func relativeTo(root, uri string) string {
	return strings.Replace(uri, root, "/", 1)
}

// -----------------------------------------------------------------------------
// Namify
// -----------------------------------------------------------------------------

// genericDomains are hosting domains that say nothing about the API itself.
var genericDomains = map[string]bool{
	"herokuapp": true,
	"appspot":   true,
}

var versionPattern = regexp.MustCompile(`^v[\d.]+$`)

// asciiFold strips diacritics: decompose, drop combining marks, recompose.
var asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Namify turns a root URL into a short display name that will probably make
// sense in most circumstances: "http://api.example.com/v2" becomes
// "ExampleAPI.v2". Used as the default API name; pass WithAPIName to
// override.
func Namify(rootURI string) string {
	if unquoted, err := url.PathUnescape(rootURI); err == nil {
		rootURI = unquoted
	}
	rootURI = transliterate(rootURI)

	fixed, err := FixScheme(rootURI)
	if err != nil {
		fixed = rootURI
	}
	parsed, err := url.Parse(fixed)
	if err != nil || parsed.Host == "" {
		return rootURI
	}

	var pieces []string
	var apiFlag bool
	var version string

	push := func(piece string) {
		piece = strings.ToLower(piece)
		switch {
		case piece == "":
		case piece == "api":
			apiFlag = true
		case versionPattern.MatchString(piece):
			version = "." + piece
		case strings.Contains(piece, "api"):
			pieces = append(pieces, capify(strings.ReplaceAll(piece, "api", "API")))
		default:
			pieces = append(pieces, capify(piece))
		}
	}

	host := strings.ToLower(parsed.Hostname())
	domain := host
	tld := ""
	if i := strings.LastIndex(host, "."); i >= 0 {
		domain, tld = host[:i], host[i+1:]
	}
	subdomain := ""
	if i := strings.LastIndex(domain, "."); i >= 0 {
		subdomain, domain = domain[:i], domain[i+1:]
	}

	if subdomain != "www" {
		for piece := range strings.SplitSeq(subdomain, ".") {
			push(piece)
		}
	}
	if !genericDomains[domain] {
		push(domain)
	}
	switch {
	case len(tld) == 2:
		pieces = append(pieces, strings.ToUpper(tld))
	case tld != "com" && tld != "":
		push(tld)
	}
	for piece := range strings.SplitSeq(parsed.Path, "/") {
		push(piece)
	}
	for q := range strings.SplitSeq(parsed.RawQuery, "&") {
		for kv := range strings.SplitSeq(q, "=") {
			push(kv)
		}
	}

	name := strings.Join(pieces, "")
	if apiFlag {
		name += "API"
	}
	return name + version
}

// capify capitalizes the first letter without downcasing the rest.
func capify(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// transliterate folds a string down to ASCII, dropping anything that has no
// unaccented form.
func transliterate(s string) string {
	folded, _, err := transform.String(asciiFold, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	for _, r := range folded {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
