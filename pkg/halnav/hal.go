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
	"encoding/json"
	"fmt"
	"maps"
	"mime"
	"slices"
	"strings"
)

// Reserved HAL keys.
const (
	keyLinks    = "_links"
	keyEmbedded = "_embedded"
	relSelf     = "self"
	relCuries   = "curies"
)

// graphDelta is the result of ingesting one HAL body: the stripped state plus
// the rebuilt link/embedded graph. It is computed fully before being applied,
// so a body that fails mid-parse never leaves a navigator half-mutated.
type graphDelta struct {
	state     map[string]any
	links     *LinkCollection
	embedded  *LinkCollection
	curies    map[string]string
	selfProps map[string]any
}

// decodeBody parses raw JSON into a HAL body map.
func decodeBody(data []byte) (map[string]any, error) {
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, err
	}
	return body, nil
}

// buildGraph converts a parsed HAL body into a graphDelta. hrefs resolve
// against baseURI (the current document's URI, not the API root). enclosing
// is the navigator embedded-without-self documents hang off as orphans.
func buildGraph(core *APICore, enclosing *Navigator, body map[string]any, baseURI string) (*graphDelta, error) {
	delta := &graphDelta{
		state:    make(map[string]any, len(body)),
		links:    newLinkCollection(core.defaultCurie),
		embedded: newLinkCollection(core.defaultCurie),
	}

	for k, v := range body {
		if k == keyLinks || k == keyEmbedded {
			continue
		}
		delta.state[k] = v
	}

	rawLinks, _ := body[keyLinks].(map[string]any)
	if rawLinks != nil {
		if err := buildLinks(core, delta, rawLinks, baseURI); err != nil {
			return nil, err
		}
	}

	rawEmbedded, _ := body[keyEmbedded].(map[string]any)
	if rawEmbedded != nil {
		if err := buildEmbedded(core, enclosing, delta, rawEmbedded, baseURI); err != nil {
			return nil, err
		}
	}

	return delta, nil
}

// buildLinks fills delta.links, delta.curies, and delta.selfProps from a
// _links object. self and curies are reserved and handled specially.
func buildLinks(core *APICore, delta *graphDelta, rawLinks map[string]any, baseURI string) error {
	for _, rel := range sortedKeys(rawLinks) {
		raw := rawLinks[rel]
		switch rel {
		case relSelf:
			if obj, ok := raw.(map[string]any); ok {
				delta.selfProps = maps.Clone(obj)
			}
		case relCuries:
			curies, err := parseCuries(raw, baseURI)
			if err != nil {
				return err
			}
			delta.curies = curies
		default:
			entries, isArray := raw.([]any)
			if !isArray {
				entries = []any{raw}
			} else {
				delta.links.markMany(rel)
			}
			for _, entry := range entries {
				obj, ok := entry.(map[string]any)
				if !ok {
					return fmt.Errorf("relation %q: link entry is %T, want object", rel, entry)
				}
				node, err := linkEntryNode(core, obj, baseURI, rel)
				if err != nil {
					return err
				}
				delta.links.add(rel, node, obj)
			}
		}
	}
	return nil
}

// linkEntryNode resolves one _links entry into a concrete navigator or, for
// templated links, a thunk.
func linkEntryNode(core *APICore, obj map[string]any, baseURI, rel string) (Node, error) {
	href, ok := obj["href"].(string)
	if !ok || href == "" {
		return nil, fmt.Errorf("relation %q: link object missing href", rel)
	}
	templated, _ := obj["templated"].(bool)

	// Templated hrefs resolve textually so the {} expressions survive.
	var uri string
	var err error
	if templated {
		uri, err = resolveTemplateRef(baseURI, href)
	} else {
		uri, err = resolveRef(baseURI, href)
	}
	if err != nil {
		return nil, fmt.Errorf("relation %q: resolving href %q against %s: %w", rel, href, baseURI, err)
	}

	props := maps.Clone(obj)
	delete(props, "href")
	delete(props, "templated")

	if templated {
		return newTemplateThunk(core, NewLink(uri, props))
	}
	return core.materialize(NewLink(uri, props)), nil
}

// parseCuries captures the _links.curies array as a prefix -> URI-template
// map.
func parseCuries(raw any, baseURI string) (map[string]string, error) {
	entries, ok := raw.([]any)
	if !ok {
		entries = []any{raw}
	}
	curies := make(map[string]string, len(entries))
	for _, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("curies: entry is %T, want object", entry)
		}
		name, _ := obj["name"].(string)
		href, _ := obj["href"].(string)
		if name == "" || href == "" {
			return nil, fmt.Errorf("curies: entry missing name or href")
		}
		// Curie hrefs are URI templates; resolve them textually too.
		resolved, err := resolveTemplateRef(baseURI, href)
		if err != nil {
			return nil, fmt.Errorf("curies: resolving %q: %w", href, err)
		}
		curies[name] = resolved
	}
	return curies, nil
}

// buildEmbedded converts each _embedded document into a navigator. Documents
// carrying their own self link become identity-mapped navigators pre-seeded
// with the embedded state; documents without one become orphans hanging off
// the enclosing navigator. The same rules recurse into each embedded
// document's own _links/_embedded.
func buildEmbedded(core *APICore, enclosing *Navigator, delta *graphDelta, rawEmbedded map[string]any, baseURI string) error {
	for _, rel := range sortedKeys(rawEmbedded) {
		raw := rawEmbedded[rel]
		docs, isArray := raw.([]any)
		if !isArray {
			docs = []any{raw}
		} else {
			delta.embedded.markMany(rel)
		}
		for _, rawDoc := range docs {
			doc, ok := rawDoc.(map[string]any)
			if !ok {
				return fmt.Errorf("embedded relation %q: document is %T, want object", rel, rawDoc)
			}
			nav, err := embeddedNavigator(core, enclosing, doc, baseURI)
			if err != nil {
				return fmt.Errorf("embedded relation %q: %w", rel, err)
			}
			var props map[string]any
			if links, ok := doc[keyLinks].(map[string]any); ok {
				if self, ok := links[relSelf].(map[string]any); ok {
					props = self
				}
			}
			delta.embedded.add(rel, nav, props)
		}
	}
	return nil
}

// embeddedNavigator materializes one embedded document.
func embeddedNavigator(core *APICore, enclosing *Navigator, doc map[string]any, baseURI string) (*Navigator, error) {
	selfHref := embeddedSelfHref(doc)
	if selfHref == "" {
		// No self link: the document is an orphan, addressable only through
		// its parent.
		orphan := newOrphanNavigator(core, enclosing, nil)
		delta, err := buildGraph(core, orphan, doc, baseURI)
		if err != nil {
			return nil, err
		}
		orphan.apply(delta, "")
		return orphan, nil
	}

	uri, err := resolveRef(baseURI, selfHref)
	if err != nil {
		return nil, fmt.Errorf("resolving embedded self href %q: %w", selfHref, err)
	}
	nav := core.materialize(NewLink(uri, nil))
	if !nav.Resolved() {
		// Pre-seed from the embedded state so a later access costs no fetch.
		delta, err := buildGraph(core, nav, doc, uri)
		if err != nil {
			return nil, err
		}
		nav.apply(delta, "")
	}
	return nav, nil
}

func embeddedSelfHref(doc map[string]any) string {
	links, ok := doc[keyLinks].(map[string]any)
	if !ok {
		return ""
	}
	self, ok := links[relSelf].(map[string]any)
	if !ok {
		return ""
	}
	href, _ := self["href"].(string)
	return href
}

// -----------------------------------------------------------------------------
// Content Types
// -----------------------------------------------------------------------------

// jsonMediaType reports whether a declared content type satisfies the
// navigator's JSON expectation: application/json, application/hal+json, or
// any +json suffix type.
func jsonMediaType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch mediaType {
	case "application/json", "application/hal+json":
		return true
	}
	return strings.HasSuffix(mediaType, "+json")
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}

// deepCopyState clones a JSON-shaped value tree. State snapshots handed to
// callers must never alias the navigator's own maps.
func deepCopyState(v map[string]any) map[string]any {
	if v == nil {
		return nil
	}
	out := make(map[string]any, len(v))
	for k, val := range v {
		out[k] = deepCopyValue(val)
	}
	return out
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyState(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return val
	}
}
