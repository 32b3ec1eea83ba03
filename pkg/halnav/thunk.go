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
	"fmt"
	"maps"
	"slices"

	"github.com/yosida95/uritemplate/v3"
)

// TemplateThunk is a deferred navigator for a URI-templated link (RFC 6570).
// It holds no response state; expanding it with variable bindings produces a
// concrete, identity-mapped navigator. Thunks themselves are never cached:
// two traversals to the same templated link yield distinct thunks, but
// expansions with identical bindings yield the same navigator.
type TemplateThunk struct {
	core *APICore
	link *Link
	tmpl *uritemplate.Template
	vars map[string]any
}

func newTemplateThunk(core *APICore, link *Link) (*TemplateThunk, error) {
	tmpl, err := uritemplate.New(link.URI())
	if err != nil {
		return nil, fmt.Errorf("parsing URI template %q: %w", link.URI(), err)
	}
	return &TemplateThunk{core: core, link: link, tmpl: tmpl}, nil
}

// TargetURI implements Node: the raw, unexpanded URI Template.
func (t *TemplateThunk) TargetURI() string { return t.link.URI() }

func (t *TemplateThunk) node() {}

// Link returns the templated link.
func (t *TemplateThunk) Link() *Link { return t.link }

// Variables lists the template variables still awaiting a binding.
func (t *TemplateThunk) Variables() []string {
	var unbound []string
	for _, name := range t.tmpl.Varnames() {
		if _, bound := t.vars[name]; !bound {
			unbound = append(unbound, name)
		}
	}
	slices.Sort(unbound)
	return unbound
}

// Bound returns a copy of the bindings accumulated by partial expansion.
func (t *TemplateThunk) Bound() map[string]any {
	return maps.Clone(t.vars)
}

// String renders like "TemplateThunk(ExampleAPI, /search{?q})".
func (t *TemplateThunk) String() string {
	return fmt.Sprintf("TemplateThunk(%s, %s)", t.core.apiName, relativeTo(t.core.root, t.link.URI()))
}

// Expand fills the template and returns the navigator at the resulting URI,
// identity-mapped and not yet fetched. Unbound variables expand to the empty
// string per RFC 6570; bindings accumulated earlier with ExpandPartial take
// precedence over vars.
func (t *TemplateThunk) Expand(vars map[string]any) (*Navigator, error) {
	uri, err := t.expand(vars)
	if err != nil {
		return nil, err
	}
	return t.core.materialize(NewLink(uri, t.link.Properties())), nil
}

// ExpandPartial binds vars but keeps the result templated, so it can be
// expanded further. Partially expanded thunks never enter the identity map.
func (t *TemplateThunk) ExpandPartial(vars map[string]any) *TemplateThunk {
	merged := maps.Clone(vars)
	if merged == nil {
		merged = make(map[string]any)
	}
	// Earlier bindings win, same as expansion order would make them.
	maps.Copy(merged, t.vars)
	return &TemplateThunk{core: t.core, link: t.link, tmpl: t.tmpl, vars: merged}
}

func (t *TemplateThunk) expand(vars map[string]any) (string, error) {
	values := make(uritemplate.Values, len(t.tmpl.Varnames()))
	for _, name := range t.tmpl.Varnames() {
		if v, ok := t.vars[name]; ok {
			values[name] = templateValue(v)
			continue
		}
		if v, ok := vars[name]; ok {
			values[name] = templateValue(v)
			continue
		}
		values[name] = uritemplate.String("")
	}
	uri, err := t.tmpl.Expand(values)
	if err != nil {
		return "", fmt.Errorf("expanding %q: %w", t.link.URI(), err)
	}
	return uri, nil
}

func templateValue(v any) uritemplate.Value {
	switch val := v.(type) {
	case string:
		return uritemplate.String(val)
	case []string:
		return uritemplate.List(val...)
	case []any:
		items := make([]string, len(val))
		for i, item := range val {
			items[i] = fmt.Sprint(item)
		}
		return uritemplate.List(items...)
	default:
		return uritemplate.String(fmt.Sprint(val))
	}
}
