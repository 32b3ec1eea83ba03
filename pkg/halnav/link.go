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

import "maps"

// Link is an immutable URI plus the metadata its HAL link object carried
// (title, type, profile, name, ...). A Link is owned by the navigator or
// collection entry that holds it and is never shared mutably: mutation goes
// through with/withProperties, which copy.
type Link struct {
	uri   string
	props map[string]any
}

// NewLink builds a Link. props may be nil.
func NewLink(uri string, props map[string]any) *Link {
	return &Link{uri: uri, props: cloneProps(props)}
}

// URI returns the link target. For a templated link this is the raw URI
// Template.
func (l *Link) URI() string {
	if l == nil {
		return ""
	}
	return l.uri
}

// Property returns a metadata property (title, type, profile, ...) and
// whether it was present.
func (l *Link) Property(key string) (any, bool) {
	if l == nil {
		return nil, false
	}
	v, ok := l.props[key]
	return v, ok
}

// Properties returns a copy of the link metadata.
func (l *Link) Properties() map[string]any {
	if l == nil {
		return nil
	}
	return cloneProps(l.props)
}

// Title returns the title property, or "".
func (l *Link) Title() string { return l.stringProp("title") }

// Type returns the type property, or "".
func (l *Link) Type() string { return l.stringProp("type") }

// Profile returns the profile property, or "".
func (l *Link) Profile() string { return l.stringProp("profile") }

func (l *Link) stringProp(key string) string {
	if v, ok := l.Property(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// RelativeURI strips the API root prefix for display.
func (l *Link) RelativeURI(root string) string {
	return relativeTo(root, l.URI())
}

// with returns a copy of the link with one property replaced.
func (l *Link) with(key string, val any) *Link {
	next := &Link{uri: l.uri, props: cloneProps(l.props)}
	if next.props == nil {
		next.props = make(map[string]any, 1)
	}
	next.props[key] = val
	return next
}

// withProperties returns a copy of the link with extra properties merged in.
// Existing keys are overwritten by extra.
func (l *Link) withProperties(extra map[string]any) *Link {
	next := &Link{uri: l.uri, props: cloneProps(l.props)}
	if next.props == nil {
		next.props = make(map[string]any, len(extra))
	}
	maps.Copy(next.props, extra)
	return next
}

func cloneProps(props map[string]any) map[string]any {
	if props == nil {
		return nil
	}
	return maps.Clone(props)
}
