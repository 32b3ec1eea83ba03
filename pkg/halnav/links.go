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

import "fmt"

// Node is a resolved graph entry: either a *Navigator or a *TemplateThunk.
type Node interface {
	// TargetURI is the concrete URI for a navigator, or the raw URI
	// Template for a thunk.
	TargetURI() string

	node() // sealed
}

// -----------------------------------------------------------------------------
// LinkList
// -----------------------------------------------------------------------------

// LinkList is the ordered set of entries a single relation points at, with a
// secondary index over link metadata so same-relation links can be
// disambiguated by name, profile, or any other property.
type LinkList struct {
	entries []Node
	meta    map[string]map[string][]Node
	many    bool
}

func newLinkList() *LinkList {
	return &LinkList{meta: make(map[string]map[string][]Node)}
}

// add appends a node, indexing it under every metadata property of its link.
// Property values are serialized to strings because JSON values are not
// always hashable as-is.
func (ll *LinkList) add(node Node, props map[string]any) {
	for prop, val := range props {
		key := serializeMetaValue(val)
		byVal := ll.meta[prop]
		if byVal == nil {
			byVal = make(map[string][]Node)
			ll.meta[prop] = byVal
		}
		byVal[key] = append(byVal[key], node)
	}
	ll.entries = append(ll.entries, node)
}

// Len returns the number of entries.
func (ll *LinkList) Len() int { return len(ll.entries) }

// At returns the i-th entry in document order.
func (ll *LinkList) At(i int) (Node, error) {
	if i < 0 || i >= len(ll.entries) {
		return nil, fmt.Errorf("index %d with %d entries: %w", i, len(ll.entries), ErrIndexOutOfRange)
	}
	return ll.entries[i], nil
}

// Nodes returns a copy of the entries in document order.
func (ll *LinkList) Nodes() []Node {
	return append([]Node(nil), ll.entries...)
}

// GetBy returns the first entry whose link metadata property prop equals
// val.
func (ll *LinkList) GetBy(prop string, val any) (Node, error) {
	matches := ll.meta[prop][serializeMetaValue(val)]
	if len(matches) == 0 {
		return nil, fmt.Errorf("property %q = %v: %w", prop, val, ErrNotFound)
	}
	return matches[0], nil
}

// GetAllBy returns every entry whose link metadata property prop equals val,
// in document order.
func (ll *LinkList) GetAllBy(prop string, val any) []Node {
	return append([]Node(nil), ll.meta[prop][serializeMetaValue(val)]...)
}

// Named is shorthand for GetBy("name", name).
func (ll *LinkList) Named(name string) (Node, error) {
	return ll.GetBy("name", name)
}

// single returns the sole entry when the relation was a bare link object.
// Entries that arrived as a JSON array stay list-shaped even with one
// element, so filters and indexing keep working when a collection happens
// to hold a single member.
func (ll *LinkList) single() (Node, bool) {
	if ll.many || len(ll.entries) != 1 {
		return nil, false
	}
	return ll.entries[0], true
}

func serializeMetaValue(val any) string {
	return fmt.Sprint(val)
}

// -----------------------------------------------------------------------------
// LinkCollection
// -----------------------------------------------------------------------------

// LinkCollection is the ordered relation -> LinkList mapping built from a HAL
// document's _links or _embedded object. Lookup is CURIE-aware: when an API
// has a default CURIE prefix configured, Get("next") falls back to
// "prefix:next" unless a standard relation literally named "next" exists, so
// standard relations are never shadowed by a default-CURIE guess.
type LinkCollection struct {
	order        []string
	rels         map[string]*LinkList
	defaultCurie string
}

func newLinkCollection(defaultCurie string) *LinkCollection {
	return &LinkCollection{
		rels:         make(map[string]*LinkList),
		defaultCurie: defaultCurie,
	}
}

// add appends a node under rel, creating the relation's list on first use.
func (c *LinkCollection) add(rel string, node Node, props map[string]any) {
	ll, ok := c.rels[rel]
	if !ok {
		ll = newLinkList()
		c.rels[rel] = ll
		c.order = append(c.order, rel)
	}
	ll.add(node, props)
}

// markMany records that rel's raw value was a JSON array, so the relation
// keeps list shape regardless of how many entries the array held.
func (c *LinkCollection) markMany(rel string) {
	ll, ok := c.rels[rel]
	if !ok {
		ll = newLinkList()
		c.rels[rel] = ll
		c.order = append(c.order, rel)
	}
	ll.many = true
}

// Get looks up a relation. The literal key wins; when it is absent and a
// default CURIE prefix is configured, "{prefix}:{rel}" is tried next.
func (c *LinkCollection) Get(rel string) (*LinkList, bool) {
	if ll, ok := c.rels[rel]; ok {
		return ll, true
	}
	if c.defaultCurie != "" {
		if ll, ok := c.rels[c.defaultCurie+":"+rel]; ok {
			return ll, true
		}
	}
	return nil, false
}

// Has reports whether the relation resolves, CURIE fallback included.
func (c *LinkCollection) Has(rel string) bool {
	_, ok := c.Get(rel)
	return ok
}

// Relations returns the relation names in document order.
func (c *LinkCollection) Relations() []string {
	return append([]string(nil), c.order...)
}

// Len returns the number of distinct relations.
func (c *LinkCollection) Len() int { return len(c.order) }
