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
	"context"
	"fmt"
	"maps"
)

// -----------------------------------------------------------------------------
// Instruction Set
// -----------------------------------------------------------------------------

type stepKind int

const (
	stepRel stepKind = iota
	stepWhere
	stepAt
	stepBind
	stepExpand
	stepKeepTemplated
)

// Step is one instruction of a traversal: a relation hop, a filter or index
// into a multi-valued entry, a template variable binding, or an expansion
// marker. Build steps with Rel, Where, At, Bind, BindAll, Expand, and
// KeepTemplated.
type Step struct {
	kind  stepKind
	rel   string
	prop  string
	val   any
	index int
	vars  map[string]any
}

// Rel hops across the named link relation. Embedded resources take priority
// over links when both carry the relation.
func Rel(name string) Step { return Step{kind: stepRel, rel: name} }

// Where selects the first entry of a multi-valued relation whose link
// metadata property equals val.
func Where(prop string, val any) Step { return Step{kind: stepWhere, prop: prop, val: val} }

// At selects the i-th entry of a multi-valued relation.
func At(i int) Step { return Step{kind: stepAt, index: i} }

// Bind supplies one template variable for the traversal's final expansion.
func Bind(name string, val any) Step {
	return Step{kind: stepBind, vars: map[string]any{name: val}}
}

// BindAll supplies several template variables at once.
func BindAll(vars map[string]any) Step {
	return Step{kind: stepBind, vars: maps.Clone(vars)}
}

// Expand forces immediate expansion of the final templated link using the
// accumulated bindings; unbound variables are nulled out. Without any marker
// or binding, a traversal ending on a templated link returns the thunk.
func Expand() Step { return Step{kind: stepExpand} }

// KeepTemplated binds the accumulated variables but keeps the result
// templated for further expansion. Conflicts with Expand.
func KeepTemplated() Step { return Step{kind: stepKeepTemplated} }

// String renders the step for diagnostics.
func (s Step) String() string {
	switch s.kind {
	case stepRel:
		return s.rel
	case stepWhere:
		return fmt.Sprintf("[%s=%v]", s.prop, s.val)
	case stepAt:
		return fmt.Sprintf("[%d]", s.index)
	case stepBind:
		return fmt.Sprintf("bind%v", s.vars)
	case stepExpand:
		return "expand"
	case stepKeepTemplated:
		return "keep-templated"
	default:
		return "?"
	}
}

// hop pairs an instruction with its position in the original sequence, so
// TraversalError can point at what the caller actually wrote.
type hop struct {
	step Step
	pos  int
}

// normalizeSteps splits the heterogeneous sequence into path hops and
// template controls, and rejects conflicting markers up front.
func normalizeSteps(steps []Step) (hops []hop, vars map[string]any, expandNow, keep bool, err error) {
	vars = make(map[string]any)
	for i, s := range steps {
		switch s.kind {
		case stepRel, stepWhere, stepAt:
			hops = append(hops, hop{step: s, pos: i})
		case stepBind:
			maps.Copy(vars, s.vars)
		case stepExpand:
			expandNow = true
		case stepKeepTemplated:
			keep = true
		}
	}
	if expandNow && keep {
		return nil, nil, false, false, ErrTraversalSyntax
	}
	return hops, vars, expandNow, keep, nil
}

// -----------------------------------------------------------------------------
// Result
// -----------------------------------------------------------------------------

// Result is what a traversal lands on: one node, or several when the final
// relation is multi-valued.
type Result struct {
	nodes []Node
}

// Len returns the number of nodes.
func (r Result) Len() int { return len(r.nodes) }

// Many reports whether the traversal ended on a multi-valued relation.
func (r Result) Many() bool { return len(r.nodes) > 1 }

// Node returns the single node, or the first of many. Nil for an empty
// result.
func (r Result) Node() Node {
	if len(r.nodes) == 0 {
		return nil
	}
	return r.nodes[0]
}

// Nodes returns all nodes in document order.
func (r Result) Nodes() []Node { return append([]Node(nil), r.nodes...) }

// Navigator returns the single concrete navigator the traversal produced.
// It fails when the result is multi-valued or still templated.
func (r Result) Navigator() (*Navigator, error) {
	if r.Many() {
		return nil, ErrManyResults
	}
	switch node := r.Node().(type) {
	case *Navigator:
		return node, nil
	case *TemplateThunk:
		return nil, ErrAmbiguousNavigation
	default:
		return nil, fmt.Errorf("empty traversal result")
	}
}

// Thunk returns the single template thunk the traversal produced. It fails
// when the result is multi-valued or already concrete.
func (r Result) Thunk() (*TemplateThunk, error) {
	if r.Many() {
		return nil, ErrManyResults
	}
	if thunk, ok := r.Node().(*TemplateThunk); ok {
		return thunk, nil
	}
	return nil, ErrNotTemplated
}

// -----------------------------------------------------------------------------
// Resolver
// -----------------------------------------------------------------------------

// Traverse resolves an instruction sequence against the graph, fetching
// intermediate resources on demand. It returns the node(s) the final
// instruction lands on; see Step for the instruction forms.
//
// Any failure is wrapped in a *TraversalError recording the full sequence,
// the failing index, and the chain of nodes reached before the break.
func (n *Navigator) Traverse(ctx context.Context, steps ...Step) (Result, error) {
	hops, vars, expandNow, keep, err := normalizeSteps(steps)
	if err != nil {
		return Result{}, err
	}

	chain := []Node{n}
	var cur Node = n
	var curList *LinkList

	fail := func(pos int, err error) error {
		return &TraversalError{
			Steps:    append([]Step(nil), steps...),
			FailedAt: pos,
			Chain:    append([]Node(nil), chain...),
			Err:      err,
		}
	}

	land := func(node Node) {
		cur = node
		curList = nil
		chain = append(chain, node)
	}

	for _, h := range hops {
		switch h.step.kind {
		case stepRel:
			if curList != nil {
				return Result{}, fail(h.pos, ErrAmbiguousHop)
			}
			nav, ok := cur.(*Navigator)
			if !ok {
				return Result{}, fail(h.pos, ErrAmbiguousNavigation)
			}
			if err := nav.ensureResolved(ctx); err != nil {
				return Result{}, fail(h.pos, err)
			}
			// Embedded wins over links on relation collision.
			ll, ok := nav.embedded.Get(h.step.rel)
			if !ok {
				ll, ok = nav.links.Get(h.step.rel)
			}
			if !ok {
				return Result{}, fail(h.pos, fmt.Errorf("%q: %w", h.step.rel, ErrNoSuchRelation))
			}
			if single, ok := ll.single(); ok {
				land(single)
			} else {
				cur = nil
				curList = ll
			}

		case stepWhere:
			if curList == nil {
				return Result{}, fail(h.pos, fmt.Errorf("property filter needs a multi-valued relation entry"))
			}
			node, err := curList.GetBy(h.step.prop, h.step.val)
			if err != nil {
				return Result{}, fail(h.pos, err)
			}
			land(node)

		case stepAt:
			if curList == nil {
				return Result{}, fail(h.pos, fmt.Errorf("index needs a multi-valued relation entry"))
			}
			node, err := curList.At(h.step.index)
			if err != nil {
				return Result{}, fail(h.pos, err)
			}
			land(node)
		}
	}

	wantsTemplate := expandNow || keep || len(vars) > 0
	if wantsTemplate {
		thunk, ok := cur.(*TemplateThunk)
		if !ok {
			return Result{}, fail(len(steps), ErrNotTemplated)
		}
		if keep {
			land(thunk.ExpandPartial(vars))
		} else {
			nav, err := thunk.Expand(vars)
			if err != nil {
				return Result{}, fail(len(steps), err)
			}
			land(nav)
		}
	}

	if curList != nil {
		return Result{nodes: curList.Nodes()}, nil
	}
	return Result{nodes: []Node{cur}}, nil
}

// Follow is the common single-file case: hop the named relations in order
// and require a concrete navigator at the end.
func (n *Navigator) Follow(ctx context.Context, rels ...string) (*Navigator, error) {
	steps := make([]Step, len(rels))
	for i, rel := range rels {
		steps[i] = Rel(rel)
	}
	res, err := n.Traverse(ctx, steps...)
	if err != nil {
		return nil, err
	}
	return res.Navigator()
}
