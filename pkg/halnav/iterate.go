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
	"errors"
	"iter"
)

// relNext is the IANA pagination relation.
const relNext = "next"

// Next resolves the `next` relation, fetching this navigator first if
// needed. When the resource has no `next`, the error wraps
// ErrNoSuchRelation.
func (n *Navigator) Next(ctx context.Context) (*Navigator, error) {
	res, err := n.Traverse(ctx, Rel(relNext))
	if err != nil {
		return nil, err
	}
	return res.Navigator()
}

// Pages iterates the `next` chain: the navigator itself first, then each
// successive `next`, fetching as needed. The sequence is forward-only and
// restartable per call; termination depends entirely on server data, so a
// cyclic `next` chain iterates forever unless the caller breaks out.
//
//	for nav, err := range root.Pages(ctx) {
//	    if err != nil {
//	        return err
//	    }
//	    // use nav
//	}
func (n *Navigator) Pages(ctx context.Context) iter.Seq2[*Navigator, error] {
	return func(yield func(*Navigator, error) bool) {
		current := n
		if !yield(current, nil) {
			return
		}
		for {
			next, err := current.Next(ctx)
			if err != nil {
				if errors.Is(err, ErrNoSuchRelation) {
					return
				}
				yield(nil, err)
				return
			}
			if !yield(next, nil) {
				return
			}
			current = next
		}
	}
}
