// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AleutianAI/halnav/pkg/halnav"
)

// parseSteps converts CLI path arguments into traversal steps.
//
// Each argument is one of:
//
//	users              hop the relation
//	crew[2]            hop, then select by index
//	crew[name=spock]   hop, then select by link metadata
//	q=gold             bind a template variable for the final link
func parseSteps(args []string) ([]halnav.Step, error) {
	var steps []halnav.Step
	for _, arg := range args {
		if arg == "" {
			return nil, fmt.Errorf("empty path element")
		}

		// A bare key=value outside brackets is a template binding.
		if !strings.Contains(arg, "[") && strings.Contains(arg, "=") {
			key, val, _ := strings.Cut(arg, "=")
			if key == "" {
				return nil, fmt.Errorf("malformed binding %q", arg)
			}
			steps = append(steps, halnav.Bind(key, val))
			continue
		}

		rel, selector, hasSelector := strings.Cut(arg, "[")
		if rel == "" {
			return nil, fmt.Errorf("malformed path element %q", arg)
		}
		steps = append(steps, halnav.Rel(rel))
		if !hasSelector {
			continue
		}
		selector, ok := strings.CutSuffix(selector, "]")
		if !ok {
			return nil, fmt.Errorf("unterminated selector in %q", arg)
		}
		if prop, val, isFilter := strings.Cut(selector, "="); isFilter {
			steps = append(steps, halnav.Where(prop, val))
			continue
		}
		index, err := strconv.Atoi(selector)
		if err != nil {
			return nil, fmt.Errorf("selector %q in %q is neither an index nor prop=value", selector, arg)
		}
		steps = append(steps, halnav.At(index))
	}
	return steps, nil
}
