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
	"context"
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimitedRequester throttles outgoing requests with a token bucket.
// Servers that emit large `next` chains are easy to hammer by accident when
// iterating pages; this decorator keeps the client polite.
type RateLimitedRequester struct {
	inner   Requester
	limiter *rate.Limiter
}

// NewRateLimitedRequester wraps inner, allowing rps requests per second with
// the given burst. rps <= 0 disables throttling.
func NewRateLimitedRequester(inner Requester, rps float64, burst int) *RateLimitedRequester {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitedRequester{
		inner:   inner,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Request implements Requester. It blocks until the limiter grants a token
// or ctx is done.
func (r *RateLimitedRequester) Request(ctx context.Context, method, uri string, body []byte, header http.Header) (*Response, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.Request(ctx, method, uri, body, header)
}
