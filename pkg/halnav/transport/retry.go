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
	"errors"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"time"
)

// RetryConfig configures RetryRequester.
type RetryConfig struct {
	// MaxAttempts is the total number of tries, including the first.
	// Default: 3
	MaxAttempts int

	// InitialBackoff is the delay before the first retry.
	// Default: 100ms
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential backoff.
	// Default: 5s
	MaxBackoff time.Duration

	// Jitter adds randomness to backoff (0.0-1.0).
	// Default: 0.25 (±25%)
	Jitter float64

	// RetryMutating also retries POST/PATCH. Off by default because the
	// server may have applied the mutation before the failure.
	RetryMutating bool

	// Logger receives a warn line per retry. Default: slog.Default().
	Logger *slog.Logger
}

func (c *RetryConfig) applyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 100 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 5 * time.Second
	}
	if c.Jitter <= 0 || c.Jitter > 1 {
		c.Jitter = 0.25
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// RetryRequester retries transient failures with exponential backoff and
// jitter. Retries live here, at the HTTP boundary, because the navigation
// core has no retry policy of its own.
type RetryRequester struct {
	inner  Requester
	config RetryConfig
}

// NewRetryRequester wraps inner with retry policy.
func NewRetryRequester(inner Requester, config RetryConfig) *RetryRequester {
	config.applyDefaults()
	return &RetryRequester{inner: inner, config: config}
}

// Request implements Requester.
func (r *RetryRequester) Request(ctx context.Context, method, uri string, body []byte, header http.Header) (*Response, error) {
	var lastResp *Response
	var lastErr error

	for attempt := 0; attempt < r.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			backoff := r.backoff(attempt - 1)
			r.config.Logger.Warn("retrying request",
				"method", method,
				"url", uri,
				"attempt", attempt+1,
				"backoff_ms", backoff.Milliseconds(),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		lastResp, lastErr = r.inner.Request(ctx, method, uri, body, header)
		if !r.shouldRetry(method, lastResp, lastErr) {
			return lastResp, lastErr
		}
	}
	return lastResp, lastErr
}

func (r *RetryRequester) shouldRetry(method string, resp *Response, err error) bool {
	if !r.config.RetryMutating {
		switch method {
		case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete:
		default:
			return false
		}
	}
	if err != nil {
		return isTransient(err)
	}
	switch resp.Status {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// backoff computes the delay for a retry: base * 2^attempt, capped, with
// ±Jitter% randomness.
func (r *RetryRequester) backoff(attempt int) time.Duration {
	backoff := r.config.InitialBackoff * time.Duration(1<<attempt)
	if backoff > r.config.MaxBackoff {
		backoff = r.config.MaxBackoff
	}
	jitterRange := float64(backoff) * r.config.Jitter
	jitter := (rand.Float64()*2 - 1) * jitterRange
	backoff = time.Duration(float64(backoff) + jitter)
	if backoff < 0 {
		backoff = r.config.InitialBackoff
	}
	return backoff
}

// isTransient reports whether a transport failure is worth retrying.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
