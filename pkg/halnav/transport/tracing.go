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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "halnav/transport"

// TracingRequester emits one OpenTelemetry client span per HTTP exchange.
type TracingRequester struct {
	inner  Requester
	tracer trace.Tracer
}

// NewTracingRequester wraps inner with span recording. Pass a nil provider
// to use the globally registered one.
func NewTracingRequester(inner Requester, tp trace.TracerProvider) *TracingRequester {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &TracingRequester{
		inner:  inner,
		tracer: tp.Tracer(tracerName),
	}
}

// Request implements Requester.
func (t *TracingRequester) Request(ctx context.Context, method, uri string, body []byte, header http.Header) (*Response, error) {
	ctx, span := t.tracer.Start(ctx, "halnav.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", uri),
		),
	)
	defer span.End()

	resp, err := t.inner.Request(ctx, method, uri, body, header)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.Status))
	if resp.Status >= 400 {
		span.SetStatus(codes.Error, http.StatusText(resp.Status))
	}
	return resp, nil
}
