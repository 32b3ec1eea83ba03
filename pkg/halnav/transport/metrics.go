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
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRequester records Prometheus metrics per HTTP exchange.
type MetricsRequester struct {
	inner Requester

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
	transportErrors prometheus.Counter
}

// NewMetricsRequester wraps inner with metric recording. Metrics register
// against reg; pass nil to use the default registerer.
func NewMetricsRequester(inner Requester, reg prometheus.Registerer) *MetricsRequester {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &MetricsRequester{
		inner: inner,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "halnav_requests_total",
			Help: "Total HTTP requests by method and status code",
		}, []string{"method", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "halnav_request_duration_seconds",
			Help:    "HTTP round-trip duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
		}, []string{"method"}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "halnav_requests_in_flight",
			Help: "HTTP requests currently in flight",
		}),
		transportErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "halnav_transport_errors_total",
			Help: "Requests that failed before an HTTP status was received",
		}),
	}
}

// Request implements Requester.
func (m *MetricsRequester) Request(ctx context.Context, method, uri string, body []byte, header http.Header) (*Response, error) {
	m.inFlight.Inc()
	start := time.Now()
	resp, err := m.inner.Request(ctx, method, uri, body, header)
	m.inFlight.Dec()
	m.requestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		m.transportErrors.Inc()
		return nil, err
	}
	m.requestsTotal.WithLabelValues(method, strconv.Itoa(resp.Status)).Inc()
	return resp, nil
}
