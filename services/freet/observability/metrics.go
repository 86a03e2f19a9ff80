// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability holds the Prometheus metrics for the Freet server.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Mutation outcomes.
const (
	OutcomeApplied = "applied"
	OutcomeNoop    = "noop"
)

// Metrics is the server's metric set. Build one per registry so tests can
// use a fresh registry each.
type Metrics struct {
	// RequestsTotal counts requests by route template, method and status.
	RequestsTotal *prometheus.CounterVec

	// RequestDuration tracks request latency by route template and method.
	RequestDuration *prometheus.HistogramVec

	// ValidationRejections counts pipeline failures by pipeline and kind.
	ValidationRejections *prometheus.CounterVec

	// Mutations counts relationship edits by kind, operation and outcome.
	Mutations *prometheus.CounterVec

	// EventPublishFailures counts events that could not be delivered.
	EventPublishFailures prometheus.Counter
}

// NewMetrics registers the metric set with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "freet_http_requests_total",
			Help: "Total HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "freet_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		}, []string{"route", "method"}),

		ValidationRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "freet_validation_rejections_total",
			Help: "Requests rejected by a validation pipeline, by pipeline and error kind",
		}, []string{"pipeline", "kind"}),

		Mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "freet_relationship_mutations_total",
			Help: "Relationship mutations by kind, operation and outcome (applied or noop)",
		}, []string{"kind", "operation", "outcome"}),

		EventPublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "freet_event_publish_failures_total",
			Help: "Relationship events that failed to publish",
		}),
	}
}

// RecordMutation counts one mutation.
func (m *Metrics) RecordMutation(kind, operation string, applied bool) {
	outcome := OutcomeNoop
	if applied {
		outcome = OutcomeApplied
	}
	m.Mutations.WithLabelValues(kind, operation, outcome).Inc()
}
