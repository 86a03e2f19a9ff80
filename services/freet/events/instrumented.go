// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package events

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instrumented wraps a Publisher and records publish counts and latency
// through an OpenTelemetry meter.
type Instrumented struct {
	next      Publisher
	published metric.Int64Counter
	latency   metric.Float64Histogram
}

// NewInstrumented returns next wrapped with metrics from meter.
//
// Instruments:
//
//	freet.events.published          counter, attributes kind, op, outcome (ok|error)
//	freet.events.publish.duration   histogram in seconds, attribute kind
func NewInstrumented(next Publisher, meter metric.Meter) (*Instrumented, error) {
	published, err := meter.Int64Counter(
		"freet.events.published",
		metric.WithDescription("Relationship events handed to the publisher"),
	)
	if err != nil {
		return nil, fmt.Errorf("create published counter: %w", err)
	}
	latency, err := meter.Float64Histogram(
		"freet.events.publish.duration",
		metric.WithDescription("Time spent publishing one relationship event"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create publish latency histogram: %w", err)
	}
	return &Instrumented{next: next, published: published, latency: latency}, nil
}

// Publish implements Publisher.
func (p *Instrumented) Publish(ctx context.Context, e Event) error {
	start := time.Now()
	err := p.next.Publish(ctx, e)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.published.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", e.Kind),
		attribute.String("op", e.Op),
		attribute.String("outcome", outcome),
	))
	p.latency.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attribute.String("kind", e.Kind)))
	return err
}

// Close implements Publisher.
func (p *Instrumented) Close() error {
	return p.next.Close()
}
