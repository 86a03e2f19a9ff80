// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry installs the OpenTelemetry tracer provider and the
// W3C propagator used by the HTTP middleware and the NATS publisher.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ErrNilContext is returned by Init when ctx is nil.
var ErrNilContext = errors.New("telemetry: nil context")

// Config selects the span exporter.
type Config struct {
	ServiceName    string
	ServiceVersion string

	// OTLPEndpoint is a host:port for OTLP over gRPC. Empty writes spans
	// to Stdout instead.
	OTLPEndpoint string

	// Stdout receives spans when OTLPEndpoint is empty. Nil uses the
	// exporter's default (os.Stdout).
	Stdout io.Writer
}

// Shutdown flushes and stops the tracer provider.
type Shutdown func(context.Context) error

// Init installs a tracer provider and the TraceContext+Baggage propagator.
func Init(ctx context.Context, cfg Config) (Shutdown, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	exporter, closeConn, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if closeConn != nil {
			err = errors.Join(err, closeConn())
		}
		return err
	}, nil
}

func newExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, func() error, error) {
	if cfg.OTLPEndpoint == "" {
		var opts []stdouttrace.Option
		if cfg.Stdout != nil {
			opts = append(opts, stdouttrace.WithWriter(cfg.Stdout))
		}
		exporter, err := stdouttrace.New(opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("create stdout exporter: %w", err)
		}
		return exporter, nil, nil
	}

	conn, err := grpc.NewClient(cfg.OTLPEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("dial otlp collector %s: %w", cfg.OTLPEndpoint, err)
	}
	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("create otlp exporter: %w", err)
	}
	return exporter, conn.Close, nil
}
