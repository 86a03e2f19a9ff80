// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Metric exporters.
const (
	MetricsPrometheus = "prometheus"
	MetricsStdout     = "stdout"
	MetricsNone       = "none"
)

// MeterConfig selects where OpenTelemetry instruments are exported.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string

	// Exporter is MetricsPrometheus, MetricsStdout or MetricsNone.
	Exporter string

	// Registerer receives the Prometheus collector. Nil uses the default
	// registry.
	Registerer prometheus.Registerer

	// Stdout and Interval configure the stdout exporter.
	Stdout   io.Writer
	Interval time.Duration
}

// InitMeter returns a meter provider for cfg. The provider is not
// installed globally; callers hand it to the components they build.
func InitMeter(cfg MeterConfig) (metric.MeterProvider, Shutdown, error) {
	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
	)

	var reader sdkmetric.Reader
	switch cfg.Exporter {
	case MetricsNone, "":
		return noop.NewMeterProvider(), func(context.Context) error { return nil }, nil

	case MetricsPrometheus:
		var opts []promexporter.Option
		if cfg.Registerer != nil {
			opts = append(opts, promexporter.WithRegisterer(cfg.Registerer))
		}
		exporter, err := promexporter.New(opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
		}
		reader = exporter

	case MetricsStdout:
		var opts []stdoutmetric.Option
		if cfg.Stdout != nil {
			opts = append(opts, stdoutmetric.WithWriter(cfg.Stdout))
		}
		exporter, err := stdoutmetric.New(opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("create stdout metric exporter: %w", err)
		}
		var readerOpts []sdkmetric.PeriodicReaderOption
		if cfg.Interval > 0 {
			readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
		}
		reader = sdkmetric.NewPeriodicReader(exporter, readerOpts...)

	default:
		return nil, nil, fmt.Errorf("unknown metric exporter %q", cfg.Exporter)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	return mp, mp.Shutdown, nil
}
