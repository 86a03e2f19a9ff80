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
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInit_NilContext(t *testing.T) {
	//nolint:staticcheck // exercising the nil guard
	_, err := Init(nil, Config{})
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestInit_StdoutExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Init(context.Background(), Config{ServiceName: "freet-test", Stdout: &buf})
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "follow")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"Name":"follow"`)
	assert.Contains(t, buf.String(), "freet-test")
}

func TestInit_OTLPEndpointIsLazy(t *testing.T) {
	// grpc.NewClient does not dial, so an unreachable collector only
	// surfaces when spans are exported.
	shutdown, err := Init(context.Background(), Config{ServiceName: "freet-test", OTLPEndpoint: "127.0.0.1:1"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
