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
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestEvent_Topic(t *testing.T) {
	e := Event{Kind: KindGroups, Op: OpAdminRemoved}
	assert.Equal(t, "freet.groups.admin_removed", e.Topic())
}

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	r := &Recorder{}

	require.NoError(t, r.Publish(ctx, Event{Kind: KindFollowers, Op: OpAdded, Subject: "u", Object: "v"}))
	assert.Equal(t, []string{"freet.followers.added"}, r.Topics())

	r.FailWith(errors.New("down"))
	assert.Error(t, r.Publish(ctx, Event{Kind: KindFollowers, Op: OpRemoved}))
	assert.Len(t, r.Events(), 1)
}

func TestNewMessage_CarriesTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	msg, err := newMessage(ctx, Event{Kind: KindFollowers, Op: OpAdded, Subject: "u", Object: "v", At: at})
	require.NoError(t, err)

	assert.Equal(t, "freet.followers.added", msg.Subject)
	assert.Contains(t, propagation.HeaderCarrier(msg.Header).Get("traceparent"), "4bf92f3577b34da6a3ce929d0e0e4736")

	var got Event
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, "u", got.Subject)
	assert.Equal(t, "v", got.Object)
	assert.True(t, at.Equal(got.At))
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), Event{}))
	assert.NoError(t, p.Close())
}
