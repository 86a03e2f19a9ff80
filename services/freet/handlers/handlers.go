// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the Freet HTTP endpoints.
//
// # Description
//
// Every endpoint follows the same shape: read the request once, run the
// endpoint's validation pipeline, call one collections operation, project
// the result and reply. Pipelines hold every input check, so an operation
// only runs once all of them have passed.
//
// # Error Responses
//
//	{"error": {"field": "message"}}   keyed predicate failure
//	{"error": "message"}              unkeyed predicate failure
//	{"error": "internal error"}       store or other unexpected failure (500)
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/AleutianAI/freet/services/freet/collections"
	"github.com/AleutianAI/freet/services/freet/events"
	"github.com/AleutianAI/freet/services/freet/middleware"
	"github.com/AleutianAI/freet/services/freet/observability"
	"github.com/AleutianAI/freet/services/freet/storage"
	"github.com/AleutianAI/freet/services/freet/validation"
	"github.com/gin-gonic/gin"
)

// maxBodyBytes bounds request bodies. Freet payloads are a handful of
// short strings.
const maxBodyBytes = 64 * 1024

// Handlers serves the Freet API.
type Handlers struct {
	store     *collections.Store
	publisher events.Publisher
	hub       *events.Hub
	metrics   *observability.Metrics
	logger    *slog.Logger
	version   string
	now       func() time.Time

	followers followerPipelines
	groups    groupPipelines
	contacts  contactPipelines
	accounts  accountPipelines
	freets    freetPipelines
	stream    *validation.Pipeline
}

// Config holds the collaborators of Handlers.
type Config struct {
	Store     *collections.Store
	Publisher events.Publisher
	Metrics   *observability.Metrics
	Logger    *slog.Logger

	// Hub feeds GET /api/events. Nil disables streaming. The hub must
	// also be reachable through Publisher for events to arrive.
	Hub *events.Hub

	// Version is reported by /health.
	Version string
}

// NewHandlers builds the handlers and their validation pipelines.
// Publisher and Logger default to events.Nop and slog.Default.
func NewHandlers(cfg Config) *Handlers {
	h := &Handlers{
		store:     cfg.Store,
		publisher: cfg.Publisher,
		hub:       cfg.Hub,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		version:   cfg.Version,
		now:       time.Now,
	}
	if h.publisher == nil {
		h.publisher = events.Nop{}
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	h.followers = newFollowerPipelines(cfg.Store)
	h.groups = newGroupPipelines(cfg.Store)
	h.contacts = newContactPipelines(cfg.Store)
	h.accounts = newAccountPipelines(cfg.Store)
	h.freets = newFreetPipelines()
	h.stream = newStreamPipeline()
	return h
}

// MessageResponse is the envelope for successful writes.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error any `json:"error"`
}

var errInvalidBody = validation.Invalid("", "Invalid request body")

// request is a read request plus its raw body for typed decoding.
type request struct {
	*validation.Request
	raw []byte
}

// readRequest reads the body once, decodes it as a JSON object for the
// pipeline and collects the query string.
func readRequest(c *gin.Context) (*request, error) {
	req := &request{
		Request: &validation.Request{
			Body:    validation.Fields{},
			Query:   validation.Fields{},
			Session: middleware.GetSession(c),
		},
	}
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			req.Query[key] = values[0]
		}
	}

	if c.Request.Body == nil {
		return req, nil
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
	if err != nil {
		return nil, errInvalidBody
	}
	if len(raw) > maxBodyBytes {
		return nil, validation.Invalid("", "Request body too large")
	}
	req.raw = raw
	if len(bytes.TrimSpace(raw)) == 0 {
		return req, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&req.Body); err != nil {
		return nil, errInvalidBody
	}
	if req.Body == nil {
		req.Body = validation.Fields{}
	}
	return req, nil
}

// decode unmarshals the raw body into dst.
func (r *request) decode(dst any) error {
	if len(bytes.TrimSpace(r.raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.raw, dst); err != nil {
		return validation.Invalid("", "Invalid request body: "+err.Error())
	}
	return nil
}

// begin reads the request and runs pipeline. On failure it has already
// replied and returns nil.
func (h *Handlers) begin(c *gin.Context, pipeline *validation.Pipeline) *request {
	req, err := readRequest(c)
	if err != nil {
		h.fail(c, pipeline.Name, err)
		return nil
	}
	if err := pipeline.Run(c.Request.Context(), req.Request); err != nil {
		h.fail(c, pipeline.Name, err)
		return nil
	}
	return req
}

// fail replies with the status for err.
func (h *Handlers) fail(c *gin.Context, pipeline string, err error) {
	logger := h.requestLogger(c, pipeline)

	if ve, ok := validation.AsError(err); ok {
		if h.metrics != nil {
			h.metrics.ValidationRejections.WithLabelValues(pipeline, string(ve.Kind)).Inc()
		}
		logger.Debug("request rejected", "kind", ve.Kind, "field", ve.Field, "message", ve.Message)
		c.JSON(ve.StatusCode(), ErrorResponse{Error: ve.Body()})
		return
	}

	logger.Error("request failed", "error", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// conflictOr maps a duplicate-key error from a racing create onto the
// endpoint's 409, leaving other errors unchanged.
func conflictOr(err error, conflict *validation.Error) error {
	if errors.Is(err, storage.ErrDuplicateKey) {
		return conflict
	}
	return err
}

func (h *Handlers) requestLogger(c *gin.Context, handler string) *slog.Logger {
	return h.logger.With("request_id", middleware.GetRequestID(c), "handler", handler)
}

// recordMutation counts a mutation and, when it changed state, announces
// it. Publish failures are logged and never fail the request.
func (h *Handlers) recordMutation(c *gin.Context, kind, op, subject, object string, applied bool) {
	if h.metrics != nil {
		h.metrics.RecordMutation(kind, op, applied)
	}
	logger := h.requestLogger(c, kind+"."+op)
	if !applied {
		logger.Debug("mutation was a no-op", "subject", subject, "object", object)
		return
	}
	logger.Info("mutation applied", "subject", subject, "object", object)

	e := events.Event{
		Kind:    kind,
		Op:      op,
		Subject: subject,
		Object:  object,
		At:      h.now().UTC(),
	}
	if s := middleware.GetSession(c); s != nil {
		e.Actor = s.Username
	}
	if err := h.publisher.Publish(c.Request.Context(), e); err != nil {
		if h.metrics != nil {
			h.metrics.EventPublishFailures.Inc()
		}
		logger.Warn("failed to publish relationship event", "topic", e.Topic(), "error", err)
	}
}
