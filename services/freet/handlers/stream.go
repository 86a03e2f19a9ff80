// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"net/http"
	"time"

	"github.com/AleutianAI/freet/services/freet/events"
	v "github.com/AleutianAI/freet/services/freet/validation"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	streamWriteTimeout = 5 * time.Second
	streamPingInterval = 30 * time.Second
	streamBuffer       = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func newStreamPipeline() *v.Pipeline {
	return v.NewPipeline("events.stream",
		v.LoggedIn(),
		v.OneOf(v.Query, "kind", "Event kind must be one of followers, groups, contacts, accounts, freets.",
			events.KindFollowers, events.KindGroups, events.KindContacts, events.KindAccounts, events.KindFreets),
	)
}

// HandleEventStream handles GET /api/events by upgrading to a websocket
// and writing every relationship event as one JSON text frame. The
// optional kind query parameter restricts the stream to one event kind.
//
// Response:
//
//	101 Switching Protocols: stream of events.Event
//	400 Bad Request: unknown kind
//	403 Forbidden: not logged in
//	404 Not Found: streaming disabled
func (h *Handlers) HandleEventStream(c *gin.Context) {
	pipeline := h.stream
	req := h.begin(c, pipeline)
	if req == nil {
		return
	}
	if h.hub == nil {
		h.fail(c, pipeline.Name, v.NotFound("", "Event streaming is not enabled."))
		return
	}
	kind, _ := req.Query.Get("kind")
	logger := h.requestLogger(c, pipeline.Name).With("username", req.Session.Username, "kind", kind)

	// Subscribe before the handshake completes so no event published
	// after the client sees 101 is missed.
	var match func(events.Event) bool
	if kind != "" {
		match = func(e events.Event) bool { return e.Kind == kind }
	}
	stream, cancel := h.hub.Subscribe(streamBuffer, match)
	defer cancel()

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer ws.Close()
	logger.Info("event stream opened")

	// Clients never send data frames; reading only surfaces close frames
	// and broken connections.
	go func() {
		for {
			if _, _, err := ws.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingInterval)
	defer ping.Stop()
	for {
		select {
		case e, ok := <-stream:
			if !ok {
				_ = ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "stream closed"),
					time.Now().Add(streamWriteTimeout))
				logger.Info("event stream closed")
				return
			}
			_ = ws.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := ws.WriteJSON(e); err != nil {
				logger.Debug("event stream write failed", "error", err)
				return
			}
		case <-ping.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteTimeout)); err != nil {
				logger.Debug("event stream ping failed", "error", err)
				return
			}
		}
	}
}
