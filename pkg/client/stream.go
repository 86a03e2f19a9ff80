// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/AleutianAI/freet/services/freet/events"
	"github.com/gorilla/websocket"
)

// maxErrorBody bounds the error body read from a refused upgrade.
const maxErrorBody = 4096

// StreamEvents opens the server's event stream and calls fn for every
// event until ctx is done, the server closes the stream, or fn returns an
// error. kind limits the stream to one event kind; empty streams all.
//
// A stream ended by ctx or by the server going away returns nil.
func (c *Client) StreamEvents(ctx context.Context, kind string, fn func(events.Event) error) error {
	target, err := c.streamURL(kind)
	if err != nil {
		return err
	}
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			return decodeError(resp.StatusCode, data)
		}
		if ctx.Err() != nil {
			return fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("cannot connect to %s: %w", c.baseURL, err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	for {
		var e events.Event
		if err := conn.ReadJSON(&e); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read event: %w", err)
		}
		if err := fn(e); err != nil {
			if errors.Is(err, ErrStopStream) {
				return nil
			}
			return err
		}
	}
}

// ErrStopStream may be returned by a StreamEvents callback to end the
// stream without an error.
var ErrStopStream = errors.New("stop stream")

func (c *Client) streamURL(kind string) (string, error) {
	u, err := url.Parse(c.baseURL + "/api/events")
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	if kind != "" {
		u.RawQuery = url.Values{"kind": {kind}}.Encode()
	}
	return u.String(), nil
}
