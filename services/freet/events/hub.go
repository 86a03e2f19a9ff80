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
	"errors"
	"sync"
)

// DefaultSubscriberBuffer is the channel size for a Hub subscriber.
const DefaultSubscriberBuffer = 64

// Hub fans events out to in-process subscribers such as live event
// streams. A subscriber that falls behind loses events rather than
// blocking publishers.
type Hub struct {
	mu      sync.Mutex
	subs    map[*subscription]struct{}
	closed  bool
	dropped uint64
}

type subscription struct {
	ch    chan Event
	match func(Event) bool
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*subscription]struct{})}
}

// Subscribe registers a subscriber receiving events for which match
// returns true (all events when match is nil). The returned cancel
// function unregisters it and closes the channel; the channel is also
// closed when the hub closes.
func (h *Hub) Subscribe(buffer int, match func(Event) bool) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	sub := &subscription{ch: make(chan Event, buffer), match: match}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}
	h.subs[sub] = struct{}{}

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[sub]; ok {
				delete(h.subs, sub)
				close(sub.ch)
			}
		})
	}
}

// Publish implements Publisher.
func (h *Hub) Publish(_ context.Context, e Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	for sub := range h.subs {
		if sub.match != nil && !sub.match(e) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			h.dropped++
		}
	}
	return nil
}

// Subscribers returns the number of registered subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber
// was full.
func (h *Hub) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// Close closes every subscriber channel. Later publishes fail with
// ErrClosed.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for sub := range h.subs {
		close(sub.ch)
		delete(h.subs, sub)
	}
	return nil
}

// ErrClosed is returned by publishing to a closed Hub.
var ErrClosed = errors.New("publisher closed")

// Tee publishes every event to each publisher in order. A failing
// publisher does not stop the others; their errors are joined.
type Tee []Publisher

// Publish implements Publisher.
func (t Tee) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range t {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every publisher.
func (t Tee) Close() error {
	var errs []error
	for _, p := range t {
		errs = append(errs, p.Close())
	}
	return errors.Join(errs...)
}
