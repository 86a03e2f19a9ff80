// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package events announces applied relationship changes.
//
// An Event is published on "freet.<kind>.<op>" after a mutation changes a
// record. Mutations that turn out to be no-ops publish nothing. Delivery is
// best effort: callers log publish failures and carry on.
package events

import (
	"context"
	"sync"
	"time"
)

// Kinds of record an event is about.
const (
	KindFollowers = "followers"
	KindGroups    = "groups"
	KindContacts  = "contacts"
	KindAccounts  = "accounts"
	KindFreets    = "freets"
)

// Operations.
const (
	OpCreated       = "created"
	OpUpdated       = "updated"
	OpAdded         = "added"
	OpRemoved       = "removed"
	OpMemberAdded   = "member_added"
	OpMemberRemoved = "member_removed"
	OpAdminAdded    = "admin_added"
	OpAdminRemoved  = "admin_removed"
	OpTagged        = "tagged"
)

// Event describes one applied change.
type Event struct {
	Kind string `json:"kind"`
	Op   string `json:"op"`

	// Subject is the key of the record that changed (the followed user,
	// the group, the contact owner).
	Subject string `json:"subject"`

	// Object is the other party: the follower, member, admin or freet id.
	// Empty for creates and contact updates.
	Object string `json:"object,omitempty"`

	// Actor is the logged-in user who made the change.
	Actor string `json:"actor,omitempty"`

	At time.Time `json:"at"`
}

// Topic returns the subject the event is published on.
func (e Event) Topic() string {
	return "freet." + e.Kind + "." + e.Op
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards events.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (Nop) Close() error { return nil }

// Recorder keeps published events in memory. Used by tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	err    error
}

// FailWith makes later publishes return err.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Publish implements Publisher.
func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

// Close implements Publisher.
func (r *Recorder) Close() error { return nil }

// Events returns a copy of what was published.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Topics returns the topic of each published event in order.
func (r *Recorder) Topics() []string {
	events := r.Events()
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Topic()
	}
	return out
}
