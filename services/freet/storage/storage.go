// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package storage defines the persistence contract shared by every Freet
// relationship collection.
//
// # Model
//
// Each collection holds documents keyed by a human-chosen name (a username
// or a group name). Keys are unique case-insensitively: "Alice", "alice"
// and " ALICE " all address the same document. The stored document keeps
// the spelling it was created with.
//
// # Concurrency
//
// Collections do not implement optimistic concurrency control. Save
// overwrites whatever is stored under the record's key, so two writers that
// load, modify and save the same record race and the last save wins.
//
// # Backends
//
//   - storage/badger: embedded BadgerDB, the default.
//   - storage/mongo: MongoDB, for shared deployments.
package storage

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/text/cases"
)

var (
	// ErrNotFound indicates no document is stored under the requested key.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey indicates the backend rejected a create because a
	// document already occupies the key.
	ErrDuplicateKey = errors.New("duplicate key")
)

// Meta carries the bookkeeping every stored document has: an object id
// assigned on create and a version counter bumped on each save.
//
// The version is never compared on write. It exists so the backing
// document mirrors the shape of a versioned document store; projectors
// strip it from responses.
type Meta struct {
	ID      primitive.ObjectID `bson:"_id" json:"_id"`
	Version int64              `bson:"__v" json:"__v"`
}

// Metadata returns the record's bookkeeping for the storage layer.
func (m *Meta) Metadata() *Meta {
	return m
}

// Record is implemented by every document type a Collection stores.
type Record interface {
	// StorageKey returns the unique key as supplied by the user. Backends
	// fold it with FoldKey before comparing.
	StorageKey() string

	// Metadata exposes the id and version for the backend to maintain.
	Metadata() *Meta
}

// Collection is the persistence contract for one relationship kind.
//
// T is a pointer type (for example *relations.FollowerView).
type Collection[T Record] interface {
	// Create stores a new record and assigns its object id when unset.
	// Uniqueness is checked by callers before Create runs; a backend that
	// still detects a collision returns ErrDuplicateKey.
	Create(ctx context.Context, record T) error

	// FindByKey returns the record whose key matches key exactly after
	// case folding and trimming, or ErrNotFound.
	FindByKey(ctx context.Context, key string) (T, error)

	// Save persists every field of record and increments its version.
	Save(ctx context.Context, record T) error

	// List returns every record in the collection in backend order.
	List(ctx context.Context) ([]T, error)
}

// Pinger is implemented by backends that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// FoldKey normalises a key for case-insensitive exact matching.
//
// Surrounding whitespace is trimmed and the remainder is Unicode case
// folded, so FoldKey("Alice") == FoldKey(" ALICE ").
func FoldKey(key string) string {
	return cases.Fold().String(strings.TrimSpace(key))
}

// SameKey reports whether two keys address the same document.
func SameKey(a, b string) bool {
	return FoldKey(a) == FoldKey(b)
}

// PrepareCreate assigns a fresh object id when the record has none and
// resets its version. Backends call it at the start of Create.
func PrepareCreate(record Record) {
	meta := record.Metadata()
	if meta.ID.IsZero() {
		meta.ID = primitive.NewObjectID()
	}
	meta.Version = 0
}
