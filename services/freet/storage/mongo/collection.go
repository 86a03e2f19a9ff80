// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package mongo provides the MongoDB backend for Freet collections.
//
// Lookups use an anchored, case-insensitive regular expression on the key
// field, with the key regex-quoted so usernames never act as patterns.
// Saves replace the whole document by _id without a version filter, which
// keeps the last-write-wins behaviour of the embedded backend.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/AleutianAI/freet/services/freet/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// IDField names the object id field. Collections keyed by id (freets)
// use it as their key field.
const IDField = "_id"

// Config holds connection settings.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// DB is a connected MongoDB database handle.
type DB struct {
	client   *mongo.Client
	database *mongo.Database
}

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, cfg Config) (*DB, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo uri is required")
	}
	if cfg.Database == "" {
		return nil, errors.New("mongo database is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := options.Client().ApplyURI(cfg.URI).SetTimeout(timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &DB{client: client, database: client.Database(cfg.Database)}, nil
}

// Ping checks the primary is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (d *DB) Close() error {
	return d.client.Disconnect(context.Background())
}

// Collection stores one record type in a MongoDB collection.
type Collection[T storage.Record] struct {
	coll      *mongo.Collection
	keyField  string
	newRecord func() T
}

// NewCollection binds name in db. keyField is the document field holding
// the record key ("username", "groupUsername", or IDField).
func NewCollection[T storage.Record](db *DB, name, keyField string, newRecord func() T) *Collection[T] {
	return &Collection[T]{
		coll:      db.database.Collection(name),
		keyField:  keyField,
		newRecord: newRecord,
	}
}

var _ storage.Collection[storage.Record] = (*Collection[storage.Record])(nil)

// KeyFilter builds the lookup filter for key on keyField.
func KeyFilter(keyField, key string) (bson.M, error) {
	key = strings.TrimSpace(key)
	if keyField == IDField {
		id, err := primitive.ObjectIDFromHex(key)
		if err != nil {
			return nil, storage.ErrNotFound
		}
		return bson.M{IDField: id}, nil
	}
	return bson.M{keyField: primitive.Regex{
		Pattern: "^" + regexp.QuoteMeta(key) + "$",
		Options: "i",
	}}, nil
}

// Create inserts record.
func (c *Collection[T]) Create(ctx context.Context, record T) error {
	storage.PrepareCreate(record)
	if _, err := c.coll.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert into %s: %w", c.coll.Name(), err)
	}
	return nil
}

// FindByKey returns the first document whose key matches.
func (c *Collection[T]) FindByKey(ctx context.Context, key string) (T, error) {
	var zero T
	filter, err := KeyFilter(c.keyField, key)
	if err != nil {
		return zero, err
	}
	record := c.newRecord()
	err = c.coll.FindOne(ctx, filter).Decode(record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return zero, storage.ErrNotFound
	}
	if err != nil {
		return zero, fmt.Errorf("find in %s: %w", c.coll.Name(), err)
	}
	return record, nil
}

// Save replaces the stored document by id.
func (c *Collection[T]) Save(ctx context.Context, record T) error {
	meta := record.Metadata()
	meta.Version++
	_, err := c.coll.ReplaceOne(ctx, bson.M{IDField: meta.ID}, record, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save in %s: %w", c.coll.Name(), err)
	}
	return nil
}

// List returns all documents in natural order.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	cursor, err := c.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var records []T
	for cursor.Next(ctx) {
		record := c.newRecord()
		if err := cursor.Decode(record); err != nil {
			return nil, fmt.Errorf("decode %s: %w", c.coll.Name(), err)
		}
		records = append(records, record)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", c.coll.Name(), err)
	}
	return records, nil
}
