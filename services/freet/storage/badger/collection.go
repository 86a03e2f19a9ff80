// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/AleutianAI/freet/services/freet/storage"
	"github.com/dgraph-io/badger/v4"
	"go.mongodb.org/mongo-driver/bson"
)

// Collection stores one record type under a key prefix.
//
// Keys are "<name>/<folded key>", so lookups are case-insensitive exact
// matches on the whole key.
type Collection[T storage.Record] struct {
	db        *DB
	name      string
	newRecord func() T
}

// NewCollection returns a collection named name. newRecord must return a
// fresh zero record to decode into.
func NewCollection[T storage.Record](db *DB, name string, newRecord func() T) *Collection[T] {
	return &Collection[T]{db: db, name: name, newRecord: newRecord}
}

var _ storage.Collection[storage.Record] = (*Collection[storage.Record])(nil)

func (c *Collection[T]) prefix() []byte {
	return []byte(c.name + "/")
}

func (c *Collection[T]) key(key string) []byte {
	return []byte(c.name + "/" + storage.FoldKey(key))
}

// Create inserts record. The existence check and the write share one
// transaction; a concurrent create of the same key surfaces as
// storage.ErrDuplicateKey.
func (c *Collection[T]) Create(ctx context.Context, record T) error {
	storage.PrepareCreate(record)
	key := c.key(record.StorageKey())
	err := c.db.WithTxn(ctx, func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return storage.ErrDuplicateKey
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		data, err := bson.Marshal(record)
		if err != nil {
			return fmt.Errorf("encode %s record: %w", c.name, err)
		}
		return txn.Set(key, data)
	})
	if errors.Is(err, badger.ErrConflict) {
		return storage.ErrDuplicateKey
	}
	if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		return fmt.Errorf("create %s record: %w", c.name, err)
	}
	return err
}

// FindByKey loads the record stored under key.
func (c *Collection[T]) FindByKey(ctx context.Context, key string) (T, error) {
	record := c.newRecord()
	err := c.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(c.key(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return bson.Unmarshal(val, record)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		var zero T
		return zero, storage.ErrNotFound
	}
	if err != nil {
		var zero T
		return zero, fmt.Errorf("find %s record: %w", c.name, err)
	}
	return record, nil
}

// Save overwrites the stored document. Nothing is read first, so two
// concurrent saves of the same key never conflict: the later commit wins.
func (c *Collection[T]) Save(ctx context.Context, record T) error {
	record.Metadata().Version++
	data, err := bson.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", c.name, err)
	}
	key := c.key(record.StorageKey())
	if err := c.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Set(key, data)
	}); err != nil {
		return fmt.Errorf("save %s record: %w", c.name, err)
	}
	return nil
}

// List returns every record under the collection prefix in key order.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	var records []T
	err := c.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = c.prefix()
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			record := c.newRecord()
			if err := it.Item().Value(func(val []byte) error {
				return bson.Unmarshal(val, record)
			}); err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s records: %w", c.name, err)
	}
	return records, nil
}
