// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type testRecord struct {
	Meta
	Key string
}

func (r *testRecord) StorageKey() string { return r.Key }

func TestFoldKey(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		same bool
	}{
		{"identical", "alice", "alice", true},
		{"upper", "Alice", "ALICE", true},
		{"surrounding space", "  alice ", "Alice", true},
		{"prefix is not a match", "ali", "alice", false},
		{"substring is not a match", "lic", "alice", false},
		{"unicode fold", "STRASSE", "strasse", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.same, SameKey(tt.a, tt.b))
		})
	}
}

func TestPrepareCreate(t *testing.T) {
	t.Run("assigns id and resets version", func(t *testing.T) {
		rec := &testRecord{Key: "bob"}
		rec.Version = 7
		PrepareCreate(rec)
		assert.False(t, rec.ID.IsZero())
		assert.Equal(t, int64(0), rec.Version)
	})

	t.Run("keeps existing id", func(t *testing.T) {
		rec := &testRecord{Key: "bob"}
		PrepareCreate(rec)
		id := rec.ID
		PrepareCreate(rec)
		assert.Equal(t, id, rec.ID)
	})
}
