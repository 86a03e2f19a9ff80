// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package collections

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/AleutianAI/freet/services/freet/relations"
	"github.com/AleutianAI/freet/services/freet/storage"
)

// MaxFreetLength is the longest freet content accepted, in characters.
const MaxFreetLength = 140

// Accounts is the registry of users that group operations check against.
type Accounts struct {
	accounts storage.Collection[*relations.Account]
	now      func() time.Time
}

// NewAccounts wraps accounts.
func NewAccounts(accounts storage.Collection[*relations.Account]) *Accounts {
	return &Accounts{accounts: accounts, now: time.Now}
}

// Create registers username.
func (a *Accounts) Create(ctx context.Context, username string) (*relations.Account, error) {
	account := &relations.Account{
		Username:   strings.TrimSpace(username),
		DateJoined: a.now().UTC(),
	}
	if err := a.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Find returns the account for username, matched case-insensitively.
func (a *Accounts) Find(ctx context.Context, username string) (*relations.Account, error) {
	return a.accounts.FindByKey(ctx, username)
}

// Freets stores posts. Groups tag freets by id.
type Freets struct {
	freets storage.Collection[*relations.Freet]
	now    func() time.Time
}

// NewFreets wraps freets.
func NewFreets(freets storage.Collection[*relations.Freet]) *Freets {
	return &Freets{freets: freets, now: time.Now}
}

// Create posts content as author.
func (f *Freets) Create(ctx context.Context, author, content string) (*relations.Freet, error) {
	freet := &relations.Freet{
		Author:      author,
		Content:     content,
		DateCreated: f.now().UTC(),
	}
	if err := f.freets.Create(ctx, freet); err != nil {
		return nil, err
	}
	return freet, nil
}

// Find returns the freet with hex id id. Malformed ids are not found.
func (f *Freets) Find(ctx context.Context, id string) (*relations.Freet, error) {
	return f.freets.FindByKey(ctx, id)
}

// List returns freets newest first, limited to author when it is non-empty.
func (f *Freets) List(ctx context.Context, author string) ([]*relations.Freet, error) {
	all, err := f.freets.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*relations.Freet, 0, len(all))
	for _, freet := range all {
		if author == "" || storage.SameKey(freet.Author, author) {
			out = append(out, freet)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DateCreated.Equal(out[j].DateCreated) {
			return out[i].ID.Hex() > out[j].ID.Hex()
		}
		return out[i].DateCreated.After(out[j].DateCreated)
	})
	return out, nil
}
