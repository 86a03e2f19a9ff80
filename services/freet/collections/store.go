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

	"github.com/AleutianAI/freet/services/freet/relations"
	"github.com/AleutianAI/freet/services/freet/storage"
	badgerstore "github.com/AleutianAI/freet/services/freet/storage/badger"
	mongostore "github.com/AleutianAI/freet/services/freet/storage/mongo"
)

// Collection names shared by both backends.
const (
	FollowersCollection = "followers"
	GroupsCollection    = "grouptaggings"
	ContactsCollection  = "contactinformationdisplays"
	AccountsCollection  = "users"
	FreetsCollection    = "freets"
)

// Store groups every Freet collection over one backend.
type Store struct {
	Followers *Followers
	Groups    *Groups
	Contacts  *Contacts
	Accounts  *Accounts
	Freets    *Freets

	pinger storage.Pinger
}

// NewBadgerStore builds a Store on an open BadgerDB.
func NewBadgerStore(db *badgerstore.DB) *Store {
	return &Store{
		Followers: NewFollowers(badgerstore.NewCollection(db, FollowersCollection, func() *relations.FollowerView {
			return &relations.FollowerView{}
		})),
		Groups: NewGroups(badgerstore.NewCollection(db, GroupsCollection, func() *relations.Group {
			return &relations.Group{}
		})),
		Contacts: NewContacts(badgerstore.NewCollection(db, ContactsCollection, func() *relations.ContactDisplay {
			return &relations.ContactDisplay{}
		})),
		Accounts: NewAccounts(badgerstore.NewCollection(db, AccountsCollection, func() *relations.Account {
			return &relations.Account{}
		})),
		Freets: NewFreets(badgerstore.NewCollection(db, FreetsCollection, func() *relations.Freet {
			return &relations.Freet{}
		})),
		pinger: db,
	}
}

// NewMongoStore builds a Store on a connected MongoDB database.
func NewMongoStore(db *mongostore.DB) *Store {
	return &Store{
		Followers: NewFollowers(mongostore.NewCollection(db, FollowersCollection, "username", func() *relations.FollowerView {
			return &relations.FollowerView{}
		})),
		Groups: NewGroups(mongostore.NewCollection(db, GroupsCollection, "groupUsername", func() *relations.Group {
			return &relations.Group{}
		})),
		Contacts: NewContacts(mongostore.NewCollection(db, ContactsCollection, "username", func() *relations.ContactDisplay {
			return &relations.ContactDisplay{}
		})),
		Accounts: NewAccounts(mongostore.NewCollection(db, AccountsCollection, "username", func() *relations.Account {
			return &relations.Account{}
		})),
		Freets: NewFreets(mongostore.NewCollection(db, FreetsCollection, mongostore.IDField, func() *relations.Freet {
			return &relations.Freet{}
		})),
		pinger: db,
	}
}

// Ping checks the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.pinger == nil {
		return nil
	}
	return s.pinger.Ping(ctx)
}
