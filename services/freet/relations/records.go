// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package relations holds the Freet relationship records and the
// set-membership edits applied to them.
//
// Records reference each other only by username (or freet id) stored as
// data. No record holds a pointer to another, so the two sides of a
// relationship live in separate documents and are kept consistent by the
// operations in the collections package.
package relations

import (
	"time"

	"github.com/AleutianAI/freet/services/freet/storage"
)

// FollowerView lists who follows a user and whom the user follows.
//
// For any two views A and B, B.Username is in A.Followers exactly when
// A.Username is in B.Following.
type FollowerView struct {
	storage.Meta `bson:",inline"`
	Username     string   `bson:"username" json:"username"`
	Followers    []string `bson:"followers" json:"followers"`
	Following    []string `bson:"following" json:"following"`
}

// NewFollowerView returns an empty view for username.
func NewFollowerView(username string) *FollowerView {
	return &FollowerView{
		Username:  username,
		Followers: []string{},
		Following: []string{},
	}
}

// StorageKey implements storage.Record.
func (v *FollowerView) StorageKey() string { return v.Username }

// Group is a named set of members with admins and tagged freets.
//
// GroupAdmin is kept a subset of GroupMembers when admins are added.
// Removing a member leaves their admin entry in place.
type Group struct {
	storage.Meta  `bson:",inline"`
	GroupUsername string   `bson:"groupUsername" json:"groupUsername"`
	GroupMembers  []string `bson:"groupMembers" json:"groupMembers"`
	GroupAdmin    []string `bson:"groupAdmin" json:"groupAdmin"`
	GroupTags     []string `bson:"groupTags" json:"groupTags"`
}

// NewGroup returns a group whose creator is its only member and admin.
func NewGroup(groupUsername, creator string) *Group {
	return &Group{
		GroupUsername: groupUsername,
		GroupMembers:  []string{creator},
		GroupAdmin:    []string{creator},
		GroupTags:     []string{},
	}
}

// StorageKey implements storage.Record.
func (g *Group) StorageKey() string { return g.GroupUsername }

// ContactDisplay holds a user's contact details and whether they are shown.
// Blank fields are displayed as blank.
type ContactDisplay struct {
	storage.Meta                `bson:",inline"`
	ContactInformationDisplayed bool   `bson:"contactInformationDisplayed" json:"contactInformationDisplayed"`
	Username                    string `bson:"username" json:"username"`
	ContactNumber               string `bson:"contactNumber" json:"contactNumber"`
	ContactEmail                string `bson:"contactEmail" json:"contactEmail"`
	ContactWebsite              string `bson:"contactWebsite" json:"contactWebsite"`
	ContactAddress              string `bson:"contactAddress" json:"contactAddress"`
}

// StorageKey implements storage.Record.
func (c *ContactDisplay) StorageKey() string { return c.Username }

// Account is a registered user.
type Account struct {
	storage.Meta `bson:",inline"`
	Username     string    `bson:"username" json:"username"`
	DateJoined   time.Time `bson:"dateJoined" json:"dateJoined"`
}

// StorageKey implements storage.Record.
func (a *Account) StorageKey() string { return a.Username }

// Freet is a short post. Groups reference freets by the hex form of ID.
type Freet struct {
	storage.Meta `bson:",inline"`
	Author       string    `bson:"author" json:"author"`
	Content      string    `bson:"content" json:"content"`
	DateCreated  time.Time `bson:"dateCreated" json:"dateCreated"`
}

// StorageKey implements storage.Record. Freets are keyed by object id, so
// the id must be assigned before the key is read.
func (f *Freet) StorageKey() string { return f.ID.Hex() }
