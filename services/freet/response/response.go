// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package response shapes stored records for API responses.
//
// Projectors render object ids as hex strings, drop the storage version
// and return empty lists rather than null. They do nothing else.
package response

import (
	"time"

	"github.com/AleutianAI/freet/services/freet/relations"
)

// FollowerView is the external form of relations.FollowerView.
type FollowerView struct {
	ID        string   `json:"_id"`
	Username  string   `json:"username"`
	Followers []string `json:"followers"`
	Following []string `json:"following"`
}

// Group is the external form of relations.Group.
type Group struct {
	ID            string   `json:"_id"`
	GroupUsername string   `json:"groupUsername"`
	GroupMembers  []string `json:"groupMembers"`
	GroupTags     []string `json:"groupTags"`
	GroupAdmin    []string `json:"groupAdmin"`
}

// ContactDisplay is the external form of relations.ContactDisplay.
type ContactDisplay struct {
	ID                          string `json:"_id"`
	ContactInformationDisplayed bool   `json:"contactInformationDisplayed"`
	Username                    string `json:"username"`
	ContactNumber               string `json:"contactNumber"`
	ContactEmail                string `json:"contactEmail"`
	ContactWebsite              string `json:"contactWebsite"`
	ContactAddress              string `json:"contactAddress"`
}

// Account is the external form of relations.Account.
type Account struct {
	ID         string `json:"_id"`
	Username   string `json:"username"`
	DateJoined string `json:"dateJoined"`
}

// Freet is the external form of relations.Freet.
type Freet struct {
	ID          string `json:"_id"`
	Author      string `json:"author"`
	Content     string `json:"content"`
	DateCreated string `json:"dateCreated"`
}

// FromFollowerView projects v.
func FromFollowerView(v *relations.FollowerView) FollowerView {
	return FollowerView{
		ID:        v.ID.Hex(),
		Username:  v.Username,
		Followers: list(v.Followers),
		Following: list(v.Following),
	}
}

// FromGroup projects g.
func FromGroup(g *relations.Group) Group {
	return Group{
		ID:            g.ID.Hex(),
		GroupUsername: g.GroupUsername,
		GroupMembers:  list(g.GroupMembers),
		GroupTags:     list(g.GroupTags),
		GroupAdmin:    list(g.GroupAdmin),
	}
}

// FromContactDisplay projects c.
func FromContactDisplay(c *relations.ContactDisplay) ContactDisplay {
	return ContactDisplay{
		ID:                          c.ID.Hex(),
		ContactInformationDisplayed: c.ContactInformationDisplayed,
		Username:                    c.Username,
		ContactNumber:               c.ContactNumber,
		ContactEmail:                c.ContactEmail,
		ContactWebsite:              c.ContactWebsite,
		ContactAddress:              c.ContactAddress,
	}
}

// FromAccount projects a.
func FromAccount(a *relations.Account) Account {
	return Account{
		ID:         a.ID.Hex(),
		Username:   a.Username,
		DateJoined: formatDate(a.DateJoined),
	}
}

// FromFreet projects f.
func FromFreet(f *relations.Freet) Freet {
	return Freet{
		ID:          f.ID.Hex(),
		Author:      f.Author,
		Content:     f.Content,
		DateCreated: formatDate(f.DateCreated),
	}
}

// FromFreets projects fs in order.
func FromFreets(fs []*relations.Freet) []Freet {
	out := make([]Freet, 0, len(fs))
	for _, f := range fs {
		out = append(out, FromFreet(f))
	}
	return out
}

func list(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func formatDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
