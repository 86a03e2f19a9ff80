// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/AleutianAI/freet/services/freet/response"
)

// Group update actions accepted by UpdateGroup.
const (
	ActionAddMember    = "addMember"
	ActionRemoveMember = "removeMember"
	ActionAddAdmin     = "addAdmin"
	ActionRemoveAdmin  = "removeAdmin"
	ActionAddTag       = "addTag"
)

// actionFields maps each group action to the body field naming its target.
var actionFields = map[string]string{
	ActionAddMember:    "addedGroupMemberUsername",
	ActionRemoveMember: "removedGroupMemberUsername",
	ActionAddAdmin:     "addedAdminUsername",
	ActionRemoveAdmin:  "removedAdminUsername",
	ActionAddTag:       "taggedFreetId",
}

// DeleteValue clears a contact field when sent in a ContactUpdate.
const DeleteValue = "delete"

type accountReply struct {
	Message string           `json:"message"`
	User    response.Account `json:"user"`
}

// CreateAccount registers username.
func (c *Client) CreateAccount(ctx context.Context, username string) (response.Account, error) {
	var out accountReply
	err := c.do(ctx, http.MethodPost, "/api/users", nil, map[string]string{"username": username}, &out)
	return out.User, err
}

// GetAccount looks up username.
func (c *Client) GetAccount(ctx context.Context, username string) (response.Account, error) {
	var out accountReply
	err := c.do(ctx, http.MethodGet, "/api/users", url.Values{"username": {username}}, nil, &out)
	return out.User, err
}

// CreateFollowerView creates the empty follower view for username.
func (c *Client) CreateFollowerView(ctx context.Context, username string) (response.FollowerView, error) {
	var out struct {
		Followers response.FollowerView `json:"followers"`
	}
	err := c.do(ctx, http.MethodPost, "/api/followers", nil, map[string]string{"username": username}, &out)
	return out.Followers, err
}

// FollowResult holds both views after a follow or unfollow.
type FollowResult struct {
	Message  string                `json:"message"`
	Followed response.FollowerView `json:"usernameOfFollowed"`
	Follower response.FollowerView `json:"usernameOfFollower"`
}

// Follow makes follower follow followed.
func (c *Client) Follow(ctx context.Context, followed, follower string) (FollowResult, error) {
	return c.updateFollow(ctx, followed, follower, true)
}

// Unfollow removes the follow relationship.
func (c *Client) Unfollow(ctx context.Context, followed, follower string) (FollowResult, error) {
	return c.updateFollow(ctx, followed, follower, false)
}

func (c *Client) updateFollow(ctx context.Context, followed, follower string, add bool) (FollowResult, error) {
	body := map[string]any{
		"usernameOfFollowed": followed,
		"usernameOfFollower": follower,
		"add":                add,
	}
	var out FollowResult
	err := c.do(ctx, http.MethodPut, "/api/followers", nil, body, &out)
	return out, err
}

// Followers lists the usernames following username.
func (c *Client) Followers(ctx context.Context, username string) ([]string, error) {
	var out struct {
		Followers []string `json:"followers"`
	}
	query := url.Values{"username": {username}, "followers": {"true"}}
	err := c.do(ctx, http.MethodGet, "/api/followers", query, nil, &out)
	return out.Followers, err
}

// Following lists the usernames username follows.
func (c *Client) Following(ctx context.Context, username string) ([]string, error) {
	var out struct {
		Following []string `json:"following"`
	}
	query := url.Values{"username": {username}, "followers": {"false"}}
	err := c.do(ctx, http.MethodGet, "/api/followers", query, nil, &out)
	return out.Following, err
}

type groupReply struct {
	Message string         `json:"message"`
	Group   response.Group `json:"group"`
}

// CreateGroup creates a group with creator as first member and admin.
func (c *Client) CreateGroup(ctx context.Context, name, creator string) (response.Group, error) {
	body := map[string]string{"groupUsername": name, "groupCreatorUsername": creator}
	var out groupReply
	err := c.do(ctx, http.MethodPost, "/api/groups", nil, body, &out)
	return out.Group, err
}

// UpdateGroup applies action to the group with the given target username
// or freet id. Unknown actions are sent as-is and rejected by the server.
func (c *Client) UpdateGroup(ctx context.Context, name, action, target string) (response.Group, error) {
	body := map[string]string{"groupUsername": name, "action": action}
	if field, ok := actionFields[action]; ok && target != "" {
		body[field] = target
	}
	var out groupReply
	err := c.do(ctx, http.MethodPut, "/api/groups", nil, body, &out)
	return out.Group, err
}

// GetGroup fetches the group named name.
func (c *Client) GetGroup(ctx context.Context, name string) (response.Group, error) {
	var out groupReply
	err := c.do(ctx, http.MethodGet, "/api/groups", url.Values{"groupUsername": {name}}, nil, &out)
	return out.Group, err
}

// ContactCreate is the body of a contact display create.
type ContactCreate struct {
	Displayed bool
	Number    string
	Email     string
	Website   string
	Address   string
}

// ContactUpdate describes a partial contact update. Nil fields are left
// untouched; DeleteValue clears a string field.
type ContactUpdate struct {
	Displayed *bool
	Number    *string
	Email     *string
	Website   *string
	Address   *string
}

type contactReply struct {
	Message string                  `json:"message"`
	Display response.ContactDisplay `json:"contactInformationDisplay"`
}

// CreateContact creates the contact display for username.
func (c *Client) CreateContact(ctx context.Context, username string, in ContactCreate) (response.ContactDisplay, error) {
	body := map[string]any{
		"username":                    username,
		"contactInformationDisplayed": in.Displayed,
		"contactNumber":               in.Number,
		"contactEmail":                in.Email,
		"contactWebsite":              in.Website,
		"contactAddress":              in.Address,
	}
	var out contactReply
	err := c.do(ctx, http.MethodPost, "/api/contacts", nil, body, &out)
	return out.Display, err
}

// UpdateContact patches the contact display for username.
func (c *Client) UpdateContact(ctx context.Context, username string, in ContactUpdate) (response.ContactDisplay, error) {
	body := map[string]any{"username": username}
	if in.Displayed != nil {
		body["contactInformationDisplayed"] = *in.Displayed
	}
	for key, value := range map[string]*string{
		"contactNumber":  in.Number,
		"contactEmail":   in.Email,
		"contactWebsite": in.Website,
		"contactAddress": in.Address,
	} {
		if value != nil {
			body[key] = *value
		}
	}
	var out contactReply
	err := c.do(ctx, http.MethodPut, "/api/contacts", nil, body, &out)
	return out.Display, err
}

// GetContact fetches the contact display for username.
func (c *Client) GetContact(ctx context.Context, username string) (response.ContactDisplay, error) {
	var out response.ContactDisplay
	err := c.do(ctx, http.MethodGet, "/api/contacts", url.Values{"username": {username}}, nil, &out)
	return out, err
}

// PostFreet publishes content as the session user.
func (c *Client) PostFreet(ctx context.Context, content string) (response.Freet, error) {
	var out struct {
		Freet response.Freet `json:"freet"`
	}
	err := c.do(ctx, http.MethodPost, "/api/freets", nil, map[string]string{"content": content}, &out)
	return out.Freet, err
}

// ListFreets returns freets newest first, limited to author when set.
func (c *Client) ListFreets(ctx context.Context, author string) ([]response.Freet, error) {
	var out []response.Freet
	if author != "" {
		err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(author)+"/freets", nil, nil, &out)
		return out, err
	}
	err := c.do(ctx, http.MethodGet, "/api/freets", nil, nil, &out)
	return out, err
}
