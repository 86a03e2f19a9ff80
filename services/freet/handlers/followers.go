// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/AleutianAI/freet/services/freet/collections"
	"github.com/AleutianAI/freet/services/freet/events"
	"github.com/AleutianAI/freet/services/freet/response"
	v "github.com/AleutianAI/freet/services/freet/validation"
	"github.com/gin-gonic/gin"
)

type followerPipelines struct {
	create, update, get *v.Pipeline
}

var errFollowerViewExists = v.Conflict("username", "Follower view for this username already exists.")

func newFollowerPipelines(store *collections.Store) followerPipelines {
	viewExists := func(ctx context.Context, username string) error {
		_, err := store.Followers.Find(ctx, username)
		return err
	}
	noView := func(string) *v.Error {
		return v.NotFound("userFollowerViewNotFound", "User does not have created follower view.")
	}

	return followerPipelines{
		create: v.NewPipeline("followers.create",
			v.LoggedIn(),
			v.Required(v.Body, "username", "Username must be given."),
			v.Format(v.Body, "username", v.TagUsername, "Username must be a nonempty alphanumeric string.", "username"),
			v.NotExists(v.Body, "username", viewExists, func(string) *v.Error { return errFollowerViewExists }),
		),
		update: v.NewPipeline("followers.update",
			v.LoggedIn(),
			v.RequiredAll(v.Body, "username", "Both usernames must be given.", "usernameOfFollowed", "usernameOfFollower"),
			v.Exists(v.Body, "usernameOfFollowed", viewExists, noView),
			v.Exists(v.Body, "usernameOfFollower", viewExists, noView),
			v.Format(v.Body, "usernames", v.TagUsername, "Both usernames must be nonempty alphanumeric strings.",
				"usernameOfFollowed", "usernameOfFollower"),
			v.Required(v.Body, "add", "add must be given."),
			v.OneOf(v.Body, "add", "add must be either true or false.", "true", "false"),
		),
		get: v.NewPipeline("followers.get",
			v.RequiredMessage(v.Query, "username", "Provided author username must be nonempty."),
			v.Exists(v.Query, "username", viewExists, func(username string) *v.Error {
				return v.NotFound("", fmt.Sprintf("Follower View for a user with username %s does not exist.", username))
			}),
		),
	}
}

type createFollowerViewRequest struct {
	Username string `json:"username"`
}

// FollowerViewResponse is returned by POST /api/followers.
type FollowerViewResponse struct {
	Message   string                `json:"message"`
	Followers response.FollowerView `json:"followers"`
}

// FollowUpdateResponse is returned by PUT /api/followers.
type FollowUpdateResponse struct {
	Message            string                `json:"message"`
	UsernameOfFollowed response.FollowerView `json:"usernameOfFollowed"`
	UsernameOfFollower response.FollowerView `json:"usernameOfFollower"`
}

// HandleCreateFollowerView handles POST /api/followers.
//
// Request Body:
//
//	{"username": "amy"}
//
// Response:
//
//	201 Created: FollowerViewResponse
//	400 Bad Request: username missing or malformed
//	403 Forbidden: not logged in
//	409 Conflict: a view already exists for the username
func (h *Handlers) HandleCreateFollowerView(c *gin.Context) {
	pipeline := h.followers.create
	req := h.begin(c, pipeline)
	if req == nil {
		return
	}
	var body createFollowerViewRequest
	if err := req.decode(&body); err != nil {
		h.fail(c, pipeline.Name, err)
		return
	}

	view, err := h.store.Followers.Create(c.Request.Context(), body.Username)
	if err != nil {
		h.fail(c, pipeline.Name, conflictOr(err, errFollowerViewExists))
		return
	}
	h.recordMutation(c, events.KindFollowers, events.OpCreated, view.Username, "", true)

	c.JSON(http.StatusCreated, FollowerViewResponse{
		Message:   "Your follower view was created successfully.",
		Followers: response.FromFollowerView(view),
	})
}

type updateFollowersRequest struct {
	UsernameOfFollowed string `json:"usernameOfFollowed"`
	UsernameOfFollower string `json:"usernameOfFollower"`
}

// HandleUpdateFollowers handles PUT /api/followers.
//
// Request Body:
//
//	{"usernameOfFollowed": "amy", "usernameOfFollower": "bob", "add": "true"}
//
// "add": "true" makes the follower follow; "false" unfollows. Both are
// idempotent.
//
// Response:
//
//	200 OK: FollowUpdateResponse with both views after the edit
//	400 Bad Request: usernames missing or malformed, add not true/false
//	403 Forbidden: not logged in
//	404 Not Found: either user has no follower view
func (h *Handlers) HandleUpdateFollowers(c *gin.Context) {
	pipeline := h.followers.update
	req := h.begin(c, pipeline)
	if req == nil {
		return
	}
	var body updateFollowersRequest
	if err := req.decode(&body); err != nil {
		h.fail(c, pipeline.Name, err)
		return
	}
	add, _ := req.Body.Get("add")

	ctx := c.Request.Context()
	var (
		message string
		op      string
		err     error
		applied bool
	)
	followed := body.UsernameOfFollowed
	if add == "true" {
		op = events.OpAdded
		message = "Your follower view was updated successfully (added follower)."
		_, applied, err = h.store.Followers.AddFollower(ctx, followed, body.UsernameOfFollower)
	} else {
		op = events.OpRemoved
		message = "Your follower view was updated successfully. (removed follower)"
		_, applied, err = h.store.Followers.RemoveFollower(ctx, followed, body.UsernameOfFollower)
	}
	if err != nil {
		h.fail(c, pipeline.Name, err)
		return
	}

	followedView, err := h.store.Followers.Find(ctx, followed)
	if err != nil {
		h.fail(c, pipeline.Name, err)
		return
	}
	followerView, err := h.store.Followers.Find(ctx, body.UsernameOfFollower)
	if err != nil {
		h.fail(c, pipeline.Name, err)
		return
	}
	h.recordMutation(c, events.KindFollowers, op, followedView.Username, followerView.Username, applied)

	c.JSON(http.StatusOK, FollowUpdateResponse{
		Message:            message,
		UsernameOfFollowed: response.FromFollowerView(followedView),
		UsernameOfFollower: response.FromFollowerView(followerView),
	})
}

// FollowersListResponse is returned by GET /api/followers?followers=true.
type FollowersListResponse struct {
	Followers []string `json:"followers"`
}

// FollowingListResponse is returned by GET /api/followers otherwise.
type FollowingListResponse struct {
	Following []string `json:"following"`
}

// HandleGetFollowers handles GET /api/followers?username=&followers=.
//
// Response:
//
//	200 OK: {"followers": [...]} when followers=true, else {"following": [...]}
//	400 Bad Request: username missing
//	404 Not Found: no follower view for the username
func (h *Handlers) HandleGetFollowers(c *gin.Context) {
	pipeline := h.followers.get
	req := h.begin(c, pipeline)
	if req == nil {
		return
	}
	username, _ := req.Query.Get("username")
	view, err := h.store.Followers.Find(c.Request.Context(), username)
	if err != nil {
		h.fail(c, pipeline.Name, err)
		return
	}

	projected := response.FromFollowerView(view)
	if which, _ := req.Query.Get("followers"); which == "true" {
		c.JSON(http.StatusOK, FollowersListResponse{Followers: projected.Followers})
		return
	}
	c.JSON(http.StatusOK, FollowingListResponse{Following: projected.Following})
}
