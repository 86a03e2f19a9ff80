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
	"net/http"

	"github.com/AleutianAI/freet/services/freet/collections"
	"github.com/AleutianAI/freet/services/freet/events"
	"github.com/AleutianAI/freet/services/freet/relations"
	"github.com/AleutianAI/freet/services/freet/response"
	v "github.com/AleutianAI/freet/services/freet/validation"
	"github.com/gin-gonic/gin"
)

// Group update actions.
const (
	ActionAddMember    = "addMember"
	ActionRemoveMember = "removeMember"
	ActionAddAdmin     = "addAdmin"
	ActionRemoveAdmin  = "removeAdmin"
	ActionAddTag       = "addTag"
)

// groupAction binds an update action to its target field and operation.
type groupAction struct {
	field   string
	event   string
	message string
	freet   bool
	apply   func(g *collections.Groups, ctx context.Context, group, target string) (*relations.Group, bool, error)
}

var groupActions = map[string]groupAction{
	ActionAddMember: {
		field:   "addedGroupMemberUsername",
		event:   events.OpMemberAdded,
		message: "Your group membership was updated successfully (added member).",
		apply:   (*collections.Groups).AddMember,
	},
	ActionRemoveMember: {
		field:   "removedGroupMemberUsername",
		event:   events.OpMemberRemoved,
		message: "Your group membership was updated successfully. (removed member)",
		apply:   (*collections.Groups).RemoveMember,
	},
	ActionAddAdmin: {
		field:   "addedAdminUsername",
		event:   events.OpAdminAdded,
		message: "Your group admin was updated successfully (added admin).",
		apply:   (*collections.Groups).AddAdmin,
	},
	ActionRemoveAdmin: {
		field:   "removedAdminUsername",
		event:   events.OpAdminRemoved,
		message: "Your group admin was updated successfully. (removed admin)",
		apply:   (*collections.Groups).RemoveAdmin,
	},
	ActionAddTag: {
		field:   "taggedFreetId",
		event:   events.OpTagged,
		message: "Your group tags was updated successfully.",
		freet:   true,
		apply:   (*collections.Groups).Tag,
	},
}

type groupPipelines struct {
	create, update, get *v.Pipeline
}

var (
	errGroupExists  = v.Conflict("groupUsername", "A Group with this username already exists.")
	errGroupMissing = v.NotFound("groupUsername", "A Group with this username does not exists.")
	errUserMissing  = v.NotFound("user", "A user with this username does not exists.")
	errNoTarget     = v.Invalid("userOrFreetId", "User or Freet Id must be given.")
)

func newGroupPipelines(store *collections.Store) groupPipelines {
	groupExists := func(ctx context.Context, name string) error {
		_, err := store.Groups.Find(ctx, name)
		return err
	}
	accountExists := func(ctx context.Context, username string) error {
		_, err := store.Accounts.Find(ctx, username)
		return err
	}
	freetExists := func(ctx context.Context, id string) error {
		_, err := store.Freets.Find(ctx, id)
		return err
	}
	userCheck := func(field string) v.Predicate {
		return v.Exists(v.Body, field, accountExists, func(string) *v.Error { return errUserMissing })
	}

	// Each action names its target field; the target must be given and must
	// resolve to an account (or, for tags, to a freet).
	branches := make(map[string][]v.Predicate, len(groupActions))
	for name, action := range groupActions {
		preds := []v.Predicate{v.RequiredAll(v.Body, errNoTarget.Field, errNoTarget.Message, action.field)}
		if action.freet {
			preds = append(preds,
				v.Format(v.Body, action.field, v.TagObjectID, "Freet id must be a 24 character hex string.", action.field),
				v.Exists(v.Body, action.field, freetExists, func(string) *v.Error {
					return v.NotFound("freet", "A freet with this id does not exist.")
				}),
			)
		} else {
			preds = append(preds, userCheck(action.field))
		}
		branches[name] = preds
	}

	return groupPipelines{
		create: v.NewPipeline("groups.create",
			v.LoggedIn(),
			v.Required(v.Body, "groupUsername", "Group username must be given."),
			v.Format(v.Body, "groupUsername", v.TagUsername, "Group username must be a nonempty alphanumeric string.", "groupUsername"),
			v.NotExists(v.Body, "groupUsername", groupExists, func(string) *v.Error { return errGroupExists }),
			v.RequiredAll(v.Body, errNoTarget.Field, errNoTarget.Message, "groupCreatorUsername"),
			userCheck("groupCreatorUsername"),
		),
		update: v.NewPipeline("groups.update",
			v.LoggedIn(),
			v.Required(v.Body, "groupUsername", "Group username must be given."),
			v.Exists(v.Body, "groupUsername", groupExists, func(string) *v.Error { return errGroupMissing }),
			v.Required(v.Body, "action", "Action must be given."),
			v.OneOf(v.Body, "action", "Action must be one of addMember, removeMember, addAdmin, removeAdmin or addTag.",
				ActionAddMember, ActionRemoveMember, ActionAddAdmin, ActionRemoveAdmin, ActionAddTag),
			v.Switch(v.Body, "action", branches),
		),
		get: v.NewPipeline("groups.get",
			v.RequiredMessage(v.Query, "groupUsername", "Provided group username must be nonempty."),
			v.Exists(v.Query, "groupUsername", groupExists, func(string) *v.Error { return errGroupMissing }),
		),
	}
}

type createGroupRequest struct {
	GroupUsername        string `json:"groupUsername"`
	GroupCreatorUsername string `json:"groupCreatorUsername"`
}

// GroupResponse is returned by every group endpoint.
type GroupResponse struct {
	Message string         `json:"message"`
	Group   response.Group `json:"group"`
}

// HandleCreateGroup handles POST /api/groups.
//
// Request Body:
//
//	{"groupUsername": "cs", "groupCreatorUsername": "bob"}
//
// The creator becomes the first member and the first admin.
//
// Response:
//
//	201 Created: GroupResponse
//	400 Bad Request: group name or creator missing
//	403 Forbidden: not logged in
//	404 Not Found: creator has no account
//	409 Conflict: group name in use
func (h *Handlers) HandleCreateGroup(c *gin.Context) {
	pipeline := h.groups.create
	req := h.begin(c, pipeline)
	if req == nil {
		return
	}
	var body createGroupRequest
	if err := req.decode(&body); err != nil {
		h.fail(c, pipeline.Name, err)
		return
	}

	ctx := c.Request.Context()
	creator, err := h.store.Accounts.Find(ctx, body.GroupCreatorUsername)
	if err != nil {
		h.fail(c, pipeline.Name, err)
		return
	}
	group, err := h.store.Groups.Create(ctx, body.GroupUsername, creator.Username)
	if err != nil {
		h.fail(c, pipeline.Name, conflictOr(err, errGroupExists))
		return
	}
	h.recordMutation(c, events.KindGroups, events.OpCreated, group.GroupUsername, creator.Username, true)

	c.JSON(http.StatusCreated, GroupResponse{
		Message: "Your group was created successfully.",
		Group:   response.FromGroup(group),
	})
}

// HandleUpdateGroup handles PUT /api/groups.
//
// Request Body:
//
//	{"groupUsername": "cs", "action": "addMember", "addedGroupMemberUsername": "amy"}
//
// Actions and their target fields:
//
//	addMember     addedGroupMemberUsername
//	removeMember  removedGroupMemberUsername
//	addAdmin      addedAdminUsername (also adds membership)
//	removeAdmin   removedAdminUsername (membership is kept)
//	addTag        taggedFreetId
//
// Response:
//
//	200 OK: GroupResponse
//	400 Bad Request: action unknown, target missing or malformed
//	403 Forbidden: not logged in
//	404 Not Found: group, user or freet absent
func (h *Handlers) HandleUpdateGroup(c *gin.Context) {
	pipeline := h.groups.update
	req := h.begin(c, pipeline)
	if req == nil {
		return
	}
	ctx := c.Request.Context()
	name, _ := req.Body.Get("action")
	action := groupActions[name]
	groupUsername, _ := req.Body.Get("groupUsername")
	target, _ := req.Body.Get(action.field)

	// Members and admins are stored with their account's spelling so that
	// later edits with a different case find the same entry.
	if !action.freet {
		account, err := h.store.Accounts.Find(ctx, target)
		if err != nil {
			h.fail(c, pipeline.Name, err)
			return
		}
		target = account.Username
	} else {
		freet, err := h.store.Freets.Find(ctx, target)
		if err != nil {
			h.fail(c, pipeline.Name, err)
			return
		}
		target = freet.ID.Hex()
	}

	group, applied, err := action.apply(h.store.Groups, ctx, groupUsername, target)
	if err != nil {
		h.fail(c, pipeline.Name, err)
		return
	}
	h.recordMutation(c, events.KindGroups, action.event, group.GroupUsername, target, applied)

	c.JSON(http.StatusOK, GroupResponse{
		Message: action.message,
		Group:   response.FromGroup(group),
	})
}

// HandleGetGroup handles GET /api/groups?groupUsername=.
//
// Response:
//
//	200 OK: GroupResponse
//	400 Bad Request: groupUsername missing
//	404 Not Found: no such group
func (h *Handlers) HandleGetGroup(c *gin.Context) {
	pipeline := h.groups.get
	req := h.begin(c, pipeline)
	if req == nil {
		return
	}
	name, _ := req.Query.Get("groupUsername")
	group, err := h.store.Groups.Find(c.Request.Context(), name)
	if err != nil {
		h.fail(c, pipeline.Name, err)
		return
	}
	c.JSON(http.StatusOK, GroupResponse{
		Message: "Your group information was found successfully.",
		Group:   response.FromGroup(group),
	})
}
