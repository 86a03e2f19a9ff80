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
	"fmt"

	"github.com/AleutianAI/freet/services/freet/relations"
	"github.com/AleutianAI/freet/services/freet/storage"
)

// Groups manages group records.
type Groups struct {
	groups storage.Collection[*relations.Group]
}

// NewGroups wraps groups.
func NewGroups(groups storage.Collection[*relations.Group]) *Groups {
	return &Groups{groups: groups}
}

// Create stores a group with creator as its first member and admin.
func (g *Groups) Create(ctx context.Context, groupUsername, creator string) (*relations.Group, error) {
	group := relations.NewGroup(groupUsername, creator)
	if err := g.groups.Create(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// Find returns the group named groupUsername, matched case-insensitively.
func (g *Groups) Find(ctx context.Context, groupUsername string) (*relations.Group, error) {
	return g.groups.FindByKey(ctx, groupUsername)
}

// AddMember adds username to the members.
func (g *Groups) AddMember(ctx context.Context, groupUsername, username string) (*relations.Group, bool, error) {
	return g.edit(ctx, groupUsername, func(group *relations.Group) bool {
		var changed bool
		group.GroupMembers, changed = relations.AddToSet(group.GroupMembers, username)
		return changed
	})
}

// RemoveMember removes username from the members. Admin status is kept.
func (g *Groups) RemoveMember(ctx context.Context, groupUsername, username string) (*relations.Group, bool, error) {
	return g.edit(ctx, groupUsername, func(group *relations.Group) bool {
		var changed bool
		group.GroupMembers, changed = relations.RemoveFromSet(group.GroupMembers, username)
		return changed
	})
}

// AddAdmin adds username to the admins and, when missing, to the members.
// Both edits go out in one save.
func (g *Groups) AddAdmin(ctx context.Context, groupUsername, username string) (*relations.Group, bool, error) {
	return g.edit(ctx, groupUsername, func(group *relations.Group) bool {
		var adminChanged, memberChanged bool
		group.GroupAdmin, adminChanged = relations.AddToSet(group.GroupAdmin, username)
		group.GroupMembers, memberChanged = relations.AddToSet(group.GroupMembers, username)
		return adminChanged || memberChanged
	})
}

// RemoveAdmin removes username from the admins only.
func (g *Groups) RemoveAdmin(ctx context.Context, groupUsername, username string) (*relations.Group, bool, error) {
	return g.edit(ctx, groupUsername, func(group *relations.Group) bool {
		var changed bool
		group.GroupAdmin, changed = relations.RemoveFromSet(group.GroupAdmin, username)
		return changed
	})
}

// Tag records that the freet freetID carries the group's tag.
func (g *Groups) Tag(ctx context.Context, groupUsername, freetID string) (*relations.Group, bool, error) {
	return g.edit(ctx, groupUsername, func(group *relations.Group) bool {
		var changed bool
		group.GroupTags, changed = relations.AddToSet(group.GroupTags, freetID)
		return changed
	})
}

func (g *Groups) edit(ctx context.Context, groupUsername string, apply func(*relations.Group) bool) (*relations.Group, bool, error) {
	group, err := g.groups.FindByKey(ctx, groupUsername)
	if err != nil {
		return nil, false, fmt.Errorf("load group %q: %w", groupUsername, err)
	}
	if !apply(group) {
		return group, false, nil
	}
	if err := g.groups.Save(ctx, group); err != nil {
		return nil, false, fmt.Errorf("save group %q: %w", group.GroupUsername, err)
	}
	return group, true, nil
}
