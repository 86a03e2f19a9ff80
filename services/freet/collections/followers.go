// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package collections implements the Freet mutation operations.
//
// # Description
//
// Each type here wraps one storage.Collection and exposes the named
// operations the HTTP layer calls after its validation pipeline has passed.
// Every edit is an idempotent set-membership change: adding a present entry
// or removing an absent one changes nothing and saves nothing. Operations
// report whether they applied a change so callers can count and announce
// real mutations only.
//
// # Consistency
//
// Operations never validate their inputs beyond loading the records they
// need; existence and format checks belong to the validation pipeline.
// Follower edits touch two records with two independent saves. A failure
// between them leaves the pair asymmetric until the same edit is retried,
// which completes the missing half.
//
// # Thread Safety
//
// Types are safe for concurrent use. Concurrent edits of the same record
// race and the last save wins.
package collections

import (
	"context"
	"fmt"

	"github.com/AleutianAI/freet/services/freet/relations"
	"github.com/AleutianAI/freet/services/freet/storage"
)

// Followers manages follower views.
type Followers struct {
	views storage.Collection[*relations.FollowerView]
}

// NewFollowers wraps views.
func NewFollowers(views storage.Collection[*relations.FollowerView]) *Followers {
	return &Followers{views: views}
}

// Create stores an empty view for username. Callers check the name is not
// in use first.
func (f *Followers) Create(ctx context.Context, username string) (*relations.FollowerView, error) {
	view := relations.NewFollowerView(username)
	if err := f.views.Create(ctx, view); err != nil {
		return nil, err
	}
	return view, nil
}

// Find returns the view for username, matched case-insensitively.
func (f *Followers) Find(ctx context.Context, username string) (*relations.FollowerView, error) {
	return f.views.FindByKey(ctx, username)
}

// AddFollower records that follower follows followed.
//
// # Description
//
// Loads both views (both must already exist), appends the follower's
// stored username to followed.Followers when absent and saves, then
// appends the followed user's stored username to follower.Following when
// absent and saves. The saves are independent.
//
// # Outputs
//
//   - *relations.FollowerView: The followed user's view after the edit.
//   - bool: True if either view changed.
//   - error: storage.ErrNotFound if a view is missing, or a save failure.
func (f *Followers) AddFollower(ctx context.Context, followed, follower string) (*relations.FollowerView, bool, error) {
	return f.edit(ctx, followed, follower, relations.AddToSet)
}

// RemoveFollower undoes AddFollower. Absent entries are left alone.
func (f *Followers) RemoveFollower(ctx context.Context, followed, follower string) (*relations.FollowerView, bool, error) {
	return f.edit(ctx, followed, follower, relations.RemoveFromSet)
}

func (f *Followers) edit(
	ctx context.Context,
	followed, follower string,
	apply func([]string, string) ([]string, bool),
) (*relations.FollowerView, bool, error) {
	followedView, err := f.views.FindByKey(ctx, followed)
	if err != nil {
		return nil, false, fmt.Errorf("load followed view %q: %w", followed, err)
	}
	followerView, err := f.views.FindByKey(ctx, follower)
	if err != nil {
		return nil, false, fmt.Errorf("load follower view %q: %w", follower, err)
	}

	// A user following themselves has one document; editing two copies of
	// it would let the second save drop the first edit.
	if storage.SameKey(followedView.Username, followerView.Username) {
		followerView = followedView
	}

	var followersChanged, followingChanged bool
	followedView.Followers, followersChanged = apply(followedView.Followers, followerView.Username)
	if followerView != followedView && followersChanged {
		if err := f.views.Save(ctx, followedView); err != nil {
			return nil, false, fmt.Errorf("save followed view %q: %w", followedView.Username, err)
		}
	}

	followerView.Following, followingChanged = apply(followerView.Following, followedView.Username)
	if followingChanged || (followerView == followedView && followersChanged) {
		if err := f.views.Save(ctx, followerView); err != nil {
			return followedView, followersChanged, fmt.Errorf("save follower view %q: %w", followerView.Username, err)
		}
	}

	return followedView, followersChanged || followingChanged, nil
}
