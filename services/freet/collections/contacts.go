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

// Contacts manages contact information displays.
type Contacts struct {
	contacts storage.Collection[*relations.ContactDisplay]
}

// NewContacts wraps contacts.
func NewContacts(contacts storage.Collection[*relations.ContactDisplay]) *Contacts {
	return &Contacts{contacts: contacts}
}

// Create stores contact as given.
func (c *Contacts) Create(ctx context.Context, contact *relations.ContactDisplay) (*relations.ContactDisplay, error) {
	if err := c.contacts.Create(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

// Find returns the display for username, matched case-insensitively.
func (c *Contacts) Find(ctx context.Context, username string) (*relations.ContactDisplay, error) {
	return c.contacts.FindByKey(ctx, username)
}

// Update applies patch to the display for username. Nothing is saved when
// the patch leaves every field as it was.
func (c *Contacts) Update(ctx context.Context, username string, patch relations.ContactPatch) (*relations.ContactDisplay, bool, error) {
	contact, err := c.contacts.FindByKey(ctx, username)
	if err != nil {
		return nil, false, fmt.Errorf("load contact display %q: %w", username, err)
	}
	if !patch.Apply(contact) {
		return contact, false, nil
	}
	if err := c.contacts.Save(ctx, contact); err != nil {
		return nil, false, fmt.Errorf("save contact display %q: %w", contact.Username, err)
	}
	return contact, true, nil
}
