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
	"github.com/AleutianAI/freet/services/freet/relations"
	"github.com/AleutianAI/freet/services/freet/response"
	v "github.com/AleutianAI/freet/services/freet/validation"
	"github.com/gin-gonic/gin"
)

type contactPipelines struct {
	create, update, get *v.Pipeline
}

var errContactExists = v.Conflict("username", "Contact Information for this username already exists.")

const (
	displayField    = "contactInformationDisplayed"
	displayMessage  = "value must be either yes or no (case sensitive)"
	numberErrorKey  = "Number"
	numberMessage   = "Number must be a 10 digit long string of numeric characters."
	displayRequired = "Must determine if information will be displayed."
)

func newContactPipelines(store *collections.Store) contactPipelines {
	contactExists := func(ctx context.Context, username string) error {
		_, err := store.Contacts.Find(ctx, username)
		return err
	}
	displayValues := []string{"yes", "no", "true", "false"}

	return contactPipelines{
		create: v.NewPipeline("contacts.create",
			v.LoggedIn(),
			v.Present(v.Body, displayField, displayRequired),
			v.Required(v.Body, "username", "Username must be given."),
			v.Format(v.Body, "username", v.TagUsername, "Username must be a nonempty alphanumeric string.", "username"),
			v.NotExists(v.Body, "username", contactExists, func(string) *v.Error { return errContactExists }),
			v.OneOf(v.Body, displayField, displayMessage, displayValues...),
			v.FormatExcept(v.Body, numberErrorKey, v.TagPhone, numberMessage, []string{relations.DeleteSentinel}, "contactNumber"),
		),
		update: v.NewPipeline("contacts.update",
			v.LoggedIn(),
			v.Required(v.Body, "username", "Username must be given."),
			v.Exists(v.Body, "username", contactExists, func(string) *v.Error {
				return v.NotFound("userContactInformationNotFound", "User does not have created contact information.")
			}),
			v.OneOf(v.Body, displayField, displayMessage, displayValues...),
			v.FormatExcept(v.Body, numberErrorKey, v.TagPhone, numberMessage, []string{relations.DeleteSentinel}, "contactNumber"),
		),
		get: v.NewPipeline("contacts.get",
			v.RequiredMessage(v.Query, "username", "Provided author username must be nonempty."),
			v.Exists(v.Query, "username", contactExists, func(username string) *v.Error {
				return v.NotFound("", fmt.Sprintf("Contact Information for a user with username %s does not exist.", username))
			}),
		),
	}
}

type createContactRequest struct {
	ContactInformationDisplayed relations.DisplayFlag `json:"contactInformationDisplayed"`
	Username                    string                `json:"username"`
	ContactNumber               contactString         `json:"contactNumber"`
	ContactEmail                contactString         `json:"contactEmail"`
	ContactWebsite              contactString         `json:"contactWebsite"`
	ContactAddress              contactString         `json:"contactAddress"`
}

// contactString accepts a JSON string or number, so a phone number sent
// unquoted is stored as its digits. The delete sentinel means empty for
// every field.
type contactString string

func (s *contactString) UnmarshalJSON(data []byte) error {
	var p relations.FieldPatch
	if err := p.UnmarshalJSON(data); err != nil {
		return err
	}
	*s = ""
	if p.Op == relations.PatchSet {
		*s = contactString(p.Value)
	}
	return nil
}

type updateContactRequest struct {
	Username string `json:"username"`
	relations.ContactPatch
}

// ContactResponse is returned by POST and PUT /api/contacts.
type ContactResponse struct {
	Message                   string                  `json:"message"`
	ContactInformationDisplay response.ContactDisplay `json:"contactInformationDisplay"`
}

// HandleCreateContact handles POST /api/contacts.
//
// Request Body:
//
//	{"contactInformationDisplayed": true, "username": "amy", "contactNumber": "5551234567",
//	 "contactEmail": "", "contactWebsite": "", "contactAddress": ""}
//
// contactInformationDisplayed accepts true/false or "yes"/"no". A contact
// field sent as "delete" is stored empty, the same as on update; this holds
// for contactNumber too, which otherwise must be ten digits.
//
// Response:
//
//	201 Created: ContactResponse
//	400 Bad Request: display flag or username missing, bad flag or number
//	403 Forbidden: not logged in
//	409 Conflict: contact information exists for the username
func (h *Handlers) HandleCreateContact(c *gin.Context) {
	pipeline := h.contacts.create
	req := h.begin(c, pipeline)
	if req == nil {
		return
	}
	var body createContactRequest
	if err := req.decode(&body); err != nil {
		h.fail(c, pipeline.Name, err)
		return
	}

	contact, err := h.store.Contacts.Create(c.Request.Context(), &relations.ContactDisplay{
		ContactInformationDisplayed: body.ContactInformationDisplayed.Value,
		Username:                    body.Username,
		ContactNumber:               string(body.ContactNumber),
		ContactEmail:                string(body.ContactEmail),
		ContactWebsite:              string(body.ContactWebsite),
		ContactAddress:              string(body.ContactAddress),
	})
	if err != nil {
		h.fail(c, pipeline.Name, conflictOr(err, errContactExists))
		return
	}
	h.recordMutation(c, events.KindContacts, events.OpCreated, contact.Username, "", true)

	c.JSON(http.StatusCreated, ContactResponse{
		Message:                   "Your contact information display was created successfully.",
		ContactInformationDisplay: response.FromContactDisplay(contact),
	})
}

// HandleUpdateContact handles PUT /api/contacts.
//
// Request Body:
//
//	{"username": "amy", "contactEmail": "delete", "contactAddress": "1 Main St"}
//
// Each contact field is left alone when absent, empty or null, cleared
// when "delete", and replaced otherwise. contactInformationDisplayed is
// applied whenever present, including false.
//
// Response:
//
//	200 OK: ContactResponse
//	400 Bad Request: username missing, bad flag or number
//	403 Forbidden: not logged in
//	404 Not Found: no contact information for the username
func (h *Handlers) HandleUpdateContact(c *gin.Context) {
	pipeline := h.contacts.update
	req := h.begin(c, pipeline)
	if req == nil {
		return
	}
	var body updateContactRequest
	if err := req.decode(&body); err != nil {
		h.fail(c, pipeline.Name, err)
		return
	}

	contact, applied, err := h.store.Contacts.Update(c.Request.Context(), body.Username, body.ContactPatch)
	if err != nil {
		h.fail(c, pipeline.Name, err)
		return
	}
	h.recordMutation(c, events.KindContacts, events.OpUpdated, contact.Username, "", applied)

	c.JSON(http.StatusOK, ContactResponse{
		Message:                   "Your contact information was updated successfully.",
		ContactInformationDisplay: response.FromContactDisplay(contact),
	})
}

// HandleGetContact handles GET /api/contacts?username=.
//
// Response:
//
//	200 OK: the projected contact display
//	400 Bad Request: username missing
//	404 Not Found: no contact information for the username
func (h *Handlers) HandleGetContact(c *gin.Context) {
	pipeline := h.contacts.get
	req := h.begin(c, pipeline)
	if req == nil {
		return
	}
	username, _ := req.Query.Get("username")
	contact, err := h.store.Contacts.Find(c.Request.Context(), username)
	if err != nil {
		h.fail(c, pipeline.Name, err)
		return
	}
	c.JSON(http.StatusOK, response.FromContactDisplay(contact))
}
