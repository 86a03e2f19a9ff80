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
	"github.com/AleutianAI/freet/services/freet/response"
	v "github.com/AleutianAI/freet/services/freet/validation"
	"github.com/gin-gonic/gin"
)

type accountPipelines struct {
	create, get *v.Pipeline
}

var errAccountExists = v.Conflict("username", "An account with this username already exists.")

func newAccountPipelines(store *collections.Store) accountPipelines {
	accountExists := func(ctx context.Context, username string) error {
		_, err := store.Accounts.Find(ctx, username)
		return err
	}
	return accountPipelines{
		create: v.NewPipeline("accounts.create",
			v.Required(v.Body, "username", "Username must be given."),
			v.Format(v.Body, "username", v.TagUsername, "Username must be a nonempty alphanumeric string.", "username"),
			v.NotExists(v.Body, "username", accountExists, func(string) *v.Error { return errAccountExists }),
		),
		get: v.NewPipeline("accounts.get",
			v.RequiredMessage(v.Query, "username", "Provided username must be nonempty."),
			v.Exists(v.Query, "username", accountExists, func(string) *v.Error { return errUserMissing }),
		),
	}
}

type createAccountRequest struct {
	Username string `json:"username"`
}

// AccountResponse is returned by POST /api/users.
type AccountResponse struct {
	Message string           `json:"message"`
	User    response.Account `json:"user"`
}

// AccountLookupResponse is returned by GET /api/users.
type AccountLookupResponse struct {
	User response.Account `json:"user"`
}

// HandleCreateAccount handles POST /api/users. Registration needs no
// session.
//
// Response:
//
//	201 Created: AccountResponse
//	400 Bad Request: username missing or malformed
//	409 Conflict: username taken
func (h *Handlers) HandleCreateAccount(c *gin.Context) {
	pipeline := h.accounts.create
	req := h.begin(c, pipeline)
	if req == nil {
		return
	}
	var body createAccountRequest
	if err := req.decode(&body); err != nil {
		h.fail(c, pipeline.Name, err)
		return
	}

	account, err := h.store.Accounts.Create(c.Request.Context(), body.Username)
	if err != nil {
		h.fail(c, pipeline.Name, conflictOr(err, errAccountExists))
		return
	}
	h.recordMutation(c, events.KindAccounts, events.OpCreated, account.Username, "", true)

	c.JSON(http.StatusCreated, AccountResponse{
		Message: "Your account was created successfully.",
		User:    response.FromAccount(account),
	})
}

// HandleGetAccount handles GET /api/users?username=.
func (h *Handlers) HandleGetAccount(c *gin.Context) {
	pipeline := h.accounts.get
	req := h.begin(c, pipeline)
	if req == nil {
		return
	}
	username, _ := req.Query.Get("username")
	account, err := h.store.Accounts.Find(c.Request.Context(), username)
	if err != nil {
		h.fail(c, pipeline.Name, err)
		return
	}
	c.JSON(http.StatusOK, AccountLookupResponse{User: response.FromAccount(account)})
}
