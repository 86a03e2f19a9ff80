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
	"fmt"
	"net/http"

	"github.com/AleutianAI/freet/services/freet/collections"
	"github.com/AleutianAI/freet/services/freet/events"
	"github.com/AleutianAI/freet/services/freet/response"
	v "github.com/AleutianAI/freet/services/freet/validation"
	"github.com/gin-gonic/gin"
)

type freetPipelines struct {
	create, list *v.Pipeline
}

func newFreetPipelines() freetPipelines {
	return freetPipelines{
		create: v.NewPipeline("freets.create",
			v.LoggedIn(),
			v.Required(v.Body, "content", "Freet content must be nonempty."),
			v.MaxLength(v.Body, "content",
				fmt.Sprintf("Freet content must be no more than %d characters.", collections.MaxFreetLength),
				collections.MaxFreetLength),
		),
		list: v.NewPipeline("freets.list"),
	}
}

type createFreetRequest struct {
	Content string `json:"content"`
}

// FreetResponse is returned by POST /api/freets.
type FreetResponse struct {
	Message string         `json:"message"`
	Freet   response.Freet `json:"freet"`
}

// HandleCreateFreet handles POST /api/freets. The author is the session
// user.
//
// Response:
//
//	201 Created: FreetResponse
//	400 Bad Request: content empty or too long
//	403 Forbidden: not logged in
func (h *Handlers) HandleCreateFreet(c *gin.Context) {
	pipeline := h.freets.create
	req := h.begin(c, pipeline)
	if req == nil {
		return
	}
	var body createFreetRequest
	if err := req.decode(&body); err != nil {
		h.fail(c, pipeline.Name, err)
		return
	}

	freet, err := h.store.Freets.Create(c.Request.Context(), req.Session.Username, body.Content)
	if err != nil {
		h.fail(c, pipeline.Name, err)
		return
	}
	h.recordMutation(c, events.KindFreets, events.OpCreated, freet.ID.Hex(), freet.Author, true)

	c.JSON(http.StatusCreated, FreetResponse{
		Message: "Your freet was created successfully.",
		Freet:   response.FromFreet(freet),
	})
}

// HandleListFreets handles GET /api/freets[?author=] and
// GET /api/users/:username/freets. The result is an array, newest first.
func (h *Handlers) HandleListFreets(c *gin.Context) {
	pipeline := h.freets.list
	req := h.begin(c, pipeline)
	if req == nil {
		return
	}
	author, _ := req.Query.Get("author")
	if username := c.Param("username"); username != "" {
		author = username
	}
	freets, err := h.store.Freets.List(c.Request.Context(), author)
	if err != nil {
		h.fail(c, pipeline.Name, err)
		return
	}
	c.JSON(http.StatusOK, response.FromFreets(freets))
}
