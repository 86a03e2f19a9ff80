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
	"time"

	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

// HandleHealth reports whether the store answers a ping.
//
// Response:
//
//	200 OK:                  {"status": "healthy", "version": "v1.2.0"}
//	503 Service Unavailable: {"status": "unhealthy", "error": "..."}
//
// version is omitted when the server was built without one.
func (h *Handlers) HandleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.requestLogger(c, "health").Warn("store ping failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	body := gin.H{"status": "healthy"}
	if h.version != "" {
		body["version"] = h.version
	}
	c.JSON(http.StatusOK, body)
}
