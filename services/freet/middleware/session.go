// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides the gin middleware of the Freet server.
package middleware

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/AleutianAI/freet/pkg/session"
	"github.com/gin-gonic/gin"
)

// sessionKey is the gin context key for the resolved session.
const sessionKey = "freet_session"

// SetSession stores s in the gin context.
func SetSession(c *gin.Context, s *session.Session) {
	c.Set(sessionKey, s)
	c.Request = c.Request.WithContext(session.WithSession(c.Request.Context(), s))
}

// GetSession returns the session resolved for this request, or nil when
// the caller is not logged in.
func GetSession(c *gin.Context) *session.Session {
	if v, exists := c.Get(sessionKey); exists {
		if s, ok := v.(*session.Session); ok {
			return s
		}
	}
	return nil
}

// SessionMiddleware resolves the bearer token into a session.
//
// # Description
//
// Unlike an authentication gate it never aborts. Requests without a valid
// token continue with no session; each endpoint's validation pipeline
// decides whether a login is required and answers 403 itself.
//
// # Inputs
//
//   - provider: Resolves tokens. Must be safe for concurrent use.
func SessionMiddleware(provider session.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)

		s, err := provider.Resolve(c.Request.Context(), token)
		switch {
		case err == nil:
			SetSession(c, s)
		case errors.Is(err, session.ErrNotLoggedIn):
			if token != "" {
				slog.Debug("rejected session token", "error", err)
			}
		default:
			slog.Warn("session resolution failed", "error", err)
		}

		c.Next()
	}
}

// extractBearerToken extracts the token from "Authorization: Bearer <token>".
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
