// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AleutianAI/freet/pkg/session"
	"github.com/AleutianAI/freet/services/freet/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockProvider struct {
	session *session.Session
	err     error
	tokens  []string
}

func (m *mockProvider) Resolve(_ context.Context, token string) (*session.Session, error) {
	m.tokens = append(m.tokens, token)
	if m.err != nil {
		return nil, m.err
	}
	return m.session, nil
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"valid", "Bearer abc123", "abc123"},
		{"lowercase scheme", "bearer abc123", "abc123"},
		{"missing", "", ""},
		{"no scheme", "abc123", ""},
		{"basic auth", "Basic abc123", ""},
		{"empty bearer", "Bearer ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				c.Request.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, extractBearerToken(c))
		})
	}
}

func sessionRouter(provider session.Provider) (*gin.Engine, **session.Session) {
	var seen *session.Session
	router := gin.New()
	router.Use(SessionMiddleware(provider))
	router.GET("/", func(c *gin.Context) {
		seen = GetSession(c)
		if seen != nil {
			fromCtx := session.FromContext(c.Request.Context())
			if fromCtx == nil || fromCtx.Username != seen.Username {
				c.Status(http.StatusInternalServerError)
				return
			}
		}
		c.Status(http.StatusOK)
	})
	return router, &seen
}

func TestSessionMiddleware_SetsSession(t *testing.T) {
	provider := &mockProvider{session: &session.Session{Username: "amy"}}
	router, seen := sessionRouter(provider)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, *seen)
	assert.Equal(t, "amy", (*seen).Username)
	assert.Equal(t, []string{"tok"}, provider.tokens)
}

func TestSessionMiddleware_NeverAborts(t *testing.T) {
	for _, err := range []error{session.ErrInvalidToken, errors.New("provider down")} {
		router, seen := sessionRouter(&mockProvider{err: err})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, *seen)
	}
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	var got string
	router.GET("/", func(c *gin.Context) {
		got = GetRequestID(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, got)
	assert.Equal(t, got, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc", got)
	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 2})
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	router := gin.New()
	router.Use(limiter.Middleware())
	router.POST("/", func(c *gin.Context) { c.Status(http.StatusCreated) })
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	post := func() int {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
		return w.Code
	}

	assert.Equal(t, http.StatusCreated, post())
	assert.Equal(t, http.StatusCreated, post())
	assert.Equal(t, http.StatusTooManyRequests, post())

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusCreated, post())
}

func TestRateLimiter_SweepsIdleBucketsOncePerTTL(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, IdleTTL: time.Minute})
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	limiter.now = func() time.Time { return now }

	limiter.allow("10.0.0.1")
	assert.Equal(t, start.Add(time.Minute), limiter.nextSweep)
	now = start.Add(30 * time.Second)
	limiter.allow("10.0.0.2")
	now = start.Add(59 * time.Second)
	limiter.allow("10.0.0.2")
	assert.Len(t, limiter.clients, 2)
	assert.Equal(t, start.Add(time.Minute), limiter.nextSweep, "no sweep before it is due")

	now = start.Add(61 * time.Second)
	limiter.allow("10.0.0.2")
	assert.Len(t, limiter.clients, 1)
	assert.Contains(t, limiter.clients, "10.0.0.2")
	assert.Equal(t, now.Add(time.Minute), limiter.nextSweep)
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{})
	router := gin.New()
	router.Use(limiter.Middleware())
	router.POST("/", func(c *gin.Context) { c.Status(http.StatusCreated) })

	for i := 0; i < 50; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
		require.Equal(t, http.StatusCreated, w.Code)
	}
}

func TestMetrics(t *testing.T) {
	m := observability.NewMetrics(prometheus.NewRegistry())
	router := gin.New()
	router.Use(Metrics(m))
	router.GET("/api/items", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/items?x=1", nil))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/api/items", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("unmatched", "GET", "404")))
}
