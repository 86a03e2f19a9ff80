// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AleutianAI/freet/pkg/session"
	"github.com/AleutianAI/freet/services/freet/collections"
	"github.com/AleutianAI/freet/services/freet/events"
	"github.com/AleutianAI/freet/services/freet/handlers"
	"github.com/AleutianAI/freet/services/freet/observability"
	"github.com/AleutianAI/freet/services/freet/routes"
	badgerstore "github.com/AleutianAI/freet/services/freet/storage/badger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	url    string
	tokens *session.JWTProvider
	hub    *events.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := badgerstore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	provider, err := session.NewJWTProvider(session.JWTConfig{Secret: "client-test-secret"})
	require.NoError(t, err)

	hub := events.NewHub()
	t.Cleanup(func() { _ = hub.Close() })

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	router := routes.NewRouter(routes.RouterConfig{
		Handlers: handlers.NewHandlers(handlers.Config{
			Store:     collections.NewBadgerStore(db),
			Publisher: hub,
			Hub:       hub,
			Metrics:   metrics,
			Version:   "v1.4.0",
		}),
		Sessions: provider,
		Metrics:  metrics,
		Gatherer: registry,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{url: srv.URL, tokens: provider, hub: hub}
}

func (s *testServer) client(t *testing.T, username string) *Client {
	t.Helper()
	if username == "" {
		return New(s.url)
	}
	token, err := s.tokens.Mint(username)
	require.NoError(t, err)
	return New(s.url+"/", WithToken(token))
}

func TestClient_Health(t *testing.T) {
	srv := newTestServer(t)
	health, err := srv.client(t, "").Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, HealthStatus{Status: "healthy", Version: "v1.4.0"}, health)
}

func TestClient_Accounts(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t).client(t, "")

	created, err := c.CreateAccount(ctx, "amy")
	require.NoError(t, err)
	assert.Equal(t, "amy", created.Username)
	assert.Len(t, created.ID, 24)

	found, err := c.GetAccount(ctx, "AMY")
	require.NoError(t, err)
	assert.Equal(t, created, found)

	_, err = c.CreateAccount(ctx, "Amy")
	assert.True(t, IsStatus(err, http.StatusConflict))

	_, err = c.GetAccount(ctx, "nobody")
	assert.True(t, IsStatus(err, http.StatusNotFound))
}

func TestClient_Followers(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	c := srv.client(t, "amy")

	_, err := srv.client(t, "").CreateFollowerView(ctx, "amy")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "You must be logged in to complete this action.", apiErr.Message)

	view, err := c.CreateFollowerView(ctx, "amy")
	require.NoError(t, err)
	assert.Equal(t, "amy", view.Username)
	assert.Empty(t, view.Followers)
	_, err = c.CreateFollowerView(ctx, "bob")
	require.NoError(t, err)

	result, err := c.Follow(ctx, "bob", "amy")
	require.NoError(t, err)
	assert.Equal(t, []string{"amy"}, result.Followed.Followers)
	assert.Equal(t, []string{"bob"}, result.Follower.Following)

	followers, err := c.Followers(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"amy"}, followers)
	following, err := c.Following(ctx, "amy")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, following)

	_, err = c.Unfollow(ctx, "bob", "amy")
	require.NoError(t, err)
	followers, err = c.Followers(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, followers)

	_, err = c.Follow(ctx, "carl", "amy")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, map[string]string{"userFollowerViewNotFound": "User does not have created follower view."}, apiErr.Fields)
}

func TestClient_GroupsAndFreets(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t).client(t, "bob")

	for _, name := range []string{"bob", "amy"} {
		_, err := c.CreateAccount(ctx, name)
		require.NoError(t, err)
	}

	group, err := c.CreateGroup(ctx, "cs", "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, group.GroupMembers)
	assert.Equal(t, []string{"bob"}, group.GroupAdmin)

	group, err = c.UpdateGroup(ctx, "cs", ActionAddAdmin, "AMY")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "amy"}, group.GroupAdmin)
	assert.Equal(t, []string{"bob", "amy"}, group.GroupMembers)

	freet, err := c.PostFreet(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "bob", freet.Author)

	group, err = c.UpdateGroup(ctx, "cs", ActionAddTag, freet.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{freet.ID}, group.GroupTags)

	fetched, err := c.GetGroup(ctx, "CS")
	require.NoError(t, err)
	assert.Equal(t, group, fetched)

	_, err = c.UpdateGroup(ctx, "cs", "rename", "x")
	assert.True(t, IsStatus(err, http.StatusBadRequest))
	_, err = c.UpdateGroup(ctx, "cs", ActionAddMember, "")
	assert.True(t, IsStatus(err, http.StatusBadRequest))

	_, err = c.PostFreet(ctx, "second")
	require.NoError(t, err)
	all, err := c.ListFreets(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "second", all[0].Content)

	mine, err := c.ListFreets(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	none, err := c.ListFreets(ctx, "amy")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestClient_Contacts(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t).client(t, "amy")

	display, err := c.CreateContact(ctx, "amy", ContactCreate{
		Displayed: true,
		Number:    "6175551234",
		Email:     "amy@example.com",
	})
	require.NoError(t, err)
	assert.True(t, display.ContactInformationDisplayed)
	assert.Equal(t, "6175551234", display.ContactNumber)

	hidden := false
	wipe := DeleteValue
	site := "amy.dev"
	display, err = c.UpdateContact(ctx, "amy", ContactUpdate{
		Displayed: &hidden,
		Number:    &wipe,
		Website:   &site,
	})
	require.NoError(t, err)
	assert.False(t, display.ContactInformationDisplayed)
	assert.Empty(t, display.ContactNumber)
	assert.Equal(t, "amy@example.com", display.ContactEmail)
	assert.Equal(t, "amy.dev", display.ContactWebsite)

	fetched, err := c.GetContact(ctx, "amy")
	require.NoError(t, err)
	assert.Equal(t, display, fetched)

	bad := "123"
	_, err = c.UpdateContact(ctx, "amy", ContactUpdate{Number: &bad})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Fields, "Number")

	_, err = c.GetContact(ctx, "nobody")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Contact Information for a user with username nobody does not exist.", apiErr.Message)
}

func TestAPIError_Decoding(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
		fields  map[string]string
		text    string
	}{
		{
			name:    "message",
			status:  http.StatusForbidden,
			body:    `{"error":"nope"}`,
			message: "nope",
			text:    "403: nope",
		},
		{
			name:   "fields",
			status: http.StatusBadRequest,
			body:   `{"error":{"b":"second","a":"first"}}`,
			fields: map[string]string{"a": "first", "b": "second"},
			text:   "400: a: first; b: second",
		},
		{
			name:    "plain text",
			status:  http.StatusBadGateway,
			body:    "upstream down\n",
			message: "upstream down",
			text:    "502: upstream down",
		},
		{
			name:   "empty",
			status: http.StatusServiceUnavailable,
			text:   "503: Service Unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL).Health(context.Background())
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, tt.fields, apiErr.Fields)
			assert.Equal(t, tt.text, apiErr.Error())
		})
	}
}

func TestClient_SendsBearerToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, WithToken("abc")).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", got)
}

func TestClient_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Health(context.Background())
	require.Error(t, err)
	assert.False(t, IsStatus(err, http.StatusNotFound))
	assert.Contains(t, err.Error(), "cannot connect")
}
