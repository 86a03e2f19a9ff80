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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AleutianAI/freet/pkg/session"
	"github.com/AleutianAI/freet/services/freet/collections"
	"github.com/AleutianAI/freet/services/freet/events"
	"github.com/AleutianAI/freet/services/freet/middleware"
	"github.com/AleutianAI/freet/services/freet/observability"
	"github.com/AleutianAI/freet/services/freet/response"
	badgerstore "github.com/AleutianAI/freet/services/freet/storage/badger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Tokens accepted by tokenProvider.
const (
	amyToken = "amy-token"
	bobToken = "bob-token"
)

type tokenProvider map[string]string

func (p tokenProvider) Resolve(_ context.Context, token string) (*session.Session, error) {
	if username, ok := p[token]; ok {
		return &session.Session{Username: username}, nil
	}
	return nil, session.ErrNotLoggedIn
}

type testEnv struct {
	router   *gin.Engine
	db       *badgerstore.DB
	store    *collections.Store
	events   *events.Recorder
	metrics  *observability.Metrics
	handlers *Handlers
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := badgerstore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	env := &testEnv{
		db:      db,
		store:   collections.NewBadgerStore(db),
		events:  &events.Recorder{},
		metrics: observability.NewMetrics(prometheus.NewRegistry()),
	}
	env.handlers = NewHandlers(Config{
		Store:     env.store,
		Publisher: env.events,
		Metrics:   env.metrics,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	h := env.handlers
	router := gin.New()
	router.Use(middleware.SessionMiddleware(tokenProvider{amyToken: "amy", bobToken: "bob"}))
	router.GET("/health", h.HandleHealth)
	router.POST("/api/followers", h.HandleCreateFollowerView)
	router.PUT("/api/followers", h.HandleUpdateFollowers)
	router.GET("/api/followers", h.HandleGetFollowers)
	router.POST("/api/groups", h.HandleCreateGroup)
	router.PUT("/api/groups", h.HandleUpdateGroup)
	router.GET("/api/groups", h.HandleGetGroup)
	router.POST("/api/contacts", h.HandleCreateContact)
	router.PUT("/api/contacts", h.HandleUpdateContact)
	router.GET("/api/contacts", h.HandleGetContact)
	router.POST("/api/users", h.HandleCreateAccount)
	router.GET("/api/users", h.HandleGetAccount)
	router.GET("/api/users/:username/freets", h.HandleListFreets)
	router.POST("/api/freets", h.HandleCreateFreet)
	router.GET("/api/freets", h.HandleListFreets)
	env.router = router
	return env
}

// do sends body as JSON (or verbatim when it is a string) and returns the
// recorded response.
func (e *testEnv) do(t *testing.T, method, target string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) mustAccount(t *testing.T, username string) {
	t.Helper()
	_, err := e.store.Accounts.Create(context.Background(), username)
	require.NoError(t, err)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// errorBody returns the "error" value of a failed response.
func errorBody(t *testing.T, w *httptest.ResponseRecorder) any {
	t.Helper()
	return decode[map[string]any](t, w)["error"]
}

func TestNewHandlers_Defaults(t *testing.T) {
	db, err := badgerstore.OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	h := NewHandlers(Config{Store: collections.NewBadgerStore(db)})
	assert.Equal(t, events.Nop{}, h.publisher)
	assert.NotNil(t, h.logger)
}

func TestFollowers_Create(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/followers", map[string]any{"username": "amy"}, amyToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode[FollowerViewResponse](t, w)
	assert.Equal(t, "Your follower view was created successfully.", resp.Message)
	assert.Equal(t, "amy", resp.Followers.Username)
	assert.Len(t, resp.Followers.ID, 24)
	assert.Equal(t, []string{}, resp.Followers.Followers)
	assert.Equal(t, []string{}, resp.Followers.Following)
	assert.NotContains(t, w.Body.String(), "__v")
	assert.Equal(t, []string{"freet.followers.created"}, env.events.Topics())
}

func TestFollowers_CreateRejected(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/followers", map[string]any{"username": "amy"}, amyToken)

	tests := []struct {
		name   string
		body   any
		token  string
		status int
		error  any
	}{
		{"not logged in", map[string]any{"username": "bob"}, "", http.StatusForbidden,
			"You must be logged in to complete this action."},
		{"missing username", map[string]any{}, amyToken, http.StatusBadRequest,
			map[string]any{"username": "Username must be given."}},
		{"blank username", map[string]any{"username": "  "}, amyToken, http.StatusBadRequest,
			map[string]any{"username": "Username must be given."}},
		{"malformed username", map[string]any{"username": "a b"}, amyToken, http.StatusBadRequest,
			map[string]any{"username": "Username must be a nonempty alphanumeric string."}},
		{"duplicate in another case", map[string]any{"username": "AMY"}, amyToken, http.StatusConflict,
			map[string]any{"username": "Follower view for this username already exists."}},
		{"invalid json", "{not json", amyToken, http.StatusBadRequest, "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/followers", tt.body, tt.token)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.error, errorBody(t, w))
		})
	}

	assert.Len(t, env.events.Events(), 1, "rejected requests publish nothing")
	assert.Equal(t, 1.0, testutil.ToFloat64(
		env.metrics.ValidationRejections.WithLabelValues("followers.create", "auth")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		env.metrics.ValidationRejections.WithLabelValues("followers.create", "conflict")))
}

func TestFollowers_FollowAndUnfollow(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/followers", map[string]any{"username": "amy"}, amyToken)
	env.do(t, http.MethodPost, "/api/followers", map[string]any{"username": "bob"}, bobToken)

	follow := map[string]any{"usernameOfFollowed": "amy", "usernameOfFollower": "BOB", "add": "true"}
	w := env.do(t, http.MethodPut, "/api/followers", follow, bobToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[FollowUpdateResponse](t, w)
	assert.Equal(t, "Your follower view was updated successfully (added follower).", resp.Message)
	assert.Equal(t, []string{"bob"}, resp.UsernameOfFollowed.Followers)
	assert.Equal(t, []string{"amy"}, resp.UsernameOfFollower.Following)

	// Repeating the follow, with a JSON boolean this time, changes nothing.
	follow["add"] = true
	w = env.do(t, http.MethodPut, "/api/followers", follow, bobToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp = decode[FollowUpdateResponse](t, w)
	assert.Equal(t, []string{"bob"}, resp.UsernameOfFollowed.Followers)

	w = env.do(t, http.MethodGet, "/api/followers?username=amy&followers=true", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"bob"}, decode[FollowersListResponse](t, w).Followers)

	w = env.do(t, http.MethodGet, "/api/followers?username=bob&followers=false", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"amy"}, decode[FollowingListResponse](t, w).Following)

	follow["add"] = "false"
	w = env.do(t, http.MethodPut, "/api/followers", follow, bobToken)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[FollowUpdateResponse](t, w)
	assert.Equal(t, "Your follower view was updated successfully. (removed follower)", resp.Message)
	assert.Empty(t, resp.UsernameOfFollowed.Followers)
	assert.Empty(t, resp.UsernameOfFollower.Following)

	assert.Equal(t, []string{
		"freet.followers.created",
		"freet.followers.created",
		"freet.followers.added",
		"freet.followers.removed",
	}, env.events.Topics())

	added := env.events.Events()[2]
	assert.Equal(t, "amy", added.Subject)
	assert.Equal(t, "bob", added.Object)
	assert.Equal(t, "bob", added.Actor)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		env.metrics.Mutations.WithLabelValues(events.KindFollowers, events.OpAdded, observability.OutcomeApplied)))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		env.metrics.Mutations.WithLabelValues(events.KindFollowers, events.OpAdded, observability.OutcomeNoop)))
}

func TestFollowers_UpdateRejected(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/followers", map[string]any{"username": "amy"}, amyToken)

	tests := []struct {
		name   string
		body   map[string]any
		token  string
		status int
		error  any
	}{
		{"not logged in", map[string]any{"usernameOfFollowed": "amy", "usernameOfFollower": "amy", "add": "true"},
			"", http.StatusForbidden, "You must be logged in to complete this action."},
		{"missing follower", map[string]any{"usernameOfFollowed": "amy", "add": "true"},
			amyToken, http.StatusBadRequest, map[string]any{"username": "Both usernames must be given."}},
		{"unknown follower", map[string]any{"usernameOfFollowed": "amy", "usernameOfFollower": "zed", "add": "true"},
			amyToken, http.StatusNotFound, map[string]any{"userFollowerViewNotFound": "User does not have created follower view."}},
		{"missing add", map[string]any{"usernameOfFollowed": "amy", "usernameOfFollower": "amy"},
			amyToken, http.StatusBadRequest, map[string]any{"add": "add must be given."}},
		{"bad add", map[string]any{"usernameOfFollowed": "amy", "usernameOfFollower": "amy", "add": "maybe"},
			amyToken, http.StatusBadRequest, map[string]any{"add": "add must be either true or false."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPut, "/api/followers", tt.body, tt.token)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.error, errorBody(t, w))
		})
	}
}

func TestFollowers_GetRejected(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/followers", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Provided author username must be nonempty.", errorBody(t, w))

	w = env.do(t, http.MethodGet, "/api/followers?username=zed", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Follower View for a user with username zed does not exist.", errorBody(t, w))
}

func TestAccounts(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/users", map[string]any{"username": "Bob"}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[AccountResponse](t, w)
	assert.Equal(t, "Bob", created.User.Username)
	assert.NotEmpty(t, created.User.DateJoined)

	w = env.do(t, http.MethodPost, "/api/users", map[string]any{"username": "bob"}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, map[string]any{"username": "An account with this username already exists."}, errorBody(t, w))

	w = env.do(t, http.MethodPost, "/api/users", map[string]any{"username": "bob!"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/users?username=BOB", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.User, decode[AccountLookupResponse](t, w).User)

	w = env.do(t, http.MethodGet, "/api/users?username=zed", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, map[string]any{"user": "A user with this username does not exists."}, errorBody(t, w))
}

func TestFreets(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/freets", map[string]any{"content": "hello"}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/freets", map[string]any{"content": ""}, bobToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, map[string]any{"content": "Freet content must be nonempty."}, errorBody(t, w))

	w = env.do(t, http.MethodPost, "/api/freets", map[string]any{"content": strings.Repeat("x", 141)}, bobToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/freets", map[string]any{"content": strings.Repeat("é", 140)}, bobToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[FreetResponse](t, w).Freet
	assert.Equal(t, "bob", first.Author)

	w = env.do(t, http.MethodPost, "/api/freets", map[string]any{"content": "second"}, bobToken)
	require.Equal(t, http.StatusCreated, w.Code)
	second := decode[FreetResponse](t, w).Freet

	w = env.do(t, http.MethodPost, "/api/freets", map[string]any{"content": "amy's"}, amyToken)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, "/api/users/bob/freets", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]response.Freet](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	w = env.do(t, http.MethodGet, "/api/freets", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]response.Freet](t, w), 3)

	w = env.do(t, http.MethodGet, "/api/freets?author=nobody", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())

	require.NoError(t, env.db.Close())
	w = env.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	env := newTestEnv(t)
	env.events.FailWith(errors.New("broker down"))

	w := env.do(t, http.MethodPost, "/api/followers", map[string]any{"username": "amy"}, amyToken)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, env.events.Events())
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.EventPublishFailures))
}

func TestHealth_ReportsVersion(t *testing.T) {
	db, err := badgerstore.OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	h := NewHandlers(Config{Store: collections.NewBadgerStore(db), Version: "v1.2.0"})
	router := gin.New()
	router.GET("/health", h.HandleHealth)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","version":"v1.2.0"}`, w.Body.String())
}
