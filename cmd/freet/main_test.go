// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/AleutianAI/freet/pkg/session"
	"github.com/AleutianAI/freet/pkg/ux"
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

type cliEnv struct {
	configPath string
	statePath  string
	tokens     *session.JWTProvider
	hub        *events.Hub
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	db, err := badgerstore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	provider, err := session.NewJWTProvider(session.JWTConfig{Secret: "cli-test-secret"})
	require.NoError(t, err)

	hub := events.NewHub()
	t.Cleanup(func() { _ = hub.Close() })

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	srv := httptest.NewServer(routes.NewRouter(routes.RouterConfig{
		Handlers: handlers.NewHandlers(handlers.Config{
			Store:     collections.NewBadgerStore(db),
			Publisher: hub,
			Hub:       hub,
			Metrics:   metrics,
			Version:   "v1.0.0",
		}),
		Sessions: provider,
		Metrics:  metrics,
		Gatherer: registry,
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	env := &cliEnv{
		configPath: filepath.Join(dir, "freet.yaml"),
		statePath:  filepath.Join(dir, "state.yaml"),
		tokens:     provider,
		hub:        hub,
	}
	cfg := "server_url: " + srv.URL + "\nstate_path: " + env.statePath + "\n"
	require.NoError(t, os.WriteFile(env.configPath, []byte(cfg), 0600))
	return env
}

func (e *cliEnv) run(args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--config", e.configPath, "--output", "plain"))
	err := cmd.Execute()
	return out.String(), err
}

func (e *cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(args...)
	require.NoError(t, err, "freet %s: %s", strings.Join(args, " "), out)
	return out
}

func (e *cliEnv) login(t *testing.T, username string) {
	t.Helper()
	token, err := e.tokens.Mint(username)
	require.NoError(t, err)
	e.mustRun(t, "login", username, "--token", token)
}

func (e *cliEnv) state(t *testing.T) *ux.AppState {
	t.Helper()
	s, err := ux.LoadState(e.statePath)
	require.NoError(t, err)
	return s
}

func TestCLI_AccountsAndLogin(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun(t, "users", "create", "Amy")
	assert.Contains(t, out, "\tAmy\t")
	assert.Contains(t, out, "OK: Your account was created successfully.")

	_, err := env.run("users", "create", "amy")
	assert.ErrorContains(t, err, "An account with this username already exists.")

	token, err := env.tokens.Mint("amy")
	require.NoError(t, err)
	out = env.mustRun(t, "login", "amy", "--token", token)
	assert.Contains(t, out, "OK: Logged in as @Amy.")

	s := env.state(t)
	assert.Equal(t, "Amy", s.Username)
	assert.Equal(t, token, s.Token)
	assert.Equal(t, "Amy\n", env.mustRun(t, "whoami"))

	out = env.mustRun(t, "login", "ghost")
	assert.Contains(t, out, "No account named ghost yet")

	env.mustRun(t, "logout")
	_, err = env.run("whoami")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestCLI_Followers(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t, "amy")

	env.mustRun(t, "followers", "init")
	env.mustRun(t, "followers", "init", "bob")
	_, err := env.run("followers", "init", "bob")
	assert.ErrorContains(t, err, "409")

	env.mustRun(t, "followers", "follow", "bob")
	assert.Equal(t, "bob\n", env.mustRun(t, "followers", "following"))
	assert.Equal(t, "amy\n", env.mustRun(t, "followers", "list", "bob"))
	assert.Equal(t, []string{"bob"}, env.state(t).Following)

	env.mustRun(t, "followers", "unfollow", "bob")
	assert.Empty(t, env.mustRun(t, "followers", "list", "bob"))
	assert.Empty(t, env.state(t).Following)

	_, err = env.run("followers", "follow", "carl")
	assert.ErrorContains(t, err, "User does not have created follower view.")
}

func TestCLI_FreetsAndGroups(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "users", "create", "amy")
	env.mustRun(t, "users", "create", "bob")

	_, err := env.run("freets", "post", "anonymous")
	assert.ErrorContains(t, err, "You must be logged in to complete this action.")

	env.login(t, "amy")
	out := env.mustRun(t, "freets", "post", "hello", "world")
	assert.Contains(t, out, "\tamy\t")
	assert.Contains(t, out, "\thello world\n")
	id := strings.SplitN(out, "\t", 2)[0]
	require.Len(t, id, 24)

	assert.Empty(t, env.mustRun(t, "freets", "list", "--author", "bob"))
	assert.Equal(t, "bob", env.state(t).Filter)
	assert.Empty(t, env.mustRun(t, "freets", "list"), "filter is remembered")
	assert.Contains(t, env.mustRun(t, "freets", "list", "--author", ""), "hello world")
	assert.Contains(t, env.mustRun(t, "feed"), "hello world")

	out = env.mustRun(t, "groups", "create", "cs")
	assert.Contains(t, out, "members\tamy\n")
	out = env.mustRun(t, "groups", "add-admin", "cs", "BOB")
	assert.Contains(t, out, "admins\tamy,bob\n")
	out = env.mustRun(t, "groups", "remove-member", "cs", "bob")
	assert.Contains(t, out, "members\tamy\n")
	assert.Contains(t, out, "admins\tamy,bob\n")
	out = env.mustRun(t, "groups", "tag", "cs", id)
	assert.Contains(t, out, "tags\t"+id+"\n")
	assert.Contains(t, env.mustRun(t, "groups", "get", "CS"), "tags\t"+id+"\n")

	_, err = env.run("groups", "add-member", "cs", "nobody")
	assert.ErrorContains(t, err, "404")
}

func TestCLI_Contact(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t, "amy")

	_, err := env.run("contact", "create")
	assert.ErrorContains(t, err, "--display")

	out := env.mustRun(t, "contact", "create", "--display", "yes", "--number", "6175551234", "--email", "amy@example.com")
	assert.Contains(t, out, "amy\ttrue\t6175551234\tamy@example.com\t\t\n")

	_, err = env.run("contact", "create", "--display", "no")
	assert.ErrorContains(t, err, "Contact Information for this username already exists.")

	out = env.mustRun(t, "contact", "update", "--display", "no", "--number", "delete")
	assert.Contains(t, out, "amy\tfalse\t\tamy@example.com\t\t\n")

	_, err = env.run("contact", "update", "--number", "123")
	assert.ErrorContains(t, err, "400")

	assert.Equal(t, "amy\tfalse\t\tamy@example.com\t\t\n", env.mustRun(t, "contact", "get"))
	require.NotNil(t, env.state(t).Contact)
	assert.False(t, env.state(t).Contact.ContactInformationDisplayed)

	_, err = env.run("contact", "get", "bob")
	assert.ErrorContains(t, err, "Contact Information for a user with username bob does not exist.")
}

func TestParseDisplay(t *testing.T) {
	for in, want := range map[string]bool{"yes": true, "TRUE": true, "no": false, " false ": false} {
		got, err := parseDisplay(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseDisplay("maybe")
	assert.Error(t, err)
}

func TestCLI_Status(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun(t, "status")
	assert.Contains(t, out, "OK: ")
	assert.Contains(t, out, "is healthy (server v1.0.0, client dev)")
	assert.NotContains(t, out, "WARN")

	prev := Version
	t.Cleanup(func() { Version = prev })
	Version = "v2.1.0"
	out = env.mustRun(t, "status")
	assert.Contains(t, out, "WARN: incompatible server version")
}

func TestCLI_Events(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run("events")
	assert.ErrorIs(t, err, errNotLoggedIn)

	env.login(t, "amy")
	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := env.run("events", "--kind", "freets", "--limit", "1")
		done <- result{out, err}
	}()
	require.Eventually(t, func() bool { return env.hub.Subscribers() == 1 }, 5*time.Second, 10*time.Millisecond)

	env.mustRun(t, "freets", "post", "streamed", "freet")
	select {
	case r := <-done:
		require.NoError(t, r.err, r.out)
		assert.Contains(t, r.out, "\tfreet.freets.created\t")
		assert.Contains(t, r.out, "\tamy\tamy\n")
	case <-time.After(5 * time.Second):
		t.Fatal("events command did not return")
	}
}
