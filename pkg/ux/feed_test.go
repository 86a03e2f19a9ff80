// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/AleutianAI/freet/services/freet/response"
	tea "github.com/charmbracelet/bubbletea"
)

func newTestFeed(state *AppState, src *fakeSource) FeedModel {
	m := NewFeedModel(state, src)
	m.now = func() time.Time { return t0 }
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m FeedModel, msg tea.Msg) (FeedModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(FeedModel), cmd
}

func TestFeedModel_LoadsWithFilter(t *testing.T) {
	src := &fakeSource{freets: map[string][]response.Freet{
		"amy": {{ID: "1", Author: "amy", Content: "hello"}},
	}}
	state := &AppState{Filter: "amy"}
	m := newTestFeed(state, src)

	msg := m.refresh()()
	m, _ = press(t, m, msg)

	if len(state.Freets) != 1 || src.authors[0] != "amy" {
		t.Fatalf("freets = %v, authors = %v", state.Freets, src.authors)
	}
	if !strings.Contains(m.View(), "hello") {
		t.Error("view should show loaded freets")
	}
	if !strings.Contains(m.View(), "@amy") {
		t.Error("view title should show the filter")
	}
}

func TestFeedModel_FilterFlow(t *testing.T) {
	src := &fakeSource{freets: map[string][]response.Freet{
		"bob": {{ID: "2", Author: "bob", Content: "from bob"}},
	}}
	state := &AppState{}
	m := newTestFeed(state, src)

	m, _ = press(t, m, runes("/"))
	if !m.filtering {
		t.Fatal("/ should open the filter input")
	}
	m, _ = press(t, m, runes("bob"))
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.filtering {
		t.Error("enter should close the filter input")
	}
	if state.Filter != "bob" {
		t.Fatalf("Filter = %q, want bob", state.Filter)
	}
	if cmd == nil {
		t.Fatal("applying a filter should refresh")
	}
	m, _ = press(t, m, cmd())
	if len(state.Freets) != 1 || state.Freets[0].Author != "bob" {
		t.Errorf("freets = %v", state.Freets)
	}
	if got := messages(state.Alerts(t0)); len(got) != 1 || got[0] != "Showing freets by @bob." {
		t.Errorf("alerts = %v", got)
	}

	_, cmd = press(t, m, runes("c"))
	if state.Filter != "" || cmd == nil {
		t.Error("c should clear the filter and refresh")
	}
}

func TestFeedModel_FilterEscapeKeepsFilter(t *testing.T) {
	state := &AppState{Filter: "amy"}
	m := newTestFeed(state, &fakeSource{})

	m, _ = press(t, m, runes("/"))
	m, _ = press(t, m, runes("x"))
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.filtering || cmd != nil {
		t.Error("esc should close the input without a refresh")
	}
	if state.Filter != "amy" {
		t.Errorf("Filter = %q, want amy", state.Filter)
	}
}

func TestFeedModel_StaleLoadIgnored(t *testing.T) {
	state := &AppState{Filter: "bob", Freets: []response.Freet{{ID: "keep"}}}
	m := newTestFeed(state, &fakeSource{})

	_, _ = press(t, m, freetsLoadedMsg{author: "amy", freets: []response.Freet{{ID: "stale"}}})
	if state.Freets[0].ID != "keep" {
		t.Error("a load for an old filter must not replace the feed")
	}
}

func TestFeedModel_LoadErrorBecomesAlert(t *testing.T) {
	state := &AppState{Freets: []response.Freet{{ID: "keep"}}}
	m := newTestFeed(state, &fakeSource{})

	m, _ = press(t, m, freetsLoadedMsg{err: errors.New("server unreachable")})
	if len(state.Freets) != 1 {
		t.Error("failed load must keep cached freets")
	}
	if !strings.Contains(m.View(), "server unreachable") {
		t.Error("view should show the error alert")
	}
}

func TestFeedModel_SweepTick(t *testing.T) {
	state := &AppState{}
	state.AddAlert("gone soon", AlertInfo, t0)
	m := newTestFeed(state, &fakeSource{})

	_, cmd := press(t, m, sweepMsg(t0.Add(time.Second)))
	if len(state.alerts) != 1 {
		t.Error("live alert swept too early")
	}
	if cmd == nil {
		t.Error("sweep should schedule the next tick")
	}

	_, _ = press(t, m, sweepMsg(t0.Add(AlertLifetime)))
	if len(state.alerts) != 0 {
		t.Error("expired alert should be swept")
	}
}

func TestFeedModel_KeysAndQuit(t *testing.T) {
	m := newTestFeed(&AppState{}, &fakeSource{})

	m, cmd := press(t, m, runes("r"))
	if !m.loading || cmd == nil {
		t.Error("r should start a refresh")
	}

	m, _ = press(t, m, runes("?"))
	if !m.help.ShowAll {
		t.Error("? should expand help")
	}

	m, cmd = press(t, m, runes("q"))
	if !m.quitting || cmd == nil {
		t.Error("q should quit")
	}
	if m.View() != "" {
		t.Error("view should be empty after quitting")
	}
}

func TestFeedModel_Init(t *testing.T) {
	if cmd := newTestFeed(&AppState{}, &fakeSource{}).Init(); cmd == nil {
		t.Error("Init should load freets and start the sweep tick")
	}
}
