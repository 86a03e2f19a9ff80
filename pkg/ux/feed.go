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
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AleutianAI/freet/services/freet/response"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// SweepInterval is how often the feed drops expired alerts.
const SweepInterval = 500 * time.Millisecond

// loadTimeout bounds one feed refresh.
const loadTimeout = 10 * time.Second

// sweepMsg carries the tick time for an alert sweep.
type sweepMsg time.Time

// freetsLoadedMsg carries the result of a refresh for author.
type freetsLoadedMsg struct {
	author string
	freets []response.Freet
	err    error
}

type feedKeys struct {
	Refresh key.Binding
	Filter  key.Binding
	Clear   key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultFeedKeys() feedKeys {
	return feedKeys{
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Filter:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter by author")),
		Clear:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "show all")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k feedKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Filter, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k feedKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Refresh, k.Filter, k.Clear}, {k.Help, k.Quit}}
}

// FeedModel is the bubbletea model for the interactive freet feed.
//
// It reads and writes the AppState it was given: the filter and cached
// freets persist after the program exits, and alerts are swept on a tick.
//
// # Thread Safety
//
// Use only from the bubbletea event loop.
type FeedModel struct {
	state  *AppState
	source FreetSource
	now    func() time.Time

	keys   feedKeys
	help   help.Model
	filter textinput.Model

	filtering bool
	loading   bool
	quitting  bool
}

// NewFeedModel returns a feed over state that loads freets from source.
func NewFeedModel(state *AppState, source FreetSource) FeedModel {
	input := textinput.New()
	input.Placeholder = "username (empty for everyone)"
	input.Prompt = "author: "
	input.CharLimit = 64

	return FeedModel{
		state:  state,
		source: source,
		now:    time.Now,
		keys:   defaultFeedKeys(),
		help:   help.New(),
		filter: input,
	}
}

// Init implements tea.Model.
func (m FeedModel) Init() tea.Cmd {
	return tea.Batch(m.refresh(), sweepTick())
}

func sweepTick() tea.Cmd {
	return tea.Tick(SweepInterval, func(t time.Time) tea.Msg {
		return sweepMsg(t)
	})
}

func (m FeedModel) refresh() tea.Cmd {
	author := m.state.Filter
	source := m.source
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		freets, err := source.ListFreets(ctx, author)
		return freetsLoadedMsg{author: author, freets: freets, err: err}
	}
}

// Update implements tea.Model.
func (m FeedModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		m.filter.Width = msg.Width - len(m.filter.Prompt) - 1
		return m, nil

	case sweepMsg:
		m.state.Sweep(time.Time(msg))
		return m, sweepTick()

	case freetsLoadedMsg:
		// A slower load for an older filter must not replace the current one.
		if msg.author != m.state.Filter {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.state.AddAlert(msg.err.Error(), AlertError, m.now())
			return m, nil
		}
		m.state.Freets = msg.freets
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			m.loading = true
			return m, m.refresh()
		case key.Matches(msg, m.keys.Filter):
			m.filtering = true
			m.filter.SetValue(m.state.Filter)
			m.filter.CursorEnd()
			return m, m.filter.Focus()
		case key.Matches(msg, m.keys.Clear):
			return m.applyFilter("")
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}
	return m, nil
}

func (m FeedModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		return m.applyFilter(m.filter.Value())
	case tea.KeyEsc:
		m.filtering = false
		m.filter.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return m, cmd
}

func (m FeedModel) applyFilter(author string) (tea.Model, tea.Cmd) {
	author = strings.TrimSpace(author)
	m.state.Filter = author
	m.loading = true
	if author == "" {
		m.state.AddAlert("Showing freets from everyone.", AlertInfo, m.now())
	} else {
		m.state.AddAlert(fmt.Sprintf("Showing freets by @%s.", author), AlertInfo, m.now())
	}
	return m, m.refresh()
}

// View implements tea.Model.
func (m FeedModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	title := "Freet"
	if m.state.Filter != "" {
		title += " · @" + m.state.Filter
	}
	b.WriteString(Styles.Title.Render(title))
	if m.loading {
		b.WriteString(" " + Styles.Muted.Render("loading..."))
	}
	b.WriteString("\n\n")

	if alerts := m.state.Alerts(m.now()); len(alerts) > 0 {
		b.WriteString(RenderAlerts(alerts))
		b.WriteString("\n")
	}
	if m.filtering {
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
	}
	b.WriteString(RenderFreets(m.state.Freets, ModeRich))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
