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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AleutianAI/freet/services/freet/response"
	"gopkg.in/yaml.v3"
)

// AlertLifetime is how long an alert stays visible after it is added.
const AlertLifetime = 3 * time.Second

// AlertStatus classifies an alert for rendering.
type AlertStatus string

const (
	AlertSuccess AlertStatus = "success"
	AlertError   AlertStatus = "error"
	AlertWarning AlertStatus = "warning"
	AlertInfo    AlertStatus = "info"
)

// Alert is a transient message shown after a submission.
type Alert struct {
	Message   string
	Status    AlertStatus
	ExpiresAt time.Time
}

// Live reports whether the alert is still visible at now.
func (a Alert) Live(now time.Time) bool {
	return now.Before(a.ExpiresAt)
}

// FreetSource lists freets, newest first, optionally for one author.
type FreetSource interface {
	ListFreets(ctx context.Context, author string) ([]response.Freet, error)
}

// ContactSource fetches one user's contact display.
type ContactSource interface {
	GetContact(ctx context.Context, username string) (response.ContactDisplay, error)
}

// FollowSource lists follow relationships for one user.
type FollowSource interface {
	Followers(ctx context.Context, username string) ([]string, error)
	Following(ctx context.Context, username string) ([]string, error)
}

// AppState is the client's view of the signed-in user and the data it has
// fetched. It is owned by the command or TUI that loaded it and passed
// explicitly; nothing here runs on a timer.
//
// Alerts expire AlertLifetime after they are added. Callers remove them
// with Sweep, typically from a tick in the TUI or right before rendering.
//
// Thread Safety: Not safe for concurrent use.
type AppState struct {
	Username  string                   `yaml:"username,omitempty"`
	Token     string                   `yaml:"token,omitempty"`
	Filter    string                   `yaml:"filter,omitempty"`
	Freets    []response.Freet         `yaml:"freets,omitempty"`
	Contact   *response.ContactDisplay `yaml:"contact,omitempty"`
	Followers []string                 `yaml:"followers,omitempty"`
	Following []string                 `yaml:"following,omitempty"`

	alerts []Alert
}

// AddAlert shows message until now+AlertLifetime. Alerts are keyed by
// message: adding the same message again updates its status and expiry in
// place.
func (s *AppState) AddAlert(message string, status AlertStatus, now time.Time) {
	expires := now.Add(AlertLifetime)
	for i := range s.alerts {
		if s.alerts[i].Message == message {
			s.alerts[i].Status = status
			s.alerts[i].ExpiresAt = expires
			return
		}
	}
	s.alerts = append(s.alerts, Alert{Message: message, Status: status, ExpiresAt: expires})
}

// Sweep drops alerts that have expired at now and returns how many were
// removed.
func (s *AppState) Sweep(now time.Time) int {
	kept := s.alerts[:0]
	for _, a := range s.alerts {
		if a.Live(now) {
			kept = append(kept, a)
		}
	}
	removed := len(s.alerts) - len(kept)
	s.alerts = kept
	return removed
}

// Alerts returns the alerts still live at now in insertion order. Expired
// entries that have not been swept are skipped.
func (s *AppState) Alerts(now time.Time) []Alert {
	out := make([]Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		if a.Live(now) {
			out = append(out, a)
		}
	}
	return out
}

// LoggedIn reports whether a session token is held.
func (s *AppState) LoggedIn() bool {
	return s.Token != ""
}

// SetUser records a new session and drops data cached for the previous user.
func (s *AppState) SetUser(username, token string) {
	if username != s.Username {
		s.Contact = nil
		s.Followers = nil
		s.Following = nil
	}
	s.Username = username
	s.Token = token
}

// Logout forgets the session and everything cached for it.
func (s *AppState) Logout() {
	s.SetUser("", "")
}

// RefreshFreets reloads the cached freets using the current filter.
func (s *AppState) RefreshFreets(ctx context.Context, src FreetSource) error {
	freets, err := src.ListFreets(ctx, s.Filter)
	if err != nil {
		return fmt.Errorf("refresh freets: %w", err)
	}
	s.Freets = freets
	return nil
}

// RefreshContact reloads the cached contact display for username.
func (s *AppState) RefreshContact(ctx context.Context, src ContactSource, username string) error {
	display, err := src.GetContact(ctx, username)
	if err != nil {
		return fmt.Errorf("refresh contact: %w", err)
	}
	s.Contact = &display
	return nil
}

// RefreshFollows reloads followers and following for username.
func (s *AppState) RefreshFollows(ctx context.Context, src FollowSource, username string) error {
	followers, err := src.Followers(ctx, username)
	if err != nil {
		return fmt.Errorf("refresh followers: %w", err)
	}
	following, err := src.Following(ctx, username)
	if err != nil {
		return fmt.Errorf("refresh following: %w", err)
	}
	s.Followers = followers
	s.Following = following
	return nil
}

// DefaultStatePath returns ~/.freet/state.yaml.
func DefaultStatePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".freet", "state.yaml"), nil
}

// LoadState reads the state file at path. A missing file yields an empty
// state.
func LoadState(path string) (*AppState, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &AppState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	var s AppState
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", path, err)
	}
	return &s, nil
}

// Save writes the state to path, creating its directory. Alerts are not
// written.
func (s *AppState) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	// Concurrent freet processes may save at once; each uses its own
	// temp file.
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
