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
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/AleutianAI/freet/pkg/client"
	"github.com/AleutianAI/freet/services/freet/events"
	"github.com/spf13/cobra"
)

// Version is the client version, set at release with
// -ldflags "-X main.Version=v1.2.3".
var Version = "dev"

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the server is up and speaks this client's version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			health, err := a.client.Health(ctx)
			if err != nil {
				return err
			}
			version := health.Version
			if version == "" {
				version = "unknown"
			}
			a.printer.Success(fmt.Sprintf("%s is %s (server %s, client %s).", a.client.BaseURL(), health.Status, version, Version))
			if err := client.CheckCompatible(Version, health.Version); err != nil {
				a.printer.Warning(err.Error() + "; upgrade the older side.")
			}
			return nil
		},
	}
}

func (a *app) eventsCmd() *cobra.Command {
	var (
		kind  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream relationship events as they happen",
		Long: `events prints follows, group changes, contact edits, new accounts and
new freets as the server applies them, until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.state.Username == "" {
				return errNotLoggedIn
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			seen := 0
			return a.client.StreamEvents(ctx, strings.TrimSpace(kind), func(e events.Event) error {
				a.printer.Event(e)
				seen++
				if limit > 0 && seen >= limit {
					return client.ErrStopStream
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "only events of this kind: followers, groups, contacts, accounts, freets")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many events (0 streams until interrupted)")
	return cmd
}
