// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command freet is the Freet command line client.
//
// It keeps the signed-in user, the feed filter and recently fetched data in
// ~/.freet/state.yaml between runs and talks to the server configured in
// ~/.freet/freet.yaml.
//
//	freet login amy --token "$(freet-server --mint-token amy)"
//	freet freets post "hello world"
//	freet followers follow bob
//	freet feed
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/AleutianAI/freet/cmd/freet/config"
	"github.com/AleutianAI/freet/pkg/client"
	"github.com/AleutianAI/freet/pkg/ux"
	"github.com/spf13/cobra"
)

// requestTimeout bounds each one-shot command.
const requestTimeout = 15 * time.Second

var errNotLoggedIn = errors.New("not logged in; run `freet login <username>` first")

// app carries what every command needs. It is built fresh for each
// invocation so tests can run commands side by side.
type app struct {
	configPath string
	output     string

	cfg       config.ClientConfig
	statePath string
	state     *ux.AppState
	client    *client.Client
	printer   *ux.Printer
	now       func() time.Time
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "freet: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{now: time.Now}

	root := &cobra.Command{
		Use:           "freet",
		Short:         "Command line client for Freet",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.state.Save(a.statePath)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to freet.yaml (default ~/.freet/freet.yaml)")
	root.PersistentFlags().StringVar(&a.output, "output", "", "output style: rich or plain (default detects the terminal)")

	root.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.usersCmd(),
		a.followersCmd(),
		a.groupsCmd(),
		a.contactCmd(),
		a.freetsCmd(),
		a.feedCmd(),
		a.eventsCmd(),
		a.statusCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	path := a.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}
	cfg, err := config.Load(path, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.statePath = cfg.StatePath
	if a.statePath == "" {
		if a.statePath, err = ux.DefaultStatePath(); err != nil {
			return err
		}
	}
	if a.state, err = ux.LoadState(a.statePath); err != nil {
		return err
	}
	a.connect()

	mode := ux.DetectMode(os.Stdout)
	switch {
	case a.output != "":
		mode = ux.ParseMode(a.output)
	case cfg.Output != "":
		mode = ux.ParseMode(cfg.Output)
	}
	a.printer = ux.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
	return nil
}

// connect rebuilds the client with the current session token, falling back
// to the configured one.
func (a *app) connect() {
	token := a.state.Token
	if token == "" {
		token = a.cfg.Token
	}
	a.client = client.New(a.cfg.ServerURL, client.WithToken(token))
}

func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), requestTimeout)
}

// self returns the username given in args, or the signed-in user.
func (a *app) self(args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}
	if a.state.Username == "" {
		return "", errNotLoggedIn
	}
	return a.state.Username, nil
}

// done records message as a success alert and prints the live alerts.
func (a *app) done(message string) {
	now := a.now()
	a.state.AddAlert(message, ux.AlertSuccess, now)
	a.state.Sweep(now)
	a.printer.Alerts(a.state, now)
}
