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
	"os"
	"strings"

	"github.com/AleutianAI/freet/pkg/ux"
	"github.com/AleutianAI/freet/services/freet/response"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func (a *app) freetsCmd() *cobra.Command {
	freets := &cobra.Command{
		Use:   "freets",
		Short: "Post and list freets",
	}

	var author string
	list := &cobra.Command{
		Use:   "list",
		Short: "List freets, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("author") {
				a.state.Filter = strings.TrimSpace(author)
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			if err := a.state.RefreshFreets(ctx, a.client); err != nil {
				return err
			}
			a.printer.Freets(a.state.Freets)
			return nil
		},
	}
	list.Flags().StringVar(&author, "author", "", "only freets by this user; empty shows everyone (remembered)")

	freets.AddCommand(
		&cobra.Command{
			Use:   "post <content>",
			Short: "Post a freet of at most 140 characters",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := a.context(cmd)
				defer cancel()
				freet, err := a.client.PostFreet(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				a.printer.Freets([]response.Freet{freet})
				a.done("Your freet was created successfully.")
				return nil
			},
		},
		list,
	)
	return freets
}

func (a *app) feedCmd() *cobra.Command {
	var author string
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Browse freets interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("author") {
				a.state.Filter = strings.TrimSpace(author)
			}
			if a.printer.Mode() == ux.ModePlain || !ux.IsTerminal(os.Stdout) {
				ctx, cancel := a.context(cmd)
				defer cancel()
				if err := a.state.RefreshFreets(ctx, a.client); err != nil {
					return err
				}
				a.printer.Freets(a.state.Freets)
				return nil
			}
			program := tea.NewProgram(ux.NewFeedModel(a.state, a.client), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err := program.Run()
			return err
		},
	}
	cmd.Flags().StringVar(&author, "author", "", "start filtered to this user (remembered)")
	return cmd
}
