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
	"net/http"

	"github.com/AleutianAI/freet/pkg/client"
	"github.com/spf13/cobra"
)

func (a *app) loginCmd() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Remember who you are and the session token to send",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = a.cfg.Token
			}
			a.state.SetUser(args[0], token)
			a.connect()

			ctx, cancel := a.context(cmd)
			defer cancel()
			account, err := a.client.GetAccount(ctx, args[0])
			switch {
			case client.IsStatus(err, http.StatusNotFound):
				a.printer.Warning(fmt.Sprintf("No account named %s yet; create it with `freet users create %s`.", args[0], args[0]))
			case err != nil:
				return err
			default:
				a.state.Username = account.Username
			}
			a.done(fmt.Sprintf("Logged in as @%s.", a.state.Username))
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "session token (default the token in freet.yaml)")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			a.state.Logout()
			a.done("Logged out.")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the signed-in username",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.state.Username == "" {
				return errNotLoggedIn
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.state.Username)
			return nil
		},
	}
}

func (a *app) usersCmd() *cobra.Command {
	users := &cobra.Command{
		Use:   "users",
		Short: "Create and look up accounts",
	}
	users.AddCommand(
		&cobra.Command{
			Use:   "create <username>",
			Short: "Register an account",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := a.context(cmd)
				defer cancel()
				account, err := a.client.CreateAccount(ctx, args[0])
				if err != nil {
					return err
				}
				a.printer.Account(account)
				a.done("Your account was created successfully.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "get [username]",
			Short: "Show an account (default yours)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				username, err := a.self(args)
				if err != nil {
					return err
				}
				ctx, cancel := a.context(cmd)
				defer cancel()
				account, err := a.client.GetAccount(ctx, username)
				if err != nil {
					return err
				}
				a.printer.Account(account)
				return nil
			},
		},
	)
	return users
}

func (a *app) followersCmd() *cobra.Command {
	followers := &cobra.Command{
		Use:   "followers",
		Short: "Manage follower views and follow relationships",
	}

	updateCmd := func(use, short string, add bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <username>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if a.state.Username == "" {
					return errNotLoggedIn
				}
				ctx, cancel := a.context(cmd)
				defer cancel()
				update := a.client.Unfollow
				if add {
					update = a.client.Follow
				}
				result, err := update(ctx, args[0], a.state.Username)
				if err != nil {
					return err
				}
				a.state.Following = result.Follower.Following
				a.done(result.Message)
				return nil
			},
		}
	}

	listCmd := func(use, short string, following bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " [username]",
			Short: short,
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				username, err := a.self(args)
				if err != nil {
					return err
				}
				ctx, cancel := a.context(cmd)
				defer cancel()
				if following {
					names, err := a.client.Following(ctx, username)
					if err != nil {
						return err
					}
					if username == a.state.Username {
						a.state.Following = names
					}
					a.printer.Usernames("Following", names)
					return nil
				}
				names, err := a.client.Followers(ctx, username)
				if err != nil {
					return err
				}
				if username == a.state.Username {
					a.state.Followers = names
				}
				a.printer.Usernames("Followers", names)
				return nil
			},
		}
	}

	followers.AddCommand(
		&cobra.Command{
			Use:   "init [username]",
			Short: "Create an empty follower view (default yours)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				username, err := a.self(args)
				if err != nil {
					return err
				}
				ctx, cancel := a.context(cmd)
				defer cancel()
				if _, err := a.client.CreateFollowerView(ctx, username); err != nil {
					return err
				}
				a.done("Your follower view was created successfully.")
				return nil
			},
		},
		updateCmd("follow", "Follow a user", true),
		updateCmd("unfollow", "Stop following a user", false),
		listCmd("list", "List who follows a user (default you)", false),
		listCmd("following", "List who a user follows (default you)", true),
	)
	return followers
}

func (a *app) groupsCmd() *cobra.Command {
	groups := &cobra.Command{
		Use:   "groups",
		Short: "Create groups and manage their members, admins and tags",
	}

	var creator string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a group; the creator becomes its first member and admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner := creator
			if owner == "" {
				owner = a.state.Username
			}
			if owner == "" {
				return errNotLoggedIn
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			group, err := a.client.CreateGroup(ctx, args[0], owner)
			if err != nil {
				return err
			}
			a.printer.Group(group)
			a.done("Your group was created successfully.")
			return nil
		},
	}
	create.Flags().StringVar(&creator, "creator", "", "creator username (default you)")

	actionCmd := func(use, short, action, target string) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <group> <" + target + ">",
			Short: short,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := a.context(cmd)
				defer cancel()
				group, err := a.client.UpdateGroup(ctx, args[0], action, args[1])
				if err != nil {
					return err
				}
				a.printer.Group(group)
				a.done("Group " + group.GroupUsername + " was updated.")
				return nil
			},
		}
	}

	groups.AddCommand(
		create,
		actionCmd("add-member", "Add a member", client.ActionAddMember, "username"),
		actionCmd("remove-member", "Remove a member (admin status is kept)", client.ActionRemoveMember, "username"),
		actionCmd("add-admin", "Make a user an admin and a member", client.ActionAddAdmin, "username"),
		actionCmd("remove-admin", "Revoke admin status", client.ActionRemoveAdmin, "username"),
		actionCmd("tag", "Tag a freet in the group", client.ActionAddTag, "freet-id"),
		&cobra.Command{
			Use:   "get <name>",
			Short: "Show a group",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := a.context(cmd)
				defer cancel()
				group, err := a.client.GetGroup(ctx, args[0])
				if err != nil {
					return err
				}
				a.printer.Group(group)
				return nil
			},
		},
	)
	return groups
}
