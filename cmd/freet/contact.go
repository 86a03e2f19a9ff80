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
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/AleutianAI/freet/pkg/client"
	"github.com/AleutianAI/freet/pkg/ux"
	"github.com/AleutianAI/freet/services/freet/response"
	"github.com/spf13/cobra"
)

type contactFlags struct {
	display string
	number  string
	email   string
	website string
	address string
}

func (f *contactFlags) bind(cmd *cobra.Command, displayHelp string) {
	cmd.Flags().StringVar(&f.display, "display", "", displayHelp)
	cmd.Flags().StringVar(&f.number, "number", "", "10 digit phone number")
	cmd.Flags().StringVar(&f.email, "email", "", "email address")
	cmd.Flags().StringVar(&f.website, "website", "", "website")
	cmd.Flags().StringVar(&f.address, "address", "", "postal address")
}

func parseDisplay(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true":
		return true, nil
	case "no", "false":
		return false, nil
	}
	return false, errors.New(`--display must be one of yes, no, true or false`)
}

func (a *app) contactCmd() *cobra.Command {
	contact := &cobra.Command{
		Use:   "contact",
		Short: "Manage your contact information display",
	}

	var createFlags contactFlags
	create := &cobra.Command{
		Use:   "create",
		Short: "Create your contact information display",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.state.Username == "" {
				return errNotLoggedIn
			}
			displayed, err := parseDisplay(createFlags.display)
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			display, err := a.client.CreateContact(ctx, a.state.Username, client.ContactCreate{
				Displayed: displayed,
				Number:    createFlags.number,
				Email:     createFlags.email,
				Website:   createFlags.website,
				Address:   createFlags.address,
			})
			if err != nil {
				return err
			}
			a.state.Contact = &display
			a.printer.Contact(display)
			a.done("Your contact information display was created successfully.")
			return nil
		},
	}
	createFlags.bind(create, "show your contact information: yes or no (required)")

	var updateFlags contactFlags
	update := &cobra.Command{
		Use:   "update",
		Short: "Change fields of your contact display; pass \"delete\" to clear one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.state.Username == "" {
				return errNotLoggedIn
			}
			var patch client.ContactUpdate
			if cmd.Flags().Changed("display") {
				displayed, err := parseDisplay(updateFlags.display)
				if err != nil {
					return err
				}
				patch.Displayed = &displayed
			}
			for name, dst := range map[string]**string{
				"number":  &patch.Number,
				"email":   &patch.Email,
				"website": &patch.Website,
				"address": &patch.Address,
			} {
				if cmd.Flags().Changed(name) {
					value, _ := cmd.Flags().GetString(name)
					*dst = &value
				}
			}
			return a.updateContact(cmd, patch)
		},
	}
	updateFlags.bind(update, "show your contact information: yes or no")

	contact.AddCommand(
		create,
		update,
		&cobra.Command{
			Use:   "get [username]",
			Short: "Show a contact display (default yours)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				username, err := a.self(args)
				if err != nil {
					return err
				}
				ctx, cancel := a.context(cmd)
				defer cancel()
				if username == a.state.Username {
					if err := a.state.RefreshContact(ctx, a.client, username); err != nil {
						return err
					}
					a.printer.Contact(*a.state.Contact)
					return nil
				}
				display, err := a.client.GetContact(ctx, username)
				if err != nil {
					return err
				}
				a.printer.Contact(display)
				return nil
			},
		},
		&cobra.Command{
			Use:   "edit",
			Short: "Edit your contact display in an interactive form",
			Args:  cobra.NoArgs,
			RunE:  a.editContact,
		},
	)
	return contact
}

func (a *app) updateContact(cmd *cobra.Command, patch client.ContactUpdate) error {
	ctx, cancel := a.context(cmd)
	defer cancel()
	display, err := a.client.UpdateContact(ctx, a.state.Username, patch)
	if err != nil {
		return err
	}
	a.state.Contact = &display
	a.printer.Contact(display)
	a.done("Your contact information was updated successfully.")
	return nil
}

func (a *app) editContact(cmd *cobra.Command, _ []string) error {
	if a.state.Username == "" {
		return errNotLoggedIn
	}
	if !ux.IsTerminal(os.Stdin) {
		return errors.New("contact edit needs an interactive terminal; use `freet contact update` instead")
	}

	ctx, cancel := a.context(cmd)
	current, err := a.client.GetContact(ctx, a.state.Username)
	cancel()
	exists := true
	if client.IsStatus(err, http.StatusNotFound) {
		exists = false
		current = response.ContactDisplay{Username: a.state.Username}
	} else if err != nil {
		return err
	}

	form := ux.NewContactForm(current)
	if err := form.Run(); err != nil {
		return err
	}

	if !exists {
		ctx, cancel := a.context(cmd)
		defer cancel()
		display, err := a.client.CreateContact(ctx, a.state.Username, form.Create())
		if err != nil {
			return err
		}
		a.state.Contact = &display
		a.printer.Contact(display)
		a.done("Your contact information display was created successfully.")
		return nil
	}
	if !form.Changed() {
		a.printer.Warning("Nothing changed.")
		return nil
	}
	return a.updateContact(cmd, form.Update())
}
