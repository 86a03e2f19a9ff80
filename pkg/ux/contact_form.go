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

	"github.com/AleutianAI/freet/pkg/client"
	"github.com/AleutianAI/freet/services/freet/response"
	"github.com/charmbracelet/huh"
	"github.com/go-playground/validator/v10"
)

var formValidate = validator.New()

// ErrInvalidPhone is returned for a phone number that is not ten digits.
var ErrInvalidPhone = errors.New("phone number must be 10 digits")

// ValidatePhone accepts an empty value (no number) or exactly ten digits.
func ValidatePhone(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if formValidate.Var(s, "len=10,number") != nil {
		return ErrInvalidPhone
	}
	return nil
}

// ContactForm edits a contact display. Empty fields mean "no value": when
// editing an existing display, emptying a field clears it on the server.
type ContactForm struct {
	Displayed bool
	Number    string
	Email     string
	Website   string
	Address   string

	original response.ContactDisplay
}

// NewContactForm returns a form prefilled from current.
func NewContactForm(current response.ContactDisplay) *ContactForm {
	return &ContactForm{
		Displayed: current.ContactInformationDisplayed,
		Number:    current.ContactNumber,
		Email:     current.ContactEmail,
		Website:   current.ContactWebsite,
		Address:   current.ContactAddress,
		original:  current,
	}
}

// Form builds the huh form bound to f's fields.
func (f *ContactForm) Form() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Display your contact information?").
				Affirmative("Yes").
				Negative("No").
				Value(&f.Displayed),
			huh.NewInput().
				Title("Phone number").
				Description("10 digits, empty for none").
				Validate(ValidatePhone).
				Value(&f.Number),
			huh.NewInput().
				Title("Email").
				Value(&f.Email),
			huh.NewInput().
				Title("Website").
				Value(&f.Website),
			huh.NewText().
				Title("Address").
				Lines(3).
				Value(&f.Address),
		),
	)
}

// Run shows the form on the terminal until submitted or aborted.
func (f *ContactForm) Run() error {
	return f.Form().Run()
}

// Create returns the request body for a new contact display.
func (f *ContactForm) Create() client.ContactCreate {
	return client.ContactCreate{
		Displayed: f.Displayed,
		Number:    strings.TrimSpace(f.Number),
		Email:     strings.TrimSpace(f.Email),
		Website:   strings.TrimSpace(f.Website),
		Address:   strings.TrimSpace(f.Address),
	}
}

// Update returns a patch holding only the fields that changed. A field
// emptied in the form is sent as client.DeleteValue.
func (f *ContactForm) Update() client.ContactUpdate {
	var patch client.ContactUpdate
	if f.Displayed != f.original.ContactInformationDisplayed {
		displayed := f.Displayed
		patch.Displayed = &displayed
	}
	patch.Number = fieldPatch(f.original.ContactNumber, f.Number)
	patch.Email = fieldPatch(f.original.ContactEmail, f.Email)
	patch.Website = fieldPatch(f.original.ContactWebsite, f.Website)
	patch.Address = fieldPatch(f.original.ContactAddress, f.Address)
	return patch
}

// Changed reports whether Update would send anything.
func (f *ContactForm) Changed() bool {
	p := f.Update()
	return p.Displayed != nil || p.Number != nil || p.Email != nil || p.Website != nil || p.Address != nil
}

func fieldPatch(before, after string) *string {
	after = strings.TrimSpace(after)
	if after == before {
		return nil
	}
	if after == "" {
		v := client.DeleteValue
		return &v
	}
	return &after
}
