// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package relations

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// DeleteSentinel is the update value that clears a contact field.
const DeleteSentinel = "delete"

// ErrInvalidDisplayFlag indicates a display flag that is neither a JSON
// boolean nor "yes"/"no".
var ErrInvalidDisplayFlag = errors.New("value must be either yes or no (case sensitive)")

// PatchOp says what an update does to one contact field.
type PatchOp int

const (
	// PatchUntouched leaves the stored value as it is.
	PatchUntouched PatchOp = iota
	// PatchSet replaces the stored value.
	PatchSet
	// PatchClear stores the empty string.
	PatchClear
)

// FieldPatch is the update for one optional string field.
type FieldPatch struct {
	Op    PatchOp
	Value string
}

// ParseFieldPatch maps a raw update value to a patch: "" leaves the field
// alone, DeleteSentinel clears it, anything else replaces it.
func ParseFieldPatch(raw string) FieldPatch {
	switch raw {
	case "":
		return FieldPatch{}
	case DeleteSentinel:
		return FieldPatch{Op: PatchClear}
	default:
		return FieldPatch{Op: PatchSet, Value: raw}
	}
}

// UnmarshalJSON accepts a string, a number (phone numbers sent unquoted),
// or null. Null and absent both leave the field untouched.
func (p *FieldPatch) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = FieldPatch{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = ParseFieldPatch(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("contact field must be a string: %w", err)
	}
	*p = ParseFieldPatch(n.String())
	return nil
}

// Apply returns the field value after the patch and whether it changed.
func (p FieldPatch) Apply(current string) (string, bool) {
	switch p.Op {
	case PatchSet:
		return p.Value, p.Value != current
	case PatchClear:
		return "", current != ""
	default:
		return current, false
	}
}

// DisplayFlag is an optional boolean. Present is false when the field was
// absent or null; a present false is a real value and is applied.
type DisplayFlag struct {
	Present bool
	Value   bool
}

// ShowFlag returns a present flag with value v.
func ShowFlag(v bool) DisplayFlag {
	return DisplayFlag{Present: true, Value: v}
}

// ParseDisplayFlag accepts "yes"/"no" and "true"/"false".
func ParseDisplayFlag(raw string) (DisplayFlag, error) {
	switch raw {
	case "yes", "true":
		return ShowFlag(true), nil
	case "no", "false":
		return ShowFlag(false), nil
	case "":
		return DisplayFlag{}, nil
	default:
		return DisplayFlag{}, ErrInvalidDisplayFlag
	}
}

// UnmarshalJSON accepts true, false, "yes", "no" or null.
func (f *DisplayFlag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null":
		*f = DisplayFlag{}
		return nil
	case "true":
		*f = ShowFlag(true)
		return nil
	case "false":
		*f = ShowFlag(false)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrInvalidDisplayFlag
	}
	flag, err := ParseDisplayFlag(s)
	if err != nil {
		return err
	}
	*f = flag
	return nil
}

// MarshalJSON renders an absent flag as null.
func (f DisplayFlag) MarshalJSON() ([]byte, error) {
	if !f.Present {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// ContactPatch is a partial update of a ContactDisplay.
type ContactPatch struct {
	ContactInformationDisplayed DisplayFlag `json:"contactInformationDisplayed"`
	ContactNumber               FieldPatch  `json:"contactNumber"`
	ContactEmail                FieldPatch  `json:"contactEmail"`
	ContactWebsite              FieldPatch  `json:"contactWebsite"`
	ContactAddress              FieldPatch  `json:"contactAddress"`
}

// Apply edits contact in place and reports whether anything changed.
func (p ContactPatch) Apply(contact *ContactDisplay) bool {
	changed := false
	if p.ContactInformationDisplayed.Present && p.ContactInformationDisplayed.Value != contact.ContactInformationDisplayed {
		contact.ContactInformationDisplayed = p.ContactInformationDisplayed.Value
		changed = true
	}

	fields := []struct {
		patch FieldPatch
		value *string
	}{
		{p.ContactNumber, &contact.ContactNumber},
		{p.ContactEmail, &contact.ContactEmail},
		{p.ContactWebsite, &contact.ContactWebsite},
		{p.ContactAddress, &contact.ContactAddress},
	}
	for _, f := range fields {
		next, ok := f.patch.Apply(*f.value)
		if ok {
			*f.value = next
			changed = true
		}
	}
	return changed
}
