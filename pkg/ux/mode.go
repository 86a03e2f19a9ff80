// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux holds the Freet client's application state and its terminal
// presentation: styled output, the interactive feed and the contact form.
package ux

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Mode controls how much styling output carries.
type Mode string

const (
	// ModeRich uses colors, icons and boxes.
	ModeRich Mode = "rich"

	// ModePlain prints tab separated text for scripts.
	ModePlain Mode = "plain"
)

// ModeEnv overrides mode detection.
const ModeEnv = "FREET_OUTPUT"

// ParseMode converts a flag or environment value to a Mode. Unknown values
// are rich.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plain", "machine", "quiet", "q":
		return ModePlain
	default:
		return ModeRich
	}
}

// DetectMode picks the mode for f: FREET_OUTPUT when set, else rich on a
// terminal and plain otherwise.
func DetectMode(f *os.File) Mode {
	if v := os.Getenv(ModeEnv); v != "" {
		return ParseMode(v)
	}
	if IsTerminal(f) {
		return ModeRich
	}
	return ModePlain
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
