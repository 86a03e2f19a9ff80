// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the Freet CLI settings from ~/.freet/freet.yaml,
// writing a default file on first run.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ServerEnv overrides the configured server URL.
const ServerEnv = "FREET_SERVER"

// ClientConfig is the CLI configuration file.
type ClientConfig struct {
	// ServerURL is the Freet server base address.
	ServerURL string `yaml:"server_url"`

	// Token is used when no session has been stored by `freet login`.
	Token string `yaml:"token,omitempty"`

	// Output forces "rich" or "plain" output. Empty detects the terminal.
	Output string `yaml:"output,omitempty"`

	// StatePath is where the client state is kept. Empty means
	// ~/.freet/state.yaml.
	StatePath string `yaml:"state_path,omitempty"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() ClientConfig {
	return ClientConfig{
		ServerURL: "http://localhost:3000",
	}
}

// DefaultPath returns ~/.freet/freet.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".freet", "freet.yaml"), nil
}

// Load reads the config at path, creating it with defaults when it does
// not exist yet and telling notice about it. FREET_SERVER wins over the
// file.
func Load(path string, notice io.Writer) (ClientConfig, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(notice, "First run detected, creating the config at %s\n", path)
		if err := createDefault(path); err != nil {
			return ClientConfig{}, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ClientConfig{}, fmt.Errorf("failed to read the config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("failed to parse the config file %s: %w", path, err)
	}
	if v := os.Getenv(ServerEnv); v != "" {
		cfg.ServerURL = v
	}
	if cfg.ServerURL == "" {
		return ClientConfig{}, errors.New("server_url must be set")
	}
	return cfg, nil
}

func createDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
