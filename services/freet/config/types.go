// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the freet-server configuration.
//
// Values come from a YAML file, then environment overrides, then
// Validate. A missing file is not an error: defaults plus environment are
// enough for a local run.
package config

import (
	"time"
)

// Storage backends.
const (
	BackendBadger = "badger"
	BackendMongo  = "mongo"
)

// Session providers.
const (
	AuthNone = "none"
	AuthJWT  = "jwt"
)

type ServerConfig struct {
	// Server: HTTP listener
	Server HTTPConfig `yaml:"server"`

	// Storage: which document store backs the collections
	Storage StorageConfig `yaml:"storage"`

	// Auth: how bearer tokens become sessions
	Auth AuthConfig `yaml:"auth"`

	// Events: where relationship events are published
	Events EventsConfig `yaml:"events"`

	// Logging: level, directory and format
	Logging LoggingConfig `yaml:"logging"`

	// Telemetry: trace export
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// RateLimit: POST/PUT budget per client IP
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Backup: credentials for gs:// backup targets
	Backup BackupConfig `yaml:"backup"`
}

type HTTPConfig struct {
	Port            int           `yaml:"port"`             // e.g. 3000
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // e.g. 10s
}

type StorageConfig struct {
	// Backend is "badger" or "mongo".
	Backend string       `yaml:"backend"`
	Badger  BadgerConfig `yaml:"badger"`
	Mongo   MongoConfig  `yaml:"mongo"`
}

type BadgerConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

type MongoConfig struct {
	URI      string        `yaml:"uri"`
	Database string        `yaml:"database"`
	Timeout  time.Duration `yaml:"timeout"`
}

type AuthConfig struct {
	// Provider is "none" (every caller is local-user) or "jwt".
	Provider  string        `yaml:"provider"`
	JWTSecret string        `yaml:"jwt_secret,omitempty"`
	Issuer    string        `yaml:"issuer"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type EventsConfig struct {
	// NATSURL enables the NATS publisher. Empty keeps events in process.
	NATSURL string `yaml:"nats_url,omitempty"`

	// Stream serves GET /api/events to logged-in websocket clients.
	Stream bool `yaml:"stream"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`         // debug, info, warn, error
	Dir   string `yaml:"dir,omitempty"` // JSON log files, empty for stderr only
	JSON  bool   `yaml:"json"`          // JSON on stderr instead of text
}

type TelemetryConfig struct {
	// OTLPEndpoint is a host:port for gRPC export. Empty writes spans to
	// stdout when Enabled.
	Enabled      bool   `yaml:"enabled"`
	OTLPEndpoint string `yaml:"otlp_endpoint,omitempty"`

	// Metrics exports OpenTelemetry instruments: "prometheus" (on
	// /metrics), "stdout" or "none". Independent of Enabled.
	Metrics string `yaml:"metrics"`
}

type BackupConfig struct {
	// CredentialsFile is a service account key for gs:// targets. Empty
	// uses application default credentials.
	CredentialsFile string `yaml:"credentials_file,omitempty"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64       `yaml:"requests_per_second"` // 0 disables limiting
	Burst             int           `yaml:"burst"`
	IdleTTL           time.Duration `yaml:"idle_ttl"`
}

func DefaultConfig() ServerConfig {
	return ServerConfig{
		Server: HTTPConfig{
			Port:            3000,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Backend: BackendBadger,
			Badger:  BadgerConfig{Path: "data/freet"},
			Mongo: MongoConfig{
				URI:      "mongodb://localhost:27017",
				Database: "freet",
				Timeout:  10 * time.Second,
			},
		},
		Auth: AuthConfig{
			Provider: AuthNone,
			Issuer:   "freet",
			TokenTTL: 24 * time.Hour,
		},
		Events:    EventsConfig{Stream: true},
		Logging:   LoggingConfig{Level: "info"},
		Telemetry: TelemetryConfig{Metrics: "prometheus"},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			Burst:             20,
			IdleTTL:           10 * time.Minute,
		},
	}
}
