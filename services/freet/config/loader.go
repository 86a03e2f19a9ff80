// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no -config flag is given.
const DefaultPath = "freet.yaml"

// Load reads path over the defaults, applies environment overrides and
// validates the result. A missing file at DefaultPath is skipped; a
// missing file anywhere else is an error.
func Load(path string) (ServerConfig, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overlays FREET_* variables (and the standard OTLP endpoint
// variable) onto cfg.
func applyEnv(cfg *ServerConfig, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	if v, ok := lookup("FREET_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FREET_PORT must be a number: %w", err)
		}
		cfg.Server.Port = port
	}
	str("FREET_STORAGE_BACKEND", &cfg.Storage.Backend)
	str("FREET_BADGER_PATH", &cfg.Storage.Badger.Path)
	str("FREET_MONGO_URI", &cfg.Storage.Mongo.URI)
	str("FREET_MONGO_DATABASE", &cfg.Storage.Mongo.Database)
	str("FREET_AUTH_PROVIDER", &cfg.Auth.Provider)
	str("FREET_JWT_SECRET", &cfg.Auth.JWTSecret)
	str("FREET_NATS_URL", &cfg.Events.NATSURL)
	str("FREET_LOG_LEVEL", &cfg.Logging.Level)
	str("OTEL_METRICS_EXPORTER", &cfg.Telemetry.Metrics)
	if v, ok := lookup("OTEL_EXPORTER_OTLP_ENDPOINT"); ok && v != "" {
		cfg.Telemetry.Enabled = true
		cfg.Telemetry.OTLPEndpoint = strings.TrimSpace(v)
	}
	return nil
}

// Validate reports the first setting that cannot work.
func (c ServerConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	switch c.Storage.Backend {
	case BackendBadger:
		if !c.Storage.Badger.InMemory && c.Storage.Badger.Path == "" {
			return errors.New("storage.badger.path is required unless in_memory is set")
		}
	case BackendMongo:
		if c.Storage.Mongo.URI == "" || c.Storage.Mongo.Database == "" {
			return errors.New("storage.mongo.uri and storage.mongo.database are required")
		}
	default:
		return fmt.Errorf("storage.backend %q is not one of badger, mongo", c.Storage.Backend)
	}
	switch c.Auth.Provider {
	case AuthNone:
	case AuthJWT:
		if c.Auth.JWTSecret == "" {
			return errors.New("auth.jwt_secret is required for the jwt provider")
		}
	default:
		return fmt.Errorf("auth.provider %q is not one of none, jwt", c.Auth.Provider)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Telemetry.Metrics {
	case "prometheus", "stdout", "none":
	default:
		return fmt.Errorf("telemetry.metrics %q is not one of prometheus, stdout, none", c.Telemetry.Metrics)
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return errors.New("rate_limit values must not be negative")
	}
	return nil
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return ":" + strconv.Itoa(c.Server.Port)
}
