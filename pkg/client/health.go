// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/mod/semver"
)

// HealthStatus is the reply of GET /health.
type HealthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Health reports the server status ("healthy" on success) and the
// version the server was built with.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var out HealthStatus
	if err := c.do(ctx, http.MethodGet, "/health", nil, nil, &out); err != nil {
		return HealthStatus{}, err
	}
	return out, nil
}

// ErrIncompatible is wrapped by CheckCompatible when the client and
// server major versions differ.
var ErrIncompatible = errors.New("incompatible server version")

// CheckCompatible reports whether a client built as clientVersion can
// talk to a server reporting serverVersion. Versions are semantic
// versions with or without the leading "v". Development builds, which
// carry no valid version, are always accepted.
func CheckCompatible(clientVersion, serverVersion string) error {
	cv, sv := canonical(clientVersion), canonical(serverVersion)
	if cv == "" || sv == "" {
		return nil
	}
	if semver.Major(cv) != semver.Major(sv) {
		return fmt.Errorf("%w: client %s, server %s", ErrIncompatible, cv, sv)
	}
	// v0 makes no compatibility promise between minor versions.
	if semver.Major(cv) == "v0" && semver.MajorMinor(cv) != semver.MajorMinor(sv) {
		return fmt.Errorf("%w: client %s, server %s", ErrIncompatible, cv, sv)
	}
	return nil
}

func canonical(version string) string {
	if version == "" {
		return ""
	}
	if version[0] != 'v' {
		version = "v" + version
	}
	if !semver.IsValid(version) {
		return ""
	}
	return semver.Canonical(version)
}
