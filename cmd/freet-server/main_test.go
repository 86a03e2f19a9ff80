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
	"bytes"
	"context"
	"testing"

	"github.com/AleutianAI/freet/pkg/session"
	"github.com/AleutianAI/freet/services/freet/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintToken(t *testing.T) {
	auth := config.AuthConfig{Provider: config.AuthJWT, JWTSecret: "s3cret", Issuer: "freet"}

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	require.NoError(t, mintToken(cmd, auth, "amy"))

	provider, err := session.NewJWTProvider(session.JWTConfig{Secret: "s3cret", Issuer: "freet"})
	require.NoError(t, err)
	s, err := provider.Resolve(context.Background(), string(bytes.TrimSpace(out.Bytes())))
	require.NoError(t, err)
	assert.Equal(t, "amy", s.Username)
}

func TestMintToken_RequiresJWT(t *testing.T) {
	err := mintToken(&cobra.Command{}, config.AuthConfig{Provider: config.AuthNone}, "amy")
	assert.ErrorContains(t, err, "--mint-token")
}
