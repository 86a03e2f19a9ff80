// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopProvider(t *testing.T) {
	s, err := NopProvider{}.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, LocalUser, s.Username)
}

func TestContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, FromContext(ctx))

	ctx = WithSession(ctx, &Session{Username: "amy"})
	require.NotNil(t, FromContext(ctx))
	assert.Equal(t, "amy", FromContext(ctx).Username)
}

func TestNewJWTProvider_RequiresSecret(t *testing.T) {
	_, err := NewJWTProvider(JWTConfig{Secret: "  "})
	assert.Error(t, err)
}

func TestJWTProvider_MintAndResolve(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	p, err := NewJWTProvider(JWTConfig{Secret: "s3cret", Now: func() time.Time { return now }})
	require.NoError(t, err)

	token, err := p.Mint("amy")
	require.NoError(t, err)

	s, err := p.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "amy", s.Username)
	assert.True(t, now.Add(24*time.Hour).Equal(s.ExpiresAt))
}

func TestJWTProvider_Rejects(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	p, err := NewJWTProvider(JWTConfig{Secret: "s3cret", TTL: time.Hour, Now: func() time.Time { return now }})
	require.NoError(t, err)
	valid, err := p.Mint("amy")
	require.NoError(t, err)

	other, err := NewJWTProvider(JWTConfig{Secret: "different", Now: func() time.Time { return now }})
	require.NoError(t, err)
	wrongKey, err := other.Mint("amy")
	require.NoError(t, err)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "amy",
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	later, err := NewJWTProvider(JWTConfig{Secret: "s3cret", Now: func() time.Time { return now.Add(2 * time.Hour) }})
	require.NoError(t, err)

	tests := []struct {
		name     string
		provider *JWTProvider
		token    string
	}{
		{"empty", p, ""},
		{"garbage", p, "not.a.token"},
		{"wrong key", p, wrongKey},
		{"wrong issuer", p, wrongIssuer},
		{"expired", later, valid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.provider.Resolve(context.Background(), tt.token)
			assert.ErrorIs(t, err, ErrNotLoggedIn)
		})
	}
}

func TestJWTProvider_MintRequiresUsername(t *testing.T) {
	p, err := NewJWTProvider(JWTConfig{Secret: "s3cret"})
	require.NoError(t, err)
	_, err = p.Mint(" ")
	assert.Error(t, err)
}

func TestJWTProvider_ConcurrentUse(t *testing.T) {
	p, err := NewJWTProvider(JWTConfig{Secret: "s3cret"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			username := fmt.Sprintf("user%d", i)
			token, err := p.Mint(username)
			if !assert.NoError(t, err) {
				return
			}
			s, err := p.Resolve(context.Background(), token)
			if assert.NoError(t, err) {
				assert.Equal(t, username, s.Username)
			}
		}(i)
	}
	wg.Wait()
}

func TestJWTProvider_Close(t *testing.T) {
	p, err := NewJWTProvider(JWTConfig{Secret: "s3cret"})
	require.NoError(t, err)
	token, err := p.Mint("amy")
	require.NoError(t, err)

	require.NoError(t, p.Close())

	_, err = p.Mint("amy")
	assert.ErrorIs(t, err, ErrProviderClosed)
	_, err = p.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, ErrProviderClosed)
	_, err = p.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}
