// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package session provides the "is the caller logged in" capability.
//
// Freet does not manage credentials. A Provider turns the bearer token on a
// request into a Session naming the user, or reports that there is none.
// Two providers ship here:
//
//   - NopProvider: every caller is "local-user". For single-user local runs.
//   - JWTProvider: HS256 tokens whose subject is the username.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/awnumar/memguard"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNotLoggedIn is returned when a request carries no usable session.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrInvalidToken is returned when a token fails verification. It wraps
	// ErrNotLoggedIn.
	ErrInvalidToken = fmt.Errorf("invalid session token: %w", ErrNotLoggedIn)

	// ErrProviderClosed is returned by a JWTProvider after Close.
	ErrProviderClosed = errors.New("session provider closed")
)

// LocalUser is the username NopProvider reports.
const LocalUser = "local-user"

// Session identifies the logged-in caller.
type Session struct {
	// Username is the caller's username as recorded in the token.
	Username string

	// ExpiresAt is zero for sessions that do not expire.
	ExpiresAt time.Time
}

// Provider resolves bearer tokens to sessions.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// Resolve returns the session for token. An empty or rejected token
	// yields an error wrapping ErrNotLoggedIn.
	Resolve(ctx context.Context, token string) (*Session, error)
}

// NopProvider treats every request as logged in as LocalUser.
type NopProvider struct{}

// Resolve always succeeds.
func (NopProvider) Resolve(_ context.Context, _ string) (*Session, error) {
	return &Session{Username: LocalUser}, nil
}

type contextKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored by WithSession, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}

// DefaultIssuer is the issuer JWTProvider signs and expects.
const DefaultIssuer = "freet"

// claims is the token body. The subject carries the username.
type claims struct {
	jwt.RegisteredClaims
}

// JWTProvider verifies and mints HS256 session tokens.
//
// The HMAC key is sealed in a memguard enclave and only decrypted into a
// locked buffer for the duration of one sign or verify.
type JWTProvider struct {
	mu     sync.RWMutex
	secret *memguard.Enclave
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// JWTConfig configures a JWTProvider.
type JWTConfig struct {
	// Secret is the HMAC key. Required.
	Secret string

	// Issuer defaults to DefaultIssuer.
	Issuer string

	// TTL is the lifetime of minted tokens. Zero means 24 hours.
	TTL time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// NewJWTProvider validates cfg and returns a provider.
func NewJWTProvider(cfg JWTConfig) (*JWTProvider, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	p := &JWTProvider{
		secret: memguard.NewEnclave([]byte(cfg.Secret)),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		now:    cfg.Now,
	}
	if p.issuer == "" {
		p.issuer = DefaultIssuer
	}
	if p.ttl <= 0 {
		p.ttl = 24 * time.Hour
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p, nil
}

// withKey runs fn with the decrypted HMAC key. The key is wiped when fn
// returns and must not be retained.
func (p *JWTProvider) withKey(fn func(key []byte) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.secret == nil {
		return ErrProviderClosed
	}
	buf, err := p.secret.Open()
	if err != nil {
		return fmt.Errorf("open session key: %w", err)
	}
	defer buf.Destroy()
	return fn(buf.Bytes())
}

// Close drops the sealed key. Mint and Resolve fail afterwards.
func (p *JWTProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.secret = nil
	return nil
}

// Mint signs a token for username.
func (p *JWTProvider) Mint(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", errors.New("username is required")
	}
	now := p.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	})
	var signed string
	err := p.withKey(func(key []byte) error {
		var err error
		signed, err = token.SignedString(key)
		return err
	})
	if errors.Is(err, ErrProviderClosed) {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Resolve verifies token and returns its session.
func (p *JWTProvider) Resolve(_ context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNotLoggedIn
	}
	var parsed *jwt.Token
	var parseErr error
	if err := p.withKey(func(key []byte) error {
		parsed, parseErr = jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return key, nil
		},
			jwt.WithIssuer(p.issuer),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(p.now),
		)
		return nil
	}); err != nil {
		return nil, err
	}
	if parseErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, parseErr)
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || c.Subject == "" {
		return nil, ErrInvalidToken
	}

	s := &Session{Username: c.Subject}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s, nil
}
