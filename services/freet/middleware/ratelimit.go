// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig configures per-client token buckets.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate. Zero disables limiting.
	RequestsPerSecond float64

	// Burst is the bucket size.
	Burst int

	// IdleTTL drops buckets unused for this long.
	IdleTTL time.Duration
}

// DefaultRateLimitConfig allows 10 mutating requests per second per client
// with bursts of 20.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{RequestsPerSecond: 10, Burst: 20, IdleTTL: 10 * time.Minute}
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits mutating requests per client IP.
//
// Idle buckets are swept at most once per IdleTTL, so a request costs
// O(clients) only on the request that triggers the sweep.
type RateLimiter struct {
	cfg       RateLimitConfig
	mu        sync.Mutex
	clients   map[string]*clientBucket
	nextSweep time.Time
	now       func() time.Time
}

// NewRateLimiter returns a limiter for cfg.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	return &RateLimiter{
		cfg:     cfg,
		clients: make(map[string]*clientBucket),
		now:     time.Now,
	}
}

func (l *RateLimiter) allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if !now.Before(l.nextSweep) {
		l.sweep(now)
	}

	b, ok := l.clients[client]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.Burst)}
		l.clients[client] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

func (l *RateLimiter) sweep(now time.Time) {
	for key, b := range l.clients {
		if now.Sub(b.lastSeen) > l.cfg.IdleTTL {
			delete(l.clients, key)
		}
	}
	l.nextSweep = now.Add(l.cfg.IdleTTL)
}

// Middleware rejects POST and PUT requests over the limit with 429.
// Reads are never limited.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.cfg.RequestsPerSecond <= 0 {
			c.Next()
			return
		}
		method := c.Request.Method
		if method != http.MethodPost && method != http.MethodPut {
			c.Next()
			return
		}
		if !l.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
