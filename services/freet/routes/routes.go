// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package routes mounts the Freet API on a gin engine.
package routes

import (
	"github.com/AleutianAI/freet/pkg/session"
	"github.com/AleutianAI/freet/services/freet/handlers"
	"github.com/AleutianAI/freet/services/freet/middleware"
	"github.com/AleutianAI/freet/services/freet/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// ServiceName names the service in traces.
const ServiceName = "freet-server"

// RouterConfig holds what NewRouter wires into the middleware chain.
type RouterConfig struct {
	Handlers *handlers.Handlers
	Sessions session.Provider
	Metrics  *observability.Metrics
	Gatherer prometheus.Gatherer

	// RateLimit bounds POST and PUT requests per client IP.
	RateLimit middleware.RateLimitConfig

	// Tracing enables otelgin spans.
	Tracing bool
}

// NewRouter builds the engine with its middleware and routes.
//
// Middleware order: recovery, tracing, request id, metrics, rate limit,
// session.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Tracing {
		router.Use(otelgin.Middleware(ServiceName))
	}
	router.Use(middleware.RequestID())
	if cfg.Metrics != nil {
		router.Use(middleware.Metrics(cfg.Metrics))
	}
	router.Use(middleware.NewRateLimiter(cfg.RateLimit).Middleware())

	sessions := cfg.Sessions
	if sessions == nil {
		sessions = session.NopProvider{}
	}
	router.Use(middleware.SessionMiddleware(sessions))

	SetupRoutes(router, cfg.Handlers)
	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
	return router
}

// SetupRoutes registers the API and health routes.
func SetupRoutes(router gin.IRouter, h *handlers.Handlers) {
	router.GET("/health", h.HandleHealth)

	api := router.Group("/api")
	{
		followers := api.Group("/followers")
		{
			followers.POST("", h.HandleCreateFollowerView)
			followers.PUT("", h.HandleUpdateFollowers)
			followers.GET("", h.HandleGetFollowers)
		}

		groups := api.Group("/groups")
		{
			groups.POST("", h.HandleCreateGroup)
			groups.PUT("", h.HandleUpdateGroup)
			groups.GET("", h.HandleGetGroup)
		}

		contacts := api.Group("/contacts")
		{
			contacts.POST("", h.HandleCreateContact)
			contacts.PUT("", h.HandleUpdateContact)
			contacts.GET("", h.HandleGetContact)
		}

		users := api.Group("/users")
		{
			users.POST("", h.HandleCreateAccount)
			users.GET("", h.HandleGetAccount)
			users.GET("/:username/freets", h.HandleListFreets)
		}

		freets := api.Group("/freets")
		{
			freets.POST("", h.HandleCreateFreet)
			freets.GET("", h.HandleListFreets)
		}

		api.GET("/events", h.HandleEventStream)
	}
}
