// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package server assembles freet-server from its configuration and runs
// it until the context is cancelled.
//
// # Lifecycle
//
//	srv, err := server.New(ctx, cfg, logger)
//	if err != nil { ... }
//	defer srv.Close()
//	err = srv.Run(ctx) // returns after a graceful shutdown
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/AleutianAI/freet/pkg/session"
	"github.com/AleutianAI/freet/services/freet/collections"
	"github.com/AleutianAI/freet/services/freet/config"
	"github.com/AleutianAI/freet/services/freet/events"
	"github.com/AleutianAI/freet/services/freet/handlers"
	"github.com/AleutianAI/freet/services/freet/middleware"
	"github.com/AleutianAI/freet/services/freet/observability"
	"github.com/AleutianAI/freet/services/freet/routes"
	badgerstore "github.com/AleutianAI/freet/services/freet/storage/badger"
	mongostore "github.com/AleutianAI/freet/services/freet/storage/mongo"
	"github.com/AleutianAI/freet/services/freet/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

// Version is reported in traces and by /health. Release builds set it
// with -ldflags "-X .../server.Version=v1.2.3".
var Version = "dev"

// Server owns every long-lived resource of the process.
type Server struct {
	cfg       config.ServerConfig
	logger    *slog.Logger
	store     *collections.Store
	publisher events.Publisher
	hub       *events.Hub
	registry  *prometheus.Registry
	router    *gin.Engine

	// closers run in reverse order on Close.
	closers []func() error
}

// New opens the store, the event publisher and telemetry, then builds the
// router. On error everything opened so far is closed.
func New(ctx context.Context, cfg config.ServerConfig, logger *slog.Logger) (_ *Server, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()

	if err := s.openStore(ctx); err != nil {
		return nil, err
	}
	s.registry = prometheus.NewRegistry()
	s.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Init(ctx, telemetry.Config{
			ServiceName:    routes.ServiceName,
			ServiceVersion: Version,
			OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("init telemetry: %w", err)
		}
		s.closers = append(s.closers, withTimeout(shutdown))
	}
	meterProvider, shutdownMeter, err := telemetry.InitMeter(telemetry.MeterConfig{
		ServiceName:    routes.ServiceName,
		ServiceVersion: Version,
		Exporter:       cfg.Telemetry.Metrics,
		Registerer:     s.registry,
	})
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	s.closers = append(s.closers, withTimeout(shutdownMeter))

	if err := s.openPublisher(meterProvider.Meter(routes.ServiceName)); err != nil {
		return nil, err
	}

	provider, err := NewSessionProvider(cfg.Auth)
	if err != nil {
		return nil, err
	}
	if closer, ok := provider.(io.Closer); ok {
		s.closers = append(s.closers, closer.Close)
	}
	if cfg.Auth.Provider == config.AuthNone {
		logger.Warn("session provider is none: every request is logged in", "username", session.LocalUser)
	}

	metrics := observability.NewMetrics(s.registry)

	h := handlers.NewHandlers(handlers.Config{
		Store:     s.store,
		Publisher: s.publisher,
		Hub:       s.hub,
		Metrics:   metrics,
		Logger:    logger,
		Version:   Version,
	})
	s.router = routes.NewRouter(routes.RouterConfig{
		Handlers: h,
		Sessions: provider,
		Metrics:  metrics,
		Gatherer: s.registry,
		RateLimit: middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			IdleTTL:           cfg.RateLimit.IdleTTL,
		},
		Tracing: cfg.Telemetry.Enabled,
	})
	return s, nil
}

func (s *Server) openStore(ctx context.Context) error {
	switch s.cfg.Storage.Backend {
	case config.BackendMongo:
		db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      s.cfg.Storage.Mongo.URI,
			Database: s.cfg.Storage.Mongo.Database,
			Timeout:  s.cfg.Storage.Mongo.Timeout,
		})
		if err != nil {
			return err
		}
		s.closers = append(s.closers, db.Close)
		s.store = collections.NewMongoStore(db)
		s.logger.Info("using mongo store", "database", s.cfg.Storage.Mongo.Database)
	default:
		badgerCfg := badgerstore.DefaultConfig()
		badgerCfg.Path = s.cfg.Storage.Badger.Path
		badgerCfg.InMemory = s.cfg.Storage.Badger.InMemory
		badgerCfg.Logger = s.logger.With("component", "badger")
		db, err := badgerstore.OpenDB(badgerCfg)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, db.Close)
		s.store = collections.NewBadgerStore(db)
		s.logger.Info("using badger store", "path", badgerCfg.Path, "in_memory", badgerCfg.InMemory)
	}
	return nil
}

// openPublisher builds the publisher chain: every event goes to NATS
// (when configured) and to the in-process hub behind /api/events, with
// publish metrics recorded on meter.
func (s *Server) openPublisher(meter metric.Meter) error {
	var sinks events.Tee
	if s.cfg.Events.NATSURL != "" {
		nats, err := events.ConnectNATS(s.cfg.Events.NATSURL, s.logger)
		if err != nil {
			return err
		}
		sinks = append(sinks, nats)
		s.logger.Info("publishing relationship events", "nats_url", s.cfg.Events.NATSURL)
	}
	if s.cfg.Events.Stream {
		s.hub = events.NewHub()
		sinks = append(sinks, s.hub)
	}

	var publisher events.Publisher = events.Nop{}
	if len(sinks) > 0 {
		publisher = sinks
	}
	instrumented, err := events.NewInstrumented(publisher, meter)
	if err != nil {
		_ = publisher.Close()
		return err
	}
	s.publisher = instrumented
	s.closers = append(s.closers, instrumented.Close)
	return nil
}

func withTimeout(shutdown func(context.Context) error) func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return shutdown(ctx)
	}
}

// NewSessionProvider returns the provider named by cfg.Provider.
func NewSessionProvider(cfg config.AuthConfig) (session.Provider, error) {
	switch cfg.Provider {
	case config.AuthNone, "":
		return session.NopProvider{}, nil
	case config.AuthJWT:
		return session.NewJWTProvider(session.JWTConfig{
			Secret: cfg.JWTSecret,
			Issuer: cfg.Issuer,
			TTL:    cfg.TokenTTL,
		})
	default:
		return nil, fmt.Errorf("unknown session provider %q", cfg.Provider)
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured port and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully within
// the configured timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("freet-server listening", "addr", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		timeout := s.cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		s.logger.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Close releases the store, the publisher and telemetry. Open event
// streams end when the hub closes.
func (s *Server) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}
