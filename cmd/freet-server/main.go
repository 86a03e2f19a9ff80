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
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/AleutianAI/freet/pkg/logging"
	"github.com/AleutianAI/freet/pkg/session"
	"github.com/AleutianAI/freet/services/freet/config"
	"github.com/AleutianAI/freet/services/freet/server"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var (
	configPath string
	mintFor    string
)

var rootCmd = &cobra.Command{
	Use:   "freet-server",
	Short: "Serve the Freet relationship API",
	Long: `freet-server serves followers, groups, contact displays, accounts and
freets over HTTP, backed by BadgerDB or MongoDB.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Version = server.Version
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to freet.yaml (default ./freet.yaml when present)")
	rootCmd.Flags().StringVar(&mintFor, "mint-token", "", "print a session token for this username and exit (jwt provider only)")
	rootCmd.AddCommand(newBackupCmd(), newRestoreCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("freet-server: %v", err)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if mintFor != "" {
		return mintToken(cmd, cfg.Auth, mintFor)
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logger := logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "freet-server",
		JSON:    cfg.Logging.JSON,
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	if level != logging.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg, logger.Slog())
	if err != nil {
		return err
	}
	if path := watchedConfigPath(); path != "" {
		go watchLogLevel(ctx, path, logger)
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error("close failed", "error", err)
		}
	}()
	return srv.Run(ctx)
}

// watchedConfigPath returns the config file Load read, or "" when the
// server runs on defaults.
func watchedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if _, err := os.Stat(config.DefaultPath); err == nil {
		return config.DefaultPath
	}
	return ""
}

// watchLogLevel applies logging.level changes from the config file
// without a restart. Other settings still need one.
func watchLogLevel(ctx context.Context, path string, logger *logging.Logger) {
	err := config.Watch(ctx, path, config.WatchOptions{Logger: logger.Slog()}, func(cfg config.ServerConfig) {
		level, err := logging.ParseLevel(cfg.Logging.Level)
		if err != nil || level == logger.Level() {
			return
		}
		logger.SetLevel(level)
		logger.Info("log level changed", "level", level.String())
	})
	if err != nil {
		logger.Warn("config watch disabled", "path", path, "error", err)
	}
}

func mintToken(cmd *cobra.Command, auth config.AuthConfig, username string) error {
	if auth.Provider != config.AuthJWT {
		return fmt.Errorf("--mint-token needs auth.provider %q, configured %q", config.AuthJWT, auth.Provider)
	}
	provider, err := session.NewJWTProvider(session.JWTConfig{
		Secret: auth.JWTSecret,
		Issuer: auth.Issuer,
		TTL:    auth.TokenTTL,
	})
	if err != nil {
		return err
	}
	defer provider.Close()
	token, err := provider.Mint(username)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
