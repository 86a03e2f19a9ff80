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
	"errors"
	"fmt"

	"github.com/AleutianAI/freet/services/freet/backup"
	"github.com/AleutianAI/freet/services/freet/config"
	badgerstore "github.com/AleutianAI/freet/services/freet/storage/badger"
	"github.com/spf13/cobra"
)

func newBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup <file|gs://bucket/object>",
		Short: "Write a full backup of the badger store",
		Long: `backup streams every collection of the badger store to a local file or a
Cloud Storage object. It can run while the server is stopped; the store
directory is locked while the server runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openBadger()
			if err != nil {
				return err
			}
			defer db.Close()

			version, err := backup.Write(cmd.Context(), db, args[0], backup.Options{CredentialsFile: cfg.Backup.CredentialsFile})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backed up %s to %s (version %d).\n", cfg.Storage.Badger.Path, args[0], version)
			return nil
		},
	}
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file|gs://bucket/object>",
		Short: "Load a backup into the badger store",
		Long: `restore loads a backup written by "freet-server backup". Records in the
backup overwrite records with the same key; other records are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openBadger()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := backup.Restore(cmd.Context(), db, args[0], backup.Options{CredentialsFile: cfg.Backup.CredentialsFile}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s into %s.\n", args[0], cfg.Storage.Badger.Path)
			return nil
		},
	}
}

// openBadger opens the configured badger store without GC.
func openBadger() (config.ServerConfig, *badgerstore.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, err
	}
	if cfg.Storage.Backend != config.BackendBadger {
		return cfg, nil, fmt.Errorf("backups need storage.backend %q, configured %q", config.BackendBadger, cfg.Storage.Backend)
	}
	if cfg.Storage.Badger.InMemory {
		return cfg, nil, errors.New("an in-memory store has nothing to back up")
	}
	dbCfg := badgerstore.DefaultConfig()
	dbCfg.Path = cfg.Storage.Badger.Path
	dbCfg.GCInterval = 0
	db, err := badgerstore.OpenDB(dbCfg)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, db, nil
}
