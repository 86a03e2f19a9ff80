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
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce is how long Watch waits after the last change to
// the file before reloading it.
const DefaultWatchDebounce = 250 * time.Millisecond

// WatchOptions configures Watch.
type WatchOptions struct {
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watch reloads the config at path whenever the file changes and passes
// each valid result to onReload. A file that fails to load is logged and
// skipped. The parent directory is watched so editors that replace the
// file by rename are seen.
//
// Watch blocks until ctx is done. It returns an error only when the
// watcher cannot be started.
func Watch(ctx context.Context, path string, opts WatchOptions, onReload func(ServerConfig)) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultWatchDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(opts.Debounce)
				timerC = timer.C
			} else {
				timer.Reset(opts.Debounce)
			}

		case <-timerC:
			timer, timerC = nil, nil
			cfg, err := Load(abs)
			if err != nil {
				opts.Logger.Warn("config reload skipped", "path", abs, "error", err)
				continue
			}
			opts.Logger.Debug("config reloaded", "path", abs)
			onReload(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			opts.Logger.Warn("config watcher error", "error", err)
		}
	}
}
