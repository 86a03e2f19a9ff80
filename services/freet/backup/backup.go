// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package backup copies the embedded BadgerDB store to and from a local
// file or a Google Cloud Storage object.
//
// Targets are either a filesystem path or gs://bucket/object:
//
//	n, err := backup.Write(ctx, db, "gs://freet-backups/2025-01-02.bak", backup.Options{})
//	err = backup.Restore(ctx, db, "/var/backups/freet.bak", backup.Options{})
//
// The stream is BadgerDB's native backup format, so a restore must go into
// a BadgerDB store. Keys present in both the backup and the store are
// overwritten by the backup.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// maxPendingWrites bounds the batches in flight while loading a backup.
const maxPendingWrites = 256

const gcsScheme = "gs://"

// Snapshotter is the part of *badger.DB used here.
type Snapshotter interface {
	Backup(w io.Writer, since uint64) (uint64, error)
	Load(r io.Reader, maxPendingWrites int) error
}

// Options configures access to gs:// targets.
type Options struct {
	// CredentialsFile is a service account key. Empty uses application
	// default credentials.
	CredentialsFile string
}

// Location is a parsed backup target.
type Location struct {
	Bucket string
	Object string
	Path   string
}

// IsGCS reports whether the location is a Cloud Storage object.
func (l Location) IsGCS() bool {
	return l.Bucket != ""
}

func (l Location) String() string {
	if l.IsGCS() {
		return gcsScheme + l.Bucket + "/" + l.Object
	}
	return l.Path
}

// ParseLocation reads a filesystem path or a gs://bucket/object URL.
func ParseLocation(target string) (Location, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return Location{}, errors.New("backup target is required")
	}
	if !strings.HasPrefix(target, gcsScheme) {
		return Location{Path: filepath.Clean(target)}, nil
	}
	bucket, object, ok := strings.Cut(strings.TrimPrefix(target, gcsScheme), "/")
	if !ok || bucket == "" || object == "" {
		return Location{}, fmt.Errorf("backup target %q must look like gs://bucket/object", target)
	}
	return Location{Bucket: bucket, Object: object}, nil
}

// Write streams a full backup of db to target and returns the version
// the backup is complete up to.
func Write(ctx context.Context, db Snapshotter, target string, opts Options) (uint64, error) {
	loc, err := ParseLocation(target)
	if err != nil {
		return 0, err
	}
	if loc.IsGCS() {
		return writeGCS(ctx, db, loc, opts)
	}
	return writeFile(db, loc.Path)
}

// Restore loads the backup at source into db.
func Restore(ctx context.Context, db Snapshotter, source string, opts Options) error {
	loc, err := ParseLocation(source)
	if err != nil {
		return err
	}

	var r io.ReadCloser
	if loc.IsGCS() {
		client, err := newGCSClient(ctx, opts)
		if err != nil {
			return err
		}
		defer client.Close()
		r, err = client.Bucket(loc.Bucket).Object(loc.Object).NewReader(ctx)
		if err != nil {
			return fmt.Errorf("open %s: %w", loc, err)
		}
	} else {
		r, err = os.Open(loc.Path)
		if err != nil {
			return fmt.Errorf("open %s: %w", loc, err)
		}
	}
	defer r.Close()

	if err := db.Load(r, maxPendingWrites); err != nil {
		return fmt.Errorf("load backup from %s: %w", loc, err)
	}
	return nil
}

func writeFile(db Snapshotter, path string) (uint64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return 0, fmt.Errorf("create backup directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create backup file: %w", err)
	}
	defer os.Remove(tmp.Name())

	version, err := db.Backup(tmp, 0)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("write backup: %w", err)
	}
	if err := errors.Join(tmp.Sync(), tmp.Close()); err != nil {
		return 0, fmt.Errorf("flush backup: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("move backup into place: %w", err)
	}
	return version, nil
}

func writeGCS(ctx context.Context, db Snapshotter, loc Location, opts Options) (uint64, error) {
	client, err := newGCSClient(ctx, opts)
	if err != nil {
		return 0, err
	}
	defer client.Close()

	// Cancelling the writer's context before Close discards the upload.
	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	w := client.Bucket(loc.Bucket).Object(loc.Object).NewWriter(writeCtx)
	w.ContentType = "application/octet-stream"

	version, err := db.Backup(w, 0)
	if err != nil {
		cancel()
		_ = w.Close()
		return 0, fmt.Errorf("write backup to %s: %w", loc, err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("finish upload to %s: %w", loc, err)
	}
	return version, nil
}

func newGCSClient(ctx context.Context, opts Options) (*storage.Client, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return client, nil
}
