// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package pebbledb implements engine.Engine on pebble.
package pebbledb

import (
	"runtime"
	"sync/atomic"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/syscoin/sysd/database/engine"
)

const (
	// DefaultCache is the default block cache size in MiB.
	DefaultCache = 64

	// DefaultHandles is the default number of open files.
	DefaultHandles = 16
)

// Options configure a pebble engine.
type Options struct {
	// Create makes opening an existing database fail.
	Create bool

	// Cache is the block cache size in MiB.
	Cache int

	// Handles bounds the number of open files.
	Handles int

	// FS overrides the filesystem, such as vfs.NewMem() in tests.
	FS vfs.FS
}

// NewDB opens the database at dbPath.
func NewDB(dbPath string, options Options) (engine.Engine, error) {
	if options.Cache <= 0 {
		options.Cache = DefaultCache
	}
	if options.Handles <= 0 {
		options.Handles = DefaultHandles
	}

	cache := pebble.NewCache(int64(options.Cache) * 1024 * 1024)
	defer cache.Unref()

	levels := make([]pebble.LevelOptions, 7)
	for i := range levels {
		levels[i] = pebble.LevelOptions{
			TargetFileSize: (2 * 1024 * 1024) << i,
			FilterPolicy:   bloom.FilterPolicy(10),
		}
	}
	opts := &pebble.Options{
		Cache:                    cache,
		ErrorIfExists:            options.Create,
		MaxOpenFiles:             options.Handles,
		MaxConcurrentCompactions: runtime.NumCPU,
		Levels:                   levels,
		FS:                       options.FS,
	}
	opts.Experimental.ReadSamplingMultiplier = -1

	db, err := pebble.Open(dbPath, opts)
	if err != nil {
		return nil, err
	}
	return &DB{db: db}, nil
}

// DB is a pebble backed engine.
type DB struct {
	db     *pebble.DB
	closed atomic.Bool
}

// Transaction returns a pebble batch.
func (d *DB) Transaction() (engine.Transaction, error) {
	if d.closed.Load() {
		return nil, engine.ErrClosed
	}
	return &Transaction{batch: d.db.NewBatch()}, nil
}

// Snapshot returns a pebble snapshot.
func (d *DB) Snapshot() (engine.Snapshot, error) {
	if d.closed.Load() {
		return nil, engine.ErrClosed
	}
	return &Snapshot{snapshot: d.db.NewSnapshot()}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	if d.closed.Swap(true) {
		return engine.ErrClosed
	}
	return d.db.Close()
}
