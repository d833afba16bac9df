// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package leveldb implements engine.Engine on goleveldb.
package leveldb

import (
	"sync/atomic"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syscoin/sysd/database/engine"
)

// NewDB opens the database at dbPath.  With create set, opening an existing
// database fails.
func NewDB(dbPath string, create bool) (engine.Engine, error) {
	opts := opt.Options{
		ErrorIfExist: create,
		Strict:       opt.DefaultStrict,
		Compression:  opt.NoCompression,
		Filter:       filter.NewBloomFilter(10),
	}
	ldb, err := leveldb.OpenFile(dbPath, &opts)
	if err != nil {
		return nil, err
	}
	return &DB{db: ldb}, nil
}

// DB is a goleveldb backed engine.
type DB struct {
	db     *leveldb.DB
	closed atomic.Bool
}

// Transaction opens a goleveldb transaction.  Only one transaction can be
// open at a time; a second call blocks until the first is closed.
func (d *DB) Transaction() (engine.Transaction, error) {
	if d.closed.Load() {
		return nil, engine.ErrClosed
	}
	tx, err := d.db.OpenTransaction()
	if err != nil {
		return nil, err
	}
	return &Transaction{tx: tx}, nil
}

// Snapshot returns a goleveldb snapshot.
func (d *DB) Snapshot() (engine.Snapshot, error) {
	if d.closed.Load() {
		return nil, engine.ErrClosed
	}
	snapshot, err := d.db.GetSnapshot()
	if err != nil {
		return nil, err
	}
	return &Snapshot{snapshot: snapshot}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	if d.closed.Swap(true) {
		return engine.ErrClosed
	}
	return d.db.Close()
}
