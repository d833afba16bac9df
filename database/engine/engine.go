// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package engine defines the key/value store abstraction backing the
// durable coin cache.  Writes are grouped in transactions and reads go
// through point-in-time snapshots.
package engine

import "errors"

var (
	// ErrClosed is returned by operations on a closed engine.
	ErrClosed = errors.New("engine: closed")

	// ErrTxClosed is returned when writing to or committing a transaction
	// that was already committed or discarded.
	ErrTxClosed = errors.New("engine: transaction already closed")

	// ErrSnapshotReleased is returned by reads from a released snapshot.
	ErrSnapshotReleased = errors.New("engine: snapshot released")

	// ErrIterReleased is returned by a released iterator.
	ErrIterReleased = errors.New("engine: iterator released")

	// ErrNotFound is returned by Snapshot.Get for a missing key.
	ErrNotFound = errors.New("engine: not found")
)

// Engine is a key/value store.
type Engine interface {
	// Transaction opens a write transaction.
	Transaction() (Transaction, error)

	// Snapshot returns a read-only view of the committed state.
	Snapshot() (Snapshot, error)

	// Close closes the engine.  A second call returns an error.
	Close() error
}

// Transaction is a group of writes applied atomically on Commit.
type Transaction interface {
	Put(key, value []byte) error
	Delete(key []byte) error
	Commit() error

	// Discard abandons the transaction.  It is safe to call more than
	// once and after Commit.
	Discard()
}

// Snapshot is a consistent read-only view of an engine.
type Snapshot interface {
	// Get returns a copy of the value for key, or an error wrapping
	// ErrNotFound.
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	NewIterator(*Range) Iterator
	Releaser
}

// Releaser is implemented by resources that must be released after use.
// Release is safe to call more than once.
type Releaser interface {
	Release()
}
