// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pebbledb

import (
	"github.com/cockroachdb/pebble"
	"github.com/syscoin/sysd/database/engine"
)

// Transaction wraps a pebble batch.
type Transaction struct {
	batch  *pebble.Batch
	closed bool
}

// Put stores value under key.
func (t *Transaction) Put(key, value []byte) error {
	if t.closed {
		return engine.ErrTxClosed
	}
	return t.batch.Set(key, value, pebble.NoSync)
}

// Delete removes key.
func (t *Transaction) Delete(key []byte) error {
	if t.closed {
		return engine.ErrTxClosed
	}
	return t.batch.Delete(key, pebble.NoSync)
}

// Discard abandons the batch.
func (t *Transaction) Discard() {
	if !t.closed {
		t.closed = true
		t.batch.Close()
	}
}

// Commit applies the batch with a synced write.
func (t *Transaction) Commit() error {
	if t.closed {
		return engine.ErrTxClosed
	}
	t.closed = true
	defer t.batch.Close()
	return t.batch.Commit(pebble.Sync)
}
