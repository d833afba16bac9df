// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package leveldb

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syscoin/sysd/database/engine"
)

// Transaction wraps a goleveldb transaction.
type Transaction struct {
	tx     *leveldb.Transaction
	closed bool
}

// Put stores value under key.
func (t *Transaction) Put(key, value []byte) error {
	if t.closed {
		return engine.ErrTxClosed
	}
	return t.tx.Put(key, value, nil)
}

// Delete removes key.
func (t *Transaction) Delete(key []byte) error {
	if t.closed {
		return engine.ErrTxClosed
	}
	return t.tx.Delete(key, nil)
}

// Discard abandons the transaction.
func (t *Transaction) Discard() {
	if !t.closed {
		t.closed = true
		t.tx.Discard()
	}
}

// Commit applies the writes.
func (t *Transaction) Commit() error {
	if t.closed {
		return engine.ErrTxClosed
	}
	t.closed = true
	return t.tx.Commit()
}
