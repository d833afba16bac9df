// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pebbledb

import (
	"github.com/cockroachdb/pebble"
	"github.com/syscoin/sysd/database/engine"
)

// Iterator adapts a pebble iterator to engine.Iterator.  A nil iter is an
// empty iterator reporting err.
type Iterator struct {
	iter     *pebble.Iterator
	err      error
	started  bool
	released bool
}

// First moves to the first pair.
func (i *Iterator) First() bool {
	if i.iter == nil || i.released {
		return false
	}
	i.started = true
	return i.iter.First()
}

// Next moves to the next pair.  The first call on a new iterator moves to
// the first pair.
func (i *Iterator) Next() bool {
	if !i.started {
		return i.First()
	}
	if i.iter == nil || i.released {
		return false
	}
	return i.iter.Next()
}

// Key returns the current key, or nil when exhausted.
func (i *Iterator) Key() []byte {
	if i.iter == nil || i.released || !i.iter.Valid() {
		return nil
	}
	return i.iter.Key()
}

// Value returns the current value, or nil when exhausted.
func (i *Iterator) Value() []byte {
	if i.iter == nil || i.released || !i.iter.Valid() {
		return nil
	}
	return i.iter.Value()
}

// Release closes the iterator.
func (i *Iterator) Release() {
	if i.released {
		return
	}
	i.released = true
	if i.iter != nil {
		i.iter.Close()
	}
}

// Error returns the accumulated error.
func (i *Iterator) Error() error {
	switch {
	case i.err != nil:
		return i.err
	case i.released:
		return engine.ErrIterReleased
	case i.iter == nil:
		return nil
	}
	return i.iter.Error()
}
