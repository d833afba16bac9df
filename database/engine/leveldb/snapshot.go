// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package leveldb

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/util"
	"github.com/syscoin/sysd/database/engine"
)

// Snapshot wraps a goleveldb snapshot.
type Snapshot struct {
	snapshot *leveldb.Snapshot
	released bool
}

// Has reports whether key exists.
func (s *Snapshot) Has(key []byte) (bool, error) {
	if s.released {
		return false, engine.ErrSnapshotReleased
	}
	return s.snapshot.Has(key, nil)
}

// Get returns the value for key.
func (s *Snapshot) Get(key []byte) ([]byte, error) {
	if s.released {
		return nil, engine.ErrSnapshotReleased
	}
	val, err := s.snapshot.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, fmt.Errorf("%w: %x", engine.ErrNotFound, key)
	}
	return val, err
}

// Release releases the snapshot.
func (s *Snapshot) Release() {
	if !s.released {
		s.released = true
		s.snapshot.Release()
	}
}

// NewIterator returns an iterator over slice.
func (s *Snapshot) NewIterator(slice *engine.Range) engine.Iterator {
	if s.released {
		return iterator.NewEmptyIterator(engine.ErrSnapshotReleased)
	}
	return s.snapshot.NewIterator(&util.Range{
		Start: slice.Start,
		Limit: slice.Limit,
	}, nil)
}
