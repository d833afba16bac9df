// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pebbledb

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/syscoin/sysd/database/engine"
)

// Snapshot wraps a pebble snapshot.
type Snapshot struct {
	snapshot *pebble.Snapshot
	released bool
}

// Has reports whether key exists.
func (s *Snapshot) Has(key []byte) (bool, error) {
	_, err := s.Get(key)
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// Get returns a copy of the value for key.
func (s *Snapshot) Get(key []byte) ([]byte, error) {
	if s.released {
		return nil, engine.ErrSnapshotReleased
	}

	val, closer, err := s.snapshot.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: %x", engine.ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	return append([]byte(nil), val...), nil
}

// Release releases the snapshot.
func (s *Snapshot) Release() {
	if !s.released {
		s.released = true
		s.snapshot.Close()
	}
}

// NewIterator returns an iterator over slice.
func (s *Snapshot) NewIterator(slice *engine.Range) engine.Iterator {
	if s.released {
		return &Iterator{err: engine.ErrSnapshotReleased}
	}

	iter, err := s.snapshot.NewIter(&pebble.IterOptions{
		LowerBound: slice.Start,
		UpperBound: slice.Limit,
	})
	if err != nil {
		return &Iterator{err: err}
	}
	return &Iterator{iter: iter}
}
