// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

// Iterator walks the key/value pairs of a snapshot range in key order.  A
// new iterator is positioned before the first pair.
type Iterator interface {
	// First moves the iterator to the first key/value pair and reports
	// whether such pair exists.
	First() bool

	// Next moves the iterator to the next key/value pair.  It returns
	// false once the iterator is exhausted.
	Next() bool

	// Error returns any accumulated error.  Exhausting all the key/value
	// pairs is not considered to be an error.
	Error() error

	// Key returns the key of the current pair, or nil if done.  The
	// contents of the returned slice may change on the next move.
	Key() []byte

	// Value returns the value of the current pair, or nil if done.  The
	// contents of the returned slice may change on the next move.
	Value() []byte

	Releaser
}

// Range is a key range.
type Range struct {
	// Start of the key range, included in the range.
	Start []byte

	// Limit of the key range, not included in the range.  A nil limit
	// is unbounded.
	Limit []byte
}

// BytesPrefix returns the key range of keys starting with prefix.
func BytesPrefix(prefix []byte) *Range {
	var limit []byte
	for i := len(prefix) - 1; i >= 0; i-- {
		c := prefix[i]
		if c < 0xff {
			limit = make([]byte, i+1)
			copy(limit, prefix)
			limit[i] = c + 1
			break
		}
	}
	return &Range{Start: prefix, Limit: limit}
}
