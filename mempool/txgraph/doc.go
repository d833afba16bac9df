// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package txgraph holds the entries of the transaction memory pool and the
relationships between them.

Each entry keeps its own fee, size and sigop cost along with aggregates over
its in-pool ancestor and descendant packages.  Relatives are referenced by
fingerprint only, so entries never hold pointers to each other and removal
cannot leave a dangling link.

The graph maintains two ordered views built on red-black trees: one by
descendant score, which drives size-limit eviction, and one by acceptance
time, which drives expiry.

# Package Limits

CalculateAncestors walks the ancestors of a candidate entry while enforcing
the ancestor and descendant count and size limits.  The returned set is what
Add expects, and it is also what the admission path uses to detect an entry
that spends an output of a transaction it is about to replace.

# Concurrency

A Graph is not safe for concurrent use.  The pool that owns it serializes
every call under its own lock.
*/
package txgraph
