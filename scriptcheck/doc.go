// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package scriptcheck verifies the input scripts of pool candidates.

Inputs of a transaction are executed concurrently, bounded by a worker limit,
and share a signature cache.  Successful verifications can be remembered in a
bounded result cache keyed by the witness hash of the transaction and the
script flags, so that re-verifying an unchanged transaction against the same
flags costs a single lookup.
*/
package scriptcheck
