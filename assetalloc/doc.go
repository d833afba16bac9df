// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package assetalloc implements the pieces of the asset allocation layer that
transaction admission depends on.

Syscoin transactions are identified by their version.  Allocation
transactions carry a payload in their first data carrier output which lists,
per asset, a sender witness address and its receivers.  The sender is the
actor behind the transaction.

A Checker keeps a ledger of the prevouts claimed by each actor's pending
allocations and reports a second, different claim as a double spend.  A
ToleranceSet bounds how many such double spends may be held in the pool at
once, one per actor, so that observers can see the competing sends.
*/
package assetalloc
