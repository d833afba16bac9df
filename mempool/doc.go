// Copyright (c) 2016 The btcsuite developers
// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package mempool provides a policy-enforced pool of unmined Syscoin
transactions.

A key responsibility of the network is mining user-generated transactions into
blocks.  In order to facilitate this, the mining process relies on having a
readily-available source of transactions to include in a block that is being
solved.

At a high level, this package satisfies that requirement by providing an
in-memory pool of fully validated transactions that can also optionally be
further filtered based upon a configurable policy.

One of the policy configuration options controls whether or not "standard"
transactions are accepted.  In essence, a "standard" transaction is one that
satisfies a fairly strict set of requirements that are largely intended to
help provide fair use of the system to all users.  It is important to note
that what is considered a "standard" transaction changes over time.  For some
insight, at the time of this writing, an example of some of the criteria that
are required for a transaction to be considered standard are that it is of
the most-recently supported version, finalized, does not exceed a specific
size, and only consists of specific script forms.

Since this package does not deal with other network specifics such as
serialization format, the caller is responsible for providing the chain
state through the Config: the unspent output cache, the tip height and
median time, sequence locks and script flags.

# Admission

Each transaction goes through the same stages in order:

  - A throttle that refuses attempts while the pool is saturated
  - Context-free and standardness pre-screening, conflict resolution, input
    resolution, fee floors and package limits
  - Fee-bump replacement of opted-in conflicting transactions
  - Script verification under the standard flags, then under the flags of
    the next block
  - Committing the transaction, evicting what it replaces and trimming the
    pool to its size limit

A failed attempt releases every coin it pulled into the cache, and the coin
cache is flushed if it grew past its limit after every attempt.

# Asset Allocations

Asset allocation sends by a single sender may double spend a pending send of
the same sender.  A bounded number of such double spends is tolerated so the
competing sends can be observed.  They are queued and removed once the tip
median time passes the time they were detected, or when the next block is
connected.

# Errors

Errors returned by this package are either the raw errors provided by
underlying calls or of type mempool.RuleError.  The RuleError wraps a
mempool.TxRuleError whose Kind tells consensus violations apart from policy,
conflict and missing input rejections, and whose Reason is the reject tag
relayed to peers.  This allows the caller to easily differentiate between
unexpected errors, such as database errors, versus errors due to rule
violations, either through errors.As or with IsRejectKind and RejectReason.
ErrAdmissionThrottled is returned when an attempt was refused before any
work was done.
*/
package mempool
