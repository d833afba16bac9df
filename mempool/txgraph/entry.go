// Copyright (c) 2013-2025 The btcsuite developers
// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txgraph

import (
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// LockPoints records the relative lock-time state computed for an entry at
// admission so it can be re-validated cheaply after a reorg.
type LockPoints struct {
	// Height is the block height at which the entry's relative locks are
	// satisfied, or -1 when there is no height lock.
	Height int32

	// Time is the median time past (unix seconds) at which the entry's
	// relative locks are satisfied, or -1 when there is no time lock.
	Time int64
}

// Entry is a transaction held by the pool together with the metadata derived
// from it at admission and the aggregate state of its in-pool relatives.
//
// Relatives are referenced by fingerprint only.  The owning Graph resolves
// them, so removing an entry never leaves a dangling reference behind.
type Entry struct {
	tx   *btcutil.Tx
	hash chainhash.Hash

	fee            int64
	size           int64
	sigOpCost      int64
	acceptTime     time.Time
	height         int32
	spendsCoinbase bool
	lockPoints     LockPoints

	feeDelta    int64
	modifiedFee int64

	countWithAncestors     int64
	sizeWithAncestors      int64
	modFeesWithAncestors   int64
	sigOpCostWithAncestors int64

	countWithDescendants   int64
	sizeWithDescendants    int64
	modFeesWithDescendants int64

	parents  map[chainhash.Hash]struct{}
	children map[chainhash.Hash]struct{}

	// Keys currently used for this entry in the graph indices.
	scoreKey scoreKey
	timeKey  timeKey
}

// NewEntry returns an entry for tx that is not yet linked to any relatives.
// The aggregate ancestor and descendant state starts out covering only the
// entry itself.
func NewEntry(tx *btcutil.Tx, fee, size, sigOpCost int64, acceptTime time.Time,
	height int32, spendsCoinbase bool, lp LockPoints) *Entry {

	e := &Entry{
		tx:             tx,
		hash:           *tx.Hash(),
		fee:            fee,
		size:           size,
		sigOpCost:      sigOpCost,
		acceptTime:     acceptTime,
		height:         height,
		spendsCoinbase: spendsCoinbase,
		lockPoints:     lp,
		modifiedFee:    fee,
		parents:        make(map[chainhash.Hash]struct{}),
		children:       make(map[chainhash.Hash]struct{}),
	}
	e.resetAncestorState()
	e.resetDescendantState()
	return e
}

func (e *Entry) resetAncestorState() {
	e.countWithAncestors = 1
	e.sizeWithAncestors = e.size
	e.modFeesWithAncestors = e.modifiedFee
	e.sigOpCostWithAncestors = e.sigOpCost
}

func (e *Entry) resetDescendantState() {
	e.countWithDescendants = 1
	e.sizeWithDescendants = e.size
	e.modFeesWithDescendants = e.modifiedFee
}

func (e *Entry) updateAncestorState(size, modFee, count, sigOpCost int64) {
	e.sizeWithAncestors += size
	e.modFeesWithAncestors += modFee
	e.countWithAncestors += count
	e.sigOpCostWithAncestors += sigOpCost
}

func (e *Entry) updateDescendantState(size, modFee, count int64) {
	e.sizeWithDescendants += size
	e.modFeesWithDescendants += modFee
	e.countWithDescendants += count
}

// SetFeeDelta applies a priority delta to an entry that has not been added
// to a graph yet.  Use Graph.UpdateModifiedFee for entries in a graph.
func (e *Entry) SetFeeDelta(delta int64) {
	e.feeDelta = delta
	e.modifiedFee = e.fee + delta
	e.resetAncestorState()
	e.resetDescendantState()
}

// Tx returns the transaction wrapped by the entry.
func (e *Entry) Tx() *btcutil.Tx { return e.tx }

// Hash returns the fingerprint of the entry's transaction.
func (e *Entry) Hash() *chainhash.Hash { return &e.hash }

// Fee returns the fee actually paid by the transaction.
func (e *Entry) Fee() int64 { return e.fee }

// ModifiedFee returns the fee after any priority delta has been applied.
func (e *Entry) ModifiedFee() int64 { return e.modifiedFee }

// FeeDelta returns the priority delta applied to the entry.
func (e *Entry) FeeDelta() int64 { return e.feeDelta }

// Size returns the virtual size of the transaction.
func (e *Entry) Size() int64 { return e.size }

// SigOpCost returns the signature operation cost of the transaction.
func (e *Entry) SigOpCost() int64 { return e.sigOpCost }

// Time returns the time the entry was accepted.
func (e *Entry) Time() time.Time { return e.acceptTime }

// Height returns the chain height when the entry was accepted.
func (e *Entry) Height() int32 { return e.height }

// SpendsCoinbase reports whether any input spends a coinbase output.
func (e *Entry) SpendsCoinbase() bool { return e.spendsCoinbase }

// LockPoints returns the relative lock state recorded at admission.
func (e *Entry) LockPoints() LockPoints { return e.lockPoints }

// CountWithAncestors returns the number of in-pool ancestors plus one.
func (e *Entry) CountWithAncestors() int64 { return e.countWithAncestors }

// SizeWithAncestors returns the virtual size of the entry and its ancestors.
func (e *Entry) SizeWithAncestors() int64 { return e.sizeWithAncestors }

// ModFeesWithAncestors returns the modified fees of the entry and its
// ancestors.
func (e *Entry) ModFeesWithAncestors() int64 { return e.modFeesWithAncestors }

// SigOpCostWithAncestors returns the sigop cost of the entry and its
// ancestors.
func (e *Entry) SigOpCostWithAncestors() int64 { return e.sigOpCostWithAncestors }

// CountWithDescendants returns the number of in-pool descendants plus one.
func (e *Entry) CountWithDescendants() int64 { return e.countWithDescendants }

// SizeWithDescendants returns the virtual size of the entry and its
// descendants.
func (e *Entry) SizeWithDescendants() int64 { return e.sizeWithDescendants }

// ModFeesWithDescendants returns the modified fees of the entry and its
// descendants.
func (e *Entry) ModFeesWithDescendants() int64 { return e.modFeesWithDescendants }

// Parents returns the fingerprints of the entry's direct in-pool parents.
func (e *Entry) Parents() []chainhash.Hash { return hashKeys(e.parents) }

// Children returns the fingerprints of the entry's direct in-pool children.
func (e *Entry) Children() []chainhash.Hash { return hashKeys(e.children) }

func hashKeys(set map[chainhash.Hash]struct{}) []chainhash.Hash {
	hashes := make([]chainhash.Hash, 0, len(set))
	for hash := range set {
		hashes = append(hashes, hash)
	}
	return hashes
}
