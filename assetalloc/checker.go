// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package assetalloc

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

var (
	// ErrDoubleSpend is returned when an allocation spends an outpoint
	// already claimed by another pending transaction of the same actor.
	ErrDoubleSpend = errors.New("asset allocation double spend")

	// ErrBadAmount is returned for negative or overflowing receiver
	// amounts.
	ErrBadAmount = errors.New("bad asset allocation amount")
)

// claim is a prevout spent by a pending allocation of an actor.
type claim struct {
	actor Actor
	op    wire.OutPoint
}

// Checker validates asset transactions against the allocations pending in
// the pool and detects double spends by a single actor.  It is safe for
// concurrent access.
type Checker struct {
	mtx    sync.Mutex
	claims map[claim]chainhash.Hash
	byHash map[chainhash.Hash][]claim
}

// NewChecker returns a checker with an empty ledger.
func NewChecker() *Checker {
	return &Checker{
		claims: make(map[claim]chainhash.Hash),
		byHash: make(map[chainhash.Hash][]claim),
	}
}

// validate decodes and sanity checks the payload of a Syscoin transaction.
// It returns a nil allocation for transactions of other versions.
func validate(tx *btcutil.Tx) (*Allocation, error) {
	msgTx := tx.MsgTx()
	if !IsSyscoinTx(msgTx.Version) {
		return nil, nil
	}

	alloc, err := Decode(msgTx)
	if err != nil {
		return nil, err
	}
	if alloc.IsNull() {
		return nil, fmt.Errorf("%w: no allocation tuples",
			ErrMalformedPayload)
	}

	for _, tuple := range alloc.Tuples {
		var total int64
		for _, recv := range tuple.Receivers {
			if recv.Amount < 0 {
				return nil, fmt.Errorf("%w: negative amount %d "+
					"for asset %d", ErrBadAmount, recv.Amount,
					tuple.GUID)
			}
			if total > math.MaxInt64-recv.Amount {
				return nil, fmt.Errorf("%w: receiver total for "+
					"asset %d overflows", ErrBadAmount, tuple.GUID)
			}
			total += recv.Amount
		}
	}
	return alloc, nil
}

// CheckInputs validates the payload of tx and checks its inputs against the
// ledger of pending allocations.  A prevout already claimed by a different
// pending transaction of the same actor is a double spend.  It is reported
// as ErrDoubleSpend unless justCheck is set, in which case it is ignored.
//
// CheckInputs never mutates the ledger.
func (c *Checker) CheckInputs(tx *btcutil.Tx, height int32,
	justCheck bool) error {

	alloc, err := validate(tx)
	if err != nil || alloc == nil {
		return err
	}
	if !IsAssetAllocationTx(tx.MsgTx().Version) {
		return nil
	}

	hash := *tx.Hash()
	c.mtx.Lock()
	defer c.mtx.Unlock()

	for _, actor := range Actors(alloc, true) {
		for _, txIn := range tx.MsgTx().TxIn {
			other, ok := c.claims[claim{actor, txIn.PreviousOutPoint}]
			if !ok || other == hash {
				continue
			}
			if justCheck {
				log.Debugf("Ignoring duplicate spend of %v by %v "+
					"in %v", txIn.PreviousOutPoint, actor, hash)
				continue
			}
			return fmt.Errorf("%w: %v spends %v already spent by "+
				"%v for actor %v at height %d", ErrDoubleSpend,
				hash, txIn.PreviousOutPoint, other, actor, height)
		}
	}
	return nil
}

// Connect records the prevouts of an allocation transaction entering the
// pool.  Prevouts already claimed for an actor keep their first claimant.
func (c *Checker) Connect(tx *btcutil.Tx) error {
	if !IsAssetAllocationTx(tx.MsgTx().Version) {
		return nil
	}
	alloc, err := validate(tx)
	if err != nil {
		return err
	}

	hash := *tx.Hash()
	c.mtx.Lock()
	defer c.mtx.Unlock()

	for _, actor := range Actors(alloc, true) {
		for _, txIn := range tx.MsgTx().TxIn {
			key := claim{actor, txIn.PreviousOutPoint}
			if _, ok := c.claims[key]; ok {
				continue
			}
			c.claims[key] = hash
			c.byHash[hash] = append(c.byHash[hash], key)
		}
	}
	return nil
}

// Disconnect releases every prevout claimed by hash.
func (c *Checker) Disconnect(hash *chainhash.Hash) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	for _, key := range c.byHash[*hash] {
		if c.claims[key] == *hash {
			delete(c.claims, key)
		}
	}
	delete(c.byHash, *hash)
}

// Len returns the number of claimed prevouts.
func (c *Checker) Len() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return len(c.claims)
}
