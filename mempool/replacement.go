// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/syscoin/sysd/mempool/txgraph"
)

// insufficientFee returns a replacement rule error with the given reason.
func insufficientFee(reason, format string, args ...interface{}) RuleError {
	return txRuleError(RejectMempoolPolicy, wire.RejectInsufficientFee,
		reason, fmt.Sprintf(format, args...))
}

// checkReplacement decides whether the candidate may replace its direct
// conflicts.  It must beat the feerate of every direct conflict, evict a
// bounded number of transactions, pay at least the fees of everything it
// evicts plus the incremental relay fee for its own size, and spend no
// unconfirmed output other than those of its direct conflicts' parents.
//
// On success ws.allConflicting holds every entry to evict together with
// their fee and size totals.
//
// This function MUST be called with the mempool lock held (for reads).
func (mp *TxPool) checkReplacement(ws *workspace) error {
	txHash := ws.hash
	size := ws.entry.Size()
	newRate := NewFeeRate(ws.modifiedFee, size)

	conflictParents := make(map[chainhash.Hash]struct{})
	var conflictingCount int64
	for _, conflict := range ws.conflicts {
		// Only the feerates of the direct conflicts are compared.  The
		// absolute fee check below covers their descendants.
		if txgraph.CompareFeeRates(ws.modifiedFee, size,
			conflict.ModifiedFee(), conflict.Size()) <= 0 {

			oldRate := NewFeeRate(conflict.ModifiedFee(),
				conflict.Size())
			return insufficientFee("insufficient fee", "rejecting "+
				"replacement %v; new feerate %v <= old feerate %v",
				txHash, newRate, oldRate)
		}

		for _, txIn := range conflict.Tx().MsgTx().TxIn {
			conflictParents[txIn.PreviousOutPoint.Hash] = struct{}{}
		}
		conflictingCount += conflict.CountWithDescendants()
	}

	// The count may include a descendant more than once.  It only bounds
	// the work done below.
	if conflictingCount > maxReplacementEvictions {
		return insufficientFee("too many potential replacements",
			"rejecting replacement %v; too many potential "+
				"replacements (%d > %d)", txHash, conflictingCount,
			maxReplacementEvictions)
	}

	for hash := range ws.conflicts {
		mp.graph.CalculateDescendants(hash, ws.allConflicting)
	}
	for _, e := range ws.allConflicting {
		ws.conflictingFees += e.ModifiedFee()
		ws.conflictingSize += e.Size()
	}

	for i, txIn := range ws.tx.MsgTx().TxIn {
		parentHash := txIn.PreviousOutPoint.Hash
		if _, ok := conflictParents[parentHash]; ok {
			continue
		}
		if mp.graph.Has(&parentHash) {
			return insufficientFee("replacement-adds-unconfirmed",
				"replacement %v adds unconfirmed input, idx %d",
				txHash, i)
		}
	}

	if ws.modifiedFee < ws.conflictingFees {
		return insufficientFee("insufficient fee", "rejecting "+
			"replacement %v, less fees than conflicting txs; %d < %d",
			txHash, ws.modifiedFee, ws.conflictingFees)
	}

	deltaFees := ws.modifiedFee - ws.conflictingFees
	relayFee := mp.cfg.Policy.IncrementalRelayFee.GetFee(size)
	if deltaFees < relayFee {
		return insufficientFee("insufficient fee", "rejecting "+
			"replacement %v, not enough additional fees to relay; "+
			"%d < %d", txHash, deltaFees, relayFee)
	}

	return nil
}
