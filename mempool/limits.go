// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"github.com/btcsuite/btcd/wire"
)

// calculateAncestors computes the in-pool ancestors of the candidate under
// the package limits.
//
// A replacement with exactly one direct conflict is credited with the
// footprint of that conflict and its descendants, which are about to be
// evicted.  When the limits are exceeded, a small transaction with at most
// one ancestor is still accepted through the carve-out so that either party
// of a two party contract can always attach one child.
//
// This function MUST be called with the mempool lock held (for reads).
func (mp *TxPool) calculateAncestors(ws *workspace) error {
	if len(ws.conflicts) == 1 {
		for _, conflict := range ws.conflicts {
			ws.limits.DescendantCount++
			ws.limits.DescendantSize += conflict.SizeWithDescendants()
		}
	}

	ancestors, err := mp.graph.CalculateAncestors(ws.entry, ws.limits, true)
	if err == nil {
		ws.ancestors = ancestors
		return nil
	}

	if ws.entry.Size() <= carveOutSizeLimit {
		carveOut := ws.limits
		carveOut.AncestorCount = 2
		carveOut.DescendantCount++
		carveOut.DescendantSize += carveOutSizeLimit

		ancestors, cerr := mp.graph.CalculateAncestors(ws.entry, carveOut,
			true)
		if cerr == nil {
			log.Debugf("Admitting %v through the carve-out: %v",
				ws.hash, err)
			ws.ancestors = ancestors
			return nil
		}
	}

	// Report the error of the first attempt.
	return txRuleError(RejectMempoolPolicy, wire.RejectNonstandard,
		"too-long-mempool-chain", err.Error())
}
