// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/syscoin/sysd/assetalloc"
	"github.com/syscoin/sysd/mempool/txgraph"
)

// optsOutOfReplacement reports whether every input of tx disables
// replacement.  All inputs rather than one must opt out so that a single
// party of a multi-party transaction can not disable replacement for the
// others.
func optsOutOfReplacement(tx *btcutil.Tx) bool {
	return !signalsReplacement(tx)
}

// poolConflict returns the rule error for a candidate that conflicts with a
// transaction that may not be replaced.
func poolConflict(kind RejectKind, op wire.OutPoint,
	other fmt.Stringer) RuleError {

	return txRuleError(kind, wire.RejectDuplicate, "txn-mempool-conflict",
		fmt.Sprintf("output %v already spent by transaction %v in the "+
			"memory pool", op, other))
}

// resolveConflicts finds every pool entry spending the same outputs as the
// candidate.  Entries that signal replacement join the conflict set.  An
// entry that opted out of replacement rejects the candidate, unless the
// candidate is an asset allocation double spend by a single actor that may
// still be tolerated.  A tolerated double spend marks the workspace as a
// duplicate and does not join the conflict set.
//
// This function MUST be called with the mempool lock held (for reads).
func (mp *TxPool) resolveConflicts(args *admitArgs, ws *workspace) error {
	msgTx := ws.tx.MsgTx()
	isAllocation := assetalloc.IsAssetAllocationTx(msgTx.Version)

	for _, txIn := range msgTx.TxIn {
		for _, conflict := range mp.graph.SpendersOf(txIn.PreviousOutPoint) {
			err := mp.resolveConflict(args, ws, isAllocation,
				txIn.PreviousOutPoint, conflict)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// resolveConflict classifies a single pool entry spending op.
//
// This function MUST be called with the mempool lock held (for reads).
func (mp *TxPool) resolveConflict(args *admitArgs, ws *workspace,
	isAllocation bool, op wire.OutPoint, conflict *txgraph.Entry) error {

	conflictHash := *conflict.Hash()
	if _, ok := ws.conflicts[conflictHash]; ok {
		return nil
	}

	if !optsOutOfReplacement(conflict.Tx()) {
		ws.conflicts[conflictHash] = conflict
		return nil
	}

	if !isAllocation {
		return poolConflict(RejectConflict, op, conflict.Hash())
	}
	if args.testAccept {
		return poolConflict(RejectMempoolPolicy, op, conflict.Hash())
	}

	actor, err := mp.soleSender(ws)
	if err != nil {
		return poolConflict(RejectMempoolPolicy, op, conflict.Hash())
	}
	if mp.cfg.Tolerance.Contains(actor) || !mp.cfg.Tolerance.HasHeadroom() {
		log.Debugf("Refusing double spend of %v by actor %v in %v",
			op, actor, ws.hash)
		return poolConflict(RejectMempoolPolicy, op, conflict.Hash())
	}

	ws.duplicate = true
	ws.actor = actor
	return nil
}

// soleSender returns the only sender actor of the candidate's allocation
// payload.  It fails when the payload is missing or null, or when it names
// more than one sender.
func (mp *TxPool) soleSender(ws *workspace) (assetalloc.Actor, error) {
	if ws.actor != "" {
		return ws.actor, nil
	}

	alloc, err := assetalloc.Decode(ws.tx.MsgTx())
	if err != nil {
		return "", err
	}
	if alloc.IsNull() {
		return "", fmt.Errorf("%w: no allocation tuples",
			assetalloc.ErrMalformedPayload)
	}
	actors := assetalloc.Actors(alloc, true)
	if len(actors) != 1 {
		return "", fmt.Errorf("allocation has %d senders", len(actors))
	}
	return actors[0], nil
}
