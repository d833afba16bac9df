// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/syscoin/sysd/assetalloc"
)

// mandatoryScriptFlags are the script flags every block enforces.  A
// failure that passes under these flags only violates relay policy.
const mandatoryScriptFlags = txscript.ScriptBip16

// ScriptVerifier verifies the input scripts of a transaction.
type ScriptVerifier interface {
	// Verify checks every input of tx against the outputs it spends in
	// view under flags.  When cacheResult is set a success is remembered
	// so that the same transaction is not verified again under the same
	// flags.
	Verify(tx *btcutil.Tx, view *blockchain.UtxoViewpoint,
		flags txscript.ScriptFlags, cacheResult bool) error
}

// AssetChecker validates asset transactions against the allocations pending
// in the pool.
type AssetChecker interface {
	// CheckInputs validates tx at the given tip height.  It returns an
	// error wrapping assetalloc.ErrDoubleSpend when tx spends an input
	// already claimed by the same actor, unless justCheck is set.
	CheckInputs(tx *btcutil.Tx, height int32, justCheck bool) error

	// Connect records the claims of a committed transaction.
	Connect(tx *btcutil.Tx) error

	// Disconnect releases the claims of a removed transaction.
	Disconnect(hash *chainhash.Hash)
}

// Ensure the asset allocation checker satisfies AssetChecker.
var _ AssetChecker = (*assetalloc.Checker)(nil)

// policyScriptChecks verifies the scripts of the candidate under the
// standard relay flags without caching the result.
//
// A failure is classified by re-verifying under reduced flag sets.  When
// the transaction carries no witness but passes once the witness flags are
// removed, while still failing with only clean stack removed, the witness
// was likely stripped and the failure is reported as WitnessMutated.
// Otherwise a transaction that passes under the mandatory flags is
// NotStandard and one that does not is invalid.
func (mp *TxPool) policyScriptChecks(ws *workspace) error {
	flags := txscript.StandardVerifyFlags
	err := mp.cfg.Verifier.Verify(ws.tx, ws.view, flags, false)
	if err == nil {
		return nil
	}

	kind := RejectConsensus
	code := wire.RejectInvalid
	reason := "mandatory-script-verify-flag-failed"
	if mp.cfg.Verifier.Verify(ws.tx, ws.view, mandatoryScriptFlags,
		false) == nil {

		kind = RejectNotStandard
		code = wire.RejectNonstandard
		reason = "non-mandatory-script-verify-flag"
	}

	if !ws.tx.MsgTx().HasWitness() &&
		mp.cfg.Verifier.Verify(ws.tx, ws.view,
			flags&^(txscript.ScriptVerifyWitness|
				txscript.ScriptVerifyCleanStack), false) == nil &&
		mp.cfg.Verifier.Verify(ws.tx, ws.view,
			flags&^txscript.ScriptVerifyCleanStack, false) != nil {

		kind = RejectWitnessMutated
	}

	return txRuleError(kind, code, reason, err.Error())
}

// consensusScriptChecks re-verifies the scripts of the candidate under the
// flags of the current tip and caches a success.  A failure here after the
// policy pass succeeded means the two flag sets disagree, which is a bug.
//
// The asset checker is then run against the current tip.  A double spend by
// a single actor does not fail the attempt.  It is queued to the outbox and
// removed from the pool once the tip moves on.  Under test accept or
// bypassed limits the checker only validates, so a tolerated conflict is
// rejected there.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) consensusScriptChecks(args *admitArgs, ws *workspace) error {
	flags := mp.cfg.ScriptFlags()
	if err := mp.cfg.Verifier.Verify(ws.tx, ws.view, flags, true); err != nil {
		log.Errorf("BUG! PLEASE REPORT THIS! ConsensusScriptChecks "+
			"failed against latest-block but not STANDARD flags "+
			"%v: %v", ws.hash, err)
		return txRuleError(RejectInternalInvariant, wire.RejectInvalid,
			"consensus-script-verify-flag-failed", err.Error())
	}

	// A conflict tolerated by the resolver is only admitted when the asset
	// checker confirms the candidate double spends a claim of its own
	// sender.  Anything else is an ordinary conflict.
	msgTx := ws.tx.MsgTx()
	justCheck := args.testAccept || args.bypassLimits
	var err error
	if assetalloc.IsSyscoinTx(msgTx.Version) {
		err = mp.cfg.Checker.CheckInputs(ws.tx, mp.cfg.BestHeight(),
			justCheck)
	}
	switch {
	case err == nil && !ws.duplicate:
		return nil

	case err == nil, errors.Is(err, assetalloc.ErrDoubleSpend) && justCheck:
		return txRuleError(RejectMempoolPolicy, wire.RejectDuplicate,
			"txn-mempool-conflict", fmt.Sprintf("transaction %v "+
				"conflicts with a pool entry without double spending "+
				"a claim of its sender", ws.hash))

	case errors.Is(err, assetalloc.ErrDoubleSpend):
		log.Infof("Double spend detected for %v: %v", ws.hash, err)
		mp.outbox = append(mp.outbox, outboxItem{
			hash:       *ws.hash,
			medianTime: mp.cfg.MedianTimePast(),
		})
		return nil
	}

	return txRuleError(RejectConsensus, wire.RejectInvalid,
		assetReason(msgTx.Version), err.Error())
}

// assetReason returns the reject tag for an invalid asset transaction of
// the given version.
func assetReason(version int32) string {
	if assetalloc.IsAssetAllocationTx(version) {
		return "assetallocation-invalid"
	}
	return "asset-invalid"
}
