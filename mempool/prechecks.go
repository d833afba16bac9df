// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/syscoin/sysd/assetalloc"
	"github.com/syscoin/sysd/mempool/txgraph"
)

// admitArgs are the caller supplied parameters of one admission attempt.
type admitArgs struct {
	acceptTime   time.Time
	bypassLimits bool
	absurdFee    int64
	testAccept   bool
}

// workspace is the scratch state of a single admission attempt.  It is owned
// by the attempt and discarded when the attempt fails.
type workspace struct {
	tx   *btcutil.Tx
	hash *chainhash.Hash
	view *blockchain.UtxoViewpoint

	conflicts      map[chainhash.Hash]*txgraph.Entry
	allConflicting map[chainhash.Hash]*txgraph.Entry
	ancestors      map[chainhash.Hash]*txgraph.Entry
	entry          *txgraph.Entry

	fee             int64
	modifiedFee     int64
	conflictingFees int64
	conflictingSize int64
	replacement     bool

	// duplicate is set when the transaction is a tolerated asset
	// allocation double spend of actor.
	duplicate bool
	actor     assetalloc.Actor

	// limits start out as the policy limits and may be widened for a
	// single conflict replacement.
	limits txgraph.Limits

	coinsToUncache []wire.OutPoint
}

func newWorkspace(tx *btcutil.Tx, limits txgraph.Limits) *workspace {
	return &workspace{
		tx:             tx,
		hash:           tx.Hash(),
		conflicts:      make(map[chainhash.Hash]*txgraph.Entry),
		allConflicting: make(map[chainhash.Hash]*txgraph.Entry),
		limits:         limits,
	}
}

// preChecks runs every check of an admission attempt that does not verify
// scripts.  On success ws holds the entry to commit together with its
// ancestors and the entries it replaces.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) preChecks(args *admitArgs, ws *workspace) error {
	tx := ws.tx
	txHash := ws.hash
	msgTx := tx.MsgTx()

	// Perform preliminary sanity checks on the transaction.  This makes
	// use of blockchain which contains the invariant rules for what
	// transactions are allowed into blocks.
	if err := blockchain.CheckTransactionSanity(tx); err != nil {
		return consensusError(err)
	}

	// A standalone transaction must not be a coinbase transaction.
	if blockchain.IsCoinBase(tx) {
		return txRuleError(RejectConsensus, wire.RejectInvalid,
			"coinbase", fmt.Sprintf("transaction %v is an individual "+
				"coinbase", txHash))
	}

	// Don't allow non-standard transactions unless the policy allows
	// them.
	policy := &mp.cfg.Policy
	if !policy.AcceptNonStd {
		err := CheckTransactionStandard(tx, policy.MinRelayTxFee)
		if err != nil {
			return err
		}
	}

	// Transactions smaller than the minimum non-witness size are refused
	// so that 64 byte transactions, which can be confused with inner
	// merkle nodes, are never relayed.
	if size := msgTx.SerializeSizeStripped(); size < minStandardTxNonWitnessSize {
		return notStandard(wire.RejectNonstandard, "tx-size-small",
			fmt.Sprintf("%d < %d", size, minStandardTxNonWitnessSize))
	}

	// A standalone transaction will be mined into the next block at best,
	// so only accept transactions that are final at that height.
	bestHeight := mp.cfg.BestHeight()
	nextBlockHeight := bestHeight + 1
	medianTimePast := mp.cfg.MedianTimePast()
	if !blockchain.IsFinalizedTransaction(tx, nextBlockHeight, medianTimePast) {
		return txRuleError(RejectPrematureSpend, wire.RejectNonstandard,
			"non-final", fmt.Sprintf("transaction %v is not "+
				"finalized", txHash))
	}

	if mp.graph.Has(txHash) {
		return txRuleError(RejectConflict, wire.RejectDuplicate,
			"txn-already-in-mempool", fmt.Sprintf("already have "+
				"transaction %v", txHash))
	}

	if err := mp.resolveConflicts(args, ws); err != nil {
		return err
	}

	view, missing, err := mp.fetchInputUtxos(tx, ws)
	if err != nil {
		return err
	}
	if missing != nil {
		if mp.haveOutputsCached(tx) {
			return txRuleError(RejectConflict, wire.RejectDuplicate,
				"txn-already-known", fmt.Sprintf("transaction %v "+
					"already exists", txHash))
		}
		return txRuleError(RejectMissingInputs, wire.RejectInvalid,
			"bad-txns-inputs-missingorspent", fmt.Sprintf("input "+
				"%v of transaction %v is unknown", missing, txHash))
	}
	ws.view = view

	// Only accept sequence locked transactions that can be mined in the
	// next block.
	sequenceLock, err := mp.cfg.CalcSequenceLock(tx, view)
	if err != nil {
		return consensusError(err)
	}
	if !blockchain.SequenceLockActive(sequenceLock, nextBlockHeight,
		medianTimePast) {

		return txRuleError(RejectPrematureSpend, wire.RejectNonstandard,
			"non-BIP68-final", fmt.Sprintf("transaction %v's sequence "+
				"locks are not met", txHash))
	}
	lockPoints := txgraph.LockPoints{
		Height: sequenceLock.BlockHeight,
		Time:   sequenceLock.Seconds,
	}

	// Perform several checks on the transaction inputs using the invariant
	// rules in blockchain for what transactions are allowed into blocks.
	// Also returns the fees associated with the transaction which will be
	// used later.
	txFee, err := blockchain.CheckTransactionInputs(tx, nextBlockHeight,
		view, mp.cfg.ChainParams)
	if err != nil {
		return consensusError(err)
	}
	ws.fee = txFee

	if !policy.AcceptNonStd {
		if err := checkInputsStandard(tx, view); err != nil {
			return notStandard(wire.RejectNonstandard,
				"bad-txns-nonstandard-inputs", err.Error())
		}
		if msgTx.HasWitness() {
			if err := checkWitnessStandard(tx, view); err != nil {
				return txRuleError(RejectWitnessMutated,
					wire.RejectNonstandard,
					"bad-witness-nonstandard", err.Error())
			}
		}
	}

	sigOpCost, err := blockchain.GetSigOpCost(tx, false, view, true, true)
	if err != nil {
		return consensusError(err)
	}

	// The modified fee includes any delta set by PrioritiseTransaction.
	ws.modifiedFee = txFee + mp.deltas[*txHash]

	// Keep track of transactions that spend a coinbase, which are
	// re-scanned during reorgs to ensure coinbase maturity is still met.
	spendsCoinbase := false
	for _, txIn := range msgTx.TxIn {
		entry := view.LookupEntry(txIn.PreviousOutPoint)
		if entry != nil && entry.IsCoinBase() {
			spendsCoinbase = true
			break
		}
	}

	size := GetTxVirtualSize(tx)
	ws.entry = txgraph.NewEntry(tx, txFee, size, int64(sigOpCost),
		args.acceptTime, bestHeight, spendsCoinbase, lockPoints)
	if ws.modifiedFee != txFee {
		ws.entry.SetFeeDelta(ws.modifiedFee - txFee)
	}

	if int64(sigOpCost) > policy.MaxSigOpCostPerTx {
		return notStandard(wire.RejectNonstandard,
			"bad-txns-too-many-sigops", fmt.Sprintf("%d", sigOpCost))
	}

	// No transactions are allowed below the relay floor except from
	// disconnected blocks.
	isAllocation := assetalloc.IsAssetAllocationTx(msgTx.Version)
	if !args.bypassLimits {
		err := mp.checkFeeRate(size, ws.modifiedFee, isAllocation)
		if err != nil {
			return err
		}
	}

	if args.absurdFee > 0 && txFee > args.absurdFee {
		return notStandard(wire.RejectNonstandard, "absurdly-high-fee",
			fmt.Sprintf("%d > %d", txFee, args.absurdFee))
	}

	if err := mp.calculateAncestors(ws); err != nil {
		return err
	}

	// A transaction that spends outputs that would be replaced by it is
	// invalid.
	for ancestorHash := range ws.ancestors {
		if _, ok := ws.conflicts[ancestorHash]; ok {
			return txRuleError(RejectConsensus, wire.RejectInvalid,
				"bad-txns-spends-conflicting-tx",
				fmt.Sprintf("%v spends conflicting transaction %v",
					txHash, ancestorHash))
		}
	}

	ws.replacement = len(ws.conflicts) > 0
	if ws.replacement {
		return mp.checkReplacement(ws)
	}
	return nil
}

// checkFeeRate ensures a transaction of size virtual bytes paying fee meets
// both the rolling pool floor and the static relay floor.  The relay floor
// is doubled for asset allocation transactions.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) checkFeeRate(size, fee int64, isAllocation bool) error {
	poolRejectFee := mp.getMinFee(mp.cfg.Policy.MaxMempoolSize).GetFee(size)
	if poolRejectFee > 0 && fee < poolRejectFee {
		return txRuleError(RejectMempoolPolicy, wire.RejectInsufficientFee,
			"mempool min fee not met", fmt.Sprintf("%d < %d", fee,
				poolRejectFee))
	}

	relaySize := size
	if isAllocation {
		relaySize *= 2
	}
	minFee := mp.cfg.Policy.MinRelayTxFee.GetFee(relaySize)
	if fee < minFee {
		return txRuleError(RejectMempoolPolicy, wire.RejectInsufficientFee,
			"min relay fee not met", fmt.Sprintf("%d < %d", fee, minFee))
	}
	return nil
}
