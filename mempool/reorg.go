// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/syscoin/sysd/mempool/txgraph"
)

// ProcessBlock updates the pool for a block connected to the main chain.
// Confirmed transactions leave the pool while their descendants stay, and
// pool transactions double spending the block are removed with their
// descendants.  The block is registered with the fee estimator, the
// tolerated double spends are drained and the tolerance window restarts.
//
// This function is safe for concurrent access.
func (mp *TxPool) ProcessBlock(block *btcutil.Block) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	for _, tx := range block.Transactions() {
		if e := mp.graph.RemoveConfirmed(*tx.Hash()); e != nil {
			mp.onRemoved([]*txgraph.Entry{e}, RemovalBlock)
		}
		mp.onRemoved(mp.graph.RemoveConflicts(tx), RemovalConflict)
		delete(mp.deltas, *tx.Hash())
	}

	if mp.cfg.FeeEstimator != nil {
		if err := mp.cfg.FeeEstimator.RegisterBlock(block); err != nil {
			log.Warnf("Unable to register block %v with the fee "+
				"estimator: %v", block.Hash(), err)
		}
	}

	mp.drainOutbox(mp.cfg.MedianTimePast(), true)
	mp.cfg.Tolerance.Reset()

	mp.lastRollingFeeUpdate = mp.cfg.Now().Unix()
	mp.blockSinceLastRollingFeeBump = true

	mp.updateMetrics()
}

// MaybeAcceptDisconnected re-admits the transactions of blocks disconnected
// by a reorg.  txs must be in block order, earliest block first.  Each
// non-coinbase transaction is admitted with the pool limits bypassed; those
// that fail are removed together with any pool transactions depending on
// them.  When addToPool is false every transaction is treated as failed.
//
// Afterwards the re-added transactions are linked to the pool children that
// already spent them, entries made immature or non-final by the new tip are
// removed and the pool is trimmed back to its limits.
//
// This function is safe for concurrent access.
func (mp *TxPool) MaybeAcceptDisconnected(txs []*btcutil.Tx, addToPool bool) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	var readded []chainhash.Hash
	now := mp.cfg.Now()
	for _, tx := range txs {
		if !addToPool || blockchain.IsCoinBase(tx) {
			mp.onRemoved(mp.graph.RemoveRecursive(tx), RemovalReorg)
			continue
		}

		_, err := mp.tryAdmit(tx, &admitArgs{
			acceptTime:   now,
			bypassLimits: true,
		})
		if err != nil {
			log.Debugf("Dropping disconnected transaction %v: %v",
				tx.Hash(), err)
			mp.onRemoved(mp.graph.RemoveRecursive(tx), RemovalReorg)
			continue
		}
		if mp.graph.Has(tx.Hash()) {
			readded = append(readded, *tx.Hash())
		}
	}

	mp.graph.UpdateTransactionsFromBlock(readded)
	mp.removeForReorg()
	mp.limitPoolSize(mp.cfg.Policy.MaxMempoolSize,
		mp.cfg.Policy.MempoolExpiry)
	mp.updateMetrics()
}

// removeForReorg removes, with their descendants, the entries that cannot
// be mined on top of the current tip: non-final transactions, transactions
// whose sequence locks are not met and transactions spending a coinbase
// that is missing, spent or immature.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) removeForReorg() {
	nextHeight := mp.cfg.BestHeight() + 1
	medianTimePast := mp.cfg.MedianTimePast()

	stage := make(map[chainhash.Hash]*txgraph.Entry)
	for _, e := range mp.graph.Entries() {
		if _, ok := stage[*e.Hash()]; ok {
			continue
		}
		if mp.validForTip(e, nextHeight, medianTimePast) {
			continue
		}
		mp.graph.CalculateDescendants(*e.Hash(), stage)
	}
	mp.removeStaged(stage, false, RemovalReorg)
}

// validForTip reports whether the entry can still be mined in the block at
// nextHeight.
func (mp *TxPool) validForTip(e *txgraph.Entry, nextHeight int32,
	medianTimePast time.Time) bool {

	tx := e.Tx()
	if !blockchain.IsFinalizedTransaction(tx, nextHeight, medianTimePast) {
		return false
	}

	view, missing, err := mp.fetchInputUtxos(tx, newWorkspace(tx,
		txgraph.NoLimits()))
	if err != nil || missing != nil {
		return false
	}

	sequenceLock, err := mp.cfg.CalcSequenceLock(tx, view)
	if err != nil || !blockchain.SequenceLockActive(sequenceLock,
		nextHeight, medianTimePast) {

		return false
	}

	if !e.SpendsCoinbase() {
		return true
	}
	maturity := int32(mp.cfg.ChainParams.CoinbaseMaturity)
	for _, txIn := range tx.MsgTx().TxIn {
		prevOut := txIn.PreviousOutPoint
		if mp.graph.Has(&prevOut.Hash) {
			continue
		}
		coin := view.LookupEntry(prevOut)
		if coin == nil || coin.IsSpent() {
			return false
		}
		if coin.IsCoinBase() && nextHeight-coin.BlockHeight() < maturity {
			return false
		}
	}
	return true
}
