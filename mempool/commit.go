// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"math"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/syscoin/sysd/mempool/txgraph"
)

// rollingFeeUpdateInterval is the minimum number of seconds between two
// decays of the rolling fee floor.
const rollingFeeUpdateInterval = 10

// finalize commits a validated transaction.  The entries it replaces are
// removed first, then the entry is linked into the graph and the checker,
// and finally the pool is trimmed to its limits.  When trimming evicts the
// transaction itself the attempt fails with "mempool full".
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) finalize(args *admitArgs, ws *workspace, desc *TxDesc) error {
	for _, conflict := range ws.allConflicting {
		log.Debugf("Replacing tx %v with %v for %v additional fees, %d "+
			"delta vbytes", conflict.Hash(), ws.hash,
			btcutil.Amount(ws.modifiedFee-ws.conflictingFees),
			ws.entry.Size()-ws.conflictingSize)
		desc.Replaced = append(desc.Replaced, conflict.Tx())
	}
	mp.removeStaged(ws.allConflicting, false, RemovalReplaced)

	// Transactions that depend on other pool transactions, replacements
	// and tolerated duplicates do not tell how long a fee takes to
	// confirm, so they are not sampled.
	validForFeeEstimation := !ws.duplicate && !ws.replacement &&
		!args.bypassLimits && mp.cfg.IsCurrent() &&
		mp.graph.HasNoInputsOf(ws.tx)

	if err := mp.graph.Add(ws.entry, ws.ancestors); err != nil {
		return txRuleError(RejectInternalInvariant, wire.RejectInvalid,
			"txn-already-in-mempool", err.Error())
	}
	desc.AncestorCount = ws.entry.CountWithAncestors()
	desc.AncestorSize = ws.entry.SizeWithAncestors()
	desc.DescendantCount = ws.entry.CountWithDescendants()
	desc.DescendantSize = ws.entry.SizeWithDescendants()

	if err := mp.cfg.Checker.Connect(ws.tx); err != nil {
		log.Warnf("Unable to connect asset claims of %v: %v", ws.hash,
			err)
	}
	if ws.duplicate && !mp.cfg.Tolerance.Tolerate(ws.actor, *ws.hash) {
		log.Warnf("Tolerance set refused duplicate %v", ws.hash)
	}
	if validForFeeEstimation && mp.cfg.FeeEstimator != nil {
		mp.cfg.FeeEstimator.ObserveTransaction(desc)
	}
	mp.touch()

	log.Debugf("Accepted transaction %v (pool size: %v)", ws.hash,
		mp.graph.Len())

	if !args.bypassLimits {
		mp.limitPoolSize(mp.cfg.Policy.MaxMempoolSize,
			mp.cfg.Policy.MempoolExpiry)
		if !mp.graph.Has(ws.hash) {
			mp.updateMetrics()
			return txRuleError(RejectMempoolPolicy,
				wire.RejectInsufficientFee, "mempool full",
				"")
		}
	}

	mp.drainOutbox(mp.cfg.MedianTimePast(), false)
	mp.updateMetrics()
	return nil
}

// removeStaged removes every entry in stage from the graph and releases the
// state held for them elsewhere.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) removeStaged(stage map[chainhash.Hash]*txgraph.Entry,
	updateDescendants bool, reason RemovalReason) {

	if len(stage) == 0 {
		return
	}
	mp.onRemoved(mp.graph.RemoveStaged(stage, updateDescendants), reason)
}

// onRemoved releases the checker claims and tolerance slots of entries that
// left the graph and notifies subscribers.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) onRemoved(removed []*txgraph.Entry, reason RemovalReason) {
	for _, e := range removed {
		mp.cfg.Checker.Disconnect(e.Hash())
		mp.cfg.Tolerance.Release(*e.Hash())
		if reason != RemovalBlock && mp.cfg.FeeEstimator != nil {
			mp.cfg.FeeEstimator.RemoveTransaction(e.Hash())
		}
		log.Tracef("Removed transaction %v (%v)", e.Hash(), reason)
		mp.sendNotification(NTTxRemoved, &NTTxRemovedData{
			Tx:     e.Tx(),
			Reason: reason,
		})
	}
	if len(removed) > 0 {
		mp.touch()
	}
	mp.cfg.Metrics.recordRemovals(reason, len(removed))
}

// limitPoolSize expires old entries, trims the pool to sizeLimit and
// uncaches the coins no pool transaction spends anymore.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) limitPoolSize(sizeLimit int64, age time.Duration) {
	if expired := mp.expire(mp.cfg.Now().Add(-age)); expired != 0 {
		log.Debugf("Expired %d %s from the memory pool", expired,
			pickNoun(expired, "transaction", "transactions"))
	}

	for _, op := range mp.trimToSize(sizeLimit) {
		mp.cfg.CoinCache.Uncache(op)
	}
}

// expire removes the entries accepted before cutoff together with their
// descendants and returns the number removed.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) expire(cutoff time.Time) int {
	stage := make(map[chainhash.Hash]*txgraph.Entry)
	for _, e := range mp.graph.OlderThan(cutoff.UnixNano()) {
		mp.graph.CalculateDescendants(*e.Hash(), stage)
	}
	mp.removeStaged(stage, false, RemovalExpiry)
	return len(stage)
}

// trimToSize evicts the packages with the lowest descendant score until the
// pool is no larger than sizeLimit.  Each eviction raises the rolling fee
// floor to the package rate plus the incremental relay fee.  It returns the
// outpoints spent by evicted entries that are no longer spent by the pool.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) trimToSize(sizeLimit int64) []wire.OutPoint {
	var noSpendsRemaining []wire.OutPoint
	var maxFeeRateRemoved FeeRate
	var removedCount int
	for mp.graph.Len() > 0 && mp.graph.TotalSize() > sizeLimit {
		lowest := mp.graph.LowestScore()

		removedRate := NewFeeRate(lowest.ModFeesWithDescendants(),
			lowest.SizeWithDescendants())
		removedRate += mp.cfg.Policy.IncrementalRelayFee
		mp.trackPackageRemoved(removedRate)
		if removedRate > maxFeeRateRemoved {
			maxFeeRateRemoved = removedRate
		}

		stage := make(map[chainhash.Hash]*txgraph.Entry)
		mp.graph.CalculateDescendants(*lowest.Hash(), stage)
		removedCount += len(stage)
		mp.removeStaged(stage, false, RemovalSizeLimit)

		for _, e := range stage {
			for _, txIn := range e.Tx().MsgTx().TxIn {
				prevOut := txIn.PreviousOutPoint
				if mp.graph.Has(&prevOut.Hash) {
					continue
				}
				if _, ok := mp.graph.SpenderOf(prevOut); ok {
					continue
				}
				noSpendsRemaining = append(noSpendsRemaining, prevOut)
			}
		}
	}

	if maxFeeRateRemoved > 0 {
		log.Debugf("Removed %d %s, rolling minimum fee bumped to %v",
			removedCount, pickNoun(removedCount, "transaction",
				"transactions"), maxFeeRateRemoved)
	}
	return noSpendsRemaining
}

// trackPackageRemoved raises the rolling fee floor to rate.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) trackPackageRemoved(rate FeeRate) {
	if float64(rate) > mp.rollingMinimumFeeRate {
		mp.rollingMinimumFeeRate = float64(rate)
		mp.blockSinceLastRollingFeeBump = false
	}
}

// getMinFee returns the rolling fee floor for a pool limited to sizeLimit.
// The floor only decays once a block has been connected since it was last
// raised, and it decays faster while the pool is far below its limit.  A
// floor below half the incremental relay fee drops to zero; a non-zero floor
// is never below the incremental relay fee.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) getMinFee(sizeLimit int64) FeeRate {
	if !mp.blockSinceLastRollingFeeBump || mp.rollingMinimumFeeRate == 0 {
		return FeeRate(math.Round(mp.rollingMinimumFeeRate))
	}

	incremental := mp.cfg.Policy.IncrementalRelayFee
	now := mp.cfg.Now().Unix()
	if now > mp.lastRollingFeeUpdate+rollingFeeUpdateInterval {
		halfLife := rollingFeeHalfLife.Seconds()
		switch usage := mp.graph.TotalSize(); {
		case usage < sizeLimit/4:
			halfLife /= 4
		case usage < sizeLimit/2:
			halfLife /= 2
		}

		elapsed := float64(now - mp.lastRollingFeeUpdate)
		mp.rollingMinimumFeeRate /= math.Pow(2, elapsed/halfLife)
		mp.lastRollingFeeUpdate = now

		if mp.rollingMinimumFeeRate < float64(incremental)/2 {
			mp.rollingMinimumFeeRate = 0
			return 0
		}
	}

	rate := FeeRate(math.Round(mp.rollingMinimumFeeRate))
	if rate < incremental {
		return incremental
	}
	return rate
}

// drainOutbox removes the queued tolerated double spends, with their
// descendants, whose queue time the tip median time has passed.  With all
// set every queued item is removed.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) drainOutbox(tipMedianTime time.Time, all bool) {
	if len(mp.outbox) == 0 {
		return
	}

	stage := make(map[chainhash.Hash]*txgraph.Entry)
	kept := mp.outbox[:0]
	for _, item := range mp.outbox {
		if !all && !item.medianTime.Before(tipMedianTime) {
			kept = append(kept, item)
			continue
		}
		mp.graph.CalculateDescendants(item.hash, stage)
	}
	mp.outbox = kept

	if len(stage) > 0 {
		log.Debugf("Removing %d tolerated double %s", len(stage),
			pickNoun(len(stage), "spend", "spends"))
	}
	mp.removeStaged(stage, false, RemovalDoubleSpend)
}

// updateMetrics refreshes the pool gauges.
//
// This function MUST be called with the mempool lock held.
func (mp *TxPool) updateMetrics() {
	mp.cfg.Metrics.updatePool(mp.graph.Len(), mp.graph.TotalSize(),
		mp.cfg.Tolerance.Len())
}
