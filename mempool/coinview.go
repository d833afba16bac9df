// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/mining"
	"github.com/btcsuite/btcd/wire"
)

// CoinCache is the durable unspent output cache consulted when resolving
// the inputs of a candidate transaction.
type CoinCache interface {
	// FetchEntry returns the unspent output for op, pulling it into the
	// cache from the backing store when needed.  It returns nil when the
	// output does not exist or is spent.
	FetchEntry(op wire.OutPoint) (*blockchain.UtxoEntry, error)

	// HaveCoinInCache reports whether op is held in memory without
	// consulting the backing store.
	HaveCoinInCache(op wire.OutPoint) bool

	// Uncache drops an unmodified entry for op from memory.
	Uncache(op wire.OutPoint)

	// FlushIfNeeded writes the cache to the backing store when it exceeds
	// its configured size.
	FlushIfNeeded() error
}

// fetchInputUtxos builds the view of the outputs spent by tx.  Outputs of
// transactions in the pool are layered over the durable cache and carry
// mining.UnminedHeight.  Outpoints that were not cached before the fetch are
// appended to ws.coinsToUncache.  The returned outpoint is the first input
// that could not be resolved, if any.
//
// This function MUST be called with the mempool lock held (for reads).
func (mp *TxPool) fetchInputUtxos(tx *btcutil.Tx,
	ws *workspace) (*blockchain.UtxoViewpoint, *wire.OutPoint, error) {

	view := blockchain.NewUtxoViewpoint()
	for _, txIn := range tx.MsgTx().TxIn {
		prevOut := txIn.PreviousOutPoint

		if entry := mp.graph.Get(&prevOut.Hash); entry != nil {
			parent := entry.Tx()
			if prevOut.Index >= uint32(len(parent.MsgTx().TxOut)) {
				return view, &prevOut, nil
			}
			view.AddTxOut(parent, prevOut.Index, mining.UnminedHeight)
			continue
		}

		if !mp.cfg.CoinCache.HaveCoinInCache(prevOut) {
			ws.coinsToUncache = append(ws.coinsToUncache, prevOut)
		}
		entry, err := mp.cfg.CoinCache.FetchEntry(prevOut)
		if err != nil {
			return nil, nil, err
		}
		if entry == nil || entry.IsSpent() {
			return view, &prevOut, nil
		}
		view.Entries()[prevOut] = entry
	}

	return view, nil, nil
}

// haveOutputsCached reports whether any output of tx is in the durable
// cache, meaning the transaction is already known to the chain.
func (mp *TxPool) haveOutputsCached(tx *btcutil.Tx) bool {
	prevOut := wire.OutPoint{Hash: *tx.Hash()}
	for i := range tx.MsgTx().TxOut {
		prevOut.Index = uint32(i)
		if mp.cfg.CoinCache.HaveCoinInCache(prevOut) {
			return true
		}
	}
	return false
}
