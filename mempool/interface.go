// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/mining"
	"github.com/btcsuite/btcd/wire"
)

// TxMempool defines an interface that's used by other subsystems to interact
// with the mempool.
type TxMempool interface {
	// LastUpdated returns the last time a transaction was added to or
	// removed from the pool.
	LastUpdated() time.Time

	// TxDescs returns a slice of descriptors for all the transactions in
	// the pool.
	TxDescs() []*TxDesc

	// RawMempoolVerbose returns all the entries in the mempool as a fully
	// populated btcjson result.
	RawMempoolVerbose() map[string]*btcjson.GetRawMempoolVerboseResult

	// Count returns the number of transactions in the pool.
	Count() int

	// FetchTransaction returns the requested transaction from the
	// transaction pool.
	FetchTransaction(txHash *chainhash.Hash) (*btcutil.Tx, error)

	// HaveTransaction returns whether or not the passed transaction
	// already exists in the pool.
	HaveTransaction(hash *chainhash.Hash) bool

	// AcceptToMemoryPool validates the transaction and, unless
	// testAccept is set, commits it to the pool.
	AcceptToMemoryPool(tx *btcutil.Tx, bypassLimits bool, absurdFee int64,
		testAccept bool) (*TxDesc, error)

	// CheckSpend checks whether the passed outpoint is already spent by
	// a transaction in the mempool. If that's the case the spending
	// transaction will be returned, if not nil will be returned.
	CheckSpend(op wire.OutPoint) *btcutil.Tx

	// MiningDescs returns a slice of mining descriptors for all the
	// transactions in the source pool.
	MiningDescs() []*mining.TxDesc

	// ProcessBlock updates the pool for a newly connected block.
	ProcessBlock(block *btcutil.Block)

	// MaybeAcceptDisconnected re-admits the transactions of disconnected
	// blocks.
	MaybeAcceptDisconnected(txs []*btcutil.Tx, addToPool bool)

	// DrainDoubleSpends removes every queued double spend and returns
	// the number of transactions removed.
	DrainDoubleSpends() int

	// MempoolInfo returns a summary of the pool.
	MempoolInfo() *MempoolInfo
}

// Ensure the TxPool implements the TxMempool interface.
var _ TxMempool = (*TxPool)(nil)
