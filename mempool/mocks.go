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
	"github.com/stretchr/testify/mock"
)

// MockTxMempool is a mock implementation of the TxMempool interface.
type MockTxMempool struct {
	mock.Mock
}

// Ensure the MockTxMempool implements the TxMemPool interface.
var _ TxMempool = (*MockTxMempool)(nil)

// LastUpdated returns the last time a transaction was added to or removed from
// the pool.
func (m *MockTxMempool) LastUpdated() time.Time {
	args := m.Called()
	return args.Get(0).(time.Time)
}

// TxDescs returns a slice of descriptors for all the transactions in the pool.
func (m *MockTxMempool) TxDescs() []*TxDesc {
	args := m.Called()
	return args.Get(0).([]*TxDesc)
}

// RawMempoolVerbose returns all the entries in the mempool as a fully
// populated btcjson result.
func (m *MockTxMempool) RawMempoolVerbose() map[string]*btcjson.
	GetRawMempoolVerboseResult {

	args := m.Called()
	return args.Get(0).(map[string]*btcjson.GetRawMempoolVerboseResult)
}

// Count returns the number of transactions in the pool.
func (m *MockTxMempool) Count() int {
	args := m.Called()
	return args.Get(0).(int)
}

// FetchTransaction returns the requested transaction from the transaction
// pool.
func (m *MockTxMempool) FetchTransaction(
	txHash *chainhash.Hash) (*btcutil.Tx, error) {

	args := m.Called(txHash)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*btcutil.Tx), args.Error(1)
}

// HaveTransaction returns whether or not the passed transaction already exists
// in the pool.
func (m *MockTxMempool) HaveTransaction(hash *chainhash.Hash) bool {
	args := m.Called(hash)
	return args.Get(0).(bool)
}

// AcceptToMemoryPool validates the transaction and, unless testAccept is set,
// commits it to the pool.
func (m *MockTxMempool) AcceptToMemoryPool(tx *btcutil.Tx, bypassLimits bool,
	absurdFee int64, testAccept bool) (*TxDesc, error) {

	args := m.Called(tx, bypassLimits, absurdFee, testAccept)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*TxDesc), args.Error(1)
}

// CheckSpend checks whether the passed outpoint is already spent by a
// transaction in the mempool. If that's the case the spending transaction will
// be returned, if not nil will be returned.
func (m *MockTxMempool) CheckSpend(op wire.OutPoint) *btcutil.Tx {
	args := m.Called(op)

	if args.Get(0) == nil {
		return nil
	}

	return args.Get(0).(*btcutil.Tx)
}

// MiningDescs returns a slice of mining descriptors for all the transactions
// in the source pool.
func (m *MockTxMempool) MiningDescs() []*mining.TxDesc {
	args := m.Called()
	return args.Get(0).([]*mining.TxDesc)
}

// ProcessBlock updates the pool for a newly connected block.
func (m *MockTxMempool) ProcessBlock(block *btcutil.Block) {
	m.Called(block)
}

// MaybeAcceptDisconnected re-admits the transactions of disconnected blocks.
func (m *MockTxMempool) MaybeAcceptDisconnected(txs []*btcutil.Tx,
	addToPool bool) {

	m.Called(txs, addToPool)
}

// DrainDoubleSpends removes every queued double spend.
func (m *MockTxMempool) DrainDoubleSpends() int {
	args := m.Called()
	return args.Int(0)
}

// MempoolInfo returns a summary of the pool.
func (m *MockTxMempool) MempoolInfo() *MempoolInfo {
	args := m.Called()
	return args.Get(0).(*MempoolInfo)
}
