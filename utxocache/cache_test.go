// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package utxocache

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/require"
	"github.com/syscoin/sysd/database/engine"
	"github.com/syscoin/sysd/database/engine/pebbledb"
	"github.com/syscoin/sysd/mempool"
)

// Ensure the cache can back the memory pool.
var _ mempool.CoinCache = (*Cache)(nil)

func newTestEngine(t *testing.T) engine.Engine {
	t.Helper()

	db, err := pebbledb.NewDB("utxocache", pebbledb.Options{
		Create: true,
		FS:     vfs.NewMem(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testTx(numOutputs int) *btcutil.Tx {
	msgTx := wire.NewMsgTx(wire.TxVersion)
	msgTx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Hash: chainhash.Hash{7}},
		Sequence:         wire.MaxTxInSequenceNum,
	})
	for i := 0; i < numOutputs; i++ {
		msgTx.AddTxOut(wire.NewTxOut(int64(1000*(i+1)), []byte{0x51}))
	}
	return btcutil.NewTx(msgTx)
}

// TestFlushAndFetch ensures flushed coins are read back from the engine and
// that reads only populate the cache.
func TestFlushAndFetch(t *testing.T) {
	t.Parallel()

	cache := New(newTestEngine(t), DefaultMaxSize)
	tx := testTx(2)
	cache.AddCoin(tx, 0, 100)
	cache.AddCoin(tx, 1, 100)
	require.Equal(t, 2, cache.Len())

	require.NoError(t, cache.Flush())
	require.Zero(t, cache.Len())
	require.Zero(t, cache.Size())

	op := wire.OutPoint{Hash: *tx.Hash(), Index: 1}
	require.False(t, cache.HaveCoinInCache(op))

	entry, err := cache.FetchEntry(op)
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Equal(t, int64(2000), entry.Amount())
	require.Equal(t, int32(100), entry.BlockHeight())
	require.False(t, entry.IsCoinBase())
	require.Equal(t, []byte{0x51}, entry.PkScript())
	require.True(t, cache.HaveCoinInCache(op))

	// Unmodified entries can be uncached.
	cache.Uncache(op)
	require.False(t, cache.HaveCoinInCache(op))
	require.Zero(t, cache.Size())
}

// TestUncacheKeepsModified ensures entries not yet flushed survive Uncache.
func TestUncacheKeepsModified(t *testing.T) {
	t.Parallel()

	cache := New(newTestEngine(t), DefaultMaxSize)
	tx := testTx(1)
	cache.AddCoin(tx, 0, 5)

	op := wire.OutPoint{Hash: *tx.Hash()}
	cache.Uncache(op)
	require.True(t, cache.HaveCoinInCache(op))
}

// TestSpendCoin ensures spent coins are reported missing and deleted from
// the engine on flush.
func TestSpendCoin(t *testing.T) {
	t.Parallel()

	cache := New(newTestEngine(t), DefaultMaxSize)
	tx := testTx(1)
	op := wire.OutPoint{Hash: *tx.Hash()}
	cache.AddCoin(tx, 0, 5)
	require.NoError(t, cache.Flush())

	cache.SpendCoin(op)
	entry, err := cache.FetchEntry(op)
	require.NoError(t, err)
	require.Nil(t, entry)
	require.False(t, cache.HaveCoinInCache(op))

	require.NoError(t, cache.Flush())
	entry, err = cache.FetchEntry(op)
	require.NoError(t, err)
	require.Nil(t, entry)
}

// TestFlushIfNeeded ensures the cache is only written once it exceeds its
// limit.
func TestFlushIfNeeded(t *testing.T) {
	t.Parallel()

	tx := testTx(3)
	limit := 2 * (entryOverhead + 1)
	cache := New(newTestEngine(t), int64(limit))

	cache.AddCoin(tx, 0, 1)
	cache.AddCoin(tx, 1, 1)
	require.NoError(t, cache.FlushIfNeeded())
	require.Equal(t, 2, cache.Len())

	cache.AddCoin(tx, 2, 1)
	require.NoError(t, cache.FlushIfNeeded())
	require.Zero(t, cache.Len())

	entry, err := cache.FetchEntry(wire.OutPoint{Hash: *tx.Hash(), Index: 2})
	require.NoError(t, err)
	require.NotNil(t, entry)
}

// TestConnectBlock ensures a block spends its inputs and adds its outputs.
func TestConnectBlock(t *testing.T) {
	t.Parallel()

	cache := New(newTestEngine(t), DefaultMaxSize)
	funding := testTx(1)
	cache.AddCoin(funding, 0, 1)

	spend := wire.NewMsgTx(wire.TxVersion)
	spend.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Hash: *funding.Hash()},
		Sequence:         wire.MaxTxInSequenceNum,
	})
	spend.AddTxOut(wire.NewTxOut(500, []byte{0x51}))

	block := btcutil.NewBlock(&wire.MsgBlock{
		Transactions: []*wire.MsgTx{spend},
	})
	block.SetHeight(2)
	cache.ConnectBlock(block)

	require.False(t, cache.HaveCoinInCache(wire.OutPoint{
		Hash: *funding.Hash(),
	}))
	entry, err := cache.FetchEntry(wire.OutPoint{Hash: spend.TxHash()})
	require.NoError(t, err)
	require.Equal(t, int32(2), entry.BlockHeight())
}

// TestCoinCodec ensures the header code round trips the coinbase flag and
// height.
func TestCoinCodec(t *testing.T) {
	t.Parallel()

	cache := New(newTestEngine(t), DefaultMaxSize)
	coinbase := wire.NewMsgTx(wire.TxVersion)
	coinbase.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: wire.MaxPrevOutIndex},
		SignatureScript:  []byte{0x01, 0x02},
		Sequence:         wire.MaxTxInSequenceNum,
	})
	coinbase.AddTxOut(wire.NewTxOut(5000000000, []byte{0x51}))
	tx := btcutil.NewTx(coinbase)

	cache.AddCoin(tx, 0, 1234567)
	require.NoError(t, cache.Flush())

	entry, err := cache.FetchEntry(wire.OutPoint{Hash: *tx.Hash()})
	require.NoError(t, err)
	require.True(t, entry.IsCoinBase())
	require.Equal(t, int32(1234567), entry.BlockHeight())
	require.Equal(t, int64(5000000000), entry.Amount())
}
