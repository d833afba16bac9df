// Copyright (c) 2016 The btcsuite developers
// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/mining"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

type estimateFeeTester struct {
	t       *testing.T
	ef      *FeeEstimator
	version int32
	height  int32
}

func newEstimateFeeTester(t *testing.T, ef *FeeEstimator) *estimateFeeTester {
	return &estimateFeeTester{t: t, ef: ef}
}

// observe creates a distinct transaction paying fee for vsize virtual bytes
// and samples it at the current height.
func (eft *estimateFeeTester) observe(fee, vsize int64) *TxDesc {
	eft.version++
	desc := &TxDesc{
		TxDesc: mining.TxDesc{
			Tx:     btcutil.NewTx(&wire.MsgTx{Version: eft.version}),
			Height: eft.height,
			Fee:    fee,
		},
		VirtualSize: vsize,
	}
	eft.ef.ObserveTransaction(desc)
	return desc
}

// mine registers the next block containing descs.
func (eft *estimateFeeTester) mine(descs ...*TxDesc) *btcutil.Block {
	eft.height++
	msgBlock := &wire.MsgBlock{
		Header: wire.BlockHeader{Nonce: uint32(eft.height)},
	}
	for _, desc := range descs {
		msgBlock.Transactions = append(msgBlock.Transactions,
			desc.Tx.MsgTx())
	}

	block := btcutil.NewBlock(msgBlock)
	block.SetHeight(eft.height)
	require.NoError(eft.t, eft.ef.RegisterBlock(block))
	return block
}

// rollback unregisters block and the blocks after it.
func (eft *estimateFeeTester) rollback(block *btcutil.Block) {
	require.NoError(eft.t, eft.ef.Rollback(block.Hash()))
	eft.height = block.Height() - 1
}

func (eft *estimateFeeTester) expect(numBlocks uint32, want FeeRate) {
	got, err := eft.ef.EstimateFee(numBlocks)
	require.NoError(eft.t, err)
	require.Equal(eft.t, want, got, "estimate for %d blocks", numBlocks)
}

// TestEstimateFee tests basic functionality in the FeeEstimator.
func TestEstimateFee(t *testing.T) {
	t.Parallel()

	ef := NewFeeEstimator(DefaultEstimateFeeMaxRollback, 0)
	eft := newEstimateFeeTester(t, ef)

	// Without samples every estimate is zero.
	eft.expect(1, 0)
	eft.expect(estimateFeeDepth, 0)

	_, err := ef.EstimateFee(0)
	require.Error(t, err)
	_, err = ef.EstimateFee(estimateFeeDepth + 1)
	require.Error(t, err)

	// An unmined sample does not change the estimates.
	tx1 := eft.observe(1000, 100)
	eft.expect(1, 0)

	eft.mine(tx1)
	eft.expect(1, 10000)

	// The median of a bin favours the higher rate.
	tx2 := eft.observe(4000, 200)
	eft.mine(tx2)
	eft.expect(1, 20000)

	// A sample that waited three blocks lands in the third bin.
	tx3 := eft.observe(500, 100)
	eft.mine()
	eft.mine()
	eft.mine(tx3)
	eft.expect(3, 5000)

	// Removed samples are not binned.
	tx4 := eft.observe(10000, 100)
	ef.RemoveTransaction(tx4.Tx.Hash())
	eft.mine(tx4)
	eft.expect(1, 20000)
}

// TestEstimateFeeRollback ensures rolled back blocks take their samples out
// of the bins again.
func TestEstimateFeeRollback(t *testing.T) {
	t.Parallel()

	ef := NewFeeEstimator(DefaultEstimateFeeMaxRollback, 0)
	eft := newEstimateFeeTester(t, ef)

	tx1 := eft.observe(1000, 100)
	eft.mine(tx1)
	tx2 := eft.observe(4000, 200)
	block2 := eft.mine(tx2)
	eft.expect(1, 20000)

	eft.rollback(block2)
	eft.expect(1, 10000)

	// The rolled back sample may be mined again.
	eft.mine(tx2)
	eft.expect(1, 20000)

	require.ErrorIs(t, ef.Rollback(&chainhash.Hash{0x01}), ErrNoSuchBlock)

	// Registering must continue from the last known height.
	gap := btcutil.NewBlock(&wire.MsgBlock{})
	gap.SetHeight(eft.height + 2)
	require.Error(t, ef.RegisterBlock(gap))
}

// TestEstimateFeeBinReplacement ensures full bins replace samples and that
// the replaced samples are restored by a rollback.
func TestEstimateFeeBinReplacement(t *testing.T) {
	t.Parallel()

	ef := NewFeeEstimator(DefaultEstimateFeeMaxRollback, 0)
	ef.binSize = 2
	ef.maxReplacements = 1
	eft := newEstimateFeeTester(t, ef)

	// Only one sample per block is placed in a bin.
	eft.mine(eft.observe(1000, 100), eft.observe(2000, 100),
		eft.observe(3000, 100))
	require.Len(t, ef.bin[0], 1)

	eft.mine(eft.observe(4000, 100))
	require.Len(t, ef.bin[0], 2)
	before := binHashes(ef, 0)

	block := eft.mine(eft.observe(5000, 100))
	require.Len(t, ef.bin[0], 2)
	require.NotEqual(t, before, binHashes(ef, 0))

	eft.rollback(block)
	require.Equal(t, before, binHashes(ef, 0))
}

// binHashes returns the hashes of the samples in the given bin.
func binHashes(ef *FeeEstimator, bin int) map[chainhash.Hash]struct{} {
	hashes := make(map[chainhash.Hash]struct{})
	for _, o := range ef.bin[bin] {
		hashes[o.hash] = struct{}{}
	}
	return hashes
}

// TestEstimateFeeNotEnoughBlocks ensures no estimate is produced before the
// minimum number of blocks has been registered.
func TestEstimateFeeNotEnoughBlocks(t *testing.T) {
	t.Parallel()

	ef := NewFeeEstimator(DefaultEstimateFeeMaxRollback,
		DefaultEstimateFeeMinRegisteredBlocks)
	eft := newEstimateFeeTester(t, ef)

	for i := uint32(0); i < DefaultEstimateFeeMinRegisteredBlocks; i++ {
		_, err := ef.EstimateFee(1)
		require.ErrorIs(t, err, ErrNotEnoughBlocks)
		eft.mine()
	}
	eft.expect(1, 0)
}
