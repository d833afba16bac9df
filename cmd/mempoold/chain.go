// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/mining"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/syscoin/sysd/database/engine"
)

// medianTimeBlocks is the number of previous blocks used to calculate the
// median time past.
const medianTimeBlocks = 11

// chainStateKey is the engine key of the serialized tip.  It does not share
// a prefix with the unspent output keys.
var chainStateKey = []byte("s:tip")

// chainState tracks the tip the pool validates against: its hash, height and
// the timestamps of the blocks used for the median time past.  It is safe for
// concurrent access.
type chainState struct {
	mtx        sync.RWMutex
	hash       chainhash.Hash
	height     int32
	timestamps []time.Time
}

// newChainState returns a chain state positioned at the genesis block of
// params.
func newChainState(params *chaincfg.Params) *chainState {
	return &chainState{
		hash:       *params.GenesisHash,
		timestamps: []time.Time{params.GenesisBlock.Header.Timestamp},
	}
}

// BestHeight returns the height of the tip.
func (c *chainState) BestHeight() int32 {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.height
}

// BestHash returns the hash of the tip.
func (c *chainState) BestHash() chainhash.Hash {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.hash
}

// MedianTimePast returns the median timestamp of the last blocks up to and
// including the tip.
func (c *chainState) MedianTimePast() time.Time {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.medianTimePast()
}

// medianTimePast is MedianTimePast without locking.
//
// This function MUST be called with the state lock held (for reads).
func (c *chainState) medianTimePast() time.Time {
	sorted := make([]time.Time, len(c.timestamps))
	copy(sorted, c.timestamps)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Before(sorted[j])
	})
	return sorted[len(sorted)/2]
}

// ScriptFlags returns the script flags enforced by the next block.
func (c *chainState) ScriptFlags() txscript.ScriptFlags {
	return txscript.ScriptBip16 | txscript.ScriptVerifyDERSignatures |
		txscript.ScriptVerifyCheckLockTimeVerify |
		txscript.ScriptVerifyCheckSequenceVerify |
		txscript.ScriptVerifyWitness |
		txscript.ScriptVerifyNullFail |
		txscript.ScriptVerifyTaproot
}

// CalcSequenceLock computes the relative lock of tx against the outputs it
// spends in view for inclusion in the next block.  Time based locks of
// inputs confirmed before the tracked window are measured from the tip
// median time, which can only delay them.
func (c *chainState) CalcSequenceLock(tx *btcutil.Tx,
	view *blockchain.UtxoViewpoint) (*blockchain.SequenceLock, error) {

	sequenceLock := &blockchain.SequenceLock{Seconds: -1, BlockHeight: -1}

	msgTx := tx.MsgTx()
	if msgTx.Version < 2 || blockchain.IsCoinBase(tx) {
		return sequenceLock, nil
	}

	c.mtx.RLock()
	defer c.mtx.RUnlock()

	nextHeight := c.height + 1
	for txInIndex, txIn := range msgTx.TxIn {
		utxo := view.LookupEntry(txIn.PreviousOutPoint)
		if utxo == nil {
			return sequenceLock, fmt.Errorf("output %v referenced "+
				"from transaction %s:%d either does not exist or "+
				"has already been spent", txIn.PreviousOutPoint,
				tx.Hash(), txInIndex)
		}

		sequenceNum := txIn.Sequence
		if sequenceNum&wire.SequenceLockTimeDisabled ==
			wire.SequenceLockTimeDisabled {

			continue
		}

		inputHeight := utxo.BlockHeight()
		if inputHeight == mining.UnminedHeight {
			inputHeight = nextHeight
		}

		relativeLock := int64(sequenceNum & wire.SequenceLockTimeMask)
		if sequenceNum&wire.SequenceLockTimeIsSeconds ==
			wire.SequenceLockTimeIsSeconds {

			medianTime := c.medianTimeAt(inputHeight - 1)
			timeLockSeconds := (relativeLock <<
				wire.SequenceLockTimeGranularity) - 1
			timeLock := medianTime.Unix() + timeLockSeconds
			if timeLock > sequenceLock.Seconds {
				sequenceLock.Seconds = timeLock
			}
			continue
		}

		blockHeight := inputHeight + int32(relativeLock) - 1
		if blockHeight > sequenceLock.BlockHeight {
			sequenceLock.BlockHeight = blockHeight
		}
	}

	return sequenceLock, nil
}

// medianTimeAt returns the median time past of the block at height when it
// lies within the tracked window and the tip median time otherwise.
//
// This function MUST be called with the state lock held (for reads).
func (c *chainState) medianTimeAt(height int32) time.Time {
	back := int(c.height - height)
	if back <= 0 || back >= len(c.timestamps) {
		return c.medianTimePast()
	}
	window := &chainState{
		timestamps: c.timestamps[:len(c.timestamps)-back],
	}
	return window.medianTimePast()
}

// connectBlock advances the tip to block, which must extend it.  The block's
// height is set to the new tip height.
func (c *chainState) connectBlock(block *btcutil.Block) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	header := &block.MsgBlock().Header
	if header.PrevBlock != c.hash {
		return fmt.Errorf("block %v does not extend the tip %v",
			block.Hash(), c.hash)
	}

	c.hash = *block.Hash()
	c.height++
	block.SetHeight(c.height)

	c.timestamps = append(c.timestamps, header.Timestamp)
	if len(c.timestamps) > medianTimeBlocks {
		c.timestamps = c.timestamps[len(c.timestamps)-medianTimeBlocks:]
	}
	return nil
}

// serialize encodes the state as the tip hash, the height and the tracked
// timestamps in unix seconds.
func (c *chainState) serialize() []byte {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	var buf bytes.Buffer
	buf.Write(c.hash[:])
	// Writes to a bytes.Buffer cannot fail.
	_ = wire.WriteVarInt(&buf, 0, uint64(c.height))
	_ = wire.WriteVarInt(&buf, 0, uint64(len(c.timestamps)))
	for _, ts := range c.timestamps {
		_ = wire.WriteVarInt(&buf, 0, uint64(ts.Unix()))
	}
	return buf.Bytes()
}

// deserialize is the inverse of serialize.
func (c *chainState) deserialize(serialized []byte) error {
	r := bytes.NewReader(serialized)

	var hash chainhash.Hash
	if _, err := io.ReadFull(r, hash[:]); err != nil {
		return fmt.Errorf("unable to decode tip hash: %w", err)
	}
	height, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return fmt.Errorf("unable to decode tip height: %w", err)
	}
	count, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return fmt.Errorf("unable to decode timestamp count: %w", err)
	}
	if count == 0 || count > medianTimeBlocks {
		return fmt.Errorf("invalid timestamp count %d", count)
	}
	timestamps := make([]time.Time, 0, count)
	for i := uint64(0); i < count; i++ {
		ts, err := wire.ReadVarInt(r, 0)
		if err != nil {
			return fmt.Errorf("unable to decode timestamp: %w", err)
		}
		timestamps = append(timestamps, time.Unix(int64(ts), 0))
	}

	c.mtx.Lock()
	c.hash = hash
	c.height = int32(height)
	c.timestamps = timestamps
	c.mtx.Unlock()
	return nil
}

// loadChainState reads the tip stored in db.  A database without a stored
// tip yields the genesis state of params.
func loadChainState(db engine.Engine, params *chaincfg.Params) (*chainState, error) {
	state := newChainState(params)

	snap, err := db.Snapshot()
	if err != nil {
		return nil, err
	}
	defer snap.Release()

	serialized, err := snap.Get(chainStateKey)
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return state, nil
	case err != nil:
		return nil, err
	}

	if err := state.deserialize(serialized); err != nil {
		return nil, err
	}
	return state, nil
}

// store writes the tip to db.
func (c *chainState) store(db engine.Engine) error {
	tx, err := db.Transaction()
	if err != nil {
		return err
	}
	defer tx.Discard()

	if err := tx.Put(chainStateKey, c.serialize()); err != nil {
		return err
	}
	return tx.Commit()
}
