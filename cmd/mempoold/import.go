// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/syscoin/sysd/database/engine"
	"github.com/syscoin/sysd/internal/log"
	"github.com/syscoin/sysd/mempool"
)

// progressInterval is the minimum time between two import progress
// messages.
const progressInterval = 10 * time.Second

// coinStore is the part of the unspent output cache the importer updates.
type coinStore interface {
	ConnectBlock(block *btcutil.Block)
	Flush() error
}

// importResults houses the stats and result of an import operation.
type importResults struct {
	blocksProcessed int64
	blocksImported  int64
}

// blockImporter connects the blocks of a bootstrap file to the unspent
// output cache, the tracked tip and the pool.
type blockImporter struct {
	db          engine.Engine
	coins       coinStore
	state       *chainState
	pool        mempool.TxMempool
	net         wire.BitcoinNet
	r           io.Reader
	results     importResults
	synced      bool
	lastHeight  int32
	lastLogTime time.Time
}

// readBlock reads the next block from the input file.  It returns nil
// without an error at the end of the file.
func (bi *blockImporter) readBlock() ([]byte, error) {
	// The block file format is:
	//  <network> <block length> <serialized block>
	var net uint32
	err := binary.Read(bi.r, binary.LittleEndian, &net)
	if err != nil {
		if err != io.EOF {
			return nil, err
		}

		// No block and no error means there are no more blocks to read.
		return nil, nil
	}
	if net != uint32(bi.net) {
		return nil, fmt.Errorf("network mismatch -- got %x, want %x",
			net, uint32(bi.net))
	}

	// Read the block length and ensure it is sane.
	var blockLen uint32
	if err := binary.Read(bi.r, binary.LittleEndian, &blockLen); err != nil {
		return nil, err
	}
	if blockLen > wire.MaxBlockPayload {
		return nil, fmt.Errorf("block payload of %d bytes is larger "+
			"than the max allowed %d bytes", blockLen,
			wire.MaxBlockPayload)
	}

	serializedBlock := make([]byte, blockLen)
	if _, err := io.ReadFull(bi.r, serializedBlock); err != nil {
		return nil, err
	}

	return serializedBlock, nil
}

// processBlock connects the block when it extends the tip.  Blocks are
// skipped until the file reaches the stored tip; afterwards every block must
// extend it.  Returns whether the block was imported.
func (bi *blockImporter) processBlock(serializedBlock []byte) (bool, error) {
	block, err := btcutil.NewBlockFromBytes(serializedBlock)
	if err != nil {
		return false, err
	}

	tip := bi.state.BestHash()
	switch {
	case *block.Hash() == tip:
		bi.synced = true
		return false, nil

	// Blocks before the stored tip were connected by an earlier run.
	case !bi.synced && block.MsgBlock().Header.PrevBlock != tip:
		return false, nil
	}

	bi.synced = true
	if err := bi.state.connectBlock(block); err != nil {
		return false, err
	}

	bi.coins.ConnectBlock(block)
	bi.pool.ProcessBlock(block)
	bi.lastHeight = block.Height()
	return true, nil
}

// logProgress logs block progress as an information message.  In order to
// prevent spam, it limits logging to one message every progressInterval.
func (bi *blockImporter) logProgress() {
	now := time.Now()
	duration := now.Sub(bi.lastLogTime)
	if duration < progressInterval {
		return
	}

	imported := bi.results.blocksImported
	mpldLog.Infof("Connected %d %s in the last %s (height %d)", imported,
		log.PickNoun(uint64(imported), "block", "blocks"),
		duration.Truncate(time.Millisecond), bi.lastHeight)
	bi.lastLogTime = now
}

// Import reads and connects every block of the file, then flushes the
// unspent outputs and stores the new tip.  It stops early when ctx is
// cancelled.
func (bi *blockImporter) Import(ctx context.Context) (*importResults, error) {
	bi.lastLogTime = time.Now()
	for {
		if err := ctx.Err(); err != nil {
			return &bi.results, err
		}

		serializedBlock, err := bi.readBlock()
		if err != nil {
			return &bi.results, fmt.Errorf("failed to read block: %w",
				err)
		}
		if serializedBlock == nil {
			break
		}

		bi.results.blocksProcessed++
		imported, err := bi.processBlock(serializedBlock)
		if err != nil {
			return &bi.results, err
		}
		if imported {
			bi.results.blocksImported++
		}
		bi.logProgress()
	}

	if bi.results.blocksImported == 0 {
		return &bi.results, nil
	}
	if err := bi.coins.Flush(); err != nil {
		return &bi.results, fmt.Errorf("failed to flush coins: %w", err)
	}
	if err := bi.state.store(bi.db); err != nil {
		return &bi.results, fmt.Errorf("failed to store tip: %w", err)
	}
	return &bi.results, nil
}

// newBlockImporter returns a new importer reading blocks of network net
// from r.
func newBlockImporter(db engine.Engine, coins coinStore, state *chainState,
	pool mempool.TxMempool, net wire.BitcoinNet, r io.Reader) (*blockImporter, error) {

	if db == nil || coins == nil || state == nil || pool == nil {
		return nil, errors.New("block importer needs a database, a " +
			"coin store, a chain state and a pool")
	}
	return &blockImporter{
		db:    db,
		coins: coins,
		state: state,
		pool:  pool,
		net:   net,
		r:     r,
	}, nil
}
