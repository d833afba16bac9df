// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/syscoin/sysd/mempool"
	"github.com/syscoin/sysd/utxocache"
)

// writeBlockFile serializes blocks in the bootstrap file format.
func writeBlockFile(t *testing.T, net wire.BitcoinNet,
	blocks ...*wire.MsgBlock) []byte {

	var buf bytes.Buffer
	for _, block := range blocks {
		var serialized bytes.Buffer
		require.NoError(t, block.Serialize(&serialized))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian,
			uint32(net)))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian,
			uint32(serialized.Len())))
		buf.Write(serialized.Bytes())
	}
	return buf.Bytes()
}

func TestBlockImporter(t *testing.T) {
	t.Parallel()

	params := &chaincfg.RegressionNetParams
	db := newMemEngine(t)

	// Build the chain on a scratch state so the importer starts from
	// genesis.
	blocks := extendChain(t, newChainState(params), 3)
	msgBlocks := []*wire.MsgBlock{params.GenesisBlock}
	for _, block := range blocks[:2] {
		msgBlocks = append(msgBlocks, block.MsgBlock())
	}

	runImport := func(file []byte, connected int) *chainState {
		state, err := loadChainState(db, params)
		require.NoError(t, err)
		coins := utxocache.New(db, utxocache.DefaultMaxSize)

		pool := &mempool.MockTxMempool{}
		if connected > 0 {
			pool.On("ProcessBlock", mock.Anything).Return().
				Times(connected)
		}

		importer, err := newBlockImporter(db, coins, state, pool,
			params.Net, bytes.NewReader(file))
		require.NoError(t, err)
		results, err := importer.Import(context.Background())
		require.NoError(t, err)
		require.Equal(t, int64(connected), results.blocksImported)
		pool.AssertExpectations(t)
		return state
	}

	state := runImport(writeBlockFile(t, params.Net, msgBlocks...), 2)
	require.Equal(t, int32(2), state.BestHeight())
	require.Equal(t, *blocks[1].Hash(), state.BestHash())

	// The coinbase outputs were flushed to the engine.
	coins := utxocache.New(db, utxocache.DefaultMaxSize)
	coinbase := btcutil.NewTx(blocks[1].MsgBlock().Transactions[0])
	entry, err := coins.FetchEntry(wire.OutPoint{Hash: *coinbase.Hash()})
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Equal(t, int32(2), entry.BlockHeight())
	require.True(t, entry.IsCoinBase())

	// A second run skips the blocks up to the stored tip.
	state = runImport(writeBlockFile(t, params.Net, msgBlocks...), 0)
	require.Equal(t, int32(2), state.BestHeight())

	msgBlocks = append(msgBlocks, blocks[2].MsgBlock())
	state = runImport(writeBlockFile(t, params.Net, msgBlocks...), 1)
	require.Equal(t, int32(3), state.BestHeight())
	require.Equal(t, *blocks[2].Hash(), state.BestHash())
}

func TestBlockImporterErrors(t *testing.T) {
	t.Parallel()

	params := &chaincfg.RegressionNetParams
	db := newMemEngine(t)
	blocks := extendChain(t, newChainState(params), 3)

	tests := []struct {
		name string
		file []byte
	}{{
		name: "network mismatch",
		file: writeBlockFile(t, wire.MainNet, blocks[0].MsgBlock()),
	}, {
		name: "truncated block",
		file: writeBlockFile(t, params.Net, blocks[0].MsgBlock())[:20],
	}, {
		name: "gap after the tip",
		file: writeBlockFile(t, params.Net, blocks[0].MsgBlock(),
			blocks[2].MsgBlock()),
	}}

	for _, test := range tests {
		pool := &mempool.MockTxMempool{}
		pool.On("ProcessBlock", mock.Anything).Return().Maybe()

		importer, err := newBlockImporter(db, utxocache.New(db, 0),
			newChainState(params), pool, params.Net,
			bytes.NewReader(test.file))
		require.NoError(t, err, test.name)
		_, err = importer.Import(context.Background())
		require.Error(t, err, test.name)
	}

	_, err := newBlockImporter(db, nil, nil, nil, params.Net, nil)
	require.Error(t, err)
}
