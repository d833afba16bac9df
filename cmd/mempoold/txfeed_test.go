// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/mining"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/syscoin/sysd/mempool"
)

// feedTx returns a distinct transaction spending the first output of a made
// up parent.
func feedTx(t *testing.T, parent byte) (*btcutil.Tx, string) {
	msgTx := wire.NewMsgTx(2)
	msgTx.AddTxIn(wire.NewTxIn(&wire.OutPoint{
		Hash: chainhash.Hash{parent},
	}, nil, nil))
	msgTx.AddTxOut(wire.NewTxOut(1000, []byte{txscript.OP_TRUE}))

	var buf bytes.Buffer
	require.NoError(t, msgTx.Serialize(&buf))
	return btcutil.NewTx(msgTx), hex.EncodeToString(buf.Bytes())
}

// matchTx matches the transaction argument by hash.
func matchTx(want *btcutil.Tx) interface{} {
	return mock.MatchedBy(func(tx *btcutil.Tx) bool {
		return *tx.Hash() == *want.Hash()
	})
}

func TestTxFeed(t *testing.T) {
	accepted, acceptedHex := feedTx(t, 0x01)
	rejected, rejectedHex := feedTx(t, 0x02)
	throttled, throttledHex := feedTx(t, 0x03)

	pool := &mempool.MockTxMempool{}
	pool.On("AcceptToMemoryPool", matchTx(accepted), false, int64(0),
		false).Return(&mempool.TxDesc{
		TxDesc:      mining.TxDesc{Tx: accepted, Fee: 500},
		VirtualSize: mempool.GetTxVirtualSize(accepted),
	}, nil).Once()
	pool.On("AcceptToMemoryPool", matchTx(rejected), false, int64(0),
		false).Return(nil, mempool.RuleError{Err: mempool.TxRuleError{
		Kind:       mempool.RejectMempoolPolicy,
		RejectCode: wire.RejectInsufficientFee,
		Reason:     "min relay fee not met",
	}}).Once()
	pool.On("AcceptToMemoryPool", matchTx(throttled), false, int64(0),
		false).Return(nil, mempool.ErrAdmissionThrottled).Once()

	input := strings.Join([]string{
		"# transactions",
		acceptedHex,
		"",
		"  " + rejectedHex + "  ",
		"zz",
		"00",
		throttledHex,
	}, "\n")

	feed := &txFeed{pool: pool}
	require.NoError(t, feed.run(context.Background(),
		strings.NewReader(input)))
	pool.AssertExpectations(t)

	require.Equal(t, feedResults{
		accepted:  1,
		rejected:  1,
		malformed: 2,
		throttled: 1,
	}, feed.results)
}

// TestTxFeedOptions ensures the fee ceiling and dry run options reach the
// pool.
func TestTxFeedOptions(t *testing.T) {
	tx, txHex := feedTx(t, 0x01)
	maxFeeRate := mempool.FeeRate(20000)
	absurdFee := maxFeeRate.GetFee(mempool.GetTxVirtualSize(tx))
	require.Positive(t, absurdFee)

	pool := &mempool.MockTxMempool{}
	pool.On("AcceptToMemoryPool", matchTx(tx), false, absurdFee,
		true).Return(&mempool.TxDesc{
		TxDesc: mining.TxDesc{Tx: tx},
	}, nil).Once()

	feed := &txFeed{pool: pool, maxFeeRate: maxFeeRate, testAccept: true}
	require.NoError(t, feed.run(context.Background(),
		strings.NewReader(txHex)))
	pool.AssertExpectations(t)
	require.Equal(t, 1, feed.results.accepted)
}

// TestTxFeedCancelled ensures a cancelled feed stops before submitting.
func TestTxFeedCancelled(t *testing.T) {
	_, txHex := feedTx(t, 0x01)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := &mempool.MockTxMempool{}
	feed := &txFeed{pool: pool}
	err := feed.run(ctx, strings.NewReader(txHex))
	require.ErrorIs(t, err, context.Canceled)
	pool.AssertNotCalled(t, "AcceptToMemoryPool", mock.Anything,
		mock.Anything, mock.Anything, mock.Anything)
}

// TestFeedTransactionsDrainsDoubleSpends ensures double spends tolerated
// while feeding do not outlive the feed.
func TestFeedTransactionsDrainsDoubleSpends(t *testing.T) {
	tx, txHex := feedTx(t, 0x01)
	inFile := filepath.Join(t.TempDir(), "txns.hex")
	require.NoError(t, os.WriteFile(inFile, []byte(txHex+"\n"), 0600))

	pool := &mempool.MockTxMempool{}
	pool.On("AcceptToMemoryPool", matchTx(tx), false, int64(0),
		false).Return(&mempool.TxDesc{
		TxDesc: mining.TxDesc{Tx: tx},
	}, nil).Once()
	pool.On("DrainDoubleSpends").Return(1).Once()
	pool.On("MempoolInfo").Return(&mempool.MempoolInfo{Size: 1}).Once()

	cfg := &config{InFile: inFile}
	require.NoError(t, feedTransactions(context.Background(), cfg, pool))
	pool.AssertExpectations(t)
}
