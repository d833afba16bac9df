// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/syscoin/sysd/mempool"
)

// maxLineLength bounds a single hex encoded transaction.
const maxLineLength = 2 * wire.MaxBlockPayload

// feedResults counts the outcomes of a transaction feed.
type feedResults struct {
	accepted  int
	rejected  int
	malformed int
	throttled int
}

// txFeed submits hex encoded transactions, one per line, to a pool.  Empty
// lines and lines starting with '#' are skipped.
type txFeed struct {
	pool       mempool.TxMempool
	maxFeeRate mempool.FeeRate
	testAccept bool
	results    feedResults
}

// absurdFee returns the fee above which tx is refused, or zero when no
// ceiling is configured.
func (f *txFeed) absurdFee(tx *btcutil.Tx) int64 {
	if f.maxFeeRate <= 0 {
		return 0
	}
	return f.maxFeeRate.GetFee(mempool.GetTxVirtualSize(tx))
}

// submit decodes a single line and hands the transaction to the pool.
func (f *txFeed) submit(lineNum int, line []byte) {
	serialized := make([]byte, hex.DecodedLen(len(line)))
	if _, err := hex.Decode(serialized, line); err != nil {
		mpldLog.Warnf("Line %d: malformed hex: %v", lineNum, err)
		f.results.malformed++
		return
	}
	tx, err := btcutil.NewTxFromBytes(serialized)
	if err != nil {
		mpldLog.Warnf("Line %d: malformed transaction: %v", lineNum, err)
		f.results.malformed++
		return
	}

	desc, err := f.pool.AcceptToMemoryPool(tx, false, f.absurdFee(tx),
		f.testAccept)
	switch {
	case errors.Is(err, mempool.ErrAdmissionThrottled):
		mpldLog.Infof("Line %d: transaction %v throttled", lineNum,
			tx.Hash())
		f.results.throttled++

	case err != nil:
		if reason := mempool.RejectReason(err); reason != "" {
			mpldLog.Infof("Line %d: rejected transaction %v (%s): %v",
				lineNum, tx.Hash(), reason, err)
		} else {
			mpldLog.Errorf("Line %d: failed to process transaction "+
				"%v: %v", lineNum, tx.Hash(), err)
		}
		f.results.rejected++

	default:
		mpldLog.Infof("Line %d: accepted transaction %v (fee %v, %d "+
			"vbytes, %d replaced)", lineNum, tx.Hash(),
			btcutil.Amount(desc.Fee), desc.VirtualSize,
			len(desc.Replaced))
		f.results.accepted++
	}
}

// run reads r until it is exhausted or ctx is cancelled.
func (f *txFeed) run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	var lineNum int
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		f.submit(lineNum, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read transactions: %w", err)
	}
	return nil
}
