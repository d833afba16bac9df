// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package utxocache

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// coinKeyPrefix prefixes the keys of unspent outputs in the engine.
const coinKeyPrefix = 'c'

// maxScriptSize bounds the script length accepted when decoding.
const maxScriptSize = 10000

// coinKey returns the engine key of op.
func coinKey(op wire.OutPoint) []byte {
	var buf bytes.Buffer
	buf.Grow(1 + chainhash.HashSize + 5)
	buf.WriteByte(coinKeyPrefix)
	buf.Write(op.Hash[:])
	// Writes to a bytes.Buffer cannot fail.
	_ = wire.WriteVarInt(&buf, 0, uint64(op.Index))
	return buf.Bytes()
}

// encodeCoin serializes an unspent output as the header code (height shifted
// left by one, low bit set for coinbase outputs), the amount and the script.
func encodeCoin(entry *blockchain.UtxoEntry) []byte {
	code := uint64(entry.BlockHeight()) << 1
	if entry.IsCoinBase() {
		code |= 1
	}

	var buf bytes.Buffer
	_ = wire.WriteVarInt(&buf, 0, code)
	_ = wire.WriteVarInt(&buf, 0, uint64(entry.Amount()))
	_ = wire.WriteVarBytes(&buf, 0, entry.PkScript())
	return buf.Bytes()
}

// decodeCoin is the inverse of encodeCoin.
func decodeCoin(serialized []byte) (*blockchain.UtxoEntry, error) {
	r := bytes.NewReader(serialized)
	code, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return nil, fmt.Errorf("unable to decode coin header: %w", err)
	}
	amount, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return nil, fmt.Errorf("unable to decode coin amount: %w", err)
	}
	pkScript, err := wire.ReadVarBytes(r, 0, maxScriptSize, "pkScript")
	if err != nil {
		return nil, fmt.Errorf("unable to decode coin script: %w", err)
	}

	txOut := wire.NewTxOut(int64(amount), pkScript)
	return blockchain.NewUtxoEntry(txOut, int32(code>>1), code&1 == 1), nil
}
