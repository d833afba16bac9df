// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
	"github.com/syscoin/sysd/assetalloc"
)

// TestFeeRateGetFee tests the fee owed for a size at a given rate.
func TestFeeRateGetFee(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rate FeeRate
		size int64
		want int64
	}{
		{"rounds up to one satoshi", 3, 250, 1},
		{"exact kvB", 1000, 1000, 1000},
		{"truncates", 1000, 85, 85},
		{"negative rounds down to minus one", -5, 10, -1},
		{"zero rate", 0, 100, 0},
		{"zero size", 1000, 0, 0},
		{"larger than kvB", 5000, 1500, 7500},
	}

	for _, test := range tests {
		require.Equal(t, test.want, test.rate.GetFee(test.size), test.name)
	}

	require.Equal(t, FeeRate(11764), NewFeeRate(1000, 85))
	require.Equal(t, FeeRate(0), NewFeeRate(1000, 0))
	require.Equal(t, "0.00001000 SYS/kvB", FeeRate(1000).String())
	require.Equal(t, "-1.00000000 SYS/kvB", FeeRate(-1e8).String())
}

// TestCheckPkScriptStandard tests the checkPkScriptStandard API.
func TestCheckPkScriptStandard(t *testing.T) {
	t.Parallel()

	var pubKeys [][]byte
	for i := 0; i < 4; i++ {
		_, pk := btcec.PrivKeyFromBytes([]byte{byte(i + 1)})
		pubKeys = append(pubKeys, pk.SerializeCompressed())
	}

	tests := []struct {
		name       string // test description.
		script     *txscript.ScriptBuilder
		isStandard bool
	}{
		{
			"key1 and key2",
			txscript.NewScriptBuilder().AddOp(txscript.OP_2).
				AddData(pubKeys[0]).AddData(pubKeys[1]).
				AddOp(txscript.OP_2).AddOp(txscript.OP_CHECKMULTISIG),
			true,
		},
		{
			"key1 or key2",
			txscript.NewScriptBuilder().AddOp(txscript.OP_1).
				AddData(pubKeys[0]).AddData(pubKeys[1]).
				AddOp(txscript.OP_2).AddOp(txscript.OP_CHECKMULTISIG),
			true,
		},
		{
			"escrow",
			txscript.NewScriptBuilder().AddOp(txscript.OP_2).
				AddData(pubKeys[0]).AddData(pubKeys[1]).
				AddData(pubKeys[2]).
				AddOp(txscript.OP_3).AddOp(txscript.OP_CHECKMULTISIG),
			true,
		},
		{
			"one of four",
			txscript.NewScriptBuilder().AddOp(txscript.OP_1).
				AddData(pubKeys[0]).AddData(pubKeys[1]).
				AddData(pubKeys[2]).AddData(pubKeys[3]).
				AddOp(txscript.OP_4).AddOp(txscript.OP_CHECKMULTISIG),
			false,
		},
		{
			"malformed1",
			txscript.NewScriptBuilder().AddOp(txscript.OP_3).
				AddData(pubKeys[0]).AddData(pubKeys[1]).
				AddOp(txscript.OP_2).AddOp(txscript.OP_CHECKMULTISIG),
			false,
		},
		{
			"malformed2",
			txscript.NewScriptBuilder().AddOp(txscript.OP_2).
				AddData(pubKeys[0]).AddData(pubKeys[1]).
				AddOp(txscript.OP_3).AddOp(txscript.OP_CHECKMULTISIG),
			false,
		},
		{
			"malformed3",
			txscript.NewScriptBuilder().AddOp(txscript.OP_0).
				AddData(pubKeys[0]).AddData(pubKeys[1]).
				AddOp(txscript.OP_2).AddOp(txscript.OP_CHECKMULTISIG),
			false,
		},
		{
			"malformed4",
			txscript.NewScriptBuilder().AddOp(txscript.OP_1).
				AddData(pubKeys[0]).AddData(pubKeys[1]).
				AddOp(txscript.OP_0).AddOp(txscript.OP_CHECKMULTISIG),
			false,
		},
		{
			"malformed5",
			txscript.NewScriptBuilder().AddOp(txscript.OP_1).
				AddData(pubKeys[0]).AddData(pubKeys[1]).
				AddOp(txscript.OP_CHECKMULTISIG),
			false,
		},
		{
			"malformed6",
			txscript.NewScriptBuilder().AddOp(txscript.OP_1).
				AddData(pubKeys[0]).AddData(pubKeys[1]),
			false,
		},
	}

	for _, test := range tests {
		script, err := test.script.Script()
		require.NoError(t, err, test.name)

		scriptClass := txscript.GetScriptClass(script)
		got := checkPkScriptStandard(script, scriptClass)
		require.Equal(t, test.isStandard, got == nil, test.name)
	}
}

// TestDust tests the IsDust API.
func TestDust(t *testing.T) {
	t.Parallel()

	p2pkh := []byte{0x76, 0xa9, 0x14, 0xb1, 0x2d, 0x0f, 0xca,
		0xeb, 0x46, 0x14, 0xa3, 0x4b, 0x1e, 0x88, 0x61, 0xe7,
		0x55, 0x4f, 0xd4, 0x13, 0xf7, 0xa6, 0x47, 0x88, 0xac}
	p2wpkh := append([]byte{txscript.OP_0, txscript.OP_DATA_20},
		bytes.Repeat([]byte{0x11}, 20)...)
	nullData := []byte{txscript.OP_RETURN, txscript.OP_DATA_1, 0x01}

	tests := []struct {
		name     string // test description
		txOut    wire.TxOut
		relayFee FeeRate
		isDust   bool
	}{
		{
			"zero value with zero relay fee",
			wire.TxOut{Value: 0, PkScript: p2pkh},
			0,
			false,
		},
		{
			"zero value with very small relay fee",
			wire.TxOut{Value: 0, PkScript: p2pkh},
			1,
			true,
		},
		{
			"p2pkh just below the threshold",
			wire.TxOut{Value: 545, PkScript: p2pkh},
			DefaultMinRelayTxFee,
			true,
		},
		{
			"p2pkh at the threshold",
			wire.TxOut{Value: 546, PkScript: p2pkh},
			DefaultMinRelayTxFee,
			false,
		},
		{
			"p2wpkh just below the threshold",
			wire.TxOut{Value: 293, PkScript: p2wpkh},
			DefaultMinRelayTxFee,
			true,
		},
		{
			"p2wpkh at the threshold",
			wire.TxOut{Value: 294, PkScript: p2wpkh},
			DefaultMinRelayTxFee,
			false,
		},
		{
			"max amount is never dust",
			wire.TxOut{Value: btcutil.MaxSatoshi, PkScript: p2pkh},
			DefaultMinRelayTxFee,
			false,
		},
		{
			"unspendable null data",
			wire.TxOut{Value: 5000, PkScript: nullData},
			0,
			true,
		},
	}

	for _, test := range tests {
		require.Equal(t, test.isDust, IsDust(&test.txOut, test.relayFee),
			test.name)
	}

	require.Equal(t, int64(546), GetDustThreshold(&wire.TxOut{
		PkScript: p2pkh,
	}))
	require.Equal(t, int64(294), GetDustThreshold(&wire.TxOut{
		PkScript: p2wpkh,
	}))
}

// TestCheckTransactionStandard tests the CheckTransactionStandard API.
func TestCheckTransactionStandard(t *testing.T) {
	t.Parallel()

	// Create some dummy, but otherwise standard, data for transactions.
	prevOutHash, err := chainhash.NewHashFromStr("01")
	require.NoError(t, err)
	dummyPrevOut := wire.OutPoint{Hash: *prevOutHash, Index: 1}
	dummySigScript := bytes.Repeat([]byte{0x00}, 65)
	dummyTxIn := wire.TxIn{
		PreviousOutPoint: dummyPrevOut,
		SignatureScript:  dummySigScript,
		Sequence:         wire.MaxTxInSequenceNum,
	}
	addrHash := [20]byte{0x01}
	addr, err := btcutil.NewAddressPubKeyHash(addrHash[:],
		&chaincfg.MainNetParams)
	require.NoError(t, err)
	dummyPkScript, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)
	dummyTxOut := wire.TxOut{
		Value:    100000000, // 1 SYS
		PkScript: dummyPkScript,
	}
	nullData := func(b byte) *wire.TxOut {
		return &wire.TxOut{PkScript: []byte{txscript.OP_RETURN,
			txscript.OP_DATA_1, b}}
	}

	// A payload larger than a regular null data output.
	alloc := &assetalloc.Allocation{}
	for i := byte(0); i < 2; i++ {
		alloc.Tuples = append(alloc.Tuples, assetalloc.Tuple{
			GUID: uint32(i),
			Sender: assetalloc.WitnessAddress{
				Program: bytes.Repeat([]byte{i + 1}, 20),
			},
			Receivers: []assetalloc.Receiver{{
				Address: assetalloc.WitnessAddress{
					Program: bytes.Repeat([]byte{0xee}, 20),
				},
				Amount: 1,
			}},
		})
	}
	payload, err := assetalloc.PayloadScript(alloc)
	require.NoError(t, err)
	require.Greater(t, len(payload), txscript.MaxDataCarrierSize)

	tests := []struct {
		name   string
		tx     wire.MsgTx
		reason string
		code   wire.RejectCode
	}{
		{
			name: "typical transaction",
			tx: wire.MsgTx{
				Version: 1,
				TxIn:    []*wire.TxIn{&dummyTxIn},
				TxOut:   []*wire.TxOut{&dummyTxOut},
			},
		},
		{
			name: "transaction version too high",
			tx: wire.MsgTx{
				Version: 3,
				TxIn:    []*wire.TxIn{&dummyTxIn},
				TxOut:   []*wire.TxOut{&dummyTxOut},
			},
			reason: "version",
			code:   wire.RejectNonstandard,
		},
		{
			name: "transaction size is too large",
			tx: wire.MsgTx{
				Version: 1,
				TxIn:    []*wire.TxIn{&dummyTxIn},
				TxOut: []*wire.TxOut{{
					Value: 0,
					PkScript: bytes.Repeat([]byte{0x00},
						(maxStandardTxWeight/4)+1),
				}},
			},
			reason: "tx-size",
			code:   wire.RejectNonstandard,
		},
		{
			name: "signature script size is too large",
			tx: wire.MsgTx{
				Version: 1,
				TxIn: []*wire.TxIn{{
					PreviousOutPoint: dummyPrevOut,
					SignatureScript: bytes.Repeat([]byte{0x00},
						maxStandardSigScriptSize+1),
					Sequence: wire.MaxTxInSequenceNum,
				}},
				TxOut: []*wire.TxOut{&dummyTxOut},
			},
			reason: "scriptsig-size",
			code:   wire.RejectNonstandard,
		},
		{
			name: "signature script that does more than push data",
			tx: wire.MsgTx{
				Version: 1,
				TxIn: []*wire.TxIn{{
					PreviousOutPoint: dummyPrevOut,
					SignatureScript: []byte{
						txscript.OP_CHECKSIGVERIFY},
					Sequence: wire.MaxTxInSequenceNum,
				}},
				TxOut: []*wire.TxOut{&dummyTxOut},
			},
			reason: "scriptsig-not-pushonly",
			code:   wire.RejectNonstandard,
		},
		{
			name: "valid but non standard public key script",
			tx: wire.MsgTx{
				Version: 1,
				TxIn:    []*wire.TxIn{&dummyTxIn},
				TxOut: []*wire.TxOut{{
					Value:    100000000,
					PkScript: []byte{txscript.OP_TRUE},
				}},
			},
			reason: "scriptpubkey",
			code:   wire.RejectNonstandard,
		},
		{
			name: "dust output",
			tx: wire.MsgTx{
				Version: 1,
				TxIn:    []*wire.TxIn{&dummyTxIn},
				TxOut: []*wire.TxOut{{
					Value:    0,
					PkScript: dummyPkScript,
				}},
			},
			reason: "dust",
			code:   wire.RejectDust,
		},
		{
			name: "one null data output",
			tx: wire.MsgTx{
				Version: 1,
				TxIn:    []*wire.TxIn{&dummyTxIn},
				TxOut:   []*wire.TxOut{&dummyTxOut, nullData(0x01)},
			},
		},
		{
			name: "more than one null data output",
			tx: wire.MsgTx{
				Version: 1,
				TxIn:    []*wire.TxIn{&dummyTxIn},
				TxOut: []*wire.TxOut{&dummyTxOut, nullData(0x01),
					nullData(0x02)},
			},
			reason: "multi-op-return",
			code:   wire.RejectNonstandard,
		},
		{
			name: "allocation payload",
			tx: wire.MsgTx{
				Version: assetalloc.AllocationSend,
				TxIn:    []*wire.TxIn{&dummyTxIn},
				TxOut: []*wire.TxOut{&dummyTxOut,
					{PkScript: payload}},
			},
		},
		{
			name: "oversized payload outside an asset transaction",
			tx: wire.MsgTx{
				Version: 1,
				TxIn:    []*wire.TxIn{&dummyTxIn},
				TxOut: []*wire.TxOut{&dummyTxOut,
					{PkScript: payload}},
			},
			reason: "scriptpubkey",
			code:   wire.RejectNonstandard,
		},
	}

	for _, test := range tests {
		// Ensure standardness is as expected.
		err := CheckTransactionStandard(btcutil.NewTx(&test.tx),
			DefaultMinRelayTxFee)
		if test.reason == "" {
			require.NoError(t, err, test.name)
			continue
		}

		require.Error(t, err, test.name)
		require.True(t, IsRejectKind(err, RejectNotStandard), test.name)
		require.Equal(t, test.reason, RejectReason(err), test.name)
		code, _ := ErrToRejectErr(err)
		require.Equal(t, test.code, code, test.name)
	}
}
