// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package scriptcheck

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

// signedSpend returns a view holding numInputs P2PKH outputs of a funding
// transaction and a transaction spending all of them, signed with a fixed
// key.
func signedSpend(t *testing.T, numInputs int) (*btcutil.Tx,
	*blockchain.UtxoViewpoint) {

	t.Helper()

	keyBytes, err := hex.DecodeString("700868df1838811ffbdf918fb482c1f7e" +
		"ad62db4b97bd7012c23e726485e577d")
	require.NoError(t, err)
	signKey, signPub := btcec.PrivKeyFromBytes(keyBytes)

	addr, err := btcutil.NewAddressPubKeyHash(
		btcutil.Hash160(signPub.SerializeCompressed()),
		&chaincfg.RegressionNetParams)
	require.NoError(t, err)
	payScript, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)

	funding := wire.NewMsgTx(wire.TxVersion)
	funding.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Hash: chainhash.Hash{1}},
		Sequence:         wire.MaxTxInSequenceNum,
	})
	for i := 0; i < numInputs; i++ {
		funding.AddTxOut(wire.NewTxOut(100000, payScript))
	}
	fundingTx := btcutil.NewTx(funding)

	view := blockchain.NewUtxoViewpoint()
	spend := wire.NewMsgTx(wire.TxVersion)
	for i := 0; i < numInputs; i++ {
		view.AddTxOut(fundingTx, uint32(i), 1)
		spend.AddTxIn(&wire.TxIn{
			PreviousOutPoint: wire.OutPoint{
				Hash:  *fundingTx.Hash(),
				Index: uint32(i),
			},
			Sequence: wire.MaxTxInSequenceNum,
		})
	}
	spend.AddTxOut(wire.NewTxOut(int64(numInputs)*90000, payScript))

	for i := range spend.TxIn {
		sigScript, err := txscript.SignatureScript(spend, i, payScript,
			txscript.SigHashAll, signKey, true)
		require.NoError(t, err)
		spend.TxIn[i].SignatureScript = sigScript
	}

	return btcutil.NewTx(spend), view
}

// TestVerifyValid ensures correctly signed inputs verify and that only calls
// asking for it populate the result cache.
func TestVerifyValid(t *testing.T) {
	t.Parallel()

	tx, view := signedSpend(t, 4)
	v := New(DefaultConfig())
	flags := txscript.StandardVerifyFlags

	require.NoError(t, v.Verify(tx, view, flags, false))
	require.False(t, v.Cached(tx, flags))

	require.NoError(t, v.Verify(tx, view, flags, true))
	require.True(t, v.Cached(tx, flags))

	// The result is keyed by the flags as well.
	require.False(t, v.Cached(tx, txscript.ScriptBip16))
}

// TestVerifyInvalid ensures a tampered signature is reported for the input
// carrying it and is never cached.
func TestVerifyInvalid(t *testing.T) {
	t.Parallel()

	tx, view := signedSpend(t, 3)
	msgTx := tx.MsgTx()

	// Swap the signature scripts of the first two inputs so that each
	// signature commits to the wrong input.
	msgTx.TxIn[0].SignatureScript, msgTx.TxIn[1].SignatureScript =
		msgTx.TxIn[1].SignatureScript, msgTx.TxIn[0].SignatureScript
	tx = btcutil.NewTx(msgTx)

	v := New(Config{Workers: 1, SigCacheMaxSize: 10, ResultCacheMaxSize: 10})
	err := v.Verify(tx, view, txscript.StandardVerifyFlags, true)
	require.Error(t, err)

	var verr *VerifyError
	require.True(t, errors.As(err, &verr))
	require.Contains(t, []int{0, 1}, verr.Input)
	require.False(t, v.Cached(tx, txscript.StandardVerifyFlags))
}

// TestVerifyMissingInput ensures an input absent from the view fails.
func TestVerifyMissingInput(t *testing.T) {
	t.Parallel()

	tx, _ := signedSpend(t, 1)
	v := New(DefaultConfig())
	err := v.Verify(tx, blockchain.NewUtxoViewpoint(),
		txscript.StandardVerifyFlags, true)

	var verr *VerifyError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, -1, verr.Input)
}
