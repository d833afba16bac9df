// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"bytes"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btclog"
	"github.com/stretchr/testify/require"
)

// verifierFunc adapts a function to the ScriptVerifier interface.
type verifierFunc func(flags txscript.ScriptFlags) error

// Verify calls f with the requested flags.
func (f verifierFunc) Verify(_ *btcutil.Tx, _ *blockchain.UtxoViewpoint,
	flags txscript.ScriptFlags, _ bool) error {

	return f(flags)
}

// failWith returns a verifier failing whenever any of the given flags is
// requested.
func failWith(flags txscript.ScriptFlags) verifierFunc {
	return func(requested txscript.ScriptFlags) error {
		if requested&flags != 0 {
			return errors.New("script failed")
		}
		return nil
	}
}

// withVerifier replaces the script verifier of the harness pool.
func withVerifier(v ScriptVerifier) func(*Config) {
	return func(cfg *Config) {
		cfg.Verifier = v
	}
}

// TestPolicyScriptFailures ensures script failures are classified by the
// reduced flag sets the transaction still passes under.
func TestPolicyScriptFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		verifier verifierFunc
		kind     RejectKind
		code     wire.RejectCode
		reason   string
	}{{
		name:     "stripped witness",
		verifier: failWith(txscript.ScriptVerifyWitness),
		kind:     RejectWitnessMutated,
		code:     wire.RejectNonstandard,
		reason:   "non-mandatory-script-verify-flag",
	}, {
		name:     "clean stack",
		verifier: failWith(txscript.ScriptVerifyCleanStack),
		kind:     RejectNotStandard,
		code:     wire.RejectNonstandard,
		reason:   "non-mandatory-script-verify-flag",
	}, {
		name:     "upgradable nops",
		verifier: failWith(txscript.ScriptDiscourageUpgradableNops),
		kind:     RejectNotStandard,
		code:     wire.RejectNonstandard,
		reason:   "non-mandatory-script-verify-flag",
	}, {
		name:     "mandatory",
		verifier: failWith(mandatoryScriptFlags),
		kind:     RejectConsensus,
		code:     wire.RejectInvalid,
		reason:   "mandatory-script-verify-flag-failed",
	}}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			h := newPoolHarness(t, DefaultPolicy(),
				withVerifier(test.verifier))
			outs := h.fund(1, 100000)
			tx := h.spend(outs[0], 1000)

			_, err := h.txPool.AcceptToMemoryPool(tx, false, 0, false)
			requireRejected(t, err, test.kind, test.reason)
			code, _ := extractRejectCode(err)
			require.Equal(t, test.code, code)
			require.Zero(t, h.txPool.Count())
			require.Empty(t, h.chain.cachedSet())
		})
	}
}

// TestConsensusFlagsDisagree ensures a transaction passing the standard
// flags but failing the flags of the tip is refused as an internal error
// and logged as a bug.
func TestConsensusFlagsDisagree(t *testing.T) {
	// The package logger is swapped, so this test must not run in
	// parallel with the others.
	var buf bytes.Buffer
	UseLogger(btclog.NewBackend(&buf).Logger("TXMP"))
	defer DisableLog()

	const tipOnly = txscript.ScriptVerifySigPushOnly
	require.Zero(t, txscript.StandardVerifyFlags&tipOnly)

	h := newPoolHarness(t, DefaultPolicy(), withVerifier(failWith(tipOnly)),
		func(cfg *Config) {
			cfg.ScriptFlags = func() txscript.ScriptFlags {
				return txscript.StandardVerifyFlags | tipOnly
			}
		})
	outs := h.fund(1, 100000)
	tx := h.spend(outs[0], 1000)

	_, err := h.txPool.AcceptToMemoryPool(tx, false, 0, false)
	requireRejected(t, err, RejectInternalInvariant,
		"consensus-script-verify-flag-failed")
	require.Zero(t, h.txPool.Count())
	require.Empty(t, h.chain.cachedSet())
	require.Contains(t, buf.String(), "BUG! PLEASE REPORT THIS!")
	require.Contains(t, buf.String(), tx.Hash().String())
}

// TestMempoolFullUncachesCoins ensures a transaction evicted by the trim
// that follows its own admission fails with "mempool full" and leaves the
// coins it fetched uncached.
func TestMempoolFullUncachesCoins(t *testing.T) {
	t.Parallel()

	policy := DefaultPolicy()
	policy.MaxMempoolSize = 2 * oneInOneOutSize
	h := newPoolHarness(t, policy)
	recorder := recordNotifications(h.txPool)
	outs := h.fund(3, 100000)

	h.accept(t, h.spend(outs[0], 10000))
	h.accept(t, h.spend(outs[1], 10000))

	tx := h.spend(outs[2], 200)
	_, err := h.txPool.AcceptToMemoryPool(tx, false, 0, false)
	requireRejected(t, err, RejectMempoolPolicy, "mempool full")
	code, _ := extractRejectCode(err)
	require.Equal(t, wire.RejectInsufficientFee, code)

	requireInPool(t, h, tx, false)
	require.Equal(t, 2, h.txPool.Count())
	require.False(t, h.chain.HaveCoinInCache(outs[2].outPoint))
	require.True(t, h.chain.HaveCoinInCache(outs[0].outPoint))
	require.True(t, h.chain.HaveCoinInCache(outs[1].outPoint))

	reason, ok := recorder.reason(tx.Hash())
	require.True(t, ok)
	require.Equal(t, RemovalSizeLimit, reason)
}
