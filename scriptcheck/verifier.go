// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package scriptcheck

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"runtime"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/decred/dcrd/lru"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultSigCacheMaxSize is the default number of signatures held by
	// the signature cache.
	DefaultSigCacheMaxSize = 100000

	// DefaultResultCacheMaxSize is the default number of successful
	// verifications remembered.
	DefaultResultCacheMaxSize = 100000
)

// VerifyError is returned when the script of an input fails to verify.
type VerifyError struct {
	Input int
	Err   error
}

// Error satisfies the error interface and prints human-readable errors.
func (e *VerifyError) Error() string {
	return fmt.Sprintf("input %d: %v", e.Input, e.Err)
}

// Unwrap returns the underlying script error.
func (e *VerifyError) Unwrap() error {
	return e.Err
}

// Config holds the tunables of a Verifier.
type Config struct {
	// Workers bounds the number of inputs verified concurrently.  Zero
	// means runtime.NumCPU().
	Workers int

	// SigCacheMaxSize is the capacity of the signature cache.
	SigCacheMaxSize uint

	// ResultCacheMaxSize is the capacity of the result cache.
	ResultCacheMaxSize uint
}

// DefaultConfig returns the default verifier configuration.
func DefaultConfig() Config {
	return Config{
		Workers:            runtime.NumCPU(),
		SigCacheMaxSize:    DefaultSigCacheMaxSize,
		ResultCacheMaxSize: DefaultResultCacheMaxSize,
	}
}

// Verifier verifies transaction input scripts.  It is safe for concurrent
// access.
type Verifier struct {
	workers  int
	sigCache *txscript.SigCache
	results  lru.Cache
}

// New returns a verifier using cfg.
func New(cfg Config) *Verifier {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Verifier{
		workers:  workers,
		sigCache: txscript.NewSigCache(cfg.SigCacheMaxSize),
		results:  lru.NewCache(cfg.ResultCacheMaxSize),
	}
}

// resultKey returns the cache key of a verification of tx under flags.
func resultKey(tx *btcutil.Tx, flags txscript.ScriptFlags) chainhash.Hash {
	wtxid := tx.MsgTx().WitnessHash()

	var buf [chainhash.HashSize + 4]byte
	copy(buf[:], wtxid[:])
	binary.LittleEndian.PutUint32(buf[chainhash.HashSize:], uint32(flags))
	return sha256.Sum256(buf[:])
}

// Cached reports whether a successful verification of tx under flags is
// remembered.
func (v *Verifier) Cached(tx *btcutil.Tx, flags txscript.ScriptFlags) bool {
	return v.results.Contains(resultKey(tx, flags))
}

// Verify executes the script of every input of tx against the output it
// spends in view under flags.  A remembered success returns immediately.
// When cacheResult is set a success is remembered.
//
// A failing input is returned as a *VerifyError.
func (v *Verifier) Verify(tx *btcutil.Tx, view *blockchain.UtxoViewpoint,
	flags txscript.ScriptFlags, cacheResult bool) error {

	key := resultKey(tx, flags)
	if v.results.Contains(key) {
		log.Tracef("Script cache hit for %v", tx.Hash())
		return nil
	}

	msgTx := tx.MsgTx()
	prevOuts := txscript.NewMultiPrevOutFetcher(nil)
	for _, txIn := range msgTx.TxIn {
		entry := view.LookupEntry(txIn.PreviousOutPoint)
		if entry == nil || entry.IsSpent() {
			return &VerifyError{
				Input: -1,
				Err: fmt.Errorf("output %v referenced from "+
					"transaction %v is missing or spent",
					txIn.PreviousOutPoint, tx.Hash()),
			}
		}
		prevOuts.AddPrevOut(txIn.PreviousOutPoint, &wire.TxOut{
			Value:    entry.Amount(),
			PkScript: entry.PkScript(),
		})
	}
	sigHashes := txscript.NewTxSigHashes(msgTx, prevOuts)

	var g errgroup.Group
	g.SetLimit(v.workers)
	for i, txIn := range msgTx.TxIn {
		i, prevOut := i, prevOuts.FetchPrevOutput(txIn.PreviousOutPoint)
		g.Go(func() error {
			vm, err := txscript.NewEngine(prevOut.PkScript, msgTx, i,
				flags, v.sigCache, sigHashes, prevOut.Value,
				prevOuts)
			if err != nil {
				return &VerifyError{Input: i, Err: err}
			}
			if err := vm.Execute(); err != nil {
				return &VerifyError{Input: i, Err: err}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if cacheResult {
		v.results.Add(key)
	}
	return nil
}
