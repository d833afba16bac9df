// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package utxocache

import (
	"errors"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/syscoin/sysd/database/engine"
)

// DefaultMaxSize is the default cache size, in bytes, above which
// FlushIfNeeded writes the cache to the engine.
const DefaultMaxSize = 450 * 1024 * 1024

// entryOverhead approximates the memory held by a cached entry besides its
// script.
const entryOverhead = 96

// cacheEntry is a cached output.  modified entries differ from the engine.
type cacheEntry struct {
	entry    *blockchain.UtxoEntry
	modified bool
}

func (e *cacheEntry) memUsage() int64 {
	return entryOverhead + int64(len(e.entry.PkScript()))
}

// Cache is an in-memory cache of unspent outputs over an engine.  It is safe
// for concurrent access.
type Cache struct {
	mtx       sync.Mutex
	db        engine.Engine
	maxSize   int64
	entries   map[wire.OutPoint]*cacheEntry
	totalSize int64
}

// New returns a cache over db that FlushIfNeeded flushes once it holds more
// than maxSize bytes.
func New(db engine.Engine, maxSize int64) *Cache {
	return &Cache{
		db:      db,
		maxSize: maxSize,
		entries: make(map[wire.OutPoint]*cacheEntry),
	}
}

// FetchEntry returns the unspent output for op, reading it into the cache
// from the engine when needed.  It returns nil when the output does not
// exist or is spent.
func (c *Cache) FetchEntry(op wire.OutPoint) (*blockchain.UtxoEntry, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if ce, ok := c.entries[op]; ok {
		if ce.entry.IsSpent() {
			return nil, nil
		}
		return ce.entry.Clone(), nil
	}

	snapshot, err := c.db.Snapshot()
	if err != nil {
		return nil, err
	}
	defer snapshot.Release()

	serialized, err := snapshot.Get(coinKey(op))
	if errors.Is(err, engine.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	entry, err := decodeCoin(serialized)
	if err != nil {
		return nil, fmt.Errorf("corrupt coin %v: %w", op, err)
	}

	c.insert(op, &cacheEntry{entry: entry})
	return entry.Clone(), nil
}

// HaveCoinInCache reports whether an unspent output for op is held in
// memory.
func (c *Cache) HaveCoinInCache(op wire.OutPoint) bool {
	c.mtx.Lock()
	ce, ok := c.entries[op]
	c.mtx.Unlock()
	return ok && !ce.entry.IsSpent()
}

// Uncache drops the entry for op unless it holds changes not yet flushed.
func (c *Cache) Uncache(op wire.OutPoint) {
	c.mtx.Lock()
	if ce, ok := c.entries[op]; ok && !ce.modified {
		c.remove(op, ce)
	}
	c.mtx.Unlock()
}

// AddCoin records output idx of tx as unspent at height.
func (c *Cache) AddCoin(tx *btcutil.Tx, idx uint32, height int32) {
	txOut := tx.MsgTx().TxOut[idx]
	op := wire.OutPoint{Hash: *tx.Hash(), Index: idx}
	entry := blockchain.NewUtxoEntry(txOut, height, blockchain.IsCoinBase(tx))

	c.mtx.Lock()
	if old, ok := c.entries[op]; ok {
		c.remove(op, old)
	}
	c.insert(op, &cacheEntry{entry: entry, modified: true})
	c.mtx.Unlock()
}

// SpendCoin marks op as spent.  Spending an output not in the cache records
// the spend so that the next flush deletes it from the engine.
func (c *Cache) SpendCoin(op wire.OutPoint) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	ce, ok := c.entries[op]
	if !ok {
		entry := blockchain.NewUtxoEntry(&wire.TxOut{}, 0, false)
		entry.Spend()
		c.insert(op, &cacheEntry{entry: entry, modified: true})
		return
	}
	ce.entry.Spend()
	ce.modified = true
}

// ConnectBlock spends the inputs and adds the outputs of every transaction
// in block.
func (c *Cache) ConnectBlock(block *btcutil.Block) {
	for _, tx := range block.Transactions() {
		if !blockchain.IsCoinBase(tx) {
			for _, txIn := range tx.MsgTx().TxIn {
				c.SpendCoin(txIn.PreviousOutPoint)
			}
		}
		for idx := range tx.MsgTx().TxOut {
			c.AddCoin(tx, uint32(idx), block.Height())
		}
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return len(c.entries)
}

// Size returns the approximate memory held by the cache in bytes.
func (c *Cache) Size() int64 {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.totalSize
}

// Flush writes the modified entries to the engine and empties the cache.
func (c *Cache) Flush() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.flush()
}

// FlushIfNeeded flushes the cache when it holds more than its maximum size.
func (c *Cache) FlushIfNeeded() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.totalSize <= c.maxSize {
		return nil
	}
	return c.flush()
}

// flush writes the modified entries in a single engine transaction.
//
// This function MUST be called with the cache lock held.
func (c *Cache) flush() error {
	tx, err := c.db.Transaction()
	if err != nil {
		return err
	}
	defer tx.Discard()

	var written, deleted int
	for op, ce := range c.entries {
		if !ce.modified {
			continue
		}
		if ce.entry.IsSpent() {
			err = tx.Delete(coinKey(op))
			deleted++
		} else {
			err = tx.Put(coinKey(op), encodeCoin(ce.entry))
			written++
		}
		if err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	log.Tracef("Flushed coin cache: %d written, %d deleted, %d bytes "+
		"released", written, deleted, c.totalSize)

	c.entries = make(map[wire.OutPoint]*cacheEntry)
	c.totalSize = 0
	return nil
}

func (c *Cache) insert(op wire.OutPoint, ce *cacheEntry) {
	c.entries[op] = ce
	c.totalSize += ce.memUsage()
}

func (c *Cache) remove(op wire.OutPoint, ce *cacheEntry) {
	delete(c.entries, op)
	c.totalSize -= ce.memUsage()
}
