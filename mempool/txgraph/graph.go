// Copyright (c) 2013-2025 The btcsuite developers
// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txgraph

import (
	"errors"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

var (
	// ErrEntryExists is returned when attempting to add a transaction
	// that is already in the graph.
	ErrEntryExists = errors.New("transaction already exists in graph")

	// ErrEntryNotFound is returned when a fingerprint is not in the graph.
	ErrEntryNotFound = errors.New("transaction not found in graph")
)

// Graph is the arena of pool entries.  Entries are keyed by fingerprint and
// linked through parent/child fingerprint sets, and each entry carries the
// aggregate state of its ancestor and descendant packages.
//
// Graph is not safe for concurrent access.  The owning pool serializes all
// calls under its own lock.
type Graph struct {
	entries map[chainhash.Hash]*Entry

	// spentBy maps an outpoint to the entries spending it in the order
	// they were added.  Only a tolerated duplicate shares a slot.
	spentBy map[wire.OutPoint][]chainhash.Hash

	index     *entryIndex
	totalSize int64
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		entries: make(map[chainhash.Hash]*Entry),
		spentBy: make(map[wire.OutPoint][]chainhash.Hash),
		index:   newEntryIndex(),
	}
}

// Len returns the number of entries.
func (g *Graph) Len() int {
	return len(g.entries)
}

// TotalSize returns the summed virtual size of all entries.
func (g *Graph) TotalSize() int64 {
	return g.totalSize
}

// Has reports whether the fingerprint is in the graph.
func (g *Graph) Has(hash *chainhash.Hash) bool {
	_, ok := g.entries[*hash]
	return ok
}

// Get returns the entry for the fingerprint, or nil.
func (g *Graph) Get(hash *chainhash.Hash) *Entry {
	return g.entries[*hash]
}

// Entries returns every entry in no particular order.
func (g *Graph) Entries() []*Entry {
	entries := make([]*Entry, 0, len(g.entries))
	for _, e := range g.entries {
		entries = append(entries, e)
	}
	return entries
}

// SpenderOf returns the first entry spending the outpoint, if any.
func (g *Graph) SpenderOf(op wire.OutPoint) (*Entry, bool) {
	hashes := g.spentBy[op]
	if len(hashes) == 0 {
		return nil, false
	}
	return g.entries[hashes[0]], true
}

// SpendersOf returns every entry spending the outpoint, first spender
// first.
func (g *Graph) SpendersOf(op wire.OutPoint) []*Entry {
	hashes := g.spentBy[op]
	if len(hashes) == 0 {
		return nil
	}
	spenders := make([]*Entry, 0, len(hashes))
	for _, hash := range hashes {
		spenders = append(spenders, g.entries[hash])
	}
	return spenders
}

// HasNoInputsOf reports whether tx spends no output of an in-pool
// transaction.
func (g *Graph) HasNoInputsOf(tx *btcutil.Tx) bool {
	for _, txIn := range tx.MsgTx().TxIn {
		if _, ok := g.entries[txIn.PreviousOutPoint.Hash]; ok {
			return false
		}
	}
	return true
}

// LowestScore returns the entry with the lowest descendant score, or nil for
// an empty graph.
func (g *Graph) LowestScore() *Entry {
	return g.index.lowestScore()
}

// OlderThan returns the entries accepted strictly before cutoff (unix
// nanoseconds), oldest first.
func (g *Graph) OlderThan(cutoff int64) []*Entry {
	return g.index.olderThan(cutoff)
}

// Add links e into the graph.  ancestors must be the set returned by
// CalculateAncestors for e; every ancestor has its descendant state
// credited with e.
func (g *Graph) Add(e *Entry, ancestors map[chainhash.Hash]*Entry) error {
	if _, ok := g.entries[e.hash]; ok {
		return ErrEntryExists
	}
	g.entries[e.hash] = e

	for _, txIn := range e.tx.MsgTx().TxIn {
		// A tolerated duplicate may spend an outpoint that is already
		// spent in the pool and queues behind the first spender.
		op := txIn.PreviousOutPoint
		g.spentBy[op] = append(g.spentBy[op], e.hash)
		parent, ok := g.entries[txIn.PreviousOutPoint.Hash]
		if !ok {
			continue
		}
		e.parents[parent.hash] = struct{}{}
		parent.children[e.hash] = struct{}{}
	}

	e.resetAncestorState()
	for _, ancestor := range ancestors {
		ancestor.updateDescendantState(e.size, e.modifiedFee, 1)
		g.index.rescore(ancestor)
		e.updateAncestorState(ancestor.size, ancestor.modifiedFee, 1,
			ancestor.sigOpCost)
	}

	g.index.insert(e)
	g.totalSize += e.size
	return nil
}

// CalculateDescendants adds the entry for hash and all of its in-pool
// descendants to set.  Entries already in set are not revisited.
func (g *Graph) CalculateDescendants(hash chainhash.Hash,
	set map[chainhash.Hash]*Entry) {

	root, ok := g.entries[hash]
	if !ok {
		return
	}
	if _, ok := set[hash]; ok {
		return
	}
	set[hash] = root

	stack := []*Entry{root}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for childHash := range e.children {
			if _, ok := set[childHash]; ok {
				continue
			}
			child := g.entries[childHash]
			set[childHash] = child
			stack = append(stack, child)
		}
	}
}

// Descendants returns the in-pool descendants of hash, excluding hash.
func (g *Graph) Descendants(hash chainhash.Hash) []*Entry {
	set := make(map[chainhash.Hash]*Entry)
	g.CalculateDescendants(hash, set)
	delete(set, hash)
	return entrySlice(set)
}

// Ancestors returns the in-pool ancestors of hash, excluding hash.
func (g *Graph) Ancestors(hash chainhash.Hash) []*Entry {
	e, ok := g.entries[hash]
	if !ok {
		return nil
	}
	ancestors, _ := g.CalculateAncestors(e, NoLimits(), false)
	return entrySlice(ancestors)
}

// RemoveStaged removes every entry in stage.  The ancestors of each removed
// entry have their descendant state reduced.  When updateDescendants is set,
// surviving descendants have their ancestor state reduced too; this is only
// needed when an entry leaves while its children stay, as on block
// confirmation.
//
// The removed entries are returned.
func (g *Graph) RemoveStaged(stage map[chainhash.Hash]*Entry,
	updateDescendants bool) []*Entry {

	if updateDescendants {
		for hash, removed := range stage {
			for _, desc := range g.Descendants(hash) {
				if _, ok := stage[desc.hash]; ok {
					continue
				}
				desc.updateAncestorState(-removed.size,
					-removed.modifiedFee, -1, -removed.sigOpCost)
			}
		}
	}

	for _, removed := range stage {
		ancestors, _ := g.CalculateAncestors(removed, NoLimits(), false)
		for _, ancestor := range ancestors {
			ancestor.updateDescendantState(-removed.size,
				-removed.modifiedFee, -1)
			if _, ok := stage[ancestor.hash]; !ok {
				g.index.rescore(ancestor)
			}
		}
	}

	removedEntries := make([]*Entry, 0, len(stage))
	for _, removed := range stage {
		g.removeUnchecked(removed)
		removedEntries = append(removedEntries, removed)
	}
	return removedEntries
}

func (g *Graph) removeUnchecked(e *Entry) {
	for parentHash := range e.parents {
		if parent, ok := g.entries[parentHash]; ok {
			delete(parent.children, e.hash)
		}
	}
	for childHash := range e.children {
		if child, ok := g.entries[childHash]; ok {
			delete(child.parents, e.hash)
		}
	}
	for _, txIn := range e.tx.MsgTx().TxIn {
		g.unspend(txIn.PreviousOutPoint, e.hash)
	}

	g.index.remove(e)
	g.totalSize -= e.size
	delete(g.entries, e.hash)
}

// unspend drops hash from the spenders of op.
func (g *Graph) unspend(op wire.OutPoint, hash chainhash.Hash) {
	hashes := g.spentBy[op]
	for i := range hashes {
		if hashes[i] != hash {
			continue
		}
		hashes = append(hashes[:i:i], hashes[i+1:]...)
		break
	}
	if len(hashes) == 0 {
		delete(g.spentBy, op)
		return
	}
	g.spentBy[op] = hashes
}

// RemoveRecursive removes tx and everything depending on it.  When tx itself
// is not in the graph, the in-pool spenders of its outputs and their
// descendants are removed instead.
func (g *Graph) RemoveRecursive(tx *btcutil.Tx) []*Entry {
	stage := make(map[chainhash.Hash]*Entry)
	hash := *tx.Hash()
	if _, ok := g.entries[hash]; ok {
		g.CalculateDescendants(hash, stage)
	} else {
		op := wire.OutPoint{Hash: hash}
		for i := range tx.MsgTx().TxOut {
			op.Index = uint32(i)
			for _, spender := range g.SpendersOf(op) {
				g.CalculateDescendants(spender.hash, stage)
			}
		}
	}
	return g.RemoveStaged(stage, false)
}

// RemoveConfirmed removes a transaction that was included in a block while
// leaving its descendants in place.  Descendants have their ancestor state
// reduced accordingly.
func (g *Graph) RemoveConfirmed(hash chainhash.Hash) *Entry {
	e, ok := g.entries[hash]
	if !ok {
		return nil
	}
	g.RemoveStaged(map[chainhash.Hash]*Entry{hash: e}, true)
	return e
}

// RemoveConflicts removes every in-pool spender of tx's inputs other than
// tx itself, along with their descendants.
func (g *Graph) RemoveConflicts(tx *btcutil.Tx) []*Entry {
	hash := *tx.Hash()
	stage := make(map[chainhash.Hash]*Entry)
	for _, txIn := range tx.MsgTx().TxIn {
		for _, spender := range g.SpendersOf(txIn.PreviousOutPoint) {
			if spender.hash == hash {
				continue
			}
			g.CalculateDescendants(spender.hash, stage)
		}
	}
	if len(stage) == 0 {
		return nil
	}
	return g.RemoveStaged(stage, false)
}

// UpdateModifiedFee applies a fee delta to the entry for hash and to the
// aggregate fee state of its relatives.
func (g *Graph) UpdateModifiedFee(hash chainhash.Hash, delta int64) error {
	e, ok := g.entries[hash]
	if !ok {
		return ErrEntryNotFound
	}

	e.feeDelta += delta
	e.modifiedFee += delta
	e.modFeesWithAncestors += delta
	e.modFeesWithDescendants += delta
	g.index.rescore(e)

	for _, ancestor := range g.Ancestors(hash) {
		ancestor.modFeesWithDescendants += delta
		g.index.rescore(ancestor)
	}
	for _, desc := range g.Descendants(hash) {
		desc.modFeesWithAncestors += delta
	}
	return nil
}

// UpdateTransactionsFromBlock links transactions that were re-added after a
// reorg to in-pool children that already spent their outputs, and rebuilds
// the aggregate state of every affected entry.
//
// Re-added entries are assumed to have been added without knowledge of
// their children.
func (g *Graph) UpdateTransactionsFromBlock(hashes []chainhash.Hash) {
	affected := make(map[chainhash.Hash]*Entry)
	for i := len(hashes) - 1; i >= 0; i-- {
		e, ok := g.entries[hashes[i]]
		if !ok {
			continue
		}

		op := wire.OutPoint{Hash: e.hash}
		for idx := range e.tx.MsgTx().TxOut {
			op.Index = uint32(idx)
			for _, child := range g.SpendersOf(op) {
				e.children[child.hash] = struct{}{}
				child.parents[e.hash] = struct{}{}
			}
		}
	}

	for _, hash := range hashes {
		e, ok := g.entries[hash]
		if !ok {
			continue
		}
		g.CalculateDescendants(hash, affected)
		for _, ancestor := range g.Ancestors(hash) {
			affected[ancestor.hash] = ancestor
		}
		affected[hash] = e
	}

	for hash, e := range affected {
		e.resetAncestorState()
		for _, ancestor := range g.Ancestors(hash) {
			e.updateAncestorState(ancestor.size, ancestor.modifiedFee,
				1, ancestor.sigOpCost)
		}
		e.resetDescendantState()
		for _, desc := range g.Descendants(hash) {
			e.updateDescendantState(desc.size, desc.modifiedFee, 1)
		}
		g.index.rescore(e)
	}

	log.Tracef("Rebuilt package state of %d entries for %d re-added "+
		"transactions", len(affected), len(hashes))
}

func entrySlice(set map[chainhash.Hash]*Entry) []*Entry {
	entries := make([]*Entry, 0, len(set))
	for _, e := range set {
		entries = append(entries, e)
	}
	return entries
}
