// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txgraph

import (
	"encoding/binary"
	"sync/atomic"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// txCounter makes every generated transaction unique.
var txCounter uint64

// baseTime is the acceptance time of the first generated entry.
var baseTime = time.Unix(1700000000, 0)

// newTestTx returns a transaction spending inputs with numOutputs outputs.
// A counter embedded in each output script guarantees a unique hash.
func newTestTx(inputs []wire.OutPoint, numOutputs int) *btcutil.Tx {
	tx := wire.NewMsgTx(wire.TxVersion)
	for i := range inputs {
		tx.AddTxIn(wire.NewTxIn(&inputs[i], nil, nil))
	}
	for i := 0; i < numOutputs; i++ {
		pkScript := make([]byte, 8)
		binary.BigEndian.PutUint64(pkScript, atomic.AddUint64(&txCounter, 1))
		tx.AddTxOut(wire.NewTxOut(100000, pkScript))
	}
	return btcutil.NewTx(tx)
}

// confirmedOutPoint returns an outpoint that no pool entry can create.
func confirmedOutPoint() wire.OutPoint {
	var hash chainhash.Hash
	binary.BigEndian.PutUint64(hash[:], atomic.AddUint64(&txCounter, 1))
	hash[31] = 0xff
	return wire.OutPoint{Hash: hash, Index: 0}
}

// addEntry wraps tx in an entry and adds it to g without limits.
func addEntry(t require.TestingT, g *Graph, tx *btcutil.Tx, fee, size int64,
	accepted time.Time) *Entry {

	e := NewEntry(tx, fee, size, 4, accepted, 100, false, LockPoints{})
	ancestors, err := g.CalculateAncestors(e, NoLimits(), true)
	require.NoError(t, err)
	require.NoError(t, g.Add(e, ancestors))
	return e
}

// buildChain adds a chain of n entries, each spending output 0 of the
// previous one.
func buildChain(t *testing.T, g *Graph, n int, fee, size int64) []*Entry {
	entries := make([]*Entry, 0, n)
	prev := confirmedOutPoint()
	for i := 0; i < n; i++ {
		tx := newTestTx([]wire.OutPoint{prev}, 1)
		e := addEntry(t, g, tx, fee, size,
			baseTime.Add(time.Duration(i)*time.Second))
		entries = append(entries, e)
		prev = wire.OutPoint{Hash: *tx.Hash(), Index: 0}
	}
	return entries
}

// TestChainAggregates ensures ancestor and descendant aggregates follow a
// simple chain through additions and removals.
func TestChainAggregates(t *testing.T) {
	t.Parallel()

	g := New()
	chain := buildChain(t, g, 3, 1000, 200)
	a, b, c := chain[0], chain[1], chain[2]

	require.Equal(t, 3, g.Len())
	require.EqualValues(t, 600, g.TotalSize())

	require.EqualValues(t, 3, a.CountWithDescendants())
	require.EqualValues(t, 600, a.SizeWithDescendants())
	require.EqualValues(t, 3000, a.ModFeesWithDescendants())
	require.EqualValues(t, 1, a.CountWithAncestors())

	require.EqualValues(t, 2, b.CountWithAncestors())
	require.EqualValues(t, 2, b.CountWithDescendants())

	require.EqualValues(t, 3, c.CountWithAncestors())
	require.EqualValues(t, 600, c.SizeWithAncestors())
	require.EqualValues(t, 12, c.SigOpCostWithAncestors())
	require.Equal(t, []chainhash.Hash{*b.Hash()}, c.Parents())

	removed := g.RemoveRecursive(b.Tx())
	require.Len(t, removed, 2)
	require.Equal(t, 1, g.Len())
	require.False(t, g.Has(c.Hash()))
	require.EqualValues(t, 1, a.CountWithDescendants())
	require.EqualValues(t, 200, a.SizeWithDescendants())
	require.Empty(t, a.Children())

	_, spent := g.SpenderOf(wire.OutPoint{Hash: *a.Hash(), Index: 0})
	require.False(t, spent)
}

// TestRemoveConfirmedKeepsChildren ensures confirming the root of a chain
// leaves its descendants with reduced ancestor state.
func TestRemoveConfirmedKeepsChildren(t *testing.T) {
	t.Parallel()

	g := New()
	chain := buildChain(t, g, 3, 1000, 200)

	removed := g.RemoveConfirmed(*chain[0].Hash())
	require.Equal(t, chain[0], removed)
	require.Equal(t, 2, g.Len())

	require.EqualValues(t, 1, chain[1].CountWithAncestors())
	require.EqualValues(t, 200, chain[1].SizeWithAncestors())
	require.EqualValues(t, 2, chain[2].CountWithAncestors())
	require.Empty(t, chain[1].Parents())
	require.True(t, g.HasNoInputsOf(chain[1].Tx()))
	require.False(t, g.HasNoInputsOf(chain[2].Tx()))

	require.Nil(t, g.RemoveConfirmed(*chain[0].Hash()))
}

// TestRemoveRecursiveNotInPool ensures removing a transaction that is not in
// the pool evicts the in-pool spenders of its outputs.
func TestRemoveRecursiveNotInPool(t *testing.T) {
	t.Parallel()

	g := New()
	parent := newTestTx([]wire.OutPoint{confirmedOutPoint()}, 2)
	child := newTestTx([]wire.OutPoint{{Hash: *parent.Hash(), Index: 1}}, 1)
	addEntry(t, g, child, 1000, 200, baseTime)
	grandchild := newTestTx([]wire.OutPoint{{Hash: *child.Hash()}}, 1)
	addEntry(t, g, grandchild, 1000, 200, baseTime)

	removed := g.RemoveRecursive(parent)
	require.Len(t, removed, 2)
	require.Zero(t, g.Len())
	require.Zero(t, g.TotalSize())
}

// TestRemoveConflicts ensures in-pool spenders of a transaction's inputs are
// removed along with their descendants.
func TestRemoveConflicts(t *testing.T) {
	t.Parallel()

	g := New()
	shared := confirmedOutPoint()
	spender := newTestTx([]wire.OutPoint{shared}, 1)
	addEntry(t, g, spender, 1000, 200, baseTime)
	child := newTestTx([]wire.OutPoint{{Hash: *spender.Hash()}}, 1)
	addEntry(t, g, child, 1000, 200, baseTime)
	unrelated := newTestTx([]wire.OutPoint{confirmedOutPoint()}, 1)
	addEntry(t, g, unrelated, 1000, 200, baseTime)

	double := newTestTx([]wire.OutPoint{shared}, 1)
	removed := g.RemoveConflicts(double)
	require.Len(t, removed, 2)
	require.Equal(t, 1, g.Len())
	require.True(t, g.Has(unrelated.Hash()))
}

// TestSharedSpenders ensures every entry spending an outpoint stays indexed
// until it leaves the graph, and that conflicts remove all of them.
func TestSharedSpenders(t *testing.T) {
	t.Parallel()

	g := New()
	shared := confirmedOutPoint()
	first := addEntry(t, g, newTestTx([]wire.OutPoint{shared}, 1), 1000,
		200, baseTime)
	second := addEntry(t, g, newTestTx([]wire.OutPoint{shared}, 1), 1000,
		200, baseTime.Add(time.Second))

	spender, ok := g.SpenderOf(shared)
	require.True(t, ok)
	require.Equal(t, first, spender)
	require.Equal(t, []*Entry{first, second}, g.SpendersOf(shared))

	// Removing the first spender leaves the second indexed.
	g.RemoveRecursive(first.Tx())
	spender, ok = g.SpenderOf(shared)
	require.True(t, ok)
	require.Equal(t, second, spender)
	require.Equal(t, []*Entry{second}, g.SpendersOf(shared))

	// A conflict removes every remaining spender with its descendants.
	third := addEntry(t, g, newTestTx([]wire.OutPoint{shared}, 1), 1000,
		200, baseTime.Add(2*time.Second))
	child := newTestTx([]wire.OutPoint{{Hash: *third.Hash()}}, 1)
	addEntry(t, g, child, 1000, 200, baseTime.Add(3*time.Second))

	confirmed := newTestTx([]wire.OutPoint{shared}, 1)
	removed := g.RemoveConflicts(confirmed)
	require.Len(t, removed, 3)
	require.Zero(t, g.Len())
	require.Empty(t, g.SpendersOf(shared))
	_, ok = g.SpenderOf(shared)
	require.False(t, ok)
}

// TestCalculateAncestorsLimits ensures every package limit is reported with
// the matching kind.
func TestCalculateAncestorsLimits(t *testing.T) {
	t.Parallel()

	g := New()
	chain := buildChain(t, g, 3, 1000, 200)
	tip := chain[len(chain)-1]
	next := NewEntry(newTestTx([]wire.OutPoint{{Hash: *tip.Hash()}}, 1),
		1000, 200, 4, baseTime, 100, false, LockPoints{})

	tests := []struct {
		name   string
		limits Limits
		kind   LimitKind
	}{{
		name:   "ancestor count",
		limits: Limits{3, 10000, 100, 10000},
		kind:   LimitAncestorCount,
	}, {
		name:   "ancestor size",
		limits: Limits{100, 700, 100, 10000},
		kind:   LimitAncestorSize,
	}, {
		name:   "descendant count",
		limits: Limits{100, 10000, 3, 10000},
		kind:   LimitDescendantCount,
	}, {
		name:   "descendant size",
		limits: Limits{100, 10000, 100, 500},
		kind:   LimitDescendantSize,
	}}

	for _, test := range tests {
		_, err := g.CalculateAncestors(next, test.limits, true)
		require.Error(t, err, test.name)
		limitErr, ok := err.(*LimitError)
		require.True(t, ok, test.name)
		require.Equal(t, test.kind, limitErr.Kind, test.name)
	}

	ancestors, err := g.CalculateAncestors(next, Limits{4, 800, 4, 800}, true)
	require.NoError(t, err)
	require.Len(t, ancestors, 3)
}

// TestLowestScoreTieBreak ensures equal scores evict the newer entry first.
func TestLowestScoreTieBreak(t *testing.T) {
	t.Parallel()

	g := New()
	older := addEntry(t, g, newTestTx([]wire.OutPoint{confirmedOutPoint()}, 1),
		1000, 250, baseTime)
	newer := addEntry(t, g, newTestTx([]wire.OutPoint{confirmedOutPoint()}, 1),
		2000, 500, baseTime.Add(time.Minute))
	require.Equal(t, newer, g.LowestScore())

	cheap := addEntry(t, g, newTestTx([]wire.OutPoint{confirmedOutPoint()}, 1),
		100, 250, baseTime)
	require.Equal(t, cheap, g.LowestScore())

	// A high paying child lifts its parent's descendant score.
	addEntry(t, g, newTestTx([]wire.OutPoint{{Hash: *cheap.Hash()}}, 1),
		100000, 250, baseTime)
	require.Equal(t, newer, g.LowestScore())

	expired := g.OlderThan(baseTime.Add(time.Second).UnixNano())
	require.Len(t, expired, 3)
	require.NotContains(t, expired, newer)
	require.Contains(t, expired, older)
}

// TestUpdateModifiedFee ensures a fee delta reaches the aggregates of every
// relative and can reorder eviction.
func TestUpdateModifiedFee(t *testing.T) {
	t.Parallel()

	g := New()
	chain := buildChain(t, g, 3, 1000, 200)
	other := addEntry(t, g, newTestTx([]wire.OutPoint{confirmedOutPoint()}, 1),
		1200, 200, baseTime)
	require.Equal(t, chain[2], g.LowestScore())

	require.NoError(t, g.UpdateModifiedFee(*chain[1].Hash(), 5000))
	require.EqualValues(t, 5000, chain[1].FeeDelta())
	require.EqualValues(t, 6000, chain[1].ModifiedFee())
	require.EqualValues(t, 8000, chain[0].ModFeesWithDescendants())
	require.EqualValues(t, 8000, chain[2].ModFeesWithAncestors())
	require.Equal(t, chain[2], g.LowestScore())

	require.NoError(t, g.UpdateModifiedFee(*chain[2].Hash(), 1000))
	require.Equal(t, other, g.LowestScore())

	require.ErrorIs(t, g.UpdateModifiedFee(chainhash.Hash{}, 1),
		ErrEntryNotFound)
}

// TestUpdateTransactionsFromBlock ensures re-added transactions are linked to
// children that were already in the pool.
func TestUpdateTransactionsFromBlock(t *testing.T) {
	t.Parallel()

	g := New()
	parent := newTestTx([]wire.OutPoint{confirmedOutPoint()}, 1)
	child := addEntry(t, g, newTestTx(
		[]wire.OutPoint{{Hash: *parent.Hash()}}, 1), 1000, 200, baseTime)
	require.EqualValues(t, 1, child.CountWithAncestors())

	readded := addEntry(t, g, parent, 500, 300, baseTime)
	g.UpdateTransactionsFromBlock([]chainhash.Hash{*parent.Hash()})

	require.EqualValues(t, 2, readded.CountWithDescendants())
	require.EqualValues(t, 500, readded.SizeWithDescendants())
	require.EqualValues(t, 2, child.CountWithAncestors())
	require.EqualValues(t, 1500, child.ModFeesWithAncestors())
	require.Equal(t, []chainhash.Hash{*parent.Hash()}, child.Parents())
}

// TestCompareFeeRates ensures fee rate comparison is exact for values where
// a naive cross product would overflow.
func TestCompareFeeRates(t *testing.T) {
	t.Parallel()

	const big = int64(1) << 62
	require.Equal(t, 0, CompareFeeRates(1000, 250, 4000, 1000))
	require.Equal(t, 1, CompareFeeRates(1001, 250, 4000, 1000))
	require.Equal(t, -1, CompareFeeRates(-5, 10, 0, 10))
	require.Equal(t, 1, CompareFeeRates(-5, 10, -6, 10))
	require.Equal(t, 1, CompareFeeRates(big, big-1, big-1, big))
	require.Equal(t, -1, CompareFeeRates(-big, big-1, -big+1, big))
}

// checkAggregates recomputes every aggregate from the input links and
// compares it with the state the graph maintains incrementally.
func checkAggregates(t *rapid.T, g *Graph) {
	parentsOf := func(e *Entry) []*Entry {
		var parents []*Entry
		seen := make(map[chainhash.Hash]struct{})
		for _, txIn := range e.Tx().MsgTx().TxIn {
			hash := txIn.PreviousOutPoint.Hash
			if _, ok := seen[hash]; ok {
				continue
			}
			seen[hash] = struct{}{}
			if p := g.Get(&hash); p != nil {
				parents = append(parents, p)
			}
		}
		return parents
	}
	ancestorsOf := func(e *Entry) map[chainhash.Hash]*Entry {
		set := make(map[chainhash.Hash]*Entry)
		stack := parentsOf(e)
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if _, ok := set[*p.Hash()]; ok {
				continue
			}
			set[*p.Hash()] = p
			stack = append(stack, parentsOf(p)...)
		}
		return set
	}

	var totalSize int64
	entries := g.Entries()
	for _, e := range entries {
		totalSize += e.Size()

		ancestors := ancestorsOf(e)
		count, size, fees, sigOps := int64(1), e.Size(), e.ModifiedFee(),
			e.SigOpCost()
		for _, a := range ancestors {
			count++
			size += a.Size()
			fees += a.ModifiedFee()
			sigOps += a.SigOpCost()
		}
		require.Equal(t, count, e.CountWithAncestors())
		require.Equal(t, size, e.SizeWithAncestors())
		require.Equal(t, fees, e.ModFeesWithAncestors())
		require.Equal(t, sigOps, e.SigOpCostWithAncestors())

		count, size, fees = 1, e.Size(), e.ModifiedFee()
		for _, other := range entries {
			if _, ok := ancestorsOf(other)[*e.Hash()]; ok {
				count++
				size += other.Size()
				fees += other.ModifiedFee()
			}
		}
		require.Equal(t, count, e.CountWithDescendants())
		require.Equal(t, size, e.SizeWithDescendants())
		require.Equal(t, fees, e.ModFeesWithDescendants())

		require.Equal(t, e.newScoreKey(), e.scoreKey)
	}
	require.Equal(t, totalSize, g.TotalSize())

	if lowest := g.LowestScore(); lowest != nil {
		for _, e := range entries {
			require.LessOrEqual(t, compareScoreKeys(lowest.scoreKey,
				e.scoreKey), 0)
		}
	}
}

// TestGraphAggregatesProperty drives the graph with random additions,
// removals, confirmations and fee deltas and checks that the incremental
// aggregates always match a full recomputation.
func TestGraphAggregatesProperty(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		g := New()
		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			entries := g.Entries()
			action := rapid.IntRange(0, 9).Draw(t, "action")

			switch {
			case action < 6 || len(entries) == 0:
				var unspent []wire.OutPoint
				for _, e := range entries {
					for idx := range e.Tx().MsgTx().TxOut {
						op := wire.OutPoint{Hash: *e.Hash(),
							Index: uint32(idx)}
						if _, ok := g.SpenderOf(op); !ok {
							unspent = append(unspent, op)
						}
					}
				}

				inputs := []wire.OutPoint{confirmedOutPoint()}
				numParents := rapid.IntRange(0, 2).Draw(t, "parents")
				for j := 0; j < numParents && len(unspent) > 0; j++ {
					k := rapid.IntRange(0, len(unspent)-1).Draw(t, "input")
					inputs = append(inputs, unspent[k])
					unspent = append(unspent[:k], unspent[k+1:]...)
				}

				tx := newTestTx(inputs, rapid.IntRange(1, 3).Draw(t, "outputs"))
				fee := rapid.Int64Range(0, 100000).Draw(t, "fee")
				size := rapid.Int64Range(60, 5000).Draw(t, "size")
				offset := rapid.Int64Range(0, 1000).Draw(t, "time")
				addEntry(t, g, tx, fee, size,
					baseTime.Add(time.Duration(offset)*time.Second))

			case action < 8:
				k := rapid.IntRange(0, len(entries)-1).Draw(t, "victim")
				g.RemoveRecursive(entries[k].Tx())

			case action == 8:
				var roots []*Entry
				for _, e := range entries {
					if len(e.Parents()) == 0 {
						roots = append(roots, e)
					}
				}
				k := rapid.IntRange(0, len(roots)-1).Draw(t, "root")
				g.RemoveConfirmed(*roots[k].Hash())

			default:
				k := rapid.IntRange(0, len(entries)-1).Draw(t, "prioritise")
				delta := rapid.Int64Range(-5000, 5000).Draw(t, "delta")
				require.NoError(t, g.UpdateModifiedFee(*entries[k].Hash(),
					delta))
			}

			checkAggregates(t, g)
		}
	})
}
