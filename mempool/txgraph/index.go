// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txgraph

import (
	"bytes"
	"math/bits"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/emirpasic/gods/trees/redblacktree"
)

// CompareFeeRates compares the fee rates feeA/sizeA and feeB/sizeB exactly,
// returning -1, 0 or 1.  Sizes must be positive; fees may be negative once
// priority deltas are applied.
func CompareFeeRates(feeA, sizeA, feeB, sizeB int64) int {
	// Cross multiply: feeA*sizeB <=> feeB*sizeA.
	return compareProducts(feeA, sizeB, feeB, sizeA)
}

// compareProducts compares a*b with c*d where b and d are non-negative,
// using 128-bit intermediates.
func compareProducts(a, b, c, d int64) int {
	signL, signR := sign(a), sign(c)
	if b == 0 {
		signL = 0
	}
	if d == 0 {
		signR = 0
	}
	if signL != signR {
		if signL < signR {
			return -1
		}
		return 1
	}
	if signL == 0 {
		return 0
	}

	hiL, loL := bits.Mul64(abs(a), uint64(b))
	hiR, loR := bits.Mul64(abs(c), uint64(d))
	cmp := 0
	switch {
	case hiL < hiR || (hiL == hiR && loL < loR):
		cmp = -1
	case hiL > hiR || (hiL == hiR && loL > loR):
		cmp = 1
	}

	// Larger magnitudes are smaller values when both sides are negative.
	if signL < 0 {
		return -cmp
	}
	return cmp
}

func sign(v int64) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}

func abs(v int64) uint64 {
	if v < 0 {
		return uint64(-v)
	}
	return uint64(v)
}

// scoreKey orders entries by descendant score: the better of the entry's own
// fee rate and the fee rate of its package with descendants.  The lowest
// score is evicted first.
type scoreKey struct {
	fee  int64
	size int64
	time int64
	hash chainhash.Hash
}

func (e *Entry) newScoreKey() scoreKey {
	fee, size := e.modifiedFee, e.size
	// Use the descendant fee rate when it beats the entry's own.
	if CompareFeeRates(e.modFeesWithDescendants, e.sizeWithDescendants,
		fee, size) > 0 {

		fee, size = e.modFeesWithDescendants, e.sizeWithDescendants
	}
	return scoreKey{
		fee:  fee,
		size: size,
		time: e.acceptTime.UnixNano(),
		hash: e.hash,
	}
}

// compareScoreKeys sorts ascending by score.  Equal scores put the newer
// entry first so it is evicted before older ones.
func compareScoreKeys(a, b interface{}) int {
	ka, kb := a.(scoreKey), b.(scoreKey)
	if cmp := CompareFeeRates(ka.fee, ka.size, kb.fee, kb.size); cmp != 0 {
		return cmp
	}
	switch {
	case ka.time > kb.time:
		return -1
	case ka.time < kb.time:
		return 1
	}
	return bytes.Compare(kb.hash[:], ka.hash[:])
}

// timeKey orders entries by acceptance time, oldest first.
type timeKey struct {
	time int64
	hash chainhash.Hash
}

func (e *Entry) newTimeKey() timeKey {
	return timeKey{time: e.acceptTime.UnixNano(), hash: e.hash}
}

func compareTimeKeys(a, b interface{}) int {
	ka, kb := a.(timeKey), b.(timeKey)
	switch {
	case ka.time < kb.time:
		return -1
	case ka.time > kb.time:
		return 1
	}
	return bytes.Compare(ka.hash[:], kb.hash[:])
}

// entryIndex keeps the ordered views of the pool that eviction needs.
type entryIndex struct {
	byScore *redblacktree.Tree
	byTime  *redblacktree.Tree
}

func newEntryIndex() *entryIndex {
	return &entryIndex{
		byScore: redblacktree.NewWith(compareScoreKeys),
		byTime:  redblacktree.NewWith(compareTimeKeys),
	}
}

func (idx *entryIndex) insert(e *Entry) {
	e.scoreKey = e.newScoreKey()
	e.timeKey = e.newTimeKey()
	idx.byScore.Put(e.scoreKey, e)
	idx.byTime.Put(e.timeKey, e)
}

func (idx *entryIndex) remove(e *Entry) {
	idx.byScore.Remove(e.scoreKey)
	idx.byTime.Remove(e.timeKey)
}

// rescore must be called whenever an entry's own or descendant fee state
// changes.
func (idx *entryIndex) rescore(e *Entry) {
	idx.byScore.Remove(e.scoreKey)
	e.scoreKey = e.newScoreKey()
	idx.byScore.Put(e.scoreKey, e)
}

func (idx *entryIndex) lowestScore() *Entry {
	node := idx.byScore.Left()
	if node == nil {
		return nil
	}
	return node.Value.(*Entry)
}

// olderThan returns the entries accepted strictly before cutoff (unix nanos),
// oldest first.
func (idx *entryIndex) olderThan(cutoff int64) []*Entry {
	var entries []*Entry
	it := idx.byTime.Iterator()
	for it.Next() {
		key := it.Key().(timeKey)
		if key.time >= cutoff {
			break
		}
		entries = append(entries, it.Value().(*Entry))
	}
	return entries
}
