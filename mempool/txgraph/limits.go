// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txgraph

import (
	"fmt"
	"math"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Limits bounds the package an entry may join.  Sizes are virtual bytes and
// counts include the entry itself.
type Limits struct {
	AncestorCount   int64
	AncestorSize    int64
	DescendantCount int64
	DescendantSize  int64
}

// NoLimits returns limits that never trigger.
func NoLimits() Limits {
	return Limits{
		AncestorCount:   math.MaxInt64,
		AncestorSize:    math.MaxInt64,
		DescendantCount: math.MaxInt64,
		DescendantSize:  math.MaxInt64,
	}
}

// LimitKind identifies which package limit was exceeded.
type LimitKind int

// These constants identify the package limits.
const (
	LimitParentCount LimitKind = iota
	LimitAncestorCount
	LimitAncestorSize
	LimitDescendantCount
	LimitDescendantSize
)

// LimitError describes a package limit violation.
type LimitError struct {
	Kind   LimitKind
	Limit  int64
	Detail string
}

// Error satisfies the error interface.
func (e *LimitError) Error() string {
	return e.Detail
}

func limitError(kind LimitKind, limit int64, format string,
	args ...interface{}) *LimitError {

	return &LimitError{Kind: kind, Limit: limit,
		Detail: fmt.Sprintf(format, args...)}
}

// CalculateAncestors returns the in-pool ancestors of e while enforcing the
// passed limits.  When searchForParents is set the parents are found from
// e's inputs, which is required for entries that are not yet in the graph.
// Otherwise the recorded parent links are used.
//
// Adding e must not push any ancestor past the descendant limits, and e's
// own ancestor package must stay within the ancestor limits.
func (g *Graph) CalculateAncestors(e *Entry, limits Limits,
	searchForParents bool) (map[chainhash.Hash]*Entry, error) {

	pending := make(map[chainhash.Hash]struct{})
	if searchForParents {
		for _, txIn := range e.tx.MsgTx().TxIn {
			parentHash := txIn.PreviousOutPoint.Hash
			if _, ok := g.entries[parentHash]; !ok {
				continue
			}
			pending[parentHash] = struct{}{}
			if int64(len(pending))+1 > limits.AncestorCount {
				return nil, limitError(LimitParentCount,
					limits.AncestorCount, "too many unconfirmed "+
						"parents [limit: %d]", limits.AncestorCount)
			}
		}
	} else {
		for parentHash := range e.parents {
			pending[parentHash] = struct{}{}
		}
	}

	ancestors := make(map[chainhash.Hash]*Entry)
	totalSizeWithAncestors := e.size
	for len(pending) > 0 {
		var hash chainhash.Hash
		for hash = range pending {
			break
		}
		delete(pending, hash)

		stage := g.entries[hash]
		ancestors[hash] = stage
		totalSizeWithAncestors += stage.size

		switch {
		case stage.sizeWithDescendants+e.size > limits.DescendantSize:
			return nil, limitError(LimitDescendantSize,
				limits.DescendantSize, "exceeds descendant size "+
					"limit for tx %v [limit: %d]", hash,
				limits.DescendantSize)

		case stage.countWithDescendants+1 > limits.DescendantCount:
			return nil, limitError(LimitDescendantCount,
				limits.DescendantCount, "too many descendants "+
					"for tx %v [limit: %d]", hash,
				limits.DescendantCount)

		case totalSizeWithAncestors > limits.AncestorSize:
			return nil, limitError(LimitAncestorSize,
				limits.AncestorSize, "exceeds ancestor size "+
					"limit [limit: %d]", limits.AncestorSize)
		}

		for parentHash := range stage.parents {
			if _, ok := ancestors[parentHash]; !ok {
				pending[parentHash] = struct{}{}
			}
		}
		if int64(len(pending)+len(ancestors))+1 > limits.AncestorCount {
			return nil, limitError(LimitAncestorCount,
				limits.AncestorCount, "too many unconfirmed "+
					"ancestors [limit: %d]", limits.AncestorCount)
		}
	}

	return ancestors, nil
}
