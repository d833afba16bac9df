// Copyright (c) 2016 The btcsuite developers
// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/mining"
)

const (
	// estimateFeeDepth is the maximum number of blocks before a transaction
	// is confirmed that we want to track.
	estimateFeeDepth = 25

	// estimateFeeBinSize is the number of txs stored in each bin.
	estimateFeeBinSize = 100

	// estimateFeeMaxReplacements is the max number of replacements that
	// can be made by the txs found in a given block.
	estimateFeeMaxReplacements = 10

	// DefaultEstimateFeeMaxRollback is the default number of calls to
	// Rollback the fee estimator can handle.
	DefaultEstimateFeeMaxRollback = 2

	// DefaultEstimateFeeMinRegisteredBlocks is the default minimum number
	// of blocks which must be observed before estimates are produced.
	DefaultEstimateFeeMinRegisteredBlocks = 3
)

var (
	// ErrNotEnoughBlocks is returned by EstimateFee until the minimum
	// number of blocks has been registered.
	ErrNotEnoughBlocks = errors.New("not enough blocks have been observed")

	// ErrNoSuchBlock is returned by Rollback for a block that was not
	// recently registered.
	ErrNoSuchBlock = errors.New("no such block was recently registered")
)

// observedTransaction is a pool transaction sampled for fee estimation.
type observedTransaction struct {
	hash    chainhash.Hash
	feeRate FeeRate

	// observed is the tip height when the transaction was admitted.
	observed int32

	// mined is the height of the block that confirmed the transaction,
	// or mining.UnminedHeight.
	mined int32
}

// registeredBlock is a registered block and the samples it evicted from the
// bins, kept so that Rollback can restore them.
type registeredBlock struct {
	hash    chainhash.Hash
	dropped []*observedTransaction
}

// FeeEstimator samples the fee rates of transactions admitted while the node
// is current and the number of blocks they take to confirm.  It is safe for
// concurrent access.
type FeeEstimator struct {
	mtx sync.Mutex

	maxRollback         uint32
	minRegisteredBlocks uint32
	binSize             int
	maxReplacements     int

	lastKnownHeight  int32
	numRegistered    uint32
	observed         map[chainhash.Hash]*observedTransaction
	bin              [estimateFeeDepth][]*observedTransaction
	registeredBlocks []registeredBlock

	// cached holds the estimates for 1..estimateFeeDepth blocks until the
	// bins change.
	cached []FeeRate
}

// NewFeeEstimator creates a FeeEstimator for which at most maxRollback blocks
// can be unregistered and which returns an error unless minRegisteredBlocks
// have been registered with it.
func NewFeeEstimator(maxRollback, minRegisteredBlocks uint32) *FeeEstimator {
	return &FeeEstimator{
		maxRollback:         maxRollback,
		minRegisteredBlocks: minRegisteredBlocks,
		binSize:             estimateFeeBinSize,
		maxReplacements:     estimateFeeMaxReplacements,
		lastKnownHeight:     mining.UnminedHeight,
		observed:            make(map[chainhash.Hash]*observedTransaction),
		registeredBlocks:    make([]registeredBlock, 0, maxRollback),
	}
}

// ObserveTransaction samples a transaction admitted to the pool.
func (ef *FeeEstimator) ObserveTransaction(desc *TxDesc) {
	ef.mtx.Lock()
	defer ef.mtx.Unlock()

	hash := *desc.Tx.Hash()
	if _, ok := ef.observed[hash]; ok {
		return
	}
	ef.observed[hash] = &observedTransaction{
		hash:     hash,
		feeRate:  NewFeeRate(desc.Fee, desc.VirtualSize),
		observed: desc.Height,
		mined:    mining.UnminedHeight,
	}
}

// RemoveTransaction forgets an unconfirmed sample.  It is called when a
// transaction leaves the pool without being mined.
func (ef *FeeEstimator) RemoveTransaction(hash *chainhash.Hash) {
	ef.mtx.Lock()
	if o, ok := ef.observed[*hash]; ok && o.mined == mining.UnminedHeight {
		delete(ef.observed, *hash)
	}
	ef.mtx.Unlock()
}

// RegisterBlock moves the samples confirmed by block into the bin of the
// number of blocks they waited.
func (ef *FeeEstimator) RegisterBlock(block *btcutil.Block) error {
	ef.mtx.Lock()
	defer ef.mtx.Unlock()

	ef.cached = nil

	height := block.Height()
	if ef.lastKnownHeight != mining.UnminedHeight &&
		height != ef.lastKnownHeight+1 {

		return fmt.Errorf("intermediate block not recorded; current "+
			"height is %d; new height is %d", ef.lastKnownHeight,
			height)
	}
	ef.lastKnownHeight = height
	ef.numRegistered++

	var replacements [estimateFeeDepth]int
	registered := registeredBlock{hash: *block.Hash()}
	for _, tx := range block.Transactions() {
		o, ok := ef.observed[*tx.Hash()]
		if !ok {
			continue
		}
		o.mined = height

		wait := height - o.observed - 1
		if wait < 0 || wait >= estimateFeeDepth {
			continue
		}
		if replacements[wait] == ef.maxReplacements {
			continue
		}
		replacements[wait]++

		// Replace a random sample once the bin is full.  Samples
		// placed by this block sit at the end and are not replaced.
		bin := ef.bin[wait]
		if len(bin) < ef.binSize {
			ef.bin[wait] = append(bin, o)
			continue
		}
		l := ef.binSize - replacements[wait]
		drop := rand.Intn(l)
		registered.dropped = append(registered.dropped, bin[drop])
		bin[drop] = bin[l-1]
		bin[l-1] = o
	}

	// Forget samples that waited longer than can be tracked.
	for hash, o := range ef.observed {
		if o.mined == mining.UnminedHeight &&
			height-o.observed >= estimateFeeDepth {

			delete(ef.observed, hash)
		}
	}

	if ef.maxRollback == 0 {
		return nil
	}
	if uint32(len(ef.registeredBlocks)) == ef.maxRollback {
		ef.registeredBlocks = ef.registeredBlocks[1:]
	}
	ef.registeredBlocks = append(ef.registeredBlocks, registered)
	return nil
}

// Rollback unregisters a recently registered block and every block
// registered after it.  Samples older than the tracking depth may have been
// forgotten, so the result is close to but not always exactly the state
// before the blocks were registered.
func (ef *FeeEstimator) Rollback(hash *chainhash.Hash) error {
	ef.mtx.Lock()
	defer ef.mtx.Unlock()

	n := -1
	for i := len(ef.registeredBlocks) - 1; i >= 0; i-- {
		if ef.registeredBlocks[i].hash == *hash {
			n = len(ef.registeredBlocks) - i
			break
		}
	}
	if n < 0 {
		return ErrNoSuchBlock
	}

	for i := 0; i < n; i++ {
		ef.rollback()
	}
	return nil
}

// rollback undoes the last registered block.
func (ef *FeeEstimator) rollback() {
	ef.cached = nil

	last := len(ef.registeredBlocks) - 1
	registered := ef.registeredBlocks[last]
	ef.registeredBlocks = ef.registeredBlocks[:last]
	ef.numRegistered--

	// Take the samples of the rolled back block out of the bins and put
	// back the ones they replaced.
	restore := make(map[int32][]*observedTransaction)
	for _, o := range registered.dropped {
		wait := o.mined - o.observed - 1
		restore[wait] = append(restore[wait], o)
	}
	for wait := range ef.bin {
		kept := ef.bin[wait][:0]
		for _, o := range ef.bin[wait] {
			if o.mined == ef.lastKnownHeight {
				o.mined = mining.UnminedHeight
				continue
			}
			kept = append(kept, o)
		}
		ef.bin[wait] = append(kept, restore[int32(wait)]...)
	}

	ef.lastKnownHeight--
}

// estimates returns the fee rate estimates for confirmation within 1 to
// estimateFeeDepth blocks.  Each estimate is the median rate of the samples
// that confirmed within that many blocks, highest rates first.
func (ef *FeeEstimator) estimates() []FeeRate {
	var rates []FeeRate
	var counts [estimateFeeDepth]int
	for i, bin := range ef.bin {
		counts[i] = len(bin)
		for _, o := range bin {
			rates = append(rates, o.feeRate)
		}
	}
	sort.Slice(rates, func(i, j int) bool { return rates[i] > rates[j] })

	estimates := make([]FeeRate, estimateFeeDepth)
	lo := 0
	for i := range estimates {
		hi := lo + counts[i]
		if hi > 0 {
			estimates[i] = rates[(lo+hi-1)/2]
		}
		lo = hi
	}
	return estimates
}

// EstimateFee estimates the fee rate needed to have a transaction confirmed
// within numBlocks blocks.
func (ef *FeeEstimator) EstimateFee(numBlocks uint32) (FeeRate, error) {
	ef.mtx.Lock()
	defer ef.mtx.Unlock()

	if ef.numRegistered < ef.minRegisteredBlocks {
		return -1, ErrNotEnoughBlocks
	}
	if numBlocks == 0 {
		return -1, errors.New("cannot confirm transaction in zero blocks")
	}
	if numBlocks > estimateFeeDepth {
		return -1, fmt.Errorf("can only estimate fees for up to %d "+
			"blocks from now", estimateFeeDepth)
	}

	if ef.cached == nil {
		ef.cached = ef.estimates()
	}
	return ef.cached[numBlocks-1], nil
}
