// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/mining"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/syscoin/sysd/assetalloc"
	"github.com/syscoin/sysd/mempool/txgraph"
)

// Config is a descriptor containing the memory pool configuration.
type Config struct {
	// Policy defines the various mempool configuration options related
	// to policy.
	Policy Policy

	// ChainParams identifies which chain parameters the txpool is
	// associated with.
	ChainParams *chaincfg.Params

	// CoinCache is the durable unspent output cache used to resolve
	// inputs.
	CoinCache CoinCache

	// BestHeight defines the function to use to access the block height of
	// the current best chain.
	BestHeight func() int32

	// MedianTimePast defines the function to use in order to access the
	// median time past calculated from the point-of-view of the current
	// chain tip within the best chain.
	MedianTimePast func() time.Time

	// CalcSequenceLock defines the function to use in order to generate
	// the current sequence lock for the given transaction using the passed
	// utxo view.
	CalcSequenceLock func(*btcutil.Tx, *blockchain.UtxoViewpoint) (*blockchain.SequenceLock, error)

	// ScriptFlags returns the script flags enforced by the next block on
	// top of the current tip.
	ScriptFlags func() txscript.ScriptFlags

	// IsCurrent reports whether the chain is synced to the network.  Only
	// transactions admitted while current are sampled for fee
	// estimation.  Defaults to always current.
	IsCurrent func() bool

	// Now returns the current time.  Defaults to time.Now.
	Now func() time.Time

	// Verifier verifies input scripts.
	Verifier ScriptVerifier

	// Checker validates asset transactions.  Defaults to a new
	// assetalloc.Checker.
	Checker AssetChecker

	// Tolerance records the tolerated asset allocation double spends.
	// Defaults to a set sized by Policy.MaxDoubleSpendTolerance.
	Tolerance *assetalloc.ToleranceSet

	// FeeEstimator, when set, samples the transactions admitted while the
	// chain is current.
	FeeEstimator *FeeEstimator

	// Metrics, when set, records admission outcomes and pool gauges.
	Metrics *Metrics

	// Throttle gates admission attempts.  Defaults to a throttle backed
	// by Policy.MaxSchedulable and Policy.AcceptWindow.
	Throttle Throttle
}

// TxDesc is a descriptor containing a transaction in the mempool along with
// additional metadata.
type TxDesc struct {
	mining.TxDesc

	// VirtualSize is the virtual size of the transaction.
	VirtualSize int64

	// ModifiedFee is the fee including any priority delta.
	ModifiedFee int64

	// Package state at the time the descriptor was made.
	AncestorCount   int64
	AncestorSize    int64
	DescendantCount int64
	DescendantSize  int64

	// Replaced holds the transactions evicted by admitting this one.
	Replaced []*btcutil.Tx
}

// newTxDesc returns a descriptor for the pool entry e.
func newTxDesc(e *txgraph.Entry) *TxDesc {
	return &TxDesc{
		TxDesc: mining.TxDesc{
			Tx:       e.Tx(),
			Added:    e.Time(),
			Height:   e.Height(),
			Fee:      e.Fee(),
			FeePerKB: int64(NewFeeRate(e.Fee(), e.Size())),
		},
		VirtualSize:     e.Size(),
		ModifiedFee:     e.ModifiedFee(),
		AncestorCount:   e.CountWithAncestors(),
		AncestorSize:    e.SizeWithAncestors(),
		DescendantCount: e.CountWithDescendants(),
		DescendantSize:  e.SizeWithDescendants(),
	}
}

// outboxItem is a tolerated double spend queued for removal once the chain
// tip median time passes medianTime.
type outboxItem struct {
	hash       chainhash.Hash
	medianTime time.Time
}

// TxPool is used as a source of transactions that need to be mined into blocks
// and relayed to other peers.  It is safe for concurrent access from multiple
// peers.
type TxPool struct {
	// The following variables must only be used atomically.
	lastUpdated int64 // last time pool was updated

	mtx    sync.RWMutex
	cfg    Config
	graph  *txgraph.Graph
	deltas map[chainhash.Hash]int64
	outbox []outboxItem

	// Rolling minimum fee state in sat/kvB.
	rollingMinimumFeeRate        float64
	lastRollingFeeUpdate         int64
	blockSinceLastRollingFeeBump bool

	notificationsLock sync.RWMutex
	notifications     []NotificationCallback
}

// Ensure the TxPool type implements the mining.TxSource interface.
var _ mining.TxSource = (*TxPool)(nil)

// New returns a new memory pool for validating and storing standalone
// transactions until they are mined into a block.  It returns an error
// wrapping ErrMissingConfig when a required field is not set.
func New(cfg *Config) (*TxPool, error) {
	switch {
	case cfg.ChainParams == nil:
		return nil, fmt.Errorf("%w: ChainParams", ErrMissingConfig)
	case cfg.CoinCache == nil:
		return nil, fmt.Errorf("%w: CoinCache", ErrMissingConfig)
	case cfg.BestHeight == nil:
		return nil, fmt.Errorf("%w: BestHeight", ErrMissingConfig)
	case cfg.MedianTimePast == nil:
		return nil, fmt.Errorf("%w: MedianTimePast", ErrMissingConfig)
	case cfg.CalcSequenceLock == nil:
		return nil, fmt.Errorf("%w: CalcSequenceLock", ErrMissingConfig)
	case cfg.ScriptFlags == nil:
		return nil, fmt.Errorf("%w: ScriptFlags", ErrMissingConfig)
	case cfg.Verifier == nil:
		return nil, fmt.Errorf("%w: Verifier", ErrMissingConfig)
	}

	mp := &TxPool{
		cfg:    *cfg,
		graph:  txgraph.New(),
		deltas: make(map[chainhash.Hash]int64),
	}
	if mp.cfg.IsCurrent == nil {
		mp.cfg.IsCurrent = func() bool { return true }
	}
	if mp.cfg.Now == nil {
		mp.cfg.Now = time.Now
	}
	if mp.cfg.Checker == nil {
		mp.cfg.Checker = assetalloc.NewChecker()
	}
	if mp.cfg.Tolerance == nil {
		mp.cfg.Tolerance = assetalloc.NewToleranceSet(
			mp.cfg.Policy.MaxDoubleSpendTolerance)
	}
	if mp.cfg.Throttle == nil {
		mp.cfg.Throttle = &policyThrottle{
			policy: &mp.cfg.Policy,
			now:    mp.cfg.Now,
		}
	}
	mp.lastRollingFeeUpdate = mp.cfg.Now().Unix()
	return mp, nil
}

// TryAdmit validates tx and, unless testAccept is set, commits it to the
// pool with the given acceptance time.
//
// bypassLimits skips the fee floors and the size and expiry trimming, as
// used for transactions of disconnected blocks.  A positive absurdFee
// rejects transactions paying more than that many satoshi.  testAccept
// runs every check but leaves the pool untouched.
//
// Rule violations are returned as a RuleError.  ErrAdmissionThrottled is
// returned without doing any work when the throttle refuses the attempt.
//
// This function is safe for concurrent access.
func (mp *TxPool) TryAdmit(tx *btcutil.Tx, acceptTime time.Time,
	bypassLimits bool, absurdFee int64, testAccept bool) (*TxDesc, error) {

	start := time.Now()
	mp.mtx.Lock()
	desc, err := mp.tryAdmit(tx, &admitArgs{
		acceptTime:   acceptTime,
		bypassLimits: bypassLimits,
		absurdFee:    absurdFee,
		testAccept:   testAccept,
	})
	mp.mtx.Unlock()
	mp.cfg.Metrics.recordAdmission(err, time.Since(start))

	return desc, err
}

// AcceptToMemoryPool is TryAdmit with the current time as acceptance time.
//
// This function is safe for concurrent access.
func (mp *TxPool) AcceptToMemoryPool(tx *btcutil.Tx, bypassLimits bool,
	absurdFee int64, testAccept bool) (*TxDesc, error) {

	return mp.TryAdmit(tx, mp.cfg.Now(), bypassLimits, absurdFee, testAccept)
}

// tryAdmit is the internal function which implements the public TryAdmit.
// Outputs pulled into the coin cache by a failed attempt are uncached, and
// the cache is flushed when it has grown past its limit.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) tryAdmit(tx *btcutil.Tx, args *admitArgs) (*TxDesc, error) {
	if !schedulable(mp.cfg.Throttle, mp.graph.Len(), args.acceptTime) {
		log.Tracef("Throttled admission of %v", tx.Hash())
		return nil, ErrAdmissionThrottled
	}

	ws := newWorkspace(tx, mp.cfg.Policy.Limits)
	desc, err := mp.acceptSingleTransaction(args, ws)
	if err != nil {
		for _, op := range ws.coinsToUncache {
			mp.cfg.CoinCache.Uncache(op)
		}
	}

	if ferr := mp.cfg.CoinCache.FlushIfNeeded(); ferr != nil {
		log.Warnf("Unable to flush coin cache: %v", ferr)
	}
	return desc, err
}

// acceptSingleTransaction runs the admission steps in order and commits the
// transaction unless only testing acceptance.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) acceptSingleTransaction(args *admitArgs,
	ws *workspace) (*TxDesc, error) {

	if err := mp.preChecks(args, ws); err != nil {
		return nil, err
	}
	if err := mp.policyScriptChecks(ws); err != nil {
		return nil, err
	}
	if err := mp.consensusScriptChecks(args, ws); err != nil {
		return nil, err
	}

	desc := newTxDesc(ws.entry)
	if args.testAccept {
		return desc, nil
	}

	if err := mp.finalize(args, ws, desc); err != nil {
		return nil, err
	}

	mp.sendNotification(NTTxAccepted, &NTTxAcceptedData{
		Tx:       ws.tx,
		UtxoView: ws.view,
		Desc:     desc,
	})
	return desc, nil
}

// HaveTransaction returns whether or not the passed transaction already
// exists in the pool.
//
// This function is safe for concurrent access.
func (mp *TxPool) HaveTransaction(hash *chainhash.Hash) bool {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()
	return mp.graph.Has(hash)
}

// HaveAllTransactions returns whether or not all of the passed transaction
// hashes exist in the pool.
//
// This function is safe for concurrent access.
func (mp *TxPool) HaveAllTransactions(hashes []chainhash.Hash) bool {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	for i := range hashes {
		if !mp.graph.Has(&hashes[i]) {
			return false
		}
	}
	return true
}

// FetchTransaction returns the requested transaction from the transaction
// pool.
//
// This function is safe for concurrent access.
func (mp *TxPool) FetchTransaction(txHash *chainhash.Hash) (*btcutil.Tx, error) {
	mp.mtx.RLock()
	entry := mp.graph.Get(txHash)
	mp.mtx.RUnlock()

	if entry == nil {
		return nil, fmt.Errorf("transaction %v is not in the pool", txHash)
	}
	return entry.Tx(), nil
}

// Info returns the descriptor of the pool transaction with the given hash.
//
// This function is safe for concurrent access.
func (mp *TxPool) Info(hash *chainhash.Hash) (*TxDesc, error) {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	entry := mp.graph.Get(hash)
	if entry == nil {
		return nil, fmt.Errorf("transaction %v is not in the pool", hash)
	}
	return newTxDesc(entry), nil
}

// CheckSpend returns the pool transaction spending op, or nil.
//
// This function is safe for concurrent access.
func (mp *TxPool) CheckSpend(op wire.OutPoint) *btcutil.Tx {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	if spender, ok := mp.graph.SpenderOf(op); ok {
		return spender.Tx()
	}
	return nil
}

// Count returns the number of transactions in the pool.
//
// This function is safe for concurrent access.
func (mp *TxPool) Count() int {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()
	return mp.graph.Len()
}

// Size returns the total virtual size of the pool.
//
// This function is safe for concurrent access.
func (mp *TxPool) Size() int64 {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()
	return mp.graph.TotalSize()
}

// TxHashes returns a slice of hashes for all of the transactions in the
// pool.
//
// This function is safe for concurrent access.
func (mp *TxPool) TxHashes() []*chainhash.Hash {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	entries := mp.graph.Entries()
	hashes := make([]*chainhash.Hash, 0, len(entries))
	for _, e := range entries {
		hash := *e.Hash()
		hashes = append(hashes, &hash)
	}
	return hashes
}

// TxDescs returns a slice of descriptors for all the transactions in the
// pool.
//
// This function is safe for concurrent access.
func (mp *TxPool) TxDescs() []*TxDesc {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	entries := mp.graph.Entries()
	descs := make([]*TxDesc, 0, len(entries))
	for _, e := range entries {
		descs = append(descs, newTxDesc(e))
	}
	return descs
}

// MiningDescs returns a slice of mining descriptors for all the
// transactions in the pool.
//
// This is part of the mining.TxSource interface implementation and is safe
// for concurrent access as required by the interface contract.
func (mp *TxPool) MiningDescs() []*mining.TxDesc {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	entries := mp.graph.Entries()
	descs := make([]*mining.TxDesc, 0, len(entries))
	for _, e := range entries {
		descs = append(descs, &newTxDesc(e).TxDesc)
	}
	return descs
}

// RawMempoolVerbose returns all the entries in the mempool as a fully
// populated btcjson result.
//
// This function is safe for concurrent access.
func (mp *TxPool) RawMempoolVerbose() map[string]*btcjson.GetRawMempoolVerboseResult {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	result := make(map[string]*btcjson.GetRawMempoolVerboseResult,
		mp.graph.Len())
	for _, e := range mp.graph.Entries() {
		tx := e.Tx()
		mpd := &btcjson.GetRawMempoolVerboseResult{
			Size:    int32(tx.MsgTx().SerializeSize()),
			Fee:     btcutil.Amount(e.Fee()).ToBTC(),
			Time:    e.Time().Unix(),
			Height:  int64(e.Height()),
			Depends: make([]string, 0),
		}
		for _, parent := range e.Parents() {
			mpd.Depends = append(mpd.Depends, parent.String())
		}
		result[e.Hash().String()] = mpd
	}
	return result
}

// Ancestors returns the in-pool ancestors of the transaction with the given
// hash.
//
// This function is safe for concurrent access.
func (mp *TxPool) Ancestors(hash *chainhash.Hash) []*btcutil.Tx {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()
	return entryTxs(mp.graph.Ancestors(*hash))
}

// Descendants returns the in-pool descendants of the transaction with the
// given hash.
//
// This function is safe for concurrent access.
func (mp *TxPool) Descendants(hash *chainhash.Hash) []*btcutil.Tx {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()
	return entryTxs(mp.graph.Descendants(*hash))
}

func entryTxs(entries []*txgraph.Entry) []*btcutil.Tx {
	txs := make([]*btcutil.Tx, 0, len(entries))
	for _, e := range entries {
		txs = append(txs, e.Tx())
	}
	return txs
}

// LastUpdated returns the last time a transaction was added to or removed
// from the main pool.
//
// This function is safe for concurrent access.
func (mp *TxPool) LastUpdated() time.Time {
	return time.Unix(atomic.LoadInt64(&mp.lastUpdated), 0)
}

// touch records that the pool changed.
func (mp *TxPool) touch() {
	atomic.StoreInt64(&mp.lastUpdated, mp.cfg.Now().Unix())
}

// GetMinFee returns the rolling fee floor for a pool limited to sizeLimit
// virtual bytes.
//
// This function is safe for concurrent access.
func (mp *TxPool) GetMinFee(sizeLimit int64) FeeRate {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()
	return mp.getMinFee(sizeLimit)
}

// MempoolInfo summarizes the state of the pool.
type MempoolInfo struct {
	Size                  int
	Bytes                 int64
	MaxMempool            int64
	MempoolMinFee         FeeRate
	MinRelayTxFee         FeeRate
	ToleratedDoubleSpends int
}

// MempoolInfo returns a summary of the pool.
//
// This function is safe for concurrent access.
func (mp *TxPool) MempoolInfo() *MempoolInfo {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	return &MempoolInfo{
		Size:                  mp.graph.Len(),
		Bytes:                 mp.graph.TotalSize(),
		MaxMempool:            mp.cfg.Policy.MaxMempoolSize,
		MempoolMinFee:         mp.getMinFee(mp.cfg.Policy.MaxMempoolSize),
		MinRelayTxFee:         mp.cfg.Policy.MinRelayTxFee,
		ToleratedDoubleSpends: mp.cfg.Tolerance.Len(),
	}
}

// PrioritiseTransaction adds feeDelta to the modified fee of the
// transaction with the given hash.  The delta is remembered and applied if
// the transaction is admitted later.
//
// This function is safe for concurrent access.
func (mp *TxPool) PrioritiseTransaction(hash *chainhash.Hash, feeDelta int64) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	mp.deltas[*hash] += feeDelta
	if mp.deltas[*hash] == 0 {
		delete(mp.deltas, *hash)
	}
	if err := mp.graph.UpdateModifiedFee(*hash, feeDelta); err == nil {
		mp.touch()
	}
	log.Debugf("PrioritiseTransaction: %v fee += %v", hash,
		btcutil.Amount(feeDelta))
}

// FeeDelta returns the priority delta recorded for hash.
//
// This function is safe for concurrent access.
func (mp *TxPool) FeeDelta(hash *chainhash.Hash) int64 {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()
	return mp.deltas[*hash]
}

// DrainDoubleSpends removes every queued double spend together with its
// descendants and clears the tolerance set, as connecting a block would.  It
// returns the number of transactions removed.
//
// This function is safe for concurrent access.
func (mp *TxPool) DrainDoubleSpends() int {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	count := mp.graph.Len()
	mp.drainOutbox(mp.cfg.MedianTimePast(), true)
	mp.cfg.Tolerance.Reset()
	mp.updateMetrics()
	return count - mp.graph.Len()
}

// LimitPoolSize expires entries older than age and then trims the pool to
// sizeLimit virtual bytes.  Outputs that are no longer spent by the pool are
// uncached from the coin cache.
//
// This function is safe for concurrent access.
func (mp *TxPool) LimitPoolSize(sizeLimit int64, age time.Duration) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()
	mp.limitPoolSize(sizeLimit, age)
}
