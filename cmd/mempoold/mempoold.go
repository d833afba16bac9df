// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/syscoin/sysd/database/engine"
	"github.com/syscoin/sysd/database/engine/leveldb"
	"github.com/syscoin/sysd/database/engine/pebbledb"
	"github.com/syscoin/sysd/internal/limits"
	"github.com/syscoin/sysd/internal/log"
	"github.com/syscoin/sysd/internal/version"
	"github.com/syscoin/sysd/mempool"
	"github.com/syscoin/sysd/scriptcheck"
	"github.com/syscoin/sysd/utxocache"
	"github.com/syscoin/sysd/zmqpub"
	"golang.org/x/sync/errgroup"
)

const (
	// utxoDbNamePrefix is the prefix for the unspent output database.
	utxoDbNamePrefix = "utxo"
)

var mpldLog = log.MpldLog

// loadUtxoDB opens the unspent output database, creating it when it does
// not exist yet.
func loadUtxoDB(cfg *config) (engine.Engine, error) {
	// The database name is based on the database type.
	dbName := utxoDbNamePrefix + "_" + cfg.DbType
	dbPath := filepath.Join(cfg.DataDir, dbName)

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, err
	}

	mpldLog.Infof("Loading unspent output database from '%s'", dbPath)
	var (
		db  engine.Engine
		err error
	)
	switch cfg.DbType {
	case "pebble":
		db, err = pebbledb.NewDB(dbPath, pebbledb.Options{})
	default:
		db, err = leveldb.NewDB(dbPath, false)
	}
	if err != nil {
		return nil, err
	}

	mpldLog.Info("Unspent output database loaded")
	return db, nil
}

// openInput opens the transaction source named by the infile option.
func openInput(name string) (io.ReadCloser, error) {
	if name == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(name)
}

// importBlocks connects the blocks of the configured block file.
func importBlocks(ctx context.Context, cfg *config, db engine.Engine,
	coins coinStore, state *chainState, pool mempool.TxMempool) error {

	fi, err := os.Open(cfg.BlockFile)
	if err != nil {
		return fmt.Errorf("failed to open file %v: %w", cfg.BlockFile, err)
	}
	defer fi.Close()

	importer, err := newBlockImporter(db, coins, state, pool,
		activeNetParams.Net, fi)
	if err != nil {
		return err
	}

	mpldLog.Infof("Importing blocks from %s", cfg.BlockFile)
	results, err := importer.Import(ctx)
	if err != nil {
		return err
	}
	mpldLog.Infof("Processed a total of %d blocks (%d imported, %d "+
		"already known), tip %v at height %d", results.blocksProcessed,
		results.blocksImported,
		results.blocksProcessed-results.blocksImported,
		state.BestHash(), state.BestHeight())
	return nil
}

// feedTransactions submits the transactions of the configured input to the
// pool.
func feedTransactions(ctx context.Context, cfg *config,
	pool mempool.TxMempool) error {

	in, err := openInput(cfg.InFile)
	if err != nil {
		return fmt.Errorf("failed to open transaction input %v: %w",
			cfg.InFile, err)
	}
	defer in.Close()

	feed := &txFeed{
		pool:       pool,
		maxFeeRate: mempool.FeeRate(cfg.MaxFeeRate),
		testAccept: cfg.TestAccept,
	}
	if err := feed.run(ctx, in); err != nil {
		return err
	}

	// No block follows the feed, so double spends tolerated during it are
	// dropped here rather than left in the pool.
	if n := pool.DrainDoubleSpends(); n > 0 {
		mpldLog.Infof("Removed %d tolerated double %s", n,
			log.PickNoun(uint64(n), "spend", "spends"))
	}

	r := feed.results
	info := pool.MempoolInfo()
	mpldLog.Infof("Accepted %d, rejected %d, throttled %d and skipped %d "+
		"malformed %s; pool holds %d %s (%d vbytes)", r.accepted,
		r.rejected, r.throttled, r.malformed,
		log.PickNoun(uint64(r.malformed), "line", "lines"), info.Size,
		log.PickNoun(uint64(info.Size), "transaction", "transactions"),
		info.Bytes)
	return nil
}

// realMain is the real main function for the utility.  It is necessary to work
// around the fact that deferred functions do not run when os.Exit() is called.
func realMain() error {
	cfg, _, err := loadConfig(os.Args[1:])
	if err != nil {
		return err
	}
	defer func() {
		if log.LogRotator != nil {
			log.LogRotator.Close()
		}
	}()

	mpldLog.Infof("Version %s", version.String())

	ctx, stop := shutdownContext(context.Background())
	defer stop()

	db, err := loadUtxoDB(cfg)
	if err != nil {
		mpldLog.Errorf("Failed to load database: %v", err)
		return err
	}
	defer db.Close()

	state, err := loadChainState(db, activeNetParams)
	if err != nil {
		mpldLog.Errorf("Failed to load chain state: %v", err)
		return err
	}
	mpldLog.Infof("Chain tip %v at height %d", state.BestHash(),
		state.BestHeight())

	coins := utxocache.New(db, cfg.UtxoCacheMaxSize*1024*1024)
	defer func() {
		if err := coins.Flush(); err != nil {
			mpldLog.Errorf("Failed to flush unspent outputs: %v", err)
		}
	}()

	reg := newRegistry()
	pool, err := mempool.New(&mempool.Config{
		Policy:           cfg.policy(),
		ChainParams:      activeNetParams,
		CoinCache:        coins,
		BestHeight:       state.BestHeight,
		MedianTimePast:   state.MedianTimePast,
		CalcSequenceLock: state.CalcSequenceLock,
		ScriptFlags:      state.ScriptFlags,
		Verifier: scriptcheck.New(scriptcheck.Config{
			Workers:            runtime.NumCPU(),
			SigCacheMaxSize:    cfg.SigCacheMaxSize,
			ResultCacheMaxSize: cfg.ScriptCacheMaxSize,
		}),
		FeeEstimator: mempool.NewFeeEstimator(
			mempool.DefaultEstimateFeeMaxRollback,
			mempool.DefaultEstimateFeeMinRegisteredBlocks),
		Metrics: mempool.NewMetrics(metricsNamespace, reg),
	})
	if err != nil {
		mpldLog.Errorf("Failed to create memory pool: %v", err)
		return err
	}

	serving := cfg.MetricsListen != "" || cfg.ZmqPubHashTx != "" ||
		cfg.ZmqPubRawTx != ""

	if cfg.ZmqPubHashTx != "" || cfg.ZmqPubRawTx != "" {
		publisher := zmqpub.New(ctx, zmqpub.Config{
			HashTxAddr: cfg.ZmqPubHashTx,
			RawTxAddr:  cfg.ZmqPubRawTx,
		})
		if err := publisher.Start(); err != nil {
			mpldLog.Errorf("Failed to start ZeroMQ publisher: %v", err)
			return err
		}
		defer publisher.Stop()
		pool.Subscribe(publisher.Notify)
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.MetricsListen != "" {
		server := newMetricsServer(cfg.MetricsListen, reg)
		g.Go(func() error {
			return server.run(gctx)
		})
	}
	g.Go(func() error {
		if cfg.BlockFile != "" {
			err := importBlocks(gctx, cfg, db, coins, state, pool)
			if err != nil {
				return err
			}
		}
		if err := feedTransactions(gctx, cfg, pool); err != nil {
			return err
		}

		// Keep publishing and serving metrics until interrupted.
		if serving {
			<-gctx.Done()
		} else {
			stop()
		}
		return nil
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		mpldLog.Errorf("%v", err)
		return err
	}
	return nil
}

func main() {
	// Use all processor cores and up some limits.
	runtime.GOMAXPROCS(runtime.NumCPU())
	if err := limits.SetLimits(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set limits: %v\n", err)
		os.Exit(1)
	}

	// Work around defer not working after os.Exit()
	if err := realMain(); err != nil {
		os.Exit(1)
	}
}
