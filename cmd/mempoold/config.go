// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	flags "github.com/jessevdk/go-flags"
	"github.com/syscoin/sysd/internal/log"
	"github.com/syscoin/sysd/internal/version"
	"github.com/syscoin/sysd/mempool"
	"github.com/syscoin/sysd/mempool/txgraph"
	"github.com/syscoin/sysd/sampleconfig"
	"github.com/syscoin/sysd/scriptcheck"
)

const (
	defaultConfigFilename    = "mempoold.conf"
	defaultLogFilename       = "mempoold.log"
	defaultLogLevel          = "info"
	defaultDbType            = "leveldb"
	defaultMaxMempool        = 300
	defaultMempoolExpiry     = 336
	defaultAncestorCount     = 25
	defaultAncestorSize      = 101
	defaultDescendantCount   = 25
	defaultDescendantSize    = 101
	defaultMinRelayTxFee     = 1000
	defaultIncrementalFee    = 1000
	defaultMaxFeeRate        = 10000000
	defaultUtxoCacheMaxSize  = 450
	defaultDoubleSpendTolCap = mempool.DefaultMaxDoubleSpendTolerance
)

var (
	mempooldHomeDir   = btcutil.AppDataDir("mempoold", false)
	defaultConfigFile = filepath.Join(mempooldHomeDir, defaultConfigFilename)
	defaultDataDir    = filepath.Join(mempooldHomeDir, "data")
	defaultLogDir     = filepath.Join(mempooldHomeDir, "logs")
	knownDbTypes      = []string{"leveldb", "pebble"}
	activeNetParams   = &chaincfg.MainNetParams
)

// config defines the configuration options for mempoold.
//
// See loadConfig for details on the configuration load process.
type config struct {
	ShowVersion    bool   `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile     string `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir        string `short:"b" long:"datadir" description:"Directory to store data"`
	DbType         string `long:"dbtype" description:"Database backend to use for the unspent outputs {leveldb, pebble}"`
	LogDir         string `long:"logdir" description:"Directory to log output"`
	DebugLevel     string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	RegressionTest bool   `long:"regtest" description:"Use the regression test network"`
	SimNet         bool   `long:"simnet" description:"Use the simulation test network"`
	TestNet3       bool   `long:"testnet" description:"Use the test network"`

	MaxMempool              int64   `long:"maxmempool" description:"Maximum size of the memory pool in megabytes"`
	MempoolExpiry           int64   `long:"mempoolexpiry" description:"Hours after which transactions are expired from the memory pool"`
	LimitAncestorCount      int64   `long:"limitancestorcount" description:"Maximum number of in-pool ancestors, including the transaction itself"`
	LimitAncestorSize       int64   `long:"limitancestorsize" description:"Maximum size in kvB of the in-pool ancestors, including the transaction itself"`
	LimitDescendantCount    int64   `long:"limitdescendantcount" description:"Maximum number of in-pool descendants of any ancestor, including the ancestor itself"`
	LimitDescendantSize     int64   `long:"limitdescendantsize" description:"Maximum size in kvB of the in-pool descendants of any ancestor, including the ancestor itself"`
	MinRelayTxFee           int64   `long:"minrelaytxfee" description:"The minimum transaction fee in sat/kvB to be considered a non-zero fee"`
	IncrementalRelayFee     int64   `long:"incrementalrelayfee" description:"Fee rate in sat/kvB a replacement must add and the step used when the pool is full"`
	AcceptNonStd            bool    `long:"acceptnonstd" description:"Accept and relay non-standard transactions to the network regardless of the default settings for the active network"`
	MaxDoubleSpendTolerance int     `long:"maxdoublespendtolerance" description:"Maximum number of asset allocation double spends held at once"`
	MaxSchedulable          int     `long:"maxschedulable" description:"Pool occupancy at which admission attempts are throttled -- 0 disables"`
	AcceptWindow            float64 `long:"acceptwindow" description:"Hours past the current time an acceptance time may lie"`

	SigCacheMaxSize    uint  `long:"sigcachemaxsize" description:"The maximum number of entries in the signature verification cache"`
	ScriptCacheMaxSize uint  `long:"scriptcachemaxsize" description:"The maximum number of remembered script verifications"`
	UtxoCacheMaxSize   int64 `long:"utxocachemaxsize" description:"The maximum size in MiB of the unspent output cache"`

	ZmqPubHashTx  string `long:"zmqpubhashtx" description:"Publish accepted transaction hashes on this ZeroMQ endpoint"`
	ZmqPubRawTx   string `long:"zmqpubrawtx" description:"Publish accepted raw transactions on this ZeroMQ endpoint"`
	MetricsListen string `long:"metricslisten" description:"Serve Prometheus metrics on this interface/port"`

	BlockFile  string `long:"blockfile" description:"File of serialized blocks to connect before admitting transactions"`
	InFile     string `short:"i" long:"infile" description:"File of hex encoded transactions, one per line -- Use - for stdin"`
	TestAccept bool   `long:"testaccept" description:"Check the transactions without adding them to the pool"`
	MaxFeeRate int64  `long:"maxfeerate" description:"Reject transactions paying a fee rate above this many sat/kvB -- 0 disables"`
}

// fileExists reports whether the named file or directory exists.
func fileExists(name string) bool {
	if _, err := os.Stat(name); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}
	return true
}

// validDbType returns whether or not dbType is a supported database type.
func validDbType(dbType string) bool {
	for _, knownType := range knownDbTypes {
		if dbType == knownType {
			return true
		}
	}

	return false
}

// netName returns the name used when referring to a network.  Testnet data
// lives in the "testnet" directory rather than the parameters' name.
func netName(chainParams *chaincfg.Params) string {
	switch chainParams.Net {
	case wire.TestNet3:
		return "testnet"
	default:
		return chainParams.Name
	}
}

// parseAndSetDebugLevels attempts to parse the specified debug level and set
// the levels accordingly.  An appropriate error is returned if anything is
// invalid.
func parseAndSetDebugLevels(debugLevel string) error {
	// When the specified string doesn't have any delimiters, treat it as
	// the log level for all subsystems.
	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		if !log.ValidLogLevel(debugLevel) {
			return fmt.Errorf("the specified debug level [%v] is "+
				"invalid", debugLevel)
		}
		log.SetLogLevels(debugLevel)
		return nil
	}

	// Split the specified string into subsystem/level pairs while detecting
	// issues and update the log levels accordingly.
	for _, logLevelPair := range strings.Split(debugLevel, ",") {
		if !strings.Contains(logLevelPair, "=") {
			return errors.New("the specified debug level contains " +
				"an invalid subsystem/level pair " + logLevelPair)
		}

		fields := strings.Split(logLevelPair, "=")
		subsysID, logLevel := fields[0], fields[1]

		if _, exists := log.SubsystemLoggers[subsysID]; !exists {
			return fmt.Errorf("the specified subsystem [%v] is "+
				"invalid -- supported subsystems %v", subsysID,
				log.SupportedSubsystems())
		}
		if !log.ValidLogLevel(logLevel) {
			return fmt.Errorf("the specified debug level [%v] is "+
				"invalid", logLevel)
		}

		log.SetLogLevel(subsysID, logLevel)
	}

	return nil
}

// defaultConfig returns the configuration used before the command line is
// parsed.
func defaultConfig() config {
	return config{
		ConfigFile:              defaultConfigFile,
		DataDir:                 defaultDataDir,
		DbType:                  defaultDbType,
		LogDir:                  defaultLogDir,
		DebugLevel:              defaultLogLevel,
		MaxMempool:              defaultMaxMempool,
		MempoolExpiry:           defaultMempoolExpiry,
		LimitAncestorCount:      defaultAncestorCount,
		LimitAncestorSize:       defaultAncestorSize,
		LimitDescendantCount:    defaultDescendantCount,
		LimitDescendantSize:     defaultDescendantSize,
		MinRelayTxFee:           defaultMinRelayTxFee,
		IncrementalRelayFee:     defaultIncrementalFee,
		MaxDoubleSpendTolerance: defaultDoubleSpendTolCap,
		AcceptWindow:            mempool.DefaultAcceptWindow.Hours(),
		SigCacheMaxSize:         scriptcheck.DefaultSigCacheMaxSize,
		ScriptCacheMaxSize:      scriptcheck.DefaultResultCacheMaxSize,
		UtxoCacheMaxSize:        defaultUtxoCacheMaxSize,
		InFile:                  "-",
		MaxFeeRate:              defaultMaxFeeRate,
	}
}

// policy returns the mempool policy described by cfg.
func (cfg *config) policy() mempool.Policy {
	policy := mempool.DefaultPolicy()
	policy.AcceptNonStd = cfg.AcceptNonStd
	policy.MinRelayTxFee = mempool.FeeRate(cfg.MinRelayTxFee)
	policy.IncrementalRelayFee = mempool.FeeRate(cfg.IncrementalRelayFee)
	policy.MaxMempoolSize = cfg.MaxMempool * 1000000
	policy.MempoolExpiry = time.Duration(cfg.MempoolExpiry) * time.Hour
	policy.Limits = txgraph.Limits{
		AncestorCount:   cfg.LimitAncestorCount,
		AncestorSize:    cfg.LimitAncestorSize * 1000,
		DescendantCount: cfg.LimitDescendantCount,
		DescendantSize:  cfg.LimitDescendantSize * 1000,
	}
	policy.MaxDoubleSpendTolerance = cfg.MaxDoubleSpendTolerance
	policy.MaxSchedulable = cfg.MaxSchedulable
	policy.AcceptWindow = time.Duration(cfg.AcceptWindow * float64(time.Hour))
	return policy
}

// validate checks the parsed options, selects the active network and
// namespaces the data and log directories per network.
func (cfg *config) validate() error {
	funcName := "loadConfig"

	// Multiple networks can't be selected simultaneously.
	numNets := 0
	if cfg.TestNet3 {
		numNets++
		activeNetParams = &chaincfg.TestNet3Params
	}
	if cfg.RegressionTest {
		numNets++
		activeNetParams = &chaincfg.RegressionNetParams
	}
	if cfg.SimNet {
		numNets++
		activeNetParams = &chaincfg.SimNetParams
	}
	if numNets > 1 {
		return fmt.Errorf("%s: The testnet, regtest, and simnet params "+
			"can't be used together -- choose one of the three",
			funcName)
	}

	if !validDbType(cfg.DbType) {
		return fmt.Errorf("%s: The specified database type [%v] is "+
			"invalid -- supported types %v", funcName, cfg.DbType,
			knownDbTypes)
	}

	switch {
	case cfg.MaxMempool <= 0:
		return fmt.Errorf("%s: maxmempool must be positive", funcName)
	case cfg.MempoolExpiry <= 0:
		return fmt.Errorf("%s: mempoolexpiry must be positive", funcName)
	case cfg.LimitAncestorCount <= 0 || cfg.LimitDescendantCount <= 0:
		return fmt.Errorf("%s: package count limits must be positive",
			funcName)
	case cfg.MinRelayTxFee < 0 || cfg.IncrementalRelayFee < 0:
		return fmt.Errorf("%s: relay fees may not be negative", funcName)
	case cfg.MaxDoubleSpendTolerance < 0:
		return fmt.Errorf("%s: maxdoublespendtolerance may not be "+
			"negative", funcName)
	case cfg.MaxFeeRate < 0:
		return fmt.Errorf("%s: maxfeerate may not be negative", funcName)
	}

	if cfg.BlockFile != "" && !fileExists(cfg.BlockFile) {
		return fmt.Errorf("%s: The specified block file [%v] does not "+
			"exist", funcName, cfg.BlockFile)
	}
	if cfg.InFile != "-" && !fileExists(cfg.InFile) {
		return fmt.Errorf("%s: The specified transaction file [%v] "+
			"does not exist", funcName, cfg.InFile)
	}

	// Append the network type to the data and log directories so they
	// are "namespaced" per network.
	cfg.DataDir = filepath.Join(cfg.DataDir, netName(activeNetParams))
	cfg.LogDir = filepath.Join(cfg.LogDir, netName(activeNetParams))
	return nil
}

// createDefaultConfigFile writes the sample configuration to path.
func createDefaultConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(sampleconfig.FileContents), 0600)
}

// loadConfig initializes and parses the config using a config file and
// command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//  5. Validate and namespace the directories per network
//  6. Start the log rotator and apply the debug levels
//
// The above results in mempoold functioning properly without any config
// settings while still allowing the user to override settings with config
// files and command line options.  Command line options always take
// precedence.
func loadConfig(args []string) (*config, []string, error) {
	cfg := defaultConfig()

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.
	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.Default)
	if _, err := preParser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if !errors.As(err, &flagsErr) || flagsErr.Type != flags.ErrHelp {
			preParser.WriteHelp(os.Stderr)
		}
		return nil, nil, err
	}

	if preCfg.ShowVersion {
		fmt.Println("mempoold version", version.String())
		os.Exit(0)
	}

	// Write the sample configuration on first start.
	if preCfg.ConfigFile == defaultConfigFile && !fileExists(defaultConfigFile) {
		if err := createDefaultConfigFile(defaultConfigFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating a default config "+
				"file: %v\n", err)
		}
	}

	// Load additional config from file.  A missing file is not an error.
	parser := flags.NewParser(&cfg, flags.Default)
	err := flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			fmt.Fprintf(os.Stderr, "Error parsing config file: %v\n",
				err)
			parser.WriteHelp(os.Stderr)
			return nil, nil, err
		}
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		return nil, nil, err
	}

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", log.SupportedSubsystems())
		os.Exit(0)
	}

	if err := cfg.validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, err
	}

	log.InitLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename))

	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		err := fmt.Errorf("loadConfig: %v", err)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, err
	}

	return &cfg, remainingArgs, nil
}
