// Copyright (c) 2017 The Decred developers
// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sampleconfig

// FileContents is a string containing the commented example config for
// mempoold.
const FileContents = `[Application Options]

; ------------------------------------------------------------------------------
; Data settings
; ------------------------------------------------------------------------------

; The directory to store the unspent outputs and the chain tip.  A
; subdirectory per network is created below it.
; datadir=~/.mempoold/data

; Database backend for the unspent outputs: leveldb or pebble.
; dbtype=leveldb

; Maximum size in MiB of the in-memory unspent output cache.  The cache is
; written to the database once it grows past this size.
; utxocachemaxsize=450


; ------------------------------------------------------------------------------
; Network settings
; ------------------------------------------------------------------------------

; Use testnet.
; testnet=1

; Use regtest.
; regtest=1

; Use simnet.
; simnet=1


; ------------------------------------------------------------------------------
; Memory pool policy
; ------------------------------------------------------------------------------

; Maximum size of the memory pool in megabytes.  The lowest paying packages are
; evicted once it is exceeded.
; maxmempool=300

; Hours after which transactions are expired from the memory pool.
; mempoolexpiry=336

; Package limits.  Counts include the transaction itself; sizes are in kvB.
; limitancestorcount=25
; limitancestorsize=101
; limitdescendantcount=25
; limitdescendantsize=101

; Static relay fee floor and the fee rate a replacement must add, in sat/kvB.
; minrelaytxfee=1000
; incrementalrelayfee=1000

; Accept non-standard transactions.
; acceptnonstd=1

; Maximum number of asset allocation double spends held at once.
; maxdoublespendtolerance=100

; Pool occupancy at which admission attempts are throttled.  0 disables the
; throttle.
; maxschedulable=0

; Hours past the current time an acceptance time may lie.
; acceptwindow=2


; ------------------------------------------------------------------------------
; Script verification
; ------------------------------------------------------------------------------

; Entries held by the signature cache and the script result cache.
; sigcachemaxsize=100000
; scriptcachemaxsize=100000


; ------------------------------------------------------------------------------
; Notifications and metrics
; ------------------------------------------------------------------------------

; Publish accepted transaction hashes and raw transactions over ZeroMQ.  Both
; topics may share an endpoint.
; zmqpubhashtx=tcp://127.0.0.1:28332
; zmqpubrawtx=tcp://127.0.0.1:28332

; Serve Prometheus metrics on /metrics.
; metricslisten=127.0.0.1:9332


; ------------------------------------------------------------------------------
; Input
; ------------------------------------------------------------------------------

; Bootstrap file of blocks connected before transactions are admitted.
; blockfile=bootstrap.dat

; File of hex encoded transactions, one per line.  - reads standard input.
; infile=-

; Check the transactions without adding them to the pool.
; testaccept=1

; Reject transactions paying more than this fee rate in sat/kvB.  0 disables
; the ceiling.
; maxfeerate=10000000


; ------------------------------------------------------------------------------
; Debug
; ------------------------------------------------------------------------------

; Debug logging level.
; Valid levels are {trace, debug, info, warn, error, critical}
; You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set
; log level for individual subsystems.  Use mempoold --debuglevel=show to list
; available subsystems.
; debuglevel=info
`
