// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package utxocache provides the durable unspent output cache consulted by
// the memory pool.  Outputs are read through from a database engine on
// demand, changes are held in memory and written back in one engine
// transaction when the cache is flushed.
package utxocache
