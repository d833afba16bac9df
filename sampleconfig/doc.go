// Copyright (c) 2017 The Decred developers
// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package sampleconfig provides a single constant that contains the contents of
the sample configuration file for mempoold.  It is written to the default
configuration path on first start so the generated file documents every
option.
*/
package sampleconfig
