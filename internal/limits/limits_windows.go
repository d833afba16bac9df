// Copyright (c) 2013-2014 The btcsuite developers
// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package limits raises the process resource limits the storage engines
// depend on.
package limits

// SetLimits is a no-op on Windows since it's not required there.
func SetLimits() error {
	return nil
}
