// Copyright (c) 2013-2014 The btcsuite developers
// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

//go:build !windows && !plan9

// Package limits raises the process resource limits the storage engines
// depend on.
package limits

import (
	"fmt"
	"syscall"
)

const (
	// fileLimitWant covers the engine file handles plus the sockets of
	// the metrics and ZeroMQ endpoints.
	fileLimitWant = 2048
	fileLimitMin  = 1024
)

// SetLimits raises the open file limit to fileLimitWant, settling for
// fileLimitMin when the hard limit is lower.
func SetLimits() error {
	var rLimit syscall.Rlimit

	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		return err
	}
	if rLimit.Cur > fileLimitWant {
		return nil
	}
	if rLimit.Max < fileLimitMin {
		return fmt.Errorf("need at least %v file descriptors",
			fileLimitMin)
	}
	if rLimit.Max < fileLimitWant {
		rLimit.Cur = rLimit.Max
	} else {
		rLimit.Cur = fileLimitWant
	}
	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		rLimit.Cur = fileLimitMin
		return syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	}

	return nil
}
