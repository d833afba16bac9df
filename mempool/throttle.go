// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"time"
)

// Throttle gates admission attempts before any validation work is done.
type Throttle interface {
	// MaxSchedulable returns the pool occupancy at and above which
	// attempts are refused.  Zero means unlimited.
	MaxSchedulable() int

	// RunnableDeadline returns the latest acceptance time that may still
	// be scheduled.
	RunnableDeadline() time.Time
}

// policyThrottle is the default Throttle backed by the pool policy.
type policyThrottle struct {
	policy *Policy
	now    func() time.Time
}

// MaxSchedulable returns the configured schedulable occupancy.
func (t *policyThrottle) MaxSchedulable() int {
	return t.policy.MaxSchedulable
}

// RunnableDeadline returns the current time advanced by the accept window.
func (t *policyThrottle) RunnableDeadline() time.Time {
	return t.now().Add(t.policy.AcceptWindow)
}

// schedulable reports whether an attempt with the given acceptance time may
// run while the pool holds count transactions.
func schedulable(t Throttle, count int, acceptTime time.Time) bool {
	if limit := t.MaxSchedulable(); limit > 0 && count >= limit {
		return false
	}
	return acceptTime.Before(t.RunnableDeadline())
}
