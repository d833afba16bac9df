// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
)

// FeeRate is a fee rate in satoshi per 1000 virtual bytes.
type FeeRate int64

// NewFeeRate returns the rate paid by fee satoshi over size virtual bytes.
// The result is truncated; use txgraph.CompareFeeRates for exact
// comparisons.
func NewFeeRate(fee, size int64) FeeRate {
	if size <= 0 {
		return 0
	}
	return FeeRate(fee * 1000 / size)
}

// GetFee returns the fee in satoshi owed for size virtual bytes.  A non-zero
// rate never rounds down to a zero fee.
func (r FeeRate) GetFee(size int64) int64 {
	fee := int64(r) * size / 1000
	if fee == 0 && size != 0 {
		switch {
		case r > 0:
			fee = 1
		case r < 0:
			fee = -1
		}
	}
	return fee
}

// String renders the rate in whole coins per kvB.
func (r FeeRate) String() string {
	sign := ""
	v := int64(r)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%08d SYS/kvB", sign, v/btcutil.SatoshiPerBitcoin,
		v%btcutil.SatoshiPerBitcoin)
}
