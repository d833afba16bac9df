// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package assetalloc

// Syscoin transactions carry their class in the transaction version.
const (
	AssetActivate            int32 = 0x7400
	AssetUpdate              int32 = 0x7401
	AssetSend                int32 = 0x7402
	AllocationMint           int32 = 0x7403
	AllocationBurnToEthereum int32 = 0x7404
	AllocationBurnToSyscoin  int32 = 0x7405
	SyscoinBurnToAllocation  int32 = 0x7406
	AllocationSend           int32 = 0x7407
	AllocationLock           int32 = 0x7408
)

var classNames = map[int32]string{
	AssetActivate:            "AssetActivate",
	AssetUpdate:              "AssetUpdate",
	AssetSend:                "AssetSend",
	AllocationMint:           "AllocationMint",
	AllocationBurnToEthereum: "AllocationBurnToEthereum",
	AllocationBurnToSyscoin:  "AllocationBurnToSyscoin",
	SyscoinBurnToAllocation:  "SyscoinBurnToAllocation",
	AllocationSend:           "AllocationSend",
	AllocationLock:           "AllocationLock",
}

// ClassName returns the name of a Syscoin transaction class, or the empty
// string for other versions.
func ClassName(version int32) string {
	return classNames[version]
}

// IsSyscoinTx reports whether version denotes any Syscoin transaction
// class.
func IsSyscoinTx(version int32) bool {
	_, ok := classNames[version]
	return ok
}

// IsAssetAllocationTx reports whether version denotes a transaction that
// moves asset allocations between actors.
func IsAssetAllocationTx(version int32) bool {
	switch version {
	case AllocationMint, AllocationBurnToEthereum, AllocationBurnToSyscoin,
		AllocationSend, AllocationLock:
		return true
	}
	return false
}
