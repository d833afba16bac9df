// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/syscoin/sysd/assetalloc"
	"github.com/syscoin/sysd/mempool/txgraph"
)

const (
	// maxStandardP2SHSigOps is the maximum number of signature operations
	// that are considered standard in a pay-to-script-hash script.
	maxStandardP2SHSigOps = 15

	// maxStandardTxWeight is the max weight permitted by any transaction
	// according to the current default policy.
	maxStandardTxWeight = 400000

	// maxStandardSigScriptSize is the maximum size allowed for a
	// transaction input signature script to be considered standard.  This
	// value allows for a 15-of-15 CHECKMULTISIG pay-to-script-hash with
	// compressed keys.
	//
	// (1 + 15*74 + 3) + (15*34 + 3) + 23 = 1650
	maxStandardSigScriptSize = 1650

	// maxStandardMultiSigKeys is the maximum number of public keys allowed
	// in a multi-signature transaction output script for it to be
	// considered standard.
	maxStandardMultiSigKeys = 3

	// maxStandardP2WSHScriptSize is the maximum size of a witness script
	// spent through pay-to-witness-script-hash.
	maxStandardP2WSHScriptSize = 3600

	// maxStandardP2WSHStackItems is the maximum number of witness stack
	// items, not counting the witness script, for a standard P2WSH spend.
	maxStandardP2WSHStackItems = 100

	// maxStandardP2WSHStackItemSize is the maximum size of each witness
	// stack item for a standard P2WSH spend.
	maxStandardP2WSHStackItemSize = 80

	// minStandardTxNonWitnessSize is the smallest stripped size accepted.
	// A transaction with one segwit input and one P2WPKH output is 82
	// bytes, and smaller transactions are refused so that 64-byte
	// transactions are never relayed.
	minStandardTxNonWitnessSize = 82

	// MaxBIP125RBFSequence is the highest input sequence number that
	// signals replaceability.
	MaxBIP125RBFSequence = wire.MaxTxInSequenceNum - 2

	// maxReplacementEvictions is the maximum number of transactions a
	// single replacement may evict, counting descendants.
	maxReplacementEvictions = 100

	// carveOutSizeLimit is the largest virtual size a transaction may have
	// to be admitted through the CPFP carve-out.
	carveOutSizeLimit = 10000

	// rollingFeeHalfLife is the half-life of the rolling minimum fee.
	rollingFeeHalfLife = 12 * time.Hour

	// DefaultMinRelayTxFee is the default static relay floor.
	DefaultMinRelayTxFee = FeeRate(1000)

	// DefaultIncrementalRelayFee is the default fee rate a replacement or
	// trimmed package must add on top of what it displaces.
	DefaultIncrementalRelayFee = FeeRate(1000)

	// DefaultMaxMempoolSize is the default pool size ceiling in bytes.
	DefaultMaxMempoolSize = 300 * 1000 * 1000

	// DefaultMempoolExpiry is the default age after which entries expire.
	DefaultMempoolExpiry = 336 * time.Hour

	// DefaultAncestorLimit and the following constants are the default
	// package limits.  Sizes are in virtual bytes.
	DefaultAncestorLimit       = 25
	DefaultAncestorSizeLimit   = 101 * 1000
	DefaultDescendantLimit     = 25
	DefaultDescendantSizeLimit = 101 * 1000

	// DefaultMaxDoubleSpendTolerance is the default number of asset
	// allocation double spends that may be tolerated at once.
	DefaultMaxDoubleSpendTolerance = 100

	// DefaultAcceptWindow is the default distance into the future an
	// acceptance time may lie and still be scheduled.
	DefaultAcceptWindow = 2 * time.Hour

	// DefaultMaxSigOpCostPerTx is the default maximum sigop cost of a
	// single transaction.
	DefaultMaxSigOpCostPerTx = blockchain.MaxBlockSigOpsCost / 5
)

// Policy houses the policy (configuration parameters) which is used to
// control the mempool.
type Policy struct {
	// AcceptNonStd defines whether to accept non-standard transactions. If
	// true, non-standard transactions will be accepted into the mempool.
	// Otherwise, all non-standard transactions will be rejected.
	AcceptNonStd bool

	// MaxSigOpCostPerTx is the cumulative maximum cost of all the signature
	// operations in a single transaction we will relay or mine.  It is a
	// fraction of the max signature operations for a block.
	MaxSigOpCostPerTx int64

	// MinRelayTxFee is the static relay fee floor.
	MinRelayTxFee FeeRate

	// IncrementalRelayFee is the rate a replacement must add over the fees
	// it evicts and the rate added to the rolling floor when trimming.
	IncrementalRelayFee FeeRate

	// MaxMempoolSize is the pool size ceiling in bytes.
	MaxMempoolSize int64

	// MempoolExpiry is the age after which entries are expired.
	MempoolExpiry time.Duration

	// Limits are the ancestor and descendant package limits.
	Limits txgraph.Limits

	// MaxDoubleSpendTolerance caps the number of tolerated asset
	// allocation double spends held at once.
	MaxDoubleSpendTolerance int

	// MaxSchedulable is the pool occupancy at and above which attempts are
	// throttled.  Zero means unlimited.
	MaxSchedulable int

	// AcceptWindow bounds how far past the current time an acceptance
	// time may lie and still be scheduled.
	AcceptWindow time.Duration
}

// DefaultPolicy returns the default mempool policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxSigOpCostPerTx:   DefaultMaxSigOpCostPerTx,
		MinRelayTxFee:       DefaultMinRelayTxFee,
		IncrementalRelayFee: DefaultIncrementalRelayFee,
		MaxMempoolSize:      DefaultMaxMempoolSize,
		MempoolExpiry:       DefaultMempoolExpiry,
		Limits: txgraph.Limits{
			AncestorCount:   DefaultAncestorLimit,
			AncestorSize:    DefaultAncestorSizeLimit,
			DescendantCount: DefaultDescendantLimit,
			DescendantSize:  DefaultDescendantSizeLimit,
		},
		MaxDoubleSpendTolerance: DefaultMaxDoubleSpendTolerance,
		AcceptWindow:            DefaultAcceptWindow,
	}
}

// checkInputsStandard performs a series of checks on a transaction's inputs
// to ensure they are "standard".  A standard transaction input within the
// context of this function is one whose referenced public key script is of a
// standard form and, for pay-to-script-hash, does not have more than
// maxStandardP2SHSigOps signature operations.
func checkInputsStandard(tx *btcutil.Tx, utxoView *blockchain.UtxoViewpoint) error {
	for i, txIn := range tx.MsgTx().TxIn {
		// It is safe to elide existence and index checks here since
		// they have already been checked prior to calling this
		// function.
		entry := utxoView.LookupEntry(txIn.PreviousOutPoint)
		originPkScript := entry.PkScript()
		switch txscript.GetScriptClass(originPkScript) {
		case txscript.ScriptHashTy:
			numSigOps := txscript.GetPreciseSigOpCount(
				txIn.SignatureScript, originPkScript, true)
			if numSigOps > maxStandardP2SHSigOps {
				return fmt.Errorf("transaction input #%d has "+
					"%d signature operations which is more "+
					"than the allowed max amount of %d",
					i, numSigOps, maxStandardP2SHSigOps)
			}

		case txscript.NonStandardTy:
			return fmt.Errorf("transaction input #%d has a "+
				"non-standard script form", i)
		}
	}

	return nil
}

// checkWitnessStandard ensures the witness of every pay-to-witness-script-hash
// input, native or nested in pay-to-script-hash, stays within the standard
// stack and script size limits.
func checkWitnessStandard(tx *btcutil.Tx, utxoView *blockchain.UtxoViewpoint) error {
	for i, txIn := range tx.MsgTx().TxIn {
		if len(txIn.Witness) == 0 {
			continue
		}

		pkScript := utxoView.LookupEntry(txIn.PreviousOutPoint).PkScript()
		if txscript.IsPayToScriptHash(pkScript) {
			pushes, err := txscript.PushedData(txIn.SignatureScript)
			if err != nil || len(pushes) == 0 {
				return fmt.Errorf("transaction input #%d has an "+
					"unparseable redeem script", i)
			}
			pkScript = pushes[len(pushes)-1]
		}

		if !txscript.IsPayToWitnessScriptHash(pkScript) {
			continue
		}

		witnessScript := txIn.Witness[len(txIn.Witness)-1]
		if len(witnessScript) > maxStandardP2WSHScriptSize {
			return fmt.Errorf("transaction input #%d witness script "+
				"is %d bytes, max %d", i, len(witnessScript),
				maxStandardP2WSHScriptSize)
		}
		stack := txIn.Witness[:len(txIn.Witness)-1]
		if len(stack) > maxStandardP2WSHStackItems {
			return fmt.Errorf("transaction input #%d has %d witness "+
				"stack items, max %d", i, len(stack),
				maxStandardP2WSHStackItems)
		}
		for _, item := range stack {
			if len(item) > maxStandardP2WSHStackItemSize {
				return fmt.Errorf("transaction input #%d has a "+
					"%d byte witness stack item, max %d", i,
					len(item), maxStandardP2WSHStackItemSize)
			}
		}
	}

	return nil
}

// checkPkScriptStandard performs a series of checks on a transaction output
// script (public key script) to ensure it is a "standard" public key script.
// A standard public key script is one that is a recognized form, and for
// multi-signature scripts, only contains from 1 to maxStandardMultiSigKeys
// public keys.
func checkPkScriptStandard(pkScript []byte, scriptClass txscript.ScriptClass) error {
	switch scriptClass {
	case txscript.MultiSigTy:
		numPubKeys, numSigs, err := txscript.CalcMultiSigStats(pkScript)
		if err != nil {
			return fmt.Errorf("multi-signature script parse "+
				"failure: %v", err)
		}

		// A standard multi-signature public key script must contain
		// from 1 to maxStandardMultiSigKeys public keys.
		if numPubKeys < 1 {
			return fmt.Errorf("multi-signature script with no pubkeys")
		}
		if numPubKeys > maxStandardMultiSigKeys {
			return fmt.Errorf("multi-signature script with %d "+
				"public keys which is more than the allowed "+
				"max of %d", numPubKeys, maxStandardMultiSigKeys)
		}

		// A standard multi-signature public key script must have at
		// least 1 signature and no more signatures than available
		// public keys.
		if numSigs < 1 {
			return fmt.Errorf("multi-signature script with no signatures")
		}
		if numSigs > numPubKeys {
			return fmt.Errorf("multi-signature script with %d "+
				"signatures which is more than the available "+
				"%d public keys", numSigs, numPubKeys)
		}

	case txscript.NonStandardTy:
		return fmt.Errorf("non-standard script form")
	}

	return nil
}

// GetDustThreshold calculates the dust limit for a *wire.TxOut by taking the
// size of a typical spending transaction and multiplying it by 3 to account
// for the minimum dust relay fee of 3000sat/kvb.
func GetDustThreshold(txOut *wire.TxOut) int64 {
	// The total serialized size consists of the output and the associated
	// input script to redeem it.  Since there is no input script to
	// redeem it yet, use the minimum size of a typical input script: 107
	// bytes for pay-to-pubkey-hash, discounted by the witness scale factor
	// when the output is a witness program.  Both cases share a 41 byte
	// preamble required to reference the input being spent and the
	// sequence number of the input.
	totalSize := txOut.SerializeSize() + 41
	if txscript.IsWitnessProgram(txOut.PkScript) {
		totalSize += (107 / blockchain.WitnessScaleFactor)
	} else {
		totalSize += 107
	}

	return 3 * int64(totalSize)
}

// IsDust returns whether or not the passed transaction output amount is
// considered dust or not based on the passed minimum transaction relay fee.
// Dust is defined in terms of the minimum transaction relay fee.  In
// particular, if the cost to the network to spend coins is more than 1/3 of the
// minimum transaction relay fee, it is considered dust.
func IsDust(txOut *wire.TxOut, minRelayTxFee FeeRate) bool {
	// Unspendable outputs are considered dust.
	if txscript.IsUnspendable(txOut.PkScript) {
		return true
	}

	// The following is equivalent to (value/totalSize) * (1/3) * 1000
	// without needing to do floating point math.
	return txOut.Value*1000/GetDustThreshold(txOut) < int64(minRelayTxFee)
}

// isStandardVersion reports whether a transaction version is relayed.
// Syscoin transaction classes are carried in the version field.
func isStandardVersion(version int32) bool {
	return (version >= 1 && version <= 2) || assetalloc.IsSyscoinTx(version)
}

// notStandard returns a NotStandard rule error.
func notStandard(code wire.RejectCode, reason, detail string) RuleError {
	return txRuleError(RejectNotStandard, code, reason, detail)
}

// CheckTransactionStandard performs a series of checks on a transaction to
// ensure it is a "standard" transaction.  A standard transaction is one that
// conforms to several additional limiting cases over what is considered a
// "sane" transaction such as having a version in the supported range,
// conforming to more stringent size constraints, having scripts of
// recognized forms, and not containing "dust" outputs (those that are so
// small it costs more to process them than they are worth).
//
// Finality is checked separately by the admission path so that it can be
// reported as a premature spend.
func CheckTransactionStandard(tx *btcutil.Tx, minRelayTxFee FeeRate) error {
	// The transaction must be a currently supported version.
	msgTx := tx.MsgTx()
	if !isStandardVersion(msgTx.Version) {
		return notStandard(wire.RejectNonstandard, "version",
			fmt.Sprintf("transaction version %d is not standard",
				msgTx.Version))
	}

	// Since extremely large transactions with a lot of inputs can cost
	// almost as much to process as the sender fees, limit the maximum
	// size of a transaction.  This also helps mitigate CPU exhaustion
	// attacks.
	txWeight := blockchain.GetTransactionWeight(tx)
	if txWeight > maxStandardTxWeight {
		return notStandard(wire.RejectNonstandard, "tx-size",
			fmt.Sprintf("%d > %d", txWeight, maxStandardTxWeight))
	}

	for i, txIn := range msgTx.TxIn {
		// Each transaction input signature script must not exceed the
		// maximum size allowed for a standard transaction.  See
		// the comment on maxStandardSigScriptSize for more details.
		sigScriptLen := len(txIn.SignatureScript)
		if sigScriptLen > maxStandardSigScriptSize {
			return notStandard(wire.RejectNonstandard,
				"scriptsig-size", fmt.Sprintf("input %d: %d > %d",
					i, sigScriptLen, maxStandardSigScriptSize))
		}

		// Each transaction input signature script must only contain
		// opcodes which push data onto the stack.
		if !txscript.IsPushOnlyScript(txIn.SignatureScript) {
			return notStandard(wire.RejectNonstandard,
				"scriptsig-not-pushonly", fmt.Sprintf("input %d", i))
		}
	}

	// None of the output public key scripts can be a non-standard script or
	// be "dust" (except when the script is a null data script).  Asset
	// transactions may carry a payload larger than a regular null data
	// output.
	isSyscoin := assetalloc.IsSyscoinTx(msgTx.Version)
	numNullDataOutputs := 0
	for i, txOut := range msgTx.TxOut {
		scriptClass := txscript.GetScriptClass(txOut.PkScript)
		if isSyscoin && assetalloc.IsDataScript(txOut.PkScript) {
			scriptClass = txscript.NullDataTy
		}
		err := checkPkScriptStandard(txOut.PkScript, scriptClass)
		if err != nil {
			return notStandard(wire.RejectNonstandard, "scriptpubkey",
				fmt.Sprintf("output %d: %v", i, err))
		}

		// Accumulate the number of outputs which only carry data.  For
		// all other script types, ensure the output value is not
		// "dust".
		if scriptClass == txscript.NullDataTy {
			numNullDataOutputs++
		} else if IsDust(txOut, minRelayTxFee) {
			return notStandard(wire.RejectDust, "dust",
				fmt.Sprintf("output %d: %v", i, txOut.Value))
		}
	}

	// A standard transaction must not have more than one output script that
	// only carries data.
	if numNullDataOutputs > 1 {
		return notStandard(wire.RejectNonstandard, "multi-op-return", "")
	}

	return nil
}

// GetTxVirtualSize computes the virtual size of a given transaction. A
// transaction's virtual size is based off its weight, creating a discount for
// any witness data it contains, proportional to the current
// blockchain.WitnessScaleFactor value.
func GetTxVirtualSize(tx *btcutil.Tx) int64 {
	// vSize := (weight(tx) + 3) / 4
	//       := (((baseSize * 3) + totalSize) + 3) / 4
	// We add 3 here as a way to compute the ceiling of the prior arithmetic
	// to 4. The division by 4 creates a discount for wit witness data.
	return (blockchain.GetTransactionWeight(tx) + (blockchain.WitnessScaleFactor - 1)) /
		blockchain.WitnessScaleFactor
}

// signalsReplacement reports whether any input of tx opts in to
// replacement.
func signalsReplacement(tx *btcutil.Tx) bool {
	for _, txIn := range tx.MsgTx().TxIn {
		if txIn.Sequence <= MaxBIP125RBFSequence {
			return true
		}
	}
	return false
}
