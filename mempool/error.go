// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/wire"
)

var (
	// ErrAdmissionThrottled is returned when the admission throttle refuses
	// to schedule an attempt.  It is not a rule violation and the caller
	// may retry later.
	ErrAdmissionThrottled = errors.New("admission throttled")

	// ErrMissingConfig is wrapped by New to name a required configuration
	// field that was not supplied.
	ErrMissingConfig = errors.New("missing mempool configuration")
)

// RejectKind classifies why a transaction was refused entry to the pool.
type RejectKind int

// These constants enumerate the rejection classes.
const (
	// RejectConsensus is used for transactions that are invalid under the
	// protocol rules regardless of context.
	RejectConsensus RejectKind = iota

	// RejectNotStandard is used for transactions that are valid but
	// violate the local relay policy.
	RejectNotStandard

	// RejectPrematureSpend is used for transactions whose absolute or
	// relative lock time cannot be satisfied by the next block.
	RejectPrematureSpend

	// RejectMissingInputs is used when inputs can not be resolved.  The
	// transaction may be an orphan.
	RejectMissingInputs

	// RejectConflict is used for transactions that are already known or
	// conflict with a transaction that may not be replaced.
	RejectConflict

	// RejectWitnessMutated is used when witness data appears stripped or
	// altered while the non-witness transaction may still be valid.
	RejectWitnessMutated

	// RejectMempoolPolicy is used for fee, package limit and replacement
	// violations.
	RejectMempoolPolicy

	// RejectInternalInvariant is used when the consensus script pass fails
	// after the policy pass succeeded.
	RejectInternalInvariant
)

var rejectKindStrings = map[RejectKind]string{
	RejectConsensus:         "Consensus",
	RejectNotStandard:       "NotStandard",
	RejectPrematureSpend:    "PrematureSpend",
	RejectMissingInputs:     "MissingInputs",
	RejectConflict:          "Conflict",
	RejectWitnessMutated:    "WitnessMutated",
	RejectMempoolPolicy:     "MempoolPolicy",
	RejectInternalInvariant: "InternalInvariant",
}

// String returns the RejectKind as a human-readable name.
func (k RejectKind) String() string {
	if s := rejectKindStrings[k]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown RejectKind (%d)", int(k))
}

// RuleError identifies a rule violation.  It is used to indicate that
// processing of a transaction failed due to one of the many validation
// rules.  The caller can use type assertions to determine if a failure was
// specifically due to a rule violation and access the underlying error,
// which will be either a TxRuleError or a blockchain.RuleError.
type RuleError struct {
	Err error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.Err == nil {
		return "<nil>"
	}
	return e.Err.Error()
}

// Unwrap returns the underlying rule violation.
func (e RuleError) Unwrap() error {
	return e.Err
}

// TxRuleError identifies a rule violation.  Reason is the machine-readable
// reject tag relayed to peers, and Detail carries the compared values.
type TxRuleError struct {
	Kind       RejectKind
	RejectCode wire.RejectCode
	Reason     string
	Detail     string
}

// Error satisfies the error interface and prints human-readable errors.
func (e TxRuleError) Error() string {
	if e.Detail == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s (%s)", e.Reason, e.Detail)
}

// txRuleError creates an underlying TxRuleError with the given fields and
// returns a RuleError that encapsulates it.
func txRuleError(kind RejectKind, code wire.RejectCode, reason,
	detail string) RuleError {

	return RuleError{
		Err: TxRuleError{
			Kind:       kind,
			RejectCode: code,
			Reason:     reason,
			Detail:     detail,
		},
	}
}

// chainReasons maps consensus error codes to their relay reject tags.
var chainReasons = map[blockchain.ErrorCode]string{
	blockchain.ErrNoTxInputs:        "bad-txns-vin-empty",
	blockchain.ErrNoTxOutputs:       "bad-txns-vout-empty",
	blockchain.ErrTxTooBig:          "bad-txns-oversize",
	blockchain.ErrBadTxOutValue:     "bad-txns-vout-outofrange",
	blockchain.ErrDuplicateTxInputs: "bad-txns-inputs-duplicate",
	blockchain.ErrBadTxInput:        "bad-txns-prevout-null",
	blockchain.ErrMissingTxOut:      "bad-txns-inputs-missingorspent",
	blockchain.ErrImmatureSpend:     "bad-txns-premature-spend-of-coinbase",
	blockchain.ErrSpendTooHigh:      "bad-txns-in-belowout",
	blockchain.ErrBadFees:           "bad-txns-fee-outofrange",
	blockchain.ErrTooManySigOps:     "bad-txns-too-many-sigops",
}

// chainRuleError returns a RuleError that encapsulates the given
// blockchain.RuleError as a consensus rejection.
func chainRuleError(chainErr blockchain.RuleError) RuleError {
	reason, ok := chainReasons[chainErr.ErrorCode]
	if !ok {
		reason = chainErr.ErrorCode.String()
	}
	code := wire.RejectInvalid
	if chainErr.ErrorCode == blockchain.ErrDuplicateTx {
		code = wire.RejectDuplicate
	}
	return txRuleError(RejectConsensus, code, reason, chainErr.Description)
}

// consensusError converts an error returned by the blockchain package into a
// rule error when possible and returns it unchanged otherwise.
func consensusError(err error) error {
	var cerr blockchain.RuleError
	if errors.As(err, &cerr) {
		return chainRuleError(cerr)
	}
	return err
}

// extractTxRuleError returns the TxRuleError carried by err, if any.
func extractTxRuleError(err error) (TxRuleError, bool) {
	var terr TxRuleError
	if errors.As(err, &terr) {
		return terr, true
	}
	return TxRuleError{}, false
}

// extractRejectCode attempts to return a relevant reject code for a given
// error by examining the error for known types.  It will return true if a
// code was successfully extracted.
func extractRejectCode(err error) (wire.RejectCode, bool) {
	if terr, ok := extractTxRuleError(err); ok {
		return terr.RejectCode, true
	}

	var cerr blockchain.RuleError
	if errors.As(err, &cerr) {
		return chainRuleError(cerr).Err.(TxRuleError).RejectCode, true
	}

	return wire.RejectInvalid, false
}

// ErrToRejectErr examines the underlying type of the error and returns a
// reject code and string appropriate to be sent in a wire.MsgReject
// message.
func ErrToRejectErr(err error) (wire.RejectCode, string) {
	// Return the reject code along with the error text if it can be
	// extracted from the error.
	rejectCode, found := extractRejectCode(err)
	if found {
		return rejectCode, err.Error()
	}

	// Return a generic rejected string if there is no error.  This really
	// should not happen unless the code elsewhere is not setting an error
	// as it should be, but it's best to be safe and simply return a
	// generic string rather than allowing the following code that
	// dereferences the err to panic.
	if err == nil {
		return wire.RejectInvalid, "rejected"
	}

	// When the underlying error is not one of the above cases, just return
	// wire.RejectInvalid with a generic rejected string plus the error
	// text.
	return wire.RejectInvalid, "rejected: " + err.Error()
}

// IsRejectKind reports whether err is a rule violation of the given kind.
func IsRejectKind(err error, kind RejectKind) bool {
	terr, ok := extractTxRuleError(err)
	return ok && terr.Kind == kind
}

// RejectReason returns the machine-readable reject tag carried by err, or
// the empty string when err is not a rule violation.
func RejectReason(err error) string {
	if terr, ok := extractTxRuleError(err); ok {
		return terr.Reason
	}
	return ""
}
