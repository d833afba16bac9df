// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package assetalloc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

const (
	// maxAddressLen is the longest encoded witness address: one version
	// byte followed by a program of at most 40 bytes.
	maxAddressLen = 41

	// minProgramLen is the shortest valid witness program.
	minProgramLen = 2

	// maxTuples bounds the number of allocation tuples in one payload.
	maxTuples = 64

	// maxReceivers bounds the number of receivers in one tuple.
	maxReceivers = 250

	// pver is the protocol version passed to the wire var-length helpers,
	// which ignore it.
	pver = 0
)

var (
	// ErrNoPayload is returned when a transaction has no data carrier
	// output.
	ErrNoPayload = errors.New("no asset allocation payload")

	// ErrMalformedPayload is returned when the data carrier output does
	// not decode as an asset allocation.
	ErrMalformedPayload = errors.New("malformed asset allocation payload")
)

// WitnessAddress is a witness version and program identifying an actor.
type WitnessAddress struct {
	Version byte
	Program []byte
}

// Bytes returns the encoded address: the version byte followed by the
// program.
func (a WitnessAddress) Bytes() []byte {
	b := make([]byte, 0, 1+len(a.Program))
	b = append(b, a.Version)
	return append(b, a.Program...)
}

// Receiver is a single output of an allocation tuple.
type Receiver struct {
	Address WitnessAddress
	Amount  int64
}

// Tuple moves an amount of one asset from a sender to its receivers.
type Tuple struct {
	GUID      uint32
	Sender    WitnessAddress
	Receivers []Receiver
}

// Allocation is the decoded payload of an asset transaction.
type Allocation struct {
	Tuples []Tuple
}

// IsNull reports whether the allocation carries no tuples.
func (a *Allocation) IsNull() bool {
	return a == nil || len(a.Tuples) == 0
}

// Serialize encodes the allocation to w.
func (a *Allocation) Serialize(w io.Writer) error {
	if err := wire.WriteVarInt(w, pver, uint64(len(a.Tuples))); err != nil {
		return err
	}
	var scratch [8]byte
	for _, tuple := range a.Tuples {
		binary.LittleEndian.PutUint32(scratch[:4], tuple.GUID)
		if _, err := w.Write(scratch[:4]); err != nil {
			return err
		}
		err := wire.WriteVarBytes(w, pver, tuple.Sender.Bytes())
		if err != nil {
			return err
		}
		err = wire.WriteVarInt(w, pver, uint64(len(tuple.Receivers)))
		if err != nil {
			return err
		}
		for _, recv := range tuple.Receivers {
			err := wire.WriteVarBytes(w, pver, recv.Address.Bytes())
			if err != nil {
				return err
			}
			binary.LittleEndian.PutUint64(scratch[:], uint64(recv.Amount))
			if _, err := w.Write(scratch[:]); err != nil {
				return err
			}
		}
	}
	return nil
}

// Deserialize decodes an allocation from r.
func (a *Allocation) Deserialize(r io.Reader) error {
	count, err := wire.ReadVarInt(r, pver)
	if err != nil {
		return err
	}
	if count > maxTuples {
		return fmt.Errorf("%d tuples exceeds max %d", count, maxTuples)
	}

	var scratch [8]byte
	a.Tuples = make([]Tuple, count)
	for i := range a.Tuples {
		tuple := &a.Tuples[i]
		if _, err := io.ReadFull(r, scratch[:4]); err != nil {
			return err
		}
		tuple.GUID = binary.LittleEndian.Uint32(scratch[:4])
		if tuple.Sender, err = readAddress(r); err != nil {
			return err
		}

		numReceivers, err := wire.ReadVarInt(r, pver)
		if err != nil {
			return err
		}
		if numReceivers > maxReceivers {
			return fmt.Errorf("%d receivers exceeds max %d",
				numReceivers, maxReceivers)
		}
		tuple.Receivers = make([]Receiver, numReceivers)
		for j := range tuple.Receivers {
			recv := &tuple.Receivers[j]
			if recv.Address, err = readAddress(r); err != nil {
				return err
			}
			if _, err := io.ReadFull(r, scratch[:]); err != nil {
				return err
			}
			recv.Amount = int64(binary.LittleEndian.Uint64(scratch[:]))
		}
	}
	return nil
}

func readAddress(r io.Reader) (WitnessAddress, error) {
	b, err := wire.ReadVarBytes(r, pver, maxAddressLen, "witness address")
	if err != nil {
		return WitnessAddress{}, err
	}
	if len(b) < 1+minProgramLen {
		return WitnessAddress{}, fmt.Errorf("witness address of %d "+
			"bytes is too short", len(b))
	}
	return WitnessAddress{Version: b[0], Program: b[1:]}, nil
}

// IsDataScript reports whether pkScript is a data carrier: OP_RETURN
// followed by exactly one data push.
func IsDataScript(pkScript []byte) bool {
	_, ok := dataPush(pkScript)
	return ok
}

func dataPush(pkScript []byte) ([]byte, bool) {
	if len(pkScript) < 2 || pkScript[0] != txscript.OP_RETURN {
		return nil, false
	}
	if !txscript.IsPushOnlyScript(pkScript[1:]) {
		return nil, false
	}
	pushes, err := txscript.PushedData(pkScript[1:])
	if err != nil || len(pushes) != 1 {
		return nil, false
	}
	return pushes[0], true
}

// PayloadScript returns a data carrier script holding the encoded
// allocation.
func PayloadScript(a *Allocation) ([]byte, error) {
	var buf bytes.Buffer
	if err := a.Serialize(&buf); err != nil {
		return nil, err
	}
	return txscript.NewScriptBuilder().AddOp(txscript.OP_RETURN).
		AddData(buf.Bytes()).Script()
}

// Decode returns the allocation carried by the first data carrier output of
// tx.
func Decode(tx *wire.MsgTx) (*Allocation, error) {
	for _, txOut := range tx.TxOut {
		data, ok := dataPush(txOut.PkScript)
		if !ok {
			continue
		}

		var alloc Allocation
		r := bytes.NewReader(data)
		if err := alloc.Deserialize(r); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		if r.Len() != 0 {
			return nil, fmt.Errorf("%w: %d trailing bytes",
				ErrMalformedPayload, r.Len())
		}
		return &alloc, nil
	}
	return nil, ErrNoPayload
}
