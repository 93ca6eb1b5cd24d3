// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"crypto/sha256"
	"encoding/binary"
	"io"

	"github.com/vrfpos/node/address"
	"github.com/vrfpos/node/amount"
	"github.com/vrfpos/node/key"
)

// StakeHashableSize is the length of a Stake's hashable payload:
// timestamp(4) + fee(4) + deposit(1). Unlike Transaction, amount does not
// enter the hash: the deposit/withdraw accounting reads it straight off
// the stored record instead.
const StakeHashableSize = 4 + 4 + 1

// Stake is the canonical "form B" record for a deposit/withdraw request.
type Stake struct {
	Amount    amount.Bytes
	Fee       amount.Bytes
	Deposit   bool
	Timestamp uint32
	Signature [key.SignatureSize]byte
}

func depositByte(deposit bool) byte {
	if deposit {
		return 1
	}
	return 0
}

// hashable returns the fixed-width payload that Hash and Sign operate on:
// timestamp ‖ fee ‖ deposit_byte, in that order.
func (s *Stake) hashable() [StakeHashableSize]byte {
	var buf [StakeHashableSize]byte
	binary.BigEndian.PutUint32(buf[0:4], s.Timestamp)
	copy(buf[4:8], s.Fee[:])
	buf[8] = depositByte(s.Deposit)
	return buf
}

// Hash returns SHA-256 of the hashable payload.
func (s *Stake) Hash() Hash {
	buf := s.hashable()
	return Hash(sha256.Sum256(buf[:]))
}

// Sign signs s's hash with sk and stores the resulting signature.
func (s *Stake) Sign(sk key.SecretKey) error {
	sig, err := sk.Sign(s.Hash())
	if err != nil {
		return err
	}
	s.Signature = sig
	return nil
}

// InputAddress recovers the signer address from s's hash and signature.
func (s *Stake) InputAddress() (address.Address, error) {
	return key.RecoverAddress(s.Hash(), s.Signature)
}

// Encode writes s's on-wire record: amount, fee, deposit, timestamp,
// signature, in struct-declaration order (the hash is computed over a
// different field subset/order; see hashable).
func (s *Stake) Encode(w io.Writer) error {
	if _, err := w.Write(s.Amount[:]); err != nil {
		return err
	}
	if _, err := w.Write(s.Fee[:]); err != nil {
		return err
	}
	if _, err := w.Write([]byte{depositByte(s.Deposit)}); err != nil {
		return err
	}
	var ts [4]byte
	binary.BigEndian.PutUint32(ts[:], s.Timestamp)
	if _, err := w.Write(ts[:]); err != nil {
		return err
	}
	_, err := w.Write(s.Signature[:])
	return err
}

// DecodeStake reads a record written by Stake.Encode.
func DecodeStake(r io.Reader) (*Stake, error) {
	var s Stake
	if _, err := io.ReadFull(r, s.Amount[:]); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, s.Fee[:]); err != nil {
		return nil, err
	}
	var dep [1]byte
	if _, err := io.ReadFull(r, dep[:]); err != nil {
		return nil, err
	}
	s.Deposit = dep[0] != 0
	var ts [4]byte
	if _, err := io.ReadFull(r, ts[:]); err != nil {
		return nil, err
	}
	s.Timestamp = binary.BigEndian.Uint32(ts[:])
	if _, err := io.ReadFull(r, s.Signature[:]); err != nil {
		return nil, err
	}
	return &s, nil
}
