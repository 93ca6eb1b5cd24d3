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

// TransactionHashableSize is the length of a Transaction's hashable
// payload: output_address(20) + amount(4) + fee(4) + timestamp(4).
const TransactionHashableSize = address.Size + 4 + 4 + 4

// Transaction is the canonical "form B" record: every field that is
// serialized and hashed. The signer's address (form A's augmentation) is
// recovered on demand from the signature rather than stored.
type Transaction struct {
	OutputAddress address.Address
	Amount        amount.Bytes
	Fee           amount.Bytes
	Timestamp     uint32
	Signature     [key.SignatureSize]byte
}

// hashable returns the fixed-width payload that Hash and Sign operate on.
func (tx *Transaction) hashable() [TransactionHashableSize]byte {
	var buf [TransactionHashableSize]byte
	off := 0
	off += copy(buf[off:], tx.OutputAddress[:])
	off += copy(buf[off:], tx.Amount[:])
	off += copy(buf[off:], tx.Fee[:])
	binary.BigEndian.PutUint32(buf[off:], tx.Timestamp)
	return buf
}

// Hash returns SHA-256 of the hashable payload.
func (tx *Transaction) Hash() Hash {
	buf := tx.hashable()
	return Hash(sha256.Sum256(buf[:]))
}

// Sign signs tx's hash with sk and stores the resulting signature.
func (tx *Transaction) Sign(sk key.SecretKey) error {
	sig, err := sk.Sign(tx.Hash())
	if err != nil {
		return err
	}
	tx.Signature = sig
	return nil
}

// InputAddress recovers the signer address from tx's hash and signature.
func (tx *Transaction) InputAddress() (address.Address, error) {
	return key.RecoverAddress(tx.Hash(), tx.Signature)
}

// Encode writes tx's on-wire record (hashable payload plus signature).
func (tx *Transaction) Encode(w io.Writer) error {
	buf := tx.hashable()
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	_, err := w.Write(tx.Signature[:])
	return err
}

// DecodeTransaction reads a record written by Transaction.Encode.
func DecodeTransaction(r io.Reader) (*Transaction, error) {
	var tx Transaction
	var addr [address.Size]byte
	if _, err := io.ReadFull(r, addr[:]); err != nil {
		return nil, err
	}
	tx.OutputAddress = address.Address(addr)
	if _, err := io.ReadFull(r, tx.Amount[:]); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, tx.Fee[:]); err != nil {
		return nil, err
	}
	var ts [4]byte
	if _, err := io.ReadFull(r, ts[:]); err != nil {
		return nil, err
	}
	tx.Timestamp = binary.BigEndian.Uint32(ts[:])
	if _, err := io.ReadFull(r, tx.Signature[:]); err != nil {
		return nil, err
	}
	return &tx, nil
}
