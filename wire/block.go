// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"crypto/sha256"
	"encoding/binary"
	"io"

	"github.com/vrfpos/node/address"
	"github.com/vrfpos/node/key"
)

// BlockHashableSize is the length of a Block's hashable payload:
// previous_hash(32) + timestamp(4) + signature(64) + pi(81).
const BlockHashableSize = HashSize + 4 + key.SignatureSize + key.VRFProofSize

// blockSigningSize is the payload the forger actually signs: everything
// the final hash covers except the signature itself, since the
// signature cannot be part of its own preimage.
const blockSigningSize = HashSize + 4 + key.VRFProofSize

// Block is the canonical "form B" record.
type Block struct {
	PreviousHash Hash
	Timestamp    uint32
	Signature    [key.SignatureSize]byte
	Pi           [key.VRFProofSize]byte
	Transactions []Transaction
	Stakes       []Stake
}

func (b *Block) signingPayload() [blockSigningSize]byte {
	var buf [blockSigningSize]byte
	off := 0
	off += copy(buf[off:], b.PreviousHash[:])
	binary.BigEndian.PutUint32(buf[off:], b.Timestamp)
	off += 4
	copy(buf[off:], b.Pi[:])
	return buf
}

// SigningHash is the digest the forger signs: it excludes the signature
// field, which cannot be part of its own preimage.
func (b *Block) SigningHash() Hash {
	buf := b.signingPayload()
	return Hash(sha256.Sum256(buf[:]))
}

// Hash returns SHA-256 of the full hashable payload, including the
// signature produced over SigningHash.
func (b *Block) Hash() Hash {
	var buf [BlockHashableSize]byte
	off := 0
	off += copy(buf[off:], b.PreviousHash[:])
	binary.BigEndian.PutUint32(buf[off:], b.Timestamp)
	off += 4
	off += copy(buf[off:], b.Signature[:])
	copy(buf[off:], b.Pi[:])
	return Hash(sha256.Sum256(buf[:]))
}

// Sign signs b.SigningHash() with sk and stores the resulting signature.
// Pi must already be set.
func (b *Block) Sign(sk key.SecretKey) error {
	sig, err := sk.Sign(b.SigningHash())
	if err != nil {
		return err
	}
	b.Signature = sig
	return nil
}

// ForgerAddress recovers the address that produced b's signature.
func (b *Block) ForgerAddress() (address.Address, error) {
	return key.RecoverAddress(b.SigningHash(), b.Signature)
}

// ForgerPublicKey recovers the 33-byte compressed public key that
// produced b's signature, needed to VRF-verify b.Pi against b's forger.
func (b *Block) ForgerPublicKey() ([33]byte, error) {
	return key.Recover(b.SigningHash(), b.Signature)
}

// Encode writes b's on-wire record: the hashable header followed by
// varint-length-prefixed transaction and stake vectors.
func (b *Block) Encode(w io.Writer) error {
	var hdr [BlockHashableSize]byte
	off := 0
	off += copy(hdr[off:], b.PreviousHash[:])
	binary.BigEndian.PutUint32(hdr[off:], b.Timestamp)
	off += 4
	off += copy(hdr[off:], b.Signature[:])
	copy(hdr[off:], b.Pi[:])
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}

	if err := WriteVarInt(w, uint64(len(b.Transactions))); err != nil {
		return err
	}
	for i := range b.Transactions {
		if err := b.Transactions[i].Encode(w); err != nil {
			return err
		}
	}
	if err := WriteVarInt(w, uint64(len(b.Stakes))); err != nil {
		return err
	}
	for i := range b.Stakes {
		if err := b.Stakes[i].Encode(w); err != nil {
			return err
		}
	}
	return nil
}

// DecodeBlock reads a record written by Block.Encode.
func DecodeBlock(r io.Reader) (*Block, error) {
	var b Block
	var hdr [BlockHashableSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	off := 0
	copy(b.PreviousHash[:], hdr[off:off+HashSize])
	off += HashSize
	b.Timestamp = binary.BigEndian.Uint32(hdr[off : off+4])
	off += 4
	copy(b.Signature[:], hdr[off:off+key.SignatureSize])
	off += key.SignatureSize
	copy(b.Pi[:], hdr[off:])

	txCount, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	b.Transactions = make([]Transaction, 0, txCount)
	for i := uint64(0); i < txCount; i++ {
		tx, err := DecodeTransaction(r)
		if err != nil {
			return nil, err
		}
		b.Transactions = append(b.Transactions, *tx)
	}

	stakeCount, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	b.Stakes = make([]Stake, 0, stakeCount)
	for i := uint64(0); i < stakeCount; i++ {
		s, err := DecodeStake(r)
		if err != nil {
			return nil, err
		}
		b.Stakes = append(b.Stakes, *s)
	}
	return &b, nil
}

// Size returns the encoded wire size of b in bytes, used to enforce the
// per-block size limit during admission and forging.
func (b *Block) Size() int {
	n := BlockHashableSize + varIntSize(uint64(len(b.Transactions))) + varIntSize(uint64(len(b.Stakes)))
	n += len(b.Transactions) * (TransactionHashableSize + key.SignatureSize)
	// A stake record also carries its 4-byte amount, which is not hashed.
	n += len(b.Stakes) * (4 + StakeHashableSize + key.SignatureSize)
	return n
}

func varIntSize(v uint64) int {
	switch {
	case v < varIntPrefix16:
		return 1
	case v <= 0xffff:
		return 3
	case v <= 0xffffffff:
		return 5
	default:
		return 9
	}
}
