// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package address implements the 20-byte address derivation and the
// checksummed text encodings for addresses and secret keys.
package address

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/vrfpos/node/chainerr"
)

// Size is the length in bytes of an Address.
const Size = 20

// PrefixAddress is prepended to the hex form of an address.
const PrefixAddress = "0x"

// PrefixSecret is prepended to the hex form of a secret key.
const PrefixSecret = "SECRETx"

// Address is a 20-byte account identifier derived from a public key.
type Address [Size]byte

// FromPublicKey derives an Address as the first 20 bytes of
// SHA-256(compressed 33-byte public key).
func FromPublicKey(pubKey [33]byte) Address {
	sum := sha256.Sum256(pubKey[:])
	var addr Address
	copy(addr[:], sum[:Size])
	return addr
}

// checksum4 returns the first 4 bytes of SHA-256(data), used as a short
// integrity check appended to the textual encodings below.
func checksum4(data []byte) [4]byte {
	sum := sha256.Sum256(data)
	var out [4]byte
	copy(out[:], sum[:4])
	return out
}

// String encodes the address as "0x" + 40 hex chars + 8 hex checksum
// chars (52 chars total).
func (a Address) String() string {
	cksum := checksum4(a[:])
	var b strings.Builder
	b.Grow(len(PrefixAddress) + hex.EncodedLen(Size) + hex.EncodedLen(4))
	b.WriteString(PrefixAddress)
	b.WriteString(hex.EncodeToString(a[:]))
	b.WriteString(hex.EncodeToString(cksum[:]))
	return b.String()
}

// Decode parses the "0x"+hex+checksum textual form produced by String.
func Decode(s string) (Address, error) {
	trimmed := strings.Replace(s, PrefixAddress, "", 1)
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return Address{}, chainerr.Wrap(chainerr.Codec, "decode address hex", err)
	}
	if len(decoded) < Size+4 {
		return Address{}, chainerr.New(chainerr.Length, "address text too short")
	}
	var addr Address
	copy(addr[:], decoded[:Size])
	want := checksum4(addr[:])
	if !bytesEqual(want[:], decoded[Size:Size+4]) {
		return Address{}, chainerr.New(chainerr.Checksum, "address checksum mismatch")
	}
	return addr, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
