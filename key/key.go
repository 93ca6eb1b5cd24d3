// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package key implements secret/public key handling: generation,
// checksummed text encoding, recoverable ECDSA signing tied to a single
// canonical recovery id, and the EC-VRF used for leader election.
package key

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/vrfpos/node/address"
	"github.com/vrfpos/node/chainerr"
)

// SecretSize is the length in bytes of a SecretKey.
const SecretSize = 32

// SignatureSize is the length in bytes of a recoverable signature.
const SignatureSize = 64

// RecoveryID is the only recovery id this chain accepts on a signature;
// signatures that recover under any other id are rejected, which is how
// the chain enforces a unique canonical signature per hash.
const RecoveryID = 0

// compactHeaderCompressed is the btcec/decred compact-signature header
// byte offset for a recovery id of 0 against a compressed public key:
// header = 27 (base) + 4 (compressed) + recovery id.
const compactHeaderCompressed = 31

// SecretKey is a 32-byte secp256k1 private scalar.
type SecretKey [SecretSize]byte

// Generate returns a fresh, randomly generated SecretKey.
func Generate() (SecretKey, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return SecretKey{}, chainerr.Wrap(chainerr.Key, "generate secret key", err)
	}
	var sk SecretKey
	copy(sk[:], priv.Serialize())
	return sk, nil
}

// FromBytes wraps a raw 32-byte scalar as a SecretKey.
func FromBytes(b [SecretSize]byte) SecretKey { return SecretKey(b) }

func (sk SecretKey) priv() *secp256k1.PrivateKey {
	return secp256k1.PrivKeyFromBytes(sk[:])
}

// PublicKey returns the 33-byte compressed public key for sk.
func (sk SecretKey) PublicKey() [33]byte {
	var pub [33]byte
	copy(pub[:], sk.priv().PubKey().SerializeCompressed())
	return pub
}

// Address returns the address derived from sk's public key.
func (sk SecretKey) Address() address.Address {
	return address.FromPublicKey(sk.PublicKey())
}

// checksum4 returns the first 4 bytes of SHA-256(data).
func checksum4(data []byte) [4]byte {
	sum := sha256.Sum256(data)
	var out [4]byte
	copy(out[:], sum[:4])
	return out
}

// String encodes sk as "SECRETx" + 64 hex chars + 8 hex checksum chars.
func (sk SecretKey) String() string {
	cksum := checksum4(sk[:])
	var b strings.Builder
	b.WriteString(address.PrefixSecret)
	b.WriteString(hex.EncodeToString(sk[:]))
	b.WriteString(hex.EncodeToString(cksum[:]))
	return b.String()
}

// Decode parses the "SECRETx"+hex+checksum textual form produced by
// SecretKey.String.
func Decode(s string) (SecretKey, error) {
	trimmed := strings.Replace(s, address.PrefixSecret, "", 1)
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return SecretKey{}, chainerr.Wrap(chainerr.Codec, "decode secret key hex", err)
	}
	if len(decoded) < SecretSize+4 {
		return SecretKey{}, chainerr.New(chainerr.Length, "secret key text too short")
	}
	var sk SecretKey
	copy(sk[:], decoded[:SecretSize])
	want := checksum4(sk[:])
	got := decoded[SecretSize : SecretSize+4]
	for i := range want {
		if want[i] != got[i] {
			return SecretKey{}, chainerr.New(chainerr.Checksum, "secret key checksum mismatch")
		}
	}
	return sk, nil
}

// Sign produces a 64-byte recoverable signature over a 32-byte hash. The
// underlying compact signature's recovery id is forced to RecoveryID by
// negating s when the raw id comes out to 1: (r,s) and (r,-s mod N) are
// both valid signatures over the same hash, and negating s flips only the
// recovery id's low (parity) bit. The high bit (x-coordinate overflowed
// the curve order) essentially never sets in practice for secp256k1; if
// it ever does, signing fails with a Key error rather than publish a
// signature this chain's peers would reject.
func (sk SecretKey) Sign(hash [32]byte) ([SignatureSize]byte, error) {
	compact := ecdsa.SignCompact(sk.priv(), hash[:], true)
	header := compact[0]
	id := int(header) - compactHeaderCompressed
	switch id {
	case RecoveryID:
		var sig [SignatureSize]byte
		copy(sig[:], compact[1:])
		return sig, nil
	case 1:
		var s secp256k1.ModNScalar
		s.SetByteSlice(compact[33:65])
		s.Negate()
		sBytes := s.Bytes()
		var sig [SignatureSize]byte
		copy(sig[:32], compact[1:33])
		copy(sig[32:], sBytes[:])
		return sig, nil
	default:
		return [SignatureSize]byte{}, chainerr.New(chainerr.Key, "could not produce canonical recovery id")
	}
}

// Recover returns the 33-byte compressed public key that produced sig
// over hash, requiring the signature to recover under RecoveryID.
func Recover(hash [32]byte, sig [SignatureSize]byte) ([33]byte, error) {
	var compact [65]byte
	compact[0] = byte(compactHeaderCompressed + RecoveryID)
	copy(compact[1:], sig[:])
	pub, wasCompressed, err := ecdsa.RecoverCompact(compact[:], hash[:])
	if err != nil || !wasCompressed {
		return [33]byte{}, chainerr.Wrap(chainerr.Key, "recover public key", err)
	}
	var out [33]byte
	copy(out[:], pub.SerializeCompressed())
	return out, nil
}

// RecoverAddress recovers the signer address directly from a signed hash.
func RecoverAddress(hash [32]byte, sig [SignatureSize]byte) (address.Address, error) {
	pub, err := Recover(hash, sig)
	if err != nil {
		return address.Address{}, err
	}
	return address.FromPublicKey(pub), nil
}
