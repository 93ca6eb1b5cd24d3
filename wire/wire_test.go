// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/vrfpos/node/key"
)

func TestStakeDefaultHash(t *testing.T) {
	var s Stake
	got := s.Hash()
	want, err := hex.DecodeString("3e7077fd2f66d689e0cee6a7cf5b37bf2dca7c979af356d0a31cbc5c85605c7d")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got[:], want) {
		t.Fatalf("default stake hash = %x, want %x", got, want)
	}
}

func TestTransactionEncodeDecodeRoundTrip(t *testing.T) {
	sk, err := key.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	tx := Transaction{
		OutputAddress: sk.Address(),
		Timestamp:     12345,
	}
	if err := tx.Sign(sk); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	var buf bytes.Buffer
	if err := tx.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := DecodeTransaction(&buf)
	if err != nil {
		t.Fatalf("DecodeTransaction: %v", err)
	}
	if decoded.Hash() != tx.Hash() {
		t.Fatalf("decoded hash mismatch")
	}
	addr, err := decoded.InputAddress()
	if err != nil {
		t.Fatalf("InputAddress: %v", err)
	}
	if addr != sk.Address() {
		t.Fatalf("recovered input address mismatch")
	}
}

func TestBlockEncodeDecodeRoundTrip(t *testing.T) {
	sk, err := key.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	alpha := [32]byte{}
	pi, err := sk.VRFProve(alpha[:])
	if err != nil {
		t.Fatalf("VRFProve: %v", err)
	}

	b := Block{Timestamp: 111, Pi: pi}
	if err := b.Sign(sk); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	var buf bytes.Buffer
	if err := b.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := DecodeBlock(&buf)
	if err != nil {
		t.Fatalf("DecodeBlock: %v", err)
	}
	if decoded.Hash() != b.Hash() {
		t.Fatalf("decoded block hash mismatch")
	}
	forger, err := decoded.ForgerAddress()
	if err != nil {
		t.Fatalf("ForgerAddress: %v", err)
	}
	if forger != sk.Address() {
		t.Fatalf("forger address mismatch")
	}
}
