// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package address

import "testing"

func TestEncodeZero(t *testing.T) {
	var a Address
	got := a.String()
	want := "0x0000000000000000000000000000000000000000de47c9b2"
	if got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	a, err := Decode("0x0000000000000000000000000000000000000000de47c9b2")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if a != (Address{}) {
		t.Fatalf("Decode() = %x, want zero", a)
	}
	if a.String() != "0x0000000000000000000000000000000000000000de47c9b2" {
		t.Fatalf("round trip mismatch: %s", a.String())
	}
}

func TestDecodeBadChecksum(t *testing.T) {
	_, err := Decode("0x0000000000000000000000000000000000000000de47c9b3")
	if err == nil {
		t.Fatal("expected checksum error")
	}
}

func TestFromPublicKey(t *testing.T) {
	var pub [33]byte
	got := FromPublicKey(pub)
	want := Address{
		0x7f, 0x9c, 0x9e, 0x31, 0xac, 0x82, 0x56, 0xca,
		0x2f, 0x25, 0x85, 0x83, 0xdf, 0x26, 0x2d, 0xbc,
		0x7d, 0x6f, 0x68, 0xf2,
	}
	if got != want {
		t.Fatalf("FromPublicKey(zero-33) = %x, want %x", got, want)
	}
}
