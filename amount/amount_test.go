// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package amount

import "testing"

func TestToBytesZero(t *testing.T) {
	got := ToBytes(0, 0)
	want := Bytes{}
	if got != want {
		t.Fatalf("ToBytes(0) = %x, want %x", got, want)
	}
}

func TestToBytesTwoToThe64(t *testing.T) {
	got := ToBytes(1, 0)
	want := Bytes{1, 0, 0, 8}
	if got != want {
		t.Fatalf("ToBytes(2^64) = %x, want %x", got, want)
	}
}

func TestFromBytesMax(t *testing.T) {
	hi, lo := FromBytes(Bytes{0xff, 0xff, 0xff, 0xff})
	// 0xFFFFFFF << 100 split across hi:lo limbs.
	wantHi := uint64(0xFFFFFFF) << (100 - 64)
	wantLo := uint64(0)
	if hi != wantHi || lo != wantLo {
		t.Fatalf("FromBytes(max) = (%#x,%#x), want (%#x,%#x)", hi, lo, wantHi, wantLo)
	}
}

func TestRoundTripSmallValues(t *testing.T) {
	for _, v := range []uint64{0, 1, 42, 1000, 1<<28 - 1} {
		b := ToBytes(0, v)
		hi, lo := FromBytes(b)
		if hi != 0 || lo != v {
			t.Fatalf("round trip %d: got (%d,%d)", v, hi, lo)
		}
	}
}

func TestRoundTripTwoToThe64(t *testing.T) {
	b := ToBytes(1, 0)
	hi, lo := FromBytes(b)
	if hi != 1 || lo != 0 {
		t.Fatalf("round trip 2^64: got (%d,%d)", hi, lo)
	}
}

func TestFloorToRepresentableIdempotent(t *testing.T) {
	hi, lo := FloorToRepresentable(0, coin.lo)
	b := ToBytes(hi, lo)
	decHi, decLo := FromBytes(b)
	if decHi != hi || decLo != lo {
		t.Fatalf("floor value does not round-trip exactly: (%d,%d) -> (%d,%d)", hi, lo, decHi, decLo)
	}
}

func TestCoinIsTenToThe18(t *testing.T) {
	if coin.hi != 0 {
		t.Fatalf("coin.hi = %d, want 0", coin.hi)
	}
	if coin.lo != 1_000_000_000_000_000_000 {
		t.Fatalf("coin.lo = %d, want 10^18", coin.lo)
	}
}
