// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math/bits"

	"github.com/vrfpos/node/amount"
)

// U128 is an unsigned 128-bit ledger balance, stored as two uint64 limbs.
// It is distinct from the 4-byte wire encoding in package amount: ledger
// arithmetic needs full-precision add/sub/compare, the wire format only
// needs to serialize the result.
type U128 struct {
	Hi, Lo uint64
}

// Coin is 10^18, the smallest-unit value of one whole coin.
var Coin = U128{Hi: 0, Lo: 1_000_000_000_000_000_000}

// FromAmountBytes decodes a wire amount into a U128.
func FromAmountBytes(b amount.Bytes) U128 {
	hi, lo := amount.FromBytes(b)
	return U128{hi, lo}
}

// ToAmountBytes encodes a U128 as a wire amount.
func (a U128) ToAmountBytes() amount.Bytes {
	return amount.ToBytes(a.Hi, a.Lo)
}

// Add returns a+b.
func (a U128) Add(b U128) U128 {
	lo, carry := bits.Add64(a.Lo, b.Lo, 0)
	hi, _ := bits.Add64(a.Hi, b.Hi, carry)
	return U128{hi, lo}
}

// Sub returns a-b and whether the subtraction underflowed.
func (a U128) Sub(b U128) (U128, bool) {
	lo, borrow := bits.Sub64(a.Lo, b.Lo, 0)
	hi, borrow2 := bits.Sub64(a.Hi, b.Hi, borrow)
	if borrow2 != 0 {
		return U128{}, true
	}
	return U128{hi, lo}, false
}

// Cmp returns -1, 0 or 1 as a is less than, equal to, or greater than b.
func (a U128) Cmp(b U128) int {
	if a.Hi != b.Hi {
		if a.Hi < b.Hi {
			return -1
		}
		return 1
	}
	switch {
	case a.Lo < b.Lo:
		return -1
	case a.Lo > b.Lo:
		return 1
	default:
		return 0
	}
}

// IsZero reports whether a is zero.
func (a U128) IsZero() bool { return a.Hi == 0 && a.Lo == 0 }

// MulSmall returns a*n for a uint64 multiplier.
func (a U128) MulSmall(n uint64) U128 {
	hiLo, loLo := bits.Mul64(a.Lo, n)
	hi := a.Hi*n + hiLo
	return U128{hi, loLo}
}

// Lsh returns a<<n for 0 <= n < 128.
func (a U128) Lsh(n uint) U128 {
	if n == 0 {
		return a
	}
	if n >= 128 {
		return U128{}
	}
	if n >= 64 {
		return U128{Hi: a.Lo << (n - 64)}
	}
	return U128{
		Hi: (a.Hi << n) | (a.Lo >> (64 - n)),
		Lo: a.Lo << n,
	}
}
