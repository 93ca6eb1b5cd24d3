// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package amount implements the 4-byte variable-precision amount codec
// ("Vint"). Every transaction and stake hash is computed over these 4
// bytes, so the size/mantissa rule below must match bit-for-bit across
// implementations.
package amount

import "math/bits"

// Bytes is the on-wire, 4-byte encoded form of an Amount.
type Bytes [4]byte

// DecimalPlaces is the number of sub-unit decimal digits (10^-18 units).
const DecimalPlaces = 18

// coin is 10^DecimalPlaces, the smallest-unit value of one whole coin.
var coin = newCoin()

func newCoin() *big128 {
	c := oneU128()
	for i := 0; i < DecimalPlaces; i++ {
		c = c.mulSmall(10)
	}
	return c
}

// big128 is a minimal unsigned 128-bit integer, stored as two uint64 limbs
// (hi, lo), sufficient for the amount range this codec needs.
type big128 struct {
	hi, lo uint64
}

func oneU128() *big128 { return &big128{0, 1} }

func (b *big128) mulSmall(n uint64) *big128 {
	loHi, loLo := bits.Mul64(b.lo, n)
	hi := b.hi*n + loHi
	return &big128{hi, loLo}
}

func (b *big128) isZero() bool { return b.hi == 0 && b.lo == 0 }

// leadingZeros returns the number of leading zero bits across the full
// 128-bit value.
func (b *big128) leadingZeros() int {
	if b.hi != 0 {
		return bits.LeadingZeros64(b.hi)
	}
	return 64 + bits.LeadingZeros64(b.lo)
}

// shiftLeft returns b << n for 0 <= n < 128.
func (b *big128) shiftLeft(n uint) *big128 {
	if n == 0 {
		return &big128{b.hi, b.lo}
	}
	if n >= 128 {
		return &big128{0, 0}
	}
	if n >= 64 {
		return &big128{b.lo << (n - 64), 0}
	}
	hi := (b.hi << n) | (b.lo >> (64 - n))
	lo := b.lo << n
	return &big128{hi, lo}
}

// shiftRight returns b >> n for 0 <= n < 128.
func (b *big128) shiftRight(n uint) *big128 {
	if n == 0 {
		return &big128{b.hi, b.lo}
	}
	if n >= 128 {
		return &big128{0, 0}
	}
	if n >= 64 {
		return &big128{0, b.hi >> (n - 64)}
	}
	lo := (b.lo >> n) | (b.hi << (64 - n))
	hi := b.hi >> n
	return &big128{hi, lo}
}

func (b *big128) add(o *big128) *big128 {
	lo, carry := bits.Add64(b.lo, o.lo, 0)
	hi, _ := bits.Add64(b.hi, o.hi, carry)
	return &big128{hi, lo}
}

// maxU128 returns the maximum representable 128-bit value (all bits set).
func maxU128() *big128 { return &big128{^uint64(0), ^uint64(0)} }

// lowMask128 returns a value with the low n bits set (0 <= n <= 128).
func lowMask128(n uint) *big128 {
	if n == 0 {
		return &big128{0, 0}
	}
	if n >= 128 {
		return maxU128()
	}
	if n >= 64 {
		return &big128{^uint64(0) >> (128 - n), ^uint64(0)}
	}
	return &big128{0, (uint64(1) << n) - 1}
}

// msbByteIndex returns the 0-based index (from the least significant byte)
// of v's most significant non-zero byte, or 0 if v is zero.
func (b *big128) msbByteIndex() int {
	if b.isZero() {
		return 0
	}
	return (127 - b.leadingZeros()) / 8
}

// shiftForSize returns the bit shift associated with a given size nibble.
// The mantissa always holds 28 bits; size selects which byte of the value
// those 28 bits are read from by fixing the shift so the mantissa's top
// bit lines up with the top bit of byte `size`: shift = 8*size - 20 (the
// window covers byte `size` plus the 3 bytes below it, minus the 4 bits
// already spoken for at the bottom). Sizes small enough that the window
// would start before bit 0 simply need no shift at all.
func shiftForSize(size int) uint {
	s := 8*size - 20
	if s < 0 {
		return 0
	}
	return uint(s)
}

// ToBytes encodes the u128 value (hi:lo) as a 4-byte Vint.
//
// The low nibble of the last byte holds an exponent "size" in [0,15]: the
// byte-index of the value's most significant non-zero byte. The remaining
// 28 bits hold a mantissa covering that byte and the ~3.5 bytes below it,
// rounded half-up on the truncated tail. Bits below the mantissa window
// are discarded after rounding; if rounding carries into a new byte, size
// is bumped by one and the mantissa recomputed.
func ToBytes(hi, lo uint64) Bytes {
	v := &big128{hi, lo}
	if v.isZero() {
		return Bytes{}
	}

	size := v.msbByteIndex()
	shift := shiftForSize(size)

	var mantissa uint64
	if shift == 0 {
		mantissa = v.lo & 0x0FFFFFFF
	} else {
		rounded := v.add(lowMask128(shift - 1).add(&big128{0, 1}))
		for {
			m := rounded.shiftRight(shift)
			if m.hi == 0 && m.lo <= 0x0FFFFFFF {
				mantissa = m.lo
				break
			}
			size++
			if size > 15 {
				size = 15
				shift = shiftForSize(size)
				mantissa = rounded.shiftRight(shift).lo & 0x0FFFFFFF
				break
			}
			shift = shiftForSize(size)
		}
	}

	var out Bytes
	out[0] = byte(mantissa >> 20)
	out[1] = byte(mantissa >> 12)
	out[2] = byte(mantissa >> 4)
	out[3] = byte((mantissa<<4)&0xF0) | byte(size&0x0F)
	return out
}

// FromBytes decodes a 4-byte Vint back into a u128 value, returned as
// (hi, lo) limbs. Decoding is exact given the encoder's invariant that
// only representable values appear on the wire.
func FromBytes(b Bytes) (hi, lo uint64) {
	size := int(b[3] & 0x0F)
	mantissa := uint64(b[0])<<20 | uint64(b[1])<<12 | uint64(b[2])<<4 | uint64(b[3]>>4)
	shift := shiftForSize(size)
	v := (&big128{0, mantissa}).shiftLeft(shift)
	return v.hi, v.lo
}

// FloorToRepresentable rounds a u128 value down to the nearest value that
// round-trips exactly through ToBytes/FromBytes. Wallets call this to
// validate entered amounts before they are ever encoded on the wire.
func FloorToRepresentable(hi, lo uint64) (uint64, uint64) {
	b := ToBytes(hi, lo)
	// ToBytes rounds half-up, which can overshoot the input; if it does,
	// step the mantissa down by one before decoding back.
	decHi, decLo := FromBytes(b)
	if gt128(decHi, decLo, hi, lo) {
		size := uint(b[3] & 0x0F)
		mantissa := uint64(b[0])<<20 | uint64(b[1])<<12 | uint64(b[2])<<4 | uint64(b[3]>>4)
		if mantissa > 0 {
			mantissa--
		}
		var nb Bytes
		nb[0] = byte(mantissa >> 20)
		nb[1] = byte(mantissa >> 12)
		nb[2] = byte(mantissa >> 4)
		nb[3] = byte((mantissa<<4)&0xF0) | byte(size&0x0F)
		decHi, decLo = FromBytes(nb)
	}
	return decHi, decLo
}

func gt128(ahi, alo, bhi, blo uint64) bool {
	if ahi != bhi {
		return ahi > bhi
	}
	return alo > blo
}
