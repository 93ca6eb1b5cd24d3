// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wire implements the canonical on-wire byte formats for
// transactions, stakes and blocks, and the SHA-256 hashes computed over
// their fixed-width hashable payloads.
package wire

import (
	"encoding/binary"
	"io"
)

// Bitcoin-style variable length integer prefixes, used only for the
// length of the transaction/stake vectors inside a block record; every
// hashable entity field itself is fixed-width (see each type's Hash
// method).
const (
	varIntPrefix16 = 0xfd
	varIntPrefix32 = 0xfe
	varIntPrefix64 = 0xff
)

// WriteVarInt writes v to w using the minimal prefixed encoding.
func WriteVarInt(w io.Writer, v uint64) error {
	switch {
	case v < varIntPrefix16:
		_, err := w.Write([]byte{byte(v)})
		return err
	case v <= 0xffff:
		buf := make([]byte, 3)
		buf[0] = varIntPrefix16
		binary.BigEndian.PutUint16(buf[1:], uint16(v))
		_, err := w.Write(buf)
		return err
	case v <= 0xffffffff:
		buf := make([]byte, 5)
		buf[0] = varIntPrefix32
		binary.BigEndian.PutUint32(buf[1:], uint32(v))
		_, err := w.Write(buf)
		return err
	default:
		buf := make([]byte, 9)
		buf[0] = varIntPrefix64
		binary.BigEndian.PutUint64(buf[1:], v)
		_, err := w.Write(buf)
		return err
	}
}

// ReadVarInt reads a value written by WriteVarInt.
func ReadVarInt(r io.Reader) (uint64, error) {
	var first [1]byte
	if _, err := io.ReadFull(r, first[:]); err != nil {
		return 0, err
	}
	switch first[0] {
	case varIntPrefix16:
		var buf [2]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		return uint64(binary.BigEndian.Uint16(buf[:])), nil
	case varIntPrefix32:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		return uint64(binary.BigEndian.Uint32(buf[:])), nil
	case varIntPrefix64:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		return binary.BigEndian.Uint64(buf[:]), nil
	default:
		return uint64(first[0]), nil
	}
}
