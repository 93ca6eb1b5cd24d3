// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "encoding/hex"

// HashSize is the length in bytes of a Hash.
const HashSize = 32

// Hash is a SHA-256 digest of a canonically-serialized entity payload.
type Hash [HashSize]byte

// String returns the hex encoding of h.
func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// IsZero reports whether h is the all-zero genesis sentinel.
func (h Hash) IsZero() bool { return h == Hash{} }
