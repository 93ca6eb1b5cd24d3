// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import "time"

// BlockTime is the fixed slot duration.
const BlockTime = 60 * time.Second

// Elapsed is how long the scheduled leader has to publish before the
// next slot begins.
const Elapsed = 90 * time.Second

// BlockSizeLimit is the maximum encoded size of a block, in bytes.
const BlockSizeLimit = 57797

// GenesisPreviousHash and GenesisBeta are both the 32-zero-byte sentinel.
var (
	GenesisPreviousHash [32]byte
	GenesisBeta         [32]byte
)
