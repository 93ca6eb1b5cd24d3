// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/vrfpos/node/address"
	"github.com/vrfpos/node/key"
	"github.com/vrfpos/node/wire"
)

// AddressResolver recovers the signer address for a transaction/stake
// hash and signature. store.Store implements this over its persistent
// input-address cache: a hit returns the cached recovery, a miss
// recovers via ECDSA and writes the result back. AppendBlock uses one
// when available so replaying the same tx/stake across Stable and every
// rebuilt Unstable never repeats the recovery.
type AddressResolver interface {
	InputAddress(hash wire.Hash, signature [key.SignatureSize]byte) (address.Address, error)
}

// BlockLoader resolves a block hash to its body, so Unstable can replay a
// candidate tip's tentative suffix. store.Store implements this, and its
// InputAddress method also satisfies AddressResolver.
type BlockLoader interface {
	AddressResolver
	LoadBlock(hash wire.Hash) (*wire.Block, error)
}

// Unstable is the tentative suffix derived from a candidate chain tip. It
// is never mutated in place across tip changes: NewUnstable always
// rebuilds it from a stable snapshot plus a fresh hash list, which avoids
// needing any rollback code path.
type Unstable struct {
	*State
}

// NewUnstable clones stable's maps and replays each block named by
// hashes, in order, via the same AppendBlock rules Stable uses.
func NewUnstable(loader BlockLoader, hashes []wire.Hash, stable *Stable) (*Unstable, error) {
	u := &Unstable{State: stable.Clone()}
	u.Hashes = nil
	u.resolver = loader

	prevTimestamp := uint32(0)
	if len(stable.LatestBlocks) > 0 {
		prevTimestamp = stable.LatestBlocks[len(stable.LatestBlocks)-1]
	}

	for _, h := range hashes {
		block, err := loader.LoadBlock(h)
		if err != nil {
			return nil, err
		}
		if err := u.AppendBlock(block, prevTimestamp); err != nil {
			return nil, err
		}
		prevTimestamp = block.Timestamp
	}
	return u, nil
}
