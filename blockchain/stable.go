// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/vrfpos/node/address"
	"github.com/vrfpos/node/wire"
)

// Stable is the finalized prefix of the main chain. Once a block enters
// Stable it is never reverted.
type Stable struct {
	*State
}

// NewStable returns an empty Stable state (the genesis position).
func NewStable() *Stable {
	return &Stable{State: NewState()}
}

// Load replays hashes into s in order, resolving each block body through
// loader. Used at startup to advance a checkpoint-restored (or empty)
// stable prefix to the height the persisted chain implies without
// touching the unstable machinery.
func (s *Stable) Load(loader BlockLoader, hashes []wire.Hash) error {
	prevTimestamp := uint32(0)
	if len(s.LatestBlocks) > 0 {
		prevTimestamp = s.LatestBlocks[len(s.LatestBlocks)-1]
	}
	for _, h := range hashes {
		block, err := loader.LoadBlock(h)
		if err != nil {
			return err
		}
		if err := s.AppendBlock(block, prevTimestamp); err != nil {
			return err
		}
		prevTimestamp = block.Timestamp
	}
	return nil
}

// Checkpoint is the serializable snapshot persisted so the node can
// resume without replaying the whole stable prefix. Height is a
// supplemented field alongside the maps/queue: it tells the caller how
// many main-chain hashes the snapshot covers, so exactly those can be
// handed to FromCheckpoint (which does not read Height itself) instead of
// being replayed.
type Checkpoint struct {
	Height       int
	Balance      map[address.Address]U128
	Staked       map[address.Address]U128
	StakerQueue  []address.Address
	LatestBlock  wire.Hash
	LatestBlocks []uint32
}

// Checkpoint returns a serializable snapshot of the stable state.
func (s *Stable) Checkpoint() Checkpoint {
	cp := Checkpoint{
		Height:      len(s.Hashes),
		Balance:     make(map[address.Address]U128, len(s.Balance)),
		Staked:      make(map[address.Address]U128, len(s.Staked)),
		LatestBlock: s.LatestBlock,
	}
	for k, v := range s.Balance {
		cp.Balance[k] = v
	}
	for k, v := range s.Staked {
		cp.Staked[k] = v
	}
	cp.StakerQueue = append(cp.StakerQueue, s.StakerQueue...)
	cp.LatestBlocks = append(cp.LatestBlocks, s.LatestBlocks...)
	return cp
}

// FromCheckpoint rebuilds a Stable state from a snapshot and the
// authoritative hash list covering the stable prefix (taken from the main
// chain of the tree rebuilt from the store; the hashes are recorded, not
// replayed block-by-block).
func FromCheckpoint(hashes []wire.Hash, cp Checkpoint) *Stable {
	s := NewStable()
	for k, v := range cp.Balance {
		s.Balance[k] = v
	}
	for k, v := range cp.Staked {
		s.Staked[k] = v
	}
	s.StakerQueue = append(s.StakerQueue, cp.StakerQueue...)
	s.LatestBlock = cp.LatestBlock
	s.LatestBlocks = append(s.LatestBlocks, cp.LatestBlocks...)
	s.Hashes = append(s.Hashes, hashes...)
	return s
}
