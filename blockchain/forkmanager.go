// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/vrfpos/node/chainerr"
	"github.com/vrfpos/node/wire"
)

// ForkManager splits the main chain into a finalized Stable prefix and a
// tentative Unstable suffix of at most K blocks, and validates that a
// candidate chain tip does not require reverting a finalized block.
type ForkManager struct {
	K        int
	Stable   *Stable
	Unstable *Unstable
}

// NewForkManager returns a ForkManager with an empty unstable suffix atop
// the given stable state.
func NewForkManager(k int, stable *Stable) *ForkManager {
	return &ForkManager{K: k, Stable: stable, Unstable: &Unstable{State: NewState()}}
}

// LiveBoundary returns the oldest hash of the current unstable suffix, the
// same firstOfCurrent target Resolve walks toward: any tree branch that
// cannot reach it (or the genesis sentinel) within K hops forks behind
// the stable prefix and can never be legally extended. The zero Hash
// before any block has been finalized into the unstable suffix.
func (fm *ForkManager) LiveBoundary() wire.Hash {
	if len(fm.Unstable.Hashes) == 0 {
		return wire.Hash{}
	}
	return fm.Unstable.Hashes[0]
}

// Resolve computes the Unstable state for a candidate tip named by
// previousHash, walking the tree backward at most K steps looking for the
// first hash of the current unstable segment. Each visited hash is
// collected before the comparison, so the rebuilt suffix includes the
// boundary block itself. Reaching the genesis sentinel instead counts as
// success only while nothing has been finalized yet (competing branches
// rooted at genesis are legal on a young chain); once Stable is
// non-empty, a walk that runs past the boundary fails with
// ErrNotAllowedToForkStableChain.
func (fm *ForkManager) Resolve(loader BlockLoader, tree *Tree, previousHash wire.Hash) (*Unstable, error) {
	if previousHash.IsZero() {
		return &Unstable{State: NewState()}, nil
	}

	var firstOfCurrent wire.Hash
	hasFirst := len(fm.Unstable.Hashes) > 0
	if hasFirst {
		firstOfCurrent = fm.Unstable.Hashes[0]
	}

	var collected []wire.Hash
	cur := previousHash
	for step := 0; step < fm.K; step++ {
		collected = append(collected, cur)
		if hasFirst && cur == firstOfCurrent {
			break
		}
		parent, ok := tree.Get(cur)
		if !ok {
			break
		}
		cur = parent
	}
	reachedFirst := hasFirst && cur == firstOfCurrent
	reachedGenesis := cur.IsZero() && len(fm.Stable.Hashes) == 0
	if !reachedFirst && !reachedGenesis {
		return nil, chainerr.ErrNotAllowedToForkStableChain
	}

	if len(collected) > 0 && collected[len(collected)-1].IsZero() {
		collected = collected[:len(collected)-1]
	}
	for i, j := 0, len(collected)-1; i < j; i, j = i+1, j-1 {
		collected[i], collected[j] = collected[j], collected[i]
	}

	return NewUnstable(loader, collected, fm.Stable)
}

// Update advances the stable/unstable split for the main chain's new
// not-yet-finalized suffix (tip-exclusive of Stable, oldest-first). Any
// suffix blocks beyond the K-block cap are folded into Stable oldest
// first — in the steady one-block-per-slot case that is exactly "unstable
// already at K, consume its oldest" — then Unstable is rebuilt from the
// remainder. A reorg to a same-height tip therefore folds nothing.
func (fm *ForkManager) Update(loader BlockLoader, newHashes []wire.Hash) error {
	for len(newHashes) > fm.K {
		oldest := newHashes[0]
		block, err := loader.LoadBlock(oldest)
		if err != nil {
			return err
		}
		prevTimestamp := uint32(0)
		if len(fm.Stable.LatestBlocks) > 0 {
			prevTimestamp = fm.Stable.LatestBlocks[len(fm.Stable.LatestBlocks)-1]
		}
		if err := fm.Stable.AppendBlock(block, prevTimestamp); err != nil {
			return err
		}
		newHashes = newHashes[1:]
	}

	u, err := NewUnstable(loader, newHashes, fm.Stable)
	if err != nil {
		return err
	}
	fm.Unstable = u
	return nil
}
