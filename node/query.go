// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"github.com/vrfpos/node/address"
	"github.com/vrfpos/node/blockchain"
	"github.com/vrfpos/node/chainerr"
	"github.com/vrfpos/node/syncstatus"
	"github.com/vrfpos/node/wire"
)

// Balance returns a's confirmed-plus-pending spendable balance, read from
// the unstable (candidate-tip) state.
func (n *Node) Balance(a address.Address) blockchain.U128 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.fm.Unstable.BalanceOf(a)
}

// Staked returns a's currently staked amount.
func (n *Node) Staked(a address.Address) blockchain.U128 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.fm.Unstable.StakedOf(a)
}

// Height returns the main chain's height: the stable prefix plus the
// unstable suffix.
func (n *Node) Height() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.fm.Stable.Hashes) + len(n.fm.Unstable.Hashes)
}

// mainChainHashes returns every hash on the main chain in height order,
// stable prefix followed by unstable suffix. Caller must hold n.mu.
func (n *Node) mainChainHashes() []wire.Hash {
	out := make([]wire.Hash, 0, len(n.fm.Stable.Hashes)+len(n.fm.Unstable.Hashes))
	out = append(out, n.fm.Stable.Hashes...)
	out = append(out, n.fm.Unstable.Hashes...)
	return out
}

// HeightByHash returns the 1-indexed height of hash on the main chain.
func (n *Node) HeightByHash(hash wire.Hash) (int, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for i, h := range n.mainChainHashes() {
		if h == hash {
			return i + 1, true
		}
	}
	return 0, false
}

// HashByHeight returns the hash of the main-chain block at the given
// 1-indexed height.
func (n *Node) HashByHeight(height int) (wire.Hash, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	hashes := n.mainChainHashes()
	if height < 1 || height > len(hashes) {
		return wire.Hash{}, false
	}
	return hashes[height-1], true
}

// BlockLatest returns the main chain's tip block.
func (n *Node) BlockLatest() (*wire.Block, error) {
	n.mu.RLock()
	tip := n.fm.Unstable.LatestBlock
	n.mu.RUnlock()
	if tip.IsZero() {
		return nil, chainerr.New(chainerr.NotFound, "chain has no blocks yet")
	}
	return n.store.LoadBlock(tip)
}

// BlockByHash returns the block stored under hash.
func (n *Node) BlockByHash(hash wire.Hash) (*wire.Block, error) {
	return n.store.LoadBlock(hash)
}

// TransactionByHash returns the transaction stored under hash.
func (n *Node) TransactionByHash(hash wire.Hash) (*wire.Transaction, error) {
	return n.store.Transaction(hash)
}

// StakeByHash returns the stake stored under hash.
func (n *Node) StakeByHash(hash wire.Hash) (*wire.Stake, error) {
	return n.store.Stake(hash)
}

// Peers returns every peer address this node knows about.
func (n *Node) Peers() ([]string, error) {
	return n.store.Peers()
}

// StakersUnstable returns the candidate-tip staker queue, head first.
func (n *Node) StakersUnstable() []address.Address {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]address.Address, len(n.fm.Unstable.StakerQueue))
	copy(out, n.fm.Unstable.StakerQueue)
	return out
}

// StakersStable returns the finalized staker queue, head first.
func (n *Node) StakersStable() []address.Address {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]address.Address, len(n.fm.Stable.StakerQueue))
	copy(out, n.fm.Stable.StakerQueue)
	return out
}

// SyncStatus renders the node's current sync state as a human-readable
// string: "caught up" once the acceptance rate falls back to normal,
// otherwise an estimate of how much longer catching up should take.
func (n *Node) SyncStatus() string {
	n.mu.RLock()
	downloading := n.sync.Downloading()
	bps := n.sync.BPS()
	behind := len(n.fm.Unstable.Hashes)
	n.mu.RUnlock()

	if !downloading {
		return "caught up"
	}
	var remainingSlots float64
	if bps > 0 {
		remainingSlots = float64(behind) / bps
	}
	seconds := uint32(remainingSlots * blockchain.BlockTime.Seconds())
	return syncstatus.Humanize(seconds, "caught up")
}
