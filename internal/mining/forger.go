// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mining implements the forger: leader election for the current
// slot and, when this node is the scheduled leader, construction of the
// next block from the pending pool.
package mining

import (
	"github.com/vrfpos/node/address"
	"github.com/vrfpos/node/blockchain"
	"github.com/vrfpos/node/chainerr"
	"github.com/vrfpos/node/key"
	"github.com/vrfpos/node/wire"
)

// Forger owns the secret key this node forges blocks with, if any.
type Forger struct {
	sk      key.SecretKey
	hasKey  bool
	address address.Address
}

// New returns a Forger using sk to sign and VRF-prove blocks.
func New(sk key.SecretKey) *Forger {
	return &Forger{sk: sk, hasKey: true, address: sk.Address()}
}

// Disabled returns a Forger that never claims to be the leader, used
// when the node holds no forging key (pure observer/RPC node).
func Disabled() *Forger { return &Forger{} }

// Address returns the forger's address. The zero Address if Disabled.
func (f *Forger) Address() address.Address { return f.address }

// ColdStartStake builds and signs the bootstrap self-deposit this node
// broadcasts inside the first block it forges onto an empty validator
// set. The first such accepted stake seeds the staker queue on every
// node that replays the block.
func (f *Forger) ColdStartStake(minStake blockchain.U128, now uint32) (*wire.Stake, error) {
	if !f.hasKey {
		return nil, chainerr.New(chainerr.Key, "forger has no secret key")
	}
	stake := &wire.Stake{
		Amount:    minStake.ToAmountBytes(),
		Deposit:   true,
		Timestamp: now,
	}
	if err := stake.Sign(f.sk); err != nil {
		return nil, err
	}
	return stake, nil
}

// SlotIndex computes the slot offset of wall-clock time now since
// latestBlockTimestamp.
func SlotIndex(now, latestBlockTimestamp uint32) uint64 {
	diff := int64(now) - int64(latestBlockTimestamp)
	if diff < 0 {
		return 0
	}
	return uint64(diff) / uint64(blockchain.BlockTime.Seconds())
}

// IsLeader reports whether this node is the scheduled leader for the
// given staker queue, previous beta and slot index.
func (f *Forger) IsLeader(queue []address.Address, previousBeta [32]byte, slotIndex uint64) bool {
	if !f.hasKey {
		return false
	}
	leader, ok := blockchain.LeaderForSlot(queue, previousBeta, slotIndex)
	return ok && leader == f.address
}

// Forge builds, VRF-proves and signs the next block atop previousHash,
// draining pendingTx/pendingStakes (already in descending-fee order) up
// to BlockSizeLimit. now becomes the block's timestamp. previousBeta is
// the alpha fed to the VRF.
func (f *Forger) Forge(previousHash wire.Hash, previousBeta [32]byte, now uint32, pendingTx []wire.Transaction, pendingStakes []wire.Stake) (*wire.Block, error) {
	if !f.hasKey {
		return nil, chainerr.New(chainerr.Key, "forger has no secret key")
	}

	pi, err := f.sk.VRFProve(previousBeta[:])
	if err != nil {
		return nil, err
	}

	block := &wire.Block{
		PreviousHash: previousHash,
		Timestamp:    now,
		Pi:           pi,
	}

	// Reserve room for two vector-length varints of up to 3 bytes each.
	budget := blockchain.BlockSizeLimit - wire.BlockHashableSize - 6
	for _, tx := range pendingTx {
		cost := wire.TransactionHashableSize + key.SignatureSize
		if budget-cost < 0 {
			break
		}
		block.Transactions = append(block.Transactions, tx)
		budget -= cost
	}
	for _, s := range pendingStakes {
		cost := 4 + wire.StakeHashableSize + key.SignatureSize // amount(4) is encoded but not hashed
		if budget-cost < 0 {
			break
		}
		block.Stakes = append(block.Stakes, s)
		budget -= cost
	}

	if err := block.Sign(f.sk); err != nil {
		return nil, err
	}
	return block, nil
}
