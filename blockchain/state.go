// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/vrfpos/node/address"
	"github.com/vrfpos/node/key"
	"github.com/vrfpos/node/wire"
)

// latestBlocksWindow bounds the rolling window of recent block
// timestamps kept for other subsystems to inspect; its last entry is the
// previous-block timestamp used for slot arithmetic (missed-slot
// penalties, the forger's slot index).
const latestBlocksWindow = 64

// State is the ledger derived from a block sequence: per-address
// balances, per-address stakes and the FIFO staker queue. Stable and
// Unstable are both thin wrappers around the same State plus AppendBlock
// logic; they differ only in how they are constructed and finalized.
type State struct {
	Balance      map[address.Address]U128
	Staked       map[address.Address]U128
	StakerQueue  []address.Address
	LatestBlock  wire.Hash
	Hashes       []wire.Hash
	LatestBlocks []uint32

	// resolver, when set, recovers tx/stake input addresses through the
	// store's persistent cache instead of recomputing ECDSA
	// recovery on every AppendBlock. Unwired (nil) in isolated tests,
	// where AppendBlock falls back to recovering straight from the
	// signature.
	resolver AddressResolver
}

// NewState returns an empty State.
func NewState() *State {
	return &State{
		Balance: make(map[address.Address]U128),
		Staked:  make(map[address.Address]U128),
	}
}

// Clone returns a deep copy of s, used to project Unstable forward from
// a Stable snapshot without mutating it.
func (s *State) Clone() *State {
	out := NewState()
	for k, v := range s.Balance {
		out.Balance[k] = v
	}
	for k, v := range s.Staked {
		out.Staked[k] = v
	}
	out.StakerQueue = append(out.StakerQueue, s.StakerQueue...)
	out.LatestBlock = s.LatestBlock
	out.Hashes = append(out.Hashes, s.Hashes...)
	out.LatestBlocks = append(out.LatestBlocks, s.LatestBlocks...)
	out.resolver = s.resolver
	return out
}

// SetResolver wires a persistent address cache into s; production call
// sites (cmd/vrfposd) call this once on the long-lived Stable state with
// the opened store. NewUnstable wires its own rebuilt Unstable states
// automatically from the BlockLoader it is given.
func (s *State) SetResolver(r AddressResolver) { s.resolver = r }

// inputAddress recovers a tx/stake's signer through s.resolver when one
// is wired in, falling back to recovering straight from the signature.
func (s *State) inputAddress(hash wire.Hash, signature [key.SignatureSize]byte) (address.Address, error) {
	if s.resolver != nil {
		return s.resolver.InputAddress(hash, signature)
	}
	return key.RecoverAddress(hash, signature)
}

// Balances and stakes default to zero for addresses never seen.
func (s *State) BalanceOf(a address.Address) U128 { return s.Balance[a] }
func (s *State) StakedOf(a address.Address) U128  { return s.Staked[a] }

func (s *State) inQueue(a address.Address) bool {
	for _, q := range s.StakerQueue {
		if q == a {
			return true
		}
	}
	return false
}

func (s *State) removeFromQueue(a address.Address) {
	for i, q := range s.StakerQueue {
		if q == a {
			s.StakerQueue = append(s.StakerQueue[:i], s.StakerQueue[i+1:]...)
			return
		}
	}
}

// AppendBlock applies block's effects to s in the order specified: slot
// penalties, transaction transfers, stake deposits/withdrawals, the
// forger's reward, and the staker queue rotation. previousBlockTimestamp
// is the timestamp of the block this one extends, used for slot-miss
// accounting.
func (s *State) AppendBlock(block *wire.Block, previousBlockTimestamp uint32) error {
	blockTimeSecs := int64(BlockTime.Seconds())

	// 1. Penalize each missed slot's scheduled (head-of-queue) staker.
	// The first block of the chain has no slot schedule before it, so a
	// zero previous timestamp charges nobody.
	diff := int64(block.Timestamp) - int64(previousBlockTimestamp)
	missed := 0
	if diff > 0 && previousBlockTimestamp > 0 {
		missed = int(diff/blockTimeSecs) - 1
		if missed < 0 {
			missed = 0
		}
	}
	for i := 1; i <= missed; i++ {
		if len(s.StakerQueue) == 0 {
			break
		}
		staker := s.StakerQueue[0]
		s.StakerQueue = s.StakerQueue[1:]
		penalty := Coin.Lsh(uint(i - 1))
		staked := s.Staked[staker]
		remaining, underflow := staked.Sub(penalty)
		if underflow {
			remaining = U128{}
		}
		if remaining.IsZero() {
			delete(s.Staked, staker)
		} else {
			s.Staked[staker] = remaining
			s.StakerQueue = append(s.StakerQueue, staker)
		}
	}

	var fees U128

	// 2. Transactions: debit input by amount+fee, credit output by amount.
	for i := range block.Transactions {
		tx := &block.Transactions[i]
		input, err := s.inputAddress(tx.Hash(), tx.Signature)
		if err != nil {
			return err
		}
		amt := FromAmountBytes(tx.Amount)
		fee := FromAmountBytes(tx.Fee)
		debit := amt.Add(fee)
		bal, _ := s.Balance[input].Sub(debit)
		s.Balance[input] = bal
		s.Balance[tx.OutputAddress] = s.Balance[tx.OutputAddress].Add(amt)
		fees = fees.Add(fee)
	}

	// 3. Stakes: deposit locks funds as stake, withdraw releases them.
	for i := range block.Stakes {
		stake := &block.Stakes[i]
		input, err := s.inputAddress(stake.Hash(), stake.Signature)
		if err != nil {
			return err
		}
		amt := FromAmountBytes(stake.Amount)
		fee := FromAmountBytes(stake.Fee)
		fees = fees.Add(fee)

		wasZero := s.Staked[input].IsZero()
		if stake.Deposit {
			debit := amt.Add(fee)
			bal, _ := s.Balance[input].Sub(debit)
			s.Balance[input] = bal
			s.Staked[input] = s.Staked[input].Add(amt)
			if wasZero && !s.Staked[input].IsZero() {
				s.StakerQueue = append(s.StakerQueue, input)
			}
		} else {
			remaining, _ := s.Staked[input].Sub(amt)
			s.Staked[input] = remaining
			net, underflow := amt.Sub(fee)
			if underflow {
				net = U128{}
			}
			s.Balance[input] = s.Balance[input].Add(net)
			if !wasZero && remaining.IsZero() {
				s.removeFromQueue(input)
				delete(s.Staked, input)
			}
		}
	}

	// 4. Forger reward: subsidy scaling with the active validator set,
	// plus every fee collected in the block.
	forger, err := block.ForgerAddress()
	if err != nil {
		return err
	}
	subsidy := Coin.MulSmall(uint64(len(s.StakerQueue) + 1))
	s.Balance[forger] = s.Balance[forger].Add(subsidy).Add(fees)

	// 5. Rotate the staker queue: the forger, if staked, moves to the
	// back. A forger with no active stake (only possible while the
	// validator set is bootstrapping) never enters the queue here.
	if s.inQueue(forger) {
		s.removeFromQueue(forger)
		s.StakerQueue = append(s.StakerQueue, forger)
	}

	hash := block.Hash()
	s.Hashes = append(s.Hashes, hash)
	s.LatestBlock = hash
	s.LatestBlocks = append(s.LatestBlocks, block.Timestamp)
	if len(s.LatestBlocks) > latestBlocksWindow {
		s.LatestBlocks = s.LatestBlocks[len(s.LatestBlocks)-latestBlocksWindow:]
	}
	return nil
}
