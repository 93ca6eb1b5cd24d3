// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mempool implements the pending pool: admission, validation,
// ordering and deduplication of unconfirmed blocks, transactions and
// stakes ahead of their inclusion in a forged block.
package mempool

import (
	"sort"
	"sync"

	"github.com/vrfpos/node/address"
	"github.com/vrfpos/node/amount"
	"github.com/vrfpos/node/blockchain"
	"github.com/vrfpos/node/chainerr"
	"github.com/vrfpos/node/key"
	"github.com/vrfpos/node/wire"
)

// Default pool caps. Sized to BlockSizeLimit's order of magnitude so a
// single forged block can always be filled from the pool without it
// growing unbounded between slots.
const (
	DefaultMaxBlocks       = 64
	DefaultMaxTransactions = 50_000
	DefaultMaxStakes       = 10_000
)

// TreeLookup resolves a block hash to its previous-hash, satisfied by
// *blockchain.Tree.
type TreeLookup interface {
	Get(hash wire.Hash) (wire.Hash, bool)
}

// Config bounds pool size; zero values fall back to the defaults above.
type Config struct {
	MaxBlocks       int
	MaxTransactions int
	MaxStakes       int
}

// Pool is the in-memory admission pool for unconfirmed chain items. It is
// safe for concurrent use, though the node's single cooperative loop
// means in practice only one goroutine ever touches it at a time; the
// lock exists so RPC query-surface reads never race the node loop's
// writes.
type Pool struct {
	cfg Config

	mu           sync.Mutex
	blocks       map[wire.Hash]*wire.Block
	transactions map[wire.Hash]*wire.Transaction
	stakes       map[wire.Hash]*wire.Stake

	// pendingDebit tracks the sum of amount+fee already committed by
	// pending transactions from a given address, so a second pending tx
	// from the same sender is checked against its true remaining balance
	// rather than the unstable snapshot alone.
	pendingDebit map[address.Address]blockchain.U128

	// resolver, when set, recovers tx/stake input addresses through the
	// store's persistent cache instead of recomputing ECDSA
	// recovery on every admission/prune. Unwired (nil) in isolated tests,
	// where admission falls back to recovering straight from the
	// signature.
	resolver blockchain.AddressResolver
}

// SetResolver wires a persistent address cache into p; the node loop
// calls this once with its opened store.
func (p *Pool) SetResolver(r blockchain.AddressResolver) { p.resolver = r }

// inputAddress recovers a tx/stake's signer through p.resolver when one
// is wired in, falling back to recovering straight from the signature.
func (p *Pool) inputAddress(hash wire.Hash, signature [key.SignatureSize]byte) (address.Address, error) {
	if p.resolver != nil {
		return p.resolver.InputAddress(hash, signature)
	}
	return key.RecoverAddress(hash, signature)
}

// New returns an empty Pool.
func New(cfg Config) *Pool {
	if cfg.MaxBlocks == 0 {
		cfg.MaxBlocks = DefaultMaxBlocks
	}
	if cfg.MaxTransactions == 0 {
		cfg.MaxTransactions = DefaultMaxTransactions
	}
	if cfg.MaxStakes == 0 {
		cfg.MaxStakes = DefaultMaxStakes
	}
	return &Pool{
		cfg:          cfg,
		blocks:       make(map[wire.Hash]*wire.Block),
		transactions: make(map[wire.Hash]*wire.Transaction),
		stakes:       make(map[wire.Hash]*wire.Stake),
		pendingDebit: make(map[address.Address]blockchain.U128),
	}
}

func clampFuture(timestamp, now uint32, timeDeltaSecs int) bool {
	if timeDeltaSecs < 0 {
		timeDeltaSecs = 0
	}
	return int64(timestamp) > int64(now)+int64(timeDeltaSecs)
}

// reject builds a PendingRejected error and logs it at debug: the
// offending item is dropped, never panicked on.
func reject(kind string, hash wire.Hash, reason chainerr.Reason, msg string) (wire.Hash, error) {
	err := chainerr.Rejected(reason, msg)
	log.Debugf("rejected pending %s %s: %v", kind, hash, err)
	return hash, err
}

// AdmitTransaction validates tx against the admission predicates and,
// if they all hold, adds it to the pool. unstable is the current
// candidate-tip ledger state; now and latestStableTimestamp bound the
// timestamp window.
func (p *Pool) AdmitTransaction(tx *wire.Transaction, unstable *blockchain.Unstable, now, latestStableTimestamp uint32, timeDeltaSecs int) (wire.Hash, error) {
	hash := tx.Hash()

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.transactions[hash]; exists {
		return reject("transaction", hash, chainerr.ReasonDuplicate, "transaction already pending")
	}

	input, err := p.inputAddress(hash, tx.Signature)
	if err != nil {
		return reject("transaction", hash, chainerr.ReasonSignature, "transaction signature invalid")
	}
	if tx.OutputAddress == input {
		return reject("transaction", hash, chainerr.ReasonSignature, "output address equals input address")
	}

	amt := blockchain.FromAmountBytes(tx.Amount)
	if amt.IsZero() {
		return reject("transaction", hash, chainerr.ReasonBalance, "amount must be greater than zero")
	}
	fee := blockchain.FromAmountBytes(tx.Fee)
	debit := amt.Add(fee)

	if clampFuture(tx.Timestamp, now, timeDeltaSecs) {
		return reject("transaction", hash, chainerr.ReasonTimestamp, "timestamp too far in the future")
	}
	if tx.Timestamp < latestStableTimestamp {
		return reject("transaction", hash, chainerr.ReasonTimestamp, "timestamp older than latest stable block")
	}

	already := p.pendingDebit[input]
	required := already.Add(debit)
	if unstable.BalanceOf(input).Cmp(required) < 0 {
		return reject("transaction", hash, chainerr.ReasonBalance, "insufficient balance for pending debits")
	}

	if len(p.transactions) >= p.cfg.MaxTransactions {
		return reject("transaction", hash, chainerr.ReasonSize, "pending transaction pool full")
	}

	p.transactions[hash] = tx
	p.pendingDebit[input] = required
	return hash, nil
}

// AdmitStake validates stake against its admission predicates and, if
// they hold, adds it to the pool.
func (p *Pool) AdmitStake(stake *wire.Stake, unstable *blockchain.Unstable, now, latestStableTimestamp uint32, timeDeltaSecs int) (wire.Hash, error) {
	hash := stake.Hash()

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.stakes[hash]; exists {
		return reject("stake", hash, chainerr.ReasonDuplicate, "stake already pending")
	}

	input, err := p.inputAddress(hash, stake.Signature)
	if err != nil {
		return reject("stake", hash, chainerr.ReasonSignature, "stake signature invalid")
	}

	if clampFuture(stake.Timestamp, now, timeDeltaSecs) {
		return reject("stake", hash, chainerr.ReasonTimestamp, "timestamp too far in the future")
	}
	if stake.Timestamp < latestStableTimestamp {
		return reject("stake", hash, chainerr.ReasonTimestamp, "timestamp older than latest stable block")
	}

	amt := blockchain.FromAmountBytes(stake.Amount)
	fee := blockchain.FromAmountBytes(stake.Fee)
	if stake.Deposit {
		debit := amt.Add(fee)
		if unstable.BalanceOf(input).Cmp(debit) < 0 {
			return reject("stake", hash, chainerr.ReasonBalance, "insufficient balance to deposit stake")
		}
	} else {
		if unstable.StakedOf(input).Cmp(amt) < 0 {
			return reject("stake", hash, chainerr.ReasonStaked, "insufficient staked amount to withdraw")
		}
	}

	if len(p.stakes) >= p.cfg.MaxStakes {
		return reject("stake", hash, chainerr.ReasonSize, "pending stake pool full")
	}

	p.stakes[hash] = stake
	return hash, nil
}

// AdmitBlock validates block against the block admission predicates: not
// yet known, a known parent, a sane timestamp, the scheduled leader,
// and the size limit. leaderQueue and previousBeta come from the
// unstable state the block extends; slotIndex is the block's own slot
// relative to its parent's timestamp.
func (p *Pool) AdmitBlock(block *wire.Block, tree TreeLookup, leaderQueue []address.Address, previousBeta [32]byte, slotIndex uint64, now, latestStableTimestamp uint32, timeDeltaSecs int) (wire.Hash, error) {
	hash := block.Hash()

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.blocks[hash]; exists {
		return reject("block", hash, chainerr.ReasonDuplicate, "block already pending")
	}
	if _, inTree := tree.Get(hash); inTree {
		return reject("block", hash, chainerr.ReasonDuplicate, "block already in tree")
	}

	if !block.PreviousHash.IsZero() {
		if _, ok := tree.Get(block.PreviousHash); !ok {
			return reject("block", hash, chainerr.ReasonSignature, "previous hash unknown to tree")
		}
	}

	if clampFuture(block.Timestamp, now, timeDeltaSecs) {
		return reject("block", hash, chainerr.ReasonTimestamp, "timestamp too far in the future")
	}
	if block.Timestamp < latestStableTimestamp {
		return reject("block", hash, chainerr.ReasonTimestamp, "timestamp older than latest stable block")
	}

	forger, err := block.ForgerAddress()
	if err != nil {
		return reject("block", hash, chainerr.ReasonSignature, "block signature invalid")
	}
	leader, ok := blockchain.LeaderForSlot(leaderQueue, previousBeta, slotIndex)
	switch {
	case !ok:
		// Cold start: with no active stakers there is no scheduled
		// leader; a genesis-extending block is admissible iff it carries
		// the deposit stake that bootstraps the validator set.
		if !block.PreviousHash.IsZero() || !carriesDeposit(block) {
			return reject("block", hash, chainerr.ReasonSignature, "no scheduled leader and no bootstrap stake")
		}
	case leader != forger:
		return reject("block", hash, chainerr.ReasonSignature, "forger is not the scheduled leader for this slot")
	}

	if block.Size() > blockchain.BlockSizeLimit {
		return reject("block", hash, chainerr.ReasonSize, "block exceeds size limit")
	}

	if len(p.blocks) >= p.cfg.MaxBlocks {
		return reject("block", hash, chainerr.ReasonSize, "pending block pool full")
	}

	p.blocks[hash] = block
	return hash, nil
}

func carriesDeposit(block *wire.Block) bool {
	for i := range block.Stakes {
		if block.Stakes[i].Deposit {
			return true
		}
	}
	return false
}

// Prune drops every pool entry that block carries: once a block is part
// of any tree branch, its transactions, stakes and its own hash no
// longer need to wait in the pool.
func (p *Pool) Prune(block *wire.Block) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.blocks, block.Hash())
	for i := range block.Transactions {
		tx := &block.Transactions[i]
		hash := tx.Hash()
		if _, ok := p.transactions[hash]; ok {
			delete(p.transactions, hash)
			if input, err := p.inputAddress(hash, tx.Signature); err == nil {
				debit := blockchain.FromAmountBytes(tx.Amount).Add(blockchain.FromAmountBytes(tx.Fee))
				if remaining, underflow := p.pendingDebit[input].Sub(debit); !underflow {
					p.pendingDebit[input] = remaining
				} else {
					delete(p.pendingDebit, input)
				}
			}
		}
	}
	for i := range block.Stakes {
		delete(p.stakes, block.Stakes[i].Hash())
	}
}

// Transactions returns every pending transaction ordered by descending
// fee, tie-broken by earlier timestamp then lexicographically smaller
// hash — the order the forger drains the pool in.
func (p *Pool) Transactions() []*wire.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*wire.Transaction, 0, len(p.transactions))
	for _, tx := range p.transactions {
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return lessByFee(out[i].Fee, out[i].Timestamp, out[i].Hash(), out[j].Fee, out[j].Timestamp, out[j].Hash()) })
	return out
}

// Stakes returns every pending stake in the same descending-fee order as
// Transactions.
func (p *Pool) Stakes() []*wire.Stake {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*wire.Stake, 0, len(p.stakes))
	for _, s := range p.stakes {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return lessByFee(out[i].Fee, out[i].Timestamp, out[i].Hash(), out[j].Fee, out[j].Timestamp, out[j].Hash()) })
	return out
}

// Blocks returns every pending block, unordered.
func (p *Pool) Blocks() []*wire.Block {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*wire.Block, 0, len(p.blocks))
	for _, b := range p.blocks {
		out = append(out, b)
	}
	return out
}

func lessByFee(feeA amount.Bytes, tsA uint32, hashA wire.Hash, feeB amount.Bytes, tsB uint32, hashB wire.Hash) bool {
	fa := blockchain.FromAmountBytes(feeA)
	fb := blockchain.FromAmountBytes(feeB)
	if c := fa.Cmp(fb); c != 0 {
		return c > 0 // descending fee
	}
	if tsA != tsB {
		return tsA < tsB
	}
	for i := range hashA {
		if hashA[i] != hashB[i] {
			return hashA[i] < hashB[i]
		}
	}
	return false
}
