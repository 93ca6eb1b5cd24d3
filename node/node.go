// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package node implements the node loop: the single cooperative
// scheduler that ticks the heartbeat, drains the pending pool on slot
// boundaries, and dispatches gossip and RPC events. Exactly one
// goroutine touches consensus state; this package is that goroutine.
package node

import (
	"context"
	"sync"
	"time"

	"github.com/vrfpos/node/blockchain"
	"github.com/vrfpos/node/chainerr"
	"github.com/vrfpos/node/config"
	"github.com/vrfpos/node/internal/mining"
	"github.com/vrfpos/node/key"
	"github.com/vrfpos/node/mempool"
	"github.com/vrfpos/node/netsync"
	"github.com/vrfpos/node/store"
	"github.com/vrfpos/node/wire"
)

// Clock returns the current wall-clock time as Unix seconds. The host's
// time-sync collaborator is responsible for keeping this accurate across
// peers; the core only ever calls it.
type Clock func() uint32

// SystemClock is the default Clock, backed by time.Now.
func SystemClock() uint32 { return uint32(time.Now().Unix()) }

// Gossip is the outbound half of the p2p collaborator: the core hands it
// accepted items to broadcast, and asks it for the successor of the
// current tip while catching up. It never blocks the node loop with
// network IO beyond enqueueing.
type Gossip interface {
	PublishBlock(*wire.Block)
	PublishTransaction(*wire.Transaction)
	PublishStake(*wire.Stake)
	RequestNextBlock(tip wire.Hash)
}

// noopGossip discards everything; used when a node runs with no
// transport collaborator wired in (e.g. tests, an isolated devnet node).
type noopGossip struct{}

func (noopGossip) PublishBlock(*wire.Block)             {}
func (noopGossip) PublishTransaction(*wire.Transaction) {}
func (noopGossip) PublishStake(*wire.Stake)             {}
func (noopGossip) RequestNextBlock(wire.Hash)           {}

// Node owns every piece of mutable consensus state and is the sole
// writer to it.
type Node struct {
	cfg    config.Config
	store  *store.Store
	tree   *blockchain.Tree
	fm     *blockchain.ForkManager
	pool   *mempool.Pool
	forger *mining.Forger
	sync   *netsync.Controller
	clock  Clock
	gossip Gossip

	// mu guards tree and fm. The node loop is the only writer and always
	// takes the write lock; the query surface, read from arbitrary RPC
	// goroutines, takes the read lock.
	mu sync.RWMutex

	gossipIn    chan GossipEvent
	submissions chan submission

	// heartbeats counts ticks since startup; per-second work runs on
	// every tps-th tick.
	heartbeats uint64
}

// New assembles a Node from its already-opened store and in-memory
// tree/state. forger may be mining.Disabled() for an observer node.
func New(cfg config.Config, st *store.Store, tree *blockchain.Tree, fm *blockchain.ForkManager, forger *mining.Forger) *Node {
	pool := mempool.New(mempool.Config{})
	pool.SetResolver(st)
	fm.Stable.SetResolver(st)
	return &Node{
		cfg:         cfg,
		store:       st,
		tree:        tree,
		fm:          fm,
		pool:        pool,
		forger:      forger,
		sync:        netsync.NewController(),
		clock:       SystemClock,
		gossip:      noopGossip{},
		gossipIn:    make(chan GossipEvent, 256),
		submissions: make(chan submission, 64),
	}
}

// SetGossip wires in the transport collaborator's publish side.
func (n *Node) SetGossip(g Gossip) { n.gossip = g }

// SetClock overrides the wall-clock source, used by tests.
func (n *Node) SetClock(c Clock) { n.clock = c }

// GossipIn returns the channel the transport collaborator feeds inbound
// block/blocks/transaction/stake messages into.
func (n *Node) GossipIn() chan<- GossipEvent { return n.gossipIn }

// SubmitTransaction hands tx to the node loop for admission and blocks
// until it has been processed.
func (n *Node) SubmitTransaction(ctx context.Context, tx *wire.Transaction) (wire.Hash, error) {
	result := make(chan SubmitResult, 1)
	select {
	case n.submissions <- submission{transaction: tx, result: result}:
	case <-ctx.Done():
		return wire.Hash{}, ctx.Err()
	}
	select {
	case r := <-result:
		return r.Hash, r.Err
	case <-ctx.Done():
		return wire.Hash{}, ctx.Err()
	}
}

// SubmitStake hands stake to the node loop for admission and blocks
// until it has been processed.
func (n *Node) SubmitStake(ctx context.Context, stake *wire.Stake) (wire.Hash, error) {
	result := make(chan SubmitResult, 1)
	select {
	case n.submissions <- submission{stake: stake, result: result}:
	case <-ctx.Done():
		return wire.Hash{}, ctx.Err()
	}
	select {
	case r := <-result:
		return r.Hash, r.Err
	case <-ctx.Done():
		return wire.Hash{}, ctx.Err()
	}
}

// Run drives the node loop until ctx is cancelled. tps is ticks per
// second; one tick is one suspension point. Exactly one of
// {tick, gossip, submission} is handled per iteration, biased in that
// order, so inclusion of an item admitted during tick N is never
// possible in a block forged during the same iteration N.
func (n *Node) Run(ctx context.Context, tps int) error {
	if tps <= 0 {
		tps = 1
	}
	ticker := time.NewTicker(time.Second / time.Duration(tps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return n.shutdown()
		default:
		}

		// Biased selection: an already-due tick is handled before any
		// network event, and a network event before any RPC submission,
		// so slot-boundary timing survives overload.
		select {
		case <-ticker.C:
			n.onTick(tps)
			continue
		default:
		}
		select {
		case ev := <-n.gossipIn:
			n.onGossip(ev)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			return n.shutdown()
		case <-ticker.C:
			n.onTick(tps)
		case ev := <-n.gossipIn:
			n.onGossip(ev)
		case sub := <-n.submissions:
			n.onSubmission(sub)
		}
	}
}

func (n *Node) shutdown() error {
	n.mu.RLock()
	cp := n.fm.Stable.Checkpoint()
	n.mu.RUnlock()
	if err := n.store.PutCheckpoint(cp); err != nil {
		return chainerr.Wrap(chainerr.Fatal, "persist checkpoint on shutdown", err)
	}
	return nil
}

// onGossip admits an inbound p2p message into the pending pool. Failures
// drop the offending event; only Fatal ever stops the node.
func (n *Node) onGossip(ev GossipEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.clock()
	switch {
	case ev.Block != nil:
		n.admitBlock(ev.Block, now)
	case ev.Blocks != nil:
		for i := range ev.Blocks {
			n.admitBlock(&ev.Blocks[i], now)
		}
	case ev.Transaction != nil:
		latest := n.latestStableTimestamp()
		_, _ = n.pool.AdmitTransaction(ev.Transaction, n.fm.Unstable, now, latest, n.cfg.TimeDelta)
	case ev.Stake != nil:
		latest := n.latestStableTimestamp()
		_, _ = n.pool.AdmitStake(ev.Stake, n.fm.Unstable, now, latest, n.cfg.TimeDelta)
	}
}

func (n *Node) admitBlock(block *wire.Block, now uint32) {
	latest := n.fm.Unstable.LatestBlock
	latestTimestamp := n.latestBlockTimestamp()
	slot := mining.SlotIndex(block.Timestamp, latestTimestamp)
	if block.PreviousHash != latest && !block.PreviousHash.IsZero() {
		// Not extending the current tip; still worth pooling in case a
		// reorg makes it relevant, so fall through to the size/signature
		// checks below without a tip-relative slot index.
		slot = 0
	}
	previousBeta := n.betaOf(block.PreviousHash)
	_, _ = n.pool.AdmitBlock(block, n.tree, n.fm.Unstable.StakerQueue, previousBeta, slot, now, n.latestStableTimestamp(), n.cfg.TimeDelta)
}

func (n *Node) betaOf(hash wire.Hash) [32]byte {
	if hash.IsZero() {
		return blockchain.GenesisBeta
	}
	beta, err := n.store.Beta(hash)
	if err != nil {
		return [32]byte{}
	}
	return beta
}

func (n *Node) latestBlockTimestamp() uint32 {
	lb := n.fm.Unstable.LatestBlocks
	if len(lb) == 0 {
		lb = n.fm.Stable.LatestBlocks
	}
	if len(lb) == 0 {
		return 0
	}
	return lb[len(lb)-1]
}

func (n *Node) latestStableTimestamp() uint32 {
	lb := n.fm.Stable.LatestBlocks
	if len(lb) == 0 {
		return 0
	}
	return lb[len(lb)-1]
}

// onSubmission admits a wallet-originated transaction or stake from the
// RPC collaborator and reports the result back on its channel.
func (n *Node) onSubmission(sub submission) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	now := n.clock()
	latest := n.latestStableTimestamp()
	var hash wire.Hash
	var err error
	switch {
	case sub.transaction != nil:
		hash, err = n.pool.AdmitTransaction(sub.transaction, n.fm.Unstable, now, latest, n.cfg.TimeDelta)
	case sub.stake != nil:
		hash, err = n.pool.AdmitStake(sub.stake, n.fm.Unstable, now, latest, n.cfg.TimeDelta)
	}
	sub.result <- SubmitResult{Hash: hash, Err: err}
}

// onTick runs the per-tick work. Most ticks only advance the
// heartbeat counter; once per second the loop folds the sync rate,
// forges (or, while downloading, asks peers for the next block), applies
// admissible pending blocks into the tree, and logs the time elapsed
// since the start of the current wall-clock second. The tick's own
// scheduled time is not consulted for that figure.
func (n *Node) onTick(tps int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	perSecond := n.heartbeats%uint64(tps) == 0
	n.heartbeats++
	if !perSecond {
		return
	}

	n.sync.Tick()

	if n.sync.Downloading() {
		n.gossip.RequestNextBlock(n.fm.Unstable.LatestBlock)
	} else {
		n.tryForge(n.clock())
	}

	n.applyPendingBlocks()

	lag := time.Since(time.Now().Truncate(time.Second))
	log.Debugf("heartbeat %d %s", n.heartbeats, lag.Round(time.Millisecond))
}

func (n *Node) tryForge(now uint32) {
	latest := n.fm.Unstable.LatestBlock
	latestTimestamp := n.latestBlockTimestamp()
	if now < latestTimestamp+uint32(blockchain.BlockTime.Seconds()) {
		return
	}
	previousBeta := n.betaOf(latest)

	if len(n.fm.Unstable.StakerQueue) == 0 {
		// Cold start: no slot schedule exists without stakers. A minting
		// node bootstraps the validator set by forging a block that
		// carries its own deposit stake.
		if !n.cfg.Mint {
			return
		}
		stake, err := n.forger.ColdStartStake(n.minStake(), now)
		if err != nil {
			log.Warnf("cold-start stake: %v", err)
			return
		}
		block, err := n.forger.Forge(latest, previousBeta, now, nil, []wire.Stake{*stake})
		if err != nil {
			log.Warnf("forge failed: %v", err)
			return
		}
		n.acceptBlock(block)
		n.gossip.PublishBlock(block)
		return
	}

	slot := mining.SlotIndex(now, latestTimestamp)
	if !n.forger.IsLeader(n.fm.Unstable.StakerQueue, previousBeta, slot) {
		return
	}

	block, err := n.forger.Forge(latest, previousBeta, now, txSlice(n.pool.Transactions()), stakeSlice(n.pool.Stakes()))
	if err != nil {
		log.Warnf("forge failed: %v", err)
		return
	}
	n.acceptBlock(block)
	n.gossip.PublishBlock(block)
}

// minStake returns the cold-start deposit amount: the configured
// --min-stake, or one COIN when unset (Open Question (a)).
func (n *Node) minStake() blockchain.U128 {
	if n.cfg.MinStake != 0 {
		return blockchain.U128{Lo: n.cfg.MinStake}
	}
	return blockchain.Coin
}

// applyPendingBlocks inserts every admissible pending block into the
// tree, re-ranks branches, and folds the fork manager forward to the
// new main tip.
func (n *Node) applyPendingBlocks() {
	for _, block := range n.pool.Blocks() {
		n.acceptBlock(block)
	}
}

// acceptBlock verifies block's VRF proof against its forger and, if
// valid, persists it, records its beta, inserts it into the tree, and
// removes its contents from the pool. This is the only path that writes
// a block to the tree/store.
func (n *Node) acceptBlock(block *wire.Block) {
	hash := block.Hash()
	pubKey, err := block.ForgerPublicKey()
	if err != nil {
		log.Debugf("block %s: bad signature: %v", hash, err)
		return
	}
	previousBeta := n.betaOf(block.PreviousHash)
	if !key.VRFVerify(pubKey, block.Pi, previousBeta[:]) {
		log.Debugf("block %s: vrf verification failed", hash)
		return
	}
	beta, err := key.VRFProofToHash(block.Pi)
	if err != nil {
		log.Debugf("block %s: could not derive beta: %v", hash, err)
		return
	}

	// A block whose previous-hash forks behind the current stable/unstable
	// boundary would, if admitted, eventually require reverting a
	// finalized block. Resolve walks back at most K hops looking for the
	// live boundary or genesis; any other outcome is
	// ErrNotAllowedToForkStableChain and the block is dropped here, before
	// it is ever persisted or inserted into the tree.
	if _, err := n.fm.Resolve(n.store, n.tree, block.PreviousHash); err != nil {
		log.Debugf("block %s: %v", hash, err)
		return
	}

	if err := n.store.PutBlock(block); err != nil {
		log.Errorf("persist block %s: %v", hash, err)
		return
	}
	if err := n.store.PutBeta(hash, beta); err != nil {
		log.Errorf("persist beta for %s: %v", hash, err)
		return
	}

	n.tree.Insert(hash, block.PreviousHash, block.Timestamp)
	n.tree.SortBranches()
	n.pool.Prune(block)
	n.sync.Accepted()

	tip, _ := n.tree.Main()
	if err := n.fm.Update(n.store, n.collectMainHashes(tip)); err != nil {
		log.Warnf("fork manager update for tip %s: %v", tip, err)
		return
	}
	n.tree.PruneStale(n.fm.LiveBoundary(), n.fm.K)
}

// collectMainHashes walks the tree backward from tip until the stable
// tip (or genesis), returning the main chain's not-yet-finalized suffix
// oldest-first. ForkManager.Update folds any excess beyond K into
// Stable.
func (n *Node) collectMainHashes(tip wire.Hash) []wire.Hash {
	stableTip := n.fm.Stable.LatestBlock
	var hashes []wire.Hash
	cur := tip
	for !cur.IsZero() && cur != stableTip {
		hashes = append(hashes, cur)
		parent, ok := n.tree.Get(cur)
		if !ok {
			break
		}
		cur = parent
	}
	for i, j := 0, len(hashes)-1; i < j; i, j = i+1, j-1 {
		hashes[i], hashes[j] = hashes[j], hashes[i]
	}
	return hashes
}

func txSlice(ptrs []*wire.Transaction) []wire.Transaction {
	out := make([]wire.Transaction, len(ptrs))
	for i, p := range ptrs {
		out[i] = *p
	}
	return out
}

func stakeSlice(ptrs []*wire.Stake) []wire.Stake {
	out := make([]wire.Stake, len(ptrs))
	for i, p := range ptrs {
		out[i] = *p
	}
	return out
}
