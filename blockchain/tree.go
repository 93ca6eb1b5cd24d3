// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package blockchain implements the fork-aware in-memory block tree, the
// stable/unstable ledger state split, the fork manager that bridges the
// two, and the reward/penalty arithmetic applied when a block enters the
// stable prefix.
package blockchain

import (
	"bytes"
	"sort"

	"github.com/vrfpos/node/wire"
)

// branch tracks one candidate chain's tip.
type branch struct {
	leafHash      wire.Hash
	leafTimestamp uint32
	length        int
}

// Tree is the in-memory DAG of block hashes keyed by previous-hash. It
// never stores block bodies; Stable/Unstable own ledger semantics, Tree
// only owns shape and ranking.
type Tree struct {
	parent   map[wire.Hash]wire.Hash
	branches []*branch
}

// NewTree returns an empty Tree.
func NewTree() *Tree {
	return &Tree{parent: make(map[wire.Hash]wire.Hash)}
}

// Insert records hash as a child of previousHash at the given timestamp.
// Duplicate hashes are ignored. If previousHash is an existing branch's
// leaf, that branch is extended in place; otherwise a new branch starts,
// with its length computed by walking back to genesis.
func (t *Tree) Insert(hash, previousHash wire.Hash, timestamp uint32) {
	if _, exists := t.parent[hash]; exists {
		return
	}
	t.parent[hash] = previousHash

	for _, br := range t.branches {
		if br.leafHash == previousHash {
			br.leafHash = hash
			br.leafTimestamp = timestamp
			br.length++
			return
		}
	}
	t.branches = append(t.branches, &branch{
		leafHash:      hash,
		leafTimestamp: timestamp,
		length:        t.Height(hash),
	})
}

// Get returns the previous-hash recorded for hash.
func (t *Tree) Get(hash wire.Hash) (wire.Hash, bool) {
	prev, ok := t.parent[hash]
	return prev, ok
}

// Height walks previous-hash pointers back to the genesis sentinel and
// returns the number of hops, i.e. the count of ancestors including hash
// itself.
func (t *Tree) Height(hash wire.Hash) int {
	height := 0
	cur := hash
	for {
		prev, ok := t.parent[cur]
		if !ok {
			return height
		}
		height++
		if prev.IsZero() {
			return height
		}
		cur = prev
	}
}

// SortBranches ranks branches descending by length, breaking ties by
// earlier leaf timestamp, then by lexicographically smaller leaf hash.
// The first branch after sorting is the canonical main tip.
func (t *Tree) SortBranches() {
	sort.Slice(t.branches, func(i, j int) bool {
		a, b := t.branches[i], t.branches[j]
		if a.length != b.length {
			return a.length > b.length
		}
		if a.leafTimestamp != b.leafTimestamp {
			return a.leafTimestamp < b.leafTimestamp
		}
		return bytes.Compare(a.leafHash[:], b.leafHash[:]) < 0
	})
}

// Main returns the canonical tip and its height. Callers must call
// SortBranches after any Insert and before calling Main.
func (t *Tree) Main() (wire.Hash, int) {
	if len(t.branches) == 0 {
		return wire.Hash{}, 0
	}
	return t.branches[0].leafHash, t.branches[0].length
}

// Clear discards all tracked hashes and branches.
func (t *Tree) Clear() {
	t.parent = make(map[wire.Hash]wire.Hash)
	t.branches = nil
}

// PruneStale drops every branch whose leaf cannot reach liveHash (or the
// genesis sentinel) within depth hops of parent pointers. Those are
// exactly the branches ForkManager.Resolve would now refuse to ever
// extend, since their fork point lies behind the stable/unstable
// boundary — keeping them around would let a long-enough stale branch
// win SortBranches/Main and surface a tip that reverts a finalized
// block. Call this after every ForkManager.Update with the new
// unstable boundary and K.
func (t *Tree) PruneStale(liveHash wire.Hash, depth int) {
	kept := t.branches[:0]
	for _, br := range t.branches {
		if t.reaches(br.leafHash, liveHash, depth) {
			kept = append(kept, br)
		}
	}
	t.branches = kept
}

// reaches reports whether walking parent pointers back from hash, at
// most depth hops, reaches liveHash or the genesis sentinel.
func (t *Tree) reaches(hash, liveHash wire.Hash, depth int) bool {
	cur := hash
	for i := 0; i <= depth; i++ {
		if cur == liveHash || cur.IsZero() {
			return true
		}
		parent, ok := t.parent[cur]
		if !ok {
			return false
		}
		cur = parent
	}
	return false
}
