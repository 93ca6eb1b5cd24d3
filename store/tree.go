// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"github.com/vrfpos/node/blockchain"
	"github.com/vrfpos/node/wire"
)

// LoadTree rebuilds an in-memory blockchain.Tree from every block
// persisted in the blocks column family. The KV store has no notion of
// chain order, so this loads every block, indexes them by hash, then
// inserts breadth-first starting from roots whose previous_hash is not
// itself a known block (the genesis sentinel or a pruned ancestor).
func (s *Store) LoadTree() (*blockchain.Tree, error) {
	hashes, err := s.allBlockHashes()
	if err != nil {
		return nil, err
	}

	blocks := make(map[wire.Hash]*wire.Block, len(hashes))
	children := make(map[wire.Hash][]wire.Hash)
	for _, h := range hashes {
		b, err := s.LoadBlock(h)
		if err != nil {
			return nil, err
		}
		blocks[h] = b
		children[b.PreviousHash] = append(children[b.PreviousHash], h)
	}

	tree := blockchain.NewTree()
	var queue []wire.Hash
	for _, h := range hashes {
		b := blocks[h]
		if _, isKnownBlock := blocks[b.PreviousHash]; !isKnownBlock {
			queue = append(queue, h)
		}
	}

	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		b := blocks[h]
		tree.Insert(h, b.PreviousHash, b.Timestamp)
		queue = append(queue, children[h]...)
	}

	return tree, nil
}
