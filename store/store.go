// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package store implements the persistent KV layer backing blocks,
// transactions, stakes, betas, the input-address recovery cache, the
// stable-state checkpoint and known peers. goleveldb has no native
// column-family concept, so each logical family is a byte-prefixed key
// range inside one LevelDB handle.
package store

import (
	"bytes"
	"encoding/gob"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/vrfpos/node/address"
	"github.com/vrfpos/node/blockchain"
	"github.com/vrfpos/node/chainerr"
	"github.com/vrfpos/node/key"
	"github.com/vrfpos/node/wire"
)

var (
	prefixBlock        = []byte("b")
	prefixTransaction  = []byte("t")
	prefixStake        = []byte("s")
	prefixBeta         = []byte("y")
	prefixInputAddress = []byte("i")
	prefixPeer         = []byte("p")
	keyCheckpoint      = []byte("checkpoint")
)

// Store is the on-disk KV handle. Opened with single-writer,
// single-reader semantics: it is owned by exactly one node loop.
type Store struct {
	db *leveldb.DB
}

// Open opens (creating if absent) the LevelDB handle at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close flushes and closes the underlying handle, leaving the directory
// openable read-only afterward.
func (s *Store) Close() error {
	return s.db.Close()
}

func prefixed(prefix, key []byte) []byte {
	out := make([]byte, 0, len(prefix)+len(key))
	out = append(out, prefix...)
	out = append(out, key...)
	return out
}

// PutBlock writes a block, first writing every transaction and stake it
// references so the write is atomic at the semantic level: a reader can
// never observe a block whose referenced records are missing.
func (s *Store) PutBlock(block *wire.Block) error {
	batch := new(leveldb.Batch)
	for i := range block.Transactions {
		tx := &block.Transactions[i]
		var buf bytes.Buffer
		if err := tx.Encode(&buf); err != nil {
			return err
		}
		txHash := tx.Hash()
		batch.Put(prefixed(prefixTransaction, txHash[:]), buf.Bytes())
	}
	for i := range block.Stakes {
		stake := &block.Stakes[i]
		var buf bytes.Buffer
		if err := stake.Encode(&buf); err != nil {
			return err
		}
		stakeHash := stake.Hash()
		batch.Put(prefixed(prefixStake, stakeHash[:]), buf.Bytes())
	}
	hash := block.Hash()
	var buf bytes.Buffer
	if err := block.Encode(&buf); err != nil {
		return err
	}
	batch.Put(prefixed(prefixBlock, hash[:]), buf.Bytes())
	return s.db.Write(batch, nil)
}

// LoadBlock satisfies blockchain.BlockLoader.
func (s *Store) LoadBlock(hash wire.Hash) (*wire.Block, error) {
	raw, err := s.db.Get(prefixed(prefixBlock, hash[:]), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, chainerr.New(chainerr.NotFound, "block not found")
		}
		return nil, err
	}
	return wire.DecodeBlock(bytes.NewReader(raw))
}

// Transaction returns the transaction stored under hash.
func (s *Store) Transaction(hash wire.Hash) (*wire.Transaction, error) {
	raw, err := s.db.Get(prefixed(prefixTransaction, hash[:]), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, chainerr.New(chainerr.NotFound, "transaction not found")
		}
		return nil, err
	}
	return wire.DecodeTransaction(bytes.NewReader(raw))
}

// Stake returns the stake stored under hash.
func (s *Store) Stake(hash wire.Hash) (*wire.Stake, error) {
	raw, err := s.db.Get(prefixed(prefixStake, hash[:]), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, chainerr.New(chainerr.NotFound, "stake not found")
		}
		return nil, err
	}
	return wire.DecodeStake(bytes.NewReader(raw))
}

// PutBeta records the 32-byte VRF output produced by the block at hash.
func (s *Store) PutBeta(hash wire.Hash, beta [32]byte) error {
	return s.db.Put(prefixed(prefixBeta, hash[:]), beta[:], nil)
}

// Beta returns the beta recorded for hash.
func (s *Store) Beta(hash wire.Hash) ([32]byte, error) {
	var out [32]byte
	raw, err := s.db.Get(prefixed(prefixBeta, hash[:]), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return out, chainerr.New(chainerr.NotFound, "beta not found")
		}
		return out, err
	}
	copy(out[:], raw)
	return out, nil
}

// InputAddress returns the recovered input address for a tx/stake hash,
// where hash also serves as the signed payload (true for both
// Transaction and Stake, unlike Block). A cache miss recovers from the
// signature and writes the result back; this is the only write path on
// a read.
func (s *Store) InputAddress(hash wire.Hash, signature [key.SignatureSize]byte) (address.Address, error) {
	k := prefixed(prefixInputAddress, hash[:])
	raw, err := s.db.Get(k, nil)
	if err == nil {
		var a address.Address
		copy(a[:], raw)
		return a, nil
	}
	if err != leveldb.ErrNotFound {
		return address.Address{}, err
	}

	a, err := key.RecoverAddress(hash, signature)
	if err != nil {
		return address.Address{}, err
	}
	if err := s.db.Put(k, a[:], nil); err != nil {
		return address.Address{}, err
	}
	return a, nil
}

// PutCheckpoint persists the stable-state snapshot.
func (s *Store) PutCheckpoint(cp blockchain.Checkpoint) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(cp); err != nil {
		return err
	}
	if err := s.db.Put(keyCheckpoint, buf.Bytes(), nil); err != nil {
		return err
	}
	log.Debugf("checkpoint written at height %d", cp.Height)
	return nil
}

// Checkpoint loads the persisted stable-state snapshot, if any.
func (s *Store) Checkpoint() (blockchain.Checkpoint, bool, error) {
	raw, err := s.db.Get(keyCheckpoint, nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return blockchain.Checkpoint{}, false, nil
		}
		return blockchain.Checkpoint{}, false, err
	}
	var cp blockchain.Checkpoint
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&cp); err != nil {
		return blockchain.Checkpoint{}, false, err
	}
	return cp, true, nil
}

// AddPeer records a known peer address. The value is empty; presence of
// the key is the fact being stored.
func (s *Store) AddPeer(ip string) error {
	return s.db.Put(prefixed(prefixPeer, []byte(ip)), nil, nil)
}

// Peers returns every known peer address.
func (s *Store) Peers() ([]string, error) {
	iter := s.db.NewIterator(util.BytesPrefix(prefixPeer), nil)
	defer iter.Release()

	var out []string
	for iter.Next() {
		out = append(out, string(iter.Key()[len(prefixPeer):]))
	}
	return out, iter.Error()
}

// allBlockHashes returns the hashes of every block in the blocks
// column family in an unspecified order; callers reconstruct chain
// order via LoadTree.
func (s *Store) allBlockHashes() ([]wire.Hash, error) {
	iter := s.db.NewIterator(util.BytesPrefix(prefixBlock), nil)
	defer iter.Release()

	var out []wire.Hash
	for iter.Next() {
		var h wire.Hash
		copy(h[:], iter.Key()[len(prefixBlock):])
		out = append(out, h)
	}
	return out, iter.Error()
}
