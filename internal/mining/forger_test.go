// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining

import (
	"testing"

	"github.com/vrfpos/node/address"
	"github.com/vrfpos/node/blockchain"
	"github.com/vrfpos/node/key"
	"github.com/vrfpos/node/wire"
)

func TestSlotIndex(t *testing.T) {
	blockTime := uint32(blockchain.BlockTime.Seconds())
	if got := SlotIndex(1000, 1000); got != 0 {
		t.Fatalf("SlotIndex at latest = %d, want 0", got)
	}
	if got := SlotIndex(1000+blockTime, 1000); got != 1 {
		t.Fatalf("SlotIndex one slot later = %d, want 1", got)
	}
	if got := SlotIndex(500, 1000); got != 0 {
		t.Fatalf("SlotIndex before latest should clamp to 0, got %d", got)
	}
}

func TestIsLeaderOnlyForScheduledAddress(t *testing.T) {
	sk, err := key.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	other, err := key.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	queue := []address.Address{sk.Address(), other.Address()}
	var beta [32]byte
	leader, ok := blockchain.LeaderForSlot(queue, beta, 0)
	if !ok {
		t.Fatal("expected a leader for a non-empty queue")
	}

	forger := New(sk)
	wantLeader := leader == sk.Address()
	if got := forger.IsLeader(queue, beta, 0); got != wantLeader {
		t.Fatalf("IsLeader = %v, want %v", got, wantLeader)
	}
}

func TestDisabledForgerNeverLeads(t *testing.T) {
	f := Disabled()
	queue := []address.Address{{1}, {2}}
	if f.IsLeader(queue, [32]byte{}, 0) {
		t.Fatal("a disabled forger must never claim leadership")
	}
}

func TestForgeDrainsPendingItemsAndSigns(t *testing.T) {
	sk, err := key.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	recv, err := key.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	f := New(sk)

	tx := wire.Transaction{OutputAddress: recv.Address(), Timestamp: 1}
	if err := tx.Sign(recv); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	block, err := f.Forge(wire.Hash{}, [32]byte{}, 120, []wire.Transaction{tx}, nil)
	if err != nil {
		t.Fatalf("Forge: %v", err)
	}
	if len(block.Transactions) != 1 {
		t.Fatalf("expected forged block to include the pending transaction")
	}
	forger, err := block.ForgerAddress()
	if err != nil {
		t.Fatalf("ForgerAddress: %v", err)
	}
	if forger != sk.Address() {
		t.Fatal("forged block was not signed by the forger's key")
	}
}

func TestForgeFailsWithoutKey(t *testing.T) {
	f := Disabled()
	if _, err := f.Forge(wire.Hash{}, [32]byte{}, 0, nil, nil); err == nil {
		t.Fatal("expected Forge to fail without a forging key")
	}
}
