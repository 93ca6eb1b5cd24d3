// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/vrfpos/node/address"
	"github.com/vrfpos/node/amount"
	"github.com/vrfpos/node/key"
	"github.com/vrfpos/node/wire"
)

func hashOf(b byte) wire.Hash {
	var h wire.Hash
	h[0] = b
	return h
}

func TestTreeRanking(t *testing.T) {
	tr := NewTree()
	zero := wire.Hash{}
	h11, h22, h33, h44, h55, h66, h77 := hashOf(11), hashOf(22), hashOf(33), hashOf(44), hashOf(55), hashOf(66), hashOf(77)

	tr.Insert(h11, zero, 100)
	tr.Insert(h22, h11, 101)
	tr.Insert(h33, h22, 102)
	tr.Insert(h44, h33, 103)
	tr.Insert(h55, h22, 104)
	tr.Insert(h66, zero, 105)
	tr.Insert(h77, h55, 90) // earlier timestamp than h44's branch

	tr.SortBranches()
	tip, height := tr.Main()
	if height != 4 {
		t.Fatalf("expected main height 4, got %d", height)
	}
	if tip != h77 {
		t.Fatalf("expected branch with the earlier tiebreak timestamp to win, got tip %x want %x", tip, h77)
	}
}

func TestTreeDuplicateInsertIgnored(t *testing.T) {
	tr := NewTree()
	zero := wire.Hash{}
	h1 := hashOf(1)
	tr.Insert(h1, zero, 10)
	tr.Insert(h1, zero, 99) // duplicate, should be ignored
	tr.SortBranches()
	_, height := tr.Main()
	if height != 1 {
		t.Fatalf("duplicate insert changed height: got %d, want 1", height)
	}
}

type fakeLoader struct {
	blocks map[wire.Hash]*wire.Block
}

func (f *fakeLoader) LoadBlock(h wire.Hash) (*wire.Block, error) {
	b, ok := f.blocks[h]
	if !ok {
		return nil, errNotFoundForTest
	}
	return b, nil
}

func (f *fakeLoader) InputAddress(hash wire.Hash, sig [key.SignatureSize]byte) (address.Address, error) {
	return key.RecoverAddress(hash, sig)
}

type testErr string

func (e testErr) Error() string { return string(e) }

var errNotFoundForTest = testErr("not found")

func TestForkManagerFinalizationRefusal(t *testing.T) {
	zero := wire.Hash{}
	hA, hB, hC, hD := hashOf(0xA), hashOf(0xB), hashOf(0xC), hashOf(0xD)

	tr := NewTree()
	tr.Insert(hA, zero, 1)
	tr.Insert(hB, hA, 2)
	tr.Insert(hC, hB, 3)
	tr.Insert(hD, hC, 4)

	// Committed state: stable holds {A,B}, unstable holds {C,D}.
	stable := NewStable()
	stable.Hashes = []wire.Hash{hA, hB}
	stable.LatestBlock = hB
	fm := NewForkManager(2, stable)
	fm.Unstable = &Unstable{State: NewState()}
	fm.Unstable.Hashes = []wire.Hash{hC, hD}

	loader := &fakeLoader{blocks: map[wire.Hash]*wire.Block{}}

	if _, err := fm.Resolve(loader, tr, hA); err == nil {
		t.Fatal("expected NotAllowedToForkStableChain offering a child of A, got nil error")
	}
}

func TestForkManagerExtendsTip(t *testing.T) {
	zero := wire.Hash{}
	hA, hB := hashOf(0xA), hashOf(0xB)

	sk, err := key.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	cBlock := &wire.Block{PreviousHash: hB, Timestamp: 3}
	if err := cBlock.Sign(sk); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	hC := cBlock.Hash()
	dBlock := &wire.Block{PreviousHash: hC, Timestamp: 4}
	if err := dBlock.Sign(sk); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	hD := dBlock.Hash()

	tr := NewTree()
	tr.Insert(hA, zero, 1)
	tr.Insert(hB, hA, 2)
	tr.Insert(hC, hB, 3)
	tr.Insert(hD, hC, 4)

	stable := NewStable()
	stable.Hashes = []wire.Hash{hA, hB}
	stable.LatestBlock = hB
	fm := NewForkManager(2, stable)
	fm.Unstable = &Unstable{State: NewState()}
	fm.Unstable.Hashes = []wire.Hash{hC, hD}

	loader := &fakeLoader{blocks: map[wire.Hash]*wire.Block{hC: cBlock, hD: dBlock}}

	u, err := fm.Resolve(loader, tr, hD)
	if err != nil {
		t.Fatalf("extending the current tip should be allowed: %v", err)
	}
	// The rebuilt suffix replays the full unstable segment, boundary
	// block included.
	if len(u.Hashes) != 2 {
		t.Fatalf("rebuilt unstable replayed %d blocks, want 2", len(u.Hashes))
	}
}

func TestForkManagerAllowsForkOffUnstableBoundary(t *testing.T) {
	zero := wire.Hash{}
	hA, hB := hashOf(0xA), hashOf(0xB)

	sk, err := key.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	cBlock := &wire.Block{PreviousHash: hB, Timestamp: 3}
	if err := cBlock.Sign(sk); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	hC := cBlock.Hash()
	dBlock := &wire.Block{PreviousHash: hC, Timestamp: 4}
	if err := dBlock.Sign(sk); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	hD := dBlock.Hash()

	tr := NewTree()
	tr.Insert(hA, zero, 1)
	tr.Insert(hB, hA, 2)
	tr.Insert(hC, hB, 3)
	tr.Insert(hD, hC, 4)

	stable := NewStable()
	stable.Hashes = []wire.Hash{hA, hB}
	stable.LatestBlock = hB
	fm := NewForkManager(2, stable)
	fm.Unstable = &Unstable{State: NewState()}
	fm.Unstable.Hashes = []wire.Hash{hC, hD}

	loader := &fakeLoader{blocks: map[wire.Hash]*wire.Block{hC: cBlock, hD: dBlock}}

	// A candidate tip extending C (a sibling of D) only reverts the
	// unconfirmed D and must be allowed.
	u, err := fm.Resolve(loader, tr, hC)
	if err != nil {
		t.Fatalf("forking off the oldest unstable block should be allowed: %v", err)
	}
	if len(u.Hashes) != 1 {
		t.Fatalf("rebuilt unstable replayed %d blocks, want 1", len(u.Hashes))
	}
}

func TestAppendBlockTransfersAndRewards(t *testing.T) {
	sender, err := key.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	recipient, err := key.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	forger, err := key.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	tx := wire.Transaction{
		OutputAddress: recipient.Address(),
		Amount:        amount.ToBytes(0, 1000),
		Fee:           amount.ToBytes(0, 10),
		Timestamp:     60,
	}
	if err := tx.Sign(sender); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	block := &wire.Block{Timestamp: 60, Transactions: []wire.Transaction{tx}}
	if err := block.Sign(forger); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	s := NewState()
	s.Balance[sender.Address()] = U128{Lo: 2000}
	if err := s.AppendBlock(block, 0); err != nil {
		t.Fatalf("AppendBlock: %v", err)
	}

	if got := s.BalanceOf(sender.Address()); got != (U128{Lo: 990}) {
		t.Fatalf("sender balance after transfer:\n%s", spew.Sdump(s.Balance))
	}
	if got := s.BalanceOf(recipient.Address()); got != (U128{Lo: 1000}) {
		t.Fatalf("recipient balance after transfer:\n%s", spew.Sdump(s.Balance))
	}
	// Empty staker queue: subsidy is one COIN, plus the transaction fee.
	wantReward := Coin.Add(U128{Lo: 10})
	if got := s.BalanceOf(forger.Address()); got != wantReward {
		t.Fatalf("forger reward:\n%s", spew.Sdump(s.Balance))
	}
	if len(s.StakerQueue) != 0 {
		t.Fatalf("an unstaked forger must not enter the queue:\n%s", spew.Sdump(s.StakerQueue))
	}
}

func TestAppendBlockStakeDepositEntersQueue(t *testing.T) {
	staker, err := key.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	forger, err := key.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	deposit := wire.Stake{
		Amount:    amount.ToBytes(0, 100),
		Fee:       amount.ToBytes(0, 5),
		Deposit:   true,
		Timestamp: 60,
	}
	if err := deposit.Sign(staker); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	block := &wire.Block{Timestamp: 60, Stakes: []wire.Stake{deposit}}
	if err := block.Sign(forger); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	s := NewState()
	s.Balance[staker.Address()] = U128{Lo: 500}
	if err := s.AppendBlock(block, 0); err != nil {
		t.Fatalf("AppendBlock: %v", err)
	}

	if got := s.BalanceOf(staker.Address()); got != (U128{Lo: 395}) {
		t.Fatalf("staker balance after deposit:\n%s", spew.Sdump(s.Balance))
	}
	if got := s.StakedOf(staker.Address()); got != (U128{Lo: 100}) {
		t.Fatalf("staked amount after deposit:\n%s", spew.Sdump(s.Staked))
	}
	if len(s.StakerQueue) != 1 || s.StakerQueue[0] != staker.Address() {
		t.Fatalf("staker queue after deposit:\n%s", spew.Sdump(s.StakerQueue))
	}
}

func TestAppendBlockPenalizesMissedSlots(t *testing.T) {
	forger, err := key.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	lazy := address.Address{0x77}

	// Two full slots elapse between blocks: one scheduled staker missed
	// its turn and is charged penalty(1) = COIN, rotating to the back.
	block := &wire.Block{Timestamp: 180}
	if err := block.Sign(forger); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	s := NewState()
	s.Staked[lazy] = Coin.MulSmall(3)
	s.StakerQueue = []address.Address{lazy}
	if err := s.AppendBlock(block, 60); err != nil {
		t.Fatalf("AppendBlock: %v", err)
	}

	if got := s.StakedOf(lazy); got != Coin.MulSmall(2) {
		t.Fatalf("missed-slot penalty:\n%s", spew.Sdump(s.Staked))
	}
	if len(s.StakerQueue) != 1 || s.StakerQueue[0] != lazy {
		t.Fatalf("penalized staker should rotate to the back, not leave:\n%s", spew.Sdump(s.StakerQueue))
	}
}

func TestU128ArithmeticAndPenalty(t *testing.T) {
	penalty1 := Coin.Lsh(0) // i=1 -> 2^0 == COIN
	if penalty1.Cmp(Coin) != 0 {
		t.Fatalf("penalty(1) should equal COIN")
	}
	penalty2 := Coin.Lsh(1) // i=2 -> 2*COIN
	want := Coin.Add(Coin)
	if penalty2.Cmp(want) != 0 {
		t.Fatalf("penalty(2) should equal 2*COIN")
	}
}
