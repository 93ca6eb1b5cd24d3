// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import "github.com/vrfpos/node/wire"

// GossipEvent is one inbound message from the p2p gossip collaborator,
// one per gossip topic. Exactly one field is set.
type GossipEvent struct {
	Block       *wire.Block
	Blocks      []wire.Block
	Transaction *wire.Transaction
	Stake       *wire.Stake
}

// SubmitResult is handed back to the RPC collaborator after a
// transaction or stake submission.
type SubmitResult struct {
	Hash wire.Hash
	Err  error
}

// submission is an inbound RPC event: a wallet-originated transaction or
// stake awaiting admission, with a channel to report the outcome back to
// the waiting RPC handler.
type submission struct {
	transaction *wire.Transaction
	stake       *wire.Stake
	result      chan<- SubmitResult
}
